package domain

const (
	// DefaultStartCommand is the command bound to a start node without an explicit one.
	DefaultStartCommand = "/start"

	// DefaultDoneText labels the multi-select finalisation button.
	DefaultDoneText = "Done"

	// SelectionSeparator joins the persisted labels of a multi-select variable.
	SelectionSeparator = ", "
)
