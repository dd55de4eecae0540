package domain

// ButtonAction is the tagged variant of what a button does when pressed.
type ButtonAction string

const (
	ActionGoto      ButtonAction = "goto"
	ActionURL       ButtonAction = "url"
	ActionCommand   ButtonAction = "command"
	ActionContact   ButtonAction = "contact"
	ActionLocation  ButtonAction = "location"
	ActionSelection ButtonAction = "selection"
)

// Button belongs to a Node or to a ConditionalMessage.
//
// Target holds the node id for goto buttons and the command (e.g. "/help")
// for command buttons. Value is the option value of selection buttons and
// defaults to Text.
type Button struct {
	ID     string       `json:"id" mapstructure:"id"`
	Text   string       `json:"text" mapstructure:"text"`
	Action ButtonAction `json:"action" mapstructure:"action"`
	Target string       `json:"target,omitempty" mapstructure:"target"`
	URL    string       `json:"url,omitempty" mapstructure:"url"`
	Value  string       `json:"value,omitempty" mapstructure:"value"`

	SkipDataCollection bool `json:"skipDataCollection,omitempty" mapstructure:"skipDataCollection"`
	RequestContact     bool `json:"requestContact,omitempty" mapstructure:"requestContact"`
	RequestLocation    bool `json:"requestLocation,omitempty" mapstructure:"requestLocation"`
}

// OptionValue returns the value recorded when a selection button is chosen.
func (b Button) OptionValue() string {
	if b.Value != "" {
		return b.Value
	}
	return b.Text
}
