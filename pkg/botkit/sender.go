package botkit

import "context"

// Sender delivers bot output to a chat transport.
type Sender interface {
	// Send delivers msg and returns the id of the sent message.
	Send(ctx context.Context, chatID int64, msg Message) (int, error)

	// EditKeyboard replaces the keyboard of a sent message.
	EditKeyboard(ctx context.Context, chatID int64, messageID int, kb *Keyboard) error

	// Answer acknowledges a button press, optionally with a notice.
	Answer(ctx context.Context, callbackID, text string) error

	// Moderate applies a chat moderation action.
	Moderate(ctx context.Context, chatID int64, m Moderation) error

	// SetCommands publishes the client command menu.
	SetCommands(ctx context.Context, commands []Command) error
}

// Source delivers incoming updates until ctx is canceled.
type Source interface {
	Updates(ctx context.Context) (<-chan Update, error)
}
