package botkit

// InputKind is the kind of content an update carries.
type InputKind string

const (
	InputText     InputKind = "text"
	InputPhoto    InputKind = "photo"
	InputVideo    InputKind = "video"
	InputAudio    InputKind = "audio"
	InputDocument InputKind = "document"
	InputContact  InputKind = "contact"
	InputLocation InputKind = "location"
)

func (k InputKind) describe() string {
	switch k {
	case InputText:
		return "a text message"
	case InputAudio:
		return "an audio file"
	}
	return "a " + string(k)
}

// Update is one transport-neutral incoming event.
type Update struct {
	UserID int64
	ChatID int64

	// Text holds the message text or, for media, the caption.
	Text string

	// Callback is set when a button was pressed.
	Callback *CallbackQuery

	// Attachment is set for media, contact and location messages.
	Attachment *Attachment

	// ReplyToUserID is the author of the message this one replies to.
	// Moderation actions without an explicit target act on that user.
	ReplyToUserID    int64
	ReplyToMessageID int
	MessageID        int
}

// CallbackQuery is a pressed inline button.
type CallbackQuery struct {
	ID        string
	Data      string
	MessageID int
}

// Attachment is non-text message content.
type Attachment struct {
	Kind InputKind
	// FileID identifies media; for contacts it holds the phone number and
	// for locations "lat,lon".
	FileID string
}

// Kind returns the input kind of a message update.
func (u Update) Kind() InputKind {
	if u.Attachment != nil {
		return u.Attachment.Kind
	}
	return InputText
}

// Input is the value handed to a collector.
type Input struct {
	Kind InputKind
	// Text is the message text or caption with surrounding space removed,
	// the same value CheckText validates.
	Text   string
	FileID string
}

// Value returns the text for text input and the file id otherwise.
func (in Input) Value() string {
	if in.Kind == InputText {
		return in.Text
	}
	return in.FileID
}
