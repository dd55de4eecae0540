package botkit

// Parse modes understood by the transport.
const (
	ParseHTML     = "HTML"
	ParseMarkdown = "MarkdownV2"
)

// MediaKind is the kind of media a node sends.
type MediaKind string

const (
	MediaPhoto     MediaKind = "photo"
	MediaVideo     MediaKind = "video"
	MediaAudio     MediaKind = "audio"
	MediaDocument  MediaKind = "document"
	MediaSticker   MediaKind = "sticker"
	MediaVoice     MediaKind = "voice"
	MediaAnimation MediaKind = "animation"
)

// Media is an attachment referenced by URL or file id.
type Media struct {
	Kind MediaKind
	URL  string
}

// Location is a point, or a venue when Title is set.
type Location struct {
	Latitude  float64
	Longitude float64
	Title     string
	Address   string
}

// Contact is a shared phone contact.
type Contact struct {
	PhoneNumber string
	FirstName   string
	LastName    string
}

// Message is one outgoing message. Exactly one of Text, Media, Location and
// Contact is the body; Text doubles as the caption of Media.
type Message struct {
	Text      string
	ParseMode string
	Keyboard  *Keyboard
	Media     *Media
	Location  *Location
	Contact   *Contact
}

// Command is a bot command shown in the client menu.
type Command struct {
	Command     string
	Description string
}

// Group is a chat the bot is configured for.
type Group struct {
	Name        string
	ID          string
	Admin       bool
	Permissions map[string]bool
}
