package domain

// NodeData is the typed configuration record of a node.
// The set of implementations is closed: one record per family of node types.
type NodeData interface {
	content() *Content
}

// Keyboard types.
const (
	KeyboardInline = "inline"
	KeyboardReply  = "reply"
	KeyboardNone   = "none"
)

// Input formats validated for text input.
const (
	FormatEmail  = "email"
	FormatPhone  = "phone"
	FormatNumber = "number"
)

// Input types for collection.
const (
	InputText     = "text"
	InputPhoto    = "photo"
	InputVideo    = "video"
	InputAudio    = "audio"
	InputDocument = "document"
)

// Content is the conversational part shared by every non-moderation node.
type Content struct {
	Text        string   `json:"messageText,omitempty" mapstructure:"messageText"`
	ParseMode   string   `json:"formatMode,omitempty" mapstructure:"formatMode"`
	Command     string   `json:"command,omitempty" mapstructure:"command"`
	Description string   `json:"description,omitempty" mapstructure:"description"`
	ShowInMenu  bool     `json:"showInMenu,omitempty" mapstructure:"showInMenu"`
	Synonyms    []string `json:"synonyms,omitempty" mapstructure:"synonyms"`

	KeyboardType string   `json:"keyboardType,omitempty" mapstructure:"keyboardType"`
	Buttons      []Button `json:"buttons,omitempty" mapstructure:"buttons"`
	Columns      int      `json:"keyboardColumns,omitempty" mapstructure:"keyboardColumns"`

	EnableConditionalMessages bool                 `json:"enableConditionalMessages,omitempty" mapstructure:"enableConditionalMessages"`
	ConditionalMessages       []ConditionalMessage `json:"conditionalMessages,omitempty" mapstructure:"conditionalMessages"`

	InputConfig       `mapstructure:",squash"`
	MultiSelectConfig `mapstructure:",squash"`
	AutoTransition    `mapstructure:",squash"`
}

func (c *Content) content() *Content { return c }

// InputConfig describes what a node collects from the user.
type InputConfig struct {
	CollectUserInput   bool   `json:"collectUserInput,omitempty" mapstructure:"collectUserInput"`
	InputType          string `json:"inputType,omitempty" mapstructure:"inputType"`
	InputVariable      string `json:"inputVariable,omitempty" mapstructure:"inputVariable"`
	InputTargetNodeID  string `json:"inputTargetNodeId,omitempty" mapstructure:"inputTargetNodeId"`
	MinLength          int    `json:"minLength,omitempty" mapstructure:"minLength"`
	MaxLength          int    `json:"maxLength,omitempty" mapstructure:"maxLength"`
	InputFormat        string `json:"inputValidation,omitempty" mapstructure:"inputValidation"`
	RetryMessage       string `json:"inputRetryMessage,omitempty" mapstructure:"inputRetryMessage"`
	SuccessMessage     string `json:"inputSuccessMessage,omitempty" mapstructure:"inputSuccessMessage"`
	EnablePhotoInput   bool   `json:"enablePhotoInput,omitempty" mapstructure:"enablePhotoInput"`
	PhotoInputVariable string `json:"photoInputVariable,omitempty" mapstructure:"photoInputVariable"`
	EnableVideoInput   bool   `json:"enableVideoInput,omitempty" mapstructure:"enableVideoInput"`
	VideoInputVariable string `json:"videoInputVariable,omitempty" mapstructure:"videoInputVariable"`
	EnableAudioInput   bool   `json:"enableAudioInput,omitempty" mapstructure:"enableAudioInput"`
	AudioInputVariable string `json:"audioInputVariable,omitempty" mapstructure:"audioInputVariable"`
	EnableDocInput     bool   `json:"enableDocumentInput,omitempty" mapstructure:"enableDocumentInput"`
	DocInputVariable   string `json:"documentInputVariable,omitempty" mapstructure:"documentInputVariable"`
}

// MultiSelectConfig enables the accumulate-then-commit selection pattern.
type MultiSelectConfig struct {
	AllowMultipleSelection bool   `json:"allowMultipleSelection,omitempty" mapstructure:"allowMultipleSelection"`
	MultiSelectVariable    string `json:"multiSelectVariable,omitempty" mapstructure:"multiSelectVariable"`
	ContinueButtonText     string `json:"continueButtonText,omitempty" mapstructure:"continueButtonText"`
	ContinueButtonTarget   string `json:"continueButtonTarget,omitempty" mapstructure:"continueButtonTarget"`
}

// AutoTransition lets a handler hand off to the next node immediately.
type AutoTransition struct {
	EnableAutoTransition bool   `json:"enableAutoTransition,omitempty" mapstructure:"enableAutoTransition"`
	AutoTransitionTo     string `json:"autoTransitionTo,omitempty" mapstructure:"autoTransitionTo"`
}

// MessageData configures start, command and message nodes.
type MessageData struct {
	Content `mapstructure:",squash"`
}

// MediaData configures the media-send node kinds.
type MediaData struct {
	Content  `mapstructure:",squash"`
	MediaURL string `json:"mediaUrl,omitempty" mapstructure:"mediaUrl"`
}

// LocationData configures a location (or venue, when Title is set) node.
type LocationData struct {
	Content   `mapstructure:",squash"`
	Latitude  float64 `json:"latitude" mapstructure:"latitude"`
	Longitude float64 `json:"longitude" mapstructure:"longitude"`
	Title     string  `json:"title,omitempty" mapstructure:"title"`
	Address   string  `json:"address,omitempty" mapstructure:"address"`
}

// ContactData configures a contact card node.
type ContactData struct {
	Content     `mapstructure:",squash"`
	PhoneNumber string `json:"phoneNumber" mapstructure:"phoneNumber"`
	FirstName   string `json:"firstName" mapstructure:"firstName"`
	LastName    string `json:"lastName,omitempty" mapstructure:"lastName"`
}

// InputData configures a standalone user_input node.
type InputData struct {
	Content `mapstructure:",squash"`
}

// AdminRights is the set of administrator permissions granted by promote/admin nodes.
type AdminRights struct {
	CanChangeInfo       bool `json:"canChangeInfo,omitempty" mapstructure:"canChangeInfo"`
	CanDeleteMessages   bool `json:"canDeleteMessages,omitempty" mapstructure:"canDeleteMessages"`
	CanRestrictMembers  bool `json:"canRestrictMembers,omitempty" mapstructure:"canRestrictMembers"`
	CanInviteUsers      bool `json:"canInviteUsers,omitempty" mapstructure:"canInviteUsers"`
	CanPinMessages      bool `json:"canPinMessages,omitempty" mapstructure:"canPinMessages"`
	CanManageVideoChats bool `json:"canManageVideoChats,omitempty" mapstructure:"canManageVideoChats"`
	CanPromoteMembers   bool `json:"canPromoteMembers,omitempty" mapstructure:"canPromoteMembers"`
	IsAnonymous         bool `json:"isAnonymous,omitempty" mapstructure:"isAnonymous"`
}

// Any reports whether at least one right is granted.
func (r AdminRights) Any() bool {
	return r.CanChangeInfo || r.CanDeleteMessages || r.CanRestrictMembers || r.CanInviteUsers ||
		r.CanPinMessages || r.CanManageVideoChats || r.CanPromoteMembers || r.IsAnonymous
}

// ModerationData configures the moderation action node kinds.
type ModerationData struct {
	Command             string   `json:"command,omitempty" mapstructure:"command"`
	Synonyms            []string `json:"synonyms,omitempty" mapstructure:"synonyms"`
	Text                string   `json:"messageText,omitempty" mapstructure:"messageText"`
	TargetUserID        int64    `json:"targetUserId,omitempty" mapstructure:"targetUserId"`
	Duration            int      `json:"duration,omitempty" mapstructure:"duration"`
	RevokeMessages      bool     `json:"revokeMessages,omitempty" mapstructure:"revokeMessages"`
	DisableNotification bool     `json:"disableNotification,omitempty" mapstructure:"disableNotification"`
	UnpinAll            bool     `json:"unpinAll,omitempty" mapstructure:"unpinAll"`
	OnlyIfBanned        bool     `json:"onlyIfBanned,omitempty" mapstructure:"onlyIfBanned"`
	CustomTitle         string   `json:"customTitle,omitempty" mapstructure:"customTitle"`
	AdminRights         `mapstructure:",squash"`
}

func (m *ModerationData) content() *Content { return nil }
