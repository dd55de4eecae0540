package decompiler

import "github.com/aretw0/flowbot/pkg/domain"

// Reverse tables of the botkit constants the emitter writes.
var (
	moderationTypes = map[string]domain.NodeType{
		"ModPin":         domain.NodePinMessage,
		"ModUnpin":       domain.NodeUnpinMessage,
		"ModDelete":      domain.NodeDeleteMessage,
		"ModBan":         domain.NodeBanUser,
		"ModUnban":       domain.NodeUnbanUser,
		"ModMute":        domain.NodeMuteUser,
		"ModUnmute":      domain.NodeUnmuteUser,
		"ModKick":        domain.NodeKickUser,
		"ModPromote":     domain.NodePromoteUser,
		"ModDemote":      domain.NodeDemoteUser,
		"ModAdminRights": domain.NodeAdminRights,
	}

	mediaTypes = map[string]domain.NodeType{
		"MediaPhoto":     domain.NodePhoto,
		"MediaVideo":     domain.NodeVideo,
		"MediaAudio":     domain.NodeAudio,
		"MediaDocument":  domain.NodeDocument,
		"MediaSticker":   domain.NodeSticker,
		"MediaVoice":     domain.NodeVoice,
		"MediaAnimation": domain.NodeAnimation,
	}

	waitInputs = map[string]string{
		"WaitText":     domain.InputText,
		"WaitPhoto":    domain.InputPhoto,
		"WaitVideo":    domain.InputVideo,
		"WaitAudio":    domain.InputAudio,
		"WaitDocument": domain.InputDocument,
	}

	formats = map[string]string{
		"FormatEmail":  domain.FormatEmail,
		"FormatPhone":  domain.FormatPhone,
		"FormatNumber": domain.FormatNumber,
	}

	parseModes = map[string]string{
		"ParseHTML":     "html",
		"ParseMarkdown": "markdown",
	}
)

// keyboardMethods are the Keyboard builder calls that add a button.
var keyboardMethods = map[string]bool{
	"Callback": true,
	"URL":      true,
	"Text":     true,
	"Contact":  true,
	"Location": true,
	"Toggle":   true,
}
