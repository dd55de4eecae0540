package domain

// NodeType is the closed set of node kinds the editor can produce.
type NodeType string

const (
	NodeStart   NodeType = "start"
	NodeCommand NodeType = "command"
	NodeMessage NodeType = "message"

	NodePhoto     NodeType = "photo"
	NodeVideo     NodeType = "video"
	NodeAudio     NodeType = "audio"
	NodeDocument  NodeType = "document"
	NodeSticker   NodeType = "sticker"
	NodeVoice     NodeType = "voice"
	NodeAnimation NodeType = "animation"

	NodeLocation NodeType = "location"
	NodeContact  NodeType = "contact"

	NodePinMessage    NodeType = "pin_message"
	NodeUnpinMessage  NodeType = "unpin_message"
	NodeDeleteMessage NodeType = "delete_message"
	NodeBanUser       NodeType = "ban_user"
	NodeUnbanUser     NodeType = "unban_user"
	NodeMuteUser      NodeType = "mute_user"
	NodeUnmuteUser    NodeType = "unmute_user"
	NodeKickUser      NodeType = "kick_user"
	NodePromoteUser   NodeType = "promote_user"
	NodeDemoteUser    NodeType = "demote_user"
	NodeAdminRights   NodeType = "admin_rights"

	NodeUserInput NodeType = "user_input"
)

var mediaTypes = []NodeType{NodePhoto, NodeVideo, NodeAudio, NodeDocument, NodeSticker, NodeVoice, NodeAnimation}

var moderationTypes = []NodeType{
	NodePinMessage, NodeUnpinMessage, NodeDeleteMessage,
	NodeBanUser, NodeUnbanUser, NodeMuteUser, NodeUnmuteUser, NodeKickUser,
	NodePromoteUser, NodeDemoteUser, NodeAdminRights,
}

// NodeTypes returns every known node type in declaration order.
func NodeTypes() []NodeType {
	out := []NodeType{NodeStart, NodeCommand, NodeMessage}
	out = append(out, mediaTypes...)
	out = append(out, NodeLocation, NodeContact)
	out = append(out, moderationTypes...)
	return append(out, NodeUserInput)
}

// Valid reports whether t belongs to the closed set.
func (t NodeType) Valid() bool {
	for _, known := range NodeTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// IsMedia reports whether t sends a media attachment.
func (t NodeType) IsMedia() bool {
	for _, m := range mediaTypes {
		if t == m {
			return true
		}
	}
	return false
}

// IsModeration reports whether t performs a chat moderation action.
func (t NodeType) IsModeration() bool {
	for _, m := range moderationTypes {
		if t == m {
			return true
		}
	}
	return false
}

// Position is the editor canvas location. It has no effect on compilation.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Node represents one vertex of the flow graph.
// Data always holds the concrete record matching Type (see data.go).
type Node struct {
	ID       string    `json:"id" yaml:"id"`
	Type     NodeType  `json:"type" yaml:"type"`
	Position *Position `json:"position,omitempty" yaml:"position,omitempty"`
	Data     NodeData  `json:"data" yaml:"data"`
}

// Content returns the shared conversational record of the node,
// or nil for node kinds without one (moderation actions).
func (n *Node) Content() *Content {
	if n.Data == nil {
		return nil
	}
	return n.Data.content()
}

// Trigger returns the command and text synonyms that activate the node directly.
func (n *Node) Trigger() (command string, synonyms []string) {
	switch d := n.Data.(type) {
	case *ModerationData:
		return d.Command, d.Synonyms
	case nil:
		return "", nil
	}
	if c := n.Content(); c != nil {
		return c.Command, c.Synonyms
	}
	return "", nil
}

// Text returns the primary message text of the node.
func (n *Node) Text() string {
	if d, ok := n.Data.(*ModerationData); ok {
		return d.Text
	}
	if c := n.Content(); c != nil {
		return c.Text
	}
	return ""
}

// Buttons returns the node-level keyboard buttons.
func (n *Node) Buttons() []Button {
	if c := n.Content(); c != nil {
		return c.Buttons
	}
	return nil
}

// IsMultiSelect reports whether the node accumulates selections until "Done".
func (n *Node) IsMultiSelect() bool {
	c := n.Content()
	return c != nil && c.AllowMultipleSelection
}

// CollectsInput reports whether activating the node arms a wait-state.
func (n *Node) CollectsInput() bool {
	if n.Type == NodeUserInput {
		return true
	}
	c := n.Content()
	return c != nil && c.CollectUserInput
}
