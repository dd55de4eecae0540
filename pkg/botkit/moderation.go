package botkit

import "errors"

// ModAction is a chat moderation action.
type ModAction string

const (
	ModPin         ModAction = "pin"
	ModUnpin       ModAction = "unpin"
	ModDelete      ModAction = "delete"
	ModBan         ModAction = "ban"
	ModUnban       ModAction = "unban"
	ModMute        ModAction = "mute"
	ModUnmute      ModAction = "unmute"
	ModKick        ModAction = "kick"
	ModPromote     ModAction = "promote"
	ModDemote      ModAction = "demote"
	ModAdminRights ModAction = "admin_rights"
)

// ErrNoTarget is returned when a moderation action needs a user or message
// and neither the node nor the triggering message names one.
var ErrNoTarget = errors.New("moderation target not set")

// Rights are the administrator permissions granted by promote actions.
type Rights struct {
	ChangeInfo       bool
	DeleteMessages   bool
	RestrictMembers  bool
	InviteUsers      bool
	PinMessages      bool
	ManageVideoChats bool
	PromoteMembers   bool
	Anonymous        bool
}

// Moderation describes one moderation action.
// Duration is in seconds; zero means permanent.
type Moderation struct {
	Action              ModAction
	TargetUserID        int64
	MessageID           int
	Duration            int
	RevokeMessages      bool
	DisableNotification bool
	UnpinAll            bool
	OnlyIfBanned        bool
	CustomTitle         string
	Rights              Rights
}

func (m Moderation) needsUser() bool {
	switch m.Action {
	case ModPin, ModUnpin, ModDelete:
		return false
	}
	return true
}

func (m Moderation) needsMessage() bool {
	switch m.Action {
	case ModPin, ModDelete:
		return true
	case ModUnpin:
		return !m.UnpinAll
	}
	return false
}
