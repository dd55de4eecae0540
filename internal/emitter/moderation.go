package emitter

import (
	"github.com/aretw0/flowbot/internal/codegen"
	"github.com/aretw0/flowbot/pkg/domain"
)

var moderationActions = map[domain.NodeType]string{
	domain.NodePinMessage:    "ModPin",
	domain.NodeUnpinMessage:  "ModUnpin",
	domain.NodeDeleteMessage: "ModDelete",
	domain.NodeBanUser:       "ModBan",
	domain.NodeUnbanUser:     "ModUnban",
	domain.NodeMuteUser:      "ModMute",
	domain.NodeUnmuteUser:    "ModUnmute",
	domain.NodeKickUser:      "ModKick",
	domain.NodePromoteUser:   "ModPromote",
	domain.NodeDemoteUser:    "ModDemote",
	domain.NodeAdminRights:   "ModAdminRights",
}

// moderationBody emits the moderation call followed by the success text.
func (g *nodeGen) moderationBody() []codegen.Stmt {
	d, ok := g.node.Data.(*domain.ModerationData)
	if !ok {
		d = &domain.ModerationData{}
	}
	fields := []codegen.Field{{Name: "Action", Value: codegen.Ident("botkit." + moderationActions[g.node.Type])}}
	flag := func(name string, on bool) {
		if on {
			fields = append(fields, codegen.Field{Name: name, Value: codegen.Ident("true")})
		}
	}
	if d.TargetUserID != 0 {
		fields = append(fields, codegen.Field{Name: "TargetUserID", Value: codegen.Lit{Value: d.TargetUserID}})
	}
	if d.Duration > 0 {
		fields = append(fields, codegen.Field{Name: "Duration", Value: codegen.Int(d.Duration)})
	}
	flag("RevokeMessages", d.RevokeMessages)
	flag("DisableNotification", d.DisableNotification)
	flag("UnpinAll", d.UnpinAll)
	flag("OnlyIfBanned", d.OnlyIfBanned)
	if d.CustomTitle != "" {
		fields = append(fields, codegen.Field{Name: "CustomTitle", Value: codegen.String(d.CustomTitle)})
	}
	if r := d.AdminRights; r.Any() {
		var rights []codegen.Field
		right := func(name string, on bool) {
			if on {
				rights = append(rights, codegen.Field{Name: name, Value: codegen.Ident("true")})
			}
		}
		right("ChangeInfo", r.CanChangeInfo)
		right("DeleteMessages", r.CanDeleteMessages)
		right("RestrictMembers", r.CanRestrictMembers)
		right("InviteUsers", r.CanInviteUsers)
		right("PinMessages", r.CanPinMessages)
		right("ManageVideoChats", r.CanManageVideoChats)
		right("PromoteMembers", r.CanPromoteMembers)
		right("Anonymous", r.IsAnonymous)
		fields = append(fields, codegen.Field{Name: "Rights", Value: codegen.Composite{Type: "botkit.Rights", Fields: rights}})
	}

	body := []codegen.Stmt{codegen.CheckErr(codegen.CallOf("s.Moderate", codegen.Composite{Type: "botkit.Moderation", Fields: fields}))}
	if d.Text == "" {
		return append(body, codegen.ReturnOf(codegen.Nil))
	}
	return append(body, codegen.ReturnOf(codegen.CallOf("s.Reply", codegen.String(d.Text), codegen.Nil)))
}
