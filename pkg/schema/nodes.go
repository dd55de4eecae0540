package schema

import "github.com/aretw0/flowbot/pkg/domain"

var buttonSchema = Schema{
	"id":   Optional(String()),
	"text": Optional(String()),
	"action": Enum(
		string(domain.ActionGoto), string(domain.ActionURL), string(domain.ActionCommand),
		string(domain.ActionContact), string(domain.ActionLocation), string(domain.ActionSelection),
	),
	"target":             Optional(String()),
	"url":                Optional(String()),
	"value":              Optional(String()),
	"skipDataCollection": Optional(Bool()),
	"requestContact":     Optional(Bool()),
	"requestLocation":    Optional(Bool()),
}

var conditionSchema = Schema{
	"id":       Optional(String()),
	"priority": Optional(Int()),
	"condition": Enum(
		string(domain.ConditionExists), string(domain.ConditionNotExists),
		string(domain.ConditionEquals), string(domain.ConditionContains),
	),
	"variableName":       Optional(String()),
	"variableNames":      Optional(Slice(String())),
	"logicOperator":      Optional(Enum(string(domain.LogicAnd), string(domain.LogicOr))),
	"expectedValue":      Optional(String()),
	"messageText":        Optional(String()),
	"keyboardType":       Optional(keyboardType),
	"buttons":            Optional(Slice(Object(buttonSchema))),
	"waitForTextInput":   Optional(Bool()),
	"textInputVariable":  Optional(String()),
	"nextNodeAfterInput": Optional(String()),
}

var (
	keyboardType = Enum(domain.KeyboardInline, domain.KeyboardReply, domain.KeyboardNone, "")
	inputType    = Enum(domain.InputText, domain.InputPhoto, domain.InputVideo, domain.InputAudio, domain.InputDocument, "")
	inputFormat  = Enum(domain.FormatEmail, domain.FormatPhone, domain.FormatNumber, "none", "")
)

// contentSchema covers the fields shared by every conversational node.
var contentSchema = Schema{
	"messageText":     Optional(String()),
	"formatMode":      Optional(String()),
	"command":         Optional(String()),
	"description":     Optional(String()),
	"showInMenu":      Optional(Bool()),
	"synonyms":        Optional(Slice(String())),
	"keyboardType":    Optional(keyboardType),
	"buttons":         Optional(Slice(Object(buttonSchema))),
	"keyboardColumns": Optional(Int()),

	"enableConditionalMessages": Optional(Bool()),
	"conditionalMessages":       Optional(Slice(Object(conditionSchema))),

	"collectUserInput":    Optional(Bool()),
	"inputType":           Optional(inputType),
	"inputVariable":       Optional(String()),
	"inputTargetNodeId":   Optional(String()),
	"minLength":           Optional(Int()),
	"maxLength":           Optional(Int()),
	"inputValidation":     Optional(inputFormat),
	"inputRetryMessage":   Optional(String()),
	"inputSuccessMessage": Optional(String()),

	"allowMultipleSelection": Optional(Bool()),
	"multiSelectVariable":    Optional(String()),
	"continueButtonText":     Optional(String()),
	"continueButtonTarget":   Optional(String()),

	"enableAutoTransition": Optional(Bool()),
	"autoTransitionTo":     Optional(String()),
}

var moderationSchema = Schema{
	"command":             Optional(String()),
	"synonyms":            Optional(Slice(String())),
	"messageText":         Optional(String()),
	"targetUserId":        Optional(Int()),
	"duration":            Optional(Int()),
	"revokeMessages":      Optional(Bool()),
	"disableNotification": Optional(Bool()),
	"unpinAll":            Optional(Bool()),
	"onlyIfBanned":        Optional(Bool()),
	"customTitle":         Optional(String()),

	"canChangeInfo":       Optional(Bool()),
	"canDeleteMessages":   Optional(Bool()),
	"canRestrictMembers":  Optional(Bool()),
	"canInviteUsers":      Optional(Bool()),
	"canPinMessages":      Optional(Bool()),
	"canManageVideoChats": Optional(Bool()),
	"canPromoteMembers":   Optional(Bool()),
	"isAnonymous":         Optional(Bool()),
}

// ForNode returns the schema of the data bag of a node type.
// Unknown types get the conversational schema.
func ForNode(t domain.NodeType) Schema {
	switch {
	case t.IsMedia():
		return Merge(contentSchema, Schema{"mediaUrl": Optional(String())})
	case t.IsModeration():
		return moderationSchema
	}
	switch t {
	case domain.NodeLocation:
		return Merge(contentSchema, Schema{
			"latitude":  Number(),
			"longitude": Number(),
			"title":     Optional(String()),
			"address":   Optional(String()),
		})
	case domain.NodeContact:
		return Merge(contentSchema, Schema{
			"phoneNumber": String(),
			"firstName":   String(),
			"lastName":    Optional(String()),
		})
	case domain.NodeUserInput:
		return Merge(contentSchema, Schema{"inputVariable": String()})
	default:
		return contentSchema
	}
}
