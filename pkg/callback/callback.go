// Package callback defines the callback token wire format shared by the
// emitter and the botkit router.
//
// A token is the callback_data carried by an inline button. Its prefix
// encodes intent:
//
//	<node>                       navigate to a node handler
//	cmd_<command>                invoke a command handler
//	ms_<node>_<option>           toggle a multi-select option
//	multi_select_done_<nodeId>   finalise a multi-select node
//	done_<node>                  finalise, short form when the long one overflows
//	conditional_<var>_<value>    store a value and advance
//	noop_<node>                  inert button with an unresolved target
//
// Every token is at most MaxBytes long.
package callback

import (
	"strings"
	"unicode/utf8"
)

// MaxBytes is the transport limit for callback data.
const MaxBytes = 64

const (
	PrefixCommand   = "cmd_"
	PrefixToggle    = "ms_"
	PrefixDone      = "multi_select_done_"
	PrefixDoneShort = "done_"
	PrefixQuickSet  = "conditional_"
	PrefixInert     = "noop_"
)

// Kind classifies a token by its prefix.
type Kind int

const (
	KindNode Kind = iota
	KindCommand
	KindToggle
	KindDone
	KindQuickSet
	KindInert
)

func (k Kind) String() string {
	switch k {
	case KindCommand:
		return "command"
	case KindToggle:
		return "toggle"
	case KindDone:
		return "done"
	case KindQuickSet:
		return "quick_set"
	case KindInert:
		return "inert"
	default:
		return "node"
	}
}

// Token is a classified callback token.
type Token struct {
	Kind    Kind
	Raw     string
	Payload string // Raw without its prefix
}

// Classify splits data into its kind and payload.
// The long done prefix is checked before the shorter ones it could shadow.
func Classify(data string) Token {
	prefixes := []struct {
		prefix string
		kind   Kind
	}{
		{PrefixDone, KindDone},
		{PrefixDoneShort, KindDone},
		{PrefixToggle, KindToggle},
		{PrefixCommand, KindCommand},
		{PrefixQuickSet, KindQuickSet},
		{PrefixInert, KindInert},
	}
	for _, p := range prefixes {
		if rest, ok := strings.CutPrefix(data, p.prefix); ok && rest != "" {
			return Token{Kind: p.kind, Raw: data, Payload: rest}
		}
	}
	return Token{Kind: KindNode, Raw: data, Payload: data}
}

// Clamp truncates s to MaxBytes without splitting a UTF-8 sequence.
func Clamp(s string) string {
	if len(s) <= MaxBytes {
		return s
	}
	cut := MaxBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// Command returns the token that invokes the handler of cmd.
// The leading slash is dropped.
func Command(cmd string) string {
	return Clamp(PrefixCommand + strings.TrimPrefix(cmd, "/"))
}

// Toggle returns the token of one multi-select option.
func Toggle(node, option string) string {
	return Clamp(PrefixToggle + node + "_" + option)
}

// Done returns the finalisation token of a multi-select node.
// The long form embeds the full node id and is used when it fits;
// otherwise the short node token is used.
func Done(nodeID, short string) string {
	if long := PrefixDone + nodeID; len(long) <= MaxBytes {
		return long
	}
	return Clamp(PrefixDoneShort + short)
}

// QuickSet returns the token of a button that stores value into variable.
func QuickSet(variable, value string) string {
	return Clamp(PrefixQuickSet + variable + "_" + value)
}

// Inert returns the token of a button whose target does not exist.
func Inert(node string) string {
	return Clamp(PrefixInert + node)
}
