package botkit

import (
	"context"
	"fmt"
	"maps"
	"strings"
)

// MaxChainHops bounds auto-transition chains within one update.
const MaxChainHops = 32

// Handler is the code emitted for one node or trigger.
type Handler func(s *Session) error

// Session is the context of one activation: the update being handled, the
// user's variables and the user's transient wait and selection state.
type Session struct {
	ctx    context.Context
	rt     *Runtime
	update Update
	state  *userState
	vars   map[string]string

	dirty    bool
	armed    bool
	answered bool
	hops     int
}

// Context returns the context of the update.
func (s *Session) Context() context.Context { return s.ctx }

// UserID returns the id of the user who sent the update.
func (s *Session) UserID() int64 { return s.update.UserID }

// ChatID returns the chat the update came from.
func (s *Session) ChatID() int64 { return s.update.ChatID }

// Update returns the update being handled.
func (s *Session) Update() Update { return s.update }

// Get returns a variable, or "" when unset.
func (s *Session) Get(name string) string { return s.vars[name] }

// Has reports whether a variable is set to a non-blank value.
func (s *Session) Has(name string) bool { return strings.TrimSpace(s.vars[name]) != "" }

// Equals reports whether a variable equals value, ignoring surrounding space.
func (s *Session) Equals(name, value string) bool {
	return s.Has(name) && strings.TrimSpace(s.vars[name]) == strings.TrimSpace(value)
}

// Contains reports whether a variable contains value, ignoring case.
func (s *Session) Contains(name, value string) bool {
	return s.Has(name) && strings.Contains(strings.ToLower(s.vars[name]), strings.ToLower(value))
}

// Set writes a variable. Variables are persisted when the update is done.
func (s *Session) Set(name, value string) {
	s.vars[name] = value
	s.dirty = true
}

// Delete removes a variable.
func (s *Session) Delete(name string) {
	if _, ok := s.vars[name]; ok {
		delete(s.vars, name)
		s.dirty = true
	}
}

// Variables returns a copy of the user's variables.
func (s *Session) Variables() map[string]string { return maps.Clone(s.vars) }

// Reply sends text with an optional keyboard.
func (s *Session) Reply(text string, kb *Keyboard) error {
	return s.Send(Message{Text: text, Keyboard: kb})
}

// Send delivers msg to the chat of the update.
func (s *Session) Send(msg Message) error {
	if _, err := s.rt.sender.Send(s.ctx, s.update.ChatID, msg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// SendMedia sends an attachment with caption.
func (s *Session) SendMedia(kind MediaKind, url, caption string, kb *Keyboard) error {
	return s.Send(Message{Text: caption, Keyboard: kb, Media: &Media{Kind: kind, URL: url}})
}

// SendLocation sends a location, or a venue when loc has a title.
func (s *Session) SendLocation(loc Location, kb *Keyboard) error {
	return s.Send(Message{Keyboard: kb, Location: &loc})
}

// SendContact sends a contact card.
func (s *Session) SendContact(c Contact, kb *Keyboard) error {
	return s.Send(Message{Keyboard: kb, Contact: &c})
}

// EditKeyboard replaces the keyboard of the message whose button was pressed.
// Outside a button press it sends nothing.
func (s *Session) EditKeyboard(kb *Keyboard) error {
	cb := s.update.Callback
	if cb == nil || cb.MessageID == 0 {
		return nil
	}
	if err := s.rt.sender.EditKeyboard(s.ctx, s.update.ChatID, cb.MessageID, kb); err != nil {
		return fmt.Errorf("failed to edit keyboard: %w", err)
	}
	return nil
}

// Answer acknowledges the pressed button once.
func (s *Session) Answer(text string) error {
	cb := s.update.Callback
	if cb == nil || s.answered {
		return nil
	}
	s.answered = true
	return s.rt.sender.Answer(s.ctx, cb.ID, text)
}

// Moderate applies m in the chat of the update. A missing target user or
// message is taken from the message the trigger replied to.
func (s *Session) Moderate(m Moderation) error {
	if m.TargetUserID == 0 {
		m.TargetUserID = s.update.ReplyToUserID
	}
	if m.MessageID == 0 {
		m.MessageID = s.update.ReplyToMessageID
	}
	if m.needsUser() && m.TargetUserID == 0 || m.needsMessage() && m.MessageID == 0 {
		return fmt.Errorf("%s: %w", m.Action, ErrNoTarget)
	}
	if err := s.rt.sender.Moderate(s.ctx, s.update.ChatID, m); err != nil {
		return fmt.Errorf("failed to %s: %w", m.Action, err)
	}
	return nil
}

// Wait arms the wait slot: the next input of kind is handed to collect.
// Any previous wait is replaced.
func (s *Session) Wait(kind InputKind, variable string, collect Collector) {
	if err := s.state.wait.arm(s.ctx, kind, variable, collect); err != nil {
		s.rt.logger.Error("Failed to arm wait slot", "user_id", s.UserID(), "kind", kind, "err", err)
		return
	}
	s.armed = true
}

// Armed reports whether this activation armed the wait slot.
// Auto-transitions must not fire when it did.
func (s *Session) Armed() bool { return s.armed }

// Waiting reports the kind of input the user is expected to send next.
func (s *Session) Waiting() (InputKind, bool) { return s.state.wait.expecting() }

// ClearWait disarms the wait slot.
func (s *Session) ClearWait() {
	if err := s.state.wait.clear(s.ctx); err != nil {
		s.rt.logger.Error("Failed to clear wait slot", "user_id", s.UserID(), "err", err)
	}
	s.armed = false
}

// ClearWaitFor disarms the wait slot only if it fills variable.
func (s *Session) ClearWaitFor(variable string) {
	if _, ok := s.state.wait.expecting(); ok && s.state.wait.variable == variable {
		s.ClearWait()
	}
}

// Retry reports failed validation. The wait slot stays armed.
func (s *Session) Retry(text string) error {
	if text == "" {
		text = s.rt.retryText
	}
	return s.Reply(text, nil)
}

// Chain hands off to the next node within the same update.
func (s *Session) Chain(next Handler) error {
	s.hops++
	if s.hops > MaxChainHops {
		s.rt.logger.Warn("Auto-transition chain too long, stopping", "user_id", s.UserID(), "hops", s.hops)
		return nil
	}
	return next(s)
}

// RestoreSelection prepares the multi-select set of node. A set already in
// progress is kept; otherwise it is seeded from the stored answer.
func (s *Session) RestoreSelection(node, variable string) {
	if _, ok := s.state.selections[node]; ok {
		return
	}
	s.state.selections[node] = &selection{variable: variable, labels: SplitList(s.vars[variable])}
}

// Selection returns the labels currently selected on node.
func (s *Session) Selection(node string) []string {
	if sel, ok := s.state.selections[node]; ok {
		return append([]string(nil), sel.labels...)
	}
	return nil
}

// Toggle flips label in the selection of node.
func (s *Session) Toggle(node, label string) {
	sel, ok := s.state.selections[node]
	if !ok {
		sel = &selection{}
		s.state.selections[node] = sel
	}
	sel.toggle(label)
}

// CommitSelection merges the selection of node into the list already stored
// in variable, resets the set and disarms a wait slot filling the same
// variable. Stored entries come first and duplicates are dropped.
func (s *Session) CommitSelection(node, variable string) {
	s.Set(variable, strings.Join(mergeLists(SplitList(s.vars[variable]), s.Selection(node)), ListSeparator))
	delete(s.state.selections, node)
	s.ClearWaitFor(variable)
}
