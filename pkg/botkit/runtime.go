package botkit

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/aretw0/flowbot/internal/logging"
	"github.com/aretw0/flowbot/pkg/adapters/memory"
	"github.com/aretw0/flowbot/pkg/callback"
	"github.com/aretw0/flowbot/pkg/ports"
	"github.com/aretw0/flowbot/pkg/session"
)

// Default user-facing notices.
const (
	DefaultNotConfiguredText = "This button is not configured yet."
	DefaultFailureText       = "Something went wrong. Please try again."
	DefaultRetryText         = "Please try again."
)

// userState is the transient state of one user.
type userState struct {
	wait       *waitSlot
	selections map[string]*selection
}

// Runtime routes updates to the registered handlers.
type Runtime struct {
	sender   Sender
	store    ports.VariableStore
	locker   ports.DistributedLocker
	sessions *session.Manager
	logger   *slog.Logger
	name     string
	groups   []Group

	notConfiguredText string
	failureText       string
	retryText         string

	commands  map[string]Handler
	menu      []Command
	texts     map[string]Handler
	buttons   map[string]Handler
	callbacks map[string]Handler

	mu    sync.Mutex
	users map[int64]*userState
}

// Option configures the Runtime.
type Option func(*Runtime)

// WithStore sets the variable store. The default keeps variables in memory.
func WithStore(store ports.VariableStore) Option {
	return func(r *Runtime) {
		r.store = store
	}
}

// WithLocker serializes each user's updates across replicas.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(r *Runtime) {
		r.locker = locker
	}
}

// WithLogger configures a logger for the Runtime.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runtime) {
		r.logger = logger
	}
}

// WithName names the bot in logs.
func WithName(name string) Option {
	return func(r *Runtime) {
		r.name = name
	}
}

// WithGroups restricts group chats to the configured ones.
// Private chats are always served.
func WithGroups(groups ...Group) Option {
	return func(r *Runtime) {
		r.groups = append(r.groups, groups...)
	}
}

// WithTexts overrides the default notices. Empty values keep the default.
func WithTexts(notConfigured, failure, retry string) Option {
	return func(r *Runtime) {
		if notConfigured != "" {
			r.notConfiguredText = notConfigured
		}
		if failure != "" {
			r.failureText = failure
		}
		if retry != "" {
			r.retryText = retry
		}
	}
}

// New creates a Runtime that replies through sender.
func New(sender Sender, opts ...Option) *Runtime {
	r := &Runtime{
		sender:            sender,
		logger:            logging.NewNop(),
		notConfiguredText: DefaultNotConfiguredText,
		failureText:       DefaultFailureText,
		retryText:         DefaultRetryText,
		commands:          make(map[string]Handler),
		texts:             make(map[string]Handler),
		buttons:           make(map[string]Handler),
		callbacks:         make(map[string]Handler),
		users:             make(map[int64]*userState),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.store == nil {
		r.store = memory.NewStore()
	}
	sessionOpts := []session.Option{session.WithLogger(r.logger)}
	if r.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(r.locker))
	}
	r.sessions = session.NewManager(r.store, sessionOpts...)
	return r
}

// Groups returns the configured groups.
func (r *Runtime) Groups() []Group { return r.groups }

// register adds h under key unless key is taken. The first registration wins.
func (r *Runtime) register(table map[string]Handler, kind, key string, h Handler) {
	if _, taken := table[key]; taken {
		r.logger.Warn("Duplicate trigger ignored", "kind", kind, "key", key)
		return
	}
	table[key] = h
}

// Command registers a slash command, with or without the leading slash.
func (r *Runtime) Command(cmd string, h Handler) {
	r.register(r.commands, "command", normalizeCommand(cmd), h)
}

// Describe adds cmd to the client command menu.
func (r *Runtime) Describe(cmd, description string) {
	r.menu = append(r.menu, Command{Command: strings.TrimPrefix(normalizeCommand(cmd), "/"), Description: description})
}

// Text registers a case-insensitive text trigger.
func (r *Runtime) Text(label string, h Handler) {
	r.register(r.texts, "text", normalizeText(label), h)
}

// Button registers a reply keyboard label. Labels take precedence over an
// armed wait slot.
func (r *Runtime) Button(label string, h Handler) {
	r.register(r.buttons, "button", label, h)
}

// Callback registers an inline button token.
func (r *Runtime) Callback(token string, h Handler) {
	r.register(r.callbacks, "callback", token, h)
}

// Run publishes the command menu and handles updates from src one at a time
// until ctx is canceled or the source closes.
func (r *Runtime) Run(ctx context.Context, src Source) error {
	if len(r.menu) > 0 {
		if err := r.sender.SetCommands(ctx, r.menu); err != nil {
			r.logger.Warn("Failed to publish command menu", "err", err)
		}
	}
	updates, err := src.Updates(ctx)
	if err != nil {
		return fmt.Errorf("failed to receive updates: %w", err)
	}
	r.logger.Info("Bot started", "name", r.name)
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Bot stopped", "name", r.name)
			return nil
		case u, ok := <-updates:
			if !ok {
				return nil
			}
			if err := r.Handle(ctx, u); err != nil {
				r.logger.Error("Failed to handle update", "user_id", u.UserID, "err", err)
			}
		}
	}
}

// Handle processes one update under the lock of its user.
func (r *Runtime) Handle(ctx context.Context, u Update) error {
	if !r.allowed(u.ChatID) {
		r.logger.Debug("Update from unconfigured group ignored", "chat_id", u.ChatID)
		return nil
	}
	return r.sessions.WithLock(ctx, u.UserID, func(ctx context.Context) error {
		vars, err := r.sessions.LoadUnlocked(ctx, u.UserID)
		if err != nil {
			return err
		}
		s := &Session{ctx: ctx, rt: r, update: u, state: r.userState(u.UserID), vars: vars}

		if err := r.dispatch(s); err != nil {
			r.logger.Error("Handler failed", "user_id", u.UserID, "err", err)
			if replyErr := s.Reply(r.failureText, nil); replyErr != nil {
				r.logger.Warn("Failed to report handler failure", "user_id", u.UserID, "err", replyErr)
			}
		}
		if err := s.Answer(""); err != nil {
			r.logger.Warn("Failed to answer callback", "user_id", u.UserID, "err", err)
		}
		if s.dirty {
			return r.sessions.SaveUnlocked(ctx, u.UserID, s.vars)
		}
		return nil
	})
}

func (r *Runtime) dispatch(s *Session) error {
	u := s.update
	if u.Callback != nil {
		return r.dispatchCallback(s, u.Callback.Data)
	}

	if u.Attachment == nil && strings.HasPrefix(u.Text, "/") {
		s.ClearWait()
		if h, ok := r.commands[normalizeCommand(u.Text)]; ok {
			return h(s)
		}
		r.logger.Debug("Unknown command", "user_id", u.UserID, "text", u.Text)
		return nil
	}

	if u.Attachment == nil {
		if h, ok := r.buttons[u.Text]; ok {
			return h(s)
		}
	}

	if kind, ok := s.state.wait.expecting(); ok {
		if kind != u.Kind() {
			return s.Retry(fmt.Sprintf("Please send %s.", kind.describe()))
		}
		in := Input{Kind: kind, Text: strings.TrimSpace(u.Text)}
		if u.Attachment != nil {
			in.FileID = u.Attachment.FileID
		}
		return s.state.wait.collect(s, in)
	}

	if u.Attachment == nil {
		if h, ok := r.texts[normalizeText(u.Text)]; ok {
			return h(s)
		}
	}
	r.logger.Debug("Update not handled", "user_id", u.UserID, "kind", u.Kind())
	return nil
}

func (r *Runtime) dispatchCallback(s *Session, data string) error {
	if h, ok := r.callbacks[data]; ok {
		return h(s)
	}
	tok := callback.Classify(data)
	switch tok.Kind {
	case callback.KindCommand:
		if h, ok := r.commands[normalizeCommand(tok.Payload)]; ok {
			s.ClearWait()
			return h(s)
		}
		return s.Answer(r.notConfiguredText)
	case callback.KindInert:
		return s.Answer(r.notConfiguredText)
	}
	r.logger.Warn("Unknown callback token", "user_id", s.UserID(), "token", data, "kind", tok.Kind)
	return s.Answer(r.notConfiguredText)
}

func (r *Runtime) userState(userID int64) *userState {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.users[userID]
	if !ok {
		st = &userState{wait: newWaitSlot(), selections: make(map[string]*selection)}
		r.users[userID] = st
	}
	return st
}

func (r *Runtime) allowed(chatID int64) bool {
	if len(r.groups) == 0 || chatID >= 0 {
		return true
	}
	id := strconv.FormatInt(chatID, 10)
	for _, g := range r.groups {
		if g.ID == id {
			return true
		}
	}
	return false
}

// normalizeCommand turns "/Help@my_bot arg" or "help" into "/help".
func normalizeCommand(text string) string {
	cmd, _, _ := strings.Cut(strings.TrimSpace(text), " ")
	cmd, _, _ = strings.Cut(cmd, "@")
	return "/" + strings.ToLower(strings.TrimPrefix(cmd, "/"))
}

func normalizeText(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}
