package botkit

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"github.com/aretw0/flowbot/internal/logging"
)

// Telegram is the Telegram Bot API transport. It is both a Sender and a
// Source (long polling).
type Telegram struct {
	bot    *telego.Bot
	logger *slog.Logger
}

// TelegramOption configures the Telegram transport.
type TelegramOption func(*Telegram)

// WithTelegramLogger configures a logger for the transport.
func WithTelegramLogger(logger *slog.Logger) TelegramOption {
	return func(t *Telegram) {
		t.logger = logger
	}
}

// NewTelegram connects to the Bot API with token.
func NewTelegram(token string, opts ...TelegramOption) (*Telegram, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("telegram bot token is empty")
	}
	bot, err := telego.NewBot(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	t := &Telegram{bot: bot, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Updates starts long polling and converts updates until ctx is canceled.
func (t *Telegram) Updates(ctx context.Context) (<-chan Update, error) {
	raw, err := t.bot.UpdatesViaLongPolling(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start long polling: %w", err)
	}
	out := make(chan Update)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case update, ok := <-raw:
				if !ok {
					return
				}
				u, ok := convertUpdate(update)
				if !ok {
					continue
				}
				select {
				case out <- u:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func convertUpdate(update telego.Update) (Update, bool) {
	if cq := update.CallbackQuery; cq != nil {
		u := Update{
			UserID:   cq.From.ID,
			ChatID:   cq.From.ID,
			Callback: &CallbackQuery{ID: cq.ID, Data: cq.Data},
		}
		if cq.Message != nil {
			u.ChatID = cq.Message.GetChat().ID
			u.Callback.MessageID = cq.Message.GetMessageID()
		}
		return u, true
	}

	msg := update.Message
	if msg == nil || msg.From == nil {
		return Update{}, false
	}
	u := Update{
		UserID:    msg.From.ID,
		ChatID:    msg.Chat.ID,
		Text:      msg.Text,
		MessageID: msg.MessageID,
	}
	if reply := msg.ReplyToMessage; reply != nil {
		u.ReplyToMessageID = reply.MessageID
		if reply.From != nil {
			u.ReplyToUserID = reply.From.ID
		}
	}
	switch {
	case len(msg.Photo) > 0:
		// Sizes are ascending; keep the largest.
		u.Attachment = &Attachment{Kind: InputPhoto, FileID: msg.Photo[len(msg.Photo)-1].FileID}
	case msg.Video != nil:
		u.Attachment = &Attachment{Kind: InputVideo, FileID: msg.Video.FileID}
	case msg.Audio != nil:
		u.Attachment = &Attachment{Kind: InputAudio, FileID: msg.Audio.FileID}
	case msg.Voice != nil:
		u.Attachment = &Attachment{Kind: InputAudio, FileID: msg.Voice.FileID}
	case msg.Document != nil:
		u.Attachment = &Attachment{Kind: InputDocument, FileID: msg.Document.FileID}
	case msg.Contact != nil:
		u.Attachment = &Attachment{Kind: InputContact, FileID: msg.Contact.PhoneNumber}
	case msg.Location != nil:
		u.Attachment = &Attachment{Kind: InputLocation, FileID: fmt.Sprintf("%g,%g", msg.Location.Latitude, msg.Location.Longitude)}
	}
	if u.Attachment != nil {
		u.Text = msg.Caption
	}
	return u, true
}

func markup(kb *Keyboard) telego.ReplyMarkup {
	rows := kb.Rows()
	if rows == nil {
		return nil
	}
	if kb.Kind == KeyboardReply {
		out := make([][]telego.KeyboardButton, 0, len(rows))
		for _, row := range rows {
			buttons := make([]telego.KeyboardButton, 0, len(row))
			for _, b := range row {
				btn := tu.KeyboardButton(b.Text)
				if b.RequestContact {
					btn = btn.WithRequestContact()
				}
				if b.RequestLocation {
					btn = btn.WithRequestLocation()
				}
				buttons = append(buttons, btn)
			}
			out = append(out, tu.KeyboardRow(buttons...))
		}
		return tu.Keyboard(out...).WithResizeKeyboard()
	}
	return inlineMarkup(rows)
}

func inlineMarkup(rows [][]Button) *telego.InlineKeyboardMarkup {
	out := make([][]telego.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]telego.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			btn := tu.InlineKeyboardButton(b.Text)
			if b.URL != "" {
				btn = btn.WithURL(b.URL)
			} else {
				btn = btn.WithCallbackData(b.Data)
			}
			buttons = append(buttons, btn)
		}
		out = append(out, tu.InlineKeyboardRow(buttons...))
	}
	return tu.InlineKeyboard(out...)
}

// mediaFile references media by URL, or by file id for anything else.
func mediaFile(ref string) telego.InputFile {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return tu.FileFromURL(ref)
	}
	return tu.FileFromID(ref)
}

// Send implements Sender.
func (t *Telegram) Send(ctx context.Context, chatID int64, msg Message) (int, error) {
	id := tu.ID(chatID)
	rm := markup(msg.Keyboard)
	var (
		sent *telego.Message
		err  error
	)
	switch {
	case msg.Media != nil:
		sent, err = t.sendMedia(ctx, id, msg, rm)
	case msg.Location != nil:
		loc := msg.Location
		if loc.Title != "" {
			sent, err = t.bot.SendVenue(ctx, tu.Venue(id, loc.Latitude, loc.Longitude, loc.Title, loc.Address).WithReplyMarkup(rm))
		} else {
			sent, err = t.bot.SendLocation(ctx, tu.Location(id, loc.Latitude, loc.Longitude).WithReplyMarkup(rm))
		}
	case msg.Contact != nil:
		c := msg.Contact
		sent, err = t.bot.SendContact(ctx, tu.Contact(id, c.PhoneNumber, c.FirstName).WithLastName(c.LastName).WithReplyMarkup(rm))
	default:
		params := tu.Message(id, msg.Text).WithReplyMarkup(rm)
		if msg.ParseMode != "" {
			params = params.WithParseMode(msg.ParseMode)
		}
		sent, err = t.bot.SendMessage(ctx, params)
	}
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

func (t *Telegram) sendMedia(ctx context.Context, id telego.ChatID, msg Message, rm telego.ReplyMarkup) (*telego.Message, error) {
	file := mediaFile(msg.Media.URL)
	switch msg.Media.Kind {
	case MediaPhoto:
		return t.bot.SendPhoto(ctx, tu.Photo(id, file).WithCaption(msg.Text).WithParseMode(msg.ParseMode).WithReplyMarkup(rm))
	case MediaVideo:
		return t.bot.SendVideo(ctx, tu.Video(id, file).WithCaption(msg.Text).WithParseMode(msg.ParseMode).WithReplyMarkup(rm))
	case MediaAudio:
		return t.bot.SendAudio(ctx, tu.Audio(id, file).WithCaption(msg.Text).WithParseMode(msg.ParseMode).WithReplyMarkup(rm))
	case MediaVoice:
		return t.bot.SendVoice(ctx, tu.Voice(id, file).WithCaption(msg.Text).WithParseMode(msg.ParseMode).WithReplyMarkup(rm))
	case MediaAnimation:
		return t.bot.SendAnimation(ctx, tu.Animation(id, file).WithCaption(msg.Text).WithParseMode(msg.ParseMode).WithReplyMarkup(rm))
	case MediaSticker:
		return t.bot.SendSticker(ctx, tu.Sticker(id, file).WithReplyMarkup(rm))
	default:
		return t.bot.SendDocument(ctx, tu.Document(id, file).WithCaption(msg.Text).WithParseMode(msg.ParseMode).WithReplyMarkup(rm))
	}
}

// EditKeyboard implements Sender.
func (t *Telegram) EditKeyboard(ctx context.Context, chatID int64, messageID int, kb *Keyboard) error {
	params := &telego.EditMessageReplyMarkupParams{
		ChatID:    tu.ID(chatID),
		MessageID: messageID,
	}
	if rows := kb.Rows(); rows != nil {
		params.ReplyMarkup = inlineMarkup(rows)
	}
	_, err := t.bot.EditMessageReplyMarkup(ctx, params)
	return err
}

// Answer implements Sender.
func (t *Telegram) Answer(ctx context.Context, callbackID, text string) error {
	params := tu.CallbackQuery(callbackID)
	if text != "" {
		params = params.WithText(text)
	}
	return t.bot.AnswerCallbackQuery(ctx, params)
}

// SetCommands implements Sender.
func (t *Telegram) SetCommands(ctx context.Context, commands []Command) error {
	out := make([]telego.BotCommand, 0, len(commands))
	for _, c := range commands {
		out = append(out, telego.BotCommand{Command: c.Command, Description: c.Description})
	}
	return t.bot.SetMyCommands(ctx, &telego.SetMyCommandsParams{Commands: out})
}

func ptr[T any](v T) *T { return &v }

// Moderate implements Sender.
func (t *Telegram) Moderate(ctx context.Context, chatID int64, m Moderation) error {
	id := tu.ID(chatID)
	var until int64
	if m.Duration > 0 {
		until = time.Now().Add(time.Duration(m.Duration) * time.Second).Unix()
	}
	t.logger.Info("Moderation", "action", m.Action, "chat_id", chatID, "user_id", m.TargetUserID)

	switch m.Action {
	case ModPin:
		return t.bot.PinChatMessage(ctx, &telego.PinChatMessageParams{
			ChatID:              id,
			MessageID:           m.MessageID,
			DisableNotification: m.DisableNotification,
		})
	case ModUnpin:
		if m.UnpinAll {
			return t.bot.UnpinAllChatMessages(ctx, &telego.UnpinAllChatMessagesParams{ChatID: id})
		}
		return t.bot.UnpinChatMessage(ctx, &telego.UnpinChatMessageParams{ChatID: id, MessageID: m.MessageID})
	case ModDelete:
		return t.bot.DeleteMessage(ctx, tu.Delete(id, m.MessageID))
	case ModBan:
		return t.bot.BanChatMember(ctx, &telego.BanChatMemberParams{
			ChatID:         id,
			UserID:         m.TargetUserID,
			UntilDate:      until,
			RevokeMessages: m.RevokeMessages,
		})
	case ModUnban:
		return t.bot.UnbanChatMember(ctx, &telego.UnbanChatMemberParams{
			ChatID:       id,
			UserID:       m.TargetUserID,
			OnlyIfBanned: m.OnlyIfBanned,
		})
	case ModKick:
		if err := t.bot.BanChatMember(ctx, &telego.BanChatMemberParams{ChatID: id, UserID: m.TargetUserID}); err != nil {
			return err
		}
		return t.bot.UnbanChatMember(ctx, &telego.UnbanChatMemberParams{ChatID: id, UserID: m.TargetUserID, OnlyIfBanned: true})
	case ModMute, ModUnmute:
		allow := m.Action == ModUnmute
		return t.bot.RestrictChatMember(ctx, &telego.RestrictChatMemberParams{
			ChatID: id,
			UserID: m.TargetUserID,
			Permissions: telego.ChatPermissions{
				CanSendMessages:       ptr(allow),
				CanSendPhotos:         ptr(allow),
				CanSendVideos:         ptr(allow),
				CanSendOtherMessages:  ptr(allow),
				CanAddWebPagePreviews: ptr(allow),
			},
			UntilDate: until,
		})
	case ModPromote, ModAdminRights, ModDemote:
		r := m.Rights
		if m.Action == ModDemote {
			r = Rights{}
		}
		err := t.bot.PromoteChatMember(ctx, &telego.PromoteChatMemberParams{
			ChatID:              id,
			UserID:              m.TargetUserID,
			IsAnonymous:         ptr(r.Anonymous),
			CanChangeInfo:       ptr(r.ChangeInfo),
			CanDeleteMessages:   ptr(r.DeleteMessages),
			CanRestrictMembers:  ptr(r.RestrictMembers),
			CanInviteUsers:      ptr(r.InviteUsers),
			CanPinMessages:      ptr(r.PinMessages),
			CanManageVideoChats: ptr(r.ManageVideoChats),
			CanPromoteMembers:   ptr(r.PromoteMembers),
		})
		if err != nil || m.CustomTitle == "" || m.Action == ModDemote {
			return err
		}
		return t.bot.SetChatAdministratorCustomTitle(ctx, &telego.SetChatAdministratorCustomTitleParams{
			ChatID:      id,
			UserID:      m.TargetUserID,
			CustomTitle: m.CustomTitle,
		})
	}
	return fmt.Errorf("unknown moderation action %q", m.Action)
}
