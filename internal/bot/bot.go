// Package bot connects the application to the Telegram Bot API: it receives
// source posts and operator commands and delivers broadcasts.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"repost_bot/internal/command"
	"repost_bot/internal/config"
	"repost_bot/internal/model"
	"repost_bot/internal/storage"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetChat(config tgbotapi.ChatInfoConfig) (tgbotapi.Chat, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Dispatcher executes operator commands.
type Dispatcher interface {
	Handle(ctx context.Context, cmd command.Command) string
}

// Observer receives posts from the source channel.
type Observer interface {
	Observe(ctx context.Context, msg model.Message) bool
}

// Bot is the Telegram side of the application.
type Bot struct {
	api      telegramAPI
	journal  storage.Journal
	observer Observer
	cfg      *config.Config
	limiter  *rate.Limiter
	log      *slog.Logger
}

// New creates a Bot with the given Telegram token. observer may be nil when
// the source is not a Telegram channel.
func New(token string, journal storage.Journal, observer Observer, cfg *config.Config, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	log.Info("authorized", "username", api.Self.UserName)

	return &Bot{
		api:      api,
		journal:  journal,
		observer: observer,
		cfg:      cfg,
		limiter:  newLimiter(cfg.SendRatePerSec),
		log:      log,
	}, nil
}

func newLimiter(perSec int) *rate.Limiter {
	if perSec <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(perSec), 1)
}

// Run starts the long-polling loop, blocking until ctx is cancelled.
func (b *Bot) Run(ctx context.Context, d Dispatcher) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	u.AllowedUpdates = []string{"message", "channel_post", "my_chat_member"}

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update := <-updates:
			b.handleUpdate(ctx, d, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, d Dispatcher, update tgbotapi.Update) {
	switch {
	case update.ChannelPost != nil:
		post := update.ChannelPost
		b.remember(ctx, post.Chat)
		if b.observer != nil && post.Chat != nil && post.Chat.ID == b.cfg.SourceChatID {
			b.observer.Observe(ctx, postMessage(post))
		}
	case update.MyChatMember != nil:
		m := update.MyChatMember
		b.log.Info("membership changed", "chat_id", m.Chat.ID, "status", m.NewChatMember.Status)
		b.remember(ctx, &m.Chat)
	case update.Message != nil:
		msg := update.Message
		if msg.Chat == nil || !msg.Chat.IsPrivate() {
			b.remember(ctx, msg.Chat)
			return
		}
		if msg.From == nil || !b.cfg.IsAdmin(msg.From.ID) {
			b.log.Debug("ignored message from non-operator", "chat_id", msg.Chat.ID)
			return
		}
		b.handleCommand(ctx, d, msg)
	}
}

func (b *Bot) handleCommand(ctx context.Context, d Dispatcher, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	cmd, err := command.Parse(msg.Text)
	if err != nil {
		var perr *command.ParseError
		if errors.As(err, &perr) {
			b.reply(ctx, chatID, perr.Msg)
			return
		}
		b.reply(ctx, chatID, err.Error())
		return
	}

	b.log.Debug("command", "cmd", fmt.Sprintf("%T", cmd), "chat_id", chatID)
	b.reply(ctx, chatID, d.Handle(ctx, cmd))
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	if err := b.Notify(ctx, chatID, text); err != nil {
		b.log.Error("send reply", "chat_id", chatID, "error", err)
	}
}

// remember records a non-private chat as a broadcast candidate.
func (b *Bot) remember(ctx context.Context, chat *tgbotapi.Chat) {
	if chat == nil || chat.IsPrivate() {
		return
	}
	d := model.Dialog{
		ID:      chat.ID,
		Title:   chat.Title,
		IsGroup: chat.IsGroup() || chat.IsSuperGroup(),
	}
	if err := b.journal.RememberChat(ctx, d); err != nil {
		b.log.Error("remember chat", "chat_id", chat.ID, "error", err)
	}
}

func postMessage(post *tgbotapi.Message) model.Message {
	text := post.Text
	if text == "" {
		text = post.Caption
	}
	return model.Message{
		ChatID:    post.Chat.ID,
		MessageID: post.MessageID,
		Text:      text,
		Date:      post.Time().UTC(),
	}
}

func chatTitle(c tgbotapi.Chat) string {
	if c.Title != "" {
		return c.Title
	}
	name := strings.TrimSpace(c.FirstName + " " + c.LastName)
	if name != "" {
		return name
	}
	return c.UserName
}
