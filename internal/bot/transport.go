package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"repost_bot/internal/model"
)

// Forward delivers msg to chatID. Telegram posts are forwarded, anything
// else is sent as a new text message.
func (b *Bot) Forward(ctx context.Context, chatID int64, msg model.Message) error {
	if err := b.limiter.Wait(ctx); err != nil {
		return err
	}

	var c tgbotapi.Chattable
	if msg.Forwardable() {
		c = tgbotapi.NewForward(chatID, msg.ChatID, msg.MessageID)
	} else {
		c = tgbotapi.NewMessage(chatID, msg.Text)
	}
	if _, err := b.api.Send(c); err != nil {
		return classify(err)
	}
	return nil
}

// Notify sends a plain text message to chatID.
func (b *Bot) Notify(ctx context.Context, chatID int64, text string) error {
	if err := b.limiter.Wait(ctx); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send message: %w", classify(err))
	}
	return nil
}

// ResolveEntity looks up the chat behind id.
func (b *Bot) ResolveEntity(_ context.Context, id int64) (model.Chat, error) {
	chat, err := b.api.GetChat(tgbotapi.ChatInfoConfig{ChatConfig: tgbotapi.ChatConfig{ChatID: id}})
	if err != nil {
		return model.Chat{}, fmt.Errorf("get chat %d: %w", id, classify(err))
	}
	return model.Chat{ID: chat.ID, Title: chatTitle(chat)}, nil
}

// ListRecentDialogs returns the chats the bot has seen most recently.
// The Bot API cannot list dialogs, so they come from the journal.
func (b *Bot) ListRecentDialogs(ctx context.Context, limit int) ([]model.Dialog, error) {
	return b.journal.RecentChats(ctx, limit)
}

// classify maps Bot API failures to model sentinels. Unknown errors are
// returned unchanged.
func classify(err error) error {
	var apiErr *tgbotapi.Error
	if !errors.As(err, &apiErr) {
		return err
	}

	desc := strings.ToLower(apiErr.Message)
	switch {
	case containsAny(desc, "chat not found", "peer_id_invalid"):
		return fmt.Errorf("%w: %s", model.ErrSignInvalid, apiErr.Message)
	case containsAny(desc, "upgraded to a supergroup", "chat was deleted"):
		return fmt.Errorf("%w: %s", model.ErrChatNotFound, apiErr.Message)
	case containsAny(desc, "bot was kicked", "bot is not a member", "chat is private", "channel_private", "bot was blocked"):
		return fmt.Errorf("%w: %s", model.ErrPrivate, apiErr.Message)
	case containsAny(desc, "not enough rights", "have no rights", "chat_write_forbidden", "chat_restricted", "chat_admin_required"):
		return fmt.Errorf("%w: %s", model.ErrForbidden, apiErr.Message)
	}
	return err
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
