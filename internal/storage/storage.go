// Package storage persists the destination set and the bot's observations.
package storage

import (
	"context"

	"repost_bot/internal/model"
)

// Backend is the durable record behind Destinations. Save always receives
// the complete set and replaces whatever was stored before.
type Backend interface {
	Load(ctx context.Context) (map[int64]int, error)
	Save(ctx context.Context, entries map[int64]int) error
}

// Journal records source posts and chats the bot has seen.
type Journal interface {
	SaveSourcePost(ctx context.Context, msg model.Message) error
	RecentSourcePosts(ctx context.Context, chatID int64, limit int) ([]model.Message, error)
	RememberChat(ctx context.Context, d model.Dialog) error
	RecentChats(ctx context.Context, limit int) ([]model.Dialog, error)
}
