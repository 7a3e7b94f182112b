// Package watcher keeps the broadcast cache pointed at the newest
// qualifying post of the source feed.
package watcher

import (
	"context"
	"log/slog"

	"repost_bot/internal/cache"
	"repost_bot/internal/model"
	"repost_bot/internal/storage"
)

// Matcher decides whether a source post qualifies for broadcasting.
type Matcher interface {
	Match(text string) bool
}

// Watcher handles posts arriving from the source channel.
type Watcher struct {
	cache   *cache.Broadcast
	journal storage.Journal
	matcher Matcher
	log     *slog.Logger
}

// New creates a Watcher. journal may be nil when posts need not be recorded.
func New(c *cache.Broadcast, journal storage.Journal, matcher Matcher, log *slog.Logger) *Watcher {
	return &Watcher{cache: c, journal: journal, matcher: matcher, log: log}
}

// Observe records a source post and, if it qualifies, makes it the post
// to broadcast. It reports whether the cache was replaced.
func (w *Watcher) Observe(ctx context.Context, msg model.Message) bool {
	if w.journal != nil {
		if err := w.journal.SaveSourcePost(ctx, msg); err != nil {
			w.log.Error("journal source post", "chat_id", msg.ChatID, "message_id", msg.MessageID, "error", err)
		}
	}
	if !w.matcher.Match(msg.Text) {
		w.log.Debug("source post skipped", "chat_id", msg.ChatID, "message_id", msg.MessageID)
		return false
	}
	w.cache.Set(msg)
	w.log.Info("broadcast post replaced", "chat_id", msg.ChatID, "message_id", msg.MessageID)
	return true
}

// JournalSource reads recent posts of one channel from the journal.
type JournalSource struct {
	journal storage.Journal
	chatID  int64
}

// NewJournalSource returns a source over the journaled posts of chatID.
func NewJournalSource(journal storage.Journal, chatID int64) *JournalSource {
	return &JournalSource{journal: journal, chatID: chatID}
}

// Recent returns up to limit journaled posts, newest first.
func (s *JournalSource) Recent(ctx context.Context, limit int) ([]model.Message, error) {
	return s.journal.RecentSourcePosts(ctx, s.chatID, limit)
}
