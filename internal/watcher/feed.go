package watcher

import (
	"context"
	"log/slog"
	"time"

	"repost_bot/internal/cache"
	"repost_bot/internal/fetcher"
	"repost_bot/internal/model"
)

// FeedSource reads recent items of an RSS/Atom feed.
type FeedSource struct {
	fetcher *fetcher.Fetcher
	url     string
}

// NewFeedSource returns a source over the feed at url.
func NewFeedSource(f *fetcher.Fetcher, url string) *FeedSource {
	return &FeedSource{fetcher: f, url: url}
}

// Recent returns up to limit feed items, newest first.
func (s *FeedSource) Recent(ctx context.Context, limit int) ([]model.Message, error) {
	return s.fetcher.Recent(ctx, s.url, limit)
}

// FeedPoller polls a feed source and caches its newest qualifying item.
type FeedPoller struct {
	source   *FeedSource
	cache    *cache.Broadcast
	matcher  Matcher
	interval time.Duration
	limit    int
	log      *slog.Logger
}

// NewFeedPoller creates a FeedPoller that checks the feed every interval.
func NewFeedPoller(source *FeedSource, c *cache.Broadcast, matcher Matcher, interval time.Duration, log *slog.Logger) *FeedPoller {
	return &FeedPoller{
		source:   source,
		cache:    c,
		matcher:  matcher,
		interval: interval,
		limit:    10,
		log:      log,
	}
}

// Run polls the feed until ctx is cancelled.
func (p *FeedPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.log.Info("feed poller started", "interval", p.interval)

	for {
		select {
		case <-ctx.Done():
			p.log.Info("feed poller stopped")
			return
		case <-ticker.C:
			p.Poll(ctx)
		}
	}
}

// Poll fetches the feed once. It reports whether a newer qualifying item
// replaced the cached one.
func (p *FeedPoller) Poll(ctx context.Context) bool {
	msgs, err := p.source.Recent(ctx, p.limit)
	if err != nil {
		p.log.Error("poll feed", "url", p.source.url, "error", err)
		return false
	}
	latest, ok := fetcher.Latest(msgs, p.matcher)
	if !ok {
		return false
	}
	if cur, ok := p.cache.Get(); ok && !newer(latest, cur) {
		return false
	}
	p.cache.Set(latest)
	p.log.Info("broadcast post replaced", "link", latest.Link)
	return true
}

func newer(a, b model.Message) bool {
	if a.Link != "" && a.Link == b.Link {
		return false
	}
	if a.Date.IsZero() || b.Date.IsZero() {
		return a.Text != b.Text
	}
	return a.Date.After(b.Date)
}
