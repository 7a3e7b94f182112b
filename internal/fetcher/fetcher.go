// Package fetcher downloads RSS/Atom feeds used as a broadcast source.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"repost_bot/internal/model"
)

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Matcher decides whether a text qualifies for broadcasting.
type Matcher interface {
	Match(text string) bool
}

// Fetcher downloads and parses RSS feeds.
type Fetcher struct {
	client  HTTPClient
	timeout time.Duration
}

// New creates a Fetcher with the given HTTP client.
func New(client HTTPClient) *Fetcher {
	return &Fetcher{
		client:  client,
		timeout: 30 * time.Second,
	}
}

// Fetch downloads and parses a feed from the given URL.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*gofeed.Feed, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "RepostBot/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 5*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	parser := gofeed.NewParser()
	feed, err := parser.ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return feed, nil
}

// Recent fetches the feed and returns up to limit items as messages,
// newest first.
func (f *Fetcher) Recent(ctx context.Context, url string, limit int) ([]model.Message, error) {
	feed, err := f.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	msgs := Messages(feed.Items)
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[:limit]
	}
	return msgs, nil
}

// Messages converts feed items to messages ordered newest first.
// Items without a publish date keep their feed order after dated ones.
func Messages(items []*gofeed.Item) []model.Message {
	msgs := make([]model.Message, 0, len(items))
	for _, item := range items {
		msgs = append(msgs, ItemMessage(item))
	}
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].Date.After(msgs[j].Date)
	})
	return msgs
}

// ItemMessage renders a feed item as a text message.
func ItemMessage(item *gofeed.Item) model.Message {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(item.Title))
	if desc := strings.TrimSpace(item.Description); desc != "" {
		b.WriteString("\n\n")
		b.WriteString(desc)
	}
	if item.Link != "" {
		b.WriteString("\n\n")
		b.WriteString(item.Link)
	}

	msg := model.Message{Text: b.String(), Link: item.Link}
	if item.PublishedParsed != nil {
		msg.Date = item.PublishedParsed.UTC()
	} else if item.UpdatedParsed != nil {
		msg.Date = item.UpdatedParsed.UTC()
	}
	return msg
}

// Latest returns the newest message accepted by m.
func Latest(msgs []model.Message, m Matcher) (model.Message, bool) {
	for _, msg := range msgs {
		if m.Match(msg.Text) {
			return msg, true
		}
	}
	return model.Message{}, false
}
