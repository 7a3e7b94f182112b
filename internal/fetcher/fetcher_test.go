package fetcher

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/mmcdole/gofeed"

	"repost_bot/internal/filter"
	"repost_bot/internal/model"
)

type mockTransport struct {
	body       string
	statusCode int
	err        error
}

func (m *mockTransport) Do(_ *http.Request) (*http.Response, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &http.Response{
		StatusCode: m.statusCode,
		Body:       io.NopCloser(bytes.NewBufferString(m.body)),
	}, nil
}

func loadFixture(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path) //nolint:gosec // test-only fixture loading
	if err != nil {
		t.Fatalf("read fixture %s: %v", path, err)
	}
	return string(data)
}

func TestFetch(t *testing.T) {
	xml := loadFixture(t, "../../testdata/sample.xml")

	tests := []struct {
		name      string
		transport *mockTransport
		wantTitle string
		wantItems int
		wantErr   bool
	}{
		{
			name:      "successful fetch",
			transport: &mockTransport{body: xml, statusCode: 200},
			wantTitle: "Shop Announcements",
			wantItems: 4,
		},
		{
			name:      "http error status",
			transport: &mockTransport{body: "not found", statusCode: 404},
			wantErr:   true,
		},
		{
			name:      "network error",
			transport: &mockTransport{err: io.ErrUnexpectedEOF},
			wantErr:   true,
		},
		{
			name:      "invalid xml",
			transport: &mockTransport{body: "not xml at all", statusCode: 200},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New(tt.transport)
			feed, err := f.Fetch(context.Background(), "https://example.com/rss")

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if diff := cmp.Diff(tt.wantTitle, feed.Title); diff != "" {
				t.Errorf("title mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantItems, len(feed.Items)); diff != "" {
				t.Errorf("item count mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestItemMessage(t *testing.T) {
	published := time.Date(2026, 6, 5, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		item *gofeed.Item
		want model.Message
	}{
		{
			name: "full item",
			item: &gofeed.Item{
				Title:           "Sale",
				Description:     "50% off",
				Link:            "https://example.com/1",
				PublishedParsed: &published,
			},
			want: model.Message{
				Text: "Sale\n\n50% off\n\nhttps://example.com/1",
				Link: "https://example.com/1",
				Date: published,
			},
		},
		{
			name: "title only",
			item: &gofeed.Item{Title: "  Sale  "},
			want: model.Message{Text: "Sale"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ItemMessage(tt.item)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ItemMessage() mismatch (-want +got):\n%s", diff)
			}
			if got.Forwardable() {
				t.Error("feed messages must not be forwardable")
			}
		})
	}
}

func TestRecentAndLatest(t *testing.T) {
	xml := loadFixture(t, "../../testdata/sample.xml")
	f := New(&mockTransport{body: xml, statusCode: 200})

	msgs, err := f.Recent(context.Background(), "https://example.com/rss", 3)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	var links []string
	for _, m := range msgs {
		links = append(links, m.Link)
	}
	wantLinks := []string{
		"https://shop.example.com/posts/5",
		"https://shop.example.com/posts/4",
		"https://shop.example.com/posts/3",
	}
	if diff := cmp.Diff(wantLinks, links); diff != "" {
		t.Errorf("Recent() links mismatch (-want +got):\n%s", diff)
	}

	tests := []struct {
		name     string
		keyword  string
		wantLink string
		wantOK   bool
	}{
		{name: "newest match", keyword: "#promo", wantLink: "https://shop.example.com/posts/5", wantOK: true},
		{name: "older match", keyword: "clearance", wantLink: "https://shop.example.com/posts/3", wantOK: true},
		{name: "no match", keyword: "giveaway", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Latest(msgs, filter.NewKeyword(tt.keyword))
			if diff := cmp.Diff(tt.wantOK, ok); diff != "" {
				t.Fatalf("found mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantLink, got.Link); diff != "" {
				t.Errorf("link mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
