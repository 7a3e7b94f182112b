package cache

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"repost_bot/internal/model"
)

func TestBroadcast(t *testing.T) {
	c := New()

	if _, ok := c.Get(); ok {
		t.Fatal("expected empty cache before first Set")
	}

	first := model.Message{ChatID: -100, MessageID: 1, Text: "first #promo", Date: time.Unix(1, 0)}
	second := model.Message{ChatID: -100, MessageID: 2, Text: "second #promo", Date: time.Unix(2, 0)}

	c.Set(first)
	got, ok := c.Get()
	if !ok {
		t.Fatal("expected cached message")
	}
	if diff := cmp.Diff(first, got); diff != "" {
		t.Errorf("Get() after first Set mismatch (-want +got):\n%s", diff)
	}

	c.Set(second)
	got, _ = c.Get()
	if diff := cmp.Diff(second, got); diff != "" {
		t.Errorf("Get() after second Set mismatch (-want +got):\n%s", diff)
	}
}
