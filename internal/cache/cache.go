// Package cache holds the post that is currently being broadcast.
package cache

import (
	"sync"

	"repost_bot/internal/model"
)

// Broadcast keeps the latest qualifying source post. Writers replace it
// wholesale; readers never see a partially updated value.
type Broadcast struct {
	mu  sync.RWMutex
	msg model.Message
	set bool
}

// New returns an empty cache.
func New() *Broadcast {
	return &Broadcast{}
}

// Set replaces the cached post.
func (c *Broadcast) Set(msg model.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msg = msg
	c.set = true
}

// Get returns the cached post, or false if nothing qualified yet.
func (c *Broadcast) Get() (model.Message, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.msg, c.set
}
