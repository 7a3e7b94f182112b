// Package model defines the domain types used across the application.
package model

import (
	"math"
	"time"
)

// MaxIntervalSeconds is the largest interval that still fits a time.Duration.
const MaxIntervalSeconds int64 = math.MaxInt64 / int64(time.Second)

// ValidInterval reports whether seconds is a storable destination interval.
func ValidInterval(seconds int) bool {
	return seconds >= 0 && int64(seconds) <= MaxIntervalSeconds
}

// Destination is a chat that receives the broadcast post on a repeat interval.
// The sign of ID is significant: basic groups and channels/supergroups may
// share a magnitude, and a chat is addressable under one sign at a time.
type Destination struct {
	ID              int64
	IntervalSeconds int
}

// Interval returns the destination interval as a duration.
func (d Destination) Interval() time.Duration {
	return time.Duration(d.IntervalSeconds) * time.Second
}

// Message is a post from the source feed that can be re-broadcast.
type Message struct {
	ChatID    int64
	MessageID int
	Text      string
	Link      string
	Date      time.Time
}

// Forwardable reports whether the message references a Telegram post that
// can be forwarded as-is. Other messages are re-sent as text.
func (m Message) Forwardable() bool {
	return m.ChatID != 0 && m.MessageID != 0
}

// Chat is the resolved metadata of a destination.
type Chat struct {
	ID    int64
	Title string
}

// Dialog is a chat the bot has recently seen.
type Dialog struct {
	ID        int64
	Title     string
	IsGroup   bool
	UpdatedAt time.Time
}
