// Package filter decides which source posts qualify for broadcasting.
package filter

import (
	"strings"
)

// Keyword matches text containing any of its keywords, ignoring case.
type Keyword struct {
	words []string
}

// NewKeyword builds a matcher from a comma-separated keyword list.
// Blank entries are dropped.
func NewKeyword(list string) *Keyword {
	var words []string
	for _, w := range strings.Split(list, ",") {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			words = append(words, w)
		}
	}
	return &Keyword{words: words}
}

// Match reports whether text contains one of the keywords.
// A matcher without keywords matches nothing.
func (k *Keyword) Match(text string) bool {
	if text == "" {
		return false
	}
	lower := strings.ToLower(text)
	for _, w := range k.words {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// Words returns the normalized keywords.
func (k *Keyword) Words() []string {
	return append([]string(nil), k.words...)
}
