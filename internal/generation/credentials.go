package generation

import "strings"

// Credentials manages the ordered list of primary-provider API keys. The
// active index only ever moves forward: once a key has been rotated past it
// is never retried for the remainder of the process, even across unrelated
// requests. Not safe for concurrent use; give each orchestrator its own.
type Credentials struct {
	keys  []string
	index int
}

// NewCredentials builds a rotation over the supplied keys, dropping empties.
// A zero-key rotation is legal and means the primary provider is disabled.
func NewCredentials(keys ...string) *Credentials {
	cleaned := make([]string, 0, len(keys))
	for _, key := range keys {
		if key = strings.TrimSpace(key); key != "" {
			cleaned = append(cleaned, key)
		}
	}
	return &Credentials{keys: cleaned}
}

// Current returns the active credential. The second return is false only
// when no credentials were configured; after exhaustion Current still
// reports the last key.
func (c *Credentials) Current() (string, bool) {
	if c == nil || len(c.keys) == 0 {
		return "", false
	}
	return c.keys[c.index], true
}

// Advance moves to the next credential and reports whether one was
// available. Once it returns false every later call returns false too; the
// index stays parked on the last key.
func (c *Credentials) Advance() bool {
	if c == nil || c.index >= len(c.keys)-1 {
		return false
	}
	c.index++
	return true
}

// Index reports the position of the active credential.
func (c *Credentials) Index() int {
	if c == nil {
		return 0
	}
	return c.index
}

// Len reports how many credentials were configured.
func (c *Credentials) Len() int {
	if c == nil {
		return 0
	}
	return len(c.keys)
}
