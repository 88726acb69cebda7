// Package ratelimit tracks the GitHub API rate-limit window shared
// across a batch of concurrent installs, so every target's release
// resolver sees the same up-to-date remaining/reset figures instead of
// each discovering them independently.
package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-appimage/aimctl/pkg/types"
)

// Tracker holds the most recently observed GitHub rate-limit window,
// updated from response headers on every REST call.
type Tracker struct {
	mu    sync.RWMutex
	limit types.RateLimit
}

// New returns an empty Tracker.
func New() *Tracker {
	return &Tracker{}
}

// UpdateFromHeaders parses X-RateLimit-{Limit,Remaining,Reset} off a
// GitHub API response and records the window.
func (t *Tracker) UpdateFromHeaders(h http.Header) {
	limit, lerr := strconv.Atoi(h.Get("X-RateLimit-Limit"))
	remaining, rerr := strconv.Atoi(h.Get("X-RateLimit-Remaining"))
	reset, terr := strconv.ParseInt(h.Get("X-RateLimit-Reset"), 10, 64)
	if lerr != nil && rerr != nil && terr != nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if lerr == nil {
		t.limit.Total = limit
	}
	if rerr == nil {
		t.limit.Remaining = remaining
	}
	if terr == nil {
		resetTime := time.Unix(reset, 0)
		t.limit.ResetTime = &resetTime
	}
}

// Current returns the last observed rate-limit window.
func (t *Tracker) Current() types.RateLimit {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.limit
}

// Exhausted reports whether the tracker believes requests are
// currently rate-limited (zero remaining and reset time not yet
// passed).
func (t *Tracker) Exhausted() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.limit.Remaining > 0 || t.limit.ResetTime == nil {
		return false
	}
	return time.Now().Before(*t.limit.ResetTime)
}
