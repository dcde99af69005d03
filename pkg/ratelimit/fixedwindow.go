// Package ratelimit provides the edge rate limiter applied to the MCP
// endpoint and the upstream call pacer used by upstream client ports.
package ratelimit

import (
	"sync"
	"time"
)

// DefaultWindow and DefaultCeiling give each remote address 100 requests
// per 60 seconds unless configured otherwise.
const (
	DefaultWindow  = 60 * time.Second
	DefaultCeiling = 100
)

// FixedWindow is a per-key fixed-window counter: a key's count resets to
// zero at the start of each window rather than decaying continuously. This
// is deliberately not a token bucket (golang.org/x/time/rate) — the
// testable property is a hard ceiling within a wall-clock window, which a
// token bucket's smoothed refill does not give.
type FixedWindow struct {
	mu       sync.Mutex
	window   time.Duration
	ceiling  int
	now      func() time.Time
	counters map[string]*windowCounter
}

type windowCounter struct {
	count       int
	windowStart time.Time
}

// New constructs a FixedWindow limiter with the given window and ceiling.
func New(window time.Duration, ceiling int) *FixedWindow {
	if window <= 0 {
		window = DefaultWindow
	}
	if ceiling <= 0 {
		ceiling = DefaultCeiling
	}
	return &FixedWindow{
		window:   window,
		ceiling:  ceiling,
		now:      time.Now,
		counters: make(map[string]*windowCounter),
	}
}

// Allow reports whether a request keyed by key is permitted under the
// current window, incrementing the counter as a side effect when allowed.
func (f *FixedWindow) Allow(key string) bool {
	now := f.now()
	f.mu.Lock()
	defer f.mu.Unlock()

	c, ok := f.counters[key]
	if !ok || now.Sub(c.windowStart) >= f.window {
		c = &windowCounter{count: 0, windowStart: now}
		f.counters[key] = c
	}
	if c.count >= f.ceiling {
		return false
	}
	c.count++
	return true
}

// Remaining reports how many requests key may still make in its current
// window, for use in rate-limit response headers.
func (f *FixedWindow) Remaining(key string) int {
	now := f.now()
	f.mu.Lock()
	defer f.mu.Unlock()

	c, ok := f.counters[key]
	if !ok || now.Sub(c.windowStart) >= f.window {
		return f.ceiling
	}
	remaining := f.ceiling - c.count
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ResetAt reports when key's current window resets.
func (f *FixedWindow) ResetAt(key string) time.Time {
	now := f.now()
	f.mu.Lock()
	defer f.mu.Unlock()

	c, ok := f.counters[key]
	if !ok {
		return now.Add(f.window)
	}
	return c.windowStart.Add(f.window)
}

// Sweep drops tracked keys whose window has fully elapsed, bounding memory
// growth from a long tail of one-shot callers. Intended to be called
// periodically by a caller-owned ticker.
func (f *FixedWindow) Sweep() int {
	now := f.now()
	f.mu.Lock()
	defer f.mu.Unlock()
	removed := 0
	for k, c := range f.counters {
		if now.Sub(c.windowStart) >= f.window {
			delete(f.counters, k)
			removed++
		}
	}
	return removed
}
