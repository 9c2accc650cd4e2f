package ratelimiter

import (
	"sync"
	"time"
)

// Window is a per-key sliding window limiter: at most limit events per key
// within any span of length window. Keys are chat user ids.
type Window struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	now    Clock
	events map[int64][]time.Time
}

// NewWindow creates a sliding window limiter using the wall clock.
func NewWindow(limit int, window time.Duration) *Window {
	return NewWindowWithClock(limit, window, time.Now)
}

// NewWindowWithClock creates a sliding window limiter driven by clock.
func NewWindowWithClock(limit int, window time.Duration, clock Clock) *Window {
	if clock == nil {
		clock = time.Now
	}
	if limit < 1 {
		limit = 1
	}
	return &Window{
		limit:  limit,
		window: window,
		now:    clock,
		events: make(map[int64][]time.Time),
	}
}

// Allow records an event for key when it fits in the window.
// When it does not, nothing is recorded and the wait until the oldest
// event leaves the window is returned.
func (w *Window) Allow(key int64) (bool, time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	recent := w.trim(key, now)

	if len(recent) >= w.limit {
		wait := w.window - now.Sub(recent[0])
		if wait < 0 {
			wait = 0
		}
		return false, wait
	}

	w.events[key] = append(recent, now)
	return true, 0
}

// Remaining returns how many events key may still trigger in the current window.
func (w *Window) Remaining(key int64) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.limit - len(w.trim(key, w.now()))
}

// Prune drops keys with no events inside the window and returns how many were removed.
func (w *Window) Prune() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	removed := 0
	for key := range w.events {
		if len(w.trim(key, now)) == 0 {
			delete(w.events, key)
			removed++
		}
	}
	return removed
}

// Keys returns the number of tracked keys.
func (w *Window) Keys() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.events)
}

// Limit returns the configured event count per window.
func (w *Window) Limit() int {
	return w.limit
}

// Window returns the configured window length.
func (w *Window) Window() time.Duration {
	return w.window
}

// trim drops expired events for key. Caller holds mu.
func (w *Window) trim(key int64, now time.Time) []time.Time {
	ts := w.events[key]
	cut := 0
	for cut < len(ts) && now.Sub(ts[cut]) >= w.window {
		cut++
	}
	if cut > 0 {
		ts = ts[cut:]
		w.events[key] = ts
	}
	return ts
}
