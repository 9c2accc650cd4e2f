package ratelimiter

import (
	"sync"
	"time"
)

// Clock returns the current time. Tests inject a fake one.
type Clock func() time.Time

// Limiter allows one action per interval and is safe for concurrent use.
// It throttles progress reporting during transfers.
type Limiter struct {
	mu          sync.Mutex
	interval    time.Duration
	lastAllowed time.Time
	now         Clock
}

// New creates a new interval limiter using the wall clock.
func New(interval time.Duration) *Limiter {
	return NewWithClock(interval, time.Now)
}

// NewWithClock creates an interval limiter driven by clock.
func NewWithClock(interval time.Duration, clock Clock) *Limiter {
	if clock == nil {
		clock = time.Now
	}
	return &Limiter{
		interval: interval,
		now:      clock,
	}
}

// Allow checks if an action is allowed at this time.
// Returns true if allowed (and records this as the last allowed time),
// or false with the remaining wait duration if rate-limited.
func (l *Limiter) Allow() (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	sinceLast := now.Sub(l.lastAllowed)

	if l.lastAllowed.IsZero() || sinceLast >= l.interval {
		l.lastAllowed = now
		return true, 0
	}

	return false, l.interval - sinceLast
}

// Reset clears the limiter state, allowing the next action immediately.
func (l *Limiter) Reset() {
	l.mu.Lock()
	l.lastAllowed = time.Time{}
	l.mu.Unlock()
}

// Interval returns the configured interval.
func (l *Limiter) Interval() time.Duration {
	return l.interval
}
