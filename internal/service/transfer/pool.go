package transfer

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// PoolStats is a snapshot of slot usage
type PoolStats struct {
	Size         int64
	Active       int64
	Acquisitions int64
	Releases     int64
}

// Pool bounds how many transfers run at once. Resolution is not gated.
type Pool struct {
	sem  *semaphore.Weighted
	size int64

	active       atomic.Int64
	acquisitions atomic.Int64
	releases     atomic.Int64
}

// NewPool creates a pool with size slots (minimum 1)
func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{
		sem:  semaphore.NewWeighted(int64(size)),
		size: int64(size),
	}
}

// Acquire blocks until a slot is free or ctx is done. The returned release
// func must be called on every exit path; calls after the first are no-ops.
func (p *Pool) Acquire(ctx context.Context) (release func(), err error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return func() {}, err
	}
	return p.track(), nil
}

// TryAcquire takes a slot without blocking. ok is false when all slots are busy.
func (p *Pool) TryAcquire() (release func(), ok bool) {
	if !p.sem.TryAcquire(1) {
		return func() {}, false
	}
	return p.track(), true
}

// track records an acquisition and returns its idempotent release func
func (p *Pool) track() func() {
	p.acquisitions.Add(1)
	p.active.Add(1)

	var once sync.Once
	return func() {
		once.Do(func() {
			p.active.Add(-1)
			p.releases.Add(1)
			p.sem.Release(1)
		})
	}
}

// Stats returns current counters
func (p *Pool) Stats() PoolStats {
	return PoolStats{
		Size:         p.size,
		Active:       p.active.Load(),
		Acquisitions: p.acquisitions.Load(),
		Releases:     p.releases.Load(),
	}
}
