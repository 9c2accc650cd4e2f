package transfer

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/vertextoedge/terabox-relay/internal/domain"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestPool_ReleaseIsIdempotent(t *testing.T) {
	p := NewPool(1)

	release, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	release()
	release()

	stats := p.Stats()
	if stats.Active != 0 || stats.Acquisitions != 1 || stats.Releases != 1 {
		t.Errorf("Stats() = %+v, want 0 active, 1 acquisition, 1 release", stats)
	}

	// the slot is really free again, not double-released
	r1, ok := p.TryAcquire()
	if !ok {
		t.Fatal("TryAcquire() after release = false, want true")
	}
	if _, ok := p.TryAcquire(); ok {
		t.Error("second TryAcquire() on size-1 pool = true, want false")
	}
	r1()
}

func TestPool_AcquireHonoursContext(t *testing.T) {
	p := NewPool(1)
	release, _ := p.Acquire(context.Background())
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	r, err := p.Acquire(ctx)
	if err == nil {
		t.Fatal("Acquire() on full pool with expiring ctx error = nil")
	}
	r() // no-op release must be safe

	if got := p.Stats().Acquisitions; got != 1 {
		t.Errorf("Acquisitions = %d, want 1", got)
	}
}

func TestPool_BoundsConcurrentTransfers(t *testing.T) {
	const maxConcurrent = 2

	var started, inflight, maxSeen atomic.Int32
	proceed := make(chan struct{})
	payload := bytes.Repeat([]byte{'p'}, 4096)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started.Add(1)
		cur := inflight.Add(1)
		for {
			prev := maxSeen.Load()
			if cur <= prev || maxSeen.CompareAndSwap(prev, cur) {
				break
			}
		}
		<-proceed
		inflight.Add(-1)

		if strings.HasSuffix(r.URL.Path, "/fail") {
			w.Header().Set("Content-Length", "4096")
			w.Write(payload[:100])
			w.(http.Flusher).Flush()
			panic(http.ErrAbortHandler)
		}
		w.Write(payload)
	}))
	defer srv.Close()

	pool := NewPool(maxConcurrent)
	engine := NewEngine(Config{ChunkSize: 1024, AllowSmallChunks: true}, zap.NewNop())

	var wg sync.WaitGroup
	errs := make([]error, maxConcurrent+1)
	for i := 0; i < maxConcurrent+1; i++ {
		path := "/ok"
		if i == 0 {
			path = "/fail"
		}
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			release, err := pool.Acquire(context.Background())
			if err != nil {
				errs[i] = err
				return
			}
			defer release()
			_, errs[i] = engine.Transfer(context.Background(), srv.URL+path, &fakeSink{}, 0, nil)
		}(i, path)
	}

	waitFor(t, func() bool { return started.Load() == maxConcurrent })
	time.Sleep(50 * time.Millisecond)
	if got := started.Load(); got != maxConcurrent {
		t.Fatalf("started = %d while pool is full, want %d", got, maxConcurrent)
	}
	if got := pool.Stats().Active; got != maxConcurrent {
		t.Errorf("Active = %d, want %d", got, maxConcurrent)
	}

	// free one slot, the waiting transfer may now start
	proceed <- struct{}{}
	waitFor(t, func() bool { return started.Load() == maxConcurrent+1 })

	proceed <- struct{}{}
	proceed <- struct{}{}
	wg.Wait()

	if got := maxSeen.Load(); got != maxConcurrent {
		t.Errorf("max concurrent transfers = %d, want %d", got, maxConcurrent)
	}

	stats := pool.Stats()
	if stats.Acquisitions != maxConcurrent+1 || stats.Releases != stats.Acquisitions {
		t.Errorf("Stats() = %+v, want %d acquisitions all released", stats, maxConcurrent+1)
	}
	if stats.Active != 0 {
		t.Errorf("Active = %d after all transfers, want 0", stats.Active)
	}

	if domain.KindOf(errs[0]) != domain.KindTransfer {
		t.Errorf("failing transfer error = %v, want kind %v", errs[0], domain.KindTransfer)
	}
	for i := 1; i < len(errs); i++ {
		if errs[i] != nil {
			t.Errorf("transfer %d error = %v, want nil", i, errs[i])
		}
	}
}
