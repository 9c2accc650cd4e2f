package maintenance

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/vertextoedge/terabox-relay/internal/port"
)

// mockFileSystem implements port.FileSystem for testing
type mockFileSystem struct {
	mu                   sync.Mutex
	cleanTempFilesCount  int
	cleanTempFilesErr    error
	cleanTempFilesCalled int
	lastMaxAge           time.Duration
}

func (m *mockFileSystem) RootDir() string                               { return "" }
func (m *mockFileSystem) CreateTemp(name string) (port.TempFile, error) { return nil, nil }
func (m *mockFileSystem) GetDiskUsage() (*port.DiskUsage, error)        { return nil, nil }
func (m *mockFileSystem) CleanOldTempFiles(olderThan time.Duration) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleanTempFilesCalled++
	m.lastMaxAge = olderThan
	return m.cleanTempFilesCount, m.cleanTempFilesErr
}

func (m *mockFileSystem) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cleanTempFilesCalled
}

// mockPruner counts Prune calls
type mockPruner struct {
	mu     sync.Mutex
	called int
}

func (m *mockPruner) Prune() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.called++
	return 1
}

func (m *mockPruner) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.called
}

func TestService_New(t *testing.T) {
	logger := zap.NewNop()
	fs := &mockFileSystem{}

	// nil config falls back to defaults
	s := New(nil, fs, nil, logger)
	if s == nil {
		t.Fatal("New() returned nil")
	}
	if s.config.TempFileMaxAge != 6*time.Hour {
		t.Errorf("TempFileMaxAge = %v, want %v", s.config.TempFileMaxAge, 6*time.Hour)
	}

	// zero fields are filled in
	s = New(&Config{SweepInterval: 2 * time.Minute}, fs, nil, logger)
	if s.config.SweepInterval != 2*time.Minute {
		t.Errorf("SweepInterval = %v, want %v", s.config.SweepInterval, 2*time.Minute)
	}
	if s.config.PruneInterval != 10*time.Minute {
		t.Errorf("PruneInterval = %v, want %v", s.config.PruneInterval, 10*time.Minute)
	}
}

func TestService_StartStop(t *testing.T) {
	fs := &mockFileSystem{cleanTempFilesCount: 2}
	limiter := &mockPruner{}

	cfg := &Config{
		SweepInterval:  10 * time.Millisecond,
		TempFileMaxAge: time.Hour,
		PruneInterval:  10 * time.Millisecond,
	}
	s := New(cfg, fs, limiter, zap.NewNop())

	done := make(chan error, 1)
	go func() {
		done <- s.Start(context.Background())
	}()

	// Wait for the loop to tick a few times
	time.Sleep(60 * time.Millisecond)

	s.Stop()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() error = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Start() did not return after Stop()")
	}

	if got := fs.calls(); got < 2 {
		t.Errorf("CleanOldTempFiles called %d times, want initial sweep plus ticks", got)
	}
	if fs.lastMaxAge != time.Hour {
		t.Errorf("CleanOldTempFiles olderThan = %v, want %v", fs.lastMaxAge, time.Hour)
	}
	if limiter.calls() == 0 {
		t.Error("Prune was not called")
	}
}

func TestService_InitialSweep(t *testing.T) {
	fs := &mockFileSystem{cleanTempFilesErr: errors.New("permission denied")}

	// Long intervals so only the startup sweep runs
	cfg := &Config{SweepInterval: time.Hour, PruneInterval: time.Hour}
	s := New(cfg, fs, nil, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Start(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start() did not return after context cancel")
	}

	if got := fs.calls(); got != 1 {
		t.Errorf("CleanOldTempFiles called %d times, want 1", got)
	}
}

func TestService_DoubleStart(t *testing.T) {
	s := New(nil, &mockFileSystem{}, nil, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go s.Start(ctx)
	time.Sleep(10 * time.Millisecond)

	if err := s.Start(ctx); err == nil {
		t.Error("second Start() error = nil, want already running")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.SweepInterval != time.Hour {
		t.Errorf("SweepInterval = %v, want %v", cfg.SweepInterval, time.Hour)
	}
	if cfg.TempFileMaxAge != 6*time.Hour {
		t.Errorf("TempFileMaxAge = %v, want %v", cfg.TempFileMaxAge, 6*time.Hour)
	}
	if cfg.PruneInterval != 10*time.Minute {
		t.Errorf("PruneInterval = %v, want %v", cfg.PruneInterval, 10*time.Minute)
	}
}
