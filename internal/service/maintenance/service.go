// Package maintenance runs background housekeeping: stale temp file sweeps
// and pruning of idle rate limiter entries.
package maintenance

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vertextoedge/terabox-relay/internal/port"
)

// Pruner drops idle entries and returns how many were removed
type Pruner interface {
	Prune() int
}

// Config contains maintenance service configuration
type Config struct {
	// SweepInterval is how often temp files are checked
	SweepInterval time.Duration

	// TempFileMaxAge is the age after which a temp file counts as abandoned
	TempFileMaxAge time.Duration

	// PruneInterval is how often idle rate limiter entries are dropped
	PruneInterval time.Duration
}

// DefaultConfig returns default maintenance configuration
func DefaultConfig() *Config {
	return &Config{
		SweepInterval:  time.Hour,
		TempFileMaxAge: 6 * time.Hour,
		PruneInterval:  10 * time.Minute,
	}
}

// Service handles periodic maintenance tasks
type Service struct {
	config  *Config
	fs      port.FileSystem
	limiter Pruner
	logger  *zap.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a new maintenance Service. limiter may be nil.
func New(cfg *Config, fs port.FileSystem, limiter Pruner, logger *zap.Logger) *Service {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.SweepInterval == 0 {
		cfg.SweepInterval = time.Hour
	}
	if cfg.TempFileMaxAge == 0 {
		cfg.TempFileMaxAge = 6 * time.Hour
	}
	if cfg.PruneInterval == 0 {
		cfg.PruneInterval = 10 * time.Minute
	}

	return &Service{
		config:  cfg,
		fs:      fs,
		limiter: limiter,
		logger:  logger.Named("maintenance"),
	}
}

// Start runs one sweep immediately, then loops until ctx is done or Stop is called
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("maintenance service already running")
	}
	s.running = true
	ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.logger.Info("maintenance service started",
		zap.Duration("sweep_interval", s.config.SweepInterval),
		zap.Duration("temp_file_max_age", s.config.TempFileMaxAge),
		zap.Duration("prune_interval", s.config.PruneInterval))

	// Leftovers from a previous run
	s.cleanupTempFiles()

	s.wg.Add(1)
	go s.maintenanceLoop(ctx)

	<-ctx.Done()
	s.wg.Wait()
	s.logger.Info("maintenance service stopped")
	return nil
}

// Stop stops the maintenance service
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	s.running = false
}

func (s *Service) maintenanceLoop(ctx context.Context) {
	defer s.wg.Done()

	sweepTicker := time.NewTicker(s.config.SweepInterval)
	defer sweepTicker.Stop()

	pruneTicker := time.NewTicker(s.config.PruneInterval)
	defer pruneTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sweepTicker.C:
			s.cleanupTempFiles()
		case <-pruneTicker.C:
			s.pruneLimiter()
		}
	}
}

// cleanupTempFiles removes abandoned temp files, e.g. after a crash mid-transfer
func (s *Service) cleanupTempFiles() {
	count, err := s.fs.CleanOldTempFiles(s.config.TempFileMaxAge)
	if err != nil {
		s.logger.Error("failed to cleanup old temp files", zap.Error(err))
	} else if count > 0 {
		s.logger.Info("cleaned up old temp files", zap.Int("count", count))
	}
}

func (s *Service) pruneLimiter() {
	if s.limiter == nil {
		return
	}
	if n := s.limiter.Prune(); n > 0 {
		s.logger.Debug("pruned idle rate limit entries", zap.Int("count", n))
	}
}
