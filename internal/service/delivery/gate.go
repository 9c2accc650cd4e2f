package delivery

import (
	"go.uber.org/zap"

	"github.com/vertextoedge/terabox-relay/internal/domain"
	"github.com/vertextoedge/terabox-relay/internal/port"
)

// Gate applies the size ceiling and, when configured, a disk space check
type Gate struct {
	maxBytes int64
	space    port.SpaceManager
	logger   *zap.Logger
}

// NewGate creates a gate. space may be nil to skip the disk check.
func NewGate(maxBytes int64, space port.SpaceManager, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{
		maxBytes: maxBytes,
		space:    space,
		logger:   logger.Named("gate"),
	}
}

// MaxBytes returns the configured size ceiling
func (g *Gate) MaxBytes() int64 {
	return g.maxBytes
}

// Decide returns the delivery plan for result. A failing disk check is
// logged and ignored.
func (g *Gate) Decide(result *domain.ResolveResult) Plan {
	plan := Decide(result, g.maxBytes)
	if plan.Action != Proceed || g.space == nil {
		return plan
	}

	check, err := g.space.CheckSpace(plan.FileSize)
	if err != nil {
		g.logger.Warn("disk space check failed", zap.Error(err))
		return plan
	}
	if !check.HasSpace {
		g.logger.Info("not enough disk space, sending link only",
			zap.String("file", plan.FileName),
			zap.Int64("required", check.RequiredBytes),
			zap.Int64("available", check.AvailableBytes))
		plan.Action = RejectNoSpace
		plan.Err = domain.ErrInsufficientSpace
	}
	return plan
}
