package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/vertextoedge/terabox-relay/internal/port"
)

// StatsResponse is the body of /debug/stats
type StatsResponse struct {
	Users         int            `json:"users"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	Transfers     TransferStats  `json:"transfers"`
	RateLimit     RateLimitStats `json:"rate_limit"`
	Disk          *DiskStats     `json:"disk,omitempty"`
}

// TransferStats describes the transfer slot pool
type TransferStats struct {
	Slots        int64 `json:"slots"`
	Active       int64 `json:"active"`
	Acquisitions int64 `json:"acquisitions"`
	Releases     int64 `json:"releases"`
}

// RateLimitStats describes the per-user limiter
type RateLimitStats struct {
	Limit         int     `json:"limit"`
	WindowSeconds float64 `json:"window_seconds"`
	TrackedUsers  int     `json:"tracked_users"`
}

// DiskStats describes the temp directory's filesystem
type DiskStats struct {
	TotalBytes uint64  `json:"total_bytes"`
	FreeBytes  uint64  `json:"free_bytes"`
	Free       string  `json:"free"`
	UsedPct    float64 `json:"used_pct"`
}

// DebugHandler handles debug endpoint requests
type DebugHandler struct {
	store   port.UserStore
	stats   StatsSource
	fs      port.FileSystem
	started time.Time
	logger  *zap.Logger
}

// NewDebugHandler creates a new DebugHandler
func NewDebugHandler(store port.UserStore, stats StatsSource, fs port.FileSystem, started time.Time, logger *zap.Logger) *DebugHandler {
	return &DebugHandler{
		store:   store,
		stats:   stats,
		fs:      fs,
		started: started,
		logger:  logger,
	}
}

// HandleStats handles debug statistics requests
func (h *DebugHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	users, err := h.store.CountUsers(r.Context())
	if err != nil {
		h.logger.Error("failed to count users", zap.Error(err))
		http.Error(w, "Failed to get stats", http.StatusInternalServerError)
		return
	}

	rt := h.stats.Stats()
	resp := StatsResponse{
		Users:         users,
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
		Transfers: TransferStats{
			Slots:        rt.Pool.Size,
			Active:       rt.Pool.Active,
			Acquisitions: rt.Pool.Acquisitions,
			Releases:     rt.Pool.Releases,
		},
		RateLimit: RateLimitStats{
			Limit:         rt.RateLimit,
			WindowSeconds: rt.RateWindow.Seconds(),
			TrackedUsers:  rt.LimiterKeys,
		},
	}

	if h.fs != nil {
		usage, err := h.fs.GetDiskUsage()
		if err != nil {
			h.logger.Warn("failed to get disk usage", zap.Error(err))
		} else if usage != nil {
			resp.Disk = &DiskStats{
				TotalBytes: usage.Total,
				FreeBytes:  usage.Free,
				Free:       humanize.IBytes(usage.Free),
				UsedPct:    usage.UsedPct,
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
