// Package transfer streams resolved files to local sinks under a bounded
// pool of transfer slots.
package transfer

import (
	"context"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/vertextoedge/terabox-relay/internal/domain"
	"github.com/vertextoedge/terabox-relay/internal/util/ratelimiter"
)

const (
	DefaultChunkSize        = 1 << 20 // 1 MiB
	MinChunkSize            = 512 << 10
	MaxChunkSize            = 8 << 20
	DefaultProgressInterval = 2 * time.Second
)

// ProgressFunc receives throttled progress snapshots
type ProgressFunc func(domain.TransferProgress)

// Config contains engine configuration
type Config struct {
	ChunkSize        int           // bytes per read, clamped to [MinChunkSize, MaxChunkSize] unless AllowSmallChunks
	ProgressInterval time.Duration // minimum spacing of progress callbacks
	MaxBytes         int64         // hard ceiling on streamed bytes, 0 disables
	UserAgent        string
	Clock            ratelimiter.Clock

	// AllowSmallChunks skips the lower clamp. Used by tests.
	AllowSmallChunks bool
}

// Engine streams HTTP bodies into writers
type Engine struct {
	client           *http.Client
	chunkSize        int
	progressInterval time.Duration
	maxBytes         int64
	userAgent        string
	now              ratelimiter.Clock
	logger           *zap.Logger
}

// NewEngine creates a new Engine
func NewEngine(cfg Config, logger *zap.Logger) *Engine {
	chunk := cfg.ChunkSize
	if chunk <= 0 {
		chunk = DefaultChunkSize
	}
	if chunk < MinChunkSize && !cfg.AllowSmallChunks {
		chunk = MinChunkSize
	}
	if chunk > MaxChunkSize {
		chunk = MaxChunkSize
	}
	interval := cfg.ProgressInterval
	if interval <= 0 {
		interval = DefaultProgressInterval
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     120 * time.Second,
		ForceAttemptHTTP2:   true,

		// Binary payloads, compression only costs CPU
		DisableCompression: true,

		// Response header timeout (not total transfer timeout)
		ResponseHeaderTimeout: 60 * time.Second,
	}

	return &Engine{
		client:           &http.Client{Transport: transport},
		chunkSize:        chunk,
		progressInterval: interval,
		maxBytes:         cfg.MaxBytes,
		userAgent:        cfg.UserAgent,
		now:              clock,
		logger:           logger.Named("transfer"),
	}
}

// ChunkSize returns the effective read size
func (e *Engine) ChunkSize() int {
	return e.chunkSize
}

// Transfer streams sourceURL into dst and returns the number of bytes written.
// expectedTotal may be 0 when unknown; Content-Length is used as a fallback.
// onProgress is called at most once per progress interval and once more with
// the final byte count. The caller owns dst and any partial-file cleanup, and
// must hold a transfer slot for the duration of the call.
func (e *Engine) Transfer(ctx context.Context, sourceURL string, dst io.Writer, expectedTotal int64, onProgress ProgressFunc) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return 0, domain.NewTransferError("request", err)
	}
	if e.userAgent != "" {
		req.Header.Set("User-Agent", e.userAgent)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return 0, domain.NewTransferError("connect", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, domain.NewUpstreamHTTPError(resp.StatusCode, "transfer")
	}

	total := expectedTotal
	if total <= 0 && resp.ContentLength > 0 {
		total = resp.ContentLength
	}
	if total < 0 {
		total = 0
	}
	if e.maxBytes > 0 && total > e.maxBytes {
		return 0, &domain.SizeExceededError{Size: total, Limit: e.maxBytes}
	}

	start := e.now()
	throttle := ratelimiter.NewWithClock(e.progressInterval, e.now)
	report := func(done int64) {
		if onProgress == nil {
			return
		}
		onProgress(domain.TransferProgress{
			BytesDone:  done,
			BytesTotal: total,
			Elapsed:    e.now().Sub(start),
		})
	}

	buf := make([]byte, e.chunkSize)
	var done int64

	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if e.maxBytes > 0 && done+int64(n) > e.maxBytes {
				return done, &domain.SizeExceededError{Size: done + int64(n), Limit: e.maxBytes}
			}

			written, writeErr := dst.Write(buf[:n])
			done += int64(written)
			if writeErr != nil {
				return done, domain.NewTransferError("write", writeErr)
			}
			if written != n {
				return done, domain.NewTransferError("write", io.ErrShortWrite)
			}

			if allowed, _ := throttle.Allow(); allowed {
				report(done)
			}
		}

		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			e.logger.Debug("stream aborted",
				zap.Int64("bytes_done", done),
				zap.Int64("bytes_total", total),
				zap.Error(readErr))
			return done, domain.NewTransferError("read", readErr)
		}
	}

	report(done)

	e.logger.Debug("stream finished",
		zap.Int64("bytes", done),
		zap.Duration("elapsed", e.now().Sub(start)))

	return done, nil
}
