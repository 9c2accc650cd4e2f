package port

import (
	"context"

	"github.com/vertextoedge/terabox-relay/internal/domain"
)

// LinkResolver turns a share link into file metadata and a direct link.
// Failures are reported inside the result, never as a Go error.
type LinkResolver interface {
	Resolve(ctx context.Context, shareURL string) *domain.ResolveResult
}

// Shortener shortens a long URL
type Shortener interface {
	Shorten(ctx context.Context, longURL string) (string, error)
}
