package port

import (
	"context"

	"github.com/vertextoedge/terabox-relay/internal/domain"
)

// UserStore persists chat users and their settings
type UserStore interface {
	// UpsertUser records a user, keeping the original first-seen time
	UpsertUser(ctx context.Context, user *domain.User) error

	// GetSettings returns the user's settings, or the defaults when none are stored
	GetSettings(ctx context.Context, userID int64) (domain.Settings, error)

	// ToggleSetting flips one boolean setting and returns the new settings
	ToggleSetting(ctx context.Context, userID int64, name string) (domain.Settings, error)

	// CountUsers returns the number of known users
	CountUsers(ctx context.Context) (int, error)

	// ListUserIDs returns every known user id
	ListUserIDs(ctx context.Context) ([]int64, error)

	// Ping checks the store is reachable
	Ping(ctx context.Context) error

	// Close releases the store
	Close() error
}
