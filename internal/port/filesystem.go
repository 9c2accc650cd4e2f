package port

import (
	"io"
	"time"
)

// DiskUsage represents disk usage statistics
type DiskUsage struct {
	Total   uint64  // Total disk space in bytes
	Used    uint64  // Used disk space in bytes
	Free    uint64  // Free disk space in bytes
	UsedPct float64 // Used percentage (0-100)
}

// TempFile is a scoped temporary file. Remove is safe to call more than once
// and on every exit path.
type TempFile interface {
	io.Writer
	Path() string
	Close() error
	Remove() error
}

// FileSystem defines the temp storage used while relaying files
type FileSystem interface {
	// RootDir returns the temp directory
	RootDir() string

	// CreateTemp creates a new temp file for the given display name
	CreateTemp(name string) (TempFile, error)

	// GetDiskUsage returns disk usage statistics
	GetDiskUsage() (*DiskUsage, error)

	// CleanOldTempFiles removes temp files older than the specified duration
	// Returns the number of files deleted
	CleanOldTempFiles(olderThan time.Duration) (int, error)
}
