package port

// SpaceCheckResult contains detailed space availability information
type SpaceCheckResult struct {
	HasSpace       bool
	AvailableBytes int64
	RequiredBytes  int64
	ReserveBytes   int64
	DiskUsedPct    float64
}

// SpaceManager defines the interface for space management operations
type SpaceManager interface {
	// CheckSpace checks if there's enough space for a file of the given size
	// and returns detailed information about space availability
	CheckSpace(fileSize int64) (*SpaceCheckResult, error)

	// HasSpace returns true if there's enough space for the given file size
	HasSpace(fileSize int64) (bool, error)
}
