package delivery

import (
	"github.com/vertextoedge/terabox-relay/internal/port"
)

// DefaultReserveBytes is the free space kept back on top of each file
const DefaultReserveBytes = 500 * 1024 * 1024

// SpaceManager checks the temp directory's disk has room for a transfer
type SpaceManager struct {
	fs           port.FileSystem
	reserveBytes int64
}

// NewSpaceManager creates a new SpaceManager
func NewSpaceManager(fs port.FileSystem, reserveBytes int64) *SpaceManager {
	if reserveBytes < 0 {
		reserveBytes = 0
	}
	return &SpaceManager{
		fs:           fs,
		reserveBytes: reserveBytes,
	}
}

// CheckSpace checks if free disk covers fileSize plus the reserve.
// An unknown size (0) only needs the reserve.
func (sm *SpaceManager) CheckSpace(fileSize int64) (*port.SpaceCheckResult, error) {
	if fileSize < 0 {
		fileSize = 0
	}
	result := &port.SpaceCheckResult{
		RequiredBytes: fileSize + sm.reserveBytes,
		ReserveBytes:  sm.reserveBytes,
	}

	usage, err := sm.fs.GetDiskUsage()
	if err != nil {
		return nil, err
	}
	result.AvailableBytes = int64(usage.Free)
	result.DiskUsedPct = usage.UsedPct

	result.HasSpace = result.AvailableBytes >= result.RequiredBytes
	return result, nil
}

// HasSpace returns true if there's enough space for the given file size
func (sm *SpaceManager) HasSpace(fileSize int64) (bool, error) {
	result, err := sm.CheckSpace(fileSize)
	if err != nil {
		return false, err
	}
	return result.HasSpace, nil
}

// Ensure SpaceManager implements port.SpaceManager
var _ port.SpaceManager = (*SpaceManager)(nil)
