package delivery

import (
	"errors"
	"testing"
	"time"

	"github.com/vertextoedge/terabox-relay/internal/domain"
	"github.com/vertextoedge/terabox-relay/internal/port"
)

// mockFileSystem implements port.FileSystem for testing
type mockFileSystem struct {
	diskUsage *port.DiskUsage
	err       error
}

func (m *mockFileSystem) GetDiskUsage() (*port.DiskUsage, error) {
	return m.diskUsage, m.err
}

// Stub implementations for other FileSystem methods
func (m *mockFileSystem) RootDir() string                                        { return "" }
func (m *mockFileSystem) CreateTemp(name string) (port.TempFile, error)          { return nil, nil }
func (m *mockFileSystem) CleanOldTempFiles(olderThan time.Duration) (int, error) { return 0, nil }

const gb = int64(1024 * 1024 * 1024)

func okResult(size int64) *domain.ResolveResult {
	return domain.ResolveSuccess("video.mp4", size, "https://d/src", "https://cdn/direct", "")
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name     string
		result   *domain.ResolveResult
		maxBytes int64
		want     Action
	}{
		{name: "too large", result: okResult(3_000_000_000), maxBytes: 2_000_000_000, want: RejectTooLarge},
		{name: "unknown size proceeds", result: okResult(0), maxBytes: 2_000_000_000, want: Proceed},
		{name: "unknown size proceeds with zero ceiling", result: okResult(0), maxBytes: 0, want: Proceed},
		{name: "exactly at ceiling", result: okResult(2_000_000_000), maxBytes: 2_000_000_000, want: Proceed},
		{name: "small file", result: okResult(10), maxBytes: 2_000_000_000, want: Proceed},
		{name: "failed resolution", result: domain.ResolveFailure(domain.ErrNoFilesFound), maxBytes: 1, want: Failed},
		{name: "nil result", result: nil, maxBytes: 1, want: Failed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Decide(tt.result, tt.maxBytes); got.Action != tt.want {
				t.Errorf("Decide().Action = %v, want %v", got.Action, tt.want)
			}
		})
	}
}

func TestDecide_TooLargeStillSurfacesLink(t *testing.T) {
	plan := Decide(okResult(3_000_000_000), 2_000_000_000)

	if plan.DirectLink != "https://cdn/direct" {
		t.Errorf("DirectLink = %q, want the resolved link", plan.DirectLink)
	}
	if plan.FileName != "video.mp4" || plan.FileSize != 3_000_000_000 {
		t.Errorf("Plan = %+v, want name and size carried over", plan)
	}
	if !plan.LinkOnly() {
		t.Error("LinkOnly() = false, want true")
	}
	if domain.KindOf(plan.Err) != domain.KindSizeExceeded {
		t.Errorf("Err kind = %v, want %v", domain.KindOf(plan.Err), domain.KindSizeExceeded)
	}
}

func TestSpaceManager_CheckSpace(t *testing.T) {
	tests := []struct {
		name         string
		reserve      int64
		free         uint64
		fileSize     int64
		wantHasSpace bool
	}{
		{name: "plenty of space", reserve: DefaultReserveBytes, free: uint64(10 * gb), fileSize: gb, wantHasSpace: true},
		{name: "file fits but reserve does not", reserve: DefaultReserveBytes, free: uint64(gb + 100), fileSize: gb, wantHasSpace: false},
		{name: "exactly file plus reserve", reserve: DefaultReserveBytes, free: uint64(gb + DefaultReserveBytes), fileSize: gb, wantHasSpace: true},
		{name: "unknown size needs only reserve", reserve: DefaultReserveBytes, free: uint64(DefaultReserveBytes), fileSize: 0, wantHasSpace: true},
		{name: "no reserve", reserve: 0, free: uint64(gb), fileSize: gb, wantHasSpace: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := &mockFileSystem{diskUsage: &port.DiskUsage{Total: uint64(100 * gb), Free: tt.free}}
			sm := NewSpaceManager(fs, tt.reserve)

			result, err := sm.CheckSpace(tt.fileSize)
			if err != nil {
				t.Fatalf("CheckSpace() error = %v", err)
			}
			if result.HasSpace != tt.wantHasSpace {
				t.Errorf("HasSpace = %v, want %v (result %+v)", result.HasSpace, tt.wantHasSpace, result)
			}
		})
	}
}

func TestSpaceManager_Error(t *testing.T) {
	sm := NewSpaceManager(&mockFileSystem{err: errors.New("statfs failed")}, 0)

	if _, err := sm.HasSpace(1); err == nil {
		t.Error("HasSpace() error = nil, want error")
	}
}

func TestGate_Decide(t *testing.T) {
	tests := []struct {
		name   string
		fs     *mockFileSystem
		result *domain.ResolveResult
		want   Action
	}{
		{
			name:   "enough space",
			fs:     &mockFileSystem{diskUsage: &port.DiskUsage{Free: uint64(10 * gb)}},
			result: okResult(gb),
			want:   Proceed,
		},
		{
			name:   "short on space",
			fs:     &mockFileSystem{diskUsage: &port.DiskUsage{Free: uint64(gb)}},
			result: okResult(gb),
			want:   RejectNoSpace,
		},
		{
			name:   "disk check error fails open",
			fs:     &mockFileSystem{err: errors.New("statfs failed")},
			result: okResult(gb),
			want:   Proceed,
		},
		{
			name:   "too large wins over space",
			fs:     &mockFileSystem{diskUsage: &port.DiskUsage{Free: 0}},
			result: okResult(3 * gb),
			want:   RejectTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gate := NewGate(2*gb, NewSpaceManager(tt.fs, DefaultReserveBytes), nil)
			plan := gate.Decide(tt.result)
			if plan.Action != tt.want {
				t.Errorf("Decide().Action = %v, want %v", plan.Action, tt.want)
			}
			if plan.Action == RejectNoSpace && plan.DirectLink == "" {
				t.Error("RejectNoSpace plan lost the direct link")
			}
		})
	}
}

func TestGate_NoSpaceManager(t *testing.T) {
	gate := NewGate(2*gb, nil, nil)
	if got := gate.Decide(okResult(gb)).Action; got != Proceed {
		t.Errorf("Decide().Action = %v, want %v", got, Proceed)
	}
}
