package filesystem

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/vertextoedge/terabox-relay/internal/port"
)

const maxNameLen = 120

var unsafeChars = regexp.MustCompile(`[^\p{L}\p{N}_.\- ]+`)

// Manager owns the temp directory files are streamed into before upload
type Manager struct {
	rootDir string
}

// Ensure Manager implements port.FileSystem
var _ port.FileSystem = (*Manager)(nil)

// NewManager creates a new filesystem manager
func NewManager(rootDir string) (*Manager, error) {
	// Ensure root directory exists
	if err := os.MkdirAll(rootDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}

	return &Manager{
		rootDir: rootDir,
	}, nil
}

// RootDir returns the temp directory
func (m *Manager) RootDir() string {
	return m.rootDir
}

// SanitizeFilename makes an upstream file name safe to use on disk
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = unsafeChars.ReplaceAllString(name, "_")
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." {
		name = "file.bin"
	}
	if len(name) > maxNameLen {
		ext := filepath.Ext(name)
		if len(ext) > 16 {
			ext = ""
		}
		cut := maxNameLen - len(ext)
		for cut > 0 && !utf8.RuneStart(name[cut]) {
			cut--
		}
		name = name[:cut] + ext
	}
	return name
}

// CreateTemp creates an empty file for name inside a private directory, so
// the file keeps its display name and concurrent transfers never collide.
func (m *Manager) CreateTemp(name string) (port.TempFile, error) {
	dir := filepath.Join(m.rootDir, uuid.NewString()[:8])
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create transfer dir: %w", err)
	}

	path := filepath.Join(dir, SanitizeFilename(name))
	f, err := os.Create(path)
	if err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}

	return &TempFile{f: f, path: path, dir: dir}, nil
}

// CleanOldTempFiles removes temp files older than the specified duration,
// then any directory left empty
func (m *Manager) CleanOldTempFiles(olderThan time.Duration) (int, error) {
	count := 0
	threshold := time.Now().Add(-olderThan)

	err := filepath.Walk(m.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !info.IsDir() && info.ModTime().Before(threshold) {
			if removeErr := os.Remove(path); removeErr == nil {
				count++
			}
		}
		return nil
	})
	if err != nil {
		return count, err
	}

	return count, m.CleanEmptyDirs()
}

// CleanEmptyDirs removes empty directories under root
func (m *Manager) CleanEmptyDirs() error {
	entries, err := os.ReadDir(m.rootDir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			os.Remove(filepath.Join(m.rootDir, e.Name())) // Will only succeed if empty
		}
	}
	return nil
}

// TempFile is a file created by CreateTemp
type TempFile struct {
	f    *os.File
	path string
	dir  string

	closeOnce  sync.Once
	closeErr   error
	removeOnce sync.Once
	removeErr  error
}

// Write implements io.Writer
func (t *TempFile) Write(p []byte) (int, error) {
	return t.f.Write(p)
}

// Path returns the file's location on disk
func (t *TempFile) Path() string {
	return t.path
}

// Close flushes and closes the file. Later calls return the first result.
func (t *TempFile) Close() error {
	t.closeOnce.Do(func() {
		t.closeErr = t.f.Close()
	})
	return t.closeErr
}

// Remove closes the file and deletes it with its directory.
// It is safe to call more than once.
func (t *TempFile) Remove() error {
	t.removeOnce.Do(func() {
		t.Close()
		if err := os.RemoveAll(t.dir); err != nil {
			t.removeErr = fmt.Errorf("failed to delete temp file: %w", err)
		}
	})
	return t.removeErr
}
