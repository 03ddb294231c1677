package state

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileSystem defines minimum operations required for storage.
type FileSystem interface {
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm os.FileMode) error
	MkdirAll(path string, perm os.FileMode) error
}

// OSFS is FileSystem on the local disk.
type OSFS struct{}

func (OSFS) ReadFile(name string) ([]byte, error) { return os.ReadFile(name) }
func (OSFS) WriteFile(name string, data []byte, perm os.FileMode) error {
	return os.WriteFile(name, data, perm)
}
func (OSFS) MkdirAll(path string, perm os.FileMode) error { return os.MkdirAll(path, perm) }

// Manager manages reading/writing the history file.
// It uses a Mutex for thread-safety.
type Manager struct {
	FilePath string
	Current  *State
	FS       FileSystem
	mu       sync.RWMutex
}

// NewManager creates a manager and loads the existing file if there is one.
func NewManager(path string, fs FileSystem) (*Manager, error) {
	mgr := &Manager{
		FilePath: path,
		Current:  NewState(),
		FS:       fs,
	}

	if err := mgr.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	return mgr, nil
}

// Load reads the history file.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := m.FS.ReadFile(m.FilePath)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, m.Current)
}

// Save writes the current state, creating the directory if needed.
func (m *Manager) Save() error {
	m.mu.Lock()
	m.Current.LastRun = time.Now()
	data, err := json.MarshalIndent(m.Current, "", "  ")
	m.mu.Unlock()
	if err != nil {
		return err
	}

	dir := filepath.Dir(m.FilePath)
	if err := m.FS.MkdirAll(dir, 0755); err != nil {
		return err
	}

	return m.FS.WriteFile(m.FilePath, data, 0644)
}
