package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// State is what the store keeps across restarts
type State struct {
	Sessions  []Session `json:"sessions"`
	CurrentID string    `json:"currentId,omitempty"`
}

// Storage persists client state locally
type Storage interface {
	Load() (State, error)
	Save(State) error
}

// FileStorage keeps state in a JSON file. Writes go to a temporary file that
// is renamed over the target, so a crash never leaves a torn file.
type FileStorage struct {
	Path string
}

// NewFileStorage creates file storage at path
func NewFileStorage(path string) *FileStorage {
	return &FileStorage{Path: path}
}

// DefaultStatePath returns the state file under the user's config directory
func DefaultStatePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "careerforge", "sessions.json"), nil
}

func (f *FileStorage) Load() (State, error) {
	raw, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return State{}, nil
	}
	if err != nil {
		return State{}, fmt.Errorf("failed to read %s: %w", f.Path, err)
	}
	var st State
	if err := json.Unmarshal(raw, &st); err != nil {
		return State{}, fmt.Errorf("failed to decode %s: %w", f.Path, err)
	}
	return st, nil
}

func (f *FileStorage) Save(st State) error {
	raw, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".sessions-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.Path)
}

// MemoryStorage keeps state in memory
type MemoryStorage struct {
	mu    sync.Mutex
	state State
	saves int
}

func (m *MemoryStorage) Load() (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneState(m.state), nil
}

func (m *MemoryStorage) Save(st State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = cloneState(st)
	m.saves++
	return nil
}

// Saves reports how many times state was saved
func (m *MemoryStorage) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func cloneState(st State) State {
	out := State{CurrentID: st.CurrentID, Sessions: make([]Session, len(st.Sessions))}
	for i, s := range st.Sessions {
		out.Sessions[i] = s.clone()
	}
	return out
}
