// Package state persists the two sidecar files yabaictl keeps between
// invocations: the last canonical snapshot and the recent-label cursor.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"

	"github.com/Gaurav-Gosain/yabaictl/internal/config"
	"github.com/Gaurav-Gosain/yabaictl/internal/yabai"
)

// ErrSidecarMissing reports that a sidecar file has not been written yet.
var ErrSidecarMissing = errors.New("sidecar state not found")

// Cursor is the recent-workspace cursor: the label index that was focused
// before the most recent focus-space command.
type Cursor struct {
	Recent int `json:"recent"`
}

// Store reads and writes the sidecar files under a single cache directory.
type Store struct {
	dir string
}

// NewStore returns a store rooted at ~/.cache.
func NewStore() (*Store, error) {
	home := xdg.Home
	if home == "" {
		return nil, errors.New("cannot determine the home directory")
	}
	return &Store{dir: filepath.Join(home, config.CacheDirName)}, nil
}

// NewStoreAt returns a store rooted at the given directory. Tests use this
// to keep sidecar files out of the real cache.
func NewStoreAt(dir string) *Store {
	return &Store{dir: dir}
}

// SnapshotPath returns the path of the snapshot sidecar file.
func (s *Store) SnapshotPath() string {
	return filepath.Join(s.dir, config.SnapshotFileName)
}

// CursorPath returns the path of the cursor sidecar file.
func (s *Store) CursorPath() string {
	return filepath.Join(s.dir, config.CursorFileName)
}

// LoadSnapshot reads the persisted snapshot. Returns ErrSidecarMissing on
// first run.
func (s *Store) LoadSnapshot() (*yabai.Snapshot, error) {
	var snap yabai.Snapshot
	if err := s.load(s.SnapshotPath(), &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// SaveSnapshot overwrites the persisted snapshot.
func (s *Store) SaveSnapshot(snap *yabai.Snapshot) error {
	return s.save(s.SnapshotPath(), snap)
}

// LoadCursor reads the recent-label cursor. Returns ErrSidecarMissing if
// no focus-space command has run yet.
func (s *Store) LoadCursor() (Cursor, error) {
	var cur Cursor
	if err := s.load(s.CursorPath(), &cur); err != nil {
		return Cursor{}, err
	}
	return cur, nil
}

// SaveCursor overwrites the recent-label cursor.
func (s *Store) SaveCursor(cur Cursor) error {
	return s.save(s.CursorPath(), cur)
}

func (s *Store) load(path string, out any) error {
	data, err := os.ReadFile(path) // #nosec G304 - paths are fixed names under the user's cache dir
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrSidecarMissing, path)
		}
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// save writes through a temp file in the same directory and renames it
// over the target, so a crash never leaves a half-written sidecar.
func (s *Store) save(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := os.MkdirAll(s.dir, 0750); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	tmp, err := os.CreateTemp(s.dir, filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp sidecar: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()           //nolint:errcheck
		os.Remove(tmp.Name()) //nolint:errcheck
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name()) //nolint:errcheck
		return fmt.Errorf("failed to close temp sidecar: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name()) //nolint:errcheck
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
