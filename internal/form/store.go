package form

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"
)

// Store persists resume snapshots as JSON on a filesystem.
type Store struct {
	fs   afero.Fs
	path string
}

// NewStore binds a store to path on fsys. A nil fsys means the OS filesystem.
func NewStore(fsys afero.Fs, path string) *Store {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &Store{fs: fsys, path: path}
}

// Path returns the snapshot location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the snapshot. A missing file yields an empty resume and exists=false.
func (s *Store) Load() (resume Resume, exists bool, err error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Resume{}, false, nil
		}
		return Resume{}, false, fmt.Errorf("read resume %q: %w", s.path, err)
	}
	if err := json.Unmarshal(data, &resume); err != nil {
		return Resume{}, true, fmt.Errorf("decode resume %q: %w", s.path, err)
	}
	return resume, true, nil
}

// Save writes the snapshot through a temp file and rename.
func (s *Store) Save(resume Resume) error {
	data, err := json.MarshalIndent(resume, "", "  ")
	if err != nil {
		return fmt.Errorf("encode resume: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := s.fs.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create resume dir %q: %w", dir, err)
	}

	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("write resume %q: %w", tmp, err)
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("replace resume %q: %w", s.path, err)
	}
	return nil
}
