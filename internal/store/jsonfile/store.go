// Package jsonfile provides a JSON file-based drive alias store.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/cofl/osd/internal/core/drive"
)

// DriveFile is the root JSON structure stored on disk.
type DriveFile struct {
	Drives []drive.Drive `json:"drives"`
}

// Store implements drive.Store using a JSON file for persistence.
type Store struct {
	path string
	mu   sync.RWMutex
}

var _ drive.Store = (*Store)(nil)

// New creates a new JSON file store at the given path.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

// List returns all drives sorted by name.
func (s *Store) List(ctx context.Context) ([]drive.Drive, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	file, err := s.load()
	if err != nil {
		return nil, err
	}

	slices.SortFunc(file.Drives, func(a, b drive.Drive) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return file.Drives, nil
}

// Get returns a drive by name. Returns ErrNotFound if not found.
func (s *Store) Get(ctx context.Context, name string) (drive.Drive, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	file, err := s.load()
	if err != nil {
		return drive.Drive{}, err
	}

	if i := file.index(name); i >= 0 {
		return file.Drives[i], nil
	}
	return drive.Drive{}, drive.ErrNotFound
}

// Save creates or updates a drive.
func (s *Store) Save(ctx context.Context, d drive.Drive) error {
	if err := drive.ValidateName(d.Name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.load()
	if err != nil {
		return err
	}

	if i := file.index(d.Name); i >= 0 {
		file.Drives[i] = d
	} else {
		file.Drives = append(file.Drives, d)
	}

	return s.save(file)
}

// Delete removes a drive by name. Returns ErrNotFound if not found.
func (s *Store) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.load()
	if err != nil {
		return err
	}

	i := file.index(name)
	if i < 0 {
		return drive.ErrNotFound
	}
	file.Drives = slices.Delete(file.Drives, i, i+1)
	return s.save(file)
}

// ResolveDrive returns the share path registered for name.
func (s *Store) ResolveDrive(name string) (string, error) {
	d, err := s.Get(context.Background(), name)
	if errors.Is(err, drive.ErrNotFound) {
		return "", fmt.Errorf("drive %q is not registered; add it with 'osd drive add'", name)
	}
	if err != nil {
		return "", err
	}
	return d.Path, nil
}

func (f DriveFile) index(name string) int {
	return slices.IndexFunc(f.Drives, func(d drive.Drive) bool {
		return strings.EqualFold(d.Name, name)
	})
}

// load reads the drive file from disk.
// Returns empty DriveFile if file doesn't exist.
func (s *Store) load() (DriveFile, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return DriveFile{}, nil
		}
		return DriveFile{}, fmt.Errorf("read drives file: %w", err)
	}

	if len(data) == 0 {
		return DriveFile{}, nil
	}

	var file DriveFile
	if err := json.Unmarshal(data, &file); err != nil {
		return DriveFile{}, fmt.Errorf("parse drives file: %w", err)
	}

	return file, nil
}

// save writes the drive file to disk atomically.
func (s *Store) save(file DriveFile) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create drives directory: %w", err)
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal drives: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
