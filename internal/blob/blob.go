package blob

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Store persists image files under a root directory, one subdirectory per
// patient. Filenames are generated upstream and unique, so writes never
// contend on the same path.
type Store struct {
	root string
}

// NewStore creates a blob store rooted at dir. The directory is created on
// first write, not here.
func NewStore(dir string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("blob store root must be set")
	}
	return &Store{root: dir}, nil
}

// Root returns the directory backing the store.
func (s *Store) Root() string {
	return s.root
}

// Write stores data under patientKey/filename, creating the patient directory
// on demand. The write goes through a temp file and rename so a concurrent
// reader never sees a partial image.
func (s *Store) Write(patientKey, filename string, data []byte) (string, error) {
	dir := filepath.Join(s.root, patientKey)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create patient directory: %w", err)
	}
	path := filepath.Join(dir, filename)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("finalize image: %w", err)
	}
	return path, nil
}

// Read returns the stored bytes for patientKey/filename.
func (s *Store) Read(patientKey, filename string) ([]byte, error) {
	return os.ReadFile(filepath.Join(s.root, patientKey, filename))
}

// Exists reports whether patientKey/filename is present.
func (s *Store) Exists(patientKey, filename string) bool {
	info, err := os.Stat(filepath.Join(s.root, patientKey, filename))
	return err == nil && !info.IsDir()
}

// Path returns the absolute path for patientKey/filename without checking
// existence.
func (s *Store) Path(patientKey, filename string) string {
	return filepath.Join(s.root, patientKey, filename)
}

// DeleteTree removes the entire image tree and recreates the empty root.
func (s *Store) DeleteTree() error {
	if err := os.RemoveAll(s.root); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove image tree: %w", err)
	}
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("recreate image root: %w", err)
	}
	return nil
}
