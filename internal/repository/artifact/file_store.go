package artifact

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github2file/internal/safeio"
)

// FileStore writes artifacts under a local root. By default each run gets its
// own directory; a flat store writes paths directly under the root, which is
// what the CLI uses for its single output file.
type FileStore struct {
	root string
	flat bool
}

func NewFileStore(root string) *FileStore {
	return &FileStore{root: root}
}

func NewFlatFileStore(root string) *FileStore {
	return &FileStore{root: root, flat: true}
}

func (s *FileStore) fs() (*safeio.SafeFS, error) {
	if s == nil || s.root == "" {
		return nil, fmt.Errorf("file store root is required")
	}
	return safeio.EnsureSafeFS(s.root)
}

func (s *FileStore) rel(runID, path string) (string, error) {
	runID, path, err := normalizeKey(runID, path)
	if err != nil {
		return "", err
	}
	if s.flat {
		return filepath.FromSlash(path), nil
	}
	return filepath.Join(runID, filepath.FromSlash(path)), nil
}

func (s *FileStore) Put(_ context.Context, runID, path string, content []byte) (string, error) {
	sfs, err := s.fs()
	if err != nil {
		return "", err
	}
	rel, err := s.rel(runID, path)
	if err != nil {
		return "", err
	}
	return sfs.WriteFile(rel, content)
}

func (s *FileStore) Get(_ context.Context, runID, path string) ([]byte, error) {
	sfs, err := s.fs()
	if err != nil {
		return nil, err
	}
	rel, err := s.rel(runID, path)
	if err != nil {
		return nil, err
	}
	data, err := sfs.ReadFile(rel)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

// List returns the run's paths. A flat store has no run directories, so it
// lists everything under the root.
func (s *FileStore) List(_ context.Context, runID string) ([]string, error) {
	sfs, err := s.fs()
	if err != nil {
		return nil, err
	}
	dir := "."
	if !s.flat {
		if runID, _, err = normalizeKey(runID, "x"); err != nil {
			return nil, err
		}
		dir = runID
	}
	paths := make([]string, 0, 8)
	walkErr := fs.WalkDir(sfs, dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel := p
		if dir != "." {
			rel = p[len(dir)+1:]
		}
		paths = append(paths, rel)
		return nil
	})
	if walkErr != nil {
		if errors.Is(walkErr, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, walkErr
	}
	sort.Strings(paths)
	return paths, nil
}
