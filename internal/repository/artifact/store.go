// Package artifact persists rendered run artifacts to a local directory, memory,
// S3-compatible object storage or Postgres.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Store defines operations for persisting run artifacts.
// Put returns a location string a user can follow to the stored object.
type Store interface {
	Put(ctx context.Context, runID, path string, content []byte) (string, error)
	Get(ctx context.Context, runID, path string) ([]byte, error)
	List(ctx context.Context, runID string) ([]string, error)
}

var ErrNotFound = errors.New("artifact not found")

func normalizeKey(runID, path string) (string, string, error) {
	runID = strings.TrimSpace(runID)
	path = strings.TrimLeft(strings.TrimSpace(path), "/")
	if runID == "" {
		return "", "", fmt.Errorf("run_id is required")
	}
	if path == "" {
		return "", "", fmt.Errorf("path is required")
	}
	if strings.Contains(runID, "/") || strings.Contains(runID, "..") {
		return "", "", fmt.Errorf("invalid run_id: %s", runID)
	}
	for _, part := range strings.Split(path, "/") {
		if part == ".." {
			return "", "", fmt.Errorf("invalid path: %s", path)
		}
	}
	return runID, path, nil
}

func objectKey(runID, path string) string {
	return runID + "/" + path
}
