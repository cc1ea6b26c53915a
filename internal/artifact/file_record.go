package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"path"
	"strings"
)

// FileRecord is one fetched, filtered file. Records are created by ingestion and
// treated as read-only by every later stage.
type FileRecord struct {
	Path     string `json:"path"` // repo-relative, slash-separated
	Content  []byte `json:"-"`
	Language string `json:"language,omitempty"`
	Size     int64  `json:"size"`
	Binary   bool   `json:"binary,omitempty"`
}

// NewFileRecord normalizes path and copies content so the caller's buffer can be reused.
func NewFileRecord(p string, content []byte, language string, binary bool) FileRecord {
	buf := make([]byte, len(content))
	copy(buf, content)
	return FileRecord{
		Path:     CleanPath(p),
		Content:  buf,
		Language: language,
		Size:     int64(len(buf)),
		Binary:   binary,
	}
}

// Digest returns the content hash recorded as a compression entry's source digest.
func (f FileRecord) Digest() string {
	sum := sha256.Sum256(f.Content)
	return "sha256:" + hex.EncodeToString(sum[:])
}

// Text returns the content as a string.
func (f FileRecord) Text() string { return string(f.Content) }

// CleanPath converts p to the canonical relative, slash-separated form.
func CleanPath(p string) string {
	p = strings.ReplaceAll(strings.TrimSpace(p), "\\", "/")
	p = path.Clean(p)
	p = strings.TrimPrefix(p, "/")
	for strings.HasPrefix(p, "./") {
		p = p[2:]
	}
	if p == "." {
		return ""
	}
	return p
}

// ValidPath reports whether p is usable as a FileRecord path.
func ValidPath(p string) bool {
	if p == "" || strings.HasPrefix(p, "/") || strings.Contains(p, "\\") {
		return false
	}
	for _, part := range strings.Split(p, "/") {
		if part == ".." || part == "." || part == "" {
			return false
		}
	}
	return true
}
