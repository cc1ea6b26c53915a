package artifact

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	loc, err := s.Put(ctx, "run-1", "/widgets_llm.json", []byte(`{"a":1}`))
	require.NoError(t, err)
	assert.Equal(t, "memory://run-1/widgets_llm.json", loc)
	_, err = s.Put(ctx, "run-1", "guide.txt", []byte("steps"))
	require.NoError(t, err)
	_, err = s.Put(ctx, "run-2", "other.json", nil)
	require.NoError(t, err)

	got, err := s.Get(ctx, "run-1", "widgets_llm.json")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(got))

	_, err = s.Get(ctx, "run-1", "missing.json")
	assert.ErrorIs(t, err, ErrNotFound)

	paths, err := s.List(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"guide.txt", "widgets_llm.json"}, paths)
}

func TestKeyValidation(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	for _, c := range []struct{ run, path string }{
		{"", "a.json"},
		{"run", ""},
		{"../run", "a.json"},
		{"run", "../../etc/passwd"},
	} {
		_, err := s.Put(ctx, c.run, c.path, []byte("x"))
		assert.Error(t, err, "%q %q", c.run, c.path)
	}
}

func TestFileStorePerRun(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s := NewFileStore(root)

	loc, err := s.Put(ctx, "run-1", "out/widgets_llm.xml", []byte("<artifact/>"))
	require.NoError(t, err)
	assert.Equal(t, "widgets_llm.xml", filepath.Base(loc))
	raw, err := os.ReadFile(filepath.Join(root, "run-1", "out", "widgets_llm.xml"))
	require.NoError(t, err)
	assert.Equal(t, "<artifact/>", string(raw))

	got, err := s.Get(ctx, "run-1", "out/widgets_llm.xml")
	require.NoError(t, err)
	assert.Equal(t, "<artifact/>", string(got))

	_, err = s.Get(ctx, "run-1", "nope.xml")
	assert.ErrorIs(t, err, ErrNotFound)

	paths, err := s.List(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"out/widgets_llm.xml"}, paths)

	paths, err = s.List(ctx, "run-9")
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestFlatFileStore(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s := NewFlatFileStore(root)

	_, err := s.Put(ctx, "run-1", "widgets_python_llm.json", []byte("{}"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(root, "widgets_python_llm.json"))
	require.NoError(t, err)

	paths, err := s.List(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"widgets_python_llm.json"}, paths)
}

func TestS3ConfigValidation(t *testing.T) {
	_, err := NewS3Store(S3Config{})
	assert.ErrorContains(t, err, "endpoint")
	_, err = NewS3Store(S3Config{Endpoint: "localhost:9000"})
	assert.ErrorContains(t, err, "access key")
	_, err = NewS3Store(S3Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b"})
	assert.ErrorContains(t, err, "bucket")

	s, err := NewS3Store(S3Config{Endpoint: "http://localhost:9000", AccessKey: "a", SecretKey: "b", Bucket: "artifacts"})
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", s.region)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/json", contentType("a/b.json"))
	assert.Equal(t, "application/xml", contentType("b.xml"))
	assert.Equal(t, "application/yaml", contentType("b.yml"))
	assert.Equal(t, "application/octet-stream", contentType("b.bin"))
}

func TestPostgresStoreRequiresDB(t *testing.T) {
	_, err := OpenPostgresStore("  ")
	assert.Error(t, err)

	s := NewPostgresStore(nil)
	_, err = s.Put(context.Background(), "run", "a.json", []byte("{}"))
	assert.ErrorContains(t, err, "db is nil")
	assert.NoError(t, s.Close())
}
