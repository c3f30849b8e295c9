package filesystem

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSize(t *testing.T) {
	dir := t.TempDir()

	knownPath := filepath.Join(dir, "known.txt")
	require.NoError(t, os.WriteFile(knownPath, []byte("Hello World!"), 0644))

	size, err := FileSize(knownPath)
	require.NoError(t, err)
	assert.Equal(t, int64(len("Hello World!")), size)

	size, err = FileSize(filepath.Join(dir, "unknown.txt"))
	require.Error(t, err)
	assert.Equal(t, int64(0), size)
}

func TestListFiles(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub/sub"), 0755))
	for _, name := range []string{"fileA", "sub/fileB", "sub/sub/fileC"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(name), 0644))
	}

	paths, err := ListFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "fileA"),
		filepath.Join(dir, "sub/fileB"),
		filepath.Join(dir, "sub/sub/fileC"),
	}, paths)
}
