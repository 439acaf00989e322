package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(name), 0o644))
	}
}

func TestListDirectoryImages(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "frame-10.png", "frame-2.jpg", "frame-1.bmp", "cat.webp", "notes.txt", "README")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.png"), 0o755))

	files, err := ListDirectoryImages(dir)
	require.NoError(t, err)

	var names []string
	for _, f := range files {
		names = append(names, f.Name)
		assert.Nil(t, f.Data)
	}
	assert.Equal(t, []string{"cat.webp", "frame-1.bmp", "frame-2.jpg", "frame-10.png"}, names)
	assert.Equal(t, -1, files[0].Frame)
	assert.Equal(t, 10, files[3].Frame)
}

func TestLoadDirectoryImages(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "frame-2.png", "frame-1.png")

	files, err := LoadDirectoryImageFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "frame-1.png", string(files[0].Data))
	assert.Equal(t, filepath.Join(dir, "frame-2.png"), files[1].Path)

	names, err := ImageNames(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"frame-1.png", "frame-2.png"}, names)
}

func TestListMissingDirectory(t *testing.T) {
	_, err := ListDirectoryImages(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
