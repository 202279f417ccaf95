package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileImageArchive_Put(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "images")
	archive, err := NewFileImageArchive(dir)
	require.NoError(t, err)

	require.NoError(t, archive.Put(context.Background(), "a.jpg", []byte("jpeg")))

	data, err := os.ReadFile(filepath.Join(dir, "a.jpg"))
	require.NoError(t, err)
	require.Equal(t, []byte("jpeg"), data)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestFileImageArchive_RejectsPaths(t *testing.T) {
	archive, err := NewFileImageArchive(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"", "../x.jpg", "sub/x.jpg", ".hidden"} {
		require.Error(t, archive.Put(context.Background(), name, []byte("x")), name)
	}
}
