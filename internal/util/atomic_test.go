package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteTextAtomicCreatesDirsAndReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "abc.txt")
	require.NoError(t, WriteTextAtomic(path, "first"))
	require.NoError(t, WriteTextAtomic(path, "second"))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "second", string(b))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not be left behind")
}

func TestWriteJSONAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta.json")
	require.NoError(t, WriteJSONAtomic(path, map[string]string{"title": "Go"}))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.JSONEq(t, `{"title":"Go"}`, string(b))
}
