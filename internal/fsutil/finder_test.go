package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindFiles(t *testing.T) {
	root := t.TempDir()
	for _, p := range []string{
		"b.json",
		"a.YAML",
		"notes.txt",
		"nested/c.json",
		".hidden/d.json",
		".e.json",
	} {
		full := filepath.Join(root, p)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte("{}"), 0o644))
	}

	files, err := FindFiles(root, ".json", ".yaml")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "a.YAML"),
		filepath.Join(root, "b.json"),
		filepath.Join(root, "nested", "c.json"),
	}, files)

	assert.Panics(t, func() { _, _ = FindFiles(root) })

	_, err = FindFiles(filepath.Join(root, "missing"), ".json")
	assert.ErrorIs(t, err, os.ErrNotExist)
}
