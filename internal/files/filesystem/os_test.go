package filesystem

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOSFileSystem_Open(t *testing.T) {
	dir := t.TempDir()
	provider := NewOSFileSystem()

	d, err := provider.Open(dir)
	require.NoError(t, err)
	absDir, _ := filepath.Abs(dir)
	assert.Equal(t, absDir, d.Path())

	_, err = provider.Open(filepath.Join(dir, "nonexistent"))
	assert.Error(t, err)

	filePath := filepath.Join(dir, "file.json")
	require.NoError(t, os.WriteFile(filePath, []byte("{}"), 0644))
	_, err = provider.Open(filePath)
	assert.Error(t, err, "Open(file) should fail")
}

func TestOSFileSystem_ReadAndRemove(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "1.json")
	require.NoError(t, os.WriteFile(filePath, []byte(`{"adresNo":1}`), 0644))

	provider := NewOSFileSystem()

	data, err := provider.ReadFile(filePath)
	require.NoError(t, err)
	assert.Equal(t, `{"adresNo":1}`, string(data))

	require.NoError(t, provider.Remove(filePath))
	_, err = provider.Stat(filePath)
	assert.ErrorIs(t, err, fs.ErrNotExist)

	assert.ErrorIs(t, provider.Remove(filePath), fs.ErrNotExist)
}

func TestOSFileSystem_WalkRelativePaths(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.json"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "b.json"), nil, 0644))

	provider := NewOSFileSystem()
	d, err := provider.Open(dir)
	require.NoError(t, err)

	var rel []string
	require.NoError(t, d.Walk(func(f File, err error) error {
		require.NoError(t, err)
		if !f.Info().IsDir() {
			rel = append(rel, f.RelativePath())
		}
		return nil
	}))
	assert.Equal(t, []string{"a.json", "sub/b.json"}, rel)
}
