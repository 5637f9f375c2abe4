package filesystem

import (
	"errors"
	"io/fs"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryFileSystem_Walk(t *testing.T) {
	mfs := NewMemoryFileSystem("/data/in")
	mfs.AddFile("b.json", `{}`)
	mfs.AddFile("a.json", `{}`)
	mfs.AddFile("nested/c.json", `{}`)

	dir, err := mfs.Open("/data/in")
	require.NoError(t, err)

	var rel []string
	err = dir.Walk(func(file File, err error) error {
		require.NoError(t, err)
		if !file.Info().IsDir() {
			rel = append(rel, file.RelativePath())
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.json", "b.json", "nested/c.json"}, rel)
}

func TestMemoryFileSystem_WalkSkipDir(t *testing.T) {
	mfs := NewMemoryFileSystem("/data/in")
	mfs.AddFile("a.json", `{}`)
	mfs.AddFile("nested/c.json", `{}`)
	mfs.AddFile("nested/deeper/d.json", `{}`)

	dir, err := mfs.Open(".")
	require.NoError(t, err)

	var seen []string
	err = dir.Walk(func(file File, err error) error {
		if file.Info().IsDir() && file.RelativePath() != "." {
			return SkipDir
		}
		if !file.Info().IsDir() {
			seen = append(seen, file.Path())
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"/data/in/a.json"}, seen)
}

func TestMemoryFileSystem_ReadStatRemove(t *testing.T) {
	mfs := NewMemoryFileSystem("/data/in")
	abs := mfs.AddFile("x.json", `{"adresNo":1}`)
	assert.Equal(t, "/data/in/x.json", abs)

	content, err := mfs.ReadFile(abs)
	require.NoError(t, err)
	assert.Equal(t, `{"adresNo":1}`, string(content))

	info, err := mfs.Stat("x.json")
	require.NoError(t, err)
	assert.Equal(t, "x.json", info.Name())
	assert.Equal(t, int64(13), info.Size())

	require.NoError(t, mfs.Remove(abs))
	assert.False(t, mfs.Exists(abs))

	_, err = mfs.ReadFile(abs)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.ErrorIs(t, mfs.Remove(abs), fs.ErrNotExist)
}

func TestMemoryFileSystem_FaultInjection(t *testing.T) {
	mfs := NewMemoryFileSystem("/in")
	mfs.AddFile("locked.json", `{}`)
	denied := errors.New("permission denied")

	mfs.FailRead("locked.json", denied)
	_, err := mfs.ReadFile("/in/locked.json")
	assert.ErrorIs(t, err, denied)

	mfs.FailRemove("locked.json", denied)
	err = mfs.Remove("/in/locked.json")
	assert.ErrorIs(t, err, denied)
	assert.True(t, mfs.Exists("locked.json"))
}

func TestMemoryFileSystem_RemoveNonEmptyDirectory(t *testing.T) {
	mfs := NewMemoryFileSystem("/in")
	mfs.AddFile("sub/c.json", "")
	assert.Error(t, mfs.Remove("sub"))
}

func TestMemoryFileSystem_ConcurrentReadRemove(t *testing.T) {
	mfs := NewMemoryFileSystem("/in")
	var paths []string
	for i := 0; i < 50; i++ {
		paths = append(paths, mfs.AddFile(string(rune('a'+i%26))+string(rune('a'+i/26))+".json", "{}"))
	}

	var wg sync.WaitGroup
	for _, p := range paths {
		wg.Add(1)
		go func(p string) {
			defer wg.Done()
			_, _ = mfs.ReadFile(p)
			_ = mfs.Remove(p)
		}(p)
	}
	wg.Wait()

	assert.Empty(t, mfs.Files())
}
