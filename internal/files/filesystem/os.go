package filesystem

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

type osFile struct {
	absPath string
	relPath string
	info    fs.FileInfo
}

func (f *osFile) Path() string         { return f.absPath }
func (f *osFile) RelativePath() string { return f.relPath }
func (f *osFile) Info() FileInfo       { return f.info }

type osDirectory struct {
	absPath string
}

func (d *osDirectory) Path() string { return d.absPath }

func (d *osDirectory) Walk(fn func(File, error) error) error {
	return filepath.WalkDir(d.absPath, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return fn(nil, walkErr)
		}
		info, err := entry.Info()
		if err != nil {
			return fn(nil, fmt.Errorf("stat %s: %w", path, err))
		}
		rel, err := filepath.Rel(d.absPath, path)
		if err != nil {
			return fn(nil, fmt.Errorf("failed to get relative path: %w", err))
		}
		return fn(&osFile{absPath: path, relPath: filepath.ToSlash(rel), info: info}, nil)
	})
}

// OSFileSystem implements FileSystemProvider for the OS filesystem.
type OSFileSystem struct{}

func NewOSFileSystem() *OSFileSystem {
	return &OSFileSystem{}
}

func (p *OSFileSystem) Open(path string) (Directory, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to access path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", path)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}
	return &osDirectory{absPath: absPath}, nil
}

func (p *OSFileSystem) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (p *OSFileSystem) Stat(path string) (FileInfo, error) {
	return os.Stat(path)
}

func (p *OSFileSystem) Remove(path string) error {
	return os.Remove(path)
}

var _ FileSystemProvider = (*OSFileSystem)(nil)
