package filesystem

import (
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

type memoryFileInfo struct {
	name    string
	size    int64
	mode    fs.FileMode
	modTime time.Time
}

func (f *memoryFileInfo) Name() string       { return f.name }
func (f *memoryFileInfo) Size() int64        { return f.size }
func (f *memoryFileInfo) Mode() fs.FileMode  { return f.mode }
func (f *memoryFileInfo) ModTime() time.Time { return f.modTime }
func (f *memoryFileInfo) IsDir() bool        { return f.mode.IsDir() }
func (f *memoryFileInfo) Sys() interface{}   { return nil }

type memoryEntry struct {
	absPath string
	content []byte
	info    *memoryFileInfo
}

type memoryFile struct {
	entry   *memoryEntry
	relPath string
}

func (f *memoryFile) Path() string         { return f.entry.absPath }
func (f *memoryFile) RelativePath() string { return f.relPath }
func (f *memoryFile) Info() FileInfo       { return f.entry.info }

type memoryDirectory struct {
	absPath string
	fs      *MemoryFileSystem
}

func (d *memoryDirectory) Path() string { return d.absPath }

func (d *memoryDirectory) Walk(fn func(File, error) error) error {
	entries := d.fs.entriesUnder(d.absPath)

	var skipped []string
	for _, e := range entries {
		if underAny(e.absPath, skipped) {
			continue
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(e.absPath, d.absPath), "/")
		if rel == "" {
			rel = "."
		}
		err := fn(&memoryFile{entry: e, relPath: rel}, nil)
		if err == SkipDir && e.info.IsDir() {
			skipped = append(skipped, e.absPath)
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func underAny(p string, dirs []string) bool {
	for _, d := range dirs {
		if strings.HasPrefix(p, d+"/") {
			return true
		}
	}
	return false
}

// MemoryFileSystem is an in-memory FileSystemProvider for tests.
// Paths use forward slashes; relative paths resolve against the root.
type MemoryFileSystem struct {
	mu          sync.RWMutex
	root        string
	entries     map[string]*memoryEntry
	readErrors  map[string]error
	removeError map[string]error
}

// NewMemoryFileSystem creates an empty filesystem whose root directory exists.
func NewMemoryFileSystem(root string) *MemoryFileSystem {
	root = path.Clean(filepath.ToSlash(root))
	m := &MemoryFileSystem{
		root:        root,
		entries:     make(map[string]*memoryEntry),
		readErrors:  make(map[string]error),
		removeError: make(map[string]error),
	}
	m.addDir(root)
	return m
}

// Root returns the root directory.
func (m *MemoryFileSystem) Root() string { return m.root }

// AddFile adds or replaces a file, creating parent directories.
func (m *MemoryFileSystem) AddFile(filePath string, content string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	abs := m.resolve(filePath)
	data := []byte(content)
	m.entries[abs] = &memoryEntry{
		absPath: abs,
		content: data,
		info: &memoryFileInfo{
			name:    path.Base(abs),
			size:    int64(len(data)),
			mode:    0644,
			modTime: time.Now(),
		},
	}
	for dir := path.Dir(abs); dir != "/" && dir != "."; dir = path.Dir(dir) {
		if _, ok := m.entries[dir]; ok {
			break
		}
		m.addDir(dir)
	}
	return abs
}

// FailRead makes subsequent ReadFile calls for filePath return err.
func (m *MemoryFileSystem) FailRead(filePath string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readErrors[m.resolve(filePath)] = err
}

// FailRemove makes subsequent Remove calls for filePath return err.
func (m *MemoryFileSystem) FailRemove(filePath string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeError[m.resolve(filePath)] = err
}

// Exists reports whether a file or directory is present.
func (m *MemoryFileSystem) Exists(filePath string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.entries[m.resolve(filePath)]
	return ok
}

// Files returns the absolute paths of all regular files, sorted.
func (m *MemoryFileSystem) Files() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for p, e := range m.entries {
		if !e.info.IsDir() {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

func (m *MemoryFileSystem) addDir(dir string) {
	m.entries[dir] = &memoryEntry{
		absPath: dir,
		info: &memoryFileInfo{
			name:    path.Base(dir),
			mode:    0755 | fs.ModeDir,
			modTime: time.Now(),
		},
	}
}

func (m *MemoryFileSystem) resolve(p string) string {
	p = filepath.ToSlash(p)
	if p == "" || p == "." {
		return m.root
	}
	if !path.IsAbs(p) {
		p = path.Join(m.root, p)
	}
	return path.Clean(p)
}

func (m *MemoryFileSystem) entriesUnder(base string) []*memoryEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*memoryEntry
	for p, e := range m.entries {
		if p == base || base == "/" || strings.HasPrefix(p, base+"/") {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].absPath < out[j].absPath })
	return out
}

func (m *MemoryFileSystem) Open(dirPath string) (Directory, error) {
	abs := m.resolve(dirPath)

	m.mu.RLock()
	e, ok := m.entries[abs]
	m.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("directory not found: %s: %w", dirPath, fs.ErrNotExist)
	}
	if !e.info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", dirPath)
	}
	return &memoryDirectory{absPath: abs, fs: m}, nil
}

func (m *MemoryFileSystem) ReadFile(filePath string) ([]byte, error) {
	abs := m.resolve(filePath)

	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.readErrors[abs]; err != nil {
		return nil, err
	}
	e, ok := m.entries[abs]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: filePath, Err: fs.ErrNotExist}
	}
	if e.info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", filePath)
	}
	return append([]byte(nil), e.content...), nil
}

func (m *MemoryFileSystem) Stat(statPath string) (FileInfo, error) {
	abs := m.resolve(statPath)

	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[abs]
	if !ok {
		return nil, &fs.PathError{Op: "stat", Path: statPath, Err: fs.ErrNotExist}
	}
	return e.info, nil
}

func (m *MemoryFileSystem) Remove(filePath string) error {
	abs := m.resolve(filePath)

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.removeError[abs]; err != nil {
		return &fs.PathError{Op: "remove", Path: filePath, Err: err}
	}
	e, ok := m.entries[abs]
	if !ok {
		return &fs.PathError{Op: "remove", Path: filePath, Err: fs.ErrNotExist}
	}
	if e.info.IsDir() {
		for p := range m.entries {
			if strings.HasPrefix(p, abs+"/") {
				return &fs.PathError{Op: "remove", Path: filePath, Err: fmt.Errorf("directory not empty")}
			}
		}
	}
	delete(m.entries, abs)
	return nil
}

var _ FileSystemProvider = (*MemoryFileSystem)(nil)
