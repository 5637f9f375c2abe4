package filesystem

import (
	"io/fs"
)

// FileInfo is an alias for fs.FileInfo.
type FileInfo = fs.FileInfo

// SkipDir may be returned from a Walk callback to skip a directory's contents.
var SkipDir = fs.SkipDir

// File is one entry visited by Directory.Walk.
type File interface {
	// Path returns the absolute path to the file
	Path() string

	// RelativePath returns the path relative to the walked directory
	RelativePath() string

	Info() FileInfo
}

// Directory is a folder that can be traversed.
type Directory interface {
	Path() string

	// Walk visits the directory itself and everything below it in lexical
	// order. Returning SkipDir for a directory skips its contents; any other
	// error stops the walk and is returned.
	Walk(fn func(File, error) error) error
}

// FileSystemProvider is the filesystem seen by the scanner and the workers.
// Implementations must be safe for concurrent use.
type FileSystemProvider interface {
	Open(path string) (Directory, error)

	ReadFile(path string) ([]byte, error)

	Stat(path string) (FileInfo, error)

	// Remove deletes a single file.
	Remove(path string) error
}
