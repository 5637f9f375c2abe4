package scanner

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vvka-141/jsonload/internal/files/filesystem"
	"github.com/vvka-141/jsonload/pkg/jsonload"
)

// Options controls which files are listed.
type Options struct {
	// Recursive includes files in subdirectories.
	Recursive bool
	// Limit stops listing after this many files. Zero means no limit.
	Limit int
}

// Scanner discovers input documents. Safe for concurrent use when the
// filesystem provider is.
type Scanner struct {
	fsProvider filesystem.FileSystemProvider
}

// NewScanner creates a scanner over the OS filesystem.
func NewScanner() *Scanner {
	return &Scanner{fsProvider: filesystem.NewOSFileSystem()}
}

// NewScannerWithFS creates a scanner over a custom provider.
// Panics if fsProvider is nil.
func NewScannerWithFS(fsProvider filesystem.FileSystemProvider) *Scanner {
	if fsProvider == nil {
		panic("fsProvider cannot be nil")
	}
	return &Scanner{fsProvider: fsProvider}
}

// ListJSON returns the paths of files ending in .json (any case) under
// folder, sorted by path. Directories named *.json are ignored.
func (s *Scanner) ListJSON(folder string, opts Options) ([]string, error) {
	dir, err := s.fsProvider.Open(folder)
	if err != nil {
		return nil, fmt.Errorf("failed to open directory: %w", err)
	}

	var paths []string
	err = dir.Walk(func(file filesystem.File, err error) error {
		if err != nil {
			return fmt.Errorf("error walking path: %w", err)
		}
		if file.Info().IsDir() {
			if file.RelativePath() != "." && !opts.Recursive {
				return filesystem.SkipDir
			}
			return nil
		}
		if !IsJSONFile(file.Info().Name()) {
			return nil
		}
		paths = append(paths, file.Path())
		if opts.Limit > 0 && len(paths) >= opts.Limit {
			return errLimitReached
		}
		return nil
	})
	if err != nil && !errors.Is(err, errLimitReached) {
		return nil, err
	}
	return paths, nil
}

// IsJSONFile reports whether name carries the .json extension.
func IsJSONFile(name string) bool {
	return strings.EqualFold(filepath.Ext(name), jsonload.JSONExtension)
}

var errLimitReached = errors.New("limit reached")
