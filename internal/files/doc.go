// Package files provides file-related functionality organized into sub-packages.
//
//   - filesystem: Filesystem abstraction interfaces and implementations (OS and in-memory)
//   - scanner: Discovery of the .json input files in a folder
//
// # Usage
//
//	import (
//	    "github.com/vvka-141/jsonload/internal/files/filesystem"
//	    "github.com/vvka-141/jsonload/internal/files/scanner"
//	)
//
//	fs := filesystem.NewOSFileSystem()
//	paths, err := scanner.NewScannerWithFS(fs).ListJSON("./incoming", scanner.Options{})
//
// Tests use filesystem.NewMemoryFileSystem so that ingestion runs, including
// file deletion, never touch the disk.
package files
