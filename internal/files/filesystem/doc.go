// Package filesystem abstracts the file operations the loader needs: listing
// an input folder, reading documents and removing them once stored.
//
// Implementations:
//   - OSFileSystem: the real filesystem
//   - MemoryFileSystem: in-memory, safe for concurrent use, with fault
//     injection for tests
package filesystem
