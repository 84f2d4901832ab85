package fo

import "io/fs"

// FilesystemManager provides the filesystem operations the organizer needs.
// It abstracts file access so tests can inject failures.
type FilesystemManager interface {
	// Resolve makes rawPath absolute, stats it, and rejects anything that is
	// not a regular file or directory.
	Resolve(rawPath string) (*Path, error)

	// Exists reports whether something occupies path. Only unexpected stat
	// failures are returned as errors.
	Exists(path string) (bool, error)

	// ReadDir lists a directory, sorted by name.
	ReadDir(dir string) ([]fs.DirEntry, error)

	// MkdirAll creates dir and any missing parents.
	MkdirAll(dir string) error

	// CheckWritable verifies that new entries can be created inside dir.
	CheckWritable(dir string) error

	// Move relocates src to dst without ever replacing an existing dst.
	// Returns an error wrapping ErrDestinationExists in that case.
	Move(src, dst string) error

	// PruneEmptyParents removes dir and then each parent in turn while it is
	// empty, never removing stop or anything outside it.
	PruneEmptyParents(dir, stop string) error
}
