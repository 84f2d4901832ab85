package fs

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"fo-go/internal/fo"
)

// OSFilesystemManager is the real filesystem implementation of FilesystemManager.
// It performs actual filesystem operations using the os package.
type OSFilesystemManager struct {
	dirPerm fs.FileMode
}

// NewOSFilesystemManager creates a new filesystem manager that operates on the real filesystem.
func NewOSFilesystemManager() *OSFilesystemManager {
	return &OSFilesystemManager{dirPerm: 0755}
}

// Resolve validates a raw path and returns a Path object.
func (m *OSFilesystemManager) Resolve(rawPath string) (*fo.Path, error) {
	// Convert to absolute path
	absPath, err := filepath.Abs(rawPath)
	if err != nil {
		return nil, fmt.Errorf("resolving absolute path: %w", err)
	}

	// Stat the path
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat path: %w", err)
	}

	// Check for special file types we don't support
	mode := info.Mode()
	if mode&os.ModeDevice != 0 {
		return nil, fmt.Errorf("device files not supported: %s", absPath)
	}
	if mode&os.ModeNamedPipe != 0 {
		return nil, fmt.Errorf("named pipes not supported: %s", absPath)
	}
	if mode&os.ModeSocket != 0 {
		return nil, fmt.Errorf("sockets not supported: %s", absPath)
	}

	return fo.NewPath(absPath, info.IsDir()), nil
}

// Exists reports whether anything occupies path, without following a final symlink.
func (m *OSFilesystemManager) Exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat %s: %w", path, err)
}

// ReadDir lists a directory sorted by name.
func (m *OSFilesystemManager) ReadDir(dir string) ([]fs.DirEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory: %w", err)
	}
	return entries, nil
}

func (m *OSFilesystemManager) MkdirAll(dir string) error {
	if err := os.MkdirAll(dir, m.dirPerm); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	return nil
}

// CheckWritable creates and removes a probe file inside dir.
func (m *OSFilesystemManager) CheckWritable(dir string) error {
	f, err := os.CreateTemp(dir, ".fo-write-check-*")
	if err != nil {
		return fmt.Errorf("directory not writable: %w", err)
	}
	name := f.Name()
	f.Close()
	if err := os.Remove(name); err != nil {
		return fmt.Errorf("removing write probe: %w", err)
	}
	return nil
}

// Move relocates src to dst and never replaces an existing dst.
//
// A hard link followed by unlinking src is atomic with respect to dst. Where
// links are not supported the destination is checked and the file renamed,
// and across devices the content is copied exclusively, verified and only then
// removed from src.
func (m *OSFilesystemManager) Move(src, dst string) error {
	err := os.Link(src, dst)
	if err == nil {
		if err := os.Remove(src); err != nil {
			os.Remove(dst)
			return fmt.Errorf("removing source after link: %w", err)
		}
		return nil
	}
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("%s: %w", dst, fo.ErrDestinationExists)
	}
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("moving %s: %w", src, err)
	}

	exists, err := m.Exists(dst)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%s: %w", dst, fo.ErrDestinationExists)
	}

	err = os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return fmt.Errorf("renaming %s: %w", src, err)
	}
	return copyAndRemove(src, dst)
}

// copyAndRemove moves a file across filesystems.
func copyAndRemove(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening source: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%s: %w", dst, fo.ErrDestinationExists)
		}
		return fmt.Errorf("creating destination: %w", err)
	}

	n, err := io.Copy(out, in)
	if err == nil {
		err = out.Sync()
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err == nil && n != info.Size() {
		err = fmt.Errorf("copied %d of %d bytes", n, info.Size())
	}
	if err != nil {
		os.Remove(dst)
		return fmt.Errorf("copying to destination: %w", err)
	}

	os.Chtimes(dst, info.ModTime(), info.ModTime())

	if err := os.Remove(src); err != nil {
		os.Remove(dst)
		return fmt.Errorf("removing source after copy: %w", err)
	}
	return nil
}

// PruneEmptyParents removes dir and then each ancestor while it is empty,
// stopping below stop: stop itself and anything above it are never removed,
// and a dir outside stop is left alone. A missing directory counts as
// already pruned.
func (m *OSFilesystemManager) PruneEmptyParents(dir, stop string) error {
	dir, stop = filepath.Clean(dir), filepath.Clean(stop)
	for within(dir, stop) {
		entries, err := os.ReadDir(dir)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return fmt.Errorf("reading %s: %w", dir, err)
		case len(entries) > 0:
			return nil
		default:
			if err := os.Remove(dir); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("removing %s: %w", dir, err)
			}
		}
		dir = filepath.Dir(dir)
	}
	return nil
}

// within reports whether dir is strictly below stop.
func within(dir, stop string) bool {
	rel, err := filepath.Rel(stop, dir)
	if err != nil || rel == "." {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Compile-time check that OSFilesystemManager implements fo.FilesystemManager interface
var _ fo.FilesystemManager = (*OSFilesystemManager)(nil)
