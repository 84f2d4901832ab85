package vault

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"fo-go/internal/fo"
)

// FileSystemVault is a filesystem-based implementation of the Vault interface.
// It stores archives as files in a directory structure:
//
//	<root>/
//	  archives/
//	    <hostID>/
//	      <name>.archive
//	      <name>.version
type FileSystemVault struct {
	name       string
	root       string
	archiveDir string
}

// NewFileSystemVault creates a new filesystem vault rooted at the given path.
func NewFileSystemVault(name, root string) (*FileSystemVault, error) {
	archiveDir := filepath.Join(root, "archives")
	if err := os.MkdirAll(archiveDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	return &FileSystemVault{
		name:       name,
		root:       root,
		archiveDir: archiveDir,
	}, nil
}

func (v *FileSystemVault) archivePath(hostID, name, ext string) (string, error) {
	for _, part := range []string{hostID, name} {
		if part == "" || part == "." || part == ".." || strings.ContainsAny(part, `/\`) {
			return "", fmt.Errorf("invalid archive key component: %q", part)
		}
	}
	return filepath.Join(v.archiveDir, hostID, name+ext), nil
}

// PutArchive stores an archive for a specific host along with a version marker.
// The version file is written after the archive so a reader never sees a
// version whose archive is missing.
func (v *FileSystemVault) PutArchive(hostID string, name string, r io.Reader, size int64, version int64) error {
	destPath, err := v.archivePath(hostID, name, ".archive")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("failed to create host directory: %w", err)
	}
	if err := v.writeFile(destPath, r, size); err != nil {
		return err
	}

	versionPath, _ := v.archivePath(hostID, name, ".version")
	versionData := strconv.FormatInt(version, 10)
	return v.writeFile(versionPath, strings.NewReader(versionData), int64(len(versionData)))
}

// ArchiveVersion returns the archive version for a host.
// Returns 0 if no version file exists.
func (v *FileSystemVault) ArchiveVersion(hostID string, name string) (int64, error) {
	versionPath, err := v.archivePath(hostID, name, ".version")
	if err != nil {
		return 0, err
	}
	data, err := os.ReadFile(versionPath)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading version file: %w", err)
	}

	version, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing version: %w", err)
	}
	return version, nil
}

// GetArchive retrieves an archive for a specific host and writes it to w.
func (v *FileSystemVault) GetArchive(hostID string, name string, w io.Writer) error {
	srcPath, err := v.archivePath(hostID, name, ".archive")
	if err != nil {
		return err
	}

	f, err := os.Open(srcPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("archive %q not found for host: %s", name, hostID)
		}
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to read archive: %w", err)
	}
	return nil
}

// ValidateSetup verifies that the vault directories are accessible and writable.
func (v *FileSystemVault) ValidateSetup() error {
	info, err := os.Stat(v.root)
	if err != nil {
		return fmt.Errorf("vault root not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("vault root is not a directory: %s", v.root)
	}

	info, err = os.Stat(v.archiveDir)
	if err != nil {
		return fmt.Errorf("vault directory not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("vault path is not a directory: %s", v.archiveDir)
	}

	probe, err := os.CreateTemp(v.archiveDir, ".probe-*")
	if err != nil {
		return fmt.Errorf("vault directory not writable: %w", err)
	}
	probe.Close()
	return os.Remove(probe.Name())
}

// writeFile writes data from r to the specified path using atomic write (temp file + rename).
func (v *FileSystemVault) writeFile(destPath string, r io.Reader, expectedSize int64) error {
	// Create temp file in the same directory to ensure atomic rename works
	dir := filepath.Dir(destPath)
	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if written != expectedSize {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", expectedSize, written)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

// Compile-time check that FileSystemVault implements fo.Vault interface
var _ fo.Vault = (*FileSystemVault)(nil)
