package testutil

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"fo-go/internal/fo"
)

// FaultyFilesystem wraps a real FilesystemManager and injects failures into
// chosen operations. Everything not overridden goes to the inner manager.
type FaultyFilesystem struct {
	fo.FilesystemManager

	mu       sync.Mutex
	moveErrs map[string]error // keyed by source path
	mkdirErr error
	moves    int
}

// NewFaultyFilesystem wraps inner.
func NewFaultyFilesystem(inner fo.FilesystemManager) *FaultyFilesystem {
	return &FaultyFilesystem{
		FilesystemManager: inner,
		moveErrs:          make(map[string]error),
	}
}

// FailMove makes every Move out of src return err. A nil err clears it.
func (f *FaultyFilesystem) FailMove(src string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.moveErrs, src)
		return
	}
	f.moveErrs[src] = err
}

// FailMkdirAll makes every MkdirAll return err. A nil err clears it.
func (f *FaultyFilesystem) FailMkdirAll(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mkdirErr = err
}

// Moves returns how many moves reached the inner manager.
func (f *FaultyFilesystem) Moves() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.moves
}

func (f *FaultyFilesystem) Move(src, dst string) error {
	f.mu.Lock()
	err := f.moveErrs[src]
	if err == nil {
		f.moves++
	}
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.FilesystemManager.Move(src, dst)
}

func (f *FaultyFilesystem) MkdirAll(dir string) error {
	f.mu.Lock()
	err := f.mkdirErr
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.FilesystemManager.MkdirAll(dir)
}

// WriteFile creates path with content, making parent directories as needed.
func WriteFile(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("creating directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

// ReadFile returns the content of path, failing the test if it is unreadable.
func ReadFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}

// Exists reports whether path exists.
func Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

var _ fo.FilesystemManager = (*FaultyFilesystem)(nil)
