package testutil

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fo-go/internal/database"
	"fo-go/internal/database/sqlc"
	"fo-go/internal/fo"
	"fo-go/internal/fs"
	"fo-go/internal/hasher"
	"fo-go/internal/metadata"
)

// ServiceEnv is an FOService wired to a real filesystem under a temp dir and
// an in-memory catalog.
type ServiceEnv struct {
	Service *fo.FOService
	Catalog *database.SQLiteCatalog
	FS      *FaultyFilesystem
	Clock   *StubClock
	IDs     *StubIDGenerator

	// SourceDir and DestDir are empty temp directories.
	SourceDir string
	DestDir   string
}

// NewServiceEnv builds a ServiceEnv. The clock starts at the real current time
// so filesystem timestamps of freshly written files count as valid dates.
func NewServiceEnv(t *testing.T) *ServiceEnv {
	t.Helper()
	return NewServiceEnvWithConfig(t, fo.ServiceConfig{BatchSize: 2, Workers: 2})
}

// NewServiceEnvWithConfig is NewServiceEnv with explicit scan tuning.
func NewServiceEnvWithConfig(t *testing.T, cfg fo.ServiceConfig) *ServiceEnv {
	t.Helper()

	extractor, err := metadata.New(metadata.Options{Location: time.UTC})
	if err != nil {
		t.Fatalf("creating extractor: %v", err)
	}

	root := t.TempDir()
	env := &ServiceEnv{
		Catalog:   NewTestCatalog(t),
		FS:        NewFaultyFilesystem(fs.NewOSFilesystemManager()),
		Clock:     NewStubClock(time.Now().UTC().Truncate(time.Second)),
		IDs:       NewPrefixedIDGenerator("batch"),
		SourceDir: filepath.Join(root, "src"),
		DestDir:   filepath.Join(root, "dest"),
	}
	if err := os.MkdirAll(env.SourceDir, 0755); err != nil {
		t.Fatalf("creating source dir: %v", err)
	}
	env.Service = fo.NewFOService(env.Catalog, env.FS, extractor, hasher.New(0), fo.NewNopLogger(), env.Clock, env.IDs, cfg)
	return env
}

// Source returns a path under SourceDir.
func (e *ServiceEnv) Source(parts ...string) string {
	return filepath.Join(append([]string{e.SourceDir}, parts...)...)
}

// AddPending writes content under SourceDir and catalogs it directly as a
// pending record resolved to date, bypassing the scanner.
func (e *ServiceEnv) AddPending(t *testing.T, name, content string, date time.Time) *sqlc.File {
	t.Helper()
	return e.AddPendingAt(t, e.Source(name), content, date)
}

// AddPendingAt is AddPending for an arbitrary absolute path.
func (e *ServiceEnv) AddPendingAt(t *testing.T, path, content string, date time.Time) *sqlc.File {
	t.Helper()
	path = WriteFile(t, path, content)
	hash := ContentHash(content)
	now := e.Clock.Now()
	f := &sqlc.File{
		OriginalPath: path,
		CurrentPath:  sql.NullString{String: path, Valid: true},
		Filename:     filepath.Base(path),
		Extension:    strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."),
		Size:         int64(len(content)),
		ContentHash:  sql.NullString{String: hash, Valid: true},
		PrefixHash:   sql.NullString{String: hash, Valid: true},
		Category:     string(fo.CategoryOther),
		ResolvedDate: date.UTC(),
		DateSource:   "metadata",
		Status:       fo.StatusPending,
		Metadata:     `{"kind":"none"}`,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := e.Catalog.CreateFile(f); err != nil {
		t.Fatalf("CreateFile(%s) error = %v", path, err)
	}
	// Keep discovery order strictly increasing.
	e.Clock.Advance(time.Second)
	return f
}

// File re-reads a record, failing the test if it is missing.
func (e *ServiceEnv) File(t *testing.T, id int64) *sqlc.File {
	t.Helper()
	f, err := e.Catalog.FindFileByID(id)
	if err != nil {
		t.Fatalf("FindFileByID(%d) error = %v", id, err)
	}
	if f == nil {
		t.Fatalf("FindFileByID(%d) returned nil", id)
	}
	return f
}

// ContentHash is the catalog fingerprint of content, computed without the
// hasher package so tests can check it independently.
func ContentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
