package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"fo-go/internal/database/migrations"
	"fo-go/internal/database/sqlc"
	"fo-go/internal/fo"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteCatalog implements the fo.Catalog interface using SQLite.
// Static queries go through the sqlc layer; queries whose shape depends on
// input (id sets, optional filters) go through sqlx.
type SQLiteCatalog struct {
	db      *sql.DB
	dbx     *sqlx.DB
	queries *sqlc.Queries
	path    string
}

// NewSQLiteCatalog opens a SQLite catalog.
// path can be a file path or ":memory:" for an in-memory catalog.
func NewSQLiteCatalog(path string) (*SQLiteCatalog, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	c := NewSQLiteCatalogFromDB(db)
	c.path = path
	return c, nil
}

// NewSQLiteCatalogFromDB wraps an existing database connection.
// The caller is responsible for ensuring the connection is properly configured.
func NewSQLiteCatalogFromDB(db *sql.DB) *SQLiteCatalog {
	return &SQLiteCatalog{
		db:      db,
		dbx:     sqlx.NewDb(db, "sqlite3"),
		queries: sqlc.New(db),
	}
}

// OpenConnection opens and configures a SQLite database connection with appropriate PRAGMAs.
// This is exported for use in tools and tests that need a properly configured SQLite connection.
// path can be a file path or ":memory:" for in-memory database.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: every ":memory:" connection is a separate database, and
	// SQLite serializes writers anyway.
	db.SetMaxOpenConns(1)

	// Enable foreign key constraints (SQLite default is OFF for backward compatibility)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

// File operations

func (c *SQLiteCatalog) CreateFile(file *sqlc.File) error {
	id, err := c.queries.InsertFile(context.Background(), sqlc.InsertFileParams{
		OriginalPath: file.OriginalPath,
		CurrentPath:  file.CurrentPath,
		Filename:     file.Filename,
		Extension:    file.Extension,
		Size:         file.Size,
		ContentHash:  file.ContentHash,
		PrefixHash:   file.PrefixHash,
		MimeType:     file.MimeType,
		Category:     file.Category,
		FsCreatedAt:  utcNull(file.FsCreatedAt),
		FsModifiedAt: utcNull(file.FsModifiedAt),
		MetadataDate: utcNull(file.MetadataDate),
		ResolvedDate: file.ResolvedDate.UTC(),
		DateSource:   file.DateSource,
		Status:       file.Status,
		Metadata:     file.Metadata,
		CreatedAt:    file.CreatedAt.UTC(),
		UpdatedAt:    file.UpdatedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	file.ID = id
	return nil
}

func (c *SQLiteCatalog) FindFileByID(id int64) (*sqlc.File, error) {
	f, err := c.queries.GetFileByID(context.Background(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding file by id: %w", err)
	}
	return &f, nil
}

func (c *SQLiteCatalog) FindFileByOriginalPath(path string) (*sqlc.File, error) {
	f, err := c.queries.GetFileByOriginalPath(context.Background(), path)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding file by original path: %w", err)
	}
	return &f, nil
}

func (c *SQLiteCatalog) FindFilesByContentHash(hash string) ([]*sqlc.File, error) {
	files, err := c.queries.GetFilesByContentHash(context.Background(), sql.NullString{String: hash, Valid: true})
	if err != nil {
		return nil, fmt.Errorf("finding files by content hash: %w", err)
	}
	return toPtrs(files), nil
}

func (c *SQLiteCatalog) FindFilesBySizeAndPrefixHash(size int64, prefixHash string) ([]*sqlc.File, error) {
	files, err := c.queries.GetFilesBySizeAndPrefixHash(context.Background(), sqlc.GetFilesBySizeAndPrefixHashParams{
		Size:       size,
		PrefixHash: sql.NullString{String: prefixHash, Valid: true},
	})
	if err != nil {
		return nil, fmt.Errorf("finding files by size and prefix hash: %w", err)
	}
	return toPtrs(files), nil
}

func (c *SQLiteCatalog) FindFilesByStatus(status string) ([]*sqlc.File, error) {
	files, err := c.queries.GetFilesByStatus(context.Background(), status)
	if err != nil {
		return nil, fmt.Errorf("finding files by status: %w", err)
	}
	return toPtrs(files), nil
}

func (c *SQLiteCatalog) FindMovedFileByContentHash(hash string, excludeID int64) (*sqlc.File, error) {
	f, err := c.queries.GetMovedFileByContentHash(context.Background(), sqlc.GetMovedFileByContentHashParams{
		ContentHash: sql.NullString{String: hash, Valid: true},
		ID:          excludeID,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding moved file by content hash: %w", err)
	}
	return &f, nil
}

func (c *SQLiteCatalog) FindDuplicateContentHashes() ([]string, error) {
	hashes, err := c.queries.GetDuplicateContentHashes(context.Background())
	if err != nil {
		return nil, fmt.Errorf("finding duplicate content hashes: %w", err)
	}
	return hashes, nil
}

func (c *SQLiteCatalog) CountFilesByStatus() (map[string]int64, error) {
	rows, err := c.queries.CountFilesByStatus(context.Background())
	if err != nil {
		return nil, fmt.Errorf("counting files by status: %w", err)
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

func (c *SQLiteCatalog) UpdateFileScanData(file *sqlc.File) error {
	err := c.queries.UpdateFileScanData(context.Background(), sqlc.UpdateFileScanDataParams{
		CurrentPath:  file.CurrentPath,
		Filename:     file.Filename,
		Extension:    file.Extension,
		Size:         file.Size,
		ContentHash:  file.ContentHash,
		PrefixHash:   file.PrefixHash,
		MimeType:     file.MimeType,
		Category:     file.Category,
		FsCreatedAt:  utcNull(file.FsCreatedAt),
		FsModifiedAt: utcNull(file.FsModifiedAt),
		MetadataDate: utcNull(file.MetadataDate),
		ResolvedDate: file.ResolvedDate.UTC(),
		DateSource:   file.DateSource,
		Metadata:     file.Metadata,
		UpdatedAt:    file.UpdatedAt.UTC(),
		ID:           file.ID,
	})
	if err != nil {
		return fmt.Errorf("updating file scan data: %w", err)
	}
	return nil
}

func (c *SQLiteCatalog) MarkFileMoved(id int64, currentPath string, at time.Time) error {
	err := c.queries.UpdateFileMoved(context.Background(), sqlc.UpdateFileMovedParams{
		CurrentPath: sql.NullString{String: currentPath, Valid: true},
		UpdatedAt:   at.UTC(),
		ID:          id,
	})
	if err != nil {
		return fmt.Errorf("marking file moved: %w", err)
	}
	return nil
}

func (c *SQLiteCatalog) MarkFileDuplicate(id int64, originalID int64, at time.Time) error {
	if id == originalID {
		return fmt.Errorf("file %d cannot duplicate itself", id)
	}
	err := c.queries.UpdateFileDuplicate(context.Background(), sqlc.UpdateFileDuplicateParams{
		DuplicateOf: sql.NullInt64{Int64: originalID, Valid: true},
		UpdatedAt:   at.UTC(),
		ID:          id,
	})
	if err != nil {
		return fmt.Errorf("marking file duplicate: %w", err)
	}
	return nil
}

func (c *SQLiteCatalog) MarkFileReverted(id int64, path string, at time.Time) error {
	err := c.queries.UpdateFileReverted(context.Background(), sqlc.UpdateFileRevertedParams{
		CurrentPath: sql.NullString{String: path, Valid: true},
		UpdatedAt:   at.UTC(),
		ID:          id,
	})
	if err != nil {
		return fmt.Errorf("marking file reverted: %w", err)
	}
	return nil
}

func (c *SQLiteCatalog) UpdateFileStatus(id int64, status string, at time.Time) error {
	err := c.queries.UpdateFileStatus(context.Background(), sqlc.UpdateFileStatusParams{
		Status:    status,
		UpdatedAt: at.UTC(),
		ID:        id,
	})
	if err != nil {
		return fmt.Errorf("updating file status: %w", err)
	}
	return nil
}

// MarkFileError moves a record to error status. Records that were linked to
// it as duplicates are handed to the earliest of them, which becomes pending,
// so no duplicate is left pointing at an error record. It returns the
// promoted record's id, or 0 when nothing depended on id.
func (c *SQLiteCatalog) MarkFileError(id int64, at time.Time) (int64, error) {
	ctx := context.Background()
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()
	q := c.queries.WithTx(tx)

	at = at.UTC()
	self := sql.NullInt64{Int64: id, Valid: true}
	promoted, err := q.GetFirstDependentID(ctx, self)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		promoted = 0
	case err != nil:
		return 0, fmt.Errorf("finding duplicates of %d: %w", id, err)
	default:
		if err := q.PromoteDuplicate(ctx, sqlc.PromoteDuplicateParams{UpdatedAt: at, ID: promoted}); err != nil {
			return 0, fmt.Errorf("promoting file %d: %w", promoted, err)
		}
		if err := q.RelinkDuplicates(ctx, sqlc.RelinkDuplicatesParams{
			DuplicateOf:   sql.NullInt64{Int64: promoted, Valid: true},
			UpdatedAt:     at,
			DuplicateOf_2: self,
		}); err != nil {
			return 0, fmt.Errorf("relinking duplicates of %d: %w", id, err)
		}
	}

	if err := q.UpdateFileStatus(ctx, sqlc.UpdateFileStatusParams{Status: fo.StatusError, UpdatedAt: at, ID: id}); err != nil {
		return 0, fmt.Errorf("updating file status: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing error status: %w", err)
	}
	return promoted, nil
}

// Ledger operations

func (c *SQLiteCatalog) CreateOperation(op *sqlc.Operation) error {
	id, err := c.queries.InsertOperation(context.Background(), sqlc.InsertOperationParams{
		BatchID:         op.BatchID,
		FileID:          op.FileID,
		Kind:            op.Kind,
		SourcePath:      op.SourcePath,
		DestinationPath: op.DestinationPath,
		ContentHash:     op.ContentHash,
		Reason:          op.Reason,
		Status:          op.Status,
		DryRun:          op.DryRun,
		CreatedAt:       op.CreatedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("creating operation: %w", err)
	}
	op.ID = id
	return nil
}

func (c *SQLiteCatalog) FindOperationByID(id int64) (*sqlc.Operation, error) {
	op, err := c.queries.GetOperationByID(context.Background(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding operation: %w", err)
	}
	return &op, nil
}

func (c *SQLiteCatalog) FindOperationsByBatch(batchID string) ([]*sqlc.Operation, error) {
	ops, err := c.queries.GetOperationsByBatchID(context.Background(), batchID)
	if err != nil {
		return nil, fmt.Errorf("finding operations by batch: %w", err)
	}
	return toPtrs(ops), nil
}

func (c *SQLiteCatalog) FindRevertibleMoves(batchID string) ([]*sqlc.Operation, error) {
	ops, err := c.queries.GetRevertibleMovesByBatch(context.Background(), batchID)
	if err != nil {
		return nil, fmt.Errorf("finding revertible moves: %w", err)
	}
	return toPtrs(ops), nil
}

func (c *SQLiteCatalog) FindOperationsByFile(fileID int64) ([]*sqlc.Operation, error) {
	ops, err := c.queries.GetOperationsByFileID(context.Background(), sql.NullInt64{Int64: fileID, Valid: true})
	if err != nil {
		return nil, fmt.Errorf("finding operations by file: %w", err)
	}
	return toPtrs(ops), nil
}

func (c *SQLiteCatalog) ListOperations(limit int) ([]*sqlc.Operation, error) {
	ops, err := c.queries.ListOperations(context.Background(), int64(limit))
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	return toPtrs(ops), nil
}

func (c *SQLiteCatalog) MarkOperationReverted(id int64) (bool, error) {
	n, err := c.queries.MarkOperationReverted(context.Background(), id)
	if err != nil {
		return false, fmt.Errorf("marking operation reverted: %w", err)
	}
	return n == 1, nil
}

// Revision returns a counter that grows with every catalog insert: new
// records, ledger entries and error records. It versions catalog archives.
func (c *SQLiteCatalog) Revision() (int64, error) {
	rev, err := c.queries.GetCatalogRevision(context.Background())
	if err != nil {
		return 0, fmt.Errorf("getting catalog revision: %w", err)
	}
	return rev, nil
}

// Error ledger

func (c *SQLiteCatalog) CreateFileError(rec *sqlc.FileError) error {
	id, err := c.queries.InsertFileError(context.Background(), sqlc.InsertFileErrorParams{
		FileID:    rec.FileID,
		Path:      rec.Path,
		Category:  rec.Category,
		Message:   rec.Message,
		Detail:    rec.Detail,
		CreatedAt: rec.CreatedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("creating file error: %w", err)
	}
	rec.ID = id
	return nil
}

func (c *SQLiteCatalog) FindFileErrorsByFile(fileID int64) ([]*sqlc.FileError, error) {
	errs, err := c.queries.GetFileErrorsByFileID(context.Background(), sql.NullInt64{Int64: fileID, Valid: true})
	if err != nil {
		return nil, fmt.Errorf("finding file errors: %w", err)
	}
	return toPtrs(errs), nil
}

func (c *SQLiteCatalog) ListFileErrors(limit int) ([]*sqlc.FileError, error) {
	errs, err := c.queries.ListFileErrors(context.Background(), int64(limit))
	if err != nil {
		return nil, fmt.Errorf("listing file errors: %w", err)
	}
	return toPtrs(errs), nil
}

// Scan sessions

func (c *SQLiteCatalog) CreateScanSession(session *sqlc.ScanSession) error {
	err := c.queries.InsertScanSession(context.Background(), sqlc.InsertScanSessionParams{
		ID:         session.ID,
		SourcePath: session.SourcePath,
		Recursive:  session.Recursive,
		Status:     session.Status,
		StartedAt:  session.StartedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("creating scan session: %w", err)
	}
	return nil
}

func (c *SQLiteCatalog) FindScanSession(id string) (*sqlc.ScanSession, error) {
	s, err := c.queries.GetScanSession(context.Background(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding scan session: %w", err)
	}
	return &s, nil
}

func (c *SQLiteCatalog) LatestScanSession() (*sqlc.ScanSession, error) {
	s, err := c.queries.GetLatestScanSession(context.Background())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding latest scan session: %w", err)
	}
	return &s, nil
}

func (c *SQLiteCatalog) UpdateScanSessionProgress(session *sqlc.ScanSession) error {
	err := c.queries.UpdateScanSessionProgress(context.Background(), sqlc.UpdateScanSessionProgressParams{
		TotalFiles:     session.TotalFiles,
		ProcessedFiles: session.ProcessedFiles,
		NewFiles:       session.NewFiles,
		SkippedFiles:   session.SkippedFiles,
		ErrorFiles:     session.ErrorFiles,
		ID:             session.ID,
	})
	if err != nil {
		return fmt.Errorf("updating scan session progress: %w", err)
	}
	return nil
}

func (c *SQLiteCatalog) FinishScanSession(session *sqlc.ScanSession) error {
	err := c.queries.FinishScanSession(context.Background(), sqlc.FinishScanSessionParams{
		Status:         session.Status,
		TotalFiles:     session.TotalFiles,
		ProcessedFiles: session.ProcessedFiles,
		NewFiles:       session.NewFiles,
		SkippedFiles:   session.SkippedFiles,
		ErrorFiles:     session.ErrorFiles,
		ErrorMessage:   session.ErrorMessage,
		CompletedAt:    utcNull(session.CompletedAt),
		ID:             session.ID,
	})
	if err != nil {
		return fmt.Errorf("finishing scan session: %w", err)
	}
	return nil
}

// Path returns the database file path (or ":memory:" for in-memory databases).
func (c *SQLiteCatalog) Path() string {
	return c.path
}

// Migrate applies any pending schema migrations.
func (c *SQLiteCatalog) Migrate() error {
	return migrations.Up(c.db)
}

// CheckMigrations verifies the database schema is up-to-date.
func (c *SQLiteCatalog) CheckMigrations() error {
	return migrations.Check(c.db)
}

// BackupTo creates a complete copy of the database at destPath using VACUUM INTO.
func (c *SQLiteCatalog) BackupTo(destPath string) error {
	_, err := c.db.Exec("VACUUM INTO ?", destPath)
	if err != nil {
		return fmt.Errorf("backing up database: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (c *SQLiteCatalog) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func toPtrs[T any](items []T) []*T {
	result := make([]*T, len(items))
	for i := range items {
		result[i] = &items[i]
	}
	return result
}

func utcNull(t sql.NullTime) sql.NullTime {
	if !t.Valid {
		return t
	}
	return sql.NullTime{Time: t.Time.UTC(), Valid: true}
}

// Compile-time check that SQLiteCatalog implements fo.Catalog interface
var _ fo.Catalog = (*SQLiteCatalog)(nil)
