package fo

import (
	"time"

	"fo-go/internal/database/sqlc"
)

// Catalog is the persistent store behind the organizer: one row per discovered
// file, an append-only operation ledger, an error ledger and scan sessions.
// Lookups return (nil, nil) when nothing matches.
type Catalog interface {
	// File operations

	// CreateFile inserts a new file record and sets file.ID.
	CreateFile(file *sqlc.File) error

	FindFileByID(id int64) (*sqlc.File, error)

	// FindFileByOriginalPath returns the record discovered at exactly this path.
	FindFileByOriginalPath(path string) (*sqlc.File, error)

	// FindFilesByContentHash returns non-error records with this fingerprint,
	// earliest discovered first.
	FindFilesByContentHash(hash string) ([]*sqlc.File, error)

	// FindFilesBySizeAndPrefixHash returns non-error records with this size and
	// prefix fingerprint, earliest discovered first.
	FindFilesBySizeAndPrefixHash(size int64, prefixHash string) ([]*sqlc.File, error)

	FindFilesByStatus(status string) ([]*sqlc.File, error)

	// FindPendingFilesByIDs returns the pending records among ids.
	FindPendingFilesByIDs(ids []int64) ([]*sqlc.File, error)

	// FindMovedFileByContentHash returns the earliest moved record carrying this
	// fingerprint, ignoring excludeID.
	FindMovedFileByContentHash(hash string, excludeID int64) (*sqlc.File, error)

	// FindDuplicateContentHashes returns fingerprints shared by two or more
	// non-error records.
	FindDuplicateContentHashes() ([]string, error)

	// SearchFiles filters and paginates the catalog. The second result is the
	// number of matches before pagination.
	SearchFiles(query FileQuery) ([]*sqlc.File, int64, error)

	CountFilesByStatus() (map[string]int64, error)

	// UpdateFileScanData rewrites the extracted attributes of a record without
	// touching its status or duplicate linkage.
	UpdateFileScanData(file *sqlc.File) error

	MarkFileMoved(id int64, currentPath string, at time.Time) error
	MarkFileDuplicate(id int64, originalID int64, at time.Time) error

	// MarkFileReverted sets the record back to pending at path and clears any
	// duplicate linkage.
	MarkFileReverted(id int64, path string, at time.Time) error

	UpdateFileStatus(id int64, status string, at time.Time) error

	// MarkFileError sets the record to error status and, in the same step,
	// promotes its earliest duplicate to pending original and relinks the
	// other duplicates to it. It returns the promoted id, or 0.
	MarkFileError(id int64, at time.Time) (int64, error)

	// Ledger operations

	// CreateOperation appends a ledger entry and sets op.ID.
	CreateOperation(op *sqlc.Operation) error

	FindOperationByID(id int64) (*sqlc.Operation, error)
	FindOperationsByBatch(batchID string) ([]*sqlc.Operation, error)

	// FindRevertibleMoves returns the non-dry-run move entries of a batch that
	// completed (including those since reverted), newest first.
	FindRevertibleMoves(batchID string) ([]*sqlc.Operation, error)

	FindOperationsByFile(fileID int64) ([]*sqlc.Operation, error)
	ListOperations(limit int) ([]*sqlc.Operation, error)

	// MarkOperationReverted transitions a completed entry to reverted. It
	// reports false when the entry was not in the completed state.
	MarkOperationReverted(id int64) (bool, error)

	// Error ledger

	// CreateFileError appends an error record and sets rec.ID.
	CreateFileError(rec *sqlc.FileError) error

	FindFileErrorsByFile(fileID int64) ([]*sqlc.FileError, error)
	ListFileErrors(limit int) ([]*sqlc.FileError, error)

	// Scan sessions

	CreateScanSession(session *sqlc.ScanSession) error
	FindScanSession(id string) (*sqlc.ScanSession, error)
	LatestScanSession() (*sqlc.ScanSession, error)
	UpdateScanSessionProgress(session *sqlc.ScanSession) error

	// FinishScanSession records the terminal status, counts, error message and
	// completion time of session.
	FinishScanSession(session *sqlc.ScanSession) error

	// Close closes the catalog connection.
	Close() error
}
