package fo

import (
	"fmt"

	"fo-go/internal/database/sqlc"
)

// FileHistory is everything the ledgers know about one record.
type FileHistory struct {
	File       *sqlc.File
	Operations []*sqlc.Operation
	Errors     []*sqlc.FileError
}

// FilePage is one page of a catalog listing.
type FilePage struct {
	Files []*sqlc.File
	Total int64
}

// CatalogStats counts records by lifecycle status.
type CatalogStats struct {
	Total    int64            `json:"total"`
	ByStatus map[string]int64 `json:"by_status"`
}

// GetHistory returns the most recent ledger entries, newest first.
func (s *FOService) GetHistory(limit int) ([]*sqlc.Operation, error) {
	ops, err := s.catalog.ListOperations(limit)
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	return ops, nil
}

// GetOperation returns one ledger entry, or nil.
func (s *FOService) GetOperation(id int64) (*sqlc.Operation, error) {
	op, err := s.catalog.FindOperationByID(id)
	if err != nil {
		return nil, fmt.Errorf("finding operation: %w", err)
	}
	return op, nil
}

// GetBatch returns a batch's ledger entries in creation order.
func (s *FOService) GetBatch(batchID string) ([]*sqlc.Operation, error) {
	ops, err := s.catalog.FindOperationsByBatch(batchID)
	if err != nil {
		return nil, fmt.Errorf("finding batch operations: %w", err)
	}
	return ops, nil
}

// GetFileHistory returns a record with its ledger entries and errors. It
// returns nil if the record does not exist.
func (s *FOService) GetFileHistory(fileID int64) (*FileHistory, error) {
	f, err := s.catalog.FindFileByID(fileID)
	if err != nil {
		return nil, fmt.Errorf("finding file: %w", err)
	}
	if f == nil {
		return nil, nil
	}
	ops, err := s.catalog.FindOperationsByFile(fileID)
	if err != nil {
		return nil, fmt.Errorf("finding file operations: %w", err)
	}
	errs, err := s.catalog.FindFileErrorsByFile(fileID)
	if err != nil {
		return nil, fmt.Errorf("finding file errors: %w", err)
	}
	return &FileHistory{File: f, Operations: ops, Errors: errs}, nil
}

// ListErrors returns the most recent error records, newest first.
func (s *FOService) ListErrors(limit int) ([]*sqlc.FileError, error) {
	errs, err := s.catalog.ListFileErrors(limit)
	if err != nil {
		return nil, fmt.Errorf("listing errors: %w", err)
	}
	return errs, nil
}

// GetFile returns a catalog record, or nil.
func (s *FOService) GetFile(id int64) (*sqlc.File, error) {
	f, err := s.catalog.FindFileByID(id)
	if err != nil {
		return nil, fmt.Errorf("finding file: %w", err)
	}
	return f, nil
}

// ListFiles returns a filtered page of the catalog.
func (s *FOService) ListFiles(q FileQuery) (*FilePage, error) {
	files, total, err := s.catalog.SearchFiles(q)
	if err != nil {
		return nil, fmt.Errorf("searching files: %w", err)
	}
	return &FilePage{Files: files, Total: total}, nil
}

// CatalogStats counts records by status.
func (s *FOService) CatalogStats() (*CatalogStats, error) {
	counts, err := s.catalog.CountFilesByStatus()
	if err != nil {
		return nil, fmt.Errorf("counting files: %w", err)
	}
	stats := &CatalogStats{ByStatus: counts}
	for _, n := range counts {
		stats.Total += n
	}
	return stats, nil
}

// RetryErrored moves every record in error status back to pending so the
// next organize picks it up again. Returns how many were re-queued.
func (s *FOService) RetryErrored() (int, error) {
	files, err := s.catalog.FindFilesByStatus(StatusError)
	if err != nil {
		return 0, fmt.Errorf("finding errored files: %w", err)
	}

	batchID := s.idgen.New()
	for i, f := range files {
		if err := s.catalog.UpdateFileStatus(f.ID, StatusPending, s.now()); err != nil {
			return i, fmt.Errorf("re-queueing file %d: %w", f.ID, err)
		}
		if _, err := s.appendOperation(&sqlc.Operation{
			BatchID:     batchID,
			FileID:      nullInt64(f.ID),
			Kind:        OpScan,
			SourcePath:  currentPath(f),
			ContentHash: f.ContentHash,
			Reason:      "retry",
			Status:      OpStatusCompleted,
		}); err != nil {
			return i, err
		}
	}

	s.logger.Info("errored files re-queued", "count", len(files))
	return len(files), nil
}
