package fo

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"fo-go/internal/database/sqlc"
	"fo-go/internal/dates"
)

// Defaults for ServiceConfig fields left at zero.
const (
	DefaultBatchSize = 100
	DefaultWorkers   = 4
)

// ServiceConfig tunes the scan pipeline.
type ServiceConfig struct {
	// BatchSize is the number of files processed between progress checkpoints.
	BatchSize int
	// Workers bounds per-batch parallel file processing.
	Workers int
}

// FOService is the orchestration layer that drives the scanner, duplicate
// detector, organizer and revert engine over a Catalog. It holds no mutable
// state between calls; every invocation carries its own progress.
type FOService struct {
	catalog   Catalog
	fsmgr     FilesystemManager
	extractor MetadataExtractor
	hasher    Hasher
	resolver  *dates.Resolver
	logger    Logger
	clock     Clock
	idgen     IDGenerator
	cfg       ServiceConfig
}

// NewFOService creates a new FOService with the provided dependencies.
func NewFOService(catalog Catalog, fsmgr FilesystemManager, extractor MetadataExtractor, hasher Hasher, logger Logger, clock Clock, idgen IDGenerator, cfg ServiceConfig) *FOService {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	return &FOService{
		catalog:   catalog,
		fsmgr:     fsmgr,
		extractor: extractor,
		hasher:    hasher,
		resolver:  dates.NewResolver(clock.Now),
		logger:    logger,
		clock:     clock,
		idgen:     idgen,
		cfg:       cfg,
	}
}

// now returns the service clock in UTC.
func (s *FOService) now() time.Time {
	return s.clock.Now().UTC()
}

// recordError appends an ErrorRecord. Failure to record is logged, never
// returned: the error ledger must not turn a per-file failure into a fatal one.
func (s *FOService) recordError(fileID int64, path, category string, cause error) {
	rec := &sqlc.FileError{
		FileID:    nullInt64(fileID),
		Path:      path,
		Category:  category,
		Message:   cause.Error(),
		CreatedAt: s.now(),
	}
	var pathErr *fs.PathError
	if errors.As(cause, &pathErr) {
		rec.Detail = nullString(fmt.Sprintf("%s %s: %v", pathErr.Op, pathErr.Path, pathErr.Err))
	}
	if err := s.catalog.CreateFileError(rec); err != nil {
		s.logger.Error("recording file error failed", "path", path, "cause", cause, "error", err)
	}
}

// appendOperation writes a ledger entry and returns it.
func (s *FOService) appendOperation(op *sqlc.Operation) (*sqlc.Operation, error) {
	op.CreatedAt = s.now()
	if err := s.catalog.CreateOperation(op); err != nil {
		return nil, fmt.Errorf("appending %s ledger entry: %w", op.Kind, err)
	}
	return op, nil
}

// classifyError maps a failure onto an ErrorRecord category. Missing files and
// permission problems are recognized everywhere; everything else gets fallback.
func classifyError(err error, fallback string) string {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return ErrCategoryNotFound
	case errors.Is(err, fs.ErrPermission):
		return ErrCategoryPermission
	default:
		return fallback
	}
}

// currentPath returns where the file is expected to live right now.
func currentPath(f *sqlc.File) string {
	if f.CurrentPath.Valid && f.CurrentPath.String != "" {
		return f.CurrentPath.String
	}
	return f.OriginalPath
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt64(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: v != 0}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
