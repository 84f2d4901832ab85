package fo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"fo-go/internal/database/sqlc"
	"fo-go/internal/dates"
)

// ScanOptions controls a single scan invocation.
type ScanOptions struct {
	Recursive bool
	// SessionID names the scan session; a fresh ID is generated when empty.
	SessionID string
	// OnProgress, when set, is called at every batch checkpoint.
	OnProgress func(ScanProgress)
}

// ScanProgress is a point-in-time snapshot of a running scan.
type ScanProgress struct {
	SessionID        string `json:"session_id"`
	Status           string `json:"status"`
	TotalFiles       int    `json:"total_files"`
	ProcessedFiles   int    `json:"processed_files"`
	NewFiles         int    `json:"new_files"`
	SkippedFiles     int    `json:"skipped_files"`
	ErrorFiles       int    `json:"error_files"`
	CurrentDirectory string `json:"current_directory"`
}

// ScanResult summarizes a finished scan. TotalFiles counts every file that
// was processed in the second pass.
type ScanResult struct {
	SessionID    string `json:"session_id"`
	TotalFiles   int    `json:"total_files"`
	NewFiles     int    `json:"new_files"`
	SkippedFiles int    `json:"skipped_files"`
	ErrorFiles   int    `json:"error_files"`
}

type scanOutcome int

const (
	outcomeNew scanOutcome = iota
	outcomeSkipped
	outcomeError
	outcomeCancelled
)

// scanState is the per-invocation progress of one walk.
type scanState struct {
	session    *sqlc.ScanSession
	recursive  bool
	onProgress func(ScanProgress)

	mu       sync.Mutex
	progress ScanProgress
}

func (st *scanState) record(o scanOutcome) {
	st.mu.Lock()
	defer st.mu.Unlock()
	switch o {
	case outcomeNew:
		st.progress.NewFiles++
	case outcomeSkipped:
		st.progress.SkippedFiles++
	case outcomeError:
		st.progress.ErrorFiles++
	default:
		return
	}
	st.progress.ProcessedFiles++
}

func (st *scanState) snapshot() ScanProgress {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.progress
}

func (st *scanState) result() *ScanResult {
	p := st.snapshot()
	return &ScanResult{
		SessionID:    p.SessionID,
		TotalFiles:   p.ProcessedFiles,
		NewFiles:     p.NewFiles,
		SkippedFiles: p.SkippedFiles,
		ErrorFiles:   p.ErrorFiles,
	}
}

// Scan walks root and catalogs every eligible file not already known by its
// original path. The first pass counts files to give progress a denominator;
// the second processes each directory's files in batches before descending.
// Only a failure to read root itself, or cancellation, fails the scan.
func (s *FOService) Scan(ctx context.Context, root *Path, opts ScanOptions) (*ScanResult, error) {
	if !root.IsDir() {
		return nil, fmt.Errorf("scan root is not a directory: %s", root.String())
	}

	sessionID := opts.SessionID
	if sessionID == "" {
		sessionID = s.idgen.New()
	}
	session := &sqlc.ScanSession{
		ID:         sessionID,
		SourcePath: root.String(),
		Recursive:  opts.Recursive,
		Status:     ScanInProgress,
		StartedAt:  s.now(),
	}
	if err := s.catalog.CreateScanSession(session); err != nil {
		return nil, fmt.Errorf("creating scan session: %w", err)
	}

	st := &scanState{
		session:    session,
		recursive:  opts.Recursive,
		onProgress: opts.OnProgress,
		progress:   ScanProgress{SessionID: sessionID, Status: ScanInProgress},
	}

	s.logger.Info("scan started", "session", sessionID, "root", root.String(), "recursive", opts.Recursive)

	st.progress.TotalFiles = s.countFiles(root.String(), opts.Recursive)
	s.checkpoint(st, root.String())

	if err := s.scanDirectory(ctx, st, root.String(), true); err != nil {
		s.finishSession(st, ScanError, err)
		s.logger.Error("scan failed", "session", sessionID, "error", err)
		return st.result(), err
	}

	s.finishSession(st, ScanCompleted, nil)
	res := st.result()
	s.logger.Info("scan complete", "session", sessionID, "total", res.TotalFiles, "new", res.NewFiles, "skipped", res.SkippedFiles, "errors", res.ErrorFiles)
	return res, nil
}

// countFiles counts the files a scan of dir would process. Unreadable
// directories contribute nothing.
func (s *FOService) countFiles(dir string, recursive bool) int {
	entries, err := s.fsmgr.ReadDir(dir)
	if err != nil {
		s.logger.Warn("counting files: reading directory failed", "path", dir, "error", err)
		return 0
	}
	count := 0
	for _, e := range entries {
		switch {
		case e.IsDir():
			if recursive && !s.extractor.ShouldSkipDirectory(e.Name()) {
				count += s.countFiles(filepath.Join(dir, e.Name()), recursive)
			}
		case e.Type().IsRegular():
			if !s.extractor.ShouldSkipFile(e.Name()) {
				count++
			}
		}
	}
	return count
}

// scanDirectory processes dir's files batch by batch, then its subdirectories.
func (s *FOService) scanDirectory(ctx context.Context, st *scanState, dir string, isRoot bool) error {
	entries, err := s.fsmgr.ReadDir(dir)
	if err != nil {
		if isRoot {
			return fmt.Errorf("reading scan root: %w", err)
		}
		s.logger.Warn("reading directory failed", "path", dir, "error", err)
		s.recordError(0, dir, ErrCategoryDirectory, err)
		return nil
	}

	var files, dirs []string
	for _, e := range entries {
		full := filepath.Join(dir, e.Name())
		switch {
		case e.IsDir():
			if !s.extractor.ShouldSkipDirectory(e.Name()) {
				dirs = append(dirs, full)
			}
		case e.Type().IsRegular():
			if !s.extractor.ShouldSkipFile(e.Name()) {
				files = append(files, full)
			}
		}
	}

	for start := 0; start < len(files); start += s.cfg.BatchSize {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("scan cancelled: %w", err)
		}
		end := min(start+s.cfg.BatchSize, len(files))
		s.processBatch(ctx, st, files[start:end])
		s.checkpoint(st, dir)
	}

	if !st.recursive {
		return nil
	}
	for _, d := range dirs {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("scan cancelled: %w", err)
		}
		if err := s.scanDirectory(ctx, st, d, false); err != nil {
			return err
		}
	}
	return nil
}

// processBatch scans a batch of files with bounded parallelism. Per-file
// failures are recorded, never returned.
func (s *FOService) processBatch(ctx context.Context, st *scanState, paths []string) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for _, p := range paths {
		g.Go(func() error {
			st.record(s.scanFile(gctx, p))
			return nil
		})
	}
	_ = g.Wait()
}

func (s *FOService) scanFile(ctx context.Context, path string) scanOutcome {
	if ctx.Err() != nil {
		return outcomeCancelled
	}

	existing, err := s.catalog.FindFileByOriginalPath(path)
	if err != nil {
		s.fileFailed(0, path, ErrCategoryCatalog, fmt.Errorf("looking up catalog entry: %w", err))
		return outcomeError
	}
	if existing != nil {
		s.logger.Debug("file already catalogued", "path", path, "id", existing.ID)
		return outcomeSkipped
	}

	file, err := s.inspect(ctx, path)
	if err != nil {
		if ctx.Err() != nil {
			return outcomeCancelled
		}
		s.fileFailed(0, path, inspectCategory(err), err)
		return outcomeError
	}

	now := s.now()
	file.OriginalPath = path
	file.CurrentPath = nullString(path)
	file.Status = StatusPending
	file.CreatedAt = now
	file.UpdatedAt = now
	if err := s.catalog.CreateFile(file); err != nil {
		s.fileFailed(0, path, ErrCategoryCatalog, fmt.Errorf("creating catalog entry: %w", err))
		return outcomeError
	}

	s.logger.Debug("file catalogued", "path", path, "id", file.ID, "date", file.ResolvedDate, "source", file.DateSource)
	return outcomeNew
}

// Rescan refreshes the extracted attributes, fingerprints and resolved date of
// an existing record in place. Status and duplicate linkage are preserved.
func (s *FOService) Rescan(ctx context.Context, fileID int64) (*sqlc.File, error) {
	existing, err := s.catalog.FindFileByID(fileID)
	if err != nil {
		return nil, fmt.Errorf("finding file: %w", err)
	}
	if existing == nil {
		return nil, fmt.Errorf("file not found: %d", fileID)
	}

	path := currentPath(existing)
	updated, err := s.inspect(ctx, path)
	if err != nil {
		s.fileFailed(existing.ID, path, inspectCategory(err), err)
		return nil, fmt.Errorf("rescanning %s: %w", path, err)
	}

	updated.ID = existing.ID
	updated.OriginalPath = existing.OriginalPath
	updated.CurrentPath = nullString(path)
	updated.Status = existing.Status
	updated.DuplicateOf = existing.DuplicateOf
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = s.now()
	if err := s.catalog.UpdateFileScanData(updated); err != nil {
		return nil, fmt.Errorf("updating catalog entry: %w", err)
	}

	if _, err := s.appendOperation(&sqlc.Operation{
		BatchID:     s.idgen.New(),
		FileID:      nullInt64(existing.ID),
		Kind:        OpScan,
		SourcePath:  path,
		ContentHash: updated.ContentHash,
		Reason:      "rescan",
		Status:      OpStatusCompleted,
	}); err != nil {
		return nil, err
	}

	s.logger.Info("file rescanned", "id", existing.ID, "path", path)
	return updated, nil
}

// inspectError carries the ErrorRecord category of a failed inspection.
type inspectError struct {
	category string
	err      error
}

func (e *inspectError) Error() string { return e.err.Error() }
func (e *inspectError) Unwrap() error { return e.err }

func inspectCategory(err error) string {
	var ie *inspectError
	if errors.As(err, &ie) {
		return ie.category
	}
	return classifyError(err, ErrCategoryIO)
}

// inspect extracts everything the catalog stores about the file at path. The
// returned record has no identity, status or timestamps yet.
func (s *FOService) inspect(ctx context.Context, path string) (*sqlc.File, error) {
	st, err := s.extractor.Stat(path)
	if err != nil {
		return nil, &inspectError{classifyError(err, ErrCategoryIO), fmt.Errorf("stat: %w", err)}
	}
	if !st.IsFile {
		return nil, &inspectError{ErrCategoryIO, fmt.Errorf("not a regular file: %s", path)}
	}

	cls := s.extractor.Classify(path)

	fps, err := s.hasher.Fingerprints(ctx, path, st.Size)
	if err != nil {
		return nil, &inspectError{classifyError(err, ErrCategoryHash), fmt.Errorf("fingerprinting: %w", err)}
	}

	extraction := s.extractor.Extract(path, cls.Category)
	encoded, err := extraction.Encode()
	if err != nil {
		return nil, &inspectError{ErrCategoryIO, err}
	}

	var modified *time.Time
	if !st.ModifiedAt.IsZero() {
		m := st.ModifiedAt
		modified = &m
	}
	res := s.resolver.Resolve(dates.Candidate{
		Embedded: extraction.EmbeddedDate(),
		Created:  st.CreatedAt,
		Modified: modified,
	})

	return &sqlc.File{
		Filename:     filepath.Base(path),
		Extension:    cls.Extension,
		Size:         st.Size,
		ContentHash:  nullString(fps.Full),
		PrefixHash:   nullString(fps.Prefix),
		MimeType:     nullString(s.extractor.MimeType(path)),
		Category:     string(cls.Category),
		FsCreatedAt:  nullTime(st.CreatedAt),
		FsModifiedAt: nullTime(modified),
		MetadataDate: nullTime(extraction.EmbeddedDate()),
		ResolvedDate: res.Date,
		DateSource:   string(res.Source),
		Metadata:     encoded,
	}, nil
}

func (s *FOService) fileFailed(fileID int64, path, category string, err error) {
	s.logger.Warn("file failed", "path", path, "category", category, "error", err)
	s.recordError(fileID, path, category, err)
}

// checkpoint persists progress and notifies the caller.
func (s *FOService) checkpoint(st *scanState, dir string) {
	st.mu.Lock()
	st.progress.CurrentDirectory = dir
	st.mu.Unlock()

	p := st.snapshot()
	st.session.TotalFiles = int64(p.TotalFiles)
	st.session.ProcessedFiles = int64(p.ProcessedFiles)
	st.session.NewFiles = int64(p.NewFiles)
	st.session.SkippedFiles = int64(p.SkippedFiles)
	st.session.ErrorFiles = int64(p.ErrorFiles)
	if err := s.catalog.UpdateScanSessionProgress(st.session); err != nil {
		s.logger.Warn("updating scan session failed", "session", st.session.ID, "error", err)
	}
	if st.onProgress != nil {
		st.onProgress(p)
	}
}

func (s *FOService) finishSession(st *scanState, status string, cause error) {
	st.mu.Lock()
	st.progress.Status = status
	st.mu.Unlock()

	p := st.snapshot()
	st.session.Status = status
	st.session.TotalFiles = int64(p.TotalFiles)
	st.session.ProcessedFiles = int64(p.ProcessedFiles)
	st.session.NewFiles = int64(p.NewFiles)
	st.session.SkippedFiles = int64(p.SkippedFiles)
	st.session.ErrorFiles = int64(p.ErrorFiles)
	if cause != nil {
		st.session.ErrorMessage = nullString(cause.Error())
	}
	now := s.now()
	st.session.CompletedAt = nullTime(&now)
	if err := s.catalog.FinishScanSession(st.session); err != nil {
		s.logger.Error("finishing scan session failed", "session", st.session.ID, "error", err)
	}
	if st.onProgress != nil {
		st.onProgress(p)
	}
}

// ScanSession returns a persisted scan session, or nil if unknown.
func (s *FOService) ScanSession(id string) (*sqlc.ScanSession, error) {
	return s.catalog.FindScanSession(id)
}

// LatestScanSession returns the most recently started scan session, or nil.
func (s *FOService) LatestScanSession() (*sqlc.ScanSession, error) {
	return s.catalog.LatestScanSession()
}
