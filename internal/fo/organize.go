package fo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"fo-go/internal/database/sqlc"
)

// maxCollisionAttempts bounds numeric disambiguation before falling back to a
// fingerprint-derived suffix.
const maxCollisionAttempts = 100

// Organize actions.
const (
	ActionMove      = "move"
	ActionSkip      = "skip"
	ActionDuplicate = "duplicate"
	ActionError     = "error"
)

// OrganizeOptions controls a single organize invocation.
type OrganizeOptions struct {
	DryRun bool
	// FileIDs restricts the batch to these records; only pending ones are used.
	FileIDs []int64
	// BatchID names the ledger batch; a fresh ID is generated when empty.
	BatchID string
	// OnProgress, when set, is called after every file.
	OnProgress func(OrganizeProgress)
}

// OrganizeProgress is a point-in-time snapshot of a running batch.
type OrganizeProgress struct {
	BatchID        string `json:"batch_id"`
	DryRun         bool   `json:"dry_run"`
	TotalFiles     int    `json:"total_files"`
	ProcessedFiles int    `json:"processed_files"`
	CurrentFile    string `json:"current_file"`
}

// BatchResult summarizes an organize batch.
type BatchResult struct {
	BatchID        string `json:"batch_id"`
	DryRun         bool   `json:"dry_run"`
	TotalFiles     int    `json:"total_files"`
	MovedFiles     int    `json:"moved_files"`
	SkippedFiles   int    `json:"skipped_files"`
	DuplicateFiles int    `json:"duplicate_files"`
	ErrorFiles     int    `json:"error_files"`
}

// PreviewEntry is the projected outcome for one pending record.
type PreviewEntry struct {
	FileID      int64  `json:"file_id"`
	Filename    string `json:"filename"`
	Source      string `json:"source"`
	Destination string `json:"destination,omitempty"`
	Action      string `json:"action"`
	DuplicateOf int64  `json:"duplicate_of,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// batchState is what one organize batch has decided so far: destination
// paths it reserved and fingerprints it placed. Dry runs, previews and real
// runs all thread it through the same planner so their decisions agree.
type batchState struct {
	reserved map[string]bool
	placed   map[string]int64
}

func newBatchState() *batchState {
	return &batchState{
		reserved: make(map[string]bool),
		placed:   make(map[string]int64),
	}
}

// release drops what p reserved so later files are neither linked to a
// record that did not move nor pushed off its destination.
func (b *batchState) release(p *plan, hash string) {
	delete(b.reserved, p.destination)
	delete(b.placed, hash)
}

// plan is the decision for one file.
type plan struct {
	action      string
	source      string
	destination string
	duplicateOf int64
	reason      string
}

// Organize moves pending records into base/YYYY/MM/DD by resolved date,
// recording every decision in the ledger under one batch. A dry run records
// the same decisions without touching the filesystem or the records.
// Structural problems with base fail the batch; per-file problems do not.
func (s *FOService) Organize(ctx context.Context, base string, opts OrganizeOptions) (*BatchResult, error) {
	base, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("resolving destination: %w", err)
	}

	if !opts.DryRun {
		if err := s.fsmgr.MkdirAll(base); err != nil {
			return nil, fmt.Errorf("creating destination: %w", err)
		}
		if err := s.fsmgr.CheckWritable(base); err != nil {
			return nil, fmt.Errorf("destination not writable: %w", err)
		}
	}

	files, err := s.selectPending(opts.FileIDs)
	if err != nil {
		return nil, err
	}

	batchID := opts.BatchID
	if batchID == "" {
		batchID = s.idgen.New()
	}
	result := &BatchResult{BatchID: batchID, DryRun: opts.DryRun, TotalFiles: len(files)}
	s.logger.Info("organize started", "batch", batchID, "destination", base, "dry_run", opts.DryRun, "files", len(files))

	state := newBatchState()
	for i, f := range files {
		if err := ctx.Err(); err != nil {
			s.logger.Warn("organize cancelled", "batch", batchID, "processed", i)
			return result, fmt.Errorf("organize cancelled: %w", err)
		}

		switch s.organizeFile(f, base, batchID, opts.DryRun, state) {
		case ActionMove:
			result.MovedFiles++
		case ActionSkip:
			result.SkippedFiles++
		case ActionDuplicate:
			result.DuplicateFiles++
		default:
			result.ErrorFiles++
		}

		if opts.OnProgress != nil {
			opts.OnProgress(OrganizeProgress{
				BatchID:        batchID,
				DryRun:         opts.DryRun,
				TotalFiles:     len(files),
				ProcessedFiles: i + 1,
				CurrentFile:    currentPath(f),
			})
		}
	}

	s.logger.Info("organize complete", "batch", batchID, "moved", result.MovedFiles, "skipped", result.SkippedFiles, "duplicates", result.DuplicateFiles, "errors", result.ErrorFiles)
	return result, nil
}

// Preview projects what Organize would do for the pending records without
// writing anything.
func (s *FOService) Preview(base string, fileIDs []int64) ([]*PreviewEntry, error) {
	base, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("resolving destination: %w", err)
	}
	files, err := s.selectPending(fileIDs)
	if err != nil {
		return nil, err
	}

	state := newBatchState()
	entries := make([]*PreviewEntry, 0, len(files))
	for _, f := range files {
		entry := &PreviewEntry{FileID: f.ID, Filename: f.Filename, Source: currentPath(f)}
		p, err := s.planFile(f, base, state)
		if err != nil {
			entry.Action = ActionError
			entry.Reason = err.Error()
		} else {
			entry.Action = p.action
			entry.Destination = p.destination
			entry.DuplicateOf = p.duplicateOf
			entry.Reason = p.reason
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *FOService) selectPending(ids []int64) ([]*sqlc.File, error) {
	var (
		files []*sqlc.File
		err   error
	)
	if len(ids) > 0 {
		files, err = s.catalog.FindPendingFilesByIDs(ids)
	} else {
		files, err = s.catalog.FindFilesByStatus(StatusPending)
	}
	if err != nil {
		return nil, fmt.Errorf("selecting pending files: %w", err)
	}
	return files, nil
}

// planFile decides what happens to f: skip when the source is gone, duplicate
// when its content is already placed, otherwise a move to a collision-free
// destination. It reserves what it decides in state.
func (s *FOService) planFile(f *sqlc.File, base string, state *batchState) (*plan, error) {
	source := currentPath(f)
	exists, err := s.fsmgr.Exists(source)
	if err != nil {
		return nil, fmt.Errorf("checking source: %w", err)
	}
	if !exists {
		return &plan{action: ActionSkip, source: source, reason: "source no longer exists"}, nil
	}

	if !f.ContentHash.Valid {
		return nil, fmt.Errorf("file %d has no content fingerprint", f.ID)
	}
	hash := f.ContentHash.String

	if id, ok := state.placed[hash]; ok && id != f.ID {
		return &plan{action: ActionDuplicate, source: source, duplicateOf: id, reason: fmt.Sprintf("duplicate of #%d placed in this batch", id)}, nil
	}
	existing, err := s.ExistingDuplicateAtDestination(hash, f.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &plan{action: ActionDuplicate, source: source, duplicateOf: existing.ID, reason: fmt.Sprintf("duplicate of #%d already organized", existing.ID)}, nil
	}

	dest := s.resolver.DestinationPath(base, f.ResolvedDate, f.Filename)
	dest, err = s.resolveCollision(dest, source, hash, state)
	if err != nil {
		return nil, err
	}

	state.reserved[dest] = true
	state.placed[hash] = f.ID
	return &plan{action: ActionMove, source: source, destination: dest}, nil
}

// resolveCollision returns dest if it is free, else the first free
// "name (n).ext" for n up to maxCollisionAttempts, else the first free
// "name_<hash>.ext" with the fingerprint cut to 8, then 16 characters, then
// in full. The file's own current location counts as free.
func (s *FOService) resolveCollision(dest, source, hash string, state *batchState) (string, error) {
	free := func(p string) (bool, error) {
		if state.reserved[p] {
			return false, nil
		}
		if p == source {
			return true, nil
		}
		exists, err := s.fsmgr.Exists(p)
		if err != nil {
			return false, fmt.Errorf("checking destination: %w", err)
		}
		return !exists, nil
	}

	ok, err := free(dest)
	if err != nil || ok {
		return dest, err
	}

	ext := filepath.Ext(dest)
	stem := strings.TrimSuffix(dest, ext)
	for n := 1; n <= maxCollisionAttempts; n++ {
		candidate := fmt.Sprintf("%s (%d)%s", stem, n, ext)
		ok, err := free(candidate)
		if err != nil {
			return "", err
		}
		if ok {
			return candidate, nil
		}
	}

	for _, n := range []int{8, 16, len(hash)} {
		if n > len(hash) {
			n = len(hash)
		}
		candidate := fmt.Sprintf("%s_%s%s", stem, hash[:n], ext)
		ok, err := free(candidate)
		if err != nil {
			return "", err
		}
		if ok {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free name for %s", dest)
}

// organizeFile plans and, unless dryRun, executes one file. It returns the
// action that was counted.
func (s *FOService) organizeFile(f *sqlc.File, base, batchID string, dryRun bool, state *batchState) string {
	p, err := s.planFile(f, base, state)
	if err != nil {
		s.organizeFailed(f, batchID, dryRun, "", ErrCategoryMove, err)
		return ActionError
	}

	switch p.action {
	case ActionSkip:
		s.logger.Debug("source missing, skipping", "id", f.ID, "path", p.source)
		return s.recordSkip(f, batchID, dryRun, p)

	case ActionDuplicate:
		if !dryRun {
			if err := s.catalog.MarkFileDuplicate(f.ID, p.duplicateOf, s.now()); err != nil {
				s.organizeFailed(f, batchID, dryRun, "", ErrCategoryCatalog, fmt.Errorf("marking duplicate: %w", err))
				return ActionError
			}
		}
		if _, err := s.appendOperation(&sqlc.Operation{
			BatchID:     batchID,
			FileID:      nullInt64(f.ID),
			Kind:        OpDuplicate,
			SourcePath:  p.source,
			ContentHash: f.ContentHash,
			Reason:      p.reason,
			Status:      OpStatusCompleted,
			DryRun:      dryRun,
		}); err != nil {
			s.logger.Error("ledger write failed", "id", f.ID, "error", err)
		}
		s.logger.Debug("duplicate not moved", "id", f.ID, "original", p.duplicateOf)
		return ActionDuplicate
	}

	if dryRun {
		if _, err := s.appendOperation(&sqlc.Operation{
			BatchID:         batchID,
			FileID:          nullInt64(f.ID),
			Kind:            OpMove,
			SourcePath:      p.source,
			DestinationPath: nullString(p.destination),
			ContentHash:     f.ContentHash,
			Reason:          "would move",
			Status:          OpStatusCompleted,
			DryRun:          true,
		}); err != nil {
			s.logger.Error("ledger write failed", "id", f.ID, "error", err)
		}
		s.logger.Debug("would move", "id", f.ID, "from", p.source, "to", p.destination)
		return ActionMove
	}

	// Revert checks against the ledger fingerprint, which must describe the
	// bytes actually moved.
	live, err := s.hasher.FingerprintFile(p.source)
	if err != nil {
		state.release(p, f.ContentHash.String)
		s.organizeFailed(f, batchID, false, p.destination, classifyError(err, ErrCategoryHash), fmt.Errorf("fingerprinting before move: %w", err))
		return ActionError
	}
	if live != f.ContentHash.String {
		state.release(p, f.ContentHash.String)
		s.logger.Info("content changed since scan, skipping", "id", f.ID, "path", p.source)
		return s.recordSkip(f, batchID, false, &plan{action: ActionSkip, source: p.source, reason: "content changed since scan; rescan first"})
	}

	if err := s.executeMove(f, p); err != nil {
		state.release(p, f.ContentHash.String)
		s.organizeFailed(f, batchID, dryRun, p.destination, classifyError(err, ErrCategoryMove), err)
		return ActionError
	}

	if _, err := s.appendOperation(&sqlc.Operation{
		BatchID:         batchID,
		FileID:          nullInt64(f.ID),
		Kind:            OpMove,
		SourcePath:      p.source,
		DestinationPath: nullString(p.destination),
		ContentHash:     f.ContentHash,
		Reason:          fmt.Sprintf("organized by %s date", f.DateSource),
		Status:          OpStatusCompleted,
	}); err != nil {
		// The move stands; without its ledger entry it cannot be reverted, so
		// make that visible.
		s.logger.Error("ledger write failed after move", "id", f.ID, "destination", p.destination, "error", err)
		s.recordError(f.ID, p.destination, ErrCategoryCatalog, err)
	}
	s.logger.Debug("file moved", "id", f.ID, "from", p.source, "to", p.destination)
	return ActionMove
}

func (s *FOService) recordSkip(f *sqlc.File, batchID string, dryRun bool, p *plan) string {
	if _, err := s.appendOperation(&sqlc.Operation{
		BatchID:     batchID,
		FileID:      nullInt64(f.ID),
		Kind:        OpSkip,
		SourcePath:  p.source,
		ContentHash: f.ContentHash,
		Reason:      p.reason,
		Status:      OpStatusCompleted,
		DryRun:      dryRun,
	}); err != nil {
		s.logger.Error("ledger write failed", "id", f.ID, "error", err)
	}
	return ActionSkip
}

// executeMove performs the filesystem move and then records it. If the record
// cannot be updated the file is moved back so catalog and disk agree.
func (s *FOService) executeMove(f *sqlc.File, p *plan) error {
	if p.destination != p.source {
		if err := s.fsmgr.MkdirAll(filepath.Dir(p.destination)); err != nil {
			return fmt.Errorf("creating destination directory: %w", err)
		}
		if err := s.fsmgr.Move(p.source, p.destination); err != nil {
			return fmt.Errorf("moving file: %w", err)
		}
	}

	if err := s.catalog.MarkFileMoved(f.ID, p.destination, s.now()); err != nil {
		if p.destination != p.source {
			if rbErr := s.fsmgr.Move(p.destination, p.source); rbErr != nil {
				s.logger.Error("rolling back move failed", "id", f.ID, "from", p.destination, "to", p.source, "error", rbErr)
				return errors.Join(fmt.Errorf("recording move: %w", err), fmt.Errorf("rolling back move: %w", rbErr))
			}
		}
		return fmt.Errorf("recording move: %w", err)
	}
	return nil
}

// organizeFailed writes the error ledger entry and ErrorRecord for a file and,
// on a real run, moves the record to error status.
func (s *FOService) organizeFailed(f *sqlc.File, batchID string, dryRun bool, dest, category string, cause error) {
	s.logger.Warn("organize failed for file", "id", f.ID, "path", currentPath(f), "error", cause)

	if _, err := s.appendOperation(&sqlc.Operation{
		BatchID:         batchID,
		FileID:          nullInt64(f.ID),
		Kind:            OpError,
		SourcePath:      currentPath(f),
		DestinationPath: nullString(dest),
		ContentHash:     f.ContentHash,
		Reason:          cause.Error(),
		Status:          OpStatusFailed,
		DryRun:          dryRun,
	}); err != nil {
		s.logger.Error("ledger write failed", "id", f.ID, "error", err)
	}
	s.recordError(f.ID, currentPath(f), category, cause)

	if dryRun {
		return
	}
	promoted, err := s.catalog.MarkFileError(f.ID, s.now())
	if err != nil {
		s.logger.Error("setting error status failed", "id", f.ID, "error", err)
		return
	}
	if promoted != 0 {
		s.logger.Info("duplicate promoted to original", "id", promoted, "failed", f.ID)
	}
}
