package fo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"fo-go/internal/database/sqlc"
	"fo-go/internal/dates"
)

// RevertResult describes one reversed move.
type RevertResult struct {
	OperationID       int64  `json:"operation_id"`
	FileID            int64  `json:"file_id,omitempty"`
	RestoredPath      string `json:"restored_path"`
	RevertBatchID     string `json:"revert_batch_id"`
	RevertOperationID int64  `json:"revert_operation_id"`
}

// RevertFailure is one entry of a batch revert that could not be reversed.
type RevertFailure struct {
	OperationID int64  `json:"operation_id"`
	Error       string `json:"error"`
}

// BatchRevertResult aggregates a batch revert.
type BatchRevertResult struct {
	BatchID         string          `json:"batch_id"`
	RevertBatchID   string          `json:"revert_batch_id"`
	TotalOperations int             `json:"total_operations"`
	Reverted        int             `json:"reverted"`
	Failed          int             `json:"failed"`
	Skipped         int             `json:"skipped"`
	Errors          []RevertFailure `json:"errors"`
}

// RevertCheck is the read-only verdict on whether an entry can be reverted.
type RevertCheck struct {
	OperationID int64  `json:"operation_id"`
	Source      string `json:"source"`
	Destination string `json:"destination,omitempty"`
	CanRevert   bool   `json:"can_revert"`
	Reason      string `json:"reason,omitempty"`
}

// Revert reverses a single move entry, re-reading it from the ledger first.
// Either the file is back at its original path with catalog and ledger
// updated, or nothing changed.
func (s *FOService) Revert(op *sqlc.Operation) (*RevertResult, error) {
	return s.revertOne(op.ID, s.idgen.New())
}

// RevertOperation reverses the ledger entry with the given id.
func (s *FOService) RevertOperation(id int64) (*RevertResult, error) {
	return s.revertOne(id, s.idgen.New())
}

// RevertBatch reverses every completed move of a batch, newest first. Entries
// already reverted count as skipped so the call can be repeated; other
// failures are collected and do not stop the sweep.
func (s *FOService) RevertBatch(ctx context.Context, batchID string) (*BatchRevertResult, error) {
	ops, err := s.catalog.FindRevertibleMoves(batchID)
	if err != nil {
		return nil, fmt.Errorf("selecting batch moves: %w", err)
	}

	result := &BatchRevertResult{
		BatchID:         batchID,
		RevertBatchID:   s.idgen.New(),
		TotalOperations: len(ops),
		Errors:          []RevertFailure{},
	}
	s.logger.Info("batch revert started", "batch", batchID, "operations", len(ops))

	for _, op := range ops {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("batch revert cancelled: %w", err)
		}

		if _, err := s.revertOne(op.ID, result.RevertBatchID); err != nil {
			if errors.Is(err, ErrAlreadyReverted) {
				result.Skipped++
				continue
			}
			result.Failed++
			result.Errors = append(result.Errors, RevertFailure{OperationID: op.ID, Error: err.Error()})
			s.logger.Warn("revert failed", "operation", op.ID, "error", err)
			continue
		}
		result.Reverted++
	}

	s.logger.Info("batch revert complete", "batch", batchID, "reverted", result.Reverted, "failed", result.Failed, "skipped", result.Skipped)
	return result, nil
}

// CanRevert runs the revert preconditions against op without changing
// anything.
func (s *FOService) CanRevert(op *sqlc.Operation) *RevertCheck {
	check := &RevertCheck{
		OperationID: op.ID,
		Source:      op.SourcePath,
		Destination: op.DestinationPath.String,
	}
	if err := s.checkRevert(op); err != nil {
		check.Reason = err.Error()
		return check
	}
	check.CanRevert = true
	return check
}

// PreviewBatchRevert runs CanRevert over the moves RevertBatch would visit,
// in the same order.
func (s *FOService) PreviewBatchRevert(batchID string) ([]*RevertCheck, error) {
	ops, err := s.catalog.FindRevertibleMoves(batchID)
	if err != nil {
		return nil, fmt.Errorf("selecting batch moves: %w", err)
	}
	checks := make([]*RevertCheck, 0, len(ops))
	for _, op := range ops {
		checks = append(checks, s.CanRevert(op))
	}
	return checks, nil
}

// checkRevert returns the first violated precondition, wrapped around one of
// the Err* sentinels where one applies.
func (s *FOService) checkRevert(op *sqlc.Operation) error {
	if op.Kind != OpMove {
		return fmt.Errorf("operation %d is %q: %w", op.ID, op.Kind, ErrNotMoveOperation)
	}
	if op.Status == OpStatusReverted {
		return fmt.Errorf("operation %d: %w", op.ID, ErrAlreadyReverted)
	}
	if op.DryRun {
		return fmt.Errorf("operation %d: %w", op.ID, ErrDryRunOperation)
	}
	if op.Status != OpStatusCompleted {
		return fmt.Errorf("operation %d has status %q", op.ID, op.Status)
	}
	if !op.DestinationPath.Valid {
		return fmt.Errorf("operation %d has no destination: %w", op.ID, ErrFileMissing)
	}
	dest := op.DestinationPath.String

	exists, err := s.fsmgr.Exists(dest)
	if err != nil {
		return fmt.Errorf("checking destination: %w", err)
	}
	if !exists {
		return fmt.Errorf("%s: %w", dest, ErrFileMissing)
	}

	if op.ContentHash.Valid {
		live, err := s.hasher.FingerprintFile(dest)
		if err != nil {
			return fmt.Errorf("verifying content: %w", err)
		}
		if live != op.ContentHash.String {
			return fmt.Errorf("%s: %w", dest, ErrContentModified)
		}
	}

	// A file organized in place is its own original.
	if inPlace(op) {
		return nil
	}

	occupied, err := s.fsmgr.Exists(op.SourcePath)
	if err != nil {
		return fmt.Errorf("checking original path: %w", err)
	}
	if occupied {
		return fmt.Errorf("%s: %w", op.SourcePath, ErrOriginalOccupied)
	}
	return nil
}

func (s *FOService) revertOne(opID int64, revertBatchID string) (*RevertResult, error) {
	op, err := s.catalog.FindOperationByID(opID)
	if err != nil {
		return nil, fmt.Errorf("loading operation: %w", err)
	}
	if op == nil {
		return nil, fmt.Errorf("operation not found: %d", opID)
	}

	if err := s.checkRevert(op); err != nil {
		return nil, err
	}

	dest := op.DestinationPath.String
	original := op.SourcePath

	if !inPlace(op) {
		if err := s.fsmgr.MkdirAll(filepath.Dir(original)); err != nil {
			return nil, fmt.Errorf("creating original directory: %w", err)
		}
		if err := s.fsmgr.Move(dest, original); err != nil {
			if errors.Is(err, ErrDestinationExists) {
				return nil, fmt.Errorf("%s: %w", original, ErrOriginalOccupied)
			}
			return nil, fmt.Errorf("moving file back: %w", err)
		}
	}

	if op.FileID.Valid {
		if err := s.catalog.MarkFileReverted(op.FileID.Int64, original, s.now()); err != nil {
			return nil, s.undoRevert(op, fmt.Errorf("updating catalog entry: %w", err), false)
		}
	}

	changed, err := s.catalog.MarkOperationReverted(op.ID)
	if err != nil {
		return nil, s.undoRevert(op, fmt.Errorf("marking operation reverted: %w", err), op.FileID.Valid)
	}
	if !changed {
		return nil, s.undoRevert(op, fmt.Errorf("operation %d: %w", op.ID, ErrAlreadyReverted), op.FileID.Valid)
	}

	entry, err := s.appendOperation(&sqlc.Operation{
		BatchID:         revertBatchID,
		FileID:          op.FileID,
		Kind:            OpRevert,
		SourcePath:      dest,
		DestinationPath: nullString(original),
		ContentHash:     op.ContentHash,
		Reason:          fmt.Sprintf("reverted operation #%d", op.ID),
		Status:          OpStatusCompleted,
	})
	if err != nil {
		// The reversal itself is complete and recorded on the move entry.
		s.logger.Error("recording revert entry failed", "operation", op.ID, "error", err)
		entry = &sqlc.Operation{}
	}

	if !inPlace(op) {
		if err := s.fsmgr.PruneEmptyParents(filepath.Dir(dest), dates.DestinationBase(dest)); err != nil {
			s.logger.Debug("pruning empty directories failed", "path", filepath.Dir(dest), "error", err)
		}
	}

	s.logger.Info("move reverted", "operation", op.ID, "from", dest, "to", original)
	return &RevertResult{
		OperationID:       op.ID,
		FileID:            op.FileID.Int64,
		RestoredPath:      original,
		RevertBatchID:     revertBatchID,
		RevertOperationID: entry.ID,
	}, nil
}

// undoRevert puts the file back at the move's destination after a failed
// catalog update, restoring the record's moved state if it had been changed.
// It returns cause, joined with any failure of the undo itself.
func (s *FOService) undoRevert(op *sqlc.Operation, cause error, restoreRecord bool) error {
	dest := op.DestinationPath.String
	if !inPlace(op) {
		if err := s.fsmgr.Move(op.SourcePath, dest); err != nil {
			s.logger.Error("undoing revert failed", "operation", op.ID, "error", err)
			return errors.Join(cause, fmt.Errorf("moving file back to destination: %w", err))
		}
	}
	if restoreRecord {
		if err := s.catalog.MarkFileMoved(op.FileID.Int64, dest, s.now()); err != nil {
			s.logger.Error("restoring catalog entry failed", "operation", op.ID, "error", err)
			return errors.Join(cause, fmt.Errorf("restoring catalog entry: %w", err))
		}
	}
	return cause
}

// inPlace reports whether a move entry left the file where it was, which
// happens when a pending file already sat at its computed destination.
func inPlace(op *sqlc.Operation) bool {
	return filepath.Clean(op.SourcePath) == filepath.Clean(op.DestinationPath.String)
}
