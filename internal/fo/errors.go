package fo

import "errors"

// Revert precondition failures. They are returned wrapped; use errors.Is.
var (
	ErrNotMoveOperation = errors.New("operation is not a move")
	ErrAlreadyReverted  = errors.New("operation already reverted")
	ErrDryRunOperation  = errors.New("dry-run operations cannot be reverted")
	ErrFileMissing      = errors.New("file no longer exists at destination")
	ErrContentModified  = errors.New("file content modified since move")
	ErrOriginalOccupied = errors.New("original path is occupied")
)

// ErrDestinationExists is returned by FilesystemManager.Move when the target
// path is already taken.
var ErrDestinationExists = errors.New("destination already exists")
