package api

import (
	"encoding/json"
	"time"

	"fo-go/internal/database/sqlc"
	"fo-go/internal/fo"
)

// JSON shapes for catalog rows. Nullable columns become omitted fields.

type fileView struct {
	ID           int64           `json:"id"`
	OriginalPath string          `json:"original_path"`
	CurrentPath  string          `json:"current_path,omitempty"`
	Filename     string          `json:"filename"`
	Extension    string          `json:"extension"`
	Size         int64           `json:"size"`
	ContentHash  string          `json:"content_hash,omitempty"`
	MimeType     string          `json:"mime_type,omitempty"`
	Category     string          `json:"category"`
	FsCreatedAt  *time.Time      `json:"fs_created_at,omitempty"`
	FsModifiedAt *time.Time      `json:"fs_modified_at,omitempty"`
	MetadataDate *time.Time      `json:"metadata_date,omitempty"`
	ResolvedDate time.Time       `json:"resolved_date"`
	DateSource   string          `json:"date_source"`
	Status       string          `json:"status"`
	DuplicateOf  int64           `json:"duplicate_of,omitempty"`
	Metadata     json.RawMessage `json:"metadata,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func newFileView(f *sqlc.File) fileView {
	v := fileView{
		ID:           f.ID,
		OriginalPath: f.OriginalPath,
		CurrentPath:  f.CurrentPath.String,
		Filename:     f.Filename,
		Extension:    f.Extension,
		Size:         f.Size,
		ContentHash:  f.ContentHash.String,
		MimeType:     f.MimeType.String,
		Category:     f.Category,
		ResolvedDate: f.ResolvedDate,
		DateSource:   f.DateSource,
		Status:       f.Status,
		DuplicateOf:  f.DuplicateOf.Int64,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
	if f.FsCreatedAt.Valid {
		v.FsCreatedAt = &f.FsCreatedAt.Time
	}
	if f.FsModifiedAt.Valid {
		v.FsModifiedAt = &f.FsModifiedAt.Time
	}
	if f.MetadataDate.Valid {
		v.MetadataDate = &f.MetadataDate.Time
	}
	if json.Valid([]byte(f.Metadata)) {
		v.Metadata = json.RawMessage(f.Metadata)
	}
	return v
}

func newFileViews(files []*sqlc.File) []fileView {
	out := make([]fileView, 0, len(files))
	for _, f := range files {
		out = append(out, newFileView(f))
	}
	return out
}

type operationView struct {
	ID              int64     `json:"id"`
	BatchID         string    `json:"batch_id"`
	FileID          int64     `json:"file_id,omitempty"`
	Kind            string    `json:"kind"`
	SourcePath      string    `json:"source_path"`
	DestinationPath string    `json:"destination_path,omitempty"`
	ContentHash     string    `json:"content_hash,omitempty"`
	Reason          string    `json:"reason,omitempty"`
	Status          string    `json:"status"`
	DryRun          bool      `json:"dry_run"`
	CreatedAt       time.Time `json:"created_at"`
}

func newOperationViews(ops []*sqlc.Operation) []operationView {
	out := make([]operationView, 0, len(ops))
	for _, op := range ops {
		out = append(out, operationView{
			ID:              op.ID,
			BatchID:         op.BatchID,
			FileID:          op.FileID.Int64,
			Kind:            op.Kind,
			SourcePath:      op.SourcePath,
			DestinationPath: op.DestinationPath.String,
			ContentHash:     op.ContentHash.String,
			Reason:          op.Reason,
			Status:          op.Status,
			DryRun:          op.DryRun,
			CreatedAt:       op.CreatedAt,
		})
	}
	return out
}

type errorView struct {
	ID        int64     `json:"id"`
	FileID    int64     `json:"file_id,omitempty"`
	Path      string    `json:"path"`
	Category  string    `json:"category"`
	Message   string    `json:"message"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func newErrorViews(errs []*sqlc.FileError) []errorView {
	out := make([]errorView, 0, len(errs))
	for _, e := range errs {
		out = append(out, errorView{
			ID:        e.ID,
			FileID:    e.FileID.Int64,
			Path:      e.Path,
			Category:  e.Category,
			Message:   e.Message,
			Detail:    e.Detail.String,
			CreatedAt: e.CreatedAt,
		})
	}
	return out
}

type duplicateGroupView struct {
	ContentHash string     `json:"content_hash"`
	Original    fileView   `json:"original"`
	Duplicates  []fileView `json:"duplicates"`
	WastedBytes int64      `json:"wasted_bytes"`
}

func newDuplicateGroupViews(groups []*fo.DuplicateGroup) []duplicateGroupView {
	out := make([]duplicateGroupView, 0, len(groups))
	for _, g := range groups {
		out = append(out, duplicateGroupView{
			ContentHash: g.ContentHash,
			Original:    newFileView(g.Original),
			Duplicates:  newFileViews(g.Duplicates),
			WastedBytes: g.WastedBytes(),
		})
	}
	return out
}
