package fo

import (
	"encoding/json"
	"fmt"
	"time"
)

// File lifecycle statuses.
const (
	StatusPending   = "pending"
	StatusMoved     = "moved"
	StatusDuplicate = "duplicate"
	StatusError     = "error"
)

// Ledger operation kinds.
const (
	OpScan      = "scan"
	OpMove      = "move"
	OpSkip      = "skip"
	OpDuplicate = "duplicate"
	OpError     = "error"
	OpRevert    = "revert"
)

// Ledger entry statuses. The only permitted transition is completed -> reverted.
const (
	OpStatusCompleted = "completed"
	OpStatusReverted  = "reverted"
	OpStatusFailed    = "failed"
)

// Scan session statuses.
const (
	ScanInProgress = "in_progress"
	ScanCompleted  = "completed"
	ScanError      = "error"
)

// Error record categories.
const (
	ErrCategoryNotFound   = "not_found"
	ErrCategoryPermission = "permission"
	ErrCategoryIO         = "io"
	ErrCategoryCatalog    = "catalog"
	ErrCategoryHash       = "hash"
	ErrCategoryMove       = "move"
	ErrCategoryDirectory  = "directory"
)

// Category is the coarse media class of a file, derived from its extension.
type Category string

const (
	CategoryImage    Category = "image"
	CategoryVideo    Category = "video"
	CategoryDocument Category = "document"
	CategoryOther    Category = "other"
)

// FileStat is the filesystem view of a single path.
type FileStat struct {
	Size        int64
	CreatedAt   *time.Time // nil when the filesystem does not record birth time
	ModifiedAt  time.Time
	IsFile      bool
	IsDirectory bool
}

// Classification is the extension-derived identity of a file.
type Classification struct {
	Extension string // lowercase, without the leading dot
	Category  Category
}

// Fingerprints holds the full-content and prefix digests of a file.
type Fingerprints struct {
	Full   string
	Prefix string
}

// ExtractionKind discriminates the Extraction union.
type ExtractionKind string

const (
	ExtractionNone        ExtractionKind = "none"
	ExtractionImageExif   ExtractionKind = "image_exif"
	ExtractionUnsupported ExtractionKind = "unsupported"
)

// Extraction is the outcome of embedded-metadata extraction for one file.
// Exif is set only when Kind is ExtractionImageExif.
type Extraction struct {
	Kind ExtractionKind `json:"kind"`
	Exif *ExifData      `json:"exif,omitempty"`
}

// ExifData holds the EXIF fields the catalog keeps.
type ExifData struct {
	CaptureTime  *time.Time `json:"capture_time,omitempty"`
	CaptureField string     `json:"capture_field,omitempty"`
	Make         string     `json:"make,omitempty"`
	Model        string     `json:"model,omitempty"`
	Width        int        `json:"width,omitempty"`
	Height       int        `json:"height,omitempty"`
	Orientation  int        `json:"orientation,omitempty"`
	Latitude     *float64   `json:"latitude,omitempty"`
	Longitude    *float64   `json:"longitude,omitempty"`
}

// EmbeddedDate returns the capture time carried by the extraction, if any.
func (e Extraction) EmbeddedDate() *time.Time {
	if e.Kind != ExtractionImageExif || e.Exif == nil {
		return nil
	}
	return e.Exif.CaptureTime
}

// Encode serializes the extraction for the catalog's metadata column.
func (e Extraction) Encode() (string, error) {
	if e.Kind == "" {
		e.Kind = ExtractionNone
	}
	data, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("encoding extraction: %w", err)
	}
	return string(data), nil
}

// DecodeExtraction parses a metadata column value. Empty input decodes to
// ExtractionNone.
func DecodeExtraction(raw string) (Extraction, error) {
	if raw == "" {
		return Extraction{Kind: ExtractionNone}, nil
	}
	var e Extraction
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return Extraction{}, fmt.Errorf("decoding extraction: %w", err)
	}
	switch e.Kind {
	case ExtractionNone, ExtractionUnsupported:
		e.Exif = nil
	case ExtractionImageExif:
	default:
		return Extraction{}, fmt.Errorf("unknown extraction kind: %q", e.Kind)
	}
	return e, nil
}

// FileQuery filters and paginates catalog listings.
type FileQuery struct {
	Status string // empty matches all statuses
	Search string // case-insensitive substring of filename or original path
	Limit  int
	Offset int
}
