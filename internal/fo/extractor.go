package fo

import "context"

// MetadataExtractor reads what the filesystem and the file content say about a
// file. All operations are read-only.
type MetadataExtractor interface {
	// Stat fails if path does not exist.
	Stat(path string) (*FileStat, error)

	// Classify maps the extension onto a category using the static table.
	Classify(path string) Classification

	// MimeType sniffs the content signature, falling back to an extension
	// guess. Returns "" when neither yields an answer.
	MimeType(path string) string

	// Extract pulls embedded metadata for the given category. It never fails:
	// unreadable or absent metadata yields ExtractionNone.
	Extract(path string, category Category) Extraction

	ShouldSkipFile(name string) bool
	ShouldSkipDirectory(name string) bool
}

// Hasher computes content fingerprints.
type Hasher interface {
	// FingerprintFile digests the full content of the file at path.
	FingerprintFile(path string) (string, error)

	// Fingerprints computes the full and prefix digests of a file of the given
	// size. When size does not exceed the prefix length both are equal and the
	// file is read once.
	Fingerprints(ctx context.Context, path string, size int64) (Fingerprints, error)
}
