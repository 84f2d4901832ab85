// Package metadata reads filesystem and embedded metadata for scanned files.
package metadata

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"fo-go/internal/fo"
	fofs "fo-go/internal/fs"
)

// Options customizes an Extractor. The zero value uses the built-in tables.
type Options struct {
	// Categories adds or overrides extension to category mappings. Keys may
	// carry a leading dot and any case.
	Categories map[string]string

	// SkipFiles and SkipDirs are glob patterns added to the built-in skip lists.
	SkipFiles []string
	SkipDirs  []string

	// Location is the zone for EXIF timestamps that carry no offset.
	// Defaults to time.Local.
	Location *time.Location
}

// Extractor implements fo.MetadataExtractor.
type Extractor struct {
	categories map[string]fo.Category
	skip       *fofs.SkipMatcher
	loc        *time.Location
}

// New builds an Extractor. It fails on an unknown category in opts.Categories.
func New(opts Options) (*Extractor, error) {
	categories := make(map[string]fo.Category, len(defaultCategories)+len(opts.Categories))
	for ext, c := range defaultCategories {
		categories[ext] = c
	}
	for ext, name := range opts.Categories {
		c, ok := ParseCategory(name)
		if !ok {
			return nil, fmt.Errorf("unknown category %q for extension %q", name, ext)
		}
		categories[normalizeExt(ext)] = c
	}

	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	return &Extractor{
		categories: categories,
		skip:       fofs.NewSkipMatcher(opts.SkipFiles, opts.SkipDirs),
		loc:        loc,
	}, nil
}

// Stat fails if path does not exist.
func (e *Extractor) Stat(path string) (*fo.FileStat, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	return &fo.FileStat{
		Size:        info.Size(),
		CreatedAt:   birthTime(path, info),
		ModifiedAt:  info.ModTime().UTC(),
		IsFile:      info.Mode().IsRegular(),
		IsDirectory: info.IsDir(),
	}, nil
}

func (e *Extractor) Classify(path string) fo.Classification {
	ext := normalizeExt(filepath.Ext(path))
	c, ok := e.categories[ext]
	if !ok {
		c = fo.CategoryOther
	}
	return fo.Classification{Extension: ext, Category: c}
}

// MimeType sniffs the content signature. When sniffing fails or only yields
// the generic binary type, the extension is consulted instead.
func (e *Extractor) MimeType(path string) string {
	var sniffed string
	if m, err := mimetype.DetectFile(path); err == nil {
		sniffed = stripParams(m.String())
	}
	if sniffed != "" && sniffed != "application/octet-stream" {
		return sniffed
	}
	if guess := stripParams(mime.TypeByExtension(filepath.Ext(path))); guess != "" {
		return guess
	}
	return sniffed
}

func (e *Extractor) ShouldSkipFile(name string) bool {
	return e.skip.SkipFile(name)
}

func (e *Extractor) ShouldSkipDirectory(name string) bool {
	return e.skip.SkipDirectory(name)
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

func stripParams(mediaType string) string {
	t, _, _ := strings.Cut(mediaType, ";")
	return strings.TrimSpace(t)
}

// Compile-time check that Extractor implements fo.MetadataExtractor interface
var _ fo.MetadataExtractor = (*Extractor)(nil)
