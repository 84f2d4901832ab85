package fs

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Built-in skip lists. Hidden names (leading '.') are skipped in addition.
var (
	defaultSkipFiles = []string{
		".DS_Store",
		"Thumbs.db",
		"desktop.ini",
		"ehthumbs.db",
		"Icon\r",
		".localized",
	}
	defaultSkipDirs = []string{
		".git",
		".svn",
		".hg",
		"node_modules",
		"__pycache__",
		".cache",
		".Trash",
		".Trashes",
		".Spotlight-V100",
		".fseventsd",
		"$RECYCLE.BIN",
		"System Volume Information",
		"@eaDir",
	}
)

// SkipMatcher decides which directory entries the scanner ignores.
// Patterns are filepath.Match globs applied to the entry name only.
type SkipMatcher struct {
	files []string
	dirs  []string
}

// NewSkipMatcher creates a SkipMatcher from the built-in lists plus extra
// file and directory patterns. Blank entries and entries starting with '#'
// are dropped.
func NewSkipMatcher(filePatterns, dirPatterns []string) *SkipMatcher {
	return &SkipMatcher{
		files: append(cleanPatterns(filePatterns), defaultSkipFiles...),
		dirs:  append(cleanPatterns(dirPatterns), defaultSkipDirs...),
	}
}

// SkipFile reports whether a file named name should be ignored.
func (m *SkipMatcher) SkipFile(name string) bool {
	return isHidden(name) || matchAny(m.files, name)
}

// SkipDirectory reports whether a directory named name should be ignored.
func (m *SkipMatcher) SkipDirectory(name string) bool {
	return isHidden(name) || matchAny(m.dirs, name)
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

func matchAny(patterns []string, name string) bool {
	if name == "" {
		return false
	}
	for _, p := range patterns {
		matched, err := filepath.Match(p, name)
		if err != nil {
			// Bad pattern: ignore it.
			continue
		}
		if matched {
			return true
		}
	}
	return false
}

func cleanPatterns(raw []string) []string {
	var patterns []string
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p == "" || strings.HasPrefix(p, "#") {
			continue
		}
		patterns = append(patterns, p)
	}
	return patterns
}

// ParseIgnoreFile reads a skip-pattern file and returns the raw lines.
// Returns nil and no error if the file does not exist.
func ParseIgnoreFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening ignore file: %w", err)
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		patterns = append(patterns, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading ignore file: %w", err)
	}
	return patterns, nil
}
