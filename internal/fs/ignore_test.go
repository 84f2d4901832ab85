package fs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewSkipMatcher(t *testing.T) {
	t.Run("skips blank lines and comments", func(t *testing.T) {
		t.Parallel()
		m := NewSkipMatcher([]string{"", "  ", "# comment", "*.log"}, nil)
		if len(m.files) != len(defaultSkipFiles)+1 {
			t.Fatalf("expected %d patterns, got %d", len(defaultSkipFiles)+1, len(m.files))
		}
		if m.files[0] != "*.log" {
			t.Errorf("expected *.log, got %s", m.files[0])
		}
	})
}

func TestSkipMatcher_SkipFile(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		file     string
		want     bool
	}{
		{"regular file", nil, "IMG_0001.jpg", false},
		{"hidden file", nil, ".hidden", true},
		{"os artifact", nil, ".DS_Store", true},
		{"windows thumbnail cache", nil, "Thumbs.db", true},
		{"configured glob", []string{"*.tmp"}, "upload.tmp", true},
		{"configured glob does not match other extension", []string{"*.tmp"}, "upload.jpg", false},
		{"question mark wildcard", []string{"?.txt"}, "a.txt", true},
		{"question mark does not match multiple chars", []string{"?.txt"}, "ab.txt", false},
		{"character class", []string{"*.[oa]"}, "main.o", true},
		{"empty name", []string{"*"}, "", false},
		{"bad pattern is ignored", []string{"[", "*.log"}, "x.log", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := NewSkipMatcher(tt.patterns, nil)
			if got := m.SkipFile(tt.file); got != tt.want {
				t.Errorf("SkipFile(%q) = %v, want %v", tt.file, got, tt.want)
			}
		})
	}
}

func TestSkipMatcher_SkipDirectory(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		dir      string
		want     bool
	}{
		{"regular directory", nil, "Photos", false},
		{"vcs directory", nil, ".git", true},
		{"dependency cache", nil, "node_modules", true},
		{"python cache", nil, "__pycache__", true},
		{"hidden directory", nil, ".config", true},
		{"configured pattern", []string{"backup-*"}, "backup-2024", true},
		{"file patterns do not apply", nil, "Thumbs.db", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := NewSkipMatcher(nil, tt.patterns)
			if got := m.SkipDirectory(tt.dir); got != tt.want {
				t.Errorf("SkipDirectory(%q) = %v, want %v", tt.dir, got, tt.want)
			}
		})
	}
}

func TestParseIgnoreFile(t *testing.T) {
	t.Run("reads patterns from file", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		path := filepath.Join(dir, "skip")
		content := "*.log\n# comment\n\n*.tmp\nscratch\n"
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("writing test file: %v", err)
		}

		patterns, err := ParseIgnoreFile(path)
		if err != nil {
			t.Fatalf("ParseIgnoreFile() error = %v", err)
		}
		if len(patterns) != 5 { // includes blank and comment lines; filtering is NewSkipMatcher's job
			t.Fatalf("expected 5 raw lines, got %d", len(patterns))
		}

		m := NewSkipMatcher(patterns, nil)
		if len(m.files) != len(defaultSkipFiles)+3 {
			t.Errorf("expected %d parsed patterns, got %d", len(defaultSkipFiles)+3, len(m.files))
		}
	})

	t.Run("returns nil for missing file", func(t *testing.T) {
		t.Parallel()
		patterns, err := ParseIgnoreFile("/nonexistent/skip")
		if err != nil {
			t.Fatalf("ParseIgnoreFile() error = %v", err)
		}
		if patterns != nil {
			t.Errorf("expected nil patterns, got %v", patterns)
		}
	})
}
