package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fo-go/internal/config"
	"fo-go/internal/fo"
	"fo-go/internal/testutil"
)

// testConfig returns a config rooted in a temp dir with an on-disk catalog
// and archiving to a filesystem vault with the test encryptor.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.NewConfig("test-host", t.TempDir())
	cfg.Archive.Enabled = true
	cfg.Archive.Encryption = config.EncryptionConfig{Type: "test"}
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) *FOApp {
	t.Helper()
	a, err := NewFOApp(cfg, "Test", false)
	if err != nil {
		t.Fatalf("NewFOApp() error = %v", err)
	}
	return a
}

func waitIdle(t *testing.T, a *FOApp) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := a.guard.Active(); !ok {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("operation did not finish")
}

func sourceTree(t *testing.T) string {
	t.Helper()
	src := t.TempDir()
	testutil.WriteFile(t, filepath.Join(src, "a.txt"), "alpha")
	testutil.WriteFile(t, filepath.Join(src, "b.txt"), "beta")
	testutil.WriteFile(t, filepath.Join(src, "nested", "copy.txt"), "alpha")
	return src
}

func TestNewFOApp(t *testing.T) {
	t.Run("migrates a fresh catalog", func(t *testing.T) {
		cfg := testConfig(t)
		a := newTestApp(t, cfg)
		defer a.Close()

		stats, err := a.CatalogStats()
		if err != nil {
			t.Fatalf("CatalogStats() error = %v", err)
		}
		if stats.Total != 0 {
			t.Errorf("Total = %d, want 0", stats.Total)
		}
		if _, err := os.Stat(filepath.Join(cfg.LogDir, "fo.log")); err != nil {
			t.Errorf("log file missing: %v", err)
		}
	})

	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{
			name:    "unknown database type",
			mutate:  func(c *config.Config) { c.Database.Type = "postgres" },
			wantErr: "creating catalog",
		},
		{
			name:    "bad timezone",
			mutate:  func(c *config.Config) { c.Scan.Timezone = "Nowhere/Special" },
			wantErr: "timezone",
		},
		{
			name:    "unknown category",
			mutate:  func(c *config.Config) { c.Categories = map[string]string{"xyz": "spreadsheet"} },
			wantErr: "metadata extractor",
		},
		{
			name:    "unknown vault type",
			mutate:  func(c *config.Config) { c.Archive.Vault.Type = "tape" },
			wantErr: "creating vault",
		},
		{
			name:    "age without key paths",
			mutate:  func(c *config.Config) { c.Archive.Encryption = config.EncryptionConfig{Type: "age"} },
			wantErr: "creating encryptor",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.mutate(cfg)
			a, err := NewFOApp(cfg, "Test", false)
			if err == nil {
				a.Close()
				t.Fatal("NewFOApp() expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("NewFOApp() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestSkipPatterns(t *testing.T) {
	dir := t.TempDir()
	ignore := testutil.WriteFile(t, filepath.Join(dir, "ignore"), "# comment\n*.tmp\nbuild/\n")

	files, dirs, err := skipPatterns(config.ScanConfig{
		SkipFiles:  []string{"*.bak"},
		SkipDirs:   []string{"cache"},
		IgnoreFile: ignore,
	})
	if err != nil {
		t.Fatalf("skipPatterns() error = %v", err)
	}
	if strings.Join(files, ",") != "*.bak,# comment,*.tmp" {
		t.Errorf("files = %v", files)
	}
	if strings.Join(dirs, ",") != "cache,build" {
		t.Errorf("dirs = %v", dirs)
	}

	files, _, err = skipPatterns(config.ScanConfig{IgnoreFile: filepath.Join(dir, "missing")})
	if err != nil {
		t.Fatalf("skipPatterns() missing file error = %v", err)
	}
	if len(files) != 0 {
		t.Errorf("files = %v, want none", files)
	}
}

func TestFOApp_ScanOrganizeRevert(t *testing.T) {
	a := newTestApp(t, testConfig(t))
	defer a.Close()
	ctx := context.Background()
	src := sourceTree(t)
	dest := t.TempDir()

	var snapshots int
	res, err := a.Scan(ctx, src, true, func(fo.ScanProgress) { snapshots++ })
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if res.NewFiles != 3 {
		t.Errorf("NewFiles = %d, want 3", res.NewFiles)
	}
	if snapshots == 0 {
		t.Error("no progress callbacks")
	}

	status, err := a.ScanStatus()
	if err != nil {
		t.Fatalf("ScanStatus() error = %v", err)
	}
	if status.SessionID != res.SessionID || status.Status != fo.ScanCompleted || status.CompletedAt == nil {
		t.Errorf("ScanStatus() = %+v", status)
	}

	mark, err := a.MarkDuplicates(ctx)
	if err != nil {
		t.Fatalf("MarkDuplicates() error = %v", err)
	}
	if mark.Marked != 1 {
		t.Errorf("Marked = %d, want 1", mark.Marked)
	}

	preview, err := a.Preview(dest, nil)
	if err != nil {
		t.Fatalf("Preview() error = %v", err)
	}
	if len(preview) != 2 {
		t.Errorf("Preview() = %d entries, want 2", len(preview))
	}

	batch, err := a.Organize(ctx, OrganizeRequest{Destination: dest}, nil)
	if err != nil {
		t.Fatalf("Organize() error = %v", err)
	}
	if batch.MovedFiles != 2 {
		t.Errorf("MovedFiles = %d, want 2", batch.MovedFiles)
	}
	if testutil.Exists(filepath.Join(src, "a.txt")) {
		t.Error("a.txt still at source")
	}

	orgStatus := a.OrganizeStatus()
	if orgStatus == nil || orgStatus.Active || orgStatus.BatchID != batch.BatchID || orgStatus.Result == nil {
		t.Fatalf("OrganizeStatus() = %+v", orgStatus)
	}

	checks, err := a.PreviewBatchRevert(batch.BatchID)
	if err != nil {
		t.Fatalf("PreviewBatchRevert() error = %v", err)
	}
	if len(checks) != 2 || !checks[0].CanRevert {
		t.Errorf("PreviewBatchRevert() = %+v", checks)
	}

	reverted, err := a.RevertBatch(ctx, batch.BatchID)
	if err != nil {
		t.Fatalf("RevertBatch() error = %v", err)
	}
	if reverted.Reverted != 2 {
		t.Errorf("Reverted = %d, want 2", reverted.Reverted)
	}
	if got := testutil.ReadFile(t, filepath.Join(src, "a.txt")); got != "alpha" {
		t.Errorf("a.txt = %q after revert", got)
	}
}

func TestFOApp_Background(t *testing.T) {
	a := newTestApp(t, testConfig(t))
	defer a.Close()
	src := sourceTree(t)

	id, err := a.StartScan(src, true)
	if err != nil {
		t.Fatalf("StartScan() error = %v", err)
	}
	waitIdle(t, a)

	status, err := a.ScanStatus()
	if err != nil {
		t.Fatalf("ScanStatus() error = %v", err)
	}
	if status.SessionID != id || status.NewFiles != 3 || status.SourcePath == "" {
		t.Errorf("ScanStatus() = %+v", status)
	}

	if got := a.OrganizeStatus(); got != nil {
		t.Errorf("OrganizeStatus() before any batch = %+v", got)
	}

	batchID, err := a.StartOrganize(OrganizeRequest{Destination: t.TempDir(), DryRun: true})
	if err != nil {
		t.Fatalf("StartOrganize() error = %v", err)
	}
	waitIdle(t, a)

	org := a.OrganizeStatus()
	if org.BatchID != batchID || org.Result == nil || !org.Result.DryRun {
		t.Errorf("OrganizeStatus() = %+v", org)
	}
	if org.Progress == nil || org.Progress.ProcessedFiles != org.Progress.TotalFiles {
		t.Errorf("Progress = %+v", org.Progress)
	}

	if _, err := a.StartOrganize(OrganizeRequest{}); err == nil {
		t.Error("StartOrganize() without destination expected error")
	}
}

func TestFOApp_Guard(t *testing.T) {
	a := newTestApp(t, testConfig(t))
	defer a.Close()
	ctx := context.Background()
	src := sourceTree(t)

	op, _, err := a.guard.Begin(ctx, KindOrganize, "held")
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	if _, err := a.Scan(ctx, src, true, nil); !errors.Is(err, ErrOperationActive) {
		t.Errorf("Scan() error = %v, want ErrOperationActive", err)
	}
	if _, err := a.StartScan(src, true); !errors.Is(err, ErrOperationActive) {
		t.Errorf("StartScan() error = %v, want ErrOperationActive", err)
	}
	if _, err := a.RevertBatch(ctx, "b"); !errors.Is(err, ErrOperationActive) {
		t.Errorf("RevertBatch() error = %v, want ErrOperationActive", err)
	}
	if _, err := a.MarkDuplicates(ctx); !errors.Is(err, ErrOperationActive) {
		t.Errorf("MarkDuplicates() error = %v, want ErrOperationActive", err)
	}

	// Reads are never guarded.
	if _, err := a.GetHistory(10); err != nil {
		t.Errorf("GetHistory() error = %v", err)
	}

	if !a.CancelActive() {
		t.Error("CancelActive() = false")
	}
	op.Finish(nil, nil)
	if _, err := a.Scan(ctx, src, true, nil); err != nil {
		t.Errorf("Scan() after release error = %v", err)
	}
}

func TestFOApp_Archive(t *testing.T) {
	cfg := testConfig(t)
	src := sourceTree(t)

	a := newTestApp(t, cfg)
	if _, err := a.Scan(context.Background(), src, true, nil); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	localMax, err := a.catalog.Revision()
	if err != nil {
		t.Fatalf("Revision() error = %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	t.Run("close stores a snapshot", func(t *testing.T) {
		var buf bytes.Buffer
		version, err := FetchArchive(cfg, &buf, "any")
		if err != nil {
			t.Fatalf("FetchArchive() error = %v", err)
		}
		if version != localMax || version == 0 {
			t.Errorf("version = %d, want %d", version, localMax)
		}
		if !strings.HasPrefix(buf.String(), "SQLite format 3\x00") {
			t.Errorf("archive is not a SQLite database: %q", buf.String()[:16])
		}
	})

	t.Run("catalog behind archive is refused", func(t *testing.T) {
		behind := *cfg
		behind.Database = config.DatabaseConfig{Type: "memory"}
		behind.LogDir = t.TempDir()
		_, err := NewFOApp(&behind, "Test", false)
		if err == nil || !strings.Contains(err.Error(), "behind archive") {
			t.Errorf("NewFOApp() error = %v, want behind archive", err)
		}
	})

	t.Run("same catalog reopens", func(t *testing.T) {
		again := newTestApp(t, cfg)
		if err := again.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})

	t.Run("validate", func(t *testing.T) {
		if err := ValidateArchive(cfg); err != nil {
			t.Errorf("ValidateArchive() error = %v", err)
		}
	})
}

func TestArchiveCommands_Disabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Archive.Enabled = false

	if _, err := FetchArchive(cfg, &bytes.Buffer{}, ""); !errors.Is(err, ErrArchiveDisabled) {
		t.Errorf("FetchArchive() error = %v, want ErrArchiveDisabled", err)
	}
	if err := SetupArchiveKeys(cfg, "pw"); !errors.Is(err, ErrArchiveDisabled) {
		t.Errorf("SetupArchiveKeys() error = %v, want ErrArchiveDisabled", err)
	}
	if err := ValidateArchive(cfg); !errors.Is(err, ErrArchiveDisabled) {
		t.Errorf("ValidateArchive() error = %v, want ErrArchiveDisabled", err)
	}

	// Nothing is archived when disabled.
	a := newTestApp(t, cfg)
	if _, err := a.Scan(context.Background(), sourceTree(t), true, nil); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	cfg.Archive.Enabled = true
	if _, err := FetchArchive(cfg, &bytes.Buffer{}, ""); err == nil || !strings.Contains(err.Error(), "no catalog archive") {
		t.Errorf("FetchArchive() error = %v, want no catalog archive", err)
	}
}

func TestSetupArchiveKeys(t *testing.T) {
	t.Run("age writes key pair", func(t *testing.T) {
		cfg := config.NewConfig("h", t.TempDir())
		cfg.Archive.Enabled = true
		if err := SetupArchiveKeys(cfg, "secret"); err != nil {
			t.Fatalf("SetupArchiveKeys() error = %v", err)
		}
		for _, p := range []string{cfg.Archive.Encryption.PublicKeyPath, cfg.Archive.Encryption.PrivateKeyPath} {
			if !testutil.Exists(p) {
				t.Errorf("%s not written", p)
			}
		}
	})

	t.Run("none has no keys", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Archive.Encryption = config.EncryptionConfig{Type: "none"}
		if err := SetupArchiveKeys(cfg, "secret"); err == nil {
			t.Error("SetupArchiveKeys() expected error")
		}
	})
}
