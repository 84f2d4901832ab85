package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestManager_ReadWrite_RoundTrip(t *testing.T) {
	original := &Config{
		HostID:   "test-host-abc",
		BaseDir:  "/home/user/.local/share/fo",
		LogDir:   "/home/user/.local/share/fo/log",
		Database: DatabaseConfig{Type: "sqlite", DataDir: "/home/user/.local/share/fo/db"},
		Scan: ScanConfig{
			BatchSize:       25,
			PrefixHashBytes: 4096,
			Workers:         8,
			SkipFiles:       []string{"*.tmp"},
			SkipDirs:        []string{"build"},
			Timezone:        "Europe/Berlin",
		},
		Categories: map[string]string{"raw": "image"},
		Archive: ArchiveConfig{
			Enabled: true,
			Vault:   VaultConfig{Type: "s3", Name: "offsite", S3Bucket: "catalogs", S3Prefix: "fo", S3Region: "eu-central-1"},
			Encryption: EncryptionConfig{
				Type:           "age",
				PublicKeyPath:  "/home/user/.local/share/fo/keys/fo.pub",
				PrivateKeyPath: "/home/user/.local/share/fo/keys/fo.key",
			},
		},
		Server: ServerConfig{Addr: "0.0.0.0:9000"},
	}

	var buf bytes.Buffer
	m := &Manager{}

	if err := m.Write(&buf, original); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got.HostID != original.HostID {
		t.Errorf("HostID = %q, want %q", got.HostID, original.HostID)
	}
	if got.LogDir != original.LogDir {
		t.Errorf("LogDir = %q, want %q", got.LogDir, original.LogDir)
	}
	if got.Database != original.Database {
		t.Errorf("Database = %+v, want %+v", got.Database, original.Database)
	}
	if got.Scan.BatchSize != 25 || got.Scan.PrefixHashBytes != 4096 || got.Scan.Workers != 8 {
		t.Errorf("Scan = %+v", got.Scan)
	}
	if len(got.Scan.SkipFiles) != 1 || len(got.Scan.SkipDirs) != 1 {
		t.Errorf("skip patterns = %v / %v", got.Scan.SkipFiles, got.Scan.SkipDirs)
	}
	if got.Categories["raw"] != "image" {
		t.Errorf("Categories = %v", got.Categories)
	}
	if got.Archive.Vault != original.Archive.Vault {
		t.Errorf("Archive.Vault = %+v, want %+v", got.Archive.Vault, original.Archive.Vault)
	}
	if got.Archive.Encryption != original.Archive.Encryption {
		t.Errorf("Archive.Encryption = %+v, want %+v", got.Archive.Encryption, original.Archive.Encryption)
	}
	if !got.Archive.Enabled {
		t.Error("Archive.Enabled = false, want true")
	}
	if got.Server.Addr != "0.0.0.0:9000" {
		t.Errorf("Server.Addr = %q", got.Server.Addr)
	}
}

func TestManager_Read_Defaults(t *testing.T) {
	m := &Manager{}
	cfg, err := m.Read(strings.NewReader(`host_id = "h"`))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if cfg.Scan.BatchSize != DefaultBatchSize {
		t.Errorf("Scan.BatchSize = %d, want %d", cfg.Scan.BatchSize, DefaultBatchSize)
	}
	if cfg.Scan.PrefixHashBytes != DefaultPrefixHashBytes {
		t.Errorf("Scan.PrefixHashBytes = %d, want %d", cfg.Scan.PrefixHashBytes, DefaultPrefixHashBytes)
	}
	if cfg.Scan.Workers != DefaultWorkers {
		t.Errorf("Scan.Workers = %d, want %d", cfg.Scan.Workers, DefaultWorkers)
	}
	if cfg.Server.Addr != DefaultServerAddr {
		t.Errorf("Server.Addr = %q, want %q", cfg.Server.Addr, DefaultServerAddr)
	}
	if cfg.Archive.Encryption.Type != "none" {
		t.Errorf("Archive.Encryption.Type = %q, want none", cfg.Archive.Encryption.Type)
	}
	if cfg.Archive.Enabled {
		t.Error("Archive.Enabled = true, want false")
	}
}

func TestManager_Read_Invalid(t *testing.T) {
	m := &Manager{}
	if _, err := m.Read(strings.NewReader("host_id = ")); err == nil {
		t.Error("Read() expected error for malformed TOML")
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("host-1", "/data/fo")

	if cfg.HostID != "host-1" {
		t.Errorf("HostID = %q, want %q", cfg.HostID, "host-1")
	}
	if cfg.LogDir != "/data/fo/log" {
		t.Errorf("LogDir = %q, want %q", cfg.LogDir, "/data/fo/log")
	}
	if cfg.Database.DataDir != "/data/fo/db" {
		t.Errorf("Database.DataDir = %q, want %q", cfg.Database.DataDir, "/data/fo/db")
	}
	if cfg.Archive.Vault.FSVaultRoot != "/data/fo/vault" {
		t.Errorf("Archive.Vault.FSVaultRoot = %q, want %q", cfg.Archive.Vault.FSVaultRoot, "/data/fo/vault")
	}
	if cfg.Archive.Encryption.PublicKeyPath != "/data/fo/keys/fo.pub" {
		t.Errorf("Encryption.PublicKeyPath = %q", cfg.Archive.Encryption.PublicKeyPath)
	}
	if cfg.Archive.Encryption.PrivateKeyPath != "/data/fo/keys/fo.key" {
		t.Errorf("Encryption.PrivateKeyPath = %q", cfg.Archive.Encryption.PrivateKeyPath)
	}
	if cfg.Scan.BatchSize != DefaultBatchSize {
		t.Errorf("Scan.BatchSize = %d, want %d", cfg.Scan.BatchSize, DefaultBatchSize)
	}
}

func TestScanConfig_Location(t *testing.T) {
	loc, err := ScanConfig{}.Location()
	if err != nil || loc != time.Local {
		t.Errorf("Location() = %v, %v, want Local", loc, err)
	}

	loc, err = ScanConfig{Timezone: "UTC"}.Location()
	if err != nil || loc.String() != "UTC" {
		t.Errorf("Location() = %v, %v, want UTC", loc, err)
	}

	if _, err := (ScanConfig{Timezone: "Not/AZone"}).Location(); err == nil {
		t.Error("Location() expected error for unknown zone")
	}
}

func TestInit(t *testing.T) {
	t.Run("creates config file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "fo.toml")
		cfg := NewConfig("h1", dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		if _, err := os.Stat(path); err != nil {
			t.Fatalf("config file not created: %v", err)
		}
	})

	t.Run("fails if file already exists", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "fo.toml")
		cfg := NewConfig("h1", dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("first Init() error = %v", err)
		}

		err := Init(path, cfg)
		if err == nil {
			t.Fatal("second Init() expected error")
		}
	})
}

func TestReadFromFile(t *testing.T) {
	t.Run("reads valid config", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "fo.toml")
		cfg := NewConfig("read-test", dir)
		cfg.Database = DatabaseConfig{Type: "memory"}

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		got, err := ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if got.HostID != "read-test" {
			t.Errorf("HostID = %q, want %q", got.HostID, "read-test")
		}
		if got.Database.Type != "memory" {
			t.Errorf("Database.Type = %q, want memory", got.Database.Type)
		}
	})

	t.Run("returns error for missing file", func(t *testing.T) {
		_, err := ReadFromFile("/nonexistent/path/fo.toml")
		if err == nil {
			t.Fatal("ReadFromFile() expected error for missing file")
		}
	})
}
