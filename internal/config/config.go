package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Defaults applied to zero-valued fields by ApplyDefaults.
const (
	DefaultBatchSize       = 100
	DefaultPrefixHashBytes = 64 * 1024
	DefaultWorkers         = 4
	DefaultServerAddr      = "127.0.0.1:8420"
)

// Config represents the main configuration for fo.
type Config struct {
	HostID     string            `toml:"host_id"`
	BaseDir    string            `toml:"base_dir"`
	LogDir     string            `toml:"log_dir"`
	Database   DatabaseConfig    `toml:"database"`
	Scan       ScanConfig        `toml:"scan"`
	Categories map[string]string `toml:"categories,omitempty"` // extension -> category overrides
	Archive    ArchiveConfig     `toml:"archive"`
	Server     ServerConfig      `toml:"server"`
}

// DatabaseConfig represents configuration for the catalog database.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type DatabaseConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// ScanConfig tunes the scanner. Skip patterns are added to the built-in lists.
type ScanConfig struct {
	BatchSize       int      `toml:"batch_size"`
	PrefixHashBytes int64    `toml:"prefix_hash_bytes"`
	Workers         int      `toml:"workers"`
	SkipFiles       []string `toml:"skip_files,omitempty"`
	SkipDirs        []string `toml:"skip_dirs,omitempty"`
	// IgnoreFile names a gitignore-style file of extra skip patterns.
	IgnoreFile string `toml:"ignore_file,omitempty"`
	// Timezone is used for EXIF timestamps that carry no offset. Empty means local time.
	Timezone string `toml:"timezone,omitempty"`
}

// Location resolves Timezone.
func (s ScanConfig) Location() (*time.Location, error) {
	if s.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", s.Timezone, err)
	}
	return loc, nil
}

// ArchiveConfig controls off-machine snapshots of the catalog.
type ArchiveConfig struct {
	Enabled    bool             `toml:"enabled"`
	Vault      VaultConfig      `toml:"vault"`
	Encryption EncryptionConfig `toml:"encryption"`
}

// VaultConfig represents configuration for a vault backend.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type VaultConfig struct {
	Type string `toml:"type"` // "memory", "s3", or "filesystem"
	Name string `toml:"name"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket   string `toml:"s3_bucket,omitempty"`
	S3Prefix   string `toml:"s3_prefix,omitempty"`
	S3Region   string `toml:"s3_region,omitempty"`
	S3Endpoint string `toml:"s3_endpoint,omitempty"` // S3-compatible services; enables path-style addressing
	// Static credentials; the default AWS credential chain is used when empty.
	S3AccessKeyID     string `toml:"s3_access_key_id,omitempty"`
	S3SecretAccessKey string `toml:"s3_secret_access_key,omitempty"`

	// FileSystem-specific fields (only used when Type == "filesystem")
	FSVaultRoot string `toml:"fs_vault_root,omitempty"`
}

// EncryptionConfig selects how archives are encrypted and where the age key pair lives.
type EncryptionConfig struct {
	Type           string `toml:"type"` // "none", "age" or "test"
	PublicKeyPath  string `toml:"public_key_path,omitempty"`
	PrivateKeyPath string `toml:"private_key_path,omitempty"`
}

// ServerConfig configures `fo serve`.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// NewConfig creates a new Config with the provided values and default paths.
func NewConfig(hostID, baseDir string) *Config {
	cfg := &Config{
		HostID:   hostID,
		BaseDir:  baseDir,
		LogDir:   filepath.Join(baseDir, "log"),
		Database: DatabaseConfig{Type: "sqlite", DataDir: filepath.Join(baseDir, "db")},
		Archive: ArchiveConfig{
			Vault: VaultConfig{Type: "filesystem", Name: "local", FSVaultRoot: filepath.Join(baseDir, "vault")},
			Encryption: EncryptionConfig{
				Type:           "age",
				PublicKeyPath:  filepath.Join(baseDir, "keys", "fo.pub"),
				PrivateKeyPath: filepath.Join(baseDir, "keys", "fo.key"),
			},
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills zero-valued tuning fields.
func (c *Config) ApplyDefaults() {
	if c.Scan.BatchSize <= 0 {
		c.Scan.BatchSize = DefaultBatchSize
	}
	if c.Scan.PrefixHashBytes <= 0 {
		c.Scan.PrefixHashBytes = DefaultPrefixHashBytes
	}
	if c.Scan.Workers <= 0 {
		c.Scan.Workers = DefaultWorkers
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}
	if c.Archive.Encryption.Type == "" {
		c.Archive.Encryption.Type = "none"
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader and applies defaults.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
