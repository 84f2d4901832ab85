package app

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"fo-go/internal/config"
	"fo-go/internal/database"
	"fo-go/internal/fo"
)

// catalogArchive is the vault name the catalog snapshot is stored under.
const catalogArchive = "catalog"

// ErrArchiveDisabled is returned by archive commands when [archive] is off.
var ErrArchiveDisabled = errors.New("catalog archiving is not enabled")

// checkArchiveVersion refuses a local catalog that is older than the latest
// archived snapshot, so an out-of-date machine never overwrites it.
func checkArchiveVersion(v fo.Vault, catalog *database.SQLiteCatalog, hostID string) error {
	remote, err := v.ArchiveVersion(hostID, catalogArchive)
	if err != nil {
		return fmt.Errorf("checking archived catalog version: %w", err)
	}

	local, err := catalog.Revision()
	if err != nil {
		return fmt.Errorf("checking local catalog version: %w", err)
	}

	if remote > local {
		return fmt.Errorf("local catalog is behind archive (local=%d, remote=%d): fetch the archive or re-initialize", local, remote)
	}
	return nil
}

// archiveCatalog snapshots the catalog, encrypts the snapshot and stores it
// in the vault versioned by the catalog revision.
func (a *FOApp) archiveCatalog() error {
	version, err := a.catalog.Revision()
	if err != nil {
		return fmt.Errorf("reading catalog version: %w", err)
	}

	tmpDir, err := os.MkdirTemp("", "fo-archive-*")
	if err != nil {
		return fmt.Errorf("creating temp dir for catalog snapshot: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	snapshot := filepath.Join(tmpDir, "catalog.db")
	if err := a.catalog.BackupTo(snapshot); err != nil {
		return err
	}

	sealed := filepath.Join(tmpDir, "catalog.db.sealed")
	if err := encryptFile(a.encryptor, snapshot, sealed); err != nil {
		return err
	}

	if err := uploadArchive(a.vault, a.cfg.HostID, sealed, version); err != nil {
		return err
	}
	a.logger.Info("catalog archived", "version", version)
	return nil
}

func encryptFile(enc fo.Encryptor, src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening catalog snapshot: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating sealed snapshot: %w", err)
	}
	if err := enc.Encrypt(in, out); err != nil {
		out.Close()
		return fmt.Errorf("encrypting catalog snapshot: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing sealed snapshot: %w", err)
	}
	return nil
}

// uploadArchive opens the sealed snapshot and stores it in the vault.
func uploadArchive(v fo.Vault, hostID, path string, version int64) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening sealed snapshot for upload: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat sealed snapshot: %w", err)
	}

	if err := v.PutArchive(hostID, catalogArchive, f, info.Size(), version); err != nil {
		return fmt.Errorf("uploading catalog archive: %w", err)
	}
	return nil
}

// FetchArchive writes the decrypted latest catalog snapshot for cfg.HostID to
// w and returns its version. It needs no local catalog, so it works on a
// machine whose catalog is missing or behind.
func FetchArchive(cfg *config.Config, w io.Writer, passphrase string) (int64, error) {
	if !cfg.Archive.Enabled {
		return 0, ErrArchiveDisabled
	}
	v, enc, err := newArchiveBackend(cfg)
	if err != nil {
		return 0, err
	}

	version, err := v.ArchiveVersion(cfg.HostID, catalogArchive)
	if err != nil {
		return 0, fmt.Errorf("checking archived catalog version: %w", err)
	}
	if version == 0 {
		return 0, fmt.Errorf("no catalog archive for host %s", cfg.HostID)
	}

	dc, err := enc.Unlock(passphrase)
	if err != nil {
		return 0, fmt.Errorf("unlocking archive key: %w", err)
	}

	tmp, err := os.CreateTemp("", "fo-fetch-*")
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if err := v.GetArchive(cfg.HostID, catalogArchive, tmp); err != nil {
		return 0, fmt.Errorf("downloading catalog archive: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return 0, fmt.Errorf("rewinding catalog archive: %w", err)
	}
	if err := dc.Decrypt(tmp, w); err != nil {
		return 0, fmt.Errorf("decrypting catalog archive: %w", err)
	}
	return version, nil
}

// SetupArchiveKeys generates the archive key pair protected by passphrase.
func SetupArchiveKeys(cfg *config.Config, passphrase string) error {
	if !cfg.Archive.Enabled {
		return ErrArchiveDisabled
	}
	_, enc, err := newArchiveBackend(cfg)
	if err != nil {
		return err
	}
	if err := enc.Setup(passphrase); err != nil {
		return fmt.Errorf("generating archive keys: %w", err)
	}
	return nil
}

// ValidateArchive checks that the configured vault is reachable and the
// encryptor has its keys.
func ValidateArchive(cfg *config.Config) error {
	if !cfg.Archive.Enabled {
		return ErrArchiveDisabled
	}
	v, enc, err := newArchiveBackend(cfg)
	if err != nil {
		return err
	}
	if err := v.ValidateSetup(); err != nil {
		return fmt.Errorf("validating vault: %w", err)
	}
	if !enc.IsConfigured() {
		return fmt.Errorf("archive encryption keys missing: run `fo archive keys`")
	}
	return nil
}
