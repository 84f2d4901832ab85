package fo

import "io"

// Vault holds catalog snapshots away from the machine being organized, one
// slot per host and archive name. Each slot remembers the catalog revision
// it was taken at so a host can tell when its local catalog is older than
// its last upload.
type Vault interface {
	// PutArchive replaces the slot with exactly size bytes read from r.
	PutArchive(hostID string, name string, r io.Reader, size int64, version int64) error
	GetArchive(hostID string, name string, w io.Writer) error
	// ArchiveVersion is 0 for an empty slot.
	ArchiveVersion(hostID string, name string) (int64, error)
	ValidateSetup() error
}

// Encryptor seals snapshots before they reach a Vault. Sealing only needs
// the public key; opening needs the passphrase-protected private key.
type Encryptor interface {
	// Setup creates the key pair, protecting the private half with passphrase.
	Setup(passphrase string) error
	Encrypt(r io.Reader, w io.Writer) error
	// Unlock fails on a wrong passphrase.
	Unlock(passphrase string) (DecryptionContext, error)
	// IsConfigured reports whether the key files are in place.
	IsConfigured() bool
}

// DecryptionContext keeps an unlocked private key in memory for one session.
type DecryptionContext interface {
	Decrypt(r io.Reader, w io.Writer) error
}
