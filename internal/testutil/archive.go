package testutil

import (
	"strings"
	"testing"

	"fo-go/internal/encryption"
	"fo-go/internal/fo"
	"fo-go/internal/vault"
)

// NewTestVault returns an empty in-memory vault.
func NewTestVault() fo.Vault {
	return vault.NewMemoryVault("test")
}

// NewTestEncryptor returns the reversible, keyless test encryptor.
func NewTestEncryptor() fo.Encryptor {
	return encryption.NewTestEncryptor()
}

// SeedArchive stores body as hostID's catalog archive at version.
func SeedArchive(t *testing.T, v fo.Vault, hostID, name, body string, version int64) {
	t.Helper()
	if err := v.PutArchive(hostID, name, strings.NewReader(body), int64(len(body)), version); err != nil {
		t.Fatalf("PutArchive(%s/%s) error = %v", hostID, name, err)
	}
}
