package vault

import (
	"bytes"
	"strings"
	"testing"

	"fo-go/internal/fo"
)

// testVaultContract exercises the behavior every Vault must share.
func testVaultContract(t *testing.T, newVault func(t *testing.T) fo.Vault) {
	t.Run("put and get archive", func(t *testing.T) {
		v := newVault(t)
		tests := []struct {
			name    string
			content string
		}{
			{"small archive", "catalog bytes"},
			{"empty archive", ""},
			{"large archive", strings.Repeat("x", 100000)},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if err := v.PutArchive("host-1", "catalog", strings.NewReader(tt.content), int64(len(tt.content)), 1); err != nil {
					t.Fatalf("PutArchive() error = %v", err)
				}
				var buf bytes.Buffer
				if err := v.GetArchive("host-1", "catalog", &buf); err != nil {
					t.Fatalf("GetArchive() error = %v", err)
				}
				if buf.String() != tt.content {
					t.Errorf("GetArchive() returned %d bytes, want %d", buf.Len(), len(tt.content))
				}
			})
		}
	})

	t.Run("versions are tracked per host and name", func(t *testing.T) {
		v := newVault(t)
		if got, err := v.ArchiveVersion("host-1", "catalog"); err != nil || got != 0 {
			t.Errorf("ArchiveVersion() before put = %d, %v, want 0, nil", got, err)
		}

		v.PutArchive("host-1", "catalog", strings.NewReader("v7"), 2, 7)
		v.PutArchive("host-2", "catalog", strings.NewReader("v3"), 2, 3)

		if got, _ := v.ArchiveVersion("host-1", "catalog"); got != 7 {
			t.Errorf("ArchiveVersion(host-1) = %d, want 7", got)
		}
		if got, _ := v.ArchiveVersion("host-2", "catalog"); got != 3 {
			t.Errorf("ArchiveVersion(host-2) = %d, want 3", got)
		}
		if got, _ := v.ArchiveVersion("host-1", "other"); got != 0 {
			t.Errorf("ArchiveVersion(other) = %d, want 0", got)
		}

		v.PutArchive("host-1", "catalog", strings.NewReader("v8!"), 3, 8)
		if got, _ := v.ArchiveVersion("host-1", "catalog"); got != 8 {
			t.Errorf("ArchiveVersion() after overwrite = %d, want 8", got)
		}
		var buf bytes.Buffer
		v.GetArchive("host-1", "catalog", &buf)
		if buf.String() != "v8!" {
			t.Errorf("GetArchive() after overwrite = %q", buf.String())
		}
	})

	t.Run("missing archive", func(t *testing.T) {
		v := newVault(t)
		var buf bytes.Buffer
		if err := v.GetArchive("nobody", "catalog", &buf); err == nil {
			t.Error("GetArchive() expected error for missing archive")
		}
	})

	t.Run("validate setup", func(t *testing.T) {
		if err := newVault(t).ValidateSetup(); err != nil {
			t.Errorf("ValidateSetup() error = %v", err)
		}
	})
}
