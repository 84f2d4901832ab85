package vault

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"testing"

	"fo-go/internal/fo"
)

func TestMemoryVault(t *testing.T) {
	testVaultContract(t, func(t *testing.T) fo.Vault {
		return NewMemoryVault("mem")
	})
}

func TestMemoryVault_ShortReadKeepsPrevious(t *testing.T) {
	v := NewMemoryVault("mem")
	if err := v.PutArchive("h1", "catalog", strings.NewReader("v1"), 2, 1); err != nil {
		t.Fatalf("PutArchive() error = %v", err)
	}

	err := v.PutArchive("h1", "catalog", strings.NewReader("v2"), 12, 2)
	if err == nil {
		t.Fatal("PutArchive() with wrong size error = nil, want error")
	}

	if got, _ := v.ArchiveVersion("h1", "catalog"); got != 1 {
		t.Errorf("ArchiveVersion() = %d, want 1", got)
	}
	var buf bytes.Buffer
	if err := v.GetArchive("h1", "catalog", &buf); err != nil {
		t.Fatalf("GetArchive() error = %v", err)
	}
	if buf.String() != "v1" {
		t.Errorf("GetArchive() = %q, want v1", buf.String())
	}
}

func TestMemoryVault_ConcurrentHosts(t *testing.T) {
	v := NewMemoryVault("mem")

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			body := fmt.Sprintf("host-%d", i)
			if err := v.PutArchive(body, "catalog", strings.NewReader(body), int64(len(body)), int64(i+1)); err != nil {
				t.Errorf("PutArchive(%s) error = %v", body, err)
			}
		}()
	}
	wg.Wait()

	for i := range 8 {
		host := fmt.Sprintf("host-%d", i)
		if got, _ := v.ArchiveVersion(host, "catalog"); got != int64(i+1) {
			t.Errorf("ArchiveVersion(%s) = %d, want %d", host, got, i+1)
		}
	}
}
