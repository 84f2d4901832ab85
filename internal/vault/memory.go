package vault

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"fo-go/internal/fo"
)

type memoryArchive struct {
	data    []byte
	version int64
}

// MemoryVault keeps archives in process memory. Used by tests and by the
// "memory" vault type for throwaway setups. Safe for concurrent use.
type MemoryVault struct {
	name string

	mu       sync.RWMutex
	archives map[string]memoryArchive // "<host>/<name>"
}

func NewMemoryVault(name string) *MemoryVault {
	return &MemoryVault{name: name, archives: make(map[string]memoryArchive)}
}

func (m *MemoryVault) PutArchive(hostID, name string, r io.Reader, size, version int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("reading archive %s: %w", name, err)
	}
	if int64(len(data)) != size {
		return fmt.Errorf("archive %s: got %d bytes, want %d", name, len(data), size)
	}

	m.mu.Lock()
	m.archives[hostID+"/"+name] = memoryArchive{data: data, version: version}
	m.mu.Unlock()
	return nil
}

// ArchiveVersion is 0 when nothing is stored under hostID/name.
func (m *MemoryVault) ArchiveVersion(hostID, name string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.archives[hostID+"/"+name].version, nil
}

func (m *MemoryVault) GetArchive(hostID, name string, w io.Writer) error {
	m.mu.RLock()
	a, ok := m.archives[hostID+"/"+name]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("archive %s not found for host %s in vault %s", name, hostID, m.name)
	}
	if _, err := io.Copy(w, bytes.NewReader(a.data)); err != nil {
		return fmt.Errorf("writing archive %s: %w", name, err)
	}
	return nil
}

func (m *MemoryVault) ValidateSetup() error {
	return nil
}

var _ fo.Vault = (*MemoryVault)(nil)
