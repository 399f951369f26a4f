// Package keystore provides a reference ceremony.KeyStore implementation
// (spec.md §4.7). Production deployments are expected to supply their own
// (e.g. backed by an encrypted file or an HSM); this one exists for tests
// and the ceremonyctl CLI driver.
package keystore

import (
	"sync"

	"github.com/chainflip-io/multisig-ceremony/pkg/ceremony"
)

// Memory is a concurrency-safe, process-local ceremony.KeyStore.
type Memory struct {
	mu    sync.RWMutex
	byKey map[[33]byte]ceremony.KeygenResult
}

// NewMemory returns an empty in-memory key store.
func NewMemory() *Memory {
	return &Memory{byKey: make(map[[33]byte]ceremony.KeygenResult)}
}

// Put records result under its aggregate public key.
func (m *Memory) Put(publicKeyBytes [33]byte, result ceremony.KeygenResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byKey[publicKeyBytes] = result
	return nil
}

// Get returns a previously stored result, if any.
func (m *Memory) Get(publicKeyBytes [33]byte) (ceremony.KeygenResult, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result, ok := m.byKey[publicKeyBytes]
	return result, ok, nil
}

var _ ceremony.KeyStore = (*Memory)(nil)
