package keychain

import (
	"sync"
)

// Memory is an in-memory Keychain used by tests and by environments where
// the platform facility is faked out. Safe for concurrent use.
type Memory struct {
	mu      sync.Mutex
	records map[string]string
}

// NewMemory creates an empty in-memory keychain.
func NewMemory() *Memory {
	return &Memory{records: make(map[string]string)}
}

// Get returns the value stored under the service/account pair.
func (m *Memory) Get(service, account string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	value, ok := m.records[recordKey(service, account)]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

// Set stores a value under the service/account pair.
func (m *Memory) Set(service, account, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records[recordKey(service, account)] = value
	return nil
}

// Delete removes the record for the service/account pair.
func (m *Memory) Delete(service, account string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := recordKey(service, account)
	if _, ok := m.records[key]; !ok {
		return ErrNotFound
	}
	delete(m.records, key)
	return nil
}

// Len returns the number of stored records.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

func recordKey(service, account string) string {
	return service + "\x00" + account
}
