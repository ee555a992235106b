package kv

import "sync"

// MemoryStore keeps items in a map. A positive quota bounds the summed
// length of keys and values, mirroring a browser storage quota.
type MemoryStore struct {
	mu          sync.RWMutex
	items       map[string]string
	quota       int
	unavailable bool
}

func NewMemoryStore(quotaBytes int) *MemoryStore {
	return &MemoryStore{
		items: map[string]string{},
		quota: quotaBytes,
	}
}

// SetUnavailable makes every call fail with ErrUnavailable until cleared,
// the way storage behaves when disabled by the host.
func (m *MemoryStore) SetUnavailable(v bool) {
	m.mu.Lock()
	m.unavailable = v
	m.mu.Unlock()
}

func (m *MemoryStore) GetItem(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.unavailable {
		return "", false, ErrUnavailable
	}
	v, ok := m.items[key]
	return v, ok, nil
}

func (m *MemoryStore) SetItem(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unavailable {
		return ErrUnavailable
	}
	if m.quota > 0 {
		used := m.usedLocked()
		if old, ok := m.items[key]; ok {
			used -= len(key) + len(old)
		}
		if used+len(key)+len(value) > m.quota {
			return ErrQuotaExceeded
		}
	}
	m.items[key] = value
	return nil
}

func (m *MemoryStore) RemoveItem(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unavailable {
		return ErrUnavailable
	}
	delete(m.items, key)
	return nil
}

// Len reports how many keys are stored.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

func (m *MemoryStore) usedLocked() int {
	n := 0
	for k, v := range m.items {
		n += len(k) + len(v)
	}
	return n
}
