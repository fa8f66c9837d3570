package storage

import "sync"

// MemorySlot keeps the value in process memory.
type MemorySlot struct {
	mu   sync.Mutex
	data []byte
	set  bool
}

func NewMemorySlot() *MemorySlot { return &MemorySlot{} }

func (m *MemorySlot) Load() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.set {
		return nil, nil
	}
	return append([]byte(nil), m.data...), nil
}

func (m *MemorySlot) Save(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append([]byte(nil), data...)
	m.set = true
	return nil
}
