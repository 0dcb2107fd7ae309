package archive

import (
	"context"
	"sort"
	"sync"
)

// BackendMemory keeps records in process memory only.
const BackendMemory = "memory"

func init() {
	RegisterBackend(BackendMemory, func(*Config) (Archive, error) {
		return NewMemory(), nil
	})
}

// Memory is an in-memory Archive.
type Memory struct {
	mu      sync.RWMutex
	records map[int][]Record
	closed  bool
}

// NewMemory creates an empty in-memory archive.
func NewMemory() *Memory {
	return &Memory{records: make(map[int][]Record)}
}

func (m *Memory) Store(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.records[rec.MachineID] = append(m.records[rec.MachineID], rec)
	return nil
}

func (m *Memory) Records(_ context.Context, machineID int) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	out := append([]Record(nil), m.records[machineID]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

func (m *Memory) LastSeq(_ context.Context, machineID int) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return 0, ErrClosed
	}
	var last uint64
	for _, rec := range m.records[machineID] {
		last = max(last, rec.Seq)
	}
	return last, nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
