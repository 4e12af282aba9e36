package storage

import (
	"context"
	"sync"

	"github.com/rl1809/itemstore/internal/core/domain"
)

// MemorySequence is a process-local allocator. Values do not survive a
// restart and are not shared between processes.
type MemorySequence struct {
	mu       sync.Mutex
	counters map[string]int64
}

func NewMemorySequence() *MemorySequence {
	return &MemorySequence{counters: make(map[string]int64)}
}

func (m *MemorySequence) NextValue(ctx context.Context, name string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.counters[name]++
	return m.counters[name], nil
}

func (m *MemorySequence) Counter(ctx context.Context, name string) (domain.Counter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return domain.Counter{Name: name, Value: m.counters[name]}, nil
}
