package persist

import (
	"context"
	"sync"

	"github.com/happy-paws/petshop/internal/domain"
)

// Memory keeps the snapshot in process memory. Used in tests and as a
// throwaway backend when durability is not wanted.
type Memory struct {
	mu   sync.RWMutex
	snap *domain.Snapshot
}

// NewMemory creates an empty in-memory storage backend.
func NewMemory() *Memory {
	return &Memory{}
}

// Save stores a deep copy so later store mutations cannot alias into it.
func (m *Memory) Save(ctx context.Context, snap *domain.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = cloneSnapshot(snap)
	return nil
}

// Load returns a deep copy of the saved snapshot, if any.
func (m *Memory) Load(ctx context.Context) (*domain.Snapshot, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.snap == nil {
		return nil, false, nil
	}
	return cloneSnapshot(m.snap), true, nil
}

func (m *Memory) Ping(ctx context.Context) error {
	return nil
}

func (m *Memory) Close() error {
	return nil
}

func cloneSnapshot(snap *domain.Snapshot) *domain.Snapshot {
	out := &domain.Snapshot{
		Pets:         append([]domain.Pet(nil), snap.Pets...),
		Transactions: append([]domain.Transaction(nil), snap.Transactions...),
		NextID:       snap.NextID,
	}
	return out
}
