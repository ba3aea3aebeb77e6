package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"solana-mm-brain/internal/domain"
	"solana-mm-brain/internal/storage"
)

// SnapshotStore is an in-memory implementation of storage.SnapshotStore.
type SnapshotStore struct {
	mu   sync.RWMutex
	data map[string][]*domain.MarketSnapshot // keyed by mint
}

// NewSnapshotStore creates a new in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		data: make(map[string][]*domain.MarketSnapshot),
	}
}

// Insert appends a snapshot.
func (s *SnapshotStore) Insert(_ context.Context, snap *domain.MarketSnapshot) error {
	if snap == nil || snap.Mint == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[snap.Mint] = append(s.data[snap.Mint], snap.Clone())
	return nil
}

// GetByTimeRange retrieves snapshots for a mint within [start, end] (inclusive).
func (s *SnapshotStore) GetByTimeRange(_ context.Context, mint string, start, end time.Time) ([]*domain.MarketSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.MarketSnapshot
	for _, snap := range s.data[mint] {
		if snap.Timestamp.Before(start) || snap.Timestamp.After(end) {
			continue
		}
		result = append(result, snap.Clone())
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp.Before(result[j].Timestamp)
	})
	return result, nil
}

var _ storage.SnapshotStore = (*SnapshotStore)(nil)
