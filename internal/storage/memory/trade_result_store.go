package memory

import (
	"context"
	"sort"
	"sync"

	"solana-mm-brain/internal/domain"
	"solana-mm-brain/internal/storage"
)

// TradeResultStore is an in-memory implementation of storage.TradeResultStore.
type TradeResultStore struct {
	mu   sync.RWMutex
	data map[string]*domain.TradeResult // keyed by dispatch_id
}

// NewTradeResultStore creates a new in-memory trade result store.
func NewTradeResultStore() *TradeResultStore {
	return &TradeResultStore{
		data: make(map[string]*domain.TradeResult),
	}
}

// Insert adds a new result. Returns ErrDuplicateKey if dispatch_id exists.
func (s *TradeResultStore) Insert(_ context.Context, r *domain.TradeResult) error {
	if r == nil || r.DispatchID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.DispatchID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *r
	s.data[r.DispatchID] = &copy
	return nil
}

// GetByDispatchID retrieves a result. Returns ErrNotFound if not exists.
func (s *TradeResultStore) GetByDispatchID(_ context.Context, dispatchID string) (*domain.TradeResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[dispatchID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copy := *r
	return &copy, nil
}

// GetByMint retrieves up to limit results for a mint, most recent first.
func (s *TradeResultStore) GetByMint(_ context.Context, mint string, limit int) ([]*domain.TradeResult, error) {
	return s.collect(limit, func(r *domain.TradeResult) bool { return r.Mint == mint }), nil
}

// GetByUserMint retrieves up to limit results of one user's engine on a mint.
func (s *TradeResultStore) GetByUserMint(_ context.Context, userID, mint string, limit int) ([]*domain.TradeResult, error) {
	return s.collect(limit, func(r *domain.TradeResult) bool { return r.UserID == userID && r.Mint == mint }), nil
}

func (s *TradeResultStore) collect(limit int, match func(*domain.TradeResult) bool) []*domain.TradeResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TradeResult
	for _, r := range s.data {
		if match(r) {
			copy := *r
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].Timestamp.Equal(result[j].Timestamp) {
			return result[i].Timestamp.After(result[j].Timestamp)
		}
		return result[i].DispatchID < result[j].DispatchID
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}

var _ storage.TradeResultStore = (*TradeResultStore)(nil)
