package memory

import (
	"context"
	"sync"

	"solana-mm-brain/internal/config"
	"solana-mm-brain/internal/storage"
)

type configKey struct {
	userID string
	mint   string
}

// ConfigStore is an in-memory implementation of storage.ConfigStore.
type ConfigStore struct {
	mu   sync.RWMutex
	data map[configKey]config.Overrides
}

// NewConfigStore creates a new in-memory config store.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{
		data: make(map[configKey]config.Overrides),
	}
}

// Get returns the stored overrides. Returns ErrNotFound if none.
func (s *ConfigStore) Get(_ context.Context, userID, mint string) (*config.Overrides, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, exists := s.data[configKey{userID, mint}]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return new(config.Overrides).Merge(&o), nil
}

// Put replaces the overrides for (userID, mint).
func (s *ConfigStore) Put(_ context.Context, userID, mint string, o *config.Overrides) error {
	if userID == "" || mint == "" || o == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[configKey{userID, mint}] = *new(config.Overrides).Merge(o)
	return nil
}

var _ storage.ConfigStore = (*ConfigStore)(nil)
