package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"solana-mm-brain/internal/config"
	"solana-mm-brain/internal/storage"
)

// ConfigStore implements storage.ConfigStore using PostgreSQL.
type ConfigStore struct {
	pool *Pool
}

// NewConfigStore creates a new ConfigStore.
func NewConfigStore(pool *Pool) *ConfigStore {
	return &ConfigStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ConfigStore = (*ConfigStore)(nil)

// Get returns the overrides stored for (userID, mint). Returns ErrNotFound if none.
func (s *ConfigStore) Get(ctx context.Context, userID, mint string) (*config.Overrides, error) {
	query := `SELECT overrides FROM engine_configs WHERE user_id = $1 AND mint = $2`

	var raw []byte
	if err := s.pool.QueryRow(ctx, query, userID, mint).Scan(&raw); err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get engine config: %w", err)
	}

	var o config.Overrides
	if err := json.Unmarshal(raw, &o); err != nil {
		return nil, fmt.Errorf("decode engine config: %w", err)
	}
	return &o, nil
}

// Put replaces the overrides for (userID, mint).
func (s *ConfigStore) Put(ctx context.Context, userID, mint string, o *config.Overrides) error {
	if userID == "" || mint == "" || o == nil {
		return storage.ErrInvalidInput
	}

	raw, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("encode engine config: %w", err)
	}

	query := `
		INSERT INTO engine_configs (user_id, mint, overrides, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (user_id, mint)
		DO UPDATE SET overrides = EXCLUDED.overrides, updated_at = now()
	`
	if _, err := s.pool.Exec(ctx, query, userID, mint, raw); err != nil {
		return fmt.Errorf("put engine config: %w", err)
	}
	return nil
}
