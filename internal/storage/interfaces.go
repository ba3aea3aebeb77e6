package storage

import (
	"context"
	"time"

	"solana-mm-brain/internal/config"
	"solana-mm-brain/internal/domain"
)

// ConfigStore persists per-engine config overrides.
type ConfigStore interface {
	// Get returns the overrides stored for (userID, mint). Returns ErrNotFound if none.
	Get(ctx context.Context, userID, mint string) (*config.Overrides, error)

	// Put replaces the overrides for (userID, mint).
	Put(ctx context.Context, userID, mint string, o *config.Overrides) error
}

// TradeResultStore provides access to trade_results storage.
type TradeResultStore interface {
	// Insert adds a new result. Returns ErrDuplicateKey if dispatch_id exists.
	Insert(ctx context.Context, r *domain.TradeResult) error

	// GetByDispatchID retrieves a result. Returns ErrNotFound if not exists.
	GetByDispatchID(ctx context.Context, dispatchID string) (*domain.TradeResult, error)

	// GetByMint retrieves up to limit results for a mint, most recent first.
	// limit <= 0 returns all.
	GetByMint(ctx context.Context, mint string, limit int) ([]*domain.TradeResult, error)

	// GetByUserMint is GetByMint narrowed to one user's engine. The user
	// filter is applied before the limit.
	GetByUserMint(ctx context.Context, userID, mint string, limit int) ([]*domain.TradeResult, error)
}

// SnapshotStore provides access to market_snapshots storage.
type SnapshotStore interface {
	// Insert appends a snapshot.
	Insert(ctx context.Context, s *domain.MarketSnapshot) error

	// GetByTimeRange retrieves snapshots for a mint within [start, end] (inclusive),
	// ordered by timestamp ASC.
	GetByTimeRange(ctx context.Context, mint string, start, end time.Time) ([]*domain.MarketSnapshot, error)
}
