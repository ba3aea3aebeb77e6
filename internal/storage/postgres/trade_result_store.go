package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-mm-brain/internal/domain"
	"solana-mm-brain/internal/storage"
)

// TradeResultStore implements storage.TradeResultStore using PostgreSQL.
type TradeResultStore struct {
	pool *Pool
}

// NewTradeResultStore creates a new TradeResultStore.
func NewTradeResultStore(pool *Pool) *TradeResultStore {
	return &TradeResultStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeResultStore = (*TradeResultStore)(nil)

const tradeResultColumns = `
	dispatch_id, user_id, strategy, action, wallet_id, mint, venue,
	success, signature, error, error_kind,
	amount_in, amount_out, simulated, executed_at
`

// Insert adds a new result. Returns ErrDuplicateKey if dispatch_id exists.
func (s *TradeResultStore) Insert(ctx context.Context, r *domain.TradeResult) error {
	if r == nil || r.DispatchID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO trade_results (` + tradeResultColumns + `) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11,
			$12, $13, $14, $15
		)
	`

	_, err := s.pool.Exec(ctx, query,
		r.DispatchID, r.UserID, string(r.Strategy), string(r.Action), r.WalletID, r.Mint, string(r.Venue),
		r.Success, r.Signature, r.Error, string(r.ErrorKind),
		r.AmountIn, r.AmountOut, r.Simulated, r.Timestamp,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert trade result: %w", err)
	}
	return nil
}

// GetByDispatchID retrieves a result. Returns ErrNotFound if not exists.
func (s *TradeResultStore) GetByDispatchID(ctx context.Context, dispatchID string) (*domain.TradeResult, error) {
	query := `SELECT ` + tradeResultColumns + ` FROM trade_results WHERE dispatch_id = $1`

	r, err := scanTradeResult(s.pool.QueryRow(ctx, query, dispatchID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get trade result: %w", err)
	}
	return r, nil
}

// GetByMint retrieves up to limit results for a mint, most recent first.
func (s *TradeResultStore) GetByMint(ctx context.Context, mint string, limit int) ([]*domain.TradeResult, error) {
	return s.query(ctx, `WHERE mint = $1`, limit, mint)
}

// GetByUserMint retrieves up to limit results of one user's engine on a mint.
func (s *TradeResultStore) GetByUserMint(ctx context.Context, userID, mint string, limit int) ([]*domain.TradeResult, error) {
	return s.query(ctx, `WHERE user_id = $1 AND mint = $2`, limit, userID, mint)
}

// query runs a filtered select, newest first. The limit placeholder follows
// the filter args.
func (s *TradeResultStore) query(ctx context.Context, where string, limit int, args ...any) ([]*domain.TradeResult, error) {
	query := `
		SELECT ` + tradeResultColumns + `
		FROM trade_results
		` + where + `
		ORDER BY executed_at DESC, dispatch_id ASC
	`
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query trade results: %w", err)
	}
	defer rows.Close()

	var result []*domain.TradeResult
	for rows.Next() {
		r, err := scanTradeResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trade result: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

func scanTradeResult(row pgx.Row) (*domain.TradeResult, error) {
	var (
		r                       domain.TradeResult
		strategy, action, venue string
		errorKind               string
	)
	err := row.Scan(
		&r.DispatchID, &r.UserID, &strategy, &action, &r.WalletID, &r.Mint, &venue,
		&r.Success, &r.Signature, &r.Error, &errorKind,
		&r.AmountIn, &r.AmountOut, &r.Simulated, &r.Timestamp,
	)
	if err != nil {
		return nil, err
	}
	r.Strategy = domain.StrategyKind(strategy)
	r.Action = domain.Action(action)
	r.Venue = domain.Venue(venue)
	r.ErrorKind = domain.ErrorKind(errorKind)
	return &r, nil
}
