package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"solana-mm-brain/internal/domain"
	"solana-mm-brain/internal/storage"
)

// SnapshotStore implements storage.SnapshotStore using ClickHouse.
type SnapshotStore struct {
	conn *Conn
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(conn *Conn) *SnapshotStore {
	return &SnapshotStore{conn: conn}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

const snapshotColumns = `
	mint, timestamp_ms, price_sol, price_usd, market_cap_usd, supply,
	volume_24h_usd, volume_5m_usd, net_volume_5m_usd, net_volume_1h_usd,
	holder_count, bonding_complete,
	ema_fast, ema_medium, ema_slow, rsi, high, low, fib_618, fib_650,
	trend, in_golden_pocket, samples, partial, sources, prices
`

// Insert appends a snapshot.
func (s *SnapshotStore) Insert(ctx context.Context, snap *domain.MarketSnapshot) error {
	if snap == nil || snap.Mint == "" {
		return storage.ErrInvalidInput
	}

	batch, err := s.conn.PrepareBatch(ctx, `INSERT INTO market_snapshots (`+snapshotColumns+`)`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	ind := snap.Indicators
	sources := snap.Sources
	if sources == nil {
		sources = []string{}
	}
	err = batch.Append(
		snap.Mint, uint64(snap.Timestamp.UnixMilli()), snap.PriceSOL, snap.PriceUSD, snap.MarketCapUSD, snap.Supply,
		snap.Volume24hUSD, snap.Volume5mUSD, snap.NetVolume5mUSD, snap.NetVolume1hUSD,
		uint32(snap.HolderCount), boolToUInt8(snap.BondingComplete),
		ind.EMAFast, ind.EMAMedium, ind.EMASlow, ind.RSI, ind.High, ind.Low, ind.Fib618, ind.Fib650,
		string(ind.Trend), boolToUInt8(ind.InGoldenPocket), uint32(ind.Samples), boolToUInt8(snap.Partial),
		sources, snap.Prices(),
	)
	if err != nil {
		return fmt.Errorf("append to batch: %w", err)
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByTimeRange retrieves snapshots for a mint within [start, end] (inclusive).
func (s *SnapshotStore) GetByTimeRange(ctx context.Context, mint string, start, end time.Time) ([]*domain.MarketSnapshot, error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM market_snapshots
		WHERE mint = ? AND timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, mint, uint64(start.UnixMilli()), uint64(end.UnixMilli()))
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

func scanSnapshots(rows driver.Rows) ([]*domain.MarketSnapshot, error) {
	var result []*domain.MarketSnapshot
	for rows.Next() {
		var (
			snap                    domain.MarketSnapshot
			ts                      uint64
			holders, samples        uint32
			bonded, pocket, partial uint8
			trend                   string
			prices                  []float64
		)
		ind := &snap.Indicators
		err := rows.Scan(
			&snap.Mint, &ts, &snap.PriceSOL, &snap.PriceUSD, &snap.MarketCapUSD, &snap.Supply,
			&snap.Volume24hUSD, &snap.Volume5mUSD, &snap.NetVolume5mUSD, &snap.NetVolume1hUSD,
			&holders, &bonded,
			&ind.EMAFast, &ind.EMAMedium, &ind.EMASlow, &ind.RSI, &ind.High, &ind.Low, &ind.Fib618, &ind.Fib650,
			&trend, &pocket, &samples, &partial, &snap.Sources, &prices,
		)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snap.Timestamp = time.UnixMilli(int64(ts)).UTC()
		snap.HolderCount = int(holders)
		snap.BondingComplete = bonded == 1
		snap.Partial = partial == 1
		ind.Trend = domain.Trend(trend)
		ind.InGoldenPocket = pocket == 1
		ind.Samples = int(samples)
		result = append(result, domain.NewMarketSnapshot(snap, prices))
	}
	return result, rows.Err()
}

func boolToUInt8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
