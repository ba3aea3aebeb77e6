package clickhouse

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-mm-brain/internal/domain"
	"solana-mm-brain/internal/storage"
)

func TestSnapshotStore(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewSnapshotStore(conn)
	mint := "So11111111111111111111111111111111111111112"
	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		snap := domain.NewMarketSnapshot(domain.MarketSnapshot{
			Mint:            mint,
			Timestamp:       base.Add(time.Duration(i) * time.Minute),
			PriceSOL:        1e-5 * float64(i+1),
			MarketCapUSD:    250_000,
			HolderCount:     420,
			BondingComplete: i == 2,
			Partial:         i == 1,
			Sources:         []string{"dexscreener", "curve"},
			Indicators: domain.Indicators{
				EMAFast:        1,
				RSI:            55,
				Trend:          domain.TrendBullish,
				InGoldenPocket: true,
				Samples:        i + 1,
			},
		}, []float64{1e-5, 2e-5})
		require.NoError(t, store.Insert(ctx, snap))
	}

	assert.ErrorIs(t, store.Insert(ctx, &domain.MarketSnapshot{}), storage.ErrInvalidInput)

	got, err := store.GetByTimeRange(ctx, mint, base, base.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, got, 2)

	first := got[0]
	assert.True(t, first.Timestamp.Equal(base))
	assert.InDelta(t, 1e-5, first.PriceSOL, 1e-12)
	assert.Equal(t, 420, first.HolderCount)
	assert.False(t, first.BondingComplete)
	assert.Equal(t, []string{"dexscreener", "curve"}, first.Sources)
	assert.Equal(t, domain.TrendBullish, first.Indicators.Trend)
	assert.True(t, first.Indicators.InGoldenPocket)
	assert.Equal(t, []float64{1e-5, 2e-5}, first.Prices())
	assert.True(t, got[1].Partial)

	all, err := store.GetByTimeRange(ctx, mint, base, base.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[2].BondingComplete)
}
