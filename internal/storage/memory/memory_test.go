package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-mm-brain/internal/config"
	"solana-mm-brain/internal/domain"
	"solana-mm-brain/internal/storage"
)

const mint = "So11111111111111111111111111111111111111112"

func TestConfigStore(t *testing.T) {
	ctx := context.Background()
	s := NewConfigStore()

	_, err := s.Get(ctx, "u1", mint)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	o := &config.Overrides{DryRun: config.Bool(false), LightSellPercent: config.Float(7)}
	require.NoError(t, s.Put(ctx, "u1", mint, o))

	// stored copy is isolated from the caller
	*o.LightSellPercent = 99

	got, err := s.Get(ctx, "u1", mint)
	require.NoError(t, err)
	require.NotNil(t, got.LightSellPercent)
	assert.Equal(t, 7.0, *got.LightSellPercent)
	assert.False(t, *got.DryRun)

	_, err = s.Get(ctx, "u2", mint)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.ErrorIs(t, s.Put(ctx, "", mint, o), storage.ErrInvalidInput)
	assert.ErrorIs(t, s.Put(ctx, "u1", mint, nil), storage.ErrInvalidInput)
}

func TestTradeResultStore_InsertAndDuplicate(t *testing.T) {
	ctx := context.Background()
	s := NewTradeResultStore()

	r := &domain.TradeResult{DispatchID: "d1", Mint: mint, Success: true, Timestamp: time.Unix(100, 0)}
	require.NoError(t, s.Insert(ctx, r))
	assert.ErrorIs(t, s.Insert(ctx, r), storage.ErrDuplicateKey)
	assert.ErrorIs(t, s.Insert(ctx, &domain.TradeResult{}), storage.ErrInvalidInput)

	got, err := s.GetByDispatchID(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, *r, *got)

	_, err = s.GetByDispatchID(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestTradeResultStore_GetByMint(t *testing.T) {
	ctx := context.Background()
	s := NewTradeResultStore()

	for i, id := range []string{"d1", "d2", "d3"} {
		require.NoError(t, s.Insert(ctx, &domain.TradeResult{
			DispatchID: id,
			Mint:       mint,
			Timestamp:  time.Unix(int64(100+i), 0),
		}))
	}
	require.NoError(t, s.Insert(ctx, &domain.TradeResult{DispatchID: "other", Mint: "other-mint", Timestamp: time.Unix(500, 0)}))

	all, err := s.GetByMint(ctx, mint, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "d3", all[0].DispatchID)
	assert.Equal(t, "d1", all[2].DispatchID)

	limited, err := s.GetByMint(ctx, mint, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "d3", limited[0].DispatchID)
}

func TestTradeResultStore_GetByUserMint(t *testing.T) {
	ctx := context.Background()
	s := NewTradeResultStore()

	// bob's results are newer, so a mint-wide limit would return only his
	require.NoError(t, s.Insert(ctx, &domain.TradeResult{DispatchID: "a1", UserID: "alice", Mint: mint, Timestamp: time.Unix(100, 0)}))
	require.NoError(t, s.Insert(ctx, &domain.TradeResult{DispatchID: "a2", UserID: "alice", Mint: mint, Timestamp: time.Unix(101, 0)}))
	for i, id := range []string{"b1", "b2", "b3"} {
		require.NoError(t, s.Insert(ctx, &domain.TradeResult{DispatchID: id, UserID: "bob", Mint: mint, Timestamp: time.Unix(int64(200+i), 0)}))
	}
	require.NoError(t, s.Insert(ctx, &domain.TradeResult{DispatchID: "a3", UserID: "alice", Mint: "other-mint", Timestamp: time.Unix(300, 0)}))

	got, err := s.GetByUserMint(ctx, "alice", mint, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a2", got[0].DispatchID)
	assert.Equal(t, "a1", got[1].DispatchID)

	got, err = s.GetByUserMint(ctx, "bob", mint, 0)
	require.NoError(t, err)
	assert.Len(t, got, 3)

	got, err = s.GetByUserMint(ctx, "carol", mint, 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSnapshotStore_GetByTimeRange(t *testing.T) {
	ctx := context.Background()
	s := NewSnapshotStore()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		snap := domain.NewMarketSnapshot(domain.MarketSnapshot{
			Mint:      mint,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			PriceSOL:  float64(i + 1),
		}, []float64{1, 2, float64(i + 1)})
		require.NoError(t, s.Insert(ctx, snap))
	}
	assert.ErrorIs(t, s.Insert(ctx, &domain.MarketSnapshot{}), storage.ErrInvalidInput)

	got, err := s.GetByTimeRange(ctx, mint, base.Add(time.Minute), base.Add(3*time.Minute))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 2.0, got[0].PriceSOL)
	assert.Equal(t, 4.0, got[2].PriceSOL)
	assert.Equal(t, []float64{1, 2, 4}, got[2].Prices())

	none, err := s.GetByTimeRange(ctx, "other", base, base.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, none)
}
