package postgres

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

const testMint = "So11111111111111111111111111111111111111112"

func TestConfigStore(t *testing.T) {
	pool := newTestPool(t)

	ctx := context.Background()
	store := NewConfigStore(pool)

	_, err := store.Get(ctx, "u1", testMint)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	first := &config.Overrides{LightSellPercent: config.Float(7), DryRun: config.Bool(false)}
	require.NoError(t, store.Put(ctx, "u1", testMint, first))

	got, err := store.Get(ctx, "u1", testMint)
	require.NoError(t, err)
	require.NotNil(t, got.LightSellPercent)
	assert.Equal(t, 7.0, *got.LightSellPercent)
	require.NotNil(t, got.DryRun)
	assert.False(t, *got.DryRun)
	assert.Nil(t, got.HeavySellPercent)

	// Put replaces
	second := &config.Overrides{SlippageBps: config.Int(300)}
	require.NoError(t, store.Put(ctx, "u1", testMint, second))
	got, err = store.Get(ctx, "u1", testMint)
	require.NoError(t, err)
	assert.Nil(t, got.LightSellPercent)
	require.NotNil(t, got.SlippageBps)
	assert.Equal(t, 300, *got.SlippageBps)

	assert.ErrorIs(t, store.Put(ctx, "", testMint, second), storage.ErrInvalidInput)
}

func TestTradeResultStore(t *testing.T) {
	pool := newTestPool(t)

	ctx := context.Background()
	store := NewTradeResultStore(pool)
	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

	results := []*domain.TradeResult{
		{
			DispatchID: "d1", UserID: "alice", Strategy: domain.StrategyVolumeBot, Action: domain.ActionBuy,
			WalletID: "a", Mint: testMint, Venue: domain.VenueBondingCurve, Success: true,
			Signature: "sig-1", AmountIn: 0.05, AmountOut: 5000, Simulated: true, Timestamp: base,
		},
		{
			DispatchID: "d2", Strategy: domain.StrategyPriceStabilizer, Action: domain.ActionSell,
			WalletID: "a", Mint: testMint, Venue: domain.VenueAMM, Success: false,
			Error: "slippage exceeded", ErrorKind: domain.KindTransientUpstream,
			AmountIn: 60000, Timestamp: base.Add(time.Minute),
		},
	}
	for _, r := range results {
		require.NoError(t, store.Insert(ctx, r))
	}

	err := store.Insert(ctx, results[0])
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	got, err := store.GetByDispatchID(ctx, "d2")
	require.NoError(t, err)
	assert.Equal(t, domain.ActionSell, got.Action)
	assert.Equal(t, domain.KindTransientUpstream, got.ErrorKind)
	assert.Equal(t, "slippage exceeded", got.Error)
	assert.True(t, got.Timestamp.Equal(base.Add(time.Minute)))

	_, err = store.GetByDispatchID(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	byMint, err := store.GetByMint(ctx, testMint, 0)
	require.NoError(t, err)
	require.Len(t, byMint, 2)
	assert.Equal(t, "d2", byMint[0].DispatchID)
	assert.Equal(t, "alice", byMint[1].UserID)

	limited, err := store.GetByMint(ctx, testMint, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "d2", limited[0].DispatchID)

	// d2 is newer, so the user filter must run before the limit
	mine, err := store.GetByUserMint(ctx, "alice", testMint, 1)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "d1", mine[0].DispatchID)

	none, err := store.GetByUserMint(ctx, "bob", testMint, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}
