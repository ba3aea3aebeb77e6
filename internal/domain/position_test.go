package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
)

func TestPosition_Apply(t *testing.T) {
	p := Position{WalletID: "w1"}

	p = p.Apply(TradeResult{Action: ActionBuy, Success: true, AmountIn: 0.5, AmountOut: 50_000})
	p = p.Apply(TradeResult{Action: ActionSell, Success: true, AmountIn: 20_000, AmountOut: 0.25})
	p = p.Apply(TradeResult{Action: ActionBuy, Success: false, AmountIn: 1, AmountOut: 1})
	p = p.Apply(TradeResult{Action: ActionClaim, Success: true})

	if !p.Tokens.Equal(decimal.NewFromInt(30_000)) {
		t.Errorf("tokens = %s, want 30000", p.Tokens)
	}
	if !p.SOLDeployed.Equal(decimal.NewFromFloat(0.25)) {
		t.Errorf("sol deployed = %s, want 0.25", p.SOLDeployed)
	}
	if p.Trades != 2 {
		t.Errorf("trades = %d, want 2", p.Trades)
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorKind
	}{
		{NewError(KindFatal, "tick", errors.New("boom")), KindFatal},
		{fmt.Errorf("merge: %w", ErrConfigInvalid), KindConfigInvalid},
		{fmt.Errorf("sign: %w", ErrWalletDisabled), KindWalletDisabled},
		{fmt.Errorf("wrapped: %w", NewError(KindValidationRejected, "validate", ErrRejected)), KindValidationRejected},
		{errors.New("connection reset"), KindTransientUpstream},
	}

	for _, tt := range tests {
		if got := KindOf(tt.err); got != tt.want {
			t.Errorf("KindOf(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}

func TestMarketSnapshot_PricesCopy(t *testing.T) {
	series := []float64{1, 2, 3}
	snap := NewMarketSnapshot(MarketSnapshot{Mint: "m"}, series)
	series[0] = 99

	got := snap.Prices()
	if got[0] != 1 {
		t.Errorf("snapshot shares caller slice: %v", got)
	}
	got[1] = 42
	if snap.Prices()[1] != 2 {
		t.Error("Prices must return a copy")
	}
	if snap.Clone().Prices()[2] != 3 {
		t.Error("Clone lost the series")
	}
}
