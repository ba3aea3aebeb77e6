package strategy

import (
	"math"
	"testing"
	"time"

	"solana-mm-brain/internal/config"
	"solana-mm-brain/internal/domain"
)

const mint = "11111111111111111111111111111111"

func input(mcap, price, tokens float64, phase domain.MarketPhase) *Input {
	snap := domain.NewMarketSnapshot(domain.MarketSnapshot{
		Mint:         mint,
		PriceSOL:     price,
		MarketCapUSD: mcap,
		Supply:       1_000_000_000,
	}, nil)
	return &Input{
		Snapshot: snap,
		Phase:    phase,
		Config:   config.Default(),
		Wallet:   domain.WalletInfo{ID: "a", Address: "addr-a", Active: true},
		Balance:  domain.Balance{SOL: 10, Tokens: tokens},
		Now:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestPriceStabilizer_LightTier(t *testing.T) {
	in := input(260_000, 1e-5, 1_000_000, domain.PhaseConsolidating)
	intent := NewPriceStabilizer().Decide(in)

	if intent == nil {
		t.Fatal("expected sell intent")
	}
	if intent.Action != domain.ActionSell {
		t.Errorf("expected sell, got %s", intent.Action)
	}
	if !approx(intent.Amount, 60_000) {
		t.Errorf("expected 60000 tokens, got %f", intent.Amount)
	}
	if len(intent.Warnings) != 0 {
		t.Errorf("expected no warnings, got %v", intent.Warnings)
	}
	if intent.Strategy != domain.StrategyPriceStabilizer || intent.WalletID != "a" || intent.Mint != mint {
		t.Errorf("unexpected intent identity: %+v", intent)
	}
}

func TestPriceStabilizer_Tiers(t *testing.T) {
	tests := []struct {
		name   string
		mcap   float64
		expect float64
	}{
		{"below light", 249_999, 0},
		{"light", 250_000, 6_000},
		{"medium", 600_000, 10_000},
		{"heavy", 2_000_000, 15_000},
	}

	s := NewPriceStabilizer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent := s.Decide(input(tt.mcap, 1e-6, 100_000, domain.PhaseTrendingUp))
			if tt.expect == 0 {
				if intent != nil {
					t.Fatalf("expected hold, got %+v", intent)
				}
				return
			}
			if intent == nil {
				t.Fatal("expected intent")
			}
			if !approx(intent.Amount, tt.expect) {
				t.Errorf("expected %f, got %f", tt.expect, intent.Amount)
			}
		})
	}
}

func TestPriceStabilizer_CapsAtMaxSell(t *testing.T) {
	// 15% of 1,000,000 at 1e-5 is 1.5 SOL, above the 1.0 cap.
	intent := NewPriceStabilizer().Decide(input(1_500_000, 1e-5, 1_000_000, domain.PhaseTrendingUp))
	if intent == nil {
		t.Fatal("expected intent")
	}
	if !approx(intent.Amount, 100_000) {
		t.Errorf("expected capped 100000, got %f", intent.Amount)
	}
	if len(intent.Warnings) != 1 {
		t.Errorf("expected one cap warning, got %v", intent.Warnings)
	}
}

func TestPriceStabilizer_NoTokens(t *testing.T) {
	if intent := NewPriceStabilizer().Decide(input(2_000_000, 1e-5, 0, domain.PhaseTrendingUp)); intent != nil {
		t.Errorf("expected hold without tokens, got %+v", intent)
	}
}

func TestVolumeBot_Alternates(t *testing.T) {
	b := NewVolumeBot()

	in := input(100_000, 1e-5, 0, domain.PhaseConsolidating)
	intent := b.Decide(in)
	if intent == nil || intent.Action != domain.ActionBuy {
		t.Fatalf("expected buy, got %+v", intent)
	}
	if !approx(intent.Amount, 0.05) {
		t.Errorf("expected 0.05 SOL buy, got %f", intent.Amount)
	}

	b.Observe(domain.TradeResult{WalletID: "a", Action: domain.ActionBuy, Success: true})

	in.Balance.Tokens = 5_000
	intent = b.Decide(in)
	if intent == nil || intent.Action != domain.ActionSell {
		t.Fatalf("expected sell after buy, got %+v", intent)
	}
	if !approx(intent.Amount, 250) {
		t.Errorf("expected 5%% of holdings, got %f", intent.Amount)
	}

	b.Observe(domain.TradeResult{WalletID: "a", Action: domain.ActionSell, Success: true})
	intent = b.Decide(in)
	if intent == nil || intent.Action != domain.ActionBuy {
		t.Fatalf("expected buy after sell, got %+v", intent)
	}
}

func TestVolumeBot_FailedTradeKeepsSide(t *testing.T) {
	b := NewVolumeBot()
	in := input(100_000, 1e-5, 5_000, domain.PhaseConsolidating)

	b.Observe(domain.TradeResult{WalletID: "a", Action: domain.ActionBuy, Success: true})
	b.Observe(domain.TradeResult{WalletID: "a", Action: domain.ActionSell, Success: false})

	intent := b.Decide(in)
	if intent == nil || intent.Action != domain.ActionSell {
		t.Fatalf("expected sell retry, got %+v", intent)
	}
}

func TestVolumeBot_PhaseGuards(t *testing.T) {
	b := NewVolumeBot()

	if intent := b.Decide(input(100_000, 1e-5, 0, domain.PhaseDistribution)); intent != nil {
		t.Errorf("expected no buy in distribution, got %+v", intent)
	}

	b.Observe(domain.TradeResult{WalletID: "a", Action: domain.ActionBuy, Success: true})
	if intent := b.Decide(input(100_000, 1e-5, 5_000, domain.PhaseAccumulating)); intent != nil {
		t.Errorf("expected no sell in accumulation, got %+v", intent)
	}
}

func TestVolumeBot_BuyCappedByMaxBuy(t *testing.T) {
	in := input(100_000, 1e-5, 0, domain.PhaseConsolidating)
	in.Config.VolumeBotBuySOL = 2
	in.Config.MaxBuyPerTradeSOL = 0.3

	intent := NewVolumeBot().Decide(in)
	if intent == nil || !approx(intent.Amount, 0.3) {
		t.Fatalf("expected 0.3 SOL buy, got %+v", intent)
	}
}

func TestVolumeFarmer_PerWalletState(t *testing.T) {
	f := NewVolumeFarmer()
	f.Observe(domain.TradeResult{WalletID: "b", Action: domain.ActionBuy, Success: true})

	in := input(100_000, 1e-5, 1_000, domain.PhaseConsolidating)
	in.Wallet.ID = "b"
	if intent := f.Decide(in); intent == nil || intent.Action != domain.ActionSell {
		t.Fatalf("expected wallet b to sell, got %+v", intent)
	}

	in.Wallet.ID = "c"
	if intent := f.Decide(in); intent == nil || intent.Action != domain.ActionBuy {
		t.Fatalf("expected wallet c to buy, got %+v", intent)
	}
	if f.Kind() != domain.StrategyVolumeFarmer {
		t.Errorf("unexpected kind %s", f.Kind())
	}
}

func TestFeeClaimer_Interval(t *testing.T) {
	f := NewFeeClaimer()
	in := input(100_000, 1e-5, 0, domain.PhaseConsolidating)

	intent := f.Decide(in)
	if intent == nil || intent.Action != domain.ActionClaim {
		t.Fatalf("expected first claim, got %+v", intent)
	}

	f.Observe(domain.TradeResult{Action: domain.ActionClaim, Success: true, Timestamp: in.Now})

	in.Now = in.Now.Add(30 * time.Minute)
	if intent := f.Decide(in); intent != nil {
		t.Errorf("expected hold inside interval, got %+v", intent)
	}

	in.Now = in.Now.Add(31 * time.Minute)
	if intent := f.Decide(in); intent == nil {
		t.Error("expected claim after interval")
	}
}

func TestFactory(t *testing.T) {
	for kind, s := range All() {
		if s.Kind() != kind {
			t.Errorf("All()[%s] has kind %s", kind, s.Kind())
		}
	}
	if len(All()) != 4 {
		t.Errorf("expected 4 strategies, got %d", len(All()))
	}

	if _, err := New("martingale"); err != ErrUnknownStrategyType {
		t.Errorf("expected ErrUnknownStrategyType, got %v", err)
	}
}
