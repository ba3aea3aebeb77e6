package strategy

import (
	"fmt"

	"solana-mm-brain/internal/domain"
)

// PriceStabilizer sells a share of holdings when market cap crosses a tier.
// It never buys.
type PriceStabilizer struct{}

// NewPriceStabilizer creates a price stabilizer.
func NewPriceStabilizer() *PriceStabilizer {
	return &PriceStabilizer{}
}

// Kind returns the strategy identifier.
func (s *PriceStabilizer) Kind() domain.StrategyKind { return domain.StrategyPriceStabilizer }

// Observe is a no-op; tiers are evaluated fresh every tick.
func (s *PriceStabilizer) Observe(domain.TradeResult) {}

// Decide sells the highest crossed tier's percent of the wallet's tokens,
// capped at the per-trade sell limit.
func (s *PriceStabilizer) Decide(in *Input) *domain.TradeIntent {
	cfg := in.Config
	mcap := in.Snapshot.MarketCapUSD

	var tier string
	var pct float64
	switch {
	case mcap >= cfg.HeavyMcThreshold:
		tier, pct = "heavy", cfg.HeavySellPercent
	case mcap >= cfg.MediumMcThreshold:
		tier, pct = "medium", cfg.MediumSellPercent
	case mcap >= cfg.LightMcThreshold:
		tier, pct = "light", cfg.LightSellPercent
	default:
		return nil
	}

	if in.Balance.Tokens <= 0 {
		return nil
	}

	amount := in.Balance.Tokens * pct / 100
	intent := in.intent(s.Kind(), domain.ActionSell, amount,
		fmt.Sprintf("market cap %.0f crossed %s tier, selling %.2f%%", mcap, tier, pct))
	capSell(intent, cfg.MaxSellPerTradeSOL)
	return intent
}

// capSell shrinks a sell to the per-trade SOL cap and records a warning.
func capSell(intent *domain.TradeIntent, maxSOL float64) {
	if intent.PriceSOL <= 0 || maxSOL <= 0 {
		return
	}
	if intent.Amount*intent.PriceSOL <= maxSOL {
		return
	}
	capped := maxSOL / intent.PriceSOL
	intent.Warnings = append(intent.Warnings,
		fmt.Sprintf("sell of %.2f tokens capped to %.2f by maxSellPerTradeSol %.4f", intent.Amount, capped, maxSOL))
	intent.Amount = capped
}
