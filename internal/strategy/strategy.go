package strategy

import (
	"time"

	"solana-mm-brain/internal/config"
	"solana-mm-brain/internal/domain"
)

// Strategy proposes at most one trade per tick.
type Strategy interface {
	// Decide returns an intent for the selected wallet, or nil to hold.
	// DispatchID and Venue are filled in by the engine.
	Decide(input *Input) *domain.TradeIntent

	// Observe receives the result of every dispatched intent of this strategy.
	Observe(result domain.TradeResult)

	// Kind returns the strategy identifier.
	Kind() domain.StrategyKind
}

// Input holds everything a strategy may look at for one decision.
type Input struct {
	Snapshot *domain.MarketSnapshot
	Phase    domain.MarketPhase
	Config   config.EngineConfig
	Wallet   domain.WalletInfo
	Balance  domain.Balance
	Now      time.Time
}

func (in *Input) intent(kind domain.StrategyKind, action domain.Action, amount float64, reason string) *domain.TradeIntent {
	return &domain.TradeIntent{
		Strategy: kind,
		Action:   action,
		WalletID: in.Wallet.ID,
		Mint:     in.Snapshot.Mint,
		Amount:   amount,
		PriceSOL: in.Snapshot.PriceSOL,
		Supply:   in.Snapshot.Supply,
		Reason:   reason,
	}
}
