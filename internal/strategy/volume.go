package strategy

import (
	"fmt"
	"math"
	"sync"

	"solana-mm-brain/internal/domain"
)

// alternator flips each wallet between buying and selling. The side only
// advances when a dispatched trade succeeds.
type alternator struct {
	kind domain.StrategyKind

	mu   sync.Mutex
	last map[string]domain.Action
}

func newAlternator(kind domain.StrategyKind) *alternator {
	return &alternator{kind: kind, last: make(map[string]domain.Action)}
}

func (a *alternator) Kind() domain.StrategyKind { return a.kind }

func (a *alternator) Observe(res domain.TradeResult) {
	if !res.Success {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.last[res.WalletID] = res.Action
}

func (a *alternator) next(walletID string, tokens float64) domain.Action {
	if tokens <= 0 {
		return domain.ActionBuy
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.last[walletID] == domain.ActionBuy {
		return domain.ActionSell
	}
	return domain.ActionBuy
}

func (a *alternator) decide(in *Input) *domain.TradeIntent {
	cfg := in.Config
	side := a.next(in.Wallet.ID, in.Balance.Tokens)

	switch side {
	case domain.ActionBuy:
		if in.Phase == domain.PhaseDistribution {
			return nil
		}
		size := math.Min(cfg.VolumeBotBuySOL, cfg.MaxBuyPerTradeSOL)
		return in.intent(a.kind, domain.ActionBuy, size,
			fmt.Sprintf("volume buy of %.4f SOL in %s phase", size, in.Phase))
	default:
		if in.Phase == domain.PhaseAccumulating {
			return nil
		}
		amount := in.Balance.Tokens * cfg.VolumeFarmingPercent / 100
		intent := in.intent(a.kind, domain.ActionSell, amount,
			fmt.Sprintf("volume sell of %.2f%% of holdings in %s phase", cfg.VolumeFarmingPercent, in.Phase))
		capSell(intent, cfg.MaxSellPerTradeSOL)
		return intent
	}
}

// VolumeBot alternates small buys and sells on the primary wallet.
type VolumeBot struct {
	*alternator
}

// NewVolumeBot creates a volume bot.
func NewVolumeBot() *VolumeBot {
	return &VolumeBot{alternator: newAlternator(domain.StrategyVolumeBot)}
}

// Decide proposes the wallet's next side. No buys in distribution, no sells
// in accumulation.
func (b *VolumeBot) Decide(in *Input) *domain.TradeIntent {
	return b.decide(in)
}

// VolumeFarmer spreads the same alternating pattern across the non-primary
// wallets, each tracked independently.
type VolumeFarmer struct {
	*alternator
}

// NewVolumeFarmer creates a volume farmer.
func NewVolumeFarmer() *VolumeFarmer {
	return &VolumeFarmer{alternator: newAlternator(domain.StrategyVolumeFarmer)}
}

// Decide proposes the selected wallet's next side.
func (f *VolumeFarmer) Decide(in *Input) *domain.TradeIntent {
	return f.decide(in)
}
