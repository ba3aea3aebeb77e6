package strategy

import (
	"sync"
	"time"

	"solana-mm-brain/internal/domain"
)

// FeeClaimer claims accrued creator fees on a fixed interval.
type FeeClaimer struct {
	mu        sync.Mutex
	lastClaim time.Time
}

// NewFeeClaimer creates a fee claimer.
func NewFeeClaimer() *FeeClaimer {
	return &FeeClaimer{}
}

// Kind returns the strategy identifier.
func (f *FeeClaimer) Kind() domain.StrategyKind { return domain.StrategyFeeClaimer }

// Observe records successful claims.
func (f *FeeClaimer) Observe(res domain.TradeResult) {
	if !res.Success {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastClaim = res.Timestamp
}

// Decide claims once FeeClaimInterval has passed since the last success.
func (f *FeeClaimer) Decide(in *Input) *domain.TradeIntent {
	f.mu.Lock()
	last := f.lastClaim
	f.mu.Unlock()

	if !last.IsZero() && in.Now.Sub(last) < in.Config.FeeClaimInterval {
		return nil
	}
	return in.intent(f.Kind(), domain.ActionClaim, 0, "claim creator fees")
}
