package strategy

import (
	"errors"

	"solana-mm-brain/internal/domain"
)

// ErrUnknownStrategyType is returned for an unrecognized strategy kind.
var ErrUnknownStrategyType = errors.New("unknown strategy type")

// New creates a strategy by kind. Each engine owns its own instances;
// strategies keep per-wallet state between ticks.
func New(kind domain.StrategyKind) (Strategy, error) {
	switch kind {
	case domain.StrategyPriceStabilizer:
		return NewPriceStabilizer(), nil
	case domain.StrategyVolumeBot:
		return NewVolumeBot(), nil
	case domain.StrategyVolumeFarmer:
		return NewVolumeFarmer(), nil
	case domain.StrategyFeeClaimer:
		return NewFeeClaimer(), nil
	default:
		return nil, ErrUnknownStrategyType
	}
}

// All creates one instance of every strategy, keyed by kind.
func All() map[domain.StrategyKind]Strategy {
	kinds := []domain.StrategyKind{
		domain.StrategyPriceStabilizer,
		domain.StrategyVolumeBot,
		domain.StrategyVolumeFarmer,
		domain.StrategyFeeClaimer,
	}
	out := make(map[domain.StrategyKind]Strategy, len(kinds))
	for _, k := range kinds {
		s, _ := New(k)
		out[k] = s
	}
	return out
}
