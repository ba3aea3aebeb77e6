// Package config holds the engine's typed configuration and the process
// config file loader.
package config

import (
	"errors"
	"fmt"
	"time"

	"solana-mm-brain/internal/domain"
)

// EngineConfig holds every tunable of one engine. Values are resolved from
// defaults, then persisted overrides, then explicit overrides, and are
// validated once at merge time.
type EngineConfig struct {
	VolumeBotEnabled       bool `json:"volumeBotEnabled"`
	PriceStabilizerEnabled bool `json:"priceStabilizerEnabled"`
	VolumeFarmerEnabled    bool `json:"volumeFarmerEnabled"`
	FeeClaimEnabled        bool `json:"feeClaimEnabled"`

	// Market-cap tiers (USD) and the share of holdings sold at each.
	LightMcThreshold  float64 `json:"lightMcThreshold"`
	MediumMcThreshold float64 `json:"mediumMcThreshold"`
	HeavyMcThreshold  float64 `json:"heavyMcThreshold"`
	LightSellPercent  float64 `json:"lightSellPercent"`
	MediumSellPercent float64 `json:"mediumSellPercent"`
	HeavySellPercent  float64 `json:"heavySellPercent"`

	MaxBuyPerTradeSOL    float64 `json:"maxBuyPerTradeSol"`
	MaxSellPerTradeSOL   float64 `json:"maxSellPerTradeSol"` // SOL value of tokens sold
	MinTradeSOL          float64 `json:"minTradeSol"`        // below this only warns
	VolumeBotBuySOL      float64 `json:"volumeBotBuySol"`
	VolumeFarmingPercent float64 `json:"volumeFarmingPercent"`

	Cooldown         time.Duration `json:"cooldown"`
	MaxSupplyPercent float64       `json:"maxSupplyPercent"` // 0 disables
	MaxSOLPerWallet  float64       `json:"maxSolPerWallet"`  // 0 disables
	SlippageBps      int           `json:"slippageBps"`
	FeeBufferSOL     float64       `json:"feeBufferSol"`

	PollInterval         time.Duration `json:"pollInterval"`
	TickBudget           time.Duration `json:"tickBudget"`
	FeeClaimInterval     time.Duration `json:"feeClaimInterval"`
	MaxConsecutiveErrors int           `json:"maxConsecutiveErrors"` // 0 disables
	LogCapacity          int           `json:"logCapacity"`

	DryRun bool `json:"dryRun"`
}

// Default returns the baseline configuration.
func Default() EngineConfig {
	return EngineConfig{
		PriceStabilizerEnabled: true,

		LightMcThreshold:  250_000,
		MediumMcThreshold: 500_000,
		HeavyMcThreshold:  1_000_000,
		LightSellPercent:  6,
		MediumSellPercent: 10,
		HeavySellPercent:  15,

		MaxBuyPerTradeSOL:    0.5,
		MaxSellPerTradeSOL:   1.0,
		MinTradeSOL:          0.001,
		VolumeBotBuySOL:      0.05,
		VolumeFarmingPercent: 5,

		Cooldown:         60 * time.Second,
		MaxSupplyPercent: 5,
		MaxSOLPerWallet:  5,
		SlippageBps:      500,
		FeeBufferSOL:     0.01,

		PollInterval:         15 * time.Second,
		TickBudget:           10 * time.Second,
		FeeClaimInterval:     time.Hour,
		MaxConsecutiveErrors: 30,
		LogCapacity:          100,

		DryRun: true,
	}
}

// Resolve applies layers over Default in order (lowest precedence first)
// and validates the result.
func Resolve(layers ...*Overrides) (EngineConfig, error) {
	cfg := Default()
	for _, o := range layers {
		cfg = cfg.WithOverrides(o)
	}
	if err := cfg.Validate(); err != nil {
		return EngineConfig{}, err
	}
	return cfg, nil
}

// Validate checks ranges and cross-field ordering.
func (c EngineConfig) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...interface{}) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.LightMcThreshold > 0, "lightMcThreshold must be positive")
	check(c.MediumMcThreshold > c.LightMcThreshold, "mediumMcThreshold must exceed lightMcThreshold")
	check(c.HeavyMcThreshold > c.MediumMcThreshold, "heavyMcThreshold must exceed mediumMcThreshold")
	check(c.LightSellPercent > 0, "lightSellPercent must be positive")
	check(c.MediumSellPercent > c.LightSellPercent, "mediumSellPercent must exceed lightSellPercent")
	check(c.HeavySellPercent > c.MediumSellPercent, "heavySellPercent must exceed mediumSellPercent")
	check(c.HeavySellPercent <= 100, "heavySellPercent must be at most 100")

	check(c.MaxBuyPerTradeSOL > 0, "maxBuyPerTradeSol must be positive")
	check(c.MaxSellPerTradeSOL > 0, "maxSellPerTradeSol must be positive")
	check(c.MinTradeSOL >= 0, "minTradeSol must not be negative")
	check(c.VolumeBotBuySOL > 0, "volumeBotBuySol must be positive")
	check(c.VolumeFarmingPercent > 0 && c.VolumeFarmingPercent <= 100, "volumeFarmingPercent must be in (0, 100]")

	check(c.Cooldown >= 0, "cooldown must not be negative")
	check(c.MaxSupplyPercent >= 0 && c.MaxSupplyPercent <= 100, "maxSupplyPercent must be in [0, 100]")
	check(c.MaxSOLPerWallet >= 0, "maxSolPerWallet must not be negative")
	check(c.SlippageBps > 0 && c.SlippageBps <= 10_000, "slippageBps must be in (0, 10000]")
	check(c.FeeBufferSOL >= 0, "feeBufferSol must not be negative")

	check(c.PollInterval >= time.Second, "pollInterval must be at least 1s")
	check(c.TickBudget > 0 && c.TickBudget <= c.PollInterval, "tickBudget must be positive and at most pollInterval")
	check(!c.FeeClaimEnabled || c.FeeClaimInterval > 0, "feeClaimInterval must be positive when fee claiming is enabled")
	check(c.MaxConsecutiveErrors >= 0, "maxConsecutiveErrors must not be negative")
	check(c.LogCapacity > 0, "logCapacity must be positive")

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", domain.ErrConfigInvalid, errors.Join(errs...))
	}
	return nil
}

// EnabledStrategies lists enabled strategies in evaluation order.
func (c EngineConfig) EnabledStrategies() []domain.StrategyKind {
	var kinds []domain.StrategyKind
	if c.PriceStabilizerEnabled {
		kinds = append(kinds, domain.StrategyPriceStabilizer)
	}
	if c.VolumeBotEnabled {
		kinds = append(kinds, domain.StrategyVolumeBot)
	}
	if c.VolumeFarmerEnabled {
		kinds = append(kinds, domain.StrategyVolumeFarmer)
	}
	if c.FeeClaimEnabled {
		kinds = append(kinds, domain.StrategyFeeClaimer)
	}
	return kinds
}
