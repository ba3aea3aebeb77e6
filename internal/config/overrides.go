package config

import "time"

// Overrides is a partial EngineConfig. Nil fields inherit from the layer below.
// Durations are expressed in seconds.
type Overrides struct {
	VolumeBotEnabled       *bool `json:"volumeBotEnabled,omitempty" yaml:"volumeBotEnabled,omitempty"`
	PriceStabilizerEnabled *bool `json:"priceStabilizerEnabled,omitempty" yaml:"priceStabilizerEnabled,omitempty"`
	VolumeFarmerEnabled    *bool `json:"volumeFarmerEnabled,omitempty" yaml:"volumeFarmerEnabled,omitempty"`
	FeeClaimEnabled        *bool `json:"feeClaimEnabled,omitempty" yaml:"feeClaimEnabled,omitempty"`

	LightMcThreshold  *float64 `json:"lightMcThreshold,omitempty" yaml:"lightMcThreshold,omitempty"`
	MediumMcThreshold *float64 `json:"mediumMcThreshold,omitempty" yaml:"mediumMcThreshold,omitempty"`
	HeavyMcThreshold  *float64 `json:"heavyMcThreshold,omitempty" yaml:"heavyMcThreshold,omitempty"`
	LightSellPercent  *float64 `json:"lightSellPercent,omitempty" yaml:"lightSellPercent,omitempty"`
	MediumSellPercent *float64 `json:"mediumSellPercent,omitempty" yaml:"mediumSellPercent,omitempty"`
	HeavySellPercent  *float64 `json:"heavySellPercent,omitempty" yaml:"heavySellPercent,omitempty"`

	MaxBuyPerTradeSOL    *float64 `json:"maxBuyPerTradeSol,omitempty" yaml:"maxBuyPerTradeSol,omitempty"`
	MaxSellPerTradeSOL   *float64 `json:"maxSellPerTradeSol,omitempty" yaml:"maxSellPerTradeSol,omitempty"`
	MinTradeSOL          *float64 `json:"minTradeSol,omitempty" yaml:"minTradeSol,omitempty"`
	VolumeBotBuySOL      *float64 `json:"volumeBotBuySol,omitempty" yaml:"volumeBotBuySol,omitempty"`
	VolumeFarmingPercent *float64 `json:"volumeFarmingPercent,omitempty" yaml:"volumeFarmingPercent,omitempty"`

	CooldownSeconds  *float64 `json:"cooldownSeconds,omitempty" yaml:"cooldownSeconds,omitempty"`
	MaxSupplyPercent *float64 `json:"maxSupplyPercent,omitempty" yaml:"maxSupplyPercent,omitempty"`
	MaxSOLPerWallet  *float64 `json:"maxSolPerWallet,omitempty" yaml:"maxSolPerWallet,omitempty"`
	SlippageBps      *int     `json:"slippageBps,omitempty" yaml:"slippageBps,omitempty"`
	FeeBufferSOL     *float64 `json:"feeBufferSol,omitempty" yaml:"feeBufferSol,omitempty"`

	PollIntervalSeconds     *float64 `json:"pollIntervalSeconds,omitempty" yaml:"pollIntervalSeconds,omitempty"`
	TickBudgetSeconds       *float64 `json:"tickBudgetSeconds,omitempty" yaml:"tickBudgetSeconds,omitempty"`
	FeeClaimIntervalSeconds *float64 `json:"feeClaimIntervalSeconds,omitempty" yaml:"feeClaimIntervalSeconds,omitempty"`
	MaxConsecutiveErrors    *int     `json:"maxConsecutiveErrors,omitempty" yaml:"maxConsecutiveErrors,omitempty"`
	LogCapacity             *int     `json:"logCapacity,omitempty" yaml:"logCapacity,omitempty"`

	DryRun *bool `json:"dryRun,omitempty" yaml:"dryRun,omitempty"`
}

// WithOverrides returns c with every non-nil field of o applied.
func (c EngineConfig) WithOverrides(o *Overrides) EngineConfig {
	if o == nil {
		return c
	}
	setBool(&c.VolumeBotEnabled, o.VolumeBotEnabled)
	setBool(&c.PriceStabilizerEnabled, o.PriceStabilizerEnabled)
	setBool(&c.VolumeFarmerEnabled, o.VolumeFarmerEnabled)
	setBool(&c.FeeClaimEnabled, o.FeeClaimEnabled)

	setFloat(&c.LightMcThreshold, o.LightMcThreshold)
	setFloat(&c.MediumMcThreshold, o.MediumMcThreshold)
	setFloat(&c.HeavyMcThreshold, o.HeavyMcThreshold)
	setFloat(&c.LightSellPercent, o.LightSellPercent)
	setFloat(&c.MediumSellPercent, o.MediumSellPercent)
	setFloat(&c.HeavySellPercent, o.HeavySellPercent)

	setFloat(&c.MaxBuyPerTradeSOL, o.MaxBuyPerTradeSOL)
	setFloat(&c.MaxSellPerTradeSOL, o.MaxSellPerTradeSOL)
	setFloat(&c.MinTradeSOL, o.MinTradeSOL)
	setFloat(&c.VolumeBotBuySOL, o.VolumeBotBuySOL)
	setFloat(&c.VolumeFarmingPercent, o.VolumeFarmingPercent)

	setSeconds(&c.Cooldown, o.CooldownSeconds)
	setFloat(&c.MaxSupplyPercent, o.MaxSupplyPercent)
	setFloat(&c.MaxSOLPerWallet, o.MaxSOLPerWallet)
	setInt(&c.SlippageBps, o.SlippageBps)
	setFloat(&c.FeeBufferSOL, o.FeeBufferSOL)

	setSeconds(&c.PollInterval, o.PollIntervalSeconds)
	setSeconds(&c.TickBudget, o.TickBudgetSeconds)
	setSeconds(&c.FeeClaimInterval, o.FeeClaimIntervalSeconds)
	setInt(&c.MaxConsecutiveErrors, o.MaxConsecutiveErrors)
	setInt(&c.LogCapacity, o.LogCapacity)

	setBool(&c.DryRun, o.DryRun)
	return c
}

// Merge returns a copy of o with every non-nil field of patch applied on top.
func (o *Overrides) Merge(patch *Overrides) *Overrides {
	var out Overrides
	if o != nil {
		out = *o
	}
	if patch == nil {
		return &out
	}
	pick(&out.VolumeBotEnabled, patch.VolumeBotEnabled)
	pick(&out.PriceStabilizerEnabled, patch.PriceStabilizerEnabled)
	pick(&out.VolumeFarmerEnabled, patch.VolumeFarmerEnabled)
	pick(&out.FeeClaimEnabled, patch.FeeClaimEnabled)
	pick(&out.LightMcThreshold, patch.LightMcThreshold)
	pick(&out.MediumMcThreshold, patch.MediumMcThreshold)
	pick(&out.HeavyMcThreshold, patch.HeavyMcThreshold)
	pick(&out.LightSellPercent, patch.LightSellPercent)
	pick(&out.MediumSellPercent, patch.MediumSellPercent)
	pick(&out.HeavySellPercent, patch.HeavySellPercent)
	pick(&out.MaxBuyPerTradeSOL, patch.MaxBuyPerTradeSOL)
	pick(&out.MaxSellPerTradeSOL, patch.MaxSellPerTradeSOL)
	pick(&out.MinTradeSOL, patch.MinTradeSOL)
	pick(&out.VolumeBotBuySOL, patch.VolumeBotBuySOL)
	pick(&out.VolumeFarmingPercent, patch.VolumeFarmingPercent)
	pick(&out.CooldownSeconds, patch.CooldownSeconds)
	pick(&out.MaxSupplyPercent, patch.MaxSupplyPercent)
	pick(&out.MaxSOLPerWallet, patch.MaxSOLPerWallet)
	pick(&out.SlippageBps, patch.SlippageBps)
	pick(&out.FeeBufferSOL, patch.FeeBufferSOL)
	pick(&out.PollIntervalSeconds, patch.PollIntervalSeconds)
	pick(&out.TickBudgetSeconds, patch.TickBudgetSeconds)
	pick(&out.FeeClaimIntervalSeconds, patch.FeeClaimIntervalSeconds)
	pick(&out.MaxConsecutiveErrors, patch.MaxConsecutiveErrors)
	pick(&out.LogCapacity, patch.LogCapacity)
	pick(&out.DryRun, patch.DryRun)
	return &out
}

func pick[T any](dst **T, src *T) {
	if src != nil {
		v := *src
		*dst = &v
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func setFloat(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setSeconds(dst *time.Duration, src *float64) {
	if src != nil {
		*dst = time.Duration(*src * float64(time.Second))
	}
}

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }
