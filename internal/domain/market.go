package domain

import "time"

// Trend is the EMA alignment label.
type Trend string

// Trend labels
const (
	TrendBullish Trend = "bullish"
	TrendBearish Trend = "bearish"
	TrendNeutral Trend = "neutral"
)

// MarketPhase is the discrete market classification derived from Indicators.
type MarketPhase string

// Market phases
const (
	PhaseAccumulating  MarketPhase = "accumulating"
	PhaseTrendingUp    MarketPhase = "trending_up"
	PhaseDistribution  MarketPhase = "distribution"
	PhaseTrendingDown  MarketPhase = "trending_down"
	PhaseConsolidating MarketPhase = "consolidating"
)

// Indicators is computed in one pass from a price series.
type Indicators struct {
	EMAFast        float64 `json:"emaFast"`
	EMAMedium      float64 `json:"emaMedium"`
	EMASlow        float64 `json:"emaSlow"`
	RSI            float64 `json:"rsi"` // 0..100
	High           float64 `json:"high"`
	Low            float64 `json:"low"`
	Fib618         float64 `json:"fib618"`
	Fib650         float64 `json:"fib650"`
	Trend          Trend   `json:"trend"`
	InGoldenPocket bool    `json:"inGoldenPocket"`
	Samples        int     `json:"samples"` // series length the values came from
}

// MarketSnapshot is one immutable observation of the token.
type MarketSnapshot struct {
	Mint            string     `json:"mint"`
	Timestamp       time.Time  `json:"timestamp"`
	PriceSOL        float64    `json:"priceSol"`
	PriceUSD        float64    `json:"priceUsd"`
	MarketCapUSD    float64    `json:"marketCapUsd"`
	Supply          float64    `json:"supply"` // whole tokens
	Volume24hUSD    float64    `json:"volume24hUsd"`
	Volume5mUSD     float64    `json:"volume5mUsd"`
	NetVolume5mUSD  float64    `json:"netVolume5mUsd"`
	NetVolume1hUSD  float64    `json:"netVolume1hUsd"`
	HolderCount     int        `json:"holderCount"`
	BondingComplete bool       `json:"bondingComplete"`
	Indicators      Indicators `json:"indicators"`
	Partial         bool       `json:"partial"` // an optional source failed
	Sources         []string   `json:"sources"`

	prices []float64
}

// NewMarketSnapshot attaches a private copy of the price series (oldest first).
func NewMarketSnapshot(s MarketSnapshot, prices []float64) *MarketSnapshot {
	s.prices = append([]float64(nil), prices...)
	s.Sources = append([]string(nil), s.Sources...)
	return &s
}

// Prices returns a copy of the recent price series, oldest first.
func (s *MarketSnapshot) Prices() []float64 {
	return append([]float64(nil), s.prices...)
}

// Clone returns a deep copy.
func (s *MarketSnapshot) Clone() *MarketSnapshot {
	if s == nil {
		return nil
	}
	return NewMarketSnapshot(*s, s.prices)
}
