package indicators

import "solana-mm-brain/internal/domain"

// RSI bands used by phase classification.
const (
	Overbought = 70
	Oversold   = 30
)

// TrendOf labels EMA alignment.
func TrendOf(fast, medium, slow float64) domain.Trend {
	switch {
	case fast > medium && medium > slow:
		return domain.TrendBullish
	case fast < medium && medium < slow:
		return domain.TrendBearish
	default:
		return domain.TrendNeutral
	}
}

// Compute derives every indicator from one series (oldest first).
func Compute(prices []float64) domain.Indicators {
	ind := domain.Indicators{
		EMAFast:   LastEMA(prices, FastPeriod),
		EMAMedium: LastEMA(prices, MediumPeriod),
		EMASlow:   LastEMA(prices, SlowPeriod),
		RSI:       RSI(prices, RSIPeriod),
		Samples:   len(prices),
	}

	levels := Fibonacci(prices, FibWindow)
	ind.High = levels.High
	ind.Low = levels.Low
	ind.Fib618 = levels.Fib618
	ind.Fib650 = levels.Fib650

	ind.Trend = TrendOf(ind.EMAFast, ind.EMAMedium, ind.EMASlow)
	if len(prices) > 0 {
		ind.InGoldenPocket = levels.InGoldenPocket(prices[len(prices)-1])
	}
	return ind
}

// ClassifyPhase maps indicators to a market phase. Deterministic.
func ClassifyPhase(ind domain.Indicators) domain.MarketPhase {
	switch ind.Trend {
	case domain.TrendBullish:
		if ind.RSI >= Overbought {
			return domain.PhaseDistribution
		}
		return domain.PhaseTrendingUp
	case domain.TrendBearish:
		if ind.RSI <= Oversold {
			return domain.PhaseAccumulating
		}
		return domain.PhaseTrendingDown
	}
	if ind.InGoldenPocket {
		return domain.PhaseAccumulating
	}
	return domain.PhaseConsolidating
}
