// Package indicators computes EMA, RSI and Fibonacci retracement over a
// price series and classifies the market phase.
package indicators

import "github.com/markcheno/go-talib"

// EMA periods.
const (
	FastPeriod   = 9
	MediumPeriod = 21
	SlowPeriod   = 50
)

// EMA returns the exponential moving average series of prices, one point
// per input. The first period-1 points hold the SMA seed. With fewer
// samples than period every point is the simple average of all samples.
func EMA(prices []float64, period int) []float64 {
	out := make([]float64, len(prices))
	if len(prices) == 0 || period <= 0 {
		return out
	}

	if period == 1 {
		copy(out, prices)
		return out
	}
	if len(prices) < period {
		avg := mean(prices)
		for i := range out {
			out[i] = avg
		}
		return out
	}

	ema := talib.Ema(prices, period)
	seed := ema[period-1]
	for i := 0; i < period-1; i++ {
		ema[i] = seed
	}
	return ema
}

// LastEMA returns the final EMA value, 0 for an empty series.
func LastEMA(prices []float64, period int) float64 {
	series := EMA(prices, period)
	if len(series) == 0 {
		return 0
	}
	return series[len(series)-1]
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
