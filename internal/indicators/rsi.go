package indicators

import "github.com/markcheno/go-talib"

// RSIPeriod is the RSI window.
const RSIPeriod = 14

// neutralRSI is reported when there is no price movement to measure.
const neutralRSI = 50

// RSI returns the relative strength index of the series, clamped to [0, 100].
// Longer series use talib's Wilder-smoothed averages, where every change in
// the series keeps a positive weight. Short series use the simple average
// gain and loss of the changes available; at period+1 points both agree.
func RSI(prices []float64, period int) float64 {
	if len(prices) < 2 || period < 2 {
		return neutralRSI
	}

	// The smoothed averages are zero only when every change is, so the
	// edge cases are read off the whole series.
	gain, loss := moves(prices)
	switch {
	case gain == 0 && loss == 0:
		return neutralRSI
	case loss == 0:
		return 100
	case gain == 0:
		return 0
	}

	if len(prices) > period {
		out := talib.Rsi(prices, period)
		return clamp(out[len(out)-1], 0, 100)
	}

	rs := gain / loss
	return clamp(100-100/(1+rs), 0, 100)
}

// moves sums upward and downward price changes.
func moves(xs []float64) (gain, loss float64) {
	for i := 1; i < len(xs); i++ {
		d := xs[i] - xs[i-1]
		if d > 0 {
			gain += d
		} else {
			loss -= d
		}
	}
	return gain, loss
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
