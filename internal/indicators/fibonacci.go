package indicators

// FibWindow is the number of trailing samples that define the swing range.
const FibWindow = 50

// Retracement ratios bounding the golden pocket.
const (
	Ratio618 = 0.618
	Ratio650 = 0.65
)

// Levels is a retracement measured down from the window high.
type Levels struct {
	High   float64
	Low    float64
	Fib618 float64
	Fib650 float64
}

// Fibonacci computes retracement levels over the last window samples,
// or all samples when fewer are available.
func Fibonacci(prices []float64, window int) Levels {
	if len(prices) == 0 {
		return Levels{}
	}
	if window > 0 && len(prices) > window {
		prices = prices[len(prices)-window:]
	}

	high, low := prices[0], prices[0]
	for _, p := range prices[1:] {
		if p > high {
			high = p
		}
		if p < low {
			low = p
		}
	}

	span := high - low
	return Levels{
		High:   high,
		Low:    low,
		Fib618: high - span*Ratio618,
		Fib650: high - span*Ratio650,
	}
}

// InGoldenPocket reports whether price sits between the 0.65 and 0.618
// retracements. A zero range has no pocket.
func (l Levels) InGoldenPocket(price float64) bool {
	if l.High <= l.Low {
		return false
	}
	return price >= l.Fib650 && price <= l.Fib618
}
