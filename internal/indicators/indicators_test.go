package indicators

import (
	"math"
	"math/rand"
	"testing"

	"solana-mm-brain/internal/domain"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func linear(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i + 1)
	}
	return out
}

func TestEMA_ShortSeriesIsSimpleAverage(t *testing.T) {
	got := EMA([]float64{1, 2, 3}, FastPeriod)
	if len(got) != 3 {
		t.Fatalf("expected 3 points, got %d", len(got))
	}
	for i, v := range got {
		if !almostEqual(v, 2) {
			t.Errorf("point %d = %v, want 2", i, v)
		}
	}
}

func TestEMA_SeededWithSMA(t *testing.T) {
	got := EMA(linear(10), 3)

	// seed = SMA(1,2,3) = 2, k = 0.5
	want := []float64{2, 2, 2, 3, 4, 5, 6, 7, 8, 9}
	for i := range want {
		if !almostEqual(got[i], want[i]) {
			t.Errorf("EMA[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestEMA_Empty(t *testing.T) {
	if got := EMA(nil, 9); len(got) != 0 {
		t.Errorf("expected empty series, got %v", got)
	}
	if got := LastEMA(nil, 9); got != 0 {
		t.Errorf("expected 0, got %v", got)
	}
}

func TestRSI(t *testing.T) {
	down := linear(30)
	for i, j := 0, len(down)-1; i < j; i, j = i+1, j-1 {
		down[i], down[j] = down[j], down[i]
	}

	tests := []struct {
		name   string
		prices []float64
		want   float64
	}{
		{"empty", nil, 50},
		{"single", []float64{1}, 50},
		{"flat long", []float64{2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2}, 50},
		{"rising long", linear(30), 100},
		{"falling long", down, 0},
		{"short mixed", []float64{1, 2, 1, 2}, 100 - 100/3.0},
		{"short rising", []float64{1, 2, 3}, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RSI(tt.prices, RSIPeriod)
			if !almostEqual(got, tt.want) {
				t.Errorf("RSI = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRSI_ContinuousAcrossTinyMoves(t *testing.T) {
	var prices []float64
	p := 10.0
	for i := 0; i < 30; i++ {
		prices = append(prices, p)
		p -= 0.1
	}
	for i := 0; i < 14; i++ {
		p += 0.1
		prices = append(prices, p)
	}

	rallied := RSI(prices, RSIPeriod)
	if rallied >= 100 {
		t.Fatalf("a rally after a long decline should not read as pure strength, got %v", rallied)
	}

	dipped := RSI(append(append([]float64(nil), prices...), p-1e-9), RSIPeriod)
	if math.Abs(rallied-dipped) > 0.01 {
		t.Errorf("a 1e-9 dip moved RSI from %v to %v", rallied, dipped)
	}
}

func TestRSI_ShortAndLongAgreeAtBoundary(t *testing.T) {
	prices := []float64{1, 1.2, 1.1, 1.3, 1.25, 1.4, 1.35, 1.5, 1.45, 1.6, 1.4, 1.55, 1.5, 1.7, 1.65}
	if len(prices) != RSIPeriod+1 {
		t.Fatalf("series must have %d points", RSIPeriod+1)
	}
	gain, loss := moves(prices)
	want := 100 - 100/(1+gain/loss)

	got := RSI(prices, RSIPeriod)
	if math.Abs(got-want) > 1e-6 {
		t.Errorf("RSI = %v, want %v", got, want)
	}
	short := RSI(prices[1:], RSIPeriod)
	if short < 0 || short > 100 {
		t.Errorf("short RSI out of range: %v", short)
	}
}

func TestRSI_Bounded(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for n := 0; n < 200; n++ {
		series := make([]float64, rng.Intn(60))
		p := 1.0
		for i := range series {
			p *= 1 + (rng.Float64()-0.5)/10
			series[i] = p
		}
		got := RSI(series, RSIPeriod)
		if got < 0 || got > 100 || math.IsNaN(got) {
			t.Fatalf("RSI out of range: %v for series of %d", got, len(series))
		}
	}
}

func TestFibonacci(t *testing.T) {
	levels := Fibonacci([]float64{0, 5, 10, 4}, FibWindow)

	if levels.High != 10 || levels.Low != 0 {
		t.Fatalf("unexpected range %v..%v", levels.Low, levels.High)
	}
	if !almostEqual(levels.Fib618, 3.82) {
		t.Errorf("Fib618 = %v, want 3.82", levels.Fib618)
	}
	if !almostEqual(levels.Fib650, 3.5) {
		t.Errorf("Fib650 = %v, want 3.5", levels.Fib650)
	}
	if !levels.InGoldenPocket(3.6) {
		t.Error("3.6 should be in the golden pocket")
	}
	if levels.InGoldenPocket(4) {
		t.Error("4 is above the pocket")
	}
}

func TestFibonacci_Window(t *testing.T) {
	prices := append([]float64{1000}, linear(FibWindow)...)
	levels := Fibonacci(prices, FibWindow)
	if levels.High != float64(FibWindow) {
		t.Errorf("high outside window leaked in: %v", levels.High)
	}
}

func TestFibonacci_FlatHasNoPocket(t *testing.T) {
	levels := Fibonacci([]float64{3, 3, 3}, FibWindow)
	if levels.InGoldenPocket(3) {
		t.Error("flat range must not report a pocket")
	}
}

func TestCompute_FewerSamplesThanSlowPeriod(t *testing.T) {
	ind := Compute([]float64{1, 2, 3})

	if ind.Samples != 3 {
		t.Errorf("samples = %d, want 3", ind.Samples)
	}
	if !almostEqual(ind.EMAFast, 2) || !almostEqual(ind.EMAMedium, 2) || !almostEqual(ind.EMASlow, 2) {
		t.Errorf("short-series EMAs must equal the mean: %+v", ind)
	}
	if ind.Trend != domain.TrendNeutral {
		t.Errorf("equal EMAs must be neutral, got %s", ind.Trend)
	}
	if ind.RSI < 0 || ind.RSI > 100 {
		t.Errorf("RSI out of range: %v", ind.RSI)
	}
}

func TestCompute_RisingSeriesIsBullish(t *testing.T) {
	ind := Compute(linear(80))
	if ind.Trend != domain.TrendBullish {
		t.Errorf("trend = %s, want bullish", ind.Trend)
	}
	if got := ClassifyPhase(ind); got != domain.PhaseDistribution {
		t.Errorf("phase = %s, want distribution", got)
	}
}

func TestClassifyPhase(t *testing.T) {
	tests := []struct {
		name string
		ind  domain.Indicators
		want domain.MarketPhase
	}{
		{"bullish overbought", domain.Indicators{Trend: domain.TrendBullish, RSI: 75}, domain.PhaseDistribution},
		{"bullish", domain.Indicators{Trend: domain.TrendBullish, RSI: 55}, domain.PhaseTrendingUp},
		{"bearish oversold", domain.Indicators{Trend: domain.TrendBearish, RSI: 20}, domain.PhaseAccumulating},
		{"bearish", domain.Indicators{Trend: domain.TrendBearish, RSI: 45}, domain.PhaseTrendingDown},
		{"neutral pocket", domain.Indicators{Trend: domain.TrendNeutral, RSI: 50, InGoldenPocket: true}, domain.PhaseAccumulating},
		{"neutral", domain.Indicators{Trend: domain.TrendNeutral, RSI: 50}, domain.PhaseConsolidating},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyPhase(tt.ind); got != tt.want {
				t.Errorf("ClassifyPhase = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestTrendOf(t *testing.T) {
	if TrendOf(3, 2, 1) != domain.TrendBullish {
		t.Error("3>2>1 should be bullish")
	}
	if TrendOf(1, 2, 3) != domain.TrendBearish {
		t.Error("1<2<3 should be bearish")
	}
	if TrendOf(2, 3, 1) != domain.TrendNeutral {
		t.Error("mixed alignment should be neutral")
	}
}
