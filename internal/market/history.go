package market

import (
	"time"

	"solana-mm-brain/internal/ring"
)

// Sample is one observation kept for indicator and volume computation.
type Sample struct {
	At        time.Time
	PriceSOL  float64
	Volume24h float64 // USD, rolling 24h as reported by the source
}

// History is a bounded per-mint sample series.
type History struct {
	samples *ring.Buffer[Sample]
}

// NewHistory creates a history of up to size samples.
func NewHistory(size int) *History {
	return &History{samples: ring.New[Sample](size)}
}

// Add appends a sample.
func (h *History) Add(s Sample) {
	h.samples.Push(s)
}

// Prices returns the price series, oldest first.
func (h *History) Prices() []float64 {
	samples := h.samples.Values()
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s.PriceSOL
	}
	return out
}

// NetVolume estimates buy-minus-sell USD volume over the trailing window
// with the tick rule: each new slice of 24h volume counts as buying when
// price rose since the previous sample and as selling when it fell.
func (h *History) NetVolume(window time.Duration, now time.Time) float64 {
	samples := h.samples.Values()
	cutoff := now.Add(-window)

	var net float64
	for i := 1; i < len(samples); i++ {
		cur, prev := samples[i], samples[i-1]
		if cur.At.Before(cutoff) {
			continue
		}
		delta := cur.Volume24h - prev.Volume24h
		if delta <= 0 {
			continue
		}
		switch {
		case cur.PriceSOL > prev.PriceSOL:
			net += delta
		case cur.PriceSOL < prev.PriceSOL:
			net -= delta
		}
	}
	return net
}
