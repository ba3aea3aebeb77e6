package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"solana-mm-brain/internal/domain"
)

func TestMetrics_ObserveTrade(t *testing.T) {
	m := NewMetrics("test", prometheus.NewRegistry())

	m.ObserveTrade(domain.TradeResult{
		Strategy:  domain.StrategyVolumeBot,
		Action:    domain.ActionBuy,
		Venue:     domain.VenueBondingCurve,
		Success:   true,
		Simulated: true,
	}, 10*time.Millisecond)
	m.ObserveTrade(domain.TradeResult{
		Strategy: domain.StrategyVolumeBot,
		Action:   domain.ActionBuy,
		Venue:    domain.VenueBondingCurve,
	}, 10*time.Millisecond)

	ok := testutil.ToFloat64(m.TradesTotal.WithLabelValues("volume-bot", "bonding_curve", "success", "true"))
	if ok != 1 {
		t.Errorf("expected 1 simulated success, got %v", ok)
	}
	failed := testutil.ToFloat64(m.TradesTotal.WithLabelValues("volume-bot", "bonding_curve", "failure", "false"))
	if failed != 1 {
		t.Errorf("expected 1 failure, got %v", failed)
	}
}

func TestMetrics_EngineGauge(t *testing.T) {
	m := NewMetrics("test", prometheus.NewRegistry())

	m.EngineStarted()
	m.EngineStarted()
	m.EngineStopped()

	if got := testutil.ToFloat64(m.EnginesRunning); got != 1 {
		t.Errorf("expected 1 running engine, got %v", got)
	}
}

func TestMetrics_TicksAndIntents(t *testing.T) {
	m := NewMetrics("test", prometheus.NewRegistry())

	m.ObserveTick("ok", time.Second)
	m.ObserveTick("error", time.Second)
	m.ObserveTick("ok", time.Second)
	m.ObserveIntent(domain.StrategyPriceStabilizer, "rejected")

	if got := testutil.ToFloat64(m.TicksTotal.WithLabelValues("ok")); got != 2 {
		t.Errorf("expected 2 ok ticks, got %v", got)
	}
	if got := testutil.ToFloat64(m.IntentsTotal.WithLabelValues("price-stabilizer", "rejected")); got != 1 {
		t.Errorf("expected 1 rejected intent, got %v", got)
	}
}
