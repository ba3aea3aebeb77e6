// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"solana-mm-brain/internal/domain"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Engine metrics
	TicksTotal      *prometheus.CounterVec
	TickDuration    prometheus.Histogram
	PollLatency     prometheus.Histogram
	IntentsTotal    *prometheus.CounterVec
	TradesTotal     *prometheus.CounterVec
	DispatchLatency *prometheus.HistogramVec
	EnginesRunning  prometheus.Gauge
	WalletsDisabled prometheus.Counter

	// Upstream metrics
	RPCCallLatency *prometheus.HistogramVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Websocket feed
	FeedClients prometheus.Gauge
	FeedDropped prometheus.Counter
}

// NewMetrics creates a new Metrics instance registered with reg.
// A nil reg uses the default Prometheus registry.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "solana_mm_brain"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		TicksTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "ticks_total",
			Help:      "Total number of engine ticks by outcome",
		}, []string{"outcome"}),
		TickDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "tick_duration_seconds",
			Help:      "Engine tick duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		PollLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "market",
			Name:      "poll_latency_seconds",
			Help:      "Market observer poll latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		IntentsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "intents_total",
			Help:      "Total number of trade intents by strategy and outcome",
		}, []string{"strategy", "outcome"}),
		TradesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "trades_total",
			Help:      "Total number of dispatched trades",
		}, []string{"strategy", "venue", "status", "simulated"}),
		DispatchLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "dispatch_latency_seconds",
			Help:      "Trade dispatch latency in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"action"}),
		EnginesRunning: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "running",
			Help:      "Number of running engines",
		}),
		WalletsDisabled: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "wallet",
			Name:      "disabled_total",
			Help:      "Total number of wallets disabled by key failures",
		}),

		RPCCallLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),

		DBQueryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		FeedClients: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "clients",
			Help:      "Connected websocket log feed clients",
		}),
		FeedDropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "dropped_clients_total",
			Help:      "Websocket clients dropped for falling behind",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("", nil)

// ObserveTick records one engine tick.
func (m *Metrics) ObserveTick(outcome string, d time.Duration) {
	m.TicksTotal.WithLabelValues(outcome).Inc()
	m.TickDuration.Observe(d.Seconds())
}

// ObservePoll records one market poll.
func (m *Metrics) ObservePoll(d time.Duration) {
	m.PollLatency.Observe(d.Seconds())
}

// ObserveIntent records an intent outcome (dispatched, rejected, skipped).
func (m *Metrics) ObserveIntent(strategy domain.StrategyKind, outcome string) {
	m.IntentsTotal.WithLabelValues(string(strategy), outcome).Inc()
}

// ObserveTrade records a dispatched trade.
func (m *Metrics) ObserveTrade(res domain.TradeResult, d time.Duration) {
	status := "success"
	if !res.Success {
		status = "failure"
	}
	m.TradesTotal.WithLabelValues(string(res.Strategy), string(res.Venue), status, strconv.FormatBool(res.Simulated)).Inc()
	m.DispatchLatency.WithLabelValues(string(res.Action)).Observe(d.Seconds())
}

// ObserveWalletDisabled counts a wallet disabled by a key failure.
func (m *Metrics) ObserveWalletDisabled() {
	m.WalletsDisabled.Inc()
}

// EngineStarted increments the running engines gauge.
func (m *Metrics) EngineStarted() { m.EnginesRunning.Inc() }

// EngineStopped decrements the running engines gauge.
func (m *Metrics) EngineStopped() { m.EnginesRunning.Dec() }

// RecordRPCLatency records RPC call latency.
func RecordRPCLatency(method string, d time.Duration) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(d.Seconds())
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
