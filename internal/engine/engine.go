// Package engine runs the per-token decision loop: observe, classify,
// decide, validate, dispatch and record.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"solana-mm-brain/internal/config"
	"solana-mm-brain/internal/domain"
	"solana-mm-brain/internal/ring"
	"solana-mm-brain/internal/strategy"
	"solana-mm-brain/internal/wallet"
)

// ErrAlreadyRunning is returned when Run is called twice on one engine.
var ErrAlreadyRunning = errors.New("engine already running")

// ErrFixedSetting is returned by UpdateConfig for settings that only apply at start.
var ErrFixedSetting = fmt.Errorf("%w: setting cannot change while running", domain.ErrConfigInvalid)

// Observer produces market snapshots.
type Observer interface {
	Poll(ctx context.Context, mint string) (*domain.MarketSnapshot, error)
}

// WalletPool is the wallet surface the engine trades through.
type WalletPool interface {
	Select(kind domain.StrategyKind, opts wallet.SelectOptions) (domain.WalletInfo, bool)
	Wallets() []domain.WalletInfo
	Balance(ctx context.Context, w domain.WalletInfo, mint string) (domain.Balance, error)
	Dispatch(ctx context.Context, intent domain.TradeIntent, slippageBps int) domain.TradeResult
	ActiveCount() int
	Disabled() []string
}

// ResultSink persists trade results. Duplicate inserts are expected to fail.
type ResultSink interface {
	Insert(ctx context.Context, res *domain.TradeResult) error
}

// Metrics receives engine measurements.
type Metrics interface {
	ObserveTick(outcome string, d time.Duration)
	ObservePoll(d time.Duration)
	ObserveIntent(kind domain.StrategyKind, outcome string)
	ObserveTrade(res domain.TradeResult, d time.Duration)
	ObserveWalletDisabled()
}

// Options configures an Engine.
type Options struct {
	UserID   string
	Mint     string
	Config   config.EngineConfig
	Observer Observer
	Pool     WalletPool
	Sink     ResultSink
	Metrics  Metrics
	Logger   *zap.Logger
	OnLog    func(domain.LogEntry) // called for every feed entry; must not block
	Now      func() time.Time

	// Positions seeds per-wallet tallies, typically from earlier runs, so
	// exposure caps hold across restarts.
	Positions map[string]domain.Position
}

type cooldownKey struct {
	kind   domain.StrategyKind
	wallet string
}

// Engine is the decision loop for one (user, mint) pair.
type Engine struct {
	userID   string
	mint     string
	runID    string
	observer Observer
	pool     WalletPool
	sink     ResultSink
	metrics  Metrics
	logger   *zap.Logger
	onLog    func(domain.LogEntry)
	now      func() time.Time

	cfg        atomic.Pointer[config.EngineConfig]
	strategies map[domain.StrategyKind]strategy.Strategy

	started  atomic.Bool
	stopping atomic.Bool
	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}

	// tickMu serializes ticks; tick N completes before N+1.
	tickMu sync.Mutex

	mu           sync.Mutex
	status       domain.EngineStatus
	startTime    time.Time
	phase        domain.MarketPhase
	ticks        int64
	failingTicks int
	positions    map[string]domain.Position
	simulated    map[string]domain.Position // dry-run deltas over chain balances
	applied      map[string]struct{}
	cooldowns    map[cooldownKey]time.Time
	lastTrade    *domain.TradeResult
	lastError    *domain.EngineError
	lastSnapshot *domain.MarketSnapshot

	trades *ring.Buffer[domain.TradeResult]
	errLog *ring.Buffer[domain.EngineError]
	logs   *ring.Buffer[domain.LogEntry]
}

// New creates a stopped engine. The config must already be validated.
func New(opts Options) (*Engine, error) {
	if opts.Mint == "" {
		return nil, errors.New("engine needs a mint")
	}
	if opts.Observer == nil || opts.Pool == nil {
		return nil, errors.New("engine needs an observer and a wallet pool")
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}
	if opts.Metrics == nil {
		opts.Metrics = nopMetrics{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	e := &Engine{
		userID:     opts.UserID,
		mint:       opts.Mint,
		runID:      uuid.NewString(),
		observer:   opts.Observer,
		pool:       opts.Pool,
		sink:       opts.Sink,
		metrics:    opts.Metrics,
		onLog:      opts.OnLog,
		now:        opts.Now,
		strategies: strategy.All(),
		stopCh:     make(chan struct{}),
		done:       make(chan struct{}),
		status:     domain.StatusStopped,
		positions:  make(map[string]domain.Position),
		simulated:  make(map[string]domain.Position),
		applied:    make(map[string]struct{}),
		cooldowns:  make(map[cooldownKey]time.Time),
		trades:     ring.New[domain.TradeResult](opts.Config.LogCapacity),
		errLog:     ring.New[domain.EngineError](opts.Config.LogCapacity),
		logs:       ring.New[domain.LogEntry](opts.Config.LogCapacity),
	}
	e.logger = opts.Logger.With(
		zap.String("user", opts.UserID),
		zap.String("mint", opts.Mint),
		zap.String("run", e.runID),
	)
	for id, p := range opts.Positions {
		p.WalletID = id
		e.positions[id] = p
	}
	cfg := opts.Config
	e.cfg.Store(&cfg)
	return e, nil
}

// RunID identifies this engine instance in dispatch ids.
func (e *Engine) RunID() string { return e.runID }

// Config returns the active configuration.
func (e *Engine) Config() config.EngineConfig {
	return *e.cfg.Load()
}

// CheckUpdate reports whether cfg can replace the active configuration.
// LogCapacity sizes the rings at construction and is fixed for the run.
func (e *Engine) CheckUpdate(cfg config.EngineConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cur := e.cfg.Load(); cfg.LogCapacity != cur.LogCapacity {
		return fmt.Errorf("%w: logCapacity is %d", ErrFixedSetting, cur.LogCapacity)
	}
	return nil
}

// UpdateConfig swaps the configuration. It takes effect on the next tick.
// A config rejected by CheckUpdate leaves the current one in place.
func (e *Engine) UpdateConfig(cfg config.EngineConfig) error {
	if err := e.CheckUpdate(cfg); err != nil {
		return err
	}
	e.cfg.Store(&cfg)
	e.log(domain.LogInfo, "config updated", "", "", false)
	return nil
}

// Run drives ticks until Stop, context cancellation or a fatal error.
// A fatal error stops the engine and is returned.
func (e *Engine) Run(ctx context.Context) error {
	if !e.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(e.done)

	e.mu.Lock()
	if e.stopping.Load() {
		e.status = domain.StatusStopped
		e.mu.Unlock()
		return nil
	}
	e.status = domain.StatusStarting
	e.startTime = e.now()
	e.mu.Unlock()

	interval := e.Config().PollInterval
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	e.logger.Info("engine started", zap.Duration("poll_interval", interval), zap.Bool("dry_run", e.Config().DryRun))
	e.log(domain.LogInfo, "engine started", "", "", false)

	for {
		err := e.Tick(ctx)
		if err != nil && domain.KindOf(err) == domain.KindFatal {
			e.finish(err)
			return err
		}

		if next := e.Config().PollInterval; next != interval {
			interval = next
			ticker.Reset(interval)
		}

		select {
		case <-ctx.Done():
			e.finish(nil)
			return ctx.Err()
		case <-e.stopCh:
			e.finish(nil)
			return nil
		case <-ticker.C:
		}
	}
}

func (e *Engine) finish(err error) {
	e.mu.Lock()
	e.status = domain.StatusStopped
	e.mu.Unlock()

	if err != nil {
		e.logger.Error("engine stopped on fatal error", zap.Error(err))
		e.log(domain.LogError, fmt.Sprintf("engine stopped: %v", err), "", "", false)
		return
	}
	e.logger.Info("engine stopped")
	e.log(domain.LogInfo, "engine stopped", "", "", false)
}

// Stop signals the loop and waits for the in-flight tick to finish.
// Stopping a stopped engine is a no-op.
func (e *Engine) Stop(ctx context.Context) (domain.EngineState, error) {
	e.stopping.Store(true)

	e.mu.Lock()
	if e.status.Active() {
		e.status = domain.StatusStopping
	}
	e.mu.Unlock()

	e.stopOnce.Do(func() { close(e.stopCh) })

	if e.started.Load() {
		select {
		case <-e.done:
		case <-ctx.Done():
			return e.Snapshot(), ctx.Err()
		}
	}

	e.mu.Lock()
	e.status = domain.StatusStopped
	e.mu.Unlock()
	return e.Snapshot(), nil
}

// Done is closed when Run returns.
func (e *Engine) Done() <-chan struct{} { return e.done }

// Snapshot returns a deep copy of the engine state. It never waits for a tick.
func (e *Engine) Snapshot() domain.EngineState {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := domain.EngineState{
		Status:          e.status,
		UserID:          e.userID,
		Mint:            e.mint,
		RunID:           e.runID,
		StartTime:       e.startTime,
		Phase:           e.phase,
		Ticks:           e.ticks,
		DryRun:          e.cfg.Load().DryRun,
		Positions:       make(map[string]domain.Position, len(e.positions)),
		Trades:          e.trades.Recent(0),
		Errors:          e.errLog.Recent(0),
		LastSnapshot:    e.lastSnapshot.Clone(),
		ActiveWallets:   e.pool.ActiveCount(),
		DisabledWallets: e.pool.Disabled(),
	}
	for id, p := range e.positions {
		st.Positions[id] = p
	}
	if e.lastTrade != nil {
		t := *e.lastTrade
		st.LastTrade = &t
	}
	if e.lastError != nil {
		le := *e.lastError
		st.LastError = &le
	}
	return st
}

// Logs returns up to limit feed entries, most recent first. limit <= 0 returns all.
func (e *Engine) Logs(limit int) []domain.LogEntry {
	return e.logs.Recent(limit)
}

func (e *Engine) log(kind domain.LogKind, msg string, strat domain.StrategyKind, walletID string, simulated bool) {
	entry := domain.LogEntry{
		Time:      e.now(),
		UserID:    e.userID,
		Mint:      e.mint,
		Kind:      kind,
		Message:   msg,
		Strategy:  strat,
		WalletID:  walletID,
		Simulated: simulated,
	}
	e.logs.Push(entry)
	if e.onLog != nil {
		e.onLog(entry)
	}
}

func (e *Engine) recordError(kind domain.ErrorKind, err error) {
	ee := domain.EngineError{Time: e.now(), Kind: kind, Message: err.Error()}
	e.errLog.Push(ee)

	e.mu.Lock()
	e.lastError = &ee
	e.mu.Unlock()

	e.logger.Warn("tick error", zap.String("kind", string(kind)), zap.Error(err))
	e.log(domain.LogError, err.Error(), "", "", false)
}

type nopMetrics struct{}

func (nopMetrics) ObserveTick(string, time.Duration) {}
func (nopMetrics) ObservePoll(time.Duration) {}
func (nopMetrics) ObserveIntent(domain.StrategyKind, string) {}
func (nopMetrics) ObserveTrade(domain.TradeResult, time.Duration) {}
func (nopMetrics) ObserveWalletDisabled() {}
