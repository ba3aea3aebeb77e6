// Package lifecycle owns the set of running engines and their
// start/stop/status/update surface.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"solana-mm-brain/internal/chain"
	"solana-mm-brain/internal/config"
	"solana-mm-brain/internal/domain"
	"solana-mm-brain/internal/engine"
	"solana-mm-brain/internal/keystore"
	"solana-mm-brain/internal/storage"
	"solana-mm-brain/internal/wallet"
)

// Registry errors.
var (
	ErrNotFound        = errors.New("engine not found")
	ErrAlreadyRunning  = errors.New("engine already running")
	ErrInvalidRequest  = errors.New("invalid start request")
	ErrNoActiveWallets = fmt.Errorf("%w: no wallet passed key validation", domain.ErrWalletDisabled)
)

// ObserverFactory builds the market observer for one engine.
type ObserverFactory func(mint string) (engine.Observer, error)

// Metrics is the measurement surface of the registry and its engines.
type Metrics interface {
	engine.Metrics
	EngineStarted()
	EngineStopped()
}

// Options configures a Registry.
type Options struct {
	KeyStore    keystore.KeyStore
	Adapter     chain.Adapter
	Observers   ObserverFactory
	ConfigStore storage.ConfigStore
	Results     engine.ResultSink
	History     TradeHistory // seeds wallet positions on start; nil starts flat
	Metrics     Metrics
	Defaults    *config.Overrides // process-wide layer between built-in defaults and persisted overrides
	ForceDryRun bool              // set when no executor is configured
	Logger      *zap.Logger
	OnLog       func(domain.LogEntry)
	Now         func() time.Time
}

// TradeHistory reads earlier results of one (user, mint).
type TradeHistory interface {
	GetByUserMint(ctx context.Context, userID, mint string, limit int) ([]*domain.TradeResult, error)
}

// Key identifies an engine.
type Key struct {
	UserID string `json:"userId"`
	Mint   string `json:"mint"`
}

// StartRequest asks for a new engine.
type StartRequest struct {
	UserID   string
	Mint     string
	Override *config.Overrides // nil keeps the persisted overrides
	Wallets  []domain.WalletInfo
}

// Handle is the registry's record of one engine.
type Handle struct {
	key    Key
	engine *engine.Engine
	cancel context.CancelFunc
	done   chan struct{}

	mu        sync.Mutex
	overrides *config.Overrides
	err       error // terminal loop error
}

// Engine returns the managed engine.
func (h *Handle) Engine() *engine.Engine { return h.engine }

// Done is closed when the loop has exited.
func (h *Handle) Done() <-chan struct{} { return h.done }

func (h *Handle) running() bool {
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

// State returns the engine state. A loop that died on a panic reports it
// as the last error.
func (h *Handle) State() domain.EngineState {
	st := h.engine.Snapshot()
	if err := h.Err(); err != nil && domain.KindOf(err) == domain.KindFatal {
		if st.LastError == nil || st.LastError.Kind != domain.KindFatal {
			st.LastError = &domain.EngineError{Kind: domain.KindFatal, Message: err.Error()}
		}
	}
	return st
}

// Err returns the error the loop exited with, if any.
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Registry holds engines keyed by (user, mint). It is safe for concurrent use.
type Registry struct {
	opts Options

	mu       sync.Mutex
	handles  map[Key]*Handle
	starting map[Key]struct{} // keys reserved by an in-progress Start
}

// NewRegistry creates a registry.
func NewRegistry(opts Options) (*Registry, error) {
	if opts.KeyStore == nil || opts.Adapter == nil || opts.Observers == nil {
		return nil, errors.New("registry needs a key store, chain adapter and observer factory")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Registry{
		opts:     opts,
		handles:  make(map[Key]*Handle),
		starting: make(map[Key]struct{}),
	}, nil
}

// Start resolves config, validates wallets and launches a supervised loop.
// A second start for a running or starting (user, mint) is rejected. The
// key is reserved while storage and key material are read, so other
// engines stay reachable.
func (r *Registry) Start(ctx context.Context, req StartRequest) (*Handle, error) {
	if req.UserID == "" || req.Mint == "" {
		return nil, fmt.Errorf("%w: userId and mint are required", ErrInvalidRequest)
	}
	if len(req.Wallets) == 0 {
		return nil, fmt.Errorf("%w: at least one wallet is required", ErrInvalidRequest)
	}

	key := Key{UserID: req.UserID, Mint: req.Mint}
	if err := r.reserve(key); err != nil {
		return nil, err
	}

	h, loopCtx, err := r.prepare(ctx, key, req)

	r.mu.Lock()
	delete(r.starting, key)
	if err == nil {
		r.handles[key] = h
	}
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}

	go r.supervise(loopCtx, h)

	cfg := h.engine.Config()
	r.opts.Logger.Info("engine launched",
		zap.String("user", key.UserID),
		zap.String("mint", key.Mint),
		zap.String("run", h.engine.RunID()),
		zap.Bool("dry_run", cfg.DryRun),
		zap.Int("wallets", h.engine.Snapshot().ActiveWallets))
	return h, nil
}

func (r *Registry) reserve(key Key) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok := r.handles[key]; ok && h.running() {
		return fmt.Errorf("%w: %s/%s", ErrAlreadyRunning, key.UserID, key.Mint)
	}
	if _, ok := r.starting[key]; ok {
		return fmt.Errorf("%w: %s/%s is starting", ErrAlreadyRunning, key.UserID, key.Mint)
	}
	r.starting[key] = struct{}{}
	return nil
}

// prepare builds the engine for a reserved key. It runs without r.mu.
func (r *Registry) prepare(ctx context.Context, key Key, req StartRequest) (*Handle, context.Context, error) {
	persisted, err := r.loadOverrides(ctx, key)
	if err != nil {
		return nil, nil, err
	}
	merged := persisted.Merge(req.Override)
	cfg, err := r.resolve(merged)
	if err != nil {
		return nil, nil, err
	}

	pool, err := wallet.NewPool(req.Wallets, wallet.Options{
		KeyStore: r.opts.KeyStore,
		Adapter:  r.opts.Adapter,
		Logger:   r.opts.Logger.With(zap.String("user", key.UserID), zap.String("mint", key.Mint)),
		Now:      r.opts.Now,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if disabled := pool.Validate(); len(disabled) > 0 {
		r.opts.Logger.Warn("wallets failed key validation", zap.Strings("wallets", disabled))
	}
	if pool.ActiveCount() == 0 {
		return nil, nil, ErrNoActiveWallets
	}

	positions, err := r.loadPositions(ctx, key)
	if err != nil {
		return nil, nil, err
	}

	obs, err := r.opts.Observers(key.Mint)
	if err != nil {
		return nil, nil, fmt.Errorf("build observer: %w", err)
	}

	var metrics engine.Metrics
	if r.opts.Metrics != nil {
		metrics = r.opts.Metrics
	}
	eng, err := engine.New(engine.Options{
		UserID:    key.UserID,
		Mint:      key.Mint,
		Config:    cfg,
		Observer:  obs,
		Pool:      pool,
		Sink:      r.opts.Results,
		Metrics:   metrics,
		Logger:    r.opts.Logger,
		OnLog:     r.opts.OnLog,
		Now:       r.opts.Now,
		Positions: positions,
	})
	if err != nil {
		return nil, nil, err
	}

	if req.Override != nil && r.opts.ConfigStore != nil {
		if err := r.opts.ConfigStore.Put(ctx, key.UserID, key.Mint, merged); err != nil {
			return nil, nil, fmt.Errorf("persist config: %w", err)
		}
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	return &Handle{
		key:       key,
		engine:    eng,
		cancel:    cancel,
		done:      make(chan struct{}),
		overrides: merged,
	}, loopCtx, nil
}

// loadPositions rebuilds per-wallet tallies from executed trades of earlier
// runs. Simulated results are run-local and are not carried over.
func (r *Registry) loadPositions(ctx context.Context, key Key) (map[string]domain.Position, error) {
	if r.opts.History == nil {
		return nil, nil
	}
	results, err := r.opts.History.GetByUserMint(ctx, key.UserID, key.Mint, 0)
	if err != nil {
		return nil, fmt.Errorf("load trade history: %w", err)
	}

	positions := make(map[string]domain.Position)
	// oldest first
	for i := len(results) - 1; i >= 0; i-- {
		res := results[i]
		if res.Simulated || !res.Success {
			continue
		}
		p := positions[res.WalletID]
		p.WalletID = res.WalletID
		positions[res.WalletID] = p.Apply(*res)
	}
	return positions, nil
}

// supervise runs the loop and turns a panic into a terminal error.
func (r *Registry) supervise(ctx context.Context, h *Handle) {
	defer close(h.done)
	if r.opts.Metrics != nil {
		r.opts.Metrics.EngineStarted()
		defer r.opts.Metrics.EngineStopped()
	}
	defer func() {
		if p := recover(); p != nil {
			err := domain.NewError(domain.KindFatal, "engine loop", fmt.Errorf("%w: panic: %v", domain.ErrFatal, p))
			r.opts.Logger.Error("engine loop panicked", zap.String("user", h.key.UserID), zap.String("mint", h.key.Mint), zap.Any("panic", p))
			h.mu.Lock()
			h.err = err
			h.mu.Unlock()
			_, _ = h.engine.Stop(context.Background())
		}
	}()

	err := h.engine.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		h.mu.Lock()
		h.err = err
		h.mu.Unlock()
	}
}

// Stop signals the engine and waits for its in-flight tick. Stopping a
// stopped engine returns its final state without error.
func (r *Registry) Stop(ctx context.Context, userID, mint string) (domain.EngineState, error) {
	h, err := r.handle(userID, mint)
	if err != nil {
		return domain.EngineState{}, err
	}

	st, err := h.engine.Stop(ctx)
	if err != nil {
		return st, err
	}
	select {
	case <-h.done:
	case <-ctx.Done():
		return h.State(), ctx.Err()
	}
	h.cancel()
	return h.State(), nil
}

// Status returns a copy of the engine state without waiting on the loop.
func (r *Registry) Status(userID, mint string) (domain.EngineState, error) {
	h, err := r.handle(userID, mint)
	if err != nil {
		return domain.EngineState{}, err
	}
	return h.State(), nil
}

// UpdateConfig merges patch into the engine's overrides, validates the
// result and applies it from the next tick. On error the previous config
// stays in effect.
func (r *Registry) UpdateConfig(ctx context.Context, userID, mint string, patch *config.Overrides) (config.EngineConfig, error) {
	h, err := r.handle(userID, mint)
	if err != nil {
		return config.EngineConfig{}, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	merged := h.overrides.Merge(patch)
	cfg, err := r.resolve(merged)
	if err != nil {
		return h.engine.Config(), err
	}

	if err := h.engine.CheckUpdate(cfg); err != nil {
		return h.engine.Config(), err
	}
	if r.opts.ConfigStore != nil {
		if err := r.opts.ConfigStore.Put(ctx, userID, mint, merged); err != nil {
			return h.engine.Config(), fmt.Errorf("persist config: %w", err)
		}
	}
	if err := h.engine.UpdateConfig(cfg); err != nil {
		return h.engine.Config(), err
	}
	h.overrides = merged
	return cfg, nil
}

// Logs returns up to limit feed entries, most recent first.
func (r *Registry) Logs(userID, mint string, limit int) ([]domain.LogEntry, error) {
	h, err := r.handle(userID, mint)
	if err != nil {
		return nil, err
	}
	return h.engine.Logs(limit), nil
}

// List returns the state of every known engine ordered by user then mint.
func (r *Registry) List() []domain.EngineState {
	r.mu.Lock()
	handles := make([]*Handle, 0, len(r.handles))
	for _, h := range r.handles {
		handles = append(handles, h)
	}
	r.mu.Unlock()

	states := make([]domain.EngineState, 0, len(handles))
	for _, h := range handles {
		states = append(states, h.State())
	}
	sort.Slice(states, func(i, j int) bool {
		if states[i].UserID != states[j].UserID {
			return states[i].UserID < states[j].UserID
		}
		return states[i].Mint < states[j].Mint
	})
	return states
}

// StopAll stops every engine, for process shutdown.
func (r *Registry) StopAll(ctx context.Context) error {
	r.mu.Lock()
	keys := make([]Key, 0, len(r.handles))
	for k := range r.handles {
		keys = append(keys, k)
	}
	r.mu.Unlock()

	var errs []error
	for _, k := range keys {
		if _, err := r.Stop(ctx, k.UserID, k.Mint); err != nil {
			errs = append(errs, fmt.Errorf("stop %s/%s: %w", k.UserID, k.Mint, err))
		}
	}
	return errors.Join(errs...)
}

func (r *Registry) handle(userID, mint string) (*Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.handles[Key{UserID: userID, Mint: mint}]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, userID, mint)
	}
	return h, nil
}

func (r *Registry) loadOverrides(ctx context.Context, key Key) (*config.Overrides, error) {
	if r.opts.ConfigStore == nil {
		return &config.Overrides{}, nil
	}
	o, err := r.opts.ConfigStore.Get(ctx, key.UserID, key.Mint)
	if errors.Is(err, storage.ErrNotFound) {
		return &config.Overrides{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load persisted config: %w", err)
	}
	return o, nil
}

// resolve layers built-in defaults, process defaults and the engine's
// overrides. Dry-run is forced when nothing can execute trades.
func (r *Registry) resolve(o *config.Overrides) (config.EngineConfig, error) {
	cfg, err := config.Resolve(r.opts.Defaults, o)
	if err != nil {
		return config.EngineConfig{}, err
	}
	if r.opts.ForceDryRun {
		cfg.DryRun = true
	}
	return cfg, nil
}
