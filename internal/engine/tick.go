package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"solana-mm-brain/internal/chain"
	"solana-mm-brain/internal/config"
	"solana-mm-brain/internal/domain"
	"solana-mm-brain/internal/idhash"
	"solana-mm-brain/internal/indicators"
	"solana-mm-brain/internal/storage"
	"solana-mm-brain/internal/strategy"
	"solana-mm-brain/internal/validator"
	"solana-mm-brain/internal/wallet"
)

// DryRunSignaturePrefix marks signatures of simulated trades.
const DryRunSignaturePrefix = "DRYRUN-"

// Tick outcomes reported to Metrics.
const (
	outcomeOK      = "ok"
	outcomeError   = "error"
	outcomeSkipped = "skipped"
)

// Tick runs one observe-decide-dispatch cycle. Errors are recorded in the
// engine state; a returned error of kind Fatal means the engine must stop.
func (e *Engine) Tick(ctx context.Context) error {
	e.tickMu.Lock()
	defer e.tickMu.Unlock()

	if e.stopping.Load() {
		e.metrics.ObserveTick(outcomeSkipped, 0)
		return nil
	}

	cfg := e.Config()
	start := e.now()

	e.mu.Lock()
	e.ticks++
	tick := e.ticks
	e.mu.Unlock()

	err := e.tick(ctx, cfg, tick)

	outcome := outcomeOK
	if err != nil {
		outcome = outcomeError
	}
	e.metrics.ObserveTick(outcome, e.now().Sub(start))

	return e.settle(cfg, err)
}

// settle applies the tick outcome to the status and decides whether the
// failure is fatal.
func (e *Engine) settle(cfg config.EngineConfig, err error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err == nil {
		e.failingTicks = 0
	} else {
		e.failingTicks++
	}

	var fatal error
	switch {
	case e.pool.ActiveCount() == 0:
		fatal = domain.NewError(domain.KindFatal, "tick", fmt.Errorf("%w: no active wallets", domain.ErrFatal))
	case cfg.MaxConsecutiveErrors > 0 && e.failingTicks >= cfg.MaxConsecutiveErrors:
		fatal = domain.NewError(domain.KindFatal, "tick",
			fmt.Errorf("%w: %d consecutive failing ticks: %v", domain.ErrFatal, e.failingTicks, err))
	}
	if fatal != nil {
		ee := domain.EngineError{Time: e.now(), Kind: domain.KindFatal, Message: fatal.Error()}
		e.errLog.Push(ee)
		e.lastError = &ee
		return fatal
	}

	if e.status.Active() {
		if err != nil {
			e.status = domain.StatusErrored
		} else {
			e.status = domain.StatusRunning
		}
	}
	return err
}

func (e *Engine) tick(ctx context.Context, cfg config.EngineConfig, tick int64) error {
	tctx, cancel := context.WithTimeout(ctx, cfg.TickBudget)
	defer cancel()

	pollStart := e.now()
	snap, err := e.observer.Poll(tctx, e.mint)
	e.metrics.ObservePoll(e.now().Sub(pollStart))
	if err != nil {
		kind := domain.KindOf(err)
		e.recordError(kind, fmt.Errorf("poll: %w", err))
		return domain.NewError(kind, "poll", err)
	}

	phase := indicators.ClassifyPhase(snap.Indicators)
	e.mu.Lock()
	e.lastSnapshot = snap
	e.phase = phase
	e.mu.Unlock()

	venue := chain.RouteVenue(snap.BondingComplete)
	now := e.now()
	used := make(map[string]struct{})

	var errs []error
	for _, kind := range cfg.EnabledStrategies() {
		if err := e.runStrategy(ctx, tctx, cfg, tick, kind, snap, phase, venue, now, used); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (e *Engine) runStrategy(
	ctx, tctx context.Context,
	cfg config.EngineConfig,
	tick int64,
	kind domain.StrategyKind,
	snap *domain.MarketSnapshot,
	phase domain.MarketPhase,
	venue domain.Venue,
	now time.Time,
	used map[string]struct{},
) error {
	s := e.strategies[kind]

	opts := wallet.SelectOptions{Exclude: e.excluded(kind, cfg, now, used)}
	if kind == domain.StrategyVolumeFarmer {
		opts.Exposure = e.exposure
		opts.MaxExposureSOL = cfg.MaxSOLPerWallet
	}
	w, ok := e.pool.Select(kind, opts)
	if !ok {
		e.metrics.ObserveIntent(kind, "no_wallet")
		return nil
	}

	bal, err := e.balance(tctx, w, cfg.DryRun)
	if err != nil {
		kindOf := domain.KindOf(err)
		e.recordError(kindOf, fmt.Errorf("%s balance for %s: %w", kind, w.ID, err))
		return err
	}

	intent := s.Decide(&strategy.Input{
		Snapshot: snap,
		Phase:    phase,
		Config:   cfg,
		Wallet:   w,
		Balance:  bal,
		Now:      now,
	})
	if intent == nil {
		e.metrics.ObserveIntent(kind, "hold")
		return nil
	}
	intent.Venue = venue
	intent.DispatchID = idhash.ComputeDispatchID(e.runID, tick, string(kind), w.ID, string(intent.Action))

	verdict := validator.Validate(*intent, bal, cfg)
	intent.Warnings = verdict.Warnings // includes the strategy's own
	for _, warn := range intent.Warnings {
		e.log(domain.LogWarning, warn, kind, w.ID, cfg.DryRun)
	}
	if !verdict.Valid {
		e.metrics.ObserveIntent(kind, "rejected")
		e.logger.Info("intent rejected",
			zap.String("strategy", string(kind)),
			zap.String("wallet", w.ID),
			zap.String("reason", verdict.Reason),
			zap.String("error", verdict.Error))
		e.log(domain.LogRejection, fmt.Sprintf("%s %s rejected: %s", kind, intent.Action, verdict.Error), kind, w.ID, cfg.DryRun)
		return nil
	}

	used[w.ID] = struct{}{}
	e.metrics.ObserveIntent(kind, "dispatched")

	dispatchStart := e.now()
	res := e.dispatch(ctx, cfg, *intent)
	e.metrics.ObserveTrade(res, e.now().Sub(dispatchStart))

	e.ApplyResult(res)
	s.Observe(res)

	if res.Success {
		return nil
	}
	if res.ErrorKind == domain.KindWalletDisabled {
		e.metrics.ObserveWalletDisabled()
	}
	failure := domain.NewError(res.ErrorKind, "dispatch", errors.New(res.Error))
	e.recordError(res.ErrorKind, fmt.Errorf("%s %s via %s: %s", kind, res.Action, w.ID, res.Error))
	return failure
}

// excluded lists wallets used this tick or still cooling down for kind.
func (e *Engine) excluded(kind domain.StrategyKind, cfg config.EngineConfig, now time.Time, used map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(used))
	for id := range used {
		out[id] = struct{}{}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for _, w := range e.pool.Wallets() {
		last, ok := e.cooldowns[cooldownKey{kind: kind, wallet: w.ID}]
		if ok && now.Sub(last) < cfg.Cooldown {
			out[w.ID] = struct{}{}
		}
	}
	return out
}

// exposure returns the SOL a wallet has deployed in this run.
func (e *Engine) exposure(walletID string) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.positions[walletID].SOLDeployed.InexactFloat64()
}

// balance reads the wallet's chain balance. In dry-run the simulated
// deltas of this run are layered on top.
func (e *Engine) balance(ctx context.Context, w domain.WalletInfo, dryRun bool) (domain.Balance, error) {
	bal, err := e.pool.Balance(ctx, w, e.mint)
	if err != nil {
		return domain.Balance{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	bal.DeployedSOL = e.positions[w.ID].SOLDeployed.InexactFloat64()
	if dryRun {
		sim := e.simulated[w.ID]
		bal.Tokens = decimal.NewFromFloat(bal.Tokens).Add(sim.Tokens).InexactFloat64()
		bal.SOL = decimal.NewFromFloat(bal.SOL).Sub(sim.SOLDeployed).InexactFloat64()
	}
	return bal, nil
}

// dispatch executes or simulates a validated intent. The call is detached
// from cancellation so an in-flight trade completes on stop.
func (e *Engine) dispatch(ctx context.Context, cfg config.EngineConfig, intent domain.TradeIntent) domain.TradeResult {
	if cfg.DryRun {
		return e.simulate(intent)
	}
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.TickBudget)
	defer cancel()
	return e.pool.Dispatch(dctx, intent, cfg.SlippageBps)
}

// simulate synthesizes the result a successful dispatch would produce at
// the intent's quote.
func (e *Engine) simulate(intent domain.TradeIntent) domain.TradeResult {
	res := domain.TradeResult{
		DispatchID: intent.DispatchID,
		Strategy:   intent.Strategy,
		Action:     intent.Action,
		WalletID:   intent.WalletID,
		Mint:       intent.Mint,
		Venue:      intent.Venue,
		Success:    true,
		Signature:  DryRunSignaturePrefix + idhash.Short(intent.DispatchID),
		AmountIn:   intent.Amount,
		Simulated:  true,
		Timestamp:  e.now(),
	}
	switch intent.Action {
	case domain.ActionBuy, domain.ActionSwap:
		if intent.PriceSOL > 0 {
			res.AmountOut = intent.Amount / intent.PriceSOL
		}
	case domain.ActionSell:
		res.AmountOut = intent.Amount * intent.PriceSOL
	case domain.ActionClaim:
		res.AmountIn = 0
	}
	return res
}

// ApplyResult records a dispatch result. A result whose dispatch id was
// already applied is ignored and false is returned.
func (e *Engine) ApplyResult(res domain.TradeResult) bool {
	if res.UserID == "" {
		res.UserID = e.userID
	}

	e.mu.Lock()
	if _, dup := e.applied[res.DispatchID]; dup {
		e.mu.Unlock()
		return false
	}
	e.applied[res.DispatchID] = struct{}{}

	pos := e.positions[res.WalletID]
	pos.WalletID = res.WalletID
	e.positions[res.WalletID] = pos.Apply(res)
	if res.Simulated {
		sim := e.simulated[res.WalletID]
		e.simulated[res.WalletID] = sim.Apply(res)
	}
	e.trades.Push(res)
	last := res
	e.lastTrade = &last
	e.cooldowns[cooldownKey{kind: res.Strategy, wallet: res.WalletID}] = res.Timestamp
	e.mu.Unlock()

	e.logTrade(res)
	e.persist(res)
	return true
}

func (e *Engine) logTrade(res domain.TradeResult) {
	var b strings.Builder
	if res.Simulated {
		b.WriteString("[dry-run] ")
	}
	fmt.Fprintf(&b, "%s %s %.6f on %s", res.Strategy, res.Action, res.AmountIn, res.Venue)
	if res.Success {
		fmt.Fprintf(&b, " ok %s", res.Signature)
	} else {
		fmt.Fprintf(&b, " failed: %s", res.Error)
	}

	fields := []zap.Field{
		zap.String("dispatch_id", res.DispatchID),
		zap.String("strategy", string(res.Strategy)),
		zap.String("action", string(res.Action)),
		zap.String("wallet", res.WalletID),
		zap.String("venue", string(res.Venue)),
		zap.Float64("amount_in", res.AmountIn),
		zap.Float64("amount_out", res.AmountOut),
		zap.Bool("simulated", res.Simulated),
	}
	if res.Success {
		e.logger.Info("trade", append(fields, zap.String("signature", res.Signature))...)
	} else {
		e.logger.Warn("trade failed", append(fields, zap.String("error", res.Error))...)
	}
	e.log(domain.LogTrade, b.String(), res.Strategy, res.WalletID, res.Simulated)
}

func (e *Engine) persist(res domain.TradeResult) {
	if e.sink == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), e.Config().TickBudget)
	defer cancel()
	if err := e.sink.Insert(ctx, &res); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
		e.logger.Warn("persist trade result", zap.String("dispatch_id", res.DispatchID), zap.Error(err))
	}
}
