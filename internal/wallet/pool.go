// Package wallet selects trading wallets and dispatches trades through them.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"solana-mm-brain/internal/chain"
	"solana-mm-brain/internal/domain"
	"solana-mm-brain/internal/keystore"
	"solana-mm-brain/internal/solana"
)

// ErrNoWallets is returned when a pool is built without wallets.
var ErrNoWallets = errors.New("no wallets")

// Options configures a Pool.
type Options struct {
	KeyStore keystore.KeyStore
	Adapter  chain.Adapter
	Logger   *zap.Logger
	Now      func() time.Time
}

// Pool holds the wallets of one engine. The first wallet is the primary.
// Wallets disabled by a key failure stay disabled for the life of the pool.
type Pool struct {
	mu       sync.Mutex
	wallets  []domain.WalletInfo
	disabled map[string]string // wallet id -> reason
	cursors  map[domain.StrategyKind]int

	keys    keystore.KeyStore
	adapter chain.Adapter
	logger  *zap.Logger
	now     func() time.Time
}

// NewPool creates a pool. Wallet IDs must be unique.
func NewPool(wallets []domain.WalletInfo, opts Options) (*Pool, error) {
	if len(wallets) == 0 {
		return nil, ErrNoWallets
	}
	if opts.KeyStore == nil || opts.Adapter == nil {
		return nil, errors.New("wallet pool needs a key store and a chain adapter")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	seen := make(map[string]struct{}, len(wallets))
	for _, w := range wallets {
		if w.ID == "" {
			return nil, errors.New("wallet id is required")
		}
		if _, dup := seen[w.ID]; dup {
			return nil, fmt.Errorf("duplicate wallet id %q", w.ID)
		}
		seen[w.ID] = struct{}{}
	}

	return &Pool{
		wallets:  append([]domain.WalletInfo(nil), wallets...),
		disabled: make(map[string]string),
		cursors:  make(map[domain.StrategyKind]int),
		keys:     opts.KeyStore,
		adapter:  opts.Adapter,
		logger:   opts.Logger,
		now:      opts.Now,
	}, nil
}

// Validate decrypts every active wallet's key once and disables those that fail.
// Returns the IDs disabled by this call.
func (p *Pool) Validate() []string {
	var failed []string
	for _, w := range p.Wallets() {
		if !w.Active {
			continue
		}
		signer, err := keystore.Open(p.keys, w.Ciphertext, w.Address)
		if err != nil {
			if p.Disable(w.ID, err.Error()) {
				failed = append(failed, w.ID)
			}
			continue
		}
		signer.Zero()
	}
	return failed
}

// SelectOptions narrows wallet selection.
type SelectOptions struct {
	Exclude        map[string]struct{}
	Exposure       func(walletID string) float64 // SOL deployed; nil disables the check
	MaxExposureSOL float64                       // wallets at or above are skipped; 0 disables
}

// Select returns the next eligible wallet for kind. The volume farmer
// rotates round-robin across non-primary wallets. Every other strategy is
// bound to the primary wallet, the first one still able to trade; when the
// primary is excluded there is no selection.
func (p *Pool) Select(kind domain.StrategyKind, opts SelectOptions) (domain.WalletInfo, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if kind != domain.StrategyVolumeFarmer {
		w, ok := p.primaryLocked()
		if !ok || !p.eligible(w, opts) {
			return domain.WalletInfo{}, false
		}
		return w, true
	}

	candidates := p.wallets
	if len(candidates) > 1 {
		candidates = candidates[1:]
	}
	start := p.cursors[kind] % len(candidates)
	for i := 0; i < len(candidates); i++ {
		idx := (start + i) % len(candidates)
		w := candidates[idx]
		if !p.eligible(w, opts) {
			continue
		}
		p.cursors[kind] = idx + 1
		return w, true
	}
	return domain.WalletInfo{}, false
}

// Primary returns the wallet the non-rotating strategies trade on.
func (p *Pool) Primary() (domain.WalletInfo, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.primaryLocked()
}

func (p *Pool) primaryLocked() (domain.WalletInfo, bool) {
	for _, w := range p.wallets {
		if _, off := p.disabled[w.ID]; w.Active && !off {
			return w, true
		}
	}
	return domain.WalletInfo{}, false
}

func (p *Pool) eligible(w domain.WalletInfo, opts SelectOptions) bool {
	if !w.Active {
		return false
	}
	if _, off := p.disabled[w.ID]; off {
		return false
	}
	if _, skip := opts.Exclude[w.ID]; skip {
		return false
	}
	if opts.Exposure != nil && opts.MaxExposureSOL > 0 && opts.Exposure(w.ID) >= opts.MaxExposureSOL {
		return false
	}
	return true
}

// Disable marks a wallet unusable. It reports true the first time only,
// so the failure is logged once.
func (p *Pool) Disable(id, reason string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, already := p.disabled[id]; already {
		return false
	}
	p.disabled[id] = reason
	p.logger.Warn("wallet disabled", zap.String("wallet", id), zap.String("reason", reason))
	return true
}

// ActiveCount returns the number of wallets that can still trade.
func (p *Pool) ActiveCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, w := range p.wallets {
		if _, off := p.disabled[w.ID]; w.Active && !off {
			n++
		}
	}
	return n
}

// Wallets returns a copy of every wallet.
func (p *Pool) Wallets() []domain.WalletInfo {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.WalletInfo(nil), p.wallets...)
}

// Get returns a wallet by id.
func (p *Pool) Get(id string) (domain.WalletInfo, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, w := range p.wallets {
		if w.ID == id {
			return w, true
		}
	}
	return domain.WalletInfo{}, false
}

// Disabled returns the IDs of disabled wallets in pool order.
func (p *Pool) Disabled() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var ids []string
	for _, w := range p.wallets {
		if _, off := p.disabled[w.ID]; off {
			ids = append(ids, w.ID)
		}
	}
	return ids
}

// Balance reads the wallet's on-chain SOL and token balances.
func (p *Pool) Balance(ctx context.Context, w domain.WalletInfo, mint string) (domain.Balance, error) {
	sol, err := p.adapter.GetBalance(ctx, w.Address)
	if err != nil {
		return domain.Balance{}, domain.NewError(domain.KindTransientUpstream, "balance", err)
	}
	tokens, err := p.adapter.GetTokenBalance(ctx, w.Address, mint)
	if err != nil {
		return domain.Balance{}, domain.NewError(domain.KindTransientUpstream, "token balance", err)
	}
	return domain.Balance{SOL: sol, Tokens: tokens}, nil
}

// Dispatch executes a validated intent. Every failure is reported as a
// result with Success=false; a key failure also disables the wallet.
func (p *Pool) Dispatch(ctx context.Context, intent domain.TradeIntent, slippageBps int) domain.TradeResult {
	res := domain.TradeResult{
		DispatchID: intent.DispatchID,
		Strategy:   intent.Strategy,
		Action:     intent.Action,
		WalletID:   intent.WalletID,
		Mint:       intent.Mint,
		Venue:      intent.Venue,
		AmountIn:   intent.Amount,
	}
	fail := func(err error) domain.TradeResult {
		res.Success = false
		res.Error = err.Error()
		res.ErrorKind = domain.KindOf(err)
		res.Timestamp = p.now()
		return res
	}

	w, ok := p.Get(intent.WalletID)
	if !ok {
		return fail(fmt.Errorf("unknown wallet %q", intent.WalletID))
	}

	signer, err := keystore.Open(p.keys, w.Ciphertext, w.Address)
	if err != nil {
		p.Disable(w.ID, err.Error())
		return fail(domain.NewError(domain.KindWalletDisabled, "decrypt", err))
	}
	defer signer.Zero()

	req := chain.TradeRequest{
		Mint:        intent.Mint,
		Amount:      intent.Amount,
		Venue:       intent.Venue,
		SlippageBps: slippageBps,
	}

	switch intent.Action {
	case domain.ActionBuy:
		var r chain.Receipt
		r, err = p.adapter.Buy(ctx, signer, req)
		res.Signature = r.Signature
		if intent.PriceSOL > 0 {
			res.AmountOut = intent.Amount / intent.PriceSOL
		}
	case domain.ActionSell:
		var r chain.Receipt
		r, err = p.adapter.Sell(ctx, signer, req)
		res.Signature = r.Signature
		res.AmountOut = intent.Amount * intent.PriceSOL
	case domain.ActionClaim:
		var r chain.ClaimReceipt
		r, err = p.adapter.ClaimFees(ctx, signer, intent.Mint, intent.Venue == domain.VenueAMM)
		res.Signature = r.Signature
		res.AmountIn = 0
	case domain.ActionSwap:
		var r chain.SwapReceipt
		r, err = p.adapter.Swap(ctx, signer, chain.SwapRequest{
			InputMint:   solana.WrappedSOLMint,
			OutputMint:  intent.Mint,
			Amount:      intent.Amount,
			SlippageBps: slippageBps,
		})
		res.Signature = r.Signature
		res.AmountIn = r.InputAmount
		res.AmountOut = r.OutputAmount
	default:
		err = fmt.Errorf("unsupported action %q", intent.Action)
	}

	if err != nil {
		res.AmountOut = 0
		return fail(err)
	}
	res.Success = true
	res.Timestamp = p.now()
	return res
}
