// Package stub provides an in-memory chain.Adapter for tests.
package stub

import (
	"context"
	"fmt"
	"sync"

	"solana-mm-brain/internal/chain"
	"solana-mm-brain/internal/domain"
	"solana-mm-brain/internal/keystore"
)

// Call records one execution request.
type Call struct {
	Action domain.Action
	Signer string // public key
	Mint   string
	Amount float64
	Venue  domain.Venue
	Bonded bool
}

// Adapter implements chain.Adapter with scripted balances and failures.
type Adapter struct {
	mu         sync.Mutex
	SOL        map[string]float64
	Tokens     map[string]float64 // key: owner
	Calls      []Call
	FailNext   []error // popped per execution call
	BalanceErr error
	seq        int
}

// NewAdapter creates an empty stub.
func NewAdapter() *Adapter {
	return &Adapter{
		SOL:    make(map[string]float64),
		Tokens: make(map[string]float64),
	}
}

// SetBalance sets SOL and token balances for owner.
func (a *Adapter) SetBalance(owner string, sol, tokens float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.SOL[owner] = sol
	a.Tokens[owner] = tokens
}

// Fail queues an error for the next execution call.
func (a *Adapter) Fail(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.FailNext = append(a.FailNext, err)
}

// CallsSnapshot returns a copy of recorded calls.
func (a *Adapter) CallsSnapshot() []Call {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Call(nil), a.Calls...)
}

func (a *Adapter) record(c Call) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Calls = append(a.Calls, c)
	if len(a.FailNext) > 0 {
		err := a.FailNext[0]
		a.FailNext = a.FailNext[1:]
		if err != nil {
			return "", err
		}
	}
	a.seq++
	return fmt.Sprintf("sig-%d", a.seq), nil
}

// GetBalance returns the scripted SOL balance.
func (a *Adapter) GetBalance(_ context.Context, address string) (float64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.BalanceErr != nil {
		return 0, a.BalanceErr
	}
	return a.SOL[address], nil
}

// GetTokenBalance returns the scripted token balance.
func (a *Adapter) GetTokenBalance(_ context.Context, owner, _ string) (float64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.BalanceErr != nil {
		return 0, a.BalanceErr
	}
	return a.Tokens[owner], nil
}

// Buy records a buy.
func (a *Adapter) Buy(_ context.Context, signer *keystore.Signer, req chain.TradeRequest) (chain.Receipt, error) {
	sig, err := a.record(Call{Action: domain.ActionBuy, Signer: signer.PublicKey(), Mint: req.Mint, Amount: req.Amount, Venue: req.Venue})
	return chain.Receipt{Signature: sig}, err
}

// Sell records a sell.
func (a *Adapter) Sell(_ context.Context, signer *keystore.Signer, req chain.TradeRequest) (chain.Receipt, error) {
	sig, err := a.record(Call{Action: domain.ActionSell, Signer: signer.PublicKey(), Mint: req.Mint, Amount: req.Amount, Venue: req.Venue})
	return chain.Receipt{Signature: sig}, err
}

// ClaimFees records a claim.
func (a *Adapter) ClaimFees(_ context.Context, signer *keystore.Signer, mint string, bonded bool) (chain.ClaimReceipt, error) {
	sig, err := a.record(Call{Action: domain.ActionClaim, Signer: signer.PublicKey(), Mint: mint, Bonded: bonded})
	return chain.ClaimReceipt{Signature: sig}, err
}

// Swap records a swap and reports a 1:1 fill.
func (a *Adapter) Swap(_ context.Context, signer *keystore.Signer, req chain.SwapRequest) (chain.SwapReceipt, error) {
	sig, err := a.record(Call{Action: domain.ActionSwap, Signer: signer.PublicKey(), Mint: req.OutputMint, Amount: req.Amount, Venue: domain.VenueAMM})
	return chain.SwapReceipt{Signature: sig, InputAmount: req.Amount, OutputAmount: req.Amount}, err
}

var _ chain.Adapter = (*Adapter)(nil)
