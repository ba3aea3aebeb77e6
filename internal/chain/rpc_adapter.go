package chain

import (
	"context"
	"fmt"

	"solana-mm-brain/internal/keystore"
	"solana-mm-brain/internal/solana"
)

// RPCAdapter reads balances over Solana RPC and delegates execution to an
// Executor. Without one, every execution call fails with ErrExecutionUnavailable.
type RPCAdapter struct {
	rpc      solana.RPCClient
	executor Executor
}

// NewRPCAdapter creates an adapter. executor may be nil.
func NewRPCAdapter(rpc solana.RPCClient, executor Executor) *RPCAdapter {
	return &RPCAdapter{rpc: rpc, executor: executor}
}

// CanExecute reports whether trades can actually be submitted.
func (a *RPCAdapter) CanExecute() bool {
	return a.executor != nil
}

// GetBalance returns the SOL balance of address.
func (a *RPCAdapter) GetBalance(ctx context.Context, address string) (float64, error) {
	lamports, err := a.rpc.GetBalance(ctx, address)
	if err != nil {
		return 0, fmt.Errorf("get balance %s: %w", address, err)
	}
	return float64(lamports) / solana.LamportsPerSOL, nil
}

// GetTokenBalance returns owner's balance of mint.
func (a *RPCAdapter) GetTokenBalance(ctx context.Context, owner, mint string) (float64, error) {
	amount, err := a.rpc.GetTokenBalance(ctx, owner, mint)
	if err != nil {
		return 0, fmt.Errorf("get token balance %s: %w", owner, err)
	}
	return amount, nil
}

// Buy delegates to the executor.
func (a *RPCAdapter) Buy(ctx context.Context, signer *keystore.Signer, req TradeRequest) (Receipt, error) {
	if a.executor == nil {
		return Receipt{}, ErrExecutionUnavailable
	}
	return a.executor.Buy(ctx, signer, req)
}

// Sell delegates to the executor.
func (a *RPCAdapter) Sell(ctx context.Context, signer *keystore.Signer, req TradeRequest) (Receipt, error) {
	if a.executor == nil {
		return Receipt{}, ErrExecutionUnavailable
	}
	return a.executor.Sell(ctx, signer, req)
}

// ClaimFees delegates to the executor.
func (a *RPCAdapter) ClaimFees(ctx context.Context, signer *keystore.Signer, mint string, bonded bool) (ClaimReceipt, error) {
	if a.executor == nil {
		return ClaimReceipt{}, ErrExecutionUnavailable
	}
	return a.executor.ClaimFees(ctx, signer, mint, bonded)
}

// Swap delegates to the executor.
func (a *RPCAdapter) Swap(ctx context.Context, signer *keystore.Signer, req SwapRequest) (SwapReceipt, error) {
	if a.executor == nil {
		return SwapReceipt{}, ErrExecutionUnavailable
	}
	return a.executor.Swap(ctx, signer, req)
}

var _ Adapter = (*RPCAdapter)(nil)
