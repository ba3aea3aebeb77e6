// Package chain defines the boundary to on-chain execution and balances.
package chain

import (
	"context"
	"errors"

	"solana-mm-brain/internal/domain"
	"solana-mm-brain/internal/keystore"
)

// ErrExecutionUnavailable is returned when no transaction executor is configured.
var ErrExecutionUnavailable = errors.New("trade execution unavailable")

// TradeRequest describes a buy or sell.
type TradeRequest struct {
	Mint        string
	Amount      float64 // SOL for buys, tokens for sells
	Venue       domain.Venue
	SlippageBps int
}

// Receipt is returned by a confirmed buy or sell.
type Receipt struct {
	Signature string
}

// SwapRequest describes an aggregator swap.
type SwapRequest struct {
	InputMint   string
	OutputMint  string
	Amount      float64
	SlippageBps int
}

// SwapReceipt is returned by a confirmed swap.
type SwapReceipt struct {
	Signature    string
	InputAmount  float64
	OutputAmount float64
}

// ClaimReceipt is returned by a confirmed fee claim.
type ClaimReceipt struct {
	Signature string
	Pool      string // AMM pool claimed from, empty on the bonding curve
}

// Executor builds, signs and submits transactions.
type Executor interface {
	Buy(ctx context.Context, signer *keystore.Signer, req TradeRequest) (Receipt, error)
	Sell(ctx context.Context, signer *keystore.Signer, req TradeRequest) (Receipt, error)
	ClaimFees(ctx context.Context, signer *keystore.Signer, mint string, bonded bool) (ClaimReceipt, error)
	Swap(ctx context.Context, signer *keystore.Signer, req SwapRequest) (SwapReceipt, error)
}

// Balances reads wallet balances.
type Balances interface {
	// GetBalance returns the SOL balance of address.
	GetBalance(ctx context.Context, address string) (float64, error)

	// GetTokenBalance returns the whole-token balance owner holds of mint.
	GetTokenBalance(ctx context.Context, owner, mint string) (float64, error)
}

// Adapter is everything the engine needs from the chain.
type Adapter interface {
	Executor
	Balances
}

// RouteVenue picks the venue for a trade: the bonding curve until the
// token graduates, the AMM after.
func RouteVenue(bondingComplete bool) domain.Venue {
	if bondingComplete {
		return domain.VenueAMM
	}
	return domain.VenueBondingCurve
}
