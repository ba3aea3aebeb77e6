// Package market polls market data for a token and builds immutable snapshots.
package market

import "context"

// Quote is a partial observation from one source. Nil fields are unknown.
type Quote struct {
	Source          string
	PriceSOL        *float64
	PriceUSD        *float64
	MarketCapUSD    *float64
	Supply          *float64
	Volume24hUSD    *float64
	Volume5mUSD     *float64
	Holders         *int
	BondingComplete *bool
	Authoritative   bool // BondingComplete comes from chain state
}

// Source fetches a quote for a mint.
type Source interface {
	Name() string
	Fetch(ctx context.Context, mint string) (*Quote, error)
}

func float(v float64) *float64 { return &v }
