package domain

import "github.com/shopspring/decimal"

// Position is the running per-wallet tally built from successful results.
type Position struct {
	WalletID    string          `json:"walletId"`
	Tokens      decimal.Decimal `json:"tokens"`
	SOLDeployed decimal.Decimal `json:"solDeployed"`
	Trades      int             `json:"trades"`
}

// Apply returns the position after r. Failed results and claims leave it unchanged.
func (p Position) Apply(r TradeResult) Position {
	if !r.Success {
		return p
	}
	in := decimal.NewFromFloat(r.AmountIn)
	out := decimal.NewFromFloat(r.AmountOut)

	switch r.Action {
	case ActionBuy, ActionSwap:
		p.Tokens = p.Tokens.Add(out)
		p.SOLDeployed = p.SOLDeployed.Add(in)
	case ActionSell:
		p.Tokens = p.Tokens.Sub(in)
		p.SOLDeployed = p.SOLDeployed.Sub(out)
	default:
		return p
	}
	p.Trades++
	return p
}
