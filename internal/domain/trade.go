package domain

import "time"

// Action is the on-chain operation an intent requests.
type Action string

// Actions
const (
	ActionBuy   Action = "buy"
	ActionSell  Action = "sell"
	ActionClaim Action = "claim"
	ActionSwap  Action = "swap"
)

// Venue is where a trade executes.
type Venue string

// Venues
const (
	VenueBondingCurve Venue = "bonding_curve"
	VenueAMM          Venue = "amm"
)

// StrategyKind identifies a trading strategy.
type StrategyKind string

// Strategy kinds, in per-tick evaluation order.
const (
	StrategyPriceStabilizer StrategyKind = "price-stabilizer"
	StrategyVolumeBot       StrategyKind = "volume-bot"
	StrategyVolumeFarmer    StrategyKind = "volume-farmer"
	StrategyFeeClaimer      StrategyKind = "fee-claimer"
)

// TradeIntent is a proposed trade. It must pass validation before dispatch.
type TradeIntent struct {
	DispatchID string       `json:"dispatchId"`
	Strategy   StrategyKind `json:"strategy"`
	Action     Action       `json:"action"`
	WalletID   string       `json:"walletId"`
	Mint       string       `json:"mint"`
	Amount     float64      `json:"amount"` // SOL for buy/swap, tokens for sell
	Venue      Venue        `json:"venue"`
	PriceSOL   float64      `json:"priceSol"` // quote used for sizing
	Supply     float64      `json:"supply"`
	Reason     string       `json:"reason"`
	Warnings   []string     `json:"warnings,omitempty"`
}

// ValueSOL returns the SOL value of the intent at its sizing quote.
func (i TradeIntent) ValueSOL() float64 {
	if i.Action == ActionSell {
		return i.Amount * i.PriceSOL
	}
	return i.Amount
}

// TradeResult is the outcome of one dispatch.
type TradeResult struct {
	DispatchID string       `json:"dispatchId"`
	UserID     string       `json:"userId"`
	Strategy   StrategyKind `json:"strategy"`
	Action     Action       `json:"action"`
	WalletID   string       `json:"walletId"`
	Mint       string       `json:"mint"`
	Venue      Venue        `json:"venue"`
	Success    bool         `json:"success"`
	Signature  string       `json:"signature,omitempty"`
	Error      string       `json:"error,omitempty"`
	ErrorKind  ErrorKind    `json:"errorKind,omitempty"`
	AmountIn   float64      `json:"amountIn"`  // SOL for buys, tokens for sells
	AmountOut  float64      `json:"amountOut"` // tokens for buys, SOL for sells
	Simulated  bool         `json:"simulated"`
	Timestamp  time.Time    `json:"timestamp"`
}
