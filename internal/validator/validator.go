// Package validator gates every trade intent against per-trade caps,
// per-wallet exposure limits and the wallet's spendable balance.
package validator

import (
	"fmt"

	"solana-mm-brain/internal/config"
	"solana-mm-brain/internal/domain"
)

// Rejection reason codes.
const (
	ReasonInvalidAmount      = "invalid_amount"
	ReasonMaxBuyExceeded     = "max_buy_per_trade_exceeded"
	ReasonMaxSellExceeded    = "max_sell_per_trade_exceeded"
	ReasonMaxSOLExceeded     = "max_sol_per_wallet_exceeded"
	ReasonMaxSupplyExceeded  = "max_supply_percent_exceeded"
	ReasonInsufficientSOL    = "insufficient_sol"
	ReasonInsufficientTokens = "insufficient_tokens"
	ReasonUnsupportedAction  = "unsupported_action"
	ReasonMissingQuote       = "missing_quote"
)

// Slippage bounds outside which a warning is attached.
const (
	MinRecommendedSlippageBps = 100
	MaxRecommendedSlippageBps = 2500
)

// Result is the verdict on one intent. Warnings never reject.
type Result struct {
	Valid    bool     `json:"valid"`
	Reason   string   `json:"reason,omitempty"`
	Error    string   `json:"error,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Err returns the rejection as a ValidationRejected error, nil when valid.
func (r Result) Err() error {
	if r.Valid {
		return nil
	}
	return domain.NewError(domain.KindValidationRejected, r.Reason, fmt.Errorf("%w: %s", domain.ErrRejected, r.Error))
}

func reject(warnings []string, reason, format string, args ...interface{}) Result {
	return Result{Reason: reason, Error: fmt.Sprintf(format, args...), Warnings: warnings}
}

// Validate checks intent against cfg and the wallet's balance. Pure.
func Validate(intent domain.TradeIntent, bal domain.Balance, cfg config.EngineConfig) Result {
	warnings := append([]string(nil), intent.Warnings...)
	if cfg.SlippageBps < MinRecommendedSlippageBps {
		warnings = append(warnings, fmt.Sprintf("slippage %d bps is below the recommended %d bps; trades may fail", cfg.SlippageBps, MinRecommendedSlippageBps))
	}
	if cfg.SlippageBps > MaxRecommendedSlippageBps {
		warnings = append(warnings, fmt.Sprintf("slippage %d bps is above %d bps; fills may be poor", cfg.SlippageBps, MaxRecommendedSlippageBps))
	}

	if intent.Action == domain.ActionClaim {
		if bal.SOL < cfg.FeeBufferSOL {
			return reject(warnings, ReasonInsufficientSOL, "claim needs %.6f SOL for fees, wallet has %.6f", cfg.FeeBufferSOL, bal.SOL)
		}
		return Result{Valid: true, Warnings: warnings}
	}

	if !(intent.Amount > 0) {
		return reject(warnings, ReasonInvalidAmount, "amount must be positive, got %v", intent.Amount)
	}

	switch intent.Action {
	case domain.ActionBuy, domain.ActionSwap:
		return validateBuy(intent, bal, cfg, warnings)
	case domain.ActionSell:
		return validateSell(intent, bal, cfg, warnings)
	}
	return reject(warnings, ReasonUnsupportedAction, "unsupported action %q", intent.Action)
}

func validateBuy(intent domain.TradeIntent, bal domain.Balance, cfg config.EngineConfig, warnings []string) Result {
	amount := intent.Amount

	if amount > cfg.MaxBuyPerTradeSOL {
		return reject(warnings, ReasonMaxBuyExceeded, "buy of %.6f SOL exceeds per-trade cap %.6f", amount, cfg.MaxBuyPerTradeSOL)
	}

	if cfg.MaxSOLPerWallet > 0 {
		if projected := bal.DeployedSOL + amount; projected > cfg.MaxSOLPerWallet {
			return reject(warnings, ReasonMaxSOLExceeded, "wallet exposure would reach %.6f SOL, limit %.6f", projected, cfg.MaxSOLPerWallet)
		}
	} else {
		warnings = append(warnings, "maxSolPerWallet is disabled")
	}

	if cfg.MaxSupplyPercent > 0 && intent.PriceSOL > 0 && intent.Supply > 0 {
		projected := (bal.Tokens + amount/intent.PriceSOL) / intent.Supply * 100
		if projected > cfg.MaxSupplyPercent {
			return reject(warnings, ReasonMaxSupplyExceeded, "wallet would hold %.4f%% of supply, limit %.4f%%", projected, cfg.MaxSupplyPercent)
		}
	}

	if need := amount + cfg.FeeBufferSOL; need > bal.SOL {
		return reject(warnings, ReasonInsufficientSOL, "buy needs %.6f SOL including fee buffer, wallet has %.6f", need, bal.SOL)
	}

	if amount < cfg.MinTradeSOL {
		warnings = append(warnings, fmt.Sprintf("buy of %.6f SOL is below the minimum trade size %.6f", amount, cfg.MinTradeSOL))
	}
	return Result{Valid: true, Warnings: warnings}
}

func validateSell(intent domain.TradeIntent, bal domain.Balance, cfg config.EngineConfig, warnings []string) Result {
	if intent.PriceSOL <= 0 {
		return reject(warnings, ReasonMissingQuote, "sell has no price to value it against the per-trade cap")
	}

	value := intent.ValueSOL()
	if value > cfg.MaxSellPerTradeSOL {
		return reject(warnings, ReasonMaxSellExceeded, "sell worth %.6f SOL exceeds per-trade cap %.6f", value, cfg.MaxSellPerTradeSOL)
	}

	if intent.Amount > bal.Tokens {
		return reject(warnings, ReasonInsufficientTokens, "sell of %.2f tokens exceeds balance %.2f", intent.Amount, bal.Tokens)
	}
	if bal.SOL < cfg.FeeBufferSOL {
		return reject(warnings, ReasonInsufficientSOL, "sell needs %.6f SOL for fees, wallet has %.6f", cfg.FeeBufferSOL, bal.SOL)
	}

	if value < cfg.MinTradeSOL {
		warnings = append(warnings, fmt.Sprintf("sell worth %.6f SOL is below the minimum trade size %.6f", value, cfg.MinTradeSOL))
	}
	return Result{Valid: true, Warnings: warnings}
}
