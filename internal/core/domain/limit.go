package domain

import (
	"math/big"
	"time"
)

// TradeLimitState is the raw tuple returned by the swap module's checkTradeLimit.
type TradeLimitState struct {
	WithinLimit    bool
	AvailableRaw   *big.Int
	ResetTimestamp uint64
}

// BlockReason names why a trade may not proceed.
type BlockReason string

const (
	BlockNotWhitelisted      BlockReason = "asset_not_whitelisted"
	BlockExceedsMaxTrade     BlockReason = "exceeds_max_trade_amount"
	BlockDailyLimitExhausted BlockReason = "daily_limit_exhausted"
	BlockInsufficientBalance BlockReason = "insufficient_balance"
)

// TradeLimitQuote is the projected effect of a trade on the account's daily USD budget.
// USD figures are 18-decimal fixed point. Nil USD values mean the price was unknown.
type TradeLimitQuote struct {
	State              TradeLimitState
	DailyLimit         *big.Int
	DailyLimitEnabled  bool
	EffectiveAvailable *big.Int
	WindowReset        bool
	ResetAt            time.Time

	Price              *big.Int
	PriceKnown         bool
	USDValue           *big.Int
	EstimatedRemaining *big.Int

	Whitelisted     bool
	MaxTradeUSD     *big.Int
	ExceedsMaxTrade bool
}

// ActiveWindow reports whether the account has a daily window that has not elapsed.
func (q *TradeLimitQuote) ActiveWindow() bool {
	return q.State.ResetTimestamp != 0 && !q.WindowReset
}

// Insufficient reports whether the trade would overdraw the budget of an active
// daily window. An unknown price or a disabled limit never counts as insufficient.
func (q *TradeLimitQuote) Insufficient() bool {
	if !q.DailyLimitEnabled || q.EstimatedRemaining == nil || !q.ActiveWindow() {
		return false
	}
	return q.EstimatedRemaining.Sign() < 0
}

// BlockReasons lists every hard block that applies to the trade.
func (q *TradeLimitQuote) BlockReasons() []BlockReason {
	var reasons []BlockReason
	if !q.Whitelisted {
		reasons = append(reasons, BlockNotWhitelisted)
	}
	if q.ExceedsMaxTrade {
		reasons = append(reasons, BlockExceedsMaxTrade)
	}
	if q.Insufficient() {
		reasons = append(reasons, BlockDailyLimitExhausted)
	}
	return reasons
}

func (q *TradeLimitQuote) Blocked() bool {
	return len(q.BlockReasons()) > 0
}
