// Package limit projects a trade onto an account's daily USD trade budget.
package limit

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/vietddude/modswap/internal/core/domain"
	"github.com/vietddude/modswap/internal/swap/oracle"
)

// LimitReader is the swap module base contract. *contracts.SwapModuleBase satisfies it.
type LimitReader interface {
	CheckTradeLimit(ctx context.Context, account, asset common.Address, amount *big.Int) (domain.TradeLimitState, error)
	DailyTradeLimit(ctx context.Context) (*big.Int, error)
	IsDailyTradeLimitEnabled(ctx context.Context) (bool, error)
	IsAssetWhitelisted(ctx context.Context, asset common.Address) (bool, error)
	MaxTradeAmountUSD(ctx context.Context) (*big.Int, error)
}

// Pricer returns a 1e18-scaled USD price, or known=false when there is none.
type Pricer interface {
	Price(ctx context.Context, asset domain.Asset) (*big.Int, bool, error)
}

// Policy evaluates trades against the on-chain limit state. It holds no state
// of its own: the same remote state and clock always yield the same quote.
type Policy struct {
	base    LimitReader
	prices  Pricer
	routing common.Address
	now     func() time.Time
	log     *slog.Logger
}

type Option func(*Policy)

// WithClock replaces time.Now for window-expiry checks.
func WithClock(now func() time.Time) Option {
	return func(p *Policy) { p.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(p *Policy) { p.log = l }
}

func NewPolicy(base LimitReader, prices Pricer, routing common.Address, opts ...Option) *Policy {
	p := &Policy{
		base:    base,
		prices:  prices,
		routing: routing,
		now:     time.Now,
		log:     slog.Default().With("component", "limit"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Quote reads the limit state, whitelist, cap and price concurrently and
// projects amountRaw of asset onto them. Every read settles before the
// result is computed; a read failure is reported as KindPolicyUnavailable.
func (p *Policy) Quote(
	ctx context.Context,
	account common.Address,
	asset domain.Asset,
	amountRaw *big.Int,
) (*domain.TradeLimitQuote, error) {
	addr := asset.Resolve(p.routing)

	var (
		state       domain.TradeLimitState
		dailyLimit  *big.Int
		enabled     bool
		whitelisted bool
		maxTrade    *big.Int
		price       *big.Int
		priceKnown  bool
	)

	// Plain Group: one failed read must not cancel the others.
	var g errgroup.Group
	g.Go(func() (err error) {
		state, err = p.base.CheckTradeLimit(ctx, account, addr, amountRaw)
		return wrapRead("checkTradeLimit", err)
	})
	g.Go(func() (err error) {
		dailyLimit, err = p.base.DailyTradeLimit(ctx)
		return wrapRead("dailyTradeLimit", err)
	})
	g.Go(func() (err error) {
		enabled, err = p.base.IsDailyTradeLimitEnabled(ctx)
		return wrapRead("isDailyTradeLimitEnabled", err)
	})
	g.Go(func() (err error) {
		whitelisted, err = p.base.IsAssetWhitelisted(ctx, addr)
		return wrapRead("isAssetWhitelisted", err)
	})
	g.Go(func() (err error) {
		maxTrade, err = p.base.MaxTradeAmountUSD(ctx)
		return wrapRead("maxTradeAmountUSD", err)
	})
	g.Go(func() (err error) {
		price, priceKnown, err = p.prices.Price(ctx, asset)
		return wrapRead("getAssetPrice", err)
	})
	if err := g.Wait(); err != nil {
		return nil, domain.NewError(domain.KindPolicyUnavailable, "limit.quote", err)
	}

	q := p.project(state, dailyLimit, enabled, whitelisted, maxTrade, price, priceKnown, asset.Decimals, amountRaw)
	p.log.Debug("trade limit quoted",
		"account", account.Hex(),
		"asset", asset.String(),
		"effective_available", q.EffectiveAvailable,
		"usd_value", q.USDValue,
		"whitelisted", q.Whitelisted,
		"blocked", q.Blocked(),
	)
	return q, nil
}

func (p *Policy) project(
	state domain.TradeLimitState,
	dailyLimit *big.Int,
	enabled, whitelisted bool,
	maxTrade, price *big.Int,
	priceKnown bool,
	decimals uint8,
	amountRaw *big.Int,
) *domain.TradeLimitQuote {
	q := &domain.TradeLimitQuote{
		State:             state,
		DailyLimit:        dailyLimit,
		DailyLimitEnabled: enabled,
		Whitelisted:       whitelisted,
		MaxTradeUSD:       maxTrade,
		PriceKnown:        priceKnown,
	}

	switch {
	case state.ResetTimestamp == 0:
		// Never-used window: the contract reports a stale available figure.
		q.EffectiveAvailable = new(big.Int).Set(dailyLimit)
		q.State.WithinLimit = true
	default:
		q.ResetAt = time.Unix(int64(state.ResetTimestamp), 0).UTC()
		if !q.ResetAt.After(p.now()) {
			q.EffectiveAvailable = new(big.Int).Set(dailyLimit)
			q.WindowReset = true
		} else {
			q.EffectiveAvailable = new(big.Int).Set(state.AvailableRaw)
		}
	}

	if !priceKnown {
		return q
	}
	q.Price = price
	q.USDValue = oracle.USDValue(amountRaw, decimals, price)
	q.EstimatedRemaining = new(big.Int).Sub(q.EffectiveAvailable, q.USDValue)
	q.ExceedsMaxTrade = maxTrade != nil && q.USDValue.Cmp(maxTrade) > 0
	return q
}

func wrapRead(method string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", method, err)
}
