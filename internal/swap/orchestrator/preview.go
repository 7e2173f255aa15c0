package orchestrator

import (
	"context"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/vietddude/modswap/internal/core/domain"
	"github.com/vietddude/modswap/internal/infra/contracts"
)

// Preview is what LimitChecking learned about a request.
type Preview struct {
	CycleID uint64
	Request domain.SwapRequest
	Path    domain.SwapPath

	// UnitQuote is the output for one whole input unit, AmountOut the output
	// for the requested amount. Both are nil when the router gave no quote.
	UnitQuote *big.Int
	AmountOut *big.Int

	// Limit and Sponsorship are nil for plain accounts.
	Limit       *domain.TradeLimitQuote
	Sponsorship *domain.SponsorshipDecision

	// PaymasterMode is the flow that will actually be used.
	PaymasterMode       domain.PaymasterMode
	AllowanceSufficient bool
	Balance             *big.Int

	Reasons     []domain.BlockReason
	Warnings    []string
	Transitions []domain.Transition
}

func (p *Preview) Blocked() bool { return len(p.Reasons) > 0 }

// Rate formats UnitQuote as "1 IN = x OUT".
func (p *Preview) Rate() string {
	in, out := p.Request.Input, p.Request.Output
	if p.UnitQuote == nil {
		return fmt.Sprintf("1 %s = unknown %s", in, out)
	}
	return fmt.Sprintf("1 %s = %s %s", in, FormatAmount(p.UnitQuote, out.Decimals), out)
}

// FormatAmount renders a raw token amount with its decimals applied.
func FormatAmount(raw *big.Int, decimals uint8) string {
	if raw == nil {
		return "unknown"
	}
	return decimal.NewFromBigInt(raw, -int32(decimals)).String()
}

// check runs Quoting and LimitChecking. Every LimitChecking read settles
// before the outcome is decided.
func (o *Orchestrator) check(ctx context.Context, r *run, req domain.SwapRequest) (*Preview, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.SlippageBps == 0 {
		req.SlippageBps = o.cfg.DefaultSlippageBps
	}
	path, err := domain.BuildPath(req.Input, req.Output, o.cfg.Routing)
	if err != nil {
		return nil, err
	}

	p := &Preview{
		CycleID:       r.id,
		Request:       req,
		Path:          path,
		PaymasterMode: domain.PaymasterNone,
	}

	r.to(domain.SwapStateQuoting, "")
	o.quote(ctx, p)

	r.to(domain.SwapStateLimitChecking, "")
	modular := req.AccountKind == domain.AccountModular
	requested := req.PaymasterMode != "" && req.PaymasterMode != domain.PaymasterNone

	// Plain Group: a failing read must not cancel the others.
	var g errgroup.Group
	if modular {
		g.Go(func() error {
			q, err := o.deps.Limits.Quote(ctx, req.Account, req.Input, req.AmountRaw)
			p.Limit = q
			return err
		})
	}
	if modular && requested {
		g.Go(func() error {
			d, err := o.deps.Sponsors.IsSponsored(ctx, req.Input, req.Output, o.cfg.Sponsor)
			if err != nil {
				return domain.NewError(domain.KindPolicyUnavailable, "sponsorship", err)
			}
			p.Sponsorship = &d
			return nil
		})
	}
	g.Go(func() error {
		ok, err := o.deps.Allowances.HasSufficientAllowance(ctx, req.Input, req.Account, o.cfg.Router, req.AmountRaw)
		if err != nil {
			return domain.NewError(domain.KindPolicyUnavailable, "allowance", err)
		}
		p.AllowanceSufficient = ok
		return nil
	})
	g.Go(func() error {
		b, err := o.balance(ctx, req)
		if err != nil {
			return domain.NewError(domain.KindPolicyUnavailable, "balance", err)
		}
		p.Balance = b
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if p.Limit != nil {
		p.Reasons = append(p.Reasons, p.Limit.BlockReasons()...)
		if !p.Limit.PriceKnown {
			p.Warnings = append(p.Warnings,
				fmt.Sprintf("no oracle price for %s: USD value, max trade and daily budget are unknown", req.Input))
		}
	}
	if p.Balance.Cmp(req.AmountRaw) < 0 {
		p.Reasons = append(p.Reasons, domain.BlockInsufficientBalance)
	}
	p.PaymasterMode = o.paymasterMode(p, modular, requested)
	return p, nil
}

// quote fills the display quotes. A missing quote is a warning, never an error.
func (o *Orchestrator) quote(ctx context.Context, p *Preview) {
	router := contracts.NewRouter(o.cfg.Router, o.deps.Node)
	unit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(p.Request.Input.Decimals)), nil)

	var g errgroup.Group
	g.Go(func() error {
		p.UnitQuote = o.amountOut(ctx, router, unit, p.Path)
		return nil
	})
	g.Go(func() error {
		p.AmountOut = o.amountOut(ctx, router, p.Request.AmountRaw, p.Path)
		return nil
	})
	_ = g.Wait()

	if p.AmountOut == nil {
		p.Warnings = append(p.Warnings, "router returned no quote: output amount is unknown")
	}
}

func (o *Orchestrator) amountOut(ctx context.Context, router *contracts.Router, amount *big.Int, path domain.SwapPath) *big.Int {
	amounts, err := router.GetAmountsOut(ctx, amount, path)
	if err != nil || len(amounts) == 0 {
		o.log.Debug("no router quote", "path", path.String(), "amount", amount, "error", err)
		return nil
	}
	return amounts[len(amounts)-1]
}

func (o *Orchestrator) balance(ctx context.Context, req domain.SwapRequest) (*big.Int, error) {
	if req.Input.IsNative() {
		return o.deps.Node.BalanceAt(ctx, req.Account)
	}
	return contracts.NewERC20(req.Input.Address(), o.deps.Node).BalanceOf(ctx, req.Account)
}

// paymasterMode settles the flow the envelope will carry. Native input has no
// token to collect a fee in, so approval-based falls back to general.
func (o *Orchestrator) paymasterMode(p *Preview, modular, requested bool) domain.PaymasterMode {
	if !requested {
		return domain.PaymasterNone
	}
	if !modular {
		p.Warnings = append(p.Warnings, "paymaster flows apply to modular accounts only: paying gas in ETH")
		return domain.PaymasterNone
	}
	if p.Sponsorship == nil || !p.Sponsorship.Sponsored {
		p.Warnings = append(p.Warnings, fmt.Sprintf("sponsor does not cover %s: paying gas in ETH", p.Path))
		return domain.PaymasterNone
	}
	if p.Request.PaymasterMode == domain.PaymasterApprovalBased && p.Request.Input.IsNative() {
		return domain.PaymasterGeneral
	}
	return p.Request.PaymasterMode
}
