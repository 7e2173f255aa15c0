// Package sponsor decides whether a gas sponsor covers a swap path.
package sponsor

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/vietddude/modswap/internal/core/domain"
)

// Registry is the GasPond contract. *contracts.GasPond satisfies it.
type Registry interface {
	IsSponsoredPath(ctx context.Context, path domain.SwapPath, sponsor common.Address) (bool, error)
	IsGasPayableERC20(ctx context.Context, token, sponsor common.Address) (bool, error)
	GetSponsorETHBalance(ctx context.Context, sponsor common.Address) (*big.Int, error)
}

// GasPriceReader reads the node's current gas price.
type GasPriceReader interface {
	GasPrice(ctx context.Context) (*big.Int, error)
}

// Policy queries the registry on every call. Sponsorship can be toggled
// on-chain at any time, so no decision is cached.
type Policy struct {
	registry Registry
	routing  common.Address

	// deposit checks are off unless gas and feeGasUnits are set
	gas         GasPriceReader
	feeGasUnits uint64

	log *slog.Logger
}

type Option func(*Policy)

// WithDepositCheck also requires the sponsor's ETH deposit to cover the
// estimated fee ceiling of gasPrice * feeGasUnits.
func WithDepositCheck(gas GasPriceReader, feeGasUnits uint64) Option {
	return func(p *Policy) {
		p.gas = gas
		p.feeGasUnits = feeGasUnits
	}
}

func NewPolicy(registry Registry, routing common.Address, opts ...Option) *Policy {
	p := &Policy{
		registry: registry,
		routing:  routing,
		log:      slog.Default().With("component", "sponsor"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// IsSponsored builds the routed path for in -> out and asks the registry
// whether sponsor pays gas along it.
func (p *Policy) IsSponsored(
	ctx context.Context,
	in, out domain.Asset,
	sponsor common.Address,
) (domain.SponsorshipDecision, error) {
	path, err := domain.BuildPath(in, out, p.routing)
	if err != nil {
		return domain.SponsorshipDecision{}, err
	}

	decision := domain.SponsorshipDecision{Path: path, Sponsor: sponsor}
	ok, err := p.registry.IsSponsoredPath(ctx, path, sponsor)
	if err != nil {
		return decision, fmt.Errorf("sponsorship of %s: %w", path, err)
	}
	decision.Sponsored = ok
	if !ok || p.gas == nil {
		return decision, nil
	}

	gasPrice, err := p.gas.GasPrice(ctx)
	if err != nil {
		return decision, fmt.Errorf("gas price: %w", err)
	}
	balance, err := p.registry.GetSponsorETHBalance(ctx, sponsor)
	if err != nil {
		return decision, fmt.Errorf("sponsor balance: %w", err)
	}

	fee := new(big.Int).Mul(gasPrice, new(big.Int).SetUint64(p.feeGasUnits))
	decision.SponsorBalance = balance
	if balance.Cmp(fee) < 0 {
		decision.Underfunded = true
		decision.Sponsored = false
		p.log.Warn("sponsor deposit below fee ceiling",
			"sponsor", sponsor.Hex(),
			"balance", balance,
			"fee", fee,
		)
	}
	return decision, nil
}

// IsGasPayableToken reports whether sponsor accepts token for approval-based fees.
func (p *Policy) IsGasPayableToken(ctx context.Context, token domain.Asset, sponsor common.Address) (bool, error) {
	ok, err := p.registry.IsGasPayableERC20(ctx, token.Resolve(p.routing), sponsor)
	if err != nil {
		return false, fmt.Errorf("gas payable %s: %w", token, err)
	}
	return ok, nil
}
