// Package paymaster builds the paymaster section of a zkSync transaction.
package paymaster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/vietddude/modswap/internal/core/domain"
	"github.com/vietddude/modswap/internal/infra/contracts"
)

const bpsDenominator = 10_000

var ErrNoFeeQuote = errors.New("router returned no fee quote")

// GasPriceReader reads the node's current gas price.
type GasPriceReader interface {
	GasPrice(ctx context.Context) (*big.Int, error)
}

// Quoter converts an ETH fee into a token amount. *contracts.Router satisfies it.
type Quoter interface {
	GetAmountsIn(ctx context.Context, amountOut *big.Int, path domain.SwapPath) ([]*big.Int, error)
}

type Config struct {
	// Paymaster is the contract named in the envelope.
	Paymaster common.Address
	// Routing is the wrapped native token fees are quoted against.
	Routing common.Address
	// RoutingHint, when set, is appended to the general flow's inner input.
	RoutingHint common.Address
	// FeeGasUnits is the fixed gas overestimate the fee ceiling is priced at.
	FeeGasUnits uint64
	// SafetyBps scales the token fee into the minimal allowance; 15000 is 1.5x.
	SafetyBps uint64
}

type Builder struct {
	cfg    Config
	gas    GasPriceReader
	quoter Quoter
	log    *slog.Logger
}

func NewBuilder(cfg Config, gas GasPriceReader, quoter Quoter) *Builder {
	return &Builder{
		cfg:    cfg,
		gas:    gas,
		quoter: quoter,
		log:    slog.Default().With("component", "paymaster"),
	}
}

// Build returns the params for mode along path, or nil for PaymasterNone.
// The gas price is read once here.
func (b *Builder) Build(
	ctx context.Context,
	path domain.SwapPath,
	sponsor common.Address,
	mode domain.PaymasterMode,
) (*domain.PaymasterParams, error) {
	switch mode {
	case domain.PaymasterNone:
		return nil, nil
	case domain.PaymasterGeneral:
		return b.general(sponsor)
	case domain.PaymasterApprovalBased:
		gasPrice, err := b.gas.GasPrice(ctx)
		if err != nil {
			return nil, fmt.Errorf("gas price: %w", err)
		}
		return b.approvalBased(ctx, path, sponsor, gasPrice)
	default:
		return nil, fmt.Errorf("%w: mode %q", domain.ErrInvalidPaymasterParams, mode)
	}
}

func (b *Builder) general(sponsor common.Address) (*domain.PaymasterParams, error) {
	inner, err := b.innerInput(sponsor, true)
	if err != nil {
		return nil, err
	}
	input, err := contracts.PaymasterFlowABI.Pack("general", inner)
	if err != nil {
		return nil, fmt.Errorf("pack general: %w", err)
	}

	p := &domain.PaymasterParams{
		Mode:       domain.PaymasterGeneral,
		Paymaster:  b.cfg.Paymaster,
		InnerInput: inner,
		Input:      input,
	}
	return p, p.Validate()
}

func (b *Builder) approvalBased(
	ctx context.Context,
	path domain.SwapPath,
	sponsor common.Address,
	gasPrice *big.Int,
) (*domain.PaymasterParams, error) {
	if err := path.Validate(); err != nil {
		return nil, err
	}
	feeToken := path.Input()

	ethFee := new(big.Int).Mul(gasPrice, new(big.Int).SetUint64(b.cfg.FeeGasUnits))
	tokenFee, err := b.tokenFee(ctx, feeToken, ethFee)
	if err != nil {
		return nil, err
	}
	minimal := MinimalAllowance(tokenFee, b.cfg.SafetyBps)

	inner, err := b.innerInput(sponsor, false)
	if err != nil {
		return nil, err
	}
	input, err := contracts.PaymasterFlowABI.Pack("approvalBased", feeToken, minimal, inner)
	if err != nil {
		return nil, fmt.Errorf("pack approvalBased: %w", err)
	}

	b.log.Debug("approval-based fee",
		"token", feeToken.Hex(),
		"eth_fee", ethFee,
		"token_fee", tokenFee,
		"minimal_allowance", minimal,
	)

	p := &domain.PaymasterParams{
		Mode:             domain.PaymasterApprovalBased,
		Paymaster:        b.cfg.Paymaster,
		Token:            feeToken,
		MinimalAllowance: minimal,
		InnerInput:       inner,
		Input:            input,
		EthFee:           ethFee,
		TokenFee:         tokenFee,
	}
	return p, p.Validate()
}

// tokenFee prices ethFee in feeToken. The routing token is 1:1 with ETH.
func (b *Builder) tokenFee(ctx context.Context, feeToken common.Address, ethFee *big.Int) (*big.Int, error) {
	if feeToken == b.cfg.Routing {
		return new(big.Int).Set(ethFee), nil
	}
	amounts, err := b.quoter.GetAmountsIn(ctx, ethFee, domain.SwapPath{feeToken, b.cfg.Routing})
	if err != nil {
		return nil, fmt.Errorf("quote fee in %s: %w", feeToken.Hex(), err)
	}
	if len(amounts) == 0 || amounts[0] == nil || amounts[0].Sign() == 0 {
		return nil, ErrNoFeeQuote
	}
	return amounts[0], nil
}

// innerInput is abi.encode(sponsor), or abi.encode(sponsor, hint) for the
// general flow when a routing hint is configured.
func (b *Builder) innerInput(sponsor common.Address, withHint bool) ([]byte, error) {
	addrType, err := abi.NewType("address", "", nil)
	if err != nil {
		return nil, err
	}
	args := abi.Arguments{{Type: addrType}}
	values := []any{sponsor}
	if withHint && b.cfg.RoutingHint != (common.Address{}) {
		args = append(args, abi.Argument{Type: addrType})
		values = append(values, b.cfg.RoutingHint)
	}
	out, err := args.Pack(values...)
	if err != nil {
		return nil, fmt.Errorf("pack inner input: %w", err)
	}
	return out, nil
}

// MinimalAllowance is ceil(tokenFee * safetyBps / 10000). Rounding up keeps
// the allowance a ceiling even for tiny fees.
func MinimalAllowance(tokenFee *big.Int, safetyBps uint64) *big.Int {
	n := new(big.Int).Mul(tokenFee, new(big.Int).SetUint64(safetyBps))
	n.Add(n, big.NewInt(bpsDenominator-1))
	return n.Quo(n, big.NewInt(bpsDenominator))
}
