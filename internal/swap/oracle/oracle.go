// Package oracle reads USD prices for swap assets.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/vietddude/modswap/internal/core/domain"
	"github.com/vietddude/modswap/internal/infra/chain"
)

// PriceSource is the on-chain oracle. *contracts.Oracle satisfies it.
type PriceSource interface {
	GetAssetPrice(ctx context.Context, asset common.Address) (*big.Int, error)
}

// Client resolves asset prices. The oracle only stores token prices, so the
// native asset is priced as the routing (wrapped native) token.
type Client struct {
	source  PriceSource
	routing common.Address
	log     *slog.Logger
}

func NewClient(source PriceSource, routing common.Address) *Client {
	return &Client{
		source:  source,
		routing: routing,
		log:     slog.Default().With("component", "oracle"),
	}
}

// Price returns the 1e18-scaled USD price of asset. A zero price or a revert
// means the oracle has no quote: known is false and err is nil.
func (c *Client) Price(ctx context.Context, asset domain.Asset) (price *big.Int, known bool, err error) {
	addr := asset.Resolve(c.routing)

	p, err := c.source.GetAssetPrice(ctx, addr)
	if err != nil {
		if errors.Is(err, chain.ErrExecutionReverted) {
			c.log.Debug("oracle has no price", "asset", asset.String(), "error", err)
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("price of %s: %w", asset, err)
	}
	if p == nil || p.Sign() == 0 {
		return nil, false, nil
	}
	return p, true, nil
}

// USDValue converts a raw amount to 1e18-scaled USD: amountRaw * price / 10^decimals.
func USDValue(amountRaw *big.Int, decimals uint8, price *big.Int) *big.Int {
	v := new(big.Int).Mul(amountRaw, price)
	return v.Quo(v, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
}

// FormatUSD renders a 1e18-scaled USD figure with two decimals.
func FormatUSD(v *big.Int) string {
	if v == nil {
		return "unknown"
	}
	return "$" + decimal.NewFromBigInt(v, -18).StringFixed(2)
}
