package contracts

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/vietddude/modswap/internal/core/domain"
)

// Oracle is the USD price oracle.
type Oracle struct{ *Contract }

func NewOracle(addr common.Address, caller Caller) *Oracle {
	return &Oracle{NewContract(addr, OracleABI, caller)}
}

// GetAssetPrice returns the 1e18-scaled USD price of asset.
func (o *Oracle) GetAssetPrice(ctx context.Context, asset common.Address) (*big.Int, error) {
	return callOne[*big.Int](ctx, o.Contract, "getAssetPrice", asset)
}

// SwapModuleBase holds per-account trade limits and the asset whitelist.
type SwapModuleBase struct{ *Contract }

func NewSwapModuleBase(addr common.Address, caller Caller) *SwapModuleBase {
	return &SwapModuleBase{NewContract(addr, SwapModuleBaseABI, caller)}
}

func (b *SwapModuleBase) CheckTradeLimit(
	ctx context.Context,
	account, asset common.Address,
	amount *big.Int,
) (domain.TradeLimitState, error) {
	values, err := b.Call(ctx, "checkTradeLimit", account, asset, amount)
	if err != nil {
		return domain.TradeLimitState{}, err
	}
	if len(values) != 3 {
		return domain.TradeLimitState{}, fmt.Errorf("checkTradeLimit: expected 3 outputs, got %d", len(values))
	}

	within, ok1 := values[0].(bool)
	available, ok2 := values[1].(*big.Int)
	reset, ok3 := values[2].(uint64)
	if !ok1 || !ok2 || !ok3 {
		return domain.TradeLimitState{}, fmt.Errorf("checkTradeLimit: unexpected output types")
	}
	return domain.TradeLimitState{
		WithinLimit:    within,
		AvailableRaw:   available,
		ResetTimestamp: reset,
	}, nil
}

func (b *SwapModuleBase) DailyTradeLimit(ctx context.Context) (*big.Int, error) {
	return callOne[*big.Int](ctx, b.Contract, "dailyTradeLimit")
}

func (b *SwapModuleBase) IsDailyTradeLimitEnabled(ctx context.Context) (bool, error) {
	return callOne[bool](ctx, b.Contract, "isDailyTradeLimitEnabled")
}

func (b *SwapModuleBase) IsAssetWhitelisted(ctx context.Context, asset common.Address) (bool, error) {
	return callOne[bool](ctx, b.Contract, "isAssetWhitelisted", asset)
}

func (b *SwapModuleBase) MaxTradeAmountUSD(ctx context.Context) (*big.Int, error) {
	return callOne[*big.Int](ctx, b.Contract, "maxTradeAmountUSD")
}

// GasPond is the sponsor registry backing the paymaster.
type GasPond struct{ *Contract }

func NewGasPond(addr common.Address, caller Caller) *GasPond {
	return &GasPond{NewContract(addr, GasPondABI, caller)}
}

func (g *GasPond) IsSponsoredPath(ctx context.Context, path domain.SwapPath, sponsor common.Address) (bool, error) {
	return callOne[bool](ctx, g.Contract, "isSponsoredPath", []common.Address(path), sponsor)
}

func (g *GasPond) IsGasPayableERC20(ctx context.Context, token, sponsor common.Address) (bool, error) {
	return callOne[bool](ctx, g.Contract, "isGasPayableERC20", token, sponsor)
}

func (g *GasPond) GetSponsorETHBalance(ctx context.Context, sponsor common.Address) (*big.Int, error) {
	return callOne[*big.Int](ctx, g.Contract, "getSponsorETHBalance", sponsor)
}

// Router is a UniswapV2-style router.
type Router struct{ *Contract }

func NewRouter(addr common.Address, caller Caller) *Router {
	return &Router{NewContract(addr, RouterABI, caller)}
}

func (r *Router) GetAmountsOut(ctx context.Context, amountIn *big.Int, path domain.SwapPath) ([]*big.Int, error) {
	return callOne[[]*big.Int](ctx, r.Contract, "getAmountsOut", amountIn, []common.Address(path))
}

func (r *Router) GetAmountsIn(ctx context.Context, amountOut *big.Int, path domain.SwapPath) ([]*big.Int, error) {
	return callOne[[]*big.Int](ctx, r.Contract, "getAmountsIn", amountOut, []common.Address(path))
}

// ERC20 is a fungible token.
type ERC20 struct{ *Contract }

func NewERC20(addr common.Address, caller Caller) *ERC20 {
	return &ERC20{NewContract(addr, ERC20ABI, caller)}
}

func (t *ERC20) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	return callOne[*big.Int](ctx, t.Contract, "allowance", owner, spender)
}

func (t *ERC20) BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error) {
	return callOne[*big.Int](ctx, t.Contract, "balanceOf", owner)
}

// Account is a modular smart-contract wallet.
type Account struct{ *Contract }

func NewAccount(addr common.Address, caller Caller) *Account {
	return &Account{NewContract(addr, AccountABI, caller)}
}

func (a *Account) Owner(ctx context.Context) (common.Address, error) {
	return callOne[common.Address](ctx, a.Contract, "owner")
}
