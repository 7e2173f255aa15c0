package contracts

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/vietddude/modswap/internal/core/domain"
)

// PackApprove encodes ERC20.approve(spender, amount).
func PackApprove(spender common.Address, amount *big.Int) ([]byte, error) {
	data, err := ERC20ABI.Pack("approve", spender, amount)
	if err != nil {
		return nil, fmt.Errorf("pack approve: %w", err)
	}
	return data, nil
}

// SwapModuleMethod picks the module entry point for the endpoint kinds.
func SwapModuleMethod(in, out domain.Asset) string {
	switch {
	case in.IsNative():
		return "swapETHForToken"
	case out.IsNative():
		return "swapTokenForETH"
	default:
		return "swapTokenForToken"
	}
}

// PackSwapModuleCall encodes the swap module call executed by the account.
func PackSwapModuleCall(in, out domain.Asset, amountIn *big.Int, path domain.SwapPath) ([]byte, error) {
	method := SwapModuleMethod(in, out)
	data, err := SwapModuleABI.Pack(method, amountIn, []common.Address(path))
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	return data, nil
}

// RouterSwap is an encoded router call plus the native value it must carry.
type RouterSwap struct {
	Method string
	Data   []byte
	Value  *big.Int
}

// PackRouterSwap encodes the direct router swap used by plain key accounts.
// The deadline is unbounded; the transaction is only valid for its nonce anyway.
func PackRouterSwap(
	in, out domain.Asset,
	amountIn, amountOutMin *big.Int,
	path domain.SwapPath,
	to common.Address,
) (*RouterSwap, error) {
	deadline := new(big.Int).Set(math.MaxBig256)
	addrs := []common.Address(path)

	var (
		method string
		data   []byte
		err    error
		value  = new(big.Int)
	)
	switch {
	case in.IsNative():
		method = "swapExactETHForTokens"
		data, err = RouterABI.Pack(method, amountOutMin, addrs, to, deadline)
		value.Set(amountIn)
	case out.IsNative():
		method = "swapExactTokensForETH"
		data, err = RouterABI.Pack(method, amountIn, amountOutMin, addrs, to, deadline)
	default:
		method = "swapExactTokensForTokens"
		data, err = RouterABI.Pack(method, amountIn, amountOutMin, addrs, to, deadline)
	}
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	return &RouterSwap{Method: method, Data: data, Value: value}, nil
}
