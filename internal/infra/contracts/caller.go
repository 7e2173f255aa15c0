package contracts

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/vietddude/modswap/internal/infra/chain"
)

// Caller executes read-only calls. chain.Adapter satisfies it.
type Caller interface {
	CallContract(ctx context.Context, msg chain.CallMsg) ([]byte, error)
}

// Contract binds an ABI to a deployed address.
type Contract struct {
	Address common.Address
	abi     abi.ABI
	caller  Caller
}

func NewContract(addr common.Address, def abi.ABI, caller Caller) *Contract {
	return &Contract{Address: addr, abi: def, caller: caller}
}

// Pack encodes a call to method.
func (c *Contract) Pack(method string, args ...any) ([]byte, error) {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	return data, nil
}

// Call runs a view method and returns its decoded outputs.
func (c *Contract) Call(ctx context.Context, method string, args ...any) ([]any, error) {
	data, err := c.Pack(method, args...)
	if err != nil {
		return nil, err
	}

	out, err := c.caller.CallContract(ctx, chain.CallMsg{To: c.Address, Data: data})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}

	values, err := c.abi.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return values, nil
}

// callOne runs a single-output view method and converts the result.
func callOne[T any](ctx context.Context, c *Contract, method string, args ...any) (T, error) {
	var zero T
	values, err := c.Call(ctx, method, args...)
	if err != nil {
		return zero, err
	}
	if len(values) != 1 {
		return zero, fmt.Errorf("%s: expected 1 output, got %d", method, len(values))
	}
	v, ok := values[0].(T)
	if !ok {
		return zero, fmt.Errorf("%s: unexpected output type %T", method, values[0])
	}
	return v, nil
}
