// Package chaintest provides an in-memory chain.Adapter that answers contract
// calls through real ABI encodings.
package chaintest

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/vietddude/modswap/internal/core/domain"
	"github.com/vietddude/modswap/internal/infra/chain"
)

// Handler computes a method's outputs from its decoded inputs.
type Handler func(args []any) ([]any, error)

type methodKey struct {
	to       common.Address
	selector [4]byte
}

type route struct {
	method abi.Method
	fn     Handler
}

// Call is a recorded contract call.
type Call struct {
	To     common.Address
	Method string
	Args   []any
}

// Chain is a fake zkSync node. Zero value is not usable; call New.
type Chain struct {
	mu sync.Mutex

	ChainIDValue *big.Int
	GasPriceWei  *big.Int
	Nonces       map[common.Address]uint64
	Balances     map[common.Address]*big.Int

	// SendErr, when set, is returned by SendRawTransaction.
	SendErr error
	// ReceiptStatus is the status given to every submitted tx; default 1.
	ReceiptStatus uint64
	// ReceiptErr, when set, is returned by TransactionReceipt.
	ReceiptErr error

	routes   map[methodKey]route
	calls    []Call
	sent     [][]byte
	receipts map[common.Hash]*domain.Receipt
	block    uint64
}

var _ chain.Adapter = (*Chain)(nil)

func New(chainID int64) *Chain {
	return &Chain{
		ChainIDValue:  big.NewInt(chainID),
		GasPriceWei:   big.NewInt(250_000_000),
		Nonces:        make(map[common.Address]uint64),
		Balances:      make(map[common.Address]*big.Int),
		ReceiptStatus: 1,
		routes:        make(map[methodKey]route),
		receipts:      make(map[common.Hash]*domain.Receipt),
		block:         100,
	}
}

// Handle routes calls of method on addr to fn.
func (c *Chain) Handle(addr common.Address, def abi.ABI, method string, fn Handler) {
	m, ok := def.Methods[method]
	if !ok {
		panic(fmt.Sprintf("chaintest: abi has no method %q", method))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.routes[methodKey{to: addr, selector: [4]byte(m.ID)}] = route{method: m, fn: fn}
}

// Return makes method on addr always answer outs.
func (c *Chain) Return(addr common.Address, def abi.ABI, method string, outs ...any) {
	c.Handle(addr, def, method, func([]any) ([]any, error) { return outs, nil })
}

// Revert makes method on addr always revert.
func (c *Chain) Revert(addr common.Address, def abi.ABI, method string) {
	c.Handle(addr, def, method, func([]any) ([]any, error) {
		return nil, fmt.Errorf("%w: %s", chain.ErrExecutionReverted, method)
	})
}

// Fail makes method on addr fail with a transport error.
func (c *Chain) Fail(addr common.Address, def abi.ABI, method string, err error) {
	c.Handle(addr, def, method, func([]any) ([]any, error) { return nil, err })
}

// Calls returns the recorded calls of method, in order.
func (c *Chain) Calls(method string) []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Call
	for _, call := range c.calls {
		if call.Method == method {
			out = append(out, call)
		}
	}
	return out
}

// Sent returns the raw transactions submitted so far.
func (c *Chain) Sent() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.sent))
	copy(out, c.sent)
	return out
}

func (c *Chain) ChainID(context.Context) (*big.Int, error) {
	return new(big.Int).Set(c.ChainIDValue), nil
}

func (c *Chain) BlockNumber(context.Context) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.block, nil
}

func (c *Chain) PendingNonceAt(_ context.Context, account common.Address) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Nonces[account], nil
}

func (c *Chain) GasPrice(context.Context) (*big.Int, error) {
	return new(big.Int).Set(c.GasPriceWei), nil
}

func (c *Chain) BalanceAt(_ context.Context, account common.Address) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if b, ok := c.Balances[account]; ok {
		return new(big.Int).Set(b), nil
	}
	return new(big.Int), nil
}

func (c *Chain) CallContract(ctx context.Context, msg chain.CallMsg) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(msg.Data) < 4 {
		return nil, errors.New("chaintest: calldata shorter than a selector")
	}

	c.mu.Lock()
	r, ok := c.routes[methodKey{to: msg.To, selector: [4]byte(msg.Data[:4])}]
	c.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("chaintest: no handler for %x on %s", msg.Data[:4], msg.To.Hex())
	}

	args, err := r.method.Inputs.Unpack(msg.Data[4:])
	if err != nil {
		return nil, fmt.Errorf("chaintest: unpack %s: %w", r.method.Name, err)
	}

	c.mu.Lock()
	c.calls = append(c.calls, Call{To: msg.To, Method: r.method.Name, Args: args})
	c.mu.Unlock()

	outs, err := r.fn(args)
	if err != nil {
		return nil, err
	}
	return r.method.Outputs.Pack(outs...)
}

// SendRawTransaction records raw and mines it into a new block with ReceiptStatus.
func (c *Chain) SendRawTransaction(_ context.Context, raw []byte) (common.Hash, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.SendErr != nil {
		return common.Hash{}, c.SendErr
	}
	c.sent = append(c.sent, append([]byte(nil), raw...))
	hash := crypto.Keccak256Hash(raw)
	c.block++
	c.receipts[hash] = &domain.Receipt{
		TxHash:      hash.Hex(),
		BlockNumber: c.block,
		Status:      c.ReceiptStatus,
		GasUsed:     21000,
	}
	return hash, nil
}

func (c *Chain) TransactionReceipt(_ context.Context, hash common.Hash) (*domain.Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ReceiptErr != nil {
		return nil, c.ReceiptErr
	}
	r, ok := c.receipts[hash]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}
