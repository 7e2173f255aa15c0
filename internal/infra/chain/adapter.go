package chain

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/vietddude/modswap/internal/core/domain"
)

// ErrExecutionReverted is returned by CallContract when the callee reverted.
var ErrExecutionReverted = errors.New("execution reverted")

// CallMsg is a read-only contract call.
type CallMsg struct {
	From common.Address
	To   common.Address
	Data []byte
}

// Adapter is the boundary between the swap pipeline and the zkSync node.
// Every read goes through here so tests can swap in a fake node.
type Adapter interface {
	// ChainID returns the network's EIP-155 chain id
	ChainID(ctx context.Context) (*big.Int, error)

	// BlockNumber returns the latest block number
	BlockNumber(ctx context.Context) (uint64, error)

	// PendingNonceAt returns the next nonce for an account, counting pending txs
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)

	// GasPrice returns the node's current gas price
	GasPrice(ctx context.Context) (*big.Int, error)

	// BalanceAt returns the native balance of an account
	BalanceAt(ctx context.Context, account common.Address) (*big.Int, error)

	// CallContract executes a read-only call against the latest state
	CallContract(ctx context.Context, msg CallMsg) ([]byte, error)

	// SendRawTransaction submits a signed transaction exactly once
	SendRawTransaction(ctx context.Context, raw []byte) (common.Hash, error)

	// TransactionReceipt returns nil without error while the receipt is unknown
	TransactionReceipt(ctx context.Context, hash common.Hash) (*domain.Receipt, error)
}
