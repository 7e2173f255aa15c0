package evm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/vietddude/modswap/internal/core/domain"
	"github.com/vietddude/modswap/internal/infra/chain"
	"github.com/vietddude/modswap/internal/infra/rpc"
)

// Node implements chain.Adapter over zkSync's Ethereum-compatible JSON-RPC.
type Node struct {
	client rpc.RPCClient
}

var _ chain.Adapter = (*Node)(nil)

func NewNode(client rpc.RPCClient) *Node {
	return &Node{client: client}
}

func (n *Node) ChainID(ctx context.Context) (*big.Int, error) {
	result, err := n.client.Execute(ctx, rpc.NewHTTPOperation("eth_chainId"))
	if err != nil {
		return nil, fmt.Errorf("eth_chainId failed: %w", err)
	}
	return parseBig(result)
}

func (n *Node) BlockNumber(ctx context.Context) (uint64, error) {
	result, err := n.client.Execute(ctx, rpc.NewHTTPOperation("eth_blockNumber"))
	if err != nil {
		return 0, fmt.Errorf("eth_blockNumber failed: %w", err)
	}
	return parseUint(result)
}

func (n *Node) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	op := rpc.NewHTTPOperation("eth_getTransactionCount", account.Hex(), "pending")
	result, err := n.client.Execute(ctx, op)
	if err != nil {
		return 0, fmt.Errorf("eth_getTransactionCount failed: %w", err)
	}
	return parseUint(result)
}

func (n *Node) GasPrice(ctx context.Context) (*big.Int, error) {
	result, err := n.client.Execute(ctx, rpc.NewHTTPOperation("eth_gasPrice"))
	if err != nil {
		return nil, fmt.Errorf("eth_gasPrice failed: %w", err)
	}
	return parseBig(result)
}

func (n *Node) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	op := rpc.NewHTTPOperation("eth_getBalance", account.Hex(), "latest")
	result, err := n.client.Execute(ctx, op)
	if err != nil {
		return nil, fmt.Errorf("eth_getBalance failed: %w", err)
	}
	return parseBig(result)
}

func (n *Node) CallContract(ctx context.Context, msg chain.CallMsg) ([]byte, error) {
	arg := map[string]any{
		"to":   msg.To.Hex(),
		"data": hexutil.Encode(msg.Data),
	}
	if msg.From != (common.Address{}) {
		arg["from"] = msg.From.Hex()
	}

	result, err := n.client.Execute(ctx, rpc.NewHTTPOperation("eth_call", arg, "latest"))
	if err != nil {
		if isRevert(err) {
			return nil, fmt.Errorf("eth_call %s: %w: %v", msg.To.Hex(), chain.ErrExecutionReverted, err)
		}
		return nil, fmt.Errorf("eth_call %s failed: %w", msg.To.Hex(), err)
	}

	s, ok := result.(string)
	if !ok {
		return nil, fmt.Errorf("invalid eth_call response: %T", result)
	}
	return hexutil.Decode(s)
}

func (n *Node) SendRawTransaction(ctx context.Context, raw []byte) (common.Hash, error) {
	op := rpc.NewSubmitOperation("eth_sendRawTransaction", hexutil.Encode(raw))
	result, err := n.client.Execute(ctx, op)
	if err != nil {
		return common.Hash{}, fmt.Errorf("eth_sendRawTransaction failed: %w", err)
	}

	s, ok := result.(string)
	if !ok || !strings.HasPrefix(s, "0x") {
		return common.Hash{}, fmt.Errorf("invalid tx hash response: %v", result)
	}
	return common.HexToHash(s), nil
}

func (n *Node) TransactionReceipt(ctx context.Context, hash common.Hash) (*domain.Receipt, error) {
	op := rpc.NewHTTPOperation("eth_getTransactionReceipt", hash.Hex())
	result, err := n.client.Execute(ctx, op)
	if err != nil {
		return nil, fmt.Errorf("eth_getTransactionReceipt failed: %w", err)
	}
	if result == nil {
		return nil, nil
	}

	raw, ok := result.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("invalid receipt format")
	}

	receipt := &domain.Receipt{TxHash: hash.Hex()}
	// zkSync returns receipts for txs that are included in a batch but not
	// yet in a block; those have a null blockNumber.
	bn, ok := raw["blockNumber"].(string)
	if !ok {
		return nil, nil
	}
	if receipt.BlockNumber, err = parseUint(bn); err != nil {
		return nil, fmt.Errorf("receipt blockNumber: %w", err)
	}
	if st, ok := raw["status"].(string); ok {
		if receipt.Status, err = parseUint(st); err != nil {
			return nil, fmt.Errorf("receipt status: %w", err)
		}
	}
	if gu, ok := raw["gasUsed"].(string); ok {
		receipt.GasUsed, _ = parseUint(gu)
	}
	return receipt, nil
}

// WaitForReceipt polls until the receipt is known or ctx ends.
func WaitForReceipt(
	ctx context.Context,
	node chain.Adapter,
	hash common.Hash,
	interval time.Duration,
) (*domain.Receipt, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		receipt, err := node.TransactionReceipt(ctx, hash)
		if err != nil {
			slog.Warn("receipt poll failed", "tx", hash.Hex(), "error", err)
		} else if receipt != nil {
			return receipt, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for receipt %s: %w", hash.Hex(), ctx.Err())
		case <-ticker.C:
		}
	}
}

func isRevert(err error) bool {
	var rpcErr *rpc.RPCError
	if errors.As(err, &rpcErr) {
		return rpcErr.Code == 3 || strings.Contains(strings.ToLower(rpcErr.Message), "revert")
	}
	return strings.Contains(strings.ToLower(err.Error()), "execution reverted")
}

func parseBig(v any) (*big.Int, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("expected hex quantity, got %T", v)
	}
	n, err := hexutil.DecodeBig(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex %q: %w", s, err)
	}
	return n, nil
}

func parseUint(v any) (uint64, error) {
	s, ok := v.(string)
	if !ok {
		return 0, fmt.Errorf("expected hex quantity, got %T", v)
	}
	n, err := hexutil.DecodeUint64(s)
	if err != nil {
		return 0, fmt.Errorf("invalid hex %q: %w", s, err)
	}
	return n, nil
}
