// Package allowance checks ERC-20 approvals and builds the approval step.
package allowance

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/vietddude/modswap/internal/core/domain"
	"github.com/vietddude/modswap/internal/infra/contracts"
)

// Gate answers allowance questions for any token through one Caller.
type Gate struct {
	caller contracts.Caller
}

func NewGate(caller contracts.Caller) *Gate {
	return &Gate{caller: caller}
}

// HasSufficientAllowance reports whether owner has approved spender for at
// least amount of token. The native asset needs no approval.
func (g *Gate) HasSufficientAllowance(
	ctx context.Context,
	token domain.Asset,
	owner, spender common.Address,
	amount *big.Int,
) (bool, error) {
	if token.IsNative() {
		return true, nil
	}
	current, err := contracts.NewERC20(token.Address(), g.caller).Allowance(ctx, owner, spender)
	if err != nil {
		return false, fmt.Errorf("allowance of %s: %w", token, err)
	}
	return current.Cmp(amount) >= 0, nil
}

// BuildApprovalCall returns a plain call approving spender for the maximum
// uint256, so later swaps of the same token skip the approval step.
func (g *Gate) BuildApprovalCall(token domain.Asset, spender common.Address) (domain.BatchedCall, error) {
	if token.IsNative() {
		return domain.BatchedCall{}, fmt.Errorf("approve %s: native asset has no allowance", token)
	}
	data, err := contracts.PackApprove(spender, math.MaxBig256)
	if err != nil {
		return domain.BatchedCall{}, err
	}
	return domain.BatchedCall{
		Target: token.Address(),
		Data:   data,
		Value:  new(big.Int),
	}, nil
}
