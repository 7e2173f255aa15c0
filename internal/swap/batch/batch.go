// Package batch encodes ordered call lists for an account's executeBatch.
package batch

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/vietddude/modswap/internal/core/domain"
	"github.com/vietddude/modswap/internal/infra/contracts"
)

const method = "executeBatch"

var (
	ErrEmptyBatch     = errors.New("empty batch")
	ErrNotBatch       = errors.New("calldata is not an executeBatch call")
	ErrDelegateTarget = errors.New("delegate call must target the installed swap module")
)

// Selector returns the 4-byte selector of executeBatch(bool[],address[],bytes[],uint256[]).
func Selector() []byte {
	return common.CopyBytes(contracts.AccountABI.Methods[method].ID)
}

// Encode packs calls as four parallel arrays in call order. The account runs
// them in that order and reverts the whole batch if any entry reverts.
func Encode(calls []domain.BatchedCall) ([]byte, error) {
	if len(calls) == 0 {
		return nil, ErrEmptyBatch
	}

	delegate := make([]bool, len(calls))
	targets := make([]common.Address, len(calls))
	data := make([][]byte, len(calls))
	values := make([]*big.Int, len(calls))
	for i, c := range calls {
		delegate[i] = c.IsDelegateCall
		targets[i] = c.Target
		data[i] = c.Data
		if data[i] == nil {
			data[i] = []byte{}
		}
		values[i] = c.Value
		if values[i] == nil {
			values[i] = new(big.Int)
		}
	}

	out, err := contracts.AccountABI.Pack(method, delegate, targets, data, values)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	return out, nil
}

// Decode is the inverse of Encode.
func Decode(calldata []byte) ([]domain.BatchedCall, error) {
	m := contracts.AccountABI.Methods[method]
	if len(calldata) < 4 || !bytes.Equal(calldata[:4], m.ID) {
		return nil, ErrNotBatch
	}

	args, err := m.Inputs.Unpack(calldata[4:])
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(args) != 4 {
		return nil, fmt.Errorf("unpack %s: expected 4 arrays, got %d", method, len(args))
	}

	delegate, ok1 := args[0].([]bool)
	targets, ok2 := args[1].([]common.Address)
	data, ok3 := args[2].([][]byte)
	values, ok4 := args[3].([]*big.Int)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return nil, fmt.Errorf("unpack %s: unexpected array types", method)
	}
	n := len(delegate)
	if len(targets) != n || len(data) != n || len(values) != n {
		return nil, fmt.Errorf("unpack %s: array lengths differ", method)
	}

	calls := make([]domain.BatchedCall, n)
	for i := range calls {
		calls[i] = domain.BatchedCall{
			IsDelegateCall: delegate[i],
			Target:         targets[i],
			Data:           data[i],
			Value:          values[i],
		}
	}
	return calls, nil
}

// ValidateModuleTargets checks every delegate entry targets module.
func ValidateModuleTargets(calls []domain.BatchedCall, module common.Address) error {
	for i, c := range calls {
		if c.IsDelegateCall && c.Target != module {
			return fmt.Errorf("%w: entry %d targets %s", ErrDelegateTarget, i, c.Target.Hex())
		}
	}
	return nil
}
