package domain

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// AccountKind distinguishes modular smart-contract wallets from plain key accounts.
type AccountKind string

const (
	AccountModular AccountKind = "modular"
	AccountEOA     AccountKind = "eoa"
)

// BatchedCall is one entry of an account's executeBatch.
type BatchedCall struct {
	IsDelegateCall bool
	Target         common.Address
	Data           []byte
	Value          *big.Int
}

// SwapRequest is a user's intent to swap AmountRaw of Input for Output.
type SwapRequest struct {
	Account       common.Address
	AccountKind   AccountKind
	Input         Asset
	Output        Asset
	AmountRaw     *big.Int
	PaymasterMode PaymasterMode
	SlippageBps   uint32

	// Recipient receives the output of a plain account swap; zero means Account.
	Recipient common.Address
}

// To returns the address the swap output goes to.
func (r *SwapRequest) To() common.Address {
	if r.Recipient == (common.Address{}) {
		return r.Account
	}
	return r.Recipient
}

var ErrInvalidRequest = errors.New("invalid swap request")

// Validate checks the request is well formed before any remote read.
func (r *SwapRequest) Validate() error {
	if r.Account == (common.Address{}) {
		return fmt.Errorf("%w: missing account", ErrInvalidRequest)
	}
	if r.AmountRaw == nil || r.AmountRaw.Sign() <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidRequest)
	}
	if r.Input.Equal(r.Output) {
		return fmt.Errorf("%w: input and output are both %s", ErrInvalidRequest, r.Input)
	}
	switch r.AccountKind {
	case AccountModular, AccountEOA:
	default:
		return fmt.Errorf("%w: account kind %q", ErrInvalidRequest, r.AccountKind)
	}
	if r.SlippageBps >= 10000 {
		return fmt.Errorf("%w: slippage %d bps", ErrInvalidRequest, r.SlippageBps)
	}
	return nil
}
