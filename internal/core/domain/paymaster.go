package domain

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// PaymasterMode selects how the paymaster collects its fee.
type PaymasterMode string

const (
	PaymasterNone          PaymasterMode = "none"
	PaymasterGeneral       PaymasterMode = "general"
	PaymasterApprovalBased PaymasterMode = "approval_based"
)

// ParsePaymasterMode accepts the config spellings of a mode.
func ParsePaymasterMode(s string) (PaymasterMode, error) {
	switch PaymasterMode(s) {
	case PaymasterNone, "":
		return PaymasterNone, nil
	case PaymasterGeneral:
		return PaymasterGeneral, nil
	case PaymasterApprovalBased, "approvalBased":
		return PaymasterApprovalBased, nil
	}
	return "", fmt.Errorf("unknown paymaster mode %q", s)
}

var ErrInvalidPaymasterParams = errors.New("invalid paymaster params")

// PaymasterParams is the paymaster section of a zkSync envelope.
// General carries only InnerInput; ApprovalBased also carries Token and MinimalAllowance.
// Input is the encoded paymaster flow call that goes on the wire.
type PaymasterParams struct {
	Mode             PaymasterMode
	Paymaster        common.Address
	Token            common.Address
	MinimalAllowance *big.Int
	InnerInput       []byte
	Input            []byte

	// Fee figures the allowance was derived from, kept for display.
	EthFee   *big.Int
	TokenFee *big.Int
}

// Validate checks the params describe exactly one flow variant.
func (p *PaymasterParams) Validate() error {
	if p.Paymaster == (common.Address{}) {
		return fmt.Errorf("%w: missing paymaster address", ErrInvalidPaymasterParams)
	}
	switch p.Mode {
	case PaymasterGeneral:
		if p.Token != (common.Address{}) || p.MinimalAllowance != nil {
			return fmt.Errorf("%w: general flow carries token fields", ErrInvalidPaymasterParams)
		}
	case PaymasterApprovalBased:
		if p.Token == (common.Address{}) {
			return fmt.Errorf("%w: approval flow without token", ErrInvalidPaymasterParams)
		}
		if p.MinimalAllowance == nil || p.MinimalAllowance.Sign() <= 0 {
			return fmt.Errorf("%w: approval flow without allowance", ErrInvalidPaymasterParams)
		}
	default:
		return fmt.Errorf("%w: mode %q", ErrInvalidPaymasterParams, p.Mode)
	}
	if len(p.Input) < 4 {
		return fmt.Errorf("%w: paymaster input not encoded", ErrInvalidPaymasterParams)
	}
	return nil
}

// SponsorshipDecision records whether the sponsor registry covers a path.
type SponsorshipDecision struct {
	Path      SwapPath
	Sponsor   common.Address
	Sponsored bool

	// SponsorBalance is nil when the deposit was not checked.
	SponsorBalance *big.Int
	Underfunded    bool
}
