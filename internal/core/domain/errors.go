package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a swap failure for callers and metrics.
type Kind int

const (
	KindUnknown Kind = iota
	KindPolicyBlocked
	KindUnknownPrice
	KindInsufficientAllowance
	KindAssemblyFailure
	KindSubmissionRejected
	KindExecutionReverted
	KindPolicyUnavailable
	KindSuperseded
)

func (k Kind) String() string {
	switch k {
	case KindPolicyBlocked:
		return "policy_blocked"
	case KindUnknownPrice:
		return "unknown_price"
	case KindInsufficientAllowance:
		return "insufficient_allowance"
	case KindAssemblyFailure:
		return "assembly_failure"
	case KindSubmissionRejected:
		return "submission_rejected"
	case KindExecutionReverted:
		return "execution_reverted"
	case KindPolicyUnavailable:
		return "policy_unavailable"
	case KindSuperseded:
		return "superseded"
	default:
		return "unknown"
	}
}

// RetrySafe reports whether the user may simply try again: nothing reached the chain.
func (k Kind) RetrySafe() bool {
	switch k {
	case KindPolicyBlocked, KindUnknownPrice, KindInsufficientAllowance,
		KindAssemblyFailure, KindPolicyUnavailable, KindSuperseded:
		return true
	}
	return false
}

// ErrSuperseded is returned for results of a cycle replaced by a newer one.
var ErrSuperseded = &SwapError{Kind: KindSuperseded, Op: "cycle"}

// SwapError carries a Kind alongside the underlying cause.
type SwapError struct {
	Kind    Kind
	Op      string
	Reasons []BlockReason
	TxHash  string
	Err     error
}

func (e *SwapError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Op)
	sb.WriteString(": ")
	sb.WriteString(e.Kind.String())
	if len(e.Reasons) > 0 {
		parts := make([]string, len(e.Reasons))
		for i, r := range e.Reasons {
			parts[i] = string(r)
		}
		fmt.Fprintf(&sb, " [%s]", strings.Join(parts, ","))
	}
	if e.TxHash != "" {
		fmt.Fprintf(&sb, " tx=%s", e.TxHash)
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *SwapError) Unwrap() error { return e.Err }

// Is matches any SwapError of the same Kind.
func (e *SwapError) Is(target error) bool {
	t, ok := target.(*SwapError)
	return ok && t.Kind == e.Kind
}

// NewError wraps err with a kind and operation name.
func NewError(kind Kind, op string, err error) *SwapError {
	return &SwapError{Kind: kind, Op: op, Err: err}
}

// KindOf returns the Kind of the first SwapError in err's chain.
func KindOf(err error) Kind {
	var se *SwapError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnknown
}
