package domain

import (
	"errors"
	"time"
)

// SwapState is a step of the swap lifecycle.
type SwapState string

const (
	SwapStateIdle          SwapState = "idle"
	SwapStateQuoting       SwapState = "quoting"
	SwapStateLimitChecking SwapState = "limit_checking"
	SwapStateBlocked       SwapState = "blocked"
	SwapStateApproving     SwapState = "approving"
	SwapStateBatching      SwapState = "batching"
	SwapStateAssembling    SwapState = "assembling"
	SwapStateSigning       SwapState = "signing"
	SwapStateSubmitted     SwapState = "submitted"
	SwapStateConfirmed     SwapState = "confirmed"
	SwapStateFailed        SwapState = "failed"
)

// Terminal reports whether no further transition happens within a cycle.
func (s SwapState) Terminal() bool {
	return s == SwapStateBlocked || s == SwapStateConfirmed || s == SwapStateFailed
}

// ErrInvalidTransition is returned when a state change is not in ValidTransitions.
var ErrInvalidTransition = errors.New("invalid state transition")

// ValidTransitions defines allowed state transitions.
// Key is the current state, value is the list of valid next states.
// Approving leads to Batching for modular accounts and straight to Assembling
// for plain accounts, whose approval is a transaction of its own.
var ValidTransitions = map[SwapState][]SwapState{
	SwapStateIdle:    {SwapStateQuoting, SwapStateFailed},
	SwapStateQuoting: {SwapStateLimitChecking, SwapStateFailed},
	SwapStateLimitChecking: {
		SwapStateBlocked,
		SwapStateApproving,
		SwapStateAssembling,
		SwapStateFailed,
	},
	SwapStateApproving:  {SwapStateBatching, SwapStateAssembling, SwapStateFailed},
	SwapStateBatching:   {SwapStateAssembling, SwapStateFailed},
	SwapStateAssembling: {SwapStateSigning, SwapStateFailed},
	SwapStateSigning:    {SwapStateSubmitted, SwapStateFailed},
	SwapStateSubmitted:  {SwapStateConfirmed, SwapStateFailed},
}

// CanTransition checks if a transition from one state to another is valid.
func CanTransition(from, to SwapState) bool {
	for _, target := range ValidTransitions[from] {
		if target == to {
			return true
		}
	}
	return false
}

// Transition represents a state change with metadata.
type Transition struct {
	From      SwapState
	To        SwapState
	Reason    string
	Timestamp time.Time
}

// NewTransition creates a new transition record.
func NewTransition(from, to SwapState, reason string) Transition {
	return Transition{
		From:      from,
		To:        to,
		Reason:    reason,
		Timestamp: time.Now(),
	}
}

// IsValid returns true if this transition is allowed by the state machine.
func (t Transition) IsValid() bool {
	return CanTransition(t.From, t.To)
}

// Describe returns a human-readable description of a state.
func (s SwapState) Describe() string {
	switch s {
	case SwapStateIdle:
		return "Idle - waiting for a swap request"
	case SwapStateQuoting:
		return "Quoting - fetching a display price"
	case SwapStateLimitChecking:
		return "Limit checking - reading trade limits, sponsorship and allowance"
	case SwapStateBlocked:
		return "Blocked - policy refused the trade, nothing was sent"
	case SwapStateApproving:
		return "Approving - adding an allowance for the router"
	case SwapStateBatching:
		return "Batching - encoding approval and swap as one account call"
	case SwapStateAssembling:
		return "Assembling - reading nonce and gas price, building the transaction"
	case SwapStateSigning:
		return "Signing - signing the transaction"
	case SwapStateSubmitted:
		return "Submitted - waiting for the receipt"
	case SwapStateConfirmed:
		return "Confirmed - the swap executed"
	case SwapStateFailed:
		return "Failed - the swap did not execute"
	default:
		return "Unknown state"
	}
}
