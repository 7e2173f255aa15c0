package domain

import "time"

// SubmissionKind distinguishes the transactions a swap may send.
type SubmissionKind string

const (
	SubmissionSwap     SubmissionKind = "swap"
	SubmissionApproval SubmissionKind = "approval"
)

// SubmissionStatus tracks a sent transaction until its receipt is known.
type SubmissionStatus string

const (
	SubmissionPending   SubmissionStatus = "pending"
	SubmissionConfirmed SubmissionStatus = "confirmed"
	SubmissionReverted  SubmissionStatus = "reverted"
	SubmissionRejected  SubmissionStatus = "rejected"
)

// Submission is a journal entry for one transaction handed to the node.
type Submission struct {
	ID            string
	ChainID       uint64
	Account       string
	Nonce         uint64
	Kind          SubmissionKind
	TxHash        string
	PaymasterMode PaymasterMode
	Status        SubmissionStatus
	Error         string
	BlockNumber   uint64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Receipt is the subset of a transaction receipt the pipeline needs.
type Receipt struct {
	TxHash      string
	BlockNumber uint64
	Status      uint64
	GasUsed     uint64
}

func (r *Receipt) Succeeded() bool { return r.Status == 1 }
