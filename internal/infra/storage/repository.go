package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vietddude/modswap/internal/core/domain"
)

var (
	// ErrSubmissionNotFound is returned when a submission id is unknown
	ErrSubmissionNotFound = errors.New("submission not found")

	// ErrLockHeld is returned when another execution holds an account lock
	ErrLockHeld = errors.New("account lock held by another execution")
)

// SubmissionRepository journals every transaction handed to the node.
type SubmissionRepository interface {
	// Create records a new submission
	Create(ctx context.Context, s *domain.Submission) error

	// UpdateStatus records the outcome of a submission
	UpdateStatus(
		ctx context.Context,
		id string,
		status domain.SubmissionStatus,
		blockNumber uint64,
		errMsg string,
	) error

	// Get retrieves a submission by id
	Get(ctx context.Context, id string) (*domain.Submission, error)

	// ListByAccount returns the newest submissions of an account first
	ListByAccount(ctx context.Context, account string, limit int) ([]*domain.Submission, error)

	// ListPending returns submissions still waiting for a receipt
	ListPending(ctx context.Context, chainID uint64) ([]*domain.Submission, error)
}

// Locker serializes executions per account so two of them never race for a nonce.
// A lock is owned by the token it was acquired with.
type Locker interface {
	// AcquireLock returns false when the key is already held
	AcquireLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error)

	// ReleaseLock releases the key only if it is still held with token
	ReleaseLock(ctx context.Context, key, token string) error
}

// AccountLockKey is the lock key for an account on a chain.
func AccountLockKey(chainID uint64, account string) string {
	return fmt.Sprintf("modswap:lock:%d:%s", chainID, strings.ToLower(account))
}
