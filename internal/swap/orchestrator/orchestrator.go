// Package orchestrator drives a swap request from quoting to a confirmed
// (or failed) transaction.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/vietddude/modswap/internal/core/domain"
	"github.com/vietddude/modswap/internal/infra/chain"
	"github.com/vietddude/modswap/internal/infra/storage"
	"github.com/vietddude/modswap/internal/swap/assembler"
)

// ErrOwnerMismatch is returned when the signer does not control the account.
var ErrOwnerMismatch = errors.New("signer does not control the account")

// LimitQuoter projects a trade onto the account's daily limit.
type LimitQuoter interface {
	Quote(ctx context.Context, account common.Address, asset domain.Asset, amountRaw *big.Int) (*domain.TradeLimitQuote, error)
}

// SponsorChecker decides whether a sponsor pays gas for a pair.
type SponsorChecker interface {
	IsSponsored(ctx context.Context, in, out domain.Asset, sponsor common.Address) (domain.SponsorshipDecision, error)
}

// AllowanceChecker reads allowances and builds approval calls.
type AllowanceChecker interface {
	HasSufficientAllowance(ctx context.Context, token domain.Asset, owner, spender common.Address, amount *big.Int) (bool, error)
	BuildApprovalCall(token domain.Asset, spender common.Address) (domain.BatchedCall, error)
}

// PaymasterBuilder builds the paymaster section of an envelope.
type PaymasterBuilder interface {
	Build(ctx context.Context, path domain.SwapPath, sponsor common.Address, mode domain.PaymasterMode) (*domain.PaymasterParams, error)
}

// Signer controls the account.
type Signer interface {
	Address() common.Address
	SignDigest(digest []byte) ([]byte, error)
	SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

// Config holds the addresses and timings the orchestrator works with.
type Config struct {
	ChainID    uint64
	Routing    common.Address
	Router     common.Address
	SwapModule common.Address
	Sponsor    common.Address

	// DefaultSlippageBps applies to requests that carry none.
	DefaultSlippageBps  uint32
	ReceiptPollInterval time.Duration
	ReceiptTimeout      time.Duration
	LockTTL             time.Duration
}

// Deps are the collaborators of an Orchestrator.
type Deps struct {
	Node        chain.Adapter
	Limits      LimitQuoter
	Sponsors    SponsorChecker
	Allowances  AllowanceChecker
	Paymaster   PaymasterBuilder
	Assembler   *assembler.Assembler
	Signer      Signer
	Submissions storage.SubmissionRepository
	Locker      storage.Locker
}

// Observer is told about every state change of every cycle.
type Observer func(cycle uint64, t domain.Transition)

type Option func(*Orchestrator)

func WithObserver(fn Observer) Option {
	return func(o *Orchestrator) { o.observer = fn }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// Orchestrator runs swap cycles. Every Preview or Execute starts a new cycle
// and supersedes the previous one.
type Orchestrator struct {
	cfg  Config
	deps Deps

	cycle    atomic.Uint64
	observer Observer
	log      *slog.Logger
	now      func() time.Time
}

func New(cfg Config, deps Deps, opts ...Option) *Orchestrator {
	if cfg.ReceiptPollInterval <= 0 {
		cfg.ReceiptPollInterval = 2 * time.Second
	}
	if cfg.ReceiptTimeout <= 0 {
		cfg.ReceiptTimeout = 3 * time.Minute
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 5 * time.Minute
	}
	o := &Orchestrator{
		cfg:  cfg,
		deps: deps,
		log:  slog.Default().With("component", "orchestrator"),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// CurrentCycle returns the id of the latest cycle.
func (o *Orchestrator) CurrentCycle() uint64 {
	return o.cycle.Load()
}

func (o *Orchestrator) superseded(id uint64) bool {
	return o.cycle.Load() != id
}

// Preview runs Quoting and LimitChecking for req without sending anything.
// If another cycle starts before the reads settle, the result is discarded
// and domain.ErrSuperseded is returned.
func (o *Orchestrator) Preview(ctx context.Context, req domain.SwapRequest) (*Preview, error) {
	id := o.cycle.Add(1)
	r := o.newRun(id, req.AccountKind)

	p, err := o.check(ctx, r, req)
	if err != nil {
		return nil, err
	}
	if o.superseded(id) {
		o.log.Debug("preview superseded", "cycle", id, "current", o.cycle.Load())
		return nil, domain.ErrSuperseded
	}
	p.Transitions = r.history()
	return p, nil
}

// Execute runs req to completion. The returned Outcome is non-nil whenever the
// request got past validation, and records how far it went.
func (o *Orchestrator) Execute(ctx context.Context, req domain.SwapRequest) (*Outcome, error) {
	id := o.cycle.Add(1)
	r := o.newRun(id, req.AccountKind)
	out := &Outcome{CycleID: id}
	defer func() {
		out.State = r.state
		out.Transitions = r.history()
	}()

	p, err := o.check(ctx, r, req)
	if err != nil {
		return out, r.fail(err)
	}
	out.Preview = p

	if o.superseded(id) {
		return out, r.fail(domain.ErrSuperseded)
	}

	if p.Blocked() {
		r.block(p.Reasons)
		return out, &domain.SwapError{Kind: domain.KindPolicyBlocked, Op: "limit_check", Reasons: p.Reasons}
	}

	unlock, err := o.lock(ctx, req.Account)
	if err != nil {
		return out, r.fail(err)
	}
	defer unlock()

	switch req.AccountKind {
	case domain.AccountModular:
		err = o.executeModular(ctx, r, p, out, unlock)
	default:
		err = o.executeEOA(ctx, r, p, out, unlock)
	}
	if err != nil {
		return out, r.fail(err)
	}
	r.to(domain.SwapStateConfirmed, "receipt status 1")
	return out, nil
}

// lock takes the account's submission lock. The returned func is idempotent.
func (o *Orchestrator) lock(ctx context.Context, account common.Address) (func(), error) {
	if o.deps.Locker == nil {
		return func() {}, nil
	}
	key := storage.AccountLockKey(o.cfg.ChainID, account.Hex())
	token := fmt.Sprintf("%d:%d", o.now().UnixNano(), o.cycle.Load())

	ok, err := o.deps.Locker.AcquireLock(ctx, key, token, o.cfg.LockTTL)
	if err != nil {
		return nil, domain.NewError(domain.KindAssemblyFailure, "lock", err)
	}
	if !ok {
		return nil, domain.NewError(domain.KindAssemblyFailure, "lock", storage.ErrLockHeld)
	}

	var released atomic.Bool
	return func() {
		if !released.CompareAndSwap(false, true) {
			return
		}
		// release even when ctx is already done
		if err := o.deps.Locker.ReleaseLock(context.WithoutCancel(ctx), key, token); err != nil {
			o.log.Warn("failed to release account lock", "key", key, "error", err)
		}
	}, nil
}
