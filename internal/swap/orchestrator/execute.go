package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/vietddude/modswap/internal/core/domain"
	"github.com/vietddude/modswap/internal/infra/chain/evm"
	"github.com/vietddude/modswap/internal/infra/contracts"
	"github.com/vietddude/modswap/internal/swap/assembler"
	"github.com/vietddude/modswap/internal/swap/batch"
	"github.com/vietddude/modswap/internal/swap/metrics"
)

// ErrNoQuote is returned when a plain account swap has no quote to bound its output.
var ErrNoQuote = errors.New("no router quote to derive a minimum output")

// Outcome records how far an execution got.
type Outcome struct {
	CycleID uint64
	State   domain.SwapState
	Preview *Preview

	// Batch is set when approval and swap went out as one account call.
	Batch     []domain.BatchedCall
	Paymaster *domain.PaymasterParams

	// Approval is the standalone approval of a plain account, if one was sent.
	Approval   *domain.Submission
	Submission *domain.Submission
	Receipt    *domain.Receipt

	Transitions []domain.Transition
}

// executeModular sends the swap as a zkSync EIP-712 transaction from the
// account. An insufficient allowance is fixed inside the same transaction.
func (o *Orchestrator) executeModular(ctx context.Context, r *run, p *Preview, out *Outcome, unlock func()) error {
	req := p.Request

	owner, err := contracts.NewAccount(req.Account, o.deps.Node).Owner(ctx)
	if err != nil {
		return domain.NewError(domain.KindAssemblyFailure, "owner", err)
	}
	if signer := o.deps.Signer.Address(); owner != signer {
		return domain.NewError(domain.KindAssemblyFailure, "owner",
			fmt.Errorf("%w: owner %s, signer %s", ErrOwnerMismatch, owner.Hex(), signer.Hex()))
	}

	swapData, err := contracts.PackSwapModuleCall(req.Input, req.Output, req.AmountRaw, p.Path)
	if err != nil {
		return domain.NewError(domain.KindAssemblyFailure, "encode", err)
	}

	// The module spends the account's own balance; the envelope carries no value.
	to, data, value := o.cfg.SwapModule, swapData, new(big.Int)

	if !p.AllowanceSufficient {
		r.to(domain.SwapStateApproving, "allowance below amount")
		approve, err := o.deps.Allowances.BuildApprovalCall(req.Input, o.cfg.Router)
		if err != nil {
			return domain.NewError(domain.KindAssemblyFailure, "approve", err)
		}

		r.to(domain.SwapStateBatching, "approve and swap in one account call")
		calls := []domain.BatchedCall{
			approve,
			{IsDelegateCall: true, Target: o.cfg.SwapModule, Data: swapData, Value: new(big.Int)},
		}
		if err := batch.ValidateModuleTargets(calls, o.cfg.SwapModule); err != nil {
			return domain.NewError(domain.KindAssemblyFailure, "batch", err)
		}
		if data, err = batch.Encode(calls); err != nil {
			return domain.NewError(domain.KindAssemblyFailure, "batch", err)
		}
		to = req.Account
		out.Batch = calls
	}

	r.to(domain.SwapStateAssembling, string(p.PaymasterMode))
	pm, err := o.deps.Paymaster.Build(ctx, p.Path, o.cfg.Sponsor, p.PaymasterMode)
	if err != nil {
		return domain.NewError(domain.KindAssemblyFailure, "paymaster", err)
	}
	out.Paymaster = pm

	env, err := o.deps.Assembler.Assemble(ctx, req.Account, to, data, value, pm)
	if err != nil {
		return err
	}
	metrics.PaymasterTotal.WithLabelValues(string(p.PaymasterMode)).Inc()

	r.to(domain.SwapStateSigning, "")
	signed, err := assembler.Sign(env, o.deps.Signer)
	if err != nil {
		return err
	}
	raw, err := assembler.Serialize(signed)
	if err != nil {
		return domain.NewError(domain.KindAssemblyFailure, "serialize", err)
	}

	sub, err := o.submit(ctx, req.Account, signed.Nonce, domain.SubmissionSwap, p.PaymasterMode, raw)
	out.Submission = sub
	if err != nil {
		return err
	}
	r.to(domain.SwapStateSubmitted, sub.TxHash)
	unlock()

	out.Receipt, err = o.await(ctx, sub)
	return err
}

// executeEOA swaps through the router directly. Plain accounts cannot batch,
// so an approval goes out first and must confirm before the swap is built.
func (o *Orchestrator) executeEOA(ctx context.Context, r *run, p *Preview, out *Outcome, unlock func()) error {
	req := p.Request

	if signer := o.deps.Signer.Address(); signer != req.Account {
		return domain.NewError(domain.KindAssemblyFailure, "owner",
			fmt.Errorf("%w: account %s, signer %s", ErrOwnerMismatch, req.Account.Hex(), signer.Hex()))
	}
	if p.AmountOut == nil {
		return domain.NewError(domain.KindAssemblyFailure, "quote", ErrNoQuote)
	}
	minOut := MinAmountOut(p.AmountOut, req.SlippageBps)

	if !p.AllowanceSufficient {
		r.to(domain.SwapStateApproving, "standalone approval")
		call, err := o.deps.Allowances.BuildApprovalCall(req.Input, o.cfg.Router)
		if err != nil {
			return domain.NewError(domain.KindAssemblyFailure, "approve", err)
		}
		sub, err := o.sendEOA(ctx, req.Account, call.Target, call.Data, call.Value, domain.SubmissionApproval)
		out.Approval = sub
		if err != nil {
			return err
		}
		if _, err := o.await(ctx, sub); err != nil {
			return err
		}
	}

	r.to(domain.SwapStateAssembling, "router swap")
	swap, err := contracts.PackRouterSwap(req.Input, req.Output, req.AmountRaw, minOut, p.Path, req.To())
	if err != nil {
		return domain.NewError(domain.KindAssemblyFailure, "encode", err)
	}
	tx, chainID, err := o.deps.Assembler.AssembleEOA(ctx, req.Account, o.cfg.Router, swap.Data, swap.Value)
	if err != nil {
		return err
	}

	r.to(domain.SwapStateSigning, swap.Method)
	_, raw, err := assembler.SignEOA(tx, chainID, o.deps.Signer)
	if err != nil {
		return err
	}

	sub, err := o.submit(ctx, req.Account, tx.Nonce(), domain.SubmissionSwap, domain.PaymasterNone, raw)
	out.Submission = sub
	if err != nil {
		return err
	}
	r.to(domain.SwapStateSubmitted, sub.TxHash)
	unlock()

	out.Receipt, err = o.await(ctx, sub)
	return err
}

// sendEOA assembles, signs and submits one plain transaction.
func (o *Orchestrator) sendEOA(
	ctx context.Context,
	from, to common.Address,
	data []byte,
	value *big.Int,
	kind domain.SubmissionKind,
) (*domain.Submission, error) {
	tx, chainID, err := o.deps.Assembler.AssembleEOA(ctx, from, to, data, value)
	if err != nil {
		return nil, err
	}
	_, raw, err := assembler.SignEOA(tx, chainID, o.deps.Signer)
	if err != nil {
		return nil, err
	}
	return o.submit(ctx, from, tx.Nonce(), kind, domain.PaymasterNone, raw)
}

// submit hands raw to the node exactly once and journals the attempt.
func (o *Orchestrator) submit(
	ctx context.Context,
	account common.Address,
	nonce uint64,
	kind domain.SubmissionKind,
	mode domain.PaymasterMode,
	raw []byte,
) (*domain.Submission, error) {
	sub := &domain.Submission{
		ID:            uuid.NewString(),
		ChainID:       o.cfg.ChainID,
		Account:       account.Hex(),
		Nonce:         nonce,
		Kind:          kind,
		PaymasterMode: mode,
		Status:        domain.SubmissionPending,
		CreatedAt:     o.now(),
	}

	hash, err := o.deps.Node.SendRawTransaction(ctx, raw)
	if err != nil {
		sub.Status = domain.SubmissionRejected
		sub.Error = err.Error()
		o.journal(ctx, sub)
		metrics.SubmissionsTotal.WithLabelValues(string(kind), string(sub.Status)).Inc()
		return sub, &domain.SwapError{Kind: domain.KindSubmissionRejected, Op: "submit " + string(kind), Err: err}
	}

	sub.TxHash = hash.Hex()
	o.journal(ctx, sub)
	metrics.SubmissionsTotal.WithLabelValues(string(kind), string(sub.Status)).Inc()
	o.log.Info("transaction submitted",
		"kind", kind,
		"account", sub.Account,
		"nonce", nonce,
		"tx", sub.TxHash,
		"paymaster", mode,
	)
	return sub, nil
}

// await polls for the receipt of sub. A reverted receipt is KindExecutionReverted.
// A timeout leaves the submission pending: the transaction may still land.
func (o *Orchestrator) await(ctx context.Context, sub *domain.Submission) (*domain.Receipt, error) {
	wctx, cancel := context.WithTimeout(ctx, o.cfg.ReceiptTimeout)
	defer cancel()

	receipt, err := evm.WaitForReceipt(wctx, o.deps.Node, common.HexToHash(sub.TxHash), o.cfg.ReceiptPollInterval)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", sub.Kind, sub.TxHash, err)
	}

	sub.Status = domain.SubmissionConfirmed
	if !receipt.Succeeded() {
		sub.Status = domain.SubmissionReverted
		sub.Error = "execution reverted"
	}
	sub.BlockNumber = receipt.BlockNumber
	sub.UpdatedAt = o.now()

	if o.deps.Submissions != nil {
		err := o.deps.Submissions.UpdateStatus(context.WithoutCancel(ctx), sub.ID, sub.Status, sub.BlockNumber, sub.Error)
		if err != nil {
			o.log.Error("failed to journal receipt", "id", sub.ID, "tx", sub.TxHash, "error", err)
		}
	}
	metrics.SubmissionsTotal.WithLabelValues(string(sub.Kind), string(sub.Status)).Inc()

	if !receipt.Succeeded() {
		return receipt, &domain.SwapError{Kind: domain.KindExecutionReverted, Op: string(sub.Kind), TxHash: sub.TxHash}
	}
	return receipt, nil
}

// journal records sub. The transaction is already with the node, so a
// journal failure is logged and never fails the swap.
func (o *Orchestrator) journal(ctx context.Context, sub *domain.Submission) {
	if o.deps.Submissions == nil {
		return
	}
	cp := *sub
	if err := o.deps.Submissions.Create(context.WithoutCancel(ctx), &cp); err != nil {
		o.log.Error("failed to journal submission", "id", sub.ID, "tx", sub.TxHash, "error", err)
	}
}

// MinAmountOut lowers quote by slippageBps, rounding down.
func MinAmountOut(quote *big.Int, slippageBps uint32) *big.Int {
	v := new(big.Int).Mul(quote, big.NewInt(int64(10_000-slippageBps)))
	return v.Quo(v, big.NewInt(10_000))
}
