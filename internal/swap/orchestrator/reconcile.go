package orchestrator

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"

	"github.com/vietddude/modswap/internal/core/domain"
	"github.com/vietddude/modswap/internal/swap/metrics"
)

// ErrNoJournal is returned by Reconcile when no submission repository is wired.
var ErrNoJournal = errors.New("no submission journal configured")

// Reconcile looks up the receipt of every pending submission on the chain and
// records the ones that have landed. Submissions whose receipt is still
// unknown are left pending. It returns the submissions it resolved.
func (o *Orchestrator) Reconcile(ctx context.Context) ([]*domain.Submission, error) {
	if o.deps.Submissions == nil {
		return nil, ErrNoJournal
	}
	pending, err := o.deps.Submissions.ListPending(ctx, o.cfg.ChainID)
	if err != nil {
		return nil, err
	}

	var resolved []*domain.Submission
	for _, sub := range pending {
		if sub.TxHash == "" {
			continue
		}
		receipt, err := o.deps.Node.TransactionReceipt(ctx, common.HexToHash(sub.TxHash))
		if err != nil {
			o.log.Warn("receipt lookup failed", "id", sub.ID, "tx", sub.TxHash, "error", err)
			continue
		}
		if receipt == nil {
			continue
		}

		sub.Status = domain.SubmissionConfirmed
		if !receipt.Succeeded() {
			sub.Status = domain.SubmissionReverted
			sub.Error = "execution reverted"
		}
		sub.BlockNumber = receipt.BlockNumber
		if err := o.deps.Submissions.UpdateStatus(ctx, sub.ID, sub.Status, sub.BlockNumber, sub.Error); err != nil {
			return resolved, err
		}
		metrics.SubmissionsTotal.WithLabelValues(string(sub.Kind), string(sub.Status)).Inc()
		o.log.Info("submission reconciled", "id", sub.ID, "tx", sub.TxHash, "status", sub.Status)
		resolved = append(resolved, sub)
	}
	return resolved, nil
}
