package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/vietddude/modswap/internal/core/domain"
)

// Resolver resolves pending submissions against the chain.
type Resolver interface {
	Reconcile(ctx context.Context) ([]*domain.Submission, error)
}

// Reconciler periodically settles submissions whose receipt was not awaited,
// such as ones left pending by a receipt timeout or a restart.
type Reconciler struct {
	resolver Resolver
	interval time.Duration
	log      *slog.Logger
}

// NewReconciler creates a new Reconciler worker. A non-positive interval
// disables it.
func NewReconciler(resolver Resolver, interval time.Duration) *Reconciler {
	return &Reconciler{
		resolver: resolver,
		interval: interval,
		log:      slog.Default().With("component", "reconciler"),
	}
}

// Start runs the reconcile loop until ctx is done.
func (r *Reconciler) Start(ctx context.Context) {
	if r.interval <= 0 {
		return
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	// Initial pass
	r.reconcile(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.reconcile(ctx)
		}
	}
}

func (r *Reconciler) reconcile(ctx context.Context) {
	resolved, err := r.resolver.Reconcile(ctx)
	if err != nil {
		r.log.Error("failed to reconcile submissions", "error", err)
		return
	}
	if len(resolved) > 0 {
		r.log.Info("reconciled submissions", "count", len(resolved))
	}
}
