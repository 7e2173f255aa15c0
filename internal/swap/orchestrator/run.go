package orchestrator

import (
	"strings"
	"time"

	"github.com/vietddude/modswap/internal/core/domain"
	"github.com/vietddude/modswap/internal/swap/metrics"
)

// run tracks the state of one cycle. It is owned by a single goroutine.
type run struct {
	o           *Orchestrator
	id          uint64
	kind        domain.AccountKind
	state       domain.SwapState
	started     time.Time
	transitions []domain.Transition
}

func (o *Orchestrator) newRun(id uint64, kind domain.AccountKind) *run {
	return &run{
		o:       o,
		id:      id,
		kind:    kind,
		state:   domain.SwapStateIdle,
		started: o.now(),
	}
}

// to moves the cycle to next. Transitions outside domain.ValidTransitions are
// logged and dropped.
func (r *run) to(next domain.SwapState, reason string) {
	if !domain.CanTransition(r.state, next) {
		r.o.log.Error("dropping swap transition",
			"cycle", r.id,
			"from", r.state,
			"to", next,
			"error", domain.ErrInvalidTransition,
		)
		return
	}

	t := domain.Transition{From: r.state, To: next, Reason: reason, Timestamp: r.o.now()}
	r.transitions = append(r.transitions, t)
	r.state = next

	metrics.StateTransitions.WithLabelValues(string(t.From), string(t.To)).Inc()
	r.o.log.Debug("swap state changed",
		"cycle", r.id,
		"from", t.From,
		"to", t.To,
		"reason", reason,
	)
	if r.o.observer != nil {
		r.o.observer(r.id, t)
	}

	if next.Terminal() {
		metrics.SwapsTotal.WithLabelValues(string(r.kind), string(next)).Inc()
		metrics.CycleDuration.WithLabelValues(string(next)).Observe(t.Timestamp.Sub(r.started).Seconds())
	}
}

// fail ends the cycle in Failed and returns err unchanged.
func (r *run) fail(err error) error {
	kind := domain.KindOf(err)
	metrics.ErrorsTotal.WithLabelValues(kind.String()).Inc()
	if !r.state.Terminal() {
		r.to(domain.SwapStateFailed, err.Error())
	}
	r.o.log.Warn("swap failed",
		"cycle", r.id,
		"kind", kind,
		"retry_safe", kind.RetrySafe(),
		"error", err,
	)
	return err
}

func (r *run) block(reasons []domain.BlockReason) {
	parts := make([]string, len(reasons))
	for i, reason := range reasons {
		metrics.BlockedTotal.WithLabelValues(string(reason)).Inc()
		parts[i] = string(reason)
	}
	r.to(domain.SwapStateBlocked, strings.Join(parts, ","))
	r.o.log.Info("swap blocked by policy", "cycle", r.id, "reasons", parts)
}

func (r *run) history() []domain.Transition {
	out := make([]domain.Transition, len(r.transitions))
	copy(out, r.transitions)
	return out
}
