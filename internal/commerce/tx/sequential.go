package tx

import (
	"context"
	"log/slog"
)

// Status tracks where a sequential transaction is in its lifecycle.
type Status string

const (
	StatusPending     Status = "PENDING"
	StatusExecuting   Status = "EXECUTING"
	StatusCompleted   Status = "COMPLETED"
	StatusFailed      Status = "FAILED"
	StatusRollingBack Status = "ROLLING_BACK"
	StatusRolledBack  Status = "ROLLED_BACK"
)

// Sequential composes an ordered list of steps into one logical transaction.
// Steps execute strictly in insertion order; rollback proceeds in strict
// reverse order and only over the steps whose Execute previously succeeded,
// tracked as an explicit completed-steps list rather than re-derived state.
//
// Execute does NOT auto-rollback on failure: the caller decides whether to
// retry first, then invokes Rollback explicitly.
//
// Fatal process errors are panics here; the runner installs no recover, so a
// panic propagates immediately and abandons any further rollback.
type Sequential struct {
	steps     []Step
	completed []Step
	status    Status
	logger    *slog.Logger
}

// NewSequential builds a transaction over the given steps.
func NewSequential(logger *slog.Logger, steps ...Step) *Sequential {
	return &Sequential{
		steps:  steps,
		status: StatusPending,
		logger: logger,
	}
}

// Status returns the transaction's current lifecycle state.
func (t *Sequential) Status() Status {
	return t.status
}

// Execute runs the steps in order. On each success the step is appended to
// the completed list; on the first failure iteration stops and the failure
// surfaces wrapped in a StepError. Steps after the failing one are never
// touched.
func (t *Sequential) Execute(ctx context.Context) error {
	t.status = StatusExecuting

	for _, step := range t.steps {
		t.logger.Debug("executing transaction step", "step", step.Name())

		if err := step.Execute(ctx); err != nil {
			t.status = StatusFailed
			t.logger.Error("transaction step failed", "step", step.Name(), "error", err)
			return &StepError{Step: step.Name(), Err: err}
		}

		t.completed = append(t.completed, step)
	}

	t.status = StatusCompleted
	return nil
}

// Rollback unwinds the completed steps in reverse order. A failing rollback
// is logged and does not stop the unwind of the remaining steps; it is never
// surfaced to the caller so it cannot mask the error that triggered the
// rollback.
//
// The unwind runs on a context detached from the caller's cancellation:
// compensation must not be abandoned because the request that needed it was
// already given up on.
func (t *Sequential) Rollback(ctx context.Context) {
	t.status = StatusRollingBack
	unwindCtx := context.WithoutCancel(ctx)

	for i := len(t.completed) - 1; i >= 0; i-- {
		step := t.completed[i]
		t.logger.Debug("rolling back transaction step", "step", step.Name())

		if err := step.Rollback(unwindCtx); err != nil {
			t.logger.Error("transaction step rollback failed, continuing unwind",
				"step", step.Name(), "error", err)
		}
	}

	t.completed = nil
	t.status = StatusRolledBack
}
