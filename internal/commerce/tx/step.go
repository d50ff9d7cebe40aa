// Package tx implements the compensating business transaction pipeline:
// a unit-of-work Step contract and a sequential runner that executes steps
// in order and unwinds the completed prefix in reverse on failure.
package tx

import "context"

// Step is one externally effectful unit of work (a gateway charge, a
// provisioning call, a storage write). Steps do not provide atomicity
// themselves; atomicity is approximated by the runner's ordered-rollback
// discipline.
type Step interface {
	// Name identifies the step in logs and failure reports.
	Name() string

	// Execute performs the external side effect. Steps are not expected to
	// retry internally; retries happen, if at all, at the whole-pipeline
	// level.
	Execute(ctx context.Context) error

	// Rollback is the best-effort compensating action. It must be a safe
	// no-op when Execute never ran or failed partway. Steps with no natural
	// inverse (append-only ledger writes) implement it as a documented no-op.
	Rollback(ctx context.Context) error
}

// StepError reports a failed pipeline step, carrying the originating cause.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return "transaction step " + e.Step + " failed: " + e.Err.Error()
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Slot is a single-assignment box used for inter-step data flow: a later
// step holds a reference to an earlier step's slot and reads it only at the
// moment it actually executes, never at construction time.
//
// Slots are written and read by steps of one sequential pipeline only, so no
// locking is needed.
type Slot[T any] struct {
	value T
	set   bool
}

// Set stores the value.
func (s *Slot[T]) Set(v T) {
	s.value = v
	s.set = true
}

// Get returns the stored value and whether one is currently set.
func (s *Slot[T]) Get() (T, bool) {
	return s.value, s.set
}

// Clear empties the slot. Rollback of a producing step clears its slot so a
// later read cannot observe a dead value, e.g. a voided authorization code.
func (s *Slot[T]) Clear() {
	var zero T
	s.value = zero
	s.set = false
}
