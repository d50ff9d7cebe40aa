package tx

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

// recordingStep appends its name to a shared trace on execute and rollback so
// tests can assert ordering.
type recordingStep struct {
	name        string
	trace       *[]string
	executeErr  error
	rollbackErr error
}

func (s *recordingStep) Name() string { return s.name }

func (s *recordingStep) Execute(_ context.Context) error {
	*s.trace = append(*s.trace, "execute:"+s.name)
	return s.executeErr
}

func (s *recordingStep) Rollback(_ context.Context) error {
	*s.trace = append(*s.trace, "rollback:"+s.name)
	return s.rollbackErr
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestSequential_Execute_RunsStepsInInsertionOrder(t *testing.T) {
	var trace []string
	seq := NewSequential(testLogger(),
		&recordingStep{name: "authorize", trace: &trace},
		&recordingStep{name: "place-order", trace: &trace},
		&recordingStep{name: "capture", trace: &trace},
	)

	err := seq.Execute(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, []string{"execute:authorize", "execute:place-order", "execute:capture"}, trace)
	assert.Equal(t, StatusCompleted, seq.Status())
}

func TestSequential_Execute_StopsAtFirstFailure(t *testing.T) {
	var trace []string
	boom := errors.New("provider unavailable")
	seq := NewSequential(testLogger(),
		&recordingStep{name: "one", trace: &trace},
		&recordingStep{name: "two", trace: &trace, executeErr: boom},
		&recordingStep{name: "three", trace: &trace},
	)

	err := seq.Execute(context.Background())

	assert.Error(t, err)
	assert.ErrorIs(t, err, boom)
	// "three" never ran
	assert.Equal(t, []string{"execute:one", "execute:two"}, trace)
	assert.Equal(t, StatusFailed, seq.Status())

	var stepErr *StepError
	assert.ErrorAs(t, err, &stepErr)
	assert.Equal(t, "two", stepErr.Step)
}

func TestSequential_Rollback_UnwindsCompletedPrefixInReverse(t *testing.T) {
	var trace []string
	seq := NewSequential(testLogger(),
		&recordingStep{name: "one", trace: &trace},
		&recordingStep{name: "two", trace: &trace},
		&recordingStep{name: "three", trace: &trace, executeErr: errors.New("boom")},
		&recordingStep{name: "four", trace: &trace},
	)

	_ = seq.Execute(context.Background())
	seq.Rollback(context.Background())

	// Only the two completed steps roll back, and in reverse order. The
	// failing step and everything after it are never touched.
	assert.Equal(t, []string{
		"execute:one", "execute:two", "execute:three",
		"rollback:two", "rollback:one",
	}, trace)
	assert.Equal(t, StatusRolledBack, seq.Status())
}

func TestSequential_Rollback_FailureDoesNotStopUnwind(t *testing.T) {
	var trace []string
	seq := NewSequential(testLogger(),
		&recordingStep{name: "one", trace: &trace},
		&recordingStep{name: "two", trace: &trace, rollbackErr: errors.New("void failed")},
		&recordingStep{name: "three", trace: &trace, executeErr: errors.New("boom")},
	)

	_ = seq.Execute(context.Background())
	seq.Rollback(context.Background())

	assert.Contains(t, trace, "rollback:two")
	assert.Contains(t, trace, "rollback:one")
	assert.Equal(t, StatusRolledBack, seq.Status())
}

func TestSequential_Rollback_BeforeExecuteIsNoOp(t *testing.T) {
	var trace []string
	seq := NewSequential(testLogger(),
		&recordingStep{name: "one", trace: &trace},
	)

	seq.Rollback(context.Background())

	assert.Empty(t, trace)
}

func TestSequential_Rollback_SurvivesCanceledCaller(t *testing.T) {
	rolledBack := false
	step := &funcStep{
		name:    "one",
		execute: func(context.Context) error { return nil },
		rollback: func(ctx context.Context) error {
			// The unwind context must outlive the caller's cancellation.
			assert.NoError(t, ctx.Err())
			rolledBack = true
			return nil
		},
	}

	seq := NewSequential(testLogger(), step)
	ctx, cancel := context.WithCancel(context.Background())
	_ = seq.Execute(ctx)
	cancel()
	seq.Rollback(ctx)

	assert.True(t, rolledBack)
}

type funcStep struct {
	name     string
	execute  func(context.Context) error
	rollback func(context.Context) error
}

func (s *funcStep) Name() string                      { return s.name }
func (s *funcStep) Execute(ctx context.Context) error { return s.execute(ctx) }
func (s *funcStep) Rollback(ctx context.Context) error {
	return s.rollback(ctx)
}

func TestSlot_SetGetClear(t *testing.T) {
	var slot Slot[string]

	_, ok := slot.Get()
	assert.False(t, ok)

	slot.Set("AUTH-123")
	v, ok := slot.Get()
	assert.True(t, ok)
	assert.Equal(t, "AUTH-123", v)

	slot.Clear()
	v, ok = slot.Get()
	assert.False(t, ok)
	assert.Empty(t, v)
}
