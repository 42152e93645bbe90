package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/petrijr/expressflow/internal/testutil"
	"github.com/petrijr/expressflow/pkg/api"
	"github.com/petrijr/expressflow/pkg/statemachine"
)

func TestReferenceChain_AboveThresholdSucceeds(t *testing.T) {
	h := newReferenceHarness(t, Config{}, statemachine.Tasks{})

	out := h.run(t, context.Background(), api.Payload{"value": 75.0})

	require.Equal(t, api.OutcomeSucceed, out.Status)
	require.Equal(t, 75.0, out.Value)
	require.Empty(t, out.Error)
	require.Equal(t, statemachine.SucceedState, out.State)
	require.NotEmpty(t, out.ExecutionID)
	require.Equal(t, [3]int64{1, 1, 1}, h.calls())
}

func TestReferenceChain_BelowThresholdFails(t *testing.T) {
	h := newReferenceHarness(t, Config{}, statemachine.Tasks{})

	out := h.run(t, context.Background(), api.Payload{"value": 30.0})

	require.Equal(t, api.OutcomeFailed, out.Status)
	require.Equal(t, 30.0, out.Value)
	require.Equal(t, statemachine.FailCode, out.Error)
	require.Equal(t, statemachine.DefaultCause, out.Cause)
	require.Equal(t, statemachine.FailState, out.State)
	require.Equal(t, [3]int64{1, 1, 0}, h.calls(), "StepThree must not run")
}

func TestReferenceChain_MissingValueFailsEarly(t *testing.T) {
	for name, input := range map[string]api.Payload{
		"nil":   nil,
		"empty": {},
		"null":  {"value": nil},
		"blank": {"value": ""},
	} {
		t.Run(name, func(t *testing.T) {
			h := newReferenceHarness(t, Config{}, statemachine.Tasks{})

			out := h.run(t, context.Background(), input)

			require.Equal(t, api.OutcomeFailed, out.Status)
			require.Nil(t, out.Value)
			require.Equal(t, statemachine.FailCode, out.Error)
			require.Equal(t, statemachine.InvalidInputFail, out.State)
			require.Equal(t, [3]int64{1, 0, 0}, h.calls(), "StepTwo and StepThree must not run")
		})
	}
}

func TestRun_DoesNotMutateInput(t *testing.T) {
	h := newReferenceHarness(t, Config{}, statemachine.Tasks{})
	input := api.Payload{"value": 75.0}

	h.run(t, context.Background(), input)
	require.Equal(t, api.Payload{"value": 75.0}, input)
}

func TestRun_UnknownWorkflow(t *testing.T) {
	e := NewInMemoryEngine()
	_, err := e.Run(context.Background(), "nope", api.Payload{"value": 1.0})
	require.ErrorIs(t, err, api.ErrWorkflowNotFound)
}

func TestRegisterWorkflow_Duplicate(t *testing.T) {
	e := NewInMemoryEngine()
	def, err := statemachine.Default(50)
	require.NoError(t, err)

	require.NoError(t, e.RegisterWorkflow(def))
	require.ErrorIs(t, e.RegisterWorkflow(def), api.ErrWorkflowExists)
	require.Error(t, e.RegisterWorkflow(nil))

	got, err := e.Workflow(statemachine.Name)
	require.NoError(t, err)
	require.Same(t, def, got)

	_, err = e.Workflow("missing")
	require.ErrorIs(t, err, api.ErrWorkflowNotFound)
}

func TestConfig_DeterministicIDs(t *testing.T) {
	n := 0
	h := newReferenceHarness(t, Config{NewID: func() string {
		n++
		return "exec-" + string(rune('0'+n))
	}}, statemachine.Tasks{})

	require.Equal(t, "exec-1", h.run(t, context.Background(), api.Payload{"value": 75.0}).ExecutionID)
	require.Equal(t, "exec-2", h.run(t, context.Background(), api.Payload{"value": 30.0}).ExecutionID)
}

func TestNewSQLiteEngine_Runs(t *testing.T) {
	e, err := NewSQLiteEngine(testutil.OpenSQLite(t))
	require.NoError(t, err)
	def, err := statemachine.Default(50)
	require.NoError(t, err)
	require.NoError(t, e.RegisterWorkflow(def))

	out, err := e.Run(context.Background(), statemachine.Name, api.Payload{"value": 75.0})
	require.NoError(t, err)
	require.True(t, out.Succeeded())
}
