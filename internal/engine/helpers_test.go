package engine

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/petrijr/expressflow/internal/persistence"
	"github.com/petrijr/expressflow/pkg/api"
	"github.com/petrijr/expressflow/pkg/statemachine"
	"github.com/petrijr/expressflow/pkg/tasks"
)

// countingInvoker counts invocations of the wrapped invoker.
type countingInvoker struct {
	inner api.Invoker
	calls atomic.Int64
}

func (c *countingInvoker) Invoke(ctx context.Context, in api.Payload) (api.TaskResult, error) {
	c.calls.Add(1)
	return c.inner.Invoke(ctx, in)
}

func counting(inv api.Invoker) *countingInvoker {
	return &countingInvoker{inner: inv}
}

// referenceHarness is the example state machine with counted tasks.
type referenceHarness struct {
	engine api.Engine
	events *persistence.MemoryEventStore
	one    *countingInvoker
	two    *countingInvoker
	three  *countingInvoker
}

func newReferenceHarness(t *testing.T, cfg Config, overrides statemachine.Tasks) *referenceHarness {
	t.Helper()

	h := &referenceHarness{
		events: persistence.NewMemoryEventStore(0),
		one:    counting(tasks.ValidateValue()),
		two:    counting(tasks.ThresholdCheck(tasks.DefaultThreshold)),
		three:  counting(tasks.Finalize()),
	}
	if overrides.StepOne != nil {
		h.one = counting(overrides.StepOne)
	}
	if overrides.StepTwo != nil {
		h.two = counting(overrides.StepTwo)
	}
	if overrides.StepThree != nil {
		h.three = counting(overrides.StepThree)
	}

	def, err := statemachine.New(statemachine.Tasks{StepOne: h.one, StepTwo: h.two, StepThree: h.three})
	require.NoError(t, err)

	if cfg.Events == nil {
		cfg.Events = h.events
	}
	h.engine = NewEngineWithConfig(cfg)
	require.NoError(t, h.engine.RegisterWorkflow(def))
	return h
}

func (h *referenceHarness) run(t *testing.T, ctx context.Context, input api.Payload) api.Outcome {
	t.Helper()
	out, err := h.engine.Run(ctx, statemachine.Name, input)
	require.NoError(t, err)
	return out
}

func (h *referenceHarness) calls() [3]int64 {
	return [3]int64{h.one.calls.Load(), h.two.calls.Load(), h.three.calls.Load()}
}

func edges(evs []api.TransitionEvent) [][2]string {
	out := make([][2]string, 0, len(evs))
	for _, ev := range evs {
		out = append(out, [2]string{ev.FromState, ev.ToState})
	}
	return out
}
