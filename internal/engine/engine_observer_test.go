package engine

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/petrijr/expressflow/internal/tracing"
	"github.com/petrijr/expressflow/pkg/api"
	"github.com/petrijr/expressflow/pkg/statemachine"
)

func TestObserver_BasicMetrics(t *testing.T) {
	metrics := &api.BasicMetrics{}
	h := newReferenceHarness(t, Config{Observer: metrics}, statemachine.Tasks{})
	ctx := context.Background()

	h.run(t, ctx, api.Payload{"value": 75.0})
	h.run(t, ctx, api.Payload{"value": 30.0})

	snap := metrics.Snapshot()
	require.Equal(t, int64(2), snap.ExecutionsStarted)
	require.Equal(t, int64(1), snap.ExecutionsSucceeded)
	require.Equal(t, int64(1), snap.ExecutionsFailed)
	require.Equal(t, int64(0), snap.ExecutionsAborted)
	require.Equal(t, int64(0), snap.PendingExecutions)
	require.Equal(t, int64(5), snap.TasksCompleted)
	require.Equal(t, int64(0), snap.TaskFaults)
	require.Equal(t, int64(6+5), snap.Transitions)
}

func TestConcurrentExecutionsAreIndependent(t *testing.T) {
	h := newReferenceHarness(t, Config{}, statemachine.Tasks{})
	ctx := context.Background()

	const n = 64
	inputs := []float64{75, 30, 50, 49}
	outs := make([]api.Outcome, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := h.engine.Run(ctx, statemachine.Name, api.Payload{"value": inputs[i%len(inputs)]})
			if err == nil {
				outs[i] = out
			}
		}(i)
	}
	wg.Wait()

	ids := make(map[string]bool, n)
	for i, out := range outs {
		require.NotEmpty(t, out.ExecutionID, "run %d", i)
		require.False(t, ids[out.ExecutionID], "execution ids must be unique")
		ids[out.ExecutionID] = true

		want := outs[i%len(inputs)]
		out.ExecutionID, want.ExecutionID = "", ""
		require.Equal(t, want, out, "run %d diverged from identical input", i)
	}
	require.True(t, outs[0].Succeeded())
	require.False(t, outs[1].Succeeded())
	require.True(t, outs[2].Succeeded())
	require.False(t, outs[3].Succeeded())
}

func TestTracing_SpansPerExecutionAndTask(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	shutdown, err := tracing.InitWithExporter("expressflow-test", "test", exporter)
	require.NoError(t, err)
	t.Cleanup(func() { _ = shutdown(context.Background()) })

	h := newReferenceHarness(t, Config{}, statemachine.Tasks{})
	h.run(t, context.Background(), api.Payload{"value": 75.0})

	var executions, tasks int
	for _, span := range exporter.GetSpans() {
		switch span.Name {
		case "expressflow.execution":
			executions++
		case "expressflow.task":
			tasks++
		}
	}
	require.Equal(t, 1, executions)
	require.Equal(t, 3, tasks)
}
