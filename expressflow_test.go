package expressflow_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/petrijr/expressflow"
	"github.com/petrijr/expressflow/internal/testutil"
	"github.com/petrijr/expressflow/pkg/statemachine"
)

func TestFacade_SQLiteSinkRecordsExecution(t *testing.T) {
	ctx := context.Background()
	sink, err := expressflow.NewSQLiteEventSink(testutil.OpenSQLite(t))
	require.NoError(t, err)

	metrics := &expressflow.BasicMetrics{}
	eng := expressflow.NewEngineWithConfig(expressflow.EngineConfig{Events: sink, Observer: metrics})
	def, err := statemachine.Default(50)
	require.NoError(t, err)
	require.NoError(t, eng.RegisterWorkflow(def))

	out, err := expressflow.Run(ctx, eng, statemachine.Name, 75.0)
	require.NoError(t, err)
	require.True(t, out.Succeeded())

	evs, err := sink.ListEvents(ctx, out.ExecutionID)
	require.NoError(t, err)
	require.Len(t, evs, 6)
	require.Equal(t, int64(1), metrics.Snapshot().ExecutionsSucceeded)
}

func TestFacade_Gateway(t *testing.T) {
	eng := expressflow.NewInMemoryEngine()
	def, err := statemachine.Default(50)
	require.NoError(t, err)
	require.NoError(t, eng.RegisterWorkflow(def))

	mux := http.NewServeMux()
	expressflow.NewGateway(eng, statemachine.Name).Routes(mux)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/start-state-machine", "application/json", strings.NewReader(`{"value":75}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestFacade_UnknownWorkflow(t *testing.T) {
	_, err := expressflow.Run(context.Background(), expressflow.NewInMemoryEngine(), "nope", 1)
	require.ErrorIs(t, err, expressflow.ErrWorkflowNotFound)
}
