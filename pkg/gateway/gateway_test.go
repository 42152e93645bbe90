package gateway

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/petrijr/expressflow/internal/engine"
	"github.com/petrijr/expressflow/pkg/api"
	"github.com/petrijr/expressflow/pkg/statemachine"
)

func newServer(t *testing.T, opts ...Option) (*httptest.Server, *api.BasicMetrics) {
	t.Helper()

	metrics := &api.BasicMetrics{}
	e := engine.NewEngineWithConfig(engine.Config{Observer: metrics})
	def, err := statemachine.Default(50)
	require.NoError(t, err)
	require.NoError(t, e.RegisterWorkflow(def))

	mux := http.NewServeMux()
	New(e, statemachine.Name, opts...).Routes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, metrics
}

func post(t *testing.T, srv *httptest.Server, path, body string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Post(srv.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.String()
}

func TestGateway_AboveThreshold(t *testing.T) {
	srv, _ := newServer(t)

	resp, body := post(t, srv, DefaultPath, `{"value": 75}`)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	require.NotEmpty(t, resp.Header.Get(ExecutionIDHeader))
	require.JSONEq(t, `{"status":"SUCCEED","value":75}`, body)
}

func TestGateway_BelowThreshold(t *testing.T) {
	srv, _ := newServer(t)

	resp, body := post(t, srv, DefaultPath, `{"value": 30}`)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get(ExecutionIDHeader))
	require.JSONEq(t, `{"status":"FAILED","value":30,"error":"Failed","cause":"Number not greater than 50"}`, body)
}

func TestGateway_RejectsBeforeAnyState(t *testing.T) {
	cases := map[string]string{
		"empty":        ``,
		"whitespace":   "  \n",
		"invalid json": `{"value":`,
		"trailing":     `{"value": 75} {}`,
		"array":        `[75]`,
		"scalar":       `75`,
		"no value":     `{"other": 1}`,
		"null value":   `{"value": null}`,
		"empty value":  `{"value": ""}`,
	}
	for name, reqBody := range cases {
		t.Run(name, func(t *testing.T) {
			srv, metrics := newServer(t)

			resp, body := post(t, srv, DefaultPath, reqBody)

			require.Equal(t, http.StatusOK, resp.StatusCode)
			require.Empty(t, resp.Header.Get(ExecutionIDHeader))
			require.JSONEq(t, `{"status":"FAILED","error":"Failed","cause":"Number not greater than 50"}`, body)
			require.Zero(t, metrics.Snapshot().ExecutionsStarted, "no execution may start")
		})
	}
}

func TestGateway_FalsyValueReachesInvalidInputFail(t *testing.T) {
	srv, metrics := newServer(t)

	resp, body := post(t, srv, DefaultPath, `{"value": 0}`)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get(ExecutionIDHeader))
	require.JSONEq(t, `{"status":"FAILED","error":"Failed","cause":"Number not greater than 50"}`, body)
	snap := metrics.Snapshot()
	require.Equal(t, int64(1), snap.ExecutionsStarted)
	require.Equal(t, int64(1), snap.TasksCompleted, "only StepOne runs")
}

func TestGateway_BodyTooLarge(t *testing.T) {
	srv, metrics := newServer(t, WithMaxBodyBytes(16))

	resp, _ := post(t, srv, DefaultPath, `{"value": "`+strings.Repeat("x", 64)+`"}`)

	require.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	require.Zero(t, metrics.Snapshot().ExecutionsStarted)
}

func TestGateway_MethodNotAllowed(t *testing.T) {
	srv, _ := newServer(t)

	resp, err := http.Get(srv.URL + DefaultPath)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestGateway_CustomPathAndRejection(t *testing.T) {
	srv, _ := newServer(t,
		WithPath("/run"),
		WithRejection(api.FailState{Code: "BadRequest", Cause: "value is required"}),
	)

	resp, body := post(t, srv, "/run", `{}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"status":"FAILED","error":"BadRequest","cause":"value is required"}`, body)

	resp, _ = post(t, srv, DefaultPath, `{"value": 75}`)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGateway_UnknownWorkflow(t *testing.T) {
	mux := http.NewServeMux()
	New(engine.NewInMemoryEngine(), "missing").Routes(mux)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, body := post(t, srv, DefaultPath, `{"value": 75}`)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	require.Contains(t, body, `"status":"FAILED"`)
	require.Empty(t, resp.Header.Get(ExecutionIDHeader))
}

func TestGateway_LogsRejectionReason(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	srv, _ := newServer(t, WithLogger(logger))

	post(t, srv, DefaultPath, `{"other": 1}`)

	require.Contains(t, buf.String(), `"msg":"request_rejected"`)
	require.Contains(t, buf.String(), "invalid input: value: is required")
}

func TestHandler_Path(t *testing.T) {
	require.Equal(t, DefaultPath, New(nil, "wf").Path())
	require.Equal(t, "/x", New(nil, "wf", WithPath("/x")).Path())
}
