// Package gateway exposes a workflow over HTTP as a synchronous call: the
// request body becomes the execution input and the response is written once
// the execution reaches a terminal state.
package gateway

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/petrijr/expressflow/internal/tracing"
	"github.com/petrijr/expressflow/pkg/api"
	"github.com/petrijr/expressflow/pkg/statemachine"
)

const (
	// DefaultPath is the route the gateway registers itself under.
	DefaultPath = "/start-state-machine"
	// DefaultMaxBodyBytes caps the request body.
	DefaultMaxBodyBytes int64 = 1 << 20

	// ExecutionIDHeader carries the id of the execution that produced the
	// response.
	ExecutionIDHeader = "X-Execution-Id"
)

// Handler starts an execution of one workflow per request.
type Handler struct {
	engine       api.Engine
	workflow     string
	rejection    api.FailState
	maxBodyBytes int64
	path         string
	logger       *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithRejection sets the Fail metadata returned for requests rejected before
// an execution starts. It defaults to the example state machine's invalid
// input Fail state.
func WithRejection(fail api.FailState) Option {
	return func(h *Handler) { h.rejection = fail }
}

// WithMaxBodyBytes caps the request body size; n <= 0 keeps the default.
func WithMaxBodyBytes(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxBodyBytes = n
		}
	}
}

// WithPath changes the route registered by Routes.
func WithPath(path string) Option {
	return func(h *Handler) {
		if path != "" {
			h.path = path
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// New returns a Handler running workflow on engine.
func New(engine api.Engine, workflow string, opts ...Option) *Handler {
	h := &Handler{
		engine:       engine,
		workflow:     workflow,
		rejection:    statemachine.Rejection(nil),
		maxBodyBytes: DefaultMaxBodyBytes,
		path:         DefaultPath,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Path returns the route the handler is served under.
func (h *Handler) Path() string { return h.path }

// Routes registers the handler on mux for POST requests.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.Handle(http.MethodPost+" "+h.path, h)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.StartServerSpan(r.Context(), "expressflow.gateway",
		"http.method", r.Method,
		"http.route", h.path,
		"workflow", h.workflow,
	)
	start := time.Now()

	value, err := h.readValue(w, r)
	if err != nil {
		h.logger.InfoContext(ctx, "request_rejected",
			slog.String("workflow", h.workflow),
			slog.Any("reason", err),
		)
		code := http.StatusOK
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			code = http.StatusRequestEntityTooLarge
		}
		writeJSON(w, code, api.Rejected(h.rejection))
		span.SetAttributes("outcome", "rejected")
		span.End(nil)
		return
	}

	out, err := h.engine.Run(ctx, h.workflow, api.Payload{api.ValueKey: value})
	if err != nil {
		h.logger.ErrorContext(ctx, "workflow_unavailable",
			slog.String("workflow", h.workflow),
			slog.Any("error", err),
		)
		writeJSON(w, http.StatusInternalServerError, api.Outcome{
			Status: api.OutcomeFailed,
			Error:  api.ErrorRuntime,
			Cause:  "workflow unavailable",
		})
		span.End(err)
		return
	}

	w.Header().Set(ExecutionIDHeader, out.ExecutionID)
	writeJSON(w, http.StatusOK, out)

	h.logger.InfoContext(ctx, "execution_completed",
		slog.String("workflow", h.workflow),
		slog.String("execution_id", out.ExecutionID),
		slog.String("status", string(out.Status)),
		slog.String("state", out.State),
		slog.Duration("duration", time.Since(start)),
	)
	span.SetAttributes("execution_id", out.ExecutionID, "outcome", string(out.Status))
	span.End(nil)
}

// readValue extracts the required "value" field from the request body. Every
// error it returns is either a *api.ValidationError or wraps an
// *http.MaxBytesError.
func (h *Handler) readValue(w http.ResponseWriter, r *http.Request) (any, error) {
	if r.Body == nil {
		return nil, &api.ValidationError{Field: "body", Reason: "request body is missing"}
	}
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, err
		}
		return nil, &api.ValidationError{Field: "body", Reason: "reading request body: " + err.Error()}
	}
	if strings.TrimSpace(string(raw)) == "" {
		return nil, &api.ValidationError{Field: "body", Reason: "request body is missing"}
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, &api.ValidationError{Field: "body", Reason: "malformed JSON: " + err.Error()}
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, &api.ValidationError{Field: "body", Reason: "request body must be a JSON object"}
	}

	v, ok := api.Payload(obj).Value()
	if !ok || v == "" {
		return nil, &api.ValidationError{Field: api.ValueKey, Reason: "is required"}
	}
	return v, nil
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}
