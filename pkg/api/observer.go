package api

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Observer receives callbacks from the engine for logging and metrics.
//
// Implementations should be fast and non-blocking; heavy work should be done
// asynchronously so as not to delay execution.
type Observer interface {
	// OnExecutionStart is called once before the start state is entered.
	OnExecutionStart(ctx context.Context, exec *Execution)

	// OnExecutionSucceeded is called when a Succeed terminal is reached.
	OnExecutionSucceeded(ctx context.Context, exec *Execution, out Outcome)

	// OnExecutionFailed is called for Fail terminals and for aborted
	// executions. err is the fault for aborts and nil otherwise.
	OnExecutionFailed(ctx context.Context, exec *Execution, out Outcome, err error)

	// OnTaskStart is called before a task is invoked.
	OnTaskStart(ctx context.Context, exec *Execution, state string)

	// OnTaskCompleted is called after every invocation, with the fault if
	// there was one.
	OnTaskCompleted(ctx context.Context, exec *Execution, state string, res TaskResult, err error, duration time.Duration)

	// OnTransition is called for every edge taken.
	OnTransition(ctx context.Context, ev TransitionEvent)
}

// NoopObserver is an Observer that does nothing.
// It is used as the default when no observer is configured.
type NoopObserver struct{}

func (NoopObserver) OnExecutionStart(ctx context.Context, exec *Execution)                  {}
func (NoopObserver) OnExecutionSucceeded(ctx context.Context, exec *Execution, out Outcome) {}
func (NoopObserver) OnExecutionFailed(ctx context.Context, exec *Execution, out Outcome, err error) {
}
func (NoopObserver) OnTaskStart(ctx context.Context, exec *Execution, state string) {}
func (NoopObserver) OnTaskCompleted(ctx context.Context, exec *Execution, state string, res TaskResult, err error, d time.Duration) {
}
func (NoopObserver) OnTransition(ctx context.Context, ev TransitionEvent) {}

// CompositeObserver fans out events to multiple observers.
type CompositeObserver struct {
	observers []Observer
}

// NewCompositeObserver creates an Observer that forwards events to each
// non-nil observer in obs.
func NewCompositeObserver(obs ...Observer) Observer {
	filtered := make([]Observer, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	if len(filtered) == 0 {
		return NoopObserver{}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &CompositeObserver{observers: filtered}
}

func (c *CompositeObserver) OnExecutionStart(ctx context.Context, exec *Execution) {
	for _, o := range c.observers {
		o.OnExecutionStart(ctx, exec)
	}
}

func (c *CompositeObserver) OnExecutionSucceeded(ctx context.Context, exec *Execution, out Outcome) {
	for _, o := range c.observers {
		o.OnExecutionSucceeded(ctx, exec, out)
	}
}

func (c *CompositeObserver) OnExecutionFailed(ctx context.Context, exec *Execution, out Outcome, err error) {
	for _, o := range c.observers {
		o.OnExecutionFailed(ctx, exec, out, err)
	}
}

func (c *CompositeObserver) OnTaskStart(ctx context.Context, exec *Execution, state string) {
	for _, o := range c.observers {
		o.OnTaskStart(ctx, exec, state)
	}
}

func (c *CompositeObserver) OnTaskCompleted(ctx context.Context, exec *Execution, state string, res TaskResult, err error, d time.Duration) {
	for _, o := range c.observers {
		o.OnTaskCompleted(ctx, exec, state, res, err, d)
	}
}

func (c *CompositeObserver) OnTransition(ctx context.Context, ev TransitionEvent) {
	for _, o := range c.observers {
		o.OnTransition(ctx, ev)
	}
}

// LoggingObserver writes structured logs using log/slog.
type LoggingObserver struct {
	Logger *slog.Logger
}

// NewLoggingObserver creates an Observer that logs execution, task and
// transition events using the provided slog.Logger. If logger is nil,
// slog.Default() is used.
func NewLoggingObserver(logger *slog.Logger) Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{Logger: logger}
}

func (o *LoggingObserver) OnExecutionStart(ctx context.Context, exec *Execution) {
	o.Logger.InfoContext(ctx, "execution_start",
		slog.String("workflow", exec.Workflow),
		slog.String("execution_id", exec.ID),
	)
}

func (o *LoggingObserver) OnExecutionSucceeded(ctx context.Context, exec *Execution, out Outcome) {
	o.Logger.InfoContext(ctx, "execution_succeeded",
		slog.String("workflow", exec.Workflow),
		slog.String("execution_id", exec.ID),
		slog.String("state", out.State),
		slog.Int("steps", exec.Steps),
	)
}

func (o *LoggingObserver) OnExecutionFailed(ctx context.Context, exec *Execution, out Outcome, err error) {
	level := slog.LevelInfo
	if err != nil {
		level = slog.LevelError
	}
	o.Logger.Log(ctx, level, "execution_failed",
		slog.String("workflow", exec.Workflow),
		slog.String("execution_id", exec.ID),
		slog.String("state", out.State),
		slog.String("error", out.Error),
		slog.String("cause", out.Cause),
		slog.Any("fault", err),
	)
}

func (o *LoggingObserver) OnTaskStart(ctx context.Context, exec *Execution, state string) {
	o.Logger.DebugContext(ctx, "task_start",
		slog.String("workflow", exec.Workflow),
		slog.String("execution_id", exec.ID),
		slog.String("state", state),
	)
}

func (o *LoggingObserver) OnTaskCompleted(ctx context.Context, exec *Execution, state string, res TaskResult, err error, d time.Duration) {
	level := slog.LevelDebug
	attrs := []slog.Attr{
		slog.String("workflow", exec.Workflow),
		slog.String("execution_id", exec.ID),
		slog.String("state", state),
		slog.Duration("duration", d),
	}
	if err != nil {
		level = slog.LevelError
		attrs = append(attrs, slog.Any("error", err))
	} else {
		attrs = append(attrs, slog.String("status", res.Status.String()))
	}
	o.Logger.LogAttrs(ctx, level, "task_completed", attrs...)
}

func (o *LoggingObserver) OnTransition(ctx context.Context, ev TransitionEvent) {
	o.Logger.DebugContext(ctx, "transition",
		slog.String("workflow", ev.Workflow),
		slog.String("execution_id", ev.ExecutionID),
		slog.String("from", ev.FromState),
		slog.String("to", ev.ToState),
	)
}

// BasicMetrics collects simple counters and aggregate task durations.
// It implements Observer, and can be combined with LoggingObserver via
// NewCompositeObserver.
type BasicMetrics struct {
	NoopObserver

	executionsStarted   atomic.Int64
	executionsSucceeded atomic.Int64
	executionsFailed    atomic.Int64
	executionsAborted   atomic.Int64
	tasksCompleted      atomic.Int64
	taskFaults          atomic.Int64
	transitions         atomic.Int64
	totalTaskDuration   atomic.Int64 // nanoseconds
}

// BasicMetricsSnapshot is an immutable snapshot of BasicMetrics.
type BasicMetricsSnapshot struct {
	ExecutionsStarted   int64
	ExecutionsSucceeded int64
	ExecutionsFailed    int64
	PendingExecutions   int64

	// ExecutionsAborted counts the subset of failures caused by a fault,
	// timeout or cancellation rather than a Fail state.
	ExecutionsAborted int64

	TasksCompleted  int64
	TaskFaults      int64
	Transitions     int64
	AvgTaskDuration time.Duration
}

func (m *BasicMetrics) OnExecutionStart(ctx context.Context, exec *Execution) {
	m.executionsStarted.Add(1)
}

func (m *BasicMetrics) OnExecutionSucceeded(ctx context.Context, exec *Execution, out Outcome) {
	m.executionsSucceeded.Add(1)
}

func (m *BasicMetrics) OnExecutionFailed(ctx context.Context, exec *Execution, out Outcome, err error) {
	m.executionsFailed.Add(1)
	if err != nil {
		m.executionsAborted.Add(1)
	}
}

func (m *BasicMetrics) OnTaskCompleted(ctx context.Context, exec *Execution, state string, res TaskResult, err error, d time.Duration) {
	if err != nil {
		m.taskFaults.Add(1)
		return
	}
	// Only successful invocations count toward the average duration.
	m.tasksCompleted.Add(1)
	m.totalTaskDuration.Add(d.Nanoseconds())
}

func (m *BasicMetrics) OnTransition(ctx context.Context, ev TransitionEvent) {
	m.transitions.Add(1)
}

// Snapshot returns a snapshot of the current metrics.
func (m *BasicMetrics) Snapshot() BasicMetricsSnapshot {
	started := m.executionsStarted.Load()
	succeeded := m.executionsSucceeded.Load()
	failed := m.executionsFailed.Load()
	tasks := m.tasksCompleted.Load()
	totalNs := m.totalTaskDuration.Load()

	var avg time.Duration
	if tasks > 0 {
		avg = time.Duration(totalNs / tasks)
	}

	return BasicMetricsSnapshot{
		ExecutionsStarted:   started,
		ExecutionsSucceeded: succeeded,
		ExecutionsFailed:    failed,
		ExecutionsAborted:   m.executionsAborted.Load(),
		PendingExecutions:   started - succeeded - failed,
		TasksCompleted:      tasks,
		TaskFaults:          m.taskFaults.Load(),
		Transitions:         m.transitions.Load(),
		AvgTaskDuration:     avg,
	}
}
