package expressflow

import (
	"context"
	"database/sql"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/petrijr/expressflow/internal/engine"
	"github.com/petrijr/expressflow/internal/persistence"
	"github.com/petrijr/expressflow/pkg/api"
	"github.com/petrijr/expressflow/pkg/gateway"
)

// Re-export key types so users don't need to dig into pkg/api.

type (
	Engine             = api.Engine
	EngineConfig       = engine.Config
	WorkflowDefinition = api.WorkflowDefinition
	Execution          = api.Execution
	Payload            = api.Payload
	Status             = api.Status
	TaskResult         = api.TaskResult
	Invoker            = api.Invoker
	InvokerFunc        = api.InvokerFunc
	OutputExtractor    = api.OutputExtractor
	Outcome            = api.Outcome
	OutcomeStatus      = api.OutcomeStatus

	State        = api.State
	TaskState    = api.TaskState
	ChoiceState  = api.ChoiceState
	ChoiceRule   = api.ChoiceRule
	SucceedState = api.SucceedState
	FailState    = api.FailState

	TransitionEvent = api.TransitionEvent
	EventSink       = persistence.EventStore

	ValidationError = api.ValidationError
	InvocationError = api.InvocationError
	DefinitionError = api.DefinitionError

	Observer             = api.Observer
	LoggingObserver      = api.LoggingObserver
	BasicMetrics         = api.BasicMetrics
	BasicMetricsSnapshot = api.BasicMetricsSnapshot
	CompositeObserver    = api.CompositeObserver
	NoopObserver         = api.NoopObserver

	Gateway       = gateway.Handler
	GatewayOption = gateway.Option
)

// Re-export common helpers.

var (
	NewWorkflowDefinition  = api.NewWorkflowDefinition
	MustWorkflowDefinition = api.MustWorkflowDefinition
	NextState              = api.NextState
	Succeeded              = api.Succeeded
	Failed                 = api.Failed
	ResultPayload          = api.ResultPayload
	NewLoggingObserver     = api.NewLoggingObserver
	NewCompositeObserver   = api.NewCompositeObserver

	ErrWorkflowNotFound = api.ErrWorkflowNotFound
	ErrWorkflowExists   = api.ErrWorkflowExists
)

// Re-export status values for convenience.

const (
	StatusSucceeded = api.StatusSucceeded
	StatusFailed    = api.StatusFailed

	OutcomeSucceed = api.OutcomeSucceed
	OutcomeFailed  = api.OutcomeFailed
)

// Engine constructors
// These wrap the internal/engine package so external callers
// never need to import internal packages.

// NewEngine returns an Engine logging every transition to sink.
func NewEngine(sink EventSink) Engine {
	return engine.NewEngine(sink)
}

// NewEngineWithConfig returns an Engine built from cfg.
func NewEngineWithConfig(cfg EngineConfig) Engine {
	return engine.NewEngineWithConfig(cfg)
}

// NewInMemoryEngine returns an Engine keeping recent transition logs in memory.
func NewInMemoryEngine() Engine {
	return engine.NewInMemoryEngine()
}

// NewSQLiteEngine returns an Engine logging transitions to a SQLite database.
func NewSQLiteEngine(db *sql.DB) (Engine, error) {
	return engine.NewSQLiteEngine(db)
}

// NewRedisEngine returns an Engine logging transitions to Redis.
func NewRedisEngine(client *redis.Client, prefix string, ttl time.Duration) Engine {
	return engine.NewRedisEngine(client, prefix, ttl)
}

// Event sink constructors.

// NewMemoryEventSink keeps the logs of the last maxExecutions executions
// (all of them when maxExecutions <= 0).
func NewMemoryEventSink(maxExecutions int) *persistence.MemoryEventStore {
	return persistence.NewMemoryEventStore(maxExecutions)
}

// NewSQLiteEventSink creates the transition_events table in db if needed.
func NewSQLiteEventSink(db *sql.DB) (*persistence.SQLiteEventStore, error) {
	return persistence.NewSQLiteEventStore(db)
}

// NewRedisEventSink stores each execution's log as a Redis list.
func NewRedisEventSink(client *redis.Client, prefix string, ttl time.Duration) *persistence.RedisEventStore {
	return persistence.NewRedisEventStore(client, prefix, ttl)
}

// Convenience helpers that just forward to the underlying Engine.

// Run executes a registered workflow synchronously for the given business
// value.
func Run(ctx context.Context, eng Engine, name string, value any) (Outcome, error) {
	return eng.Run(ctx, name, Payload{api.ValueKey: value})
}

// NewGateway returns an HTTP handler starting one execution of workflow per
// request.
func NewGateway(eng Engine, workflow string, opts ...GatewayOption) *Gateway {
	return gateway.New(eng, workflow, opts...)
}
