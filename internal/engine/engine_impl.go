package engine

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/petrijr/expressflow/internal/idgen"
	"github.com/petrijr/expressflow/internal/persistence"
	"github.com/petrijr/expressflow/pkg/api"
)

// DefaultTaskTimeout bounds a single task invocation when neither the state
// nor the Config sets a timeout.
const DefaultTaskTimeout = 10 * time.Second

// DefaultMemoryExecutions is how many executions the in-memory engine keeps
// transition logs for.
const DefaultMemoryExecutions = 1024

// engineImpl is a synchronous, in-process interpreter of workflow definitions.
type engineImpl struct {
	registry *workflowRegistry
	events   persistence.EventStore
	observer api.Observer
	logger   *slog.Logger

	taskTimeout time.Duration
	newID       func() string
	now         func() time.Time
}

// Config describes how to construct an engine. Zero fields get defaults.
type Config struct {
	// Events receives every traversed edge. Defaults to a NoopEventStore.
	Events   persistence.EventStore
	Observer api.Observer
	// Logger is used for sink failures. Defaults to slog.Default().
	Logger *slog.Logger

	TaskTimeout time.Duration
	NewID       func() string
	Now         func() time.Time
}

// NewEngineWithConfig creates a new Engine using the given configuration.
func NewEngineWithConfig(cfg Config) api.Engine {
	e := &engineImpl{
		registry:    newWorkflowRegistry(),
		events:      cfg.Events,
		observer:    cfg.Observer,
		logger:      cfg.Logger,
		taskTimeout: cfg.TaskTimeout,
		newID:       cfg.NewID,
		now:         cfg.Now,
	}
	if e.events == nil {
		e.events = persistence.NoopEventStore{}
	}
	if e.observer == nil {
		e.observer = api.NoopObserver{}
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.taskTimeout <= 0 {
		e.taskTimeout = DefaultTaskTimeout
	}
	if e.newID == nil {
		e.newID = idgen.New
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// NewEngine returns an Engine logging transitions to events.
func NewEngine(events persistence.EventStore) api.Engine {
	return NewEngineWithConfig(Config{Events: events})
}

// NewInMemoryEngine returns an Engine that keeps the transition logs of the
// most recent executions in memory.
func NewInMemoryEngine() api.Engine {
	return NewEngine(persistence.NewMemoryEventStore(DefaultMemoryExecutions))
}

// NewSQLiteEngine returns an Engine logging transitions to db.
func NewSQLiteEngine(db *sql.DB) (api.Engine, error) {
	events, err := persistence.NewSQLiteEventStore(db)
	if err != nil {
		return nil, err
	}
	return NewEngine(events), nil
}

// NewRedisEngine returns an Engine logging transitions to Redis lists that
// expire ttl after their last append (never when ttl is zero).
func NewRedisEngine(client *redis.Client, prefix string, ttl time.Duration) api.Engine {
	return NewEngine(persistence.NewRedisEventStore(client, prefix, ttl))
}

func (e *engineImpl) RegisterWorkflow(def *api.WorkflowDefinition) error {
	return e.registry.Register(def)
}

func (e *engineImpl) Workflow(name string) (*api.WorkflowDefinition, error) {
	return e.registry.Get(name)
}

func (e *engineImpl) Run(ctx context.Context, name string, input api.Payload) (api.Outcome, error) {
	def, err := e.registry.Get(name)
	if err != nil {
		return api.Outcome{}, err
	}

	exec := &api.Execution{
		ID:        e.newID(),
		Workflow:  def.Name(),
		Payload:   clonePayload(input),
		StartedAt: e.now(),
	}
	return e.execute(ctx, def, exec), nil
}
