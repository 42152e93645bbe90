// Package app wires configuration, logging, tracing, the event sink, the
// engine and the HTTP gateway into a runnable server.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/redis/go-redis/v9"
	_ "modernc.org/sqlite"

	"github.com/petrijr/expressflow/internal/config"
	"github.com/petrijr/expressflow/internal/engine"
	"github.com/petrijr/expressflow/internal/logging"
	"github.com/petrijr/expressflow/internal/persistence"
	"github.com/petrijr/expressflow/internal/tracing"
	"github.com/petrijr/expressflow/pkg/api"
	"github.com/petrijr/expressflow/pkg/gateway"
	"github.com/petrijr/expressflow/pkg/statemachine"
)

// Version is reported on traces.
var Version = "dev"

type App struct {
	cfg     config.Config
	logger  *slog.Logger
	engine  api.Engine
	handler http.Handler
	server  *http.Server
	cleanup []func(context.Context) error
}

// New builds the application. The logger is created from cfg when nil.
func New(cfg config.Config, logger *slog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.New(cfg.LogLevel, cfg.LogFormat)
	}
	a := &App{cfg: cfg, logger: logger}

	shutdownTracing, err := tracing.Init("expressflow", Version, cfg.TraceOutput)
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	a.cleanup = append(a.cleanup, shutdownTracing)

	events, err := a.buildEventStore()
	if err != nil {
		a.close(context.Background())
		return nil, err
	}

	def, err := statemachine.Default(cfg.Threshold,
		statemachine.WithInvalidInputCause(cfg.InvalidInputCause),
		statemachine.WithBelowThresholdCause(cfg.BelowThresholdCause),
		statemachine.WithTaskLogging(logger),
	)
	if err != nil {
		a.close(context.Background())
		return nil, err
	}

	a.engine = engine.NewEngineWithConfig(engine.Config{
		Events:      events,
		Observer:    api.NewLoggingObserver(logger),
		Logger:      logger,
		TaskTimeout: cfg.TaskTimeout,
	})
	if err := a.engine.RegisterWorkflow(def); err != nil {
		a.close(context.Background())
		return nil, err
	}

	mux := http.NewServeMux()
	gateway.New(a.engine, def.Name(),
		gateway.WithPath(cfg.RoutePath),
		gateway.WithMaxBodyBytes(cfg.MaxBodyBytes),
		gateway.WithRejection(statemachine.Rejection(def)),
		gateway.WithLogger(logger),
	).Routes(mux)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	a.handler = a.logRequests(mux)
	a.server = &http.Server{
		Addr:    cfg.Addr,
		Handler: a.handler,
	}
	return a, nil
}

func (a *App) buildEventStore() (persistence.EventStore, error) {
	switch a.cfg.EventSink {
	case config.SinkNone:
		return persistence.NoopEventStore{}, nil
	case config.SinkMemory:
		return persistence.NewMemoryEventStore(a.cfg.MemoryExecutions), nil
	case config.SinkSQLite:
		db, err := sql.Open("sqlite", a.cfg.SQLiteDSN)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		a.cleanup = append(a.cleanup, func(context.Context) error { return db.Close() })
		store, err := persistence.NewSQLiteEventStore(db)
		if err != nil {
			return nil, fmt.Errorf("init sqlite event store: %w", err)
		}
		return store, nil
	case config.SinkRedis:
		client := redis.NewClient(&redis.Options{Addr: a.cfg.RedisAddr})
		a.cleanup = append(a.cleanup, func(context.Context) error { return client.Close() })
		return persistence.NewRedisEventStore(client, a.cfg.RedisPrefix, a.cfg.RedisTTL), nil
	default:
		return nil, fmt.Errorf("unsupported event sink %q", a.cfg.EventSink)
	}
}

// Handler returns the HTTP handler served by Run.
func (a *App) Handler() http.Handler { return a.handler }

// Engine returns the engine the gateway runs executions on.
func (a *App) Engine() api.Engine { return a.engine }

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.Addr)
	if err != nil {
		a.close(context.Background())
		return fmt.Errorf("listen %s: %w", a.cfg.Addr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	a.logger.Info("expressflow starting",
		"addr", ln.Addr().String(),
		"route", a.cfg.RoutePath,
		"event_sink", a.cfg.EventSink,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.Serve(ln)
	}()

	var serveErr error
	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = err
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("http drain incomplete", "error", err)
	}
	a.close(shutdownCtx)

	if serveErr != nil {
		return fmt.Errorf("http serve: %w", serveErr)
	}
	a.logger.Info("expressflow stopped")
	return nil
}

func (a *App) close(ctx context.Context) {
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		if err := a.cleanup[i](ctx); err != nil {
			a.logger.Warn("cleanup failed", "error", err)
		}
	}
	a.cleanup = nil
}

func (a *App) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.logger.Debug("http request", "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
