package persistence

import (
	"context"

	"github.com/petrijr/expressflow/pkg/api"
)

// EventStore is the execution log sink: an append-only history of the
// transitions taken by executions. Storage and delivery guarantees are up to
// the implementation; the engine never lets a sink error affect an execution.
type EventStore interface {
	AppendEvent(ctx context.Context, ev api.TransitionEvent) error
	ListEvents(ctx context.Context, executionID string) ([]api.TransitionEvent, error)
}

// NoopEventStore discards all events.
type NoopEventStore struct{}

func (NoopEventStore) AppendEvent(ctx context.Context, ev api.TransitionEvent) error { return nil }
func (NoopEventStore) ListEvents(ctx context.Context, executionID string) ([]api.TransitionEvent, error) {
	return nil, nil
}
