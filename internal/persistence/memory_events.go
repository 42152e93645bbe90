package persistence

import (
	"context"
	"sync"
	"time"

	"github.com/petrijr/expressflow/pkg/api"
)

// MemoryEventStore keeps transition events in process memory. When
// maxExecutions is positive the events of the oldest executions are dropped
// once that many executions have been logged.
type MemoryEventStore struct {
	mu            sync.RWMutex
	maxExecutions int
	order         []string
	events        map[string][]api.TransitionEvent
}

var _ EventStore = (*MemoryEventStore)(nil)

// NewMemoryEventStore creates a MemoryEventStore; maxExecutions <= 0 means
// unbounded.
func NewMemoryEventStore(maxExecutions int) *MemoryEventStore {
	return &MemoryEventStore{
		maxExecutions: maxExecutions,
		events:        make(map[string][]api.TransitionEvent),
	}
}

func (s *MemoryEventStore) AppendEvent(ctx context.Context, ev api.TransitionEvent) error {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[ev.ExecutionID]; !ok {
		s.order = append(s.order, ev.ExecutionID)
		if s.maxExecutions > 0 && len(s.order) > s.maxExecutions {
			oldest := s.order[0]
			s.order = s.order[1:]
			delete(s.events, oldest)
		}
	}
	s.events[ev.ExecutionID] = append(s.events[ev.ExecutionID], ev)
	return nil
}

func (s *MemoryEventStore) ListEvents(ctx context.Context, executionID string) ([]api.TransitionEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	evs := s.events[executionID]
	if len(evs) == 0 {
		return nil, nil
	}
	out := make([]api.TransitionEvent, len(evs))
	copy(out, evs)
	return out, nil
}

// Executions returns the ids of logged executions, oldest first.
func (s *MemoryEventStore) Executions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...)
}
