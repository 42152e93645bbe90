package persistence

import (
	"context"
	"database/sql"
	"time"

	"github.com/petrijr/expressflow/pkg/api"
)

// SQLiteEventStore stores transition events in SQLite.
type SQLiteEventStore struct {
	db *sql.DB
}

// Ensure SQLiteEventStore implements the interfaces.
var _ EventStore = (*SQLiteEventStore)(nil)

func NewSQLiteEventStore(db *sql.DB) (*SQLiteEventStore, error) {
	s := &SQLiteEventStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteEventStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS transition_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			execution_id TEXT NOT NULL,
			workflow TEXT NOT NULL DEFAULT '',
			from_state TEXT NOT NULL DEFAULT '',
			to_state TEXT NOT NULL,
			input TEXT NOT NULL DEFAULT '',
			output TEXT NOT NULL DEFAULT '',
			at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_transition_events_execution_id ON transition_events(execution_id, id);
	`)
	return err
}

func (s *SQLiteEventStore) AppendEvent(ctx context.Context, ev api.TransitionEvent) error {
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	input, err := EncodePayload(ev.Input)
	if err != nil {
		return err
	}
	output, err := EncodePayload(ev.Output)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO transition_events (execution_id, workflow, from_state, to_state, input, output, at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ev.ExecutionID,
		ev.Workflow,
		ev.FromState,
		ev.ToState,
		input,
		output,
		at.UnixNano(),
	)
	return err
}

func (s *SQLiteEventStore) ListEvents(ctx context.Context, executionID string) ([]api.TransitionEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT execution_id, workflow, from_state, to_state, input, output, at
		FROM transition_events
		WHERE execution_id = ?
		ORDER BY id ASC`, executionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []api.TransitionEvent
	for rows.Next() {
		var (
			id       string
			workflow string
			from     string
			to       string
			input    string
			output   string
			atN      int64
		)
		if err := rows.Scan(&id, &workflow, &from, &to, &input, &output, &atN); err != nil {
			return nil, err
		}
		in, err := DecodePayload(input)
		if err != nil {
			return nil, err
		}
		outP, err := DecodePayload(output)
		if err != nil {
			return nil, err
		}
		out = append(out, api.TransitionEvent{
			ExecutionID: id,
			Workflow:    workflow,
			FromState:   from,
			ToState:     to,
			Input:       in,
			Output:      outP,
			At:          time.Unix(0, atN),
		})
	}
	return out, rows.Err()
}
