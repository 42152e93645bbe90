package api

import (
	"encoding/json"
	"fmt"
)

// Status is the declared outcome of a task invocation.
//
// It is a closed enumeration: exactly StatusSucceeded and StatusFailed are
// valid. The zero value is deliberately invalid so that an unset status is
// caught by definition validation and by the decoders below.
type Status uint8

const (
	StatusSucceeded Status = iota + 1
	StatusFailed
)

// Statuses lists every valid Status in declaration order.
var Statuses = []Status{StatusSucceeded, StatusFailed}

// Valid reports whether s is one of the declared statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusSucceeded, StatusFailed:
		return true
	default:
		return false
	}
}

func (s Status) String() string {
	switch s {
	case StatusSucceeded:
		return "SUCCEEDED"
	case StatusFailed:
		return "FAILED"
	default:
		return fmt.Sprintf("Status(%d)", uint8(s))
	}
}

// ParseStatus converts a wire status into a Status.
// "SUCCEED" is accepted as an alias of "SUCCEEDED" because older task bodies
// emit that spelling.
func ParseStatus(s string) (Status, error) {
	switch s {
	case "SUCCEEDED", "SUCCEED":
		return StatusSucceeded, nil
	case "FAILED":
		return StatusFailed, nil
	default:
		return 0, fmt.Errorf("unknown task status %q", s)
	}
}

func (s Status) MarshalJSON() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid %s", s)
	}
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("task status must be a string: %w", err)
	}
	parsed, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// OutcomeStatus is the terminal status of a whole execution.
type OutcomeStatus string

const (
	OutcomeSucceed OutcomeStatus = "SUCCEED"
	OutcomeFailed  OutcomeStatus = "FAILED"
)
