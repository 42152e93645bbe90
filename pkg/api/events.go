package api

import "time"

// TransitionEvent records one edge taken by an execution.
//
// The entry edge has an empty FromState. Input is the payload the source
// state received and Output is what it handed to ToState; for Choice states
// both are the same payload.
type TransitionEvent struct {
	ExecutionID string    `json:"executionId"`
	Workflow    string    `json:"workflow"`
	FromState   string    `json:"fromState"`
	ToState     string    `json:"toState"`
	Input       Payload   `json:"input,omitempty"`
	Output      Payload   `json:"output,omitempty"`
	At          time.Time `json:"timestamp"`
}
