package api

import (
	"context"
	"time"
)

// Payload is the JSON object carried from one state to the next.
//
// Only TaskResult.Status drives transitions; everything in the payload is
// passed along untouched. The "value" key holds the business value and an
// absent key means the value is undefined.
type Payload map[string]any

// ValueKey is the payload key holding the business value.
const ValueKey = "value"

// Value returns the payload's business value and whether it is defined.
func (p Payload) Value() (any, bool) {
	if p == nil {
		return nil, false
	}
	v, ok := p[ValueKey]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// TaskResult is what a task reports back after a successful invocation.
// A nil Value means "undefined".
type TaskResult struct {
	Status Status `json:"status"`
	Value  any    `json:"value,omitempty"`
}

// Succeeded is shorthand for a SUCCEEDED result carrying v.
func Succeeded(v any) TaskResult {
	return TaskResult{Status: StatusSucceeded, Value: v}
}

// Failed is shorthand for a FAILED result carrying v.
func Failed(v any) TaskResult {
	return TaskResult{Status: StatusFailed, Value: v}
}

// Invoker is anything that can serve as a task.
//
// Expected business failures (bad input, threshold not met) must be reported
// as a FAILED status. A non-nil error is an invocation fault: the task could
// not be reached or its answer could not be interpreted.
type Invoker interface {
	Invoke(ctx context.Context, input Payload) (TaskResult, error)
}

// InvokerFunc adapts a plain function to Invoker.
type InvokerFunc func(ctx context.Context, input Payload) (TaskResult, error)

func (f InvokerFunc) Invoke(ctx context.Context, input Payload) (TaskResult, error) {
	return f(ctx, input)
}

// OutputExtractor turns a task result into the next state's input.
type OutputExtractor func(TaskResult) Payload

// ResultPayload is the default OutputExtractor. It selects the whole result
// ({status, value}) as the next input; the value key is omitted when the
// value is undefined.
func ResultPayload(r TaskResult) Payload {
	p := Payload{"status": r.Status.String()}
	if r.Value != nil {
		p[ValueKey] = r.Value
	}
	return p
}

// State is a node in a workflow graph. The set of implementations is closed:
// TaskState, ChoiceState, SucceedState and FailState.
type State interface {
	isState()
}

// TaskState invokes a task and moves unconditionally to Next.
type TaskState struct {
	Invoker Invoker
	// Extract defaults to ResultPayload when nil.
	Extract OutputExtractor
	Next    string
	// Timeout bounds a single invocation; zero means the engine default.
	Timeout time.Duration
}

// ChoiceRule routes to Next when the last task status equals StatusEquals.
type ChoiceRule struct {
	StatusEquals Status
	Next         string
}

// ChoiceState branches on the status of the most recent task.
type ChoiceState struct {
	Rules   []ChoiceRule
	Default string
}

// SucceedState ends the execution successfully.
type SucceedState struct{}

// FailState ends the execution with a fixed error code and cause.
type FailState struct {
	Code  string
	Cause string
}

func (TaskState) isState()    {}
func (ChoiceState) isState()  {}
func (SucceedState) isState() {}
func (FailState) isState()    {}

// Execution is one run of a workflow for a single input. It is created per
// run, mutated in place by the engine and dropped once a terminal is reached.
type Execution struct {
	ID           string
	Workflow     string
	CurrentState string
	Payload      Payload
	// LastStatus is the status of the most recently completed task; zero
	// before the first task finishes.
	LastStatus Status
	// Steps counts the states entered so far.
	Steps     int
	StartedAt time.Time
}
