package api

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrWorkflowNotFound = errors.New("workflow not found")
	ErrWorkflowExists   = errors.New("workflow already registered")
)

// Error codes used on engine-derived Fail outcomes.
const (
	ErrorTaskFailed = "States.TaskFailed"
	ErrorTimeout    = "States.Timeout"
	ErrorCancelled  = "States.Cancelled"
	ErrorRuntime    = "States.Runtime"
)

// ValidationError describes a malformed or missing required field.
// Inside the graph validation problems are plain FAILED statuses; this type
// is used where a request is rejected before any state runs.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Reason
	}
	return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Reason)
}

// InvocationError is a task fault: the task was unreachable, timed out,
// panicked or answered with something that could not be interpreted.
type InvocationError struct {
	State   string
	Timeout bool
	Err     error
}

func (e *InvocationError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("task %s timed out: %v", e.State, e.Err)
	}
	return fmt.Sprintf("task %s invocation failed: %v", e.State, e.Err)
}

func (e *InvocationError) Unwrap() error { return e.Err }

// IsInvocationError returns the InvocationError wrapped in err, if any.
func IsInvocationError(err error) (*InvocationError, bool) {
	var inv *InvocationError
	if errors.As(err, &inv) {
		return inv, true
	}
	return nil, false
}

// IsTimeout reports whether err is an invocation timeout.
func IsTimeout(err error) bool {
	if inv, ok := IsInvocationError(err); ok {
		return inv.Timeout || errors.Is(inv.Err, context.DeadlineExceeded)
	}
	return false
}

// DefinitionError lists every structural problem found while building a
// WorkflowDefinition. A definition with issues is never returned.
type DefinitionError struct {
	Workflow string
	Issues   []error
}

func (e *DefinitionError) Error() string {
	msgs := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		msgs = append(msgs, issue.Error())
	}
	return fmt.Sprintf("invalid workflow %q: %s", e.Workflow, strings.Join(msgs, "; "))
}

func (e *DefinitionError) Unwrap() []error { return e.Issues }
