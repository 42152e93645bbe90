package api

import "context"

// Engine runs registered workflow definitions synchronously.
type Engine interface {
	// RegisterWorkflow makes def available under def.Name().
	// Registering the same name twice fails with ErrWorkflowExists.
	RegisterWorkflow(def *WorkflowDefinition) error

	// Workflow returns the registered definition with the given name.
	Workflow(name string) (*WorkflowDefinition, error)

	// Run executes the named workflow for input and blocks until a terminal
	// state is reached. Task faults, timeouts and cancellation all end in a
	// FAILED Outcome; the error is non-nil only when the workflow is unknown.
	Run(ctx context.Context, name string, input Payload) (Outcome, error)
}
