// Package expressflow provides a small, embeddable interpreter for
// synchronous state machines.
//
// A workflow is a flat table of states: Task states call an Invoker, Choice
// states branch on the last task's status, and Succeed and Fail states end
// the execution. One call to Run walks the table from its start state to a
// terminal and returns the Outcome, so a workflow can sit directly behind a
// request/response API.
//
// # Core Concepts
//
//  1. WorkflowDefinition
//  2. Invoker
//  3. Engine
//  4. Gateway
//
// # WorkflowDefinition
//
// NewWorkflowDefinition validates a state table once: every reference
// resolves, every Choice has a default, the graph is acyclic and every state
// is reachable. The returned definition is immutable and can be shared by any
// number of concurrent executions.
//
// # Invoker
//
// Anything with an Invoke(ctx, Payload) (TaskResult, error) method can serve
// as a task. Business failures are a FAILED status; errors are invocation
// faults. The engine bounds every invocation with a timeout and turns faults,
// panics and timeouts into a FAILED Outcome instead of surfacing them.
//
// # Engine
//
// Engines keep registered definitions and run them. Every transition is
// written to an EventSink:
//
//   - In-memory (recent executions only)
//   - SQLite
//   - Redis
//
// Observers receive lifecycle callbacks; LoggingObserver and BasicMetrics
// cover the common cases.
//
// # Gateway
//
// NewGateway exposes one workflow over HTTP. A POST with {"value": ...}
// starts an execution and the Outcome is written back as JSON once it
// finishes. Requests without a usable value are rejected before any state
// runs.
//
// The pkg/statemachine package contains a complete example: three tasks
// chained with a status check after each of the first two.
package expressflow
