// Package api contains the core building blocks used by the expressflow
// engine: state types, the status enumeration, task invocation contracts,
// outcomes and observers.
//
// Most users interact with the higher-level expressflow package, which
// re-exports selected types and helpers from this package.
//
// # Workflow Definitions
//
// A workflow is a flat table of states keyed by id plus the id of the entry
// state. NewWorkflowDefinition validates the table once (every reference
// resolves, every Choice has a default and covers both statuses, the graph is
// acyclic and fully reachable) and returns an immutable definition that can be
// shared by concurrent executions.
//
// # States
//
//   - TaskState invokes an Invoker and moves to Next.
//   - ChoiceState routes on the last task's Status, first matching rule wins,
//     otherwise Default.
//   - SucceedState and FailState end the execution.
//
// # Tasks
//
// Anything implementing Invoker can serve as a task. Business failures are a
// FAILED Status; errors are reserved for invocation faults, which the engine
// turns into a FAILED Outcome without running any further state.
//
// # Observability
//
// Observer receives lifecycle callbacks. LoggingObserver and BasicMetrics
// cover the common cases and can be combined with NewCompositeObserver.
package api
