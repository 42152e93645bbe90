// Package tasks provides the reference task implementations of the example
// state machine and adapters for running tasks elsewhere.
//
// Every task follows the same contract: an expected business failure is a
// FAILED result, never an error. Errors are reserved for invocation faults.
package tasks
