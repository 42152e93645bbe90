// Package statemachine defines the example state machine: three tasks
// chained with a status check after each of the first two.
//
//	StepOneState -> ChoiceAfterStepOne -(FAILED)-> InvalidInputFail
//	                                   -(else)-->  StepTwoState -> ChoiceAfterStepTwo -(FAILED)-> FailState
//	                                                                                 -(else)-->  StepThreeState -> SucceedState
package statemachine

import (
	"log/slog"
	"time"

	"github.com/petrijr/expressflow/pkg/api"
	"github.com/petrijr/expressflow/pkg/tasks"
)

// Name is the workflow name the example state machine is registered under.
const Name = "ExampleStateMachine"

// State ids.
const (
	StepOneState       = "StepOneState"
	ChoiceAfterStepOne = "ChoiceAfterStepOne"
	StepTwoState       = "StepTwoState"
	ChoiceAfterStepTwo = "ChoiceAfterStepTwo"
	StepThreeState     = "StepThreeState"
	SucceedState       = "SucceedState"
	InvalidInputFail   = "InvalidInputFail"
	FailState          = "FailState"
)

const (
	// FailCode is the error code of both Fail states.
	FailCode = "Failed"
	// DefaultCause is the cause both Fail states report unless configured.
	DefaultCause = "Number not greater than 50"
)

// Tasks are the invokers behind the three task states.
type Tasks struct {
	StepOne   api.Invoker
	StepTwo   api.Invoker
	StepThree api.Invoker
}

type options struct {
	name                string
	invalidInputCause   string
	belowThresholdCause string
	taskTimeout         time.Duration
	logger              *slog.Logger
}

// Option customizes the state machine.
type Option func(*options)

// WithName registers the workflow under a name other than Name.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithInvalidInputCause sets the cause reported when the first task rejects
// the input.
func WithInvalidInputCause(cause string) Option {
	return func(o *options) { o.invalidInputCause = cause }
}

// WithBelowThresholdCause sets the cause reported when the threshold check
// fails.
func WithBelowThresholdCause(cause string) Option {
	return func(o *options) { o.belowThresholdCause = cause }
}

// WithTaskTimeout bounds every task invocation; zero keeps the engine default.
func WithTaskTimeout(d time.Duration) Option {
	return func(o *options) { o.taskTimeout = d }
}

// WithTaskLogging wraps every task with tasks.WithLogging.
func WithTaskLogging(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// New builds the state table around the given tasks.
func New(t Tasks, opts ...Option) (*api.WorkflowDefinition, error) {
	o := options{
		name:                Name,
		invalidInputCause:   DefaultCause,
		belowThresholdCause: DefaultCause,
	}
	for _, opt := range opts {
		opt(&o)
	}

	task := func(name string, inv api.Invoker, next string) api.TaskState {
		if o.logger != nil && inv != nil {
			inv = tasks.WithLogging(o.logger, name, inv)
		}
		return api.TaskState{Invoker: inv, Next: next, Timeout: o.taskTimeout}
	}
	onFailed := func(target, otherwise string) api.ChoiceState {
		return api.ChoiceState{
			Rules:   []api.ChoiceRule{{StatusEquals: api.StatusFailed, Next: target}},
			Default: otherwise,
		}
	}

	return api.NewWorkflowDefinition(o.name, StepOneState, map[string]api.State{
		StepOneState:       task("StepOne", t.StepOne, ChoiceAfterStepOne),
		ChoiceAfterStepOne: onFailed(InvalidInputFail, StepTwoState),
		StepTwoState:       task("StepTwo", t.StepTwo, ChoiceAfterStepTwo),
		ChoiceAfterStepTwo: onFailed(FailState, StepThreeState),
		StepThreeState:     task("StepThree", t.StepThree, SucceedState),
		SucceedState:       api.SucceedState{},
		InvalidInputFail:   api.FailState{Code: FailCode, Cause: o.invalidInputCause},
		FailState:          api.FailState{Code: FailCode, Cause: o.belowThresholdCause},
	})
}

// Default builds the state machine with the reference tasks.
func Default(threshold float64, opts ...Option) (*api.WorkflowDefinition, error) {
	return New(Tasks{
		StepOne:   tasks.ValidateValue(),
		StepTwo:   tasks.ThresholdCheck(threshold),
		StepThree: tasks.Finalize(),
	}, opts...)
}

// Rejection returns the Fail state def reports for invalid input, used to
// answer requests that are turned away before an execution starts.
func Rejection(def *api.WorkflowDefinition) api.FailState {
	if def != nil {
		if st, ok := def.State(InvalidInputFail); ok {
			if fail, ok := st.(api.FailState); ok {
				return fail
			}
		}
	}
	return api.FailState{Code: FailCode, Cause: DefaultCause}
}
