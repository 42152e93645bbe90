package api

// Outcome is the terminal result of an execution. Its JSON form is the HTTP
// response body: {"status": "SUCCEED"|"FAILED", "value": ..., "error": ..., "cause": ...}.
type Outcome struct {
	ExecutionID string        `json:"-"`
	Status      OutcomeStatus `json:"status"`
	Value       any           `json:"value,omitempty"`
	Error       string        `json:"error,omitempty"`
	Cause       string        `json:"cause,omitempty"`
	// State is the id of the terminal (or aborting) state.
	State string `json:"-"`
}

// Succeeded reports whether the execution reached a Succeed terminal.
func (o Outcome) Succeeded() bool { return o.Status == OutcomeSucceed }

// SucceedOutcome builds the outcome of an execution sitting on a Succeed state.
func SucceedOutcome(exec *Execution) Outcome {
	v, _ := exec.Payload.Value()
	return Outcome{
		ExecutionID: exec.ID,
		Status:      OutcomeSucceed,
		Value:       v,
		State:       exec.CurrentState,
	}
}

// FailOutcome builds the outcome of an execution sitting on the given Fail
// state. The code and cause come from the state, the value from the payload.
func FailOutcome(exec *Execution, fail FailState) Outcome {
	v, _ := exec.Payload.Value()
	return Outcome{
		ExecutionID: exec.ID,
		Status:      OutcomeFailed,
		Value:       v,
		Error:       fail.Code,
		Cause:       fail.Cause,
		State:       exec.CurrentState,
	}
}

// AbortOutcome builds a FAILED outcome for an execution the engine had to
// stop (fault, timeout, cancellation). No value is carried.
func AbortOutcome(exec *Execution, code string, err error) Outcome {
	cause := ""
	if err != nil {
		cause = err.Error()
	}
	return Outcome{
		ExecutionID: exec.ID,
		Status:      OutcomeFailed,
		Error:       code,
		Cause:       cause,
		State:       exec.CurrentState,
	}
}

// Rejected builds the outcome for a request turned away before any state
// ran. It carries the given Fail state's metadata and no value.
func Rejected(fail FailState) Outcome {
	return Outcome{
		Status: OutcomeFailed,
		Error:  fail.Code,
		Cause:  fail.Cause,
	}
}
