package engine

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/petrijr/expressflow/internal/tracing"
	"github.com/petrijr/expressflow/pkg/api"
)

// execute walks def from its start state until a terminal is reached or the
// execution has to be abandoned.
func (e *engineImpl) execute(ctx context.Context, def *api.WorkflowDefinition, exec *api.Execution) api.Outcome {
	ctx, span := tracing.StartSpan(ctx, "expressflow.execution",
		"workflow", exec.Workflow,
		"execution_id", exec.ID,
	)

	e.observer.OnExecutionStart(ctx, exec)
	e.transition(ctx, exec, "", def.StartAt(), exec.Payload, nil)
	exec.CurrentState = def.StartAt()

	out, fault := e.walk(ctx, def, exec)

	if out.Succeeded() {
		e.observer.OnExecutionSucceeded(ctx, exec, out)
	} else {
		e.observer.OnExecutionFailed(ctx, exec, out, fault)
	}
	span.SetAttributes("status", string(out.Status), "state", out.State, "error_code", out.Error)
	span.End(fault)
	return out
}

// walk returns the outcome and, for aborted executions, the fault that
// stopped them.
func (e *engineImpl) walk(ctx context.Context, def *api.WorkflowDefinition, exec *api.Execution) (api.Outcome, error) {
	// An acyclic table can never enter more states than it has.
	maxSteps := def.Len() + 1

	for {
		if err := ctx.Err(); err != nil {
			return api.AbortOutcome(exec, api.ErrorCancelled, err), err
		}
		if exec.Steps >= maxSteps {
			err := fmt.Errorf("execution exceeded %d steps", maxSteps)
			return api.AbortOutcome(exec, api.ErrorRuntime, err), err
		}
		exec.Steps++

		id := exec.CurrentState
		st, ok := def.State(id)
		if !ok {
			err := fmt.Errorf("state %q not found", id)
			return api.AbortOutcome(exec, api.ErrorRuntime, err), err
		}

		switch s := st.(type) {
		case api.TaskState:
			res, err := e.invoke(ctx, exec, id, s)
			if err != nil {
				code := api.ErrorTaskFailed
				if api.IsTimeout(err) {
					code = api.ErrorTimeout
				}
				return api.AbortOutcome(exec, code, err), err
			}
			extract := s.Extract
			if extract == nil {
				extract = api.ResultPayload
			}
			next := extract(res)
			exec.LastStatus = res.Status
			e.transition(ctx, exec, id, s.Next, exec.Payload, next)
			exec.Payload = next
			exec.CurrentState = s.Next

		case api.ChoiceState:
			target := api.NextState(exec.LastStatus, s)
			e.transition(ctx, exec, id, target, exec.Payload, exec.Payload)
			exec.CurrentState = target

		case api.SucceedState:
			return api.SucceedOutcome(exec), nil

		case api.FailState:
			return api.FailOutcome(exec, s), nil

		default:
			err := fmt.Errorf("state %q has unsupported type %T", id, st)
			return api.AbortOutcome(exec, api.ErrorRuntime, err), err
		}
	}
}

// invoke runs a single task invocation and reports it to the observer.
func (e *engineImpl) invoke(ctx context.Context, exec *api.Execution, state string, task api.TaskState) (api.TaskResult, error) {
	timeout := task.Timeout
	if timeout <= 0 {
		timeout = e.taskTimeout
	}

	ctx, span := tracing.StartSpan(ctx, "expressflow.task",
		"workflow", exec.Workflow,
		"execution_id", exec.ID,
		"state", state,
	)
	e.observer.OnTaskStart(ctx, exec, state)

	start := time.Now()
	res, err := callInvoker(ctx, state, task.Invoker, clonePayload(exec.Payload), timeout)
	if err == nil && !res.Status.Valid() {
		err = &api.InvocationError{State: state, Err: fmt.Errorf("task returned %s", res.Status)}
		res = api.TaskResult{}
	}
	duration := time.Since(start)

	e.observer.OnTaskCompleted(ctx, exec, state, res, err, duration)
	if err == nil {
		span.SetAttributes("status", res.Status.String())
	}
	span.End(err)
	return res, err
}

type invokeResult struct {
	res api.TaskResult
	err error
}

// callInvoker calls inv detached from the caller's cancellation and bounded
// by timeout. The in-flight call is never interrupted by the caller; an
// invoker that ignores its context is abandoned once the timeout fires.
func callInvoker(ctx context.Context, state string, inv api.Invoker, input api.Payload, timeout time.Duration) (api.TaskResult, error) {
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	done := make(chan invokeResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- invokeResult{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		res, err := inv.Invoke(callCtx, input)
		done <- invokeResult{res: res, err: err}
	}()

	select {
	case r := <-done:
		if r.err == nil {
			return r.res, nil
		}
		if ie, ok := api.IsInvocationError(r.err); ok && ie.State == state {
			return api.TaskResult{}, r.err
		}
		return api.TaskResult{}, &api.InvocationError{
			State:   state,
			Timeout: callCtx.Err() == context.DeadlineExceeded,
			Err:     r.err,
		}
	case <-callCtx.Done():
		return api.TaskResult{}, &api.InvocationError{State: state, Timeout: true, Err: callCtx.Err()}
	}
}

// transition reports an edge to the observer and the event sink. Sink
// failures are logged only.
func (e *engineImpl) transition(ctx context.Context, exec *api.Execution, from, to string, in, out api.Payload) {
	ev := api.TransitionEvent{
		ExecutionID: exec.ID,
		Workflow:    exec.Workflow,
		FromState:   from,
		ToState:     to,
		Input:       in,
		Output:      out,
		At:          e.now(),
	}
	e.observer.OnTransition(ctx, ev)

	if err := e.events.AppendEvent(context.WithoutCancel(ctx), ev); err != nil {
		e.logger.WarnContext(ctx, "event sink append failed",
			slog.String("workflow", exec.Workflow),
			slog.String("execution_id", exec.ID),
			slog.String("from", from),
			slog.String("to", to),
			slog.Any("error", err),
		)
	}
}

func clonePayload(p api.Payload) api.Payload {
	if p == nil {
		return api.Payload{}
	}
	return maps.Clone(p)
}
