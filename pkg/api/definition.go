package api

import (
	"errors"
	"fmt"
	"sort"
)

// WorkflowDefinition is an immutable table of states keyed by id.
//
// Build it with NewWorkflowDefinition; a returned definition has passed every
// structural check and can be shared by any number of concurrent executions.
type WorkflowDefinition struct {
	name    string
	startAt string
	states  map[string]State
}

// NewWorkflowDefinition validates the given state table and returns an
// immutable definition. The states map is copied, so later changes to it by
// the caller have no effect. All problems are reported together in a
// *DefinitionError.
func NewWorkflowDefinition(name, startAt string, states map[string]State) (*WorkflowDefinition, error) {
	def := &WorkflowDefinition{
		name:    name,
		startAt: startAt,
		states:  make(map[string]State, len(states)),
	}
	for id, st := range states {
		if ch, ok := st.(ChoiceState); ok {
			ch.Rules = append([]ChoiceRule(nil), ch.Rules...)
			st = ch
		}
		def.states[id] = st
	}

	if issues := def.validate(); len(issues) > 0 {
		return nil, &DefinitionError{Workflow: name, Issues: issues}
	}
	return def, nil
}

// MustWorkflowDefinition is like NewWorkflowDefinition but panics on error.
// Useful for package-level tables.
func MustWorkflowDefinition(name, startAt string, states map[string]State) *WorkflowDefinition {
	def, err := NewWorkflowDefinition(name, startAt, states)
	if err != nil {
		panic(err)
	}
	return def
}

// Name returns the workflow name.
func (d *WorkflowDefinition) Name() string { return d.name }

// StartAt returns the entry state id.
func (d *WorkflowDefinition) StartAt() string { return d.startAt }

// Len returns the number of states.
func (d *WorkflowDefinition) Len() int { return len(d.states) }

// State looks up a state by id.
func (d *WorkflowDefinition) State(id string) (State, bool) {
	st, ok := d.states[id]
	return st, ok
}

// StateIDs returns every state id in sorted order.
func (d *WorkflowDefinition) StateIDs() []string {
	ids := make([]string, 0, len(d.states))
	for id := range d.states {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// successors returns the ids a state can transition to.
func successors(st State) []string {
	switch s := st.(type) {
	case TaskState:
		return []string{s.Next}
	case ChoiceState:
		out := make([]string, 0, len(s.Rules)+1)
		for _, r := range s.Rules {
			out = append(out, r.Next)
		}
		return append(out, s.Default)
	default:
		return nil
	}
}

func (d *WorkflowDefinition) validate() []error {
	var issues []error

	if d.name == "" {
		issues = append(issues, errors.New("workflow name is required"))
	}
	if len(d.states) == 0 {
		return append(issues, errors.New("workflow has no states"))
	}
	if _, ok := d.states[d.startAt]; !ok {
		return append(issues, fmt.Errorf("start state %q does not exist", d.startAt))
	}

	for _, id := range d.StateIDs() {
		issues = append(issues, d.validateState(id, d.states[id])...)
	}
	if len(issues) > 0 {
		// Graph checks below assume every edge points at a real state.
		return issues
	}

	// DFS colouring from the start state: grey on the stack, black done.
	const (
		white = iota
		grey
		black
	)
	colour := make(map[string]int, len(d.states))
	cyclic := false

	var visit func(id string)
	visit = func(id string) {
		switch colour[id] {
		case grey:
			cyclic = true
			return
		case black:
			return
		}
		colour[id] = grey
		for _, next := range successors(d.states[id]) {
			visit(next)
		}
		colour[id] = black
	}
	visit(d.startAt)

	if cyclic {
		issues = append(issues, errors.New("workflow graph contains a cycle"))
	}
	for _, id := range d.StateIDs() {
		if colour[id] == white {
			issues = append(issues, fmt.Errorf("state %q is unreachable from %q", id, d.startAt))
		}
	}
	// With no cycles and only Task/Choice states having successors, every
	// path ends on a terminal, so no separate reachability pass is needed.
	return issues
}

func (d *WorkflowDefinition) validateState(id string, st State) []error {
	var issues []error
	target := func(what, next string) {
		if next == "" {
			issues = append(issues, fmt.Errorf("state %q: %s is required", id, what))
			return
		}
		if _, ok := d.states[next]; !ok {
			issues = append(issues, fmt.Errorf("state %q: %s refers to unknown state %q", id, what, next))
		}
	}

	if id == "" {
		issues = append(issues, errors.New("state id must not be empty"))
	}

	switch s := st.(type) {
	case TaskState:
		if s.Invoker == nil {
			issues = append(issues, fmt.Errorf("state %q: task has no invoker", id))
		}
		if s.Timeout < 0 {
			issues = append(issues, fmt.Errorf("state %q: negative timeout %s", id, s.Timeout))
		}
		target("next", s.Next)
	case ChoiceState:
		seen := make(map[Status]bool, len(s.Rules))
		for i, r := range s.Rules {
			if !r.StatusEquals.Valid() {
				issues = append(issues, fmt.Errorf("state %q: rule %d matches invalid %s", id, i, r.StatusEquals))
				continue
			}
			if seen[r.StatusEquals] {
				issues = append(issues, fmt.Errorf("state %q: rule %d repeats status %s", id, i, r.StatusEquals))
			}
			seen[r.StatusEquals] = true
			target(fmt.Sprintf("rule %d next", i), r.Next)
		}
		target("default", s.Default)
		if s.Default != "" && !s.covers() {
			issues = append(issues, fmt.Errorf("state %q: choice does not cover every status", id))
		}
	case SucceedState:
	case FailState:
		if s.Code == "" {
			issues = append(issues, fmt.Errorf("state %q: fail state needs an error code", id))
		}
	case nil:
		issues = append(issues, fmt.Errorf("state %q is nil", id))
	default:
		issues = append(issues, fmt.Errorf("state %q has unsupported type %T", id, st))
	}
	return issues
}
