package workflow

import "sort"

// Instance pairs a current state with its template. It is rebuilt from the persisted
// state string on every operation and never mutated.
type Instance struct {
	template *Template
	state    State
}

// Instantiate builds an instance at state, or at the template's initial state when state is empty.
func Instantiate(tpl *Template, state State) (Instance, error) {
	if tpl == nil {
		return Instance{}, &Error{Kind: ErrInvalidTemplate, Reason: "nil template"}
	}
	if state == "" {
		state = tpl.Initial
	}
	if !tpl.Has(state) {
		return Instance{}, &Error{Kind: ErrInvalidState, EntityType: tpl.EntityType, State: state}
	}
	return Instance{template: tpl, state: state}, nil
}

// Transition returns the instance reached by applying event to inst.
func Transition(inst Instance, event Event) (Instance, error) {
	return inst.Transition(event)
}

// Transition returns a new instance at the state event leads to.
func (i Instance) Transition(event Event) (Instance, error) {
	if i.template == nil {
		return Instance{}, &Error{Kind: ErrInvalidTemplate, Reason: "instance has no template"}
	}
	next, ok := i.template.Transitions[i.state][event]
	if !ok {
		return Instance{}, &Error{Kind: ErrInvalidEvent, EntityType: i.template.EntityType, State: i.state, Event: event}
	}
	return Instance{template: i.template, state: next}, nil
}

// State returns the current state.
func (i Instance) State() State {
	return i.state
}

// Template returns the template the instance was built from.
func (i Instance) Template() *Template {
	return i.template
}

// Events lists the events accepted from the current state, sorted.
func (i Instance) Events() []Event {
	if i.template == nil {
		return nil
	}
	out := make([]Event, 0, len(i.template.Transitions[i.state]))
	for event := range i.template.Transitions[i.state] {
		out = append(out, event)
	}
	sort.Slice(out, func(a, b int) bool { return out[a] < out[b] })
	return out
}

// Terminal reports whether the current state accepts no events.
func (i Instance) Terminal() bool {
	return i.template != nil && len(i.template.Transitions[i.state]) == 0
}
