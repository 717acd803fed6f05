// Package workflow evaluates declarative lifecycle templates.
//
// A Template declares an initial state and, for every state, the events it accepts and the
// state each event leads to. Pairs that are not declared are rejected; a state with an empty
// event map is terminal. Everything here is pure and safe for concurrent use once templates
// are registered.
package workflow

import (
	"fmt"
	"sort"
)

// State is a lifecycle state name.
type State string

// Event is a transition name.
type Event string

// Template is the static lifecycle declaration for one entity kind.
type Template struct {
	EntityType  string
	Initial     State
	Transitions map[State]map[Event]State
}

// Validate checks that the initial state and every transition target are declared states.
func (t *Template) Validate() error {
	if t == nil {
		return &Error{Kind: ErrInvalidTemplate, Reason: "nil template"}
	}
	if t.EntityType == "" {
		return &Error{Kind: ErrInvalidTemplate, Reason: "entity type required"}
	}
	if _, ok := t.Transitions[t.Initial]; !ok {
		return &Error{Kind: ErrInvalidTemplate, EntityType: t.EntityType, State: t.Initial, Reason: "initial state not declared"}
	}
	for from, events := range t.Transitions {
		for event, to := range events {
			if event == "" {
				return &Error{Kind: ErrInvalidTemplate, EntityType: t.EntityType, State: from, Reason: "empty event name"}
			}
			if _, ok := t.Transitions[to]; !ok {
				return &Error{
					Kind:       ErrInvalidTemplate,
					EntityType: t.EntityType,
					State:      from,
					Event:      event,
					Reason:     fmt.Sprintf("target state %q not declared", to),
				}
			}
		}
	}
	return nil
}

// Has reports whether state is declared.
func (t *Template) Has(state State) bool {
	_, ok := t.Transitions[state]
	return ok
}

// States returns the declared states in sorted order.
func (t *Template) States() []State {
	states := make([]State, 0, len(t.Transitions))
	for state := range t.Transitions {
		states = append(states, state)
	}
	sort.Slice(states, func(i, j int) bool { return states[i] < states[j] })
	return states
}
