package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidState means a stored or requested state is not declared by the template.
	ErrInvalidState = errors.New("invalid workflow state")
	// ErrInvalidEvent means the event is not declared from the current state.
	ErrInvalidEvent = errors.New("invalid workflow event")
	// ErrInvalidTemplate means no template is registered for an entity kind, or a template is malformed.
	ErrInvalidTemplate = errors.New("invalid workflow template")
)

// Error describes a rejected workflow operation. It matches its Kind with errors.Is.
type Error struct {
	Kind       error
	EntityType string
	State      State
	Event      Event
	Reason     string
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.EntityType != "" {
		msg += fmt.Sprintf(" (entity_type=%s", e.EntityType)
		if e.State != "" {
			msg += fmt.Sprintf(" state=%s", e.State)
		}
		if e.Event != "" {
			msg += fmt.Sprintf(" event=%s", e.Event)
		}
		msg += ")"
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// Details returns the error attributes for API responses.
func (e *Error) Details() map[string]any {
	details := map[string]any{}
	if e.EntityType != "" {
		details["entity_type"] = e.EntityType
	}
	if e.State != "" {
		details["state"] = string(e.State)
	}
	if e.Event != "" {
		details["event"] = string(e.Event)
	}
	return details
}
