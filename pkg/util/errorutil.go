package util

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/compliance-service/internal/entity"
	"github.com/spec-kit/compliance-service/internal/repository"
	"github.com/spec-kit/compliance-service/internal/sequence"
	"github.com/spec-kit/compliance-service/internal/workflow"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError("FORBIDDEN", message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError("CONFLICT", message, http.StatusConflict, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts core errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}

	var details map[string]any
	var wfErr *workflow.Error
	if errors.As(err, &wfErr) {
		details = wfErr.Details()
	}

	switch {
	case errors.Is(err, workflow.ErrInvalidEvent):
		return &DomainError{Code: "INVALID_EVENT", Message: "event not allowed from current state", HTTPStatus: http.StatusConflict, Details: details, Err: err}
	case errors.Is(err, workflow.ErrInvalidState):
		return &DomainError{Code: "INVALID_STATE", Message: "stored state is not part of the workflow", HTTPStatus: http.StatusInternalServerError, Details: details, Err: err}
	case errors.Is(err, workflow.ErrInvalidTemplate):
		return &DomainError{Code: "INVALID_TEMPLATE", Message: "no workflow template for entity kind", HTTPStatus: http.StatusInternalServerError, Details: details, Err: err}
	case errors.Is(err, entity.ErrStaleRevision), errors.Is(err, repository.ErrRevisionMismatch):
		return &DomainError{Code: "STALE_REVISION", Message: "record was modified by another request", HTTPStatus: http.StatusPreconditionFailed, Err: err}
	case errors.Is(err, entity.ErrNotFound), errors.Is(err, repository.ErrNotFound), errors.Is(err, pgx.ErrNoRows):
		return &DomainError{Code: "NOT_FOUND", Message: "resource not found", HTTPStatus: http.StatusNotFound, Details: map[string]any{}, Err: err}
	case errors.Is(err, entity.ErrValidation), errors.Is(err, sequence.ErrInvalidKey):
		return &DomainError{Code: "VALIDATION_FAILED", Message: err.Error(), HTTPStatus: http.StatusBadRequest, Err: err}
	case errors.Is(err, entity.ErrInvalidActor):
		return &DomainError{Code: "UNAUTHORIZED", Message: "actor requires tenant and member", HTTPStatus: http.StatusUnauthorized, Err: err}
	case errors.Is(err, repository.ErrDuplicate):
		return &DomainError{Code: "CONFLICT", Message: "resource already exists", HTTPStatus: http.StatusConflict, Err: err}
	case errors.Is(err, sequence.ErrCounterUnavailable):
		return &DomainError{Code: "UNAVAILABLE", Message: "ticket counter busy, retry", HTTPStatus: http.StatusServiceUnavailable, Err: err}
	}
	return NewInternalError(err).(*DomainError)
}

// MapError converts err to a *DomainError typed as error.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	return ToDomainError(err)
}
