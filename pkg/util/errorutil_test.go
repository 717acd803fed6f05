package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/compliance-service/internal/entity"
	"github.com/spec-kit/compliance-service/internal/sequence"
	"github.com/spec-kit/compliance-service/internal/workflow"
)

func TestToDomainError(t *testing.T) {
	invalidEvent := fmt.Errorf("transition: %w", &workflow.Error{
		Kind: workflow.ErrInvalidEvent, EntityType: "audit", State: "active", Event: "activate",
	})

	cases := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{"invalid event", invalidEvent, "INVALID_EVENT", http.StatusConflict},
		{"invalid state", &workflow.Error{Kind: workflow.ErrInvalidState}, "INVALID_STATE", http.StatusInternalServerError},
		{"invalid template", &workflow.Error{Kind: workflow.ErrInvalidTemplate}, "INVALID_TEMPLATE", http.StatusInternalServerError},
		{"stale", entity.ErrStaleRevision, "STALE_REVISION", http.StatusPreconditionFailed},
		{"not found", entity.ErrNotFound, "NOT_FOUND", http.StatusNotFound},
		{"no rows", fmt.Errorf("get: %w", pgx.ErrNoRows), "NOT_FOUND", http.StatusNotFound},
		{"validation", fmt.Errorf("%w: title is required", entity.ErrValidation), "VALIDATION_FAILED", http.StatusBadRequest},
		{"invalid key", sequence.ErrInvalidKey, "VALIDATION_FAILED", http.StatusBadRequest},
		{"counter", sequence.ErrCounterUnavailable, "UNAVAILABLE", http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), "INTERNAL_ERROR", http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			de := ToDomainError(tc.err)
			require.NotNil(t, de)
			assert.Equal(t, tc.code, de.Code)
			assert.Equal(t, tc.status, de.HTTPStatus)
		})
	}

	de := ToDomainError(invalidEvent)
	assert.Equal(t, "activate", de.Details["event"])
	assert.Equal(t, "active", de.Details["state"])
	assert.ErrorIs(t, de, workflow.ErrInvalidEvent)
}

func TestToDomainErrorPassesThrough(t *testing.T) {
	assert.Nil(t, ToDomainError(nil))
	assert.NoError(t, MapError(nil))
	original := NewDomainError("CUSTOM", "custom", http.StatusTeapot, nil)
	assert.Same(t, original, ToDomainError(fmt.Errorf("wrap: %w", original)))
}
