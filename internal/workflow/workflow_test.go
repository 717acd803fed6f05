package workflow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstantiate(t *testing.T) {
	tpl := IssueTemplate()

	t.Run("defaults to initial state", func(t *testing.T) {
		inst, err := Instantiate(tpl, "")
		require.NoError(t, err)
		assert.Equal(t, State("open"), inst.State())
	})

	t.Run("restores a declared state", func(t *testing.T) {
		inst, err := Instantiate(tpl, "resolved")
		require.NoError(t, err)
		assert.Equal(t, State("resolved"), inst.State())
	})

	t.Run("rejects unknown state for every built-in template", func(t *testing.T) {
		reg := DefaultRegistry()
		for _, kind := range reg.Kinds() {
			tpl, err := reg.Resolve(kind)
			require.NoError(t, err)
			_, err = Instantiate(tpl, "unknown_state")
			require.ErrorIs(t, err, ErrInvalidState, kind)
		}
	})

	t.Run("rejects nil template", func(t *testing.T) {
		_, err := Instantiate(nil, "")
		require.ErrorIs(t, err, ErrInvalidTemplate)
	})
}

func TestTransition(t *testing.T) {
	tpl := IssueTemplate()

	t.Run("declared pair moves to target", func(t *testing.T) {
		inst, err := Instantiate(tpl, "open")
		require.NoError(t, err)
		next, err := Transition(inst, "start")
		require.NoError(t, err)
		assert.Equal(t, State("in_progress"), next.State())
		assert.Equal(t, State("open"), inst.State(), "input instance must not change")
	})

	t.Run("undeclared pair is rejected", func(t *testing.T) {
		inst, err := Instantiate(tpl, "resolved")
		require.NoError(t, err)
		_, err = inst.Transition("start")
		require.ErrorIs(t, err, ErrInvalidEvent)

		var wfErr *Error
		require.True(t, errors.As(err, &wfErr))
		assert.Equal(t, State("resolved"), wfErr.State)
		assert.Equal(t, Event("start"), wfErr.Event)
		assert.Equal(t, "issue", wfErr.Details()["entity_type"])
	})

	t.Run("terminal state accepts nothing", func(t *testing.T) {
		inst, err := Instantiate(AuditTemplate(), "archived")
		require.NoError(t, err)
		assert.True(t, inst.Terminal())
		assert.Empty(t, inst.Events())
		_, err = inst.Transition("activate")
		require.ErrorIs(t, err, ErrInvalidEvent)
	})

	t.Run("zero instance has no template", func(t *testing.T) {
		_, err := Instance{}.Transition("start")
		require.ErrorIs(t, err, ErrInvalidTemplate)
	})

	t.Run("audit activation happens once", func(t *testing.T) {
		inst, err := Instantiate(AuditTemplate(), "")
		require.NoError(t, err)
		assert.Equal(t, State("draft"), inst.State())
		active, err := inst.Transition("activate")
		require.NoError(t, err)
		assert.Equal(t, State("active"), active.State())
		_, err = active.Transition("activate")
		require.ErrorIs(t, err, ErrInvalidEvent)
	})
}

func TestEvents(t *testing.T) {
	inst, err := Instantiate(IssueTemplate(), "open")
	require.NoError(t, err)
	assert.Equal(t, []Event{"close", "resolve", "start"}, inst.Events())
	assert.False(t, inst.Terminal())
}

func TestTemplateValidate(t *testing.T) {
	cases := []struct {
		name string
		tpl  *Template
	}{
		{name: "nil", tpl: nil},
		{name: "missing entity type", tpl: &Template{Initial: "a", Transitions: map[State]map[Event]State{"a": {}}}},
		{name: "undeclared initial", tpl: &Template{EntityType: "x", Initial: "a", Transitions: map[State]map[Event]State{"b": {}}}},
		{name: "undeclared target", tpl: &Template{EntityType: "x", Initial: "a", Transitions: map[State]map[Event]State{"a": {"go": "b"}}}},
		{name: "empty event", tpl: &Template{EntityType: "x", Initial: "a", Transitions: map[State]map[Event]State{"a": {"": "a"}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.ErrorIs(t, tc.tpl.Validate(), ErrInvalidTemplate)
		})
	}

	for _, tpl := range []*Template{AuditTemplate(), IssueTemplate(), PolicyTemplate(), RiskTemplate(), ControlTemplate(), ApprovalTemplate()} {
		require.NoError(t, tpl.Validate(), tpl.EntityType)
	}
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(IssueTemplate()))

	tpl, err := reg.Resolve(KindIssue)
	require.NoError(t, err)
	assert.Equal(t, State("open"), tpl.Initial)

	_, err = reg.Resolve("questionnaire")
	require.ErrorIs(t, err, ErrInvalidTemplate)

	require.ErrorIs(t, reg.Register(IssueTemplate()), ErrInvalidTemplate, "duplicate registration")

	assert.Panics(t, func() {
		NewRegistry().MustRegister(&Template{EntityType: "broken", Initial: "nowhere"})
	})
}
