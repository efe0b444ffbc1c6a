package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/quote-validator/internal/domain/entity"
)

func TestState_IsTerminal(t *testing.T) {
	tests := []struct {
		state    State
		expected bool
	}{
		{StateUploaded, false},
		{StateValidating, false},
		{StateCompleted, true},
		{StateFailed, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.state.IsTerminal())
		})
	}
}

func TestState_IsValid(t *testing.T) {
	assert.True(t, StateUploaded.IsValid())
	assert.True(t, StateFailed.IsValid())
	assert.False(t, State("INVALID").IsValid())
	assert.False(t, State("").IsValid())
}

func TestBuilder_ConfigureReturnsSameConfig(t *testing.T) {
	builder := NewBuilder()
	assert.Same(t, builder.Configure(StateUploaded), builder.Configure(StateUploaded))
}

func TestBuilder_PanicsOnInvalidStates(t *testing.T) {
	assert.Panics(t, func() { NewBuilder().Configure(State("INVALID")) })
	assert.Panics(t, func() { NewBuilder().Build(State("INVALID")) })
	assert.Panics(t, func() {
		NewBuilder().Configure(StateUploaded).Permit(TriggerStartValidation, State("INVALID"))
	})
}

func TestStateMachine_FireRejectsUnknownTrigger(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateUploaded).Permit(TriggerStartValidation, StateValidating)

	machine := builder.Build(StateUploaded)
	assert.ErrorIs(t, machine.Fire(TriggerComplete), ErrInvalidTransition)
	assert.Equal(t, StateUploaded, machine.State())

	unconfigured := builder.Build(StateFailed)
	assert.ErrorIs(t, unconfigured.Fire(TriggerRevalidate), ErrInvalidTransition)
}

func TestStateConfiguration_PermitReplaces(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateUploaded).
		Permit(TriggerStartValidation, StateValidating).
		Permit(TriggerStartValidation, StateFailed)

	machine := builder.Build(StateUploaded)
	require.NoError(t, machine.Fire(TriggerStartValidation))
	assert.Equal(t, StateFailed, machine.State())
}

func TestStateMachine_Immutability(t *testing.T) {
	m1 := NewSubmissionMachine(StateUploaded)
	m2 := NewSubmissionMachine(StateUploaded)

	require.NoError(t, m1.Fire(TriggerStartValidation))
	assert.Equal(t, StateValidating, m1.State())
	assert.Equal(t, StateUploaded, m2.State())
}

func TestSubmissionLifecycle_HappyPath(t *testing.T) {
	m := NewSubmissionMachine(StateUploaded)

	steps := []struct {
		trigger Trigger
		want    State
	}{
		{TriggerStartValidation, StateValidating},
		{TriggerComplete, StateCompleted},
		{TriggerRevalidate, StateValidating},
		{TriggerFail, StateFailed},
		{TriggerRevalidate, StateValidating},
		{TriggerComplete, StateCompleted},
	}

	for i, step := range steps {
		require.NoError(t, m.Fire(step.trigger), "step %d", i)
		assert.Equal(t, step.want, m.State(), "step %d", i)
	}
}

func TestNext(t *testing.T) {
	tests := []struct {
		name    string
		from    State
		trigger Trigger
		want    State
		wantErr error
	}{
		{"start", StateUploaded, TriggerStartValidation, StateValidating, nil},
		{"complete", StateValidating, TriggerComplete, StateCompleted, nil},
		{"fail while validating", StateValidating, TriggerFail, StateFailed, nil},
		{"revalidate completed", StateCompleted, TriggerRevalidate, StateValidating, nil},
		{"revalidate failed", StateFailed, TriggerRevalidate, StateValidating, nil},
		{"cannot complete twice", StateCompleted, TriggerComplete, "", ErrInvalidTransition},
		{"cannot revalidate in flight", StateValidating, TriggerRevalidate, "", ErrInvalidTransition},
		{"cannot start from completed", StateCompleted, TriggerStartValidation, "", ErrInvalidTransition},
		{"unknown state", State("archived"), TriggerComplete, "", ErrInvalidState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Next(tt.from, tt.trigger)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestState_MatchesSubmissionStatus(t *testing.T) {
	assert.Equal(t, entity.SubmissionStatusUploaded, StateUploaded.String())
	assert.Equal(t, entity.SubmissionStatusValidating, StateValidating.String())
	assert.Equal(t, entity.SubmissionStatusCompleted, StateCompleted.String())
	assert.Equal(t, entity.SubmissionStatusFailed, StateFailed.String())
}
