package workflow

import "fmt"

var submissionLifecycle = newSubmissionBuilder()

func newSubmissionBuilder() StateMachineBuilder {
	b := NewBuilder()

	b.Configure(StateUploaded).
		Permit(TriggerStartValidation, StateValidating).
		Permit(TriggerFail, StateFailed)

	b.Configure(StateValidating).
		Permit(TriggerComplete, StateCompleted).
		Permit(TriggerFail, StateFailed)

	b.Configure(StateCompleted).
		Permit(TriggerRevalidate, StateValidating)

	b.Configure(StateFailed).
		Permit(TriggerRevalidate, StateValidating)

	return b
}

// NewSubmissionMachine returns a state machine for one submission starting at current
func NewSubmissionMachine(current State) StateMachine {
	return submissionLifecycle.Build(current)
}

// Next returns the state a submission in from moves to when trigger fires.
// It never mutates anything; callers persist the result with a
// compare-and-set on from.
func Next(from State, trigger Trigger) (State, error) {
	if !from.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidState, from)
	}
	m := NewSubmissionMachine(from)
	if err := m.Fire(trigger); err != nil {
		return "", err
	}
	return m.State(), nil
}
