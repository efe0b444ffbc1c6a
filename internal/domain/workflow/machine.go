package workflow

// StateMachine tracks the current state of one submission and validates transitions
type StateMachine interface {
	State() State

	// Fire moves to the state configured for trigger, or returns
	// ErrInvalidTransition and leaves the state unchanged
	Fire(trigger Trigger) error
}
