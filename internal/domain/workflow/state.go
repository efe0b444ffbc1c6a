package workflow

// State is a submission validation state. Values match the persisted
// submission status column.
type State string

const (
	StateUploaded   State = "uploaded"
	StateValidating State = "validating"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

var validStates = map[State]bool{
	StateUploaded:   true,
	StateValidating: true,
	StateCompleted:  true,
	StateFailed:     true,
}

// IsTerminal returns true if a validation run has settled in this state.
// Terminal states can still be re-entered into validating by a revalidation.
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a known submission state
func (s State) IsValid() bool {
	return validStates[s]
}
