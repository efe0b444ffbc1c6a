package workflow

// Trigger represents an event that can cause a state transition
type Trigger string

const (
	TriggerStartValidation Trigger = "START_VALIDATION"
	TriggerComplete        Trigger = "COMPLETE"
	TriggerFail            Trigger = "FAIL"
	TriggerRevalidate      Trigger = "REVALIDATE"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
