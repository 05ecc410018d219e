package workflow

// StateMachine tracks the current state of one trip and validates transitions
type StateMachine interface {
	// State returns the current state
	State() State

	// CanFire returns true if the trigger is permitted in the current state
	CanFire(trigger Trigger) bool

	// Fire moves to the configured target state or returns ErrInvalidTransition.
	// The state is left unchanged on error.
	Fire(trigger Trigger) error

	// PermittedTriggers returns the triggers allowed in the current state, sorted
	PermittedTriggers() []Trigger
}
