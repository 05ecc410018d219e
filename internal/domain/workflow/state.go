package workflow

import "fmt"

// State is the lifecycle status of a business trip request
type State string

const (
	StateNew               State = "NEW"
	StateApproved          State = "APPROVED"
	StateRejected          State = "REJECTED"
	StateSettled           State = "SETTLED"
	StateSentForSettlement State = "SENT_FOR_SETTLEMENT"
	StateNeedsCorrection   State = "NEEDS_CORRECTION"
)

// Persisted integer codes. Historical records depend on these values.
var stateCodes = map[State]int{
	StateNew:               1,
	StateApproved:          2,
	StateRejected:          3,
	StateSettled:           4,
	StateSentForSettlement: 5,
	StateNeedsCorrection:   6,
}

var terminalStates = map[State]bool{
	StateRejected: true,
	StateSettled:  true,
}

// AllStates returns every state in code order
func AllStates() []State {
	return []State{
		StateNew,
		StateApproved,
		StateRejected,
		StateSettled,
		StateSentForSettlement,
		StateNeedsCorrection,
	}
}

// StateFromCode resolves a persisted integer code
func StateFromCode(code int) (State, error) {
	for s, c := range stateCodes {
		if c == code {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: code %d", ErrInvalidState, code)
}

// Code returns the persisted integer code, 0 for unknown states
func (s State) Code() int {
	return stateCodes[s]
}

// IsTerminal returns true if no further transitions are allowed
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is one of the six lifecycle states
func (s State) IsValid() bool {
	_, ok := stateCodes[s]
	return ok
}
