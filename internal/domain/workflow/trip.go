package workflow

// NewTripBuilder returns a builder holding the trip transition table.
// Rejected and Settled have no outgoing edges.
func NewTripBuilder() Builder {
	b := NewBuilder()

	b.Configure(StateNew).
		Permit(TriggerRevise, StateNew).
		Permit(TriggerApprove, StateApproved).
		Permit(TriggerReject, StateRejected)

	b.Configure(StateApproved).
		Permit(TriggerSubmitSettlement, StateSentForSettlement)

	b.Configure(StateNeedsCorrection).
		Permit(TriggerSubmitSettlement, StateSentForSettlement)

	b.Configure(StateSentForSettlement).
		Permit(TriggerApproveSettlement, StateSettled).
		Permit(TriggerReturnForCorrection, StateNeedsCorrection)

	return b
}

// NewTripMachine builds a trip machine positioned at current
func NewTripMachine(current State) StateMachine {
	return NewTripBuilder().Build(current)
}
