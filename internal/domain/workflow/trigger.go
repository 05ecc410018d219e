package workflow

// Trigger is an operation that can move a trip between states
type Trigger string

const (
	TriggerRevise              Trigger = "REVISE"
	TriggerApprove             Trigger = "APPROVE"
	TriggerReject              Trigger = "REJECT"
	TriggerSubmitSettlement    Trigger = "SUBMIT_SETTLEMENT"
	TriggerApproveSettlement   Trigger = "APPROVE_SETTLEMENT"
	TriggerReturnForCorrection Trigger = "RETURN_FOR_CORRECTION"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
