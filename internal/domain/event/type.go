package event

// Type identifies the type of domain event
type Type string

const (
	TypeClaimRegistered     Type = "claim.registered"
	TypeClaimStatusChanged  Type = "claim.status_changed"
	TypeClaimAssigned       Type = "claim.assigned"
	TypeClaimDeleted        Type = "claim.deleted"
	TypeWorkflowCreated     Type = "workflow.created"
	TypeWorkflowStepDecided Type = "workflow.step_decided"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeClaimRegistered,
		TypeClaimStatusChanged,
		TypeClaimAssigned,
		TypeClaimDeleted,
		TypeWorkflowCreated,
		TypeWorkflowStepDecided:
		return true
	default:
		return false
	}
}
