package workflow

import (
	"fmt"
	"strings"
	"time"
)

// StepStatus is the state of a single approval step
type StepStatus string

const (
	StepPending  StepStatus = "pending"
	StepApproved StepStatus = "approved"
	StepRejected StepStatus = "rejected"
)

// IsTerminal returns true once the step has been decided
func (s StepStatus) IsTerminal() bool {
	return s == StepApproved || s == StepRejected
}

// IsValid returns true if the status is a known step status
func (s StepStatus) IsValid() bool {
	return s == StepPending || s.IsTerminal()
}

// String returns the string representation of the status
func (s StepStatus) String() string {
	return string(s)
}

// Decision is a human verdict on a step
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// Step is one stage of an approval pipeline
type Step struct {
	Sequence      int        `json:"sequence" yaml:"sequence"`
	Name          string     `json:"name" yaml:"name"`
	RoleRequired  string     `json:"role_required" yaml:"role_required"`
	ApprovalLimit *float64   `json:"approval_limit,omitempty" yaml:"approval_limit,omitempty"`
	Status        StepStatus `json:"status" yaml:"status"`
	ApprovedBy    string     `json:"approved_by,omitempty" yaml:"approved_by,omitempty"`
	ApprovedAt    *time.Time `json:"approved_at,omitempty" yaml:"approved_at,omitempty"`
	Comments      string     `json:"comments,omitempty" yaml:"comments,omitempty"`
}

// CanBeDecidedBy reports whether role may decide the step
func (s *Step) CanBeDecidedBy(role string) bool {
	return role == s.RoleRequired || role == RoleSuperAdmin
}

// Decide moves a pending step to approved or rejected. A step is decided at most once.
func (s *Step) Decide(decision Decision, actor, role, comments string, at time.Time) error {
	if s.Status.IsTerminal() {
		return fmt.Errorf("%w: step %q is %s", ErrStepAlreadyDecided, s.Name, s.Status)
	}
	if !s.CanBeDecidedBy(role) {
		return fmt.Errorf("%w: %s requires %s", ErrRoleNotPermitted, s.Name, s.RoleRequired)
	}

	var next StepStatus
	switch decision {
	case DecisionApprove:
		next = StepApproved
	case DecisionReject:
		if strings.TrimSpace(comments) == "" {
			return ErrCommentsRequired
		}
		next = StepRejected
	default:
		return fmt.Errorf("%w: %q", ErrInvalidDecision, decision)
	}

	decidedAt := at
	s.Status = next
	s.ApprovedBy = actor
	s.ApprovedAt = &decidedAt
	s.Comments = comments
	return nil
}

// NextPending returns the index of the first pending step, or -1
func NextPending(steps []Step) int {
	for i := range steps {
		if steps[i].Status == StepPending {
			return i
		}
	}
	return -1
}

// DeriveStatus computes the overall status of a pipeline from its steps.
// Any rejection rejects the pipeline; an empty pipeline is approved.
func DeriveStatus(steps []Step) StepStatus {
	status := StepApproved
	for _, s := range steps {
		switch s.Status {
		case StepRejected:
			return StepRejected
		case StepPending:
			status = StepPending
		}
	}
	return status
}
