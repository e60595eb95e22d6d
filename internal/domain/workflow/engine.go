package workflow

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

const (
	// DefaultFallbackApprover is returned when no configured role can approve an amount
	DefaultFallbackApprover = RoleSuperAdmin

	// ClaimsComplianceThreshold is the claim amount above which a compliance review is added
	ClaimsComplianceThreshold = 1_000_000

	// ClaimsUnderwriterThreshold is the claim amount above which an underwriter review is added
	ClaimsUnderwriterThreshold = 5_000_000

	// SettlementUnderwriterThreshold is the settlement amount above which underwriter approval must be recorded
	SettlementUnderwriterThreshold = 2_000_000
)

// Step names produced by PlanWorkflow
const (
	StepNameComplianceReview  = "Compliance Review"
	StepNameUnderwriterReview = "Underwriter Review"
	StepNameFinalApproval     = "Final Approval"
)

// Blocking reasons reported by ValidateClaimsWorkflow
const (
	ReasonInvestigationIncomplete = "Investigation must be completed"
	ReasonUnderwriterApproval     = "Underwriter approval required for settlements above ₦2,000,000"
	ReasonDocumentsIncomplete     = "All required documents must be submitted"
)

// Engine answers approval questions from a static table of per-role ceilings.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	limits   Limits
	fallback string
}

// Option configures the engine
type Option func(*Engine)

// WithLimits replaces the default ceilings
func WithLimits(limits Limits) Option {
	return func(e *Engine) {
		e.limits = limits.clone()
	}
}

// WithFallbackApprover sets the role returned when nobody qualifies
func WithFallbackApprover(role string) Option {
	return func(e *Engine) {
		if role != "" {
			e.fallback = role
		}
	}
}

// NewEngine creates an engine using the default ceilings unless overridden
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		limits:   DefaultLimits(),
		fallback: DefaultFallbackApprover,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Limits returns a copy of the ceilings for one domain
func (e *Engine) Limits(workflowType Type) []ApprovalLimit {
	return append([]ApprovalLimit{}, e.limits[workflowType]...)
}

// RequiresApproval reports whether an amount raised by role needs a human approver.
// Roles absent from the domain table always require approval.
func (e *Engine) RequiresApproval(workflowType Type, amount float64, role string) bool {
	limit, ok := e.limits.Find(workflowType, role)
	if !ok {
		return true
	}
	return amount > limit.MaxAmount || !limit.AutoApprove
}

// NextApprover picks the approver for an amount: the highest-ceiling role that
// covers the amount and is not the current role, or the fallback approver.
func (e *Engine) NextApprover(workflowType Type, amount float64, currentRole string) string {
	candidates := e.Limits(workflowType)
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].MaxAmount > candidates[j].MaxAmount
	})

	for _, limit := range candidates {
		if limit.MaxAmount >= amount && limit.RoleID != currentRole {
			return limit.RoleID
		}
	}
	return e.fallback
}

// PlanWorkflow lists the pending steps needed before an amount raised by
// initiatorRole may proceed. An empty plan means no human approval is needed.
func (e *Engine) PlanWorkflow(workflowType Type, amount float64, initiatorRole string) []Step {
	steps := make([]Step, 0, 3)

	if workflowType == TypeClaims {
		if amount > ClaimsComplianceThreshold {
			steps = append(steps, e.newStep(workflowType, StepNameComplianceReview, RoleCompliance))
		}
		if amount > ClaimsUnderwriterThreshold {
			steps = append(steps, e.newStep(workflowType, StepNameUnderwriterReview, RoleUnderwriter))
		}
	}

	if e.RequiresApproval(workflowType, amount, initiatorRole) {
		approver := e.NextApprover(workflowType, amount, initiatorRole)
		steps = append(steps, e.newStep(workflowType, StepNameFinalApproval, approver))
	}

	for i := range steps {
		steps[i].Sequence = i + 1
	}
	return steps
}

func (e *Engine) newStep(workflowType Type, name, role string) Step {
	step := Step{
		Name:         name,
		RoleRequired: role,
		Status:       StepPending,
	}
	if limit, ok := e.limits.Find(workflowType, role); ok {
		ceiling := limit.MaxAmount
		step.ApprovalLimit = &ceiling
	}
	return step
}

// ClaimsWorkflowInput is the checklist state of a claim awaiting settlement
type ClaimsWorkflowInput struct {
	InvestigationComplete bool    `json:"investigation_complete" yaml:"investigation_complete"`
	DocumentsComplete     bool    `json:"documents_complete" yaml:"documents_complete"`
	SettlementAmount      float64 `json:"settlement_amount" yaml:"settlement_amount"`
	UnderwriterApproved   bool    `json:"underwriter_approved" yaml:"underwriter_approved"`
}

// ClaimsValidation lists what blocks a claim from proceeding
type ClaimsValidation struct {
	CanProceed    bool     `json:"can_proceed" yaml:"can_proceed"`
	RequiredSteps []string `json:"required_steps" yaml:"required_steps"`
}

// ValidateClaimsWorkflow collects every reason a claim cannot proceed to settlement
func ValidateClaimsWorkflow(in ClaimsWorkflowInput) ClaimsValidation {
	required := make([]string, 0)

	if !in.InvestigationComplete {
		required = append(required, ReasonInvestigationIncomplete)
	}
	if in.SettlementAmount > SettlementUnderwriterThreshold && !in.UnderwriterApproved {
		required = append(required, ReasonUnderwriterApproval)
	}
	if !in.DocumentsComplete {
		required = append(required, ReasonDocumentsIncomplete)
	}

	return ClaimsValidation{
		CanProceed:    len(required) == 0,
		RequiredSteps: required,
	}
}

// ValidateRequest rejects malformed approval inputs before any lookup
func ValidateRequest(workflowType Type, amount float64, role string) error {
	if !workflowType.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, workflowType)
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidAmount, amount)
	}
	if strings.TrimSpace(role) == "" {
		return ErrInvalidRole
	}
	return nil
}
