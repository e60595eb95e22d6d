package entity

import (
	"time"

	"github.com/garyjia/broker-workflow/internal/domain/workflow"
)

// WorkflowInstance is a persisted approval pipeline for a resource
type WorkflowInstance struct {
	ID            int64               `json:"id"`
	WorkflowType  workflow.Type       `json:"workflow_type"`
	ResourceType  string              `json:"resource_type"`
	ResourceID    int64               `json:"resource_id"`
	Amount        float64             `json:"amount"`
	InitiatorRole string              `json:"initiator_role"`
	InitiatedBy   string              `json:"initiated_by"`
	Status        workflow.StepStatus `json:"status"`
	Steps         []WorkflowStep      `json:"steps"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// WorkflowStep is a persisted approval step
type WorkflowStep struct {
	ID         int64 `json:"id"`
	WorkflowID int64 `json:"workflow_id"`
	workflow.Step
}

// DomainSteps returns the steps without persistence identifiers
func (w *WorkflowInstance) DomainSteps() []workflow.Step {
	steps := make([]workflow.Step, len(w.Steps))
	for i, s := range w.Steps {
		steps[i] = s.Step
	}
	return steps
}
