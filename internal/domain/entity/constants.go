package entity

// Resource types recorded in audit logs and workflows
const (
	ResourceClaim    = "claim"
	ResourceWorkflow = "workflow"
)

// Audit actions
const (
	AuditActionCreate          = "create"
	AuditActionStatusChange    = "status_change"
	AuditActionDelete          = "delete"
	AuditActionAssignAdjuster  = "assign_adjuster"
	AuditActionChecklistUpdate = "checklist_update"
	AuditActionWorkflowCreated = "workflow_created"
	AuditActionStepDecided     = "step_decided"
)

// Audit severities
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// Notification status constants
const (
	NotificationStatusPending = "PENDING"
	NotificationStatusSent    = "SENT"
	NotificationStatusFailed  = "FAILED"
)

// SystemActor is recorded when no user is attached to the request
const SystemActor = "system"
