package workflow

import "errors"

var (
	// ErrInvalidAmount is returned for negative or non-finite amounts
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidRole is returned when a role is blank
	ErrInvalidRole = errors.New("invalid role")

	// ErrInvalidType is returned for unknown workflow types
	ErrInvalidType = errors.New("invalid workflow type")

	// ErrStepAlreadyDecided is returned when a decided step is decided again
	ErrStepAlreadyDecided = errors.New("workflow step already decided")

	// ErrStepOutOfOrder is returned when a step is decided before an earlier pending step
	ErrStepOutOfOrder = errors.New("workflow step is not next in sequence")

	// ErrRoleNotPermitted is returned when the deciding role is not the step's required role
	ErrRoleNotPermitted = errors.New("role not permitted to decide this step")

	// ErrCommentsRequired is returned when a rejection has no comments
	ErrCommentsRequired = errors.New("comments required to reject a step")

	// ErrInvalidDecision is returned for decisions other than approve or reject
	ErrInvalidDecision = errors.New("invalid decision")
)

// ErrWorkflowClosed is returned when deciding a step of an already approved or rejected workflow
var ErrWorkflowClosed = errors.New("workflow already closed")
