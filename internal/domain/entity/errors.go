package entity

import "errors"

var (
	// ErrValidation marks a rejected request; nothing was mutated
	ErrValidation = errors.New("validation error")

	// ErrPersistence marks a failed data-layer call
	ErrPersistence = errors.New("persistence error")

	// ErrNotFound marks a missing record
	ErrNotFound = errors.New("not found")

	// ErrAuditLogging marks a failed audit append. Callers log it and carry on.
	ErrAuditLogging = errors.New("audit logging error")
)
