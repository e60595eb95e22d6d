package entity

import "time"

// AuditLog is an append-only record of a mutation
type AuditLog struct {
	ID           int64                  `json:"id"`
	ResourceType string                 `json:"resource_type"`
	ResourceID   int64                  `json:"resource_id"`
	Action       string                 `json:"action"`
	OldValues    map[string]interface{} `json:"old_values,omitempty"`
	NewValues    map[string]interface{} `json:"new_values,omitempty"`
	Severity     string                 `json:"severity"`
	Actor        string                 `json:"actor"`
	Timestamp    time.Time              `json:"timestamp"`
}

// AuditLogFilter narrows audit log queries. Zero values match everything.
type AuditLogFilter struct {
	ResourceType string
	ResourceID   int64
	Action       string
	Since        *time.Time
	Until        *time.Time
	Limit        int
}
