package entity

import "time"

// NotificationRecord is an outbox row for a rendered notification
type NotificationRecord struct {
	ID           int64      `json:"id"`
	EventName    string     `json:"event_name"`
	Channel      string     `json:"channel"`
	Subject      string     `json:"subject"`
	Body         string     `json:"body"`
	Recipients   []string   `json:"recipients"`
	Priority     string     `json:"priority"`
	Status       string     `json:"status"`
	MessageID    string     `json:"message_id,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	ResourceType string     `json:"resource_type,omitempty"`
	ResourceID   int64      `json:"resource_id,omitempty"`
	SentAt       *time.Time `json:"sent_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// DeliveryResult is what a sender reports for one notification
type DeliveryResult struct {
	Success      bool     `json:"success"`
	MessageIDs   []string `json:"message_ids,omitempty"`
	FailedTo     []string `json:"failed_to,omitempty"`
	ErrorMessage string   `json:"error_message,omitempty"`
}
