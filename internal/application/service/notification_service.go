package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/broker-workflow/internal/application/dispatcher"
	"github.com/garyjia/broker-workflow/internal/application/port"
	"github.com/garyjia/broker-workflow/internal/domain/claim"
	"github.com/garyjia/broker-workflow/internal/domain/entity"
	"github.com/garyjia/broker-workflow/internal/domain/event"
	"github.com/garyjia/broker-workflow/internal/domain/notification"
	"github.com/garyjia/broker-workflow/internal/domain/workflow"
	"github.com/garyjia/broker-workflow/pkg/utils"
)

// ErrNoRecipients is recorded on outbox rows that rendered without any address
var ErrNoRecipients = errors.New("notification has no recipients")

// NotificationDirectory resolves addresses for notifications that target roles rather than people
type NotificationDirectory struct {
	// RoleRecipients maps an approver role to the addresses notified when a step awaits it
	RoleRecipients map[string][]string
	// AuditRecipients receive audit_notification messages
	AuditRecipients []string
	BrokerName      string
}

// NotificationService renders, records and delivers notifications
type NotificationService interface {
	Preview(evt notification.Event, data map[string]interface{}) notification.Template
	Send(ctx context.Context, evt notification.Event, data map[string]interface{}, resourceType string, resourceID int64) (*entity.NotificationRecord, error)
	List(ctx context.Context, limit, offset int) ([]*entity.NotificationRecord, error)
	HandleEvent(ctx context.Context, evt *event.Event) error
	Subscribe(d dispatcher.Dispatcher)
}

type notificationServiceImpl struct {
	notificationRepo port.NotificationRepository
	sender           port.NotificationSender
	directory        NotificationDirectory
	logger           Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(
	notificationRepo port.NotificationRepository,
	sender port.NotificationSender,
	directory NotificationDirectory,
	logger Logger,
) NotificationService {
	return &notificationServiceImpl{
		notificationRepo: notificationRepo,
		sender:           sender,
		directory:        directory,
		logger:           logger,
	}
}

// Preview renders a template without recording or sending it
func (s *notificationServiceImpl) Preview(evt notification.Event, data map[string]interface{}) notification.Template {
	return notification.Generate(evt, s.withDefaults(data))
}

// Send renders the template, stores it in the outbox and hands it to the sender.
// Delivery failures are recorded on the returned row rather than returned as errors.
func (s *notificationServiceImpl) Send(ctx context.Context, evt notification.Event, data map[string]interface{}, resourceType string, resourceID int64) (*entity.NotificationRecord, error) {
	msg := s.Preview(evt, data)

	record := &entity.NotificationRecord{
		EventName:    msg.Event.String(),
		Channel:      string(msg.Type),
		Subject:      msg.Subject,
		Body:         msg.Template,
		Recipients:   msg.Recipients,
		Priority:     string(msg.Priority),
		Status:       entity.NotificationStatusPending,
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
	if err := s.notificationRepo.Create(ctx, record); err != nil {
		s.logger.Error("Failed to create notification record", "error", err, "event", msg.Event)
		return nil, persistenceError("create notification", err)
	}

	if len(msg.Recipients) == 0 {
		s.markFailed(ctx, record, ErrNoRecipients.Error())
		return record, nil
	}

	result, err := s.sender.Send(ctx, msg)
	switch {
	case err != nil:
		s.logger.Error("Failed to deliver notification",
			"error", err,
			"notification_id", record.ID,
			"event", msg.Event,
		)
		s.markFailed(ctx, record, err.Error())
	case result == nil || !result.Success:
		reason := "delivery failed"
		if result != nil && result.ErrorMessage != "" {
			reason = result.ErrorMessage
		}
		s.markFailed(ctx, record, reason)
	default:
		messageID := strings.Join(result.MessageIDs, ",")
		if err := s.notificationRepo.MarkSent(ctx, record.ID, messageID); err != nil {
			s.logger.Error("Failed to mark notification sent", "error", err, "notification_id", record.ID)
		}
		now := time.Now().UTC()
		record.Status = entity.NotificationStatusSent
		record.MessageID = messageID
		record.SentAt = &now

		s.logger.Info("Notification sent",
			"notification_id", record.ID,
			"event", msg.Event,
			"recipients", len(msg.Recipients),
		)
	}

	return record, nil
}

// List returns outbox rows, newest first
func (s *notificationServiceImpl) List(ctx context.Context, limit, offset int) ([]*entity.NotificationRecord, error) {
	records, err := s.notificationRepo.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("Failed to list notifications", "error", err)
		return nil, persistenceError("list notifications", err)
	}
	return records, nil
}

// Subscribe registers the service on every domain event it turns into a notification
func (s *notificationServiceImpl) Subscribe(d dispatcher.Dispatcher) {
	for _, t := range []event.Type{
		event.TypeClaimRegistered,
		event.TypeClaimAssigned,
		event.TypeClaimStatusChanged,
		event.TypeClaimDeleted,
		event.TypeWorkflowCreated,
		event.TypeWorkflowStepDecided,
	} {
		d.SubscribeNamed(t, "notification-"+t.String(), s.HandleEvent)
	}
}

// HandleEvent maps a domain event onto a template and sends it.
// Events that do not warrant a notification are ignored.
func (s *notificationServiceImpl) HandleEvent(ctx context.Context, evt *event.Event) error {
	name, data, ok := s.mapEvent(evt)
	if !ok {
		return nil
	}

	record, err := s.Send(ctx, name, data, evt.ResourceType, evt.ResourceID)
	if err != nil {
		return fmt.Errorf("notify %s for %s: %w", name, evt.Type, err)
	}
	if record.Status == entity.NotificationStatusFailed {
		s.logger.Warn("Notification not delivered",
			"notification_id", record.ID,
			"event", name,
			"reason", record.ErrorMessage,
		)
	}
	return nil
}

func (s *notificationServiceImpl) mapEvent(evt *event.Event) (notification.Event, map[string]interface{}, bool) {
	switch evt.Type {
	case event.TypeClaimRegistered:
		return notification.EventClaimRegistered, claimData(evt), true

	case event.TypeClaimAssigned:
		data := claimData(evt)
		adjuster := evt.GetPayloadString("assigned_adjuster_id")
		data["adjusterName"] = adjuster
		if utils.ValidateEmail(adjuster) == nil {
			data["adjusterEmail"] = adjuster
		}
		return notification.EventClaimInvestigationAssigned, data, true

	case event.TypeClaimStatusChanged:
		data := claimData(evt)
		data["notes"] = evt.GetPayloadString("notes")
		if claim.Status(evt.GetPayloadString("new_status")) == claim.StatusSettled {
			data["paymentReference"] = evt.GetPayloadString("claim_number")
			return notification.EventSettlementProcessed, data, true
		}
		return notification.EventClaimUpdate, data, true

	case event.TypeClaimDeleted:
		return notification.EventAuditNotification, s.auditData(evt, entity.AuditActionDelete), true

	case event.TypeWorkflowCreated, event.TypeWorkflowStepDecided:
		if evt.GetPayloadInt("step_count") == 0 {
			return "", nil, false
		}
		if workflow.StepStatus(evt.GetPayloadString("status")) != workflow.StepPending {
			return "", nil, false
		}
		role := evt.GetPayloadString("next_role")
		if role == "" {
			return "", nil, false
		}
		return notification.EventApprovalRequired, map[string]interface{}{
			"workflowType": evt.GetPayloadString("workflow_type"),
			"amount":       evt.GetPayloadFloat("amount"),
			"reference":    fmt.Sprintf("WF-%d", evt.ResourceID),
			"approverRole": role,
			"requestedBy":  evt.GetPayloadString("initiated_by"),
			"recipients":   s.directory.RoleRecipients[role],
		}, true
	}
	return "", nil, false
}

func (s *notificationServiceImpl) auditData(evt *event.Event, action string) map[string]interface{} {
	return map[string]interface{}{
		"actor":        evt.Actor,
		"action":       action,
		"resourceType": evt.ResourceType,
		"resourceId":   evt.GetPayloadString("claim_number"),
		"timestamp":    evt.Timestamp.Format(time.RFC3339),
		"recipients":   s.directory.AuditRecipients,
	}
}

func (s *notificationServiceImpl) withDefaults(data map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(data)+1)
	if s.directory.BrokerName != "" {
		out["brokerName"] = s.directory.BrokerName
	}
	for k, v := range data {
		out[k] = v
	}
	return out
}

func (s *notificationServiceImpl) markFailed(ctx context.Context, record *entity.NotificationRecord, reason string) {
	if err := s.notificationRepo.MarkFailed(ctx, record.ID, reason); err != nil {
		s.logger.Error("Failed to mark notification failed", "error", err, "notification_id", record.ID)
	}
	record.Status = entity.NotificationStatusFailed
	record.ErrorMessage = reason
}

// claimData converts a claim event payload into template fields
func claimData(evt *event.Event) map[string]interface{} {
	data := map[string]interface{}{
		"claimNumber":      evt.GetPayloadString("claim_number"),
		"policyNumber":     evt.GetPayloadString("policy_id"),
		"clientName":       evt.GetPayloadString("client_name"),
		"clientEmail":      evt.GetPayloadString("client_email"),
		"claimedAmount":    evt.GetPayloadFloat("claimed_amount"),
		"settlementAmount": evt.GetPayloadFloat("settlement_amount"),
		"status":           evt.GetPayloadString("status"),
	}
	if incident, ok := evt.Payload["incident_date"].(time.Time); ok {
		data["incidentDate"] = incident
	}
	return data
}
