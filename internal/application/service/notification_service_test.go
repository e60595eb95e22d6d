package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/garyjia/broker-workflow/internal/application/dispatcher"
	"github.com/garyjia/broker-workflow/internal/domain/entity"
	"github.com/garyjia/broker-workflow/internal/domain/event"
	"github.com/garyjia/broker-workflow/internal/domain/notification"
	"github.com/garyjia/broker-workflow/internal/domain/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNotificationFixture() (*memNotificationRepo, *mockSender, *mockLogger, NotificationService) {
	repo := newMemNotificationRepo()
	sender := &mockSender{}
	logger := &mockLogger{}
	svc := NewNotificationService(repo, sender, NotificationDirectory{
		RoleRecipients: map[string][]string{
			workflow.RoleCompliance: {"compliance@broker.ng"},
		},
		AuditRecipients: []string{"audit@broker.ng"},
		BrokerName:      "Acme Brokers",
	}, logger)
	return repo, sender, logger, svc
}

func TestNotificationPreview(t *testing.T) {
	_, sender, _, svc := newNotificationFixture()

	msg := svc.Preview(notification.EventQuoteReady, map[string]interface{}{
		"clientName":  "Ada",
		"quoteNumber": "Q-1",
		"clientEmail": "ada@example.com",
	})
	assert.Equal(t, "Your Insurance Quote is Ready - Q-1", msg.Subject)
	assert.Contains(t, msg.Template, "Acme Brokers")
	assert.Equal(t, []string{"ada@example.com"}, msg.Recipients)
	assert.Empty(t, sender.sent, "preview never sends")
}

func TestNotificationSend_Delivered(t *testing.T) {
	repo, sender, _, svc := newNotificationFixture()

	record, err := svc.Send(context.Background(), notification.EventClaimRegistered, map[string]interface{}{
		"claimNumber": "CLM-2026-000001",
		"clientEmail": "ada@example.com",
	}, entity.ResourceClaim, 1)
	require.NoError(t, err)
	assert.Equal(t, entity.NotificationStatusSent, record.Status)
	assert.Equal(t, "msg-1", record.MessageID)
	require.Len(t, sender.sent, 1)

	stored, err := repo.GetByID(context.Background(), record.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.NotificationStatusSent, stored.Status)
}

func TestNotificationSend_Failures(t *testing.T) {
	t.Run("no recipients", func(t *testing.T) {
		repo, sender, _, svc := newNotificationFixture()

		record, err := svc.Send(context.Background(), notification.EventClaimUpdate, nil, "", 0)
		require.NoError(t, err)
		assert.Equal(t, entity.NotificationStatusFailed, record.Status)
		assert.Equal(t, ErrNoRecipients.Error(), record.ErrorMessage)
		assert.Empty(t, sender.sent)
		assert.Equal(t, entity.NotificationStatusFailed, repo.records[record.ID].Status)
	})

	t.Run("sender error", func(t *testing.T) {
		_, sender, logger, svc := newNotificationFixture()
		sender.sendFunc = func(context.Context, notification.Template) (*entity.DeliveryResult, error) {
			return nil, errors.New("lark unavailable")
		}

		record, err := svc.Send(context.Background(), notification.EventClaimUpdate, map[string]interface{}{
			"clientEmail": "ada@example.com",
		}, "", 0)
		require.NoError(t, err)
		assert.Equal(t, entity.NotificationStatusFailed, record.Status)
		assert.Equal(t, "lark unavailable", record.ErrorMessage)
		assert.Contains(t, logger.errors, "Failed to deliver notification")
	})

	t.Run("outbox write", func(t *testing.T) {
		repo, _, _, svc := newNotificationFixture()
		repo.createErr = errors.New("readonly database")

		_, err := svc.Send(context.Background(), notification.EventClaimUpdate, nil, "", 0)
		assert.True(t, errors.Is(err, entity.ErrPersistence))
	})
}

func TestNotificationHandleEvent(t *testing.T) {
	claimPayload := func(extra map[string]interface{}) map[string]interface{} {
		payload := map[string]interface{}{
			"claim_number":   "CLM-2026-000009",
			"client_email":   "ada@example.com",
			"claimed_amount": 1250000.0,
		}
		for k, v := range extra {
			payload[k] = v
		}
		return payload
	}

	tests := []struct {
		name       string
		evt        *event.Event
		wantEvent  notification.Event
		wantTo     []string
		wantIgnore bool
	}{
		{
			name:      "registered",
			evt:       event.NewEvent(event.TypeClaimRegistered, entity.ResourceClaim, 9, "u", claimPayload(nil)),
			wantEvent: notification.EventClaimRegistered,
			wantTo:    []string{"ada@example.com"},
		},
		{
			name: "assigned",
			evt: event.NewEvent(event.TypeClaimAssigned, entity.ResourceClaim, 9, "u", claimPayload(map[string]interface{}{
				"assigned_adjuster_id": "adj@broker.ng",
			})),
			wantEvent: notification.EventClaimInvestigationAssigned,
			wantTo:    []string{"adj@broker.ng"},
		},
		{
			name: "settled",
			evt: event.NewEvent(event.TypeClaimStatusChanged, entity.ResourceClaim, 9, "u", claimPayload(map[string]interface{}{
				"new_status": "settled",
			})),
			wantEvent: notification.EventSettlementProcessed,
			wantTo:    []string{"ada@example.com"},
		},
		{
			name: "other status change",
			evt: event.NewEvent(event.TypeClaimStatusChanged, entity.ResourceClaim, 9, "u", claimPayload(map[string]interface{}{
				"new_status": "investigating",
			})),
			wantEvent: notification.EventClaimUpdate,
			wantTo:    []string{"ada@example.com"},
		},
		{
			name:      "deleted",
			evt:       event.NewEvent(event.TypeClaimDeleted, entity.ResourceClaim, 9, "u", claimPayload(nil)),
			wantEvent: notification.EventAuditNotification,
			wantTo:    []string{"audit@broker.ng"},
		},
		{
			name: "workflow with steps",
			evt: event.NewEvent(event.TypeWorkflowCreated, entity.ResourceWorkflow, 3, "u", map[string]interface{}{
				"workflow_type": "claims",
				"amount":        2000000.0,
				"status":        "pending",
				"step_count":    2,
				"next_role":     workflow.RoleCompliance,
			}),
			wantEvent: notification.EventApprovalRequired,
			wantTo:    []string{"compliance@broker.ng"},
		},
		{
			name: "auto-approved workflow",
			evt: event.NewEvent(event.TypeWorkflowCreated, entity.ResourceWorkflow, 4, "u", map[string]interface{}{
				"status":     "approved",
				"step_count": 0,
			}),
			wantIgnore: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, sender, _, svc := newNotificationFixture()

			require.NoError(t, svc.HandleEvent(context.Background(), tt.evt))

			if tt.wantIgnore {
				assert.Empty(t, sender.sent)
				return
			}
			require.Len(t, sender.sent, 1)
			assert.Equal(t, tt.wantEvent, sender.sent[0].Event)
			assert.Equal(t, tt.wantTo, sender.sent[0].Recipients)
		})
	}
}

func TestNotificationSubscribe(t *testing.T) {
	_, sender, _, svc := newNotificationFixture()
	d := dispatcher.NewDispatcher()
	defer d.Close()

	svc.Subscribe(d)
	assert.Len(t, d.ListHandlers(event.TypeClaimRegistered), 1)

	evt := event.NewEvent(event.TypeClaimRegistered, entity.ResourceClaim, 1, "u", map[string]interface{}{
		"claim_number":  "CLM-2026-000001",
		"client_email":  "ada@example.com",
		"incident_date": time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, d.Dispatch(context.Background(), evt))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "Claim Registered - CLM-2026-000001", sender.sent[0].Subject)
}
