package repository

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/broker-workflow/internal/domain/claim"
	"github.com/garyjia/broker-workflow/internal/domain/entity"
	"github.com/garyjia/broker-workflow/internal/domain/workflow"
	"github.com/garyjia/broker-workflow/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/broker-workflow/pkg/database"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	logger := zap.NewNop()

	db, err := database.New(database.Config{Path: database.MemoryPath}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.NewMigrator(db, logger).Migrate())
	return db.DB
}

func newClaim(number string) *entity.Claim {
	incident := time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC)
	return &entity.Claim{
		OrganizationID: "org-1",
		ClaimNumber:    number,
		PolicyID:       "pol-1",
		ClientID:       "cli-1",
		ClaimType:      "motor",
		Description:    "rear-end collision",
		IncidentDate:   &incident,
		ClaimedAmount:  1_250_000,
		Status:         claim.StatusRegistered,
	}
}

func TestClaimRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewClaimRepository(setupTestDB(t), zap.NewNop())

	c := newClaim("CLM-2026-000001")
	require.NoError(t, repo.Create(ctx, c))
	require.NotZero(t, c.ID)

	got, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "CLM-2026-000001", got.ClaimNumber)
	assert.Equal(t, claim.StatusRegistered, got.Status)
	require.NotNil(t, got.IncidentDate)
	assert.True(t, c.IncidentDate.Equal(*got.IncidentDate))
	assert.Equal(t, 1_250_000.0, got.ClaimedAmount)

	byNumber, err := repo.GetByNumber(ctx, "CLM-2026-000001")
	require.NoError(t, err)
	assert.Equal(t, c.ID, byNumber.ID)

	updated, err := repo.UpdateStatus(ctx, c.ID, claim.StatusRejected, "duplicate claim")
	require.NoError(t, err)
	assert.Equal(t, claim.StatusRejected, updated.Status)
	assert.Equal(t, "duplicate claim", updated.StatusNotes)

	assigned, err := repo.AssignAdjuster(ctx, c.ID, "adj-9")
	require.NoError(t, err)
	assert.Equal(t, "adj-9", assigned.AssignedAdjusterID)

	checked, err := repo.UpdateChecklist(ctx, c.ID, workflow.ClaimsWorkflowInput{
		InvestigationComplete: true,
		DocumentsComplete:     true,
		SettlementAmount:      900_000,
	})
	require.NoError(t, err)
	assert.True(t, checked.InvestigationComplete)
	assert.True(t, checked.DocumentsComplete)
	assert.False(t, checked.UnderwriterApproved)
	assert.Equal(t, 900_000.0, checked.SettlementAmount)

	require.NoError(t, repo.Delete(ctx, c.ID))
	gone, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestClaimRepository_MissingClaim(t *testing.T) {
	ctx := context.Background()
	repo := NewClaimRepository(setupTestDB(t), zap.NewNop())

	got, err := repo.UpdateStatus(ctx, 404, claim.StatusInvestigating, "")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = repo.AssignAdjuster(ctx, 404, "adj")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestClaimRepository_StatusCheckConstraint(t *testing.T) {
	ctx := context.Background()
	repo := NewClaimRepository(setupTestDB(t), zap.NewNop())

	c := newClaim("CLM-X")
	c.Status = claim.Status("paid")
	assert.Error(t, repo.Create(ctx, c))
}

func TestClaimRepository_List(t *testing.T) {
	ctx := context.Background()
	repo := NewClaimRepository(setupTestDB(t), zap.NewNop())

	for i, number := range []string{"A", "B", "C"} {
		c := newClaim(number)
		if i == 2 {
			c.OrganizationID = "org-2"
		}
		require.NoError(t, repo.Create(ctx, c))
	}
	_, err := repo.UpdateStatus(ctx, 1, claim.StatusInvestigating, "")
	require.NoError(t, err)

	all, err := repo.List(ctx, entity.ClaimFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	org1, err := repo.List(ctx, entity.ClaimFilter{OrganizationID: "org-1"})
	require.NoError(t, err)
	assert.Len(t, org1, 2)

	investigating, err := repo.List(ctx, entity.ClaimFilter{Status: claim.StatusInvestigating})
	require.NoError(t, err)
	require.Len(t, investigating, 1)
	assert.Equal(t, "A", investigating[0].ClaimNumber)

	page, err := repo.List(ctx, entity.ClaimFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Len(t, page, 1)
}

func TestClaimRepository_NextSequence(t *testing.T) {
	ctx := context.Background()
	repo := NewClaimRepository(setupTestDB(t), zap.NewNop())

	for want := int64(1); want <= 3; want++ {
		got, err := repo.NextSequence(ctx, "org-1", 2026)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	other, err := repo.NextSequence(ctx, "org-2", 2026)
	require.NoError(t, err)
	assert.Equal(t, int64(1), other)

	nextYear, err := repo.NextSequence(ctx, "org-1", 2027)
	require.NoError(t, err)
	assert.Equal(t, int64(1), nextYear)
}

func TestAuditLogRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewAuditLogRepository(setupTestDB(t), zap.NewNop())

	first := &entity.AuditLog{
		ResourceType: entity.ResourceClaim,
		ResourceID:   7,
		Action:       entity.AuditActionStatusChange,
		OldValues:    map[string]interface{}{"status": "registered"},
		NewValues:    map[string]interface{}{"status": "investigating", "notes": ""},
		Severity:     entity.SeverityMedium,
		Actor:        "u-1",
	}
	require.NoError(t, repo.Append(ctx, first))
	assert.NotZero(t, first.ID)
	assert.False(t, first.Timestamp.IsZero())

	require.NoError(t, repo.Append(ctx, &entity.AuditLog{
		ResourceType: entity.ResourceClaim,
		ResourceID:   8,
		Action:       entity.AuditActionDelete,
		OldValues:    map[string]interface{}{"claim_number": "CLM-8"},
		Severity:     entity.SeverityHigh,
		Actor:        "u-2",
	}))

	logs, err := repo.List(ctx, entity.AuditLogFilter{ResourceType: entity.ResourceClaim, ResourceID: 7})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "registered", logs[0].OldValues["status"])
	assert.Equal(t, "investigating", logs[0].NewValues["status"])
	assert.Equal(t, "u-1", logs[0].Actor)

	deletes, err := repo.List(ctx, entity.AuditLogFilter{Action: entity.AuditActionDelete})
	require.NoError(t, err)
	require.Len(t, deletes, 1)
	assert.Nil(t, deletes[0].NewValues)

	all, err := repo.List(ctx, entity.AuditLogFilter{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestWorkflowRepository(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewWorkflowRepository(db, zap.NewNop())

	limit := 5_000_000.0
	w := &entity.WorkflowInstance{
		WorkflowType:  workflow.TypeClaims,
		ResourceType:  entity.ResourceClaim,
		ResourceID:    3,
		Amount:        6_000_000,
		InitiatorRole: workflow.RoleClaimsOfficer,
		InitiatedBy:   "u-1",
		Status:        workflow.StepPending,
		Steps: []entity.WorkflowStep{
			{Step: workflow.Step{Sequence: 1, Name: workflow.StepNameComplianceReview, RoleRequired: workflow.RoleCompliance, ApprovalLimit: &limit, Status: workflow.StepPending}},
			{Step: workflow.Step{Sequence: 2, Name: workflow.StepNameUnderwriterReview, RoleRequired: workflow.RoleUnderwriter, Status: workflow.StepPending}},
		},
	}
	require.NoError(t, repo.Create(ctx, w))
	require.NotZero(t, w.ID)
	for _, s := range w.Steps {
		assert.NotZero(t, s.ID)
		assert.Equal(t, w.ID, s.WorkflowID)
	}

	got, err := repo.GetByID(ctx, w.ID)
	require.NoError(t, err)
	require.Len(t, got.Steps, 2)
	require.NotNil(t, got.Steps[0].ApprovalLimit)
	assert.Equal(t, limit, *got.Steps[0].ApprovalLimit)
	assert.Nil(t, got.Steps[1].ApprovalLimit)

	compliance, err := repo.ListPendingForRole(ctx, workflow.RoleCompliance, 10)
	require.NoError(t, err)
	assert.Len(t, compliance, 1)

	underwriter, err := repo.ListPendingForRole(ctx, workflow.RoleUnderwriter, 10)
	require.NoError(t, err)
	assert.Empty(t, underwriter, "underwriter step is not next yet")

	now := time.Now().UTC()
	step := got.Steps[0]
	require.NoError(t, step.Decide(workflow.DecisionApprove, "c-1", workflow.RoleCompliance, "", now))
	require.NoError(t, repo.UpdateStep(ctx, &step))

	err = repo.UpdateStep(ctx, &step)
	assert.True(t, errors.Is(err, workflow.ErrStepAlreadyDecided))

	reloaded, err := repo.GetStep(ctx, step.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StepApproved, reloaded.Status)
	assert.Equal(t, "c-1", reloaded.ApprovedBy)
	require.NotNil(t, reloaded.ApprovedAt)

	underwriter, err = repo.ListPendingForRole(ctx, workflow.RoleUnderwriter, 10)
	require.NoError(t, err)
	assert.Len(t, underwriter, 1)

	require.NoError(t, repo.UpdateStatus(ctx, w.ID, workflow.StepRejected))
	pending, err := repo.ListPendingForRole(ctx, "", 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	missing, err := repo.GetStep(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestWorkflowRepository_CreateInTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewWorkflowRepository(db, zap.NewNop())
	tm := sqlite.NewDB(db, zap.NewNop())

	w := &entity.WorkflowInstance{
		WorkflowType:  workflow.TypePayments,
		Amount:        10,
		InitiatorRole: workflow.RoleAccountant,
		InitiatedBy:   "u-1",
		Status:        workflow.StepPending,
		Steps: []entity.WorkflowStep{
			{Step: workflow.Step{Sequence: 1, Name: "a", RoleRequired: "x", Status: workflow.StepPending}},
			{Step: workflow.Step{Sequence: 1, Name: "dup", RoleRequired: "x", Status: workflow.StepPending}},
		},
	}

	err := tm.WithTransaction(ctx, func(txCtx context.Context) error {
		return repo.Create(txCtx, w)
	})
	require.Error(t, err)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM workflow_instances`).Scan(&n))
	assert.Equal(t, 0, n)
}

func TestNotificationRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewNotificationRepository(setupTestDB(t), zap.NewNop())

	n := &entity.NotificationRecord{
		EventName:    "claim_registered",
		Channel:      "email",
		Subject:      "Claim Registered - CLM-1",
		Body:         "body",
		Recipients:   []string{"a@example.com"},
		Priority:     "medium",
		ResourceType: entity.ResourceClaim,
		ResourceID:   1,
	}
	require.NoError(t, repo.Create(ctx, n))
	assert.Equal(t, entity.NotificationStatusPending, n.Status)

	require.NoError(t, repo.MarkSent(ctx, n.ID, "om_123"))
	sent, err := repo.GetByID(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.NotificationStatusSent, sent.Status)
	assert.Equal(t, "om_123", sent.MessageID)
	assert.Equal(t, []string{"a@example.com"}, sent.Recipients)
	assert.NotNil(t, sent.SentAt)

	other := &entity.NotificationRecord{EventName: "payment_received", Channel: "sms", Subject: "s", Body: "b", Priority: "medium"}
	require.NoError(t, repo.Create(ctx, other))
	require.NoError(t, repo.MarkFailed(ctx, other.ID, "no recipients"))

	list, err := repo.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, other.ID, list[0].ID)
	assert.Equal(t, entity.NotificationStatusFailed, list[0].Status)
	assert.Equal(t, "no recipients", list[0].ErrorMessage)
	assert.Empty(t, list[0].Recipients)
}

func TestClaimRepository_ConcurrentSequence(t *testing.T) {
	ctx := context.Background()
	repo := NewClaimRepository(setupTestDB(t), zap.NewNop())

	var wg sync.WaitGroup
	seen := make(chan int64, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := repo.NextSequence(ctx, "org-1", 2026)
			assert.NoError(t, err)
			seen <- v
		}()
	}
	wg.Wait()
	close(seen)

	unique := map[int64]bool{}
	for v := range seen {
		unique[v] = true
	}
	assert.Len(t, unique, 20)
}
