package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/garyjia/broker-workflow/internal/domain/claim"
	"github.com/garyjia/broker-workflow/internal/domain/entity"
	"github.com/garyjia/broker-workflow/internal/domain/event"
	"github.com/garyjia/broker-workflow/internal/domain/notification"
	"github.com/garyjia/broker-workflow/internal/domain/workflow"
)

type mockLogger struct {
	mu     sync.Mutex
	infos  []string
	warns  []string
	errors []string
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos = append(m.infos, msg)
}

func (m *mockLogger) Warn(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warns = append(m.warns, msg)
}

func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, msg)
}

type mockTxManager struct {
	calls int
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	return fn(ctx)
}

type recordingPublisher struct {
	events []*event.Event
}

func (p *recordingPublisher) Publish(_ context.Context, evt *event.Event) {
	p.events = append(p.events, evt)
}

func (p *recordingPublisher) types() []event.Type {
	types := make([]event.Type, len(p.events))
	for i, e := range p.events {
		types[i] = e.Type
	}
	return types
}

type recordingAudit struct {
	logs []*entity.AuditLog
}

func (a *recordingAudit) Record(_ context.Context, log *entity.AuditLog) {
	a.logs = append(a.logs, log)
}

type mockClaimRepo struct {
	claims map[int64]*entity.Claim

	getByIDFunc      func(ctx context.Context, id int64) (*entity.Claim, error)
	updateStatusFunc func(ctx context.Context, id int64, status claim.Status, notes string) (*entity.Claim, error)
	deleteFunc       func(ctx context.Context, id int64) error
	createFunc       func(ctx context.Context, c *entity.Claim) error

	updateStatusCalls int
	seq               int64
	nextID            int64
}

func newMockClaimRepo(claims ...*entity.Claim) *mockClaimRepo {
	m := &mockClaimRepo{claims: make(map[int64]*entity.Claim)}
	for _, c := range claims {
		m.claims[c.ID] = c
		if c.ID > m.nextID {
			m.nextID = c.ID
		}
	}
	return m
}

func (m *mockClaimRepo) Create(ctx context.Context, c *entity.Claim) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, c)
	}
	m.nextID++
	c.ID = m.nextID
	stored := *c
	m.claims[c.ID] = &stored
	return nil
}

func (m *mockClaimRepo) GetByID(ctx context.Context, id int64) (*entity.Claim, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	c, ok := m.claims[id]
	if !ok {
		return nil, nil
	}
	copied := *c
	return &copied, nil
}

func (m *mockClaimRepo) GetByNumber(_ context.Context, claimNumber string) (*entity.Claim, error) {
	for _, c := range m.claims {
		if c.ClaimNumber == claimNumber {
			copied := *c
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *mockClaimRepo) List(_ context.Context, filter entity.ClaimFilter) ([]*entity.Claim, error) {
	out := make([]*entity.Claim, 0)
	for _, c := range m.claims {
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		copied := *c
		out = append(out, &copied)
	}
	return out, nil
}

func (m *mockClaimRepo) UpdateStatus(ctx context.Context, id int64, status claim.Status, notes string) (*entity.Claim, error) {
	m.updateStatusCalls++
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, id, status, notes)
	}
	c, ok := m.claims[id]
	if !ok {
		return nil, nil
	}
	c.Status = status
	c.StatusNotes = notes
	copied := *c
	return &copied, nil
}

func (m *mockClaimRepo) AssignAdjuster(_ context.Context, id int64, adjusterID string) (*entity.Claim, error) {
	c, ok := m.claims[id]
	if !ok {
		return nil, nil
	}
	c.AssignedAdjusterID = adjusterID
	copied := *c
	return &copied, nil
}

func (m *mockClaimRepo) UpdateChecklist(_ context.Context, id int64, checklist workflow.ClaimsWorkflowInput) (*entity.Claim, error) {
	c, ok := m.claims[id]
	if !ok {
		return nil, nil
	}
	c.InvestigationComplete = checklist.InvestigationComplete
	c.DocumentsComplete = checklist.DocumentsComplete
	c.UnderwriterApproved = checklist.UnderwriterApproved
	c.SettlementAmount = checklist.SettlementAmount
	copied := *c
	return &copied, nil
}

func (m *mockClaimRepo) Delete(ctx context.Context, id int64) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	delete(m.claims, id)
	return nil
}

func (m *mockClaimRepo) NextSequence(_ context.Context, _ string, _ int) (int64, error) {
	m.seq++
	return m.seq, nil
}

type mockAuditRepo struct {
	appendErr error
	appended  []*entity.AuditLog
	listFunc  func(ctx context.Context, filter entity.AuditLogFilter) ([]*entity.AuditLog, error)
}

func (m *mockAuditRepo) Append(_ context.Context, log *entity.AuditLog) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.appended = append(m.appended, log)
	return nil
}

func (m *mockAuditRepo) List(ctx context.Context, filter entity.AuditLogFilter) ([]*entity.AuditLog, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, filter)
	}
	return m.appended, nil
}

// memWorkflowRepo keeps workflows in memory with the same pending-only step update rule as SQL
type memWorkflowRepo struct {
	workflows  map[int64]*entity.WorkflowInstance
	nextID     int64
	nextStepID int64
	createErr  error
}

func newMemWorkflowRepo() *memWorkflowRepo {
	return &memWorkflowRepo{workflows: make(map[int64]*entity.WorkflowInstance)}
}

func (m *memWorkflowRepo) Create(_ context.Context, w *entity.WorkflowInstance) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.nextID++
	w.ID = m.nextID
	for i := range w.Steps {
		m.nextStepID++
		w.Steps[i].ID = m.nextStepID
		w.Steps[i].WorkflowID = w.ID
	}
	m.workflows[w.ID] = cloneWorkflow(w)
	return nil
}

func (m *memWorkflowRepo) GetByID(_ context.Context, id int64) (*entity.WorkflowInstance, error) {
	w, ok := m.workflows[id]
	if !ok {
		return nil, nil
	}
	return cloneWorkflow(w), nil
}

func (m *memWorkflowRepo) GetStep(_ context.Context, stepID int64) (*entity.WorkflowStep, error) {
	for _, w := range m.workflows {
		for _, s := range w.Steps {
			if s.ID == stepID {
				copied := s
				return &copied, nil
			}
		}
	}
	return nil, nil
}

func (m *memWorkflowRepo) UpdateStep(_ context.Context, step *entity.WorkflowStep) error {
	w, ok := m.workflows[step.WorkflowID]
	if !ok {
		return fmt.Errorf("workflow %d missing", step.WorkflowID)
	}
	for i := range w.Steps {
		if w.Steps[i].ID != step.ID {
			continue
		}
		if w.Steps[i].Status != workflow.StepPending {
			return fmt.Errorf("%w: step %d", workflow.ErrStepAlreadyDecided, step.ID)
		}
		w.Steps[i] = *step
		return nil
	}
	return fmt.Errorf("step %d missing", step.ID)
}

func (m *memWorkflowRepo) UpdateStatus(_ context.Context, id int64, status workflow.StepStatus) error {
	w, ok := m.workflows[id]
	if !ok {
		return fmt.Errorf("workflow %d missing", id)
	}
	w.Status = status
	return nil
}

func (m *memWorkflowRepo) ListPendingForRole(_ context.Context, role string, _ int) ([]*entity.WorkflowInstance, error) {
	out := make([]*entity.WorkflowInstance, 0)
	for _, w := range m.workflows {
		if w.Status != workflow.StepPending {
			continue
		}
		next := workflow.NextPending(w.DomainSteps())
		if role == "" || (next >= 0 && w.Steps[next].RoleRequired == role) {
			out = append(out, cloneWorkflow(w))
		}
	}
	return out, nil
}

func cloneWorkflow(w *entity.WorkflowInstance) *entity.WorkflowInstance {
	copied := *w
	copied.Steps = append([]entity.WorkflowStep(nil), w.Steps...)
	return &copied
}

type memNotificationRepo struct {
	records   map[int64]*entity.NotificationRecord
	nextID    int64
	createErr error
}

func newMemNotificationRepo() *memNotificationRepo {
	return &memNotificationRepo{records: make(map[int64]*entity.NotificationRecord)}
}

func (m *memNotificationRepo) Create(_ context.Context, n *entity.NotificationRecord) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.nextID++
	n.ID = m.nextID
	copied := *n
	m.records[n.ID] = &copied
	return nil
}

func (m *memNotificationRepo) GetByID(_ context.Context, id int64) (*entity.NotificationRecord, error) {
	n, ok := m.records[id]
	if !ok {
		return nil, nil
	}
	copied := *n
	return &copied, nil
}

func (m *memNotificationRepo) MarkSent(_ context.Context, id int64, messageID string) error {
	m.records[id].Status = entity.NotificationStatusSent
	m.records[id].MessageID = messageID
	return nil
}

func (m *memNotificationRepo) MarkFailed(_ context.Context, id int64, errMsg string) error {
	m.records[id].Status = entity.NotificationStatusFailed
	m.records[id].ErrorMessage = errMsg
	return nil
}

func (m *memNotificationRepo) List(_ context.Context, _, _ int) ([]*entity.NotificationRecord, error) {
	out := make([]*entity.NotificationRecord, 0, len(m.records))
	for id := m.nextID; id > 0; id-- {
		if n, ok := m.records[id]; ok {
			out = append(out, n)
		}
	}
	return out, nil
}

type mockSender struct {
	sent     []notification.Template
	sendFunc func(ctx context.Context, msg notification.Template) (*entity.DeliveryResult, error)
}

func (m *mockSender) Send(ctx context.Context, msg notification.Template) (*entity.DeliveryResult, error) {
	m.sent = append(m.sent, msg)
	if m.sendFunc != nil {
		return m.sendFunc(ctx, msg)
	}
	ids := make([]string, len(msg.Recipients))
	for i := range msg.Recipients {
		ids[i] = fmt.Sprintf("msg-%d", i+1)
	}
	return &entity.DeliveryResult{Success: true, MessageIDs: ids}, nil
}
