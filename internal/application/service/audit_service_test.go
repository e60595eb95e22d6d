package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/garyjia/broker-workflow/internal/application/port"
	"github.com/garyjia/broker-workflow/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockExporter struct {
	exportFunc func(ctx context.Context, logs []*entity.AuditLog, w io.Writer) error
}

func (m *mockExporter) Export(ctx context.Context, logs []*entity.AuditLog, w io.Writer) error {
	if m.exportFunc != nil {
		return m.exportFunc(ctx, logs, w)
	}
	_, err := w.Write([]byte("exported"))
	return err
}

func (m *mockExporter) ContentType() string   { return "text/plain" }
func (m *mockExporter) FileExtension() string { return ".txt" }

func TestAuditRecord_FillsDefaults(t *testing.T) {
	repo := &mockAuditRepo{}
	svc := NewAuditService(repo, nil, &mockLogger{})
	ctx := port.WithActor(context.Background(), port.Actor{UserID: "u-1"})

	svc.Record(ctx, &entity.AuditLog{ResourceType: entity.ResourceClaim, ResourceID: 1, Action: entity.AuditActionCreate})

	require.Len(t, repo.appended, 1)
	log := repo.appended[0]
	assert.Equal(t, "u-1", log.Actor)
	assert.Equal(t, entity.SeverityMedium, log.Severity)
	assert.False(t, log.Timestamp.IsZero())
}

func TestAuditRecord_SystemActor(t *testing.T) {
	repo := &mockAuditRepo{}
	svc := NewAuditService(repo, nil, &mockLogger{})

	svc.Record(context.Background(), &entity.AuditLog{Action: entity.AuditActionDelete})
	require.Len(t, repo.appended, 1)
	assert.Equal(t, entity.SystemActor, repo.appended[0].Actor)
}

func TestAuditRecord_FailureIsLogged(t *testing.T) {
	logger := &mockLogger{}
	svc := NewAuditService(&mockAuditRepo{appendErr: errors.New("no such table")}, nil, logger)

	assert.NotPanics(t, func() {
		svc.Record(context.Background(), &entity.AuditLog{Action: entity.AuditActionCreate})
	})
	assert.Equal(t, []string{"Failed to append audit log"}, logger.errors)
}

func TestAuditHistory(t *testing.T) {
	var got entity.AuditLogFilter
	repo := &mockAuditRepo{listFunc: func(_ context.Context, filter entity.AuditLogFilter) ([]*entity.AuditLog, error) {
		got = filter
		return []*entity.AuditLog{{ID: 1}}, nil
	}}
	svc := NewAuditService(repo, nil, &mockLogger{})

	logs, err := svc.History(context.Background(), entity.ResourceClaim, 7)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
	assert.Equal(t, entity.ResourceClaim, got.ResourceType)
	assert.Equal(t, int64(7), got.ResourceID)

	repo.listFunc = func(context.Context, entity.AuditLogFilter) ([]*entity.AuditLog, error) {
		return nil, errors.New("locked")
	}
	_, err = svc.History(context.Background(), entity.ResourceClaim, 7)
	assert.True(t, errors.Is(err, entity.ErrPersistence))
}

func TestAuditExport(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		svc := NewAuditService(&mockAuditRepo{}, nil, &mockLogger{})
		err := svc.Export(context.Background(), entity.AuditLogFilter{}, io.Discard)
		assert.True(t, errors.Is(err, entity.ErrValidation))
	})

	t.Run("writes through exporter", func(t *testing.T) {
		svc := NewAuditService(&mockAuditRepo{}, &mockExporter{}, &mockLogger{})
		var buf bytes.Buffer
		require.NoError(t, svc.Export(context.Background(), entity.AuditLogFilter{}, &buf))
		assert.Equal(t, "exported", buf.String())
	})
}
