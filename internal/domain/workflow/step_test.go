package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStep_Decide(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("approve by required role", func(t *testing.T) {
		s := Step{Name: "Final Approval", RoleRequired: RoleBrokerAdmin, Status: StepPending}
		require.NoError(t, s.Decide(DecisionApprove, "u-1", RoleBrokerAdmin, "", now))

		assert.Equal(t, StepApproved, s.Status)
		assert.Equal(t, "u-1", s.ApprovedBy)
		require.NotNil(t, s.ApprovedAt)
		assert.Equal(t, now, *s.ApprovedAt)
	})

	t.Run("superadmin may decide any step", func(t *testing.T) {
		s := Step{RoleRequired: RoleCompliance, Status: StepPending}
		assert.NoError(t, s.Decide(DecisionApprove, "root", RoleSuperAdmin, "", now))
	})

	t.Run("other roles are refused", func(t *testing.T) {
		s := Step{RoleRequired: RoleCompliance, Status: StepPending}
		assert.ErrorIs(t, s.Decide(DecisionApprove, "u-2", RoleAgent, "", now), ErrRoleNotPermitted)
		assert.Equal(t, StepPending, s.Status)
	})

	t.Run("reject needs comments", func(t *testing.T) {
		s := Step{RoleRequired: RoleCompliance, Status: StepPending}
		assert.ErrorIs(t, s.Decide(DecisionReject, "u-3", RoleCompliance, " ", now), ErrCommentsRequired)
		assert.Equal(t, StepPending, s.Status)

		require.NoError(t, s.Decide(DecisionReject, "u-3", RoleCompliance, "missing police report", now))
		assert.Equal(t, StepRejected, s.Status)
		assert.Equal(t, "missing police report", s.Comments)
	})

	t.Run("decided steps are terminal", func(t *testing.T) {
		for _, status := range []StepStatus{StepApproved, StepRejected} {
			s := Step{RoleRequired: RoleCompliance, Status: status}
			assert.ErrorIs(t, s.Decide(DecisionApprove, "u-4", RoleCompliance, "", now), ErrStepAlreadyDecided)
			assert.Equal(t, status, s.Status)
		}
	})

	t.Run("unknown decision", func(t *testing.T) {
		s := Step{RoleRequired: RoleCompliance, Status: StepPending}
		assert.ErrorIs(t, s.Decide(Decision("escalate"), "u-5", RoleCompliance, "", now), ErrInvalidDecision)
	})
}

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name  string
		steps []StepStatus
		want  StepStatus
	}{
		{"empty is approved", nil, StepApproved},
		{"all approved", []StepStatus{StepApproved, StepApproved}, StepApproved},
		{"some pending", []StepStatus{StepApproved, StepPending}, StepPending},
		{"any rejection", []StepStatus{StepApproved, StepRejected, StepPending}, StepRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			steps := make([]Step, len(tt.steps))
			for i, s := range tt.steps {
				steps[i].Status = s
			}
			assert.Equal(t, tt.want, DeriveStatus(steps))
		})
	}
}

func TestNextPending(t *testing.T) {
	steps := []Step{{Status: StepApproved}, {Status: StepPending}, {Status: StepPending}}
	assert.Equal(t, 1, NextPending(steps))
	assert.Equal(t, -1, NextPending(steps[:1]))
}
