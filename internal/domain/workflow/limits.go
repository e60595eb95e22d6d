package workflow

// ApprovalLimit is one role's ceiling within an approval domain
type ApprovalLimit struct {
	RoleID      string  `json:"role_id" yaml:"role_id" mapstructure:"role_id"`
	MaxAmount   float64 `json:"max_amount" yaml:"max_amount" mapstructure:"max_amount"`
	AutoApprove bool    `json:"auto_approve" yaml:"auto_approve" mapstructure:"auto_approve"`
}

// Limits maps each approval domain to its per-role ceilings.
// Entries within a domain are independent ceilings, not an escalation chain.
type Limits map[Type][]ApprovalLimit

// DefaultLimits returns the standard ceilings in naira
func DefaultLimits() Limits {
	return Limits{
		TypeUnderwriting: {
			{RoleID: RoleAgent, MaxAmount: 1_000_000, AutoApprove: true},
			{RoleID: RoleUnderwriter, MaxAmount: 5_000_000, AutoApprove: true},
			{RoleID: RoleBrokerAdmin, MaxAmount: 10_000_000, AutoApprove: true},
			{RoleID: RoleSuperAdmin, MaxAmount: 50_000_000, AutoApprove: true},
		},
		TypeClaims: {
			{RoleID: RoleClaimsOfficer, MaxAmount: 500_000, AutoApprove: true},
			{RoleID: RoleCompliance, MaxAmount: 5_000_000, AutoApprove: true},
			{RoleID: RoleBrokerAdmin, MaxAmount: 20_000_000, AutoApprove: true},
			{RoleID: RoleSuperAdmin, MaxAmount: 100_000_000, AutoApprove: true},
		},
		TypePayments: {
			{RoleID: RoleAccountant, MaxAmount: 2_000_000, AutoApprove: true},
			{RoleID: RoleBrokerAdmin, MaxAmount: 10_000_000, AutoApprove: true},
			{RoleID: RoleSuperAdmin, MaxAmount: 50_000_000, AutoApprove: true},
		},
		TypeRemittance: {
			{RoleID: RoleAccountant, MaxAmount: 1_000_000, AutoApprove: false},
			{RoleID: RoleBrokerAdmin, MaxAmount: 25_000_000, AutoApprove: true},
			{RoleID: RoleSuperAdmin, MaxAmount: 100_000_000, AutoApprove: true},
		},
	}
}

// Find returns the limit for a role within a domain
func (l Limits) Find(workflowType Type, role string) (ApprovalLimit, bool) {
	for _, limit := range l[workflowType] {
		if limit.RoleID == role {
			return limit, true
		}
	}
	return ApprovalLimit{}, false
}

// clone returns a deep copy so callers cannot mutate an engine's table
func (l Limits) clone() Limits {
	out := make(Limits, len(l))
	for t, limits := range l {
		out[t] = append([]ApprovalLimit{}, limits...)
	}
	return out
}
