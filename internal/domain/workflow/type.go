package workflow

// Type identifies an approval domain
type Type string

const (
	TypeUnderwriting Type = "underwriting"
	TypeClaims       Type = "claims"
	TypePayments     Type = "payments"
	TypeRemittance   Type = "remittance"
)

// String returns the string representation of the workflow type
func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the workflow type is a known approval domain
func (t Type) IsValid() bool {
	switch t {
	case TypeUnderwriting, TypeClaims, TypePayments, TypeRemittance:
		return true
	default:
		return false
	}
}

// Well-known role identifiers
const (
	RoleAgent         = "Agent"
	RoleUnderwriter   = "Underwriter"
	RoleClaimsOfficer = "ClaimsOfficer"
	RoleCompliance    = "Compliance"
	RoleAccountant    = "Accountant"
	RoleBrokerAdmin   = "BrokerAdmin"
	RoleSuperAdmin    = "SuperAdmin"
)
