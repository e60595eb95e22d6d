// Package notification renders the fixed set of broker notifications.
// Rendering is pure; delivery belongs to a NotificationSender.
package notification

// Event names a notification template
type Event string

const (
	EventQuoteReady                 Event = "quote_ready"
	EventApprovalRequired           Event = "approval_required"
	EventPolicyRenewal              Event = "policy_renewal"
	EventClaimRegistered            Event = "claim_registered"
	EventClaimInvestigationAssigned Event = "claim_investigation_assigned"
	EventClaimUpdate                Event = "claim_update"
	EventSettlementProcessed        Event = "settlement_processed"
	EventDischargeVoucherReady      Event = "discharge_voucher_ready"
	EventComplianceAlert            Event = "compliance_alert"
	EventAuditNotification          Event = "audit_notification"
	EventPaymentReceived            Event = "payment_received"
	EventRemittanceReady            Event = "remittance_ready"
)

// String returns the string representation of the event
func (e Event) String() string {
	return string(e)
}

// Channel is the delivery medium of a template
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// Priority orders notifications for delivery
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Template is a rendered notification ready to hand to a sender
type Template struct {
	Event      Event    `json:"event" yaml:"event"`
	Type       Channel  `json:"type" yaml:"type"`
	Subject    string   `json:"subject" yaml:"subject"`
	Template   string   `json:"template" yaml:"template"`
	Recipients []string `json:"recipients" yaml:"recipients"`
	Priority   Priority `json:"priority" yaml:"priority"`
}

// definition is the unrendered form of a template
type definition struct {
	channel       Channel
	subject       string
	body          string
	recipientKeys []string
	priority      Priority
}

var definitions = map[Event]definition{
	EventQuoteReady: {
		channel:       ChannelEmail,
		subject:       "Your Insurance Quote is Ready - {quoteNumber}",
		body:          "Dear {clientName},\n\nYour quote {quoteNumber} for {policyType} is ready.\nAnnual premium: ₦{premium}\nValid until: {validUntil}\n\nKind regards,\n{brokerName}",
		recipientKeys: []string{"clientEmail"},
		priority:      PriorityMedium,
	},
	EventApprovalRequired: {
		channel:       ChannelEmail,
		subject:       "Approval Required: {workflowType} - ₦{amount}",
		body:          "A {workflowType} request {reference} for ₦{amount} is awaiting your approval as {approverRole}.\nRequested by: {requestedBy}\n\nPlease review it in the approvals queue.",
		recipientKeys: []string{"approverEmail"},
		priority:      PriorityHigh,
	},
	EventPolicyRenewal: {
		channel:       ChannelEmail,
		subject:       "Policy Renewal Reminder - {policyNumber}",
		body:          "Dear {clientName},\n\nYour {policyType} policy {policyNumber} expires on {expiryDate}.\nRenewal premium: ₦{premium}\n\nContact {brokerName} to renew without a lapse in cover.",
		recipientKeys: []string{"clientEmail"},
		priority:      PriorityMedium,
	},
	EventClaimRegistered: {
		channel:       ChannelEmail,
		subject:       "Claim Registered - {claimNumber}",
		body:          "Dear {clientName},\n\nYour claim {claimNumber} under policy {policyNumber} has been registered.\nClaimed amount: ₦{claimedAmount}\n\nWe will keep you updated as it progresses.",
		recipientKeys: []string{"clientEmail"},
		priority:      PriorityMedium,
	},
	EventClaimInvestigationAssigned: {
		channel:       ChannelEmail,
		subject:       "Claim Investigation Assigned - {claimNumber}",
		body:          "Hello {adjusterName},\n\nYou have been assigned to investigate claim {claimNumber}.\nIncident date: {incidentDate}\nClaimed amount: ₦{claimedAmount}",
		recipientKeys: []string{"adjusterEmail"},
		priority:      PriorityHigh,
	},
	EventClaimUpdate: {
		channel:       ChannelEmail,
		subject:       "Claim Update - {claimNumber}",
		body:          "Dear {clientName},\n\nThe status of claim {claimNumber} is now {status}.\n{notes}",
		recipientKeys: []string{"clientEmail"},
		priority:      PriorityMedium,
	},
	EventSettlementProcessed: {
		channel:       ChannelEmail,
		subject:       "Claim Settlement Processed - {claimNumber}",
		body:          "Dear {clientName},\n\nThe settlement of ₦{settlementAmount} for claim {claimNumber} has been processed.\nPayment reference: {paymentReference}",
		recipientKeys: []string{"clientEmail"},
		priority:      PriorityHigh,
	},
	EventDischargeVoucherReady: {
		channel:       ChannelEmail,
		subject:       "Discharge Voucher Ready - {claimNumber}",
		body:          "Dear {clientName},\n\nThe discharge voucher for claim {claimNumber} (₦{settlementAmount}) is ready for your signature.",
		recipientKeys: []string{"clientEmail"},
		priority:      PriorityHigh,
	},
	EventComplianceAlert: {
		channel:       ChannelEmail,
		subject:       "Compliance Alert: {alertType}",
		body:          "Compliance alert for {resourceType} {resourceId}.\n\n{message}\n\nRaised at {timestamp}.",
		recipientKeys: []string{"complianceEmail"},
		priority:      PriorityUrgent,
	},
	EventAuditNotification: {
		channel:       ChannelEmail,
		subject:       "Audit Notification: {action} on {resourceType}",
		body:          "{actor} performed {action} on {resourceType} {resourceId} at {timestamp}.",
		recipientKeys: []string{"auditorEmail"},
		priority:      PriorityLow,
	},
	EventPaymentReceived: {
		channel:       ChannelSMS,
		subject:       "Payment Received",
		body:          "Payment of ₦{amount} received for {reference}. Thank you, {clientName}.",
		recipientKeys: []string{"clientPhone"},
		priority:      PriorityMedium,
	},
	EventRemittanceReady: {
		channel:       ChannelEmail,
		subject:       "Remittance Ready - {insurerName}",
		body:          "Dear {insurerName},\n\nRemittance {remittanceNumber} of ₦{netAmount} for the period {period} is ready.\nGross premium: ₦{grossPremium}\nCommission deducted: ₦{commission}",
		recipientKeys: []string{"insurerEmail"},
		priority:      PriorityHigh,
	},
}

// Events returns every supported event name
func Events() []Event {
	return []Event{
		EventQuoteReady,
		EventApprovalRequired,
		EventPolicyRenewal,
		EventClaimRegistered,
		EventClaimInvestigationAssigned,
		EventClaimUpdate,
		EventSettlementProcessed,
		EventDischargeVoucherReady,
		EventComplianceAlert,
		EventAuditNotification,
		EventPaymentReceived,
		EventRemittanceReady,
	}
}

// IsKnown reports whether the event has its own template
func (e Event) IsKnown() bool {
	_, ok := definitions[e]
	return ok
}
