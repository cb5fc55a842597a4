package models

// PlanType represents a billing tier
type PlanType string

const (
	PlanMonthly PlanType = "monthly"
	PlanYearly  PlanType = "yearly"
	PlanUnset   PlanType = ""
)

// IsValid reports whether the plan is a purchasable tier
func (p PlanType) IsValid() bool {
	return p == PlanMonthly || p == PlanYearly
}

// OrganizationMemberCap is the maximum number of members that may register
// against the same organization ID. Changing the cap is a one-line edit here.
const OrganizationMemberCap = 2

// Payment session status values reported by the checkout provider
const (
	SessionStatusPaid   = "paid"
	SessionStatusUnpaid = "unpaid"
)

// Field length constraints
const (
	MaxEmailLength = 320 // RFC 3696 specification
	MaxPhoneLength = 15  // E.164 format
	MaxNameLength  = 255
)

// Business event action names recorded in metrics
const (
	ActionMemberRegistered = "member_registered"
	ActionMemberActivated  = "member_activated"
	ActionPaymentConfirmed = "payment_confirmed"
)
