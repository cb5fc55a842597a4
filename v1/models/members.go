package models

import "time"

// Member represents one registrant and their activation/payment state
type Member struct {
	MemberID       string     `gorm:"primarykey;column:member_id" json:"memberId"`
	Email          string     `gorm:"column:email;not null;unique" json:"email"`
	OrganizationID string     `gorm:"column:organization_id;not null;index" json:"organizationId"`
	SponsorID      string     `gorm:"column:sponsor_id;not null" json:"sponsorId"`
	SponsorName    *string    `gorm:"column:sponsor_name" json:"sponsorName,omitempty"`
	Phone          *string    `gorm:"column:phone" json:"phone,omitempty"`
	IsActive       bool       `gorm:"column:is_active;not null;default:false" json:"isActive"`
	IsPaid         bool       `gorm:"column:is_paid;not null;default:false" json:"isPaid"`
	PlanType       PlanType   `gorm:"column:plan_type;not null;default:''" json:"planType"`
	PaidAt         *time.Time `gorm:"column:paid_at" json:"paidAt,omitempty"`
	// Version is bumped on every mutation; updates carry the expected version
	// so concurrent writers cannot clobber each other
	Version int64 `gorm:"column:version;not null;default:0" json:"-"`
	BaseModel
}

// TableName sets the table name for GORM
func (Member) TableName() string {
	return "members"
}
