package models

// PlanPrice stores the configured price for one billing tier.
// Amounts are integer minor currency units (e.g. cents).
type PlanPrice struct {
	Plan        PlanType `gorm:"primarykey;column:plan" json:"plan"`
	AmountMinor int64    `gorm:"column:amount_minor;not null" json:"amountMinor"`
	BaseModel
}

// TableName sets the table name for GORM
func (PlanPrice) TableName() string {
	return "plan_prices"
}
