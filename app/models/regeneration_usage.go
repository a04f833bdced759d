package models

import (
	"time"
)

// RegenerationUsage counts manual regenerations consumed by a user for one
// plan type within a billing period (calendar month, "YYYY-MM" in UTC).
type RegenerationUsage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_usage_user_type_period" json:"user_id"`
	PlanType  string    `gorm:"uniqueIndex:idx_usage_user_type_period;type:varchar(20)" json:"plan_type"`
	Period    string    `gorm:"uniqueIndex:idx_usage_user_type_period;type:varchar(7)" json:"period"`
	Used      int       `json:"used"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CurrentPeriod returns the billing period key for a point in time.
func CurrentPeriod(now time.Time) string {
	return now.UTC().Format("2006-01")
}
