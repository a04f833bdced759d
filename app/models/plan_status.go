package models

import (
	"time"
)

const (
	PLAN_TYPE_MEAL    = "meal"
	PLAN_TYPE_WORKOUT = "workout"

	PLAN_STATUS_GENERATING = "generating"
	PLAN_STATUS_COMPLETED  = "completed"
	PLAN_STATUS_FAILED     = "failed"
)

// PlanStatus tracks the terminal state of the latest generation run for one
// (user, plan type). Overlapping regenerations race to write it; the last
// write wins.
type PlanStatus struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"uniqueIndex:idx_plan_status_user_type" json:"user_id"`
	PlanType     string    `gorm:"uniqueIndex:idx_plan_status_user_type;type:varchar(20)" json:"plan_type"`
	Status       string    `gorm:"type:varchar(20)" json:"status"`
	ErrorMessage string    `gorm:"type:text" json:"error_message,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ValidPlanType reports whether t names a known content domain.
func ValidPlanType(t string) bool {
	return t == PLAN_TYPE_MEAL || t == PLAN_TYPE_WORKOUT
}
