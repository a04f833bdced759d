package models

import (
	"fmt"
	"time"
)

// TierUnlockEvent is the append-only record of a tier threshold crossing,
// pending the user's decision on regenerating content. AcceptedAt and
// DismissedAt are mutually exclusive.
type TierUnlockEvent struct {
	ID                  uint       `gorm:"primaryKey" json:"id"`
	UserID              uint       `gorm:"index" json:"user_id"`
	OldTier             string     `gorm:"type:varchar(20)" json:"old_tier"`
	NewTier             string     `gorm:"type:varchar(20)" json:"new_tier"`
	CompletenessPercent float64    `json:"completeness_percent"`
	MealRegenerated     bool       `json:"meal_regenerated"`
	WorkoutRegenerated  bool       `json:"workout_regenerated"`
	AcceptedAt          *time.Time `gorm:"type:timestamp;default:null" json:"accepted_at"`
	DismissedAt         *time.Time `gorm:"type:timestamp;default:null" json:"dismissed_at"`
	CreatedAt           time.Time  `json:"created_at"`
}

// Pending reports whether the event still awaits an accept/dismiss decision.
func (e *TierUnlockEvent) Pending() bool {
	return e.AcceptedAt == nil && e.DismissedAt == nil
}

// Accept resolves the event as accepted with the chosen regeneration flags.
func (e *TierUnlockEvent) Accept(now time.Time, regenMeal, regenWorkout bool) error {
	if !e.Pending() {
		return fmt.Errorf("tier unlock event %d already resolved", e.ID)
	}
	e.AcceptedAt = &now
	e.MealRegenerated = regenMeal
	e.WorkoutRegenerated = regenWorkout
	return nil
}

// Dismiss resolves the event as dismissed.
func (e *TierUnlockEvent) Dismiss(now time.Time) error {
	if !e.Pending() {
		return fmt.Errorf("tier unlock event %d already resolved", e.ID)
	}
	e.DismissedAt = &now
	return nil
}
