package models

import (
	"time"
)

// SurveyResponse records a user's answer to a micro-survey question along
// with the completeness movement it caused. One row per (user, question);
// re-answering overwrites in place.
type SurveyResponse struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	UserID             uint      `gorm:"uniqueIndex:idx_response_user_question" json:"user_id"`
	QuestionID         string    `gorm:"uniqueIndex:idx_response_user_question;type:varchar(100)" json:"question_id"`
	Value              string    `gorm:"type:text" json:"value"`
	FieldUpdated       string    `gorm:"type:varchar(100)" json:"field_updated"`
	CompletenessBefore float64   `json:"completeness_before"`
	CompletenessAfter  float64   `json:"completeness_after"`
	TierBefore         string    `gorm:"type:varchar(20)" json:"tier_before"`
	TierAfter          string    `gorm:"type:varchar(20)" json:"tier_after"`
	ThresholdCrossed   bool      `json:"threshold_crossed"`
	RespondedAt        time.Time `json:"responded_at"`
}
