package models

import (
	"time"
)

// SurveyTrigger marks that a micro-survey question's activation condition
// became true for a user. Exactly one row exists per (user, question); the
// row is created once and only its shown/dismissed timestamps change.
type SurveyTrigger struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      uint       `gorm:"uniqueIndex:idx_trigger_user_question" json:"user_id"`
	QuestionID  string     `gorm:"uniqueIndex:idx_trigger_user_question;type:varchar(100)" json:"question_id"`
	TriggerType string     `gorm:"type:varchar(50)" json:"trigger_type"`
	TriggeredAt time.Time  `json:"triggered_at"`
	ShownAt     *time.Time `gorm:"type:timestamp;default:null" json:"shown_at"`
	DismissedAt *time.Time `gorm:"type:timestamp;default:null" json:"dismissed_at"`
}

// Open reports whether the trigger is still awaiting an answer or dismissal.
func (t *SurveyTrigger) Open() bool {
	return t.DismissedAt == nil
}

// MarkShown sets the shown timestamp. Best-effort: concurrent callers may
// both observe the transition, which is acceptable for question delivery.
func (t *SurveyTrigger) MarkShown(now time.Time) {
	if t.ShownAt == nil {
		t.ShownAt = &now
	}
}

// MarkDismissed sets the dismissed timestamp, closing the trigger.
func (t *SurveyTrigger) MarkDismissed(now time.Time) {
	if t.DismissedAt == nil {
		t.DismissedAt = &now
	}
}
