package repository

import (
	"time"

	"github.com/greenlean/greenlean/app/models"
)

// ProfileRepository defines the interface for profile snapshot operations
type ProfileRepository interface {
	GetOrCreate(userID uint) (*models.Profile, error)
	UpdateField(userID uint, fieldKey string, value interface{}) error
}

// TriggerRepository defines the interface for micro-survey trigger records
type TriggerRepository interface {
	// CreateIfAbsent inserts the trigger unless a row for the same
	// (user, question) already exists. Returns true when a row was created.
	CreateIfAbsent(trigger *models.SurveyTrigger) (bool, error)
	Exists(userID uint, questionID string) (bool, error)
	GetByUserAndQuestion(userID uint, questionID string) (*models.SurveyTrigger, error)
	ListOpen(userID uint) ([]models.SurveyTrigger, error)
	MarkShown(userID uint, questionID string, at time.Time) error
	MarkDismissed(userID uint, questionID string, at time.Time) error
}

// ResponseRepository defines the interface for micro-survey responses
type ResponseRepository interface {
	// Upsert inserts or overwrites the response for (user, question).
	Upsert(response *models.SurveyResponse) error
	GetByUserAndQuestion(userID uint, questionID string) (*models.SurveyResponse, error)
	ListByUser(userID uint) ([]models.SurveyResponse, error)
	AnsweredQuestionIDs(userID uint) (map[string]bool, error)
}

// UnlockEventRepository defines the interface for tier unlock events
type UnlockEventRepository interface {
	Create(event *models.TierUnlockEvent) error
	GetByID(userID uint, eventID uint) (*models.TierUnlockEvent, error)
	ListPending(userID uint) ([]models.TierUnlockEvent, error)
	Update(event *models.TierUnlockEvent) error
}

// PlanStatusRepository defines the interface for plan generation status rows
type PlanStatusRepository interface {
	Set(userID uint, planType string, status string, errorMessage string) error
	Get(userID uint, planType string) (*models.PlanStatus, error)
}

// UsageRepository defines the interface for manual regeneration usage rows
type UsageRepository interface {
	Get(userID uint, planType string, period string) (int, error)
	AddUsage(userID uint, planType string, period string, delta int) error
}

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByAPIKeyHash(hash string) (*models.User, *models.UserSettings, error)
	GetSettings(userID uint) (*models.UserSettings, error)
	Update(user *models.User) error
}

// Repositories struct holds all repository instances
type Repositories struct {
	User       UserRepository
	Profile    ProfileRepository
	Trigger    TriggerRepository
	Response   ResponseRepository
	Unlock     UnlockEventRepository
	PlanStatus PlanStatusRepository
	Usage      UsageRepository
}
