package repository

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/greenlean/greenlean/app/models"
)

type triggerRepository struct {
	db *gorm.DB
}

// NewTriggerRepository creates a new trigger repository instance
func NewTriggerRepository(db *gorm.DB) TriggerRepository {
	return &triggerRepository{db: db}
}

func (r *triggerRepository) CreateIfAbsent(trigger *models.SurveyTrigger) (bool, error) {
	// DoNothing on the (user_id, question_id) unique index tolerates two
	// concurrent sweeps for the same user without duplicating rows.
	result := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(trigger)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *triggerRepository) Exists(userID uint, questionID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.SurveyTrigger{}).
		Where("user_id = ? AND question_id = ?", userID, questionID).
		Count(&count).Error
	return count > 0, err
}

func (r *triggerRepository) GetByUserAndQuestion(userID uint, questionID string) (*models.SurveyTrigger, error) {
	var trigger models.SurveyTrigger
	err := r.db.Where("user_id = ? AND question_id = ?", userID, questionID).First(&trigger).Error
	if err != nil {
		return nil, err
	}
	return &trigger, nil
}

func (r *triggerRepository) ListOpen(userID uint) ([]models.SurveyTrigger, error) {
	var triggers []models.SurveyTrigger
	err := r.db.Where("user_id = ? AND dismissed_at IS NULL", userID).
		Order("triggered_at ASC").
		Find(&triggers).Error
	return triggers, err
}

func (r *triggerRepository) MarkShown(userID uint, questionID string, at time.Time) error {
	return r.db.Model(&models.SurveyTrigger{}).
		Where("user_id = ? AND question_id = ? AND shown_at IS NULL", userID, questionID).
		Update("shown_at", at).Error
}

func (r *triggerRepository) MarkDismissed(userID uint, questionID string, at time.Time) error {
	return r.db.Model(&models.SurveyTrigger{}).
		Where("user_id = ? AND question_id = ? AND dismissed_at IS NULL", userID, questionID).
		Update("dismissed_at", at).Error
}

type responseRepository struct {
	db *gorm.DB
}

// NewResponseRepository creates a new response repository instance
func NewResponseRepository(db *gorm.DB) ResponseRepository {
	return &responseRepository{db: db}
}

func (r *responseRepository) Upsert(response *models.SurveyResponse) error {
	// Last writer wins on (user_id, question_id); re-answering overwrites.
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"value", "field_updated",
			"completeness_before", "completeness_after",
			"tier_before", "tier_after",
			"threshold_crossed", "responded_at",
		}),
	}).Create(response).Error
}

func (r *responseRepository) GetByUserAndQuestion(userID uint, questionID string) (*models.SurveyResponse, error) {
	var response models.SurveyResponse
	err := r.db.Where("user_id = ? AND question_id = ?", userID, questionID).First(&response).Error
	if err != nil {
		return nil, err
	}
	return &response, nil
}

func (r *responseRepository) ListByUser(userID uint) ([]models.SurveyResponse, error) {
	var responses []models.SurveyResponse
	err := r.db.Where("user_id = ?", userID).
		Order("responded_at DESC").
		Find(&responses).Error
	return responses, err
}

func (r *responseRepository) AnsweredQuestionIDs(userID uint) (map[string]bool, error) {
	var ids []string
	err := r.db.Model(&models.SurveyResponse{}).
		Where("user_id = ?", userID).
		Pluck("question_id", &ids).Error
	if err != nil {
		return nil, err
	}
	answered := make(map[string]bool, len(ids))
	for _, id := range ids {
		answered[id] = true
	}
	return answered, nil
}
