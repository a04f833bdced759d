package repository

import (
	"gorm.io/gorm"

	"github.com/greenlean/greenlean/app/models"
)

type unlockEventRepository struct {
	db *gorm.DB
}

// NewUnlockEventRepository creates a new unlock event repository instance
func NewUnlockEventRepository(db *gorm.DB) UnlockEventRepository {
	return &unlockEventRepository{db: db}
}

func (r *unlockEventRepository) Create(event *models.TierUnlockEvent) error {
	return r.db.Create(event).Error
}

func (r *unlockEventRepository) GetByID(userID uint, eventID uint) (*models.TierUnlockEvent, error) {
	var event models.TierUnlockEvent
	err := r.db.Where("id = ? AND user_id = ?", eventID, userID).First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *unlockEventRepository) ListPending(userID uint) ([]models.TierUnlockEvent, error) {
	var events []models.TierUnlockEvent
	err := r.db.Where("user_id = ? AND accepted_at IS NULL AND dismissed_at IS NULL", userID).
		Order("created_at DESC").
		Find(&events).Error
	return events, err
}

func (r *unlockEventRepository) Update(event *models.TierUnlockEvent) error {
	return r.db.Save(event).Error
}
