package repository

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/greenlean/greenlean/app/models"
)

type planStatusRepository struct {
	db *gorm.DB
}

// NewPlanStatusRepository creates a new plan status repository instance
func NewPlanStatusRepository(db *gorm.DB) PlanStatusRepository {
	return &planStatusRepository{db: db}
}

// Set writes the status for (user, plan type). Overlapping generation runs
// race here; the last write observed by the database wins.
func (r *planStatusRepository) Set(userID uint, planType string, status string, errorMessage string) error {
	row := models.PlanStatus{
		UserID:       userID,
		PlanType:     planType,
		Status:       status,
		ErrorMessage: errorMessage,
		UpdatedAt:    time.Now(),
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "plan_type"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "error_message", "updated_at"}),
	}).Create(&row).Error
}

func (r *planStatusRepository) Get(userID uint, planType string) (*models.PlanStatus, error) {
	var status models.PlanStatus
	err := r.db.Where("user_id = ? AND plan_type = ?", userID, planType).First(&status).Error
	if err != nil {
		return nil, err
	}
	return &status, nil
}
