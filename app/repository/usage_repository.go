package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/greenlean/greenlean/app/models"
)

type usageRepository struct {
	db *gorm.DB
}

// NewUsageRepository creates a new regeneration usage repository instance
func NewUsageRepository(db *gorm.DB) UsageRepository {
	return &usageRepository{db: db}
}

func (r *usageRepository) Get(userID uint, planType string, period string) (int, error) {
	var usage models.RegenerationUsage
	err := r.db.Where("user_id = ? AND plan_type = ? AND period = ?", userID, planType, period).
		First(&usage).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return usage.Used, nil
}

func (r *usageRepository) AddUsage(userID uint, planType string, period string, delta int) error {
	row := models.RegenerationUsage{
		UserID:    userID,
		PlanType:  planType,
		Period:    period,
		Used:      delta,
		UpdatedAt: time.Now(),
	}
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "plan_type"}, {Name: "period"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"used":       gorm.Expr("used + ?", delta),
			"updated_at": time.Now(),
		}),
	}).Create(&row).Error
}
