package repository

import (
	"gorm.io/gorm"

	"github.com/greenlean/greenlean/app/models"
)

type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new profile repository instance
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) GetOrCreate(userID uint) (*models.Profile, error) {
	return models.GetOrCreateProfile(r.db, userID)
}

// UpdateField applies a single field update inside a transaction so that the
// read-modify-write of the JSON snapshot is not interleaved with another
// update for the same user.
func (r *profileRepository) UpdateField(userID uint, fieldKey string, value interface{}) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		profile, err := models.GetOrCreateProfile(tx, userID)
		if err != nil {
			return err
		}
		profile.SetField(fieldKey, value)
		return tx.Model(&models.Profile{}).
			Where("user_id = ?", userID).
			Update("fields", profile.Fields).Error
	})
}
