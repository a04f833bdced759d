package models

import (
	"time"

	"gorm.io/gorm"
)

// ProfileFields maps a profile field key to its stored value. Values are
// scalars (string, bool, float64, int) or string slices; absent keys mean the
// field was never collected.
type ProfileFields map[string]interface{}

// Profile is the per-user snapshot of collected profile data. It is mutated
// one field at a time as surveys are answered, never replaced wholesale.
type Profile struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"uniqueIndex" json:"user_id"`
	Fields    ProfileFields  `gorm:"serializer:json;type:json" json:"fields"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// GetOrCreateProfile returns the user's profile, creating an empty one if
// none exists yet.
func GetOrCreateProfile(db *gorm.DB, userID uint) (*Profile, error) {
	var p Profile
	if err := db.Where("user_id = ?", userID).First(&p).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			p = Profile{UserID: userID, Fields: ProfileFields{}}
			if err := db.Create(&p).Error; err != nil {
				return nil, err
			}
			return &p, nil
		}
		return nil, err
	}
	if p.Fields == nil {
		p.Fields = ProfileFields{}
	}
	return &p, nil
}

// FieldValue returns the stored value for a field key.
func (p *Profile) FieldValue(key string) (interface{}, bool) {
	if p == nil || p.Fields == nil {
		return nil, false
	}
	v, ok := p.Fields[key]
	return v, ok
}

// SetField stores a value for a field key, initializing the map if needed.
func (p *Profile) SetField(key string, value interface{}) {
	if p.Fields == nil {
		p.Fields = ProfileFields{}
	}
	p.Fields[key] = value
}

// FieldComplete reports whether a field value counts as completed: present,
// not an empty string, and not an empty collection.
func (p *Profile) FieldComplete(key string) bool {
	v, ok := p.FieldValue(key)
	if !ok {
		return false
	}
	return ValueComplete(v)
}

// ValueComplete applies the completion rule to a raw field value.
func ValueComplete(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return val != ""
	case []string:
		return len(val) > 0
	case []interface{}:
		return len(val) > 0
	default:
		// Numeric and boolean values count once set.
		return true
	}
}
