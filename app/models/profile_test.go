package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValueComplete(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  bool
	}{
		{"Nil", nil, false},
		{"Empty string", "", false},
		{"Non-empty string", "lose_weight", true},
		{"Empty string slice", []string{}, false},
		{"Empty interface slice", []interface{}{}, false},
		{"Filled slice", []string{"nuts"}, true},
		{"Zero number still counts", 0, true},
		{"Float", 72.5, true},
		{"False bool still counts", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValueComplete(tt.value))
		})
	}
}

func TestProfileFieldAccess(t *testing.T) {
	p := &Profile{UserID: 1, Fields: ProfileFields{
		"main_goal": "gain_muscle",
		"age":       31,
	}}

	v, ok := p.FieldValue("main_goal")
	assert.True(t, ok)
	assert.Equal(t, "gain_muscle", v)

	_, ok = p.FieldValue("missing")
	assert.False(t, ok)

	assert.True(t, p.FieldComplete("age"))
	assert.False(t, p.FieldComplete("missing"))

	p.SetField("gym_access", true)
	assert.True(t, p.FieldComplete("gym_access"))
}

func TestProfileNilFields(t *testing.T) {
	p := &Profile{UserID: 1}

	assert.False(t, p.FieldComplete("main_goal"))
	p.SetField("main_goal", "maintain")
	assert.True(t, p.FieldComplete("main_goal"))
}
