package promptbuilder

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/greenlean/greenlean/app/models"
	"github.com/greenlean/greenlean/internal/pkg/schema"
)

func sparseProfile() *models.Profile {
	return &models.Profile{UserID: 1, Fields: models.ProfileFields{
		schema.FieldMainGoal: "lose_weight",
		schema.FieldAge:      29,
	}}
}

func fullProfile() *models.Profile {
	return &models.Profile{UserID: 1, Fields: models.ProfileFields{
		schema.FieldMainGoal:          "gain_muscle",
		schema.FieldCurrentWeight:     78.5,
		schema.FieldTargetWeight:      84,
		schema.FieldAge:               31,
		schema.FieldGender:            "male",
		schema.FieldHeight:            182,
		schema.FieldDietaryStyle:      "high-protein",
		schema.FieldFoodAllergies:     []string{"peanuts"},
		schema.FieldCookingSkill:      "intermediate",
		schema.FieldCookingTime:       "45 minutes",
		schema.FieldGroceryBudget:     "medium-high",
		schema.FieldMealsPerDay:       4,
		schema.FieldDislikedFoods:     []string{"cilantro"},
		schema.FieldMealPrepPref:      "batch_cooking",
		schema.FieldDietRestrictions:  []string{"halal"},
		schema.FieldActivityLevel:     "moderately_active",
		schema.FieldExerciseFrequency: "4-5 days per week",
		schema.FieldGymAccess:         true,
		schema.FieldEquipment:         []string{"barbell", "dumbbells"},
		schema.FieldWorkoutLocation:   "gym",
		schema.FieldInjuries:          []string{"left knee"},
		schema.FieldFitnessExperience: "intermediate",
		schema.FieldHealthConditions:  []string{"mild asthma"},
		schema.FieldMedications:       []string{"inhaler"},
		schema.FieldSleepQuality:      7,
		schema.FieldStressLevel:       4,
		schema.FieldWaterGoal:         8,
	}}
}

func testTargets() NutritionTargets {
	return NutritionTargets{DailyCalories: 2450, Protein: 180, Carbs: 260, Fats: 75}
}

func TestEffectiveTier(t *testing.T) {
	tests := []struct {
		name      string
		requested schema.Tier
		data      schema.Tier
		want      schema.Tier
	}{
		{"Invalid falls back to data", schema.Tier(""), schema.TierStandard, schema.TierStandard},
		{"Unknown falls back to data", schema.Tier("GOLD"), schema.TierBasic, schema.TierBasic},
		{"Above data is lowered", schema.TierPremium, schema.TierBasic, schema.TierBasic},
		{"Below data is honored", schema.TierBasic, schema.TierPremium, schema.TierBasic},
		{"Equal passes through", schema.TierStandard, schema.TierStandard, schema.TierStandard},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, effectiveTier(tt.requested, tt.data))
		})
	}
}

func TestMealBuildSparseProfileUsesDefaults(t *testing.T) {
	result := NewMealBuilder().Build(Request{Profile: sparseProfile(), Targets: testTargets()})

	assert.Equal(t, schema.TierBasic, result.Metadata.EffectiveTier)
	assert.Contains(t, result.Metadata.DefaultsApplied, schema.FieldDietaryStyle)
	assert.Contains(t, result.Metadata.DefaultsApplied, schema.FieldMealsPerDay)
	assert.Contains(t, result.Metadata.DefaultsApplied, schema.FieldCookingSkill)
	assert.NotEmpty(t, result.Metadata.MissingFields)

	// lose_weight defaults land in the rendered payload.
	assert.Contains(t, result.Prompt, "Dietary Style: balanced")
	assert.Contains(t, result.Prompt, "Meals Per Day: 3")
	assert.Contains(t, result.Prompt, "Cooking Skill: beginner")
}

func TestMealBuildFullProfileNoDefaults(t *testing.T) {
	result := NewMealBuilder().Build(Request{Profile: fullProfile(), Targets: testTargets()})

	assert.Equal(t, schema.TierPremium, result.Metadata.EffectiveTier)
	assert.Empty(t, result.Metadata.DefaultsApplied)
	assert.Empty(t, result.Metadata.MissingFields)
	assert.Contains(t, result.Prompt, "Dietary Style: high-protein")
	assert.Contains(t, result.Prompt, "peanuts")
}

func TestMealTargetsEchoedVerbatim(t *testing.T) {
	result := NewMealBuilder().Build(Request{Profile: fullProfile(), Targets: testTargets()})

	assert.Contains(t, result.Prompt, "Daily Calories: 2450 kcal")
	assert.Contains(t, result.Prompt, "Protein: 180g")
	assert.Contains(t, result.Prompt, "Carbs: 260g")
	assert.Contains(t, result.Prompt, "Fats: 75g")
	assert.Contains(t, result.Prompt, "calories: 2450")
}

func TestMealSectionsEscalate(t *testing.T) {
	profile := fullProfile()
	targets := testTargets()
	b := NewMealBuilder()

	basic := b.Build(Request{Profile: profile, RequestedTier: schema.TierBasic, Targets: targets}).Prompt
	standard := b.Build(Request{Profile: profile, RequestedTier: schema.TierStandard, Targets: targets}).Prompt
	premium := b.Build(Request{Profile: profile, RequestedTier: schema.TierPremium, Targets: targets}).Prompt

	for _, s := range []string{"ESSENTIAL USER INFO", "NUTRITION TARGETS", "DIETARY PREFERENCES", "CRITICAL INSTRUCTIONS", "OUTPUT FORMAT"} {
		assert.Contains(t, basic, s)
		assert.Contains(t, standard, s)
		assert.Contains(t, premium, s)
	}

	assert.NotContains(t, basic, "LIFESTYLE & PREP")
	assert.Contains(t, standard, "LIFESTYLE & PREP")
	assert.Contains(t, premium, "LIFESTYLE & PREP")

	assert.NotContains(t, basic, "HEALTH CONSIDERATIONS")
	assert.NotContains(t, standard, "HEALTH CONSIDERATIONS")
	assert.Contains(t, premium, "HEALTH CONSIDERATIONS")

	assert.NotContains(t, basic, "meal_prep_strategy")
	assert.Contains(t, standard, "meal_prep_strategy")
	assert.NotContains(t, standard, "hydration_plan")
	assert.Contains(t, premium, "hydration_plan")
}

func TestMealBuildDeterministic(t *testing.T) {
	req := Request{Profile: fullProfile(), Targets: testTargets()}
	b := NewMealBuilder()

	assert.Equal(t, b.Build(req), b.Build(req))
}

func TestMealDefaultsForGoalFallback(t *testing.T) {
	assert.Equal(t, mealDefaultsByGoal["maintain"], mealDefaultsForGoal("run_marathon"))
	assert.Equal(t, mealDefaultsByGoal["maintain"], mealDefaultsForGoal(""))
	assert.Equal(t, mealDefaultsByGoal["gain_muscle"], mealDefaultsForGoal("gain_muscle"))
}

func TestWorkoutBuildSparseProfileUsesDefaults(t *testing.T) {
	result := NewWorkoutBuilder().Build(Request{Profile: sparseProfile()})

	assert.Equal(t, schema.TierBasic, result.Metadata.EffectiveTier)
	assert.Contains(t, result.Metadata.DefaultsApplied, schema.FieldFitnessExperience)
	assert.Contains(t, result.Metadata.DefaultsApplied, schema.FieldExerciseFrequency)
	assert.Contains(t, result.Prompt, "Exercise Frequency: 3-4 days per week")
	assert.Contains(t, result.Prompt, "Fitness Experience: beginner")
}

func TestWorkoutSectionsEscalate(t *testing.T) {
	profile := fullProfile()
	b := NewWorkoutBuilder()

	basic := b.Build(Request{Profile: profile, RequestedTier: schema.TierBasic}).Prompt
	standard := b.Build(Request{Profile: profile, RequestedTier: schema.TierStandard}).Prompt
	premium := b.Build(Request{Profile: profile, RequestedTier: schema.TierPremium}).Prompt

	for _, s := range []string{"DEMOGRAPHICS & PHYSIQUE", "TRAINING PROFILE", "YOUR MISSION", "OUTPUT FORMAT"} {
		assert.Contains(t, basic, s)
		assert.Contains(t, standard, s)
		assert.Contains(t, premium, s)
	}

	assert.NotContains(t, basic, "TRAINING ENVIRONMENT")
	assert.Contains(t, standard, "TRAINING ENVIRONMENT")
	assert.Contains(t, premium, "TRAINING ENVIRONMENT")

	assert.NotContains(t, standard, "HEALTH & RECOVERY")
	assert.Contains(t, premium, "HEALTH & RECOVERY")
	assert.Contains(t, premium, "left knee")
}

func TestWorkoutEquipmentRendered(t *testing.T) {
	result := NewWorkoutBuilder().Build(Request{Profile: fullProfile()})

	assert.Contains(t, result.Prompt, "Gym Access: Yes")
	assert.Contains(t, result.Prompt, "barbell, dumbbells")
}

func TestWorkoutRequestedTierAboveDataIsClamped(t *testing.T) {
	result := NewWorkoutBuilder().Build(Request{
		Profile:       sparseProfile(),
		RequestedTier: schema.TierPremium,
	})

	assert.Equal(t, schema.TierBasic, result.Metadata.EffectiveTier)
	assert.NotContains(t, result.Prompt, "HEALTH & RECOVERY")
}

func TestListFieldFallbacksTracked(t *testing.T) {
	t.Run("meal allergies", func(t *testing.T) {
		profile := fullProfile()
		delete(profile.Fields, schema.FieldFoodAllergies)

		result := NewMealBuilder().Build(Request{
			Profile:       profile,
			RequestedTier: schema.TierStandard,
			Targets:       testTargets(),
		})

		assert.Contains(t, result.Prompt, "Food Allergies/Intolerances: None")
		assert.Contains(t, result.Metadata.DefaultsApplied, schema.FieldFoodAllergies)
	})

	t.Run("workout equipment", func(t *testing.T) {
		profile := fullProfile()
		delete(profile.Fields, schema.FieldEquipment)

		result := NewWorkoutBuilder().Build(Request{
			Profile:       profile,
			RequestedTier: schema.TierStandard,
		})

		assert.Contains(t, result.Prompt, "Available Equipment: Bodyweight only")
		assert.Contains(t, result.Metadata.DefaultsApplied, schema.FieldEquipment)
	})

	t.Run("workout injuries at premium", func(t *testing.T) {
		profile := fullProfile()
		delete(profile.Fields, schema.FieldInjuries)

		result := NewWorkoutBuilder().Build(Request{Profile: profile})

		assert.Contains(t, result.Prompt, "Injuries/Limitations: None reported")
		assert.Contains(t, result.Metadata.DefaultsApplied, schema.FieldInjuries)
	})
}

func TestPlanTypes(t *testing.T) {
	assert.Equal(t, models.PLAN_TYPE_MEAL, NewMealBuilder().PlanType())
	assert.Equal(t, models.PLAN_TYPE_WORKOUT, NewWorkoutBuilder().PlanType())
}
