package schema

// Tier is a discrete personalization level derived from profile completeness.
type Tier string

const (
	TierBasic    Tier = "BASIC"
	TierStandard Tier = "STANDARD"
	TierPremium  Tier = "PREMIUM"
)

// Rank orders tiers for comparisons (BASIC < STANDARD < PREMIUM).
func (t Tier) Rank() int {
	switch t {
	case TierPremium:
		return 2
	case TierStandard:
		return 1
	default:
		return 0
	}
}

// Valid reports whether t is one of the known tiers.
func (t Tier) Valid() bool {
	switch t {
	case TierBasic, TierStandard, TierPremium:
		return true
	default:
		return false
	}
}

// FieldCategory groups profile fields by topic.
type FieldCategory string

const (
	CategoryBasic     FieldCategory = "basic"
	CategoryNutrition FieldCategory = "nutrition"
	CategoryFitness   FieldCategory = "fitness"
	CategoryHealth    FieldCategory = "health"
	CategoryLifestyle FieldCategory = "lifestyle"
)

// CategoryOrder is the fixed ordering used when sorting missing fields.
var CategoryOrder = []FieldCategory{
	CategoryBasic,
	CategoryNutrition,
	CategoryFitness,
	CategoryHealth,
	CategoryLifestyle,
}

// CategoryRank returns the sort position of a category in CategoryOrder.
func CategoryRank(c FieldCategory) int {
	for i, cat := range CategoryOrder {
		if cat == c {
			return i
		}
	}
	return len(CategoryOrder)
}

// FieldPriority ranks how urgently a missing field should be collected.
type FieldPriority string

const (
	PriorityHigh   FieldPriority = "high"
	PriorityMedium FieldPriority = "medium"
	PriorityLow    FieldPriority = "low"
)

// Rank orders priorities for sorting (high first).
func (p FieldPriority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

// FieldDescriptor describes one trackable profile field. The registry is
// immutable and defined at process start; completeness is a single pass over
// it instead of scattered per-field presence checks.
type FieldDescriptor struct {
	Key          string
	Label        string
	Category     FieldCategory
	Priority     FieldPriority
	TierRelevant Tier // lowest tier whose instruction payload renders this field
}

// Profile field keys. Every key stored in a profile snapshot and referenced
// by survey questions must appear here.
const (
	FieldMainGoal          = "main_goal"
	FieldCurrentWeight     = "current_weight"
	FieldTargetWeight      = "target_weight"
	FieldAge               = "age"
	FieldGender            = "gender"
	FieldHeight            = "height"
	FieldDietaryStyle      = "dietary_style"
	FieldFoodAllergies     = "food_allergies"
	FieldCookingSkill      = "cooking_skill"
	FieldCookingTime       = "cooking_time"
	FieldGroceryBudget     = "grocery_budget"
	FieldMealsPerDay       = "meals_per_day"
	FieldDislikedFoods     = "disliked_foods"
	FieldMealPrepPref      = "meal_prep_preference"
	FieldDietRestrictions  = "dietary_restrictions"
	FieldActivityLevel     = "activity_level"
	FieldExerciseFrequency = "exercise_frequency"
	FieldGymAccess         = "gym_access"
	FieldEquipment         = "equipment_available"
	FieldWorkoutLocation   = "workout_location_preference"
	FieldInjuries          = "injuries_limitations"
	FieldFitnessExperience = "fitness_experience"
	FieldHealthConditions  = "health_conditions"
	FieldMedications       = "medications"
	FieldSleepQuality      = "sleep_quality"
	FieldStressLevel       = "stress_level"
	FieldWaterGoal         = "water_goal"
)

var profileFields = []FieldDescriptor{
	{Key: FieldMainGoal, Label: "What's your main goal?", Category: CategoryBasic, Priority: PriorityHigh, TierRelevant: TierBasic},
	{Key: FieldCurrentWeight, Label: "Current weight", Category: CategoryBasic, Priority: PriorityHigh, TierRelevant: TierBasic},
	{Key: FieldTargetWeight, Label: "Target weight", Category: CategoryBasic, Priority: PriorityHigh, TierRelevant: TierBasic},
	{Key: FieldAge, Label: "Your age", Category: CategoryBasic, Priority: PriorityHigh, TierRelevant: TierBasic},
	{Key: FieldGender, Label: "Your gender", Category: CategoryBasic, Priority: PriorityHigh, TierRelevant: TierBasic},
	{Key: FieldHeight, Label: "Your height", Category: CategoryBasic, Priority: PriorityHigh, TierRelevant: TierBasic},

	{Key: FieldDietaryStyle, Label: "Dietary style preference", Category: CategoryNutrition, Priority: PriorityHigh, TierRelevant: TierStandard},
	{Key: FieldFoodAllergies, Label: "Food allergies or intolerances", Category: CategoryNutrition, Priority: PriorityHigh, TierRelevant: TierStandard},
	{Key: FieldCookingSkill, Label: "Cooking skill level", Category: CategoryNutrition, Priority: PriorityMedium, TierRelevant: TierStandard},
	{Key: FieldCookingTime, Label: "Time available for cooking", Category: CategoryNutrition, Priority: PriorityMedium, TierRelevant: TierStandard},
	{Key: FieldGroceryBudget, Label: "Weekly grocery budget", Category: CategoryNutrition, Priority: PriorityMedium, TierRelevant: TierStandard},
	{Key: FieldMealsPerDay, Label: "Preferred meals per day", Category: CategoryNutrition, Priority: PriorityMedium, TierRelevant: TierStandard},
	{Key: FieldDislikedFoods, Label: "Disliked foods", Category: CategoryNutrition, Priority: PriorityMedium, TierRelevant: TierStandard},
	{Key: FieldMealPrepPref, Label: "Meal prep preference", Category: CategoryNutrition, Priority: PriorityMedium, TierRelevant: TierStandard},
	{Key: FieldDietRestrictions, Label: "Dietary restrictions", Category: CategoryNutrition, Priority: PriorityMedium, TierRelevant: TierStandard},

	{Key: FieldActivityLevel, Label: "Activity level", Category: CategoryFitness, Priority: PriorityHigh, TierRelevant: TierBasic},
	{Key: FieldExerciseFrequency, Label: "Workout frequency (days/week)", Category: CategoryFitness, Priority: PriorityHigh, TierRelevant: TierBasic},
	{Key: FieldGymAccess, Label: "Gym access", Category: CategoryFitness, Priority: PriorityHigh, TierRelevant: TierStandard},
	{Key: FieldEquipment, Label: "Available equipment", Category: CategoryFitness, Priority: PriorityHigh, TierRelevant: TierStandard},
	{Key: FieldWorkoutLocation, Label: "Where do you train?", Category: CategoryFitness, Priority: PriorityHigh, TierRelevant: TierStandard},
	{Key: FieldInjuries, Label: "Injuries or limitations", Category: CategoryFitness, Priority: PriorityMedium, TierRelevant: TierPremium},
	{Key: FieldFitnessExperience, Label: "Fitness experience", Category: CategoryFitness, Priority: PriorityHigh, TierRelevant: TierStandard},

	{Key: FieldHealthConditions, Label: "Health conditions", Category: CategoryHealth, Priority: PriorityMedium, TierRelevant: TierPremium},
	{Key: FieldMedications, Label: "Current medications", Category: CategoryHealth, Priority: PriorityMedium, TierRelevant: TierPremium},

	{Key: FieldSleepQuality, Label: "Sleep quality (1-10)", Category: CategoryLifestyle, Priority: PriorityMedium, TierRelevant: TierPremium},
	{Key: FieldStressLevel, Label: "Stress level (1-10)", Category: CategoryLifestyle, Priority: PriorityMedium, TierRelevant: TierPremium},
	{Key: FieldWaterGoal, Label: "Daily water goal (glasses)", Category: CategoryLifestyle, Priority: PriorityMedium, TierRelevant: TierPremium},
}

var fieldIndex = buildFieldIndex()

func buildFieldIndex() map[string]FieldDescriptor {
	idx := make(map[string]FieldDescriptor, len(profileFields))
	for _, f := range profileFields {
		idx[f.Key] = f
	}
	return idx
}

// ProfileFields returns the full field registry in declaration order.
// Callers must not mutate the returned slice.
func ProfileFields() []FieldDescriptor {
	return profileFields
}

// FieldByKey looks up a descriptor by its key.
func FieldByKey(key string) (FieldDescriptor, bool) {
	f, ok := fieldIndex[key]
	return f, ok
}

// FieldCount returns the number of registered profile fields.
func FieldCount() int {
	return len(profileFields)
}
