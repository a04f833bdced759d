package schema

// TriggerType classifies what kind of user signal activates a question.
type TriggerType string

const (
	TriggerTimeBased    TriggerType = "time_based"
	TriggerActionBased  TriggerType = "action_based"
	TriggerContextBased TriggerType = "context_based"
)

// ValueKind determines how a raw survey answer is parsed before it is stored
// on the profile snapshot.
type ValueKind string

const (
	ValueSingleChoice ValueKind = "single_choice"
	ValueMultiChoice  ValueKind = "multi_choice"
	ValueScale        ValueKind = "scale"
	ValueNumeric      ValueKind = "numeric"
	ValueText         ValueKind = "text"
	ValueBoolean      ValueKind = "boolean"
)

// Signals is the snapshot of user activity a trigger condition is evaluated
// against. All counts are cumulative; DaysSinceSignup is whole days.
type Signals struct {
	DaysSinceSignup int
	Workouts        int
	MealLogs        int
	PlanViews       int
	MealDislikes    int
	WorkoutSkips    int
	LowEnergyDays   int
}

// TriggerCondition is a structured predicate over Signals. Zero-valued
// thresholds are ignored; a condition with several thresholds set fires when
// any of them is reached.
type TriggerCondition struct {
	DaysSinceSignup int
	WorkoutCount    int
	MealLogCount    int
	PlanViewCount   int
	MealDislikes    int
	WorkoutSkips    int
	LowEnergyDays   int
}

// Met reports whether the condition holds for the given signals.
func (c TriggerCondition) Met(s Signals) bool {
	if c.DaysSinceSignup > 0 && s.DaysSinceSignup >= c.DaysSinceSignup {
		return true
	}
	if c.WorkoutCount > 0 && s.Workouts >= c.WorkoutCount {
		return true
	}
	if c.MealLogCount > 0 && s.MealLogs >= c.MealLogCount {
		return true
	}
	if c.PlanViewCount > 0 && s.PlanViews >= c.PlanViewCount {
		return true
	}
	if c.MealDislikes > 0 && s.MealDislikes >= c.MealDislikes {
		return true
	}
	if c.WorkoutSkips > 0 && s.WorkoutSkips >= c.WorkoutSkips {
		return true
	}
	if c.LowEnergyDays > 0 && s.LowEnergyDays >= c.LowEnergyDays {
		return true
	}
	return false
}

// Question is one micro-survey entry from the static catalog. Each question
// fills exactly one profile field.
type Question struct {
	ID        string           `json:"id"`
	FieldKey  string           `json:"field_key"`
	Text      string           `json:"text"`
	Trigger   TriggerType      `json:"trigger_type"`
	Condition TriggerCondition `json:"-"`
	Priority  int              `json:"priority"` // 10 = ask ASAP, 5 = low priority
	Kind      ValueKind        `json:"kind"`
	Options   []string         `json:"options,omitempty"`
}

var questionCatalog = []Question{
	// High priority: ask as soon as the user engages with a plan.
	{
		ID: "q_dietary_restrictions", FieldKey: FieldDietRestrictions,
		Text:    "Any dietary restrictions?",
		Trigger: TriggerActionBased, Condition: TriggerCondition{PlanViewCount: 1},
		Priority: 10, Kind: ValueMultiChoice,
		Options: []string{"none", "vegetarian", "vegan", "pescatarian", "keto", "paleo", "gluten_free", "dairy_free"},
	},
	{
		ID: "q_food_allergies", FieldKey: FieldFoodAllergies,
		Text:    "Any food allergies we should know about?",
		Trigger: TriggerActionBased, Condition: TriggerCondition{PlanViewCount: 1},
		Priority: 10, Kind: ValueMultiChoice,
		Options: []string{"none", "dairy", "eggs", "nuts", "shellfish", "gluten", "soy", "fish"},
	},
	{
		ID: "q_gym_access", FieldKey: FieldGymAccess,
		Text:    "Do you have access to a gym?",
		Trigger: TriggerActionBased, Condition: TriggerCondition{PlanViewCount: 2},
		Priority: 10, Kind: ValueBoolean,
		Options: []string{"true", "false"},
	},
	{
		ID: "q_dietary_style", FieldKey: FieldDietaryStyle,
		Text:    "Which eating style fits you best?",
		Trigger: TriggerContextBased, Condition: TriggerCondition{MealDislikes: 3},
		Priority: 9, Kind: ValueSingleChoice,
		Options: []string{"balanced", "high-protein", "mediterranean", "low-carb", "plant-based"},
	},
	{
		ID: "q_cooking_time", FieldKey: FieldCookingTime,
		Text:    "How much time do you usually have for cooking?",
		Trigger: TriggerActionBased, Condition: TriggerCondition{MealLogCount: 2},
		Priority: 9, Kind: ValueSingleChoice,
		Options: []string{"15_or_less", "15_30", "30_45", "45_60", "60_plus"},
	},

	// Medium priority: ask after a few sessions.
	{
		ID: "q_grocery_budget", FieldKey: FieldGroceryBudget,
		Text:    "What's your typical weekly grocery budget?",
		Trigger: TriggerActionBased, Condition: TriggerCondition{PlanViewCount: 3},
		Priority: 8, Kind: ValueSingleChoice,
		Options: []string{"low", "medium", "high", "premium"},
	},
	{
		ID: "q_cooking_skill", FieldKey: FieldCookingSkill,
		Text:    "How would you rate your cooking skills?",
		Trigger: TriggerActionBased, Condition: TriggerCondition{MealLogCount: 3},
		Priority: 8, Kind: ValueSingleChoice,
		Options: []string{"beginner", "intermediate", "advanced"},
	},
	{
		ID: "q_exercise_frequency", FieldKey: FieldExerciseFrequency,
		Text:    "How often do you want to train each week?",
		Trigger: TriggerContextBased, Condition: TriggerCondition{LowEnergyDays: 3},
		Priority: 8, Kind: ValueSingleChoice,
		Options: []string{"1-2 times/week", "3-4 times/week", "4-5 times/week", "6+ times/week"},
	},
	{
		ID: "q_sleep_quality", FieldKey: FieldSleepQuality,
		Text:    "How would you rate your sleep quality lately? (1-10)",
		Trigger: TriggerTimeBased, Condition: TriggerCondition{DaysSinceSignup: 3},
		Priority: 7, Kind: ValueScale,
	},
	{
		ID: "q_stress_level", FieldKey: FieldStressLevel,
		Text:    "How stressed have you been lately? (1-10)",
		Trigger: TriggerTimeBased, Condition: TriggerCondition{DaysSinceSignup: 3},
		Priority: 7, Kind: ValueScale,
	},
	{
		ID: "q_equipment", FieldKey: FieldEquipment,
		Text:    "What equipment do you have access to?",
		Trigger: TriggerActionBased, Condition: TriggerCondition{WorkoutCount: 2},
		Priority: 7, Kind: ValueMultiChoice,
		Options: []string{"none", "dumbbells", "barbell", "resistance_bands", "pull_up_bar", "kettlebells", "machines", "full_gym"},
	},
	{
		ID: "q_workout_location", FieldKey: FieldWorkoutLocation,
		Text:    "Where do you prefer to train?",
		Trigger: TriggerContextBased, Condition: TriggerCondition{WorkoutSkips: 2},
		Priority: 7, Kind: ValueSingleChoice,
		Options: []string{"gym", "home", "outdoor", "mixed"},
	},

	// Low priority: ask after the first week.
	{
		ID: "q_health_conditions", FieldKey: FieldHealthConditions,
		Text:    "Any health conditions we should consider?",
		Trigger: TriggerTimeBased, Condition: TriggerCondition{DaysSinceSignup: 7},
		Priority: 6, Kind: ValueMultiChoice,
		Options: []string{"none", "diabetes", "high_blood_pressure", "high_cholesterol", "ibs", "pcos", "thyroid", "other"},
	},
	{
		ID: "q_injuries", FieldKey: FieldInjuries,
		Text:    "Any injuries or physical limitations?",
		Trigger: TriggerActionBased, Condition: TriggerCondition{WorkoutCount: 3},
		Priority: 6, Kind: ValueMultiChoice,
		Options: []string{"none", "knee", "back", "shoulder", "ankle", "wrist", "other"},
	},
	{
		ID: "q_meal_prep", FieldKey: FieldMealPrepPref,
		Text:    "How do you feel about meal prep?",
		Trigger: TriggerContextBased, Condition: TriggerCondition{MealDislikes: 2},
		Priority: 6, Kind: ValueSingleChoice,
		Options: []string{"love_it", "some_prep", "minimal", "none"},
	},
	{
		ID: "q_water_goal", FieldKey: FieldWaterGoal,
		Text:    "How many glasses of water do you aim to drink daily?",
		Trigger: TriggerTimeBased, Condition: TriggerCondition{DaysSinceSignup: 5},
		Priority: 6, Kind: ValueNumeric,
		Options: []string{"4", "6", "8", "10", "12"},
	},
}

var questionIndex = buildQuestionIndex()

func buildQuestionIndex() map[string]Question {
	idx := make(map[string]Question, len(questionCatalog))
	for _, q := range questionCatalog {
		idx[q.ID] = q
	}
	return idx
}

// Questions returns the full question catalog in declaration order.
// Callers must not mutate the returned slice.
func Questions() []Question {
	return questionCatalog
}

// QuestionByID looks up a catalog question by id.
func QuestionByID(id string) (Question, bool) {
	q, ok := questionIndex[id]
	return q, ok
}

// QuestionsByTrigger returns all catalog questions of one trigger class.
func QuestionsByTrigger(t TriggerType) []Question {
	var out []Question
	for _, q := range questionCatalog {
		if q.Trigger == t {
			out = append(out, q)
		}
	}
	return out
}
