package promptbuilder

import (
	"fmt"
	"strings"

	"github.com/greenlean/greenlean/app/models"
	"github.com/greenlean/greenlean/internal/pkg/schema"
)

// mealDefaults are the goal-conditioned fallbacks used when a preference has
// not been collected yet.
type mealDefaults struct {
	MealsPerDay   int
	CookingSkill  string
	CookingTime   string
	DietaryStyle  string
	GroceryBudget string
	MealPrep      string
}

var mealDefaultsByGoal = map[string]mealDefaults{
	"lose_weight": {
		MealsPerDay:   3,
		CookingSkill:  "beginner",
		CookingTime:   "30 minutes",
		DietaryStyle:  "balanced",
		GroceryBudget: "medium",
		MealPrep:      "some_prep",
	},
	"gain_muscle": {
		MealsPerDay:   4,
		CookingSkill:  "intermediate",
		CookingTime:   "45 minutes",
		DietaryStyle:  "high-protein",
		GroceryBudget: "medium-high",
		MealPrep:      "some_prep",
	},
	"maintain": {
		MealsPerDay:   3,
		CookingSkill:  "beginner",
		CookingTime:   "30 minutes",
		DietaryStyle:  "balanced",
		GroceryBudget: "medium",
		MealPrep:      "some_prep",
	},
	"improve_health": {
		MealsPerDay:   3,
		CookingSkill:  "beginner",
		CookingTime:   "30 minutes",
		DietaryStyle:  "mediterranean",
		GroceryBudget: "medium",
		MealPrep:      "some_prep",
	},
}

func mealDefaultsForGoal(goal string) mealDefaults {
	if d, ok := mealDefaultsByGoal[goal]; ok {
		return d
	}
	return mealDefaultsByGoal["maintain"]
}

type mealBuilder struct{}

// NewMealBuilder creates the instruction builder for the meal plan domain.
func NewMealBuilder() Builder {
	return &mealBuilder{}
}

func (b *mealBuilder) PlanType() string {
	return models.PLAN_TYPE_MEAL
}

// Build renders the meal instruction payload for the tier the data supports.
// Higher tiers add sections on top of lower tiers, never remove them.
func (b *mealBuilder) Build(req Request) Result {
	report := analyze(req.Profile)
	tier := effectiveTier(req.RequestedTier, report.Tier)

	tracker := &defaultTracker{}
	var p strings.Builder

	b.writeHeader(&p, tier)
	b.writeEssentialInfo(&p, req.Profile)
	b.writeNutritionTargets(&p, req.Targets)
	b.writeDietaryPreferences(&p, req.Profile, tier, tracker)
	if tier.Rank() >= schema.TierStandard.Rank() {
		b.writeLifestyleAndPrep(&p, req.Profile, tracker)
	}
	if tier == schema.TierPremium {
		b.writeHealthConsiderations(&p, req.Profile, tracker)
	}
	b.writeInstructions(&p, req.Profile, req.Targets, tier)
	b.writeOutputFormat(&p, req.Targets, tier)

	return Result{
		Prompt: p.String(),
		Metadata: Metadata{
			EffectiveTier:       tier,
			CompletenessPercent: report.CompletenessPercent,
			MissingFields:       missingKeys(report),
			DefaultsApplied:     tracker.applied,
		},
	}
}

func (b *mealBuilder) writeHeader(p *strings.Builder, tier schema.Tier) {
	switch tier {
	case schema.TierPremium:
		p.WriteString("You are a professional nutrition consultant and meal designer, helping create realistic, evidence-based, fully personalized meal plans.\n")
	case schema.TierStandard:
		p.WriteString("You are a professional nutrition assistant and meal designer, helping create realistic, evidence-based plans tuned to the user's stated preferences.\n")
	default:
		p.WriteString("You are a professional nutrition assistant and meal designer, helping create realistic, evidence-based plans.\n")
	}
	p.WriteString("You guide and suggest meals, never prescribe, emphasizing flexibility and personal choice.\n")
}

func (b *mealBuilder) writeEssentialInfo(p *strings.Builder, profile *models.Profile) {
	section(p, "ESSENTIAL USER INFO")
	fmt.Fprintf(p, "Goal: %s\n", humanizeGoal(stringField(profile, schema.FieldMainGoal)))
	fmt.Fprintf(p, "Current Weight: %s kg\n", orNotSpecified(stringField(profile, schema.FieldCurrentWeight)))
	fmt.Fprintf(p, "Target Weight: %s kg\n", orNotSpecified(stringField(profile, schema.FieldTargetWeight)))
	fmt.Fprintf(p, "Age: %s\n", orNotSpecified(stringField(profile, schema.FieldAge)))
	fmt.Fprintf(p, "Gender: %s\n", orNotSpecified(stringField(profile, schema.FieldGender)))
	fmt.Fprintf(p, "Height: %s cm\n", orNotSpecified(stringField(profile, schema.FieldHeight)))
	fmt.Fprintf(p, "Activity Level: %s\n", orNotSpecified(stringField(profile, schema.FieldActivityLevel)))
	fmt.Fprintf(p, "Exercise Frequency: %s\n", orNotSpecified(stringField(profile, schema.FieldExerciseFrequency)))
}

// writeNutritionTargets embeds the caller-supplied numbers verbatim. The
// builder never recomputes calories or macros.
func (b *mealBuilder) writeNutritionTargets(p *strings.Builder, t NutritionTargets) {
	section(p, "NUTRITION TARGETS")
	fmt.Fprintf(p, "Daily Calories: %d kcal\n", t.DailyCalories)
	fmt.Fprintf(p, "Protein: %dg\n", t.Protein)
	fmt.Fprintf(p, "Carbs: %dg\n", t.Carbs)
	fmt.Fprintf(p, "Fats: %dg\n", t.Fats)
	p.WriteString("The daily_totals in the output must match these targets exactly.\n")
}

func (b *mealBuilder) writeDietaryPreferences(p *strings.Builder, profile *models.Profile, tier schema.Tier, d *defaultTracker) {
	goal := stringField(profile, schema.FieldMainGoal)
	defaults := mealDefaultsForGoal(goal)

	section(p, "DIETARY PREFERENCES")
	fmt.Fprintf(p, "Dietary Style: %s\n", d.fieldString(profile, schema.FieldDietaryStyle, defaults.DietaryStyle))
	fmt.Fprintf(p, "Meals Per Day: %d\n", d.fieldInt(profile, schema.FieldMealsPerDay, defaults.MealsPerDay))
	fmt.Fprintf(p, "Cooking Skill: %s\n", d.fieldString(profile, schema.FieldCookingSkill, defaults.CookingSkill))
	fmt.Fprintf(p, "Available Cooking Time: %s\n", d.fieldString(profile, schema.FieldCookingTime, defaults.CookingTime))
	fmt.Fprintf(p, "Grocery Budget: %s\n", d.fieldString(profile, schema.FieldGroceryBudget, defaults.GroceryBudget))

	if tier.Rank() >= schema.TierStandard.Rank() {
		fmt.Fprintf(p, "Food Allergies/Intolerances: %s\n", d.fieldList(profile, schema.FieldFoodAllergies, "None"))
		fmt.Fprintf(p, "Dietary Restrictions: %s\n", d.fieldList(profile, schema.FieldDietRestrictions, "None"))
		fmt.Fprintf(p, "Disliked Foods: %s\n", d.fieldList(profile, schema.FieldDislikedFoods, "None"))
	}

	if tier == schema.TierBasic {
		p.WriteString("\nNote: preferences above marked with common values are smart defaults; the plan becomes more personalized as the user answers more questions.\n")
	}
}

func (b *mealBuilder) writeLifestyleAndPrep(p *strings.Builder, profile *models.Profile, d *defaultTracker) {
	goal := stringField(profile, schema.FieldMainGoal)
	defaults := mealDefaultsForGoal(goal)

	section(p, "LIFESTYLE & PREP")
	fmt.Fprintf(p, "Meal Prep Preference: %s\n", d.fieldString(profile, schema.FieldMealPrepPref, defaults.MealPrep))
	fmt.Fprintf(p, "Plan batch cooking and storage guidance that fits the cooking time of %s.\n",
		d.fieldString(profile, schema.FieldCookingTime, defaults.CookingTime))
}

func (b *mealBuilder) writeHealthConsiderations(p *strings.Builder, profile *models.Profile, d *defaultTracker) {
	section(p, "HEALTH CONSIDERATIONS")
	fmt.Fprintf(p, "Health Conditions: %s\n", d.fieldList(profile, schema.FieldHealthConditions, "None reported"))
	fmt.Fprintf(p, "Current Medications: %s\n", d.fieldList(profile, schema.FieldMedications, "None reported"))
	fmt.Fprintf(p, "Sleep Quality (1-10): %s\n", orNotSpecified(stringField(profile, schema.FieldSleepQuality)))
	fmt.Fprintf(p, "Stress Level (1-10): %s\n", orNotSpecified(stringField(profile, schema.FieldStressLevel)))
	fmt.Fprintf(p, "Daily Water Goal (glasses): %s\n", orNotSpecified(stringField(profile, schema.FieldWaterGoal)))
	p.WriteString("Adapt meals for the conditions above, consider food-medication interactions, and support sleep and stress through nutrition.\n")
}

func (b *mealBuilder) writeInstructions(p *strings.Builder, profile *models.Profile, t NutritionTargets, tier schema.Tier) {
	section(p, "CRITICAL INSTRUCTIONS")
	p.WriteString("Create a practical meal plan that:\n")
	p.WriteString("1. Uses common ingredients available at any grocery store.\n")
	p.WriteString("2. Is budget-friendly with seasonal produce.\n")
	fmt.Fprintf(p, "3. Meets the nutrition targets exactly: %d kcal, %dg protein, %dg carbs, %dg fats.\n",
		t.DailyCalories, t.Protein, t.Carbs, t.Fats)
	p.WriteString("4. Optimizes for the user's goal: ")
	p.WriteString(humanizeGoal(stringField(profile, schema.FieldMainGoal)))
	p.WriteString(".\n")
	p.WriteString("5. Allows some meal repetition across days to support routine and consistency.\n")

	if tier.Rank() >= schema.TierStandard.Rank() {
		p.WriteString("6. Respects every allergy, restriction, and disliked food listed above without exception.\n")
		p.WriteString("7. Matches recipe complexity to the stated cooking skill and available time.\n")
	}
	if tier == schema.TierPremium {
		p.WriteString("8. Applies micronutrient optimization and meal timing for energy and recovery.\n")
		p.WriteString("9. Explains why each meal supports the user's goal and health profile.\n")
	}
}

func (b *mealBuilder) writeOutputFormat(p *strings.Builder, t NutritionTargets, tier schema.Tier) {
	section(p, "OUTPUT FORMAT (STRICT JSON)")
	p.WriteString("Return ONLY valid JSON with these keys:\n")
	p.WriteString("- meals: array of { meal_type, meal_name, prep_time_minutes, difficulty, meal_timing, total_calories, total_protein, total_carbs, total_fats, foods, recipe, tips }\n")
	fmt.Fprintf(p, "- daily_totals: { calories: %d, protein: %d, carbs: %d, fats: %d, fiber, variance }\n",
		t.DailyCalories, t.Protein, t.Carbs, t.Fats)
	p.WriteString("- shopping_list: { proteins, vegetables, carbs, fats, pantry_staples, estimated_cost }\n")

	if tier.Rank() >= schema.TierStandard.Rank() {
		p.WriteString("- meal_prep_strategy: { batch_cooking, storage_tips, time_saving_hacks }\n")
	}
	if tier == schema.TierPremium {
		p.WriteString("- hydration_plan: { daily_water_intake, timing, electrolyte_needs, hydration_tips }\n")
		p.WriteString("- personalized_tips: array of goal, sleep, stress and health-condition specific advice\n")
		p.WriteString("- meals[].key_micronutrients, meals[].why_this_meal, meals[].substitutions, meals[].allergen_info are required per meal\n")
	}

	p.WriteString("\nCRITICAL: Return ONLY the JSON object. No markdown, no explanations.\n")
}
