package promptbuilder

import (
	"fmt"
	"strings"

	"github.com/greenlean/greenlean/app/models"
	"github.com/greenlean/greenlean/internal/pkg/schema"
)

// workoutDefaults are the goal-conditioned fallbacks for training preferences
// that have not been collected yet.
type workoutDefaults struct {
	ExerciseFrequency string
	SessionDuration   string
	TrainingSplit     string
	Experience        string
}

var workoutDefaultsByGoal = map[string]workoutDefaults{
	"lose_weight": {
		ExerciseFrequency: "3-4 days per week",
		SessionDuration:   "45 minutes",
		TrainingSplit:     "full body with cardio finishers",
		Experience:        "beginner",
	},
	"gain_muscle": {
		ExerciseFrequency: "4-5 days per week",
		SessionDuration:   "60 minutes",
		TrainingSplit:     "upper/lower split",
		Experience:        "intermediate",
	},
	"maintain": {
		ExerciseFrequency: "3 days per week",
		SessionDuration:   "45 minutes",
		TrainingSplit:     "full body",
		Experience:        "beginner",
	},
	"improve_health": {
		ExerciseFrequency: "3 days per week",
		SessionDuration:   "30 minutes",
		TrainingSplit:     "full body, low impact",
		Experience:        "beginner",
	},
}

func workoutDefaultsForGoal(goal string) workoutDefaults {
	if d, ok := workoutDefaultsByGoal[goal]; ok {
		return d
	}
	return workoutDefaultsByGoal["maintain"]
}

type workoutBuilder struct{}

// NewWorkoutBuilder creates the instruction builder for the workout plan domain.
func NewWorkoutBuilder() Builder {
	return &workoutBuilder{}
}

func (b *workoutBuilder) PlanType() string {
	return models.PLAN_TYPE_WORKOUT
}

func (b *workoutBuilder) Build(req Request) Result {
	report := analyze(req.Profile)
	tier := effectiveTier(req.RequestedTier, report.Tier)

	tracker := &defaultTracker{}
	var p strings.Builder

	b.writeHeader(&p, tier)
	b.writeDemographics(&p, req.Profile)
	b.writeTrainingProfile(&p, req.Profile, tracker)
	if tier.Rank() >= schema.TierStandard.Rank() {
		b.writeTrainingEnvironment(&p, req.Profile, tracker)
	}
	if tier == schema.TierPremium {
		b.writeHealthAndRecovery(&p, req.Profile, tracker)
	}
	b.writeInstructions(&p, req.Profile, tier)
	b.writeOutputFormat(&p, tier)

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

func (b *workoutBuilder) writeHeader(p *strings.Builder, tier schema.Tier) {
	switch tier {
	case schema.TierPremium:
		p.WriteString("You are an experienced personal trainer and strength coach designing a fully individualized training program.\n")
	case schema.TierStandard:
		p.WriteString("You are an experienced personal trainer designing an effective program around the user's environment and experience.\n")
	default:
		p.WriteString("You are an experienced personal trainer designing a safe, effective program for a new client.\n")
	}
	p.WriteString("Every exercise must be appropriate for the stated fitness level, with clear form cues and sensible progression.\n")
}

func (b *workoutBuilder) writeDemographics(p *strings.Builder, profile *models.Profile) {
	section(p, "DEMOGRAPHICS & PHYSIQUE")
	fmt.Fprintf(p, "Goal: %s\n", humanizeGoal(stringField(profile, schema.FieldMainGoal)))
	fmt.Fprintf(p, "Age: %s\n", orNotSpecified(stringField(profile, schema.FieldAge)))
	fmt.Fprintf(p, "Gender: %s\n", orNotSpecified(stringField(profile, schema.FieldGender)))
	fmt.Fprintf(p, "Height: %s cm\n", orNotSpecified(stringField(profile, schema.FieldHeight)))
	fmt.Fprintf(p, "Current Weight: %s kg\n", orNotSpecified(stringField(profile, schema.FieldCurrentWeight)))
	fmt.Fprintf(p, "Target Weight: %s kg\n", orNotSpecified(stringField(profile, schema.FieldTargetWeight)))
}

func (b *workoutBuilder) writeTrainingProfile(p *strings.Builder, profile *models.Profile, d *defaultTracker) {
	goal := stringField(profile, schema.FieldMainGoal)
	defaults := workoutDefaultsForGoal(goal)

	section(p, "TRAINING PROFILE")
	fmt.Fprintf(p, "Fitness Experience: %s\n", d.fieldString(profile, schema.FieldFitnessExperience, defaults.Experience))
	fmt.Fprintf(p, "Activity Level: %s\n", orNotSpecified(stringField(profile, schema.FieldActivityLevel)))
	fmt.Fprintf(p, "Exercise Frequency: %s\n", d.fieldString(profile, schema.FieldExerciseFrequency, defaults.ExerciseFrequency))
	fmt.Fprintf(p, "Session Duration: %s\n", defaults.SessionDuration)
	fmt.Fprintf(p, "Suggested Training Split: %s\n", defaults.TrainingSplit)
}

func (b *workoutBuilder) writeTrainingEnvironment(p *strings.Builder, profile *models.Profile, d *defaultTracker) {
	section(p, "TRAINING ENVIRONMENT")

	gym := "Not specified"
	if has, ok := boolField(profile, schema.FieldGymAccess); ok {
		if has {
			gym = "Yes"
		} else {
			gym = "No"
		}
	}
	fmt.Fprintf(p, "Gym Access: %s\n", gym)
	fmt.Fprintf(p, "Workout Location: %s\n", orNotSpecified(stringField(profile, schema.FieldWorkoutLocation)))
	fmt.Fprintf(p, "Available Equipment: %s\n", d.fieldList(profile, schema.FieldEquipment, "Bodyweight only"))
	p.WriteString("Select exercises strictly from what the environment and equipment allow.\n")
}

func (b *workoutBuilder) writeHealthAndRecovery(p *strings.Builder, profile *models.Profile, d *defaultTracker) {
	section(p, "HEALTH & RECOVERY")
	fmt.Fprintf(p, "Injuries/Limitations: %s\n", d.fieldList(profile, schema.FieldInjuries, "None reported"))
	fmt.Fprintf(p, "Health Conditions: %s\n", d.fieldList(profile, schema.FieldHealthConditions, "None reported"))
	fmt.Fprintf(p, "Sleep Quality (1-10): %s\n", orNotSpecified(stringField(profile, schema.FieldSleepQuality)))
	fmt.Fprintf(p, "Stress Level (1-10): %s\n", orNotSpecified(stringField(profile, schema.FieldStressLevel)))
	p.WriteString("Work around every injury listed above, scale intensity to recovery capacity, and include deload guidance when sleep or stress scores are poor.\n")
}

func (b *workoutBuilder) writeInstructions(p *strings.Builder, profile *models.Profile, tier schema.Tier) {
	section(p, "YOUR MISSION")
	p.WriteString("Create a weekly workout plan that:\n")
	p.WriteString("1. Matches the stated training frequency and session duration.\n")
	p.WriteString("2. Progresses logically from week to week.\n")
	p.WriteString("3. Includes warm-up and cool-down for every session.\n")
	p.WriteString("4. Optimizes for the user's goal: ")
	p.WriteString(humanizeGoal(stringField(profile, schema.FieldMainGoal)))
	p.WriteString(".\n")

	if tier.Rank() >= schema.TierStandard.Rank() {
		p.WriteString("5. Uses only the equipment and location available to the user.\n")
		p.WriteString("6. Calibrates volume and exercise selection to the stated experience level.\n")
	}
	if tier == schema.TierPremium {
		p.WriteString("7. Provides substitutions for every exercise affected by injuries or conditions.\n")
		p.WriteString("8. Adds recovery protocols (mobility, rest days, sleep hygiene) matched to the user's recovery profile.\n")
	}
}

func (b *workoutBuilder) writeOutputFormat(p *strings.Builder, tier schema.Tier) {
	section(p, "OUTPUT FORMAT (STRICT JSON)")
	p.WriteString("Return ONLY valid JSON with these keys:\n")
	p.WriteString("- plan_name: short descriptive title\n")
	p.WriteString("- days: array of { day, focus, duration_minutes, warm_up, exercises, cool_down }\n")
	p.WriteString("- exercises entries: { name, sets, reps, rest_seconds, form_cues }\n")
	p.WriteString("- weekly_schedule: which days are training vs rest\n")
	p.WriteString("- progression_notes: how to advance over 4 weeks\n")

	if tier.Rank() >= schema.TierStandard.Rank() {
		p.WriteString("- equipment_used: flat list of everything the plan requires\n")
	}
	if tier == schema.TierPremium {
		p.WriteString("- recovery_protocol: { mobility_work, rest_day_guidance, sleep_recommendations }\n")
		p.WriteString("- exercises entries additionally require { modifications, contraindications }\n")
	}

	p.WriteString("\nCRITICAL: Return ONLY the JSON object. No markdown, no explanations.\n")
}
