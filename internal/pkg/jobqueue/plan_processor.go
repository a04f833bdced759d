package jobqueue

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/greenlean/greenlean/app/models"
	"github.com/greenlean/greenlean/app/repository"
	"github.com/greenlean/greenlean/internal/pkg/cache"
	"github.com/greenlean/greenlean/internal/pkg/generation"
	"github.com/greenlean/greenlean/internal/pkg/promptbuilder"
	"github.com/greenlean/greenlean/internal/pkg/schema"
)

// Generated plan content is kept in Redis for the client to fetch.
const (
	planContentKeyPrefix = "plan:content:"
	planContentTTL       = 30 * 24 * time.Hour
)

// PlanContentKey returns the Redis key holding a user's generated plan.
func PlanContentKey(userID uint, planType string) string {
	return fmt.Sprintf("%s%d:%s", planContentKeyPrefix, userID, planType)
}

// PlanProcessor turns plan generation jobs into generated content: build the
// instruction payload, call the provider, record the terminal status.
type PlanProcessor struct {
	repos    *repository.Repositories
	builders map[string]promptbuilder.Builder
	provider generation.Provider
}

// NewPlanProcessor creates a processor wired to the given provider.
func NewPlanProcessor(repos *repository.Repositories, provider generation.Provider) *PlanProcessor {
	meal := promptbuilder.NewMealBuilder()
	workout := promptbuilder.NewWorkoutBuilder()
	return &PlanProcessor{
		repos: repos,
		builders: map[string]promptbuilder.Builder{
			meal.PlanType():    meal,
			workout.PlanType(): workout,
		},
		provider: provider,
	}
}

// Process handles one plan generation job. Provider failures are terminal:
// the plan status is set to failed and the job is NOT retried, the user
// re-requests explicitly. Infrastructure errors before the provider call
// return an error so the queue's retry logic applies.
func (p *PlanProcessor) Process(ctx context.Context, job *Job) error {
	payload, err := PlanGenerationJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid plan generation payload: %w", err)
	}
	if !models.ValidPlanType(payload.PlanType) {
		return fmt.Errorf("invalid plan type %q", payload.PlanType)
	}

	builder, ok := p.builders[payload.PlanType]
	if !ok {
		return fmt.Errorf("no builder registered for plan type %q", payload.PlanType)
	}

	profile, err := p.repos.Profile.GetOrCreate(payload.UserID)
	if err != nil {
		return fmt.Errorf("load profile for user %d: %w", payload.UserID, err)
	}

	result := builder.Build(promptbuilder.Request{
		Profile:       profile,
		RequestedTier: schema.Tier(payload.RequestedTier),
		Targets: promptbuilder.NutritionTargets{
			DailyCalories: payload.DailyCalories,
			Protein:       payload.Protein,
			Carbs:         payload.Carbs,
			Fats:          payload.Fats,
		},
	})

	log.Infof("[PlanProcessor] Generating %s plan for user %d (tier=%s, completeness=%.1f%%)",
		payload.PlanType, payload.UserID, result.Metadata.EffectiveTier, result.Metadata.CompletenessPercent)

	content, err := p.provider.Generate(ctx, result.Prompt)
	if err != nil {
		log.Errorf("[PlanProcessor] Generation failed for user %d (%s): %v", payload.UserID, payload.PlanType, err)
		if serr := p.repos.PlanStatus.Set(payload.UserID, payload.PlanType, models.PLAN_STATUS_FAILED, err.Error()); serr != nil {
			return fmt.Errorf("record failed status: %w", serr)
		}
		// Terminal: the failure is recorded, do not retry the provider.
		return nil
	}

	if err := cache.Set(PlanContentKey(payload.UserID, payload.PlanType), content, planContentTTL); err != nil {
		log.Errorf("[PlanProcessor] Failed to store plan content for user %d: %v", payload.UserID, err)
	}

	if err := p.repos.PlanStatus.Set(payload.UserID, payload.PlanType, models.PLAN_STATUS_COMPLETED, ""); err != nil {
		return fmt.Errorf("record completed status: %w", err)
	}

	log.Infof("[PlanProcessor] Completed %s plan for user %d", payload.PlanType, payload.UserID)
	return nil
}
