package survey

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/greenlean/greenlean/app/models"
	"github.com/greenlean/greenlean/app/repository"
	"github.com/greenlean/greenlean/internal/pkg/completeness"
	"github.com/greenlean/greenlean/internal/pkg/regeneration"
	"github.com/greenlean/greenlean/internal/pkg/schema"
)

var (
	ErrUnknownQuestion = errors.New("unknown survey question")
	ErrInvalidValue    = errors.New("invalid survey answer")
	ErrUnlockNotFound  = errors.New("tier unlock event not found")
)

// SignalProvider supplies the activity counters trigger conditions are
// evaluated against.
type SignalProvider interface {
	Signals(userID uint) (schema.Signals, error)
}

// Regenerator dispatches plan regenerations once a user accepts a tier
// unlock. Implemented by the job queue.
type Regenerator interface {
	Regenerate(userID uint, planType string, reason regeneration.Reason) error
}

// Clock abstracts time.Now for tests.
type Clock func() time.Time

// Engine runs the micro-survey lifecycle: evaluating triggers, selecting the
// next question, recording answers and managing tier unlock events.
type Engine struct {
	repos    *repository.Repositories
	signals  SignalProvider
	regen    Regenerator
	analyzer *completeness.Analyzer
	now      Clock
}

// NewEngine creates a survey engine. clock may be nil to use time.Now.
func NewEngine(repos *repository.Repositories, signals SignalProvider, regen Regenerator, clock Clock) *Engine {
	if clock == nil {
		clock = time.Now
	}
	return &Engine{
		repos:    repos,
		signals:  signals,
		regen:    regen,
		analyzer: completeness.NewAnalyzer(),
		now:      clock,
	}
}

// CheckTriggers evaluates every catalog question against the user's current
// signals and creates trigger rows for newly met conditions. Questions whose
// field is already filled, or that were already answered, never trigger.
// Safe to call repeatedly; existing rows are left untouched.
func (e *Engine) CheckTriggers(userID uint) ([]models.SurveyTrigger, error) {
	signals, err := e.signals.Signals(userID)
	if err != nil {
		return nil, fmt.Errorf("load signals: %w", err)
	}

	answered, err := e.repos.Response.AnsweredQuestionIDs(userID)
	if err != nil {
		return nil, fmt.Errorf("load answered questions: %w", err)
	}

	profile, err := e.repos.Profile.GetOrCreate(userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	var created []models.SurveyTrigger
	for _, q := range schema.Questions() {
		if answered[q.ID] || profile.FieldComplete(q.FieldKey) {
			continue
		}
		if !q.Condition.Met(signals) {
			continue
		}

		trigger := models.SurveyTrigger{
			UserID:      userID,
			QuestionID:  q.ID,
			TriggerType: string(q.Trigger),
			TriggeredAt: e.now(),
		}
		inserted, err := e.repos.Trigger.CreateIfAbsent(&trigger)
		if err != nil {
			return nil, fmt.Errorf("create trigger for %s: %w", q.ID, err)
		}
		if inserted {
			log.Infof("[SurveyEngine] Triggered question %s for user %d (%s)", q.ID, userID, q.Trigger)
			created = append(created, trigger)
		}
	}

	return created, nil
}

// NextQuestion is what the client should ask the user right now.
type NextQuestion struct {
	Question    schema.Question `json:"question"`
	TriggeredAt time.Time       `json:"triggered_at"`
}

// NextQuestion picks the open, unanswered trigger whose question has the
// highest priority, breaking ties by oldest trigger first. Returns nil when
// nothing is due. Marking the trigger shown is best effort.
func (e *Engine) NextQuestion(userID uint) (*NextQuestion, error) {
	triggers, err := e.repos.Trigger.ListOpen(userID)
	if err != nil {
		return nil, fmt.Errorf("list open triggers: %w", err)
	}
	if len(triggers) == 0 {
		return nil, nil
	}

	answered, err := e.repos.Response.AnsweredQuestionIDs(userID)
	if err != nil {
		return nil, fmt.Errorf("load answered questions: %w", err)
	}

	var best *models.SurveyTrigger
	var bestQ schema.Question
	for i := range triggers {
		t := &triggers[i]
		if answered[t.QuestionID] {
			continue
		}
		q, ok := schema.QuestionByID(t.QuestionID)
		if !ok {
			// Catalog changed since the trigger was written.
			log.Warnf("[SurveyEngine] Trigger for unknown question %s, skipping", t.QuestionID)
			continue
		}
		if best == nil ||
			q.Priority > bestQ.Priority ||
			(q.Priority == bestQ.Priority && t.TriggeredAt.Before(best.TriggeredAt)) {
			best = t
			bestQ = q
		}
	}
	if best == nil {
		return nil, nil
	}

	if err := e.repos.Trigger.MarkShown(userID, best.QuestionID, e.now()); err != nil {
		log.Warnf("[SurveyEngine] Failed to mark question %s shown for user %d: %v", best.QuestionID, userID, err)
	}

	return &NextQuestion{Question: bestQ, TriggeredAt: best.TriggeredAt}, nil
}

// DismissQuestion closes the trigger without recording an answer. The
// question will not be offered again.
func (e *Engine) DismissQuestion(userID uint, questionID string) error {
	if _, ok := schema.QuestionByID(questionID); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownQuestion, questionID)
	}
	return e.repos.Trigger.MarkDismissed(userID, questionID, e.now())
}

// ResponseResult reports the completeness movement caused by one answer.
type ResponseResult struct {
	Response           models.SurveyResponse   `json:"response"`
	Report             completeness.Report     `json:"report"`
	UnlockEvent        *models.TierUnlockEvent `json:"unlock_event,omitempty"`
	ThresholdCrossed   bool                    `json:"threshold_crossed"`
	CompletenessBefore float64                 `json:"completeness_before"`
}

// RecordResponse stores an answer, writes it through to the profile field and
// emits at most one tier unlock event when the answer pushes the profile
// across a threshold. Suppresses the event for a profile that was empty
// before, first-time setup is not an upgrade worth interrupting for.
// Re-answering a question overwrites the previous response.
func (e *Engine) RecordResponse(userID uint, questionID string, rawValue interface{}) (*ResponseResult, error) {
	q, ok := schema.QuestionByID(questionID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownQuestion, questionID)
	}

	parsed, err := ParseValue(q.Kind, rawValue)
	if err != nil {
		return nil, err
	}

	profile, err := e.repos.Profile.GetOrCreate(userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	before := e.analyzer.Analyze(profile)

	if err := e.repos.Profile.UpdateField(userID, q.FieldKey, parsed); err != nil {
		return nil, fmt.Errorf("update profile field %s: %w", q.FieldKey, err)
	}

	profile, err = e.repos.Profile.GetOrCreate(userID)
	if err != nil {
		return nil, fmt.Errorf("reload profile: %w", err)
	}
	after := e.analyzer.Analyze(profile)

	crossed := after.Tier.Rank() > before.Tier.Rank()

	valueJSON, err := json.Marshal(parsed)
	if err != nil {
		return nil, fmt.Errorf("encode answer: %w", err)
	}

	response := models.SurveyResponse{
		UserID:             userID,
		QuestionID:         q.ID,
		Value:              string(valueJSON),
		FieldUpdated:       q.FieldKey,
		CompletenessBefore: before.CompletenessPercent,
		CompletenessAfter:  after.CompletenessPercent,
		TierBefore:         string(before.Tier),
		TierAfter:          string(after.Tier),
		ThresholdCrossed:   crossed,
		RespondedAt:        e.now(),
	}
	if err := e.repos.Response.Upsert(&response); err != nil {
		return nil, fmt.Errorf("store response: %w", err)
	}

	result := &ResponseResult{
		Response:           response,
		Report:             after,
		ThresholdCrossed:   crossed,
		CompletenessBefore: before.CompletenessPercent,
	}

	if crossed && before.CompletenessPercent > 0 {
		event := models.TierUnlockEvent{
			UserID:              userID,
			OldTier:             string(before.Tier),
			NewTier:             string(after.Tier),
			CompletenessPercent: after.CompletenessPercent,
			CreatedAt:           e.now(),
		}
		if err := e.repos.Unlock.Create(&event); err != nil {
			return nil, fmt.Errorf("create unlock event: %w", err)
		}
		log.Infof("[SurveyEngine] User %d unlocked tier %s at %.1f%% completeness", userID, after.Tier, after.CompletenessPercent)
		result.UnlockEvent = &event
	}

	return result, nil
}

// PendingUnlocks lists the user's unresolved tier unlock events.
func (e *Engine) PendingUnlocks(userID uint) ([]models.TierUnlockEvent, error) {
	return e.repos.Unlock.ListPending(userID)
}

// ResolveUnlock applies the user's decision on a pending unlock. On accept,
// regeneration is dispatched for each selected plan type; dispatch failures
// are logged, the resolution itself stands.
func (e *Engine) ResolveUnlock(userID uint, eventID uint, accept bool, regenMeal bool, regenWorkout bool) (*models.TierUnlockEvent, error) {
	event, err := e.repos.Unlock.GetByID(userID, eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrUnlockNotFound, eventID)
		}
		return nil, err
	}
	if event == nil {
		return nil, fmt.Errorf("%w: %d", ErrUnlockNotFound, eventID)
	}

	if accept {
		err = event.Accept(e.now(), regenMeal, regenWorkout)
	} else {
		err = event.Dismiss(e.now())
	}
	if err != nil {
		return nil, err
	}

	if err := e.repos.Unlock.Update(event); err != nil {
		return nil, fmt.Errorf("update unlock event: %w", err)
	}

	if accept && e.regen != nil {
		if regenMeal {
			if err := e.regen.Regenerate(userID, models.PLAN_TYPE_MEAL, regeneration.ReasonTierUpgrade); err != nil {
				log.Errorf("[SurveyEngine] Failed to dispatch meal regeneration for user %d: %v", userID, err)
			}
		}
		if regenWorkout {
			if err := e.regen.Regenerate(userID, models.PLAN_TYPE_WORKOUT, regeneration.ReasonTierUpgrade); err != nil {
				log.Errorf("[SurveyEngine] Failed to dispatch workout regeneration for user %d: %v", userID, err)
			}
		}
	}

	return event, nil
}
