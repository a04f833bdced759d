package apiv1

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/greenlean/greenlean/app/models"
	"github.com/greenlean/greenlean/app/repository"
	"github.com/greenlean/greenlean/internal/pkg/cache"
	"github.com/greenlean/greenlean/internal/pkg/completeness"
	"github.com/greenlean/greenlean/internal/pkg/jobqueue"
	metrics "github.com/greenlean/greenlean/internal/pkg/metrics/counter"
	"github.com/greenlean/greenlean/internal/pkg/regeneration"
	"github.com/greenlean/greenlean/internal/pkg/schema"
	"github.com/greenlean/greenlean/internal/pkg/survey"
	"github.com/greenlean/greenlean/internal/pkg/usercontext"
)

// PlanDispatcher queues plan generation work. Satisfied by the job queue
// manager.
type PlanDispatcher interface {
	EnqueuePlanGeneration(payload jobqueue.PlanGenerationJobPayload) (*jobqueue.Job, error)
	Regenerate(userID uint, planType string, reason regeneration.Reason) error
}

// APIServer implements the v1 HTTP surface
type APIServer struct {
	repos    *repository.Repositories
	manager  PlanDispatcher
	governor *regeneration.Governor
	analyzer *completeness.Analyzer
}

// NewAPIServer creates a new API server instance
func NewAPIServer(repos *repository.Repositories, manager PlanDispatcher) *APIServer {
	return &APIServer{
		repos:    repos,
		manager:  manager,
		governor: regeneration.NewGovernor(),
		analyzer: completeness.NewAnalyzer(),
	}
}

// staticSignals adapts client-reported activity counters to the survey
// engine's signal source.
type staticSignals struct {
	s schema.Signals
}

func (p staticSignals) Signals(userID uint) (schema.Signals, error) {
	return p.s, nil
}

func (s *APIServer) engine(signals schema.Signals) *survey.Engine {
	return survey.NewEngine(s.repos, staticSignals{s: signals}, s.manager, nil)
}

// GetPing handles the ping endpoint
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ping": "pong"})
}

type checkTriggersRequest struct {
	DaysSinceSignup int `json:"days_since_signup"`
	Workouts        int `json:"workouts"`
	MealLogs        int `json:"meal_logs"`
	PlanViews       int `json:"plan_views"`
	MealDislikes    int `json:"meal_dislikes"`
	WorkoutSkips    int `json:"workout_skips"`
	LowEnergyDays   int `json:"low_energy_days"`
}

// PostSurveyCheck evaluates trigger conditions against the client-reported
// activity counters and records any newly due questions.
func (s *APIServer) PostSurveyCheck(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)

	var req checkTriggersRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	created, err := s.engine(schema.Signals{
		DaysSinceSignup: req.DaysSinceSignup,
		Workouts:        req.Workouts,
		MealLogs:        req.MealLogs,
		PlanViews:       req.PlanViews,
		MealDislikes:    req.MealDislikes,
		WorkoutSkips:    req.WorkoutSkips,
		LowEnergyDays:   req.LowEnergyDays,
	}).CheckTriggers(userID)
	if err != nil {
		log.Errorf("[API] Trigger check failed for user %d: %v", userID, err)
		return internalError(c, "Trigger check failed")
	}

	return c.JSON(fiber.Map{"triggered": created, "count": len(created)})
}

// GetSurveyNext returns the highest priority open question, or 204 when
// nothing is due.
func (s *APIServer) GetSurveyNext(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)

	next, err := s.engine(schema.Signals{}).NextQuestion(userID)
	if err != nil {
		log.Errorf("[API] Next question lookup failed for user %d: %v", userID, err)
		return internalError(c, "Question lookup failed")
	}
	if next == nil {
		return c.SendStatus(fiber.StatusNoContent)
	}

	return c.JSON(next)
}

type surveyResponseRequest struct {
	QuestionID string      `json:"question_id"`
	Value      interface{} `json:"value"`
}

// PostSurveyResponse records an answer and reports the resulting
// completeness movement, including any tier unlock it caused.
func (s *APIServer) PostSurveyResponse(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)

	var req surveyResponseRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.QuestionID == "" {
		return badRequest(c, "question_id is required")
	}

	result, err := s.engine(schema.Signals{}).RecordResponse(userID, req.QuestionID, req.Value)
	if err != nil {
		switch {
		case errors.Is(err, survey.ErrUnknownQuestion):
			return notFound(c, "Unknown question")
		case errors.Is(err, survey.ErrInvalidValue):
			return badRequest(c, err.Error())
		default:
			log.Errorf("[API] Response recording failed for user %d: %v", userID, err)
			return internalError(c, "Response recording failed")
		}
	}

	return c.JSON(result)
}

type surveyDismissRequest struct {
	QuestionID string `json:"question_id"`
}

// PostSurveyDismiss closes a question without an answer.
func (s *APIServer) PostSurveyDismiss(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)

	var req surveyDismissRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if err := s.engine(schema.Signals{}).DismissQuestion(userID, req.QuestionID); err != nil {
		if errors.Is(err, survey.ErrUnknownQuestion) {
			return notFound(c, "Unknown question")
		}
		log.Errorf("[API] Question dismissal failed for user %d: %v", userID, err)
		return internalError(c, "Question dismissal failed")
	}

	return c.JSON(fiber.Map{"dismissed": req.QuestionID})
}

// GetSurveyResponses returns the user's answer history, newest first. With a
// question_id query it returns that single response instead.
func (s *APIServer) GetSurveyResponses(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)

	if questionID := c.Query("question_id"); questionID != "" {
		response, err := s.repos.Response.GetByUserAndQuestion(userID, questionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound(c, "No response recorded for this question")
			}
			log.Errorf("[API] Response lookup failed for user %d: %v", userID, err)
			return internalError(c, "Response lookup failed")
		}
		return c.JSON(response)
	}

	responses, err := s.repos.Response.ListByUser(userID)
	if err != nil {
		log.Errorf("[API] Response listing failed for user %d: %v", userID, err)
		return internalError(c, "Response listing failed")
	}

	return c.JSON(fiber.Map{"responses": responses, "count": len(responses)})
}

// GetUnlocksPending lists unresolved tier unlock events.
func (s *APIServer) GetUnlocksPending(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)

	pending, err := s.engine(schema.Signals{}).PendingUnlocks(userID)
	if err != nil {
		log.Errorf("[API] Pending unlocks lookup failed for user %d: %v", userID, err)
		return internalError(c, "Unlock lookup failed")
	}

	return c.JSON(fiber.Map{"pending": pending, "count": len(pending)})
}

type resolveUnlockRequest struct {
	Action            string `json:"action"` // accept or dismiss
	RegenerateMeal    bool   `json:"regenerate_meal"`
	RegenerateWorkout bool   `json:"regenerate_workout"`
}

// PostUnlockResolve applies the user's decision on a pending unlock event.
// Accepting dispatches unmetered regenerations for the selected plan types.
func (s *APIServer) PostUnlockResolve(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)

	eventID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return badRequest(c, "Invalid unlock event id")
	}

	var req resolveUnlockRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Action != "accept" && req.Action != "dismiss" {
		return badRequest(c, "action must be accept or dismiss")
	}

	event, err := s.engine(schema.Signals{}).ResolveUnlock(userID, uint(eventID), req.Action == "accept", req.RegenerateMeal, req.RegenerateWorkout)
	if err != nil {
		if errors.Is(err, survey.ErrUnlockNotFound) {
			return notFound(c, "Unlock event not found")
		}
		log.Errorf("[API] Unlock resolution failed for user %d: %v", userID, err)
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "conflict", "message": err.Error()})
	}

	return c.JSON(event)
}

type generatePlanRequest struct {
	PlanType      string `json:"plan_type"`
	RequestedTier string `json:"requested_tier"`
	Reason        string `json:"reason"`
	DailyCalories int    `json:"daily_calories"`
	Protein       int    `json:"protein"`
	Carbs         int    `json:"carbs"`
	Fats          int    `json:"fats"`
}

// PostPlanGenerate queues a plan generation after the quota check. Manual
// requests consume the caller's monthly allowance; system reasons do not.
func (s *APIServer) PostPlanGenerate(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)

	var req generatePlanRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if !models.ValidPlanType(req.PlanType) {
		return badRequest(c, "plan_type must be meal or workout")
	}

	reason := regeneration.Reason(req.Reason)
	if req.Reason == "" {
		reason = regeneration.ReasonManualRequest
	}

	plan := regeneration.NormalizePlan(usercontext.GetPlan(c))
	period := models.CurrentPeriod(time.Now())

	used, err := s.repos.Usage.Get(userID, req.PlanType, period)
	if err != nil {
		log.Errorf("[API] Usage lookup failed for user %d: %v", userID, err)
		return internalError(c, "Usage lookup failed")
	}

	decision := s.governor.Authorize(plan, reason, used)
	if !decision.Allowed {
		if decision.DenyCode == regeneration.DenyInvalidReason {
			return badRequest(c, "invalid regeneration reason")
		}
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error":   "quota_exceeded",
			"message": regeneration.QuotaError(req.PlanType, decision).Error(),
			"used":    decision.Used,
			"quota":   decision.Quota,
		})
	}

	// Metered use is recorded synchronously so the next quota read already
	// sees it. The redis counter only buffers increments the database
	// rejected; the flush worker drains those later.
	remaining := decision.Remaining
	if decision.Metered {
		remaining--
		if err := s.repos.Usage.AddUsage(userID, req.PlanType, period, 1); err != nil {
			log.Errorf("[API] Usage write failed for user %d, buffering in redis: %v", userID, err)
			if cerr := metrics.AddRegenerationUse(userID, req.PlanType, period); cerr != nil {
				log.Errorf("[API] Failed to count regeneration use for user %d: %v", userID, cerr)
			}
		}
	}

	job, err := s.manager.EnqueuePlanGeneration(jobqueue.PlanGenerationJobPayload{
		UserID:        userID,
		PlanType:      req.PlanType,
		RequestedTier: req.RequestedTier,
		Reason:        string(reason),
		DailyCalories: req.DailyCalories,
		Protein:       req.Protein,
		Carbs:         req.Carbs,
		Fats:          req.Fats,
	})
	if err != nil {
		log.Errorf("[API] Failed to enqueue generation for user %d: %v", userID, err)
		return internalError(c, "Failed to queue generation")
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"job_id":    job.ID,
		"status":    models.PLAN_STATUS_GENERATING,
		"remaining": remaining,
		"quota":     decision.Quota,
	})
}

// GetPlanStatus reports the latest generation status for one plan type. When
// the plan is completed the generated content rides along.
func (s *APIServer) GetPlanStatus(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)

	planType := c.Params("type")
	if !models.ValidPlanType(planType) {
		return badRequest(c, "plan type must be meal or workout")
	}

	status, err := s.repos.PlanStatus.Get(userID, planType)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(c, "No generation recorded for this plan type")
		}
		log.Errorf("[API] Plan status lookup failed for user %d: %v", userID, err)
		return internalError(c, "Status lookup failed")
	}

	resp := fiber.Map{
		"plan_type":  planType,
		"status":     status.Status,
		"updated_at": status.UpdatedAt,
	}
	if status.ErrorMessage != "" {
		resp["error_message"] = status.ErrorMessage
	}
	if status.Status == models.PLAN_STATUS_COMPLETED {
		if content, err := cache.Get(jobqueue.PlanContentKey(userID, planType)); err == nil {
			resp["content"] = content
		}
	}

	return c.JSON(resp)
}

// GetProfileCompleteness returns the derived completeness report.
func (s *APIServer) GetProfileCompleteness(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)

	profile, err := s.repos.Profile.GetOrCreate(userID)
	if err != nil {
		log.Errorf("[API] Profile lookup failed for user %d: %v", userID, err)
		return internalError(c, "Profile lookup failed")
	}

	return c.JSON(s.analyzer.Analyze(profile))
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": msg})
}

func notFound(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": msg})
}

func internalError(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": msg})
}
