package apiv1

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/greenlean/greenlean/app/models"
	"github.com/greenlean/greenlean/app/repository"
	"github.com/greenlean/greenlean/internal/pkg/jobqueue"
	"github.com/greenlean/greenlean/internal/pkg/regeneration"
	"github.com/greenlean/greenlean/internal/pkg/usercontext"
)

type fakeUsageRepo struct {
	counts   map[string]int
	addCalls int
}

func newFakeUsageRepo() *fakeUsageRepo {
	return &fakeUsageRepo{counts: make(map[string]int)}
}

func usageKey(userID uint, planType, period string) string {
	return fmt.Sprintf("%d:%s:%s", userID, planType, period)
}

func (r *fakeUsageRepo) Get(userID uint, planType, period string) (int, error) {
	return r.counts[usageKey(userID, planType, period)], nil
}

func (r *fakeUsageRepo) AddUsage(userID uint, planType, period string, delta int) error {
	r.counts[usageKey(userID, planType, period)] += delta
	r.addCalls++
	return nil
}

type fakeResponseRepo struct {
	rows []models.SurveyResponse
}

func (r *fakeResponseRepo) Upsert(response *models.SurveyResponse) error {
	r.rows = append(r.rows, *response)
	return nil
}

func (r *fakeResponseRepo) GetByUserAndQuestion(userID uint, questionID string) (*models.SurveyResponse, error) {
	for i := range r.rows {
		if r.rows[i].UserID == userID && r.rows[i].QuestionID == questionID {
			return &r.rows[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeResponseRepo) ListByUser(userID uint) ([]models.SurveyResponse, error) {
	var out []models.SurveyResponse
	for _, row := range r.rows {
		if row.UserID == userID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *fakeResponseRepo) AnsweredQuestionIDs(userID uint) (map[string]bool, error) {
	answered := make(map[string]bool)
	for _, row := range r.rows {
		if row.UserID == userID {
			answered[row.QuestionID] = true
		}
	}
	return answered, nil
}

type fakeDispatcher struct {
	enqueued []jobqueue.PlanGenerationJobPayload
}

func (d *fakeDispatcher) EnqueuePlanGeneration(payload jobqueue.PlanGenerationJobPayload) (*jobqueue.Job, error) {
	d.enqueued = append(d.enqueued, payload)
	return &jobqueue.Job{ID: "job-1", Status: jobqueue.JobStatusPending}, nil
}

func (d *fakeDispatcher) Regenerate(userID uint, planType string, reason regeneration.Reason) error {
	return nil
}

// newTestApp builds a fiber app whose routes see an authenticated user on the
// given plan, mirroring what the API key middleware would set.
func newTestApp(plan string, register func(app *fiber.App)) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(usercontext.KeyUserContext, usercontext.UserContext{
			UserID:     1,
			Username:   "tester",
			IsLoggedIn: true,
			Plan:       plan,
		})
		return c.Next()
	})
	register(app)
	return app
}

func postJSON(app *fiber.App, path string, body interface{}) (int, map[string]interface{}) {
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest("POST", path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		return 0, nil
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	var decoded map[string]interface{}
	json.Unmarshal(raw, &decoded)
	return resp.StatusCode, decoded
}

func getJSON(app *fiber.App, path string) (int, map[string]interface{}) {
	req := httptest.NewRequest("GET", path, nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		return 0, nil
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	var decoded map[string]interface{}
	json.Unmarshal(raw, &decoded)
	return resp.StatusCode, decoded
}

func TestPlanGenerateQuotaCountsEachRequest(t *testing.T) {
	usage := newFakeUsageRepo()
	dispatcher := &fakeDispatcher{}
	server := NewAPIServer(&repository.Repositories{Usage: usage}, dispatcher)

	app := newTestApp("free", func(app *fiber.App) {
		app.Post("/plans/generate", server.PostPlanGenerate)
	})

	body := map[string]interface{}{"plan_type": "meal", "daily_calories": 2200}

	// Free tier allows two manual generations per month. Each accepted
	// request must count against the quota before the next one is checked,
	// so the third is rejected even within a single flush window.
	code, first := postJSON(app, "/plans/generate", body)
	assert.Equal(t, fiber.StatusAccepted, code)
	assert.Equal(t, "job-1", first["job_id"])
	assert.Equal(t, float64(1), first["remaining"])

	code, second := postJSON(app, "/plans/generate", body)
	assert.Equal(t, fiber.StatusAccepted, code)
	assert.Equal(t, float64(0), second["remaining"])

	code, third := postJSON(app, "/plans/generate", body)
	assert.Equal(t, fiber.StatusTooManyRequests, code)
	assert.Equal(t, "quota_exceeded", third["error"])
	assert.Equal(t, float64(2), third["used"])

	assert.Equal(t, 2, usage.addCalls)
	assert.Len(t, dispatcher.enqueued, 2)
}

func TestPlanGenerateUnmeteredReasonSkipsUsage(t *testing.T) {
	usage := newFakeUsageRepo()
	usage.counts[usageKey(1, "workout", models.CurrentPeriod(time.Now()))] = 99

	dispatcher := &fakeDispatcher{}
	server := NewAPIServer(&repository.Repositories{Usage: usage}, dispatcher)

	app := newTestApp("free", func(app *fiber.App) {
		app.Post("/plans/generate", server.PostPlanGenerate)
	})

	code, resp := postJSON(app, "/plans/generate", map[string]interface{}{
		"plan_type": "workout",
		"reason":    "tier_upgrade",
	})
	assert.Equal(t, fiber.StatusAccepted, code)
	assert.Equal(t, "job-1", resp["job_id"])
	assert.Equal(t, 0, usage.addCalls)
	assert.Len(t, dispatcher.enqueued, 1)
}

func TestPlanGenerateRejectsUnknownPlanType(t *testing.T) {
	server := NewAPIServer(&repository.Repositories{Usage: newFakeUsageRepo()}, &fakeDispatcher{})

	app := newTestApp("pro", func(app *fiber.App) {
		app.Post("/plans/generate", server.PostPlanGenerate)
	})

	code, resp := postJSON(app, "/plans/generate", map[string]interface{}{"plan_type": "sleep"})
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Equal(t, "bad_request", resp["error"])
}

func TestSurveyResponsesList(t *testing.T) {
	responses := &fakeResponseRepo{rows: []models.SurveyResponse{
		{ID: 1, UserID: 1, QuestionID: "q_water_goal", Value: "2500"},
		{ID: 2, UserID: 1, QuestionID: "q_gym_access", Value: "true"},
		{ID: 3, UserID: 2, QuestionID: "q_water_goal", Value: "2000"},
	}}
	server := NewAPIServer(&repository.Repositories{Response: responses}, &fakeDispatcher{})

	app := newTestApp("free", func(app *fiber.App) {
		app.Get("/surveys/responses", server.GetSurveyResponses)
	})

	code, resp := getJSON(app, "/surveys/responses")
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, float64(2), resp["count"])
	assert.Len(t, resp["responses"], 2)
}

func TestSurveyResponsesByQuestion(t *testing.T) {
	responses := &fakeResponseRepo{rows: []models.SurveyResponse{
		{ID: 1, UserID: 1, QuestionID: "q_gym_access", Value: "true"},
	}}
	server := NewAPIServer(&repository.Repositories{Response: responses}, &fakeDispatcher{})

	app := newTestApp("free", func(app *fiber.App) {
		app.Get("/surveys/responses", server.GetSurveyResponses)
	})

	code, resp := getJSON(app, "/surveys/responses?question_id=q_gym_access")
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "q_gym_access", resp["question_id"])

	code, resp = getJSON(app, "/surveys/responses?question_id=q_never_asked")
	assert.Equal(t, fiber.StatusNotFound, code)
	assert.Equal(t, "not_found", resp["error"])
}
