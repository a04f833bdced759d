package survey

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenlean/greenlean/app/models"
	"github.com/greenlean/greenlean/app/repository"
	"github.com/greenlean/greenlean/internal/pkg/regeneration"
	"github.com/greenlean/greenlean/internal/pkg/schema"
)

// In-memory repository fakes.

type fakeProfileRepo struct {
	profiles map[uint]*models.Profile
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: make(map[uint]*models.Profile)}
}

func (r *fakeProfileRepo) GetOrCreate(userID uint) (*models.Profile, error) {
	if p, ok := r.profiles[userID]; ok {
		return p, nil
	}
	p := &models.Profile{UserID: userID, Fields: models.ProfileFields{}}
	r.profiles[userID] = p
	return p, nil
}

func (r *fakeProfileRepo) UpdateField(userID uint, fieldKey string, value interface{}) error {
	p, _ := r.GetOrCreate(userID)
	p.Fields[fieldKey] = value
	return nil
}

type fakeTriggerRepo struct {
	triggers map[string]*models.SurveyTrigger
	nextID   uint
}

func newFakeTriggerRepo() *fakeTriggerRepo {
	return &fakeTriggerRepo{triggers: make(map[string]*models.SurveyTrigger)}
}

func triggerKey(userID uint, questionID string) string {
	return fmt.Sprintf("%d:%s", userID, questionID)
}

func (r *fakeTriggerRepo) CreateIfAbsent(t *models.SurveyTrigger) (bool, error) {
	key := triggerKey(t.UserID, t.QuestionID)
	if _, ok := r.triggers[key]; ok {
		return false, nil
	}
	r.nextID++
	t.ID = r.nextID
	cp := *t
	r.triggers[key] = &cp
	return true, nil
}

func (r *fakeTriggerRepo) Exists(userID uint, questionID string) (bool, error) {
	_, ok := r.triggers[triggerKey(userID, questionID)]
	return ok, nil
}

func (r *fakeTriggerRepo) GetByUserAndQuestion(userID uint, questionID string) (*models.SurveyTrigger, error) {
	t, ok := r.triggers[triggerKey(userID, questionID)]
	if !ok {
		return nil, nil
	}
	return t, nil
}

func (r *fakeTriggerRepo) ListOpen(userID uint) ([]models.SurveyTrigger, error) {
	var out []models.SurveyTrigger
	for _, t := range r.triggers {
		if t.UserID == userID && t.Open() {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *fakeTriggerRepo) MarkShown(userID uint, questionID string, at time.Time) error {
	if t, ok := r.triggers[triggerKey(userID, questionID)]; ok {
		t.MarkShown(at)
	}
	return nil
}

func (r *fakeTriggerRepo) MarkDismissed(userID uint, questionID string, at time.Time) error {
	if t, ok := r.triggers[triggerKey(userID, questionID)]; ok {
		t.MarkDismissed(at)
	}
	return nil
}

type fakeResponseRepo struct {
	responses map[string]*models.SurveyResponse
	nextID    uint
}

func newFakeResponseRepo() *fakeResponseRepo {
	return &fakeResponseRepo{responses: make(map[string]*models.SurveyResponse)}
}

func (r *fakeResponseRepo) Upsert(resp *models.SurveyResponse) error {
	key := triggerKey(resp.UserID, resp.QuestionID)
	if existing, ok := r.responses[key]; ok {
		resp.ID = existing.ID
	} else {
		r.nextID++
		resp.ID = r.nextID
	}
	cp := *resp
	r.responses[key] = &cp
	return nil
}

func (r *fakeResponseRepo) GetByUserAndQuestion(userID uint, questionID string) (*models.SurveyResponse, error) {
	resp, ok := r.responses[triggerKey(userID, questionID)]
	if !ok {
		return nil, nil
	}
	return resp, nil
}

func (r *fakeResponseRepo) ListByUser(userID uint) ([]models.SurveyResponse, error) {
	var out []models.SurveyResponse
	for _, resp := range r.responses {
		if resp.UserID == userID {
			out = append(out, *resp)
		}
	}
	return out, nil
}

func (r *fakeResponseRepo) AnsweredQuestionIDs(userID uint) (map[string]bool, error) {
	out := make(map[string]bool)
	for _, resp := range r.responses {
		if resp.UserID == userID {
			out[resp.QuestionID] = true
		}
	}
	return out, nil
}

type fakeUnlockRepo struct {
	events []*models.TierUnlockEvent
	nextID uint
}

func (r *fakeUnlockRepo) Create(e *models.TierUnlockEvent) error {
	r.nextID++
	e.ID = r.nextID
	cp := *e
	r.events = append(r.events, &cp)
	return nil
}

func (r *fakeUnlockRepo) GetByID(userID uint, eventID uint) (*models.TierUnlockEvent, error) {
	for _, e := range r.events {
		if e.ID == eventID && e.UserID == userID {
			cp := *e
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUnlockRepo) ListPending(userID uint) ([]models.TierUnlockEvent, error) {
	var out []models.TierUnlockEvent
	for _, e := range r.events {
		if e.UserID == userID && e.Pending() {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *fakeUnlockRepo) Update(updated *models.TierUnlockEvent) error {
	for i, e := range r.events {
		if e.ID == updated.ID {
			cp := *updated
			r.events[i] = &cp
			return nil
		}
	}
	return fmt.Errorf("event %d not found", updated.ID)
}

type fakeSignals struct {
	s schema.Signals
}

func (f *fakeSignals) Signals(userID uint) (schema.Signals, error) {
	return f.s, nil
}

type regenCall struct {
	UserID   uint
	PlanType string
	Reason   regeneration.Reason
}

type fakeRegenerator struct {
	calls []regenCall
}

func (f *fakeRegenerator) Regenerate(userID uint, planType string, reason regeneration.Reason) error {
	f.calls = append(f.calls, regenCall{UserID: userID, PlanType: planType, Reason: reason})
	return nil
}

type engineFixture struct {
	engine    *Engine
	profiles  *fakeProfileRepo
	triggers  *fakeTriggerRepo
	responses *fakeResponseRepo
	unlocks   *fakeUnlockRepo
	regen     *fakeRegenerator
	signals   *fakeSignals
	clock     time.Time
}

func newFixture(signals schema.Signals) *engineFixture {
	f := &engineFixture{
		profiles:  newFakeProfileRepo(),
		triggers:  newFakeTriggerRepo(),
		responses: newFakeResponseRepo(),
		unlocks:   &fakeUnlockRepo{},
		regen:     &fakeRegenerator{},
		signals:   &fakeSignals{s: signals},
		clock:     time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC),
	}
	repos := &repository.Repositories{
		Profile:  f.profiles,
		Trigger:  f.triggers,
		Response: f.responses,
		Unlock:   f.unlocks,
	}
	f.engine = NewEngine(repos, f.signals, f.regen, func() time.Time { return f.clock })
	return f
}

func TestCheckTriggersCreatesAndIsIdempotent(t *testing.T) {
	f := newFixture(schema.Signals{PlanViews: 1})

	created, err := f.engine.CheckTriggers(1)
	require.NoError(t, err)

	// Both plan-view questions fire at one view; the gym question needs two.
	ids := make([]string, 0, len(created))
	for _, tr := range created {
		ids = append(ids, tr.QuestionID)
	}
	assert.ElementsMatch(t, []string{"q_dietary_restrictions", "q_food_allergies"}, ids)

	again, err := f.engine.CheckTriggers(1)
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestCheckTriggersSkipsFilledFields(t *testing.T) {
	f := newFixture(schema.Signals{PlanViews: 1})
	require.NoError(t, f.profiles.UpdateField(1, schema.FieldDietRestrictions, []string{"vegan"}))

	created, err := f.engine.CheckTriggers(1)
	require.NoError(t, err)

	require.Len(t, created, 1)
	assert.Equal(t, "q_food_allergies", created[0].QuestionID)
}

func TestCheckTriggersSkipsAnsweredQuestions(t *testing.T) {
	f := newFixture(schema.Signals{PlanViews: 1})
	_, err := f.engine.RecordResponse(1, "q_food_allergies", []string{"nuts"})
	require.NoError(t, err)

	created, err := f.engine.CheckTriggers(1)
	require.NoError(t, err)

	require.Len(t, created, 1)
	assert.Equal(t, "q_dietary_restrictions", created[0].QuestionID)
}

func TestNextQuestionPicksHighestPriority(t *testing.T) {
	f := newFixture(schema.Signals{})
	earlier := f.clock.Add(-time.Hour)
	_, err := f.triggers.CreateIfAbsent(&models.SurveyTrigger{UserID: 1, QuestionID: "q_water_goal", TriggeredAt: earlier})
	require.NoError(t, err)
	_, err = f.triggers.CreateIfAbsent(&models.SurveyTrigger{UserID: 1, QuestionID: "q_food_allergies", TriggeredAt: f.clock})
	require.NoError(t, err)

	next, err := f.engine.NextQuestion(1)
	require.NoError(t, err)
	require.NotNil(t, next)

	// Priority beats age.
	assert.Equal(t, "q_food_allergies", next.Question.ID)

	shown, err := f.triggers.GetByUserAndQuestion(1, "q_food_allergies")
	require.NoError(t, err)
	assert.NotNil(t, shown.ShownAt)
}

func TestNextQuestionTiebreakOldestFirst(t *testing.T) {
	f := newFixture(schema.Signals{})
	_, err := f.triggers.CreateIfAbsent(&models.SurveyTrigger{UserID: 1, QuestionID: "q_dietary_restrictions", TriggeredAt: f.clock})
	require.NoError(t, err)
	_, err = f.triggers.CreateIfAbsent(&models.SurveyTrigger{UserID: 1, QuestionID: "q_food_allergies", TriggeredAt: f.clock.Add(-time.Hour)})
	require.NoError(t, err)

	next, err := f.engine.NextQuestion(1)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, "q_food_allergies", next.Question.ID)
}

func TestNextQuestionNoneDue(t *testing.T) {
	f := newFixture(schema.Signals{})

	next, err := f.engine.NextQuestion(1)
	require.NoError(t, err)
	assert.Nil(t, next)
}

func TestDismissQuestionClosesTrigger(t *testing.T) {
	f := newFixture(schema.Signals{})
	_, err := f.triggers.CreateIfAbsent(&models.SurveyTrigger{UserID: 1, QuestionID: "q_food_allergies", TriggeredAt: f.clock})
	require.NoError(t, err)

	require.NoError(t, f.engine.DismissQuestion(1, "q_food_allergies"))

	next, err := f.engine.NextQuestion(1)
	require.NoError(t, err)
	assert.Nil(t, next)
}

func TestRecordResponseUpdatesProfile(t *testing.T) {
	f := newFixture(schema.Signals{})

	result, err := f.engine.RecordResponse(1, "q_gym_access", true)
	require.NoError(t, err)

	profile, _ := f.profiles.GetOrCreate(1)
	v, ok := profile.FieldValue(schema.FieldGymAccess)
	require.True(t, ok)
	assert.Equal(t, true, v)

	assert.Equal(t, schema.FieldGymAccess, result.Response.FieldUpdated)
	assert.Equal(t, "true", result.Response.Value)
	assert.Equal(t, string(schema.TierBasic), result.Response.TierBefore)
	assert.False(t, result.ThresholdCrossed)
	assert.Nil(t, result.UnlockEvent)
	assert.Greater(t, result.Report.CompletenessPercent, 0.0)
}

func TestRecordResponseUnknownQuestion(t *testing.T) {
	f := newFixture(schema.Signals{})

	_, err := f.engine.RecordResponse(1, "q_does_not_exist", "x")
	assert.ErrorIs(t, err, ErrUnknownQuestion)
}

func TestRecordResponseInvalidValue(t *testing.T) {
	f := newFixture(schema.Signals{})

	_, err := f.engine.RecordResponse(1, "q_sleep_quality", 15)
	assert.ErrorIs(t, err, ErrInvalidValue)

	// Rejected answers leave the profile untouched.
	profile, _ := f.profiles.GetOrCreate(1)
	assert.False(t, profile.FieldComplete(schema.FieldSleepQuality))
}

func TestRecordResponseEmitsUnlockOnThresholdCross(t *testing.T) {
	f := newFixture(schema.Signals{})

	// 8 of 27 fields is 29.6%, one answer away from the 30% boundary.
	prefilled := []string{
		schema.FieldMainGoal, schema.FieldCurrentWeight, schema.FieldTargetWeight,
		schema.FieldAge, schema.FieldGender, schema.FieldHeight,
		schema.FieldActivityLevel, schema.FieldExerciseFrequency,
	}
	for _, key := range prefilled {
		require.NoError(t, f.profiles.UpdateField(1, key, "filled"))
	}

	result, err := f.engine.RecordResponse(1, "q_gym_access", "true")
	require.NoError(t, err)

	assert.True(t, result.ThresholdCrossed)
	require.NotNil(t, result.UnlockEvent)
	assert.Equal(t, string(schema.TierBasic), result.UnlockEvent.OldTier)
	assert.Equal(t, string(schema.TierStandard), result.UnlockEvent.NewTier)
	assert.Equal(t, 33.3, result.UnlockEvent.CompletenessPercent)

	pending, err := f.engine.PendingUnlocks(1)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestRecordResponseReanswerKeepsOneRow(t *testing.T) {
	f := newFixture(schema.Signals{})

	prefilled := []string{
		schema.FieldMainGoal, schema.FieldCurrentWeight, schema.FieldTargetWeight,
		schema.FieldAge, schema.FieldGender, schema.FieldHeight,
		schema.FieldActivityLevel, schema.FieldExerciseFrequency,
	}
	for _, key := range prefilled {
		require.NoError(t, f.profiles.UpdateField(1, key, "filled"))
	}

	first, err := f.engine.RecordResponse(1, "q_gym_access", "true")
	require.NoError(t, err)
	require.True(t, first.ThresholdCrossed)
	require.NotNil(t, first.UnlockEvent)

	// Answering the same question again overwrites in place. Completeness
	// does not move, so no second threshold cross and no second unlock.
	second, err := f.engine.RecordResponse(1, "q_gym_access", "false")
	require.NoError(t, err)

	assert.False(t, second.ThresholdCrossed)
	assert.Nil(t, second.UnlockEvent)
	assert.Equal(t, first.Response.ID, second.Response.ID)
	assert.Len(t, f.responses.responses, 1)
	assert.Equal(t, "false", f.responses.responses[triggerKey(1, "q_gym_access")].Value)

	pending, err := f.engine.PendingUnlocks(1)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestRecordResponseNoUnlockWithoutCross(t *testing.T) {
	f := newFixture(schema.Signals{})

	result, err := f.engine.RecordResponse(1, "q_water_goal", 8)
	require.NoError(t, err)

	assert.False(t, result.ThresholdCrossed)
	assert.Nil(t, result.UnlockEvent)

	pending, err := f.engine.PendingUnlocks(1)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestResolveUnlockAcceptDispatchesRegeneration(t *testing.T) {
	f := newFixture(schema.Signals{})
	event := &models.TierUnlockEvent{UserID: 1, OldTier: "BASIC", NewTier: "STANDARD", CompletenessPercent: 33.3}
	require.NoError(t, f.unlocks.Create(event))

	resolved, err := f.engine.ResolveUnlock(1, event.ID, true, true, true)
	require.NoError(t, err)

	assert.NotNil(t, resolved.AcceptedAt)
	assert.True(t, resolved.MealRegenerated)
	assert.True(t, resolved.WorkoutRegenerated)

	require.Len(t, f.regen.calls, 2)
	assert.Equal(t, models.PLAN_TYPE_MEAL, f.regen.calls[0].PlanType)
	assert.Equal(t, models.PLAN_TYPE_WORKOUT, f.regen.calls[1].PlanType)
	for _, c := range f.regen.calls {
		assert.Equal(t, regeneration.ReasonTierUpgrade, c.Reason)
	}
}

func TestResolveUnlockDismiss(t *testing.T) {
	f := newFixture(schema.Signals{})
	event := &models.TierUnlockEvent{UserID: 1, OldTier: "BASIC", NewTier: "STANDARD"}
	require.NoError(t, f.unlocks.Create(event))

	resolved, err := f.engine.ResolveUnlock(1, event.ID, false, false, false)
	require.NoError(t, err)

	assert.NotNil(t, resolved.DismissedAt)
	assert.Empty(t, f.regen.calls)

	pending, err := f.engine.PendingUnlocks(1)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestResolveUnlockAlreadyResolved(t *testing.T) {
	f := newFixture(schema.Signals{})
	event := &models.TierUnlockEvent{UserID: 1, OldTier: "BASIC", NewTier: "STANDARD"}
	require.NoError(t, f.unlocks.Create(event))

	_, err := f.engine.ResolveUnlock(1, event.ID, false, false, false)
	require.NoError(t, err)

	_, err = f.engine.ResolveUnlock(1, event.ID, true, true, false)
	assert.Error(t, err)
	assert.Empty(t, f.regen.calls)
}

func TestResolveUnlockNotFound(t *testing.T) {
	f := newFixture(schema.Signals{})

	_, err := f.engine.ResolveUnlock(1, 42, true, true, true)
	assert.ErrorIs(t, err, ErrUnlockNotFound)
}
