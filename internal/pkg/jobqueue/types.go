package jobqueue

import (
	"encoding/json"
	"time"
)

// JobType defines the type of job
type JobType string

const (
	JobTypeMealPlanGenerate    JobType = "meal_plan_generate"
	JobTypeWorkoutPlanGenerate JobType = "workout_plan_generate"
)

// JobStatus defines the status of a job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusRetrying   JobStatus = "retrying"
)

// Job represents a background job
type Job struct {
	ID          string                 `json:"id"`
	Type        JobType                `json:"type"`
	Status      JobStatus              `json:"status"`
	Payload     map[string]interface{} `json:"payload"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
	ProcessedAt *time.Time             `json:"processed_at,omitempty"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	ErrorMsg    string                 `json:"error_msg,omitempty"`
	RetryCount  int                    `json:"retry_count"`
	MaxRetries  int                    `json:"max_retries"`
}

// PlanGenerationJobPayload contains the payload for plan generation jobs.
// The nutrition targets ride along so the worker does not recompute them.
type PlanGenerationJobPayload struct {
	UserID        uint   `json:"user_id"`
	PlanType      string `json:"plan_type"`
	RequestedTier string `json:"requested_tier"`
	Reason        string `json:"reason"`
	DailyCalories int    `json:"daily_calories"`
	Protein       int    `json:"protein"`
	Carbs         int    `json:"carbs"`
	Fats          int    `json:"fats"`
}

// ToMap converts the payload to a map for storage
func (p PlanGenerationJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"user_id":        p.UserID,
		"plan_type":      p.PlanType,
		"requested_tier": p.RequestedTier,
		"reason":         p.Reason,
		"daily_calories": p.DailyCalories,
		"protein":        p.Protein,
		"carbs":          p.Carbs,
		"fats":           p.Fats,
	}
}

// PlanGenerationJobPayloadFromMap creates a payload from a map
func PlanGenerationJobPayloadFromMap(data map[string]interface{}) (*PlanGenerationJobPayload, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var payload PlanGenerationJobPayload
	err = json.Unmarshal(jsonData, &payload)
	return &payload, err
}

// IsRetryable checks if the job can be retried
func (j *Job) IsRetryable() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// MarkAsProcessing updates the job status to processing
func (j *Job) MarkAsProcessing() {
	now := time.Now()
	j.Status = JobStatusProcessing
	j.UpdatedAt = now
	j.ProcessedAt = &now
}

// MarkAsCompleted updates the job status to completed
func (j *Job) MarkAsCompleted() {
	now := time.Now()
	j.Status = JobStatusCompleted
	j.UpdatedAt = now
	j.CompletedAt = &now
	j.ErrorMsg = ""
}

// MarkAsFailed updates the job status to failed
func (j *Job) MarkAsFailed(errorMsg string) {
	j.Status = JobStatusFailed
	j.UpdatedAt = time.Now()
	j.ErrorMsg = errorMsg
	j.RetryCount++
}

// MarkAsRetrying updates the job status to retrying
func (j *Job) MarkAsRetrying() {
	j.Status = JobStatusRetrying
	j.UpdatedAt = time.Now()
}
