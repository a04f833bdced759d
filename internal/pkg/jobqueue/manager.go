package jobqueue

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/greenlean/greenlean/app/models"
	"github.com/greenlean/greenlean/app/repository"
	"github.com/greenlean/greenlean/internal/pkg/cache"
	"github.com/greenlean/greenlean/internal/pkg/env"
	"github.com/greenlean/greenlean/internal/pkg/generation"
	metrics "github.com/greenlean/greenlean/internal/pkg/metrics/counter"
	"github.com/greenlean/greenlean/internal/pkg/regeneration"
)

const (
	planTargetsKeyPrefix = "plan:targets:"
	planTargetsTTL       = 90 * 24 * time.Hour
)

// Manager manages the global job queue and background tasks
type Manager struct {
	queue              *Queue
	repos              *repository.Repositories
	counterFlushTicker *time.Ticker
	stopCh             chan struct{}
	wg                 sync.WaitGroup
	mu                 sync.Mutex
	running            bool
}

var (
	globalManager *Manager
	managerOnce   sync.Once
)

// InitializeManager wires the global manager. Must be called once at startup
// before GetManager.
func InitializeManager(repos *repository.Repositories, provider generation.Provider) *Manager {
	managerOnce.Do(func() {
		workerCount := 3
		if v, err := strconv.Atoi(env.GetEnv("JOB_QUEUE_WORKERS", "3")); err == nil && v > 0 {
			workerCount = v
		}

		globalManager = &Manager{
			queue:  NewQueue(workerCount, NewPlanProcessor(repos, provider)),
			repos:  repos,
			stopCh: make(chan struct{}),
		}
	})
	return globalManager
}

// GetManager returns the global job queue manager (singleton)
func GetManager() *Manager {
	if globalManager == nil {
		panic("Job queue manager not initialized. Call InitializeManager first.")
	}
	return globalManager
}

// GetQueue returns the managed job queue
func (m *Manager) GetQueue() *Queue {
	return m.queue
}

// Start starts the job queue and background tasks
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	// Recreate stop channel for each start cycle so manager can be restarted safely.
	m.stopCh = make(chan struct{})
	m.running = true
	log.Info("[JobQueue Manager] Starting job queue and background tasks")

	// Start the job queue
	m.queue.Start()

	// Start counter flush worker (Redis -> DB) every 5 seconds
	m.counterFlushTicker = time.NewTicker(5 * time.Second)
	m.wg.Add(1)
	go m.counterFlushWorker()

	log.Info("[JobQueue Manager] Started successfully")
}

// Stop stops the job queue and background tasks
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	log.Info("[JobQueue Manager] Stopping job queue and background tasks...")

	if m.counterFlushTicker != nil {
		m.counterFlushTicker.Stop()
	}

	// Signal workers to stop
	close(m.stopCh)
	m.stopCh = nil
	m.running = false

	// Wait for background workers to finish
	m.wg.Wait()

	// Stop the job queue
	m.queue.Stop()

	log.Info("[JobQueue Manager] Stopped successfully")
}

// counterFlushWorker periodically flushes pending usage counters from Redis to DB
func (m *Manager) counterFlushWorker() {
	defer m.wg.Done()
	for {
		select {
		case <-m.stopCh:
			log.Info("[JobQueue Manager] Counter flush worker stopping")
			return
		case <-m.counterFlushTicker.C:
			if err := metrics.FlushAll(); err != nil {
				log.Errorf("[JobQueue Manager] Counter flush error: %v", err)
			}
		}
	}
}

// IsRunning returns whether the manager is currently running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// EnqueuePlanGeneration marks the plan as generating and queues the job.
// The nutrition targets are cached so system-initiated regenerations can
// reuse the user's most recent numbers.
func (m *Manager) EnqueuePlanGeneration(payload PlanGenerationJobPayload) (*Job, error) {
	if !models.ValidPlanType(payload.PlanType) {
		return nil, fmt.Errorf("invalid plan type %q", payload.PlanType)
	}

	jobType := JobTypeMealPlanGenerate
	if payload.PlanType == models.PLAN_TYPE_WORKOUT {
		jobType = JobTypeWorkoutPlanGenerate
	}

	if err := m.repos.PlanStatus.Set(payload.UserID, payload.PlanType, models.PLAN_STATUS_GENERATING, ""); err != nil {
		return nil, fmt.Errorf("set generating status: %w", err)
	}

	m.cacheTargets(payload)

	job, err := m.queue.EnqueueJob(jobType, payload.ToMap())
	if err != nil {
		if serr := m.repos.PlanStatus.Set(payload.UserID, payload.PlanType, models.PLAN_STATUS_FAILED, "failed to enqueue generation"); serr != nil {
			log.Errorf("[JobQueue Manager] Failed to record enqueue failure for user %d: %v", payload.UserID, serr)
		}
		return nil, err
	}
	return job, nil
}

// Regenerate queues a system-initiated regeneration for one plan type,
// reusing the user's last known nutrition targets. Satisfies the survey
// engine's dispatch contract.
func (m *Manager) Regenerate(userID uint, planType string, reason regeneration.Reason) (err error) {
	payload := PlanGenerationJobPayload{
		UserID:   userID,
		PlanType: planType,
		Reason:   string(reason),
	}
	m.loadTargets(&payload)

	_, err = m.EnqueuePlanGeneration(payload)
	return err
}

func targetsKey(userID uint, planType string) string {
	return fmt.Sprintf("%s%d:%s", planTargetsKeyPrefix, userID, planType)
}

func (m *Manager) cacheTargets(payload PlanGenerationJobPayload) {
	if payload.DailyCalories == 0 {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if err := cache.Set(targetsKey(payload.UserID, payload.PlanType), string(data), planTargetsTTL); err != nil {
		log.Warnf("[JobQueue Manager] Failed to cache targets for user %d: %v", payload.UserID, err)
	}
}

func (m *Manager) loadTargets(payload *PlanGenerationJobPayload) {
	data, err := cache.Get(targetsKey(payload.UserID, payload.PlanType))
	if err != nil {
		return
	}
	var cached PlanGenerationJobPayload
	if err := json.Unmarshal([]byte(data), &cached); err != nil {
		return
	}
	payload.DailyCalories = cached.DailyCalories
	payload.Protein = cached.Protein
	payload.Carbs = cached.Carbs
	payload.Fats = cached.Fats
}
