package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"github.com/BillMorio/Video-Agent-sub002/internal/model"
	"github.com/BillMorio/Video-Agent-sub002/internal/store"
)

const (
	// TaskTypeAdvance runs one orchestrator step for a project
	TaskTypeAdvance = "production:advance"
	// QueueProduction is the asynq queue advance tasks run on
	QueueProduction = "production"
)

// AdvancePayload is the body of an advance task
type AdvancePayload struct {
	ProjectID string `json:"projectId"`
}

// NewAdvanceTask builds the asynq task for one step of projectID
func NewAdvanceTask(projectID string) (*asynq.Task, error) {
	data, err := json.Marshal(AdvancePayload{ProjectID: projectID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeAdvance, data), nil
}

// Enqueuer is the part of *asynq.Client the production service uses
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// ProductionService starts and resumes the server-side production loop
type ProductionService struct {
	store        store.Store
	orchestrator *OrchestratorService
	queue        Enqueuer
	staleAfter   time.Duration
	now          func() time.Time
}

// NewProductionService creates the production service. Scenes stuck in
// processing for longer than staleAfter are failed by Sweep.
func NewProductionService(st store.Store, orchestrator *OrchestratorService, queue Enqueuer, staleAfter time.Duration) *ProductionService {
	return &ProductionService{
		store:        st,
		orchestrator: orchestrator,
		queue:        queue,
		staleAfter:   staleAfter,
		now:          time.Now,
	}
}

// Start marks the project running and queues its first step. A project
// with nothing left to schedule is returned as is.
func (s *ProductionService) Start(ctx context.Context, projectID string) (*model.StartProductionResponse, error) {
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	scenes, err := s.store.ListScenes(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if pendingCount(scenes) == 0 {
		mem, err := s.store.GetMemory(ctx, projectID)
		if err != nil {
			return nil, err
		}
		return &model.StartProductionResponse{ProjectID: projectID, WorkflowStatus: mem.WorkflowStatus}, nil
	}

	mem, err := s.store.UpdateMemory(ctx, projectID, model.MemoryUpdate{
		WorkflowStatus: model.Ptr(model.WorkflowRunning),
		AppendLog:      fmt.Sprintf("Production started, %d scenes pending.", pendingCount(scenes)),
	})
	if err != nil {
		return nil, err
	}

	info, err := s.Enqueue(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return &model.StartProductionResponse{
		ProjectID:      projectID,
		TaskID:         info.ID,
		WorkflowStatus: mem.WorkflowStatus,
	}, nil
}

// Step runs one orchestrator step synchronously
func (s *ProductionService) Step(ctx context.Context, projectID string) (*model.StepResult, error) {
	return s.orchestrator.FindAndProcessNextScene(ctx, projectID)
}

// Enqueue queues one advance task for projectID
func (s *ProductionService) Enqueue(ctx context.Context, projectID string) (*asynq.TaskInfo, error) {
	task, err := NewAdvanceTask(projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	info, err := s.queue.EnqueueContext(ctx, task,
		asynq.Queue(QueueProduction),
		asynq.MaxRetry(3),
		asynq.Retention(24*time.Hour),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue task: %w", err)
	}
	return info, nil
}

// Sweep fails scenes whose processing lease expired, re-derives the
// affected ledgers and queues a step for every running project that has
// schedulable scenes and no step in flight. It returns the number of
// queued projects.
func (s *ProductionService) Sweep(ctx context.Context) (int, error) {
	if s.staleAfter > 0 {
		reclaimed, err := s.store.ReclaimStale(ctx, s.now().Add(-s.staleAfter))
		if err != nil {
			return 0, err
		}
		for _, projectID := range reclaimed {
			if _, _, err := s.orchestrator.RecomputeMemory(ctx, projectID, "A scene was interrupted and marked failed."); err != nil {
				log.Error().Err(err).Str("project_id", projectID).Msg("failed to recompute ledger after reclaim")
			}
		}
		if len(reclaimed) > 0 {
			log.Warn().Int("projects", len(reclaimed)).Msg("reclaimed stale scenes")
		}
	}

	running, err := s.store.ListProjectIDsByStatus(ctx, model.WorkflowRunning)
	if err != nil {
		return 0, err
	}

	queued := 0
	for _, projectID := range running {
		scenes, err := s.store.ListScenes(ctx, projectID)
		if err != nil {
			return queued, err
		}
		// a step is already in flight or nothing is left to schedule
		if model.CountScenes(scenes).Processing > 0 || pendingCount(scenes) == 0 {
			continue
		}
		if _, err := s.Enqueue(ctx, projectID); err != nil {
			log.Error().Err(err).Str("project_id", projectID).Msg("failed to queue sweep step")
			continue
		}
		queued++
	}
	return queued, nil
}
