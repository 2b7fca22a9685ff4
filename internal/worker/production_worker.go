package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"github.com/BillMorio/Video-Agent-sub002/internal/apperr"
	"github.com/BillMorio/Video-Agent-sub002/internal/model"
	"github.com/BillMorio/Video-Agent-sub002/internal/service"
)

// Stepper runs and queues production steps. *service.ProductionService
// implements it.
type Stepper interface {
	Step(ctx context.Context, projectID string) (*model.StepResult, error)
	Enqueue(ctx context.Context, projectID string) (*asynq.TaskInfo, error)
}

// ProductionWorker advances a project one scene per task and queues the
// next task while work remains
type ProductionWorker struct {
	production Stepper
}

// NewProductionWorker creates a new production worker
func NewProductionWorker(production Stepper) *ProductionWorker {
	return &ProductionWorker{production: production}
}

// ProcessTask handles one production:advance task
func (w *ProductionWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload service.AdvancePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.ProjectID == "" {
		return fmt.Errorf("task payload has no project id: %w", asynq.SkipRetry)
	}

	logger := log.With().Str("project_id", payload.ProjectID).Logger()

	res, err := w.production.Step(ctx, payload.ProjectID)
	if apperr.IsNotFound(err) {
		logger.Warn().Err(err).Msg("project gone, dropping production task")
		return nil
	}
	if err != nil {
		return fmt.Errorf("production step: %w", err)
	}

	logger.Info().
		Str("outcome", string(res.Outcome)).
		Int("scene", res.SceneIndex).
		Int("pending", res.Pending).
		Str("workflow", string(res.WorkflowStatus)).
		Msg("production step finished")

	// a contended step means another chain owns the project; a superseded
	// one means a reset or reclaim does
	if res.Outcome == model.StepContended || res.Outcome == model.StepSuperseded || !res.HasMoreWork() {
		return nil
	}
	if _, err := w.production.Enqueue(ctx, payload.ProjectID); err != nil {
		return fmt.Errorf("queue next step: %w", err)
	}
	return nil
}
