package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/BillMorio/Video-Agent-sub002/internal/apperr"
	"github.com/BillMorio/Video-Agent-sub002/internal/client"
	"github.com/BillMorio/Video-Agent-sub002/internal/model"
	"github.com/BillMorio/Video-Agent-sub002/internal/provider"
	"github.com/BillMorio/Video-Agent-sub002/internal/store"
)

// Notifier receives production progress. The websocket hub implements it.
type Notifier interface {
	BroadcastProgress(msg *model.WSProgressMessage)
	BroadcastComplete(projectID string, result interface{})
	BroadcastError(projectID, code, message string)
}

// OrchestratorService advances a project one scene per call
type OrchestratorService struct {
	store    store.Store
	registry *provider.Registry
	notifier Notifier
}

// NewOrchestratorService creates the orchestrator. notifier may be nil.
func NewOrchestratorService(st store.Store, registry *provider.Registry, notifier Notifier) *OrchestratorService {
	return &OrchestratorService{store: st, registry: registry, notifier: notifier}
}

// FindAndProcessNextScene claims the first schedulable scene of the
// project, runs its adapter and records the outcome. When nothing is
// schedulable it returns an idle result without writing anything; when
// another caller claimed the scene first it returns a contended result.
func (s *OrchestratorService) FindAndProcessNextScene(ctx context.Context, projectID string) (*model.StepResult, error) {
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	scenes, err := s.store.ListScenes(ctx, projectID)
	if err != nil {
		return nil, err
	}

	next := nextSchedulable(scenes)
	if next == nil {
		mem, err := s.store.GetMemory(ctx, projectID)
		if err != nil {
			return nil, err
		}
		tally := model.CountScenes(scenes)
		return &model.StepResult{
			ProjectID:      projectID,
			Outcome:        model.StepIdle,
			WorkflowStatus: mem.WorkflowStatus,
			Tally:          tally,
		}, nil
	}

	claimed, err := s.store.ClaimScene(ctx, next.ID, next.Status)
	if errors.Is(err, store.ErrClaimLost) {
		log.Info().Str("project_id", projectID).Str("scene_id", next.ID).Msg("scene claimed by another step")
		return &model.StepResult{
			ProjectID:  projectID,
			Outcome:    model.StepContended,
			SceneID:    next.ID,
			SceneIndex: next.Index,
		}, nil
	}
	if err != nil {
		return nil, err
	}

	return s.process(ctx, project, claimed)
}

// ReprocessScene explicitly reruns one failed (or parked) scene
func (s *OrchestratorService) ReprocessScene(ctx context.Context, projectID, sceneID string) (*model.StepResult, error) {
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	scene, err := s.sceneOf(ctx, projectID, sceneID)
	if err != nil {
		return nil, err
	}
	if err := model.ValidateTransition(scene.ID, scene.Status, model.SceneProcessing); err != nil {
		return nil, err
	}

	claimed, err := s.store.ClaimScene(ctx, scene.ID, scene.Status)
	if errors.Is(err, store.ErrClaimLost) {
		return nil, &model.TransitionError{SceneID: scene.ID, From: scene.Status, To: model.SceneProcessing}
	}
	if err != nil {
		return nil, err
	}

	log.Info().Str("project_id", projectID).Int("scene", scene.Index).Msg("reprocessing scene")
	return s.process(ctx, project, claimed)
}

// ResolveInput stores the input a parked scene was waiting for. The next
// step picks the scene up again.
func (s *OrchestratorService) ResolveInput(ctx context.Context, projectID, sceneID string, payload model.VisualPayload) (*model.Scene, error) {
	scene, err := s.sceneOf(ctx, projectID, sceneID)
	if err != nil {
		return nil, err
	}
	if scene.Status != model.SceneAwaitingInput {
		return nil, apperr.Validation("scene is not awaiting input", map[string]interface{}{
			"sceneId": scene.ID,
			"status":  scene.Status,
		})
	}

	updated, err := s.store.UpdateScene(ctx, scene.ID, model.SceneUpdate{
		Payload:       &payload,
		InputResolved: model.Ptr(true),
		LastError:     model.Ptr(""),
	})
	if err != nil {
		return nil, err
	}
	if _, err := s.store.UpdateMemory(ctx, projectID, model.MemoryUpdate{
		AppendLog: fmt.Sprintf("Scene %d input resolved.", scene.Index),
	}); err != nil {
		return nil, err
	}
	return updated, nil
}

// ResetProjectProduction returns every scene to todo and the ledger to
// idle, then re-derives the counters from the stored scenes.
func (s *OrchestratorService) ResetProjectProduction(ctx context.Context, projectID string) (*model.ProjectMemory, error) {
	if err := s.store.ResetProject(ctx, projectID); err != nil {
		return nil, err
	}
	mem, _, err := s.RecomputeMemory(ctx, projectID, "")
	if err != nil {
		return nil, err
	}
	log.Info().Str("project_id", projectID).Int("scenes", mem.TotalScenes).Msg("production reset")
	return mem, nil
}

// RecomputeMemory derives the counters and workflow status from the scene
// statuses and writes them, optionally appending a log line.
func (s *OrchestratorService) RecomputeMemory(ctx context.Context, projectID, logLine string) (*model.ProjectMemory, model.Tally, error) {
	scenes, err := s.store.ListScenes(ctx, projectID)
	if err != nil {
		return nil, model.Tally{}, err
	}
	tally := model.CountScenes(scenes)
	workflow := tally.Workflow()

	upd := model.MemoryUpdate{
		WorkflowStatus: &workflow,
		TotalScenes:    model.Ptr(tally.Total),
		CompletedCount: model.Ptr(tally.Completed),
		FailedCount:    model.Ptr(tally.Failed),
		AppendLog:      logLine,
	}
	if tally.Processing == 0 {
		upd.CurrentSceneID = model.Ptr("")
	}
	mem, err := s.store.UpdateMemory(ctx, projectID, upd)
	if err != nil {
		return nil, tally, err
	}
	return mem, tally, nil
}

// process runs the adapter for a claimed scene and records the outcome
func (s *OrchestratorService) process(ctx context.Context, project *model.Project, scene *model.Scene) (*model.StepResult, error) {
	mem, err := s.store.UpdateMemory(ctx, project.ID, model.MemoryUpdate{
		WorkflowStatus: model.Ptr(model.WorkflowRunning),
		CurrentSceneID: model.Ptr(scene.ID),
		AppendLog:      fmt.Sprintf("Scene %d (%s): generating.", scene.Index, scene.VisualType),
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("project_id", project.ID).
		Str("scene_id", scene.ID).
		Int("scene", scene.Index).
		Str("visual_type", string(scene.VisualType)).
		Msg("processing scene")

	var res *provider.Result
	adapter, genErr := s.registry.Get(scene.VisualType)
	if genErr == nil {
		res, genErr = adapter.Generate(ctx, scene, &model.ProductionContext{Project: project, Memory: mem})
	}
	if genErr == nil && (res == nil || res.AssetURL == "") {
		genErr = fmt.Errorf("%s provider returned no asset", scene.VisualType)
	}

	// the outcome is recorded even when the caller gave up waiting
	writeCtx := context.WithoutCancel(ctx)

	upd, outcome, logLine := outcomeOf(scene, res, genErr)
	if err := model.ValidateTransition(scene.ID, scene.Status, *upd.Status); err != nil {
		return nil, err
	}
	updated, err := s.store.FinishScene(writeCtx, scene.ID, scene.Version, upd)
	if errors.Is(err, store.ErrClaimLost) {
		log.Warn().
			Str("project_id", project.ID).
			Str("scene_id", scene.ID).
			Str("dropped_outcome", string(outcome)).
			Msg("scene changed while its provider ran, dropping the result")
		return s.superseded(writeCtx, project.ID, scene)
	}
	if err != nil {
		return nil, err
	}

	mem, tally, err := s.RecomputeMemory(writeCtx, project.ID, logLine)
	if err != nil {
		return nil, err
	}

	scenes, err := s.store.ListScenes(writeCtx, project.ID)
	if err != nil {
		return nil, err
	}

	result := &model.StepResult{
		ProjectID:      project.ID,
		Outcome:        outcome,
		SceneID:        updated.ID,
		SceneIndex:     updated.Index,
		AssetURL:       updated.ResolvedURL(),
		Error:          updated.LastError,
		WorkflowStatus: mem.WorkflowStatus,
		Tally:          tally,
		Pending:        pendingCount(scenes),
	}
	s.notify(result, updated.Status, logLine)
	return result, nil
}

// superseded reports a step whose result lost to a reset or reclaim. The
// scene keeps what the winning write made it; the ledger is rederived.
func (s *OrchestratorService) superseded(ctx context.Context, projectID string, scene *model.Scene) (*model.StepResult, error) {
	mem, tally, err := s.RecomputeMemory(ctx, projectID, "")
	if err != nil {
		return nil, err
	}
	scenes, err := s.store.ListScenes(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return &model.StepResult{
		ProjectID:      projectID,
		Outcome:        model.StepSuperseded,
		SceneID:        scene.ID,
		SceneIndex:     scene.Index,
		WorkflowStatus: mem.WorkflowStatus,
		Tally:          tally,
		Pending:        pendingCount(scenes),
	}, nil
}

// outcomeOf maps an adapter result to the scene update, the step outcome
// and the log line
func outcomeOf(scene *model.Scene, res *provider.Result, err error) (model.SceneUpdate, model.StepOutcome, string) {
	if err == nil {
		return model.SceneUpdate{
			Status:        model.Ptr(model.SceneCompleted),
			AssetURL:      model.Ptr(res.AssetURL),
			FinalVideoURL: model.Ptr(res.FinalVideoURL),
			ThumbnailURL:  model.Ptr(res.ThumbnailURL),
			LastError:     model.Ptr(""),
		}, model.StepCompleted, fmt.Sprintf("Scene %d (%s): completed.", scene.Index, scene.VisualType)
	}

	msg := err.Error()
	if errors.Is(err, provider.ErrMissingInput) {
		return model.SceneUpdate{
			Status:    model.Ptr(model.SceneAwaitingInput),
			LastError: model.Ptr(msg),
		}, model.StepAwaitingInput, fmt.Sprintf("Scene %d (%s): %s", scene.Index, scene.VisualType, msg)
	}

	var timeout *client.TimeoutError
	line := fmt.Sprintf("Scene %d (%s) failed: %s", scene.Index, scene.VisualType, msg)
	if errors.As(err, &timeout) {
		line = fmt.Sprintf("Scene %d (%s) timed out: %s", scene.Index, scene.VisualType, msg)
	}
	log.Error().Err(err).
		Str("scene_id", scene.ID).
		Bool("transient", client.IsTransient(err)).
		Bool("missing_prerequisite", errors.Is(err, provider.ErrMissingPrerequisite)).
		Msg("scene generation failed")

	return model.SceneUpdate{
		Status:    model.Ptr(model.SceneFailed),
		LastError: model.Ptr(msg),
	}, model.StepFailed, line
}

func (s *OrchestratorService) notify(res *model.StepResult, status model.SceneStatus, message string) {
	if s.notifier == nil {
		return
	}
	s.notifier.BroadcastProgress(&model.WSProgressMessage{
		Type:           model.WSMessageTypeProgress,
		ProjectID:      res.ProjectID,
		SceneID:        res.SceneID,
		SceneIndex:     res.SceneIndex,
		SceneStatus:    status,
		WorkflowStatus: res.WorkflowStatus,
		Completed:      res.Tally.Completed,
		Failed:         res.Tally.Failed,
		Total:          res.Tally.Total,
		Message:        message,
	})
	if res.Outcome == model.StepFailed {
		s.notifier.BroadcastError(res.ProjectID, "SCENE_FAILED", res.Error)
	}
	if !res.HasMoreWork() && (res.WorkflowStatus == model.WorkflowCompleted || res.WorkflowStatus == model.WorkflowError) {
		s.notifier.BroadcastComplete(res.ProjectID, res)
	}
}

// sceneOf loads a scene and checks it belongs to the project
func (s *OrchestratorService) sceneOf(ctx context.Context, projectID, sceneID string) (*model.Scene, error) {
	scene, err := s.store.GetScene(ctx, sceneID)
	if err != nil {
		return nil, err
	}
	if scene.ProjectID != projectID {
		return nil, apperr.NotFound("scene", sceneID)
	}
	return scene, nil
}

// nextSchedulable returns the first todo scene, or the first parked scene
// whose input has been resolved, in index order
func nextSchedulable(scenes []model.Scene) *model.Scene {
	for i := range scenes {
		if schedulable(&scenes[i]) {
			return &scenes[i]
		}
	}
	return nil
}

func schedulable(s *model.Scene) bool {
	return s.Status == model.SceneTodo || (s.Status == model.SceneAwaitingInput && s.InputResolved)
}

func pendingCount(scenes []model.Scene) int {
	n := 0
	for i := range scenes {
		if schedulable(&scenes[i]) {
			n++
		}
	}
	return n
}
