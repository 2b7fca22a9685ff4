package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/BillMorio/Video-Agent-sub002/internal/apperr"
	"github.com/BillMorio/Video-Agent-sub002/internal/model"
	"github.com/BillMorio/Video-Agent-sub002/internal/store"
	"github.com/BillMorio/Video-Agent-sub002/internal/storyboard"
)

// ProjectDefaults fill in what a create request leaves out
type ProjectDefaults struct {
	AspectRatio string
	AvatarID    string
}

// ProjectService creates, reads and edits projects and their storyboards
type ProjectService struct {
	store     store.Store
	segmenter *storyboard.Segmenter
	defaults  ProjectDefaults
	now       func() time.Time
}

// NewProjectService creates the project service
func NewProjectService(st store.Store, segmenter *storyboard.Segmenter, defaults ProjectDefaults) *ProjectService {
	if defaults.AspectRatio == "" {
		defaults.AspectRatio = model.AspectLandscape
	}
	return &ProjectService{
		store:     st,
		segmenter: segmenter,
		defaults:  defaults,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Init segments the script into scenes, snaps them to the transcript when
// one is given and persists the project with an idle ledger
func (s *ProjectService) Init(ctx context.Context, req *model.InitProjectRequest) (*model.ProjectView, error) {
	projectID := uuid.New().String()

	scenes, err := s.segmenter.Segment(ctx, &storyboard.Input{
		ProjectID:   projectID,
		Script:      req.Script,
		Words:       req.Words,
		VisualTypes: req.VisualTypes,
		AvatarID:    s.defaults.AvatarID,
	}, req.UsePlanner)
	if err != nil {
		return nil, err
	}
	scenes, _ = storyboard.SnapToSilence(scenes, req.Words)

	return s.create(ctx, projectID, req.Title, req.AspectRatio, req.MasterAudioURL, scenes, model.MemoryMetadata{
		LightLeakOverlayURL: req.LightLeakOverlayURL,
		APIKeyOverrides:     req.APIKeyOverrides,
	})
}

// FromStoryboard persists an already built storyboard after normalising
// and snapping it
func (s *ProjectService) FromStoryboard(ctx context.Context, req *model.StoryboardRequest) (*model.ProjectView, error) {
	projectID := uuid.New().String()

	scenes := make([]model.Scene, 0, len(req.Scenes))
	for _, in := range req.Scenes {
		sc := model.Scene{
			ID:           uuid.New().String(),
			ProjectID:    projectID,
			Script:       strings.TrimSpace(in.Script),
			Duration:     in.Duration,
			VisualType:   in.VisualType,
			Payload:      in.Payload,
			DirectorNote: in.DirectorNote,
			Status:       model.SceneTodo,
		}
		if in.StartTime != nil && in.EndTime != nil {
			sc.StartTime, sc.EndTime = *in.StartTime, *in.EndTime
			if sc.Duration <= 0 {
				sc.Duration = sc.EndTime - sc.StartTime
			}
		}
		if in.Transition != nil {
			sc.Transition = *in.Transition
		}
		scenes = append(scenes, sc)
	}

	scenes = storyboard.Normalize(scenes, s.segmenter.Bounds().WordsPerSecond)
	scenes, _ = storyboard.SnapToSilence(scenes, req.Words)

	return s.create(ctx, projectID, req.Title, req.AspectRatio, req.MasterAudioURL, scenes, model.MemoryMetadata{
		LightLeakOverlayURL: req.LightLeakOverlayURL,
		APIKeyOverrides:     req.APIKeyOverrides,
	})
}

func (s *ProjectService) create(ctx context.Context, projectID, title, aspect, masterAudio string, scenes []model.Scene, meta model.MemoryMetadata) (*model.ProjectView, error) {
	if err := storyboard.Validate(scenes); err != nil {
		return nil, err
	}
	if aspect == "" {
		aspect = s.defaults.AspectRatio
	}

	now := s.now()
	project := &model.Project{
		ID:             projectID,
		Title:          strings.TrimSpace(title),
		AspectRatio:    aspect,
		MasterAudioURL: masterAudio,
		TotalDuration:  storyboard.TotalDuration(scenes),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	mem := &model.ProjectMemory{
		ProjectID:      projectID,
		WorkflowStatus: model.WorkflowIdle,
		TotalScenes:    len(scenes),
		LastLog:        fmt.Sprintf("Project created with %d scenes.", len(scenes)),
		Metadata:       meta,
		UpdatedAt:      now,
	}

	if err := s.store.CreateProject(ctx, project, scenes, mem); err != nil {
		return nil, err
	}

	log.Info().
		Str("project_id", projectID).
		Int("scenes", len(scenes)).
		Float64("duration", project.TotalDuration).
		Msg("project created")

	return s.Get(ctx, projectID)
}

// Get returns the project with its ledger and scenes
func (s *ProjectService) Get(ctx context.Context, projectID string) (*model.ProjectView, error) {
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	mem, err := s.store.GetMemory(ctx, projectID)
	if err != nil {
		return nil, err
	}
	scenes, err := s.store.ListScenes(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return &model.ProjectView{Project: project, Memory: mem, Scenes: scenes}, nil
}

// List returns every project
func (s *ProjectService) List(ctx context.Context) ([]model.Project, error) {
	return s.store.ListProjects(ctx)
}

// Delete removes a project with its scenes and ledger
func (s *ProjectService) Delete(ctx context.Context, projectID string) error {
	return s.store.DeleteProject(ctx, projectID)
}

// UpdateScene edits the user-owned fields of a scene. A timing edit moves
// the shared boundary of the neighbouring scene so the timeline stays
// contiguous; the result must still pass validation.
func (s *ProjectService) UpdateScene(ctx context.Context, projectID, sceneID string, req *model.UpdateSceneRequest) (*model.Scene, error) {
	scenes, err := s.store.ListScenes(ctx, projectID)
	if err != nil {
		return nil, err
	}
	pos := -1
	for i := range scenes {
		if scenes[i].ID == sceneID {
			pos = i
			break
		}
	}
	if pos < 0 {
		return nil, apperr.NotFound("scene", sceneID)
	}
	if scenes[pos].Status == model.SceneProcessing {
		return nil, apperr.Validation("scene is being processed and cannot be edited", map[string]interface{}{
			"sceneId": sceneID,
			"status":  scenes[pos].Status,
		})
	}

	edited := make([]model.Scene, len(scenes))
	copy(edited, scenes)
	upd := model.SceneUpdate{
		Script:       req.Script,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		Payload:      req.Payload,
		Transition:   req.Transition,
		DirectorNote: req.DirectorNote,
	}
	upd.Apply(&edited[pos])

	var neighbours []int
	if req.StartTime != nil && pos > 0 {
		edited[pos-1].EndTime = *req.StartTime
		edited[pos-1].RecomputeDuration()
		neighbours = append(neighbours, pos-1)
	}
	if req.EndTime != nil && pos < len(edited)-1 {
		edited[pos+1].StartTime = *req.EndTime
		edited[pos+1].RecomputeDuration()
		neighbours = append(neighbours, pos+1)
	}
	if err := storyboard.Validate(edited); err != nil {
		return nil, err
	}

	for _, i := range neighbours {
		if edited[i].Status == model.SceneProcessing {
			return nil, apperr.Validation("neighbouring scene is being processed", map[string]interface{}{"sceneId": edited[i].ID})
		}
	}
	for _, i := range neighbours {
		if _, err := s.store.UpdateScene(ctx, edited[i].ID, model.SceneUpdate{
			StartTime: &edited[i].StartTime,
			EndTime:   &edited[i].EndTime,
		}); err != nil {
			return nil, err
		}
	}
	return s.store.UpdateScene(ctx, sceneID, upd)
}

// UpdateSettings edits the project overrides kept in memory metadata
func (s *ProjectService) UpdateSettings(ctx context.Context, projectID string, req *model.UpdateSettingsRequest) (*model.ProjectMemory, error) {
	mem, err := s.store.GetMemory(ctx, projectID)
	if err != nil {
		return nil, err
	}

	meta := mem.Metadata
	if req.LightLeakOverlayURL != nil {
		meta.LightLeakOverlayURL = strings.TrimSpace(*req.LightLeakOverlayURL)
	}
	if req.AspectRatio != nil {
		meta.AspectRatio = *req.AspectRatio
	}
	if req.APIKeyOverrides != nil {
		merged := make(map[string]string, len(meta.APIKeyOverrides)+len(req.APIKeyOverrides))
		for k, v := range meta.APIKeyOverrides {
			merged[k] = v
		}
		for k, v := range req.APIKeyOverrides {
			if v == "" {
				delete(merged, k)
				continue
			}
			merged[k] = v
		}
		meta.APIKeyOverrides = merged
	}

	return s.store.UpdateMemory(ctx, projectID, model.MemoryUpdate{
		Metadata:  &meta,
		AppendLog: "Project settings updated.",
	})
}

// PreviewSegment runs the segmenter without persisting anything
func (s *ProjectService) PreviewSegment(ctx context.Context, req *model.SegmentRequest) (*model.StoryboardResponse, error) {
	scenes, err := s.segmenter.Segment(ctx, &storyboard.Input{
		Script:      req.Script,
		Words:       req.Words,
		VisualTypes: req.VisualTypes,
		AvatarID:    s.defaults.AvatarID,
	}, req.UsePlanner)
	if err != nil {
		return nil, err
	}
	scenes, moved := storyboard.SnapToSilence(scenes, req.Words)
	return &model.StoryboardResponse{
		Scenes:        scenes,
		TotalDuration: storyboard.TotalDuration(scenes),
		Snapped:       moved > 0,
	}, nil
}

// PreviewSnap snaps the given scenes to the transcript without persisting
func (s *ProjectService) PreviewSnap(ctx context.Context, req *model.SnapRequest) (*model.StoryboardResponse, error) {
	scenes, moved := storyboard.SnapToSilence(req.Scenes, req.Words)
	return &model.StoryboardResponse{
		Scenes:        scenes,
		TotalDuration: storyboard.TotalDuration(scenes),
		Snapped:       moved > 0,
	}, nil
}
