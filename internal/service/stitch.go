package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/BillMorio/Video-Agent-sub002/internal/apperr"
	"github.com/BillMorio/Video-Agent-sub002/internal/client"
	"github.com/BillMorio/Video-Agent-sub002/internal/model"
	"github.com/BillMorio/Video-Agent-sub002/internal/store"
)

// localTransition is the stitch mode of the local render backend
const localTransition = "batch-light-leak"

// minStitchScenes is the fewest rendered scenes a master can be cut from
const minStitchScenes = 2

// StitchSettings are the global stitch defaults
type StitchSettings struct {
	DefaultLightLeakURL string
	FPS                 int
	TransitionFrames    int
	MirrorToStorage     bool
}

// StitchService assembles rendered scenes into a master video
type StitchService struct {
	store    store.Store
	local    client.MediaRenderer
	cloud    client.CloudRenderer
	storage  client.StorageClient
	settings StitchSettings
	notifier Notifier
}

// NewStitchService creates the stitch coordinator. cloud, storage and
// notifier may be nil.
func NewStitchService(st store.Store, local client.MediaRenderer, cloud client.CloudRenderer, storage client.StorageClient, settings StitchSettings, notifier Notifier) *StitchService {
	if settings.FPS <= 0 {
		settings.FPS = 30
	}
	return &StitchService{
		store:    st,
		local:    local,
		cloud:    cloud,
		storage:  storage,
		settings: settings,
		notifier: notifier,
	}
}

// ResolveLightLeak picks the overlay: the request value, then the project
// memory override, then the configured default. Empty means no overlay.
func ResolveLightLeak(requested string, mem *model.ProjectMemory, configured string) string {
	if v := strings.TrimSpace(requested); v != "" {
		return v
	}
	if mem != nil {
		if v := strings.TrimSpace(mem.Metadata.LightLeakOverlayURL); v != "" {
			return v
		}
	}
	return strings.TrimSpace(configured)
}

// Stitch sends every scene with a rendered asset to the local or cloud
// render backend
func (s *StitchService) Stitch(ctx context.Context, projectID string, opts model.StitchOptions) (*model.StitchResult, error) {
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	scenes, err := s.store.ListScenes(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if len(scenes) == 0 {
		return nil, apperr.NotFound("scenes of project", projectID)
	}

	var ready []model.Scene
	for _, sc := range scenes {
		if sc.ResolvedURL() != "" {
			ready = append(ready, sc)
		}
	}
	if len(ready) < minStitchScenes {
		return nil, apperr.Validation(
			fmt.Sprintf("at least %d scenes with a rendered video are required, found %d of %d", minStitchScenes, len(ready), len(scenes)),
			map[string]interface{}{"found": len(ready), "total": len(scenes)},
		)
	}

	mem, err := s.store.GetMemory(ctx, projectID)
	if err != nil && !apperr.IsNotFound(err) {
		return nil, err
	}
	leak := ResolveLightLeak(opts.LightLeakURL, mem, s.settings.DefaultLightLeakURL)

	log.Info().
		Str("project_id", projectID).
		Int("scenes", len(ready)).
		Bool("cloud", opts.UseCloudRender).
		Str("light_leak", leak).
		Msg("stitching project")

	var result *model.StitchResult
	if opts.UseCloudRender {
		result, err = s.stitchCloud(ctx, project, mem, ready, opts, leak)
	} else {
		result, err = s.stitchLocal(ctx, project, ready, opts, leak)
	}
	if err != nil {
		log.Error().Err(err).Str("project_id", projectID).Msg("stitch failed")
		if s.notifier != nil {
			s.notifier.BroadcastError(projectID, "STITCH_FAILED", err.Error())
		}
		return nil, err
	}
	result.SceneCount = len(ready)
	result.TotalScenes = len(scenes)
	result.LightLeakURL = leak

	line := fmt.Sprintf("Stitched %d of %d scenes (%s).", len(ready), len(scenes), result.Mode)
	if result.PublicURL != "" {
		line = fmt.Sprintf("Stitched %d of %d scenes: %s", len(ready), len(scenes), result.PublicURL)
	}
	if mem != nil {
		if _, err := s.store.UpdateMemory(context.WithoutCancel(ctx), projectID, model.MemoryUpdate{AppendLog: line}); err != nil {
			log.Warn().Err(err).Str("project_id", projectID).Msg("failed to log stitch result")
		}
	}
	if s.notifier != nil {
		s.notifier.BroadcastComplete(projectID, result)
	}
	return result, nil
}

func (s *StitchService) stitchLocal(ctx context.Context, project *model.Project, scenes []model.Scene, opts model.StitchOptions, leak string) (*model.StitchResult, error) {
	if s.local == nil {
		return nil, apperr.Validation("local rendering is not configured", nil)
	}

	req := &client.StitchRequest{
		Transition:        localTransition,
		UseFadeTransition: opts.UseFadeTransition,
		UseLightLeak:      opts.UseLightLeak,
		GlobalSettings:    client.StitchGlobalSettings{LightLeakOverlayURL: leak},
	}
	for _, sc := range scenes {
		url := sc.ResolvedURL()
		req.SceneURLs = append(req.SceneURLs, url)
		req.Scenes = append(req.Scenes, client.SceneSummary{
			ID:             sc.ID,
			Index:          sc.Index,
			VisualType:     string(sc.VisualType),
			Duration:       sc.Duration,
			TransitionType: string(sc.Transition.Type),
			URL:            url,
		})
		req.Duration += sc.Duration
	}
	req.Duration = model.RoundTime(req.Duration)

	resp, err := s.local.Stitch(ctx, req)
	if err != nil {
		return nil, err
	}

	result := &model.StitchResult{Mode: model.StitchModeLocal, PublicURL: resp.PublicURL}
	if len(resp.Raw) > 0 {
		result.Details = resp.Raw
	}
	if s.settings.MirrorToStorage && s.storage != nil && resp.PublicURL != "" {
		key := fmt.Sprintf("projects/%s/master/master-%d", project.ID, time.Now().Unix())
		mirrored, err := s.storage.Mirror(ctx, key, resp.PublicURL)
		if err != nil {
			log.Warn().Err(err).Str("project_id", project.ID).Msg("failed to mirror master render, keeping backend url")
		} else {
			result.PublicURL = mirrored
		}
	}
	return result, nil
}

func (s *StitchService) stitchCloud(ctx context.Context, project *model.Project, mem *model.ProjectMemory, scenes []model.Scene, opts model.StitchOptions, leak string) (*model.StitchResult, error) {
	if s.cloud == nil {
		return nil, apperr.Validation("cloud rendering is not configured", nil)
	}

	props := client.CloudInputProps{
		UseFadeTransition:          opts.UseFadeTransition,
		TransitionDurationInFrames: s.settings.TransitionFrames,
		AspectRatio:                (&model.ProductionContext{Project: project, Memory: mem}).AspectRatio(),
	}
	if opts.UseLightLeak {
		props.LightLeakURL = leak
	}
	for _, sc := range scenes {
		props.Scenes = append(props.Scenes, client.CloudScene{
			URL:              sc.ResolvedURL(),
			DurationInFrames: int(math.Round(sc.Duration * float64(s.settings.FPS))),
			VisualType:       string(sc.VisualType),
		})
	}

	handle, err := s.cloud.Submit(ctx, &client.CloudComposition{
		CompositionID: client.CloudCompositionID,
		InputProps:    props,
	})
	if err != nil {
		return nil, err
	}

	result := &model.StitchResult{
		Mode:       model.StitchModeCloud,
		RenderID:   handle.RenderID,
		BucketName: handle.BucketName,
	}
	if len(handle.Details) > 0 {
		result.Details = handle.Details
	}
	return result, nil
}

// CloudStatus reports the progress of a cloud render
func (s *StitchService) CloudStatus(ctx context.Context, projectID, renderID, bucketName string) (*model.CloudRenderStatus, error) {
	if s.cloud == nil {
		return nil, apperr.Validation("cloud rendering is not configured", nil)
	}
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	if bucketName == "" {
		return nil, apperr.Validation("bucketName is required", nil)
	}
	return s.cloud.Status(ctx, renderID, bucketName)
}
