package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BillMorio/Video-Agent-sub002/internal/apperr"
	"github.com/BillMorio/Video-Agent-sub002/internal/client"
	"github.com/BillMorio/Video-Agent-sub002/internal/model"
	"github.com/BillMorio/Video-Agent-sub002/internal/provider"
	"github.com/BillMorio/Video-Agent-sub002/internal/store"
	"github.com/BillMorio/Video-Agent-sub002/internal/storyboard"
)

type adapterFunc func(ctx context.Context, scene *model.Scene, pc *model.ProductionContext) (*provider.Result, error)

func (f adapterFunc) Generate(ctx context.Context, scene *model.Scene, pc *model.ProductionContext) (*provider.Result, error) {
	return f(ctx, scene, pc)
}

func succeed(ctx context.Context, scene *model.Scene, pc *model.ProductionContext) (*provider.Result, error) {
	return &provider.Result{AssetURL: fmt.Sprintf("https://cdn/scene-%d.mp4", scene.Index)}, nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	progress []*model.WSProgressMessage
	complete []string
	errs     []string
}

func (n *recordingNotifier) BroadcastProgress(msg *model.WSProgressMessage) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.progress = append(n.progress, msg)
}

func (n *recordingNotifier) BroadcastComplete(projectID string, result interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.complete = append(n.complete, projectID)
}

func (n *recordingNotifier) BroadcastError(projectID, code, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errs = append(n.errs, code+": "+message)
}

type fixture struct {
	store    *store.SQLiteStore
	registry *provider.Registry
	orch     *OrchestratorService
	projects *ProjectService
	notifier *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := store.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	registry := provider.NewRegistry()
	for _, vt := range model.ValidVisualTypes {
		registry.Register(vt, adapterFunc(succeed))
	}
	notifier := &recordingNotifier{}
	return &fixture{
		store:    st,
		registry: registry,
		orch:     NewOrchestratorService(st, registry, notifier),
		projects: NewProjectService(st, storyboard.NewSegmenter(storyboard.DefaultBounds(), nil), ProjectDefaults{}),
		notifier: notifier,
	}
}

// seed creates a project whose scenes last 4s each
func (f *fixture) seed(t *testing.T, types ...model.VisualType) *model.ProjectView {
	t.Helper()
	req := &model.StoryboardRequest{Title: "Launch video", MasterAudioURL: "https://cdn/master.mp3"}
	for i, vt := range types {
		req.Scenes = append(req.Scenes, model.StoryboardScene{
			Script:     fmt.Sprintf("Line number %d.", i+1),
			Duration:   4,
			VisualType: vt,
			Payload:    model.VisualPayload{SearchQuery: "city skyline"},
		})
	}
	view, err := f.projects.FromStoryboard(context.Background(), req)
	require.NoError(t, err)
	return view
}

func assertCountersMatch(t *testing.T, st store.Store, projectID string) {
	t.Helper()
	ctx := context.Background()
	scenes, err := st.ListScenes(ctx, projectID)
	require.NoError(t, err)
	mem, err := st.GetMemory(ctx, projectID)
	require.NoError(t, err)

	tally := model.CountScenes(scenes)
	assert.Equal(t, tally.Completed, mem.CompletedCount, "completed counter")
	assert.Equal(t, tally.Failed, mem.FailedCount, "failed counter")
	assert.Equal(t, tally.Total, mem.TotalScenes, "total counter")
}

func TestOrchestratorRunsScenesInOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	view := f.seed(t, model.VisualARoll, model.VisualBRoll, model.VisualImage)
	pid := view.Project.ID

	for i := 1; i <= 3; i++ {
		res, err := f.orch.FindAndProcessNextScene(ctx, pid)
		require.NoError(t, err)
		assert.Equal(t, model.StepCompleted, res.Outcome)
		assert.Equal(t, i, res.SceneIndex)
		assert.Equal(t, fmt.Sprintf("https://cdn/scene-%d.mp4", i), res.AssetURL)
		assert.Equal(t, 3-i, res.Pending)
		assertCountersMatch(t, f.store, pid)
	}

	mem, err := f.store.GetMemory(ctx, pid)
	require.NoError(t, err)
	assert.Equal(t, model.WorkflowCompleted, mem.WorkflowStatus)
	assert.Empty(t, mem.CurrentSceneID)
	assert.Contains(t, mem.LastLog, "Scene 3 (image): completed.")
	assert.Len(t, f.notifier.progress, 3)
	assert.Equal(t, []string{pid}, f.notifier.complete)
}

func TestOrchestratorIdleStepWritesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	view := f.seed(t, model.VisualBRoll, model.VisualBRoll)
	pid := view.Project.ID

	for i := 0; i < 2; i++ {
		_, err := f.orch.FindAndProcessNextScene(ctx, pid)
		require.NoError(t, err)
	}
	before, err := f.store.GetMemory(ctx, pid)
	require.NoError(t, err)
	scenesBefore, err := f.store.ListScenes(ctx, pid)
	require.NoError(t, err)

	res, err := f.orch.FindAndProcessNextScene(ctx, pid)
	require.NoError(t, err)
	assert.True(t, res.Idle())
	assert.False(t, res.HasMoreWork())

	after, err := f.store.GetMemory(ctx, pid)
	require.NoError(t, err)
	scenesAfter, err := f.store.ListScenes(ctx, pid)
	require.NoError(t, err)
	assert.Equal(t, before.Version, after.Version)
	assert.Equal(t, scenesBefore, scenesAfter)
}

func TestOrchestratorRecordsFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.registry.Register(model.VisualGraphics, adapterFunc(func(ctx context.Context, scene *model.Scene, pc *model.ProductionContext) (*provider.Result, error) {
		return nil, &client.ProviderError{Provider: "veo", StatusCode: 400, Body: "prompt rejected"}
	}))
	f.registry.Register(model.VisualImage, adapterFunc(func(ctx context.Context, scene *model.Scene, pc *model.ProductionContext) (*provider.Result, error) {
		return nil, &client.TimeoutError{Provider: "wavespeed", JobID: "j1", Waited: time.Minute}
	}))
	view := f.seed(t, model.VisualGraphics, model.VisualImage, model.VisualBRoll)
	pid := view.Project.ID

	res, err := f.orch.FindAndProcessNextScene(ctx, pid)
	require.NoError(t, err)
	assert.Equal(t, model.StepFailed, res.Outcome)
	assert.Contains(t, res.Error, "prompt rejected")
	assert.Equal(t, model.WorkflowRunning, res.WorkflowStatus)

	res, err = f.orch.FindAndProcessNextScene(ctx, pid)
	require.NoError(t, err)
	assert.Equal(t, model.StepFailed, res.Outcome)

	res, err = f.orch.FindAndProcessNextScene(ctx, pid)
	require.NoError(t, err)
	assert.Equal(t, model.StepCompleted, res.Outcome)
	assert.Equal(t, model.WorkflowError, res.WorkflowStatus)
	assertCountersMatch(t, f.store, pid)

	scenes, err := f.store.ListScenes(ctx, pid)
	require.NoError(t, err)
	assert.Equal(t, model.SceneFailed, scenes[0].Status)
	assert.Contains(t, scenes[0].LastError, "prompt rejected")
	assert.Equal(t, model.SceneFailed, scenes[1].Status)

	mem, err := f.store.GetMemory(ctx, pid)
	require.NoError(t, err)
	assert.Contains(t, mem.LastLog, "Scene 2 (image) timed out")
	assert.Len(t, f.notifier.errs, 2)
}

// emptySearcher finds nothing for any query
type emptySearcher struct{}

func (emptySearcher) SearchVideo(ctx context.Context, apiKey, query string, target float64, aspect string) (*client.StockClip, error) {
	return nil, nil
}

func TestOrchestratorFailsSceneWithoutSearchResults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.registry.Register(model.VisualBRoll, provider.NewStockAdapter(emptySearcher{}, nil, false))
	view := f.seed(t, model.VisualARoll, model.VisualBRoll)
	pid := view.Project.ID

	res, err := f.orch.FindAndProcessNextScene(ctx, pid)
	require.NoError(t, err)
	assert.Equal(t, model.StepCompleted, res.Outcome)

	res, err = f.orch.FindAndProcessNextScene(ctx, pid)
	require.NoError(t, err)
	assert.Equal(t, model.StepFailed, res.Outcome)
	assert.Contains(t, res.Error, "no results found for query")
	assert.Equal(t, model.WorkflowError, res.WorkflowStatus)
	assert.False(t, res.HasMoreWork())
	assertCountersMatch(t, f.store, pid)

	mem, err := f.store.GetMemory(ctx, pid)
	require.NoError(t, err)
	assert.Equal(t, 1, mem.FailedCount)
	assert.Equal(t, 1, mem.CompletedCount)
	assert.Equal(t, model.WorkflowError, mem.WorkflowStatus)

	scene, err := f.store.GetScene(ctx, view.Scenes[1].ID)
	require.NoError(t, err)
	assert.Equal(t, model.SceneFailed, scene.Status)
	assert.Contains(t, scene.LastError, "city skyline")
	assert.Len(t, f.notifier.errs, 1)
}

func TestOrchestratorAwaitingInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.registry.Register(model.VisualBRoll, adapterFunc(func(ctx context.Context, scene *model.Scene, pc *model.ProductionContext) (*provider.Result, error) {
		if scene.Payload.SearchQuery == "nothing matches" {
			return nil, &provider.MissingInputError{Reason: "several clips match equally, pick one"}
		}
		return succeed(ctx, scene, pc)
	}))
	view := f.seed(t, model.VisualBRoll, model.VisualARoll)
	pid := view.Project.ID
	parked := view.Scenes[0]
	_, err := f.store.UpdateScene(ctx, parked.ID, model.SceneUpdate{Payload: &model.VisualPayload{SearchQuery: "nothing matches"}})
	require.NoError(t, err)

	res, err := f.orch.FindAndProcessNextScene(ctx, pid)
	require.NoError(t, err)
	assert.Equal(t, model.StepAwaitingInput, res.Outcome)

	// the parked scene is skipped until its input is resolved
	res, err = f.orch.FindAndProcessNextScene(ctx, pid)
	require.NoError(t, err)
	assert.Equal(t, 2, res.SceneIndex)
	assert.Equal(t, model.WorkflowRunning, res.WorkflowStatus)

	res, err = f.orch.FindAndProcessNextScene(ctx, pid)
	require.NoError(t, err)
	assert.True(t, res.Idle())

	_, err = f.orch.ResolveInput(ctx, pid, view.Scenes[1].ID, model.VisualPayload{})
	assert.True(t, apperr.IsValidation(err), "completed scene is not awaiting input")

	resolved, err := f.orch.ResolveInput(ctx, pid, parked.ID, model.VisualPayload{SearchQuery: "sunrise timelapse"})
	require.NoError(t, err)
	assert.True(t, resolved.InputResolved)

	res, err = f.orch.FindAndProcessNextScene(ctx, pid)
	require.NoError(t, err)
	assert.Equal(t, model.StepCompleted, res.Outcome)
	assert.Equal(t, 1, res.SceneIndex)
	assert.Equal(t, model.WorkflowCompleted, res.WorkflowStatus)

	scene, err := f.store.GetScene(ctx, parked.ID)
	require.NoError(t, err)
	assert.False(t, scene.InputResolved)
	assert.Empty(t, scene.LastError)
}

func TestOrchestratorDropsResultAfterReset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	var pid string
	resets := 0
	f.registry.Register(model.VisualARoll, adapterFunc(func(ctx context.Context, scene *model.Scene, pc *model.ProductionContext) (*provider.Result, error) {
		if resets == 0 {
			resets++
			_, err := f.orch.ResetProjectProduction(ctx, pid)
			require.NoError(t, err)
			return &provider.Result{AssetURL: "https://cdn/stale.mp4"}, nil
		}
		return succeed(ctx, scene, pc)
	}))
	view := f.seed(t, model.VisualARoll, model.VisualBRoll)
	pid = view.Project.ID

	res, err := f.orch.FindAndProcessNextScene(ctx, pid)
	require.NoError(t, err)
	assert.Equal(t, model.StepSuperseded, res.Outcome)
	assert.Equal(t, 1, res.SceneIndex)
	assert.Equal(t, 2, res.Pending)
	assert.Equal(t, model.WorkflowIdle, res.WorkflowStatus)

	scene, err := f.store.GetScene(ctx, view.Scenes[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.SceneTodo, scene.Status)
	assert.Empty(t, scene.AssetURL)

	mem, err := f.store.GetMemory(ctx, pid)
	require.NoError(t, err)
	assert.Equal(t, 0, mem.CompletedCount)
	assert.Equal(t, model.WorkflowIdle, mem.WorkflowStatus)
	assert.Empty(t, mem.CurrentSceneID)
	assertCountersMatch(t, f.store, pid)
	assert.Empty(t, f.notifier.progress)

	// the reset scene runs again on the next step
	res, err = f.orch.FindAndProcessNextScene(ctx, pid)
	require.NoError(t, err)
	assert.Equal(t, model.StepCompleted, res.Outcome)
	assert.Equal(t, "https://cdn/scene-1.mp4", res.AssetURL)
}

func TestOrchestratorDropsResultAfterReclaim(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.registry.Register(model.VisualBRoll, adapterFunc(func(ctx context.Context, scene *model.Scene, pc *model.ProductionContext) (*provider.Result, error) {
		reclaimed, err := f.store.ReclaimStale(ctx, time.Now().Add(time.Hour))
		require.NoError(t, err)
		require.Len(t, reclaimed, 1)
		return &provider.Result{AssetURL: "https://cdn/late.mp4"}, nil
	}))
	view := f.seed(t, model.VisualBRoll)
	pid := view.Project.ID

	res, err := f.orch.FindAndProcessNextScene(ctx, pid)
	require.NoError(t, err)
	assert.Equal(t, model.StepSuperseded, res.Outcome)
	assert.Equal(t, model.WorkflowError, res.WorkflowStatus)
	assert.False(t, res.HasMoreWork())

	scene, err := f.store.GetScene(ctx, view.Scenes[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.SceneFailed, scene.Status)
	assert.Contains(t, scene.LastError, "interrupted")
	assert.Empty(t, scene.AssetURL)

	mem, err := f.store.GetMemory(ctx, pid)
	require.NoError(t, err)
	assert.Equal(t, 1, mem.FailedCount)
	assert.Equal(t, 0, mem.CompletedCount)
	assertCountersMatch(t, f.store, pid)
}

// racingStore lets another caller claim the scene just before we do
type racingStore struct {
	store.Store
}

func (r racingStore) ClaimScene(ctx context.Context, sceneID string, expected model.SceneStatus) (*model.Scene, error) {
	if _, err := r.Store.ClaimScene(ctx, sceneID, expected); err != nil {
		return nil, err
	}
	return r.Store.ClaimScene(ctx, sceneID, expected)
}

func TestOrchestratorContendedClaim(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	view := f.seed(t, model.VisualBRoll, model.VisualBRoll)
	pid := view.Project.ID

	calls := 0
	f.registry.Register(model.VisualBRoll, adapterFunc(func(ctx context.Context, scene *model.Scene, pc *model.ProductionContext) (*provider.Result, error) {
		calls++
		return succeed(ctx, scene, pc)
	}))
	orch := NewOrchestratorService(racingStore{f.store}, f.registry, nil)

	before, err := f.store.GetMemory(ctx, pid)
	require.NoError(t, err)

	res, err := orch.FindAndProcessNextScene(ctx, pid)
	require.NoError(t, err)
	assert.Equal(t, model.StepContended, res.Outcome)
	assert.True(t, res.HasMoreWork())
	assert.Zero(t, calls)

	after, err := f.store.GetMemory(ctx, pid)
	require.NoError(t, err)
	assert.Equal(t, before.Version, after.Version)
}

func TestResetProjectProduction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.registry.Register(model.VisualImage, adapterFunc(func(ctx context.Context, scene *model.Scene, pc *model.ProductionContext) (*provider.Result, error) {
		return nil, errors.New("boom")
	}))
	view := f.seed(t, model.VisualBRoll, model.VisualImage, model.VisualARoll)
	pid := view.Project.ID
	for i := 0; i < 3; i++ {
		_, err := f.orch.FindAndProcessNextScene(ctx, pid)
		require.NoError(t, err)
	}

	mem, err := f.orch.ResetProjectProduction(ctx, pid)
	require.NoError(t, err)
	assert.Equal(t, model.WorkflowIdle, mem.WorkflowStatus)
	assert.Zero(t, mem.CompletedCount)
	assert.Zero(t, mem.FailedCount)
	assert.Equal(t, 3, mem.TotalScenes)
	assert.Empty(t, mem.CurrentSceneID)

	scenes, err := f.store.ListScenes(ctx, pid)
	require.NoError(t, err)
	for _, sc := range scenes {
		assert.Equal(t, model.SceneTodo, sc.Status)
		assert.Empty(t, sc.LastError)
		assert.Empty(t, sc.AssetURL)
	}
	assertCountersMatch(t, f.store, pid)
}

func TestReprocessScene(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	fail := true
	f.registry.Register(model.VisualGraphics, adapterFunc(func(ctx context.Context, scene *model.Scene, pc *model.ProductionContext) (*provider.Result, error) {
		if fail {
			return nil, errors.New("quota exceeded")
		}
		return succeed(ctx, scene, pc)
	}))
	view := f.seed(t, model.VisualGraphics, model.VisualBRoll)
	pid := view.Project.ID

	for i := 0; i < 2; i++ {
		_, err := f.orch.FindAndProcessNextScene(ctx, pid)
		require.NoError(t, err)
	}

	_, err := f.orch.ReprocessScene(ctx, pid, view.Scenes[1].ID)
	assert.True(t, errors.Is(err, model.ErrIllegalTransition), "completed scenes are not reprocessed")

	fail = false
	res, err := f.orch.ReprocessScene(ctx, pid, view.Scenes[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.StepCompleted, res.Outcome)
	assert.Equal(t, model.WorkflowCompleted, res.WorkflowStatus)
	assertCountersMatch(t, f.store, pid)

	_, err = f.orch.ReprocessScene(ctx, "other-project", view.Scenes[0].ID)
	assert.True(t, apperr.IsNotFound(err))
}

type fakeStitcher struct {
	client.MediaRenderer
	req  *client.StitchRequest
	err  error
	comp *client.CloudComposition
}

func (f *fakeStitcher) Stitch(ctx context.Context, req *client.StitchRequest) (*client.StitchResponse, error) {
	f.req = req
	if f.err != nil {
		return nil, f.err
	}
	return &client.StitchResponse{PublicURL: "https://render/master.mp4"}, nil
}

func (f *fakeStitcher) Submit(ctx context.Context, comp *client.CloudComposition) (*client.CloudRenderHandle, error) {
	f.comp = comp
	return &client.CloudRenderHandle{RenderID: "r-1", BucketName: "bucket-1"}, nil
}

func (f *fakeStitcher) Status(ctx context.Context, renderID, bucketName string) (*model.CloudRenderStatus, error) {
	return &model.CloudRenderStatus{RenderID: renderID, Status: "in-progress", Progress: 0.4}, nil
}

func TestStitchNeedsTwoRenderedScenes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	view := f.seed(t, model.VisualBRoll, model.VisualBRoll, model.VisualBRoll)
	_, err := f.orch.FindAndProcessNextScene(ctx, view.Project.ID)
	require.NoError(t, err)

	renderer := &fakeStitcher{}
	svc := NewStitchService(f.store, renderer, nil, nil, StitchSettings{}, nil)
	_, err = svc.Stitch(ctx, view.Project.ID, model.StitchOptions{})
	require.Error(t, err)

	var verr *apperr.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, 1, verr.Details["found"])
	assert.Equal(t, 3, verr.Details["total"])
	assert.Nil(t, renderer.req, "backend is not called")

	_, err = svc.Stitch(ctx, "missing", model.StitchOptions{})
	assert.True(t, apperr.IsNotFound(err))
}

func TestResolveLightLeak(t *testing.T) {
	mem := &model.ProjectMemory{Metadata: model.MemoryMetadata{LightLeakOverlayURL: "B"}}
	assert.Equal(t, "A", ResolveLightLeak("A", mem, "C"))
	assert.Equal(t, "B", ResolveLightLeak("", mem, "C"))
	assert.Equal(t, "C", ResolveLightLeak("", &model.ProjectMemory{}, "C"))
	assert.Equal(t, "C", ResolveLightLeak(" ", nil, "C"))
	assert.Empty(t, ResolveLightLeak("", nil, ""))
}

func TestStitchLocal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	view := f.seed(t, model.VisualARoll, model.VisualBRoll)
	pid := view.Project.ID
	for i := 0; i < 2; i++ {
		_, err := f.orch.FindAndProcessNextScene(ctx, pid)
		require.NoError(t, err)
	}
	_, err := f.projects.UpdateSettings(ctx, pid, &model.UpdateSettingsRequest{LightLeakOverlayURL: model.Ptr("https://cdn/leak-B.mp4")})
	require.NoError(t, err)

	renderer := &fakeStitcher{}
	svc := NewStitchService(f.store, renderer, nil, nil, StitchSettings{DefaultLightLeakURL: "https://cdn/leak-C.mp4"}, f.notifier)

	res, err := svc.Stitch(ctx, pid, model.StitchOptions{UseLightLeak: true})
	require.NoError(t, err)
	assert.Equal(t, model.StitchModeLocal, res.Mode)
	assert.Equal(t, "https://render/master.mp4", res.PublicURL)
	assert.Equal(t, 2, res.SceneCount)
	assert.Equal(t, "https://cdn/leak-B.mp4", res.LightLeakURL)

	req := renderer.req
	require.NotNil(t, req)
	assert.Equal(t, "batch-light-leak", req.Transition)
	assert.Equal(t, []string{"https://cdn/scene-1.mp4", "https://cdn/scene-2.mp4"}, req.SceneURLs)
	assert.Equal(t, "https://cdn/leak-B.mp4", req.GlobalSettings.LightLeakOverlayURL)
	assert.Equal(t, 8.0, req.Duration)
	assert.Equal(t, "a-roll", req.Scenes[0].VisualType)

	res, err = svc.Stitch(ctx, pid, model.StitchOptions{UseLightLeak: true, LightLeakURL: "https://cdn/leak-A.mp4"})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/leak-A.mp4", renderer.req.GlobalSettings.LightLeakOverlayURL)
	assert.Equal(t, "https://cdn/leak-A.mp4", res.LightLeakURL)
}

func TestStitchSurfacesBackendError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	view := f.seed(t, model.VisualBRoll, model.VisualBRoll)
	for i := 0; i < 2; i++ {
		_, err := f.orch.FindAndProcessNextScene(ctx, view.Project.ID)
		require.NoError(t, err)
	}

	backendErr := &client.BackendError{StatusCode: 500, Message: "ffmpeg exited with code 1", Details: "moov atom not found"}
	svc := NewStitchService(f.store, &fakeStitcher{err: backendErr}, nil, nil, StitchSettings{}, f.notifier)

	_, err := svc.Stitch(ctx, view.Project.ID, model.StitchOptions{})
	var be *client.BackendError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, "ffmpeg exited with code 1", be.Message)
	assert.Equal(t, "moov atom not found", be.Details)
	assert.Contains(t, f.notifier.errs, "STITCH_FAILED: ffmpeg exited with code 1")
}

func TestStitchCloud(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	view := f.seed(t, model.VisualARoll, model.VisualBRoll)
	pid := view.Project.ID
	for i := 0; i < 2; i++ {
		_, err := f.orch.FindAndProcessNextScene(ctx, pid)
		require.NoError(t, err)
	}

	cloud := &fakeStitcher{}
	svc := NewStitchService(f.store, nil, cloud, nil, StitchSettings{FPS: 30, TransitionFrames: 24}, nil)

	res, err := svc.Stitch(ctx, pid, model.StitchOptions{UseCloudRender: true, UseFadeTransition: true})
	require.NoError(t, err)
	assert.Equal(t, model.StitchModeCloud, res.Mode)
	assert.Equal(t, "r-1", res.RenderID)
	assert.Equal(t, "bucket-1", res.BucketName)

	require.NotNil(t, cloud.comp)
	assert.Equal(t, "CloudSceneAssembly", cloud.comp.CompositionID)
	assert.Equal(t, 120, cloud.comp.InputProps.Scenes[0].DurationInFrames)
	assert.Equal(t, 24, cloud.comp.InputProps.TransitionDurationInFrames)
	assert.Equal(t, model.AspectLandscape, cloud.comp.InputProps.AspectRatio)
	assert.Empty(t, cloud.comp.InputProps.LightLeakURL)
	assert.True(t, cloud.comp.InputProps.UseFadeTransition)

	status, err := svc.CloudStatus(ctx, pid, "r-1", "bucket-1")
	require.NoError(t, err)
	assert.Equal(t, 0.4, status.Progress)
}

type fakeQueue struct {
	tasks []*asynq.Task
}

func (q *fakeQueue) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	q.tasks = append(q.tasks, task)
	return &asynq.TaskInfo{ID: fmt.Sprintf("task-%d", len(q.tasks)), Queue: QueueProduction}, nil
}

func TestProductionStartAndSweep(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	queue := &fakeQueue{}
	prod := NewProductionService(f.store, f.orch, queue, 30*time.Minute)

	view := f.seed(t, model.VisualBRoll, model.VisualBRoll)
	pid := view.Project.ID

	resp, err := prod.Start(ctx, pid)
	require.NoError(t, err)
	assert.Equal(t, "task-1", resp.TaskID)
	assert.Equal(t, model.WorkflowRunning, resp.WorkflowStatus)
	require.Len(t, queue.tasks, 1)
	assert.Equal(t, TaskTypeAdvance, queue.tasks[0].Type())
	assert.JSONEq(t, fmt.Sprintf(`{"projectId":%q}`, pid), string(queue.tasks[0].Payload()))

	queued, err := prod.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, queued)

	for i := 0; i < 2; i++ {
		_, err := prod.Step(ctx, pid)
		require.NoError(t, err)
	}
	queued, err = prod.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, queued, "completed projects are not queued")

	resp, err = prod.Start(ctx, pid)
	require.NoError(t, err)
	assert.Empty(t, resp.TaskID)
	assert.Equal(t, model.WorkflowCompleted, resp.WorkflowStatus)

	_, err = prod.Start(ctx, "missing")
	assert.True(t, apperr.IsNotFound(err))
}

func TestProjectInitAndSceneEdit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	view, err := f.projects.Init(ctx, &model.InitProjectRequest{
		Title:       "Explainer",
		Script:      "We build videos. Every scene is generated. Then they are stitched together into one cut.",
		VisualTypes: []model.VisualType{model.VisualARoll, model.VisualBRoll},
		AspectRatio: model.AspectPortrait,
	})
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(view.Scenes), 2)
	assert.Equal(t, model.AspectPortrait, view.Project.AspectRatio)
	assert.Equal(t, model.WorkflowIdle, view.Memory.WorkflowStatus)
	assert.Equal(t, len(view.Scenes), view.Memory.TotalScenes)
	require.NoError(t, storyboard.Validate(view.Scenes))

	first := view.Scenes[0]
	newEnd := first.EndTime + 0.5
	updated, err := f.projects.UpdateScene(ctx, view.Project.ID, first.ID, &model.UpdateSceneRequest{
		EndTime: &newEnd,
		Script:  model.Ptr("We build videos fast."),
	})
	require.NoError(t, err)
	assert.Equal(t, newEnd, updated.EndTime)
	assert.Equal(t, "We build videos fast.", updated.Script)

	second, err := f.store.GetScene(ctx, view.Scenes[1].ID)
	require.NoError(t, err)
	assert.Equal(t, newEnd, second.StartTime)

	tooFar := view.Scenes[1].EndTime + 1
	_, err = f.projects.UpdateScene(ctx, view.Project.ID, first.ID, &model.UpdateSceneRequest{EndTime: &tooFar})
	assert.True(t, apperr.IsValidation(err))
}
