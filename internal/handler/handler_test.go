package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BillMorio/Video-Agent-sub002/internal/client"
	"github.com/BillMorio/Video-Agent-sub002/internal/middleware"
	"github.com/BillMorio/Video-Agent-sub002/internal/model"
	"github.com/BillMorio/Video-Agent-sub002/internal/provider"
	"github.com/BillMorio/Video-Agent-sub002/internal/service"
	"github.com/BillMorio/Video-Agent-sub002/internal/store"
	"github.com/BillMorio/Video-Agent-sub002/internal/storyboard"
)

const testJWTSecret = "test-secret-for-handlers"

type staticAdapter struct{}

func (staticAdapter) Generate(ctx context.Context, scene *model.Scene, pc *model.ProductionContext) (*provider.Result, error) {
	return &provider.Result{AssetURL: fmt.Sprintf("https://cdn/scene-%d.mp4", scene.Index)}, nil
}

type stitchRenderer struct {
	client.MediaRenderer
}

func (stitchRenderer) Stitch(ctx context.Context, req *client.StitchRequest) (*client.StitchResponse, error) {
	return &client.StitchResponse{PublicURL: "https://render/master.mp4"}, nil
}

type memoryQueue struct{ n int }

func (q *memoryQueue) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	q.n++
	return &asynq.TaskInfo{ID: fmt.Sprintf("task-%d", q.n), Queue: service.QueueProduction}, nil
}

type testApp struct {
	app  *fiber.App
	auth *middleware.AuthMiddleware
}

// setupApp builds the API the way cmd/server does, over an in-memory store
// and fake providers
func setupApp(t *testing.T) *testApp {
	t.Helper()

	st, err := store.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	registry := provider.NewRegistry()
	for _, vt := range model.ValidVisualTypes {
		registry.Register(vt, staticAdapter{})
	}

	validate := validator.New()
	segmenter := storyboard.NewSegmenter(storyboard.DefaultBounds(), nil)

	orchestrator := service.NewOrchestratorService(st, registry, nil)
	projects := service.NewProjectService(st, segmenter, service.ProjectDefaults{})
	production := service.NewProductionService(st, orchestrator, &memoryQueue{}, time.Hour)
	stitch := service.NewStitchService(st, stitchRenderer{}, nil, nil, service.StitchSettings{}, nil)

	handlers := &Handlers{
		Project:    NewProjectHandler(projects, orchestrator, validate),
		Production: NewProductionHandler(production, orchestrator, projects),
		Stitch:     NewStitchHandler(stitch, validate),
		Storyboard: NewStoryboardHandler(projects, validate),
	}

	auth := middleware.NewAuthMiddleware(testJWTSecret, time.Hour)
	app := fiber.New()
	handlers.Mount(app.Group("/api", auth.Authenticate()), Limits{})

	return &testApp{app: app, auth: auth}
}

func (ta *testApp) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	token, err := ta.auth.GenerateToken("test-user-123", "test@example.com")
	require.NoError(t, err)
	resp, err := doRequest(ta.app, method, path, body, map[string]string{"Authorization": "Bearer " + token})
	require.NoError(t, err)
	return resp
}

func doRequest(app *fiber.App, method, path string, body string, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, path, bodyReader)
	if err != nil {
		return nil, err
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return app.Test(req, -1)
}

func parseJSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var result map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &result), "body: %s", b)
	return result
}

func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	assert.Equal(t, expected, resp.StatusCode)
}

const storyboardBody = `{
	"title": "Launch",
	"scenes": [
		{"script": "Meet the team.", "duration": 4, "visualType": "a-roll"},
		{"script": "Our factory floor.", "duration": 5, "visualType": "b-roll", "visualPayload": {"searchQuery": "factory"}},
		{"script": "Growth in numbers.", "duration": 3, "visualType": "graphics"}
	]
}`

// createProject posts the storyboard fixture and returns the project id
// and scene ids in order
func createProject(t *testing.T, ta *testApp) (string, []string) {
	t.Helper()
	resp := ta.do(t, http.MethodPost, "/api/projects/from-storyboard", storyboardBody)
	assertStatus(t, resp, http.StatusCreated)

	var view model.ProjectView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	var ids []string
	for _, sc := range view.Scenes {
		ids = append(ids, sc.ID)
	}
	return view.Project.ID, ids
}

func TestNoAuth(t *testing.T) {
	ta := setupApp(t)
	resp, err := doRequest(ta.app, http.MethodGet, "/api/projects", "", nil)
	require.NoError(t, err)
	assertStatus(t, resp, http.StatusUnauthorized)
}

func TestProjectInit(t *testing.T) {
	ta := setupApp(t)

	resp := ta.do(t, http.MethodPost, "/api/projects/init", `{
		"title": "Explainer",
		"script": "We make videos. Each scene is generated by a provider. The cut is stitched at the end.",
		"visualTypes": ["a-roll", "b-roll"]
	}`)
	assertStatus(t, resp, http.StatusCreated)
	result := parseJSON(t, resp)

	scenes := result["scenes"].([]interface{})
	assert.GreaterOrEqual(t, len(scenes), 2)
	first := scenes[0].(map[string]interface{})
	assert.EqualValues(t, 0, first["startTime"])
	assert.Equal(t, "todo", first["status"])

	memory := result["memory"].(map[string]interface{})
	assert.Equal(t, "idle", memory["workflowStatus"])
	assert.EqualValues(t, len(scenes), memory["totalScenes"])
}

func TestProjectInitValidation(t *testing.T) {
	ta := setupApp(t)

	resp := ta.do(t, http.MethodPost, "/api/projects/init", `{"title": "No script", "visualTypes": ["video"]}`)
	assertStatus(t, resp, http.StatusBadRequest)
	result := parseJSON(t, resp)
	assert.Equal(t, "VALIDATION_ERROR", result["code"])
	details := result["details"].(map[string]interface{})
	assert.Equal(t, "required", details["Script"])

	resp = ta.do(t, http.MethodPost, "/api/projects/init", `{not json`)
	assertStatus(t, resp, http.StatusBadRequest)
}

func TestProjectNotFound(t *testing.T) {
	ta := setupApp(t)

	resp := ta.do(t, http.MethodGet, "/api/projects/does-not-exist", "")
	assertStatus(t, resp, http.StatusNotFound)
	result := parseJSON(t, resp)
	assert.Equal(t, "NOT_FOUND", result["code"])
	assert.Contains(t, result["error"], "does-not-exist")
}

func TestProductionFlow(t *testing.T) {
	ta := setupApp(t)
	pid, sceneIDs := createProject(t, ta)

	resp := ta.do(t, http.MethodPost, "/api/projects/"+pid+"/production/start", "")
	assertStatus(t, resp, http.StatusAccepted)
	started := parseJSON(t, resp)
	assert.Equal(t, "task-1", started["taskId"])
	assert.Equal(t, "running", started["workflowStatus"])

	for i := 1; i <= 3; i++ {
		resp = ta.do(t, http.MethodPost, "/api/projects/"+pid+"/production/next", "")
		assertStatus(t, resp, http.StatusOK)
		step := parseJSON(t, resp)
		assert.Equal(t, "completed", step["outcome"])
		assert.EqualValues(t, i, step["sceneIndex"])
	}

	resp = ta.do(t, http.MethodPost, "/api/projects/"+pid+"/production/next", "")
	assertStatus(t, resp, http.StatusOK)
	assert.Equal(t, "idle", parseJSON(t, resp)["outcome"])

	resp = ta.do(t, http.MethodGet, "/api/projects/"+pid+"/production", "")
	assertStatus(t, resp, http.StatusOK)
	status := parseJSON(t, resp)
	memory := status["memory"].(map[string]interface{})
	assert.Equal(t, "completed", memory["workflowStatus"])
	assert.EqualValues(t, 3, memory["completedCount"])

	resp = ta.do(t, http.MethodPost, "/api/projects/"+pid+"/scenes/"+sceneIDs[0]+"/reprocess", "")
	assertStatus(t, resp, http.StatusConflict)
	assert.Equal(t, "ILLEGAL_TRANSITION", parseJSON(t, resp)["code"])

	resp = ta.do(t, http.MethodPost, "/api/projects/"+pid+"/stitch", `{"useLightLeak": true}`)
	assertStatus(t, resp, http.StatusOK)
	stitched := parseJSON(t, resp)
	assert.Equal(t, "https://render/master.mp4", stitched["publicUrl"])
	assert.EqualValues(t, 3, stitched["sceneCount"])

	resp = ta.do(t, http.MethodPost, "/api/projects/"+pid+"/production/reset", "")
	assertStatus(t, resp, http.StatusOK)
	reset := parseJSON(t, resp)
	assert.Equal(t, "idle", reset["workflowStatus"])
	assert.EqualValues(t, 0, reset["completedCount"])
}

func TestStitchNeedsTwoScenes(t *testing.T) {
	ta := setupApp(t)
	pid, _ := createProject(t, ta)

	resp := ta.do(t, http.MethodPost, "/api/projects/"+pid+"/production/next", "")
	assertStatus(t, resp, http.StatusOK)

	resp = ta.do(t, http.MethodPost, "/api/projects/"+pid+"/stitch", "")
	assertStatus(t, resp, http.StatusBadRequest)
	result := parseJSON(t, resp)
	assert.Equal(t, "VALIDATION_ERROR", result["code"])
	details := result["details"].(map[string]interface{})
	assert.EqualValues(t, 1, details["found"])
	assert.EqualValues(t, 3, details["total"])

	resp = ta.do(t, http.MethodPost, "/api/projects/"+pid+"/stitch", `{"useCloudRender": true}`)
	assertStatus(t, resp, http.StatusBadRequest)
}

func TestUpdateScene(t *testing.T) {
	ta := setupApp(t)
	pid, sceneIDs := createProject(t, ta)

	resp := ta.do(t, http.MethodPatch, "/api/projects/"+pid+"/scenes/"+sceneIDs[0], `{"endTime": 4.5, "directorNote": "slower"}`)
	assertStatus(t, resp, http.StatusOK)
	scene := parseJSON(t, resp)
	assert.EqualValues(t, 4.5, scene["endTime"])

	resp = ta.do(t, http.MethodGet, "/api/projects/"+pid, "")
	assertStatus(t, resp, http.StatusOK)
	scenes := parseJSON(t, resp)["scenes"].([]interface{})
	assert.EqualValues(t, 4.5, scenes[1].(map[string]interface{})["startTime"])

	resp = ta.do(t, http.MethodPatch, "/api/projects/"+pid+"/scenes/"+sceneIDs[0], `{"endTime": 20}`)
	assertStatus(t, resp, http.StatusBadRequest)

	resp = ta.do(t, http.MethodPost, "/api/projects/"+pid+"/scenes/"+sceneIDs[1]+"/resolve", `{"visualPayload": {"searchQuery": "assembly line"}}`)
	assertStatus(t, resp, http.StatusBadRequest)
}

func TestStoryboardSnapPreview(t *testing.T) {
	ta := setupApp(t)

	resp := ta.do(t, http.MethodPost, "/api/storyboard/snap", `{
		"scenes": [
			{"id": "a", "index": 1, "startTime": 0, "endTime": 10.2, "duration": 10.2, "visualType": "b-roll"},
			{"id": "b", "index": 2, "startTime": 10.2, "endTime": 15, "duration": 4.8, "visualType": "b-roll"}
		],
		"words": [
			{"word": "end", "start": 9.8, "end": 10.2},
			{"word": "next", "start": 10.6, "end": 11}
		]
	}`)
	assertStatus(t, resp, http.StatusOK)
	result := parseJSON(t, resp)
	assert.Equal(t, true, result["snapped"])
	scenes := result["scenes"].([]interface{})
	assert.EqualValues(t, 10.4, scenes[0].(map[string]interface{})["endTime"])
	assert.EqualValues(t, 10.4, scenes[1].(map[string]interface{})["startTime"])
}
