package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BillMorio/Video-Agent-sub002/internal/model"
	"github.com/BillMorio/Video-Agent-sub002/pkg/response"
)

func execute(t *testing.T, server string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--server", server, "--token", "secret"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func testScenes() []model.Scene {
	return []model.Scene{
		{Index: 0, VisualType: model.VisualARoll, StartTime: 0, EndTime: 4, Duration: 4, Status: model.SceneCompleted, AssetURL: "https://cdn.test/0.mp4"},
		{Index: 1, VisualType: model.VisualBRoll, StartTime: 4, EndTime: 9.5, Duration: 5.5, Status: model.SceneFailed, LastError: "pexels: no results"},
		{Index: 2, VisualType: model.VisualGraphics, StartTime: 9.5, EndTime: 14, Duration: 4.5, Status: model.SceneTodo, Script: "closing words"},
	}
}

func TestScenesCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "/api/projects/p1", r.URL.Path)
		writeJSON(w, http.StatusOK, model.ProjectView{
			Project: &model.Project{ID: "p1", Title: "Demo"},
			Memory:  &model.ProjectMemory{ProjectID: "p1", WorkflowStatus: model.WorkflowRunning, TotalScenes: 3, CompletedCount: 1, FailedCount: 1},
			Scenes:  testScenes(),
		})
	}))
	defer srv.Close()

	out, err := execute(t, srv.URL, "scenes", "p1")
	require.NoError(t, err)

	assert.Contains(t, out, "https://cdn.test/0.mp4")
	assert.Contains(t, out, "pexels: no results")
	assert.Contains(t, out, "closing words")
	assert.Contains(t, out, "9.50")
	assert.Contains(t, out, "1/3 completed, 1 failed")
}

func TestErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, response.ErrorResponse{
			Error:   "illegal transition",
			Code:    response.CodeConflict,
			Details: map[string]string{"from": "completed", "to": "todo"},
		})
	}))
	defer srv.Close()

	_, err := execute(t, srv.URL, "reset", "p1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "illegal transition")
	assert.Contains(t, err.Error(), "409 ILLEGAL_TRANSITION")
	assert.Contains(t, err.Error(), `"from":"completed"`)
}

func TestRunCommandStopsWhenNothingPending(t *testing.T) {
	var (
		mu    sync.Mutex
		calls int
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/projects/p1/production/next", r.URL.Path)

		mu.Lock()
		calls++
		n := calls
		mu.Unlock()

		res := model.StepResult{ProjectID: "p1", Outcome: model.StepCompleted, SceneIndex: n - 1, AssetURL: "https://cdn.test/x.mp4"}
		switch n {
		case 1:
			res.Pending = 2
		case 2:
			res.Outcome = model.StepFailed
			res.Error = "timed out"
			res.Pending = 1
		default:
			res.WorkflowStatus = model.WorkflowError
			res.Tally = model.Tally{Total: 3, Completed: 2, Failed: 1}
		}
		writeJSON(w, http.StatusOK, res)
	}))
	defer srv.Close()

	out, err := execute(t, srv.URL, "run", "p1")
	require.NoError(t, err)

	assert.Equal(t, 3, calls)
	assert.Contains(t, out, "scene 0 completed")
	assert.Contains(t, out, "scene 1 failed: timed out")
	assert.Contains(t, out, "done: 2 completed, 1 failed of 3")
}

func TestInitCommand(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "script.txt")
	require.NoError(t, os.WriteFile(script, []byte("Hello there. This is a demo."), 0o644))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req model.InitProjectRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Demo", req.Title)
		assert.Equal(t, "Hello there. This is a demo.", req.Script)
		assert.Equal(t, []model.VisualType{model.VisualARoll, model.VisualBRoll}, req.VisualTypes)

		writeJSON(w, http.StatusCreated, model.ProjectView{
			Project: &model.Project{ID: "p9", Title: req.Title},
			Scenes:  testScenes()[:1],
		})
	}))
	defer srv.Close()

	out, err := execute(t, srv.URL, "init", "--title", "Demo", "--script-file", script, "--visual-types", "a-roll,b-roll")
	require.NoError(t, err)
	assert.Contains(t, out, "Project p9 (Demo)")
}

func TestStitchCommandCloud(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var opts model.StitchOptions
		require.NoError(t, json.NewDecoder(r.Body).Decode(&opts))
		assert.True(t, opts.UseCloudRender)
		assert.True(t, opts.UseFadeTransition)

		writeJSON(w, http.StatusAccepted, model.StitchResult{
			Mode:        model.StitchModeCloud,
			RenderID:    "r-1",
			BucketName:  "renders",
			SceneCount:  2,
			TotalScenes: 3,
		})
	}))
	defer srv.Close()

	out, err := execute(t, srv.URL, "stitch", "p1", "--cloud", "--fade")
	require.NoError(t, err)
	assert.Equal(t, "cloud render r-1 queued in renders (2 of 3 scenes)\n", out)
}

func TestSegmentCommandOffline(t *testing.T) {
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader("One two three four five six seven eight nine ten. Eleven twelve."))
	cmd.SetArgs([]string{"segment", "--visual-types", "a-roll"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "a-roll")
	assert.Contains(t, out.String(), "0 boundaries snapped")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
