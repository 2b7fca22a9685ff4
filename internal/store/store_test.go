package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BillMorio/Video-Agent-sub002/internal/apperr"
	"github.com/BillMorio/Video-Agent-sub002/internal/model"
)

func newSQLiteStore(t *testing.T) Store {
	t.Helper()
	s, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// newRedisStore uses DB 15 on REDIS_ADDR (default localhost:6379) and skips
// when Redis is not reachable.
func newRedisStore(t *testing.T) Store {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("redis not available at %s: %v", addr, err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client)
}

func seedProject(t *testing.T, s Store, statuses ...model.SceneStatus) (*model.Project, []model.Scene) {
	t.Helper()
	project := &model.Project{
		ID:          uuid.New().String(),
		Title:       "Launch teaser",
		AspectRatio: model.AspectLandscape,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	scenes := make([]model.Scene, len(statuses))
	start := 0.0
	for i, status := range statuses {
		scenes[i] = model.Scene{
			ID:         uuid.New().String(),
			ProjectID:  project.ID,
			Index:      i + 1,
			StartTime:  start,
			EndTime:    start + 4,
			Duration:   4,
			Script:     fmt.Sprintf("line %d", i+1),
			VisualType: model.VisualBRoll,
			Payload:    model.VisualPayload{SearchQuery: "city skyline"},
			Status:     status,
		}
		start += 4
	}
	memory := &model.ProjectMemory{
		WorkflowStatus: model.WorkflowIdle,
		TotalScenes:    len(scenes),
		Metadata:       model.MemoryMetadata{LightLeakOverlayURL: "https://cdn.example.com/leak.mp4"},
	}
	require.NoError(t, s.CreateProject(context.Background(), project, scenes, memory))
	return project, scenes
}

func runStoreSuite(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("create and read back", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		project, scenes := seedProject(t, s, model.SceneTodo, model.SceneTodo, model.SceneTodo)

		got, err := s.GetProject(ctx, project.ID)
		require.NoError(t, err)
		assert.Equal(t, project.Title, got.Title)

		listed, err := s.ListScenes(ctx, project.ID)
		require.NoError(t, err)
		require.Len(t, listed, 3)
		for i, scene := range listed {
			assert.Equal(t, i+1, scene.Index)
			assert.Equal(t, scenes[i].ID, scene.ID)
			assert.Equal(t, int64(1), scene.Version)
		}

		mem, err := s.GetMemory(ctx, project.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, mem.TotalScenes)
		assert.Equal(t, "https://cdn.example.com/leak.mp4", mem.Metadata.LightLeakOverlayURL)
	})

	t.Run("missing records are not found", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		_, err := s.GetProject(ctx, "nope")
		assert.True(t, apperr.IsNotFound(err))
		_, err = s.GetScene(ctx, "nope")
		assert.True(t, apperr.IsNotFound(err))
		_, err = s.GetMemory(ctx, "nope")
		assert.True(t, apperr.IsNotFound(err))
	})

	t.Run("claim is conditional", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		_, scenes := seedProject(t, s, model.SceneTodo, model.SceneTodo)

		claimed, err := s.ClaimScene(ctx, scenes[0].ID, model.SceneTodo)
		require.NoError(t, err)
		assert.Equal(t, model.SceneProcessing, claimed.Status)
		assert.Equal(t, int64(2), claimed.Version)

		_, err = s.ClaimScene(ctx, scenes[0].ID, model.SceneTodo)
		assert.ErrorIs(t, err, ErrClaimLost)
	})

	t.Run("finish needs the claim to hold", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		project, scenes := seedProject(t, s, model.SceneTodo, model.SceneTodo)
		done := model.SceneUpdate{
			Status:   model.Ptr(model.SceneCompleted),
			AssetURL: model.Ptr("https://cdn.example.com/late.mp4"),
		}

		claimed, err := s.ClaimScene(ctx, scenes[0].ID, model.SceneTodo)
		require.NoError(t, err)
		finished, err := s.FinishScene(ctx, scenes[0].ID, claimed.Version, done)
		require.NoError(t, err)
		assert.Equal(t, model.SceneCompleted, finished.Status)
		assert.Equal(t, "https://cdn.example.com/late.mp4", finished.AssetURL)

		// a reset between claim and finish wins
		claimed, err = s.ClaimScene(ctx, scenes[1].ID, model.SceneTodo)
		require.NoError(t, err)
		require.NoError(t, s.ResetProject(ctx, project.ID))
		_, err = s.FinishScene(ctx, scenes[1].ID, claimed.Version, done)
		assert.ErrorIs(t, err, ErrClaimLost)

		// so does a newer claim of the same scene
		stale := claimed.Version
		_, err = s.ClaimScene(ctx, scenes[1].ID, model.SceneTodo)
		require.NoError(t, err)
		_, err = s.FinishScene(ctx, scenes[1].ID, stale, done)
		assert.ErrorIs(t, err, ErrClaimLost)

		got, err := s.GetScene(ctx, scenes[1].ID)
		require.NoError(t, err)
		assert.Equal(t, model.SceneProcessing, got.Status)
		assert.Empty(t, got.AssetURL)
	})

	t.Run("concurrent claims have one winner", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		_, scenes := seedProject(t, s, model.SceneTodo)

		const workers = 8
		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			wins int
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.ClaimScene(ctx, scenes[0].ID, model.SceneTodo)
				if err == nil {
					mu.Lock()
					wins++
					mu.Unlock()
					return
				}
				assert.True(t, errors.Is(err, ErrClaimLost), "unexpected error: %v", err)
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, wins)
	})

	t.Run("partial updates", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		project, scenes := seedProject(t, s, model.SceneProcessing)

		updated, err := s.UpdateScene(ctx, scenes[0].ID, model.SceneUpdate{
			Status:   model.Ptr(model.SceneCompleted),
			AssetURL: model.Ptr("https://cdn.example.com/clip.mp4"),
		})
		require.NoError(t, err)
		assert.Equal(t, model.SceneCompleted, updated.Status)
		assert.Equal(t, "line 1", updated.Script)

		mem, err := s.UpdateMemory(ctx, project.ID, model.MemoryUpdate{
			CompletedCount: model.Ptr(1),
			AppendLog:      "Scene 1 completed",
		})
		require.NoError(t, err)
		assert.Equal(t, 1, mem.CompletedCount)
		assert.Equal(t, "Scene 1 completed", mem.LastLog)
		assert.Equal(t, int64(2), mem.Version)
	})

	t.Run("reset is complete", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		project, scenes := seedProject(t, s, model.SceneCompleted, model.SceneFailed, model.SceneAwaitingInput, model.SceneProcessing)
		_, err := s.UpdateScene(ctx, scenes[0].ID, model.SceneUpdate{AssetURL: model.Ptr("https://cdn.example.com/a.mp4")})
		require.NoError(t, err)
		_, err = s.UpdateMemory(ctx, project.ID, model.MemoryUpdate{
			WorkflowStatus: model.Ptr(model.WorkflowError),
			CompletedCount: model.Ptr(1),
			FailedCount:    model.Ptr(1),
		})
		require.NoError(t, err)

		require.NoError(t, s.ResetProject(ctx, project.ID))

		listed, err := s.ListScenes(ctx, project.ID)
		require.NoError(t, err)
		for _, scene := range listed {
			assert.Equal(t, model.SceneTodo, scene.Status)
			assert.Empty(t, scene.AssetURL)
		}
		mem, err := s.GetMemory(ctx, project.ID)
		require.NoError(t, err)
		assert.Equal(t, model.WorkflowIdle, mem.WorkflowStatus)
		assert.Zero(t, mem.CompletedCount)
		assert.Zero(t, mem.FailedCount)
		assert.Equal(t, 4, mem.TotalScenes)
		assert.Equal(t, "https://cdn.example.com/leak.mp4", mem.Metadata.LightLeakOverlayURL)
	})

	t.Run("list by workflow status", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		running, _ := seedProject(t, s, model.SceneTodo)
		seedProject(t, s, model.SceneTodo)
		_, err := s.UpdateMemory(ctx, running.ID, model.MemoryUpdate{WorkflowStatus: model.Ptr(model.WorkflowRunning)})
		require.NoError(t, err)

		ids, err := s.ListProjectIDsByStatus(ctx, model.WorkflowRunning)
		require.NoError(t, err)
		assert.Contains(t, ids, running.ID)
	})

	t.Run("delete removes everything", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		project, scenes := seedProject(t, s, model.SceneTodo, model.SceneTodo)

		require.NoError(t, s.DeleteProject(ctx, project.ID))
		_, err := s.GetProject(ctx, project.ID)
		assert.True(t, apperr.IsNotFound(err))
		_, err = s.GetScene(ctx, scenes[0].ID)
		assert.True(t, apperr.IsNotFound(err))
		assert.True(t, apperr.IsNotFound(s.DeleteProject(ctx, project.ID)))
	})
}

func TestSQLiteStore(t *testing.T) {
	runStoreSuite(t, newSQLiteStore)
}

func TestRedisStore(t *testing.T) {
	runStoreSuite(t, newRedisStore)
}

func TestSQLiteReclaimStale(t *testing.T) {
	s, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	past := time.Now().UTC().Add(-time.Hour)
	s.now = func() time.Time { return past }
	project, scenes := seedProject(t, s, model.SceneTodo, model.SceneTodo)
	_, err = s.ClaimScene(ctx, scenes[0].ID, model.SceneTodo)
	require.NoError(t, err)

	s.now = func() time.Time { return time.Now().UTC() }
	ids, err := s.ReclaimStale(ctx, time.Now().UTC().Add(-30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, []string{project.ID}, ids)

	scene, err := s.GetScene(ctx, scenes[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.SceneFailed, scene.Status)
	assert.Equal(t, interruptedError, scene.LastError)

	untouched, err := s.GetScene(ctx, scenes[1].ID)
	require.NoError(t, err)
	assert.Equal(t, model.SceneTodo, untouched.Status)
}
