package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/BillMorio/Video-Agent-sub002/internal/apperr"
	"github.com/BillMorio/Video-Agent-sub002/internal/model"
)

// maxTxAttempts bounds optimistic-lock retries for plain updates
const maxTxAttempts = 5

// RedisStore implements Store on Redis. Records are JSON strings; writes
// that must be atomic use WATCH/MULTI.
//
//	project:<id>          project JSON
//	project:<id>:scenes   list of scene IDs in index order
//	scene:<id>            scene JSON
//	memory:<id>           memory JSON
//	projects              sorted set of project IDs by creation time
type RedisStore struct {
	redis *redis.Client
	now   func() time.Time
}

// NewRedisStore wraps an existing client.
func NewRedisStore(redisClient *redis.Client) *RedisStore {
	return &RedisStore{
		redis: redisClient,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

const projectsIndexKey = "projects"

func projectKey(id string) string {
	return fmt.Sprintf("project:%s", id)
}

func projectScenesKey(id string) string {
	return fmt.Sprintf("project:%s:scenes", id)
}

func sceneKey(id string) string {
	return fmt.Sprintf("scene:%s", id)
}

func memoryKey(id string) string {
	return fmt.Sprintf("memory:%s", id)
}

// getter is satisfied by *redis.Client and *redis.Tx
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// Close is a no-op; the client is owned by the caller.
func (s *RedisStore) Close() error { return nil }

// CreateProject writes the project, scenes and memory in one MULTI.
func (s *RedisStore) CreateProject(ctx context.Context, project *model.Project, scenes []model.Scene, memory *model.ProjectMemory) error {
	now := s.now()

	projectJSON, err := json.Marshal(project)
	if err != nil {
		return fmt.Errorf("marshal project: %w", err)
	}
	mem := *memory
	mem.ProjectID = project.ID
	if mem.Version == 0 {
		mem.Version = 1
	}
	mem.UpdatedAt = now
	memJSON, err := json.Marshal(mem)
	if err != nil {
		return fmt.Errorf("marshal memory: %w", err)
	}

	sceneIDs := make([]interface{}, 0, len(scenes))
	sceneData := make(map[string][]byte, len(scenes))
	for i := range scenes {
		scene := scenes[i]
		scene.ProjectID = project.ID
		if scene.Version == 0 {
			scene.Version = 1
		}
		scene.UpdatedAt = now
		data, err := json.Marshal(scene)
		if err != nil {
			return fmt.Errorf("marshal scene %d: %w", scene.Index, err)
		}
		sceneIDs = append(sceneIDs, scene.ID)
		sceneData[scene.ID] = data
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, projectKey(project.ID), projectJSON, 0)
		pipe.Del(ctx, projectScenesKey(project.ID))
		if len(sceneIDs) > 0 {
			pipe.RPush(ctx, projectScenesKey(project.ID), sceneIDs...)
		}
		for id, data := range sceneData {
			pipe.Set(ctx, sceneKey(id), data, 0)
		}
		pipe.Set(ctx, memoryKey(project.ID), memJSON, 0)
		pipe.ZAdd(ctx, projectsIndexKey, redis.Z{Score: float64(project.CreatedAt.UnixNano()), Member: project.ID})
		return nil
	})
	if err != nil {
		return apperr.Persistence("create project", err)
	}
	return nil
}

// GetProject fetches a project by ID.
func (s *RedisStore) GetProject(ctx context.Context, projectID string) (*model.Project, error) {
	var project model.Project
	if err := s.getJSON(ctx, projectKey(projectID), &project); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperr.NotFound("project", projectID)
		}
		return nil, apperr.Persistence("get project", err)
	}
	return &project, nil
}

// ListProjects returns all projects, newest first.
func (s *RedisStore) ListProjects(ctx context.Context) ([]model.Project, error) {
	ids, err := s.redis.ZRevRange(ctx, projectsIndexKey, 0, -1).Result()
	if err != nil {
		return nil, apperr.Persistence("list projects", err)
	}
	projects := make([]model.Project, 0, len(ids))
	for _, id := range ids {
		project, err := s.GetProject(ctx, id)
		if apperr.IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		projects = append(projects, *project)
	}
	return projects, nil
}

// DeleteProject removes a project with its scenes and memory.
func (s *RedisStore) DeleteProject(ctx context.Context, projectID string) error {
	if _, err := s.GetProject(ctx, projectID); err != nil {
		return err
	}
	ids, err := s.redis.LRange(ctx, projectScenesKey(projectID), 0, -1).Result()
	if err != nil {
		return apperr.Persistence("delete project", err)
	}
	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range ids {
			pipe.Del(ctx, sceneKey(id))
		}
		pipe.Del(ctx, projectScenesKey(projectID), memoryKey(projectID), projectKey(projectID))
		pipe.ZRem(ctx, projectsIndexKey, projectID)
		return nil
	})
	if err != nil {
		return apperr.Persistence("delete project", err)
	}
	return nil
}

// ListScenes returns the project's scenes ordered by index.
func (s *RedisStore) ListScenes(ctx context.Context, projectID string) ([]model.Scene, error) {
	ids, err := s.redis.LRange(ctx, projectScenesKey(projectID), 0, -1).Result()
	if err != nil {
		return nil, apperr.Persistence("list scenes", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = sceneKey(id)
	}
	values, err := s.redis.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, apperr.Persistence("list scenes", err)
	}
	scenes := make([]model.Scene, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			return nil, apperr.Persistence("list scenes", fmt.Errorf("scene %s missing", ids[i]))
		}
		var scene model.Scene
		if err := json.Unmarshal([]byte(raw), &scene); err != nil {
			return nil, apperr.Persistence("decode scene", err)
		}
		scenes = append(scenes, scene)
	}
	return scenes, nil
}

// GetScene fetches a scene by ID.
func (s *RedisStore) GetScene(ctx context.Context, sceneID string) (*model.Scene, error) {
	return s.getScene(ctx, s.redis, sceneID)
}

// UpdateScene applies a partial update with optimistic locking.
func (s *RedisStore) UpdateScene(ctx context.Context, sceneID string, upd model.SceneUpdate) (*model.Scene, error) {
	var updated *model.Scene
	err := s.retryWatch(ctx, func(tx *redis.Tx) error {
		scene, err := s.getScene(ctx, tx, sceneID)
		if err != nil {
			return err
		}
		upd.Apply(scene)
		scene.Version++
		scene.UpdatedAt = s.now()
		if err := s.putScene(ctx, tx, scene); err != nil {
			return err
		}
		updated = scene
		return nil
	}, sceneKey(sceneID))
	if err != nil {
		return nil, apperr.Persistence("update scene", err)
	}
	return updated, nil
}

// ClaimScene moves a scene from expected to processing. A concurrent write
// to the scene between WATCH and EXEC makes the claim fail.
func (s *RedisStore) ClaimScene(ctx context.Context, sceneID string, expected model.SceneStatus) (*model.Scene, error) {
	var claimed *model.Scene
	err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
		scene, err := s.getScene(ctx, tx, sceneID)
		if err != nil {
			return err
		}
		if scene.Status != expected {
			return ErrClaimLost
		}
		claimScene(scene, s.now())
		if err := s.putScene(ctx, tx, scene); err != nil {
			return err
		}
		claimed = scene
		return nil
	}, sceneKey(sceneID))
	if errors.Is(err, redis.TxFailedErr) {
		return nil, ErrClaimLost
	}
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// FinishScene writes the outcome of a claim. The claim must still hold when
// the transaction executes.
func (s *RedisStore) FinishScene(ctx context.Context, sceneID string, claimVersion int64, upd model.SceneUpdate) (*model.Scene, error) {
	var finished *model.Scene
	err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
		scene, err := s.getScene(ctx, tx, sceneID)
		if err != nil {
			return err
		}
		if !claimHeld(scene, claimVersion) {
			return ErrClaimLost
		}
		upd.Apply(scene)
		scene.Version++
		scene.UpdatedAt = s.now()
		if err := s.putScene(ctx, tx, scene); err != nil {
			return err
		}
		finished = scene
		return nil
	}, sceneKey(sceneID))
	if errors.Is(err, redis.TxFailedErr) {
		return nil, ErrClaimLost
	}
	if err != nil {
		return nil, err
	}
	return finished, nil
}

// GetMemory fetches the project's memory.
func (s *RedisStore) GetMemory(ctx context.Context, projectID string) (*model.ProjectMemory, error) {
	return s.getMemory(ctx, s.redis, projectID)
}

// UpdateMemory applies a partial update with optimistic locking.
func (s *RedisStore) UpdateMemory(ctx context.Context, projectID string, upd model.MemoryUpdate) (*model.ProjectMemory, error) {
	var updated *model.ProjectMemory
	err := s.retryWatch(ctx, func(tx *redis.Tx) error {
		mem, err := s.getMemory(ctx, tx, projectID)
		if err != nil {
			return err
		}
		upd.Apply(mem)
		mem.Version++
		mem.UpdatedAt = s.now()
		data, err := json.Marshal(mem)
		if err != nil {
			return fmt.Errorf("marshal memory: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, memoryKey(projectID), data, 0)
			return nil
		})
		if err != nil {
			return err
		}
		updated = mem
		return nil
	}, memoryKey(projectID))
	if err != nil {
		return nil, apperr.Persistence("update memory", err)
	}
	return updated, nil
}

// ResetProject rewrites every scene and the memory in one MULTI guarded by
// WATCH on all of them.
func (s *RedisStore) ResetProject(ctx context.Context, projectID string) error {
	ids, err := s.redis.LRange(ctx, projectScenesKey(projectID), 0, -1).Result()
	if err != nil {
		return apperr.Persistence("reset project", err)
	}
	keys := []string{memoryKey(projectID)}
	for _, id := range ids {
		keys = append(keys, sceneKey(id))
	}

	err = s.retryWatch(ctx, func(tx *redis.Tx) error {
		now := s.now()
		mem, err := s.getMemory(ctx, tx, projectID)
		if err != nil {
			return err
		}
		scenes := make([]*model.Scene, 0, len(ids))
		for _, id := range ids {
			scene, err := s.getScene(ctx, tx, id)
			if err != nil {
				return err
			}
			resetScene(scene, now)
			scenes = append(scenes, scene)
		}
		resetMemory(mem, len(scenes), now)

		memJSON, err := json.Marshal(mem)
		if err != nil {
			return fmt.Errorf("marshal memory: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, scene := range scenes {
				data, err := json.Marshal(scene)
				if err != nil {
					return err
				}
				pipe.Set(ctx, sceneKey(scene.ID), data, 0)
			}
			pipe.Set(ctx, memoryKey(projectID), memJSON, 0)
			return nil
		})
		return err
	}, keys...)
	if err != nil {
		return apperr.Persistence("reset project", err)
	}
	return nil
}

// ReclaimStale fails scenes left in processing since before cutoff.
func (s *RedisStore) ReclaimStale(ctx context.Context, cutoff time.Time) ([]string, error) {
	projectIDs, err := s.redis.ZRange(ctx, projectsIndexKey, 0, -1).Result()
	if err != nil {
		return nil, apperr.Persistence("reclaim stale", err)
	}
	var affected []string
	for _, projectID := range projectIDs {
		scenes, err := s.ListScenes(ctx, projectID)
		if err != nil {
			return nil, err
		}
		reclaimed := false
		for _, scene := range scenes {
			if scene.Status != model.SceneProcessing || !scene.UpdatedAt.Before(cutoff) {
				continue
			}
			err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
				current, err := s.getScene(ctx, tx, scene.ID)
				if err != nil {
					return err
				}
				if current.Status != model.SceneProcessing || current.Version != scene.Version {
					return nil
				}
				reclaimScene(current, s.now())
				reclaimed = true
				return s.putScene(ctx, tx, current)
			}, sceneKey(scene.ID))
			if err != nil && !errors.Is(err, redis.TxFailedErr) {
				return nil, apperr.Persistence("reclaim scene", err)
			}
		}
		if reclaimed {
			affected = append(affected, projectID)
		}
	}
	return affected, nil
}

// ListProjectIDsByStatus returns the projects whose memory has the given status.
func (s *RedisStore) ListProjectIDsByStatus(ctx context.Context, status model.WorkflowStatus) ([]string, error) {
	projectIDs, err := s.redis.ZRange(ctx, projectsIndexKey, 0, -1).Result()
	if err != nil {
		return nil, apperr.Persistence("list projects by status", err)
	}
	var ids []string
	for _, id := range projectIDs {
		mem, err := s.GetMemory(ctx, id)
		if apperr.IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if mem.WorkflowStatus == status {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// retryWatch runs fn under WATCH, retrying when another client wins the race
func (s *RedisStore) retryWatch(ctx context.Context, fn func(tx *redis.Tx) error, keys ...string) error {
	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		err := s.redis.Watch(ctx, fn, keys...)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return ErrVersionConflict
}

func (s *RedisStore) getJSON(ctx context.Context, key string, v interface{}) error {
	return getJSON(ctx, s.redis, key, v)
}

func (s *RedisStore) getScene(ctx context.Context, c getter, sceneID string) (*model.Scene, error) {
	var scene model.Scene
	if err := getJSON(ctx, c, sceneKey(sceneID), &scene); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperr.NotFound("scene", sceneID)
		}
		return nil, apperr.Persistence("get scene", err)
	}
	return &scene, nil
}

func (s *RedisStore) putScene(ctx context.Context, tx *redis.Tx, scene *model.Scene) error {
	data, err := json.Marshal(scene)
	if err != nil {
		return fmt.Errorf("marshal scene: %w", err)
	}
	_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, sceneKey(scene.ID), data, 0)
		return nil
	})
	return err
}

func (s *RedisStore) getMemory(ctx context.Context, c getter, projectID string) (*model.ProjectMemory, error) {
	var mem model.ProjectMemory
	if err := getJSON(ctx, c, memoryKey(projectID), &mem); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperr.NotFound("project memory", projectID)
		}
		return nil, apperr.Persistence("get memory", err)
	}
	return &mem, nil
}

func getJSON(ctx context.Context, c getter, key string, v interface{}) error {
	data, err := c.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
