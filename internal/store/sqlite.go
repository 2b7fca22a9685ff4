package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/BillMorio/Video-Agent-sub002/internal/apperr"
	"github.com/BillMorio/Video-Agent-sub002/internal/model"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// timeLayout is fixed width so stored timestamps compare as strings
const timeLayout = "2006-01-02T15:04:05.000000Z07:00"

// SQLiteStore implements Store on a SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (or creates) the database at path and applies migrations.
// Use ":memory:" for an ephemeral database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One connection serialises writers and keeps ":memory:" databases alive.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	if path != ":memory:" {
		pragmas = append(pragmas, "PRAGMA journal_mode=WAL")
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	s := &SQLiteStore{db: db, now: func() time.Time { return time.Now().UTC() }}
	if err := s.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) applyMigrations(ctx context.Context) error {
	entries, err := migrationFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY)"); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}
	for _, name := range names {
		version := strings.TrimSuffix(name, ".sql")
		var count int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(1) FROM schema_migrations WHERE version = ?", version).Scan(&count); err != nil {
			return fmt.Errorf("scan migration version: %w", err)
		}
		if count > 0 {
			continue
		}
		data, err := migrationFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", version, err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("record migration %s: %w", version, err)
		}
	}
	return tx.Commit()
}

// CreateProject inserts the project with its scenes and memory in one transaction.
func (s *SQLiteStore) CreateProject(ctx context.Context, project *model.Project, scenes []model.Scene, memory *model.ProjectMemory) error {
	now := s.now()
	ts := now.Format(timeLayout)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Persistence("begin create project", err)
	}
	defer func() { _ = tx.Rollback() }()

	projectJSON, err := json.Marshal(project)
	if err != nil {
		return fmt.Errorf("marshal project: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO projects (id, data, created_at) VALUES (?, ?, ?)`,
		project.ID, string(projectJSON), project.CreatedAt.UTC().Format(timeLayout),
	); err != nil {
		return apperr.Persistence("insert project", err)
	}

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
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO scenes (id, project_id, idx, status, version, data, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			scene.ID, project.ID, scene.Index, string(scene.Status), scene.Version, string(data), ts,
		); err != nil {
			return apperr.Persistence(fmt.Sprintf("insert scene %d", scene.Index), err)
		}
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
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO memories (project_id, workflow_status, version, data, updated_at) VALUES (?, ?, ?, ?, ?)`,
		project.ID, string(mem.WorkflowStatus), mem.Version, string(memJSON), ts,
	); err != nil {
		return apperr.Persistence("insert memory", err)
	}

	if err := tx.Commit(); err != nil {
		return apperr.Persistence("commit create project", err)
	}
	return nil
}

// GetProject fetches a project by ID.
func (s *SQLiteStore) GetProject(ctx context.Context, projectID string) (*model.Project, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM projects WHERE id = ?`, projectID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("project", projectID)
	}
	if err != nil {
		return nil, apperr.Persistence("get project", err)
	}
	var project model.Project
	if err := json.Unmarshal([]byte(data), &project); err != nil {
		return nil, apperr.Persistence("decode project", err)
	}
	return &project, nil
}

// ListProjects returns all projects, newest first.
func (s *SQLiteStore) ListProjects(ctx context.Context) ([]model.Project, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM projects ORDER BY created_at DESC`)
	if err != nil {
		return nil, apperr.Persistence("list projects", err)
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, apperr.Persistence("scan project", err)
		}
		var project model.Project
		if err := json.Unmarshal([]byte(data), &project); err != nil {
			return nil, apperr.Persistence("decode project", err)
		}
		projects = append(projects, project)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Persistence("iterate projects", err)
	}
	return projects, nil
}

// DeleteProject removes a project with its scenes and memory.
func (s *SQLiteStore) DeleteProject(ctx context.Context, projectID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Persistence("begin delete project", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range []string{
		`DELETE FROM scenes WHERE project_id = ?`,
		`DELETE FROM memories WHERE project_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, projectID); err != nil {
			return apperr.Persistence("delete project", err)
		}
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, projectID)
	if err != nil {
		return apperr.Persistence("delete project", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("project", projectID)
	}
	if err := tx.Commit(); err != nil {
		return apperr.Persistence("commit delete project", err)
	}
	return nil
}

// ListScenes returns the project's scenes ordered by index.
func (s *SQLiteStore) ListScenes(ctx context.Context, projectID string) ([]model.Scene, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT data, status, version FROM scenes WHERE project_id = ? ORDER BY idx ASC`, projectID)
	if err != nil {
		return nil, apperr.Persistence("list scenes", err)
	}
	defer rows.Close()

	var scenes []model.Scene
	for rows.Next() {
		scene, err := scanScene(rows)
		if err != nil {
			return nil, apperr.Persistence("scan scene", err)
		}
		scenes = append(scenes, *scene)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Persistence("iterate scenes", err)
	}
	return scenes, nil
}

// GetScene fetches a scene by ID.
func (s *SQLiteStore) GetScene(ctx context.Context, sceneID string) (*model.Scene, error) {
	return getSceneTx(ctx, s.db, sceneID)
}

// UpdateScene applies a partial update under a version check.
func (s *SQLiteStore) UpdateScene(ctx context.Context, sceneID string, upd model.SceneUpdate) (*model.Scene, error) {
	return s.mutateScene(ctx, sceneID, "", func(scene *model.Scene) error {
		upd.Apply(scene)
		return nil
	})
}

// ClaimScene moves a scene from expected to processing with a conditional update.
func (s *SQLiteStore) ClaimScene(ctx context.Context, sceneID string, expected model.SceneStatus) (*model.Scene, error) {
	now := s.now()
	return s.mutateScene(ctx, sceneID, expected, func(scene *model.Scene) error {
		if scene.Status != expected {
			return ErrClaimLost
		}
		claimScene(scene, now)
		return nil
	})
}

// FinishScene writes the outcome of a claim if the claim still holds.
func (s *SQLiteStore) FinishScene(ctx context.Context, sceneID string, claimVersion int64, upd model.SceneUpdate) (*model.Scene, error) {
	return s.mutateScene(ctx, sceneID, model.SceneProcessing, func(scene *model.Scene) error {
		if !claimHeld(scene, claimVersion) {
			return ErrClaimLost
		}
		upd.Apply(scene)
		return nil
	})
}

// mutateScene reads, mutates and writes one scene inside a transaction. When
// expected is set the write is conditional on the stored status as well.
func (s *SQLiteStore) mutateScene(ctx context.Context, sceneID string, expected model.SceneStatus, mutate func(*model.Scene) error) (*model.Scene, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperr.Persistence("begin scene update", err)
	}
	defer func() { _ = tx.Rollback() }()

	scene, err := getSceneTx(ctx, tx, sceneID)
	if err != nil {
		return nil, err
	}
	prevVersion := scene.Version
	if err := mutate(scene); err != nil {
		return nil, err
	}
	scene.Version = prevVersion + 1
	scene.UpdatedAt = s.now()

	data, err := json.Marshal(scene)
	if err != nil {
		return nil, fmt.Errorf("marshal scene: %w", err)
	}

	query := `UPDATE scenes SET status = ?, version = ?, data = ?, updated_at = ? WHERE id = ? AND version = ?`
	args := []interface{}{string(scene.Status), scene.Version, string(data), scene.UpdatedAt.Format(timeLayout), sceneID, prevVersion}
	if expected != "" {
		query += ` AND status = ?`
		args = append(args, string(expected))
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, apperr.Persistence("update scene", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if expected != "" {
			return nil, ErrClaimLost
		}
		return nil, ErrVersionConflict
	}
	if err := tx.Commit(); err != nil {
		return nil, apperr.Persistence("commit scene update", err)
	}
	return scene, nil
}

// GetMemory fetches the project's memory.
func (s *SQLiteStore) GetMemory(ctx context.Context, projectID string) (*model.ProjectMemory, error) {
	return getMemoryTx(ctx, s.db, projectID)
}

// UpdateMemory applies a partial update under a version check.
func (s *SQLiteStore) UpdateMemory(ctx context.Context, projectID string, upd model.MemoryUpdate) (*model.ProjectMemory, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperr.Persistence("begin memory update", err)
	}
	defer func() { _ = tx.Rollback() }()

	mem, err := getMemoryTx(ctx, tx, projectID)
	if err != nil {
		return nil, err
	}
	prevVersion := mem.Version
	upd.Apply(mem)
	mem.Version = prevVersion + 1
	mem.UpdatedAt = s.now()

	if err := writeMemoryTx(ctx, tx, mem, prevVersion); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, apperr.Persistence("commit memory update", err)
	}
	return mem, nil
}

// ResetProject returns every scene to todo and the memory to idle atomically.
func (s *SQLiteStore) ResetProject(ctx context.Context, projectID string) error {
	now := s.now()
	ts := now.Format(timeLayout)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Persistence("begin reset", err)
	}
	defer func() { _ = tx.Rollback() }()

	mem, err := getMemoryTx(ctx, tx, projectID)
	if err != nil {
		return err
	}

	rows, err := tx.QueryContext(ctx, `SELECT data, status, version FROM scenes WHERE project_id = ? ORDER BY idx ASC`, projectID)
	if err != nil {
		return apperr.Persistence("load scenes for reset", err)
	}
	var scenes []*model.Scene
	for rows.Next() {
		scene, err := scanScene(rows)
		if err != nil {
			rows.Close()
			return err
		}
		scenes = append(scenes, scene)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return apperr.Persistence("iterate scenes for reset", err)
	}

	for _, scene := range scenes {
		resetScene(scene, now)
		data, err := json.Marshal(scene)
		if err != nil {
			return fmt.Errorf("marshal scene: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE scenes SET status = ?, version = ?, data = ?, updated_at = ? WHERE id = ?`,
			string(scene.Status), scene.Version, string(data), ts, scene.ID,
		); err != nil {
			return apperr.Persistence(fmt.Sprintf("reset scene %d", scene.Index), err)
		}
	}

	prevVersion := mem.Version
	resetMemory(mem, len(scenes), now)
	if err := writeMemoryTx(ctx, tx, mem, prevVersion); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperr.Persistence("commit reset", err)
	}
	return nil
}

// ReclaimStale fails scenes stuck in processing since before cutoff.
func (s *SQLiteStore) ReclaimStale(ctx context.Context, cutoff time.Time) ([]string, error) {
	now := s.now()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperr.Persistence("begin reclaim", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx,
		`SELECT data, status, version FROM scenes WHERE status = ? AND updated_at < ?`,
		string(model.SceneProcessing), cutoff.UTC().Format(timeLayout))
	if err != nil {
		return nil, apperr.Persistence("query stale scenes", err)
	}
	var stale []*model.Scene
	for rows.Next() {
		scene, err := scanScene(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		stale = append(stale, scene)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, apperr.Persistence("iterate stale scenes", err)
	}

	seen := make(map[string]bool)
	var projectIDs []string
	for _, scene := range stale {
		prevVersion := scene.Version
		reclaimScene(scene, now)
		data, err := json.Marshal(scene)
		if err != nil {
			return nil, fmt.Errorf("marshal scene: %w", err)
		}
		res, err := tx.ExecContext(ctx,
			`UPDATE scenes SET status = ?, version = ?, data = ?, updated_at = ? WHERE id = ? AND version = ?`,
			string(scene.Status), scene.Version, string(data), now.Format(timeLayout), scene.ID, prevVersion)
		if err != nil {
			return nil, apperr.Persistence("reclaim scene", err)
		}
		if n, _ := res.RowsAffected(); n > 0 && !seen[scene.ProjectID] {
			seen[scene.ProjectID] = true
			projectIDs = append(projectIDs, scene.ProjectID)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, apperr.Persistence("commit reclaim", err)
	}
	return projectIDs, nil
}

// ListProjectIDsByStatus returns the projects whose memory has the given status.
func (s *SQLiteStore) ListProjectIDsByStatus(ctx context.Context, status model.WorkflowStatus) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT project_id FROM memories WHERE workflow_status = ? ORDER BY updated_at ASC`, string(status))
	if err != nil {
		return nil, apperr.Persistence("list projects by status", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, apperr.Persistence("scan project id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Persistence("iterate project ids", err)
	}
	return ids, nil
}

// queryer is satisfied by *sql.DB and *sql.Tx
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanScene(row rowScanner) (*model.Scene, error) {
	var (
		data    string
		status  string
		version int64
	)
	if err := row.Scan(&data, &status, &version); err != nil {
		return nil, err
	}
	var scene model.Scene
	if err := json.Unmarshal([]byte(data), &scene); err != nil {
		return nil, apperr.Persistence("decode scene", err)
	}
	scene.Status = model.SceneStatus(status)
	scene.Version = version
	return &scene, nil
}

func getSceneTx(ctx context.Context, q queryer, sceneID string) (*model.Scene, error) {
	row := q.QueryRowContext(ctx, `SELECT data, status, version FROM scenes WHERE id = ?`, sceneID)
	scene, err := scanScene(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("scene", sceneID)
	}
	if err != nil {
		return nil, apperr.Persistence("get scene", err)
	}
	return scene, nil
}

func getMemoryTx(ctx context.Context, q queryer, projectID string) (*model.ProjectMemory, error) {
	var (
		data    string
		version int64
	)
	err := q.QueryRowContext(ctx, `SELECT data, version FROM memories WHERE project_id = ?`, projectID).Scan(&data, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("project memory", projectID)
	}
	if err != nil {
		return nil, apperr.Persistence("get memory", err)
	}
	var mem model.ProjectMemory
	if err := json.Unmarshal([]byte(data), &mem); err != nil {
		return nil, apperr.Persistence("decode memory", err)
	}
	mem.Version = version
	return &mem, nil
}

func writeMemoryTx(ctx context.Context, tx *sql.Tx, mem *model.ProjectMemory, prevVersion int64) error {
	data, err := json.Marshal(mem)
	if err != nil {
		return fmt.Errorf("marshal memory: %w", err)
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE memories SET workflow_status = ?, version = ?, data = ?, updated_at = ? WHERE project_id = ? AND version = ?`,
		string(mem.WorkflowStatus), mem.Version, string(data), mem.UpdatedAt.Format(timeLayout), mem.ProjectID, prevVersion)
	if err != nil {
		return apperr.Persistence("update memory", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrVersionConflict
	}
	return nil
}
