// Package store persists projects, scenes and project memory.
//
// Two implementations share the Store contract: SQLite (default, single
// node) and Redis (shared between API and worker processes). Both claim a
// scene with a conditional write so two concurrent orchestrator steps can
// never process the same scene, and both apply a project reset atomically.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/BillMorio/Video-Agent-sub002/internal/model"
)

var (
	// ErrClaimLost is returned by ClaimScene when the scene left the
	// expected status before the claim was written, and by FinishScene when
	// the claim no longer holds.
	ErrClaimLost = errors.New("scene claim lost")
	// ErrVersionConflict is returned when a record changed between read and write.
	ErrVersionConflict = errors.New("record version conflict")
)

// resetLog is written to LastLog by ResetProject
const resetLog = "Production reset."

// interruptedError is written to scenes reclaimed from a stale lease
const interruptedError = "processing interrupted: lease expired before the provider returned"

// Store is the persistence collaborator of the orchestration services.
type Store interface {
	CreateProject(ctx context.Context, project *model.Project, scenes []model.Scene, memory *model.ProjectMemory) error
	GetProject(ctx context.Context, projectID string) (*model.Project, error)
	ListProjects(ctx context.Context) ([]model.Project, error)
	DeleteProject(ctx context.Context, projectID string) error

	ListScenes(ctx context.Context, projectID string) ([]model.Scene, error)
	GetScene(ctx context.Context, sceneID string) (*model.Scene, error)
	UpdateScene(ctx context.Context, sceneID string, upd model.SceneUpdate) (*model.Scene, error)
	// ClaimScene moves the scene from expected to processing only if it is
	// still in expected. Otherwise it returns ErrClaimLost.
	ClaimScene(ctx context.Context, sceneID string, expected model.SceneStatus) (*model.Scene, error)
	// FinishScene applies the outcome of a claim. The write happens only
	// while the scene is still processing at claimVersion; a reset, reclaim
	// or newer claim in between makes it return ErrClaimLost.
	FinishScene(ctx context.Context, sceneID string, claimVersion int64, upd model.SceneUpdate) (*model.Scene, error)

	GetMemory(ctx context.Context, projectID string) (*model.ProjectMemory, error)
	UpdateMemory(ctx context.Context, projectID string, upd model.MemoryUpdate) (*model.ProjectMemory, error)

	// ResetProject returns every scene to todo and the memory to idle in
	// one atomic write.
	ResetProject(ctx context.Context, projectID string) error
	// ReclaimStale fails scenes left in processing since before cutoff and
	// returns the affected project IDs.
	ReclaimStale(ctx context.Context, cutoff time.Time) ([]string, error)
	ListProjectIDsByStatus(ctx context.Context, status model.WorkflowStatus) ([]string, error)

	Close() error
}

// claimScene applies the claim to an in-memory copy of the scene
func claimScene(s *model.Scene, now time.Time) {
	s.Status = model.SceneProcessing
	s.LastError = ""
	s.InputResolved = false
	s.Version++
	s.UpdatedAt = now
}

// claimHeld reports whether scene is still the processing claim at claimVersion
func claimHeld(s *model.Scene, claimVersion int64) bool {
	return s.Status == model.SceneProcessing && s.Version == claimVersion
}

// resetScene applies the reset to an in-memory copy of the scene
func resetScene(s *model.Scene, now time.Time) {
	s.Status = model.SceneTodo
	s.LastError = ""
	s.InputResolved = false
	s.AssetURL = ""
	s.FinalVideoURL = ""
	s.ThumbnailURL = ""
	s.Version++
	s.UpdatedAt = now
}

// resetMemory applies the reset to an in-memory copy of the ledger
func resetMemory(m *model.ProjectMemory, totalScenes int, now time.Time) {
	m.WorkflowStatus = model.WorkflowIdle
	m.TotalScenes = totalScenes
	m.CompletedCount = 0
	m.FailedCount = 0
	m.CurrentSceneID = ""
	m.LastLog = resetLog
	m.Version++
	m.UpdatedAt = now
}

// reclaimScene fails a scene whose processing lease expired
func reclaimScene(s *model.Scene, now time.Time) {
	s.Status = model.SceneFailed
	s.LastError = interruptedError
	s.Version++
	s.UpdatedAt = now
}
