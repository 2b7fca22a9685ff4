package model

import (
	"strings"
	"time"
)

// maxLogLines bounds ProjectMemory.LastLog
const maxLogLines = 50

// Project is the top-level production record
type Project struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	AspectRatio    string    `json:"aspectRatio"`
	MasterAudioURL string    `json:"masterAudioUrl,omitempty"`
	TotalDuration  float64   `json:"totalDuration"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// ProjectMemory is the durable progress ledger of a project
type ProjectMemory struct {
	ProjectID      string         `json:"projectId"`
	WorkflowStatus WorkflowStatus `json:"workflowStatus"`
	TotalScenes    int            `json:"totalScenes"`
	CompletedCount int            `json:"completedCount"`
	FailedCount    int            `json:"failedCount"`
	CurrentSceneID string         `json:"currentSceneId,omitempty"`
	LastLog        string         `json:"lastLog"`
	Metadata       MemoryMetadata `json:"metadata"`
	Version        int64          `json:"version"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// MemoryMetadata holds project-level overrides
type MemoryMetadata struct {
	LightLeakOverlayURL string            `json:"lightLeakOverlayUrl,omitempty"`
	AspectRatio         string            `json:"aspectRatio,omitempty"`
	APIKeyOverrides     map[string]string `json:"apiKeyOverrides,omitempty"`
}

// MemoryUpdate is a partial memory write. Nil fields are left untouched.
type MemoryUpdate struct {
	WorkflowStatus *WorkflowStatus `json:"workflowStatus,omitempty"`
	TotalScenes    *int            `json:"totalScenes,omitempty"`
	CompletedCount *int            `json:"completedCount,omitempty"`
	FailedCount    *int            `json:"failedCount,omitempty"`
	CurrentSceneID *string         `json:"currentSceneId,omitempty"`
	AppendLog      string          `json:"appendLog,omitempty"`
	ReplaceLog     *string         `json:"replaceLog,omitempty"`
	Metadata       *MemoryMetadata `json:"metadata,omitempty"`
}

// Apply writes the non-nil fields onto m
func (u MemoryUpdate) Apply(m *ProjectMemory) {
	if u.WorkflowStatus != nil {
		m.WorkflowStatus = *u.WorkflowStatus
	}
	if u.TotalScenes != nil {
		m.TotalScenes = *u.TotalScenes
	}
	if u.CompletedCount != nil {
		m.CompletedCount = *u.CompletedCount
	}
	if u.FailedCount != nil {
		m.FailedCount = *u.FailedCount
	}
	if u.CurrentSceneID != nil {
		m.CurrentSceneID = *u.CurrentSceneID
	}
	if u.ReplaceLog != nil {
		m.LastLog = *u.ReplaceLog
	}
	if u.AppendLog != "" {
		m.LastLog = AppendLogLine(m.LastLog, u.AppendLog)
	}
	if u.Metadata != nil {
		m.Metadata = *u.Metadata
	}
}

// AppendLogLine appends line to log keeping the newest maxLogLines lines
func AppendLogLine(log, line string) string {
	line = strings.TrimSpace(line)
	if line == "" {
		return log
	}
	if log == "" {
		return line
	}
	lines := append(strings.Split(log, "\n"), line)
	if len(lines) > maxLogLines {
		lines = lines[len(lines)-maxLogLines:]
	}
	return strings.Join(lines, "\n")
}

// Tally holds scene counts by status
type Tally struct {
	Total         int `json:"total"`
	Todo          int `json:"todo"`
	Processing    int `json:"processing"`
	Completed     int `json:"completed"`
	Failed        int `json:"failed"`
	AwaitingInput int `json:"awaitingInput"`
}

// CountScenes tallies scenes by status
func CountScenes(scenes []Scene) Tally {
	t := Tally{Total: len(scenes)}
	for _, s := range scenes {
		switch s.Status {
		case SceneTodo:
			t.Todo++
		case SceneProcessing:
			t.Processing++
		case SceneCompleted:
			t.Completed++
		case SceneFailed:
			t.Failed++
		case SceneAwaitingInput:
			t.AwaitingInput++
		}
	}
	return t
}

// Workflow derives the aggregate workflow status from the tally
func (t Tally) Workflow() WorkflowStatus {
	switch {
	case t.Total == 0:
		return WorkflowIdle
	case t.Completed+t.Failed < t.Total:
		if t.Completed+t.Failed+t.Processing+t.AwaitingInput == 0 {
			return WorkflowIdle
		}
		return WorkflowRunning
	case t.Failed == 0:
		return WorkflowCompleted
	default:
		return WorkflowError
	}
}
