package model

import "time"

// RenderJob is the normalised view of an external generation job. It lives
// only for the duration of the adapter call that created it.
type RenderJob struct {
	ProviderID    string    `json:"providerId"`
	ExternalJobID string    `json:"externalJobId"`
	SubmittedAt   time.Time `json:"submittedAt"`
	Status        JobStatus `json:"status"`
	ResultURL     string    `json:"resultUrl,omitempty"`
	ThumbnailURL  string    `json:"thumbnailUrl,omitempty"`
	Error         string    `json:"error,omitempty"`
}

// StepOutcome tells what one orchestrator step did
type StepOutcome string

const (
	StepIdle          StepOutcome = "idle"
	StepContended     StepOutcome = "contended"
	StepCompleted     StepOutcome = "completed"
	StepFailed        StepOutcome = "failed"
	StepAwaitingInput StepOutcome = "awaiting_input"
	// StepSuperseded means a reset or reclaim changed the scene while its
	// provider ran; the provider result was dropped.
	StepSuperseded StepOutcome = "superseded"
)

// StepResult is returned by the orchestrator for each step
type StepResult struct {
	ProjectID      string         `json:"projectId"`
	Outcome        StepOutcome    `json:"outcome"`
	SceneID        string         `json:"sceneId,omitempty"`
	SceneIndex     int            `json:"sceneIndex,omitempty"`
	AssetURL       string         `json:"assetUrl,omitempty"`
	Error          string         `json:"error,omitempty"`
	WorkflowStatus WorkflowStatus `json:"workflowStatus"`
	Tally          Tally          `json:"tally"`
	Pending        int            `json:"pending"`
}

// Idle reports whether the step found nothing to do
func (r *StepResult) Idle() bool {
	return r.Outcome == StepIdle
}

// HasMoreWork reports whether another step would pick up a scene
func (r *StepResult) HasMoreWork() bool {
	if r.Outcome == StepContended {
		return true
	}
	return r.Pending > 0
}

// ProductionContext carries per-project values adapters need
type ProductionContext struct {
	Project *Project
	Memory  *ProjectMemory
}

// APIKey returns the project override for provider when set, else fallback
func (pc *ProductionContext) APIKey(provider, fallback string) string {
	if pc != nil && pc.Memory != nil {
		if key := pc.Memory.Metadata.APIKeyOverrides[provider]; key != "" {
			return key
		}
	}
	return fallback
}

// AspectRatio returns the memory override, then the project value
func (pc *ProductionContext) AspectRatio() string {
	if pc != nil && pc.Memory != nil && pc.Memory.Metadata.AspectRatio != "" {
		return pc.Memory.Metadata.AspectRatio
	}
	if pc != nil && pc.Project != nil && pc.Project.AspectRatio != "" {
		return pc.Project.AspectRatio
	}
	return AspectLandscape
}
