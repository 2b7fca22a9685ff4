package model

// VisualType is the visual treatment category of a scene
type VisualType string

const (
	VisualARoll    VisualType = "a-roll"
	VisualBRoll    VisualType = "b-roll"
	VisualGraphics VisualType = "graphics"
	VisualImage    VisualType = "image"
)

var ValidVisualTypes = []VisualType{
	VisualARoll, VisualBRoll, VisualGraphics, VisualImage,
}

// IsValid reports whether v is one of the known visual types
func (v VisualType) IsValid() bool {
	for _, vt := range ValidVisualTypes {
		if vt == v {
			return true
		}
	}
	return false
}

// SceneStatus is the lifecycle state of a scene
type SceneStatus string

const (
	SceneTodo          SceneStatus = "todo"
	SceneProcessing    SceneStatus = "processing"
	SceneCompleted     SceneStatus = "completed"
	SceneFailed        SceneStatus = "failed"
	SceneAwaitingInput SceneStatus = "awaiting_input"
)

// IsTerminal reports whether no further orchestrator step applies without
// an explicit reprocess or reset
func (s SceneStatus) IsTerminal() bool {
	return s == SceneCompleted || s == SceneFailed
}

// WorkflowStatus is the aggregate production state of a project
type WorkflowStatus string

const (
	WorkflowIdle      WorkflowStatus = "idle"
	WorkflowRunning   WorkflowStatus = "running"
	WorkflowCompleted WorkflowStatus = "completed"
	WorkflowError     WorkflowStatus = "error"
)

// TransitionType is the cut applied between a scene and the next one
type TransitionType string

const (
	TransitionFade      TransitionType = "fade"
	TransitionCrossfade TransitionType = "crossfade"
	TransitionWipe      TransitionType = "wipe"
	TransitionDissolve  TransitionType = "dissolve"
	TransitionLightLeak TransitionType = "light-leak"
	TransitionNone      TransitionType = "none"
)

// DefaultTransitionDuration is used when a scene does not set one (seconds)
const DefaultTransitionDuration = 0.8

// JobStatus is the normalised status of an external generation job
type JobStatus string

const (
	JobCreated    JobStatus = "created"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// IsTerminal reports whether polling can stop
func (s JobStatus) IsTerminal() bool {
	return s == JobCompleted || s == JobFailed
}

// Aspect ratios accepted for projects
const (
	AspectLandscape = "16:9"
	AspectPortrait  = "9:16"
	AspectSquare    = "1:1"
)
