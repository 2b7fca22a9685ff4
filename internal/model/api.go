package model

// InitProjectRequest creates a project by segmenting a script
type InitProjectRequest struct {
	Title               string            `json:"title" validate:"required,max=200"`
	Script              string            `json:"script" validate:"required"`
	Words               []Word            `json:"words" validate:"omitempty,dive"`
	MasterAudioURL      string            `json:"masterAudioUrl" validate:"omitempty,url"`
	VisualTypes         []VisualType      `json:"visualTypes" validate:"omitempty,dive,oneof=a-roll b-roll graphics image"`
	AspectRatio         string            `json:"aspectRatio" validate:"omitempty,oneof=16:9 9:16 1:1"`
	LightLeakOverlayURL string            `json:"lightLeakOverlayUrl" validate:"omitempty,url"`
	APIKeyOverrides     map[string]string `json:"apiKeyOverrides"`
	UsePlanner          bool              `json:"usePlanner"`
}

// StoryboardScene is one scene of a prebuilt storyboard
type StoryboardScene struct {
	Script       string        `json:"script" validate:"required"`
	StartTime    *float64      `json:"startTime" validate:"omitempty,min=0"`
	EndTime      *float64      `json:"endTime" validate:"omitempty,min=0"`
	Duration     float64       `json:"duration" validate:"omitempty,gt=0"`
	VisualType   VisualType    `json:"visualType" validate:"required,oneof=a-roll b-roll graphics image"`
	Payload      VisualPayload `json:"visualPayload"`
	Transition   *Transition   `json:"transition"`
	DirectorNote string        `json:"directorNote"`
}

// StoryboardRequest creates a project from an already built storyboard
type StoryboardRequest struct {
	Title               string            `json:"title" validate:"required,max=200"`
	MasterAudioURL      string            `json:"masterAudioUrl" validate:"omitempty,url"`
	AspectRatio         string            `json:"aspectRatio" validate:"omitempty,oneof=16:9 9:16 1:1"`
	LightLeakOverlayURL string            `json:"lightLeakOverlayUrl" validate:"omitempty,url"`
	APIKeyOverrides     map[string]string `json:"apiKeyOverrides"`
	Scenes              []StoryboardScene `json:"scenes" validate:"required,min=1,dive"`
	Words               []Word            `json:"words" validate:"omitempty,dive"`
}

// SegmentRequest previews segmentation without persisting
type SegmentRequest struct {
	Script      string       `json:"script" validate:"required"`
	Words       []Word       `json:"words" validate:"omitempty,dive"`
	VisualTypes []VisualType `json:"visualTypes" validate:"omitempty,dive,oneof=a-roll b-roll graphics image"`
	UsePlanner  bool         `json:"usePlanner"`
}

// SnapRequest previews the silence snap on a list of scenes
type SnapRequest struct {
	Scenes []Scene `json:"scenes" validate:"required,min=1"`
	Words  []Word  `json:"words" validate:"required,min=1"`
}

// StoryboardResponse is returned by the preview endpoints
type StoryboardResponse struct {
	Scenes        []Scene `json:"scenes"`
	TotalDuration float64 `json:"totalDuration"`
	Snapped       bool    `json:"snapped"`
}

// UpdateSceneRequest edits user-owned scene fields
type UpdateSceneRequest struct {
	Script       *string        `json:"script" validate:"omitempty,min=1"`
	StartTime    *float64       `json:"startTime" validate:"omitempty,min=0"`
	EndTime      *float64       `json:"endTime" validate:"omitempty,gt=0"`
	Payload      *VisualPayload `json:"visualPayload"`
	Transition   *Transition    `json:"transition"`
	DirectorNote *string        `json:"directorNote"`
}

// ResolveInputRequest supplies the input a parked scene asked for
type ResolveInputRequest struct {
	Payload VisualPayload `json:"visualPayload" validate:"required"`
}

// UpdateSettingsRequest edits the project memory overrides
type UpdateSettingsRequest struct {
	LightLeakOverlayURL *string           `json:"lightLeakOverlayUrl" validate:"omitempty,url"`
	AspectRatio         *string           `json:"aspectRatio" validate:"omitempty,oneof=16:9 9:16 1:1"`
	APIKeyOverrides     map[string]string `json:"apiKeyOverrides"`
}

// ProjectView bundles a project with its ledger and scenes
type ProjectView struct {
	Project *Project       `json:"project"`
	Memory  *ProjectMemory `json:"memory"`
	Scenes  []Scene        `json:"scenes"`
}

// ProjectListResponse is returned by the project listing
type ProjectListResponse struct {
	Projects []Project `json:"projects"`
}

// ProductionStatusResponse is the ledger and scene list of a project
type ProductionStatusResponse struct {
	Memory *ProjectMemory `json:"memory"`
	Scenes []Scene        `json:"scenes"`
}

// StartProductionResponse is returned when the production loop is queued
type StartProductionResponse struct {
	ProjectID      string         `json:"projectId"`
	TaskID         string         `json:"taskId"`
	WorkflowStatus WorkflowStatus `json:"workflowStatus"`
}

// StitchOptions are the caller flags of a stitch request
type StitchOptions struct {
	UseFadeTransition bool   `json:"useFadeTransition"`
	UseLightLeak      bool   `json:"useLightLeak"`
	UseCloudRender    bool   `json:"useCloudRender"`
	LightLeakURL      string `json:"lightLeakUrl" validate:"omitempty,url"`
}

// StitchResult is returned by a stitch request
type StitchResult struct {
	Mode         string      `json:"mode"`
	PublicURL    string      `json:"publicUrl,omitempty"`
	RenderID     string      `json:"renderId,omitempty"`
	BucketName   string      `json:"bucketName,omitempty"`
	SceneCount   int         `json:"sceneCount"`
	TotalScenes  int         `json:"totalScenes"`
	LightLeakURL string      `json:"lightLeakUrl,omitempty"`
	Details      interface{} `json:"details,omitempty"`
}

// Stitch modes
const (
	StitchModeLocal = "local"
	StitchModeCloud = "cloud"
)

// CloudRenderStatus is the progress of a cloud render
type CloudRenderStatus struct {
	RenderID string  `json:"renderId"`
	Status   string  `json:"status"`
	Progress float64 `json:"progress"`
	VideoURL string  `json:"videoUrl,omitempty"`
	Error    string  `json:"error,omitempty"`
}
