package model

// WebSocket message types
const (
	WSMessageTypeProgress = "progress"
	WSMessageTypeComplete = "complete"
	WSMessageTypeError    = "error"
	WSMessageTypePing     = "ping"
	WSMessageTypePong     = "pong"
)

// WSMessage represents a generic WebSocket message
type WSMessage struct {
	Type string `json:"type"`
}

// WSProgressMessage reports one production step
type WSProgressMessage struct {
	Type           string         `json:"type"`
	ProjectID      string         `json:"projectId"`
	SceneID        string         `json:"sceneId,omitempty"`
	SceneIndex     int            `json:"sceneIndex,omitempty"`
	SceneStatus    SceneStatus    `json:"sceneStatus,omitempty"`
	WorkflowStatus WorkflowStatus `json:"workflowStatus"`
	Completed      int            `json:"completed"`
	Failed         int            `json:"failed"`
	Total          int            `json:"total"`
	Message        string         `json:"message,omitempty"`
}

// WSCompleteMessage is sent when a project run or a stitch finishes
type WSCompleteMessage struct {
	Type      string      `json:"type"`
	ProjectID string      `json:"projectId"`
	Result    interface{} `json:"result"`
}

// WSErrorMessage represents an error
type WSErrorMessage struct {
	Type      string  `json:"type"`
	ProjectID string  `json:"projectId"`
	Error     WSError `json:"error"`
}

// WSError represents error details
type WSError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
