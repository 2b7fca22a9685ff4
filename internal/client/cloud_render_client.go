package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/BillMorio/Video-Agent-sub002/internal/config"
	"github.com/BillMorio/Video-Agent-sub002/internal/model"
)

// CloudCompositionID is the composition rendered for a project master
const CloudCompositionID = "CloudSceneAssembly"

// CloudRenderer submits compositions to the cloud render backend
type CloudRenderer interface {
	Submit(ctx context.Context, comp *CloudComposition) (*CloudRenderHandle, error)
	Status(ctx context.Context, renderID, bucketName string) (*model.CloudRenderStatus, error)
}

// CloudRenderClient implements CloudRenderer over the render server HTTP API
type CloudRenderClient struct {
	api    *apiClient
	apiKey string
}

// CloudScene is one clip of a cloud composition
type CloudScene struct {
	URL              string `json:"url"`
	DurationInFrames int    `json:"durationInFrames"`
	VisualType       string `json:"visualType,omitempty"`
}

// CloudInputProps are the composition props
type CloudInputProps struct {
	Scenes                     []CloudScene `json:"scenes"`
	LightLeakURL               string       `json:"lightLeakUrl,omitempty"`
	UseFadeTransition          bool         `json:"useFadeTransition"`
	TransitionDurationInFrames int          `json:"transitionDurationInFrames"`
	AspectRatio                string       `json:"aspectRatio"`
}

// CloudComposition is the render request body
type CloudComposition struct {
	CompositionID string          `json:"compositionId"`
	InputProps    CloudInputProps `json:"inputProps"`
}

// CloudRenderHandle identifies a dispatched render
type CloudRenderHandle struct {
	RenderID   string                 `json:"renderId"`
	BucketName string                 `json:"bucketName"`
	Details    map[string]interface{} `json:"details,omitempty"`
}

type cloudStatusResponse struct {
	Status   string  `json:"status"`
	Progress float64 `json:"progress"`
	VideoURL string  `json:"videoUrl"`
	Error    string  `json:"error"`
}

// NewCloudRenderClient creates a client for the cloud render server
func NewCloudRenderClient(cfg *config.RenderConfig) *CloudRenderClient {
	return &CloudRenderClient{
		api: newAPIClient("cloud-render", cfg.CloudURL, 60*time.Second, 0, func(req *http.Request, key string) {
			if key != "" {
				req.Header.Set("Authorization", "Bearer "+key)
			}
		}),
		apiKey: cfg.CloudAPIKey,
	}
}

// Submit dispatches a composition render
func (c *CloudRenderClient) Submit(ctx context.Context, comp *CloudComposition) (*CloudRenderHandle, error) {
	var raw map[string]interface{}
	empty, err := c.api.postJSON(ctx, c.apiKey, "/lambda/render", comp, &raw)
	if err != nil {
		return nil, asBackendError(err)
	}
	if empty {
		return nil, &BackendError{StatusCode: http.StatusBadGateway, Message: "cloud render returned an empty response"}
	}

	handle := &CloudRenderHandle{Details: raw}
	handle.RenderID, _ = raw["renderId"].(string)
	handle.BucketName, _ = raw["bucketName"].(string)
	if handle.RenderID == "" {
		return nil, &BackendError{StatusCode: http.StatusBadGateway, Message: "cloud render returned no renderId", Details: raw}
	}
	return handle, nil
}

// Status returns the progress of a dispatched render
func (c *CloudRenderClient) Status(ctx context.Context, renderID, bucketName string) (*model.CloudRenderStatus, error) {
	endpoint := fmt.Sprintf("/lambda/status/%s?bucketName=%s", url.PathEscape(renderID), url.QueryEscape(bucketName))

	var result cloudStatusResponse
	if _, err := c.api.getJSON(ctx, c.apiKey, endpoint, &result); err != nil {
		return nil, asBackendError(err)
	}

	return &model.CloudRenderStatus{
		RenderID: renderID,
		Status:   result.Status,
		Progress: result.Progress,
		VideoURL: result.VideoURL,
		Error:    result.Error,
	}, nil
}

// IsConfigured returns true if the client has valid configuration
func (c *CloudRenderClient) IsConfigured() bool {
	return c.api.baseURL != ""
}

// asBackendError reshapes a provider error from the render server so its
// message and payload surface like the local backend's
func asBackendError(err error) error {
	var pe *ProviderError
	if !errors.As(err, &pe) {
		return err
	}
	return parseBackendError(pe.StatusCode, []byte(pe.Body))
}
