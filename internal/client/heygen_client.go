package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/BillMorio/Video-Agent-sub002/internal/config"
	"github.com/BillMorio/Video-Agent-sub002/internal/model"
)

// HeyGenProviderID identifies the avatar video vendor
const HeyGenProviderID = "heygen"

// HeyGenClient implements JobProvider for HeyGen talking-avatar videos
type HeyGenClient struct {
	api             *apiClient
	apiKey          string
	defaultAvatarID string
}

type heygenGenerateRequest struct {
	VideoInputs []heygenVideoInput `json:"video_inputs"`
	Dimension   heygenDimension    `json:"dimension"`
}

type heygenVideoInput struct {
	Character heygenCharacter `json:"character"`
	Voice     heygenVoice     `json:"voice"`
}

type heygenCharacter struct {
	Type        string  `json:"type"`
	AvatarID    string  `json:"avatar_id"`
	AvatarStyle string  `json:"avatar_style"`
	Scale       float64 `json:"scale,omitempty"`
}

type heygenVoice struct {
	Type     string `json:"type"`
	AudioURL string `json:"audio_url"`
}

type heygenDimension struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type heygenGenerateResponse struct {
	Error interface{} `json:"error"`
	Data  struct {
		VideoID string `json:"video_id"`
	} `json:"data"`
}

type heygenStatusResponse struct {
	Data struct {
		Status       string      `json:"status"`
		VideoURL     string      `json:"video_url"`
		ThumbnailURL string      `json:"thumbnail_url"`
		Error        interface{} `json:"error"`
	} `json:"data"`
}

// NewHeyGenClient creates a new HeyGen API client
func NewHeyGenClient(cfg *config.HeyGenConfig) *HeyGenClient {
	return &HeyGenClient{
		api: newAPIClient(HeyGenProviderID, cfg.BaseURL, 60*time.Second, cfg.RequestsPerSec, func(req *http.Request, key string) {
			req.Header.Set("X-Api-Key", key)
		}),
		apiKey:          cfg.APIKey,
		defaultAvatarID: cfg.DefaultAvatarID,
	}
}

// ID returns the provider identifier
func (c *HeyGenClient) ID() string { return HeyGenProviderID }

// Submit starts an avatar video lip-synced to req.AudioURL
func (c *HeyGenClient) Submit(ctx context.Context, req *JobRequest) (*model.RenderJob, error) {
	avatarID := req.AvatarID
	if avatarID == "" {
		avatarID = c.defaultAvatarID
	}
	if avatarID == "" {
		return nil, fmt.Errorf("heygen: no avatar id configured")
	}
	if req.AudioURL == "" {
		return nil, fmt.Errorf("heygen: audio url is required")
	}

	width, height := dimensionsFor(req.AspectRatio)
	body := heygenGenerateRequest{
		VideoInputs: []heygenVideoInput{{
			Character: heygenCharacter{
				Type:        "avatar",
				AvatarID:    avatarID,
				AvatarStyle: "normal",
				Scale:       req.AvatarScale,
			},
			Voice: heygenVoice{Type: "audio", AudioURL: req.AudioURL},
		}},
		Dimension: heygenDimension{Width: width, Height: height},
	}

	var result heygenGenerateResponse
	empty, err := c.api.postJSON(ctx, c.key(req.APIKey), "/v2/video/generate", body, &result)
	if err != nil {
		return nil, err
	}
	if empty || result.Data.VideoID == "" {
		return nil, &ProtocolError{Provider: HeyGenProviderID, Err: fmt.Errorf("no video_id in response (error: %v)", result.Error)}
	}

	return &model.RenderJob{
		ProviderID:    HeyGenProviderID,
		ExternalJobID: result.Data.VideoID,
		Status:        model.JobCreated,
	}, nil
}

// Poll retrieves the status of a video
func (c *HeyGenClient) Poll(ctx context.Context, apiKey, videoID string) (*model.RenderJob, error) {
	var result heygenStatusResponse
	empty, err := c.api.getJSON(ctx, c.key(apiKey), "/v1/video_status.get?video_id="+url.QueryEscape(videoID), &result)
	if err != nil {
		return nil, err
	}

	job := &model.RenderJob{ProviderID: HeyGenProviderID, ExternalJobID: videoID, Status: model.JobCreated}
	if empty {
		return job, nil
	}

	job.Status = NormalizeStatus(result.Data.Status)
	job.ResultURL = result.Data.VideoURL
	job.ThumbnailURL = result.Data.ThumbnailURL
	if job.Status == model.JobFailed {
		job.Error = describe(result.Data.Error)
	}
	return job, nil
}

// IsConfigured returns true if the client has valid configuration
func (c *HeyGenClient) IsConfigured() bool {
	return c.apiKey != ""
}

func (c *HeyGenClient) key(override string) string {
	if override != "" {
		return override
	}
	return c.apiKey
}

// dimensionsFor returns the render size for an aspect ratio
func dimensionsFor(aspect string) (int, int) {
	switch aspect {
	case model.AspectPortrait:
		return 720, 1280
	case model.AspectSquare:
		return 720, 720
	default:
		return 1280, 720
	}
}

// describe renders a vendor error field that may be a string or an object
func describe(v interface{}) string {
	switch e := v.(type) {
	case nil:
		return ""
	case string:
		return e
	case map[string]interface{}:
		if msg, ok := e["message"].(string); ok {
			return msg
		}
		return fmt.Sprintf("%v", e)
	default:
		return fmt.Sprintf("%v", e)
	}
}
