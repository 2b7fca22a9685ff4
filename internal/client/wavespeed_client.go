package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/BillMorio/Video-Agent-sub002/internal/config"
	"github.com/BillMorio/Video-Agent-sub002/internal/model"
)

// WavespeedProviderID identifies the text-to-image vendor
const WavespeedProviderID = "wavespeed"

// WavespeedClient implements JobProvider for Wavespeed text-to-image
type WavespeedClient struct {
	api    *apiClient
	apiKey string
	model  string
}

type wavespeedSubmitRequest struct {
	Prompt             string `json:"prompt"`
	EnableBase64Output bool   `json:"enable_base64_output"`
	EnableSyncMode     bool   `json:"enable_sync_mode"`
	OutputFormat       string `json:"output_format"`
	AspectRatio        string `json:"aspect_ratio,omitempty"`
}

// wavespeedPrediction covers both the wrapped ({data: {...}}) and the bare
// shapes the API answers with
type wavespeedPrediction struct {
	ID        string          `json:"id"`
	RequestID string          `json:"request_id"`
	Status    string          `json:"status"`
	Outputs   json.RawMessage `json:"outputs"`
	Error     interface{}     `json:"error"`
	Data      *struct {
		ID      string          `json:"id"`
		Status  string          `json:"status"`
		Outputs json.RawMessage `json:"outputs"`
		Error   interface{}     `json:"error"`
	} `json:"data"`
}

func (p *wavespeedPrediction) jobID() string {
	if p.Data != nil && p.Data.ID != "" {
		return p.Data.ID
	}
	if p.ID != "" {
		return p.ID
	}
	return p.RequestID
}

func (p *wavespeedPrediction) status() string {
	if p.Data != nil && p.Data.Status != "" {
		return p.Data.Status
	}
	return p.Status
}

func (p *wavespeedPrediction) output() string {
	if p.Data != nil {
		if out := FirstOutput(p.Data.Outputs); out != "" {
			return out
		}
	}
	return FirstOutput(p.Outputs)
}

func (p *wavespeedPrediction) errorText() string {
	if p.Data != nil {
		if msg := describe(p.Data.Error); msg != "" {
			return msg
		}
	}
	return describe(p.Error)
}

// NewWavespeedClient creates a new Wavespeed API client
func NewWavespeedClient(cfg *config.WavespeedConfig) *WavespeedClient {
	return &WavespeedClient{
		api: newAPIClient(WavespeedProviderID, cfg.BaseURL, 60*time.Second, cfg.RequestsPerSec, func(req *http.Request, key string) {
			req.Header.Set("Authorization", "Bearer "+key)
		}),
		apiKey: cfg.APIKey,
		model:  cfg.Model,
	}
}

// ID returns the provider identifier
func (c *WavespeedClient) ID() string { return WavespeedProviderID }

// Submit starts an image generation. Some answers already carry the output,
// in which case the returned job is completed.
func (c *WavespeedClient) Submit(ctx context.Context, req *JobRequest) (*model.RenderJob, error) {
	if req.Prompt == "" {
		return nil, fmt.Errorf("wavespeed: prompt is required")
	}

	body := wavespeedSubmitRequest{
		Prompt:       req.Prompt,
		OutputFormat: "png",
		AspectRatio:  req.AspectRatio,
	}

	var result wavespeedPrediction
	empty, err := c.api.postJSON(ctx, c.key(req.APIKey), "/api/v3/"+c.model, body, &result)
	if err != nil {
		return nil, err
	}
	if empty {
		return nil, &ProtocolError{Provider: WavespeedProviderID, Err: fmt.Errorf("empty submit response")}
	}

	job := &model.RenderJob{ProviderID: WavespeedProviderID, ExternalJobID: result.jobID(), Status: model.JobCreated}
	if out := result.output(); out != "" {
		job.Status = model.JobCompleted
		job.ResultURL = out
		return job, nil
	}
	if job.ExternalJobID == "" {
		return nil, &ProtocolError{Provider: WavespeedProviderID, Err: fmt.Errorf("no prediction id in response")}
	}
	return job, nil
}

// Poll retrieves a prediction result. A null body means the prediction is
// still initialising.
func (c *WavespeedClient) Poll(ctx context.Context, apiKey, predictionID string) (*model.RenderJob, error) {
	var result wavespeedPrediction
	empty, err := c.api.getJSON(ctx, c.key(apiKey), "/api/v3/predictions/"+url.PathEscape(predictionID)+"/result", &result)
	if err != nil {
		return nil, err
	}

	job := &model.RenderJob{ProviderID: WavespeedProviderID, ExternalJobID: predictionID, Status: model.JobCreated}
	if empty {
		return job, nil
	}

	job.Status = NormalizeStatus(result.status())
	job.ResultURL = result.output()
	switch {
	case job.ResultURL != "" && job.Status != model.JobFailed:
		// an attached output wins over a lagging status word
		job.Status = model.JobCompleted
	case job.Status == model.JobCompleted && job.ResultURL == "":
		job.Status = model.JobProcessing
	}
	if job.Status == model.JobFailed {
		job.Error = result.errorText()
	}
	return job, nil
}

// IsConfigured returns true if the client has valid configuration
func (c *WavespeedClient) IsConfigured() bool {
	return c.apiKey != ""
}

func (c *WavespeedClient) key(override string) string {
	if override != "" {
		return override
	}
	return c.apiKey
}
