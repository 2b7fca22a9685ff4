package client

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/BillMorio/Video-Agent-sub002/internal/config"
	"github.com/BillMorio/Video-Agent-sub002/internal/model"
)

// VeoProviderID identifies the generated graphics vendor
const VeoProviderID = "veo"

// GoogleKeyID names the Google API key in per-project overrides
const GoogleKeyID = "google"

const expandInstruction = "You write prompts for a text-to-image model. Rewrite the user's idea into one vivid, " +
	"concrete image prompt: subject, setting, lighting, lens and style. Answer with the prompt only."

// GoogleClient wraps the Gemini API for Veo video generation and prompt
// expansion. Clients are cached per API key so project overrides work.
type GoogleClient struct {
	apiKey      string
	geminiModel string
	veoModel    string
	limiter     *rate.Limiter
	httpClient  *http.Client

	mu      sync.Mutex
	clients map[string]*genai.Client
}

// NewGoogleClient creates a new Gemini API client
func NewGoogleClient(cfg *config.GoogleConfig) *GoogleClient {
	return &GoogleClient{
		apiKey:      cfg.APIKey,
		geminiModel: cfg.GeminiModel,
		veoModel:    cfg.VeoModel,
		limiter:     rate.NewLimiter(rate.Every(time.Second), 2),
		httpClient:  &http.Client{Timeout: 5 * time.Minute},
		clients:     make(map[string]*genai.Client),
	}
}

func (c *GoogleClient) client(ctx context.Context, override string) (*genai.Client, error) {
	key := override
	if key == "" {
		key = c.apiKey
	}
	if key == "" {
		return nil, fmt.Errorf("google: no API key configured")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gc, ok := c.clients[key]; ok {
		return gc, nil
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	c.clients[key] = gc
	return gc, nil
}

// ID returns the provider identifier
func (c *GoogleClient) ID() string { return VeoProviderID }

// Submit starts a Veo video generation
func (c *GoogleClient) Submit(ctx context.Context, req *JobRequest) (*model.RenderJob, error) {
	if req.Prompt == "" {
		return nil, fmt.Errorf("veo: prompt is required")
	}
	gc, err := c.client(ctx, req.APIKey)
	if err != nil {
		return nil, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	cfg := &genai.GenerateVideosConfig{AspectRatio: req.AspectRatio}
	if req.AspectRatio == model.AspectSquare {
		cfg.AspectRatio = model.AspectLandscape
	}
	if req.DurationSeconds > 0 {
		seconds := int32(math.Ceil(req.DurationSeconds))
		if seconds > 8 {
			seconds = 8
		}
		cfg.DurationSeconds = genai.Ptr(seconds)
	}

	op, err := gc.Models.GenerateVideos(ctx, c.veoModel, req.Prompt, nil, cfg)
	if err != nil {
		return nil, fmt.Errorf("veo submit failed: %w", err)
	}

	return operationJob(op), nil
}

// Poll refreshes a long-running Veo operation
func (c *GoogleClient) Poll(ctx context.Context, apiKey, operationName string) (*model.RenderJob, error) {
	gc, err := c.client(ctx, apiKey)
	if err != nil {
		return nil, err
	}

	op, err := gc.Operations.GetVideosOperation(ctx, &genai.GenerateVideosOperation{Name: operationName}, nil)
	if err != nil {
		return nil, fmt.Errorf("veo poll failed: %w", err)
	}
	return operationJob(op), nil
}

func operationJob(op *genai.GenerateVideosOperation) *model.RenderJob {
	job := &model.RenderJob{ProviderID: VeoProviderID, ExternalJobID: op.Name, Status: model.JobProcessing}
	if !op.Done {
		return job
	}
	if len(op.Error) > 0 {
		job.Status = model.JobFailed
		job.Error = describe(op.Error)
		return job
	}
	if op.Response != nil {
		for _, v := range op.Response.GeneratedVideos {
			if v != nil && v.Video != nil && v.Video.URI != "" {
				job.Status = model.JobCompleted
				job.ResultURL = v.Video.URI
				return job
			}
		}
	}
	job.Status = model.JobFailed
	job.Error = "operation finished without a generated video (likely filtered)"
	return job
}

// Download streams a generated file. Gemini file URIs need the API key.
func (c *GoogleClient) Download(ctx context.Context, apiKey, uri string) (io.ReadCloser, error) {
	key := apiKey
	if key == "" {
		key = c.apiKey
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("x-goog-api-key", key)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("veo download failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		resp.Body.Close()
		return nil, &ProviderError{Provider: VeoProviderID, StatusCode: resp.StatusCode, Body: string(body)}
	}
	return resp.Body, nil
}

// ExpandPrompt turns a short visual idea into a detailed image prompt. On
// any failure the original idea is returned with the error.
func (c *GoogleClient) ExpandPrompt(ctx context.Context, apiKey, idea string) (string, error) {
	gc, err := c.client(ctx, apiKey)
	if err != nil {
		return idea, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return idea, err
	}

	resp, err := gc.Models.GenerateContent(ctx, c.geminiModel, genai.Text(idea), &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: expandInstruction}}},
		Temperature:       genai.Ptr[float32](0.7),
	})
	if err != nil {
		return idea, fmt.Errorf("gemini expand failed: %w", err)
	}

	expanded := strings.TrimSpace(resp.Text())
	if expanded == "" {
		return idea, nil
	}
	log.Debug().Str("idea", idea).Str("prompt", expanded).Msg("prompt expanded")
	return expanded, nil
}

// IsConfigured returns true if the client has valid configuration
func (c *GoogleClient) IsConfigured() bool {
	return c.apiKey != ""
}
