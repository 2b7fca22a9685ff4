package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/BillMorio/Video-Agent-sub002/internal/config"
)

// maxSourceBytes caps a media download forwarded to the render backend
const maxSourceBytes = 512 << 20

// MediaRenderer is the local FFmpeg render backend
type MediaRenderer interface {
	TrimAudio(ctx context.Context, sourceURL string, start, duration float64) (*RenderOutput, error)
	ConformSpeed(ctx context.Context, sourceURL string, targetDuration float64) (*RenderOutput, error)
	KenBurns(ctx context.Context, imageURL, audioURL, zoomType string) (*RenderOutput, error)
	Stitch(ctx context.Context, req *StitchRequest) (*StitchResponse, error)
}

// LocalRenderClient implements MediaRenderer over the FFmpeg HTTP server
type LocalRenderClient struct {
	httpClient     *http.Client
	downloadClient *http.Client
	baseURL        string
	stitchTimeout  time.Duration
}

// RenderOutput is the answer of the single-asset endpoints
type RenderOutput struct {
	OutputFile       string  `json:"outputFile"`
	PublicURL        string  `json:"publicUrl"`
	SpeedApplied     float64 `json:"speedApplied,omitempty"`
	OriginalDuration float64 `json:"originalDuration,omitempty"`
}

// SceneSummary is the per-scene metadata the stitcher uses to pick transitions
type SceneSummary struct {
	ID             string  `json:"id"`
	Index          int     `json:"index"`
	VisualType     string  `json:"visual_type"`
	Duration       float64 `json:"duration"`
	TransitionType string  `json:"transition_type,omitempty"`
	URL            string  `json:"url"`
}

// StitchGlobalSettings are project-wide stitch settings
type StitchGlobalSettings struct {
	LightLeakOverlayURL string `json:"lightLeakOverlayUrl,omitempty"`
}

// StitchRequest is posted to /api/project/stitch
type StitchRequest struct {
	SceneURLs         []string             `json:"sceneUrls"`
	Scenes            []SceneSummary       `json:"scenes"`
	Transition        string               `json:"transition"`
	Duration          float64              `json:"duration"`
	UseFadeTransition bool                 `json:"useFadeTransition"`
	UseLightLeak      bool                 `json:"useLightLeak"`
	GlobalSettings    StitchGlobalSettings `json:"globalSettings"`
}

// StitchResponse is the stitcher's success answer. Raw keeps the whole body
// for callers that forward it.
type StitchResponse struct {
	PublicURL  string                 `json:"publicUrl"`
	OutputFile string                 `json:"outputFile"`
	Raw        map[string]interface{} `json:"-"`
}

type backendErrorBody struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Stderr  interface{} `json:"stderr"`
	Details interface{} `json:"details"`
}

// NewLocalRenderClient creates a client for the FFmpeg render server
func NewLocalRenderClient(cfg *config.RenderConfig) *LocalRenderClient {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &LocalRenderClient{
		httpClient:     &http.Client{Timeout: 5 * time.Minute},
		downloadClient: &http.Client{Timeout: 2 * time.Minute},
		baseURL:        cfg.LocalURL,
		stitchTimeout:  timeout,
	}
}

// TrimAudio cuts [start, start+duration) out of the source audio
func (c *LocalRenderClient) TrimAudio(ctx context.Context, sourceURL string, start, duration float64) (*RenderOutput, error) {
	fields := map[string]string{
		"start":    formatSeconds(start),
		"duration": formatSeconds(duration),
	}
	var out RenderOutput
	if err := c.postMultipart(ctx, "/api/audio-trim", map[string]string{"file": sourceURL}, fields, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ConformSpeed retimes a clip so it lasts targetDuration seconds
func (c *LocalRenderClient) ConformSpeed(ctx context.Context, sourceURL string, targetDuration float64) (*RenderOutput, error) {
	fields := map[string]string{"targetDuration": formatSeconds(targetDuration)}
	var out RenderOutput
	if err := c.postMultipart(ctx, "/api/speed", map[string]string{"file": sourceURL}, fields, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// KenBurns animates a still image over the narration segment
func (c *LocalRenderClient) KenBurns(ctx context.Context, imageURL, audioURL, zoomType string) (*RenderOutput, error) {
	files := map[string]string{"image": imageURL}
	if audioURL != "" {
		files["audio"] = audioURL
	}
	if zoomType == "" {
		zoomType = "in"
	}
	var out RenderOutput
	if err := c.postMultipart(ctx, "/api/ken-burns", files, map[string]string{"zoomType": zoomType}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Stitch assembles the scene clips into the master video. The call is
// bounded by the stitch timeout; the backend keeps working if we give up.
func (c *LocalRenderClient) Stitch(ctx context.Context, req *StitchRequest) (*StitchResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.stitchTimeout)
	defer cancel()

	bodyBytes, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/project/stitch", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	log.Info().Int("scenes", len(req.SceneURLs)).Str("transition", req.Transition).Msg("stitch requested")

	// the stitch bound is the context, not the client timeout
	client := &http.Client{}
	raw, err := c.send(client, httpReq)
	if err != nil {
		return nil, err
	}

	var out StitchResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &ProtocolError{Provider: "render", Body: string(raw), Err: err}
	}
	_ = json.Unmarshal(raw, &out.Raw)
	if out.PublicURL == "" {
		return nil, &BackendError{StatusCode: http.StatusBadGateway, Message: "stitch finished without a public url", Details: out.Raw}
	}
	return &out, nil
}

// postMultipart downloads each source URL and uploads it as a form file
func (c *LocalRenderClient) postMultipart(ctx context.Context, endpoint string, files, fields map[string]string, result interface{}) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for field, sourceURL := range files {
		data, err := c.download(ctx, sourceURL)
		if err != nil {
			return err
		}
		part, err := w.CreateFormFile(field, sourceName(field, data))
		if err != nil {
			return fmt.Errorf("failed to create form file: %w", err)
		}
		if _, err := part.Write(data); err != nil {
			return fmt.Errorf("failed to write form file: %w", err)
		}
	}
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return fmt.Errorf("failed to write form field: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, &buf)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	raw, err := c.send(c.httpClient, req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, result); err != nil {
		return &ProtocolError{Provider: "render", Body: string(raw), Err: err}
	}
	return nil
}

// send executes req and turns a failed answer into a *BackendError carrying
// the backend's message and diagnostics
func (c *LocalRenderClient) send(client *http.Client, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("render backend request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read render backend response: %w", err)
	}

	log.Debug().Int("status", resp.StatusCode).Str("url", req.URL.String()).Str("body", truncate(string(raw), 500)).Msg("render backend response")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, parseBackendError(resp.StatusCode, raw)
	}
	return raw, nil
}

func (c *LocalRenderClient) download(ctx context.Context, sourceURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid source url %q: %w", sourceURL, err)
	}
	resp, err := c.downloadClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", sourceURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("failed to download %s: status %d", sourceURL, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSourceBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", sourceURL, err)
	}
	return data, nil
}

func parseBackendError(status int, raw []byte) *BackendError {
	var body backendErrorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return &BackendError{StatusCode: status, Message: fmt.Sprintf("render backend error (status %d): %s", status, truncate(string(raw), 300))}
	}
	msg := body.Error
	if msg == "" {
		msg = body.Message
	}
	if msg == "" {
		msg = fmt.Sprintf("render backend error (status %d)", status)
	}
	details := body.Stderr
	if details == nil {
		details = body.Details
	}
	return &BackendError{StatusCode: status, Message: msg, Details: details}
}

// sourceName builds an upload filename with the sniffed extension
func sourceName(field string, data []byte) string {
	ext, _ := DetectMedia(data)
	if ext == "" {
		return field + ".bin"
	}
	return field + "." + ext
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
