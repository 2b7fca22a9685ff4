package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// apiClient is the JSON-over-HTTP plumbing shared by the vendor clients
type apiClient struct {
	name       string
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	authorize  func(req *http.Request, apiKey string)
}

func newAPIClient(name, baseURL string, timeout time.Duration, requestsPerSec float64, authorize func(*http.Request, string)) *apiClient {
	return &apiClient{
		name:       name,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		limiter:    newLimiter(requestsPerSec),
		authorize:  authorize,
	}
}

// newLimiter paces calls to one vendor. Zero or negative means unlimited.
func newLimiter(requestsPerSec float64) *rate.Limiter {
	if requestsPerSec <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	burst := int(requestsPerSec)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(requestsPerSec), burst)
}

// postJSON sends body as JSON and decodes the envelope into result. It
// reports empty=true when the vendor answered with an empty or null body.
func (c *apiClient) postJSON(ctx context.Context, apiKey, endpoint string, body, result interface{}) (bool, error) {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return false, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.doRequest(req, apiKey, result)
}

// getJSON sends a GET request and decodes the envelope into result
func (c *apiClient) getJSON(ctx context.Context, apiKey, endpoint string, result interface{}) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}

	return c.doRequest(req, apiKey, result)
}

// doRequest executes an HTTP request and parses the response
func (c *apiClient) doRequest(req *http.Request, apiKey string, result interface{}) (bool, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return false, err
	}
	req.Header.Set("Accept", "application/json")
	if c.authorize != nil {
		c.authorize(req, apiKey)
	}

	log.Debug().Str("provider", c.name).Str("method", req.Method).Str("url", req.URL.String()).Msg("vendor request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("provider", c.name).Str("url", req.URL.String()).Msg("vendor request failed")
		return false, fmt.Errorf("%s request failed: %w", c.name, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("failed to read %s response: %w", c.name, err)
	}

	log.Debug().
		Str("provider", c.name).
		Int("status", resp.StatusCode).
		Str("url", req.URL.String()).
		Str("body", truncate(string(respBody), 500)).
		Msg("vendor response")

	return DecodeEnvelope(c.name, resp.StatusCode, respBody, result)
}

// DecodeEnvelope normalises a vendor answer. Non-2xx becomes a
// *ProviderError and an unparseable 2xx body a *ProtocolError. An empty or
// literal null body is reported as empty so pollers keep waiting.
func DecodeEnvelope(provider string, statusCode int, body []byte, result interface{}) (bool, error) {
	if statusCode < 200 || statusCode >= 300 {
		return false, &ProviderError{Provider: provider, StatusCode: statusCode, Body: string(body)}
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return true, nil
	}

	if result == nil {
		return false, nil
	}
	if err := json.Unmarshal(trimmed, result); err != nil {
		return false, &ProtocolError{Provider: provider, Body: string(body), Err: err}
	}
	return false, nil
}

// FirstOutput extracts one URL from an outputs field that may be a single
// string, an array of strings or an array of objects carrying a url.
func FirstOutput(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}

	var single string
	if err := json.Unmarshal(trimmed, &single); err == nil {
		return single
	}

	var list []json.RawMessage
	if err := json.Unmarshal(trimmed, &list); err != nil {
		return ""
	}
	for _, item := range list {
		if err := json.Unmarshal(item, &single); err == nil && single != "" {
			return single
		}
		var obj struct {
			URL string `json:"url"`
		}
		if err := json.Unmarshal(item, &obj); err == nil && obj.URL != "" {
			return obj.URL
		}
	}
	return ""
}
