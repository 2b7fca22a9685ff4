package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/BillMorio/Video-Agent-sub002/pkg/response"
)

// apiClient is a thin JSON client for the production API
type apiClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func newAPIClient(baseURL, token string) *apiClient {
	return &apiClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 15 * time.Minute},
	}
}

// do sends body (when non-nil) as JSON and decodes a 2xx answer into out.
// Error envelopes come back as Go errors carrying the server message.
func (c *apiClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 300 {
		var envelope response.ErrorResponse
		if json.Unmarshal(raw, &envelope) == nil && envelope.Error != "" {
			if envelope.Details != nil {
				details, _ := json.Marshal(envelope.Details)
				return fmt.Errorf("%s (%d %s): %s", envelope.Error, resp.StatusCode, envelope.Code, details)
			}
			return fmt.Errorf("%s (%d %s)", envelope.Error, resp.StatusCode, envelope.Code)
		}
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}
