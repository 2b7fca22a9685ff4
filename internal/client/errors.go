package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ProviderError is a non-2xx answer from a vendor API
type ProviderError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.StatusCode, e.Body)
}

// ProtocolError is a 2xx answer whose body could not be understood
type ProtocolError struct {
	Provider string
	Body     string
	Err      error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s returned an unreadable response: %v (body: %s)", e.Provider, e.Err, truncate(e.Body, 300))
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// TimeoutError is returned when a job did not reach a terminal status in time
type TimeoutError struct {
	Provider string
	JobID    string
	Waited   time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s job %s timed out after %v", e.Provider, e.JobID, e.Waited)
}

// JobFailedError is a terminal failure reported by the vendor for a job
type JobFailedError struct {
	Provider string
	JobID    string
	Message  string
}

func (e *JobFailedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s job %s failed", e.Provider, e.JobID)
	}
	return fmt.Sprintf("%s job %s failed: %s", e.Provider, e.JobID, e.Message)
}

// BackendError is a render backend failure. Message is the backend's own
// error text and Details its diagnostic payload (e.g. ffmpeg stderr).
type BackendError struct {
	StatusCode int
	Message    string
	Details    interface{}
}

func (e *BackendError) Error() string {
	return e.Message
}

// IsTransient reports whether err may succeed on a later attempt: 5xx
// answers, 429, poll timeouts and network deadlines.
func IsTransient(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.StatusCode >= 500 || pe.StatusCode == http.StatusTooManyRequests
	}
	var be *BackendError
	if errors.As(err, &be) {
		return be.StatusCode >= 500
	}
	var te *TimeoutError
	if errors.As(err, &te) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
