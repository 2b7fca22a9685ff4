package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/BillMorio/Video-Agent-sub002/internal/model"
)

// maxPollFailures is how many consecutive transient poll errors are
// tolerated before the wait is abandoned
const maxPollFailures = 3

// JobRequest is the input of one generation job. Vendors read the fields
// they need and ignore the rest.
type JobRequest struct {
	APIKey          string
	Prompt          string
	AvatarID        string
	AvatarScale     float64
	AudioURL        string
	AspectRatio     string
	DurationSeconds float64
}

// JobProvider is an asynchronous generation vendor: submit returns a job
// id, poll returns the job's current normalised status.
type JobProvider interface {
	ID() string
	Submit(ctx context.Context, req *JobRequest) (*model.RenderJob, error)
	Poll(ctx context.Context, apiKey, externalJobID string) (*model.RenderJob, error)
}

// JobHandle is a submitted job awaiting completion
type JobHandle struct {
	Provider JobProvider
	APIKey   string
	Job      *model.RenderJob
}

// Poller drives JobProviders from submission to a terminal status
type Poller struct {
	now func() time.Time
}

// NewPoller creates a poller
func NewPoller() *Poller {
	return &Poller{now: time.Now}
}

// Submit starts a job on provider
func (p *Poller) Submit(ctx context.Context, provider JobProvider, req *JobRequest) (*JobHandle, error) {
	job, err := provider.Submit(ctx, req)
	if err != nil {
		return nil, err
	}
	if job.ProviderID == "" {
		job.ProviderID = provider.ID()
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = p.now()
	}

	log.Info().Str("provider", provider.ID()).Str("job_id", job.ExternalJobID).Str("status", string(job.Status)).Msg("job submitted")

	return &JobHandle{Provider: provider, APIKey: req.APIKey, Job: job}, nil
}

// AwaitCompletion polls the job every interval until it is completed or
// failed. It returns a *TimeoutError once maxWait has elapsed; the last wait
// is shortened so the deadline is never overshot by a full interval.
func (p *Poller) AwaitCompletion(ctx context.Context, h *JobHandle, interval, maxWait time.Duration) (*model.RenderJob, error) {
	if h.Job.Status.IsTerminal() {
		return h.Job, nil
	}

	providerID := h.Provider.ID()
	deadline := p.now().Add(maxWait)
	attempt := 0
	failures := 0

	timer := time.NewTimer(min(interval, max(maxWait, 0)))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Warn().Str("provider", providerID).Str("job_id", h.Job.ExternalJobID).Msg("poll cancelled")
			return nil, ctx.Err()
		case <-timer.C:
		}

		attempt++
		job, err := h.Provider.Poll(ctx, h.APIKey, h.Job.ExternalJobID)
		switch {
		case err == nil:
			failures = 0
			if job.ProviderID == "" {
				job.ProviderID = providerID
			}
			if job.ExternalJobID == "" {
				job.ExternalJobID = h.Job.ExternalJobID
			}
			job.SubmittedAt = h.Job.SubmittedAt
			h.Job = job

			log.Debug().Str("provider", providerID).Str("job_id", job.ExternalJobID).Int("attempt", attempt).Str("status", string(job.Status)).Msg("poll")

			if job.Status.IsTerminal() {
				return job, nil
			}
		case IsTransient(err) && failures+1 < maxPollFailures:
			failures++
			log.Warn().Err(err).Str("provider", providerID).Int("attempt", attempt).Msg("transient poll error")
		default:
			return nil, err
		}

		remaining := deadline.Sub(p.now())
		if remaining <= 0 {
			return nil, &TimeoutError{Provider: providerID, JobID: h.Job.ExternalJobID, Waited: maxWait}
		}
		timer.Reset(min(interval, remaining))
	}
}

// Run submits a job and waits for it. A failed job or a completed job
// without a result URL is returned as an error.
func (p *Poller) Run(ctx context.Context, provider JobProvider, req *JobRequest, interval, maxWait time.Duration) (*model.RenderJob, error) {
	h, err := p.Submit(ctx, provider, req)
	if err != nil {
		return nil, err
	}

	job, err := p.AwaitCompletion(ctx, h, interval, maxWait)
	if err != nil {
		return nil, err
	}

	if job.Status == model.JobFailed {
		return job, &JobFailedError{Provider: provider.ID(), JobID: job.ExternalJobID, Message: job.Error}
	}
	if job.ResultURL == "" {
		return job, &ProtocolError{
			Provider: provider.ID(),
			Err:      fmt.Errorf("job %s completed without a result url", job.ExternalJobID),
		}
	}
	return job, nil
}

// NormalizeStatus maps a vendor status word onto the job vocabulary.
// Unknown words count as still processing.
func NormalizeStatus(raw string) model.JobStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "created", "pending", "queued", "waiting", "submitted":
		return model.JobCreated
	case "completed", "complete", "success", "succeeded", "done":
		return model.JobCompleted
	case "failed", "failure", "error", "cancelled", "canceled":
		return model.JobFailed
	default:
		return model.JobProcessing
	}
}
