package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Sweeper resumes stalled projects. *service.ProductionService implements it.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// Scheduler runs the production sweep on a cron spec
type Scheduler struct {
	cron    *cron.Cron
	sweeper Sweeper
	timeout time.Duration
}

// NewScheduler parses spec (standard five-field cron or a descriptor such
// as "@every 1m") and binds it to the sweeper
func NewScheduler(spec string, sweeper Sweeper) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		sweeper: sweeper,
		timeout: time.Minute,
	}
	if _, err := s.cron.AddFunc(spec, s.RunOnce); err != nil {
		return nil, fmt.Errorf("invalid sweep spec %q: %w", spec, err)
	}
	return s, nil
}

// Start runs the cron loop in its own goroutine
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the loop and waits for a running sweep to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// RunOnce performs a single sweep
func (s *Scheduler) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	queued, err := s.sweeper.Sweep(ctx)
	if err != nil {
		log.Error().Err(err).Msg("production sweep failed")
		return
	}
	if queued > 0 {
		log.Info().Int("projects", queued).Msg("production sweep queued steps")
	}
}
