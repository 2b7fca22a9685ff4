package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BillMorio/Video-Agent-sub002/internal/apperr"
	"github.com/BillMorio/Video-Agent-sub002/internal/model"
	"github.com/BillMorio/Video-Agent-sub002/internal/service"
)

type fakeStepper struct {
	result   *model.StepResult
	err      error
	enqueued []string
}

func (f *fakeStepper) Step(ctx context.Context, projectID string) (*model.StepResult, error) {
	return f.result, f.err
}

func (f *fakeStepper) Enqueue(ctx context.Context, projectID string) (*asynq.TaskInfo, error) {
	f.enqueued = append(f.enqueued, projectID)
	return &asynq.TaskInfo{ID: "next"}, nil
}

func advanceTask(t *testing.T, projectID string) *asynq.Task {
	t.Helper()
	task, err := service.NewAdvanceTask(projectID)
	require.NoError(t, err)
	return task
}

func TestProductionWorkerChainsWhileWorkRemains(t *testing.T) {
	tests := []struct {
		name    string
		result  *model.StepResult
		chained bool
	}{
		{"completed with pending scenes", &model.StepResult{Outcome: model.StepCompleted, Pending: 2}, true},
		{"failed with pending scenes", &model.StepResult{Outcome: model.StepFailed, Pending: 1}, true},
		{"last scene", &model.StepResult{Outcome: model.StepCompleted, Pending: 0}, false},
		{"idle", &model.StepResult{Outcome: model.StepIdle}, false},
		{"contended", &model.StepResult{Outcome: model.StepContended}, false},
		{"superseded by a reset", &model.StepResult{Outcome: model.StepSuperseded, Pending: 3}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stepper := &fakeStepper{result: tt.result}
			w := NewProductionWorker(stepper)

			require.NoError(t, w.ProcessTask(context.Background(), advanceTask(t, "p1")))
			if tt.chained {
				assert.Equal(t, []string{"p1"}, stepper.enqueued)
			} else {
				assert.Empty(t, stepper.enqueued)
			}
		})
	}
}

func TestProductionWorkerErrors(t *testing.T) {
	w := NewProductionWorker(&fakeStepper{})
	err := w.ProcessTask(context.Background(), asynq.NewTask(service.TaskTypeAdvance, []byte("{")))
	assert.True(t, errors.Is(err, asynq.SkipRetry))

	err = w.ProcessTask(context.Background(), asynq.NewTask(service.TaskTypeAdvance, []byte(`{}`)))
	assert.True(t, errors.Is(err, asynq.SkipRetry))

	gone := &fakeStepper{err: apperr.NotFound("project", "p1")}
	assert.NoError(t, NewProductionWorker(gone).ProcessTask(context.Background(), advanceTask(t, "p1")))

	broken := &fakeStepper{err: errors.New("database is locked")}
	err = NewProductionWorker(broken).ProcessTask(context.Background(), advanceTask(t, "p1"))
	require.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))
	assert.Empty(t, broken.enqueued)
}

type countingSweeper struct {
	calls atomic.Int32
}

func (s *countingSweeper) Sweep(ctx context.Context) (int, error) {
	s.calls.Add(1)
	return 1, nil
}

func TestScheduler(t *testing.T) {
	_, err := NewScheduler("not a spec", &countingSweeper{})
	assert.Error(t, err)

	sweeper := &countingSweeper{}
	s, err := NewScheduler("@every 1m", sweeper)
	require.NoError(t, err)

	s.RunOnce()
	assert.EqualValues(t, 1, sweeper.calls.Load())

	s.Start()
	s.Stop()
}
