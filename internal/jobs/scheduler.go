// Package jobs owns all periodic work: the expiry and retention
// sweepers and the scheduler that runs them. Every run is guarded by
// a JobExecution record so two instances never sweep the same type
// concurrently, and every job can be invoked synchronously.
package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robertarktes/seat-booking-engine/internal/domain"
	"github.com/robertarktes/seat-booking-engine/internal/observability"
)

type Result struct {
	Processed int
	Errors    int
	Details   string
}

type Job interface {
	Type() string
	Interval() time.Duration
	Run(ctx context.Context) (Result, error)
}

// ExecutionStore is the advisory mutex: StartJob claims the per-type
// guard or returns domain.ErrJobAlreadyRunning.
type ExecutionStore interface {
	StartJob(ctx context.Context, jobType string) (uuid.UUID, error)
	FinishJob(ctx context.Context, id uuid.UUID, status domain.JobStatus, processed, errCount int, details string) error
}

type Scheduler struct {
	store ExecutionStore
	log   observability.Logger
	jobs  map[string]Job
	order []string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewScheduler(store ExecutionStore, log observability.Logger) *Scheduler {
	return &Scheduler{
		store: store,
		log:   log,
		jobs:  make(map[string]Job),
	}
}

func (s *Scheduler) Register(job Job) {
	s.jobs[job.Type()] = job
	s.order = append(s.order, job.Type())
}

// Start launches one ticker goroutine per job. Call Stop to drain.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	for _, name := range s.order {
		job := s.jobs[name]
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			ticker := time.NewTicker(job.Interval())
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if _, err := s.RunNow(ctx, job.Type()); err != nil && err != domain.ErrJobAlreadyRunning {
						s.log.WithField("job", job.Type()).WithError(err).Error("sweep failed")
					}
				}
			}
		}()
	}
}

func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// RunNow executes one guarded sweep synchronously. A run of the same
// type already holding the guard yields domain.ErrJobAlreadyRunning
// and no scan.
func (s *Scheduler) RunNow(ctx context.Context, jobType string) (Result, error) {
	job, ok := s.jobs[jobType]
	if !ok {
		return Result{}, fmt.Errorf("unknown job type %q: %w", jobType, domain.ErrNotFound)
	}

	execID, err := s.store.StartJob(ctx, jobType)
	if err != nil {
		return Result{}, err
	}

	res, runErr := job.Run(ctx)
	observability.SweepProcessed.WithLabelValues(jobType).Add(float64(res.Processed))
	observability.SweepErrors.WithLabelValues(jobType).Add(float64(res.Errors))

	status := domain.JobCompleted
	if runErr != nil {
		status = domain.JobFailed
		if res.Details == "" {
			res.Details = runErr.Error()
		}
	}
	if err := s.store.FinishJob(ctx, execID, status, res.Processed, res.Errors, res.Details); err != nil {
		s.log.WithField("job", jobType).WithError(err).Error("failed to record job result")
	}
	return res, runErr
}
