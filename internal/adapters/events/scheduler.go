package events

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Job is one periodic governance task.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler runs each job on its own ticker. A job never overlaps with itself;
// a slow run simply delays the next tick.
type Scheduler struct {
	logger *slog.Logger
	jobs   []Job
}

func NewScheduler(logger *slog.Logger, jobs ...Job) *Scheduler {
	enabled := make([]Job, 0, len(jobs))
	for _, job := range jobs {
		if job.Interval > 0 && job.Run != nil {
			enabled = append(enabled, job)
		}
	}
	return &Scheduler{logger: logger, jobs: enabled}
}

func (s *Scheduler) Jobs() []Job {
	return s.jobs
}

// Run blocks until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	if len(s.jobs) == 0 {
		<-ctx.Done()
		return ctx.Err()
	}
	done := make(chan struct{}, len(s.jobs))
	for _, job := range s.jobs {
		go func(job Job) {
			defer func() { done <- struct{}{} }()
			s.loop(ctx, job)
		}(job)
	}
	for range s.jobs {
		<-done
	}
	return ctx.Err()
}

func (s *Scheduler) loop(ctx context.Context, job Job) {
	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		s.runOnce(ctx, job)
	}
}

func (s *Scheduler) runOnce(ctx context.Context, job Job) {
	started := time.Now()
	err := job.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.ErrorContext(ctx, "scheduled job failed",
			"module", "events.scheduler",
			"layer", "adapter",
			"operation", job.Name,
			"outcome", "failure",
			"error", err,
		)
		return
	}
	s.logger.InfoContext(ctx, "scheduled job finished",
		"module", "events.scheduler",
		"layer", "adapter",
		"operation", job.Name,
		"outcome", "success",
		"duration_ms", time.Since(started).Milliseconds(),
	)
}
