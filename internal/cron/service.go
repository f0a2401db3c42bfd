package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/shelfwatch-backend/pkg/clock"
	"github.com/angelmondragon/shelfwatch-backend/pkg/logger"
	"github.com/angelmondragon/shelfwatch-backend/pkg/metrics"
)

const defaultInterval = time.Minute

// ServiceParams configure the cron service.
type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	// Lock is an optional cross-process lease taken after the in-process guard.
	Lock     Lock
	Metrics  *metrics.SchedulerMetrics
	Interval time.Duration
	// Ticks replaces the interval ticker when set. Run returns when it closes.
	Ticks <-chan time.Time
	Clock clock.Clock
}

// Service runs every registered job once per tick. A tick that arrives while
// a cycle is still running is dropped rather than queued.
type Service struct {
	logg     *logger.Logger
	registry *Registry
	guard    MutexLock
	lock     Lock
	metrics  *metrics.SchedulerMetrics
	interval time.Duration
	ticks    <-chan time.Time
	clock    clock.Clock
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Registry == nil {
		params.Registry = NewRegistry()
	}
	if params.Interval <= 0 {
		params.Interval = defaultInterval
	}
	if params.Clock == nil {
		params.Clock = clock.NewSystem(time.UTC)
	}
	return &Service{
		logg:     params.Logger,
		registry: params.Registry,
		lock:     params.Lock,
		metrics:  params.Metrics,
		interval: params.Interval,
		ticks:    params.Ticks,
		clock:    params.Clock,
	}, nil
}

// Run blocks until ctx is canceled or the injected tick channel closes. With
// the default ticker the first cycle runs immediately.
func (s *Service) Run(ctx context.Context) error {
	ticks := s.ticks
	if ticks == nil {
		s.tick(ctx)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		ticks = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "cron service stopping")
			return ctx.Err()
		case _, ok := <-ticks:
			if !ok {
				return nil
			}
			s.tick(ctx)
		}
	}
}

// RunOnce executes a single cycle synchronously.
func (s *Service) RunOnce(ctx context.Context) error {
	return s.runCycle(ctx)
}

func (s *Service) tick(ctx context.Context) {
	if err := s.runCycle(ctx); err != nil && ctx.Err() == nil {
		s.logg.Error(ctx, "cron cycle failed", err)
	}
}

func (s *Service) runCycle(ctx context.Context) error {
	if ok, _ := s.guard.Acquire(ctx); !ok {
		s.metrics.SkipCycle("overlap")
		s.logg.Warn(ctx, "previous cycle still running; tick dropped")
		return nil
	}
	defer func() { _ = s.guard.Release(ctx) }()

	if s.lock != nil {
		held, err := s.lock.Acquire(ctx)
		if err != nil {
			return fmt.Errorf("acquire cron lock: %w", err)
		}
		if !held {
			s.metrics.SkipCycle("lock_held")
			s.logg.Info(ctx, "cron lock held by another worker; tick dropped")
			return nil
		}
		defer func() {
			if err := s.lock.Release(ctx); err != nil {
				s.logg.Error(ctx, "failed to release cron lock", err)
			}
		}()
	}

	for _, job := range s.registry.Jobs() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.runJob(ctx, job)
	}
	return nil
}

func (s *Service) runJob(ctx context.Context, job Job) {
	name := job.Name()
	jobCtx := s.logg.WithJob(ctx, name)
	start := s.clock.Now()
	err := job.Run(jobCtx)
	end := s.clock.Now()
	took := end.Sub(start)
	s.metrics.ObserveRun(name, took, end, err)

	jobCtx = s.logg.WithFields(jobCtx, map[string]any{
		"event":       "cron.job",
		"duration_ms": took.Milliseconds(),
	})
	if err != nil {
		s.logg.Error(jobCtx, "job failed", err)
		return
	}
	s.logg.Debug(jobCtx, "job finished")
}
