package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// SchedulerConfig holds configuration for the recurring scheduler
type SchedulerConfig struct {
	// Spec is a robfig/cron schedule, e.g. "@every 1h" or "0 6 * * *"
	Spec string

	// RunOnStart processes due definitions once before the first tick
	RunOnStart bool

	// RunTimeout bounds a single processing pass (default: 5m)
	RunTimeout time.Duration
}

func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Spec:       "@every 1h",
		RunOnStart: true,
		RunTimeout: 5 * time.Minute,
	}
}

// Runner is the unit of work the scheduler repeats.
type Runner interface {
	ProcessDue(ctx context.Context) (int, error)
}

// RecurringScheduler runs ProcessDue on a cron schedule. Overlapping passes
// are skipped rather than queued.
type RecurringScheduler struct {
	runner Runner
	config SchedulerConfig

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

func NewRecurringScheduler(runner Runner, config SchedulerConfig) *RecurringScheduler {
	if config.RunTimeout <= 0 {
		config.RunTimeout = DefaultSchedulerConfig().RunTimeout
	}
	return &RecurringScheduler{runner: runner, config: config}
}

// Start registers the job and begins ticking. Returns an error if already
// running or if the schedule does not parse.
func (s *RecurringScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("recurring scheduler is already running")
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(s.config.Spec, func() { s.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("schedule %q: %w", s.config.Spec, err)
	}

	if s.config.RunOnStart {
		s.RunOnce(ctx)
	}

	c.Start()
	s.cron = c
	s.running = true

	slog.InfoContext(ctx, "Recurring scheduler started", "schedule", s.config.Spec)
	return nil
}

// RunOnce performs a single pass and logs its outcome.
func (s *RecurringScheduler) RunOnce(ctx context.Context) int {
	runCtx, cancel := context.WithTimeout(ctx, s.config.RunTimeout)
	defer cancel()

	start := time.Now()
	n, err := s.runner.ProcessDue(runCtx)
	if err != nil {
		slog.ErrorContext(ctx, "Recurring run failed", "error", err, "processed", n)
		return n
	}
	slog.InfoContext(ctx, "Recurring run finished", "processed", n, "duration", time.Since(start))
	return n
}

// Stop halts the schedule and waits for an in-flight pass, or until ctx ends.
func (s *RecurringScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	done := s.cron.Stop()
	s.running = false
	s.mu.Unlock()

	select {
	case <-done.Done():
		slog.InfoContext(ctx, "Recurring scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Recurring scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *RecurringScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
