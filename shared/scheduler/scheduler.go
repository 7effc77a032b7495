package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"station-relay/shared/config"
	"station-relay/shared/monitoring"

	"github.com/robfig/cron/v3"
)

// Metrics defines the common interface for agent metrics
type Metrics interface {
	// GetSummary returns a human-readable summary of the run
	GetSummary() string
}

// AgentEvents provides callbacks for monitoring agent execution
type AgentEvents struct {
	OnSuccess         func(metrics Metrics, duration time.Duration)
	OnPartialFailure  func(err error, duration time.Duration)
	OnCriticalFailure func(err error, duration time.Duration)
}

// Agent defines the interface that all agents must implement
type Agent interface {
	Name() string
	RunOnce(ctx context.Context, events *AgentEvents) error
	Initialize() error
}

// Scheduler runs an agent repeatedly until its context is cancelled.
type Scheduler struct {
	config  *config.Config
	monitor *monitoring.Monitor
	agent   Agent
	cron    *cron.Cron
	logger  *slog.Logger
}

func New(cfg *config.Config, agent Agent, logger *slog.Logger) *Scheduler {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))

	return &Scheduler{
		config:  cfg,
		monitor: monitoring.NewMonitor(logger),
		agent:   agent,
		logger:  logger,
		// Prevent overlapping runs
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.SkipIfStillRunning(cronLogger)),
		),
	}
}

// Monitor exposes the run monitor fed by this scheduler.
func (s *Scheduler) Monitor() *monitoring.Monitor {
	return s.monitor
}

// Run invokes the agent, waits interval after each run completes, and repeats.
// Cancellation is observed only between runs: a run that has started always
// finishes, and its requests are bounded by their own timeouts.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("interval must be positive, got %v", interval)
	}
	if err := s.agent.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize agent: %w", err)
	}
	s.startHealthServer(ctx)

	name := s.agent.Name()
	s.logger.Info("scheduler started", "agent", name, "interval", interval)

	for {
		if err := ctx.Err(); err != nil {
			s.logger.Info("scheduler stopped", "agent", name)
			return err
		}

		if err := s.RunOnce(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("cycle did not complete", "agent", name, "error", err)
		}

		s.logger.Info("waiting for next cycle", "agent", name, "interval", interval)
		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("scheduler stopped", "agent", name)
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Start runs the agent on the configured cron schedule until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	if err := s.agent.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize agent: %w", err)
	}

	_, err := s.cron.AddFunc(s.config.Schedule, func() {
		if err := s.RunOnce(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("scheduled cycle did not complete", "agent", s.agent.Name(), "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.startHealthServer(ctx)

	s.logger.Info("scheduler started", "agent", s.agent.Name(), "schedule", s.config.Schedule)
	s.cron.Start()

	<-ctx.Done()
	s.logger.Info("scheduler stopping, waiting for running cycle", "agent", s.agent.Name())
	<-s.cron.Stop().Done()
	return ctx.Err()
}

func (s *Scheduler) RunOnce(ctx context.Context) error {
	startTime := time.Now()
	agentName := s.agent.Name()

	s.logger.Info("starting run", "agent", agentName)

	events := &AgentEvents{
		OnSuccess: func(metrics Metrics, duration time.Duration) {
			s.monitor.RecordSuccess(metrics.GetSummary(), duration)
		},
		OnPartialFailure: func(err error, duration time.Duration) {
			s.monitor.RecordPartialFailure(fmt.Errorf("%s partial failure: %w", agentName, err), duration)
		},
		OnCriticalFailure: func(err error, duration time.Duration) {
			s.monitor.RecordCriticalFailure(fmt.Errorf("%s critical failure: %w", agentName, err), duration)
		},
	}

	if err := s.agent.RunOnce(ctx, events); err != nil {
		duration := time.Since(startTime)
		s.monitor.RecordCriticalFailure(fmt.Errorf("%s failed: %w", agentName, err), duration)
		return fmt.Errorf("%s run failed: %w", agentName, err)
	}

	return nil
}

func (s *Scheduler) startHealthServer(ctx context.Context) {
	if s.config.Monitoring.HealthPort <= 0 {
		return
	}
	monitoring.NewHealthServer(s.monitor, s.config.Monitoring.HealthPort, s.logger).Start(ctx)
}
