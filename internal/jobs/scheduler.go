// Package jobs runs the engine's periodic maintenance: cache sweeps and the
// usage invariant audit.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/erazemk/inventar/internal/logfields"
	"github.com/erazemk/inventar/internal/model"
)

// Job names.
const (
	JobCacheSweep = "cache-sweep"
	JobAudit      = "invariant-audit"
)

// Sweeper evicts expired cache entries.
type Sweeper interface {
	Sweep() int
}

// Auditor checks usage invariants.
type Auditor interface {
	Audit(ctx context.Context) ([]model.AuditFinding, error)
}

// Scheduler wraps gocron scheduler for managing periodic tasks.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
	timeout   time.Duration
}

// NewScheduler creates a new scheduler instance. timeout bounds each audit run.
func NewScheduler(logger *slog.Logger, timeout time.Duration) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("creating gocron scheduler: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		scheduler: s,
		logger:    logger,
		timeout:   timeout,
	}, nil
}

// ScheduleCacheSweep sweeps c every interval. A non-positive interval
// schedules nothing.
func (s *Scheduler) ScheduleCacheSweep(interval time.Duration, c Sweeper) error {
	if interval <= 0 {
		return nil
	}
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.runSweep, c),
		gocron.WithName(JobCacheSweep),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("creating %s job: %w", JobCacheSweep, err)
	}
	return nil
}

// ScheduleAudit runs the invariant audit every interval. A non-positive
// interval schedules nothing.
func (s *Scheduler) ScheduleAudit(interval time.Duration, a Auditor) error {
	if interval <= 0 {
		return nil
	}
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.runAudit, a),
		gocron.WithName(JobAudit),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("creating %s job: %w", JobAudit, err)
	}
	return nil
}

// Start begins the scheduler.
func (s *Scheduler) Start() {
	s.logger.Info("Starting scheduler", slog.Int("jobs", len(s.scheduler.Jobs())))
	s.scheduler.Start()
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() error {
	s.logger.Info("Stopping scheduler")
	return s.scheduler.Shutdown()
}

func (s *Scheduler) runSweep(c Sweeper) {
	removed := c.Sweep()
	if removed > 0 {
		s.logger.Debug("Swept cache", logfields.Job(JobCacheSweep), slog.Int("removed", removed))
	}
}

func (s *Scheduler) runAudit(a Auditor) {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	started := time.Now()
	findings, err := a.Audit(ctx)
	if err != nil {
		s.logger.Error("Invariant audit failed", logfields.Job(JobAudit), logfields.Error(err))
		return
	}
	s.logger.Info("Invariant audit finished",
		logfields.Job(JobAudit),
		slog.Int("findings", len(findings)),
		logfields.Duration(time.Since(started)),
	)
}
