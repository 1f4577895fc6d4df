// Package scheduler runs the daily maintenance jobs: usage counter
// retention and expired session purging.
package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/language-study/study-hub/pkg/logger"
	"github.com/language-study/study-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAINTENANCE SCHEDULER
// ══════════════════════════════════════════════════════════════════════════════

const (
	// DefaultRetentionDays is how many days of usage counters to keep.
	// Counters only gate the current day; older rows exist for operational
	// review and are then dropped.
	DefaultRetentionDays = 30

	// DefaultRunAt is the local time the daily jobs run.
	DefaultRunAt = "03:30"

	// jobTimeout bounds each maintenance run.
	jobTimeout = 2 * time.Minute
)

// UsageRetention deletes usage counters older than a cutoff day key.
type UsageRetention interface {
	DeleteBefore(ctx context.Context, cutoffDayKey string) (int64, error)
}

// SessionPurger deletes expired session tokens.
type SessionPurger interface {
	DeleteExpiredSessions(ctx context.Context) (int64, error)
}

// Config holds scheduler configuration.
type Config struct {
	Location      *time.Location
	RunAt         string
	RetentionDays int
}

// DefaultConfig returns UTC defaults.
func DefaultConfig() Config {
	return Config{
		Location:      time.UTC,
		RunAt:         DefaultRunAt,
		RetentionDays: DefaultRetentionDays,
	}
}

// Scheduler owns the gocron instance and the registered jobs.
type Scheduler struct {
	config   Config
	cron     *gocron.Scheduler
	usage    UsageRetention
	sessions SessionPurger
	log      *logger.Logger
}

// New creates the scheduler. usage and sessions may be nil; the matching
// job is then skipped.
func New(cfg Config, usage UsageRetention, sessions SessionPurger, log *logger.Logger) *Scheduler {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.RunAt == "" {
		cfg.RunAt = DefaultRunAt
	}
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = DefaultRetentionDays
	}
	if log == nil {
		log = logger.Default()
	}
	return &Scheduler{
		config:   cfg,
		cron:     gocron.NewScheduler(cfg.Location),
		usage:    usage,
		sessions: sessions,
		log:      log.With(logger.Component("scheduler")),
	}
}

// Start registers the jobs and runs them in the background.
func (s *Scheduler) Start() error {
	if s.usage != nil {
		if _, err := s.cron.Every(1).Day().At(s.config.RunAt).Do(s.runUsageRetention); err != nil {
			return err
		}
	}
	if s.sessions != nil {
		if _, err := s.cron.Every(1).Day().At(s.config.RunAt).Do(s.runSessionPurge); err != nil {
			return err
		}
	}
	s.cron.StartAsync()
	s.log.Info("maintenance scheduler started",
		logger.String("run_at", s.config.RunAt),
		logger.Int("retention_days", s.config.RetentionDays),
	)
	return nil
}

// Stop halts the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

func (s *Scheduler) runUsageRetention() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	cutoff := timeutil.DaysAgoKey(s.config.RetentionDays, s.config.Location)
	removed, err := s.usage.DeleteBefore(ctx, cutoff)
	if err != nil {
		s.log.Error("usage retention failed", logger.Err(err))
		return
	}
	s.log.Info("usage retention completed",
		logger.String("cutoff", cutoff),
		logger.Int("removed", int(removed)),
	)
}

func (s *Scheduler) runSessionPurge() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	removed, err := s.sessions.DeleteExpiredSessions(ctx)
	if err != nil {
		s.log.Error("session purge failed", logger.Err(err))
		return
	}
	s.log.Info("session purge completed", logger.Int("removed", int(removed)))
}
