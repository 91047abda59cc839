package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Sweeper drops sessions idle for longer than the given duration.
type Sweeper interface {
	Sweep(idle time.Duration) int
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron     *cron.Cron
	schedule string
	ttl      time.Duration
	sessions Sweeper
	logger   *zap.Logger
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(schedule string, ttl time.Duration, sessions Sweeper, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Scheduler{
		cron:     cron.New(),
		schedule: schedule,
		ttl:      ttl,
		sessions: sessions,
		logger:   logger,
	}
}

// Start registers the session sweep and starts the cron loop.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler", zap.String("schedule", s.schedule), zap.Duration("session_ttl", s.ttl))

	if _, err := s.cron.AddFunc(s.schedule, s.sweepSessions); err != nil {
		return fmt.Errorf("failed to schedule session sweep: %w", err)
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) sweepSessions() {
	removed := s.sessions.Sweep(s.ttl)
	if removed > 0 {
		s.logger.Info("expired idle sessions", zap.Int("removed", removed))
		return
	}
	s.logger.Debug("session sweep found nothing to expire")
}
