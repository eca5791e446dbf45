/**
 * @description
 * Cron scheduler for the nightly dunning sweep.
 */
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler manages the periodic dunning sweep.
type Scheduler struct {
	cron    *cron.Cron
	service *Service
	logger  *slog.Logger
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(service *Service, logger *slog.Logger) *Scheduler {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(cron.WithChain(cron.Recover(cronLogger)))

	return &Scheduler{
		cron:    c,
		service: service,
		logger:  logger,
	}
}

// Start registers the dunning sweep and starts the cron scheduler.
func (s *Scheduler) Start(schedule string) {
	if _, err := s.cron.AddFunc(schedule, s.runSweep); err != nil {
		s.logger.Error("failed to schedule dunning sweep", "schedule", schedule, "error", err)
		return
	}
	s.logger.Info("scheduled dunning sweep", "schedule", schedule)
	s.cron.Start()
}

// Stop gracefully stops the cron scheduler.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	if _, err := s.service.RunDunningProcess(ctx); err != nil {
		s.logger.Error("scheduled dunning sweep failed", "error", err)
	}
}
