package outreach

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Scheduler periodically starts scheduled campaigns whose start date has
// passed and completes the ones whose end date has.
type Scheduler struct {
	svc      *Service
	interval time.Duration
	log      *zap.Logger
}

// NewScheduler returns a Scheduler ticking every interval.
func NewScheduler(svc *Service, interval time.Duration, log *zap.Logger) *Scheduler {
	return &Scheduler{svc: svc, interval: interval, log: log}
}

// Start runs the scheduler in the background. The returned stop function
// cancels it and waits for an in-flight tick to finish, so callers can close
// the database afterwards.
func (s *Scheduler) Start(ctx context.Context) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	var g errgroup.Group
	g.Go(func() error {
		s.Run(ctx)
		return nil
	})
	return func() {
		cancel()
		_ = g.Wait()
	}
}

// Run blocks until ctx is done. A non-positive interval disables it.
func (s *Scheduler) Run(ctx context.Context) {
	if s.interval <= 0 {
		s.log.Info("outreach scheduler disabled")
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("outreach scheduler started", zap.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs one scheduling pass and returns how many campaigns it executed.
func (s *Scheduler) Tick(ctx context.Context) int {
	now := s.svc.now()
	if n, err := s.svc.repo.CompleteExpired(ctx, now); err != nil {
		s.log.Error("complete expired campaigns", zap.Error(err))
	} else if n > 0 {
		s.log.Info("completed expired campaigns", zap.Int64("count", n))
	}

	due, err := s.svc.repo.DueCampaigns(ctx, now)
	if err != nil {
		s.log.Error("load due campaigns", zap.Error(err))
		return 0
	}
	ran := 0
	for _, c := range due {
		if ctx.Err() != nil {
			break
		}
		if _, err := s.svc.Execute(ctx, c.ID); err != nil {
			s.log.Error("scheduled campaign execution", zap.Int64("campaign", c.ID), zap.Error(err))
			continue
		}
		ran++
	}
	return ran
}
