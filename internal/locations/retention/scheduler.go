package retention

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type Pruner interface {
	PruneHistory(ctx context.Context, before time.Time) (int64, error)
}

// PruneRecorder receives the number of rows each sweep removed.
type PruneRecorder interface {
	AddHistoryPruned(n int64)
}

// Scheduler periodically deletes location history older than the
// retention window.
type Scheduler struct {
	pruner    Pruner
	retention time.Duration
	schedule  string
	metrics   PruneRecorder
	log       *zap.Logger
	now       func() time.Time

	cron *cron.Cron
}

func NewScheduler(pruner Pruner, retention time.Duration, schedule string, metrics PruneRecorder, log *zap.Logger) *Scheduler {
	return &Scheduler{
		pruner:    pruner,
		retention: retention,
		schedule:  schedule,
		metrics:   metrics,
		log:       log,
		now:       time.Now,
	}
}

// Enabled reports whether a retention window is configured.
func (s *Scheduler) Enabled() bool {
	return s.retention > 0
}

// Start registers the sweep and starts the cron runner. It is a no-op when
// retention is disabled.
func (s *Scheduler) Start() error {
	if !s.Enabled() {
		s.log.Info("location history retention disabled")
		return nil
	}

	c := cron.New(cron.WithSeconds())
	if _, err := c.AddFunc(s.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := s.RunOnce(ctx); err != nil {
			s.log.Error("location history prune failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("schedule history retention %q: %w", s.schedule, err)
	}

	s.cron = c
	c.Start()
	s.log.Info("location history retention scheduled",
		zap.String("cron", s.schedule),
		zap.Duration("retention", s.retention))
	return nil
}

// Stop halts the runner and waits for a sweep in progress.
func (s *Scheduler) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}

// RunOnce deletes history recorded before now minus the retention window.
func (s *Scheduler) RunOnce(ctx context.Context) (int64, error) {
	if !s.Enabled() {
		return 0, nil
	}

	cutoff := s.now().UTC().Add(-s.retention)
	n, err := s.pruner.PruneHistory(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if s.metrics != nil {
		s.metrics.AddHistoryPruned(n)
	}
	s.log.Info("location history pruned", zap.Int64("rows", n), zap.Time("cutoff", cutoff))
	return n, nil
}
