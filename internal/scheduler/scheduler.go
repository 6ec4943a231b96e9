// Package scheduler runs periodic maintenance jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/tahcohcat/questagram/internal/logger"
)

// Job is one unit of periodic work.
type Job func(ctx context.Context) error

type Scheduler struct {
	cron    *cron.Cron
	timeout time.Duration
	ctx     context.Context
	log     *logger.Log
}

// New creates a scheduler whose runs are cut off after timeout. Overlapping
// runs of the same job are skipped.
func New(timeout time.Duration) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger))),
		timeout: timeout,
		ctx:     context.Background(),
		log:     logger.Named("scheduler"),
	}
}

// Add registers job under a cron schedule. An empty schedule leaves the job disabled.
func (s *Scheduler) Add(name, schedule string, job Job) error {
	if schedule == "" {
		s.log.Info(fmt.Sprintf("Job %s disabled", name))
		return nil
	}
	_, err := s.cron.AddFunc(schedule, func() { s.run(name, job) })
	if err != nil {
		return fmt.Errorf("invalid schedule %q for %s: %w", schedule, name, err)
	}
	s.log.Info(fmt.Sprintf("Job %s scheduled: %s", name, schedule))
	return nil
}

func (s *Scheduler) run(name string, job Job) {
	ctx := s.ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	started := time.Now()
	if err := job(ctx); err != nil {
		s.log.WithError(err).Error(fmt.Sprintf("Job %s failed", name))
		return
	}
	s.log.Debug(fmt.Sprintf("Job %s finished in %s", name, time.Since(started).Round(time.Millisecond)))
}

// Run starts the scheduler and blocks until ctx is done, then waits for
// running jobs to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	s.ctx = ctx
	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()
	return nil
}
