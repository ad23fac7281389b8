package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Runner executes one watch cycle. *Engine implements it.
type Runner interface {
	Run(ctx context.Context) (*RunResult, error)
}

// Scheduler runs the engine periodically in watch mode.
type Scheduler struct {
	cron   *cron.Cron
	runner Runner
	log    *slog.Logger
	ctx    context.Context
}

// NewScheduler creates a Scheduler that runs r every interval. Runs that
// are still in progress when the next tick fires cause that tick to be
// skipped. ctx is passed to every run.
func NewScheduler(
	ctx context.Context,
	r Runner,
	interval time.Duration,
	log *slog.Logger,
) (*Scheduler, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	s := &Scheduler{
		cron:   c,
		runner: r,
		log:    log,
		ctx:    ctx,
	}

	if _, err := c.AddFunc("@every "+interval.String(), s.runWatch); err != nil {
		return nil, err
	}

	return s, nil
}

// Start begins running scheduled tasks.
func (s *Scheduler) Start() {
	s.log.Info("scheduler started")
	s.cron.Start()
}

// Stop gracefully stops the scheduler, waiting for running jobs to finish.
func (s *Scheduler) Stop() context.Context {
	s.log.Info("scheduler stopping")
	return s.cron.Stop()
}

// Entries returns the registered cron entries for inspection.
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

// RunNow executes one cycle immediately, outside the schedule.
func (s *Scheduler) RunNow() {
	s.runWatch()
}

func (s *Scheduler) runWatch() {
	if s.ctx.Err() != nil {
		return
	}
	s.log.Info("scheduled run starting")
	res, err := s.runner.Run(s.ctx)
	if err != nil {
		s.log.Error("scheduled run failed", "error", err)
		return
	}
	s.log.Info("scheduled run finished", "run_id", res.RunID, "new", res.New)
}
