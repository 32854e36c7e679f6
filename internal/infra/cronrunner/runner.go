// Package cronrunner runs named background sweeps on cron schedules with
// second precision.
package cronrunner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

type Runner struct {
	cron    *cron.Cron
	baseCtx context.Context
}

func New(baseCtx context.Context) *Runner {
	if baseCtx == nil {
		baseCtx = context.Background()
	}

	return &Runner{
		cron:    cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		baseCtx: baseCtx,
	}
}

// Add schedules job under spec. A run that is still going when the next tick
// fires is skipped. Errors are logged with the job name.
func (r *Runner) Add(name, spec string, job func(context.Context) error) error {
	_, err := r.cron.AddFunc(spec, func() {
		if r.baseCtx.Err() != nil {
			return
		}

		start := time.Now()

		err := job(r.baseCtx)
		if err != nil {
			slog.Error("cron job failed", "job", name, "error", err, "took", time.Since(start))
			return
		}

		slog.Debug("cron job done", "job", name, "took", time.Since(start))
	})
	if err != nil {
		return fmt.Errorf("add cron job %q: %w", name, err)
	}

	return nil
}

func (r *Runner) Start() {
	slog.Info("cron started", "jobs", len(r.cron.Entries()))
	r.cron.Start()
}

// Stop stops scheduling and waits for running jobs, or until ctx ends.
func (r *Runner) Stop(ctx context.Context) error {
	done := r.cron.Stop()

	select {
	case <-done.Done():
		slog.Info("cron stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("stop cron: %w", ctx.Err())
	}
}
