// Package scheduler drives period lifecycles. Each (game, duration) lane is
// owned by one goroutine that opens, closes and hands its periods over to
// settlement on wall clock boundaries.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/sync/errgroup"

	"github.com/fastprodman/drawengine/internal/config"
	"github.com/fastprodman/drawengine/internal/draw"
	"github.com/fastprodman/drawengine/internal/game"
	"github.com/fastprodman/drawengine/internal/metrics"
	"github.com/fastprodman/drawengine/internal/period"
)

const recoverBatch = 100

type Settler interface {
	Settle(ctx context.Context, periodID string) (draw.Record, error)
}

type Scheduler struct {
	lanes   []period.Key
	store   Store
	settler Settler
	hub     *Hub
	cfg     config.SchedulerConfig

	clock      Clock
	newBackOff func() backoff.BackOff

	settling sync.WaitGroup
}

func New(catalog *game.Catalog, store Store, settler Settler, hub *Hub, cfg config.SchedulerConfig) *Scheduler {
	var lanes []period.Key

	for _, r := range catalog.Games() {
		for _, d := range r.Durations {
			lanes = append(lanes, period.Key{Game: r.Type(), Duration: d})
		}
	}

	return &Scheduler{
		lanes:   lanes,
		store:   store,
		settler: settler,
		hub:     hub,
		cfg:     cfg,
		clock:   realClock{},
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 100 * time.Millisecond
			b.MaxInterval = 5 * time.Second

			return b
		},
	}
}

func (s *Scheduler) Lanes() []period.Key {
	return s.lanes
}

// Run drives every lane until ctx is done, then waits for settlements that
// are still in flight.
func (s *Scheduler) Run(ctx context.Context) error {
	slog.Info("scheduler started", "lanes", len(s.lanes))

	g, gctx := errgroup.WithContext(ctx)

	for _, key := range s.lanes {
		g.Go(func() error {
			s.runLane(gctx, key)
			return nil
		})
	}

	err := g.Wait()
	s.settling.Wait()

	slog.Info("scheduler stopped")

	return err
}

func (s *Scheduler) runLane(ctx context.Context, key period.Key) {
	cur, ok := s.open(ctx, key)

	for ok {
		next := period.Next(cur)

		if !s.sleepUntil(ctx, cur.EndAt.Add(-s.cfg.Lead)) {
			return
		}

		// a failed prepare is retried by the handoff, which opens next too
		_ = s.withRetry(ctx, key, "prepare", func() error {
			return s.store.Prepare(ctx, next, s.clock.Now())
		})

		if !s.sleepUntil(ctx, cur.EndAt) {
			return
		}

		err := s.withRetry(ctx, key, "handoff", func() error {
			return s.store.Handoff(ctx, cur, next, s.clock.Now())
		})
		if err != nil {
			// cur stays open past its end; the recovery sweep settles it
			cur, ok = s.open(ctx, key)
			continue
		}

		s.settleAsync(ctx, cur)

		next.State = period.StateOpen
		cur = next
	}
}

// open opens the period containing now, retrying until it succeeds or ctx ends.
func (s *Scheduler) open(ctx context.Context, key period.Key) (period.Period, bool) {
	for ctx.Err() == nil {
		var p period.Period

		err := s.withRetry(ctx, key, "open", func() error {
			now := s.clock.Now()

			var err error

			p, err = s.store.Open(ctx, period.At(key, now), now)

			return err
		})
		if err == nil {
			return p, true
		}
	}

	return period.Period{}, false
}

// withRetry runs op with backoff for at most the lane lead time. Every failure
// is a scheduling fault.
func (s *Scheduler) withRetry(ctx context.Context, key period.Key, stage string, op func() error) error {
	attempt := func() (struct{}, error) {
		err := op()
		if err != nil && ctx.Err() == nil {
			metrics.SchedulingFault(string(key.Game), stage)
			slog.Error("scheduling fault", "lane", key.String(), "stage", stage, "error", err)
		}

		return struct{}{}, err
	}

	_, err := backoff.Retry(ctx, attempt,
		backoff.WithBackOff(s.newBackOff()),
		backoff.WithMaxElapsedTime(max(s.cfg.Lead, time.Second)),
	)

	return err
}

// settleAsync settles p in the background. Settlement outlives ctx, bounded by
// the settle timeout, so shutdown does not abandon a half driven period.
func (s *Scheduler) settleAsync(ctx context.Context, p period.Period) {
	s.settling.Add(1)

	go func() {
		defer s.settling.Done()

		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.SettleTimeout)
		defer cancel()

		notify := func(err error, wait time.Duration) {
			slog.Warn("settlement failed, retrying", "period_id", p.ID, "error", err, "retry_in", wait)
		}

		settle := func() (draw.Record, error) {
			return s.settler.Settle(sctx, p.ID)
		}

		rec, err := backoff.Retry(sctx, settle,
			backoff.WithBackOff(s.newBackOff()),
			backoff.WithMaxElapsedTime(s.cfg.SettleTimeout),
			backoff.WithNotify(notify),
		)
		if err != nil {
			metrics.SchedulingFault(string(p.Game), "settle")
			slog.Error("settlement gave up, left for recovery", "period_id", p.ID, "error", err)

			return
		}

		s.hub.Publish(rec)
	}()
}

// Recover settles periods that ended but never completed, e.g. after a
// restart or a settlement that ran out of retries.
func (s *Scheduler) Recover(ctx context.Context) error {
	stuck, err := s.store.ListUnfinished(ctx, s.clock.Now(), recoverBatch)
	if err != nil {
		return fmt.Errorf("list unfinished periods: %w", err)
	}

	var errs []error

	for _, p := range stuck {
		rec, err := s.settler.Settle(ctx, p.ID)
		if err != nil {
			metrics.SchedulingFault(string(p.Game), "recover")
			errs = append(errs, fmt.Errorf("settle %s: %w", p.ID, err))

			continue
		}

		s.hub.Publish(rec)
	}

	if len(stuck) > 0 {
		slog.Info("recovery sweep done", "periods", len(stuck), "failed", len(errs))
	}

	return errors.Join(errs...)
}

func (s *Scheduler) sleepUntil(ctx context.Context, t time.Time) bool {
	d := t.Sub(s.clock.Now())
	if d <= 0 {
		return ctx.Err() == nil
	}

	select {
	case <-ctx.Done():
		return false
	case <-s.clock.After(d):
		return true
	}
}
