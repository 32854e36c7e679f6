package settlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/sync/errgroup"

	"github.com/fastprodman/drawengine/internal/metrics"
	"github.com/fastprodman/drawengine/internal/repos/users"
	"github.com/fastprodman/drawengine/internal/services/balance"
	"github.com/fastprodman/drawengine/internal/wager"
)

// CreditReport summarises a credit pass.
type CreditReport struct {
	Attempted int
	Credited  int
	Failed    int
}

// creditAll credits winners concurrently. A failing credit never stops the
// others; it stays pending for RetryPendingCredits.
func (s *Service) creditAll(ctx context.Context, winners []wager.Wager) CreditReport {
	var credited, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.creditWorkers)

	for _, w := range winners {
		g.Go(func() error {
			err := s.credit(gctx, w)
			if err != nil {
				failed.Add(1)
				metrics.CreditResult("failed")
				slog.Error("winning credit failed, left pending",
					"wager_id", w.ID, "period_id", w.PeriodID, "user_id", w.UserID, "error", err)

				return nil
			}

			credited.Add(1)

			return nil
		})
	}

	_ = g.Wait()

	return CreditReport{
		Attempted: len(winners),
		Credited:  int(credited.Load()),
		Failed:    int(failed.Load()),
	}
}

// credit pays w's payout under its unique reference. A duplicate reference
// means an earlier attempt already landed; its snapshot is recorded instead.
func (s *Service) credit(ctx context.Context, w wager.Wager) error {
	op := func() (balance.Snapshot, error) {
		snap, err := s.wallet.Credit(ctx, w.UserID, w.Payout, w.CreditReference())
		switch {
		case err == nil:
			metrics.CreditResult("credited")
			return snap, nil
		case errors.Is(err, balance.ErrDuplicateTransaction):
			metrics.CreditResult("duplicate")
			return snap, nil
		case errors.Is(err, users.ErrUserNotFound), errors.Is(err, balance.ErrInvalidTransaction):
			return snap, backoff.Permanent(err)
		default:
			return snap, err
		}
	}

	snap, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(s.creditBackOff()),
		backoff.WithMaxTries(s.creditTries),
	)
	if err != nil {
		return fmt.Errorf("credit %s: %w", w.CreditReference(), err)
	}

	err = s.wagers.MarkCredited(ctx, w.ID, snap.BalanceBefore, snap.BalanceAfter)
	if err != nil {
		return fmt.Errorf("mark %s credited: %w", w.ID, err)
	}

	return nil
}

// RetryPendingCredits retries credits of wagers settled at least minAge ago
// whose credit is still pending.
func (s *Service) RetryPendingCredits(ctx context.Context, minAge time.Duration, limit int) (CreditReport, error) {
	pending, err := s.wagers.ListPendingCredits(ctx, s.now().Add(-minAge), limit)
	if err != nil {
		return CreditReport{}, fmt.Errorf("list pending credits: %w", err)
	}

	if len(pending) == 0 {
		return CreditReport{}, nil
	}

	rep := s.creditAll(ctx, pending)
	slog.Info("pending credits retried",
		"attempted", rep.Attempted, "credited", rep.Credited, "failed", rep.Failed)

	return rep, nil
}
