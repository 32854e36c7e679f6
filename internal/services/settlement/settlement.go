// Package settlement resolves closed periods: it picks the outcome, settles
// every wager, persists the record and credits the winners.
package settlement

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/sync/singleflight"

	"github.com/fastprodman/drawengine/internal/draw"
	"github.com/fastprodman/drawengine/internal/exposure"
	"github.com/fastprodman/drawengine/internal/game"
	"github.com/fastprodman/drawengine/internal/infra/pgutils"
	"github.com/fastprodman/drawengine/internal/metrics"
	"github.com/fastprodman/drawengine/internal/period"
	"github.com/fastprodman/drawengine/internal/repos/draws"
	pgdraws "github.com/fastprodman/drawengine/internal/repos/draws/postgres"
	"github.com/fastprodman/drawengine/internal/repos/periods"
	pgperiods "github.com/fastprodman/drawengine/internal/repos/periods/postgres"
	"github.com/fastprodman/drawengine/internal/repos/wagers"
	pgwagers "github.com/fastprodman/drawengine/internal/repos/wagers/postgres"
	"github.com/fastprodman/drawengine/internal/selector"
	"github.com/fastprodman/drawengine/internal/services/balance"
	"github.com/fastprodman/drawengine/internal/wager"
)

// ErrNotClosed is returned for a period whose window has not ended yet.
var ErrNotClosed = errors.New("period still accepting wagers")

// Wallet credits winnings. Credits must be idempotent per reference.
type Wallet interface {
	Credit(ctx context.Context, userID uint64, amount int64, ref string) (balance.Snapshot, error)
}

type Service struct {
	db      *sql.DB
	catalog *game.Catalog
	periods periods.Periods
	wagers  wagers.Wagers
	draws   draws.Draws
	wallet  Wallet
	binder  selector.Binder

	group singleflight.Group
	now   func() time.Time

	creditWorkers int
	creditTries   uint
	creditBackOff func() backoff.BackOff
}

// New builds the service. binder may be nil when no verifiable game is
// configured.
func New(dbx *sql.DB, catalog *game.Catalog, wallet Wallet, binder selector.Binder) *Service {
	return &Service{
		db:            dbx,
		catalog:       catalog,
		periods:       pgperiods.New(dbx),
		wagers:        pgwagers.New(dbx),
		draws:         pgdraws.New(dbx),
		wallet:        wallet,
		binder:        binder,
		now:           time.Now,
		creditWorkers: 8,
		creditTries:   4,
		creditBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			b.MaxInterval = 2 * time.Second

			return b
		},
	}
}

// Settle settles periodID once. Concurrent calls in this process share one
// run; across processes the period row lock serialises them. Settling a
// completed period returns its stored record and credits nothing.
func (s *Service) Settle(ctx context.Context, periodID string) (draw.Record, error) {
	v, err, _ := s.group.Do(periodID, func() (any, error) {
		return s.settle(ctx, periodID)
	})
	if err != nil {
		return draw.Record{}, err
	}

	return v.(draw.Record), nil
}

func (s *Service) settle(ctx context.Context, periodID string) (draw.Record, error) {
	started := time.Now()

	p, err := s.periods.Get(ctx, periodID)
	if err != nil {
		return draw.Record{}, fmt.Errorf("load period: %w", err)
	}

	if p.State == period.StateCompleted {
		return s.existing(ctx, periodID)
	}

	rules, err := s.catalog.Rules(p.Game)
	if err != nil {
		return draw.Record{}, err
	}

	sel, err := selector.For(rules, s.binder)
	if err != nil {
		return draw.Record{}, fmt.Errorf("selector for %s: %w", p.Game, err)
	}

	err = s.advance(ctx, periodID)
	if err != nil {
		return draw.Record{}, err
	}

	// The external fetch may wait for minutes; it runs before the settlement
	// transaction so no row lock is held meanwhile. The proof is stored, so the
	// selector below derives from it without another fetch.
	if rules.Policy == game.PolicyVerifiable {
		d, _ := rules.Variant.(game.Deriver)

		_, _, err = s.binder.Bind(ctx, p, d)
		if err != nil {
			metrics.SettlementFailed(string(p.Game))
			return draw.Record{}, fmt.Errorf("bind %s: %w", periodID, err)
		}
	}

	var (
		rec     draw.Record
		winners []wager.Wager
		done    bool
	)

	err = pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		locked, err := s.periods.LockForUpdate(tx, periodID)
		if err != nil {
			return fmt.Errorf("lock period: %w", err)
		}

		if locked.State == period.StateCompleted {
			done = true
			return nil
		}

		if locked.State != period.StateSettling {
			return fmt.Errorf("%w: %s is %s", periods.ErrStateConflict, periodID, locked.State)
		}

		ws, err := s.wagers.ListByPeriod(tx, periodID)
		if err != nil {
			return fmt.Errorf("list wagers: %w", err)
		}

		choice, err := s.choose(ctx, tx, rules, locked, sel, ws)
		if err != nil {
			return err
		}

		rec, winners, err = s.apply(tx, locked, choice, ws)

		return err
	})
	if err != nil {
		metrics.SettlementFailed(string(p.Game))
		return draw.Record{}, fmt.Errorf("settle %s: %w", periodID, err)
	}

	if done {
		return s.existing(ctx, periodID)
	}

	metrics.SettlementCompleted(string(rec.Game), string(rec.Method), time.Since(started), rec.Exposure)
	slog.Info("period settled",
		"period_id", periodID,
		"game", rec.Game,
		"outcome", rec.Outcome.Key(),
		"method", rec.Method,
		"exposure", rec.Exposure,
		"wagers", rec.WagerCount,
		"winners", rec.WinnerCount)

	s.creditAll(ctx, winners)

	return s.existing(ctx, periodID)
}

// advance walks the period up to settling. It is a no-op for a period that
// is already settling or completed.
func (s *Service) advance(ctx context.Context, periodID string) error {
	err := pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		p, err := s.periods.LockForUpdate(tx, periodID)
		if err != nil {
			return fmt.Errorf("lock period: %w", err)
		}

		now := s.now()

		if !p.Closed(now) {
			return fmt.Errorf("%w: %s ends at %s", ErrNotClosed, periodID, p.EndAt.Format(time.RFC3339))
		}

		path := []period.State{period.StatePending, period.StateOpen, period.StateClosing, period.StateSettling}

		i := slices.Index(path, p.State)
		if i < 0 {
			return nil
		}

		for ; i < len(path)-1; i++ {
			err = s.periods.Transition(tx, periodID, path[i], path[i+1], now)
			if err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("advance %s to settling: %w", periodID, err)
	}

	return nil
}

// choose returns the override if one was recorded and the policy's choice
// otherwise.
func (s *Service) choose(
	ctx context.Context,
	tx *sql.Tx,
	rules *game.Rules,
	p period.Period,
	sel selector.Selector,
	ws []wager.Wager,
) (selector.Selection, error) {
	o, err := s.draws.GetOverride(tx, p.ID)
	if err != nil && !errors.Is(err, draws.ErrOverrideNotFound) {
		return selector.Selection{}, fmt.Errorf("load override: %w", err)
	}

	if err == nil {
		outcome, ok := rules.Variant.Outcome(o.OutcomeID)
		if !ok {
			return selector.Selection{}, fmt.Errorf("override of %s: %w: %d", p.ID, game.ErrUnknownOutcome, o.OutcomeID)
		}

		scores := exposure.Compute(rules.Variant, ws)

		return selector.Selection{
			Outcome:     outcome,
			Method:      draw.MethodOverride,
			Exposure:    scores[outcome.ID],
			MaxExposure: scores.Max(),
		}, nil
	}

	choice, err := sel.Select(ctx, p, ws)
	if err != nil {
		return selector.Selection{}, fmt.Errorf("select outcome: %w", err)
	}

	return choice, nil
}

// apply writes every wager result, the record and the completion in tx.
func (s *Service) apply(
	tx *sql.Tx,
	p period.Period,
	choice selector.Selection,
	ws []wager.Wager,
) (draw.Record, []wager.Wager, error) {
	v, err := game.Lookup(p.Game)
	if err != nil {
		return draw.Record{}, nil, err
	}

	now := s.now().UTC().Truncate(time.Microsecond)
	tags := game.TagsFor(v, choice.Outcome)

	rec := draw.Record{
		PeriodID:    p.ID,
		Game:        p.Game,
		Duration:    p.Duration,
		Outcome:     choice.Outcome,
		Method:      choice.Method,
		Exposure:    choice.Exposure,
		MaxExposure: choice.MaxExposure,
		WagerCount:  len(ws),
		Proof:       choice.Proof,
		SettledAt:   now,
	}

	var winners []wager.Wager

	for _, w := range ws {
		settled := wager.Resolve(w, slices.Contains(tags, w.Category), now)

		err = s.wagers.SaveResult(tx, settled)
		if err != nil {
			return draw.Record{}, nil, fmt.Errorf("save wager %s: %w", w.ID, err)
		}

		rec.TotalStake += settled.Stake

		if settled.Status == wager.StatusWon {
			rec.WinnerCount++
			rec.TotalWinAmount += settled.WinAmount
			rec.TotalPayout += settled.Payout
		}

		if settled.CreditStatus == wager.CreditPending {
			winners = append(winners, settled)
		}
	}

	err = s.draws.InsertRecord(tx, rec)
	if err != nil {
		return draw.Record{}, nil, fmt.Errorf("insert record: %w", err)
	}

	err = s.periods.Transition(tx, p.ID, period.StateSettling, period.StateCompleted, now)
	if err != nil {
		return draw.Record{}, nil, fmt.Errorf("complete period: %w", err)
	}

	return rec, winners, nil
}

func (s *Service) existing(ctx context.Context, periodID string) (draw.Record, error) {
	rec, err := s.draws.GetRecord(ctx, periodID)
	if err != nil {
		return draw.Record{}, fmt.Errorf("load settlement record: %w", err)
	}

	return rec, nil
}
