// Package placement accepts wagers into open periods.
package placement

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fastprodman/drawengine/internal/game"
	"github.com/fastprodman/drawengine/internal/infra/pgutils"
	"github.com/fastprodman/drawengine/internal/metrics"
	"github.com/fastprodman/drawengine/internal/period"
	"github.com/fastprodman/drawengine/internal/repos/periods"
	pgperiods "github.com/fastprodman/drawengine/internal/repos/periods/postgres"
	"github.com/fastprodman/drawengine/internal/repos/users"
	"github.com/fastprodman/drawengine/internal/repos/wagers"
	pgwagers "github.com/fastprodman/drawengine/internal/repos/wagers/postgres"
	"github.com/fastprodman/drawengine/internal/services/balance"
	"github.com/fastprodman/drawengine/internal/wager"
)

var (
	ErrPeriodNotOpen    = errors.New("period not open for wagers")
	ErrStakeOutOfBounds = errors.New("stake out of bounds")
)

// Wallet takes the stake inside the placement transaction.
type Wallet interface {
	DebitTx(tx *sql.Tx, userID uint64, amount int64, ref string) (balance.Snapshot, error)
}

// Request is a wager as submitted by a player. An empty PeriodID targets the
// period currently open for the lane.
type Request struct {
	UserID   uint64
	Game     game.Type
	Duration time.Duration
	PeriodID string
	Category game.Category
	Stake    int64
}

// Receipt is an accepted wager with the wallet balance around its debit.
type Receipt struct {
	Wager   wager.Wager
	Balance balance.Snapshot
}

type Service struct {
	db      *sql.DB
	catalog *game.Catalog
	periods periods.Periods
	wagers  wagers.Wagers
	wallet  Wallet
	now     func() time.Time
}

func New(dbx *sql.DB, catalog *game.Catalog, wallet Wallet) *Service {
	return &Service{
		db:      dbx,
		catalog: catalog,
		periods: pgperiods.New(dbx),
		wagers:  pgwagers.New(dbx),
		wallet:  wallet,
		now:     time.Now,
	}
}

// Place validates req, debits the stake and appends the wager. The period row
// is locked and its window re-checked against the stored record, so a wager
// is never accepted after close whatever the caller's clock says.
func (s *Service) Place(ctx context.Context, req Request) (Receipt, error) {
	rules, err := s.validate(req)
	if err != nil {
		metrics.WagerRejected(string(req.Game), rejectReason(err))
		return Receipt{}, err
	}

	odds, err := rules.OddsFor(req.Category)
	if err != nil {
		metrics.WagerRejected(string(req.Game), rejectReason(err))
		return Receipt{}, err
	}

	quote := wager.NewQuote(req.Stake, odds, rules.TaxRate)

	var rec Receipt

	err = pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		p, err := s.lockOpenPeriod(tx, req)
		if err != nil {
			return err
		}

		w := wager.Wager{
			ID:             uuid.NewString(),
			PeriodID:       p.ID,
			UserID:         req.UserID,
			Category:       req.Category,
			Stake:          req.Stake,
			Odds:           quote.Odds,
			Tax:            quote.Tax,
			AmountAfterTax: quote.AmountAfterTax,
			Status:         wager.StatusPending,
			CreditStatus:   wager.CreditNone,
			PlacedAt:       s.now().UTC().Truncate(time.Microsecond),
		}

		snap, err := s.wallet.DebitTx(tx, req.UserID, req.Stake, w.DebitReference())
		if err != nil {
			return fmt.Errorf("debit stake: %w", err)
		}

		err = s.wagers.Insert(tx, w)
		if err != nil {
			return fmt.Errorf("append wager: %w", err)
		}

		rec = Receipt{Wager: w, Balance: snap}

		return nil
	})
	if err != nil {
		metrics.WagerRejected(string(req.Game), rejectReason(err))
		return Receipt{}, fmt.Errorf("place wager: %w", err)
	}

	metrics.WagerPlaced(string(req.Game))

	return rec, nil
}

func (s *Service) validate(req Request) (*game.Rules, error) {
	rules, err := s.catalog.Rules(req.Game)
	if err != nil {
		return nil, err
	}

	if !rules.HasDuration(req.Duration) {
		return nil, fmt.Errorf("%w: %s has no %s lane", period.ErrInvalidDuration, req.Game, req.Duration)
	}

	err = rules.Validate(req.Category)
	if err != nil {
		return nil, err
	}

	if req.Stake < rules.MinStake || req.Stake > rules.MaxStake {
		return nil, fmt.Errorf("%w: %d not in [%d, %d]", ErrStakeOutOfBounds, req.Stake, rules.MinStake, rules.MaxStake)
	}

	return rules, nil
}

func (s *Service) lockOpenPeriod(tx *sql.Tx, req Request) (period.Period, error) {
	key := period.Key{Game: req.Game, Duration: req.Duration}

	id := req.PeriodID
	if id == "" {
		id = period.At(key, s.now()).ID
	}

	p, err := s.periods.LockForUpdate(tx, id)
	if errors.Is(err, periods.ErrPeriodNotFound) {
		return period.Period{}, fmt.Errorf("%w: %s does not exist", ErrPeriodNotOpen, id)
	}

	if err != nil {
		return period.Period{}, fmt.Errorf("lock period: %w", err)
	}

	if p.Key() != key {
		return period.Period{}, fmt.Errorf("%w: %s belongs to %s", ErrPeriodNotOpen, id, p.Key())
	}

	// the clock is read after the lock so a wager that queued behind the close
	// transition sees the closed window
	if !p.Accepting(s.now()) {
		return period.Period{}, fmt.Errorf("%w: %s is %s", ErrPeriodNotOpen, id, p.State)
	}

	return p, nil
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrPeriodNotOpen):
		return "period_not_open"
	case errors.Is(err, ErrStakeOutOfBounds):
		return "stake_out_of_bounds"
	case errors.Is(err, game.ErrInvalidCategory):
		return "invalid_category"
	case errors.Is(err, game.ErrUnknownGame), errors.Is(err, period.ErrInvalidDuration):
		return "unknown_lane"
	case errors.Is(err, balance.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, users.ErrUserNotFound):
		return "unknown_user"
	default:
		return "internal"
	}
}
