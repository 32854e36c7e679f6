package scheduler

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fastprodman/drawengine/internal/infra/pgutils"
	"github.com/fastprodman/drawengine/internal/period"
	"github.com/fastprodman/drawengine/internal/repos/periods"
	pgperiods "github.com/fastprodman/drawengine/internal/repos/periods/postgres"
)

// Store persists lane transitions.
type Store interface {
	// Open creates p if needed and opens it if it is still pending.
	Open(ctx context.Context, p period.Period, at time.Time) (period.Period, error)
	// Prepare creates p and opens it ahead of its window, so wagers arriving
	// at the boundary find it accepting before the previous period is closed.
	Prepare(ctx context.Context, p period.Period, at time.Time) error
	// Handoff closes cur and makes sure next is open in one transaction, so
	// the lane has no gap even when Prepare never succeeded.
	Handoff(ctx context.Context, cur, next period.Period, at time.Time) error
	ListUnfinished(ctx context.Context, before time.Time, limit int) ([]period.Period, error)
}

type pgStore struct {
	db      *sql.DB
	periods periods.Periods
}

func NewPostgresStore(dbx *sql.DB) Store {
	return &pgStore{db: dbx, periods: pgperiods.New(dbx)}
}

func (s *pgStore) Open(ctx context.Context, p period.Period, at time.Time) (period.Period, error) {
	var out period.Period

	err := pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error

		out, err = s.openTx(tx, p, at)

		return err
	})
	if err != nil {
		return period.Period{}, fmt.Errorf("open %s: %w", p.ID, err)
	}

	return out, nil
}

func (s *pgStore) Prepare(ctx context.Context, p period.Period, at time.Time) error {
	err := pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		_, err := s.openTx(tx, p, at)
		return err
	})
	if err != nil {
		return fmt.Errorf("prepare %s: %w", p.ID, err)
	}

	return nil
}

func (s *pgStore) Handoff(ctx context.Context, cur, next period.Period, at time.Time) error {
	err := pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		locked, err := s.periods.LockForUpdate(tx, cur.ID)
		if err != nil {
			return fmt.Errorf("lock %s: %w", cur.ID, err)
		}

		if locked.State == period.StateOpen {
			err = s.periods.Transition(tx, cur.ID, period.StateOpen, period.StateClosing, at)
			if err != nil {
				return err
			}
		}

		_, err = s.openTx(tx, next, at)

		return err
	})
	if err != nil {
		return fmt.Errorf("handoff %s -> %s: %w", cur.ID, next.ID, err)
	}

	return nil
}

func (s *pgStore) ListUnfinished(ctx context.Context, before time.Time, limit int) ([]period.Period, error) {
	return s.periods.ListUnfinished(ctx, before, limit)
}

func (s *pgStore) openTx(tx *sql.Tx, p period.Period, at time.Time) (period.Period, error) {
	_, err := s.periods.Create(tx, p)
	if err != nil {
		return period.Period{}, err
	}

	locked, err := s.periods.LockForUpdate(tx, p.ID)
	if err != nil {
		return period.Period{}, fmt.Errorf("lock %s: %w", p.ID, err)
	}

	if locked.State != period.StatePending {
		return locked, nil
	}

	err = s.periods.Transition(tx, p.ID, period.StatePending, period.StateOpen, at)
	if err != nil {
		return period.Period{}, err
	}

	locked.State = period.StateOpen

	return locked, nil
}
