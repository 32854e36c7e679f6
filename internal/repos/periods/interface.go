package periods

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/fastprodman/drawengine/internal/period"
)

var (
	ErrPeriodNotFound = errors.New("period not found")
	// ErrStateConflict means the period was not in the expected state; another
	// actor already moved it.
	ErrStateConflict = errors.New("period state conflict")
)

type Periods interface {
	// Create inserts p unless it already exists and reports whether it did.
	Create(tx *sql.Tx, p period.Period) (bool, error)
	Get(ctx context.Context, id string) (period.Period, error)
	LockForUpdate(tx *sql.Tx, id string) (period.Period, error)
	// Transition moves the period from one state to the next only if it is
	// still in from.
	Transition(tx *sql.Tx, id string, from, to period.State, at time.Time) error
	// At returns the period of key whose window contains at.
	At(ctx context.Context, key period.Key, at time.Time) (period.Period, error)
	// ListUnfinished returns periods ended by before that are not completed,
	// oldest first.
	ListUnfinished(ctx context.Context, before time.Time, limit int) ([]period.Period, error)
}
