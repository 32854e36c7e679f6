package wagers

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/fastprodman/drawengine/internal/wager"
)

var (
	ErrWagerNotFound = errors.New("wager not found")
	// ErrAlreadySettled is returned when a wager result is written twice.
	ErrAlreadySettled = errors.New("wager already settled")
)

type Wagers interface {
	Insert(tx *sql.Tx, w wager.Wager) error
	// ListByPeriod returns the period's wagers in placement order.
	ListByPeriod(tx *sql.Tx, periodID string) ([]wager.Wager, error)
	// SaveResult writes the settlement of a pending wager.
	SaveResult(tx *sql.Tx, w wager.Wager) error
	ListByUser(ctx context.Context, userID uint64, limit int) ([]wager.Wager, error)
	// ListPendingCredits returns winning wagers whose credit has not been
	// confirmed and which were settled before the cutoff.
	ListPendingCredits(ctx context.Context, settledBefore time.Time, limit int) ([]wager.Wager, error)
	// MarkCredited records the wallet snapshot of a confirmed credit. It is a
	// no-op for a wager that is already credited.
	MarkCredited(ctx context.Context, id string, before, after int64) error
}
