package periods

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/fastprodman/drawengine/internal/period"
	"github.com/fastprodman/drawengine/internal/repos/periods"
)

func (r *periodsRepo) Transition(tx *sql.Tx, id string, from, to period.State, at time.Time) error {
	if !period.CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", period.ErrInvalidTransition, from, to)
	}

	res, err := tx.Exec(`
		UPDATE periods
		SET state = $3, updated_at = $4
		WHERE id = $1
		  AND state = $2
	`, id, from, to, at)
	if err != nil {
		return fmt.Errorf("update period state: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("%w: %s is not %s", periods.ErrStateConflict, id, from)
	}

	return nil
}
