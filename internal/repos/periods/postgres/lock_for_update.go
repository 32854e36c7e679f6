package periods

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/drawengine/internal/period"
	"github.com/fastprodman/drawengine/internal/repos/periods"
)

func (r *periodsRepo) LockForUpdate(tx *sql.Tx, id string) (period.Period, error) {
	p, err := scanPeriod(tx.QueryRow(`
		SELECT `+periodColumns+`
		FROM periods
		WHERE id = $1
		FOR UPDATE
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return period.Period{}, periods.ErrPeriodNotFound
		}

		return period.Period{}, fmt.Errorf("lock period: %w", err)
	}

	return p, nil
}
