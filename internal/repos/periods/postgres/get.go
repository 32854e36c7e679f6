package periods

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/drawengine/internal/period"
	"github.com/fastprodman/drawengine/internal/repos/periods"
)

func (r *periodsRepo) Get(ctx context.Context, id string) (period.Period, error) {
	p, err := scanPeriod(r.db.QueryRowContext(ctx, `
		SELECT `+periodColumns+`
		FROM periods
		WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return period.Period{}, periods.ErrPeriodNotFound
		}

		return period.Period{}, fmt.Errorf("get period: %w", err)
	}

	return p, nil
}
