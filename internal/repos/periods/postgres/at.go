package periods

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fastprodman/drawengine/internal/period"
	"github.com/fastprodman/drawengine/internal/repos/periods"
)

func (r *periodsRepo) At(ctx context.Context, key period.Key, at time.Time) (period.Period, error) {
	p, err := scanPeriod(r.db.QueryRowContext(ctx, `
		SELECT `+periodColumns+`
		FROM periods
		WHERE game = $1
		  AND duration_seconds = $2
		  AND start_at <= $3
		  AND end_at > $3
	`, key.Game, int64(key.Duration.Seconds()), at))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return period.Period{}, periods.ErrPeriodNotFound
		}

		return period.Period{}, fmt.Errorf("get period at: %w", err)
	}

	return p, nil
}
