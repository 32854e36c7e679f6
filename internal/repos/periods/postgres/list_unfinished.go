package periods

import (
	"context"
	"fmt"
	"time"

	"github.com/fastprodman/drawengine/internal/period"
)

func (r *periodsRepo) ListUnfinished(ctx context.Context, before time.Time, limit int) ([]period.Period, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+periodColumns+`
		FROM periods
		WHERE state <> 'completed'
		  AND end_at <= $1
		ORDER BY end_at, id
		LIMIT $2
	`, before, limit)
	if err != nil {
		return nil, fmt.Errorf("list unfinished periods: %w", err)
	}
	defer rows.Close()

	var out []period.Period

	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, fmt.Errorf("scan period: %w", err)
		}

		out = append(out, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate periods: %w", err)
	}

	return out, nil
}
