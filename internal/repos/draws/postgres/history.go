package draws

import (
	"context"
	"fmt"
	"time"

	"github.com/fastprodman/drawengine/internal/draw"
	"github.com/fastprodman/drawengine/internal/game"
)

// History pages by period id. Ids of one lane sort chronologically, so the
// cursor is simply the oldest id of the previous page.
func (r *drawsRepo) History(
	ctx context.Context, g game.Type, d time.Duration, before string, limit int,
) ([]draw.Record, error) {
	rows, err := r.db.QueryContext(ctx, recordSelect+`
		WHERE r.game = $1
		  AND r.duration_seconds = $2
		  AND ($3 = '' OR r.period_id < $3)
		ORDER BY r.period_id DESC
		LIMIT $4
	`, g, int64(d.Seconds()), before, limit)
	if err != nil {
		return nil, fmt.Errorf("list settlement records: %w", err)
	}
	defer rows.Close()

	var out []draw.Record

	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan settlement record: %w", err)
		}

		out = append(out, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate settlement records: %w", err)
	}

	return out, nil
}
