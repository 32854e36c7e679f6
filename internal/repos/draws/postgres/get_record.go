package draws

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fastprodman/drawengine/internal/draw"
	"github.com/fastprodman/drawengine/internal/game"
	"github.com/fastprodman/drawengine/internal/repos/draws"
)

func (r *drawsRepo) GetRecord(ctx context.Context, periodID string) (draw.Record, error) {
	rec, err := scanRecord(r.db.QueryRowContext(ctx, recordSelect+`
		WHERE r.period_id = $1
	`, periodID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return draw.Record{}, draws.ErrRecordNotFound
		}

		return draw.Record{}, fmt.Errorf("get settlement record: %w", err)
	}

	return rec, nil
}

func (r *drawsRepo) LastRecord(ctx context.Context, g game.Type, d time.Duration) (draw.Record, error) {
	rec, err := scanRecord(r.db.QueryRowContext(ctx, recordSelect+`
		WHERE r.game = $1
		  AND r.duration_seconds = $2
		ORDER BY r.period_id DESC
		LIMIT 1
	`, g, int64(d.Seconds())))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return draw.Record{}, draws.ErrRecordNotFound
		}

		return draw.Record{}, fmt.Errorf("get last settlement record: %w", err)
	}

	return rec, nil
}
