package wagers

import (
	"context"
	"fmt"
	"time"

	"github.com/fastprodman/drawengine/internal/repos/wagers"
	"github.com/fastprodman/drawengine/internal/wager"
)

func (r *wagersRepo) ListPendingCredits(ctx context.Context, settledBefore time.Time, limit int) ([]wager.Wager, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+wagerColumns+`
		FROM wagers
		WHERE credit_status = 'pending'
		  AND settled_at <= $1
		ORDER BY settled_at, id
		LIMIT $2
	`, settledBefore, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending credits: %w", err)
	}

	out, err := scanWagers(rows)
	if err != nil {
		return nil, fmt.Errorf("scan pending credits: %w", err)
	}

	return out, nil
}

func (r *wagersRepo) MarkCredited(ctx context.Context, id string, before, after int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE wagers
		SET credit_status = 'credited', balance_before = $2, balance_after = $3
		WHERE id = $1
		  AND credit_status = 'pending'
	`, id, before, after)
	if err != nil {
		return fmt.Errorf("mark credited: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 1 {
		return nil
	}

	var exists bool

	err = r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM wagers WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check wager: %w", err)
	}

	if !exists {
		return wagers.ErrWagerNotFound
	}

	return nil
}
