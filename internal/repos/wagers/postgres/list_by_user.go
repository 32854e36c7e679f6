package wagers

import (
	"context"
	"fmt"

	"github.com/fastprodman/drawengine/internal/wager"
)

func (r *wagersRepo) ListByUser(ctx context.Context, userID uint64, limit int) ([]wager.Wager, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+wagerColumns+`
		FROM wagers
		WHERE user_id = $1
		ORDER BY placed_at DESC, id
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list user wagers: %w", err)
	}

	out, err := scanWagers(rows)
	if err != nil {
		return nil, fmt.Errorf("scan user wagers: %w", err)
	}

	return out, nil
}
