package wagers

import (
	"database/sql"
	"fmt"

	"github.com/fastprodman/drawengine/internal/wager"
)

func (r *wagersRepo) ListByPeriod(tx *sql.Tx, periodID string) ([]wager.Wager, error) {
	rows, err := tx.Query(`
		SELECT `+wagerColumns+`
		FROM wagers
		WHERE period_id = $1
		ORDER BY placed_at, id
	`, periodID)
	if err != nil {
		return nil, fmt.Errorf("list period wagers: %w", err)
	}

	out, err := scanWagers(rows)
	if err != nil {
		return nil, fmt.Errorf("scan period wagers: %w", err)
	}

	return out, nil
}
