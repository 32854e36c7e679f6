package wagers

import (
	"database/sql"
	"fmt"

	"github.com/fastprodman/drawengine/internal/wager"
)

func (r *wagersRepo) Insert(tx *sql.Tx, w wager.Wager) error {
	_, err := tx.Exec(`
		INSERT INTO wagers (id, period_id, user_id, category_kind, category_value, stake, odds, tax,
			amount_after_tax, status, credit_status, placed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, w.ID, w.PeriodID, w.UserID, string(w.Category.Kind), w.Category.Value, w.Stake, w.Odds, w.Tax,
		w.AmountAfterTax, w.Status, w.CreditStatus, w.PlacedAt)
	if err != nil {
		return fmt.Errorf("insert wager: %w", err)
	}

	return nil
}
