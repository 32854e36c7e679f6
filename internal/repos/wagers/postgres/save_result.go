package wagers

import (
	"database/sql"
	"fmt"

	"github.com/fastprodman/drawengine/internal/repos/wagers"
	"github.com/fastprodman/drawengine/internal/wager"
)

func (r *wagersRepo) SaveResult(tx *sql.Tx, w wager.Wager) error {
	res, err := tx.Exec(`
		UPDATE wagers
		SET status = $2, win_amount = $3, payout = $4, credit_status = $5, settled_at = $6
		WHERE id = $1
		  AND status = 'pending'
	`, w.ID, w.Status, w.WinAmount, w.Payout, w.CreditStatus, w.SettledAt)
	if err != nil {
		return fmt.Errorf("save wager result: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("%w: %s", wagers.ErrAlreadySettled, w.ID)
	}

	return nil
}
