package transactions

import (
	"database/sql"
	"fmt"

	"github.com/fastprodman/drawengine/internal/infra/pgutils"
	"github.com/fastprodman/drawengine/internal/repos/transactions"
)

func (r *transactionsRepo) Insert(tx *sql.Tx, e transactions.Entry) error {
	_, err := tx.Exec(`
		INSERT INTO transactions (transaction_id, user_id, kind, source, amount, balance_before, balance_after)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, e.TransactionID, e.UserID, e.Kind, e.Source, e.Amount, e.BalanceBefore, e.BalanceAfter)
	if err != nil {
		if pgutils.IsUniqueViolation(err) {
			return transactions.ErrDuplicateTransaction
		}

		return fmt.Errorf("insert transaction: %w", err)
	}

	return nil
}
