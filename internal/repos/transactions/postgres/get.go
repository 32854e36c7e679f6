package transactions

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/drawengine/internal/repos/transactions"
)

func (r *transactionsRepo) Get(tx *sql.Tx, txid string) (transactions.Entry, error) {
	e, err := scanEntry(tx.QueryRow(`
		SELECT `+entryColumns+`
		FROM transactions
		WHERE transaction_id = $1
	`, txid))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return transactions.Entry{}, transactions.ErrTransactionNotFound
		}

		return transactions.Entry{}, fmt.Errorf("get transaction: %w", err)
	}

	return e, nil
}
