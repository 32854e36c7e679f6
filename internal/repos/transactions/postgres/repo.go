package transactions

import (
	"database/sql"

	"github.com/fastprodman/drawengine/internal/repos/transactions"
)

var _ transactions.Transactions = (*transactionsRepo)(nil)

type transactionsRepo struct{ db *sql.DB }

func New(db *sql.DB) *transactionsRepo {
	return &transactionsRepo{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (transactions.Entry, error) {
	var e transactions.Entry

	err := row.Scan(&e.TransactionID, &e.UserID, &e.Kind, &e.Source, &e.Amount,
		&e.BalanceBefore, &e.BalanceAfter, &e.CreatedAt)

	return e, err
}

const entryColumns = `transaction_id, user_id, kind, source, amount, balance_before, balance_after, created_at`
