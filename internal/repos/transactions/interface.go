package transactions

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var (
	ErrDuplicateTransaction = errors.New("duplicate transaction")
	ErrTransactionNotFound  = errors.New("transaction not found")
)

type Kind string

const (
	KindCredit Kind = "credit"
	KindDebit  Kind = "debit"
)

// Entry is one applied wallet mutation. TransactionID is the idempotency
// reference; an id is applied at most once.
type Entry struct {
	TransactionID string
	UserID        uint64
	Kind          Kind
	Source        string
	Amount        int64
	BalanceBefore int64
	BalanceAfter  int64
	CreatedAt     time.Time
}

type Transactions interface {
	Insert(tx *sql.Tx, e Entry) error
	Get(tx *sql.Tx, txid string) (Entry, error)
	ListByUser(ctx context.Context, userID uint64, limit int) ([]Entry, error)
}
