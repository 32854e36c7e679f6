package balance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/drawengine/internal/infra/pgutils"
	"github.com/fastprodman/drawengine/internal/repos/transactions"
	pgtransactions "github.com/fastprodman/drawengine/internal/repos/transactions/postgres"
	"github.com/fastprodman/drawengine/internal/repos/users"
	pgusers "github.com/fastprodman/drawengine/internal/repos/users/postgres"
)

var ErrInvalidTransaction = errors.New("invalid transaction")

type BalanceService struct {
	db    *sql.DB
	users users.Users
	txns  transactions.Transactions
}

func New(dbx *sql.DB) *BalanceService {
	return &BalanceService{
		db:    dbx,
		users: pgusers.New(dbx),
		txns:  pgtransactions.New(dbx),
	}
}

// ProcessTransaction applies t in its own DB transaction.
func (s *BalanceService) ProcessTransaction(ctx context.Context, t Transaction) (Snapshot, error) {
	var snap Snapshot

	err := pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		snap, err = s.ProcessTransactionTx(tx, t)

		return err
	})
	if err != nil {
		return snap, fmt.Errorf("process transaction: %w", err)
	}

	return snap, nil
}

// ProcessTransactionTx applies t inside the caller's transaction:
//
// 1) Ensure user exists.
// 2) Lock user row (FOR UPDATE).
// 3) Look the reference up; a known one returns its original snapshot with
// ErrDuplicateTransaction and changes nothing.
// 4) Apply effect via repo calls.
// 5) Insert the ledger entry (unique-violation -> ErrDuplicateTransaction).
func (s *BalanceService) ProcessTransactionTx(tx *sql.Tx, t Transaction) (Snapshot, error) {
	if t.TransactionID == "" || t.AmountMinor <= 0 {
		return Snapshot{}, fmt.Errorf("%w: reference and positive amount required", ErrInvalidTransaction)
	}

	err := s.users.Exists(tx, t.UserID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("check user exists: %w", err)
	}

	before, err := s.users.LockAndGetBalance(tx, t.UserID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("lock and get balance: %w", err)
	}

	prev, err := s.txns.Get(tx, t.TransactionID)
	switch {
	case err == nil:
		return snapshotOf(prev), fmt.Errorf("reference %s: %w", t.TransactionID, ErrDuplicateTransaction)
	case !errors.Is(err, transactions.ErrTransactionNotFound):
		return Snapshot{}, fmt.Errorf("lookup reference: %w", err)
	}

	entry := transactions.Entry{
		TransactionID: t.TransactionID,
		UserID:        t.UserID,
		Source:        string(t.Source),
		Amount:        t.AmountMinor,
		BalanceBefore: before,
	}

	var delta int64

	switch t.State {
	case TxWin:
		entry.Kind = transactions.KindCredit
		delta = t.AmountMinor
	case TxLose:
		// pre-check against locked balance
		if before < t.AmountMinor {
			return Snapshot{}, fmt.Errorf("pre-check debit: %w", users.ErrInsufficientFunds)
		}

		entry.Kind = transactions.KindDebit
		delta = -t.AmountMinor
	default:
		return Snapshot{}, fmt.Errorf("%w: state %q", ErrInvalidTransaction, t.State)
	}

	entry.BalanceAfter, err = s.users.AdjustBalance(tx, t.UserID, delta)
	if err != nil {
		return Snapshot{}, fmt.Errorf("adjust balance: %w", err)
	}

	err = s.txns.Insert(tx, entry)
	if err != nil {
		return Snapshot{}, fmt.Errorf("insert transaction: %w", err)
	}

	return snapshotOf(entry), nil
}

// Credit adds amount to the user's wallet once per reference.
func (s *BalanceService) Credit(ctx context.Context, userID uint64, amount int64, ref string) (Snapshot, error) {
	return s.ProcessTransaction(ctx, Transaction{
		TransactionID: ref,
		UserID:        userID,
		Source:        SourceGame,
		State:         TxWin,
		AmountMinor:   amount,
	})
}

// DebitTx takes amount from the user's wallet inside tx, once per reference.
func (s *BalanceService) DebitTx(tx *sql.Tx, userID uint64, amount int64, ref string) (Snapshot, error) {
	return s.ProcessTransactionTx(tx, Transaction{
		TransactionID: ref,
		UserID:        userID,
		Source:        SourceGame,
		State:         TxLose,
		AmountMinor:   amount,
	})
}

// GetBalance returns the user's balance (no locks; suitable for the GET endpoint).
func (s *BalanceService) GetBalance(ctx context.Context, userID uint64) (int64, error) {
	balance, err := s.users.GetBalance(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}

	return balance, nil
}

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 200
)

// History returns the user's latest ledger entries, newest first. A limit
// outside 1..MaxHistoryLimit is replaced by the default or the maximum.
func (s *BalanceService) History(ctx context.Context, userID uint64, limit int) ([]transactions.Entry, error) {
	switch {
	case limit <= 0:
		limit = DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		limit = MaxHistoryLimit
	}

	out, err := s.txns.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	return out, nil
}

func snapshotOf(e transactions.Entry) Snapshot {
	return Snapshot{
		TransactionID: e.TransactionID,
		UserID:        e.UserID,
		BalanceBefore: e.BalanceBefore,
		BalanceAfter:  e.BalanceAfter,
	}
}
