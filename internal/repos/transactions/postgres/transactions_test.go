package transactions

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/fastprodman/drawengine/internal/infra/pgtestutil"
	"github.com/fastprodman/drawengine/internal/repos/transactions"
)

func entry(id string, userID uint64) transactions.Entry {
	return transactions.Entry{
		TransactionID: id,
		UserID:        userID,
		Kind:          transactions.KindCredit,
		Source:        "game",
		Amount:        100,
		BalanceBefore: 0,
		BalanceAfter:  100,
	}
}

func TestTransactions_Insert(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		seed    func(t *testing.T, db *sql.DB)
		entry   transactions.Entry
		wantErr error
	}{
		{
			name:  "ok_insert",
			seed:  func(t *testing.T, db *sql.DB) { pgtestutil.SeedUser(t, db, 1, 100) },
			entry: entry("win:tx_123", 1),
		},
		{
			name: "duplicate_transaction",
			seed: func(t *testing.T, db *sql.DB) {
				pgtestutil.SeedUser(t, db, 2, 100)
				pgtestutil.MustExec(t, db, `
					INSERT INTO transactions (transaction_id, user_id, kind, source, amount, balance_before, balance_after)
					VALUES ('tx_dup', 2, 'credit', 'game', 5, 0, 5)
				`)
			},
			entry:   entry("tx_dup", 2),
			wantErr: transactions.ErrDuplicateTransaction,
		},
		{
			name:    "user_not_exist_fk_violation",
			seed:    func(*testing.T, *sql.DB) {},
			entry:   entry("tx_fk", 999),
			wantErr: &pgconn.PgError{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			db, cleanup := pgtestutil.NewTestDB(t)
			defer cleanup()

			repo := New(db)

			tt.seed(t, db)

			tx, err := db.BeginTx(t.Context(), nil)
			if err != nil {
				t.Fatalf("begin tx: %v", err)
			}
			defer func() { _ = tx.Rollback() }()

			err = repo.Insert(tx, tt.entry)

			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}

				got, err := repo.Get(tx, tt.entry.TransactionID)
				if err != nil {
					t.Fatalf("get: %v", err)
				}

				if got.Amount != tt.entry.Amount || got.BalanceAfter != tt.entry.BalanceAfter || got.Kind != tt.entry.Kind {
					t.Fatalf("stored entry mismatch: %+v", got)
				}

				return
			}

			var pgErr *pgconn.PgError
			if errors.As(tt.wantErr, &pgErr) {
				if !errors.As(err, &pgErr) {
					t.Fatalf("expected pg error, got %v", err)
				}

				return
			}

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("unexpected error: got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTransactions_GetAndList(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	pgtestutil.SeedUser(t, db, 7, 0)

	repo := New(db)

	tx, err := db.BeginTx(t.Context(), nil)
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := repo.Get(tx, "missing"); !errors.Is(err, transactions.ErrTransactionNotFound) {
		t.Fatalf("want ErrTransactionNotFound, got %v", err)
	}

	for _, id := range []string{"bet:a", "win:a"} {
		if err := repo.Insert(tx, entry(id, 7)); err != nil {
			t.Fatalf("insert %s: %v", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	got, err := repo.ListByUser(t.Context(), 7, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("want 2 entries, got %d", len(got))
	}
}
