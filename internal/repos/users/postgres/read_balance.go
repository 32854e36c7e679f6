package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/drawengine/internal/repos/users"
)

const (
	selectBalance       = `SELECT balance FROM users WHERE id = $1`
	selectBalanceLocked = selectBalance + ` FOR UPDATE`
)

func (r *usersRepo) GetBalance(ctx context.Context, userID uint64) (int64, error) {
	return scanBalance(r.db.QueryRowContext(ctx, selectBalance, userID), "get balance")
}

// LockAndGetBalance takes the row lock that every later mutation of this
// user in tx relies on.
func (r *usersRepo) LockAndGetBalance(tx *sql.Tx, userID uint64) (int64, error) {
	return scanBalance(tx.QueryRow(selectBalanceLocked, userID), "lock balance")
}

func scanBalance(row *sql.Row, op string) (int64, error) {
	var balance int64

	err := row.Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%s: %w: %w", op, users.ErrUserNotFound, err)
	}

	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return balance, nil
}
