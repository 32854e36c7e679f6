package users

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/drawengine/internal/repos/users"
)

func (r *usersRepo) AdjustBalance(tx *sql.Tx, userID uint64, delta int64) (int64, error) {
	var balance int64

	err := tx.QueryRow(`
		UPDATE users
		SET balance = balance + $2
		WHERE id = $1
		  AND balance + $2 >= 0
		RETURNING balance
	`, userID, delta).Scan(&balance)
	if err == nil {
		return balance, nil
	}

	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("adjust balance: %w", err)
	}

	// No row matched: either the user is missing or the guard rejected it.
	err = r.Exists(tx, userID)
	if err != nil {
		return 0, err
	}

	return 0, users.ErrInsufficientFunds
}
