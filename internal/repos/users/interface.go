package users

import (
	"context"
	"database/sql"
	"errors"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrUserNotFound      = errors.New("user not found")
)

// Users owns wallet balances. Mutations run inside the caller's transaction
// after the row has been locked with LockAndGetBalance.
type Users interface {
	Exists(tx *sql.Tx, userID uint64) error
	GetBalance(ctx context.Context, userID uint64) (int64, error)
	LockAndGetBalance(tx *sql.Tx, userID uint64) (int64, error)
	// AdjustBalance adds delta, which may be negative, and returns the new
	// balance. A result below zero fails with ErrInsufficientFunds.
	AdjustBalance(tx *sql.Tx, userID uint64, delta int64) (int64, error)
}
