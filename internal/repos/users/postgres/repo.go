// Package users stores wallet balances in the users table.
package users

import (
	"database/sql"

	"github.com/fastprodman/drawengine/internal/repos/users"
)

var _ users.Users = (*usersRepo)(nil)

type usersRepo struct {
	db *sql.DB
}

// New returns the Postgres implementation of users.Users.
func New(db *sql.DB) *usersRepo {
	return &usersRepo{db: db}
}
