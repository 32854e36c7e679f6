package transactions

import (
	"context"
	"fmt"

	"github.com/fastprodman/drawengine/internal/repos/transactions"
)

// ListByUser returns the user's most recent entries, newest first.
func (r *transactionsRepo) ListByUser(ctx context.Context, userID uint64, limit int) ([]transactions.Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+entryColumns+`
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, transaction_id
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []transactions.Entry

	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}

		out = append(out, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}

	return out, nil
}
