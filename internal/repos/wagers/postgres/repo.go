package wagers

import (
	"database/sql"

	"github.com/shopspring/decimal"

	"github.com/fastprodman/drawengine/internal/game"
	"github.com/fastprodman/drawengine/internal/repos/wagers"
	"github.com/fastprodman/drawengine/internal/wager"
)

var _ wagers.Wagers = (*wagersRepo)(nil)

type wagersRepo struct{ db *sql.DB }

func New(db *sql.DB) *wagersRepo {
	return &wagersRepo{db: db}
}

const wagerColumns = `id, period_id, user_id, category_kind, category_value, stake, odds, tax, amount_after_tax,
	status, win_amount, payout, credit_status, balance_before, balance_after, placed_at, settled_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWager(row rowScanner) (wager.Wager, error) {
	var (
		w             wager.Wager
		kind, value   string
		odds          decimal.Decimal
		before, after sql.NullInt64
		settledAt     sql.NullTime
	)

	err := row.Scan(&w.ID, &w.PeriodID, &w.UserID, &kind, &value, &w.Stake, &odds, &w.Tax, &w.AmountAfterTax,
		&w.Status, &w.WinAmount, &w.Payout, &w.CreditStatus, &before, &after, &w.PlacedAt, &settledAt)
	if err != nil {
		return wager.Wager{}, err
	}

	w.Category = game.Cat(game.Kind(kind), value)
	w.Odds = odds

	if before.Valid {
		w.BalanceBefore = &before.Int64
	}

	if after.Valid {
		w.BalanceAfter = &after.Int64
	}

	if settledAt.Valid {
		t := settledAt.Time.UTC()
		w.SettledAt = &t
	}

	return w, nil
}

func scanWagers(rows *sql.Rows) ([]wager.Wager, error) {
	defer rows.Close()

	var out []wager.Wager

	for rows.Next() {
		w, err := scanWager(rows)
		if err != nil {
			return nil, err
		}

		out = append(out, w)
	}

	return out, rows.Err()
}
