package periods

import (
	"database/sql"
	"fmt"

	"github.com/fastprodman/drawengine/internal/period"
)

func (r *periodsRepo) Create(tx *sql.Tx, p period.Period) (bool, error) {
	res, err := tx.Exec(`
		INSERT INTO periods (id, game, duration_seconds, sequence, start_at, end_at, state)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT DO NOTHING
	`, p.ID, p.Game, int64(p.Duration.Seconds()), p.Sequence, p.StartAt, p.EndAt, p.State)
	if err != nil {
		return false, fmt.Errorf("insert period: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}

	return affected == 1, nil
}
