package draws

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/fastprodman/drawengine/internal/draw"
	"github.com/fastprodman/drawengine/internal/infra/pgutils"
	"github.com/fastprodman/drawengine/internal/repos/draws"
)

func (r *drawsRepo) InsertRecord(tx *sql.Tx, rec draw.Record) error {
	outcome, err := json.Marshal(rec.Outcome)
	if err != nil {
		return fmt.Errorf("encode outcome: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO settlement_records (period_id, game, duration_seconds, outcome_id, outcome, method, exposure,
			max_exposure, wager_count, winner_count, total_stake, total_win_amount, total_payout, settled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, rec.PeriodID, rec.Game, int64(rec.Duration.Seconds()), rec.Outcome.ID, string(outcome), rec.Method,
		rec.Exposure, rec.MaxExposure, rec.WagerCount, rec.WinnerCount, rec.TotalStake, rec.TotalWinAmount,
		rec.TotalPayout, rec.SettledAt)
	if err != nil {
		if pgutils.IsUniqueViolation(err) {
			return draws.ErrRecordExists
		}

		return fmt.Errorf("insert settlement record: %w", err)
	}

	return nil
}
