package draws

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/drawengine/internal/draw"
	"github.com/fastprodman/drawengine/internal/infra/pgutils"
	"github.com/fastprodman/drawengine/internal/repos/draws"
)

func (r *drawsRepo) InsertOverride(tx *sql.Tx, o draw.Override) error {
	_, err := tx.Exec(`
		INSERT INTO period_overrides (period_id, outcome_id, actor, reason, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, o.PeriodID, o.OutcomeID, o.Actor, o.Reason, o.CreatedAt)
	if err != nil {
		if pgutils.IsUniqueViolation(err) {
			return draws.ErrOverrideExists
		}

		return fmt.Errorf("insert override: %w", err)
	}

	return nil
}

func (r *drawsRepo) GetOverride(tx *sql.Tx, periodID string) (draw.Override, error) {
	var o draw.Override

	err := tx.QueryRow(`
		SELECT period_id, outcome_id, actor, reason, created_at
		FROM period_overrides
		WHERE period_id = $1
	`, periodID).Scan(&o.PeriodID, &o.OutcomeID, &o.Actor, &o.Reason, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return draw.Override{}, draws.ErrOverrideNotFound
		}

		return draw.Override{}, fmt.Errorf("get override: %w", err)
	}

	o.CreatedAt = o.CreatedAt.UTC()

	return o, nil
}
