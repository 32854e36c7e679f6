package periods

import (
	"database/sql"
	"time"

	"github.com/fastprodman/drawengine/internal/game"
	"github.com/fastprodman/drawengine/internal/period"
	"github.com/fastprodman/drawengine/internal/repos/periods"
)

var _ periods.Periods = (*periodsRepo)(nil)

type periodsRepo struct{ db *sql.DB }

func New(db *sql.DB) *periodsRepo {
	return &periodsRepo{db: db}
}

const periodColumns = `id, game, duration_seconds, sequence, start_at, end_at, state, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPeriod(row rowScanner) (period.Period, error) {
	var (
		p    period.Period
		g    string
		secs int64
	)

	err := row.Scan(&p.ID, &g, &secs, &p.Sequence, &p.StartAt, &p.EndAt, &p.State, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return period.Period{}, err
	}

	p.Game = game.Type(g)
	p.Duration = time.Duration(secs) * time.Second
	p.StartAt = p.StartAt.UTC()
	p.EndAt = p.EndAt.UTC()

	return p, nil
}
