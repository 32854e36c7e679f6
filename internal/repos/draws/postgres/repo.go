package draws

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fastprodman/drawengine/internal/draw"
	"github.com/fastprodman/drawengine/internal/game"
	"github.com/fastprodman/drawengine/internal/repos/draws"
)

var _ draws.Draws = (*drawsRepo)(nil)

type drawsRepo struct{ db *sql.DB }

func New(db *sql.DB) *drawsRepo {
	return &drawsRepo{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

const recordSelect = `
	SELECT r.period_id, r.game, r.duration_seconds, r.outcome, r.method, r.exposure, r.max_exposure,
		r.wager_count, r.winner_count, r.total_stake, r.total_win_amount, r.total_payout, r.settled_at,
		p.hash, p.verification_link, p.block_height, p.block_time, p.fetched_at
	FROM settlement_records r
	LEFT JOIN draw_proofs p ON p.period_id = r.period_id`

func scanRecord(row rowScanner) (draw.Record, error) {
	var (
		r         draw.Record
		g         string
		secs      int64
		outcome   []byte
		hash      sql.NullString
		link      sql.NullString
		height    sql.NullInt64
		blockTime sql.NullTime
		fetchedAt sql.NullTime
	)

	err := row.Scan(&r.PeriodID, &g, &secs, &outcome, &r.Method, &r.Exposure, &r.MaxExposure,
		&r.WagerCount, &r.WinnerCount, &r.TotalStake, &r.TotalWinAmount, &r.TotalPayout, &r.SettledAt,
		&hash, &link, &height, &blockTime, &fetchedAt)
	if err != nil {
		return draw.Record{}, err
	}

	r.Game = game.Type(g)
	r.Duration = time.Duration(secs) * time.Second
	r.SettledAt = r.SettledAt.UTC()

	err = json.Unmarshal(outcome, &r.Outcome)
	if err != nil {
		return draw.Record{}, fmt.Errorf("decode outcome: %w", err)
	}

	if hash.Valid {
		r.Proof = &draw.Proof{
			PeriodID:         r.PeriodID,
			Hash:             hash.String,
			VerificationLink: link.String,
			BlockTime:        blockTime.Time.UTC(),
			FetchedAt:        fetchedAt.Time.UTC(),
		}

		if height.Valid {
			r.Proof.BlockHeight = &height.Int64
		}
	}

	return r, nil
}

const proofColumns = `period_id, hash, verification_link, block_height, block_time, fetched_at`

func scanProof(row rowScanner) (draw.Proof, error) {
	var (
		p      draw.Proof
		height sql.NullInt64
	)

	err := row.Scan(&p.PeriodID, &p.Hash, &p.VerificationLink, &height, &p.BlockTime, &p.FetchedAt)
	if err != nil {
		return draw.Proof{}, err
	}

	if height.Valid {
		p.BlockHeight = &height.Int64
	}

	p.BlockTime = p.BlockTime.UTC()
	p.FetchedAt = p.FetchedAt.UTC()

	return p, nil
}
