package draws

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/drawengine/internal/draw"
	"github.com/fastprodman/drawengine/internal/repos/draws"
)

func (r *drawsRepo) InsertProof(ctx context.Context, p draw.Proof) (draw.Proof, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO draw_proofs (period_id, hash, verification_link, block_height, block_time, fetched_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (period_id) DO NOTHING
	`, p.PeriodID, p.Hash, p.VerificationLink, p.BlockHeight, p.BlockTime, p.FetchedAt)
	if err != nil {
		return draw.Proof{}, fmt.Errorf("insert proof: %w", err)
	}

	return r.GetProof(ctx, p.PeriodID)
}

func (r *drawsRepo) GetProof(ctx context.Context, periodID string) (draw.Proof, error) {
	p, err := scanProof(r.db.QueryRowContext(ctx, `
		SELECT `+proofColumns+`
		FROM draw_proofs
		WHERE period_id = $1
	`, periodID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return draw.Proof{}, draws.ErrProofNotFound
		}

		return draw.Proof{}, fmt.Errorf("get proof: %w", err)
	}

	return p, nil
}

func (r *drawsRepo) ListProofsMissingHeight(ctx context.Context, limit int) ([]draw.Proof, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+proofColumns+`
		FROM draw_proofs
		WHERE block_height IS NULL
		ORDER BY fetched_at, period_id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list proofs missing height: %w", err)
	}
	defer rows.Close()

	var out []draw.Proof

	for rows.Next() {
		p, err := scanProof(rows)
		if err != nil {
			return nil, fmt.Errorf("scan proof: %w", err)
		}

		out = append(out, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate proofs: %w", err)
	}

	return out, nil
}

// SetProofHeight fills a missing height. The hash is never touched, and a
// height that is already set is left alone.
func (r *drawsRepo) SetProofHeight(ctx context.Context, periodID string, height int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE draw_proofs
		SET block_height = $2
		WHERE period_id = $1
		  AND block_height IS NULL
	`, periodID, height)
	if err != nil {
		return fmt.Errorf("set proof height: %w", err)
	}

	return nil
}
