package verify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fastprodman/drawengine/internal/draw"
	"github.com/fastprodman/drawengine/internal/repos/draws"
)

type RepairStore interface {
	ListProofsMissingHeight(ctx context.Context, limit int) ([]draw.Proof, error)
	SetProofHeight(ctx context.Context, periodID string, height int64) error
	GetRecord(ctx context.Context, periodID string) (draw.Record, error)
}

// RepairReport summarises one backfill pass.
type RepairReport struct {
	Scanned    int
	Backfilled int
	Failed     int
	// Mismatched lists periods whose recorded outcome differs from the one
	// derived from the stored hash. They are reported, never rewritten.
	Mismatched []string
}

// Repairer backfills block heights of stored proofs.
type Repairer struct {
	reader ChainReader
	store  RepairStore
}

func NewRepairer(reader ChainReader, store RepairStore) *Repairer {
	return &Repairer{reader: reader, store: store}
}

// Run processes up to limit proofs lacking a block height. Heights are looked
// up by the stored hash only; the hash itself and the outcome are never
// re-fetched.
func (r *Repairer) Run(ctx context.Context, limit int) (RepairReport, error) {
	proofs, err := r.store.ListProofsMissingHeight(ctx, limit)
	if err != nil {
		return RepairReport{}, fmt.Errorf("list proofs: %w", err)
	}

	var rep RepairReport

	for _, p := range proofs {
		rep.Scanned++

		ref, err := r.reader.BlockByHash(ctx, p.Hash)
		if err != nil {
			if ctx.Err() != nil {
				return rep, fmt.Errorf("repair interrupted: %w", ctx.Err())
			}

			rep.Failed++
			slog.Warn("proof backfill lookup failed", "period_id", p.PeriodID, "error", err)

			continue
		}

		err = r.store.SetProofHeight(ctx, p.PeriodID, ref.Height)
		if err != nil {
			return rep, fmt.Errorf("set height of %s: %w", p.PeriodID, err)
		}

		rep.Backfilled++

		r.checkRecord(ctx, p, &rep)
	}

	return rep, nil
}

func (r *Repairer) checkRecord(ctx context.Context, p draw.Proof, rep *RepairReport) {
	rec, err := r.store.GetRecord(ctx, p.PeriodID)
	if errors.Is(err, draws.ErrRecordNotFound) {
		return
	}

	if err != nil {
		slog.Warn("proof backfill record lookup failed", "period_id", p.PeriodID, "error", err)
		return
	}

	rec.Proof = &p

	v, err := Check(rec)
	if err != nil {
		slog.Warn("proof backfill check failed", "period_id", p.PeriodID, "error", err)
		return
	}

	if !v.Match {
		rep.Mismatched = append(rep.Mismatched, p.PeriodID)
		slog.Error("recorded outcome differs from stored proof",
			"period_id", p.PeriodID, "recorded", v.Recorded.Key(), "derived", v.Derived.Key())
	}
}
