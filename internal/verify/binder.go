package verify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/fastprodman/drawengine/internal/draw"
	"github.com/fastprodman/drawengine/internal/game"
	"github.com/fastprodman/drawengine/internal/metrics"
	"github.com/fastprodman/drawengine/internal/period"
	"github.com/fastprodman/drawengine/internal/repos/draws"
)

// ErrReferenceTooEarly is returned when the newest final block predates the
// period close. Such a block was public before wagers closed.
var ErrReferenceTooEarly = errors.New("ledger reference finalized before period close")

type ProofStore interface {
	InsertProof(ctx context.Context, p draw.Proof) (draw.Proof, error)
	GetProof(ctx context.Context, periodID string) (draw.Proof, error)
}

// Binder resolves verifiable outcomes. The external ledger is consulted at
// most until a proof is stored; every later call derives from the stored hash.
type Binder struct {
	reader       ChainReader
	store        ProofStore
	linkTemplate string
	maxElapsed   time.Duration
	newBackOff   func() backoff.BackOff
	now          func() time.Time
}

func NewBinder(reader ChainReader, store ProofStore, linkTemplate string, maxElapsed time.Duration) *Binder {
	return &Binder{
		reader:       reader,
		store:        store,
		linkTemplate: linkTemplate,
		maxElapsed:   maxElapsed,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxInterval = 10 * time.Second

			return b
		},
		now: time.Now,
	}
}

func (b *Binder) Bind(ctx context.Context, p period.Period, d game.Deriver) (game.Outcome, draw.Proof, error) {
	proof, err := b.store.GetProof(ctx, p.ID)
	if err != nil && !errors.Is(err, draws.ErrProofNotFound) {
		return game.Outcome{}, draw.Proof{}, fmt.Errorf("load stored proof: %w", err)
	}

	if err != nil {
		ref, err := b.fetch(ctx, p)
		if err != nil {
			return game.Outcome{}, draw.Proof{}, err
		}

		height := ref.Height

		proof, err = b.store.InsertProof(ctx, draw.Proof{
			PeriodID:         p.ID,
			Hash:             ref.Hash,
			VerificationLink: Link(b.linkTemplate, ref),
			BlockHeight:      &height,
			BlockTime:        ref.Timestamp,
			FetchedAt:        b.now().UTC(),
		})
		if err != nil {
			return game.Outcome{}, draw.Proof{}, fmt.Errorf("store proof: %w", err)
		}
	}

	o, err := d.Derive(proof.Hash)
	if err != nil {
		return game.Outcome{}, draw.Proof{}, fmt.Errorf("derive from stored proof: %w", err)
	}

	return o, proof, nil
}

// fetch polls the ledger with exponential backoff until it returns a well
// formed block finalized at or after the period end.
func (b *Binder) fetch(ctx context.Context, p period.Period) (Reference, error) {
	op := func() (Reference, error) {
		ref, err := b.reader.LatestFinalized(ctx)
		if err != nil {
			metrics.VerificationFetch("error")
			return Reference{}, err
		}

		if _, err := game.NormalizeHash(ref.Hash); err != nil {
			metrics.VerificationFetch("malformed")
			return Reference{}, fmt.Errorf("%w: %w", ErrBadReference, err)
		}

		if ref.Timestamp.Before(p.EndAt) {
			metrics.VerificationFetch("too_early")
			return Reference{}, fmt.Errorf("%w: block %d at %s, close %s",
				ErrReferenceTooEarly, ref.Height, ref.Timestamp.Format(time.RFC3339), p.EndAt.Format(time.RFC3339))
		}

		metrics.VerificationFetch("ok")

		return ref, nil
	}

	notify := func(err error, wait time.Duration) {
		slog.Warn("ledger reference not ready, retrying",
			"period_id", p.ID, "error", err, "retry_in", wait)
	}

	ref, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(b.newBackOff()),
		backoff.WithMaxElapsedTime(b.maxElapsed),
		backoff.WithNotify(notify),
	)
	if err != nil {
		return Reference{}, fmt.Errorf("fetch finalized reference: %w", err)
	}

	return ref, nil
}
