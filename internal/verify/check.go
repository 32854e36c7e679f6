package verify

import (
	"errors"
	"fmt"

	"github.com/fastprodman/drawengine/internal/draw"
	"github.com/fastprodman/drawengine/internal/game"
)

var ErrNotVerifiable = errors.New("period has no external proof")

// Verification is the result of recomputing a settled outcome.
type Verification struct {
	PeriodID string
	Proof    draw.Proof
	Recorded game.Outcome
	Derived  game.Outcome
	Match    bool
}

// Check recomputes the outcome of rec from its stored proof hash.
func Check(rec draw.Record) (Verification, error) {
	if rec.Proof == nil {
		return Verification{}, fmt.Errorf("%w: %s", ErrNotVerifiable, rec.PeriodID)
	}

	v, err := game.Lookup(rec.Game)
	if err != nil {
		return Verification{}, err
	}

	d, ok := v.(game.Deriver)
	if !ok {
		return Verification{}, fmt.Errorf("%w: %s cannot derive from a hash", ErrNotVerifiable, rec.Game)
	}

	derived, err := d.Derive(rec.Proof.Hash)
	if err != nil {
		return Verification{}, fmt.Errorf("derive %s: %w", rec.PeriodID, err)
	}

	return Verification{
		PeriodID: rec.PeriodID,
		Proof:    *rec.Proof,
		Recorded: rec.Outcome,
		Derived:  derived,
		Match:    derived.Equal(rec.Outcome),
	}, nil
}
