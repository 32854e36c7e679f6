package selector

import (
	"context"
	"fmt"

	"github.com/fastprodman/drawengine/internal/draw"
	"github.com/fastprodman/drawengine/internal/exposure"
	"github.com/fastprodman/drawengine/internal/game"
	"github.com/fastprodman/drawengine/internal/period"
	"github.com/fastprodman/drawengine/internal/wager"
)

// Verifiable takes the outcome from the binder. Exposure is reported for risk
// monitoring only and never influences the result.
type Verifiable struct {
	variant game.Variant
	deriver game.Deriver
	binder  Binder
}

func (v Verifiable) Select(ctx context.Context, p period.Period, wagers []wager.Wager) (Selection, error) {
	o, proof, err := v.binder.Bind(ctx, p, v.deriver)
	if err != nil {
		return Selection{}, fmt.Errorf("bind external reference: %w", err)
	}

	var exp, high int64
	if len(wagers) > 0 {
		idx := exposure.NewIndex(wagers)
		exp = idx.Of(v.variant, o)
		high = exposure.Compute(v.variant, wagers).Max()
	}

	return Selection{
		Outcome:     o,
		Method:      draw.MethodVerified,
		Exposure:    exp,
		MaxExposure: high,
		Proof:       &proof,
	}, nil
}
