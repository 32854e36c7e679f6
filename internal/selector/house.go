package selector

import (
	"context"

	"github.com/fastprodman/drawengine/internal/draw"
	"github.com/fastprodman/drawengine/internal/exposure"
	"github.com/fastprodman/drawengine/internal/game"
	"github.com/fastprodman/drawengine/internal/period"
	"github.com/fastprodman/drawengine/internal/wager"
)

// House picks a minimum exposure outcome. It bounds the round's payout to
// the smallest achievable for the wagers received; it does not promise a profit.
type House struct {
	variant game.Variant
}

func NewHouse(v game.Variant) House {
	return House{variant: v}
}

func (h House) Select(_ context.Context, p period.Period, wagers []wager.Wager) (Selection, error) {
	outcomes := h.variant.Outcomes()

	if len(wagers) == 0 {
		all := make([]int, len(outcomes))
		for i := range all {
			all[i] = i
		}

		return Selection{Outcome: outcomes[pick(p.ID, all)], Method: draw.MethodNoWagers}, nil
	}

	scores := exposure.Compute(h.variant, wagers)
	low, at := scores.Min()

	return Selection{
		Outcome:     outcomes[pick(p.ID, at)],
		Method:      draw.MethodMinExposure,
		Exposure:    low,
		MaxExposure: scores.Max(),
	}, nil
}
