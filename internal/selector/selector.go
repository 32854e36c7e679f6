// Package selector chooses a period's settlement outcome.
package selector

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"

	"github.com/fastprodman/drawengine/internal/draw"
	"github.com/fastprodman/drawengine/internal/game"
	"github.com/fastprodman/drawengine/internal/period"
	"github.com/fastprodman/drawengine/internal/wager"
)

var ErrNoBinder = errors.New("verifiable game without a verification binder")

// Selection is a chosen outcome with the figures that justified it.
type Selection struct {
	Outcome     game.Outcome
	Method      draw.Method
	Exposure    int64
	MaxExposure int64
	Proof       *draw.Proof
}

type Selector interface {
	Select(ctx context.Context, p period.Period, wagers []wager.Wager) (Selection, error)
}

// Binder resolves the externally verifiable outcome of a period.
type Binder interface {
	Bind(ctx context.Context, p period.Period, d game.Deriver) (game.Outcome, draw.Proof, error)
}

// For returns the selector matching the game's configured policy.
func For(rules *game.Rules, binder Binder) (Selector, error) {
	switch rules.Policy {
	case game.PolicyVerifiable:
		if binder == nil {
			return nil, ErrNoBinder
		}

		d, ok := rules.Variant.(game.Deriver)
		if !ok {
			return nil, fmt.Errorf("%s: %w", rules.Type(), game.ErrInvalidCatalog)
		}

		return Verifiable{variant: rules.Variant, deriver: d, binder: binder}, nil
	default:
		return House{variant: rules.Variant}, nil
	}
}

// pick chooses among candidates by hashing the period id, so reruns for the
// same period land on the same outcome while consecutive periods spread out.
func pick(periodID string, candidates []int) int {
	h := fnv.New64a()
	_, _ = h.Write([]byte(periodID))

	return candidates[h.Sum64()%uint64(len(candidates))]
}
