// Package exposure computes, for every candidate outcome of a period, the
// total payout the house would owe if that outcome were drawn.
package exposure

import (
	"github.com/fastprodman/drawengine/internal/game"
	"github.com/fastprodman/drawengine/internal/wager"
)

// Index is the liability of a period's wagers grouped by bet category.
type Index map[game.Category]int64

// NewIndex groups wagers by category, summing stake × odds.
func NewIndex(wagers []wager.Wager) Index {
	idx := make(Index, len(wagers))
	for _, w := range wagers {
		idx[w.Category] += w.Liability()
	}

	return idx
}

// Scores holds one exposure value per outcome, indexed like the variant's
// Outcomes slice.
type Scores []int64

// Of computes the liability of a single outcome.
func (idx Index) Of(v game.Variant, o game.Outcome) int64 {
	var total int64
	for _, c := range game.TagsFor(v, o) {
		total += idx[c]
	}

	return total
}

// Compute scores the whole outcome space. Each outcome only looks up the
// categories it is tagged with, so the cost is outcomes × tags per outcome
// and never outcomes × wagers.
func Compute(v game.Variant, wagers []wager.Wager) Scores {
	outcomes := v.Outcomes()
	scores := make(Scores, len(outcomes))

	if len(wagers) == 0 {
		return scores
	}

	idx := NewIndex(wagers)
	buf := make([]game.Category, 0, 24)

	for i, o := range outcomes {
		buf = v.AppendTags(buf[:0], o)

		var total int64
		for _, c := range buf {
			total += idx[c]
		}

		scores[i] = total
	}

	return scores
}

// Min returns the smallest score and the positions holding it, in ascending order.
func (s Scores) Min() (int64, []int) {
	if len(s) == 0 {
		return 0, nil
	}

	low := s[0]
	for _, v := range s[1:] {
		if v < low {
			low = v
		}
	}

	var at []int
	for i, v := range s {
		if v == low {
			at = append(at, i)
		}
	}

	return low, at
}

// Max returns the worst case liability across the space.
func (s Scores) Max() int64 {
	var high int64
	for _, v := range s {
		if v > high {
			high = v
		}
	}

	return high
}
