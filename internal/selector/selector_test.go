package selector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fastprodman/drawengine/internal/draw"
	"github.com/fastprodman/drawengine/internal/exposure"
	"github.com/fastprodman/drawengine/internal/game"
	"github.com/fastprodman/drawengine/internal/period"
	"github.com/fastprodman/drawengine/internal/wager"
)

// toyVariant is a five outcome game; outcomes 0..2 carry tags A, B, C and the
// rest are untagged unless tagAll is set.
type toyVariant struct {
	tagAll bool
}

var toyLetters = []string{"A", "B", "C", "D", "E"}

func (toyVariant) Type() game.Type { return "toy" }

func (toyVariant) Outcomes() []game.Outcome {
	out := make([]game.Outcome, 5)
	for i := range out {
		out[i] = game.Outcome{Game: "toy", ID: i, Digits: []int{i}}
	}

	return out
}

func (v toyVariant) Outcome(id int) (game.Outcome, bool) {
	if id < 0 || id > 4 {
		return game.Outcome{}, false
	}

	return v.Outcomes()[id], true
}

func (v toyVariant) AppendTags(dst []game.Category, o game.Outcome) []game.Category {
	if o.ID < 3 || v.tagAll {
		dst = append(dst, game.Cat("toy", toyLetters[o.ID]))
	}

	return dst
}

func (toyVariant) Categories() []game.Category {
	var cats []game.Category
	for _, l := range toyLetters {
		cats = append(cats, game.Cat("toy", l))
	}

	return cats
}

func (toyVariant) Verifiable() bool { return false }

func toyWagers() []wager.Wager {
	two := decimal.NewFromInt(2)

	return []wager.Wager{
		{Category: game.Cat("toy", "A"), Stake: 100, Odds: two},
		{Category: game.Cat("toy", "B"), Stake: 50, Odds: two},
		{Category: game.Cat("toy", "C"), Stake: 10, Odds: two},
	}
}

func testPeriod(id string) period.Period {
	return period.Period{ID: id, State: period.StateSettling}
}

func TestHouse_ToyScenario(t *testing.T) {
	t.Parallel()

	scores := exposure.Compute(toyVariant{}, toyWagers())

	want := exposure.Scores{200, 100, 20, 0, 0}
	for i := range want {
		if scores[i] != want[i] {
			t.Fatalf("exposure(%s) = %d, want %d", toyLetters[i], scores[i], want[i])
		}
	}

	sel, err := NewHouse(toyVariant{}).Select(t.Context(), testPeriod("p1"), toyWagers())
	if err != nil {
		t.Fatalf("select: %v", err)
	}

	if sel.Exposure != 0 || (sel.Outcome.ID != 3 && sel.Outcome.ID != 4) {
		t.Fatalf("want an untagged outcome, got %d (exposure %d)", sel.Outcome.ID, sel.Exposure)
	}

	if sel.Method != draw.MethodMinExposure || sel.MaxExposure != 200 {
		t.Fatalf("method %s max %d", sel.Method, sel.MaxExposure)
	}
}

func TestHouse_ToyScenarioEveryOutcomeTagged(t *testing.T) {
	t.Parallel()

	wagers := append(toyWagers(),
		wager.Wager{Category: game.Cat("toy", "D"), Stake: 500, Odds: decimal.NewFromInt(2)},
		wager.Wager{Category: game.Cat("toy", "E"), Stake: 600, Odds: decimal.NewFromInt(2)},
	)

	sel, err := NewHouse(toyVariant{tagAll: true}).Select(t.Context(), testPeriod("p1"), wagers)
	if err != nil {
		t.Fatalf("select: %v", err)
	}

	if sel.Outcome.ID != 2 || sel.Exposure != 20 {
		t.Fatalf("want C with exposure 20, got %d (%d)", sel.Outcome.ID, sel.Exposure)
	}
}

func TestHouse_IsMinimal(t *testing.T) {
	t.Parallel()

	v, _ := game.Lookup(game.FiveD)
	h := NewHouse(v)

	mk := func(c game.Category, stake int64) wager.Wager {
		return wager.Wager{Category: c, Stake: stake, Odds: decimal.NewFromInt(2)}
	}

	sets := [][]wager.Wager{
		{mk(game.Cat("a_size", game.Big), 100), mk(game.Cat("a_size", game.Small), 100)},
		{mk(game.Cat(game.KindSumSize, game.Big), 500), mk(game.Cat(game.KindSumSize, game.Small), 400),
			mk(game.Cat(game.KindSumParity, game.Odd), 300), mk(game.Cat(game.KindSumParity, game.Even), 250)},
	}

	for i := range 5 {
		for d := range 10 {
			sets[0] = append(sets[0], mk(game.Cat(game.PositionKind(i, game.KindDigit), string(rune('0'+d))), int64(10+d)))
		}
	}

	for n, wagers := range sets {
		sel, err := h.Select(t.Context(), testPeriod("p-min"), wagers)
		if err != nil {
			t.Fatalf("set %d: %v", n, err)
		}

		scores := exposure.Compute(v, wagers)
		for id, s := range scores {
			if s < sel.Exposure {
				t.Fatalf("set %d: outcome %05d has exposure %d below chosen %d", n, id, s, sel.Exposure)
			}
		}

		if scores[sel.Outcome.ID] != sel.Exposure {
			t.Fatalf("set %d: reported exposure %d, actual %d", n, sel.Exposure, scores[sel.Outcome.ID])
		}
	}
}

func TestHouse_NoWagersIsDeterministic(t *testing.T) {
	t.Parallel()

	v, _ := game.Lookup(game.Wingo)
	h := NewHouse(v)

	first, err := h.Select(t.Context(), testPeriod("202610161000600001"), nil)
	if err != nil {
		t.Fatalf("select: %v", err)
	}

	for range 10 {
		again, _ := h.Select(t.Context(), testPeriod("202610161000600001"), nil)
		if again.Outcome.ID != first.Outcome.ID {
			t.Fatalf("outcome changed between runs: %d vs %d", first.Outcome.ID, again.Outcome.ID)
		}
	}

	if first.Method != draw.MethodNoWagers || first.Exposure != 0 {
		t.Fatalf("method %s exposure %d", first.Method, first.Exposure)
	}
}

type fakeBinder struct {
	hash  string
	err   error
	calls int
}

func (b *fakeBinder) Bind(_ context.Context, p period.Period, d game.Deriver) (game.Outcome, draw.Proof, error) {
	b.calls++
	if b.err != nil {
		return game.Outcome{}, draw.Proof{}, b.err
	}

	o, err := d.Derive(b.hash)
	if err != nil {
		return game.Outcome{}, draw.Proof{}, err
	}

	return o, draw.Proof{PeriodID: p.ID, Hash: b.hash, BlockTime: time.Now()}, nil
}

func TestVerifiable_UsesBinderNotExposure(t *testing.T) {
	t.Parallel()

	rules, err := game.DefaultCatalog().Rules(game.TRX)
	if err != nil {
		t.Fatalf("rules: %v", err)
	}

	b := &fakeBinder{hash: "00000000000000000000000000000000000000000000000000000000000007ab"}

	sel, err := For(rules, b)
	if err != nil {
		t.Fatalf("for: %v", err)
	}

	// every wager lands on 7, the house would never pick it
	wagers := []wager.Wager{{Category: game.Cat(game.KindNumber, "7"), Stake: 1_000, Odds: decimal.NewFromInt(9)}}

	got, err := sel.Select(t.Context(), testPeriod("p-trx"), wagers)
	if err != nil {
		t.Fatalf("select: %v", err)
	}

	if got.Outcome.ID != 7 || got.Method != draw.MethodVerified || got.Proof == nil {
		t.Fatalf("got outcome %d method %s proof %v", got.Outcome.ID, got.Method, got.Proof)
	}

	if got.Exposure != 9_000 {
		t.Fatalf("reported exposure %d", got.Exposure)
	}
}

func TestVerifiable_PropagatesBinderFailure(t *testing.T) {
	t.Parallel()

	rules, _ := game.DefaultCatalog().Rules(game.TRX)
	boom := errors.New("chain unreachable")

	sel, _ := For(rules, &fakeBinder{err: boom})

	_, err := sel.Select(t.Context(), testPeriod("p"), nil)
	if !errors.Is(err, boom) {
		t.Fatalf("want binder error, got %v", err)
	}
}

func TestFor_VerifiableNeedsBinder(t *testing.T) {
	t.Parallel()

	rules, _ := game.DefaultCatalog().Rules(game.TRX)
	if _, err := For(rules, nil); !errors.Is(err, ErrNoBinder) {
		t.Fatalf("want ErrNoBinder, got %v", err)
	}
}
