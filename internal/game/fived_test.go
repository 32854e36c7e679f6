package game

import (
	"math/bits"
	"slices"
	"testing"
)

func TestFiveD_SpaceIsCompleteAndDistinct(t *testing.T) {
	t.Parallel()

	v, err := Lookup(FiveD)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}

	all := v.Outcomes()
	if len(all) != 100_000 {
		t.Fatalf("want 100000 outcomes, got %d", len(all))
	}

	seen := make(map[string]struct{}, len(all))
	for i, o := range all {
		if o.ID != i {
			t.Fatalf("outcome %d has id %d", i, o.ID)
		}

		if FiveDID(o.Digits) != o.ID {
			t.Fatalf("id %d does not match digits %v", o.ID, o.Digits)
		}

		seen[o.Key()] = struct{}{}
	}

	if len(seen) != 100_000 {
		t.Fatalf("want 100000 distinct keys, got %d", len(seen))
	}
}

func TestFiveD_MaskRoundTrip(t *testing.T) {
	t.Parallel()

	v, _ := Lookup(FiveD)

	const bigBits = 0b0101010101

	for _, o := range v.Outcomes() {
		want := 0
		sum := 0

		for _, d := range o.Digits {
			if d >= 5 {
				want++
			}

			sum += d
		}

		if got := bits.OnesCount16(o.Mask & bigBits); got != want {
			t.Fatalf("%s: big flags %d, recomputed %d", o.Key(), got, want)
		}

		if sum != o.Sum {
			t.Fatalf("%s: sum %d, recomputed %d", o.Key(), o.Sum, sum)
		}
	}
}

func TestFiveD_TagsFor72904(t *testing.T) {
	t.Parallel()

	v, _ := Lookup(FiveD)

	o, ok := v.Outcome(72904)
	if !ok {
		t.Fatal("outcome 72904 missing")
	}

	if !slices.Equal(o.Digits, []int{7, 2, 9, 0, 4}) {
		t.Fatalf("digits: %v", o.Digits)
	}

	tags := TagsFor(v, o)

	want := []Category{
		Cat("a_size", Big), Cat("b_size", Small), Cat("c_size", Big), Cat("d_size", Small), Cat("e_size", Small),
		Cat("a_digit", "7"), Cat("e_digit", "4"),
		Cat("a_parity", Odd), Cat("b_parity", Even), Cat("c_parity", Odd), Cat("d_parity", Even), Cat("e_parity", Even),
		Cat(KindSum, "22"), Cat(KindSumSize, Big), Cat(KindSumParity, Even),
	}

	for _, c := range want {
		if !slices.Contains(tags, c) {
			t.Errorf("missing tag %s in %v", c, tags)
		}
	}

	if slices.Contains(tags, Cat(KindSumSize, Small)) {
		t.Errorf("sum 22 tagged small")
	}
}

func TestFiveD_OutcomeBounds(t *testing.T) {
	t.Parallel()

	v, _ := Lookup(FiveD)

	for _, id := range []int{-1, 100_000} {
		if _, ok := v.Outcome(id); ok {
			t.Errorf("outcome %d should not exist", id)
		}
	}
}
