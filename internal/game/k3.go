package game

import (
	"slices"
	"strconv"
	"sync"
)

// K3SumBig is the smallest three dice sum classed as big.
const K3SumBig = 11

type k3 struct {
	space      func() []Outcome
	categories func() []Category
}

func newK3() *k3 {
	return &k3{
		space:      sync.OnceValue(buildK3),
		categories: sync.OnceValue(k3Categories),
	}
}

// K3ID maps ordered dice (each 1-6) onto 0..215.
func K3ID(d1, d2, d3 int) int {
	return (d1-1)*36 + (d2-1)*6 + (d3 - 1)
}

func buildK3() []Outcome {
	out := make([]Outcome, 0, 216)

	for d1 := 1; d1 <= 6; d1++ {
		for d2 := 1; d2 <= 6; d2++ {
			for d3 := 1; d3 <= 6; d3++ {
				out = append(out, Outcome{
					Game:   K3,
					ID:     K3ID(d1, d2, d3),
					Digits: []int{d1, d2, d3},
					Sum:    d1 + d2 + d3,
				})
			}
		}
	}

	return out
}

func k3Categories() []Category {
	var cats []Category
	for s := 3; s <= 18; s++ {
		cats = append(cats, Cat(KindSum, strconv.Itoa(s)))
	}

	cats = append(cats,
		Cat(KindSumSize, Big), Cat(KindSumSize, Small),
		Cat(KindSumParity, Odd), Cat(KindSumParity, Even),
		Cat(KindTriple, Any), Cat(KindPair, Any),
		Cat(KindStraight, Any), Cat(KindDistinct, Any),
	)

	for d := 1; d <= 6; d++ {
		cats = append(cats, Cat(KindTriple, strconv.Itoa(d)), Cat(KindPair, strconv.Itoa(d)))
	}

	return cats
}

func (v *k3) Type() Type             { return K3 }
func (v *k3) Outcomes() []Outcome    { return v.space() }
func (v *k3) Categories() []Category { return v.categories() }
func (v *k3) Verifiable() bool       { return false }

func (v *k3) Outcome(id int) (Outcome, bool) {
	if id < 0 || id >= 216 {
		return Outcome{}, false
	}

	return v.space()[id], true
}

// AppendTags tags sums and dice patterns. A triple is not also a pair.
func (v *k3) AppendTags(dst []Category, o Outcome) []Category {
	dst = append(dst,
		Cat(KindSum, strconv.Itoa(o.Sum)),
		Cat(KindSumSize, sizeOf(o.Sum >= K3SumBig)),
		Cat(KindSumParity, parityOf(o.Sum)),
	)

	d := [3]int{o.Digits[0], o.Digits[1], o.Digits[2]}
	slices.Sort(d[:])

	switch {
	case d[0] == d[2]:
		dst = append(dst, Cat(KindTriple, Any), Cat(KindTriple, strconv.Itoa(d[0])))
	case d[0] == d[1] || d[1] == d[2]:
		dst = append(dst, Cat(KindPair, Any), Cat(KindPair, strconv.Itoa(d[1])))
	default:
		dst = append(dst, Cat(KindDistinct, Any))
		if d[1] == d[0]+1 && d[2] == d[1]+1 {
			dst = append(dst, Cat(KindStraight, Any))
		}
	}

	return dst
}
