package game

import (
	"fmt"
	"strconv"
	"sync"
)

const (
	fiveDCount = 100_000
	// FiveDSumBig is the smallest five digit sum classed as big.
	FiveDSumBig = 22
)

type fiveD struct {
	space      func() []Outcome
	categories func() []Category
}

func newFiveD() *fiveD {
	return &fiveD{
		space:      sync.OnceValue(buildFiveD),
		categories: sync.OnceValue(fiveDCategories),
	}
}

// FiveDMask packs per-position flags: bit 2i is set when position i is big,
// bit 2i+1 when it is odd. Position 0 is A.
func FiveDMask(digits []int) uint16 {
	var m uint16
	for i, d := range digits {
		if d >= 5 {
			m |= 1 << (2 * i)
		}

		if d%2 == 1 {
			m |= 1 << (2*i + 1)
		}
	}

	return m
}

// FiveDID is the composite key of five digits, A most significant.
func FiveDID(digits []int) int {
	id := 0
	for _, d := range digits {
		id = id*10 + d
	}

	return id
}

func buildFiveD() []Outcome {
	out := make([]Outcome, fiveDCount)
	backing := make([]int, fiveDCount*5)

	for id := range fiveDCount {
		digits := backing[id*5 : id*5+5 : id*5+5]
		n, sum := id, 0

		for i := 4; i >= 0; i-- {
			digits[i] = n % 10
			sum += digits[i]
			n /= 10
		}

		out[id] = Outcome{Game: FiveD, ID: id, Digits: digits, Sum: sum, Mask: FiveDMask(digits)}
	}

	return out
}

func fiveDCategories() []Category {
	cats := make([]Category, 0, 5*14+46+4)

	for pos := range Positions {
		for d := range 10 {
			cats = append(cats, Cat(PositionKind(pos, KindDigit), strconv.Itoa(d)))
		}

		cats = append(cats,
			Cat(PositionKind(pos, KindSize), Big), Cat(PositionKind(pos, KindSize), Small),
			Cat(PositionKind(pos, KindParity), Odd), Cat(PositionKind(pos, KindParity), Even),
		)
	}

	for s := 0; s <= 45; s++ {
		cats = append(cats, Cat(KindSum, strconv.Itoa(s)))
	}

	return append(cats,
		Cat(KindSumSize, Big), Cat(KindSumSize, Small),
		Cat(KindSumParity, Odd), Cat(KindSumParity, Even),
	)
}

func (v *fiveD) Type() Type             { return FiveD }
func (v *fiveD) Outcomes() []Outcome    { return v.space() }
func (v *fiveD) Categories() []Category { return v.categories() }
func (v *fiveD) Verifiable() bool       { return false }

func (v *fiveD) Outcome(id int) (Outcome, bool) {
	if id < 0 || id >= fiveDCount {
		return Outcome{}, false
	}

	return v.space()[id], true
}

func (v *fiveD) AppendTags(dst []Category, o Outcome) []Category {
	for pos, d := range o.Digits {
		dst = append(dst,
			Cat(PositionKind(pos, KindDigit), strconv.Itoa(d)),
			Cat(PositionKind(pos, KindSize), sizeOf(o.Mask&(1<<(2*pos)) != 0)),
			Cat(PositionKind(pos, KindParity), parityOf(int(o.Mask>>(2*pos+1))&1)),
		)
	}

	return append(dst,
		Cat(KindSum, strconv.Itoa(o.Sum)),
		Cat(KindSumSize, sizeOf(o.Sum >= FiveDSumBig)),
		Cat(KindSumParity, parityOf(o.Sum)),
	)
}

func (v *fiveD) Derive(hash string) (Outcome, error) {
	digits, err := DigitsFromHash(hash, 5)
	if err != nil {
		return Outcome{}, fmt.Errorf("derive 5d outcome: %w", err)
	}

	return v.space()[FiveDID(digits)], nil
}
