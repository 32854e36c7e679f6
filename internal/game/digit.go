package game

import (
	"fmt"
	"strconv"
	"sync"
)

// digitVariant is the single digit draw shared by wingo and trx. The two only
// differ in how the outcome is chosen.
type digitVariant struct {
	typ        Type
	verifiable bool
	space      func() []Outcome
	categories func() []Category
}

func newDigitVariant(t Type, verifiable bool) *digitVariant {
	v := &digitVariant{typ: t, verifiable: verifiable}
	v.space = sync.OnceValue(func() []Outcome {
		out := make([]Outcome, 10)
		for d := range 10 {
			out[d] = Outcome{Game: t, ID: d, Digits: []int{d}, Sum: d}
		}

		return out
	})
	v.categories = sync.OnceValue(func() []Category {
		cats := make([]Category, 0, 17)
		for d := range 10 {
			cats = append(cats, Cat(KindNumber, strconv.Itoa(d)))
		}

		return append(cats,
			Cat(KindColor, Red), Cat(KindColor, Green), Cat(KindColor, Violet),
			Cat(KindSize, Big), Cat(KindSize, Small),
			Cat(KindParity, Odd), Cat(KindParity, Even),
		)
	})

	return v
}

func (v *digitVariant) Type() Type             { return v.typ }
func (v *digitVariant) Outcomes() []Outcome    { return v.space() }
func (v *digitVariant) Categories() []Category { return v.categories() }
func (v *digitVariant) Verifiable() bool       { return v.verifiable }

func (v *digitVariant) Outcome(id int) (Outcome, bool) {
	if id < 0 || id > 9 {
		return Outcome{}, false
	}

	return v.space()[id], true
}

// Colors returns the colour classes of a single digit: 0 is red and violet,
// 5 is green and violet, other odd digits are green and even digits red.
func Colors(d int) []string {
	switch {
	case d == 0:
		return []string{Red, Violet}
	case d == 5:
		return []string{Green, Violet}
	case d%2 == 1:
		return []string{Green}
	default:
		return []string{Red}
	}
}

func (v *digitVariant) AppendTags(dst []Category, o Outcome) []Category {
	d := o.Digits[0]

	dst = append(dst, Cat(KindNumber, strconv.Itoa(d)))
	for _, c := range Colors(d) {
		dst = append(dst, Cat(KindColor, c))
	}

	return append(dst,
		Cat(KindSize, sizeOf(d >= 5)),
		Cat(KindParity, parityOf(d)),
	)
}

func (v *digitVariant) Derive(hash string) (Outcome, error) {
	digits, err := DigitsFromHash(hash, 1)
	if err != nil {
		return Outcome{}, fmt.Errorf("derive %s outcome: %w", v.typ, err)
	}

	return v.space()[digits[0]], nil
}
