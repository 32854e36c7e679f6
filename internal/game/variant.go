package game

import (
	"fmt"
	"slices"
)

// Variant is the contract every draw variant implements. Outcome spaces are
// built once, on first use, and are read-only afterwards.
type Variant interface {
	Type() Type
	// Outcomes returns the full space ordered by outcome id. The slice and
	// the Digits of its elements are the cached space; callers must not write
	// to them.
	Outcomes() []Outcome
	Outcome(id int) (Outcome, bool)
	// AppendTags appends the categories o satisfies to dst.
	AppendTags(dst []Category, o Outcome) []Category
	// Categories lists every category a wager may be placed against.
	Categories() []Category
	// Verifiable reports whether the variant is contractually bound to an
	// external reference instead of a house choice.
	Verifiable() bool
}

// Deriver is implemented by variants whose outcome can be computed from a
// reference hash.
type Deriver interface {
	Derive(hash string) (Outcome, error)
}

var registry = map[Type]Variant{
	Wingo: newDigitVariant(Wingo, false),
	TRX:   newDigitVariant(TRX, true),
	FiveD: newFiveD(),
	K3:    newK3(),
}

func Lookup(t Type) (Variant, error) {
	v, ok := registry[t]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGame, t)
	}

	return v, nil
}

// TagsFor returns the categories o satisfies.
func TagsFor(v Variant, o Outcome) []Category {
	return v.AppendTags(make([]Category, 0, 24), o)
}

// Wins reports whether a wager on c wins when o is drawn.
func Wins(v Variant, o Outcome, c Category) bool {
	return slices.Contains(TagsFor(v, o), c)
}

// IsCategory reports whether c is a category of v.
func IsCategory(v Variant, c Category) bool {
	return slices.Contains(v.Categories(), c)
}
