package game

import (
	"fmt"
	"strings"
)

// Kind is the first half of a bet category.
type Kind string

const (
	KindNumber    Kind = "number"
	KindColor     Kind = "color"
	KindSize      Kind = "size"
	KindParity    Kind = "parity"
	KindDigit     Kind = "digit"
	KindSum       Kind = "sum"
	KindSumSize   Kind = "sum_size"
	KindSumParity Kind = "sum_parity"
	KindTriple    Kind = "triple"
	KindPair      Kind = "pair"
	KindStraight  Kind = "straight"
	KindDistinct  Kind = "distinct"
)

const (
	Big    = "big"
	Small  = "small"
	Odd    = "odd"
	Even   = "even"
	Red    = "red"
	Green  = "green"
	Violet = "violet"
	Any    = "any"
)

// Positions names the five 5D positions, A is the leftmost digit.
var Positions = [5]string{"a", "b", "c", "d", "e"}

// PositionKind builds a per-position kind such as "c_size".
func PositionKind(pos int, base Kind) Kind {
	return Kind(Positions[pos] + "_" + string(base))
}

// Base strips a position prefix: "c_size" -> "size". Other kinds are returned as is.
func (k Kind) Base() Kind {
	s := string(k)
	if len(s) > 2 && s[1] == '_' && strings.ContainsRune("abcde", rune(s[0])) {
		return Kind(s[2:])
	}

	return k
}

// Category is a (kind, value) pair a wager is placed against, e.g. size:big.
type Category struct {
	Kind  Kind   `json:"kind"`
	Value string `json:"value"`
}

func Cat(kind Kind, value string) Category {
	return Category{Kind: kind, Value: value}
}

func (c Category) String() string {
	return string(c.Kind) + ":" + c.Value
}

// ParseCategory reads the "kind:value" form. Case and surrounding spaces are ignored.
func ParseCategory(s string) (Category, error) {
	kind, value, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), ":")
	if !ok || kind == "" || value == "" {
		return Category{}, fmt.Errorf("%w: %q", ErrInvalidCategory, s)
	}

	return Category{Kind: Kind(kind), Value: value}, nil
}

func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Category) UnmarshalText(b []byte) error {
	parsed, err := ParseCategory(string(b))
	if err != nil {
		return err
	}

	*c = parsed

	return nil
}

func sizeOf(big bool) string {
	if big {
		return Big
	}

	return Small
}

func parityOf(n int) string {
	if n%2 == 1 {
		return Odd
	}

	return Even
}
