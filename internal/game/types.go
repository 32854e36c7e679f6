// Package game models the closed set of draw variants: their outcome spaces,
// the bet categories each outcome satisfies and the per-deployment catalog of
// odds, stake bounds and selection policy.
package game

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownGame     = errors.New("unknown game type")
	ErrInvalidCategory = errors.New("invalid bet category")
	ErrUnknownOutcome  = errors.New("unknown outcome")
	ErrInvalidHash     = errors.New("invalid reference hash")
)

// Type identifies a draw variant.
type Type string

const (
	Wingo Type = "wingo" // single digit 0-9
	FiveD Type = "5d"    // five independent digits
	K3    Type = "k3"    // three dice
	TRX   Type = "trx"   // single digit derived from a block hash
)

var types = []Type{Wingo, FiveD, K3, TRX}

// Types returns every known variant in a stable order.
func Types() []Type {
	out := make([]Type, len(types))
	copy(out, types)

	return out
}

// Code is the two digit number embedded into period identifiers.
func (t Type) Code() int {
	switch t {
	case Wingo:
		return 10
	case FiveD:
		return 20
	case K3:
		return 30
	case TRX:
		return 40
	default:
		return 0
	}
}

func (t Type) Valid() bool {
	return t.Code() != 0
}

func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownGame, s)
	}

	return t, nil
}
