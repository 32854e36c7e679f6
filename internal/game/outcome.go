package game

import (
	"strconv"
	"strings"
)

// Outcome is one element of a variant's outcome space. It is a plain value;
// the Digits slice of an enumerated outcome is shared with the cached space
// and must not be modified.
type Outcome struct {
	Game   Type   `json:"game"`
	ID     int    `json:"id"`
	Digits []int  `json:"digits"`
	Sum    int    `json:"sum"`
	Mask   uint16 `json:"mask,omitempty"`
}

// Key renders the digits without separators, e.g. "72904" or "136".
func (o Outcome) Key() string {
	var b strings.Builder
	for _, d := range o.Digits {
		b.WriteString(strconv.Itoa(d))
	}

	return b.String()
}

func (o Outcome) Equal(other Outcome) bool {
	if o.Game != other.Game || o.ID != other.ID || len(o.Digits) != len(other.Digits) {
		return false
	}

	for i := range o.Digits {
		if o.Digits[i] != other.Digits[i] {
			return false
		}
	}

	return true
}
