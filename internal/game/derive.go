package game

import (
	"fmt"
	"math/big"
	"strings"
)

// NormalizeHash lower-cases a hex hash and strips an optional 0x prefix.
func NormalizeHash(hash string) (string, error) {
	h := strings.ToLower(strings.TrimSpace(hash))
	h = strings.TrimPrefix(h, "0x")

	if h == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidHash)
	}

	for _, r := range h {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return "", fmt.Errorf("%w: %q", ErrInvalidHash, hash)
		}
	}

	return h, nil
}

// DigitsFromHash derives n decimal digits from a hex hash. It takes the last n
// decimal digit characters of the hash, kept in hash order. When the hash has
// fewer than n decimal characters the digits are the hash's integer value
// modulo 10^n, zero padded. The mapping is pure; the same hash always yields
// the same digits.
func DigitsFromHash(hash string, n int) ([]int, error) {
	h, err := NormalizeHash(hash)
	if err != nil {
		return nil, err
	}

	out := make([]int, n)
	found := 0

	for i := len(h) - 1; i >= 0 && found < n; i-- {
		if h[i] >= '0' && h[i] <= '9' {
			found++
			out[n-found] = int(h[i] - '0')
		}
	}

	if found == n {
		return out, nil
	}

	v, ok := new(big.Int).SetString(h, 16)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidHash, hash)
	}

	v.Mod(v, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil))

	s := v.String()
	s = strings.Repeat("0", n-len(s)) + s

	for i := range n {
		out[i] = int(s[i] - '0')
	}

	return out, nil
}
