// Package shortid generates short, human-presentable alphanumeric ids
// such as "TX7K2Q9FMC4B".
//
// Ids are drawn uniformly from an uppercase+digits alphabet (36 symbols)
// using crypto/rand. With the default width of 10 the id space is
// 36^10 ≈ 3.6e15; by the birthday bound, one million issued ids collide
// with probability ≈ 1.4e-4. Collisions are therefore rare but possible:
// callers persisting ids under a uniqueness constraint must treat a
// duplicate-key error as transient and retry with a fresh id.
package shortid

import (
	"crypto/rand"
	"fmt"
)

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// DefaultWidth is the number of random characters appended to the prefix.
const DefaultWidth = 10

// New returns prefix followed by width random alphabet characters.
// width must be positive.
func New(prefix string, width int) (string, error) {
	if width <= 0 {
		return "", fmt.Errorf("shortid: width must be positive, got %d", width)
	}

	buf := make([]byte, 0, len(prefix)+width)
	buf = append(buf, prefix...)

	// Rejection sampling keeps the distribution uniform: 252 is the
	// largest multiple of 36 that fits in a byte.
	const limit = 252

	raw := make([]byte, 1)

	for len(buf) < len(prefix)+width {
		_, err := rand.Read(raw)
		if err != nil {
			return "", fmt.Errorf("shortid: read random: %w", err)
		}

		if raw[0] >= limit {
			continue
		}

		buf = append(buf, alphabet[int(raw[0])%len(alphabet)])
	}

	return string(buf), nil
}

// MustNew is New but panics on failure. Random-source failure is not
// recoverable at call sites, so most callers use this form.
func MustNew(prefix string, width int) string {
	id, err := New(prefix, width)
	if err != nil {
		panic(err)
	}

	return id
}
