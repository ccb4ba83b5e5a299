// Package rng provides the randomness abstraction that gates mob behavior:
// minion spawn rolls, teleport rolls, special-attack rolls and target picks.
package rng

import (
	"crypto/rand"
	"math/big"
)

// Source is the randomness provider for every behavior roll.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// cryptoSource implements Source using crypto/rand.
type cryptoSource struct{}

// NewCryptoSource returns a Source backed by crypto/rand.
//
// Postcondition: Every value returned by Intn is in [0, n).
func NewCryptoSource() Source {
	return &cryptoSource{}
}

// Intn returns a cryptographically secure random int in [0, n).
//
// Precondition: n > 0. Panics with "rng: Intn called with n <= 0" if n <= 0.
func (c *cryptoSource) Intn(n int) int {
	if n <= 0 {
		panic("rng: Intn called with n <= 0")
	}
	val, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("rng: crypto/rand failure: " + err.Error())
	}
	return int(val.Int64())
}

// Int returns a uniform random integer in the inclusive range [min, max].
//
// Precondition: max >= min; src must be non-nil.
// Postcondition: min <= result <= max.
func Int(src Source, min, max int) int {
	if max < min {
		panic("rng: Int called with max < min")
	}
	return min + src.Intn(max-min+1)
}

// Pick returns a uniformly chosen index into a collection of length n,
// or -1 when n is zero.
func Pick(src Source, n int) int {
	if n <= 0 {
		return -1
	}
	return src.Intn(n)
}
