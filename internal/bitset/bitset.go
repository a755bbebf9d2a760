// Package bitset implements a fixed-size bit-per-index set whose operations
// are safe for concurrent use. Test is an atomic load and TestAndSet an
// atomic read-modify-write, so two goroutines racing to set the same bit
// always agree on which of them set it first.
package bitset

import (
	"math/bits"
	"sync/atomic"
)

const wordBits = 64

// Set is a fixed-size bitset. The zero value is an empty set of length 0.
type Set struct {
	n     int
	words []atomic.Uint64
}

// New returns a set of n cleared bits.
func New(n int) *Set {
	if n < 0 {
		n = 0
	}
	return &Set{n: n, words: make([]atomic.Uint64, (n+wordBits-1)/wordBits)}
}

func locate(i uint32) (int, uint64) {
	return int(i / wordBits), uint64(1) << (i % wordBits)
}

// Len returns the number of bits in the set.
func (s *Set) Len() int { return s.n }

// Test reports whether bit i is set.
func (s *Set) Test(i uint32) bool {
	w, mask := locate(i)
	return s.words[w].Load()&mask != 0
}

// TestAndSet sets bit i and reports whether it was already set. Exactly one
// caller observes false for a given bit.
func (s *Set) TestAndSet(i uint32) bool {
	w, mask := locate(i)
	return s.words[w].Or(mask)&mask != 0
}

// Clear clears bit i.
func (s *Set) Clear(i uint32) {
	w, mask := locate(i)
	s.words[w].And(^mask)
}

// Reset clears every bit. It must not run concurrently with other writers.
func (s *Set) Reset() {
	for i := range s.words {
		s.words[i].Store(0)
	}
}

// Count returns the number of set bits.
func (s *Set) Count() int {
	c := 0
	for i := range s.words {
		c += bits.OnesCount64(s.words[i].Load())
	}
	return c
}
