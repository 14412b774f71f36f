// Package rng provides the randomness abstraction used for physical
// variation in ejected entities.
package rng

import (
	"crypto/rand"
	"encoding/binary"
	mathrand "math/rand/v2"
	"sync"
)

// Source is the randomness provider.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Float64 returns a uniformly distributed value in [0, 1).
	Float64() float64
}

// cryptoSource implements Source using crypto/rand.
type cryptoSource struct{}

// NewCryptoSource returns a Source backed by crypto/rand.
//
// Postcondition: every value returned by Float64 is in [0, 1).
func NewCryptoSource() Source {
	return cryptoSource{}
}

// Float64 returns a cryptographically secure value in [0, 1).
//
// Panics with "rng: crypto/rand failure: <err>" if crypto/rand fails.
func (cryptoSource) Float64() float64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic("rng: crypto/rand failure: " + err.Error())
	}
	// 53 random bits fill the float64 mantissa exactly.
	return float64(binary.LittleEndian.Uint64(buf[:])>>11) / (1 << 53)
}

// seededSource is a deterministic Source for tests and replays.
type seededSource struct {
	mu  sync.Mutex
	rnd *mathrand.Rand
}

// NewSeededSource returns a deterministic Source seeded with seed.
//
// Postcondition: two sources built from the same seed yield identical sequences.
func NewSeededSource(seed uint64) Source {
	return &seededSource{rnd: mathrand.New(mathrand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *seededSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Float64()
}

// Range returns a value drawn uniformly from [lo, hi].
//
// Precondition: lo <= hi; src must be non-nil.
// Postcondition: lo <= result <= hi.
func Range(src Source, lo, hi float64) float64 {
	v := lo + src.Float64()*(hi-lo)
	if v > hi {
		return hi
	}
	return v
}
