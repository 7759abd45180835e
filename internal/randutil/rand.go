// Package randutil centralises how random sources are created so that games
// can be replayed from a seed in tests and simulations.
package randutil

import (
	crand "crypto/rand"
	rand "math/rand/v2"
)

const goldenRatio64 = 0x9e3779b97f4a7c15

// New returns a *rand.Rand seeded deterministically from seed. Two sources
// created from the same seed produce the same sequence.
func New(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(mix(u), mix(u+goldenRatio64)))
}

// NewSecure returns a ChaCha8 generator keyed from crypto/rand. Production games
// use it so dice cannot be predicted from a clock-derived seed.
func NewSecure() *rand.Rand {
	var key [32]byte
	if _, err := crand.Read(key[:]); err != nil {
		panic("randutil: failed to read entropy: " + err.Error())
	}
	return rand.New(rand.NewChaCha8(key))
}

// SeedFrom derives a per-game seed from a base seed and an index, so a server
// started with --seed gives every game its own reproducible stream.
func SeedFrom(base int64, index uint64) int64 {
	return int64(mix(uint64(base) ^ mix(index+goldenRatio64)))
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
