// Package randutil centralises deterministic RNG construction. Every
// shuffle, bot decision and worker in the benchmark derives from an explicit
// int64 seed so that any hand, session or tournament can be replayed exactly.
package randutil

import rand "math/rand/v2"

const (
	goldenRatio64 = 0x9e3779b97f4a7c15
)

// New returns a *rand.Rand seeded deterministically from the provided int64.
// The helper centralises how we derive the two 64-bit seeds required by rand/v2
// so that all call sites get reproducible sequences.
func New(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(mix(u), mix(u+goldenRatio64)))
}

// DeriveSeed produces an independent child seed from a base seed and an
// index. Sessions use it to give each hand its own stream, and duplicate
// pairs use the same index twice to deal identical decks with seats swapped.
func DeriveSeed(base int64, index int) int64 {
	return int64(mix(uint64(base) + uint64(index)*goldenRatio64))
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
