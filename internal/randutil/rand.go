// Package randutil centralises how games derive their randomness so that a
// seed printed in the logs replays the exact same dice.
package randutil

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	rand "math/rand/v2"
)

const goldenRatio64 = 0x9e3779b97f4a7c15

// New returns a PCG-backed *rand.Rand seeded deterministically from seed.
func New(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(mix(u), mix(u+goldenRatio64)))
}

// NewSeed draws a seed from crypto/rand for games started without one.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// D6 rolls fair six-sided dice from a seeded source.
type D6 struct {
	rng *rand.Rand
}

// NewD6 returns a die roller seeded with seed.
func NewD6(seed int64) *D6 {
	return &D6{rng: New(seed)}
}

// RollDie returns a face in 1..6.
func (d *D6) RollDie() int {
	return d.rng.IntN(6) + 1
}

// splitmix64 finaliser; spreads nearby seeds across the PCG state space.
func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
