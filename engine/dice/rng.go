// Package dice provides the injectable random source shared by the combat
// model, the dialog evaluator and the encounter state machine.
package dice

import "math/rand"

// RNG wraps math/rand.Rand with deterministic position tracking.
// Position increments with every draw, enabling save/restore.
type RNG struct {
	seed int64
	src  *rand.Rand
	pos  int64
}

// NewRNG creates a new deterministic RNG from a seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		seed: seed,
		src:  rand.New(rand.NewSource(seed)),
	}
}

// NewRNGFromSource creates an RNG drawing from src. Tests use it to pin
// every draw to a known value.
func NewRNGFromSource(src rand.Source) *RNG {
	return &RNG{src: rand.New(src)}
}

// Float64 returns a uniform value in [0, 1).
func (r *RNG) Float64() float64 {
	r.pos++
	return r.src.Float64()
}

// Intn returns a uniform integer in [0, n). n must be positive.
func (r *RNG) Intn(n int) int {
	r.pos++
	return r.src.Intn(n)
}

// RandInt returns a uniform integer in [lo, hi]. Reversed bounds are swapped.
func (r *RNG) RandInt(lo, hi int) int {
	if hi < lo {
		lo, hi = hi, lo
	}
	return lo + r.Intn(hi-lo+1)
}

// Chance reports whether a Bernoulli draw with probability p succeeded.
func (r *RNG) Chance(p float64) bool {
	return r.Float64() < p
}

// WeightedSelect returns an index chosen by weighted random selection.
// weights must be non-empty with all positive values.
func (r *RNG) WeightedSelect(weights []int) int {
	total := 0
	for _, w := range weights {
		total += w
	}
	roll := r.Intn(total)
	cumulative := 0
	for i, w := range weights {
		cumulative += w
		if roll < cumulative {
			return i
		}
	}
	return len(weights) - 1
}

// Seed returns the seed the RNG was created from.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Position returns the number of draws made since creation.
func (r *RNG) Position() int64 {
	return r.pos
}

// RestoreRNG creates an RNG and advances it to the given position.
// This reproduces the exact RNG state for save/load.
func RestoreRNG(seed int64, position int64) *RNG {
	rng := NewRNG(seed)
	for i := int64(0); i < position; i++ {
		rng.src.Int63()
	}
	rng.pos = position
	return rng
}
