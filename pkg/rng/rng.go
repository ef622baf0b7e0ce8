// Package rng provides the seedable pseudo-random source shared by every
// stochastic stage of the population synthesis pipeline: uniform reals
// and integers, weighted choice over small index sets, shuffles, random
// rounding, and per-tile stream derivation.
package rng

import "math/rand"

// Source is the RNG context threaded through every pure core function.
// It is not safe for concurrent use; the pipeline driver gives each
// worker its own Source derived via ForTile.
type Source struct {
	r *rand.Rand
}

// New creates a Source seeded deterministically from seed.
func New(seed int64) *Source {
	return &Source{r: rand.New(rand.NewSource(seed))}
}

// ForTile derives an independent Source for tile ordinal n under a given
// master seed. Two different tile ordinals never share a stream, and the
// same (masterSeed, ordinal) pair always yields the same stream, so
// parallel workers run deterministically regardless of scheduling order
// and two runs with the same seed produce byte-identical output.
func ForTile(masterSeed int64, ordinal int) *Source {
	// splitmix64-style mix so adjacent ordinals don't produce correlated
	// low-order seed bits.
	x := uint64(masterSeed) + uint64(ordinal)*0x9E3779B97F4A7C15
	x = (x ^ (x >> 30)) * 0xBF58476D1CE4E5B9
	x = (x ^ (x >> 27)) * 0x94D049BB133111EB
	x = x ^ (x >> 31)
	return New(int64(x))
}

// Float64 returns a uniform real in [0,1).
func (s *Source) Float64() float64 { return s.r.Float64() }

// Intn returns a uniform integer in [0,n).
func (s *Source) Intn(n int) int { return s.r.Intn(n) }

// Bool returns true with probability p.
func (s *Source) Bool(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return s.r.Float64() < p
}

// RoundRandom rounds x to floor(x)+1 with probability frac(x), else
// floor(x). Its expected value equals x.
func (s *Source) RoundRandom(x float64) int {
	f := int(x)
	if x < 0 && float64(f) > x {
		f--
	}
	frac := x - float64(f)
	if s.Bool(frac) {
		return f + 1
	}
	return f
}

// ShuffleInts shuffles a slice of ints in place (Fisher-Yates, via
// math/rand.Shuffle).
func ShuffleInts(s *Source, xs []int) {
	s.r.Shuffle(len(xs), func(i, j int) { xs[i], xs[j] = xs[j], xs[i] })
}

// ShuffleStrings shuffles a slice of strings in place.
func ShuffleStrings(s *Source, xs []string) {
	s.r.Shuffle(len(xs), func(i, j int) { xs[i], xs[j] = xs[j], xs[i] })
}

// PickUniform returns a uniformly random index among the entries of mask
// that are true. Returns -1 if none are eligible. Used for the household
// synthesizer's repeated "pick one uniformly among eligible" choices.
func (s *Source) PickUniform(eligible []bool) int {
	var idxs []int
	for i, ok := range eligible {
		if ok {
			idxs = append(idxs, i)
		}
	}
	if len(idxs) == 0 {
		return -1
	}
	return idxs[s.Intn(len(idxs))]
}

// WeightedChoice picks an index in [0,len(weights)) with probability
// proportional to its weight. Weights must be non-negative; entries with
// zero weight are never chosen. Returns -1 if every weight is zero.
func (s *Source) WeightedChoice(weights []float64) int {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return -1
	}
	target := s.Float64() * total
	acc := 0.0
	for i, w := range weights {
		acc += w
		if target < acc {
			return i
		}
	}
	return len(weights) - 1
}

// UniformIntInclusive draws a uniform integer in [lo,hi].
func (s *Source) UniformIntInclusive(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + s.Intn(hi-lo+1)
}

// UniformFloatRange draws a uniform real in [lo,hi).
func (s *Source) UniformFloatRange(lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + s.Float64()*(hi-lo)
}
