package cosi

import (
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"
)

// RNG wraps a seeded source with the derived distributions the engine
// needs. One RNG belongs to exactly one simulation; nothing here is
// shared between concurrently running simulations (spec.md §5), matching
// the teacher's per-instance seeding in bin/contagion/main.go generalized
// to a per-simulation object instead of the global math/rand source.
type RNG struct {
	src  *rand.Rand
	seed int64
}

// NewRNG constructs an RNG from a master seed and a simulation index, so
// that independent simulations in a batch never share state (spec.md §7)
// even though they're derived from one configured master seed.
func NewRNG(masterSeed int64, simIndex int) *RNG {
	// Mix the index into the seed deterministically; avoids correlated
	// streams across simulations sharing a master seed. Index 0 yields the
	// master seed itself.
	derived := masterSeed ^ int64(uint64(simIndex)*0x9E3779B97F4A7C15)
	return &RNG{src: rand.New(rand.NewSource(derived)), seed: derived}
}

// Seed returns the concrete seed this RNG was constructed with.
func (r *RNG) Seed() int64 { return r.seed }

// Float64 returns a uniform draw in [0,1).
func (r *RNG) Float64() float64 { return r.src.Float64() }

// Exponential draws from an Exponential(rate) distribution. rate must be > 0.
func (r *RNG) Exponential(rate float64) float64 {
	d := distuv.Exponential{Rate: rate, Src: r.src}
	return d.Rand()
}

// Poisson draws a Poisson(lambda)-distributed count.
func (r *RNG) Poisson(lambda float64) int {
	if lambda <= 0 {
		return 0
	}
	d := distuv.Poisson{Lambda: lambda, Src: r.src}
	return int(d.Rand())
}

// Gamma draws from a Gamma(shape, rate) distribution (gonum's
// parameterization: Alpha=shape, Beta=rate).
func (r *RNG) Gamma(shape, rate float64) float64 {
	d := distuv.Gamma{Alpha: shape, Beta: rate, Src: r.src}
	return d.Rand()
}

// Beta draws from a Beta(alpha, beta) distribution.
func (r *RNG) Beta(alpha, beta float64) float64 {
	d := distuv.Beta{Alpha: alpha, Beta: beta, Src: r.src}
	return d.Rand()
}

// Binomial draws from a Binomial(n, p) distribution.
func (r *RNG) Binomial(n int, p float64) int {
	if n <= 0 {
		return 0
	}
	d := distuv.Binomial{N: float64(n), P: p, Src: r.src}
	return int(d.Rand())
}

// Geometric draws a non-negative integer from a Geometric distribution
// with per-trial success probability p (number of failures before the
// first success), used for gene-conversion tract lengths (spec.md §4.3).
func (r *RNG) Geometric(p float64) int {
	if p <= 0 {
		return 0
	}
	if p >= 1 {
		return 0
	}
	d := distuv.Geometric{P: p, Src: r.src}
	return int(d.Rand())
}

// UniformInt draws a uniform integer in [0, n).
func (r *RNG) UniformInt(n int) int {
	if n <= 0 {
		return 0
	}
	return r.src.Intn(n)
}

// Perm returns a random permutation of [0, n).
func (r *RNG) Perm(n int) []int { return r.src.Perm(n) }

// Categorical draws an index in [0, len(weights)) with probability
// proportional to weights[i]. weights must be non-negative and sum > 0.
func (r *RNG) Categorical(weights []float64) int {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	u := r.src.Float64() * total
	cum := 0.0
	for i, w := range weights {
		cum += w
		if u < cum {
			return i
		}
	}
	return len(weights) - 1
}
