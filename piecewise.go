package cosi

import (
	"math"
	"sort"

	"github.com/pkg/errors"
)

// PieceKind selects the interpolation used within each segment of a
// PiecewiseFunc.
type PieceKind int

const (
	// PieceConstant holds the left breakpoint's value across each segment.
	PieceConstant PieceKind = iota
	// PieceLinear interpolates linearly between consecutive breakpoints.
	PieceLinear
)

// PiecewiseFunc is a real-valued function of generations-into-the-past,
// defined piecewise over a sorted list of breakpoints. It supports exact
// definite integration and bisection-based inversion of its integral,
// which the scheduler (scheduler.go) uses to draw inhomogeneous-Poisson
// event times.
//
// Grounded on cosi C++'s generalmath.h step/piecewise function family.
type PiecewiseFunc struct {
	kind   PieceKind
	gens   []Gens // breakpoints, strictly increasing
	values []Rate // value at/after gens[i]; len(values) == len(gens)
}

// NewPiecewiseFunc builds a piecewise function from parallel breakpoint and
// value slices. gens must be strictly increasing and gens[0] should be 0.
func NewPiecewiseFunc(kind PieceKind, gens []Gens, values []Rate) (*PiecewiseFunc, error) {
	if len(gens) == 0 || len(gens) != len(values) {
		return nil, errors.New("piecewise function: mismatched or empty breakpoints")
	}
	for i := 1; i < len(gens); i++ {
		if gens[i] <= gens[i-1] {
			return nil, errors.Errorf("piecewise function: breakpoints not strictly increasing at index %d", i)
		}
	}
	g := make([]Gens, len(gens))
	v := make([]Rate, len(values))
	copy(g, gens)
	copy(v, values)
	return &PiecewiseFunc{kind: kind, gens: g, values: v}, nil
}

// ConstantFunc returns a piecewise-constant function with a single value
// valid from generation 0 onward.
func ConstantFunc(v Rate) *PiecewiseFunc {
	f, _ := NewPiecewiseFunc(PieceConstant, []Gens{0}, []Rate{v})
	return f
}

// segmentAt returns the index i such that gens[i] <= g (and g < gens[i+1]
// when i+1 exists).
func (f *PiecewiseFunc) segmentAt(g Gens) int {
	i := sort.Search(len(f.gens), func(i int) bool { return f.gens[i] > g })
	if i == 0 {
		return 0
	}
	return i - 1
}

// At evaluates the function at generation g.
func (f *PiecewiseFunc) At(g Gens) Rate {
	i := f.segmentAt(g)
	switch f.kind {
	case PieceConstant:
		return f.values[i]
	case PieceLinear:
		if i == len(f.gens)-1 {
			return f.values[i]
		}
		g0, g1 := f.gens[i], f.gens[i+1]
		v0, v1 := f.values[i], f.values[i+1]
		frac := float64(g-g0) / float64(g1-g0)
		return v0 + Rate(frac)*(v1-v0)
	}
	return f.values[i]
}

// Integral returns the definite integral of f over [from, to], from <= to.
func (f *PiecewiseFunc) Integral(from, to Gens) float64 {
	if to <= from {
		return 0
	}
	total := 0.0
	i := f.segmentAt(from)
	cur := from
	for cur < to {
		segEnd := Gens(math.Inf(1))
		if i+1 < len(f.gens) {
			segEnd = f.gens[i+1]
		}
		end := to
		if segEnd < end {
			end = segEnd
		}
		total += f.integralWithin(i, cur, end)
		cur = end
		i++
		if i >= len(f.gens) {
			// Beyond the last breakpoint: extend the final segment's rule.
			if cur < to {
				total += f.integralWithin(len(f.gens)-1, cur, to)
			}
			break
		}
	}
	return total
}

// integralWithin integrates within segment i (whose rule applies to
// [from,to]); from/to need not equal the segment's own bounds.
func (f *PiecewiseFunc) integralWithin(i int, from, to Gens) float64 {
	if to <= from {
		return 0
	}
	switch f.kind {
	case PieceConstant:
		return float64(f.values[i]) * float64(to-from)
	case PieceLinear:
		if i == len(f.gens)-1 {
			return float64(f.values[i]) * float64(to-from)
		}
		g0, g1 := f.gens[i], f.gens[i+1]
		v0, v1 := f.values[i], f.values[i+1]
		slope := (v1 - v0) / Rate(g1-g0)
		valAt := func(g Gens) Rate { return v0 + slope*Rate(g-g0) }
		vFrom, vTo := valAt(from), valAt(to)
		return 0.5 * float64(vFrom+vTo) * float64(to-from)
	}
	return 0
}

const (
	defaultPoissonPrecision = 1e-9
	defaultPoissonMaxSteps  = 200
)

// IsZero reports whether f is identically zero, i.e. every breakpoint
// value is exactly 0 (a piecewise-constant or piecewise-linear function
// with an all-zero value table is the zero function everywhere). Callers
// computing an inhomogeneous-Poisson event time should skip InvertIntegral
// entirely for such a function rather than bisect against an integral that
// never grows.
func (f *PiecewiseFunc) IsZero() bool {
	for _, v := range f.values {
		if v != 0 {
			return false
		}
	}
	return true
}

// InvertIntegral finds g such that Integral(from, g) == target (target is
// typically -log(U) for a unit-rate exponential draw), within [from, horizon].
// Returns (g, true, nil) on convergence; (0, false, nil) if no solution
// exists in the window (the accumulated integral over the whole window is
// < target); and a non-nil error if target is negative or the root search
// fails to converge within maxSteps.
func (f *PiecewiseFunc) InvertIntegral(from, horizon Gens, target, precision float64, maxSteps int) (Gens, bool, error) {
	if target < 0 {
		return 0, false, errors.New("piecewise inversion: negative target")
	}
	if precision <= 0 {
		precision = defaultPoissonPrecision
	}
	if maxSteps <= 0 {
		maxSteps = defaultPoissonMaxSteps
	}
	if f.IsZero() {
		// The integral never grows; there is no finite g solving it, and
		// bisecting against it (especially with horizon=+Inf) would never
		// converge.
		return 0, false, nil
	}

	hi := horizon
	if math.IsInf(float64(horizon), 1) {
		// horizon is unbounded (no historical event left to cap the
		// window): Integral(from, +Inf) is itself infinite and can't be
		// bisected against directly, so first bracket a finite hi whose
		// integral meets or exceeds target by doubling the window.
		window := Gens(1)
		hi = from + window
		for step := 0; step < maxSteps && f.Integral(from, hi) < target; step++ {
			window *= 2
			hi = from + window
		}
	}

	totalAtHorizon := f.Integral(from, hi)
	if totalAtHorizon < target {
		return 0, false, nil
	}
	lo := from
	for step := 0; step < maxSteps; step++ {
		mid := lo + (hi-lo)/2
		val := f.Integral(from, mid)
		diff := val - target
		if math.Abs(diff) <= precision {
			return mid, true, nil
		}
		if diff < 0 {
			lo = mid
		} else {
			hi = mid
		}
	}
	// One more midpoint; accept if within a looser bound, else fail.
	mid := lo + (hi-lo)/2
	if math.Abs(f.Integral(from, mid)-target) <= precision*10 {
		return mid, true, nil
	}
	return 0, false, errors.Errorf("piecewise inversion: did not converge within %d steps (residual window [%v,%v])", maxSteps, lo, hi)
}
