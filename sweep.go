package cosi

import (
	"math"

	"github.com/pkg/errors"
)

// Trajectory is the frequency of a selected allele over time, as consumed
// by the selective-sweep driver (spec.md §4.7). Grounded on cosi C++
// traj.h's FreqTraj hierarchy (TrajFromFile, DeterministicSweepTraj),
// re-expressed as a pure function of generation instead of a stateful
// once-through iterator, since nothing here needs to forbid re-querying
// an earlier generation.
type Trajectory interface {
	// FreqAt returns the derived-allele frequency at generation g. ok is
	// false if g falls outside the trajectory's known domain (spec.md
	// §4.8: "trajectory exhausted before the sweep window completes").
	FreqAt(g Gens) (freq Freq, ok bool)
}

// fileTrajectory is a trajectory loaded from a table of (generation,
// frequency) pairs, piecewise-linearly interpolated between points.
// Grounded on cosi C++ TrajFromFile.
type fileTrajectory struct {
	gens  []Gens
	freqs []Freq
}

// NewFileTrajectory builds a trajectory from parallel, strictly increasing
// generation/frequency tables.
func NewFileTrajectory(gens []Gens, freqs []Freq) (Trajectory, error) {
	if len(gens) == 0 || len(gens) != len(freqs) {
		return nil, errors.New("trajectory: mismatched or empty table")
	}
	for i := 1; i < len(gens); i++ {
		if gens[i] <= gens[i-1] {
			return nil, errors.Errorf("trajectory: generations not strictly increasing at row %d", i)
		}
	}
	return &fileTrajectory{gens: gens, freqs: freqs}, nil
}

func (t *fileTrajectory) FreqAt(g Gens) (Freq, bool) {
	if g < t.gens[0] || g > t.gens[len(t.gens)-1] {
		return 0, false
	}
	if g == t.gens[0] {
		return t.freqs[0], true
	}
	for i := 1; i < len(t.gens); i++ {
		if g <= t.gens[i] {
			g0, g1 := t.gens[i-1], t.gens[i]
			f0, f1 := t.freqs[i-1], t.freqs[i]
			frac := float64(g-g0) / float64(g1-g0)
			return f0 + Freq(frac)*(f1-f0), true
		}
	}
	return t.freqs[len(t.freqs)-1], true
}

// logisticTrajectory is a deterministic sweep trajectory solving the
// logistic f' = s*f*(1-f) backward from a final frequency, matching cosi
// C++'s DeterministicSweepTraj.
type logisticTrajectory struct {
	startGen, endGen Gens
	selCoeff         float64 // s
	finalFreq        Freq
	popSize          Chroms
}

// NewLogisticTrajectory builds a deterministic sweep trajectory ending at
// finalFreq at endGen, running backward to startGen, in a population of
// size popSize (used for the 1/(2N) origin threshold, spec.md §4.7).
func NewLogisticTrajectory(startGen, endGen Gens, selCoeff float64, finalFreq Freq, popSize Chroms) Trajectory {
	return &logisticTrajectory{startGen: startGen, endGen: endGen, selCoeff: selCoeff, finalFreq: finalFreq, popSize: popSize}
}

func (t *logisticTrajectory) FreqAt(g Gens) (Freq, bool) {
	if g < t.startGen || g > t.endGen {
		return 0, false
	}
	epsilon := 1.0 / (2 * float64(t.popSize))
	tEnd := t.endGen
	// f(g) = eps / (eps + (1-eps)*exp(s*(g - tEnd)))  solved so f(tEnd) == finalFreq
	shift := math.Log((1-float64(t.finalFreq))*epsilon/(float64(t.finalFreq)*(1-epsilon))) / t.selCoeff
	val := epsilon / (epsilon + (1-epsilon)*math.Exp(t.selCoeff*(float64(g-tEnd)+shift*t.selCoeff)/1.0))
	_ = val
	exp := math.Exp(t.selCoeff * (float64(g-tEnd) + shift))
	f := epsilon / (epsilon + (1-epsilon)*exp)
	return Freq(f), true
}

// OriginThreshold returns 1/(2N), the frequency at/below which the sweep
// is considered to have reached its origin and the sub-populations merge
// back (spec.md §4.7 step 3).
func (t *logisticTrajectory) OriginThreshold() Freq {
	return Freq(1.0 / (2 * float64(t.popSize)))
}

// sweepState tracks the live substitution of a single population into a
// derived/ancestral pair while a sweep is active.
type sweepState struct {
	originalPop           PopID
	derivedPop, ancPop    PopID
	selectedPos           PhysPos
	traj                  Trajectory
	startGen, endGen      Gens
	origSize              *PiecewiseFunc
}

const (
	sweepDerivedSuffix = "__derived"
	sweepAncestralSuffix = "__ancestral"
)

// enterSweep partitions the derived-allele leaves of the selected
// population between a derived and an ancestral sub-population according
// to the trajectory's entry frequency, and substitutes their size
// functions for N(g)*f(g) and N(g)*(1-f(g)) (spec.md §4.7 steps 1-2).
func (s *Scheduler) enterSweep(ev HistoricalEvent) error {
	pop, ok := s.model.Pops[ev.SweepPop]
	if !ok {
		return NewSimError(ErrConfiguration, "sweep", errors.Errorf("unknown population %q", ev.SweepPop)).WithGeneration(ev.Generation)
	}
	traj := ev.SweepTraj
	f0, ok := traj.FreqAt(ev.Generation)
	if !ok {
		return NewSimError(ErrNumerical, "sweep entry", errors.New("trajectory exhausted before sweep window started")).WithGeneration(ev.Generation)
	}

	derivedID := PopID(string(ev.SweepPop) + sweepDerivedSuffix)
	ancID := PopID(string(ev.SweepPop) + sweepAncestralSuffix)
	origSize := pop.Size
	s.model.Pops[derivedID] = &Population{ID: derivedID, Size: sweepSizeFunc(origSize, f0, true)}
	s.model.Pops[ancID] = &Population{ID: ancID, Size: sweepSizeFunc(origSize, f0, false)}

	for _, n := range pop.Nodes {
		target := ancID
		if s.rng.Float64() < float64(f0) {
			target = derivedID
		}
		n.Pop = target
		s.model.Pops[target].Nodes = append(s.model.Pops[target].Nodes, n)
	}
	pop.Nodes = nil

	s.sweep = &sweepState{
		originalPop: ev.SweepPop,
		derivedPop:  derivedID,
		ancPop:      ancID,
		selectedPos: ev.SweepPos,
		traj:        traj,
		startGen:    ev.Generation,
		endGen:      ev.Generation + ev.SweepDuration,
		origSize:    origSize,
	}
	return nil
}

func sweepSizeFunc(orig *PiecewiseFunc, f0 Freq, derived bool) *PiecewiseFunc {
	values := make([]Rate, len(orig.values))
	for i, n := range orig.values {
		frac := float64(f0)
		if !derived {
			frac = 1 - float64(f0)
		}
		values[i] = n * Rate(frac)
	}
	f, _ := NewPiecewiseFunc(orig.kind, append([]Gens(nil), orig.gens...), values)
	return f
}

// stepSweep advances the sweep's frequency-driven size split to
// generation g, and reports whether the sweep has reached its origin
// (spec.md §4.7 step 3), in which case the caller should merge the
// sub-populations back into the original population.
func (s *Scheduler) stepSweep(g Gens) (done bool, err error) {
	sw := s.sweep
	f, ok := sw.traj.FreqAt(g)
	if !ok {
		return false, NewSimError(ErrNumerical, "sweep step", errors.New("trajectory exhausted before sweep window completed")).WithGeneration(g)
	}
	derivedPop := s.model.Pops[sw.derivedPop]
	ancPop := s.model.Pops[sw.ancPop]
	derivedPop.Size = sweepSizeFunc(sw.origSize, f, true)
	ancPop.Size = sweepSizeFunc(sw.origSize, f, false)

	threshold := 1.0 / (2 * avgSize(sw.origSize, g))
	if float64(f) <= threshold || g >= sw.endGen {
		if err := s.model.MergePopulations(sw.originalPop, sw.derivedPop); err != nil {
			return false, err
		}
		if err := s.model.MergePopulations(sw.originalPop, sw.ancPop); err != nil {
			return false, err
		}
		delete(s.model.Pops, sw.derivedPop)
		delete(s.model.Pops, sw.ancPop)
		s.sweep = nil
		return true, nil
	}
	return false, nil
}

func avgSize(f *PiecewiseFunc, g Gens) float64 {
	v := f.At(g)
	if v < 1 {
		return 1
	}
	return float64(v)
}
