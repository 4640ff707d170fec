package cosi

import (
	"math"
	"os"
	"sort"
	"strconv"

	"github.com/pkg/errors"
)

// Observer receives strongly-typed notifications for each event the
// scheduler executes, re-expressing cosi C++'s hook system (hooks.cc) as
// an explicit list of listeners rather than dynamic subscription (spec.md
// §9).
type Observer interface {
	OnCoalescence(pop PopID, a, b, parent NodeID, gen Gens)
	OnRecombination(node NodeID, loc PhysPos, left, right NodeID, gen Gens)
	OnGeneConversion(node NodeID, loc1, loc2 PhysPos, left, mid, right NodeID, gen Gens)
	OnMigration(from, to PopID, node NodeID, gen Gens)
	OnEdge(e ARGEdge)
}

// ScheduleContext carries the scheduler's per-simulation numeric settings,
// the Poisson-inversion tolerance and bisection cap (spec.md §9: tied to an
// explicit object, never module-level state, so concurrent simulations
// never share it). No rate values are cached between steps; the scheduler
// recomputes them every step.
type ScheduleContext struct {
	PoissonPrecision float64
	PoissonMaxSteps  int
}

// DefaultScheduleContext returns a context using the spec's default
// tolerances, overridable via POISSON_PRECISION/POISSON_MAX_STEPS
// (spec.md §6).
func DefaultScheduleContext() *ScheduleContext {
	ctx := &ScheduleContext{PoissonPrecision: defaultPoissonPrecision, PoissonMaxSteps: defaultPoissonMaxSteps}
	if v, err := strconv.ParseFloat(os.Getenv("POISSON_PRECISION"), 64); err == nil && v > 0 {
		ctx.PoissonPrecision = v
	}
	if v, err := strconv.Atoi(os.Getenv("POISSON_MAX_STEPS")); err == nil && v > 0 {
		ctx.PoissonMaxSteps = v
	}
	return ctx
}

// Scheduler drives the backward-time event loop: computes competing
// rates, draws the next event by inhomogeneous-Poisson sampling, dispatches
// to an executor, and repeats until the sample has fully coalesced or a
// stop condition fires (spec.md §4.4). One Scheduler belongs to exactly
// one simulation; nothing here is shared across simulations (spec.md §5).
type Scheduler struct {
	model      *DemographicModel
	geneticMap *GeneticMap
	agg        *RateAggregator
	rng        *RNG
	ids        idAllocator
	ctx        *ScheduleContext
	arg        *ARG
	observers  []Observer
	pool       *segPool

	gcRatio         float64
	gcMeanTract     float64
	gcMinTract      float64
	hist            []HistoricalEvent
	sweep           *sweepState
	universe        *Universe
	maxGen          Gens // optional time cap, 0 = unbounded
	truncated       bool
	generation      Gens
}

// NewScheduler wires a scheduler around a demographic model, a genetic
// map, an RNG, and the universe describing the sample.
func NewScheduler(model *DemographicModel, gmap *GeneticMap, rng *RNG, universe *Universe, gcRatio, gcMeanTract, gcMinTract float64, hist []HistoricalEvent) *Scheduler {
	sorted := append([]HistoricalEvent(nil), hist...)
	sort.Stable(byGeneration(sorted))
	return &Scheduler{
		model:       model,
		geneticMap:  gmap,
		agg:         NewRateAggregator(model, gmap, gcRatio),
		rng:         rng,
		ctx:         DefaultScheduleContext(),
		arg:         &ARG{},
		pool:        newSegPool(),
		gcRatio:     gcRatio,
		gcMeanTract: gcMeanTract,
		gcMinTract:  gcMinTract,
		hist:        sorted,
		universe:    universe,
	}
}

// AddObserver registers a hook invoked on every event the scheduler
// dispatches (spec.md §9).
func (s *Scheduler) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// SetTimeCap configures a wall-generation cap beyond which the loop exits
// with a truncated status instead of continuing to full coalescence
// (spec.md §4.4 step 7).
func (s *Scheduler) SetTimeCap(g Gens) { s.maxGen = g }

// ARG returns the accumulated graph of edges emitted so far.
func (s *Scheduler) ARG() *ARG { return s.arg }

// Truncated reports whether the run stopped due to the time cap rather
// than full coalescence.
func (s *Scheduler) Truncated() bool { return s.truncated }

// Generation returns the scheduler's current generation.
func (s *Scheduler) Generation() Gens { return s.generation }

// fullyCoalesced reports whether every population has at most one node
// carrying non-empty material — spec.md §4.4 step 7's stop condition. The
// count is taken per population.
func (s *Scheduler) fullyCoalesced() bool {
	for _, pop := range s.model.Pops {
		liveCount := 0
		for _, n := range pop.Nodes {
			if !n.Seglist.IsEmpty() {
				liveCount++
				if liveCount > 1 {
					return false
				}
			}
		}
	}
	return true
}

// Run advances the scheduler until the sample fully coalesces, the time
// cap is exceeded, or an unrecoverable error occurs (spec.md §4.4).
func (s *Scheduler) Run() error {
	for !s.fullyCoalesced() {
		if s.maxGen > 0 && s.generation >= s.maxGen {
			s.truncated = true
			return nil
		}
		if err := s.step(); err != nil {
			return err
		}
	}
	return nil
}

// nextHistorical returns the generation of the next scheduled historical
// event still in the future, or +Inf if none remain.
func (s *Scheduler) nextHistorical() Gens {
	for _, ev := range s.hist {
		if ev.Generation > s.generation {
			return ev.Generation
		}
	}
	return Gens(math.Inf(1))
}

// popHistorical removes and returns all historical events scheduled at
// exactly g, in the order they were configured.
func (s *Scheduler) popHistorical(g Gens) []HistoricalEvent {
	var due []HistoricalEvent
	var rest []HistoricalEvent
	for _, ev := range s.hist {
		if ev.Generation == g {
			due = append(due, ev)
		} else {
			rest = append(rest, ev)
		}
	}
	s.hist = rest
	return due
}

type eventKind int

const (
	evCoalescence eventKind = iota
	evRecombination
	evGeneConversion
	evMigration
	evHistorical
)

// step performs one iteration of spec.md §4.4: compute competing rates,
// sample the next event time and kind, advance, dispatch.
func (s *Scheduler) step() error {
	if s.sweep != nil {
		return s.sweepStep()
	}
	return s.stepUntil(s.nextHistorical())
}

// stepUntil samples and executes the next stochastic event no later than
// horizon; if none comes first, time advances to horizon and any
// historical events scheduled there are applied.
func (s *Scheduler) stepUntil(horizon Gens) error {
	type candidate struct {
		gen  Gens
		kind eventKind
		pop  PopID
	}
	best := candidate{gen: Gens(math.Inf(1))}

	for popID := range s.model.Pops {
		fn := s.agg.CoalescenceRateFunc(popID)
		if fn.IsZero() {
			continue
		}
		u := -math.Log(1 - s.rng.Float64())
		g, ok, err := fn.InvertIntegral(s.generation, horizon, u, s.ctx.PoissonPrecision, s.ctx.PoissonMaxSteps)
		if err != nil {
			return NewSimError(ErrNumerical, "coalescence inversion", err).WithPop(popID).WithGeneration(s.generation)
		}
		if ok && g < best.gen {
			best = candidate{gen: g, kind: evCoalescence, pop: popID}
		}
	}

	migFn := s.agg.MigrationRateFunc()
	if !migFn.IsZero() {
		u := -math.Log(1 - s.rng.Float64())
		if g, ok, err := migFn.InvertIntegral(s.generation, horizon, u, s.ctx.PoissonPrecision, s.ctx.PoissonMaxSteps); err != nil {
			return NewSimError(ErrNumerical, "migration inversion", err).WithGeneration(s.generation)
		} else if ok && g < best.gen {
			best = candidate{gen: g, kind: evMigration}
		}
	}

	rate := s.agg.RecombRate() + s.agg.GeneConversionRate()
	if rate > 0 {
		dt := Gens(s.rng.Exponential(float64(rate)))
		g := s.generation + dt
		if g <= horizon && g < best.gen {
			kind := evRecombination
			if s.rng.Float64() < float64(s.agg.GeneConversionRate())/float64(rate) {
				kind = evGeneConversion
			}
			best = candidate{gen: g, kind: kind}
		}
	}

	if horizon <= best.gen {
		s.generation = horizon
		for _, ev := range s.popHistorical(horizon) {
			if err := s.applyHistorical(ev); err != nil {
				return err
			}
		}
		return nil
	}

	if math.IsInf(float64(best.gen), 1) {
		return NewSimError(ErrInvariant, "scheduler step", errors.New("no event and no historical horizon: sample cannot coalesce")).WithGeneration(s.generation)
	}

	s.generation = best.gen
	switch best.kind {
	case evCoalescence:
		return s.execCoalescence(best.pop)
	case evMigration:
		return s.execMigration()
	case evRecombination:
		return s.execRecombination()
	case evGeneConversion:
		return s.execGeneConversion()
	}
	return nil
}

// sweepStep advances time by a small fixed increment while a sweep is
// active, stepping the trajectory and coalescing within the derived/
// ancestral split (spec.md §4.7).
func (s *Scheduler) sweepStep() error {
	const sweepDeltaT = 1.0
	next := s.generation + sweepDeltaT
	if next > s.sweep.endGen {
		next = s.sweep.endGen
	}
	done, err := s.stepSweep(next)
	if err != nil {
		return err
	}
	s.generation = next
	if done {
		return nil
	}
	// Run one ordinary step's worth of coalescence/migration/recombination
	// within the two sweep sub-populations before advancing the
	// trajectory again. No event is placed past the sweep's end.
	horizon := s.nextHistorical()
	if s.sweep.endGen < horizon {
		horizon = s.sweep.endGen
	}
	return s.stepUntil(horizon)
}

func (s *Scheduler) notifyMigration(from, to PopID, n *Node, gen Gens) {
	for _, o := range s.observers {
		o.OnMigration(from, to, n.ID, gen)
	}
	e := ARGEdge{Child: n.ID, Parent: n.ID, ChildGen: gen, ParentGen: gen, Seglist: n.Seglist, Kind: EdgeMigration, Pop: to}
	s.arg.Emit(e)
	for _, o := range s.observers {
		o.OnEdge(e)
	}
}
