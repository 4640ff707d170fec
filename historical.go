package cosi

import "github.com/pkg/errors"

// HistoricalKind tags the variant of a scheduled historical event
// (spec.md §4.5/§6 pop_event directives).
type HistoricalKind int

const (
	HistChangeSize HistoricalKind = iota
	HistSetMigrationRate
	HistMerge
	HistSplit
	HistAdmix
	HistBottleneck
	HistSweep
)

// HistoricalEvent is a user-scheduled change in population sizes,
// migration rates, or population structure at a given generation
// (spec.md §3, Event: Historical variant).
type HistoricalEvent struct {
	Kind       HistoricalKind
	Generation Gens

	// ChangeSize / Bottleneck
	Pop     PopID
	NewSize Chroms
	// Bottleneck: duration in generations the size is held before
	// reverting is modeled by scheduling a second ChangeSize event; this
	// field is unused otherwise.

	// SetMigrationRate
	From, To PopID
	Rate     Rate

	// Merge: Src is merged into Pop (dst)
	Src PopID

	// Split / Admix: probability each node migrates to Dst
	Dst  PopID
	Prob float64

	// Sweep
	SweepPop      PopID
	SweepDuration Gens
	SweepTraj     Trajectory
	SweepPos      PhysPos
}

// byGeneration sorts historical events ascending by generation, the order
// the scheduler consumes them in (spec.md §4.4).
type byGeneration []HistoricalEvent

func (b byGeneration) Len() int           { return len(b) }
func (b byGeneration) Less(i, j int) bool { return b[i].Generation < b[j].Generation }
func (b byGeneration) Swap(i, j int)      { b[i], b[j] = b[j], b[i] }

// applyHistorical executes one historical event against the model and
// returns only an error. Nodes moved by merge, admix and split are
// recorded as migration edges through notifyMigration, matching the
// "annotated edge boundary" language in spec.md §4.5.
func (s *Scheduler) applyHistorical(ev HistoricalEvent) error {
	switch ev.Kind {
	case HistChangeSize:
		pop, ok := s.model.Pops[ev.Pop]
		if !ok {
			return NewSimError(ErrConfiguration, "change_size", errors.Errorf("unknown population %q", ev.Pop)).WithGeneration(ev.Generation)
		}
		pop.Size = ConstantFunc(Rate(ev.NewSize))
		return nil
	case HistSetMigrationRate:
		return s.model.SetMigrationRate(ev.From, ev.To, ConstantFunc(ev.Rate))
	case HistMerge:
		if err := s.model.MergePopulations(ev.Pop, ev.Src); err != nil {
			return err
		}
		for _, n := range s.model.Pops[ev.Pop].Nodes {
			s.notifyMigration(ev.Src, ev.Pop, n, ev.Generation)
		}
		return nil
	case HistSplit:
		return s.applyDeterministicSplit(ev)
	case HistAdmix:
		return s.applyProbabilisticMove(ev)
	case HistBottleneck:
		pop, ok := s.model.Pops[ev.Pop]
		if !ok {
			return NewSimError(ErrConfiguration, "bottleneck", errors.Errorf("unknown population %q", ev.Pop)).WithGeneration(ev.Generation)
		}
		pop.Size = ConstantFunc(Rate(ev.NewSize))
		return nil
	case HistSweep:
		return s.enterSweep(ev)
	default:
		return NewSimError(ErrConfiguration, "historical event", errors.Errorf("unknown kind %d", ev.Kind)).WithGeneration(ev.Generation)
	}
}

// applyDeterministicSplit implements split (bottleneck is a size change,
// handled in applyHistorical): exactly
// round(len(srcPop.Nodes) * Prob) nodes, chosen uniformly without
// replacement, migrate to Dst (spec.md §4.5 "deterministic sampling"),
// unlike admix's independent per-node Bernoulli draw.
func (s *Scheduler) applyDeterministicSplit(ev HistoricalEvent) error {
	srcPop, ok := s.model.Pops[ev.Pop]
	if !ok {
		return NewSimError(ErrConfiguration, "split", errors.Errorf("unknown population %q", ev.Pop)).WithGeneration(ev.Generation)
	}
	dstPop, ok := s.model.Pops[ev.Dst]
	if !ok {
		return NewSimError(ErrConfiguration, "split", errors.Errorf("unknown population %q", ev.Dst)).WithGeneration(ev.Generation)
	}
	n := int(ev.Prob*float64(len(srcPop.Nodes)) + 0.5)
	if n <= 0 {
		return nil
	}
	if n > len(srcPop.Nodes) {
		n = len(srcPop.Nodes)
	}
	perm := s.rng.Perm(len(srcPop.Nodes))
	moving := make(map[int]bool, n)
	for _, idx := range perm[:n] {
		moving[idx] = true
	}
	var stay []*Node
	for i, node := range srcPop.Nodes {
		if moving[i] {
			node.Pop = ev.Dst
			dstPop.Nodes = append(dstPop.Nodes, node)
			s.notifyMigration(ev.Pop, ev.Dst, node, ev.Generation)
		} else {
			stay = append(stay, node)
		}
	}
	srcPop.Nodes = stay
	return nil
}

// applyProbabilisticMove implements admix: for each node in the source
// population, migrate it to Dst with independent probability Prob
// (spec.md §4.5).
func (s *Scheduler) applyProbabilisticMove(ev HistoricalEvent) error {
	srcPop, ok := s.model.Pops[ev.Pop]
	if !ok {
		return NewSimError(ErrConfiguration, "split/admix", errors.Errorf("unknown population %q", ev.Pop)).WithGeneration(ev.Generation)
	}
	dstPop, ok := s.model.Pops[ev.Dst]
	if !ok {
		return NewSimError(ErrConfiguration, "split/admix", errors.Errorf("unknown population %q", ev.Dst)).WithGeneration(ev.Generation)
	}
	var stay []*Node
	for _, n := range srcPop.Nodes {
		if s.rng.Float64() < ev.Prob {
			n.Pop = ev.Dst
			dstPop.Nodes = append(dstPop.Nodes, n)
			s.notifyMigration(ev.Pop, ev.Dst, n, ev.Generation)
		} else {
			stay = append(stay, n)
		}
	}
	srcPop.Nodes = stay
	return nil
}
