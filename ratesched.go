package cosi

// RateAggregator computes the competing per-kind rates used by the
// scheduler (spec.md §4.3) from the current demographic model and node
// pool. It is rebuilt whenever the demographic model crosses a breakpoint
// or node populations change, per spec.md §4.3.
type RateAggregator struct {
	model      *DemographicModel
	geneticMap *GeneticMap
	gcRatio    float64 // gene-conversion rate as a ratio of recomb rate
}

// NewRateAggregator builds an aggregator bound to model and the genetic
// map used to convert seglists to genetic length.
func NewRateAggregator(model *DemographicModel, gmap *GeneticMap, gcRatio float64) *RateAggregator {
	return &RateAggregator{model: model, geneticMap: gmap, gcRatio: gcRatio}
}

// CoalescenceRateFunc returns a piecewise function g -> rate_coal(pop, g)
// for the given population, using the current pair count (possibly hull-
// restricted) and the population's size-over-time function (spec.md
// §4.3). Since PairCount is fixed between events (it only changes when a
// coalescence/migration/recombination touches this population), this is
// valid only until the next topology change — the scheduler recomputes it
// every step.
func (a *RateAggregator) CoalescenceRateFunc(popID PopID) *PiecewiseFunc {
	pop := a.model.Pops[popID]
	pairs := a.coalesceablePairs(pop)
	if pairs == 0 {
		return ConstantFunc(0)
	}
	sizeFn := pop.Size
	gens := make([]Gens, len(sizeFn.gens))
	values := make([]Rate, len(sizeFn.gens))
	copy(gens, sizeFn.gens)
	for i, n := range sizeFn.values {
		if n <= 0 {
			values[i] = 0
			continue
		}
		values[i] = Rate(float64(pairs) / (2 * float64(n)))
	}
	f, _ := NewPiecewiseFunc(sizeFn.kind, gens, values)
	return f
}

func (a *RateAggregator) coalesceablePairs(pop *Population) int {
	if a.model.HullRadius > 0 {
		return pop.HullPairCount(a.model.HullRadius)
	}
	return pop.PairCount()
}

// MigrationRateFunc returns the aggregate piecewise migration rate
// Σ_{p->q} n(p)·m(p->q,g) across all ordered population pairs (spec.md
// §4.3). n(p) is taken as fixed at its current value since it only
// changes at events, which re-trigger a scheduler recompute.
func (a *RateAggregator) MigrationRateFunc() *PiecewiseFunc {
	var combined *PiecewiseFunc
	for pair, fn := range a.model.Migration {
		fromPop, ok := a.model.Pops[pair.From]
		if !ok || fromPop.NodeCount() == 0 {
			continue
		}
		scaled := scaleFunc(fn, float64(fromPop.NodeCount()))
		if combined == nil {
			combined = scaled
		} else {
			combined = addFuncs(combined, scaled)
		}
	}
	if combined == nil {
		return ConstantFunc(0)
	}
	return combined
}

func scaleFunc(f *PiecewiseFunc, factor float64) *PiecewiseFunc {
	values := make([]Rate, len(f.values))
	for i, v := range f.values {
		values[i] = v * Rate(factor)
	}
	out, _ := NewPiecewiseFunc(f.kind, append([]Gens(nil), f.gens...), values)
	return out
}

// addFuncs merges two piecewise functions into one whose breakpoint set is
// the union of both, each segment's value the sum of the two functions
// evaluated there. Used to build aggregate rates across populations/pairs.
func addFuncs(a, b *PiecewiseFunc) *PiecewiseFunc {
	bset := make(map[Gens]bool)
	for _, g := range a.gens {
		bset[g] = true
	}
	for _, g := range b.gens {
		bset[g] = true
	}
	gens := make([]Gens, 0, len(bset))
	for g := range bset {
		gens = append(gens, g)
	}
	sortGens(gens)
	values := make([]Rate, len(gens))
	for i, g := range gens {
		values[i] = a.At(g) + b.At(g)
	}
	kind := PieceConstant
	if a.kind == PieceLinear || b.kind == PieceLinear {
		kind = PieceLinear
	}
	out, _ := NewPiecewiseFunc(kind, gens, values)
	return out
}

func sortGens(g []Gens) {
	for i := 1; i < len(g); i++ {
		for j := i; j > 0 && g[j] < g[j-1]; j-- {
			g[j], g[j-1] = g[j-1], g[j]
		}
	}
}

// RecombRate returns the instantaneous total recombination rate: the sum
// of genetic lengths of every live node's seglist, in expected
// recombinations per generation (spec.md §4.3). GenLength is in
// centimorgans, so the sum is divided by 100 to give Morgans.
func (a *RateAggregator) RecombRate() Rate {
	total := 0.0
	for _, pop := range a.model.Pops {
		for _, n := range pop.Nodes {
			total += float64(a.geneticMap.GenLength(n.Seglist))
		}
	}
	return Rate(total / 100)
}

// GeneConversionRate is gcRatio * RecombRate (spec.md §4.3).
func (a *RateAggregator) GeneConversionRate() Rate {
	return Rate(a.gcRatio) * a.RecombRate()
}
