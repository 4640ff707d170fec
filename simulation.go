package cosi

import "github.com/pkg/errors"

// Sample describes one simulation's leaves: per-population sample sizes,
// in the order they'll be assigned dense LeafIDs.
type Sample struct {
	PopOrder []PopID
	Sizes    map[PopID]int
}

// TotalLeaves returns Σ sample_size(pop).
func (s *Sample) TotalLeaves() int {
	total := 0
	for _, p := range s.PopOrder {
		total += s.Sizes[p]
	}
	return total
}

// leafPops expands Sample into one PopID per dense leaf index.
func (s *Sample) leafPops() []PopID {
	out := make([]PopID, 0, s.TotalLeaves())
	for _, p := range s.PopOrder {
		for i := 0; i < s.Sizes[p]; i++ {
			out = append(out, p)
		}
	}
	return out
}

// SimulationResult is everything a simulation produced: the ARG, its
// placed mutations, and the sample geometry needed to render output.
type SimulationResult struct {
	Universe  *Universe
	Sample    *Sample
	ARG       *ARG
	Mutations []Mutation
	Truncated bool
	Seed      int64
}

// SimulationSpec bundles everything needed to build and run one
// simulation instance: the parsed parameter file, genetic map, sample
// geometry, demographic model, and leafset mode.
type SimulationSpec struct {
	Params      *ParamFile
	GeneticMap  *GeneticMap
	Sample      *Sample
	Model       *DemographicModel
	Hist        []HistoricalEvent
	LeafsetMode LeafsetMode
	TimeCap     Gens
}

// RunSimulation builds the initial node pool from spec.Sample, runs the
// scheduler to full coalescence (or the time cap), and places mutations,
// returning the full result (spec.md §2 steps 9-10).
func RunSimulation(spec *SimulationSpec, rng *RNG) (*SimulationResult, error) {
	if err := spec.Params.Validate(); err != nil {
		return nil, err
	}
	universe := NewUniverse(spec.LeafsetMode, spec.Sample.leafPops())

	var ids idAllocator
	leaf := 0
	for _, popID := range spec.Sample.PopOrder {
		pop, ok := spec.Model.Pops[popID]
		if !ok {
			return nil, NewSimError(ErrConfiguration, "building sample", errors.Errorf("population %q has a sample but no demographic record", popID))
		}
		for i := 0; i < spec.Sample.Sizes[popID]; i++ {
			leaves := universe.Singleton(LeafID(leaf))
			sl := FullRegionSeglist(leaves)
			n := NewNode(ids.New(), popID, sl, 0)
			pop.Nodes = append(pop.Nodes, n)
			leaf++
		}
	}

	sched := NewScheduler(spec.Model, spec.GeneticMap, rng, universe,
		spec.Params.GeneConversionRate, spec.Params.GeneConversionMeanTract, spec.Params.GeneConversionMinTract, spec.Hist)
	sched.ids = ids
	if spec.TimeCap > 0 {
		sched.SetTimeCap(spec.TimeCap)
	}

	if err := sched.Run(); err != nil {
		return nil, err
	}

	mode := FiniteSites
	if spec.Params.InfiniteSites {
		mode = InfiniteSites
	}
	placer := NewMutationPlacer(spec.Params.MutationRate, spec.Params.LengthBP, mode, rng)
	muts := placer.Place(sched.ARG())

	return &SimulationResult{
		Universe:  universe,
		Sample:    spec.Sample,
		ARG:       sched.ARG(),
		Mutations: muts,
		Truncated: sched.Truncated(),
		Seed:      rng.Seed(),
	}, nil
}
