package cosi

import (
	"math"
	"testing"
)

func statsResult() *SimulationResult {
	u := NewUniverse(LeafsetTree, []PopID{"A", "A", "A", "A"})
	sample := &Sample{PopOrder: []PopID{"A"}, Sizes: map[PopID]int{"A": 4}}
	return &SimulationResult{
		Universe: u,
		Sample:   sample,
		Mutations: []Mutation{
			{Pos: 0.1, Leaves: u.Singleton(0), Pop: "A"},
			{Pos: 0.2, Leaves: u.Singleton(1), Pop: "A"},
		},
	}
}

func TestMeanPairwiseDifferences_NoMutations(t *testing.T) {
	res := statsResult()
	res.Mutations = nil
	if got := MeanPairwiseDifferences(res, "A"); got != 0 {
		t.Errorf("MeanPairwiseDifferences() = %v, want 0 with no mutations", got)
	}
}

func TestMeanPairwiseDifferences_SingleLeaf(t *testing.T) {
	u := NewUniverse(LeafsetTree, []PopID{"A"})
	sample := &Sample{PopOrder: []PopID{"A"}, Sizes: map[PopID]int{"A": 1}}
	res := &SimulationResult{Universe: u, Sample: sample}
	if got := MeanPairwiseDifferences(res, "A"); got != 0 {
		t.Errorf("MeanPairwiseDifferences() = %v, want 0 with fewer than 2 leaves", got)
	}
}

func TestSegregatingSites_CountsPolymorphicMutations(t *testing.T) {
	res := statsResult()
	if got := SegregatingSites(res, "A"); got != 2 {
		t.Errorf("SegregatingSites() = %d, want 2", got)
	}
}

func TestSegregatingSites_ExcludesFixedMutation(t *testing.T) {
	u := NewUniverse(LeafsetTree, []PopID{"A", "A"})
	sample := &Sample{PopOrder: []PopID{"A"}, Sizes: map[PopID]int{"A": 2}}
	fixed := u.Singleton(0).Union(u.Singleton(1))
	res := &SimulationResult{Universe: u, Sample: sample, Mutations: []Mutation{{Leaves: fixed, Pop: "A"}}}
	if got := SegregatingSites(res, "A"); got != 0 {
		t.Errorf("SegregatingSites() = %d, want 0 for a fixed mutation", got)
	}
}

func TestTajimasD_ZeroWithNoSegregatingSites(t *testing.T) {
	res := statsResult()
	res.Mutations = nil
	if got := TajimasD(res, "A"); got != 0 {
		t.Errorf("TajimasD() = %v, want 0", got)
	}
}

func TestTajimasD_FiniteForTypicalData(t *testing.T) {
	res := statsResult()
	d := TajimasD(res, "A")
	if math.IsNaN(d) || math.IsInf(d, 0) {
		t.Errorf("TajimasD() = %v, want a finite value", d)
	}
}

func TestFST_ZeroWhenIdentical(t *testing.T) {
	u := NewUniverse(LeafsetTree, []PopID{"A", "A", "B", "B"})
	sample := &Sample{PopOrder: []PopID{"A", "B"}, Sizes: map[PopID]int{"A": 2, "B": 2}}
	res := &SimulationResult{Universe: u, Sample: sample}
	if got := FST(res, "A", "B"); got != 0 {
		t.Errorf("FST() = %v, want 0 with no mutations", got)
	}
}

func TestIHH_SingletonGroupsReturnIdentityOne(t *testing.T) {
	res := statsResult()
	derived, ancestral := IHH(res, "A", map[LeafID]bool{0: true})
	if derived != 1 {
		t.Errorf("derived identity with a single carrier = %v, want 1", derived)
	}
	_ = ancestral
}
