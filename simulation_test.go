package cosi

import "testing"

func basicSpec(t *testing.T) *SimulationSpec {
	pf := basicParamFile()
	pf.MutationRate = 1e-4
	pf.InfiniteSites = true
	spec, err := BuildSimulationSpec(pf, LeafsetTree)
	if err != nil {
		t.Fatal(err)
	}
	return spec
}

func TestSample_TotalLeaves(t *testing.T) {
	s := &Sample{PopOrder: []PopID{"A", "B"}, Sizes: map[PopID]int{"A": 3, "B": 2}}
	if got := s.TotalLeaves(); got != 5 {
		t.Errorf("TotalLeaves() = %d, want 5", got)
	}
}

func TestSample_LeafPops_OrdersByPopOrder(t *testing.T) {
	s := &Sample{PopOrder: []PopID{"A", "B"}, Sizes: map[PopID]int{"A": 2, "B": 1}}
	got := s.leafPops()
	want := []PopID{"A", "A", "B"}
	if len(got) != len(want) {
		t.Fatalf("leafPops() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("leafPops()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRunSimulation_CoalescesAndPlacesMutations(t *testing.T) {
	spec := basicSpec(t)
	res, err := RunSimulation(spec, NewRNG(42, 0))
	if err != nil {
		t.Fatal(err)
	}
	if res.ARG == nil || len(res.ARG.Edges) == 0 {
		t.Error("expected a non-empty ARG after running to coalescence")
	}
	if res.Sample.TotalLeaves() != 6 {
		t.Errorf("Sample.TotalLeaves() = %d, want 6", res.Sample.TotalLeaves())
	}
	if res.Truncated {
		t.Error("expected the run to coalesce fully, not truncate, with no time cap")
	}
	if res.Seed != 42 {
		t.Errorf("Seed = %d, want 42", res.Seed)
	}
}

func TestRunSimulation_RespectsTimeCap(t *testing.T) {
	pf := basicParamFile()
	for i := range pf.Pops {
		pf.Pops[i].Size = 1000000000
	}
	spec, err := BuildSimulationSpec(pf, LeafsetTree)
	if err != nil {
		t.Fatal(err)
	}
	spec.TimeCap = 1

	res, err := RunSimulation(spec, NewRNG(7, 0))
	if err != nil {
		t.Fatal(err)
	}
	if !res.Truncated {
		t.Error("expected Truncated=true with an unreachable time cap against a huge population")
	}
}

func TestRunSimulation_UnknownSamplePopulation(t *testing.T) {
	spec := basicSpec(t)
	spec.Sample.PopOrder = append(spec.Sample.PopOrder, "ghost")
	spec.Sample.Sizes["ghost"] = 1
	if _, err := RunSimulation(spec, NewRNG(1, 0)); err == nil {
		t.Error("expected error sampling from a population absent from the demographic model")
	}
}
