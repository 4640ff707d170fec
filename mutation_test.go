package cosi

import "testing"

func TestMutationPlacer_Place_SkipsZeroSpanAndMigrationEdges(t *testing.T) {
	u := NewUniverse(LeafsetTree, []PopID{"A"})
	sl := FullRegionSeglist(u.Singleton(0))
	arg := &ARG{}
	arg.Emit(ARGEdge{Kind: EdgeMigration, Seglist: sl, ChildGen: 0, ParentGen: 10})
	arg.Emit(ARGEdge{Kind: EdgeCoalescence, Seglist: sl, ChildGen: 5, ParentGen: 5})

	rng := NewRNG(1, 1)
	placer := NewMutationPlacer(1e-6, 1e6, InfiniteSites, rng)
	muts := placer.Place(arg)
	if len(muts) != 0 {
		t.Errorf("expected no mutations from a migration edge or a zero-span edge, got %d", len(muts))
	}
}

func TestMutationPlacer_Place_PlacesOnPositiveSpanEdge(t *testing.T) {
	u := NewUniverse(LeafsetTree, []PopID{"A", "A"})
	sl := FullRegionSeglist(u.Singleton(0))
	arg := &ARG{}
	arg.Emit(ARGEdge{Kind: EdgeCoalescence, Seglist: sl, ChildGen: 0, ParentGen: 1000, Pop: "A"})

	rng := NewRNG(1, 1)
	placer := NewMutationPlacer(1e-4, 1e6, InfiniteSites, rng)
	muts := placer.Place(arg)
	if len(muts) == 0 {
		t.Fatal("expected at least one mutation at this mutation rate and edge length")
	}
	for _, m := range muts {
		if m.Pos < 0 || m.Pos >= 1 {
			t.Errorf("mutation position %v out of [0,1)", m.Pos)
		}
		if m.Generation < 0 || m.Generation > 1000 {
			t.Errorf("mutation generation %v out of [0,1000]", m.Generation)
		}
	}
}

func TestMutationPlacer_Place_FiniteSitesDedups(t *testing.T) {
	u := NewUniverse(LeafsetTree, []PopID{"A"})
	sl := FullRegionSeglist(u.Singleton(0))
	arg := &ARG{}
	arg.Emit(ARGEdge{Kind: EdgeCoalescence, Seglist: sl, ChildGen: 0, ParentGen: 5000, Pop: "A"})

	rng := NewRNG(2, 1)
	placer := NewMutationPlacer(1e-3, 100, FiniteSites, rng)
	muts := placer.Place(arg)
	seen := make(map[int]bool)
	for _, m := range muts {
		if seen[m.BP] {
			t.Errorf("duplicate bp %d in finite-sites mode", m.BP)
		}
		seen[m.BP] = true
	}
}

func TestRandBetween_StaysWithinBounds(t *testing.T) {
	rng := NewRNG(3, 1)
	for i := 0; i < 50; i++ {
		g := randBetween(rng, 10, 20)
		if g < 10 || g > 20 {
			t.Fatalf("randBetween(10,20) = %v, out of range", g)
		}
	}
}
