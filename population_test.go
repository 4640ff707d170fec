package cosi

import "testing"

func samplePopulation(n int) *Population {
	u := NewUniverse(LeafsetTree, make([]PopID, n))
	var ids idAllocator
	p := &Population{ID: "A", Size: ConstantFunc(Rate(n))}
	for i := 0; i < n; i++ {
		sl := FullRegionSeglist(u.Singleton(LeafID(i)))
		p.Nodes = append(p.Nodes, NewNode(ids.New(), "A", sl, 0))
	}
	return p
}

func TestPopulation_PairCount(t *testing.T) {
	p := samplePopulation(4)
	if got := p.PairCount(); got != 6 {
		t.Errorf("PairCount() = %d, want 6", got)
	}
}

func TestPopulation_RemoveNode(t *testing.T) {
	p := samplePopulation(3)
	target := p.Nodes[1]
	if !p.RemoveNode(target) {
		t.Fatal("expected RemoveNode to report success")
	}
	if p.NodeCount() != 2 {
		t.Errorf("NodeCount() = %d, want 2", p.NodeCount())
	}
	for _, n := range p.Nodes {
		if n == target {
			t.Error("removed node still present")
		}
	}
	if p.RemoveNode(target) {
		t.Error("removing an already-removed node should report false")
	}
}

func TestPopulation_HullPairCount(t *testing.T) {
	p := samplePopulation(2)
	// both nodes span [0,1), so their hull minima coincide.
	if got := p.HullPairCount(0); got != 1 {
		t.Errorf("HullPairCount(0) = %d, want 1", got)
	}
}

func TestDemographicModel_AddPopulation_RejectsDuplicate(t *testing.T) {
	d := NewDemographicModel()
	if err := d.AddPopulation("A", ConstantFunc(10)); err != nil {
		t.Fatal(err)
	}
	if err := d.AddPopulation("A", ConstantFunc(10)); err == nil {
		t.Error("expected error re-adding an existing population")
	}
}

func TestDemographicModel_MigrationRate(t *testing.T) {
	d := NewDemographicModel()
	d.AddPopulation("A", ConstantFunc(10))
	d.AddPopulation("B", ConstantFunc(10))
	if d.MigrationRate("A", "B") != nil {
		t.Error("expected nil migration rate before it's set")
	}
	if err := d.SetMigrationRate("A", "B", ConstantFunc(0.01)); err != nil {
		t.Fatal(err)
	}
	rate := d.MigrationRate("A", "B")
	if rate == nil || rate.At(0) != 0.01 {
		t.Errorf("expected migration rate 0.01, got %v", rate)
	}
	if d.MigrationRate("B", "A") != nil {
		t.Error("migration rate should be directional")
	}
}

func TestDemographicModel_MergePopulations(t *testing.T) {
	d := NewDemographicModel()
	d.AddPopulation("A", ConstantFunc(10))
	d.AddPopulation("B", ConstantFunc(10))
	d.Pops["A"].Nodes = samplePopulation(2).Nodes
	if err := d.MergePopulations("B", "A"); err != nil {
		t.Fatal(err)
	}
	if d.Pops["B"].NodeCount() != 2 {
		t.Errorf("NodeCount() = %d, want 2", d.Pops["B"].NodeCount())
	}
	if d.Pops["A"].NodeCount() != 0 {
		t.Error("source population should be emptied after merge")
	}
	for _, n := range d.Pops["B"].Nodes {
		if n.Pop != "B" {
			t.Errorf("merged node's Pop = %q, want B", n.Pop)
		}
	}
}

func TestDemographicModel_TotalNodes(t *testing.T) {
	d := NewDemographicModel()
	d.AddPopulation("A", ConstantFunc(10))
	d.Pops["A"].Nodes = samplePopulation(3).Nodes
	if got := d.TotalNodes(); got != 3 {
		t.Errorf("TotalNodes() = %d, want 3", got)
	}
}
