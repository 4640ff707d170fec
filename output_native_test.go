package cosi

import (
	"os"
	"path/filepath"
	"testing"
)

func nativeResult(u *Universe, sample *Sample) *SimulationResult {
	return &SimulationResult{
		Universe: u,
		Sample:   sample,
		ARG:      &ARG{},
		Mutations: []Mutation{
			{Pos: 0.25, BP: 0, Leaves: u.Singleton(0), Pop: "A"},
		},
	}
}

func TestNativeWriter_Write_ProducesPosAndHapFiles(t *testing.T) {
	u := NewUniverse(LeafsetTree, []PopID{"A", "A"})
	sample := &Sample{PopOrder: []PopID{"A"}, Sizes: map[PopID]int{"A": 2}}
	res := nativeResult(u, sample)

	dir := t.TempDir()
	base := filepath.Join(dir, "out")
	w := NewNativeWriter(base)
	if err := w.Write(res); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(base + ".pos-A"); err != nil {
		t.Errorf("expected pos file to exist: %v", err)
	}
	if _, err := os.Stat(base + ".hap-A"); err != nil {
		t.Errorf("expected hap file to exist: %v", err)
	}
}

func TestNativeWriter_Write_RejectsCountOnlyMode(t *testing.T) {
	u := NewUniverse(LeafsetCountOnly, []PopID{"A", "A"})
	sample := &Sample{PopOrder: []PopID{"A"}, Sizes: map[PopID]int{"A": 2}}
	res := &SimulationResult{Universe: u, Sample: sample, ARG: &ARG{}}

	w := NewNativeWriter(filepath.Join(t.TempDir(), "out"))
	if err := w.Write(res); err == nil {
		t.Error("expected error writing native output in count-only mode")
	}
}

func TestLeafRangeFor(t *testing.T) {
	sample := &Sample{
		PopOrder: []PopID{"A", "B"},
		Sizes:    map[PopID]int{"A": 3, "B": 2},
	}
	start, end := leafRangeFor(sample, "B")
	if start != 3 || end != 5 {
		t.Errorf("leafRangeFor(B) = (%d,%d), want (3,5)", start, end)
	}
}
