package cosi

import "testing"

func TestARG_Emit(t *testing.T) {
	var a ARG
	e := ARGEdge{Kind: EdgeCoalescence, ChildGen: 0, ParentGen: 5}
	a.Emit(e)
	if len(a.Edges) != 1 {
		t.Fatalf("len(Edges) = %d, want 1", len(a.Edges))
	}
	if a.Edges[0].Kind != EdgeCoalescence {
		t.Errorf("Edges[0].Kind = %v, want EdgeCoalescence", a.Edges[0].Kind)
	}
}

func TestEdgeKind_String(t *testing.T) {
	cases := map[EdgeKind]string{
		EdgeCoalescence:    "coalescence",
		EdgeRecombination:  "recombination",
		EdgeGeneConversion: "gene_conversion",
		EdgeMigration:      "migration",
		EdgeRetire:         "retire",
	}
	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Errorf("%v.String() = %q, want %q", int(kind), got, want)
		}
	}
}
