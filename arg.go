package cosi

// EdgeKind tags how an ARG edge was created.
type EdgeKind int

const (
	EdgeCoalescence EdgeKind = iota
	EdgeRecombination
	EdgeGeneConversion
	EdgeMigration
	EdgeRetire // full-coalescence retirement edge, spec.md §4.5
)

func (k EdgeKind) String() string {
	switch k {
	case EdgeCoalescence:
		return "coalescence"
	case EdgeRecombination:
		return "recombination"
	case EdgeGeneConversion:
		return "gene_conversion"
	case EdgeMigration:
		return "migration"
	case EdgeRetire:
		return "retire"
	default:
		return "unknown"
	}
}

// ARGEdge is emitted as a side effect of every event (spec.md §3). The
// seglist carried along the edge is immutable once published, so
// downstream mutation placement can read it without synchronization even
// if later parallelized across edges (spec.md §5).
type ARGEdge struct {
	Child, Parent       NodeID
	ChildGen, ParentGen Gens
	Seglist             *Seglist
	Kind                EdgeKind
	Pop                 PopID
}

// ARG accumulates the edges emitted during one simulation run, consumed
// afterward by mutation placement (spec.md §4.6).
type ARG struct {
	Edges []ARGEdge
}

// Emit appends e to the graph.
func (a *ARG) Emit(e ARGEdge) { a.Edges = append(a.Edges, e) }
