package cosi

import "github.com/segmentio/ksuid"

// NodeID uniquely identifies a node (live ancestor) across the whole
// simulation. Ids are monotonically increasing in creation order
// (spec.md §3 invariant); the ksuid additionally gives a stable, sortable
// external identifier for ARG edges and output, mirroring the teacher's
// use of ksuid for genotype/node identity (genotype.go, sequence_tree.go).
type NodeID struct {
	Seq   uint64
	KSUID ksuid.KSUID
}

// Node is a live ancestor: one seglist, one population, an optional hull
// for convex-hull coalescence restriction, and the generation at which it
// was created.
type Node struct {
	ID         NodeID
	Pop        PopID
	Seglist    *Seglist
	Generation Gens

	// hull is the [min beg, max end] physical envelope of Seglist,
	// maintained incrementally for the optional convex-hull coalescence
	// restriction (spec.md §4.2). Grounded on cosi C++ hullmgr_impl.h.
	hullMin, hullMax PhysPos
}

func newHull(sl *Seglist) (min, max PhysPos) {
	segs := sl.Segments()
	if len(segs) == 0 {
		return 0, 0
	}
	min, max = segs[0].Beg, segs[0].End
	for _, s := range segs[1:] {
		if s.Beg < min {
			min = s.Beg
		}
		if s.End > max {
			max = s.End
		}
	}
	return min, max
}

// NewNode constructs a live node, deriving its hull from its seglist.
func NewNode(id NodeID, pop PopID, sl *Seglist, gen Gens) *Node {
	n := &Node{ID: id, Pop: pop, Seglist: sl, Generation: gen}
	n.hullMin, n.hullMax = newHull(sl)
	return n
}

// Hull returns the node's physical envelope [min, max).
func (n *Node) Hull() (PhysPos, PhysPos) { return n.hullMin, n.hullMax }

// idAllocator hands out monotonically increasing NodeIDs. Owned
// exclusively by one simulation's event loop (spec.md §5: no locks
// required within a single simulation).
type idAllocator struct {
	next uint64
}

func (a *idAllocator) New() NodeID {
	id := NodeID{Seq: a.next, KSUID: ksuid.New()}
	a.next++
	return id
}
