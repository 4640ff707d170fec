package cosi

import "fmt"

// LeafsetMode selects which Leafset representation Universe.Singleton,
// Union and Intersect build, a runtime choice standing in for cosi C++'s compile-time
// COSI_LEAFSET_TREE / COSI_LEAFSET_SIZEONLY switch (spec.md §9 Open
// Question: preserved as a runtime flag rather than inferred).
type LeafsetMode int

const (
	// LeafsetTree keeps full per-leaf identity as a persistent union DAG.
	LeafsetTree LeafsetMode = iota
	// LeafsetCountOnly keeps only cardinalities, for when identity is
	// never queried (faster, less memory).
	LeafsetCountOnly
)

// Leafset is the set of present-day leaves (chromosomes) inheriting some
// ancestral segment. Immutable once constructed; unions build new values
// rather than mutating operands.
type Leafset interface {
	// IsEmpty reports whether the leafset has no members.
	IsEmpty() bool
	// Size returns the total number of leaves in the set.
	Size() int
	// PopCount returns the number of leaves belonging to pop.
	PopCount(pop PopID) int
	// Contains reports whether leaf is a member.
	Contains(leaf LeafID) bool
	// Union returns the union of s and other. Both must share the same
	// concrete representation (mixing tree and count-only is a
	// programming error and panics).
	Union(other Leafset) Leafset
	// Intersect returns the intersection of s and other.
	Intersect(other Leafset) Leafset
	// Difference returns the members of s not in other.
	Difference(other Leafset) Leafset
	// Equal reports structural/count equality (not pointer identity).
	Equal(other Leafset) bool
	// IsFull reports whether s equals the full sample leafset for its
	// universe (used to detect full coalescence, spec.md §4.1).
	IsFull() bool
}

// Universe describes the full sample: total leaf count, each leaf's
// population, and per-population totals. Every Leafset belongs to exactly
// one Universe (passed explicitly rather than captured globally, per the
// "no module-level state" guidance in spec.md §9).
type Universe struct {
	mode       LeafsetMode
	numLeaves  int
	leafPop    []PopID
	popTotals  map[PopID]int
	singletons []Leafset // memoized tree-form singletons, by LeafID
	empty      Leafset
}

// NewUniverse builds a Universe from an ordered list of each leaf's
// population membership.
func NewUniverse(mode LeafsetMode, leafPops []PopID) *Universe {
	u := &Universe{mode: mode, numLeaves: len(leafPops), leafPop: append([]PopID(nil), leafPops...)}
	u.popTotals = make(map[PopID]int)
	for _, p := range leafPops {
		u.popTotals[p]++
	}
	switch mode {
	case LeafsetTree:
		u.empty = &treeLeafset{universe: u, counts: map[PopID]int{}}
		u.singletons = make([]Leafset, len(leafPops))
		for i, p := range leafPops {
			counts := map[PopID]int{p: 1}
			u.singletons[i] = &treeLeafset{universe: u, leaf: LeafID(i), isLeaf: true, members: map[LeafID]bool{LeafID(i): true}, counts: counts}
		}
	case LeafsetCountOnly:
		u.empty = &countLeafset{universe: u, counts: map[PopID]int{}}
		u.singletons = make([]Leafset, len(leafPops))
		for i, p := range leafPops {
			u.singletons[i] = &countLeafset{universe: u, n: 1, counts: map[PopID]int{p: 1}}
		}
	}
	return u
}

// Mode reports which Leafset representation this universe was built with.
func (u *Universe) Mode() LeafsetMode { return u.mode }

// Empty returns the distinguished empty leafset for this universe.
func (u *Universe) Empty() Leafset { return u.empty }

// Singleton returns the leafset containing exactly leaf.
func (u *Universe) Singleton(leaf LeafID) Leafset { return u.singletons[leaf] }

// NumLeaves is the sample size L.
func (u *Universe) NumLeaves() int { return u.numLeaves }

// --- tree form --------------------------------------------------------

// treeLeafset is a persistent union DAG: a leaf node, or the union of two
// children. counts is the per-population count vector; for a node built
// by Union it is left nil (unresolved) until something actually needs
// Size/PopCount/IsFull, at which point it's computed once from the
// flattened membership (which correctly dedups leaves reachable through
// more than one path in the DAG) and memoized.
// Grounded on cosi C++ leafset-tree.h.
type treeLeafset struct {
	universe *Universe
	isLeaf   bool
	leaf     LeafID
	left     *treeLeafset
	right    *treeLeafset
	members  map[LeafID]bool // memoized flattened membership, built lazily
	counts   map[PopID]int   // memoized per-population counts, built lazily
}

// IsEmpty is O(1): a node built by Union always has two non-empty
// children (Union short-circuits otherwise), so an unresolved (nil)
// counts vector can never belong to an empty set.
func (l *treeLeafset) IsEmpty() bool {
	if l.counts == nil {
		return false
	}
	for _, c := range l.counts {
		if c != 0 {
			return false
		}
	}
	return true
}

// ensureCounts computes and memoizes counts from the flattened membership
// if not already known.
func (l *treeLeafset) ensureCounts() map[PopID]int {
	if l.counts != nil {
		return l.counts
	}
	counts := make(map[PopID]int)
	for leaf := range l.flatten() {
		counts[l.universe.leafPop[leaf]]++
	}
	l.counts = counts
	return counts
}

func (l *treeLeafset) Size() int {
	total := 0
	for _, c := range l.ensureCounts() {
		total += c
	}
	return total
}

func (l *treeLeafset) PopCount(pop PopID) int { return l.ensureCounts()[pop] }

// flatten returns this node's full leaf membership, computing and
// memoizing it from left/right on first use. Union itself never calls
// this: it's paid only by callers that actually need per-leaf identity
// or counts (Contains, Intersect, Difference, Size/PopCount/IsFull), not
// by every union in the DAG.
func (l *treeLeafset) flatten() map[LeafID]bool {
	if l.members != nil {
		return l.members
	}
	if l.isLeaf {
		l.members = map[LeafID]bool{l.leaf: true}
		return l.members
	}
	members := make(map[LeafID]bool)
	if l.left != nil {
		for k := range l.left.flatten() {
			members[k] = true
		}
	}
	if l.right != nil {
		for k := range l.right.flatten() {
			members[k] = true
		}
	}
	l.members = members
	return members
}

func (l *treeLeafset) Contains(leaf LeafID) bool { return l.flatten()[leaf] }

// Union builds a structural node referencing l and o as children without
// flattening either operand's membership; counts are resolved lazily on
// first query, deduping any leaf reachable through both operands rather
// than assuming they're disjoint. Grounded on cosi C++ leafset-tree.h's
// union node, which likewise stores child pointers rather than a merged
// set.
func (l *treeLeafset) Union(other Leafset) Leafset {
	o, ok := other.(*treeLeafset)
	if !ok {
		panic("leafset: mixed representations in Union")
	}
	if l.IsEmpty() {
		return o
	}
	if o.IsEmpty() {
		return l
	}
	return &treeLeafset{universe: l.universe, left: l, right: o}
}

func (l *treeLeafset) Intersect(other Leafset) Leafset {
	o, ok := other.(*treeLeafset)
	if !ok {
		panic("leafset: mixed representations in Intersect")
	}
	members := make(map[LeafID]bool)
	small, big := l.flatten(), o.flatten()
	if len(big) < len(small) {
		small, big = big, small
	}
	for k := range small {
		if big[k] {
			members[k] = true
		}
	}
	return l.universe.fromMembers(members)
}

func (l *treeLeafset) Difference(other Leafset) Leafset {
	o, ok := other.(*treeLeafset)
	if !ok {
		panic("leafset: mixed representations in Difference")
	}
	members := make(map[LeafID]bool)
	oMembers := o.flatten()
	for k := range l.flatten() {
		if !oMembers[k] {
			members[k] = true
		}
	}
	return l.universe.fromMembers(members)
}

// Equal is pointer identity on children (or on the leaf itself) plus a
// per-population count comparison, never a membership walk: two nodes
// built from the same Union calls share left/right pointers, and nodes
// built differently but covering the same leaves still match on counts.
func (l *treeLeafset) Equal(other Leafset) bool {
	o, ok := other.(*treeLeafset)
	if !ok {
		return false
	}
	if l == o {
		return true
	}
	if l.isLeaf && o.isLeaf {
		return l.leaf == o.leaf
	}
	if !l.isLeaf && !o.isLeaf && l.left == o.left && l.right == o.right {
		return true
	}
	lc, oc := l.ensureCounts(), o.ensureCounts()
	if len(lc) != len(oc) {
		return false
	}
	for p, c := range lc {
		if oc[p] != c {
			return false
		}
	}
	return true
}

func (l *treeLeafset) IsFull() bool { return l.Size() == l.universe.numLeaves }

func (u *Universe) fromMembers(members map[LeafID]bool) Leafset {
	if len(members) == 0 {
		return u.empty
	}
	counts := make(map[PopID]int)
	for leaf := range members {
		counts[u.leafPop[leaf]]++
	}
	return &treeLeafset{universe: u, members: members, counts: counts}
}

// --- count-only form ----------------------------------------------------

// countLeafset tracks only cardinalities, used when per-leaf identity is
// never queried. Grounded on cosi C++ leafset-counts.h/leafset-sizeonly.h.
type countLeafset struct {
	universe *Universe
	n        int
	counts   map[PopID]int
}

func (l *countLeafset) IsEmpty() bool         { return l.n == 0 }
func (l *countLeafset) Size() int             { return l.n }
func (l *countLeafset) PopCount(p PopID) int  { return l.counts[p] }
func (l *countLeafset) Contains(LeafID) bool  { panic("leafset: Contains unsupported in count-only mode") }
func (l *countLeafset) IsFull() bool          { return l.n == l.universe.numLeaves }

func (l *countLeafset) Union(other Leafset) Leafset {
	o, ok := other.(*countLeafset)
	if !ok {
		panic("leafset: mixed representations in Union")
	}
	counts := make(map[PopID]int)
	for p := range l.universe.popTotals {
		c := l.counts[p] + o.counts[p]
		if total := l.universe.popTotals[p]; c > total {
			c = total
		}
		counts[p] = c
	}
	n := 0
	for _, c := range counts {
		n += c
	}
	return &countLeafset{universe: l.universe, n: n, counts: counts}
}

func (l *countLeafset) Intersect(other Leafset) Leafset {
	o, ok := other.(*countLeafset)
	if !ok {
		panic("leafset: mixed representations in Intersect")
	}
	counts := make(map[PopID]int)
	n := 0
	for p, c := range l.counts {
		oc := o.counts[p]
		if oc < c {
			c = oc
		}
		counts[p] = c
		n += c
	}
	return &countLeafset{universe: l.universe, n: n, counts: counts}
}

func (l *countLeafset) Difference(other Leafset) Leafset {
	o, ok := other.(*countLeafset)
	if !ok {
		panic("leafset: mixed representations in Difference")
	}
	counts := make(map[PopID]int)
	n := 0
	for p, c := range l.counts {
		rem := c - o.counts[p]
		if rem < 0 {
			rem = 0
		}
		counts[p] = rem
		n += rem
	}
	return &countLeafset{universe: l.universe, n: n, counts: counts}
}

func (l *countLeafset) Equal(other Leafset) bool {
	o, ok := other.(*countLeafset)
	if !ok || l.n != o.n {
		return false
	}
	for p, c := range l.counts {
		if o.counts[p] != c {
			return false
		}
	}
	return true
}

func (l *countLeafset) String() string { return fmt.Sprintf("count(%d)", l.n) }
