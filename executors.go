package cosi

import "github.com/pkg/errors"

// execCoalescence draws two distinct nodes uniformly without replacement
// from pop, unions their seglists, creates a parent node, and emits two
// ARG edges. If the union produces any fully-coalesced material, the
// parent's seglist is split into the retired (fully coalesced) part and a
// still-segregating part carried by a fresh node (spec.md §4.5).
func (s *Scheduler) execCoalescence(popID PopID) error {
	pop, ok := s.model.Pops[popID]
	if !ok {
		return NewSimError(ErrInvariant, "coalescence", errors.Errorf("unknown population %q", popID)).WithGeneration(s.generation)
	}
	if len(pop.Nodes) < 2 {
		return NewSimError(ErrInvariant, "coalescence", errors.New("fewer than 2 nodes available")).WithPop(popID).WithGeneration(s.generation)
	}
	perm := s.rng.Perm(len(pop.Nodes))
	i, j := perm[0], perm[1]
	a, b := pop.Nodes[i], pop.Nodes[j]

	res := unionSeglistsPooled(a.Seglist, b.Seglist, s.pool)
	parentID := s.ids.New()

	// Remove full-coalescence sub-length from the parent's carried
	// material: what remains segregating is res.Seglist minus res.FullParts.
	segregating := res.Seglist
	for _, full := range res.FullParts {
		left, right := segregating.Split(full.Beg)
		_, afterFull := right.Split(full.End)
		merged := unionSeglistsPooled(left, afterFull, s.pool)
		s.pool.put(segregating.Segments())
		segregating = merged.Seglist
	}

	parent := NewNode(parentID, popID, segregating, s.generation)

	// Remove the two children; insert the parent if it still carries
	// material, otherwise the lineage at every point it covered has fully
	// coalesced and it's simply dropped.
	removeIdx := []int{i, j}
	if removeIdx[0] < removeIdx[1] {
		pop.removeNodeAt(removeIdx[1])
		pop.removeNodeAt(removeIdx[0])
	} else {
		pop.removeNodeAt(removeIdx[0])
		pop.removeNodeAt(removeIdx[1])
	}
	if !parent.Seglist.IsEmpty() {
		pop.Nodes = append(pop.Nodes, parent)
	}

	edgeA := ARGEdge{Child: a.ID, Parent: parentID, ChildGen: a.Generation, ParentGen: s.generation, Seglist: a.Seglist, Kind: EdgeCoalescence, Pop: popID}
	edgeB := ARGEdge{Child: b.ID, Parent: parentID, ChildGen: b.Generation, ParentGen: s.generation, Seglist: b.Seglist, Kind: EdgeCoalescence, Pop: popID}
	s.arg.Emit(edgeA)
	s.arg.Emit(edgeB)
	for _, o := range s.observers {
		o.OnCoalescence(popID, a.ID, b.ID, parentID, s.generation)
		o.OnEdge(edgeA)
		o.OnEdge(edgeB)
	}

	if len(res.FullParts) > 0 {
		retireEdge := ARGEdge{Child: parentID, Parent: parentID, ChildGen: s.generation, ParentGen: s.generation, Seglist: NewSeglist(res.FullParts), Kind: EdgeRetire, Pop: popID}
		s.arg.Emit(retireEdge)
		for _, o := range s.observers {
			o.OnEdge(retireEdge)
		}
	}
	return nil
}

// execRecombination splits the chosen node's seglist at a genetic-map-
// uniform physical location, replacing it with two new nodes at the same
// generation and population, each carrying one half (spec.md §4.5).
func (s *Scheduler) execRecombination() error {
	node, loc, err := s.pickRecombSite()
	if err != nil {
		return err
	}
	leftSL, rightSL := node.Seglist.Split(loc)
	return s.splitNode(node, loc, leftSL, rightSL, EdgeRecombination)
}

func (s *Scheduler) splitNode(node *Node, loc PhysPos, leftSL, rightSL *Seglist, kind EdgeKind) error {
	pop := s.model.Pops[node.Pop]
	if !pop.RemoveNode(node) {
		return NewSimError(ErrInvariant, "split", errors.New("node not found in its population")).WithPop(node.Pop).WithGeneration(s.generation)
	}
	var left, right *Node
	if !leftSL.IsEmpty() {
		left = NewNode(s.ids.New(), node.Pop, leftSL, s.generation)
		pop.Nodes = append(pop.Nodes, left)
	}
	if !rightSL.IsEmpty() {
		right = NewNode(s.ids.New(), node.Pop, rightSL, s.generation)
		pop.Nodes = append(pop.Nodes, right)
	}
	var leftID, rightID NodeID
	if left != nil {
		leftID = left.ID
		e := ARGEdge{Child: node.ID, Parent: left.ID, ChildGen: node.Generation, ParentGen: s.generation, Seglist: leftSL, Kind: kind, Pop: node.Pop}
		s.arg.Emit(e)
		for _, o := range s.observers {
			o.OnEdge(e)
		}
	}
	if right != nil {
		rightID = right.ID
		e := ARGEdge{Child: node.ID, Parent: right.ID, ChildGen: node.Generation, ParentGen: s.generation, Seglist: rightSL, Kind: kind, Pop: node.Pop}
		s.arg.Emit(e)
		for _, o := range s.observers {
			o.OnEdge(e)
		}
	}
	if kind == EdgeRecombination {
		for _, o := range s.observers {
			o.OnRecombination(node.ID, loc, leftID, rightID, s.generation)
		}
	}
	return nil
}

// pickRecombSite chooses a node proportional to its genetic length and a
// uniform point within it, per spec.md §4.2's find_recomb(frac).
func (s *Scheduler) pickRecombSite() (*Node, PhysPos, error) {
	total := float64(s.agg.RecombRate()) * 100 // Morgans -> cM, the unit GenLength uses below
	if total <= 0 {
		return nil, 0, NewSimError(ErrInvariant, "recombination", errors.New("no recombinable material")).WithGeneration(s.generation)
	}
	target := s.rng.Float64() * total
	cum := 0.0
	for _, pop := range s.model.Pops {
		for _, n := range pop.Nodes {
			glen := float64(s.geneticMap.GenLength(n.Seglist))
			if cum+glen >= target {
				return n, s.locateGenPos(n, target-cum), nil
			}
			cum += glen
		}
	}
	return nil, 0, NewSimError(ErrInvariant, "recombination", errors.New("recomb site selection fell through")).WithGeneration(s.generation)
}

// locateGenPos maps a genetic-distance offset within node's seglist to a
// physical position.
func (s *Scheduler) locateGenPos(n *Node, genOffset float64) PhysPos {
	for _, seg := range n.Seglist.Segments() {
		segGen := float64(s.geneticMap.GenLength(NewSeglist([]Segment{seg})))
		if genOffset <= segGen {
			frac := genOffset / segGen
			return seg.Beg + PhysPos(frac)*(seg.End-seg.Beg)
		}
		genOffset -= segGen
	}
	segs := n.Seglist.Segments()
	return segs[len(segs)-1].End
}

// execGeneConversion chooses a recombination site, then a tract length
// from a geometric distribution with the configured mean (bounded below
// by the configured minimum), and applies two splits producing three
// pieces; the middle becomes a separate node (spec.md §4.5).
func (s *Scheduler) execGeneConversion() error {
	node, loc1, err := s.pickRecombSite()
	if err != nil {
		return err
	}
	tractBP := float64(s.rng.Geometric(1 / s.gcMeanTract))
	if tractBP < s.gcMinTract {
		tractBP = s.gcMinTract
	}
	tractFrac := tractBP / s.geneticMap.LengthBP()
	loc2 := loc1 + PhysPos(tractFrac)
	if loc2 > 1 {
		loc2 = 1
	}
	leftSL, midSL, rightSL := node.Seglist.SplitTract(loc1, loc2)

	pop := s.model.Pops[node.Pop]
	if !pop.RemoveNode(node) {
		return NewSimError(ErrInvariant, "gene conversion", errors.New("node not found in its population")).WithPop(node.Pop).WithGeneration(s.generation)
	}
	var leftID, midID, rightID NodeID
	emit := func(sl *Seglist) NodeID {
		if sl.IsEmpty() {
			return NodeID{}
		}
		nn := NewNode(s.ids.New(), node.Pop, sl, s.generation)
		pop.Nodes = append(pop.Nodes, nn)
		e := ARGEdge{Child: node.ID, Parent: nn.ID, ChildGen: node.Generation, ParentGen: s.generation, Seglist: sl, Kind: EdgeGeneConversion, Pop: node.Pop}
		s.arg.Emit(e)
		for _, o := range s.observers {
			o.OnEdge(e)
		}
		return nn.ID
	}
	leftID = emit(leftSL)
	midID = emit(midSL)
	rightID = emit(rightSL)
	for _, o := range s.observers {
		o.OnGeneConversion(node.ID, loc1, loc2, leftID, midID, rightID, s.generation)
	}
	return nil
}

// execMigration chooses a uniform node among all live nodes weighted by
// the migration-rate function actually drawn, moves it between
// populations, and records an annotated edge boundary rather than
// creating a new node (spec.md §4.5).
func (s *Scheduler) execMigration() error {
	type weighted struct {
		node     *Node
		from, to PopID
		w        float64
	}
	var candidates []weighted
	for pair, fn := range s.model.Migration {
		fromPop, ok := s.model.Pops[pair.From]
		if !ok || len(fromPop.Nodes) == 0 {
			continue
		}
		rate := float64(fn.At(s.generation)) * float64(len(fromPop.Nodes))
		if rate <= 0 {
			continue
		}
		for _, n := range fromPop.Nodes {
			candidates = append(candidates, weighted{node: n, from: pair.From, to: pair.To, w: rate / float64(len(fromPop.Nodes))})
		}
	}
	if len(candidates) == 0 {
		return NewSimError(ErrInvariant, "migration", errors.New("no migration candidates despite nonzero migration rate")).WithGeneration(s.generation)
	}
	weights := make([]float64, len(candidates))
	for i, c := range candidates {
		weights[i] = c.w
	}
	pick := candidates[s.rng.Categorical(weights)]

	srcPop := s.model.Pops[pick.from]
	dstPop := s.model.Pops[pick.to]
	srcPop.RemoveNode(pick.node)
	pick.node.Pop = pick.to
	dstPop.Nodes = append(dstPop.Nodes, pick.node)

	s.notifyMigration(pick.from, pick.to, pick.node, s.generation)
	return nil
}
