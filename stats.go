package cosi

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// MeanPairwiseDifferences computes the average number of pairwise
// differences (pi) across all sampled chromosomes in pop, over the placed
// mutations (spec.md §8 scenario 1). Grounded on cosi C++ stats.cc.
func MeanPairwiseDifferences(res *SimulationResult, pop PopID) float64 {
	start, end := leafRangeFor(res.Sample, pop)
	n := end - start
	if n < 2 {
		return 0
	}
	diffs := make([]float64, 0, n*(n-1)/2)
	for i := start; i < end; i++ {
		for j := i + 1; j < end; j++ {
			d := 0
			for _, m := range res.Mutations {
				if m.Pop != "" && m.Pop != pop {
					continue
				}
				if m.Leaves.Contains(LeafID(i)) != m.Leaves.Contains(LeafID(j)) {
					d++
				}
			}
			diffs = append(diffs, float64(d))
		}
	}
	return stat.Mean(diffs, nil)
}

// SegregatingSites counts the number of mutations with a derived allele
// present in at least one, but not all, sampled chromosomes of pop.
func SegregatingSites(res *SimulationResult, pop PopID) int {
	start, end := leafRangeFor(res.Sample, pop)
	n := end - start
	count := 0
	for _, m := range res.Mutations {
		c := 0
		for i := start; i < end; i++ {
			if m.Leaves.Contains(LeafID(i)) {
				c++
			}
		}
		if c > 0 && c < n {
			count++
		}
	}
	return count
}

// TajimasD computes Tajima's D for pop from the placed mutations (spec.md
// §8 scenario 1: expectation approx 0 under neutrality and constant size).
// Grounded on cosi C++ stats.cc's summary-statistic catalogue.
func TajimasD(res *SimulationResult, pop PopID) float64 {
	start, end := leafRangeFor(res.Sample, pop)
	n := float64(end - start)
	if n < 2 {
		return 0
	}
	pi := MeanPairwiseDifferences(res, pop)
	s := float64(SegregatingSites(res, pop))
	if s == 0 {
		return 0
	}
	a1 := harmonic(n - 1)
	a2 := harmonic2(n - 1)
	b1 := (n + 1) / (3 * (n - 1))
	b2 := 2 * (n*n + n + 3) / (9 * n * (n - 1))
	c1 := b1 - 1/a1
	c2 := b2 - (n+2)/(a1*n) + a2/(a1*a1)
	e1 := c1 / a1
	e2 := c2 / (a1*a1 + a2)
	variance := e1*s + e2*s*(s-1)
	if variance <= 0 {
		return 0
	}
	return (pi - s/a1) / math.Sqrt(variance)
}

func harmonic(n float64) float64 {
	total := 0.0
	for i := 1.0; i <= n; i++ {
		total += 1 / i
	}
	return total
}

func harmonic2(n float64) float64 {
	total := 0.0
	for i := 1.0; i <= n; i++ {
		total += 1 / (i * i)
	}
	return total
}

// FST computes Wright's F_ST between two populations from the placed
// mutations, using the Hudson-style ratio of (between - within) diversity
// to between diversity (spec.md §8 scenario 2). Grounded on cosi C++
// stats.cc.
func FST(res *SimulationResult, popA, popB PopID) float64 {
	piWithinA := MeanPairwiseDifferences(res, popA)
	piWithinB := MeanPairwiseDifferences(res, popB)
	piBetween := meanPairwiseBetween(res, popA, popB)
	piWithin := (piWithinA + piWithinB) / 2
	if piBetween == 0 {
		return 0
	}
	return (piBetween - piWithin) / piBetween
}

func meanPairwiseBetween(res *SimulationResult, popA, popB PopID) float64 {
	startA, endA := leafRangeFor(res.Sample, popA)
	startB, endB := leafRangeFor(res.Sample, popB)
	var diffs []float64
	for i := startA; i < endA; i++ {
		for j := startB; j < endB; j++ {
			d := 0
			for _, m := range res.Mutations {
				if m.Leaves.Contains(LeafID(i)) != m.Leaves.Contains(LeafID(j)) {
					d++
				}
			}
			diffs = append(diffs, float64(d))
		}
	}
	return stat.Mean(diffs, nil)
}

// IHH computes a simplified extended haplotype homozygosity statistic
// around the selected site for a sweep scenario (spec.md §8 scenario 3,
// §4.7 sweep driver). Grounded on cosi C++ cosiihh.cc.
//
// derivedCarriers is the set of leaf indices carrying the derived allele
// at the selected site; the statistic is the mean pairwise haplotype
// identity (over placed mutations) within that set, vs. within its
// complement.
func IHH(res *SimulationResult, pop PopID, derivedCarriers map[LeafID]bool) (derived, ancestral float64) {
	start, end := leafRangeFor(res.Sample, pop)
	var derivedLeaves, ancestralLeaves []LeafID
	for i := start; i < end; i++ {
		if derivedCarriers[LeafID(i)] {
			derivedLeaves = append(derivedLeaves, LeafID(i))
		} else {
			ancestralLeaves = append(ancestralLeaves, LeafID(i))
		}
	}
	return meanIdentity(res, derivedLeaves), meanIdentity(res, ancestralLeaves)
}

func meanIdentity(res *SimulationResult, leaves []LeafID) float64 {
	if len(leaves) < 2 {
		return 1
	}
	var identities []float64
	for i := 0; i < len(leaves); i++ {
		for j := i + 1; j < len(leaves); j++ {
			same, total := 0, 0
			for _, m := range res.Mutations {
				total++
				if m.Leaves.Contains(leaves[i]) == m.Leaves.Contains(leaves[j]) {
					same++
				}
			}
			if total == 0 {
				identities = append(identities, 1)
			} else {
				identities = append(identities, float64(same)/float64(total))
			}
		}
	}
	return stat.Mean(identities, nil)
}
