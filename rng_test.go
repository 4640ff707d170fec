package cosi

import "testing"

func TestNewRNG_DeterministicForSameSeedAndIndex(t *testing.T) {
	a := NewRNG(42, 1)
	b := NewRNG(42, 1)
	for i := 0; i < 10; i++ {
		if av, bv := a.Float64(), b.Float64(); av != bv {
			t.Fatalf("draw %d diverged: %v vs %v", i, av, bv)
		}
	}
}

func TestNewRNG_DifferentIndicesDiverge(t *testing.T) {
	a := NewRNG(42, 1)
	b := NewRNG(42, 2)
	if a.Seed() == b.Seed() {
		t.Error("expected distinct simulation indices to derive distinct seeds")
	}
}

func TestRNG_Poisson_ZeroLambda(t *testing.T) {
	r := NewRNG(1, 1)
	if v := r.Poisson(0); v != 0 {
		t.Errorf("Poisson(0) = %d, want 0", v)
	}
}

func TestRNG_Binomial_ZeroTrials(t *testing.T) {
	r := NewRNG(1, 1)
	if v := r.Binomial(0, 0.5); v != 0 {
		t.Errorf("Binomial(0, 0.5) = %d, want 0", v)
	}
}

func TestRNG_Geometric_BoundaryProbabilities(t *testing.T) {
	r := NewRNG(1, 1)
	if v := r.Geometric(0); v != 0 {
		t.Errorf("Geometric(0) = %d, want 0", v)
	}
	if v := r.Geometric(1); v != 0 {
		t.Errorf("Geometric(1) = %d, want 0", v)
	}
}

func TestRNG_UniformInt_Range(t *testing.T) {
	r := NewRNG(7, 1)
	for i := 0; i < 100; i++ {
		v := r.UniformInt(5)
		if v < 0 || v >= 5 {
			t.Fatalf("UniformInt(5) = %d, out of range", v)
		}
	}
}

func TestRNG_Categorical_RespectsWeights(t *testing.T) {
	r := NewRNG(3, 1)
	counts := make([]int, 3)
	for i := 0; i < 1000; i++ {
		counts[r.Categorical([]float64{1, 0, 0})]++
	}
	if counts[0] != 1000 {
		t.Errorf("expected all draws on index 0 when its weight is the only nonzero one, got %v", counts)
	}
}

func TestRNG_Perm_IsPermutation(t *testing.T) {
	r := NewRNG(9, 1)
	p := r.Perm(10)
	seen := make(map[int]bool)
	for _, v := range p {
		if v < 0 || v >= 10 || seen[v] {
			t.Fatalf("Perm(10) produced an invalid permutation: %v", p)
		}
		seen[v] = true
	}
}
