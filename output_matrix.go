package cosi

import (
	"bufio"
	"fmt"
	"io"
)

// MatrixWriter emits the compatibility haplotype-matrix format: a header
// block with segment count and physical positions in [0,1], then a matrix
// of 0/1 per sampled chromosome (spec.md §6). Grounded on the teacher's
// line-oriented CSVLogger writers (csv_logger.go), generalized to a
// single shared stream instead of per-artifact files.
type MatrixWriter struct {
	precision int
}

// NewMatrixWriter builds a writer formatting positions with the given
// number of decimal digits.
func NewMatrixWriter(precision int) *MatrixWriter {
	if precision <= 0 {
		precision = 6
	}
	return &MatrixWriter{precision: precision}
}

// Write emits the full matrix for res to w, across all populations in
// res.Sample.PopOrder (sample order concatenated, matching the native
// writer's per-population leaf ranges).
func (mw *MatrixWriter) Write(w io.Writer, res *SimulationResult) error {
	if res.Universe.Mode() != LeafsetTree {
		return NewSimError(ErrConfiguration, "writing matrix output", errLeafsetCountOnly)
	}
	snps := newSNPTable(res.Mutations)
	bw := bufio.NewWriter(w)
	defer bw.Flush()

	fmt.Fprintf(bw, "%d\n", len(snps.positions))
	for _, m := range snps.positions {
		fmt.Fprintf(bw, "%.*f ", mw.precision, float64(m.Pos))
	}
	fmt.Fprintln(bw)

	total := res.Sample.TotalLeaves()
	for leaf := 0; leaf < total; leaf++ {
		for _, m := range snps.positions {
			if m.Leaves.Contains(LeafID(leaf)) {
				bw.WriteByte('1')
			} else {
				bw.WriteByte('0')
			}
		}
		bw.WriteByte('\n')
	}
	return nil
}
