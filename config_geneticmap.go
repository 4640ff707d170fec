package cosi

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/interp"
)

// GeneticMap converts between physical positions in [0,1) and genetic
// positions in centimorgans, by monotone interpolation over a user-supplied
// table of (physical_bp, rate_per_bp) pairs (spec.md §6). Physical
// positions are rescaled internally from basepairs to [0,1) by the region
// length.
type GeneticMap struct {
	lengthBP float64
	physBP   []float64 // breakpoints, in bp
	cumCM    []float64 // cumulative genetic position at each breakpoint, in cM
	fit      interp.FittablePredictor
}

// NewGeneticMap builds a map from strictly increasing physical positions
// (bp) and per-bp recombination rates (must be > 0), plus the total region
// length in bp. The first entry's rate extends leftward to position 0; the
// last entry's rate extends rightward to lengthBP (spec.md §6).
func NewGeneticMap(lengthBP float64, posBP []float64, ratePerBP []float64) (*GeneticMap, error) {
	if len(posBP) == 0 || len(posBP) != len(ratePerBP) {
		return nil, errors.New("genetic map: mismatched or empty table")
	}
	for i, r := range ratePerBP {
		if r <= 0 {
			return nil, errors.Errorf("genetic map: rate at row %d must be > 0, got %g", i, r)
		}
	}
	for i := 1; i < len(posBP); i++ {
		if posBP[i] <= posBP[i-1] {
			return nil, errors.Errorf("genetic map: positions not strictly increasing at row %d", i)
		}
	}
	// Build cumulative genetic distance (cM) at the table breakpoints,
	// piecewise-linear between them, flat-rate extrapolated at the ends.
	xs := make([]float64, 0, len(posBP)+2)
	cm := make([]float64, 0, len(posBP)+2)
	if posBP[0] > 0 {
		xs = append(xs, 0)
		cm = append(cm, 0)
	}
	cum := 0.0
	prevPos := 0.0
	prevRate := ratePerBP[0]
	for i := range posBP {
		cum += prevRate * (posBP[i] - prevPos) * 100.0 // rate/bp -> cM across the gap
		xs = append(xs, posBP[i])
		cm = append(cm, cum)
		prevPos = posBP[i]
		prevRate = ratePerBP[i]
	}
	cum += prevRate * (lengthBP - prevPos) * 100.0
	xs = append(xs, lengthBP)
	cm = append(cm, cum)

	pl := &interp.PiecewiseLinear{}
	if err := pl.Fit(xs, cm); err != nil {
		return nil, errors.Wrap(err, "genetic map: fitting piecewise-linear interpolant")
	}
	return &GeneticMap{lengthBP: lengthBP, physBP: xs, cumCM: cm, fit: pl}, nil
}

// LengthBP returns the region length in basepairs, for converting raw bp
// quantities (tract lengths, window widths) into the [0,1) fractional
// coordinate system PhysPos uses.
func (m *GeneticMap) LengthBP() float64 {
	return m.lengthBP
}

// ToGenPos converts a physical position in [0,1) to a genetic position in
// centimorgans.
func (m *GeneticMap) ToGenPos(p PhysPos) GenPos {
	bp := float64(p) * m.lengthBP
	if bp < m.physBP[0] {
		bp = m.physBP[0]
	}
	if bp > m.physBP[len(m.physBP)-1] {
		bp = m.physBP[len(m.physBP)-1]
	}
	return GenPos(m.fit.Predict(bp))
}

// GenLength returns the genetic length (cM) spanned by a seglist, summing
// each segment's genetic span. Used by the recombination-rate aggregator
// (spec.md §4.3).
func (m *GeneticMap) GenLength(sl *Seglist) GenPos {
	total := GenPos(0)
	for _, s := range sl.Segments() {
		total += m.ToGenPos(s.End) - m.ToGenPos(s.Beg)
	}
	return total
}

// TotalGenLength is the genetic length of the whole region.
func (m *GeneticMap) TotalGenLength() GenPos {
	return GenPos(m.cumCM[len(m.cumCM)-1])
}

// UniformRecombMap builds a genetic map with a constant rate over the
// whole region, for parameter files that specify no recomb_file.
func UniformRecombMap(lengthBP float64, ratePerBP float64) (*GeneticMap, error) {
	return NewGeneticMap(lengthBP, []float64{0}, []float64{ratePerBP})
}

// LoadGeneticMap parses a genetic map file: whitespace-separated
// "<position_bp> <rate_per_bp>" pairs, strictly increasing in position,
// rate > 0 (spec.md §6). Grounded on the teacher's scanner-based parsers
// (utils.go LoadSequences, config_parser.go).
func LoadGeneticMap(path string, lengthBP float64) (*GeneticMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, NewSimError(ErrIO, "opening genetic map file", err)
	}
	defer f.Close()
	return parseGeneticMap(f, lengthBP)
}

func parseGeneticMap(r io.Reader, lengthBP float64) (*GeneticMap, error) {
	scanner := bufio.NewScanner(r)
	var pos, rate []float64
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, NewSimError(ErrConfiguration, "parsing genetic map", errors.Errorf("line %d: expected 2 fields, got %d", lineNum, len(fields)))
		}
		p, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, NewSimError(ErrConfiguration, "parsing genetic map", errors.Wrapf(err, "line %d: invalid position", lineNum))
		}
		rt, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, NewSimError(ErrConfiguration, "parsing genetic map", errors.Wrapf(err, "line %d: invalid rate", lineNum))
		}
		pos = append(pos, p)
		rate = append(rate, rt)
	}
	if err := scanner.Err(); err != nil {
		return nil, NewSimError(ErrIO, "reading genetic map", err)
	}
	if len(pos) == 0 {
		return nil, NewSimError(ErrConfiguration, "parsing genetic map", errors.New("empty genetic map"))
	}
	return NewGeneticMap(lengthBP, pos, rate)
}
