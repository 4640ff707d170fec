package cosi

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ParamFile holds the parsed contents of a line-oriented parameter file
// (spec.md §6). Grounded on the teacher's scanner-based config parsers
// (config_parser.go, evoepi_config_loader.go).
type ParamFile struct {
	LengthBP                  float64
	MutationRate              float64
	RecombFile                string
	GeneConversionRate        float64
	GeneConversionMeanTract   float64
	GeneConversionMinTract    float64
	GeneConversionModel       string
	InfiniteSites             bool
	RandomSeed                uint64
	HasRandomSeed             bool

	Pops     []ParamPop
	Events   []ParamEvent
}

// ParamPop is one pop_define/pop_size/sample_size trio, keyed by the
// user's integer pop id.
type ParamPop struct {
	ID         int
	Label      string
	Size       int
	SampleSize int
}

// ParamEvent is one pop_event directive line.
type ParamEvent struct {
	Kind string // "migration_rate", "change_size", "split", "admix", "bottleneck", "sweep"
	Args []string
}

// LoadParamFile reads and parses a .params file from disk.
func LoadParamFile(path string) (*ParamFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, NewSimError(ErrIO, "opening parameter file", err)
	}
	defer f.Close()
	return parseParamFile(f)
}

func parseParamFile(r io.Reader) (*ParamFile, error) {
	pf := &ParamFile{GeneConversionModel: "geometric"}
	popByID := make(map[int]*ParamPop)
	var order []int

	scanner := bufio.NewScanner(r)
	lineNum := 0
	anyDirective := false
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		directive := fields[0]
		args := fields[1:]
		anyDirective = true

		getPop := func(id int) *ParamPop {
			p, ok := popByID[id]
			if !ok {
				p = &ParamPop{ID: id}
				popByID[id] = p
				order = append(order, id)
			}
			return p
		}

		var err error
		switch directive {
		case "length":
			pf.LengthBP, err = parseFloatArg(args, 0)
		case "mutation_rate":
			pf.MutationRate, err = parseFloatArg(args, 0)
		case "recomb_file":
			if len(args) != 1 {
				err = errors.New("expected 1 argument")
			} else {
				pf.RecombFile = args[0]
			}
		case "gene_conversion_rate":
			pf.GeneConversionRate, err = parseFloatArg(args, 0)
		case "gene_conversion_mean_tract_length":
			pf.GeneConversionMeanTract, err = parseFloatArg(args, 0)
		case "gene_conversion_min_tract_length":
			pf.GeneConversionMinTract, err = parseFloatArg(args, 0)
		case "gene_conversion_model":
			if len(args) != 1 || (args[0] != "uniform" && args[0] != "geometric") {
				err = errors.New("expected uniform or geometric")
			} else {
				pf.GeneConversionModel = args[0]
			}
		case "infinite_sites":
			var v int
			v, err = parseIntArg(args, 0)
			pf.InfiniteSites = v != 0
		case "pop_define":
			if len(args) != 2 {
				err = errors.New("expected <id> <label>")
			} else {
				var id int
				id, err = strconv.Atoi(args[0])
				if err == nil {
					getPop(id).Label = args[1]
				}
			}
		case "pop_size":
			if len(args) != 2 {
				err = errors.New("expected <id> <size>")
			} else {
				var id, size int
				id, err = strconv.Atoi(args[0])
				if err == nil {
					size, err = strconv.Atoi(args[1])
				}
				if err == nil {
					getPop(id).Size = size
				}
			}
		case "sample_size":
			if len(args) != 2 {
				err = errors.New("expected <id> <n>")
			} else {
				var id, n int
				id, err = strconv.Atoi(args[0])
				if err == nil {
					n, err = strconv.Atoi(args[1])
				}
				if err == nil {
					getPop(id).SampleSize = n
				}
			}
		case "pop_event":
			if len(args) < 1 {
				err = errors.New("expected an event kind")
			} else {
				pf.Events = append(pf.Events, ParamEvent{Kind: args[0], Args: args[1:]})
			}
		case "random_seed":
			var v uint64
			v, err = strconv.ParseUint(args[0], 10, 64)
			if err == nil {
				pf.RandomSeed = v
				pf.HasRandomSeed = true
			}
		default:
			err = errors.Errorf("unrecognized directive %q", directive)
		}
		if err != nil {
			return nil, NewSimError(ErrConfiguration, "parsing parameter file", errors.Wrapf(err, "line %d", lineNum))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, NewSimError(ErrIO, "reading parameter file", err)
	}
	if !anyDirective {
		return nil, NewSimError(ErrConfiguration, "parsing parameter file", errors.New("empty parameter file"))
	}
	for _, id := range order {
		pf.Pops = append(pf.Pops, *popByID[id])
	}
	return pf, nil
}

func parseFloatArg(args []string, i int) (float64, error) {
	if i >= len(args) {
		return 0, errors.New("missing argument")
	}
	return strconv.ParseFloat(args[i], 64)
}

func parseIntArg(args []string, i int) (int, error) {
	if i >= len(args) {
		return 0, errors.New("missing argument")
	}
	return strconv.Atoi(args[i])
}

// Validate checks degenerate configurations that must be rejected at
// configuration time (spec.md §4.8): zero recombination rate is allowed
// (recombination-only Non-goals aside, zero is a legitimate no-recomb
// run), but zero-length region or an empty sample are not.
func (pf *ParamFile) Validate() error {
	if pf.LengthBP <= 0 {
		return NewSimError(ErrConfiguration, "validating parameters", errors.New("region length must be > 0"))
	}
	total := 0
	for _, p := range pf.Pops {
		total += p.SampleSize
	}
	if total == 0 {
		return NewSimError(ErrConfiguration, "validating parameters", errors.New("sample is empty"))
	}
	return nil
}
