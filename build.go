package cosi

import (
	"strconv"

	"github.com/pkg/errors"
)

// popIDFor derives the stable PopID for a parameter-file population: its
// label if pop_define gave one, else "pop<id>".
func popIDFor(p ParamPop) PopID {
	if p.Label != "" {
		return PopID(p.Label)
	}
	return PopID("pop" + strconv.Itoa(p.ID))
}

// BuildSimulationSpec turns a parsed parameter file into a runnable
// SimulationSpec: demographic model, sample geometry, genetic map, and
// historical event queue (spec.md §6). Grounded on the teacher's
// NewSimulation-from-Config pattern (evoepi_config.go's
// EvoEpiConfig.NewSimulation).
func BuildSimulationSpec(pf *ParamFile, mode LeafsetMode) (*SimulationSpec, error) {
	if err := pf.Validate(); err != nil {
		return nil, err
	}

	model := NewDemographicModel()
	sample := &Sample{Sizes: make(map[PopID]int)}
	idByUserID := make(map[int]PopID)

	for _, p := range pf.Pops {
		id := popIDFor(p)
		idByUserID[p.ID] = id
		if err := model.AddPopulation(id, ConstantFunc(Rate(p.Size))); err != nil {
			return nil, err
		}
		if p.SampleSize > 0 {
			sample.PopOrder = append(sample.PopOrder, id)
			sample.Sizes[id] = p.SampleSize
		}
	}

	var gmap *GeneticMap
	var err error
	if pf.RecombFile != "" {
		gmap, err = LoadGeneticMap(pf.RecombFile, pf.LengthBP)
	} else {
		gmap, err = UniformRecombMap(pf.LengthBP, 1e-8)
	}
	if err != nil {
		return nil, err
	}

	popSizes := make(map[PopID]int, len(pf.Pops))
	for _, p := range pf.Pops {
		popSizes[idByUserID[p.ID]] = p.Size
	}

	hist, err := buildHistoricalEvents(pf, idByUserID, popSizes)
	if err != nil {
		return nil, err
	}

	return &SimulationSpec{
		Params:      pf,
		GeneticMap:  gmap,
		Sample:      sample,
		Model:       model,
		Hist:        hist,
		LeafsetMode: mode,
	}, nil
}

func buildHistoricalEvents(pf *ParamFile, idByUserID map[int]PopID, popSizes map[PopID]int) ([]HistoricalEvent, error) {
	var out []HistoricalEvent
	resolvePop := func(s string) (PopID, error) {
		n, err := strconv.Atoi(s)
		if err != nil {
			return "", errors.Wrapf(err, "invalid population id %q", s)
		}
		id, ok := idByUserID[n]
		if !ok {
			return "", errors.Errorf("pop_event references undefined population %d", n)
		}
		return id, nil
	}

	for _, ev := range pf.Events {
		switch ev.Kind {
		case "migration_rate":
			if len(ev.Args) != 4 {
				return nil, NewSimError(ErrConfiguration, "parsing pop_event migration_rate", errors.New("expected <from> <to> <gen> <rate>"))
			}
			from, err := resolvePop(ev.Args[0])
			if err != nil {
				return nil, NewSimError(ErrConfiguration, "parsing pop_event migration_rate", err)
			}
			to, err := resolvePop(ev.Args[1])
			if err != nil {
				return nil, NewSimError(ErrConfiguration, "parsing pop_event migration_rate", err)
			}
			gen, err := strconv.ParseFloat(ev.Args[2], 64)
			if err != nil {
				return nil, NewSimError(ErrConfiguration, "parsing pop_event migration_rate", err)
			}
			rate, err := strconv.ParseFloat(ev.Args[3], 64)
			if err != nil {
				return nil, NewSimError(ErrConfiguration, "parsing pop_event migration_rate", err)
			}
			out = append(out, HistoricalEvent{Kind: HistSetMigrationRate, Generation: Gens(gen), From: from, To: to, Rate: Rate(rate)})
		case "change_size":
			if len(ev.Args) != 3 {
				return nil, NewSimError(ErrConfiguration, "parsing pop_event change_size", errors.New("expected <id> <gen> <size>"))
			}
			pop, err := resolvePop(ev.Args[0])
			if err != nil {
				return nil, NewSimError(ErrConfiguration, "parsing pop_event change_size", err)
			}
			gen, err := strconv.ParseFloat(ev.Args[1], 64)
			if err != nil {
				return nil, NewSimError(ErrConfiguration, "parsing pop_event change_size", err)
			}
			size, err := strconv.Atoi(ev.Args[2])
			if err != nil {
				return nil, NewSimError(ErrConfiguration, "parsing pop_event change_size", err)
			}
			out = append(out, HistoricalEvent{Kind: HistChangeSize, Generation: Gens(gen), Pop: pop, NewSize: Chroms(size)})
		case "split", "admix":
			if len(ev.Args) != 4 {
				return nil, NewSimError(ErrConfiguration, "parsing pop_event "+ev.Kind, errors.New("expected <src> <dst> <gen> <prob>"))
			}
			src, err := resolvePop(ev.Args[0])
			if err != nil {
				return nil, NewSimError(ErrConfiguration, "parsing pop_event "+ev.Kind, err)
			}
			dst, err := resolvePop(ev.Args[1])
			if err != nil {
				return nil, NewSimError(ErrConfiguration, "parsing pop_event "+ev.Kind, err)
			}
			gen, err := strconv.ParseFloat(ev.Args[2], 64)
			if err != nil {
				return nil, NewSimError(ErrConfiguration, "parsing pop_event "+ev.Kind, err)
			}
			prob, err := strconv.ParseFloat(ev.Args[3], 64)
			if err != nil {
				return nil, NewSimError(ErrConfiguration, "parsing pop_event "+ev.Kind, err)
			}
			kind := HistSplit
			if ev.Kind == "admix" {
				kind = HistAdmix
			}
			out = append(out, HistoricalEvent{Kind: kind, Generation: Gens(gen), Pop: src, Dst: dst, Prob: prob})
		case "bottleneck":
			if len(ev.Args) != 4 {
				return nil, NewSimError(ErrConfiguration, "parsing pop_event bottleneck", errors.New("expected <id> <gen> <size> <duration>"))
			}
			pop, err := resolvePop(ev.Args[0])
			if err != nil {
				return nil, NewSimError(ErrConfiguration, "parsing pop_event bottleneck", err)
			}
			gen, err := strconv.ParseFloat(ev.Args[1], 64)
			if err != nil {
				return nil, NewSimError(ErrConfiguration, "parsing pop_event bottleneck", err)
			}
			size, err := strconv.Atoi(ev.Args[2])
			if err != nil {
				return nil, NewSimError(ErrConfiguration, "parsing pop_event bottleneck", err)
			}
			duration, err := strconv.ParseFloat(ev.Args[3], 64)
			if err != nil {
				return nil, NewSimError(ErrConfiguration, "parsing pop_event bottleneck", err)
			}
			out = append(out, HistoricalEvent{Kind: HistBottleneck, Generation: Gens(gen), Pop: pop, NewSize: Chroms(size)})
			// Revert to the population's configured pop_size after `duration`
			// generations (cosi's bottleneck directive is a pulse, not a
			// permanent change).
			out = append(out, HistoricalEvent{Kind: HistChangeSize, Generation: Gens(gen) + Gens(duration), Pop: pop, NewSize: Chroms(popSizes[pop])})
		case "sweep":
			if len(ev.Args) != 5 {
				return nil, NewSimError(ErrConfiguration, "parsing pop_event sweep", errors.New("expected <id> <gen> <duration> <sel_coeff> <final_freq>"))
			}
			pop, err := resolvePop(ev.Args[0])
			if err != nil {
				return nil, NewSimError(ErrConfiguration, "parsing pop_event sweep", err)
			}
			gen, err := strconv.ParseFloat(ev.Args[1], 64)
			if err != nil {
				return nil, NewSimError(ErrConfiguration, "parsing pop_event sweep", err)
			}
			duration, err := strconv.ParseFloat(ev.Args[2], 64)
			if err != nil {
				return nil, NewSimError(ErrConfiguration, "parsing pop_event sweep", err)
			}
			selCoeff, err := strconv.ParseFloat(ev.Args[3], 64)
			if err != nil {
				return nil, NewSimError(ErrConfiguration, "parsing pop_event sweep", err)
			}
			finalFreq, err := strconv.ParseFloat(ev.Args[4], 64)
			if err != nil {
				return nil, NewSimError(ErrConfiguration, "parsing pop_event sweep", err)
			}
			popSize := popSizes[pop]
			if popSize <= 0 {
				popSize = 20000
			}
			traj := NewLogisticTrajectory(Gens(gen), Gens(gen)+Gens(duration), selCoeff, Freq(finalFreq), Chroms(popSize))
			out = append(out, HistoricalEvent{Kind: HistSweep, Generation: Gens(gen), SweepPop: pop, SweepDuration: Gens(duration), SweepTraj: traj})
		default:
			return nil, NewSimError(ErrConfiguration, "parsing pop_event", errors.Errorf("unrecognized pop_event kind %q", ev.Kind))
		}
	}
	return out, nil
}

