// Command cosi runs an ancestral recombination graph coalescent
// simulation from a parameter file, writing one or more output artifacts
// per instance (spec.md §6). Grounded on the teacher's bin/contagion
// CLI (flag parsing, per-instance seeding, per-instance progress log).
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	cosi "github.com/broadinstitute/cosi2-sub002"
)

func main() {
	os.Exit(run())
}

func run() int {
	paramsPath := flag.String("params", "", "path to the .params file (required)")
	configPath := flag.String("config", "", "optional TOML batch-configuration file; flags override its fields")
	outputBase := flag.String("output-base", "", "output file path prefix (may also be given by --config)")
	simulations := flag.Int("simulations", 1, "number of independent simulation instances to run")
	seed := flag.Int64("seed", time.Now().UTC().UnixNano(), "master random seed")
	matrixOutput := flag.Bool("matrix-output", false, "write the compatibility haplotype-matrix format instead of native pos/hap files")
	outputMutGens := flag.Bool("output-mut-gens", false, "include the generation each mutation arose in the SQLite side table")
	outputRecombLocs := flag.Bool("output-recomb-locs", false, "write the SQLite mutation side table; recombination breakpoint locations are not recorded")
	treeStats := flag.Bool("tree-stats", false, "compute and log summary statistics (pi, segregating sites, Tajima's D) per population per instance")
	outputARGEdges := flag.Bool("output-arg-edges", false, "write the full ARG edge list to a SQLite side table")
	countOnly := flag.Bool("count-only-leafsets", false, "use the count-only leafset representation instead of tree-form (forfeits native/matrix output)")
	timeCap := flag.Float64("time-cap", 0, "stop a run after this many generations even if not fully coalesced (0 disables the cap)")
	flag.Parse()

	rc := cosi.DefaultRunConfig()
	if *configPath != "" {
		loaded, err := cosi.LoadRunConfig(*configPath)
		if err != nil {
			log.Print(err)
			return 1
		}
		rc = loaded
	}
	if *paramsPath != "" {
		rc.ParamsPath = *paramsPath
	}
	if *outputBase != "" {
		rc.OutputBase = *outputBase
	}
	if flagSet("simulations") {
		rc.Simulations = *simulations
	}
	if flagSet("seed") {
		rc.Seed = *seed
	}
	rc.MatrixOutput = rc.MatrixOutput || *matrixOutput
	rc.OutputMutGens = rc.OutputMutGens || *outputMutGens
	rc.OutputRecombLocs = rc.OutputRecombLocs || *outputRecombLocs
	rc.TreeStats = rc.TreeStats || *treeStats
	rc.OutputARGEdges = rc.OutputARGEdges || *outputARGEdges

	if err := rc.Validate(); err != nil {
		log.Print(err)
		return 1
	}

	pf, err := cosi.LoadParamFile(rc.ParamsPath)
	if err != nil {
		log.Print(err)
		return 1
	}

	mode := cosi.LeafsetTree
	if *countOnly {
		mode = cosi.LeafsetCountOnly
	}

	firstStart := time.Now()
	for i := 1; i <= rc.Simulations; i++ {
		log.Printf("starting instance %03d\n", i)
		start := time.Now()

		spec, err := cosi.BuildSimulationSpec(pf, mode)
		if err != nil {
			log.Print(err)
			return 1
		}
		if *timeCap > 0 {
			spec.TimeCap = cosi.Gens(*timeCap)
		}

		rng := cosi.NewRNG(rc.Seed, i)
		res, err := cosi.RunSimulation(spec, rng)
		if err != nil {
			log.Print(err)
			return 2
		}
		if res.Truncated {
			log.Printf("instance %03d: time cap reached before full coalescence", i)
		}

		instanceBase := fmt.Sprintf("%s.%03d", rc.OutputBase, i)
		if err := writeOutputs(rc, mode, instanceBase, i, res); err != nil {
			log.Print(err)
			return 2
		}

		log.Printf("finished instance %03d in %s\n", i, time.Since(start))
	}
	log.Printf("completed all runs in %s", time.Since(firstStart))
	return 0
}

func writeOutputs(rc *cosi.RunConfig, mode cosi.LeafsetMode, base string, instance int, res *cosi.SimulationResult) error {
	if mode == cosi.LeafsetTree {
		if rc.MatrixOutput {
			f, err := os.Create(base + ".matrix")
			if err != nil {
				return err
			}
			defer f.Close()
			if err := cosi.NewMatrixWriter(6).Write(f, res); err != nil {
				return err
			}
		} else {
			if err := cosi.NewNativeWriter(base).Write(res); err != nil {
				return err
			}
		}
	}

	if rc.TreeStats {
		for _, pop := range res.Sample.PopOrder {
			pi := cosi.MeanPairwiseDifferences(res, pop)
			s := cosi.SegregatingSites(res, pop)
			d := cosi.TajimasD(res, pop)
			log.Printf("instance %03d pop=%s pi=%.6f S=%d TajimasD=%.6f", instance, pop, pi, s, d)
		}
	}

	if rc.OutputARGEdges || rc.OutputMutGens || rc.OutputRecombLocs {
		dbPath := filepath.Clean(base + ".db")
		w := cosi.NewSQLiteWriter(dbPath, instance)
		if err := w.Init(); err != nil {
			return err
		}
		if rc.OutputARGEdges {
			if err := w.WriteEdges(res.ARG.Edges); err != nil {
				return err
			}
		}
		if rc.OutputMutGens || rc.OutputRecombLocs {
			if err := w.WriteMutations(res.Mutations); err != nil {
				return err
			}
		}
	}
	return nil
}

func flagSet(name string) bool {
	found := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}
