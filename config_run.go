package cosi

import (
	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// RunConfig is the batch-level configuration: how many simulations to run,
// under what seed, with which output toggles. Decoded from TOML exactly as
// the teacher decodes EvoEpiConfig (evoepi_config.go), generalized to the
// ARG simulator's CLI surface (spec.md §6).
type RunConfig struct {
	ParamsPath    string `toml:"params_path"`
	OutputBase    string `toml:"output_base"`
	Simulations   int    `toml:"simulations"`
	Seed          int64  `toml:"seed"`
	MatrixOutput  bool   `toml:"matrix_output"`
	OutputMutGens bool   `toml:"output_mut_gens"`
	OutputRecombLocs bool `toml:"output_recomb_locs"`
	TreeStats     bool   `toml:"tree_stats"`
	OutputARGEdges bool  `toml:"output_arg_edges"`

	validated bool
}

// DefaultRunConfig returns a RunConfig with the spec's documented defaults
// (spec.md §6): one simulation, native output format.
func DefaultRunConfig() *RunConfig {
	return &RunConfig{Simulations: 1}
}

// LoadRunConfig decodes a TOML batch-configuration file.
func LoadRunConfig(path string) (*RunConfig, error) {
	rc := DefaultRunConfig()
	if _, err := toml.DecodeFile(path, rc); err != nil {
		return nil, NewSimError(ErrConfiguration, "decoding run configuration", err)
	}
	return rc, nil
}

// Validate checks the batch configuration is internally consistent.
func (rc *RunConfig) Validate() error {
	if rc.ParamsPath == "" {
		return NewSimError(ErrConfiguration, "validating run configuration", errors.New("params_path is required"))
	}
	if rc.Simulations <= 0 {
		return NewSimError(ErrConfiguration, "validating run configuration", errors.New("simulations must be >= 1"))
	}
	rc.validated = true
	return nil
}
