package cosi

import "testing"

func basicParamFile() *ParamFile {
	return &ParamFile{
		LengthBP: 1e6,
		Pops: []ParamPop{
			{ID: 1, Label: "pop1", Size: 1000, SampleSize: 4},
			{ID: 2, Size: 500, SampleSize: 2},
		},
	}
}

func TestPopIDFor_UsesLabelWhenPresent(t *testing.T) {
	if got := popIDFor(ParamPop{ID: 3, Label: "custom"}); got != "custom" {
		t.Errorf("popIDFor() = %q, want %q", got, "custom")
	}
}

func TestPopIDFor_FallsBackToGeneratedID(t *testing.T) {
	if got := popIDFor(ParamPop{ID: 3}); got != "pop3" {
		t.Errorf("popIDFor() = %q, want %q", got, "pop3")
	}
}

func TestBuildSimulationSpec_BuildsModelAndSample(t *testing.T) {
	pf := basicParamFile()
	spec, err := BuildSimulationSpec(pf, LeafsetTree)
	if err != nil {
		t.Fatal(err)
	}
	if spec.Model.Pops["pop1"] == nil || spec.Model.Pops["pop2"] == nil {
		t.Fatal("expected both populations to be present in the demographic model")
	}
	if spec.Sample.Sizes["pop1"] != 4 || spec.Sample.Sizes["pop2"] != 2 {
		t.Errorf("unexpected sample sizes: %+v", spec.Sample.Sizes)
	}
	if spec.GeneticMap == nil {
		t.Error("expected a uniform genetic map to be derived when RecombFile is unset")
	}
}

func TestBuildSimulationSpec_RejectsInvalidParamFile(t *testing.T) {
	pf := &ParamFile{LengthBP: 0}
	if _, err := BuildSimulationSpec(pf, LeafsetTree); err == nil {
		t.Error("expected validation error for a zero-length region")
	}
}

func TestBuildHistoricalEvents_ChangeSize(t *testing.T) {
	pf := basicParamFile()
	pf.Events = []ParamEvent{{Kind: "change_size", Args: []string{"1", "50", "2000"}}}
	idByUserID := map[int]PopID{1: "pop1", 2: "pop2"}
	popSizes := map[PopID]int{"pop1": 1000, "pop2": 500}

	evs, err := buildHistoricalEvents(pf, idByUserID, popSizes)
	if err != nil {
		t.Fatal(err)
	}
	if len(evs) != 1 || evs[0].Kind != HistChangeSize || evs[0].NewSize != 2000 {
		t.Fatalf("unexpected events: %+v", evs)
	}
}

func TestBuildHistoricalEvents_BottleneckSchedulesRevert(t *testing.T) {
	pf := basicParamFile()
	pf.Events = []ParamEvent{{Kind: "bottleneck", Args: []string{"1", "50", "10", "5"}}}
	idByUserID := map[int]PopID{1: "pop1", 2: "pop2"}
	popSizes := map[PopID]int{"pop1": 1000, "pop2": 500}

	evs, err := buildHistoricalEvents(pf, idByUserID, popSizes)
	if err != nil {
		t.Fatal(err)
	}
	if len(evs) != 2 {
		t.Fatalf("expected a bottleneck event plus a revert event, got %d", len(evs))
	}
	if evs[0].Kind != HistBottleneck || evs[0].NewSize != 10 || evs[0].Generation != 50 {
		t.Errorf("unexpected bottleneck event: %+v", evs[0])
	}
	if evs[1].Kind != HistChangeSize || evs[1].NewSize != 1000 || evs[1].Generation != 55 {
		t.Errorf("unexpected revert event: %+v", evs[1])
	}
}

func TestBuildHistoricalEvents_SweepUsesConfiguredPopSize(t *testing.T) {
	pf := basicParamFile()
	pf.Events = []ParamEvent{{Kind: "sweep", Args: []string{"1", "10", "100", "0.05", "0.9"}}}
	idByUserID := map[int]PopID{1: "pop1", 2: "pop2"}
	popSizes := map[PopID]int{"pop1": 1000, "pop2": 500}

	evs, err := buildHistoricalEvents(pf, idByUserID, popSizes)
	if err != nil {
		t.Fatal(err)
	}
	if len(evs) != 1 || evs[0].Kind != HistSweep || evs[0].SweepPop != "pop1" {
		t.Fatalf("unexpected sweep events: %+v", evs)
	}
	lt, ok := evs[0].SweepTraj.(*logisticTrajectory)
	if !ok {
		t.Fatalf("expected a logistic trajectory, got %T", evs[0].SweepTraj)
	}
	want := Freq(1.0 / 2000.0)
	if got := lt.OriginThreshold(); got != want {
		t.Errorf("OriginThreshold() = %v, want %v (derived from pop size 1000)", got, want)
	}
}

func TestBuildHistoricalEvents_UnknownEventKind(t *testing.T) {
	pf := basicParamFile()
	pf.Events = []ParamEvent{{Kind: "nonsense", Args: nil}}
	idByUserID := map[int]PopID{1: "pop1", 2: "pop2"}
	if _, err := buildHistoricalEvents(pf, idByUserID, nil); err == nil {
		t.Error("expected error for an unrecognized pop_event kind")
	}
}

func TestBuildHistoricalEvents_MigrationRateReferencesUndefinedPop(t *testing.T) {
	pf := basicParamFile()
	pf.Events = []ParamEvent{{Kind: "migration_rate", Args: []string{"1", "99", "10", "0.01"}}}
	idByUserID := map[int]PopID{1: "pop1", 2: "pop2"}
	if _, err := buildHistoricalEvents(pf, idByUserID, nil); err == nil {
		t.Error("expected error referencing an undefined population")
	}
}
