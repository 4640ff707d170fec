package cosi

import (
	"strings"
	"testing"
)

const samplePF = `
length 1000000
mutation_rate 1e-8
pop_define 1 ancestral
pop_size 1 1000
sample_size 1 10
pop_event change_size 1 500 2000
`

func TestParseParamFile(t *testing.T) {
	pf, err := parseParamFile(strings.NewReader(samplePF))
	if err != nil {
		t.Fatal(err)
	}
	if pf.LengthBP != 1000000 {
		t.Errorf("LengthBP = %v, want 1000000", pf.LengthBP)
	}
	if len(pf.Pops) != 1 {
		t.Fatalf("len(Pops) = %d, want 1", len(pf.Pops))
	}
	p := pf.Pops[0]
	if p.Label != "ancestral" || p.Size != 1000 || p.SampleSize != 10 {
		t.Errorf("unexpected pop: %+v", p)
	}
	if len(pf.Events) != 1 || pf.Events[0].Kind != "change_size" {
		t.Errorf("unexpected events: %+v", pf.Events)
	}
}

func TestParseParamFile_RejectsUnknownDirective(t *testing.T) {
	if _, err := parseParamFile(strings.NewReader("bogus_directive 1\n")); err == nil {
		t.Error("expected error for unrecognized directive")
	}
}

func TestParseParamFile_RejectsEmpty(t *testing.T) {
	if _, err := parseParamFile(strings.NewReader("# nothing here\n")); err == nil {
		t.Error("expected error for an empty parameter file")
	}
}

func TestParamFile_Validate(t *testing.T) {
	pf, err := parseParamFile(strings.NewReader(samplePF))
	if err != nil {
		t.Fatal(err)
	}
	if err := pf.Validate(); err != nil {
		t.Errorf("expected valid config, got error: %v", err)
	}

	empty := &ParamFile{LengthBP: 1000}
	if err := empty.Validate(); err == nil {
		t.Error("expected error for an empty sample")
	}

	zeroLen := &ParamFile{Pops: []ParamPop{{SampleSize: 1}}}
	if err := zeroLen.Validate(); err == nil {
		t.Error("expected error for zero region length")
	}
}
