package cosi

import (
	"errors"
	"testing"
)

func TestSimError_Error_IncludesCause(t *testing.T) {
	err := NewSimError(ErrConfiguration, "parsing params", errors.New("boom"))
	if got := err.Error(); got != "parsing params: boom" {
		t.Errorf("Error() = %q, want %q", got, "parsing params: boom")
	}
}

func TestSimError_WithPopAndGeneration(t *testing.T) {
	err := NewSimError(ErrNumerical, "sampling", errors.New("no root")).WithPop("A").WithGeneration(42)
	if err.Pop != "A" || err.Generation != 42 {
		t.Errorf("got Pop=%v Generation=%v, want A/42", err.Pop, err.Generation)
	}
	if got := err.Error(); got != "sampling pop=A: no root" {
		t.Errorf("Error() = %q, want %q", got, "sampling pop=A: no root")
	}
}

func TestIsKind(t *testing.T) {
	err := NewSimError(ErrIO, "writing output", errors.New("disk full"))
	if !IsKind(err, ErrIO) {
		t.Error("expected IsKind(err, ErrIO) to be true")
	}
	if IsKind(err, ErrConfiguration) {
		t.Error("expected IsKind(err, ErrConfiguration) to be false")
	}
	if IsKind(errors.New("plain"), ErrIO) {
		t.Error("a plain error should never match a kind")
	}
}

func TestErrKind_String(t *testing.T) {
	cases := map[ErrKind]string{
		ErrConfiguration: "configuration",
		ErrNumerical:     "numerical",
		ErrIO:            "io",
		ErrInvariant:     "invariant",
	}
	for k, want := range cases {
		if got := k.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(k), got, want)
		}
	}
}

func TestSimError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := NewSimError(ErrInvariant, "op", cause)
	if err.Unwrap() == nil {
		t.Error("expected Unwrap to return the wrapped cause")
	}
}
