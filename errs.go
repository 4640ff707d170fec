package cosi

import "github.com/pkg/errors"

// ErrKind classifies a failure the way spec.md §7 divides error handling:
// configuration errors abort before any simulation starts, numerical and
// invariant errors abort the current simulation (numerical lets the batch
// continue; invariant is a bug and is fatal), I/O errors are fatal for the
// whole batch. Grounded on the teacher's errors.go constant catalogue,
// generalized from string constants to a typed kind since this port's
// error kinds gate different batch-continuation behavior rather than
// merely describing messages.
type ErrKind int

const (
	ErrConfiguration ErrKind = iota
	ErrNumerical
	ErrIO
	ErrInvariant
)

func (k ErrKind) String() string {
	switch k {
	case ErrConfiguration:
		return "configuration"
	case ErrNumerical:
		return "numerical"
	case ErrIO:
		return "io"
	case ErrInvariant:
		return "invariant"
	default:
		return "unknown"
	}
}

// SimError is a diagnostic carrying a context stack (operation, population,
// generation) assembled by handlers as the error propagates, per spec.md
// §7's propagation policy. It has no separate event-kind field; the event
// is named only as far as Op names it.
type SimError struct {
	Kind       ErrKind
	Op         string
	Pop        PopID
	Generation Gens
	cause      error
}

func (e *SimError) Error() string {
	msg := e.Op
	if e.Pop != "" {
		msg += " pop=" + string(e.Pop)
	}
	if e.cause != nil {
		return msg + ": " + e.cause.Error()
	}
	return msg
}

func (e *SimError) Unwrap() error { return e.cause }

// NewSimError builds a SimError wrapping cause with operation context.
func NewSimError(kind ErrKind, op string, cause error) *SimError {
	return &SimError{Kind: kind, Op: op, cause: errors.WithStack(cause)}
}

// WithPop attaches population context and returns the same error (for
// chaining at the call site).
func (e *SimError) WithPop(pop PopID) *SimError {
	e.Pop = pop
	return e
}

// WithGeneration attaches the generation at which the failure occurred.
func (e *SimError) WithGeneration(g Gens) *SimError {
	e.Generation = g
	return e
}

// IsKind reports whether err is a *SimError of the given kind.
func IsKind(err error, kind ErrKind) bool {
	se, ok := err.(*SimError)
	return ok && se.Kind == kind
}
