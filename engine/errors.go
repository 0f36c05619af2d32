package engine

import (
	"errors"
	"fmt"
	"io"
)

// Errors returned by engines.
var (
	// ErrExecution matches every Fault.
	ErrExecution = errors.New("execution fault")

	// ErrNotFound is returned by Inspector.Lookup when an expression names
	// nothing the engine knows about.
	ErrNotFound = errors.New("symbol not found")
)

// FaultKind classifies a Fault.
type FaultKind int

const (
	// Diagnosable faults carry interpreter diagnostics.
	Diagnosable FaultKind = iota

	// Runtime faults are panics raised by running code.
	Runtime

	// Unknown faults are anything else.
	Unknown
)

// String returns the kind name.
func (k FaultKind) String() string {
	switch k {
	case Diagnosable:
		return "diagnosable"
	case Runtime:
		return "runtime"
	default:
		return "unknown"
	}
}

// Fault describes why a fragment could not run.
type Fault struct {
	// Kind classifies the fault.
	Kind FaultKind

	// Message is a one-line description.
	Message string

	// Trace holds diagnostic or stack lines, outermost first.
	Trace []string

	// Err is the underlying error, if any.
	Err error

	// Diagnostics are the positioned messages written by Diagnose.
	Diagnostics []string
}

// NewFault returns a Fault of the given kind wrapping err.
func NewFault(kind FaultKind, err error) *Fault {
	f := &Fault{Kind: kind, Err: err}
	if err != nil {
		f.Message = err.Error()
	}
	return f
}

// Error returns the fault message.
func (f *Fault) Error() string {
	if f.Message == "" {
		return fmt.Sprintf("%s fault", f.Kind)
	}
	return f.Message
}

// Unwrap returns the underlying error for use with errors.Is and errors.As.
func (f *Fault) Unwrap() error {
	return f.Err
}

// Is reports whether this fault matches the target.
// Fault matches ErrExecution to allow sentinel-style checking.
func (f *Fault) Is(target error) bool {
	return target == ErrExecution
}

// Diagnose writes the fault's diagnostics to w, one per line. It reports
// false when the fault has none to write.
func (f *Fault) Diagnose(w io.Writer) bool {
	if len(f.Diagnostics) == 0 {
		return false
	}
	for _, d := range f.Diagnostics {
		if _, err := fmt.Fprintln(w, d); err != nil {
			return false
		}
	}
	return true
}

// AsFault returns err as a *Fault, wrapping foreign errors as Unknown.
func AsFault(err error) *Fault {
	if err == nil {
		return nil
	}
	var f *Fault
	if errors.As(err, &f) {
		return f
	}
	return NewFault(Unknown, err)
}

// ErrorName returns the name error replies use for faults of this kind.
func (k FaultKind) ErrorName() string {
	switch k {
	case Diagnosable:
		return "CompileError"
	case Runtime:
		return "RuntimeError"
	default:
		return "UnknownError"
	}
}
