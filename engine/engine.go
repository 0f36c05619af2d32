package engine

import "context"

// Engine is the incremental interpreter behind a kernel.
//
// Contract:
// - Concurrency: callers serialize Run, CancelContinuation and Complete; an
// Engine need not be safe for concurrent use.
// - Context: Run should honor cancellation and report it as an Unknown fault.
// - Errors: Run returns a *Fault for every failure; a nil error with a
// non-success Outcome is also a failure.
// - Ownership: the Engine owns its accumulated compilation context.
type Engine interface {
	// Run compiles and runs one fragment.
	Run(ctx context.Context, fragment string) (Outcome, error)

	// CancelContinuation discards any partially accumulated input.
	CancelContinuation()

	// Complete returns raw, decorated completion candidates for the token
	// ending at cursor.
	Complete(code string, cursor int) []string

	// FormatValue renders a value produced by Run as text.
	FormatValue(v any) string

	// Version reports the language version the engine implements.
	Version() string
}

// Inspector is implemented by engines that can resolve an expression to the
// symbol it names.
type Inspector interface {
	// Lookup resolves an identifier or selector chain.
	Lookup(ctx context.Context, expr string) (Symbol, error)
}

// Symbol identifies what an expression refers to.
type Symbol struct {
	// Package is the import path declaring the symbol. Empty for
	// predeclared identifiers.
	Package string

	// Name is the symbol name within Package, or the type name when the
	// expression resolved through its value.
	Name string

	// Type is the type of the expression's value, when it has one.
	Type string
}

// Status is the interpreter's verdict on a fragment.
type Status int

const (
	// Success means the fragment compiled and ran.
	Success Status = iota

	// Failure means the fragment was rejected or failed.
	Failure

	// Incomplete means the fragment needs more input. Top-level execution
	// treats it as a failure.
	Incomplete
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case Success:
		return "success"
	case Failure:
		return "failure"
	case Incomplete:
		return "incomplete"
	default:
		return "unknown"
	}
}

// Outcome is the result of running one fragment.
type Outcome struct {
	// Status is the compilation verdict.
	Status Status

	// ErrorLevel is non-zero when the interpreter reported an error.
	ErrorLevel int

	// Value is the value of the fragment's trailing expression. Meaningful
	// only when HasValue is true.
	Value any

	// HasValue reports whether the fragment produced a value.
	HasValue bool
}

// OK reports whether the outcome is a clean success.
func (o Outcome) OK() bool {
	return o.Status == Success && o.ErrorLevel == 0
}
