package kernel

import "errors"

// Sentinel errors for error classification.
var (
	// ErrConfiguration indicates an invalid or incomplete configuration.
	ErrConfiguration = errors.New("configuration error")

	// ErrClosed is reported by Execute once the kernel is closed.
	ErrClosed = errors.New("kernel closed")
)

// Error names used in execute replies that do not come from an engine fault.
const (
	ENameIncomplete = "IncompleteInput"
	ENameExecution  = "ExecutionError"
	ENameClosed     = "KernelClosed"
)
