// Package engine defines the contract between the kernel and the incremental
// interpreter that actually compiles and runs source fragments.
//
// The kernel treats the interpreter as an opaque service: it hands over one
// fragment at a time through [Engine.Run] and receives an [Outcome] or a
// [Fault]. Everything the interpreter accumulates between fragments (declared
// variables, imported packages) is owned by the Engine.
//
// # Faults
//
// Run reports failures as a [*Fault] tagged with one of three kinds:
//
//   - [Diagnosable]: the interpreter rejected the fragment and can describe
//     why, positioned in the source, through [Fault.Diagnose]
//   - [Runtime]: the fragment compiled but panicked while running
//   - [Unknown]: anything else, including cancellation
//
// Every Fault matches [ErrExecution] with errors.Is.
package engine
