// Package kernel is the execution core of the Go notebook kernel.
//
// A [Kernel] ties together the preamble registry, the block splitter, the
// interpreter engine and the output redirector. Sessions (a console, an MCP
// server, a Jupyter transport) own a Kernel and forward requests to it:
//
//   - [Kernel.Execute] runs a submission and returns its reply
//   - [Kernel.Complete] answers completion requests
//   - [Kernel.Inspect] answers documentation requests
//   - [Kernel.IsComplete] reports whether input needs more lines
//   - [Kernel.KernelInfo] describes the kernel and its language
//
// # Execution
//
// Execute first offers the code to the registered preambles in order:
// introspection ("?expr"), magics ("%name"), shell ("!cmd"). When none
// claims it, the code is split so that every import declaration runs as its
// own fragment, and fragments run one at a time. The first failure aborts the
// submission, discards any pending continuation in the engine and produces an
// error reply. When the last fragment yields a value and does not end with
// ";", the value is published as an execute_result.
//
// # Concurrency
//
// A Kernel performs no locking of its own. Sessions must serialize calls.
package kernel
