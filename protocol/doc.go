// Package protocol defines the reply and publish types exchanged between the
// kernel core and the session layer that owns the notebook transport.
//
// The types mirror the content of the Jupyter messaging protocol closely
// enough that a session can serialize them directly, but the package knows
// nothing about framing, signing or sockets.
//
// # Replies
//
// Every request handled by the kernel produces exactly one reply value:
//
//   - [Reply] for execute requests, built with [OK] or [Error]
//   - [CompleteReply] for completion requests
//   - [InspectReply] for inspection requests
//   - [IsCompleteReply] for input completeness checks
//   - [KernelInfo] for kernel_info requests
//
// # Publishing
//
// Side-channel output (captured streams, execution results, rich display
// data) flows through a [Publisher]. [Recorder] is a concurrency-safe
// Publisher that keeps every [Message] it receives; sessions that answer
// synchronously (and tests) drain it after each request.
package protocol
