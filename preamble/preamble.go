package preamble

import (
	"context"
	"errors"

	"github.com/jonwraymond/gokernel/protocol"
)

// Common errors for preamble operations.
var (
	ErrNotFound      = errors.New("preamble not found")
	ErrNotExtensible = errors.New("preamble is not extensible")
	ErrInvalid       = errors.New("invalid preamble")
)

// Preamble is a pre-execution hook that may claim a submission.
//
// Contract:
// - Match must be pure: no side effects, deterministic for a given input.
// - Apply is only called after Match returned true for the same code, and
// produces the final reply for the submission.
// - Apply never returns an error; failures are error replies.
type Preamble interface {
	// Match reports whether this preamble handles code.
	Match(code string) bool

	// Apply handles code and returns the reply.
	Apply(ctx context.Context, code string) protocol.Reply
}

// Extensible is implemented by preambles that accept named sub-commands of
// type T.
//
// Contract:
// - Extend with an existing name replaces the previous sub-command.
// - Extend rejects an empty name or a nil extension.
type Extensible[T any] interface {
	Preamble

	// Extend registers ext under name.
	Extend(name string, ext T) error
}
