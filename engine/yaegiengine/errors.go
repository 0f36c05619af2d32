package yaegiengine

import (
	"context"
	"errors"
	"fmt"
	"go/scanner"
	"strings"

	"github.com/traefik/yaegi/interp"

	"github.com/jonwraymond/gokernel/engine"
)

// incompleteInput reports whether err is a parse error caused only by input
// ending too early.
func incompleteInput(err error) bool {
	var list scanner.ErrorList
	if !errors.As(err, &list) || len(list) == 0 {
		return false
	}
	msg := list[0].Msg
	return strings.HasSuffix(msg, "found 'EOF'") ||
		msg == "raw string literal not terminated" ||
		msg == "comment not terminated"
}

// classify maps an interpreter error to a tagged fault.
func classify(ctx context.Context, err error) *engine.Fault {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
		return engine.NewFault(engine.Unknown, err)
	}

	var p interp.Panic
	if errors.As(err, &p) {
		f := engine.NewFault(engine.Runtime, err)
		f.Message = fmt.Sprintf("panic: %v", p.Value)
		// The recovered stack holds interpreter frames only.
		f.Trace = []string{f.Message}
		return f
	}

	var list scanner.ErrorList
	if errors.As(err, &list) && len(list) > 0 {
		f := engine.NewFault(engine.Diagnosable, err)
		f.Message = list[0].Error()
		for _, e := range list {
			f.Diagnostics = append(f.Diagnostics, e.Error())
		}
		f.Trace = f.Diagnostics
		return f
	}

	// Anything else is a type checking or compilation error, already
	// prefixed with its source position.
	f := engine.NewFault(engine.Diagnosable, err)
	f.Diagnostics = splitLines(err.Error())
	if len(f.Diagnostics) > 0 {
		f.Message = f.Diagnostics[0]
	}
	f.Trace = f.Diagnostics
	return f
}

func splitLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimRight(line, " \t\r"); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
