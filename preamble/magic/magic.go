package magic

import (
	"context"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/spf13/pflag"

	"github.com/jonwraymond/gokernel/protocol"
)

// Kind is the set of invocation forms a magic supports.
type Kind int

const (
	// Line magics are invoked as %name and take their arguments from the
	// first line.
	Line Kind = 1 << iota

	// Cell magics are invoked as %%name and receive the rest of the
	// submission as a body.
	Cell
)

// Has reports whether k includes other.
func (k Kind) Has(other Kind) bool {
	return k&other != 0
}

// Prefix returns the marker that invokes a magic of this kind.
func (k Kind) Prefix() string {
	if k == Cell {
		return "%%"
	}
	return "%"
}

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Line:
		return "line"
	case Cell:
		return "cell"
	case Line | Cell:
		return "line, cell"
	default:
		return "none"
	}
}

// Doc documents a magic.
type Doc struct {
	// Summary is a one-line description.
	Summary string

	// Usage describes arguments and flags.
	Usage string
}

// Magic is a named command hosted by a Manager.
//
// Contract:
// - Kinds must be constant for the lifetime of the magic.
// - Run is only called with an invocation of a supported kind.
// - Run reports failures as error replies and never panics on bad input.
type Magic interface {
	// Kinds returns the invocation forms the magic supports.
	Kinds() Kind

	// Doc returns the magic's documentation.
	Doc() Doc

	// Run executes the magic.
	Run(ctx context.Context, inv Invocation) protocol.Reply
}

// Invocation is one parsed magic call.
type Invocation struct {
	// Name is the magic name without its prefix.
	Name string

	// Kind is Line or Cell.
	Kind Kind

	// Line is the raw argument text following the name.
	Line string

	// Body is the cell body. Empty for line magics.
	Body string

	// Stdout and Stderr receive the magic's output.
	Stdout io.Writer
	Stderr io.Writer
}

// Args splits Line into whitespace separated fields.
func (inv Invocation) Args() []string {
	return strings.Fields(inv.Line)
}

// Parse parses the invocation's arguments with fs. Parsing stops at the first
// positional argument. It returns the raw text of the positional arguments,
// preserving their original spacing.
func (inv Invocation) Parse(fs *pflag.FlagSet) (string, error) {
	fs.SetOutput(io.Discard)
	fs.SetInterspersed(false)
	args := inv.Args()
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	return tail(inv.Line, fs.NArg()), nil
}

// tail returns the suffix of s starting at its n-th field from the end.
func tail(s string, n int) string {
	if n <= 0 {
		return ""
	}
	end := len(s)
	for i := len(s); i > 0; {
		// Skip trailing space, then one field.
		for i > 0 && unicode.IsSpace(rune(s[i-1])) {
			i--
		}
		for i > 0 && !unicode.IsSpace(rune(s[i-1])) {
			i--
		}
		n--
		if n == 0 {
			return strings.TrimSpace(s[i:end])
		}
	}
	return strings.TrimSpace(s)
}

// Func adapts a function to the Magic interface.
type Func struct {
	Supported   Kind
	Description Doc
	Fn          func(ctx context.Context, inv Invocation) protocol.Reply
}

// Kinds implements Magic.
func (f Func) Kinds() Kind { return f.Supported }

// Doc implements Magic.
func (f Func) Doc() Doc { return f.Description }

// Run implements Magic.
func (f Func) Run(ctx context.Context, inv Invocation) protocol.Reply {
	if f.Fn == nil {
		return protocol.OK()
	}
	return f.Fn(ctx, inv)
}

// UsageError reports a usage problem on w and returns the matching reply.
func UsageError(w io.Writer, format string, args ...any) protocol.Reply {
	msg := fmt.Sprintf(format, args...)
	if w != nil {
		fmt.Fprintf(w, "UsageError: %s\n", msg)
	}
	return protocol.Error("UsageError", msg, nil)
}
