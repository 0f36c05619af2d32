package magic

import (
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/jonwraymond/gokernel/engine"
	"github.com/jonwraymond/gokernel/protocol"
)

// Timeit defaults.
const (
	DefaultRepeat    = 7
	DefaultPrecision = 3

	// autoTarget is the total time a single run must reach when the loop
	// count is chosen automatically.
	autoTarget = 200 * time.Millisecond
	maxLoops   = 1_000_000_000
)

// Timeit is the %timeit line magic and %%timeit cell magic. It measures a
// statement by running it in a loop through the engine.
type Timeit struct {
	// Engine runs the timed loops.
	Engine engine.Engine

	// Repeat and Precision are used when not given as flags.
	Repeat    int
	Precision int

	// Now is the clock. Defaults to time.Now.
	Now func() time.Time
}

// Kinds implements Magic.
func (Timeit) Kinds() Kind { return Line | Cell }

// Doc implements Magic.
func (Timeit) Doc() Doc {
	return Doc{
		Summary: "Time execution of a Go statement or expression",
		Usage: "%timeit [-n N] [-r R] [-p P] <statement>\n" +
			"%%timeit [-n N] [-r R] [-p P] [setup]\n<statement>\n\n" +
			"-n runs the statement N times per run; when omitted N is the first power\n" +
			"of ten reaching 0.2s. -r sets the number of runs (default 7). -p sets the\n" +
			"significant digits of the report (default 3).",
	}
}

// Run implements Magic.
func (t Timeit) Run(ctx context.Context, inv Invocation) protocol.Reply {
	if t.Engine == nil {
		return protocol.Error("UsageError", "timeit: no engine", nil)
	}
	repeat, precision := t.Repeat, t.Precision
	if repeat <= 0 {
		repeat = DefaultRepeat
	}
	if precision <= 0 {
		precision = DefaultPrecision
	}

	set := pflag.NewFlagSet("timeit", pflag.ContinueOnError)
	loops := set.IntP("number", "n", 0, "loops per run")
	set.IntVarP(&repeat, "repeat", "r", repeat, "number of runs")
	set.IntVarP(&precision, "precision", "p", precision, "significant digits")
	rest, err := inv.Parse(set)
	if err != nil {
		return UsageError(inv.Stderr, "timeit: %v", err)
	}
	if *loops < 0 || repeat <= 0 || precision <= 0 {
		return UsageError(inv.Stderr, "timeit: -n, -r and -p must be positive")
	}

	stmt, setup := rest, ""
	if inv.Kind == Cell {
		stmt, setup = inv.Body, rest
	}
	if strings.TrimSpace(stmt) == "" {
		return UsageError(inv.Stderr, "timeit: missing statement")
	}

	if setup != "" {
		if reply, ok := t.run(ctx, inv, setup); !ok {
			return reply
		}
	}

	n := *loops
	body := loopBody(stmt)
	if n == 0 {
		for n = 1; ; n *= 10 {
			d, reply, ok := t.measure(ctx, inv, body, n)
			if !ok {
				return reply
			}
			if d >= autoTarget || n >= maxLoops {
				break
			}
		}
	}

	perLoop := make([]float64, 0, repeat)
	for range repeat {
		d, reply, ok := t.measure(ctx, inv, body, n)
		if !ok {
			return reply
		}
		perLoop = append(perLoop, d.Seconds()/float64(n))
	}

	mean, std := meanStd(perLoop)
	fmt.Fprintf(inv.Stdout, "%s ± %s per loop (mean ± std. dev. of %d %s, %d %s each)\n",
		formatSeconds(mean, precision), formatSeconds(std, precision),
		repeat, plural(repeat, "run"), n, plural(n, "loop"))
	return protocol.OK()
}

// measure runs body n times in a single engine call.
func (t Timeit) measure(ctx context.Context, inv Invocation, body string, n int) (time.Duration, protocol.Reply, bool) {
	now := t.Now
	if now == nil {
		now = time.Now
	}
	src := fmt.Sprintf("for timeitLoop := 0; timeitLoop < %d; timeitLoop++ {\n%s\n}", n, body)
	start := now()
	reply, ok := t.run(ctx, inv, src)
	return now().Sub(start), reply, ok
}

func (t Timeit) run(ctx context.Context, inv Invocation, src string) (protocol.Reply, bool) {
	out, err := t.Engine.Run(ctx, src)
	if err == nil && out.OK() {
		return protocol.Reply{}, true
	}
	t.Engine.CancelContinuation()
	if f := engine.AsFault(err); f != nil {
		if !f.Diagnose(inv.Stderr) {
			fmt.Fprintln(inv.Stderr, f.Message)
		}
		return protocol.Error(f.Kind.ErrorName(), f.Message, f.Trace), false
	}
	msg := fmt.Sprintf("timeit: statement did not compile (%s)", out.Status)
	fmt.Fprintln(inv.Stderr, msg)
	return protocol.Error("ExecutionError", msg, nil), false
}

// loopBody discards the value of a bare expression so it is legal as a loop
// body statement.
func loopBody(stmt string) string {
	expr, err := parser.ParseExpr(strings.TrimSpace(stmt))
	if err != nil {
		return stmt
	}
	if _, isCall := ast.Unparen(expr).(*ast.CallExpr); isCall {
		return stmt
	}
	if u, ok := expr.(*ast.UnaryExpr); ok && u.Op == token.ARROW {
		return stmt
	}
	return "_ = " + strings.TrimSpace(stmt)
}

func meanStd(xs []float64) (float64, float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))
	var sq float64
	for _, x := range xs {
		sq += (x - mean) * (x - mean)
	}
	return mean, math.Sqrt(sq / float64(len(xs)))
}

// formatSeconds renders s with the largest unit keeping the value at or
// above one.
func formatSeconds(s float64, precision int) string {
	units := []string{"s", "ms", "µs", "ns"}
	scale := 1.0
	i := 0
	if s > 0 {
		for i < len(units)-1 && s*scale < 1 {
			scale *= 1e3
			i++
		}
	} else {
		i = len(units) - 1
		scale = 1e9
	}
	return strconv.FormatFloat(s*scale, 'g', precision, 64) + " " + units[i]
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
