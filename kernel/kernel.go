package kernel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/jonwraymond/gokernel/engine"
	"github.com/jonwraymond/gokernel/inspect"
	"github.com/jonwraymond/gokernel/preamble"
	"github.com/jonwraymond/gokernel/preamble/introspect"
	"github.com/jonwraymond/gokernel/preamble/magic"
	"github.com/jonwraymond/gokernel/preamble/shell"
	"github.com/jonwraymond/gokernel/protocol"
	"github.com/jonwraymond/gokernel/split"
	"github.com/jonwraymond/gokernel/stream"
)

// Kernel identity reported in kernel info.
const (
	ProtocolVersion = "5.3"
	Implementation  = "gokernel"
	Version         = "0.3.0"
)

// Registry names of the built-in preambles, in dispatch order.
const (
	PreambleIntrospection = "introspection"
	PreambleMagics        = "magics"
	PreambleShell         = "shell"
)

// Kernel executes submissions against one engine.
type Kernel struct {
	cfg Config

	engine     engine.Engine
	publisher  protocol.Publisher
	registry   *preamble.Registry
	magics     *magic.Manager
	resolver   *introspect.Resolver
	redirector *stream.Redirector

	stdout io.Writer
	stderr io.Writer
	logger *zap.Logger

	closeOnce sync.Once
	closeErr  error
	closed    atomic.Bool
}

// New creates a Kernel with the introspection, magics and shell preambles
// registered and the %%file, %timeit and %lsmagic magics installed.
// Returns ErrConfiguration if a required field is missing.
func New(cfg Config) (*Kernel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	k := &Kernel{
		cfg:       cfg,
		engine:    cfg.Engine,
		publisher: cfg.Publisher,
		registry:  preamble.NewRegistry(),
		stdout:    cfg.Stdout,
		stderr:    cfg.Stderr,
		logger:    cfg.Logger,
	}

	if cfg.Redirect {
		r := stream.NewRedirector(
			func(text string) { k.publisher.PublishStream(protocol.StreamStdout, text) },
			func(text string) { k.publisher.PublishStream(protocol.StreamStderr, text) },
		)
		if err := r.Install(); err != nil {
			return nil, fmt.Errorf("install redirector: %w", err)
		}
		k.redirector = r
	}

	if err := k.registerPreambles(); err != nil {
		_ = k.Close()
		return nil, err
	}
	return k, nil
}

func (k *Kernel) registerPreambles() error {
	var inspector engine.Inspector
	if in, ok := k.engine.(engine.Inspector); ok {
		inspector = in
	}
	k.resolver = introspect.NewResolver(inspector, k.cfg.DocsURL)
	k.magics = magic.NewManager(magic.Options{
		Stdout: k.stdout,
		Stderr: k.stderr,
		Logger: k.logger.Named("magic"),
	})

	preambles := []struct {
		name string
		p    preamble.Preamble
	}{
		{PreambleIntrospection, introspect.New(k.resolver, k.stderr, k.logger.Named("introspect"))},
		{PreambleMagics, k.magics},
		{PreambleShell, shell.New(shell.Config{
			Shell:  k.cfg.Shell,
			Dir:    k.cfg.WorkDir,
			Stdout: k.stdout,
			Stderr: k.stderr,
			Logger: k.logger.Named("shell"),
		})},
	}
	for _, p := range preambles {
		if err := k.registry.Register(p.name, p.p); err != nil {
			return err
		}
	}

	magics := []struct {
		name string
		m    magic.Magic
	}{
		{"file", magic.File{Dir: k.cfg.WorkDir}},
		{"timeit", magic.Timeit{
			Engine:    k.engine,
			Repeat:    k.cfg.TimeitRepeat,
			Precision: k.cfg.TimeitPrecision,
		}},
		{"lsmagic", magic.LsMagic{Manager: k.magics}},
	}
	for _, m := range magics {
		if err := preamble.Extend(k.registry, PreambleMagics, m.name, m.m); err != nil {
			return fmt.Errorf("install %%%s: %w", m.name, err)
		}
	}
	return nil
}

// Execute runs code and returns its reply. It never returns an error: every
// failure is reported as an error reply, with diagnostics written to the
// kernel's stderr.
func (k *Kernel) Execute(ctx context.Context, counter int, code string) protocol.Reply {
	defer k.flush()

	if k.closed.Load() {
		return k.errorReply(counter, ENameClosed, ErrClosed.Error(), nil)
	}

	if name, reply, ok := k.registry.Dispatch(ctx, code); ok {
		k.logger.Debug("preamble applied", zap.String("preamble", name), zap.Int("counter", counter))
		return reply
	}

	fragments := split.Split(code)
	k.logger.Debug("executing submission",
		zap.Int("counter", counter),
		zap.Int("fragments", len(fragments)))

	var last engine.Outcome
	for i, fragment := range fragments {
		out, err := k.run(ctx, fragment)
		if err != nil {
			f := engine.AsFault(err)
			k.report(f)
			k.logger.Warn("fragment failed",
				zap.Stringer("kind", f.Kind),
				zap.Int("fragment", i),
				zap.Int("counter", counter),
				zap.Error(err))
			k.engine.CancelContinuation()
			return k.errorReply(counter, f.Kind.ErrorName(), f.Message, f.Trace)
		}
		if !out.OK() {
			ename, evalue := ENameExecution, "the interpreter reported an error"
			if out.Status == engine.Incomplete {
				ename, evalue = ENameIncomplete, "incomplete input"
			}
			fmt.Fprintln(k.stderr, evalue)
			k.logger.Warn("fragment did not succeed",
				zap.Stringer("status", out.Status),
				zap.Int("errorlevel", out.ErrorLevel),
				zap.Int("fragment", i),
				zap.Int("counter", counter))
			k.engine.CancelContinuation()
			return k.errorReply(counter, ename, evalue, nil)
		}
		last = out
	}

	if last.HasValue && !split.EndsWithTerminator(fragments[len(fragments)-1]) {
		// Output written before the value belongs before it.
		k.flush()
		k.publisher.PublishExecuteResult(counter, protocol.MIMEBundle{
			protocol.MIMEPlain: k.engine.FormatValue(last.Value),
		}, nil)
	}

	reply := protocol.OK()
	reply.ExecutionCount = counter
	return reply
}

// run executes one fragment, turning an engine panic into an Unknown fault.
func (k *Kernel) run(ctx context.Context, fragment string) (out engine.Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = engine.Outcome{Status: engine.Failure, ErrorLevel: 1}
			err = &engine.Fault{
				Kind:    engine.Unknown,
				Message: fmt.Sprint(r),
				Err:     fmt.Errorf("engine panic: %v", r),
			}
		}
	}()
	return k.engine.Run(ctx, fragment)
}

// report writes the diagnostic for f.
func (k *Kernel) report(f *engine.Fault) {
	switch f.Kind {
	case engine.Diagnosable:
		if !f.Diagnose(k.stderr) {
			fmt.Fprintf(k.stderr, "Caught an interpreter exception!\n%s\n", f.Message)
		}
	case engine.Runtime:
		fmt.Fprintf(k.stderr, "Caught a runtime panic!\n%s\n", f.Message)
	default:
		fmt.Fprint(k.stderr, "Exception occurred. Recovering...\n")
	}
}

func (k *Kernel) errorReply(counter int, ename, evalue string, traceback []string) protocol.Reply {
	reply := protocol.Error(ename, evalue, traceback)
	reply.ExecutionCount = counter
	return reply
}

func (k *Kernel) flush() {
	if k.redirector != nil {
		k.redirector.Flush()
	}
}

// Complete returns completion candidates for the token ending at cursor.
func (k *Kernel) Complete(code string, cursor int) protocol.CompleteReply {
	cursor = inspect.Clamp(cursor, len(code))
	token := inspect.TokenAt(code, cursor)

	matches := inspect.RewriteAll(k.completions(code, cursor))
	if matches == nil {
		matches = []string{}
	}
	return protocol.CompleteReply{
		Status:      protocol.StatusOK,
		Matches:     matches,
		CursorStart: cursor - len(token),
		CursorEnd:   cursor,
		Metadata:    map[string]any{},
	}
}

func (k *Kernel) completions(code string, cursor int) (candidates []string) {
	defer func() {
		if r := recover(); r != nil {
			k.logger.Warn("completion panicked", zap.Any("panic", r))
			candidates = nil
		}
	}()
	return k.engine.Complete(code, cursor)
}

// Inspect returns documentation for the expression ending at cursor.
func (k *Kernel) Inspect(ctx context.Context, code string, cursor int) protocol.InspectReply {
	reply := protocol.InspectReply{
		Status:   protocol.StatusOK,
		Data:     protocol.MIMEBundle{},
		Metadata: map[string]any{},
	}

	expr := strings.TrimSpace(inspect.CursorContext(code, cursor))
	if expr == "" {
		return reply
	}
	doc, err := k.resolver.Resolve(ctx, expr)
	if err != nil {
		if !errors.Is(err, engine.ErrNotFound) {
			k.logger.Debug("inspection failed", zap.String("expr", expr), zap.Error(err))
		}
		return reply
	}
	reply.Found = true
	reply.Data = doc.Bundle()
	return reply
}

// IsComplete reports whether code can run as is.
func (k *Kernel) IsComplete(code string) protocol.IsCompleteReply {
	status, depth := split.Check(code)
	reply := protocol.IsCompleteReply{Status: string(status)}
	if status == split.Incomplete {
		reply.Indent = strings.Repeat("\t", max(depth, 0))
	}
	return reply
}

// KernelInfo describes the kernel and the language it serves.
func (k *Kernel) KernelInfo() protocol.KernelInfo {
	return protocol.KernelInfo{
		ProtocolVersion:       ProtocolVersion,
		Implementation:        Implementation,
		ImplementationVersion: Version,
		LanguageInfo: protocol.LanguageInfo{
			Name:           "go",
			Version:        k.engine.Version(),
			MIMEType:       "text/x-go",
			CodeMirrorMode: "go",
			FileExtension:  ".go",
		},
		Banner: k.cfg.Banner,
	}
}

// Preambles returns the registry consulted before execution. Composing
// layers use it to register their own preambles or extend the built-ins.
func (k *Kernel) Preambles() *preamble.Registry {
	return k.registry
}

// Magics returns the magics preamble.
func (k *Kernel) Magics() *magic.Manager {
	return k.magics
}

// Redirector returns the installed redirector, or nil when the kernel does
// not redirect.
func (k *Kernel) Redirector() *stream.Redirector {
	return k.redirector
}

// Close releases the preambles and restores the standard streams. It is
// safe to call more than once. Execute on a closed kernel returns an
// error reply naming ErrClosed.
func (k *Kernel) Close() error {
	k.closeOnce.Do(func() {
		k.closed.Store(true)
		k.closeErr = k.registry.Close()
		if k.redirector != nil {
			k.redirector.Restore()
		}
	})
	return k.closeErr
}
