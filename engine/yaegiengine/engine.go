// Package yaegiengine implements engine.Engine on top of the yaegi Go
// interpreter.
//
// One Engine owns one interpreter. Declarations and imports accumulate across
// Run calls, so a fragment may use anything an earlier fragment declared.
package yaegiengine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sort"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
	"github.com/traefik/yaegi/stdlib/unrestricted"
	"go.uber.org/zap"

	"github.com/jonwraymond/gokernel/engine"
	"github.com/jonwraymond/gokernel/stream"
)

// Config configures an Engine.
type Config struct {
	// GoPath is the GOPATH the interpreter resolves source packages from.
	GoPath string

	// BuildTags are applied when the interpreter loads source packages.
	BuildTags []string

	// Unrestricted exposes os/exec and the unrestricted syscall surface to
	// interpreted code.
	Unrestricted bool

	// AllowedPackages, when non-empty, is the only set of import paths
	// interpreted code may import.
	AllowedPackages []string

	// Stdout and Stderr receive output written by interpreted code.
	// Defaults to stream.Stdout and stream.Stderr.
	Stdout io.Writer
	Stderr io.Writer

	// Logger is optional. Defaults to a no-op logger.
	Logger *zap.Logger
}

// Engine implements engine.Engine and engine.Inspector using yaegi.
type Engine struct {
	interp  *interp.Interpreter
	allowed map[string]bool
	logger  *zap.Logger

	// pending holds input accumulated while waiting for a fragment to
	// become complete.
	pending string

	// imports maps the names bound by import declarations to their paths.
	imports map[string]string

	// declared lists identifiers declared by successful fragments.
	declared map[string]bool
}

var (
	_ engine.Engine    = (*Engine)(nil)
	_ engine.Inspector = (*Engine)(nil)
)

// New creates an Engine with a fresh interpreter.
func New(cfg Config) (*Engine, error) {
	if cfg.Stdout == nil {
		cfg.Stdout = stream.Stdout
	}
	if cfg.Stderr == nil {
		cfg.Stderr = stream.Stderr
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	i := interp.New(interp.Options{
		GoPath:       cfg.GoPath,
		BuildTags:    cfg.BuildTags,
		Stdout:       cfg.Stdout,
		Stderr:       cfg.Stderr,
		Unrestricted: cfg.Unrestricted,
	})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("load stdlib symbols: %w", err)
	}
	if cfg.Unrestricted {
		if err := i.Use(unrestricted.Symbols); err != nil {
			return nil, fmt.Errorf("load unrestricted symbols: %w", err)
		}
	}

	var allowed map[string]bool
	if len(cfg.AllowedPackages) > 0 {
		allowed = make(map[string]bool, len(cfg.AllowedPackages))
		for _, p := range cfg.AllowedPackages {
			allowed[p] = true
		}
	}

	return &Engine{
		interp:   i,
		allowed:  allowed,
		logger:   cfg.Logger,
		imports:  make(map[string]string),
		declared: make(map[string]bool),
	}, nil
}

// Run compiles and runs fragment, prefixed by any pending continuation.
// Top-level function and type declarations mixed with statements are
// evaluated as separate units, in order; the outcome is that of the last.
func (e *Engine) Run(ctx context.Context, fragment string) (engine.Outcome, error) {
	src := fragment
	if e.pending != "" {
		src = e.pending + fragment
	}

	units := declUnits(src)
	if len(units) > 1 {
		e.logger.Debug("evaluating declarations separately", zap.Int("units", len(units)))
	}
	var (
		out engine.Outcome
		err error
	)
	for _, unit := range units {
		out, err = e.run(ctx, unit)
		if err != nil || !out.OK() {
			break
		}
	}
	return out, err
}

func (e *Engine) run(ctx context.Context, src string) (engine.Outcome, error) {
	imports, err := parseImports(src)
	if err == nil {
		if err := e.checkImports(imports); err != nil {
			return engine.Outcome{Status: engine.Failure, ErrorLevel: 1}, err
		}
	}

	v, err := e.interp.EvalWithContext(ctx, src)
	if err != nil {
		if incompleteInput(err) {
			e.pending = src + "\n"
			e.logger.Debug("buffering incomplete input", zap.Int("bytes", len(e.pending)))
			return engine.Outcome{Status: engine.Incomplete}, nil
		}
		e.pending = ""
		f := classify(ctx, err)
		if f.Kind == engine.Runtime {
			var p interp.Panic
			if errors.As(err, &p) {
				e.logger.Debug("interpreted code panicked", zap.ByteString("stack", p.Stack))
			}
		}
		return engine.Outcome{Status: engine.Failure, ErrorLevel: 1}, f
	}
	e.pending = ""

	for _, spec := range imports {
		if spec.Name != "_" && spec.Name != "." {
			e.imports[spec.Name] = spec.Path
		}
	}
	for _, name := range declaredNames(src) {
		e.declared[name] = true
	}

	out := engine.Outcome{Status: engine.Success}
	if v.IsValid() && v.CanInterface() && producesValue(src) {
		out.Value = v.Interface()
		out.HasValue = true
	}
	return out, nil
}

// CancelContinuation discards pending input.
func (e *Engine) CancelContinuation() {
	e.pending = ""
}

// Pending reports the input currently waiting for completion.
func (e *Engine) Pending() string {
	return e.pending
}

// FormatValue renders v the way a Go programmer would write it at a prompt.
func (e *Engine) FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "nil"
	case string:
		return fmt.Sprintf("%q", x)
	case error:
		return x.Error()
	default:
		return fmt.Sprintf("%v", x)
	}
}

// Version reports the Go version the interpreter's standard library was
// built from.
func (e *Engine) Version() string {
	return strings.TrimPrefix(runtime.Version(), "go")
}

// checkImports enforces the allow-list.
func (e *Engine) checkImports(imports []importSpec) error {
	if e.allowed == nil {
		return nil
	}
	var forbidden []string
	for _, spec := range imports {
		if !e.allowed[spec.Path] {
			forbidden = append(forbidden, spec.Path)
		}
	}
	if len(forbidden) == 0 {
		return nil
	}
	sort.Strings(forbidden)
	msg := fmt.Sprintf("import not allowed: %s", strings.Join(forbidden, ", "))
	return &engine.Fault{
		Kind:        engine.Diagnosable,
		Message:     msg,
		Err:         errors.New(msg),
		Diagnostics: []string{msg},
	}
}
