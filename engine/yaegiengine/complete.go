package yaegiengine

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"unicode"

	"github.com/jonwraymond/gokernel/engine"
)

// Complete returns decorated candidates for the identifier or selector
// ending at cursor.
func (e *Engine) Complete(code string, cursor int) []string {
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(code) {
		cursor = len(code)
	}
	expr := trailingSelector(code[:cursor])
	if expr == "" {
		return nil
	}

	qualifier, prefix := "", expr
	if i := strings.LastIndexByte(expr, '.'); i >= 0 {
		qualifier, prefix = expr[:i], expr[i+1:]
	}
	if qualifier == "" {
		return e.identCandidates(prefix)
	}

	if path, ok := e.imports[qualifier]; ok {
		var out []string
		for name, v := range members(path) {
			if strings.HasPrefix(name, "_") || !strings.HasPrefix(name, prefix) {
				continue
			}
			out = append(out, decorate(name, v))
		}
		sort.Strings(out)
		return out
	}

	root, _, _ := strings.Cut(qualifier, ".")
	if !e.declared[root] {
		return nil
	}
	v, err := e.interp.EvalWithContext(context.Background(), qualifier)
	if err != nil {
		return nil
	}
	return memberCandidates(v, prefix)
}

func (e *Engine) identCandidates(prefix string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(name string) {
		if strings.HasPrefix(name, prefix) && !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	for _, kw := range keywords {
		add(kw)
	}
	for _, b := range builtins {
		add(b)
	}
	for name := range e.imports {
		add(name)
	}
	for name := range e.declared {
		add(name)
	}
	sort.Strings(out)
	return out
}

// Lookup resolves expr to the package-level symbol it names or, for
// variables, to the named type of its value.
func (e *Engine) Lookup(ctx context.Context, expr string) (engine.Symbol, error) {
	expr = strings.TrimRight(strings.TrimSpace(expr), ".(")
	if expr == "" || trailingSelector(expr) != expr {
		return engine.Symbol{}, fmt.Errorf("%w: %q", engine.ErrNotFound, expr)
	}

	if isBuiltin(expr) {
		return engine.Symbol{Package: "builtin", Name: expr}, nil
	}

	root, rest, selector := strings.Cut(expr, ".")
	if path, ok := e.imports[root]; ok {
		if !selector {
			return engine.Symbol{Package: path}, nil
		}
		name, _, _ := strings.Cut(rest, ".")
		v, ok := members(path)[name]
		if !ok {
			return engine.Symbol{}, fmt.Errorf("%w: %s.%s", engine.ErrNotFound, path, name)
		}
		sym := engine.Symbol{Package: path, Name: name}
		if v.IsValid() && v.Kind() != reflect.Pointer {
			sym.Type = typeString(v.Type())
		}
		return sym, nil
	}

	if !e.declared[root] {
		return engine.Symbol{}, fmt.Errorf("%w: %q", engine.ErrNotFound, expr)
	}
	v, err := e.interp.EvalWithContext(ctx, expr)
	if err != nil || !v.IsValid() {
		return engine.Symbol{}, fmt.Errorf("%w: %q", engine.ErrNotFound, expr)
	}
	t := v.Type()
	named := t
	if named.Kind() == reflect.Pointer {
		named = named.Elem()
	}
	switch {
	case named.Name() == "":
		return engine.Symbol{}, fmt.Errorf("%w: %q has unnamed type %s", engine.ErrNotFound, expr, t)
	case named.PkgPath() == "":
		return engine.Symbol{Package: "builtin", Name: named.Name(), Type: typeString(t)}, nil
	default:
		return engine.Symbol{Package: named.PkgPath(), Name: named.Name(), Type: typeString(t)}, nil
	}
}

func isBuiltin(name string) bool {
	for _, b := range builtins {
		if b == name {
			return true
		}
	}
	return false
}

// trailingSelector returns the identifier or dotted selector chain that ends
// s, including a trailing empty segment after a final dot.
func trailingSelector(s string) string {
	i := len(s)
	for i > 0 {
		r := rune(s[i-1])
		if r == '.' || r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || r >= 0x80 {
			i--
			continue
		}
		break
	}
	expr := strings.TrimLeft(s[i:], ".")
	if expr != "" && unicode.IsDigit(rune(expr[0])) {
		return ""
	}
	return expr
}
