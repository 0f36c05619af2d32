package yaegiengine

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/traefik/yaegi/stdlib"
)

var (
	keywords = []string{
		"break", "case", "chan", "const", "continue", "default", "defer",
		"else", "fallthrough", "for", "func", "go", "goto", "if", "import",
		"interface", "map", "package", "range", "return", "select", "struct",
		"switch", "type", "var",
	}

	builtins = []string{
		"any", "append", "bool", "byte", "cap", "clear", "close", "comparable",
		"complex", "complex128", "complex64", "copy", "delete", "error", "false",
		"float32", "float64", "imag", "int", "int16", "int32", "int64", "int8",
		"iota", "len", "make", "max", "min", "new", "nil", "panic", "print",
		"println", "real", "recover", "rune", "string", "true", "uint",
		"uint16", "uint32", "uint64", "uint8", "uintptr",
	}
)

var (
	packagesOnce sync.Once
	packages     map[string]map[string]reflect.Value
)

// members returns the exported symbols of the stdlib package at importPath.
func members(importPath string) map[string]reflect.Value {
	packagesOnce.Do(func() {
		packages = make(map[string]map[string]reflect.Value, len(stdlib.Symbols))
		for key, syms := range stdlib.Symbols {
			i := strings.LastIndexByte(key, '/')
			if i < 0 {
				continue
			}
			packages[key[:i]] = syms
		}
	})
	return packages[importPath]
}

// decorate renders a symbol as a completion candidate, marking result and
// parameter types with placeholder decorations.
func decorate(name string, v reflect.Value) string {
	if !v.IsValid() || v.Kind() != reflect.Func || v.IsNil() {
		return name
	}
	return decorateFunc(name, v.Type(), 0)
}

// decorateFunc renders a function type. skip drops leading parameters, which
// is how method receivers are hidden.
func decorateFunc(name string, t reflect.Type, skip int) string {
	var b strings.Builder
	if t.NumOut() > 0 {
		outs := make([]string, t.NumOut())
		for i := range outs {
			outs[i] = typeString(t.Out(i))
		}
		fmt.Fprintf(&b, "[#%s#]", strings.Join(outs, ", "))
	}
	b.WriteString(name)
	b.WriteByte('(')
	for i := skip; i < t.NumIn(); i++ {
		if i > skip {
			b.WriteString(", ")
		}
		ts := typeString(t.In(i))
		if t.IsVariadic() && i == t.NumIn()-1 {
			ts = "..." + strings.TrimPrefix(ts, "[]")
		}
		fmt.Fprintf(&b, "<#%s a%d#>", ts, i-skip)
	}
	b.WriteByte(')')
	return b.String()
}

func typeString(t reflect.Type) string {
	return strings.ReplaceAll(t.String(), "interface {}", "any")
}

// memberCandidates lists the members of a reflected value whose names start
// with prefix.
func memberCandidates(v reflect.Value, prefix string) []string {
	if !v.IsValid() {
		return nil
	}
	var out []string
	t := v.Type()
	mt := t
	if t.Kind() != reflect.Pointer && t.Kind() != reflect.Interface {
		mt = reflect.PointerTo(t)
	}
	for i := 0; i < mt.NumMethod(); i++ {
		m := mt.Method(i)
		if !m.IsExported() || !strings.HasPrefix(m.Name, prefix) {
			continue
		}
		skip := 1
		if mt.Kind() == reflect.Interface {
			skip = 0
		}
		out = append(out, decorateFunc(m.Name, m.Type, skip))
	}

	st := t
	if st.Kind() == reflect.Pointer {
		st = st.Elem()
	}
	if st.Kind() == reflect.Struct {
		for i := 0; i < st.NumField(); i++ {
			f := st.Field(i)
			if f.IsExported() && strings.HasPrefix(f.Name, prefix) {
				out = append(out, f.Name)
			}
		}
	}
	sort.Strings(out)
	return out
}
