package yaegiengine

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/jonwraymond/gokernel/engine"
)

func TestComplete_PackageMembers(t *testing.T) {
	e, _ := newTestEngine(t, Config{})
	mustRun(t, e, `import "strings"`)

	code := "strings.ToUp"
	got := e.Complete(code, len(code))
	want := "[#string#]ToUpper(<#string a0#>)"
	if !slices.Contains(got, want) {
		t.Errorf("Complete() = %v, want it to contain %q", got, want)
	}
	for _, c := range got {
		if c == "" {
			t.Error("Complete() returned an empty candidate")
		}
	}
}

func TestComplete_UnimportedPackage(t *testing.T) {
	e, _ := newTestEngine(t, Config{})

	code := "strings.ToUp"
	if got := e.Complete(code, len(code)); len(got) != 0 {
		t.Errorf("Complete() = %v, want none before import", got)
	}
}

func TestComplete_Identifiers(t *testing.T) {
	e, _ := newTestEngine(t, Config{})
	mustRun(t, e, "answer := 42")

	got := e.Complete("ans", 3)
	if !slices.Equal(got, []string{"answer"}) {
		t.Errorf("Complete() = %v, want [answer]", got)
	}

	got = e.Complete("retu", 4)
	if !slices.Equal(got, []string{"return"}) {
		t.Errorf("Complete() = %v, want [return]", got)
	}
}

func TestComplete_CursorClamped(t *testing.T) {
	e, _ := newTestEngine(t, Config{})

	if got := e.Complete("ret", 99); !slices.Contains(got, "return") {
		t.Errorf("Complete() = %v, want return", got)
	}
	if got := e.Complete("ret", -1); len(got) != 0 {
		t.Errorf("Complete() = %v, want none", got)
	}
}

func TestLookup(t *testing.T) {
	e, _ := newTestEngine(t, Config{})
	mustRun(t, e, `import "strings"`)
	mustRun(t, e, `var b strings.Builder`)

	tests := []struct {
		expr string
		want engine.Symbol
	}{
		{"len", engine.Symbol{Package: "builtin", Name: "len"}},
		{"strings", engine.Symbol{Package: "strings"}},
		{"strings.ToUpper", engine.Symbol{Package: "strings", Name: "ToUpper", Type: "func(string) string"}},
		{"strings.ToUpper(", engine.Symbol{Package: "strings", Name: "ToUpper", Type: "func(string) string"}},
		{"b", engine.Symbol{Package: "strings", Name: "Builder", Type: "strings.Builder"}},
	}
	for _, tt := range tests {
		got, err := e.Lookup(context.Background(), tt.expr)
		if err != nil {
			t.Errorf("Lookup(%q) error = %v", tt.expr, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Lookup(%q) = %+v, want %+v", tt.expr, got, tt.want)
		}
	}
}

func TestLookup_NotFound(t *testing.T) {
	e, _ := newTestEngine(t, Config{})
	mustRun(t, e, `import "strings"`)

	for _, expr := range []string{"", "nosuch", "strings.NoSuchThing", "1 + 2"} {
		_, err := e.Lookup(context.Background(), expr)
		if !errors.Is(err, engine.ErrNotFound) {
			t.Errorf("Lookup(%q) error = %v, want ErrNotFound", expr, err)
		}
	}
}

func TestTrailingSelector(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"fmt.Pri", "fmt.Pri"},
		{"x := fmt.", "fmt."},
		{"foo(bar", "bar"},
		{"a.b.c", "a.b.c"},
		{"1.5", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := trailingSelector(tt.in); got != tt.want {
			t.Errorf("trailingSelector(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
