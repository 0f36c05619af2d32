package yaegiengine

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDeclUnits(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{
			name: "statements only",
			src:  "x := 1\nx + 1",
			want: []string{"x := 1\nx + 1"},
		},
		{
			name: "declarations only",
			src:  "type T int\nfunc f() T { return 1 }",
			want: []string{"type T int\nfunc f() T { return 1 }"},
		},
		{
			name: "function then call",
			src:  "func f() int { return 7 }\nf()",
			want: []string{"func f() int { return 7 }", "f()"},
		},
		{
			name: "statement declaration statement",
			src:  "n := 2\nfunc double(x int) int {\n\treturn x * 2\n}\ndouble(n)",
			want: []string{"n := 2", "func double(x int) int {\n\treturn x * 2\n}", "double(n)"},
		},
		{
			name: "type and method grouped",
			src:  "type T struct{}\nfunc (T) Name() string { return \"t\" }\nT{}.Name()",
			want: []string{"type T struct{}\nfunc (T) Name() string { return \"t\" }", "T{}.Name()"},
		},
		{
			name: "explicit terminator",
			src:  "func f() int { return 7 }; f()",
			want: []string{"func f() int { return 7 };", "f()"},
		},
		{
			name: "function literal is a statement",
			src:  "g := func() int { return 1 }\nfunc() {}()\ng()",
			want: []string{"g := func() int { return 1 }\nfunc() {}()\ng()"},
		},
		{
			name: "unbalanced input returned whole",
			src:  "func f() {\nf()",
			want: []string{"func f() {\nf()"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, declUnits(tt.src)); diff != "" {
				t.Errorf("declUnits(%q) mismatch (-want +got):\n%s", tt.src, diff)
			}
		})
	}
}

func TestIsDecl(t *testing.T) {
	tests := map[string]bool{
		"func f() {}":                 true,
		"func (r T) M() {}":           true,
		"func (r *T) M(x int) int {}": true,
		"func() {}()":                 false,
		"func() (int, error) { }":     false,
		"type T int":                  true,
		"x := 1":                      false,
	}
	for src, want := range tests {
		lexemes, ok := scan(src)
		if !ok {
			t.Fatalf("scan(%q) failed", src)
		}
		if got := isDecl(lexemes); got != want {
			t.Errorf("isDecl(%q) = %v, want %v", src, got, want)
		}
	}
}
