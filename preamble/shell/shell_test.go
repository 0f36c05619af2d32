package shell

import (
	"bytes"
	"context"
	"testing"
)

func newTestPreamble(cfg Config) (*Preamble, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	cfg.Stdout = &stdout
	cfg.Stderr = &stderr
	return New(cfg), &stdout, &stderr
}

func TestMatch(t *testing.T) {
	p, _, _ := newTestPreamble(Config{})

	tests := []struct {
		code string
		want bool
	}{
		{"!ls", true},
		{"! echo hi", true},
		{" !ls", false},
		{"x != y", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := p.Match(tt.code); got != tt.want {
			t.Errorf("Match(%q) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestApply_Output(t *testing.T) {
	p, stdout, stderr := newTestPreamble(Config{})

	r := p.Apply(context.Background(), "!echo out; echo err 1>&2")
	if !r.OK() {
		t.Fatalf("reply = %+v", r)
	}
	if stdout.String() != "out\n" {
		t.Errorf("stdout = %q, want %q", stdout.String(), "out\n")
	}
	if stderr.String() != "err\n" {
		t.Errorf("stderr = %q, want %q", stderr.String(), "err\n")
	}
}

func TestApply_NonZeroExitStaysOK(t *testing.T) {
	p, _, stderr := newTestPreamble(Config{})

	r := p.Apply(context.Background(), "!exit 3")
	if !r.OK() {
		t.Fatalf("reply = %+v, want ok", r)
	}
	if stderr.String() != "exit status 3\n" {
		t.Errorf("stderr = %q, want %q", stderr.String(), "exit status 3\n")
	}
}

func TestApply_MissingShell(t *testing.T) {
	p, _, stderr := newTestPreamble(Config{Shell: "/nonexistent/shell"})

	r := p.Apply(context.Background(), "!echo hi")
	if r.OK() || r.EName != "OSError" {
		t.Fatalf("reply = %+v, want OSError", r)
	}
	if stderr.Len() == 0 {
		t.Error("no diagnostic written")
	}
}

func TestApply_Dir(t *testing.T) {
	dir := t.TempDir()
	p, stdout, _ := newTestPreamble(Config{Dir: dir})

	if r := p.Apply(context.Background(), "!pwd -P"); !r.OK() {
		t.Fatalf("reply = %+v", r)
	}
	if stdout.Len() == 0 {
		t.Error("pwd printed nothing")
	}
}

func TestApply_Empty(t *testing.T) {
	p, stdout, stderr := newTestPreamble(Config{})
	if r := p.Apply(context.Background(), "!   "); !r.OK() {
		t.Fatalf("reply = %+v", r)
	}
	if stdout.Len()+stderr.Len() != 0 {
		t.Error("empty command produced output")
	}
}
