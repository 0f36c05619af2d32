package kernel

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/jonwraymond/gokernel/engine/yaegiengine"
	"github.com/jonwraymond/gokernel/protocol"
)

func newYaegiKernel(t *testing.T, redirect bool) (*Kernel, *protocol.Recorder) {
	t.Helper()
	eng, err := yaegiengine.New(yaegiengine.Config{})
	if err != nil {
		t.Fatalf("yaegiengine.New() error = %v", err)
	}
	rec := protocol.NewRecorder()
	k, err := New(Config{Engine: eng, Publisher: rec, Redirect: redirect})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = k.Close() })
	return k, rec
}

func resultText(t *testing.T, rec *protocol.Recorder) string {
	t.Helper()
	results := rec.OfType(protocol.MessageExecuteResult)
	if len(results) != 1 {
		t.Fatalf("execute results = %d, want 1", len(results))
	}
	data, _ := results[0].Content["data"].(protocol.MIMEBundle)
	text, _ := data[protocol.MIMEPlain].(string)
	return text
}

func TestIntegration_Scenarios(t *testing.T) {
	k, rec := newYaegiKernel(t, true)
	ctx := context.Background()

	if reply := k.Execute(ctx, 1, "x := 41; x + 1"); !reply.OK() {
		t.Fatalf("Execute(1) = %+v", reply)
	}
	if got := resultText(t, rec); got != "42" {
		t.Errorf("result = %q, want 42", got)
	}
	rec.Drain()

	if reply := k.Execute(ctx, 2, "import \"strings\"\nvar b strings.Builder;"); !reply.OK() {
		t.Fatalf("Execute(2) = %+v", reply)
	}
	if n := len(rec.OfType(protocol.MessageExecuteResult)); n != 0 {
		t.Errorf("execute results = %d, want 0", n)
	}
	rec.Drain()

	reply := k.Execute(ctx, 3, "y := ")
	if reply.OK() || reply.EName != "CompileError" {
		t.Fatalf("Execute(3) = %+v, want CompileError", reply)
	}
	if rec.Stream(protocol.StreamStderr) == "" {
		t.Error("no diagnostic published on stderr")
	}
	rec.Drain()

	// State survives the failed submission.
	if reply := k.Execute(ctx, 4, "x * 2"); !reply.OK() {
		t.Fatalf("Execute(4) = %+v", reply)
	}
	if got := resultText(t, rec); got != "82" {
		t.Errorf("result = %q, want 82", got)
	}
}

func TestIntegration_DirectiveBoundaries(t *testing.T) {
	tests := []struct {
		name string
		code string
		want string
	}{
		{"import text in raw string", "src := `\nimport \"os\"\n`\nlen(src)", "13"},
		{"import then statement on one line", `import "strings"; strings.ToUpper("a")`, `"A"`},
		{"declaration then call", "func f() int { return 7 }\nf()", "7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k, rec := newYaegiKernel(t, false)
			if reply := k.Execute(context.Background(), 1, tt.code); !reply.OK() {
				t.Fatalf("Execute(%q) = %+v", tt.code, reply)
			}
			if got := resultText(t, rec); got != tt.want {
				t.Errorf("result = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIntegration_OutputCaptured(t *testing.T) {
	k, rec := newYaegiKernel(t, true)
	ctx := context.Background()

	k.Execute(ctx, 1, `import "fmt"`)
	reply := k.Execute(ctx, 2, `fmt.Print("partial"); fmt.Println(" line")`)
	if !reply.OK() {
		t.Fatalf("Execute() = %+v", reply)
	}
	if got := rec.Stream(protocol.StreamStdout); got != "partial line\n" {
		t.Errorf("stdout stream = %q", got)
	}

	// Host writes are captured too.
	fmt.Fprint(os.Stdout, "host")
	k.Redirector().Flush()
	if got := rec.Stream(protocol.StreamStdout); !strings.HasSuffix(got, "host") {
		t.Errorf("stdout stream = %q, want host write", got)
	}
}

func TestIntegration_CompleteAndInspect(t *testing.T) {
	k, _ := newYaegiKernel(t, false)
	ctx := context.Background()
	k.Execute(ctx, 1, `import "strings"`)

	code := "strings.ToUp"
	reply := k.Complete(code, len(code))
	found := false
	for _, m := range reply.Matches {
		if m == "ToUpper(string)" {
			found = true
		}
	}
	if !found {
		t.Errorf("matches = %q, want ToUpper(string)", reply.Matches)
	}
	if reply.CursorStart != len("strings.") {
		t.Errorf("cursor start = %d, want %d", reply.CursorStart, len("strings."))
	}

	ins := k.Inspect(ctx, "strings.Fields", len("strings.Fields"))
	if !ins.Found {
		t.Fatalf("Inspect() = %+v, want found", ins)
	}
	if !strings.Contains(ins.Data[protocol.MIMEPlain].(string), "https://pkg.go.dev/strings#Fields") {
		t.Errorf("text/plain = %v", ins.Data[protocol.MIMEPlain])
	}
}

func TestIntegration_Timeit(t *testing.T) {
	eng, err := yaegiengine.New(yaegiengine.Config{})
	if err != nil {
		t.Fatalf("yaegiengine.New() error = %v", err)
	}
	var stdout, stderr strings.Builder
	k, err := New(Config{Engine: eng, Publisher: protocol.NewRecorder(), Stdout: &stdout, Stderr: &stderr})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer k.Close()

	ctx := context.Background()
	k.Execute(ctx, 1, "x := 2")
	reply := k.Execute(ctx, 2, "%timeit -n 10 -r 2 x * x")
	if !reply.OK() {
		t.Fatalf("Execute() = %+v, stderr = %q", reply, stderr.String())
	}
	if !strings.Contains(stdout.String(), "per loop (mean ± std. dev. of 2 runs, 10 loops each)") {
		t.Errorf("stdout = %q", stdout.String())
	}
}
