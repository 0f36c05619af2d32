package magic

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/jonwraymond/gokernel/engine"
	"github.com/jonwraymond/gokernel/protocol"
)

// mockEngine records fragments and answers them through onRun.
type mockEngine struct {
	mu      sync.Mutex
	runs    []string
	cancels int
	onRun   func(src string) (engine.Outcome, error)
}

func (m *mockEngine) Run(_ context.Context, src string) (engine.Outcome, error) {
	m.mu.Lock()
	m.runs = append(m.runs, src)
	fn := m.onRun
	m.mu.Unlock()
	if fn != nil {
		return fn(src)
	}
	return engine.Outcome{Status: engine.Success}, nil
}

func (m *mockEngine) CancelContinuation() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancels++
}

func (m *mockEngine) Complete(string, int) []string { return nil }
func (m *mockEngine) FormatValue(v any) string      { return fmt.Sprint(v) }
func (m *mockEngine) Version() string               { return "test" }

func (m *mockEngine) Runs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.runs...)
}

// recordingMagic records invocations.
type recordingMagic struct {
	kinds Kind
	mu    sync.Mutex
	calls []Invocation
}

func (r *recordingMagic) Kinds() Kind { return r.kinds }
func (r *recordingMagic) Doc() Doc    { return Doc{Summary: "records invocations"} }

func (r *recordingMagic) Run(_ context.Context, inv Invocation) protocol.Reply {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, inv)
	return protocol.OK()
}

func newTestManager() (*Manager, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	return NewManager(Options{Stdout: &stdout, Stderr: &stderr}), &stdout, &stderr
}
