package kernel

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/jonwraymond/gokernel/engine"
	"github.com/jonwraymond/gokernel/protocol"
)

// result is a canned engine answer.
type result struct {
	out engine.Outcome
	err error
}

// mockEngine implements engine.Engine and engine.Inspector for testing.
type mockEngine struct {
	mu sync.Mutex

	// Configurable returns, keyed by fragment. Unlisted fragments succeed
	// without a value.
	results     map[string]result
	panicOn     string
	completions []string
	symbols     map[string]engine.Symbol

	// Call tracking
	runCalls      []string
	cancelCalls   int
	completeCalls []completeCall
	lookupCalls   []string
}

type completeCall struct {
	code   string
	cursor int
}

func newMockEngine() *mockEngine {
	return &mockEngine{
		results: make(map[string]result),
		symbols: make(map[string]engine.Symbol),
	}
}

func (m *mockEngine) value(fragment string, v any) {
	m.results[fragment] = result{out: engine.Outcome{Status: engine.Success, Value: v, HasValue: true}}
}

func (m *mockEngine) fail(fragment string, f *engine.Fault) {
	m.results[fragment] = result{out: engine.Outcome{Status: engine.Failure, ErrorLevel: 1}, err: f}
}

func (m *mockEngine) Run(_ context.Context, fragment string) (engine.Outcome, error) {
	m.mu.Lock()
	m.runCalls = append(m.runCalls, fragment)
	r, ok := m.results[fragment]
	panicOn := m.panicOn
	m.mu.Unlock()

	if panicOn != "" && fragment == panicOn {
		panic("engine exploded")
	}
	if !ok {
		return engine.Outcome{Status: engine.Success}, nil
	}
	return r.out, r.err
}

func (m *mockEngine) CancelContinuation() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelCalls++
}

func (m *mockEngine) Complete(code string, cursor int) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completeCalls = append(m.completeCalls, completeCall{code, cursor})
	return m.completions
}

func (m *mockEngine) FormatValue(v any) string {
	if s, ok := v.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprint(v)
}

func (m *mockEngine) Version() string { return "1.25.6" }

func (m *mockEngine) Lookup(_ context.Context, expr string) (engine.Symbol, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookupCalls = append(m.lookupCalls, expr)
	if sym, ok := m.symbols[expr]; ok {
		return sym, nil
	}
	return engine.Symbol{}, fmt.Errorf("%w: %s", engine.ErrNotFound, expr)
}

func (m *mockEngine) Runs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.runCalls...)
}

func (m *mockEngine) Cancels() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancelCalls
}

// testKernel bundles a kernel with its collaborators.
type testKernel struct {
	*Kernel
	engine   *mockEngine
	recorder *protocol.Recorder
	stdout   *bytes.Buffer
	stderr   *bytes.Buffer
}

func newTestKernel(t *testing.T, cfg Config) *testKernel {
	t.Helper()
	eng := newMockEngine()
	rec := protocol.NewRecorder()
	var stdout, stderr bytes.Buffer

	if cfg.Engine == nil {
		cfg.Engine = eng
	}
	cfg.Publisher = rec
	cfg.Stdout = &stdout
	cfg.Stderr = &stderr

	k, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = k.Close() })
	return &testKernel{Kernel: k, engine: eng, recorder: rec, stdout: &stdout, stderr: &stderr}
}
