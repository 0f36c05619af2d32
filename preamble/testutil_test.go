package preamble

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/jonwraymond/gokernel/protocol"
)

// mockPreamble matches code with a fixed prefix and records calls.
type mockPreamble struct {
	mu sync.Mutex

	prefix string
	reply  protocol.Reply

	matchCalls []string
	applyCalls []string
	closed     int
	closeErr   error
}

func newMockPreamble(prefix string) *mockPreamble {
	return &mockPreamble{prefix: prefix, reply: protocol.OK()}
}

func (m *mockPreamble) Match(code string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matchCalls = append(m.matchCalls, code)
	return strings.HasPrefix(code, m.prefix)
}

func (m *mockPreamble) Apply(_ context.Context, code string) protocol.Reply {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.applyCalls = append(m.applyCalls, code)
	return m.reply
}

func (m *mockPreamble) Applied() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.applyCalls...)
}

// closingPreamble also implements io.Closer.
type closingPreamble struct {
	*mockPreamble
	order *[]string
	name  string
}

func (c *closingPreamble) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed++
	if c.order != nil {
		*c.order = append(*c.order, c.name)
	}
	return c.closeErr
}

// hostPreamble accepts string extensions.
type hostPreamble struct {
	*mockPreamble
	subs map[string]string
}

func newHostPreamble(prefix string) *hostPreamble {
	return &hostPreamble{mockPreamble: newMockPreamble(prefix), subs: map[string]string{}}
}

func (h *hostPreamble) Extend(name string, ext string) error {
	if name == "" {
		return errors.New("empty name")
	}
	h.subs[name] = ext
	return nil
}
