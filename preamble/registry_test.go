package preamble

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"

	"github.com/jonwraymond/gokernel/protocol"
)

func TestRegistry_RegisterRejectsInvalid(t *testing.T) {
	r := NewRegistry()

	if err := r.Register("", newMockPreamble("%")); !errors.Is(err, ErrInvalid) {
		t.Errorf("Register(empty name) error = %v, want ErrInvalid", err)
	}
	if err := r.Register("magics", nil); !errors.Is(err, ErrInvalid) {
		t.Errorf("Register(nil) error = %v, want ErrInvalid", err)
	}
	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0", r.Len())
	}
}

func TestRegistry_OrderAndOverwrite(t *testing.T) {
	r := NewRegistry()

	_ = r.Register("introspection", newMockPreamble("?"))
	_ = r.Register("magics", newMockPreamble("%"))
	_ = r.Register("shell", newMockPreamble("!"))

	replacement := newMockPreamble("%")
	if err := r.Register("magics", replacement); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	want := []string{"introspection", "magics", "shell"}
	if got := r.Names(); !slices.Equal(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}

	got, err := r.Get("magics")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != Preamble(replacement) {
		t.Error("Get() did not return the replacement preamble")
	}
}

func TestRegistry_GetNotFound(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestRegistry_DispatchFirstMatchWins(t *testing.T) {
	r := NewRegistry()

	first := newMockPreamble("%")
	first.reply = protocol.Error("UsageError", "first", nil)
	second := newMockPreamble("%%")
	_ = r.Register("first", first)
	_ = r.Register("second", second)

	name, reply, ok := r.Dispatch(context.Background(), "%%file x")
	if !ok {
		t.Fatal("Dispatch() matched nothing")
	}
	if name != "first" {
		t.Errorf("Dispatch() name = %q, want first", name)
	}
	if reply.EValue != "first" {
		t.Errorf("Dispatch() reply = %+v, want first preamble's", reply)
	}
	if len(second.Applied()) != 0 {
		t.Error("second preamble was applied")
	}
	if len(second.matchCalls) != 0 {
		t.Error("second preamble was consulted after a match")
	}
}

func TestRegistry_DispatchNoMatch(t *testing.T) {
	r := NewRegistry()
	p := newMockPreamble("!")
	_ = r.Register("shell", p)

	if _, _, ok := r.Dispatch(context.Background(), "x := 1"); ok {
		t.Error("Dispatch() matched unclaimed code")
	}
	if len(p.Applied()) != 0 {
		t.Error("Apply called without a match")
	}
}

func TestRegistry_CloseReverseOrder(t *testing.T) {
	r := NewRegistry()

	var order []string
	a := &closingPreamble{mockPreamble: newMockPreamble("a"), order: &order, name: "a"}
	b := &closingPreamble{mockPreamble: newMockPreamble("b"), order: &order, name: "b"}
	b.closeErr = errors.New("b failed")
	_ = r.Register("a", a)
	_ = r.Register("plain", newMockPreamble("p"))
	_ = r.Register("b", b)

	err := r.Close()
	if err == nil {
		t.Fatal("Close() error = nil, want b's error")
	}
	if !slices.Equal(order, []string{"b", "a"}) {
		t.Errorf("close order = %v, want [b a]", order)
	}
	if r.Len() != 0 {
		t.Errorf("Len() after Close = %d, want 0", r.Len())
	}
	if err := r.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestExtend(t *testing.T) {
	r := NewRegistry()
	host := newHostPreamble("%")
	_ = r.Register("magics", host)
	_ = r.Register("shell", newMockPreamble("!"))

	if err := Extend(r, "magics", "config", "cfg"); err != nil {
		t.Fatalf("Extend() error = %v", err)
	}
	if host.subs["config"] != "cfg" {
		t.Errorf("subs = %v, want config registered", host.subs)
	}

	if err := Extend(r, "shell", "x", "y"); !errors.Is(err, ErrNotExtensible) {
		t.Errorf("Extend(shell) error = %v, want ErrNotExtensible", err)
	}
	if err := Extend(r, "magics", "n", 42); !errors.Is(err, ErrNotExtensible) {
		t.Errorf("Extend(wrong type) error = %v, want ErrNotExtensible", err)
	}
	if err := Extend(r, "missing", "x", "y"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Extend(missing) error = %v, want ErrNotFound", err)
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	_ = r.Register("magics", newMockPreamble("%"))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			r.Dispatch(context.Background(), "%lsmagic")
		}()
		go func() {
			defer wg.Done()
			_ = r.Register("shell", newMockPreamble("!"))
			_ = r.Names()
		}()
	}
	wg.Wait()

	if got := r.Names(); !slices.Equal(got, []string{"magics", "shell"}) {
		t.Errorf("Names() = %v", got)
	}
}
