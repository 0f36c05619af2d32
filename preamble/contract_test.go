package preamble

import "testing"

func TestPreambleContracts(t *testing.T) {
	var _ Preamble = (*mockPreamble)(nil)
	var _ Extensible[string] = (*hostPreamble)(nil)

	p := newMockPreamble("%")
	if p.Match("%x") != p.Match("%x") {
		t.Error("Match is not deterministic")
	}
	if len(p.Applied()) != 0 {
		t.Error("Match had the side effect of applying")
	}
}
