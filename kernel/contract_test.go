package kernel

import (
	"testing"

	"github.com/jonwraymond/gokernel/engine"
	"github.com/jonwraymond/gokernel/engine/yaegiengine"
	"github.com/jonwraymond/gokernel/preamble"
	"github.com/jonwraymond/gokernel/preamble/introspect"
	"github.com/jonwraymond/gokernel/preamble/magic"
	"github.com/jonwraymond/gokernel/preamble/shell"
	"github.com/jonwraymond/gokernel/protocol"
)

func TestContracts(t *testing.T) {
	var _ engine.Engine = (*mockEngine)(nil)
	var _ engine.Inspector = (*mockEngine)(nil)
	var _ engine.Engine = (*yaegiengine.Engine)(nil)
	var _ engine.Inspector = (*yaegiengine.Engine)(nil)
	var _ protocol.Publisher = (*protocol.Recorder)(nil)
	var _ preamble.Preamble = (*introspect.Preamble)(nil)
	var _ preamble.Preamble = (*shell.Preamble)(nil)
	var _ preamble.Extensible[magic.Magic] = (*magic.Manager)(nil)
	var _ magic.Magic = magic.File{}
	var _ magic.Magic = magic.Timeit{}
	var _ magic.Magic = magic.LsMagic{}
	var _ magic.Magic = magic.Func{}
}
