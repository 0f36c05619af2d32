package main

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jonwraymond/gokernel/config"
)

// scriptedPrompter feeds fixed lines and then reports end of input.
type scriptedPrompter struct {
	lines   []string
	prompts []string
	history []string
}

func (p *scriptedPrompter) Prompt(prompt string) (string, error) {
	p.prompts = append(p.prompts, prompt)
	if len(p.lines) == 0 {
		return "", io.EOF
	}
	line := p.lines[0]
	p.lines = p.lines[1:]
	return line, nil
}

func (p *scriptedPrompter) AppendHistory(item string) {
	p.history = append(p.history, item)
}

func newTestApp(t *testing.T) *app {
	t.Helper()
	cfg := config.Default()
	cfg.Kernel.Redirect = false
	cfg.Kernel.WorkDir = t.TempDir()
	require.NoError(t, cfg.Validate())
	return &app{cfg: cfg, logger: zap.NewNop()}
}

func newTestConsole(t *testing.T, lines ...string) (*console, *scriptedPrompter, *strings.Builder, *strings.Builder) {
	t.Helper()
	in := &scriptedPrompter{lines: lines}
	var out, errOut strings.Builder
	c, err := newTestApp(t).newConsole(in, &out, &errOut)
	require.NoError(t, err)
	t.Cleanup(c.close)
	return c, in, &out, &errOut
}
