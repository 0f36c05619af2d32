package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonwraymond/gokernel/kernel"
	"github.com/jonwraymond/gokernel/protocol"
)

const (
	historyFile    = ".gokernel_history"
	continuePrompt = "   ...: "
)

func newConsoleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "Start an interactive session in the terminal",
		Long: `Starts a read-eval-print loop. Input continues on the next line while
brackets are open; a cell magic ("%%name") continues until an empty line.
Press Ctrl-D to exit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runConsole(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

func (a *app) runConsole(ctx context.Context, out io.Writer) error {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	c, err := a.newConsole(ln, out, nil)
	if err != nil {
		return err
	}
	defer c.close()
	ln.SetWordCompleter(wordCompleter(c.k))

	fmt.Fprintln(out, c.k.KernelInfo().Banner)
	return c.loop(ctx)
}

// prompter reads one line of input. *liner.State implements it.
type prompter interface {
	Prompt(prompt string) (string, error)
}

// historian is implemented by prompters that keep input history.
type historian interface {
	AppendHistory(item string)
}

type console struct {
	k       *kernel.Kernel
	in      prompter
	out     io.Writer
	logger  *zap.Logger
	counter int
}

// newConsole creates a console session. A nil stderr follows the process
// stderr.
func (a *app) newConsole(in prompter, out, stderr io.Writer) (*console, error) {
	k, err := a.newKernel(consolePublisher{out: out}, false, out, stderr)
	if err != nil {
		return nil, err
	}
	return &console{k: k, in: in, out: out, logger: a.logger.Named("console")}, nil
}

func (c *console) close() {
	if err := c.k.Close(); err != nil {
		c.logger.Warn("closing kernel", zap.Error(err))
	}
}

// loop executes submissions until the input ends.
func (c *console) loop(ctx context.Context) error {
	for {
		code, ok := c.read()
		if !ok {
			fmt.Fprintln(c.out)
			return nil
		}
		if strings.TrimSpace(code) == "" {
			continue
		}
		if h, ok := c.in.(historian); ok {
			h.AppendHistory(code)
		}

		c.counter++
		reply := c.k.Execute(ctx, c.counter, code)
		if !reply.OK() {
			c.logger.Debug("submission failed",
				zap.Int("counter", c.counter),
				zap.String("ename", reply.EName))
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// read returns the next submission. It reports false when the input ends.
// An aborted prompt discards the partial submission.
func (c *console) read() (string, bool) {
	var (
		b      strings.Builder
		prompt = fmt.Sprintf("In [%d]: ", c.counter+1)
		cell   bool
	)
	for {
		line, err := c.in.Prompt(prompt)
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if err != nil {
			return "", false
		}

		if b.Len() == 0 {
			cell = strings.HasPrefix(strings.TrimSpace(line), "%%")
		} else {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		if cell {
			if strings.TrimSpace(line) == "" {
				return b.String(), true
			}
		} else if c.k.IsComplete(b.String()).Status != protocol.Incomplete {
			return b.String(), true
		}
		prompt = continuePrompt
	}
}

// wordCompleter adapts kernel completion to liner. Candidates are reduced
// to the identifier they insert.
func wordCompleter(k *kernel.Kernel) liner.WordCompleter {
	return func(line string, pos int) (string, []string, string) {
		runes := []rune(line)
		pos = min(max(pos, 0), len(runes))
		before, after := string(runes[:pos]), string(runes[pos:])

		reply := k.Complete(before+after, len(before))
		seen := make(map[string]bool, len(reply.Matches))
		var words []string
		for _, m := range reply.Matches {
			if i := strings.IndexByte(m, '('); i > 0 {
				m = m[:i]
			}
			if !seen[m] {
				seen[m] = true
				words = append(words, m)
			}
		}
		return before[:reply.CursorStart], words, after
	}
}

// consolePublisher prints published output to the terminal.
type consolePublisher struct {
	out io.Writer
}

func (p consolePublisher) PublishStream(_, text string) {
	fmt.Fprint(p.out, text)
}

func (p consolePublisher) PublishExecuteResult(counter int, data protocol.MIMEBundle, _ map[string]any) {
	fmt.Fprintf(p.out, "Out[%d]: %v\n", counter, data[protocol.MIMEPlain])
}

func (p consolePublisher) PublishDisplayData(data protocol.MIMEBundle, _ map[string]any) {
	if text, ok := data[protocol.MIMEPlain]; ok {
		fmt.Fprintln(p.out, text)
	}
}
