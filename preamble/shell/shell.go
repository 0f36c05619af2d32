// Package shell implements the "!" preamble, which runs the rest of the
// submission through the system shell.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/jonwraymond/gokernel/protocol"
	"github.com/jonwraymond/gokernel/stream"
)

// DefaultShell runs commands when Config.Shell is empty.
const DefaultShell = "/bin/sh"

// Config configures a Preamble.
type Config struct {
	// Shell is the interpreter invoked as `Shell -c command`.
	Shell string

	// Dir is the working directory. Empty means the kernel's.
	Dir string

	// Env overrides the environment. Nil inherits the kernel's.
	Env []string

	// Stdout and Stderr receive command output. Defaults to stream.Stdout
	// and stream.Stderr.
	Stdout io.Writer
	Stderr io.Writer

	// Logger is optional. Defaults to a no-op logger.
	Logger *zap.Logger
}

// Preamble runs "!command" submissions.
type Preamble struct {
	shell  string
	dir    string
	env    []string
	stdout io.Writer
	stderr io.Writer
	logger *zap.Logger
}

// New creates a shell Preamble.
func New(cfg Config) *Preamble {
	if cfg.Shell == "" {
		cfg.Shell = DefaultShell
	}
	if cfg.Stdout == nil {
		cfg.Stdout = stream.Stdout
	}
	if cfg.Stderr == nil {
		cfg.Stderr = stream.Stderr
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Preamble{
		shell:  cfg.Shell,
		dir:    cfg.Dir,
		env:    cfg.Env,
		stdout: cfg.Stdout,
		stderr: cfg.Stderr,
		logger: cfg.Logger,
	}
}

// Match reports whether code starts with "!".
func (p *Preamble) Match(code string) bool {
	return strings.HasPrefix(code, "!")
}

// Apply runs the command. A non-zero exit status is reported on stderr but
// the reply stays ok; failing to start the shell is an error reply.
func (p *Preamble) Apply(ctx context.Context, code string) protocol.Reply {
	command := strings.TrimSpace(strings.TrimPrefix(code, "!"))
	if command == "" {
		return protocol.OK()
	}

	cmd := exec.CommandContext(ctx, p.shell, "-c", command)
	cmd.Dir = p.dir
	cmd.Env = p.env
	cmd.Stdout = p.stdout
	cmd.Stderr = p.stderr

	p.logger.Debug("running shell command", zap.String("shell", p.shell), zap.String("command", command))
	err := cmd.Run()
	if err == nil {
		return protocol.OK()
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		fmt.Fprintln(p.stderr, exitErr.Error())
		return protocol.OK()
	}

	fmt.Fprintf(p.stderr, "%s: %v\n", p.shell, err)
	return protocol.Error("OSError", err.Error(), nil)
}
