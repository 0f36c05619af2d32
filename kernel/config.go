package kernel

import (
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/jonwraymond/gokernel/engine"
	"github.com/jonwraymond/gokernel/protocol"
	"github.com/jonwraymond/gokernel/stream"
)

// Config holds the configuration for a Kernel.
type Config struct {
	// Engine compiles and runs fragments.
	// Required.
	Engine engine.Engine

	// Publisher receives stream output and execute results.
	// Required.
	Publisher protocol.Publisher

	// Redirect installs a process-wide redirector so that everything
	// written to the standard streams is published. At most one kernel
	// per process may redirect.
	Redirect bool

	// Stdout and Stderr receive diagnostics and preamble output.
	// Defaults to stream.Stdout and stream.Stderr, which follow the
	// redirector when one is installed.
	Stdout io.Writer
	Stderr io.Writer

	// Shell is the interpreter used by "!" escapes. Defaults to /bin/sh.
	Shell string

	// WorkDir is the working directory of "!" escapes and relative
	// %%file paths. Empty means the process working directory.
	WorkDir string

	// DocsURL is the documentation site introspection links to.
	// Defaults to https://pkg.go.dev.
	DocsURL string

	// TimeitRepeat and TimeitPrecision are the %timeit defaults.
	TimeitRepeat    int
	TimeitPrecision int

	// Banner is reported in kernel info.
	Banner string

	// Logger is optional. Defaults to a no-op logger.
	Logger *zap.Logger
}

// Validate checks that all required fields are set.
// Returns ErrConfiguration if any required field is missing.
func (c *Config) Validate() error {
	var missing []string

	if c.Engine == nil {
		missing = append(missing, "Engine")
	}
	if c.Publisher == nil {
		missing = append(missing, "Publisher")
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required fields: %s",
			ErrConfiguration, strings.Join(missing, ", "))
	}
	if c.TimeitRepeat < 0 || c.TimeitPrecision < 0 {
		return fmt.Errorf("%w: timeit repeat and precision must not be negative", ErrConfiguration)
	}
	return nil
}

// applyDefaults sets default values for optional fields.
func (c *Config) applyDefaults() {
	if c.Stdout == nil {
		c.Stdout = stream.Stdout
	}
	if c.Stderr == nil {
		c.Stderr = stream.Stderr
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	if c.Banner == "" {
		c.Banner = fmt.Sprintf("%s %s, Go %s", Implementation, Version, c.Engine.Version())
	}
}
