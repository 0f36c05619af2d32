package main

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jonwraymond/gokernel/config"
	"github.com/jonwraymond/gokernel/engine/yaegiengine"
	"github.com/jonwraymond/gokernel/kernel"
	"github.com/jonwraymond/gokernel/preamble"
	"github.com/jonwraymond/gokernel/preamble/magic"
	"github.com/jonwraymond/gokernel/protocol"
)

// app holds state shared by the subcommands.
type app struct {
	configPath string
	verbose    bool

	cfg    config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}

	cmd := &cobra.Command{
		Use:   "gokernel",
		Short: "Interactive Go kernel built on the yaegi interpreter",
		Long: `gokernel executes Go submissions incrementally: declarations and imports
persist between submissions, the value of a trailing expression is displayed,
and "%" magics, "!" shell escapes and "?" introspection are handled before
code reaches the interpreter.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}
	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to a YAML config file")
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(newConsoleCmd(a), newMCPCmd(a), newVersionCmd())
	return cmd
}

// init loads the configuration and builds the logger. The logger binds the
// process stderr before any redirector replaces it.
func (a *app) init() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	logger, err := buildLogger(cfg.Log, a.verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

func buildLogger(lc config.LogConfig, verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if lc.Development {
		zc = zap.NewDevelopmentConfig()
	}
	level, err := lc.ZapLevel()
	if err != nil {
		return nil, err
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

// newKernel builds a yaegi-backed kernel from the loaded configuration, with
// the %config magic installed. Nil writers follow the process streams.
func (a *app) newKernel(pub protocol.Publisher, redirect bool, stdout, stderr io.Writer) (*kernel.Kernel, error) {
	eng, err := yaegiengine.New(yaegiengine.Config{
		GoPath:          a.cfg.Engine.GoPath,
		BuildTags:       a.cfg.Engine.BuildTags,
		Unrestricted:    a.cfg.Engine.Unrestricted,
		AllowedPackages: a.cfg.Engine.AllowedPackages,
		Stdout:          stdout,
		Stderr:          stderr,
		Logger:          a.logger.Named("engine"),
	})
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}

	k, err := kernel.New(kernel.Config{
		Engine:          eng,
		Publisher:       pub,
		Redirect:        redirect,
		Stdout:          stdout,
		Stderr:          stderr,
		Shell:           a.cfg.Kernel.Shell,
		WorkDir:         a.cfg.Kernel.WorkDir,
		DocsURL:         a.cfg.Kernel.DocsURL,
		TimeitRepeat:    a.cfg.Timeit.Repeat,
		TimeitPrecision: a.cfg.Timeit.Precision,
		Logger:          a.logger.Named("kernel"),
	})
	if err != nil {
		return nil, fmt.Errorf("create kernel: %w", err)
	}

	if err := preamble.Extend[magic.Magic](k.Preambles(), kernel.PreambleMagics, "config", configMagic(a.cfg)); err != nil {
		_ = k.Close()
		return nil, fmt.Errorf("install %%config: %w", err)
	}
	return k, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the kernel version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (protocol %s, %s)\n",
				kernel.Implementation, kernel.Version, kernel.ProtocolVersion, runtime.Version())
		},
	}
}
