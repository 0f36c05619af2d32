package main

import (
	"context"
	"fmt"

	"github.com/jonwraymond/gokernel/config"
	"github.com/jonwraymond/gokernel/preamble/magic"
	"github.com/jonwraymond/gokernel/protocol"
)

// configMagic prints the effective configuration.
func configMagic(cfg config.Config) magic.Magic {
	return magic.Func{
		Supported: magic.Line,
		Description: magic.Doc{
			Summary: "Show the effective gokernel configuration as YAML.",
			Usage:   "%config",
		},
		Fn: func(_ context.Context, inv magic.Invocation) protocol.Reply {
			if len(inv.Args()) > 0 {
				return magic.UsageError(inv.Stderr, "%%config takes no arguments")
			}
			out, err := cfg.YAML()
			if err != nil {
				fmt.Fprintln(inv.Stderr, err)
				return protocol.Error("ConfigError", err.Error(), nil)
			}
			fmt.Fprint(inv.Stdout, out)
			return protocol.OK()
		},
	}
}
