// Command gokernel runs an interactive Go kernel on the yaegi interpreter,
// either as a terminal console or as an MCP server on stdio.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
