package magic

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"github.com/jonwraymond/gokernel/protocol"
)

// File is the %%file cell magic. It writes the cell body to a file.
type File struct {
	// Dir resolves relative paths. Defaults to the working directory.
	Dir string
}

// Kinds implements Magic.
func (File) Kinds() Kind { return Cell }

// Doc implements Magic.
func (File) Doc() Doc {
	return Doc{
		Summary: "Write the contents of the cell to a file",
		Usage:   "%%file [-a|--append] <path>\n\nThe file is overwritten unless -a is given.",
	}
}

// Run implements Magic.
func (f File) Run(_ context.Context, inv Invocation) protocol.Reply {
	set := pflag.NewFlagSet("file", pflag.ContinueOnError)
	appendMode := set.BoolP("append", "a", false, "append to the file instead of overwriting it")
	path, err := inv.Parse(set)
	if err != nil {
		return UsageError(inv.Stderr, "%%%%file: %v", err)
	}
	if path == "" {
		return UsageError(inv.Stderr, "%%%%file: missing file path")
	}

	target := path
	if f.Dir != "" && !filepath.IsAbs(target) {
		target = filepath.Join(f.Dir, target)
	}

	verb := "Writing"
	if _, err := os.Stat(target); err == nil {
		verb = "Overwriting"
		if *appendMode {
			verb = "Appending to"
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(inv.Stderr, err)
		return protocol.Error("OSError", err.Error(), nil)
	}

	body := inv.Body
	if body != "" && !strings.HasSuffix(body, "\n") {
		body += "\n"
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if *appendMode {
		flags = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	}
	if err := writeFile(target, flags, body); err != nil {
		fmt.Fprintln(inv.Stderr, err)
		return protocol.Error("OSError", err.Error(), nil)
	}

	fmt.Fprintf(inv.Stdout, "%s %s\n", verb, path)
	return protocol.OK()
}

func writeFile(path string, flags int, body string) (err error) {
	fh, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := fh.Close(); err == nil {
			err = cerr
		}
	}()
	_, err = fh.WriteString(body)
	return err
}
