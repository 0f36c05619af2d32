package magic

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jonwraymond/gokernel/protocol"
)

const searchLimit = 10

// LsMagic is the %lsmagic line magic. Without arguments it lists every
// registered magic; with a query it searches the magic index.
type LsMagic struct {
	Manager *Manager
}

// Kinds implements Magic.
func (LsMagic) Kinds() Kind { return Line }

// Doc implements Magic.
func (LsMagic) Doc() Doc {
	return Doc{
		Summary: "List currently available magic functions",
		Usage:   "%lsmagic [query]\n\nWith a query, lists the magics whose documentation matches it.",
	}
}

// Run implements Magic.
func (l LsMagic) Run(_ context.Context, inv Invocation) protocol.Reply {
	if l.Manager == nil {
		return protocol.Error("UsageError", "lsmagic: no manager", nil)
	}
	title := cases.Title(language.English)

	if query := strings.TrimSpace(inv.Line); query != "" {
		results, err := l.Manager.Search(query, searchLimit)
		if err != nil {
			fmt.Fprintln(inv.Stderr, err)
			return protocol.Error("SearchError", err.Error(), nil)
		}
		if len(results) == 0 {
			fmt.Fprintf(inv.Stdout, "No magics match %q.\n", query)
			return protocol.OK()
		}
		fmt.Fprintf(inv.Stdout, "%s %s:\n", title.String("magics matching"), query)
		for _, r := range results {
			prefix := "%"
			if mg, ok := l.Manager.Lookup(r.Name); ok && !mg.Kinds().Has(Line) {
				prefix = "%%"
			}
			fmt.Fprintf(inv.Stdout, "  %s%-12s %s\n", prefix, r.Name, r.ShortDescription)
		}
		return protocol.OK()
	}

	for i, kind := range []Kind{Line, Cell} {
		if i > 0 {
			fmt.Fprintln(inv.Stdout)
		}
		fmt.Fprintln(inv.Stdout, title.String(fmt.Sprintf("available %s magics", kind))+":")
		names := l.Manager.Names(kind)
		for j := range names {
			names[j] = kind.Prefix() + names[j]
		}
		fmt.Fprintln(inv.Stdout, strings.Join(names, "  "))
	}
	return protocol.OK()
}
