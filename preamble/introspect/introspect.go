// Package introspect implements the "?" preamble and the documentation
// resolver behind kernel inspection.
//
// "?strings.Fields" and "strings.Fields?" both resolve the expression through
// the engine and answer with a page payload pointing at the symbol's
// reference documentation.
package introspect

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/jonwraymond/gokernel/engine"
	"github.com/jonwraymond/gokernel/protocol"
	"github.com/jonwraymond/gokernel/stream"
)

// DefaultBaseURL is the documentation site symbols are linked to.
const DefaultBaseURL = "https://pkg.go.dev"

// ErrNoInspector is returned when the engine cannot resolve expressions.
var ErrNoInspector = errors.New("engine does not support inspection")

var queryRe = regexp.MustCompile(`^(?:\?\s*([\w.]+)|([\w.]+)\s*\?)$`)

const pagerHTML = `<style>
#pager-container { padding: 0; margin: 0; width: 100%%; height: 100%%; }
.gokernel-iframe-pager { padding: 0; margin: 0; width: 100%%; height: 100%%; border: none; }
</style>
<iframe class="gokernel-iframe-pager" src="%s"></iframe>`

// Doc is a resolved documentation reference.
type Doc struct {
	Symbol engine.Symbol
	URL    string
}

// Bundle renders d as a MIME bundle.
func (d Doc) Bundle() protocol.MIMEBundle {
	text := d.URL
	if d.Symbol.Type != "" {
		text = d.Symbol.Type + "\n" + d.URL
	}
	return protocol.MIMEBundle{
		protocol.MIMEPlain: text,
		protocol.MIMEHTML:  fmt.Sprintf(pagerHTML, html.EscapeString(d.URL)),
	}
}

// Payload returns the page payload pagers display.
func (d Doc) Payload() map[string]any {
	return map[string]any{
		"source": "page",
		"data":   d.Bundle(),
		"start":  0,
	}
}

// Resolver maps expressions to documentation URLs.
type Resolver struct {
	inspector engine.Inspector
	baseURL   string
}

// NewResolver creates a Resolver backed by inspector. An empty baseURL
// selects DefaultBaseURL.
func NewResolver(inspector engine.Inspector, baseURL string) *Resolver {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Resolver{inspector: inspector, baseURL: strings.TrimRight(baseURL, "/")}
}

// Resolve looks expr up and builds its documentation reference.
func (r *Resolver) Resolve(ctx context.Context, expr string) (Doc, error) {
	if r == nil || r.inspector == nil {
		return Doc{}, ErrNoInspector
	}
	sym, err := r.inspector.Lookup(ctx, expr)
	if err != nil {
		return Doc{}, err
	}
	if sym.Package == "" {
		return Doc{}, fmt.Errorf("%w: %s has no package", engine.ErrNotFound, expr)
	}
	url := r.baseURL + "/" + sym.Package
	if sym.Name != "" {
		url += "#" + sym.Name
	}
	return Doc{Symbol: sym, URL: url}, nil
}

// Preamble answers "?expr" and "expr?" submissions.
type Preamble struct {
	resolver *Resolver
	stderr   io.Writer
	logger   *zap.Logger
}

// New creates the introspection preamble. A nil stderr selects
// stream.Stderr and a nil logger a no-op logger.
func New(resolver *Resolver, stderr io.Writer, logger *zap.Logger) *Preamble {
	if stderr == nil {
		stderr = stream.Stderr
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Preamble{resolver: resolver, stderr: stderr, logger: logger}
}

// Match reports whether code is a single introspection query.
func (p *Preamble) Match(code string) bool {
	return queryRe.MatchString(strings.TrimSpace(code))
}

// Apply resolves the queried expression.
func (p *Preamble) Apply(ctx context.Context, code string) protocol.Reply {
	expr := Query(code)
	doc, err := p.resolver.Resolve(ctx, expr)
	if err != nil {
		p.logger.Debug("introspection failed", zap.String("expr", expr), zap.Error(err))
		msg := fmt.Sprintf("Object `%s` not found.", expr)
		fmt.Fprintln(p.stderr, msg)
		return protocol.Error("LookupError", msg, nil)
	}
	reply := protocol.OK()
	reply.Payload = []map[string]any{doc.Payload()}
	return reply
}

// Query extracts the expression from an introspection query. It returns an
// empty string when code is not one.
func Query(code string) string {
	m := queryRe.FindStringSubmatch(strings.TrimSpace(code))
	if m == nil {
		return ""
	}
	if m[1] != "" {
		return m[1]
	}
	return m[2]
}
