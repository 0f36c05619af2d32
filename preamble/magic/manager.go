package magic

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/jonwraymond/tooldiscovery/index"
	"github.com/jonwraymond/tooldiscovery/search"
	"github.com/jonwraymond/tooldiscovery/tooldoc"
	"github.com/jonwraymond/toolfoundation/model"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/jonwraymond/gokernel/preamble"
	"github.com/jonwraymond/gokernel/protocol"
	"github.com/jonwraymond/gokernel/stream"
)

// Namespace is the tool namespace magics are indexed under.
const Namespace = "magic"

// ErrInvalid is returned when registering a malformed magic.
var ErrInvalid = errors.New("invalid magic")

var (
	magicRe = regexp.MustCompile(`^%{1,2}\w+`)
	nameRe  = regexp.MustCompile(`^\w+$`)
)

// Options configures a Manager.
type Options struct {
	// Stdout and Stderr receive magic output. Defaults to stream.Stdout and
	// stream.Stderr.
	Stdout io.Writer
	Stderr io.Writer

	// Logger is optional. Defaults to a no-op logger.
	Logger *zap.Logger
}

// Manager is the magics preamble. It dispatches %name and %%name
// submissions to registered magics.
type Manager struct {
	mu     sync.RWMutex
	magics map[string]Magic

	index index.Index
	docs  *tooldoc.InMemoryStore

	stdout io.Writer
	stderr io.Writer
	logger *zap.Logger
}

var _ preamble.Extensible[Magic] = (*Manager)(nil)

// NewManager creates a Manager with no magics registered.
func NewManager(opts Options) *Manager {
	if opts.Stdout == nil {
		opts.Stdout = stream.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = stream.Stderr
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	idx := index.NewInMemoryIndex(index.IndexOptions{
		Searcher: search.NewBM25Searcher(search.BM25Config{}),
	})
	return &Manager{
		magics: make(map[string]Magic),
		index:  idx,
		docs:   tooldoc.NewInMemoryStore(tooldoc.StoreOptions{Index: idx}),
		stdout: opts.Stdout,
		stderr: opts.Stderr,
		logger: opts.Logger,
	}
}

// Match reports whether the first non-blank line of code invokes a magic.
func (m *Manager) Match(code string) bool {
	line, _ := firstLine(code)
	return magicRe.MatchString(line)
}

// Apply runs the magic invoked by code.
func (m *Manager) Apply(ctx context.Context, code string) protocol.Reply {
	inv, ok := m.parse(code)
	if !ok {
		return UsageError(m.stderr, "not a magic invocation")
	}

	m.mu.RLock()
	mg, found := m.magics[inv.Name]
	m.mu.RUnlock()

	if !found {
		if inv.Kind == Cell {
			return UsageError(m.stderr, "Cell magic `%%%%%s` not found.", inv.Name)
		}
		return UsageError(m.stderr, "Line magic function `%%%s` not found.", inv.Name)
	}
	if !mg.Kinds().Has(inv.Kind) {
		return UsageError(m.stderr, "`%s%s` is not a %s magic", inv.Kind.Prefix(), inv.Name, inv.Kind)
	}
	if inv.Kind == Line && strings.TrimSpace(inv.Body) != "" {
		return UsageError(m.stderr, "line magic `%%%s` takes no cell body, use `%%%%%s`", inv.Name, inv.Name)
	}

	m.logger.Debug("running magic",
		zap.String("name", inv.Name),
		zap.Stringer("kind", inv.Kind))
	return mg.Run(ctx, inv)
}

// Extend registers mg under name, replacing any magic of the same name.
func (m *Manager) Extend(name string, mg Magic) error {
	if !nameRe.MatchString(name) {
		return fmt.Errorf("%w: bad name %q", ErrInvalid, name)
	}
	if mg == nil {
		return fmt.Errorf("%w: %s is nil", ErrInvalid, name)
	}
	if mg.Kinds()&(Line|Cell) == 0 {
		return fmt.Errorf("%w: %s supports no invocation kind", ErrInvalid, name)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	_, replaced := m.magics[name]
	m.magics[name] = mg

	if err := m.indexMagic(name, mg); err != nil {
		if !replaced {
			delete(m.magics, name)
			return fmt.Errorf("index magic %s: %w", name, err)
		}
		m.logger.Debug("reindexing replaced magic", zap.String("name", name), zap.Error(err))
	}
	return nil
}

// indexMagic records mg in the tool index and documentation store.
func (m *Manager) indexMagic(name string, mg Magic) error {
	doc := mg.Doc()
	var tags []string
	if mg.Kinds().Has(Line) {
		tags = append(tags, "line")
	}
	if mg.Kinds().Has(Cell) {
		tags = append(tags, "cell")
	}
	tool := model.Tool{
		Tool: mcp.Tool{
			Name:        name,
			Description: doc.Summary,
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"line": map[string]any{"type": "string"},
					"body": map[string]any{"type": "string"},
				},
			},
		},
		Namespace: Namespace,
		Tags:      model.NormalizeTags(tags),
	}
	if err := m.index.RegisterTool(tool, model.NewLocalBackend(name)); err != nil {
		return err
	}
	return m.docs.RegisterDoc(toolID(name), tooldoc.DocEntry{
		Summary: doc.Summary,
		Notes:   doc.Usage,
	})
}

// Lookup returns the magic registered under name.
func (m *Manager) Lookup(name string) (Magic, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mg, ok := m.magics[name]
	return mg, ok
}

// Names returns the names of magics supporting kind, sorted.
func (m *Manager) Names(kind Kind) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for name, mg := range m.magics {
		if mg.Kinds().Has(kind) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Search returns magics relevant to query, best first.
func (m *Manager) Search(query string, limit int) ([]index.Summary, error) {
	return m.index.Search(query, limit)
}

// Describe returns the documentation recorded for the magic name.
func (m *Manager) Describe(name string) (tooldoc.ToolDoc, error) {
	return m.docs.DescribeTool(toolID(name), tooldoc.DetailFull)
}

// Stdout returns the writer magics print to.
func (m *Manager) Stdout() io.Writer { return m.stdout }

// Stderr returns the writer magics report errors to.
func (m *Manager) Stderr() io.Writer { return m.stderr }

func (m *Manager) parse(code string) (Invocation, bool) {
	line, rest := firstLine(code)
	head := magicRe.FindString(line)
	if head == "" {
		return Invocation{}, false
	}
	inv := Invocation{
		Name:   strings.TrimLeft(head, "%"),
		Kind:   Line,
		Line:   strings.TrimSpace(line[len(head):]),
		Body:   rest,
		Stdout: m.stdout,
		Stderr: m.stderr,
	}
	if strings.HasPrefix(head, "%%") {
		inv.Kind = Cell
	}
	return inv, true
}

// firstLine returns the first non-blank line of code, trimmed of leading
// space, and everything after it.
func firstLine(code string) (string, string) {
	for code != "" {
		line, rest, _ := strings.Cut(code, "\n")
		if strings.TrimSpace(line) != "" {
			return strings.TrimLeft(strings.TrimRight(line, "\r"), " \t"), rest
		}
		code = rest
	}
	return "", ""
}

func toolID(name string) string {
	return Namespace + ":" + name
}
