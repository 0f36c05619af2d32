// Package inspect turns engine-native completion candidates and type strings
// into display text, and extracts the expression under the cursor.
//
// Everything here is presentation only: it never touches execution state and
// never fails. Malformed input yields empty results.
package inspect

import (
	"regexp"
	"strings"
)

// rewrite is one textual rewrite rule.
type rewrite struct {
	re   *regexp.Regexp
	repl string
}

// rewrites are applied in order. Engines decorate candidates the way
// clang-style completers do: [#ret#] for result types and <#type name#> for
// parameter placeholders.
var rewrites = []rewrite{
	// result type decoration, for example [#int#]
	{regexp.MustCompile(`\[#.*#\]`), ""},
	// parameter name inside <#type name#>
	{regexp.MustCompile(`( |\*)+(\w+)(#>)`), "$1$3"},
	// padding before #>
	{regexp.MustCompile(` *(#>)`), "$1"},
	// <#type#> placeholder markers
	{regexp.MustCompile(`<#([^#>]*)#>`), "$1"},
}

// Rewrite strips completion decorations from one candidate.
func Rewrite(candidate string) string {
	s := candidate
	for _, r := range rewrites {
		s = r.re.ReplaceAllString(s, r.repl)
	}
	// Markers the rules above could not pair up.
	s = strings.ReplaceAll(s, "#>", "")
	s = strings.ReplaceAll(s, "<#", "")
	return s
}

// RewriteAll rewrites every candidate, dropping duplicates the rewrite
// produces while keeping the first occurrence's position.
func RewriteAll(candidates []string) []string {
	out := make([]string, 0, len(candidates))
	seen := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		r := Rewrite(c)
		if r == "" || seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}

// contextRe matches the trailing identifier chain before the cursor: an
// identifier optionally followed by scope, generic, call or index syntax,
// repeated with separating dots.
var contextRe = regexp.MustCompile(`(\w*(?:::|<.*>|\(.*\)|\[.*\])?\.?)*$`)

// CursorContext returns the expression chain that ends at cursor.
func CursorContext(code string, cursor int) string {
	return contextRe.FindString(code[:clamp(cursor, len(code))])
}

// delimiters separate completion tokens.
const delimiters = " \t\n`!@#$^&*()=+[{]}\\|;:'\",<>?."

// TokenAt returns the token that ends at cursor, the text a completion
// replaces.
func TokenAt(code string, cursor int) string {
	prefix := code[:clamp(cursor, len(code))]
	if i := strings.LastIndexAny(prefix, delimiters); i >= 0 {
		return prefix[i+1:]
	}
	return prefix
}

// Clamp bounds a cursor offset to [0, n].
func Clamp(cursor, n int) int {
	return clamp(cursor, n)
}

func clamp(cursor, n int) int {
	if cursor < 0 {
		return 0
	}
	if cursor > n {
		return n
	}
	return cursor
}
