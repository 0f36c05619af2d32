// Package split decomposes one notebook submission into independently
// compilable fragments.
//
// An incremental interpreter accepts a new import declaration only as a
// self-contained unit, so every import declaration is isolated as its own
// fragment and the statements around it are grouped into fragments of their
// own. Concatenating the fragments in order reconstructs an equivalent
// submission.
package split

import (
	"go/scanner"
	"go/token"
	"strings"
)

// IsDirective reports whether line begins an import declaration.
func IsDirective(line string) bool {
	l := newLexer(line)
	_, tok, _ := l.next()
	if tok != token.IMPORT {
		return false
	}
	_, ok := l.importEnd()
	return ok
}

// Split returns the ordered fragments of code. The result is never empty:
// input without any non-blank content yields a single fragment holding the
// trimmed input.
//
// Import declarations are found by lexing, so text inside string literals
// and comments is never mistaken for a directive. A directive ends at its
// closing quote or parenthesis, plus an optional ";" and a trailing line
// comment; anything after it on the same line starts the next fragment.
// Fragments holding nothing but comments are dropped.
func Split(code string) []string {
	var fragments []string
	add := func(frag string) {
		if frag = strings.TrimSpace(frag); frag != "" && !commentOnly(frag) {
			fragments = append(fragments, frag)
		}
	}

	l := newLexer(code)
	start, depth := 0, 0
	for {
		off, tok, _ := l.next()
		if tok == token.EOF {
			break
		}
		switch tok {
		case token.LPAREN, token.LBRACE, token.LBRACK:
			depth++
		case token.RPAREN, token.RBRACE, token.RBRACK:
			depth--
		case token.IMPORT:
			if depth != 0 {
				continue
			}
			end, ok := l.importEnd()
			if !ok {
				continue
			}
			end = extendLine(code, end)
			add(code[start:off])
			add(code[off:end])
			start = end
		}
	}
	add(code[start:])

	if len(fragments) == 0 {
		return []string{strings.TrimSpace(code)}
	}
	return fragments
}

// lexer wraps go/scanner with byte offsets. Comments are skipped and
// scanning errors are ignored: the interpreter reports them later.
type lexer struct {
	s    scanner.Scanner
	file *token.File
	size int
}

func newLexer(code string) *lexer {
	src := []byte(code)
	fset := token.NewFileSet()
	l := &lexer{file: fset.AddFile("", fset.Base(), len(src)), size: len(src)}
	l.s.Init(l.file, src, nil, 0)
	return l
}

func (l *lexer) next() (int, token.Token, string) {
	pos, tok, lit := l.s.Scan()
	return l.file.Offset(pos), tok, lit
}

// importEnd consumes the rest of an import declaration whose keyword was
// just scanned and returns the offset just past it. It reports false when
// the keyword is not followed by an import spec or block.
func (l *lexer) importEnd() (int, bool) {
	off, tok, lit := l.next()
	if tok == token.IDENT || tok == token.PERIOD {
		off, tok, lit = l.next()
	}
	switch tok {
	case token.STRING:
		return off + len(lit), true
	case token.LPAREN:
		for depth := 1; ; {
			off, tok, _ = l.next()
			switch tok {
			case token.LPAREN:
				depth++
			case token.RPAREN:
				depth--
				if depth == 0 {
					return off + 1, true
				}
			case token.EOF:
				return l.size, true
			}
		}
	}
	return 0, false
}

// extendLine moves end past an optional ";" and over the rest of the line
// when only blanks or a line comment remain on it.
func extendLine(code string, end int) int {
	i := end
	for i < len(code) && (code[i] == ' ' || code[i] == '\t') {
		i++
	}
	if i < len(code) && code[i] == ';' {
		i++
		end = i
	}
	rest := code[i:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[:nl]
	}
	if trimmed := strings.TrimSpace(rest); trimmed == "" || strings.HasPrefix(trimmed, "//") {
		return i + len(rest)
	}
	return end
}

// commentOnly reports whether frag holds no tokens besides comments.
func commentOnly(frag string) bool {
	l := newLexer(frag)
	for {
		_, tok, lit := l.next()
		switch {
		case tok == token.EOF:
			return true
		case tok == token.SEMICOLON && lit == "\n":
		default:
			return false
		}
	}
}

// EndsWithTerminator reports whether the trimmed fragment ends in a
// statement terminator, which suppresses display of its value.
func EndsWithTerminator(fragment string) bool {
	return strings.HasSuffix(strings.TrimSpace(fragment), ";")
}
