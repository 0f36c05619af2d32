package yaegiengine

import (
	"go/scanner"
	"go/token"
	"strings"
)

// lexeme is one scanned token with its byte offset.
type lexeme struct {
	off int
	tok token.Token
	lit string
}

// declUnits splits src into runs of top-level declarations and runs of
// statements, in source order. The interpreter only accepts function and
// method declarations in a unit of their own, so a source mixing them with
// statements is evaluated unit by unit. Input that does not mix them, or
// that does not scan cleanly with balanced brackets, is returned whole.
func declUnits(src string) []string {
	lexemes, ok := scan(src)
	if !ok {
		return []string{src}
	}

	type unit struct {
		start, end int
		decl       bool
	}
	var units []unit
	push := func(start, end int, decl bool) {
		if strings.TrimSpace(src[start:end]) == "" {
			return
		}
		if n := len(units); n > 0 && units[n-1].decl == decl {
			units[n-1].end = end
			return
		}
		units = append(units, unit{start: start, end: end, decl: decl})
	}

	depth, first := 0, 0
	for i, lx := range lexemes {
		switch lx.tok {
		case token.LPAREN, token.LBRACE, token.LBRACK:
			depth++
		case token.RPAREN, token.RBRACE, token.RBRACK:
			depth--
		case token.SEMICOLON, token.EOF:
			if depth != 0 {
				continue
			}
			if i > first {
				end := lx.off
				if lx.lit == ";" {
					end++
				}
				push(lexemes[first].off, end, isDecl(lexemes[first:i]))
			}
			first = i + 1
		}
	}

	if len(units) < 2 {
		return []string{src}
	}
	out := make([]string, len(units))
	for i, u := range units {
		start := u.start
		if i == 0 {
			start = 0
		}
		out[i] = strings.TrimSpace(src[start:u.end])
	}
	return out
}

// scan tokenizes src. It reports false on scanning errors or unbalanced
// brackets.
func scan(src string) ([]lexeme, bool) {
	b := []byte(src)
	fset := token.NewFileSet()
	file := fset.AddFile("", fset.Base(), len(b))

	var s scanner.Scanner
	s.Init(file, b, nil, 0)

	var lexemes []lexeme
	depth := 0
	for {
		pos, tok, lit := s.Scan()
		lexemes = append(lexemes, lexeme{off: file.Offset(pos), tok: tok, lit: lit})
		switch tok {
		case token.LPAREN, token.LBRACE, token.LBRACK:
			depth++
		case token.RPAREN, token.RBRACE, token.RBRACK:
			depth--
			if depth < 0 {
				return nil, false
			}
		case token.EOF:
			return lexemes, s.ErrorCount == 0 && depth == 0
		}
	}
}

// isDecl reports whether the statement made of lexemes is a declaration
// that must live at package level: a function, a method, a type or an
// import. Function literals are statements.
func isDecl(lexemes []lexeme) bool {
	switch lexemes[0].tok {
	case token.TYPE, token.IMPORT:
		return true
	case token.FUNC:
	default:
		return false
	}
	if len(lexemes) < 2 {
		return false
	}
	if lexemes[1].tok == token.IDENT {
		return true
	}
	if lexemes[1].tok != token.LPAREN {
		return false
	}

	// A receiver list followed by a name and a parameter list is a method;
	// anything else is a function literal.
	depth := 0
	for i := 1; i < len(lexemes); i++ {
		switch lexemes[i].tok {
		case token.LPAREN:
			depth++
		case token.RPAREN:
			depth--
			if depth == 0 {
				return i+2 < len(lexemes) &&
					lexemes[i+1].tok == token.IDENT &&
					lexemes[i+2].tok == token.LPAREN
			}
		}
	}
	return false
}
