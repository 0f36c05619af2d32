package split

import (
	"go/scanner"
	"go/token"
	"strings"
)

// Completeness classifies a submission before it is executed.
type Completeness string

const (
	// Complete input can be executed as is.
	Complete Completeness = "complete"

	// Incomplete input needs more lines: open brackets, an unterminated raw
	// string or comment, or a trailing operator.
	Incomplete Completeness = "incomplete"

	// Invalid input can never become valid by appending lines.
	Invalid Completeness = "invalid"
)

// Check examines code and returns its completeness along with the bracket
// depth still open at the end of the input.
func Check(code string) (Completeness, int) {
	src := []byte(code)
	fset := token.NewFileSet()
	file := fset.AddFile("", fset.Base(), len(src))

	var errs []string
	var s scanner.Scanner
	s.Init(file, src, func(_ token.Position, msg string) {
		errs = append(errs, msg)
	}, 0)

	depth := 0
	last := token.ILLEGAL
	for {
		_, tok, lit := s.Scan()
		if tok == token.EOF {
			break
		}
		switch tok {
		case token.LPAREN, token.LBRACE, token.LBRACK:
			depth++
		case token.RPAREN, token.RBRACE, token.RBRACK:
			depth--
			if depth < 0 {
				return Invalid, 0
			}
		}
		if tok == token.SEMICOLON && lit == "\n" {
			continue
		}
		last = tok
	}

	for _, msg := range errs {
		if strings.Contains(msg, "raw string literal not terminated") ||
			strings.Contains(msg, "comment not terminated") {
			return Incomplete, depth
		}
	}
	if len(errs) > 0 {
		return Invalid, depth
	}
	if depth > 0 || continuesLine(last) {
		return Incomplete, depth
	}
	return Complete, 0
}

// continuesLine reports whether a line ending in tok must be continued.
func continuesLine(tok token.Token) bool {
	if tok.Precedence() > 0 {
		return true
	}
	switch tok {
	case token.COMMA, token.PERIOD, token.ASSIGN, token.DEFINE, token.ARROW,
		token.ADD_ASSIGN, token.SUB_ASSIGN, token.MUL_ASSIGN, token.QUO_ASSIGN,
		token.REM_ASSIGN, token.AND_ASSIGN, token.OR_ASSIGN, token.XOR_ASSIGN,
		token.SHL_ASSIGN, token.SHR_ASSIGN, token.AND_NOT_ASSIGN:
		return true
	}
	return false
}
