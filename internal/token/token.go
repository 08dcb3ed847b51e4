package token

import "fmt"

// Token records where a program element came from. Every AST node carries
// one; diagnostics point at it.
type Token struct {
	Lexeme string // the raw text of the token, if any
	File   string // source file path
	Line   int    // 1-based
	Column int    // 1-based
}

// IsZero reports whether the token carries no position (synthesized nodes).
func (t Token) IsZero() bool {
	return t.Line == 0 && t.Column == 0 && t.File == ""
}

func (t Token) String() string {
	if t.IsZero() {
		return "<unknown>"
	}
	if t.File == "" {
		return fmt.Sprintf("%d:%d", t.Line, t.Column)
	}
	return fmt.Sprintf("%s:%d:%d", t.File, t.Line, t.Column)
}

// Before orders tokens by source position, file first. Used to emit
// diagnostics in source order.
func (t Token) Before(other Token) bool {
	if t.File != other.File {
		return t.File < other.File
	}
	if t.Line != other.Line {
		return t.Line < other.Line
	}
	return t.Column < other.Column
}
