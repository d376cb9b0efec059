// Package source carries the minimal position information the core
// needs to attach to canonical nodes and diagnostics. The lexer/parser
// that produce the richer concrete-syntax positions are out of scope;
// this package only defines the shape the typed AST hands in.
package source

import "fmt"

// Position is a single point in source text.
type Position struct {
	File   string
	Line   int // 1-based
	Column int // 1-based
	Offset int // 0-based byte offset
}

func (p Position) String() string {
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// Span is a half-open [Start, End) source range.
type Span struct {
	Start Position
	End   Position
}

func (s Span) String() string {
	if s.Start.Line == s.End.Line {
		return fmt.Sprintf("%s:%d:%d-%d", s.Start.File, s.Start.Line, s.Start.Column, s.End.Column)
	}
	return fmt.Sprintf("%s:%d:%d-%d:%d", s.Start.File, s.Start.Line, s.Start.Column, s.End.Line, s.End.Column)
}

// Zero reports whether the span carries no real location — used for
// synthesized nodes with no direct source counterpart (e.g. a
// desugared template-literal concatenation chain).
func (s Span) Zero() bool {
	return s.Start == Position{} && s.End == Position{}
}
