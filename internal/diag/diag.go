// Package diag is the compiler's structured diagnostic type (§6.3): an
// error code, a primary source span, a human-readable message, and zero
// or more "did you mean" suggestions. User errors accumulate in a Bag
// attached to a pass's result rather than aborting the pipeline (§7) —
// internal/invariant's panic-on-violation assertions are the other half
// of that split, reserved for bugs in the core itself rather than
// problems in the program being compiled.
package diag

import (
	"fmt"
	"strings"

	"github.com/korelang/korec/internal/source"
)

// Code is a stable enum identifying a diagnostic's category. New codes
// are appended, never renumbered, so a serialized diagnostic stays
// meaningful across compiler versions.
type Code uint32

const (
	CodeUnknown Code = iota
	CodeUnresolvedIdent
	CodeUnresolvedField
	CodeUnresolvedMethod
	CodeUnresolvedCapability
	CodeArityMismatch
	CodeMissingArgument
	CodeNonExhaustiveMatch
	CodeRedundantArm
	CodeInvalidCast
	CodeDivisionByZero
)

func (c Code) String() string {
	switch c {
	case CodeUnresolvedIdent:
		return "unresolved-ident"
	case CodeUnresolvedField:
		return "unresolved-field"
	case CodeUnresolvedMethod:
		return "unresolved-method"
	case CodeUnresolvedCapability:
		return "unresolved-capability"
	case CodeArityMismatch:
		return "arity-mismatch"
	case CodeMissingArgument:
		return "missing-argument"
	case CodeNonExhaustiveMatch:
		return "non-exhaustive-match"
	case CodeRedundantArm:
		return "redundant-arm"
	case CodeInvalidCast:
		return "invalid-cast"
	case CodeDivisionByZero:
		return "division-by-zero"
	default:
		return "unknown"
	}
}

// Diagnostic is one user-facing problem report (§6.3).
type Diagnostic struct {
	Code        Code
	Span        source.Span
	Message     string
	Suggestions []string
}

// Error satisfies the standard error interface so a Diagnostic can be
// returned from a function signature that still expects one (a pass
// boundary before it's fully threaded onto a Bag, for instance),
// without needing a second wrapper type.
func (d Diagnostic) Error() string {
	return d.String()
}

// String renders a diagnostic the way the teacher's ParseError.Error
// does: code, message, location, then any suggestions — minus the
// source-line snippet, since nothing upstream of this package retains
// the original source text (§6.1, the typed AST is the only input).
func (d Diagnostic) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s", d.Code, d.Message)
	if !d.Span.Zero() {
		fmt.Fprintf(&sb, "\n  --> %s", d.Span)
	}
	for _, s := range d.Suggestions {
		fmt.Fprintf(&sb, "\n  = did you mean %q?", s)
	}
	return sb.String()
}

// Bag accumulates diagnostics across a whole compilation (§7: "user
// errors accumulate in a Vec<Diagnostic> attached to the result; the
// pipeline still produces usable IR with Error nodes where types
// failed"). A nil *Bag is valid and silently drops every Add, so a pass
// that doesn't care about diagnostics can pass one through unchecked.
type Bag struct {
	items []Diagnostic
}

// NewBag returns an empty diagnostic accumulator.
func NewBag() *Bag { return &Bag{} }

// Add appends one diagnostic.
func (b *Bag) Add(d Diagnostic) {
	if b == nil {
		return
	}
	b.items = append(b.items, d)
}

// Addf builds and appends a diagnostic in one call.
func (b *Bag) Addf(code Code, span source.Span, format string, args ...interface{}) {
	b.Add(Diagnostic{Code: code, Span: span, Message: fmt.Sprintf(format, args...)})
}

// Items returns every diagnostic added so far, in insertion order —
// which, per the ordering guarantee in §5, is declaration order for
// diagnostics produced while walking user-declared items.
func (b *Bag) Items() []Diagnostic {
	if b == nil {
		return nil
	}
	return b.items
}

// HasErrors reports whether anything was ever added.
func (b *Bag) HasErrors() bool {
	return b != nil && len(b.items) > 0
}

// Merge appends another bag's diagnostics onto b, leaving other
// unchanged — used to fold a sub-pass's diagnostics (a method body's
// pattern-matrix problems, say) into the enclosing compilation's bag.
func (b *Bag) Merge(other *Bag) {
	if other == nil {
		return
	}
	b.items = append(b.items, other.items...)
}
