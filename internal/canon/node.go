// Package canon implements the Canonicalizer (§4.1): the pass that
// walks a typed surface AST and emits CanonIR, a sugar-free,
// type-annotated intermediate form with pre-compiled pattern decision
// trees and an interned constant pool (§3.1).
package canon

import (
	"github.com/korelang/korec/internal/ast"
	"github.com/korelang/korec/internal/constpool"
	"github.com/korelang/korec/internal/ident"
	"github.com/korelang/korec/internal/pattern"
	"github.com/korelang/korec/internal/source"
	"github.com/korelang/korec/internal/types"
)

// NodeId indexes the canonical arena's parallel arrays.
type NodeId uint32

// InvalidNode denotes an absent optional child (no else branch, no
// default expression, an omitted label, ...).
const InvalidNode NodeId = 0xFFFFFFFF

// Range is a flat-array slice reference: (start, len). Capping len at
// 16 bits bounds any single aggregate at 65 535 elements (§9); the RC
// inserter's arena-overflow assertion lives in internal/invariant.
type Range struct {
	Start uint32
	Len   uint16
}

// Kind discriminates the 45 CanonIR node variants (§3.1).
type Kind uint8

const (
	// Literals (8)
	KindIntLit Kind = iota
	KindFloatLit
	KindBoolLit
	KindStringLit
	KindCharLit
	KindDurationLit
	KindSizeLit
	KindUnitLit

	// References (5) + folded constant (1)
	KindIdent
	KindSelf
	KindFuncRef
	// KindTypeRef is a pre-resolved reference to a declared type, used
	// only as an associated-function receiver (`Duration::parse(s)`,
	// `Size::from_bytes(n)`, `MyEnum::default()`). The canonicalizer
	// resolves the name once, here, against the type table it already
	// has on hand — the evaluator and native backends must never
	// re-resolve a bare name against a type namespace at run time.
	KindTypeRef
	KindLenMarker
	KindConstant

	// Operators (3)
	KindBinary
	KindUnary
	KindCast

	// Calls (2)
	KindCall
	KindMethodCall

	// Access (2)
	KindField
	KindIndex

	// Control flow (6)
	KindIf
	KindMatch
	KindFor
	KindLoop
	KindBreak
	KindContinue

	// Bindings (3)
	KindBlock
	KindLet
	KindAssign

	// Functions (1)
	KindLambda

	// Collections (5)
	KindList
	KindTuple
	KindMap
	KindStruct
	KindRange

	// Algebraic (7)
	KindOk
	KindErr
	KindSome
	KindNone
	KindTry
	KindAwait
	KindWithCapability

	// Special form (1)
	KindSpecialForm

	// Error (1)
	KindError
)

// Payload carries the per-kind fields not promoted into their own
// parallel array. Splitting every one of the 45 variants into its own
// array would eliminate the remaining false sharing but at a
// complexity cost out of proportion to this implementation; Kind,
// Span, and Type are the three arrays called out explicitly by §3.1
// and §9 ("a pass ignoring spans... only touches two of three memory
// streams"), since those are the fields nearly every pass reads.
type Payload struct {
	Int   int64
	Float float64
	Bool  bool
	Str   string
	Char  rune

	DurationNanos int64
	DurationUnit  uint8
	SizeBytes     int64
	SizeUnit      uint8

	Name     ident.Name
	ConstRef constpool.Ref

	BinOp ast.BinaryOp
	UnOp  ast.UnaryOp

	CastTargetName string
	CastFallible   bool

	A, B, C NodeId // generic children: binary operands, if cond/then/else, cast operand, etc.

	Exprs   Range // expr-list: call/method args, list/tuple elements, block statements
	Entries Range // map key/value entries
	Fields  Range // struct fields
	Params  Range // lambda parameters
	Arms    Range // match/for arm body ids

	Pattern BindingPatternId
	Tree    pattern.TreeID

	ForGuard NodeId
	ForYield bool

	Label          string
	CapabilityName string
	SpecialKind    string
	Props          Range
}

// Arena is the struct-of-arrays CanonIR store (§3.1, §9).
type Arena struct {
	Kinds    []Kind
	Spans    []source.Span
	Types    []types.ID
	Payloads []Payload

	Exprs         []NodeId
	MapEntries    []MapEntry
	StructFields  []StructField
	BindingPats   []BindingPattern
	PatternElems  []BindingPatternId
	FieldBindings []FieldBinding
	Params        []Param
	NamedExprs    []NamedExpr
}

// MapEntry is one (key, value) pair of a map-literal entry range.
type MapEntry struct {
	Key   NodeId
	Value NodeId
}

// StructField is one (name, value) pair of a struct-literal field range.
type StructField struct {
	Name  ident.Name
	Value NodeId
}

// BindingPatternId indexes Arena.BindingPats.
type BindingPatternId uint32

// InvalidBindingPattern denotes an absent binding (e.g. no rest name).
const InvalidBindingPattern BindingPatternId = 0xFFFFFFFF

// BindingPatternKind discriminates the let/for/lambda destructuring
// pattern language (§3.1 "Binding pattern (Name|Wildcard|Tuple|Struct|
// List + rest binding)") — deliberately narrower than the full match
// pattern language, which lives in internal/pattern/compile.go as a
// canonicalizer input, not a CanonIR node.
type BindingPatternKind uint8

const (
	BindName BindingPatternKind = iota
	BindWildcard
	BindTuple
	BindStruct
	BindList
)

// BindingPattern is one node of the flat binding-pattern arena.
type BindingPattern struct {
	Kind  BindingPatternKind
	Name  ident.Name // BindName
	Elems Range       // BindTuple, BindList fixed prefix: range into PatternElems
	Rest  ident.Name  // BindList: bound to the remaining tail; ident.Name(0) (empty) if none
	HasRest bool
	Fields Range // BindStruct: range into FieldBindings
}

// FieldBinding maps a struct field name to its sub binding-pattern.
type FieldBinding struct {
	Name    ident.Name
	Pattern BindingPatternId
}

// Param is a canonical function/lambda parameter: a name plus an
// optional default-expression id.
type Param struct {
	Name    ident.Name
	Default NodeId // InvalidNode if no default
}

// NamedExpr is a (name, value) pair used by special forms' named
// props (`timeout(duration: 5s) { ... }`).
type NamedExpr struct {
	Name  ident.Name
	Value NodeId
}

// New creates an empty Arena pre-sized at 1.25x estimatedExprCount
// (§4.1, "Allocation pre-sizing").
func New(estimatedExprCount int) *Arena {
	cap := int(float64(estimatedExprCount) * 1.25)
	if cap < 8 {
		cap = 8
	}
	return &Arena{
		Kinds:    make([]Kind, 0, cap),
		Spans:    make([]source.Span, 0, cap),
		Types:    make([]types.ID, 0, cap),
		Payloads: make([]Payload, 0, cap),
	}
}

// Push appends one node, returning its NodeId.
func (a *Arena) Push(kind Kind, span source.Span, typ types.ID, payload Payload) NodeId {
	id := NodeId(len(a.Kinds))
	a.Kinds = append(a.Kinds, kind)
	a.Spans = append(a.Spans, span)
	a.Types = append(a.Types, typ)
	a.Payloads = append(a.Payloads, payload)
	return id
}

// PushExprs appends a slice of NodeIds to the flat expr-list arena and
// returns a Range referencing them.
func (a *Arena) PushExprs(ids []NodeId) Range {
	start := uint32(len(a.Exprs))
	a.Exprs = append(a.Exprs, ids...)
	return Range{Start: start, Len: uint16(len(ids))}
}

// ExprRange returns the NodeIds referenced by r.
func (a *Arena) ExprRange(r Range) []NodeId {
	return a.Exprs[r.Start : r.Start+uint32(r.Len)]
}
