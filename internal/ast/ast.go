// Package ast defines the typed surface AST the canonicalizer consumes.
// Producing this tree — lexing, parsing, name resolution, type
// inference — is out of scope for the core (§1); this package only
// fixes the shape of the external collaborator's output: expression
// nodes carrying enough sugar that the canonicalizer has real
// desugaring work to do, plus the read-only TypeTable that resolves
// every expression id to its checked type.
package ast

import (
	"github.com/korelang/korec/internal/ident"
	"github.com/korelang/korec/internal/source"
	"github.com/korelang/korec/internal/types"
)

// ExprID identifies an expression node within one Module's arena.
type ExprID uint32

// InvalidExpr is the sentinel for an absent optional child (no else
// branch, no default expression, ...).
const InvalidExpr ExprID = 0xFFFFFFFF

// Kind discriminates the surface expression variants. Several of these
// exist only to be desugared away during canonicalization (P1: no
// "sugar" node survives into CanonIR) — TemplateLit, NamedArgs on
// Call/MethodCall, and Spread elements on List/Map/Struct literals.
type Kind uint8

const (
	KindIntLit Kind = iota
	KindFloatLit
	KindBoolLit
	KindStringLit
	KindCharLit
	KindDurationLit
	KindSizeLit
	KindUnitLit
	KindTemplateLit // sugar: desugars to a chain of string concatenation

	KindIdent
	KindSelf
	KindFuncRef
	KindTypeRef   // bare type name used as an associated-function receiver: Duration::parse, MyEnum::default
	KindLenMarker // "#" inside an index expression: length-in-index marker

	KindBinary
	KindUnary
	KindCast

	KindCall       // positional or named (NamedArgs != nil) — named is sugar
	KindMethodCall // positional or named (NamedArgs != nil) — named is sugar

	KindField
	KindIndex

	KindIf
	KindMatch
	KindFor
	KindLoop
	KindBreak
	KindContinue

	KindBlock
	KindLet
	KindAssign

	KindLambda

	KindListLit   // may contain Spread elements — sugar
	KindTupleLit
	KindMapLit    // may contain Spread entries — sugar
	KindStructLit // may contain Spread fields — sugar
	KindRangeLit

	KindOk
	KindErr
	KindSome
	KindNone
	KindTry   // propagating `?`
	KindAwait
	KindWithCapability

	KindSpecialForm // print/panic/todo/unreachable/catch/recurse/cache/parallel/spawn/timeout/with

	KindRun     // sugar: Run{bindings, result} -> Block
	KindTryBlock // sugar: Try{bindings, result} -> Block, each binding wrapped in KindTry

	KindError // recovery placeholder
)

type BinaryOp uint8

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd
	OpOr
	OpConcat
)

type UnaryOp uint8

const (
	OpNeg UnaryOp = iota
	OpNot
)

// Arg is one call argument. Name is non-empty exactly for named-argument
// calls, which the canonicalizer must desugar to positional form by
// permuting against the callee's declared parameter order.
type Arg struct {
	Name  ident.Name
	Value ExprID
}

// ListItem is one element of a list literal; Spread marks `...expr`.
type ListItem struct {
	Value  ExprID
	Spread bool
}

// MapEntry is one key/value pair of a map literal; Spread marks a
// `...expr` entry that merges another map in.
type MapEntry struct {
	Key    ExprID // InvalidExpr when Spread
	Value  ExprID
	Spread bool
}

// FieldInit is one field of a struct literal; Spread marks `...expr`,
// which overlays the named fields onto a copy of the spread value.
type FieldInit struct {
	Name   ident.Name
	Value  ExprID // InvalidExpr when Spread
	Spread bool
}

// TemplatePart is one piece of a template (interpolated string) literal.
type TemplatePart struct {
	Text string // literal text; empty when Expr is set
	Expr ExprID // InvalidExpr when this part is plain text
}

// MatchArm is one arm of a match expression or a multi-clause function
// clause (seen by the canonicalizer as `match (params...) { ... }`).
type MatchArm struct {
	Pattern Pattern
	Guard   ExprID // InvalidExpr if no guard
	Body    ExprID
}

// Param is a function or lambda parameter.
type Param struct {
	Name    ident.Name
	Type    types.ID
	Default ExprID // InvalidExpr if no default
}

// NamedProp is one `name: value` property of a special form
// (`timeout(duration: 5s) { ... }`).
type NamedProp struct {
	Name  ident.Name
	Value ExprID
}

// Expr is one node of the surface AST arena.
type Expr struct {
	Kind Kind
	Span source.Span
	Type types.ID // resolved type, looked up from the type-check result

	// Literal payloads — exactly one populated, per Kind.
	IntValue    int64
	FloatValue  float64
	BoolValue   bool
	StringValue string
	CharValue   rune
	DurationSrc string // raw spelling, parsed by value.ParseDuration
	SizeSrc     string

	Name    ident.Name // KindIdent, KindField (field name), KindFuncRef, KindTypeRef
	BinOp   BinaryOp
	UnOp    UnaryOp

	// Children — meaning depends on Kind; unused ones stay InvalidExpr/nil.
	A, B, C ExprID
	Args    []Arg
	Exprs   []ExprID
	Items   []ListItem
	Entries []MapEntry
	Fields  []FieldInit
	Parts   []TemplatePart
	Arms    []MatchArm
	Params  []Param
	Props   []NamedProp
	Stmts   []Stmt

	CastTargetName string // Cast: target type's declared spelling
	CastFallible   bool

	SpecialKind  string // KindSpecialForm: "print", "panic", "parallel", ...
	CapabilityName string // KindWithCapability

	ForBinding Pattern
	ForGuard   ExprID
	ForYield   bool
	Label      string

	LoopLabel string
}

// Stmt is one statement inside a Block.
type Stmt struct {
	IsLet     bool
	Pattern   Pattern // valid when IsLet
	Mutable   bool
	Init      ExprID // valid when IsLet
	ExprStmt  ExprID // valid when !IsLet
}

// PatternKind discriminates surface match/binding patterns.
type PatternKind uint8

const (
	PatWildcard PatternKind = iota
	PatVar
	PatLiteral  // an integer/string/bool/char literal test
	PatTuple
	PatStruct
	PatList     // fixed-prefix elements plus an optional rest binding
	PatVariant  // Some(p) / None / Ok(p) / Err(p) / MyEnum.Case(p...)
	PatRange    // a..=b style range containment
	PatOr       // p1 | p2 (alternation)
)

// FieldPattern destructures one named field of a struct pattern.
type FieldPattern struct {
	Name ident.Name
	Sub  Pattern
}

// Pattern is a surface pattern: the input to pattern-matrix compilation
// (§4.1.1) for match arms, and — restricted to Wildcard/Var/Tuple/
// Struct/List — the input to a plain destructuring let/for/parameter
// binding.
type Pattern struct {
	Kind PatternKind
	Span source.Span

	Name ident.Name // PatVar

	Literal Lit // PatLiteral

	Elems []Pattern      // PatTuple, PatList (fixed prefix), PatOr alternatives
	Rest  *ident.Name    // PatList: name bound to the remaining tail, nil if none
	Fields []FieldPattern // PatStruct

	TypeName ident.Name // PatVariant: declaring type, empty for Option/Result
	Ctor     string     // PatVariant: "Some"/"None"/"Ok"/"Err"/a declared case name
	Tag      int        // PatVariant: resolved tag, assigned by the type checker/canonicalizer
	Payload  []Pattern  // PatVariant: constructor arguments

	RangeLow       Lit  // PatRange
	RangeHigh      Lit  // PatRange
	RangeInclusive bool // PatRange
}

// Lit is a literal value appearing directly in a pattern (kept distinct
// from ast.Expr so pattern compilation doesn't need a full expression).
type Lit struct {
	Kind  LitKind
	Int   int64
	Str   string
	Bool  bool
	Char  rune
}

type LitKind uint8

const (
	LitInt LitKind = iota
	LitString
	LitBool
	LitChar
)
