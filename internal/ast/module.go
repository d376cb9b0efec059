package ast

import (
	"github.com/korelang/korec/internal/ident"
	"github.com/korelang/korec/internal/types"
)

// FuncID identifies a declared function within a Module.
type FuncID uint32

// Clause is one clause of a (possibly multi-clause) function
// definition: `fn classify(0) -> "zero"` and `fn classify(n) -> "nonzero"`
// are two Clauses sharing Function.Name. The canonicalizer synthesizes
// a single canonical function whose body is a match over a synthetic
// tuple of the parameters (§4.1, multi-clause function synthesis).
type Clause struct {
	// Patterns has one entry per parameter position. A plain (non
	// multi-clause) function's single implicit clause uses PatVar
	// patterns naming each parameter; a pattern-dispatched clause may
	// use any surface pattern (literals, variants, ...).
	Patterns []Pattern
	// Defaults pairs 1:1 with Patterns; InvalidExpr means "no default".
	Defaults []ExprID
	Guard    ExprID // InvalidExpr if unguarded
	Body     ExprID
}

// ParamNames extracts the declared parameter names for a clause whose
// patterns are all plain variable bindings — the common case for a
// function with a single, non pattern-dispatched clause. Call sites
// that need named-argument desugaring use this to recover declaration
// order; a clause using a non-Var pattern at some position has no
// stable "parameter name" at that position and callers must fall back
// to positional-only resolution.
func (c Clause) ParamNames() ([]ident.Name, bool) {
	names := make([]ident.Name, len(c.Patterns))
	for i, p := range c.Patterns {
		if p.Kind != PatVar {
			return nil, false
		}
		names[i] = p.Name
	}
	return names, true
}

// Function is a declared function, generic over zero or more clauses.
type Function struct {
	ID         FuncID
	Name       ident.Name
	ReturnType types.ID
	Receiver   types.ID // KindError if a free function
	Clauses    []Clause
}

// FieldDecl is one field of a declared struct type.
type FieldDecl struct {
	Name ident.Name
	Type types.ID
}

// VariantDecl is one case of a declared sum type.
type VariantDecl struct {
	Name   ident.Name
	Fields []FieldDecl
}

// TypeDecl is a declared struct or sum type.
type TypeDecl struct {
	Name     ident.Name
	ID       types.ID
	Fields   []FieldDecl   // populated for struct declarations
	Variants []VariantDecl // populated for sum declarations
	Derives  []string      // "compare", "equals", "hash", "clone"
}

// TraitDecl is a declared trait (method signatures only; no bodies).
type TraitDecl struct {
	Name    ident.Name
	Methods []ident.Name
}

// ImplDecl binds a trait (or inherent impl block, Trait == 0) to a type.
type ImplDecl struct {
	Trait     ident.Name
	Target    types.ID
	Functions []FuncID
}

// TypeTable is the read-only "every expression already has a checked
// type" result the typed AST hands the canonicalizer (§4.1, Input).
type TypeTable struct {
	byExpr map[ExprID]types.ID
}

// NewTypeTable builds a TypeTable from a flat id->type mapping.
func NewTypeTable(m map[ExprID]types.ID) *TypeTable {
	return &TypeTable{byExpr: m}
}

// TypeOf returns the resolved type of an expression, or the error type
// if the id was never recorded (should not happen for a well-formed
// type-check result).
func (t *TypeTable) TypeOf(id ExprID, pool *types.Pool) types.ID {
	if ty, ok := t.byExpr[id]; ok {
		return ty
	}
	return pool.Primitive(types.KindError)
}

// Module is the full typed-AST input to one canonicalization pass.
type Module struct {
	Exprs     []Expr
	Functions []Function
	Types     []TypeDecl
	Traits    []TraitDecl
	Impls     []ImplDecl
	TypeTable *TypeTable

	// Main, if set, names the module's entry-point function.
	Main FuncID
	HasMain bool
}

// Expr returns the node behind an id.
func (m *Module) Expr(id ExprID) *Expr {
	return &m.Exprs[id]
}
