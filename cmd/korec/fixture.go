package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/korelang/korec/internal/ast"
	"github.com/korelang/korec/internal/ident"
	"github.com/korelang/korec/internal/types"
)

// fixture is the CLI's on-disk module format. Lexing, parsing, and
// type inference are all out of scope for this module (internal/ast's
// own package doc says as much), so a fixture plays the part a real
// frontend would otherwise fill: it is an already-resolved module —
// every expression names its operand indices and every identifier's
// declared type explicitly — rather than concrete source syntax. The
// canon/check/watch subcommands exist to drive the canonicalizer,
// diagnostics, and evaluator end to end; this format exists only to
// give them something to drive without writing a lexer.
type fixture struct {
	Exprs     []fixtureExpr     `json:"exprs"`
	Functions []fixtureFunction `json:"functions"`
	Main      string            `json:"main"`
}

type fixtureExpr struct {
	Kind string `json:"kind"`

	Int    int64   `json:"int,omitempty"`
	Float  float64 `json:"float,omitempty"`
	Bool   bool    `json:"bool,omitempty"`
	String string  `json:"string,omitempty"`
	Name   string  `json:"name,omitempty"`

	Op string `json:"op,omitempty"`

	A int `json:"a"`
	B int `json:"b"`
	C int `json:"c"`

	Lets   []fixtureLet `json:"lets,omitempty"`
	Result int          `json:"result"`
}

type fixtureLet struct {
	Name string `json:"name"`
	Init int    `json:"init"`
}

type fixtureParam struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type fixtureFunction struct {
	Name   string         `json:"name"`
	Params []fixtureParam `json:"params"`
	Body   int            `json:"body"`
}

// noChild marks an unused A/B/C index; fixture files always supply -1
// explicitly rather than relying on JSON's zero-value default, since 0
// is a valid expression index.
const noChild = -1

func loadFixture(path string) (*fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fixture: reading %s: %w", path, err)
	}
	var f fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("fixture: parsing %s: %w", path, err)
	}
	return &f, nil
}

// buildModule type-infers and lowers a fixture into a real ast.Module,
// ready for canon.Canonicalize. Inference is a single linear pass over
// Exprs: every operand of node i is required to be an index < i, so
// each node's type is already known by the time it's visited.
func buildModule(f *fixture) (*ast.Module, *ident.Interner, *types.Pool, error) {
	interner := ident.New()
	pool := types.NewPool(interner)

	exprs := make([]ast.Expr, len(f.Exprs))
	exprTypes := make(map[ast.ExprID]types.ID, len(f.Exprs))
	scope := map[string]types.ID{}

	// Seed every function parameter's declared type up front: a
	// function body can reference its own parameters at any expr
	// index, and those references must resolve before the body's
	// index is reached by the linear inference pass below.
	for _, ff := range f.Functions {
		for _, p := range ff.Params {
			ty, err := parseTypeName(pool, p.Type)
			if err != nil {
				return nil, nil, nil, fmt.Errorf("fixture: function %s param %s: %w", ff.Name, p.Name, err)
			}
			scope[p.Name] = ty
		}
	}

	for i, fe := range f.Exprs {
		id := ast.ExprID(i)
		e, typ, err := lowerFixtureExpr(interner, pool, exprTypes, scope, fe, i)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("fixture: expr %d: %w", i, err)
		}
		exprs[i] = e
		exprTypes[id] = typ
	}

	mod := &ast.Module{
		Exprs:     exprs,
		TypeTable: ast.NewTypeTable(exprTypes),
	}

	for _, ff := range f.Functions {
		fn, err := buildFixtureFunction(interner, pool, ff, exprTypes)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("fixture: function %s: %w", ff.Name, err)
		}
		fn.ID = ast.FuncID(len(mod.Functions))
		mod.Functions = append(mod.Functions, fn)
		if ff.Name == f.Main {
			mod.Main = fn.ID
			mod.HasMain = true
		}
	}

	return mod, interner, pool, nil
}

func buildFixtureFunction(interner *ident.Interner, pool *types.Pool, ff fixtureFunction, exprTypes map[ast.ExprID]types.ID) (ast.Function, error) {
	if ff.Body < 0 || ff.Body >= len(exprTypes) {
		return ast.Function{}, fmt.Errorf("body index %d out of range", ff.Body)
	}
	patterns := make([]ast.Pattern, len(ff.Params))
	for i, p := range ff.Params {
		patterns[i] = ast.Pattern{Kind: ast.PatVar, Name: interner.Intern(p.Name)}
		// The body was already type-inferred under the assumption that
		// each param name maps to its declared type (see scope seeding
		// in buildModule) — nothing further to do here besides
		// naming the parameter.
	}
	defaults := make([]ast.ExprID, len(ff.Params))
	for i := range defaults {
		defaults[i] = ast.InvalidExpr
	}
	returnType := exprTypes[ast.ExprID(ff.Body)]
	return ast.Function{
		Name:       interner.Intern(ff.Name),
		ReturnType: returnType,
		Receiver:   pool.Primitive(types.KindError),
		Clauses: []ast.Clause{
			{Patterns: patterns, Defaults: defaults, Guard: ast.InvalidExpr, Body: ast.ExprID(ff.Body)},
		},
	}, nil
}

func parseTypeName(pool *types.Pool, name string) (types.ID, error) {
	switch name {
	case "int":
		return pool.Primitive(types.KindInt), nil
	case "float":
		return pool.Primitive(types.KindFloat), nil
	case "bool":
		return pool.Primitive(types.KindBool), nil
	case "string":
		return pool.Primitive(types.KindString), nil
	case "unit", "":
		return pool.Primitive(types.KindUnit), nil
	default:
		return 0, fmt.Errorf("unknown type name %q", name)
	}
}

var binaryOps = map[string]ast.BinaryOp{
	"add": ast.OpAdd, "sub": ast.OpSub, "mul": ast.OpMul, "div": ast.OpDiv, "mod": ast.OpMod,
	"eq": ast.OpEq, "ne": ast.OpNe, "lt": ast.OpLt, "le": ast.OpLe, "gt": ast.OpGt, "ge": ast.OpGe,
	"and": ast.OpAnd, "or": ast.OpOr, "concat": ast.OpConcat,
}

var comparisonOps = map[string]bool{
	"eq": true, "ne": true, "lt": true, "le": true, "gt": true, "ge": true, "and": true, "or": true,
}

var unaryOps = map[string]ast.UnaryOp{"neg": ast.OpNeg, "not": ast.OpNot}

// lowerFixtureExpr builds the ast.Expr for one fixture node and infers
// its type, consulting exprTypes for already-visited operands (always
// true by construction: every A/B/C/Lets[].Init/Result index in a
// well-formed fixture is less than the node's own index) and scope for
// ident references (function parameters, and names bound by an
// enclosing block's let statements).
func lowerFixtureExpr(interner *ident.Interner, pool *types.Pool, exprTypes map[ast.ExprID]types.ID, scope map[string]types.ID, fe fixtureExpr, index int) (ast.Expr, types.ID, error) {
	typeOf := func(i int) types.ID { return exprTypes[ast.ExprID(i)] }

	switch fe.Kind {
	case "int":
		return ast.Expr{Kind: ast.KindIntLit, IntValue: fe.Int}, pool.Primitive(types.KindInt), nil
	case "float":
		return ast.Expr{Kind: ast.KindFloatLit, FloatValue: fe.Float}, pool.Primitive(types.KindFloat), nil
	case "bool":
		return ast.Expr{Kind: ast.KindBoolLit, BoolValue: fe.Bool}, pool.Primitive(types.KindBool), nil
	case "string":
		return ast.Expr{Kind: ast.KindStringLit, StringValue: fe.String}, pool.Primitive(types.KindString), nil

	case "ident":
		ty, ok := scope[fe.Name]
		if !ok {
			return ast.Expr{}, 0, fmt.Errorf("undeclared identifier %q", fe.Name)
		}
		return ast.Expr{Kind: ast.KindIdent, Name: interner.Intern(fe.Name)}, ty, nil

	case "binary":
		op, ok := binaryOps[fe.Op]
		if !ok {
			return ast.Expr{}, 0, fmt.Errorf("unknown binary op %q", fe.Op)
		}
		resultTy := typeOf(fe.A)
		if comparisonOps[fe.Op] {
			resultTy = pool.Primitive(types.KindBool)
		}
		return ast.Expr{Kind: ast.KindBinary, BinOp: op, A: ast.ExprID(fe.A), B: ast.ExprID(fe.B)}, resultTy, nil

	case "unary":
		op, ok := unaryOps[fe.Op]
		if !ok {
			return ast.Expr{}, 0, fmt.Errorf("unknown unary op %q", fe.Op)
		}
		resultTy := typeOf(fe.A)
		if op == ast.OpNot {
			resultTy = pool.Primitive(types.KindBool)
		}
		return ast.Expr{Kind: ast.KindUnary, UnOp: op, A: ast.ExprID(fe.A)}, resultTy, nil

	case "if":
		c := ast.InvalidExpr
		if fe.C != noChild {
			c = ast.ExprID(fe.C)
		}
		return ast.Expr{Kind: ast.KindIf, A: ast.ExprID(fe.A), B: ast.ExprID(fe.B), C: c}, typeOf(fe.B), nil

	case "block":
		stmts := make([]ast.Stmt, 0, len(fe.Lets)+1)
		for _, l := range fe.Lets {
			scope[l.Name] = typeOf(l.Init)
			stmts = append(stmts, ast.Stmt{
				IsLet:   true,
				Pattern: ast.Pattern{Kind: ast.PatVar, Name: interner.Intern(l.Name)},
				Init:    ast.ExprID(l.Init),
			})
		}
		stmts = append(stmts, ast.Stmt{ExprStmt: ast.ExprID(fe.Result)})
		return ast.Expr{Kind: ast.KindBlock, Stmts: stmts}, typeOf(fe.Result), nil

	default:
		return ast.Expr{}, 0, fmt.Errorf("unknown expr kind %q", fe.Kind)
	}
}
