package canon_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/korelang/korec/internal/ast"
	"github.com/korelang/korec/internal/canon"
	"github.com/korelang/korec/internal/ident"
	"github.com/korelang/korec/internal/types"
)

func newFixture() (*ident.Interner, *types.Pool) {
	in := ident.New()
	return in, types.NewPool(in)
}

// moduleWithBody is a tiny helper: wrap the last expression in a
// single-clause zero-arg function (named ident.Name(0)), mark it as the
// module's main, and build the module around it.
func moduleWithBody(exprs []ast.Expr, fnReturnType types.ID) *ast.Module {
	return &ast.Module{
		Exprs: exprs,
		Functions: []ast.Function{
			{
				ID:         0,
				Name:       0,
				ReturnType: fnReturnType,
				Clauses: []ast.Clause{
					{Patterns: nil, Defaults: nil, Guard: ast.InvalidExpr, Body: ast.ExprID(len(exprs) - 1)},
				},
			},
		},
		TypeTable: ast.NewTypeTable(map[ast.ExprID]types.ID{}),
		Main:      0,
		HasMain:   true,
	}
}

func TestConstantFoldsBinaryAdd(t *testing.T) {
	in, pool := newFixture()
	intTy := pool.Primitive(types.KindInt)

	exprs := []ast.Expr{
		{Kind: ast.KindIntLit, IntValue: 2},
		{Kind: ast.KindIntLit, IntValue: 3},
		{Kind: ast.KindBinary, A: 0, B: 1, BinOp: ast.OpAdd},
	}
	tt := map[ast.ExprID]types.ID{0: intTy, 1: intTy, 2: intTy}
	mod := moduleWithBody(exprs, intTy)
	mod.TypeTable = ast.NewTypeTable(tt)

	result, err := canon.Canonicalize(mod, in, pool)
	require.NoError(t, err, "Canonicalize")
	require.Len(t, result.NamedRoots, 1, "expected one named root")
	root := result.NamedRoots[0].Body
	require.Equal(t, canon.KindConstant, result.Arena.Kinds[root], "expected folded binary add to become a Constant node")
	v := result.Constants.Lookup(result.Arena.Payloads[root].ConstRef)
	require.Equal(t, int64(5), v.I, "expected folded value 5")
}

func TestBlockTrailingLetCollapsesToUnit(t *testing.T) {
	in, pool := newFixture()
	intTy := pool.Primitive(types.KindInt)
	unitTy := pool.Primitive(types.KindUnit)
	x := in.Intern("x")

	exprs := []ast.Expr{
		{Kind: ast.KindIntLit, IntValue: 1}, // init for `let x = 1`
		{
			Kind: ast.KindBlock,
			Stmts: []ast.Stmt{
				{IsLet: true, Pattern: ast.Pattern{Kind: ast.PatVar, Name: x}, Init: 0},
			},
		},
	}
	tt := map[ast.ExprID]types.ID{0: intTy, 1: unitTy}
	mod := moduleWithBody(exprs, unitTy)
	mod.TypeTable = ast.NewTypeTable(tt)

	result, err := canon.Canonicalize(mod, in, pool)
	require.NoError(t, err, "Canonicalize")
	root := result.NamedRoots[0].Body
	require.Equal(t, canon.KindBlock, result.Arena.Kinds[root], "expected a Block node")
	p := result.Arena.Payloads[root]
	require.Equal(t, canon.InvalidNode, p.A, "expected a trailing let-only block to have no result expr")
	require.EqualValues(t, 1, p.Exprs.Len, "expected exactly one statement (the Let)")
	letID := result.Arena.ExprRange(p.Exprs)[0]
	require.Equal(t, canon.KindLet, result.Arena.Kinds[letID], "expected the lone statement to be a Let node")
}

func TestNamedArgCallDesugarsToDeclarationOrder(t *testing.T) {
	in, pool := newFixture()
	intTy := pool.Primitive(types.KindInt)
	a := in.Intern("a")
	b := in.Intern("b")
	greet := in.Intern("greet")

	// fn greet(a, b) -> a (single-clause; b unused, just exercises arity)
	greetFn := ast.Function{
		ID:         1,
		Name:       greet,
		ReturnType: intTy,
		Clauses: []ast.Clause{{
			Patterns: []ast.Pattern{{Kind: ast.PatVar, Name: a}, {Kind: ast.PatVar, Name: b}},
			Defaults: []ast.ExprID{ast.InvalidExpr, ast.InvalidExpr},
			Guard:    ast.InvalidExpr,
			Body:     0, // references the synthetic `a` param ident, expr 0 below
		}},
	}

	exprs := []ast.Expr{
		{Kind: ast.KindIdent, Name: a}, // greetFn's body: just return `a`
		{Kind: ast.KindIdent, Name: greet},
		{Kind: ast.KindIntLit, IntValue: 10}, // value for named arg b
		{Kind: ast.KindIntLit, IntValue: 20}, // value for named arg a
		{
			Kind: ast.KindCall,
			A:    1,
			Args: []ast.Arg{
				{Name: b, Value: 2},
				{Name: a, Value: 3},
			},
		},
	}
	tt := map[ast.ExprID]types.ID{0: intTy, 1: intTy, 2: intTy, 3: intTy, 4: intTy}

	mod := &ast.Module{
		Exprs:     exprs,
		Functions: []ast.Function{greetFn, {ID: 0, Name: 0, ReturnType: intTy, Clauses: []ast.Clause{{Body: 4, Guard: ast.InvalidExpr}}}},
		TypeTable: ast.NewTypeTable(tt),
		Main:      0,
		HasMain:   true,
	}

	result, err := canon.Canonicalize(mod, in, pool)
	require.NoError(t, err, "Canonicalize")
	var mainRoot canon.NodeId = canon.InvalidNode
	for _, nr := range result.NamedRoots {
		if nr.Name == 0 {
			mainRoot = nr.Body
		}
	}
	require.NotEqual(t, canon.InvalidNode, mainRoot, "did not find main's named root")
	require.Equal(t, canon.KindCall, result.Arena.Kinds[mainRoot], "expected the call expression to lower to a Call node")

	args := result.Arena.ExprRange(result.Arena.Payloads[mainRoot].Exprs)
	require.Len(t, args, 2, "expected 2 positional args after desugaring")

	firstVal := result.Constants.Lookup(result.Arena.Payloads[args[0]].ConstRef)
	secondVal := result.Constants.Lookup(result.Arena.Payloads[args[1]].ConstRef)
	if diff := cmp.Diff([]int64{20, 10}, []int64{firstVal.I, secondVal.I}); diff != "" {
		t.Errorf("expected named args permuted to declaration order a=20, b=10 (-want +got):\n%s", diff)
	}
}

func TestTypeRefLowersToDedicatedNodeWithoutReresolution(t *testing.T) {
	in, pool := newFixture()
	stringTy := pool.Primitive(types.KindString)
	durationTy := pool.Primitive(types.KindDuration)
	duration := in.Intern("Duration")
	parse := in.Intern("parse")

	exprs := []ast.Expr{
		{Kind: ast.KindTypeRef, Name: duration},
		{Kind: ast.KindStringLit, StringValue: "5s"},
		{Kind: ast.KindMethodCall, A: 0, Name: parse, Args: []ast.Arg{{Value: 1}}},
	}
	tt := map[ast.ExprID]types.ID{0: durationTy, 1: stringTy, 2: durationTy}
	mod := moduleWithBody(exprs, durationTy)
	mod.TypeTable = ast.NewTypeTable(tt)

	result, err := canon.Canonicalize(mod, in, pool)
	require.NoError(t, err, "Canonicalize")
	root := result.NamedRoots[0].Body
	if diff := cmp.Diff(canon.KindMethodCall, result.Arena.Kinds[root]); diff != "" {
		t.Errorf("unexpected root kind (-want +got):\n%s", diff)
	}
	recv := result.Arena.Payloads[root].A
	if diff := cmp.Diff(canon.KindTypeRef, result.Arena.Kinds[recv]); diff != "" {
		t.Errorf("expected the receiver to lower to a dedicated TypeRef node instead of an Ident (-want +got):\n%s", diff)
	}
	require.Equal(t, duration, result.Arena.Payloads[recv].Name, "expected the TypeRef node to carry the pre-resolved type name")
}

func TestMultiClauseFunctionSynthesizesMatch(t *testing.T) {
	in, pool := newFixture()
	intTy := pool.Primitive(types.KindInt)
	strTy := pool.Primitive(types.KindString)
	n := in.Intern("n")

	exprs := []ast.Expr{
		{Kind: ast.KindStringLit, StringValue: "zero"},
		{Kind: ast.KindStringLit, StringValue: "nonzero"},
	}
	tt := map[ast.ExprID]types.ID{0: strTy, 1: strTy}

	fn := ast.Function{
		ID:         0,
		Name:       0,
		ReturnType: strTy,
		Clauses: []ast.Clause{
			{
				Patterns: []ast.Pattern{{Kind: ast.PatLiteral, Literal: ast.Lit{Kind: ast.LitInt, Int: 0}}},
				Defaults: []ast.ExprID{ast.InvalidExpr},
				Guard:    ast.InvalidExpr,
				Body:     0,
			},
			{
				Patterns: []ast.Pattern{{Kind: ast.PatVar, Name: n}},
				Defaults: []ast.ExprID{ast.InvalidExpr},
				Guard:    ast.InvalidExpr,
				Body:     1,
			},
		},
	}

	mod := &ast.Module{
		Exprs:     exprs,
		Functions: []ast.Function{fn},
		TypeTable: ast.NewTypeTable(tt),
		Main:      0,
		HasMain:   false,
	}
	_ = intTy

	result, err := canon.Canonicalize(mod, in, pool)
	require.NoError(t, err, "Canonicalize")
	root := result.NamedRoots[0].Body
	require.Equal(t, canon.KindMatch, result.Arena.Kinds[root], "expected a multi-clause function to synthesize a Match node")
	p := result.Arena.Payloads[root]
	require.EqualValues(t, 2, p.Arms.Len, "expected 2 synthesized arm bodies")
	require.Empty(t, result.Problems, "expected the int-literal-then-wildcard clauses to be exhaustive")
}

func TestOptionMatchExhaustiveness(t *testing.T) {
	in, pool := newFixture()
	intTy := pool.Primitive(types.KindInt)
	optTy := pool.Primitive(types.KindOption)
	x := in.Intern("x")

	exprs := []ast.Expr{
		{Kind: ast.KindIdent, Name: x},      // Some(x) arm body
		{Kind: ast.KindIntLit, IntValue: 0}, // None arm body
		{
			Kind: ast.KindIdent, // scrutinee placeholder, type Option
			Name: in.Intern("opt"),
		},
		{
			Kind: ast.KindMatch,
			A:    2,
			Arms: []ast.MatchArm{
				{Pattern: ast.Pattern{Kind: ast.PatVariant, Ctor: "Some", Tag: 1, Payload: []ast.Pattern{{Kind: ast.PatVar, Name: x}}}, Guard: ast.InvalidExpr, Body: 0},
				{Pattern: ast.Pattern{Kind: ast.PatVariant, Ctor: "None", Tag: 0}, Guard: ast.InvalidExpr, Body: 1},
			},
		},
	}
	tt := map[ast.ExprID]types.ID{0: intTy, 1: intTy, 2: optTy, 3: intTy}
	mod := moduleWithBody(exprs, intTy)
	mod.TypeTable = ast.NewTypeTable(tt)

	result, err := canon.Canonicalize(mod, in, pool)
	require.NoError(t, err, "Canonicalize")
	require.Empty(t, result.Problems, "expected Some/None to be exhaustive")
	root := result.NamedRoots[0].Body
	require.Equal(t, canon.KindMatch, result.Arena.Kinds[root], "expected a Match node")
}

func TestThreeVariantSumTypeMatchExhaustiveWithoutWildcard(t *testing.T) {
	in, pool := newFixture()
	intTy := pool.Primitive(types.KindInt)
	shapeName := in.Intern("Shape")
	shapeTy := pool.Intern(types.Type{Kind: types.KindSum, Name: shapeName})

	exprs := []ast.Expr{
		{Kind: ast.KindIntLit, IntValue: 1}, // Circle arm body
		{Kind: ast.KindIntLit, IntValue: 2}, // Square arm body
		{Kind: ast.KindIntLit, IntValue: 3}, // Triangle arm body
		{Kind: ast.KindIdent, Name: in.Intern("shape")},
		{
			Kind: ast.KindMatch,
			A:    3,
			Arms: []ast.MatchArm{
				{Pattern: ast.Pattern{Kind: ast.PatVariant, TypeName: shapeName, Ctor: "Circle", Tag: 0}, Guard: ast.InvalidExpr, Body: 0},
				{Pattern: ast.Pattern{Kind: ast.PatVariant, TypeName: shapeName, Ctor: "Square", Tag: 1}, Guard: ast.InvalidExpr, Body: 1},
				{Pattern: ast.Pattern{Kind: ast.PatVariant, TypeName: shapeName, Ctor: "Triangle", Tag: 2}, Guard: ast.InvalidExpr, Body: 2},
			},
		},
	}
	tt := map[ast.ExprID]types.ID{0: intTy, 1: intTy, 2: intTy, 3: shapeTy, 4: intTy}
	mod := moduleWithBody(exprs, intTy)
	mod.TypeTable = ast.NewTypeTable(tt)
	mod.Types = []ast.TypeDecl{{
		Name: shapeName,
		ID:   shapeTy,
		Variants: []ast.VariantDecl{
			{Name: in.Intern("Circle")},
			{Name: in.Intern("Square")},
			{Name: in.Intern("Triangle")},
		},
	}}

	result, err := canon.Canonicalize(mod, in, pool)
	require.NoError(t, err, "Canonicalize")
	require.Empty(t, result.Problems, "expected all three named variants with no wildcard to be exhaustive")
}

func TestNonExhaustiveOptionMatchReportsProblem(t *testing.T) {
	in, pool := newFixture()
	intTy := pool.Primitive(types.KindInt)
	optTy := pool.Primitive(types.KindOption)
	x := in.Intern("x")

	exprs := []ast.Expr{
		{Kind: ast.KindIdent, Name: x},
		{Kind: ast.KindIdent, Name: in.Intern("opt")},
		{
			Kind: ast.KindMatch,
			A:    1,
			Arms: []ast.MatchArm{
				{Pattern: ast.Pattern{Kind: ast.PatVariant, Ctor: "Some", Tag: 1, Payload: []ast.Pattern{{Kind: ast.PatVar, Name: x}}}, Guard: ast.InvalidExpr, Body: 0},
			},
		},
	}
	tt := map[ast.ExprID]types.ID{0: intTy, 1: optTy, 2: intTy}
	mod := moduleWithBody(exprs, intTy)
	mod.TypeTable = ast.NewTypeTable(tt)

	result, err := canon.Canonicalize(mod, in, pool)
	require.NoError(t, err, "Canonicalize")
	require.NotEmpty(t, result.Problems, "expected a non-exhaustiveness problem for a Some-only match")
}
