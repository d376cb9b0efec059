package eval

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/korelang/korec/internal/ast"
	"github.com/korelang/korec/internal/canon"
	"github.com/korelang/korec/internal/ident"
	"github.com/korelang/korec/internal/types"
)

// newFixture and canonicalize mirror internal/blockir/builder_test.go's
// convention: build a real ast.Module, run it through the actual
// canonicalizer, and exercise the pass under test against the result —
// never a hand-assembled Arena.
func newFixture() (*ident.Interner, *types.Pool) {
	in := ident.New()
	return in, types.NewPool(in)
}

func canonicalize(t *testing.T, mod *ast.Module, in *ident.Interner, pool *types.Pool) *canon.CanonResult {
	t.Helper()
	result, err := canon.Canonicalize(mod, in, pool)
	require.NoError(t, err, "Canonicalize")
	return result
}

// TestEvalConstantArithmeticFolds exercises the KindConstant path: the
// canonicalizer folds `2 + 3` down to a single constant-pool entry
// before Eval ever runs, so this also checks FromConst's int case.
func TestEvalConstantArithmeticFolds(t *testing.T) {
	in, pool := newFixture()
	intTy := pool.Primitive(types.KindInt)

	exprs := []ast.Expr{
		{Kind: ast.KindIntLit, IntValue: 2},
		{Kind: ast.KindIntLit, IntValue: 3},
		{Kind: ast.KindBinary, A: 0, B: 1, BinOp: ast.OpAdd},
	}
	tt := map[ast.ExprID]types.ID{0: intTy, 1: intTy, 2: intTy}
	mod := &ast.Module{
		Exprs: exprs,
		Functions: []ast.Function{{
			ID: 0, Name: 0, ReturnType: intTy,
			Clauses: []ast.Clause{{Body: 2, Guard: ast.InvalidExpr}},
		}},
		TypeTable: ast.NewTypeTable(tt),
		Main:      0,
		HasMain:   true,
	}

	result := canonicalize(t, mod, in, pool)
	ev := NewEvaluator(result, in)

	v, sig, err := ev.Eval(result.NamedRoots[0].Body, NewEnv())
	require.NoError(t, err, "Eval")
	if !sig.isNone() {
		t.Fatalf("expected no signal from a straight-line body, got %+v", sig)
	}
	if v.Kind != KindInt || v.I != 5 {
		t.Fatalf("expected Int(5), got %+v", v)
	}
}

// TestEvalIfBranchesOnRuntimeValue exercises KindIf with a runtime
// (non-foldable) condition, matching internal/blockir's
// TestIfLowersToThreeBlocksPlusMerge fixture shape.
func TestEvalIfBranchesOnRuntimeValue(t *testing.T) {
	in, pool := newFixture()
	intTy := pool.Primitive(types.KindInt)
	boolTy := pool.Primitive(types.KindBool)
	flag := in.Intern("flag")

	exprs := []ast.Expr{
		{Kind: ast.KindIdent, Name: flag},
		{Kind: ast.KindIntLit, IntValue: 1},
		{Kind: ast.KindIntLit, IntValue: 2},
		{Kind: ast.KindIf, A: 0, B: 1, C: 2},
	}
	tt := map[ast.ExprID]types.ID{0: boolTy, 1: intTy, 2: intTy, 3: intTy}
	mod := &ast.Module{
		Exprs: exprs,
		Functions: []ast.Function{{
			ID: 0, Name: 0, ReturnType: intTy,
			Clauses: []ast.Clause{{
				Patterns: []ast.Pattern{{Kind: ast.PatVar, Name: flag}},
				Defaults: []ast.ExprID{ast.InvalidExpr},
				Guard:    ast.InvalidExpr,
				Body:     3,
			}},
		}},
		TypeTable: ast.NewTypeTable(tt),
		Main:      0,
		HasMain:   true,
	}

	result := canonicalize(t, mod, in, pool)
	ev := NewEvaluator(result, in)
	body := result.NamedRoots[0].Body

	for _, tc := range []struct {
		flag bool
		want int64
	}{{true, 1}, {false, 2}} {
		env := NewEnv()
		env.Define(flag, Bool(tc.flag))
		v, sig, err := ev.Eval(body, env)
		require.NoError(t, err, "Eval(flag=%v)", tc.flag)
		if !sig.isNone() {
			t.Fatalf("Eval(flag=%v): unexpected signal %+v", tc.flag, sig)
		}
		if v.Kind != KindInt || v.I != tc.want {
			t.Fatalf("Eval(flag=%v): expected Int(%d), got %+v", tc.flag, tc.want, v)
		}
	}
}

// TestEvalListLiteralLenAndIndex builds [10, 20, 30] and checks both
// index access and the "len"/"is_empty" builtin-method fallback.
func TestEvalListLiteralLenAndIndex(t *testing.T) {
	in, pool := newFixture()
	intTy := pool.Primitive(types.KindInt)
	boolTy := pool.Primitive(types.KindBool)
	listTy := pool.Intern(types.Type{Kind: types.KindList, Params: []types.ID{intTy}})

	exprs := []ast.Expr{
		{Kind: ast.KindIntLit, IntValue: 10},
		{Kind: ast.KindIntLit, IntValue: 20},
		{Kind: ast.KindIntLit, IntValue: 30},
		{Kind: ast.KindListLit, Items: []ast.ListItem{{Value: 0}, {Value: 1}, {Value: 2}}},
		{Kind: ast.KindIntLit, IntValue: 1},
		{Kind: ast.KindIndex, A: 3, B: 4},
		{Kind: ast.KindMethodCall, A: 3, Name: in.Intern("len")},
		{Kind: ast.KindMethodCall, A: 3, Name: in.Intern("is_empty")},
		{Kind: ast.KindTuple, Exprs: []ast.ExprID{5, 6, 7}},
	}
	tt := map[ast.ExprID]types.ID{
		0: intTy, 1: intTy, 2: intTy, 3: listTy, 4: intTy,
		5: intTy, 6: intTy, 7: boolTy, 8: intTy,
	}
	mod := &ast.Module{
		Exprs: exprs,
		Functions: []ast.Function{{
			ID: 0, Name: 0, ReturnType: intTy,
			Clauses: []ast.Clause{{Body: 8, Guard: ast.InvalidExpr}},
		}},
		TypeTable: ast.NewTypeTable(tt),
		Main:      0,
		HasMain:   true,
	}

	result := canonicalize(t, mod, in, pool)
	ev := NewEvaluator(result, in)

	v, sig, err := ev.Eval(result.NamedRoots[0].Body, NewEnv())
	require.NoError(t, err, "Eval")
	if !sig.isNone() {
		t.Fatalf("unexpected signal %+v", sig)
	}
	if v.Kind != KindTuple || len(v.Elems) != 3 {
		t.Fatalf("expected a 3-tuple, got %+v", v)
	}
	if v.Elems[0].Kind != KindInt || v.Elems[0].I != 20 {
		t.Fatalf("expected index 1 of [10,20,30] to be 20, got %+v", v.Elems[0])
	}
	if v.Elems[1].Kind != KindInt || v.Elems[1].I != 3 {
		t.Fatalf("expected len([10,20,30]) == 3, got %+v", v.Elems[1])
	}
	if v.Elems[2].Kind != KindBool || v.Elems[2].I != 0 {
		t.Fatalf("expected is_empty([10,20,30]) == false, got %+v", v.Elems[2])
	}
}

// TestEvalMapLiteralLastEntryWins checks evalMap's mapSet dedup rule:
// a later entry with a key equal to an earlier one replaces its value
// rather than appending a duplicate.
func TestEvalMapLiteralLastEntryWins(t *testing.T) {
	in, pool := newFixture()
	intTy := pool.Primitive(types.KindInt)
	mapTy := pool.Intern(types.Type{Kind: types.KindMap, Params: []types.ID{intTy, intTy}})

	exprs := []ast.Expr{
		{Kind: ast.KindIntLit, IntValue: 1}, // key (first entry)
		{Kind: ast.KindIntLit, IntValue: 100},
		{Kind: ast.KindIntLit, IntValue: 1}, // same key again
		{Kind: ast.KindIntLit, IntValue: 200},
		{Kind: ast.KindMapLit, Entries: []ast.MapEntry{{Key: 0, Value: 1}, {Key: 2, Value: 3}}},
	}
	tt := map[ast.ExprID]types.ID{0: intTy, 1: intTy, 2: intTy, 3: intTy, 4: mapTy}
	mod := &ast.Module{
		Exprs: exprs,
		Functions: []ast.Function{{
			ID: 0, Name: 0, ReturnType: mapTy,
			Clauses: []ast.Clause{{Body: 4, Guard: ast.InvalidExpr}},
		}},
		TypeTable: ast.NewTypeTable(tt),
		Main:      0,
		HasMain:   true,
	}

	result := canonicalize(t, mod, in, pool)
	ev := NewEvaluator(result, in)

	v, _, err := ev.Eval(result.NamedRoots[0].Body, NewEnv())
	require.NoError(t, err, "Eval")
	if v.Kind != KindMap || len(v.Entries) != 1 {
		t.Fatalf("expected a single deduped entry, got %+v", v)
	}
	if v.Entries[0].Value.I != 200 {
		t.Fatalf("expected the later entry (200) to win, got %+v", v.Entries[0].Value)
	}
}

// TestEvalStructLiteralFieldAccess builds Point { x: 3, y: 4 } and reads
// .x back through KindField, also checking ToDisplayString resolves the
// struct's type name through the interner.
func TestEvalStructLiteralFieldAccess(t *testing.T) {
	in, pool := newFixture()
	intTy := pool.Primitive(types.KindInt)
	pointName := in.Intern("Point")
	structTy := pool.Intern(types.Type{Kind: types.KindStruct, Name: pointName})
	xName := in.Intern("x")
	yName := in.Intern("y")

	exprs := []ast.Expr{
		{Kind: ast.KindIntLit, IntValue: 3},
		{Kind: ast.KindIntLit, IntValue: 4},
		{Kind: ast.KindStructLit, Fields: []ast.FieldInit{{Name: xName, Value: 0}, {Name: yName, Value: 1}}},
		{Kind: ast.KindField, A: 2, Name: xName},
	}
	tt := map[ast.ExprID]types.ID{0: intTy, 1: intTy, 2: structTy, 3: intTy}
	mod := &ast.Module{
		Exprs: exprs,
		Functions: []ast.Function{{
			ID: 0, Name: 0, ReturnType: intTy,
			Clauses: []ast.Clause{{Body: 3, Guard: ast.InvalidExpr}},
		}},
		TypeTable: ast.NewTypeTable(tt),
		Main:      0,
		HasMain:   true,
	}

	result := canonicalize(t, mod, in, pool)
	ev := NewEvaluator(result, in)

	v, _, err := ev.Eval(result.NamedRoots[0].Body, NewEnv())
	require.NoError(t, err, "Eval")
	if v.Kind != KindInt || v.I != 3 {
		t.Fatalf("expected Point{x:3,y:4}.x == 3, got %+v", v)
	}

	structVal, _, err := ev.Eval(2, NewEnv())
	require.NoError(t, err, "Eval(struct literal)")
	if got := ToDisplayString(in, structVal); got != "Point(3, 4)" {
		t.Fatalf(`expected ToDisplayString to render "Point(3, 4)", got %q`, got)
	}
}

// TestEvalMatchDecisionTree drives KindMatch/evalDecision over a plain
// int scrutinee: 0 hits the literal arm, anything else hits wildcard.
func TestEvalMatchDecisionTree(t *testing.T) {
	in, pool := newFixture()
	intTy := pool.Primitive(types.KindInt)
	strTy := pool.Primitive(types.KindString)
	x := in.Intern("x")

	exprs := []ast.Expr{
		{Kind: ast.KindIdent, Name: x},
		{Kind: ast.KindStringLit, StringValue: "zero"},
		{Kind: ast.KindStringLit, StringValue: "other"},
		{
			Kind: ast.KindMatch, A: 0,
			Arms: []ast.MatchArm{
				{Pattern: ast.Pattern{Kind: ast.PatLiteral, Literal: ast.Lit{Kind: ast.LitInt, Int: 0}}, Guard: ast.InvalidExpr, Body: 1},
				{Pattern: ast.Pattern{Kind: ast.PatWildcard}, Guard: ast.InvalidExpr, Body: 2},
			},
		},
	}
	tt := map[ast.ExprID]types.ID{0: intTy, 1: strTy, 2: strTy, 3: strTy}
	mod := &ast.Module{
		Exprs: exprs,
		Functions: []ast.Function{{
			ID: 0, Name: 0, ReturnType: strTy,
			Clauses: []ast.Clause{{
				Patterns: []ast.Pattern{{Kind: ast.PatVar, Name: x}},
				Defaults: []ast.ExprID{ast.InvalidExpr},
				Guard:    ast.InvalidExpr,
				Body:     3,
			}},
		}},
		TypeTable: ast.NewTypeTable(tt),
		Main:      0,
		HasMain:   true,
	}

	result := canonicalize(t, mod, in, pool)
	ev := NewEvaluator(result, in)
	body := result.NamedRoots[0].Body

	for _, tc := range []struct {
		x    int64
		want string
	}{{0, "zero"}, {7, "other"}} {
		env := NewEnv()
		env.Define(x, Int(tc.x))
		v, sig, err := ev.Eval(body, env)
		require.NoError(t, err, "Eval(x=%d)", tc.x)
		if !sig.isNone() {
			t.Fatalf("Eval(x=%d): unexpected signal %+v", tc.x, sig)
		}
		if v.Kind != KindString || v.S != tc.want {
			t.Fatalf("Eval(x=%d): expected %q, got %+v", tc.x, tc.want, v)
		}
	}
}

// TestEvalForRangeYieldDoublesEachElement exercises the KindFor +
// KindRange fast path (newRangeIterator, never materializing a list for
// the iterable itself) together with ForYield's accumulation into a
// result list.
func TestEvalForRangeYieldDoublesEachElement(t *testing.T) {
	in, pool := newFixture()
	intTy := pool.Primitive(types.KindInt)
	listTy := pool.Intern(types.Type{Kind: types.KindList, Params: []types.ID{intTy}})
	item := in.Intern("i")

	exprs := []ast.Expr{
		{Kind: ast.KindIntLit, IntValue: 0},
		{Kind: ast.KindIntLit, IntValue: 4},
		{Kind: ast.KindRangeLit, A: 0, B: 1, C: ast.InvalidExpr, BoolValue: false},
		{Kind: ast.KindIdent, Name: item},
		{Kind: ast.KindIntLit, IntValue: 2},
		{Kind: ast.KindBinary, A: 3, B: 4, BinOp: ast.OpMul},
		{
			Kind: ast.KindFor, A: 2, B: 5,
			ForBinding: ast.Pattern{Kind: ast.PatVar, Name: item},
			ForGuard:   ast.InvalidExpr,
			ForYield:   true,
		},
	}
	tt := map[ast.ExprID]types.ID{0: intTy, 1: intTy, 2: listTy, 3: intTy, 4: intTy, 5: intTy, 6: listTy}
	mod := &ast.Module{
		Exprs: exprs,
		Functions: []ast.Function{{
			ID: 0, Name: 0, ReturnType: listTy,
			Clauses: []ast.Clause{{Body: 6, Guard: ast.InvalidExpr}},
		}},
		TypeTable: ast.NewTypeTable(tt),
		Main:      0,
		HasMain:   true,
	}

	result := canonicalize(t, mod, in, pool)
	ev := NewEvaluator(result, in)

	v, sig, err := ev.Eval(result.NamedRoots[0].Body, NewEnv())
	require.NoError(t, err, "Eval")
	if !sig.isNone() {
		t.Fatalf("unexpected signal %+v", sig)
	}
	if v.Kind != KindList {
		t.Fatalf("expected a list, got %+v", v)
	}
	want := []int64{0, 2, 4, 6}
	if len(v.Elems) != len(want) {
		t.Fatalf("expected %d elements, got %d (%+v)", len(want), len(v.Elems), v.Elems)
	}
	for i, w := range want {
		if v.Elems[i].Kind != KindInt || v.Elems[i].I != w {
			t.Fatalf("element %d: expected %d, got %+v", i, w, v.Elems[i])
		}
	}
}

// TestEvalTryPropagatesErrPastTheFunctionBody checks that a `?` on an
// Err short-circuits the function body and becomes the call's own
// result, the signalPropagate contract runBody implements.
func TestEvalTryPropagatesErrPastTheFunctionBody(t *testing.T) {
	in, pool := newFixture()
	intTy := pool.Primitive(types.KindInt)
	errTy := pool.Primitive(types.KindInt)
	resultTy := pool.Intern(types.Type{Kind: types.KindResult, Params: []types.ID{intTy, errTy}})

	exprs := []ast.Expr{
		{Kind: ast.KindIntLit, IntValue: 99},
		{Kind: ast.KindErr, A: 0},
		{Kind: ast.KindTry, A: 1},
		{Kind: ast.KindIntLit, IntValue: 1}, // not part of the body
	}
	tt := map[ast.ExprID]types.ID{0: intTy, 1: resultTy, 2: intTy, 3: intTy}
	mod := &ast.Module{
		Exprs: exprs,
		Functions: []ast.Function{{
			ID: 0, Name: 0, ReturnType: intTy,
			Clauses: []ast.Clause{{Body: 2, Guard: ast.InvalidExpr}},
		}},
		TypeTable: ast.NewTypeTable(tt),
		Main:      0,
		HasMain:   true,
	}

	result := canonicalize(t, mod, in, pool)
	ev := NewEvaluator(result, in)

	v, sig, err := ev.runBody(result.NamedRoots[0].Body, NewEnv())
	require.NoError(t, err, "runBody")
	if !sig.isNone() {
		t.Fatalf("expected runBody to absorb the propagated signal, got %+v", sig)
	}
	if v.Kind != KindResult || v.Tag != TagErr {
		t.Fatalf("expected the function to return the propagated Err(99), got %+v", v)
	}
	if v.Payload == nil || v.Payload.I != 99 {
		t.Fatalf("expected the propagated Err to carry 99, got %+v", v.Payload)
	}
}

// TestHashCombineMatchesBoostFormula pins hashCombine's exact arithmetic
// against internal/builtin's identical formula (§4.3.3) — the two must
// never drift or a map/set built by one backend looks corrupt to the
// other.
func TestHashCombineMatchesBoostFormula(t *testing.T) {
	seed, value := int64(17), int64(42)
	want := seed ^ (value + 0x9e3779b9 + (seed << 6) + (seed >> 2))
	if got := hashCombine(seed, value); got != want {
		t.Fatalf("hashCombine(%d, %d) = %d, want %d", seed, value, got, want)
	}
}

// TestBindPatternTupleDestructure drives bindPattern directly over a
// hand-built canon.BindingPattern (no surface AST needed for this one:
// bindPattern only ever consumes already-canonicalized pattern ids).
func TestBindPatternTupleDestructure(t *testing.T) {
	in := ident.New()
	arena := canon.New(0)
	a := in.Intern("a")
	b := in.Intern("b")

	elemStart := len(arena.BindingPats)
	arena.BindingPats = append(arena.BindingPats,
		canon.BindingPattern{Kind: canon.BindName, Name: a},
		canon.BindingPattern{Kind: canon.BindName, Name: b},
	)
	elemsStart := uint32(len(arena.PatternElems))
	arena.PatternElems = append(arena.PatternElems,
		canon.BindingPatternId(elemStart), canon.BindingPatternId(elemStart+1))

	tupleID := canon.BindingPatternId(len(arena.BindingPats))
	arena.BindingPats = append(arena.BindingPats, canon.BindingPattern{
		Kind:  canon.BindTuple,
		Elems: canon.Range{Start: elemsStart, Len: 2},
	})

	result := &canon.CanonResult{Arena: arena}
	ev := NewEvaluator(result, in)
	env := NewEnv()
	ev.bindPattern(env, tupleID, Tuple(Int(1), Int(2)))

	av, ok := env.Get(a)
	if !ok || av.Kind != KindInt || av.I != 1 {
		t.Fatalf("expected a bound to Int(1), got %+v (ok=%v)", av, ok)
	}
	bv, ok := env.Get(b)
	if !ok || bv.Kind != KindInt || bv.I != 2 {
		t.Fatalf("expected b bound to Int(2), got %+v (ok=%v)", bv, ok)
	}
}
