package pattern_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/korelang/korec/internal/ast"
	"github.com/korelang/korec/internal/ident"
	"github.com/korelang/korec/internal/pattern"
)

func TestExhaustiveOptionMatch(t *testing.T) {
	pool := pattern.NewPool()
	in := ident.New()
	x := in.Intern("x")

	rows := []pattern.Row{
		{ArmIndex: 0, Guard: pattern.NoGuard, Pattern: ast.Pattern{Kind: ast.PatVariant, Ctor: "Some", Tag: 1, Payload: []ast.Pattern{{Kind: ast.PatVar, Name: x}}}},
		{ArmIndex: 1, Guard: pattern.NoGuard, Pattern: ast.Pattern{Kind: ast.PatVariant, Ctor: "None", Tag: 0}},
	}
	root, problems := pattern.Compile(pool, ast.Expr{}.Span, rows, nil)
	require.Empty(t, problems, "expected no problems")
	node := pool.Lookup(root)
	require.Equal(t, pattern.NodeTest, node.Kind, "expected a Test node at the root")
	require.Equal(t, pattern.TestVariantTag, node.TestKind, "expected a variant-tag test")
	require.Len(t, node.Cases, 2, "expected one concrete case per variant (None and Some)")
}

func TestExhaustiveUserSumTypeMatchWithThreeVariants(t *testing.T) {
	pool := pattern.NewPool()
	in := ident.New()
	shape := in.Intern("Shape")

	rows := []pattern.Row{
		{ArmIndex: 0, Guard: pattern.NoGuard, Pattern: ast.Pattern{Kind: ast.PatVariant, TypeName: shape, Ctor: "Circle", Tag: 0}},
		{ArmIndex: 1, Guard: pattern.NoGuard, Pattern: ast.Pattern{Kind: ast.PatVariant, TypeName: shape, Ctor: "Square", Tag: 1}},
		{ArmIndex: 2, Guard: pattern.NoGuard, Pattern: ast.Pattern{Kind: ast.PatVariant, TypeName: shape, Ctor: "Triangle", Tag: 2}},
	}
	root, problems := pattern.Compile(pool, ast.Expr{}.Span, rows, map[ident.Name]int{shape: 3})
	require.Empty(t, problems, "expected all three named variants to be exhaustive with no wildcard needed")
	node := pool.Lookup(root)
	require.Len(t, node.Cases, 3, "expected three concrete cases")
}

func TestNonExhaustiveUserSumTypeMatchMissingVariant(t *testing.T) {
	pool := pattern.NewPool()
	in := ident.New()
	shape := in.Intern("Shape")

	rows := []pattern.Row{
		{ArmIndex: 0, Guard: pattern.NoGuard, Pattern: ast.Pattern{Kind: ast.PatVariant, TypeName: shape, Ctor: "Circle", Tag: 0}},
		{ArmIndex: 1, Guard: pattern.NoGuard, Pattern: ast.Pattern{Kind: ast.PatVariant, TypeName: shape, Ctor: "Square", Tag: 1}},
	}
	_, problems := pattern.Compile(pool, ast.Expr{}.Span, rows, map[ident.Name]int{shape: 3})
	require.Len(t, problems, 1, "expected one problem for the missing Triangle case")
	require.Equal(t, pattern.NonExhaustive, problems[0].Kind, "expected a NonExhaustive problem")
}

func TestNonExhaustiveBoolMatch(t *testing.T) {
	pool := pattern.NewPool()
	rows := []pattern.Row{
		{ArmIndex: 0, Guard: pattern.NoGuard, Pattern: ast.Pattern{Kind: ast.PatLiteral, Literal: ast.Lit{Kind: ast.LitBool, Bool: true}}},
	}
	_, problems := pattern.Compile(pool, ast.Expr{}.Span, rows, nil)
	require.Len(t, problems, 1, "expected one problem")
	require.Equal(t, pattern.NonExhaustive, problems[0].Kind, "expected a NonExhaustive problem")
}

func TestRedundantArmDetected(t *testing.T) {
	pool := pattern.NewPool()
	rows := []pattern.Row{
		{ArmIndex: 0, Guard: pattern.NoGuard, Pattern: ast.Pattern{Kind: ast.PatWildcard}},
		{ArmIndex: 1, Guard: pattern.NoGuard, Pattern: ast.Pattern{Kind: ast.PatLiteral, Literal: ast.Lit{Kind: ast.LitBool, Bool: true}}},
	}
	_, problems := pattern.Compile(pool, ast.Expr{}.Span, rows, nil)
	require.Len(t, problems, 1, "expected one problem")
	require.Equal(t, pattern.RedundantArm, problems[0].Kind, "expected arm 1 flagged redundant")
	require.Equal(t, 1, problems[0].ArmIndex, "expected arm 1 flagged redundant")
}

func TestIdenticalMatchesShareTree(t *testing.T) {
	pool := pattern.NewPool()
	rowsFor := func() []pattern.Row {
		return []pattern.Row{
			{ArmIndex: 0, Guard: pattern.NoGuard, Pattern: ast.Pattern{Kind: ast.PatLiteral, Literal: ast.Lit{Kind: ast.LitInt, Int: 1}}},
			{ArmIndex: 1, Guard: pattern.NoGuard, Pattern: ast.Pattern{Kind: ast.PatWildcard}},
		}
	}
	a, _ := pattern.Compile(pool, ast.Expr{}.Span, rowsFor(), nil)
	b, _ := pattern.Compile(pool, ast.Expr{}.Span, rowsFor(), nil)
	require.Equal(t, a, b, "expected two structurally identical matches to share one tree")
}

func TestGuardWrapsLeaf(t *testing.T) {
	pool := pattern.NewPool()
	in := ident.New()
	x := in.Intern("x")
	rows := []pattern.Row{
		{ArmIndex: 0, Guard: 7, Pattern: ast.Pattern{Kind: ast.PatVar, Name: x}},
		{ArmIndex: 1, Guard: pattern.NoGuard, Pattern: ast.Pattern{Kind: ast.PatWildcard}},
	}
	root, problems := pattern.Compile(pool, ast.Expr{}.Span, rows, nil)
	require.Empty(t, problems, "expected no problems")
	node := pool.Lookup(root)
	require.Equal(t, pattern.NodeGuard, node.Kind, "expected a Guard node")
	require.EqualValues(t, 7, node.GuardExpr, "expected the Guard node to carry expr 7")
}
