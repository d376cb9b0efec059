package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/korelang/korec/internal/ast"
)

func writeFixture(t *testing.T, f fixture) string {
	t.Helper()
	data, err := json.Marshal(f)
	require.NoError(t, err, "marshal fixture")
	path := filepath.Join(t.TempDir(), "fixture.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

// addTwoFixture builds a single function: main() = 1 + 2
//
// The fixture format has no call-expression kind (see lowerFixtureExpr),
// so "main" here is just the body `1 + 2` directly — enough to exercise
// canonicalization and evaluation end to end without needing call lowering.
func addTwoFixture() fixture {
	return fixture{
		Exprs: []fixtureExpr{
			{Kind: "int", Int: 1},
			{Kind: "int", Int: 2},
			{Kind: "binary", Op: "add", A: 0, B: 1, C: noChild},
		},
		Functions: []fixtureFunction{
			{Name: "main", Params: nil, Body: 2},
		},
		Main: "main",
	}
}

func TestBuildModuleResolvesIdentAgainstParamScope(t *testing.T) {
	f := fixture{
		Exprs: []fixtureExpr{
			{Kind: "ident", Name: "x", A: noChild, B: noChild, C: noChild},
			{Kind: "int", Int: 1, A: noChild, B: noChild, C: noChild},
			{Kind: "binary", Op: "add", A: 0, B: 1, C: noChild},
		},
		Functions: []fixtureFunction{
			{Name: "increment", Params: []fixtureParam{{Name: "x", Type: "int"}}, Body: 2},
		},
		Main: "increment",
	}
	mod, _, _, err := buildModule(&f)
	require.NoError(t, err, "buildModule")
	if len(mod.Functions) != 1 {
		t.Fatalf("expected 1 function, got %d", len(mod.Functions))
	}
	if !mod.HasMain {
		t.Fatalf("expected HasMain to be set")
	}
}

func TestBuildModuleRejectsUndeclaredIdent(t *testing.T) {
	f := fixture{
		Exprs: []fixtureExpr{
			{Kind: "ident", Name: "nope", A: noChild, B: noChild, C: noChild},
		},
		Functions: []fixtureFunction{{Name: "main", Body: 0}},
		Main:      "main",
	}
	if _, _, _, err := buildModule(&f); err == nil {
		t.Fatalf("expected an error for an undeclared identifier")
	}
}

func TestBuildModuleRejectsUnknownType(t *testing.T) {
	f := fixture{
		Exprs: []fixtureExpr{{Kind: "int", Int: 1}},
		Functions: []fixtureFunction{
			{Name: "main", Params: []fixtureParam{{Name: "x", Type: "nonsense"}}, Body: 0},
		},
		Main: "main",
	}
	if _, _, _, err := buildModule(&f); err == nil {
		t.Fatalf("expected an error for an unknown type name")
	}
}

func TestBuildModuleLowersLetBlock(t *testing.T) {
	f := fixture{
		Exprs: []fixtureExpr{
			{Kind: "int", Int: 10},
			{Kind: "ident", Name: "n", A: noChild, B: noChild, C: noChild},
			{Kind: "block", Lets: []fixtureLet{{Name: "n", Init: 0}}, Result: 1},
		},
		Functions: []fixtureFunction{{Name: "main", Body: 2}},
		Main:      "main",
	}
	mod, _, _, err := buildModule(&f)
	require.NoError(t, err, "buildModule")
	if mod.Exprs[2].Kind != ast.KindBlock {
		t.Fatalf("expected the block expr to lower to KindBlock, got %v", mod.Exprs[2].Kind)
	}
	if len(mod.Exprs[2].Stmts) != 2 {
		t.Fatalf("expected a let statement plus a result statement, got %d", len(mod.Exprs[2].Stmts))
	}
}
