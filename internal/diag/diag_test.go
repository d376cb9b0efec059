package diag

import (
	"strings"
	"testing"

	"github.com/korelang/korec/internal/pattern"
	"github.com/korelang/korec/internal/source"
)

func TestBagAccumulatesInInsertionOrder(t *testing.T) {
	b := NewBag()
	b.Addf(CodeUnresolvedIdent, source.Span{}, "unresolved identifier %q", "foo")
	b.Addf(CodeArityMismatch, source.Span{}, "expected %d arguments, got %d", 2, 1)

	items := b.Items()
	if len(items) != 2 {
		t.Fatalf("expected 2 diagnostics, got %d", len(items))
	}
	if items[0].Code != CodeUnresolvedIdent || items[1].Code != CodeArityMismatch {
		t.Fatalf("expected insertion order preserved, got %+v", items)
	}
	if !b.HasErrors() {
		t.Fatalf("expected HasErrors true after Add")
	}
}

func TestNilBagAddIsANoOp(t *testing.T) {
	var b *Bag
	b.Addf(CodeInvalidCast, source.Span{}, "boom")
	if b.HasErrors() {
		t.Fatalf("expected a nil Bag to never report errors")
	}
	if len(b.Items()) != 0 {
		t.Fatalf("expected a nil Bag's Items to be empty")
	}
}

func TestMergeAppendsWithoutMutatingOther(t *testing.T) {
	a := NewBag()
	a.Addf(CodeDivisionByZero, source.Span{}, "division by zero")
	b := NewBag()
	b.Addf(CodeInvalidCast, source.Span{}, "bad cast")

	a.Merge(b)
	if len(a.Items()) != 2 {
		t.Fatalf("expected the merge target to carry both diagnostics, got %d", len(a.Items()))
	}
	if len(b.Items()) != 1 {
		t.Fatalf("expected the merged-from bag to keep its own single diagnostic, got %d", len(b.Items()))
	}
}

func TestDiagnosticStringIncludesSuggestions(t *testing.T) {
	d := Diagnostic{
		Code:        CodeUnresolvedField,
		Message:     `no field "nmae" on Point`,
		Suggestions: []string{"name"},
	}
	got := d.String()
	if !strings.Contains(got, "unresolved-field") {
		t.Fatalf("expected the rendered diagnostic to name its code, got %q", got)
	}
	if !strings.Contains(got, `did you mean "name"?`) {
		t.Fatalf("expected the rendered diagnostic to list its suggestion, got %q", got)
	}
}

func TestSuggestRanksClosestCandidateFirst(t *testing.T) {
	got := Suggest("nme", []string{"name", "age", "color"})
	if len(got) == 0 || got[0] != "name" {
		t.Fatalf(`expected "name" to rank first for a near-miss of "nme", got %v`, got)
	}
}

func TestSuggestWithNoCandidatesReturnsNil(t *testing.T) {
	if got := Suggest("x", nil); got != nil {
		t.Fatalf("expected no candidates to produce no suggestions, got %v", got)
	}
}

func TestFromPatternProblemsConvertsBothKinds(t *testing.T) {
	problems := []pattern.Problem{
		{Kind: pattern.NonExhaustive, Missing: []string{"_"}},
		{Kind: pattern.RedundantArm, ArmIndex: 2},
	}
	b := NewBag()
	FromPatternProblems(b, problems)

	items := b.Items()
	if len(items) != 2 {
		t.Fatalf("expected 2 diagnostics, got %d", len(items))
	}
	if items[0].Code != CodeNonExhaustiveMatch {
		t.Fatalf("expected the first diagnostic to be non-exhaustive-match, got %v", items[0].Code)
	}
	if items[1].Code != CodeRedundantArm {
		t.Fatalf("expected the second diagnostic to be redundant-arm, got %v", items[1].Code)
	}
	if !strings.Contains(items[1].Message, "arm 2") {
		t.Fatalf("expected the redundant-arm message to name its arm index, got %q", items[1].Message)
	}
}
