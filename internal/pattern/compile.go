package pattern

import (
	"fmt"
	"sort"

	"github.com/korelang/korec/internal/ast"
	"github.com/korelang/korec/internal/ident"
	"github.com/korelang/korec/internal/source"
)

// ProblemKind discriminates the two kinds of pattern-matrix diagnostic
// (§4.1.1 step 6).
type ProblemKind uint8

const (
	NonExhaustive ProblemKind = iota
	RedundantArm
)

// Problem is a pattern-matching diagnostic surfaced alongside a
// CanonResult (§6.2).
type Problem struct {
	Kind      ProblemKind
	MatchSpan source.Span
	Missing   []string // NonExhaustive: human-readable witnesses
	ArmIndex  int       // RedundantArm
	ArmSpan   source.Span
}

// Row is one match arm (or multi-clause function clause) as input to
// the matrix compiler: a single pattern tested against the scrutinee
// root, an optional guard, and the arm's index for Leaf/diagnostic
// purposes. A multi-clause function's per-position patterns are
// synthesized by the caller into one ast.PatTuple Pattern over a
// synthetic parameter-vector scrutinee, so the compiler only ever
// needs to reason about a single column.
type Row struct {
	Pattern  ast.Pattern
	Guard    uint32 // a canon.NodeId, or NoGuard; kept untyped to avoid an import cycle
	ArmIndex int
}

// NoGuard marks a Row with no guard expression.
const NoGuard uint32 = 0xFFFFFFFF

// obligation is a still-unresolved structural test: "the value found
// at Path must match Pat."
type obligation struct {
	path []Step
	pat  ast.Pattern
}

type workRow struct {
	root        ast.Pattern // the row's full original pattern, for binding collection at leaf time
	obligations []obligation
	guard       uint32
	armIndex    int
}

// Compile builds a decision tree for rows, returning the tree's root
// id in pool and the pattern problems found (§4.1.1). variantCounts
// maps a declared sum type's name to its total number of variants, so
// a TestVariantTag node over a user type can tell a truly exhaustive
// case set (every declared variant named, no wildcard needed) apart
// from one still missing a case — Option and Result aren't looked up
// here since they're always exactly the built-in 2-case shape.
func Compile(pool *Pool, matchSpan source.Span, rows []Row, variantCounts map[ident.Name]int) (TreeID, []Problem) {
	work := make([]workRow, len(rows))
	for i, r := range rows {
		work[i] = workRow{
			root:        r.Pattern,
			obligations: []obligation{{path: nil, pat: r.Pattern}},
			guard:       r.Guard,
			armIndex:    r.ArmIndex,
		}
	}
	reached := make(map[int]bool)
	root, exhaustive := compile(pool, flattenOr(work), reached, variantCounts)
	var problems []Problem
	if !exhaustive {
		problems = append(problems, Problem{Kind: NonExhaustive, MatchSpan: matchSpan, Missing: []string{"_"}})
	}
	for _, r := range rows {
		if !reached[r.ArmIndex] {
			problems = append(problems, Problem{Kind: RedundantArm, ArmIndex: r.ArmIndex, ArmSpan: r.Pattern.Span, MatchSpan: matchSpan})
		}
	}
	return root, problems
}

// flattenOr expands any PatOr alternatives in a row's sole obligation
// into separate rows sharing the same arm index, guard, and bindings
// source, preserving row order (earlier alternatives take precedence,
// matching left-to-right arm priority).
func flattenOr(rows []workRow) []workRow {
	out := make([]workRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, expandOr(r)...)
	}
	return out
}

func expandOr(r workRow) []workRow {
	if len(r.obligations) != 1 || r.obligations[0].pat.Kind != ast.PatOr {
		return []workRow{r}
	}
	var out []workRow
	for _, alt := range r.obligations[0].pat.Elems {
		sub := workRow{root: alt, obligations: []obligation{{path: r.obligations[0].path, pat: alt}}, guard: r.guard, armIndex: r.armIndex}
		out = append(out, expandOr(sub)...)
	}
	return out
}

// compile is the recursive matrix-compilation core. It returns the
// built subtree and whether every input was statically guaranteed
// reachable by a guardless catch-all (used to decide exhaustiveness
// at the top level).
func compile(pool *Pool, rows []workRow, reached map[int]bool, variantCounts map[ident.Name]int) (TreeID, bool) {
	if len(rows) == 0 {
		return FailNode, false
	}

	row0 := rows[0]
	if isTrivial(row0.obligations) {
		reached[row0.armIndex] = true
		bindings := collectBindings(row0.root, nil)
		leaf := pool.GetShared(Node{Kind: NodeLeaf, ArmIndex: row0.armIndex, FinalBindings: bindings})
		if row0.guard == NoGuard {
			// This row swallows everything below it; later rows are
			// unreachable through this path (they may still be reached
			// through the eventual caller deciding no — we simply stop).
			return leaf, true
		}
		falseBranch, exhaustive := compile(pool, rows[1:], reached, variantCounts)
		guard := pool.GetShared(Node{
			Kind:          NodeGuard,
			GuardExpr:     row0.guard,
			BindingsSoFar: bindings,
			TrueBranch:    leaf,
			FalseBranch:   falseBranch,
		})
		return guard, exhaustive
	}

	target := leftmostNonTrivial(row0.obligations)
	rows = expandPassthrough(rows, target.path)

	// Re-pick after expansion: the same path may now hold a
	// discriminating pattern directly.
	target = leftmostNonTrivial(rows[0].obligations)

	ctors := distinctConstructors(rows, target.path)
	testKind := testKindFor(target.pat)

	var cases []Case
	for _, ctor := range ctors {
		specialized := specialize(rows, target.path, ctor)
		subtree, exhaustive := compile(pool, specialized, reached, variantCounts)
		cases = append(cases, Case{Value: ctor, Subtree: subtree})
		_ = exhaustive // per-case exhaustiveness folds into the Default branch below
	}
	defaultRows := defaultRowsFor(rows, target.path)
	defaultTree, defaultExhaustive := compile(pool, defaultRows, reached, variantCounts)

	allCasesExhaustive := isTotalConstructorSet(testKind, ctors, target.pat.TypeName, variantCounts) || defaultExhaustive
	node := pool.GetShared(Node{
		Kind:     NodeTest,
		Path:     target.path,
		TestKind: testKind,
		Cases:    cases,
		Default:  defaultTree,
	})
	return node, allCasesExhaustive
}

// isTrivial reports whether every remaining obligation is a wildcard
// or variable binding — i.e. the row matches unconditionally.
func isTrivial(obs []obligation) bool {
	for _, o := range obs {
		if o.pat.Kind != ast.PatWildcard && o.pat.Kind != ast.PatVar {
			return false
		}
	}
	return true
}

func leftmostNonTrivial(obs []obligation) obligation {
	for _, o := range obs {
		if o.pat.Kind != ast.PatWildcard && o.pat.Kind != ast.PatVar {
			return o
		}
	}
	return obs[0]
}

// expandPassthrough replaces a non-discriminating structural pattern
// (Tuple/Struct/fixed-only List) at path with its sub-obligations,
// across every row, so Tuple/Struct positions never themselves become
// Test nodes — only the literals/variants nested inside them do.
func expandPassthrough(rows []workRow, path []Step) []workRow {
	kind, arity := passthroughShape(rows, path)
	if kind == ast.PatWildcard { // no passthrough shape found
		return rows
	}
	out := make([]workRow, len(rows))
	for i, r := range rows {
		out[i] = workRow{root: r.root, guard: r.guard, armIndex: r.armIndex, obligations: expandRowObligation(r.obligations, path, kind, arity)}
	}
	return out
}

// passthroughShape inspects the first row carrying a concrete pattern
// at path to decide whether it is a non-discriminating shape, and if
// so, how many sub-obligations to generate.
func passthroughShape(rows []workRow, path []Step) (ast.PatternKind, int) {
	for _, r := range rows {
		o, ok := find(r.obligations, path)
		if !ok || o.pat.Kind == ast.PatWildcard || o.pat.Kind == ast.PatVar {
			continue
		}
		switch o.pat.Kind {
		case ast.PatTuple:
			return ast.PatTuple, len(o.pat.Elems)
		case ast.PatStruct:
			return ast.PatStruct, len(o.pat.Fields)
		case ast.PatList:
			if o.pat.Rest == nil {
				return ast.PatList, len(o.pat.Elems)
			}
		}
		return ast.PatWildcard, 0 // discriminating shape; stop looking
	}
	return ast.PatWildcard, 0
}

func find(obs []obligation, path []Step) (obligation, bool) {
	for _, o := range obs {
		if samePath(o.path, path) {
			return o, true
		}
	}
	return obligation{}, false
}

func samePath(a, b []Step) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func expandRowObligation(obs []obligation, path []Step, kind ast.PatternKind, arity int) []obligation {
	out := make([]obligation, 0, len(obs)+arity)
	for _, o := range obs {
		if !samePath(o.path, path) {
			out = append(out, o)
			continue
		}
		switch kind {
		case ast.PatTuple:
			if o.pat.Kind == ast.PatTuple {
				for i, sub := range o.pat.Elems {
					out = append(out, obligation{path: append(clonePath(path), Step{Kind: StepField, Index: i}), pat: sub})
				}
			} else {
				for i := 0; i < arity; i++ {
					out = append(out, obligation{path: append(clonePath(path), Step{Kind: StepField, Index: i}), pat: wildcard(o.pat.Span)})
				}
			}
		case ast.PatStruct:
			if o.pat.Kind == ast.PatStruct {
				for i, f := range o.pat.Fields {
					out = append(out, obligation{path: append(clonePath(path), Step{Kind: StepField, Index: i}), pat: f.Sub})
				}
			} else {
				for i := 0; i < arity; i++ {
					out = append(out, obligation{path: append(clonePath(path), Step{Kind: StepField, Index: i}), pat: wildcard(o.pat.Span)})
				}
			}
		case ast.PatList:
			if o.pat.Kind == ast.PatList && o.pat.Rest == nil {
				for i, sub := range o.pat.Elems {
					out = append(out, obligation{path: append(clonePath(path), Step{Kind: StepListHead, Index: i}), pat: sub})
				}
			} else {
				for i := 0; i < arity; i++ {
					out = append(out, obligation{path: append(clonePath(path), Step{Kind: StepListHead, Index: i}), pat: wildcard(o.pat.Span)})
				}
			}
		}
	}
	return out
}

func clonePath(p []Step) []Step {
	out := make([]Step, len(p))
	copy(out, p)
	return out
}

func wildcard(span source.Span) ast.Pattern {
	return ast.Pattern{Kind: ast.PatWildcard, Span: span}
}

func testKindFor(p ast.Pattern) TestKind {
	switch p.Kind {
	case ast.PatLiteral:
		switch p.Literal.Kind {
		case ast.LitInt, ast.LitChar:
			return TestInt
		case ast.LitString:
			return TestString
		case ast.LitBool:
			return TestBool
		}
	case ast.PatVariant:
		return TestVariantTag
	case ast.PatList:
		return TestListLen
	case ast.PatRange:
		return TestRange
	}
	return TestInt
}

// distinctConstructors gathers the set of concrete constructors
// appearing at path across rows, in the deterministic order
// sortConstructors gives them: integer literals ascending, variant
// tags by declaration order, list-length cases by length, and string
// literals in byte-wise lexicographic order of their text (not in
// interned order).
func distinctConstructors(rows []workRow, path []Step) []TestValue {
	seen := map[string]bool{}
	var out []TestValue
	for _, r := range rows {
		o, ok := find(r.obligations, path)
		if !ok {
			continue
		}
		tv, isConcrete := constructorOf(o.pat)
		if !isConcrete {
			continue
		}
		key := fmt.Sprintf("%+v", tv)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, tv)
	}
	sortConstructors(out)
	return out
}

func constructorOf(p ast.Pattern) (TestValue, bool) {
	switch p.Kind {
	case ast.PatLiteral:
		switch p.Literal.Kind {
		case ast.LitInt:
			return TestValue{Int: p.Literal.Int}, true
		case ast.LitChar:
			return TestValue{Int: int64(p.Literal.Char)}, true
		case ast.LitString:
			return TestValue{Str: p.Literal.Str}, true
		case ast.LitBool:
			return TestValue{Bool: p.Literal.Bool}, true
		}
	case ast.PatVariant:
		return TestValue{VariantTag: p.Tag}, true
	case ast.PatList:
		cmp := LenEqual
		if p.Rest != nil {
			cmp = LenGreater // "at least N" — modeled as a one-sided threshold
		}
		return TestValue{Len: len(p.Elems), LenCmp: cmp}, true
	case ast.PatRange:
		return TestValue{RangeLow: p.RangeLow.Int, RangeHigh: p.RangeHigh.Int, Inclusive: p.RangeInclusive}, true
	}
	return TestValue{}, false
}

func sortConstructors(vs []TestValue) {
	sort.Slice(vs, func(i, j int) bool {
		a, b := vs[i], vs[j]
		if a.Str != b.Str {
			return a.Str < b.Str
		}
		if a.VariantTag != b.VariantTag {
			return a.VariantTag < b.VariantTag
		}
		if a.Len != b.Len {
			return a.Len < b.Len
		}
		if a.RangeLow != b.RangeLow {
			return a.RangeLow < b.RangeLow
		}
		return a.Int < b.Int
	})
}

// specialize returns the rows compatible with ctor at path, each with
// the obligation at path replaced by its sub-obligations (payload for
// a variant, head/tail for a list-with-rest) or simply removed for a
// pure-value test (literal, range).
func specialize(rows []workRow, path []Step, ctor TestValue) []workRow {
	var out []workRow
	for _, r := range rows {
		o, ok := find(r.obligations, path)
		if !ok {
			out = append(out, r)
			continue
		}
		if o.pat.Kind == ast.PatWildcard || o.pat.Kind == ast.PatVar {
			out = append(out, workRow{root: r.root, guard: r.guard, armIndex: r.armIndex, obligations: removeAt(r.obligations, path)})
			continue
		}
		tv, isConcrete := constructorOf(o.pat)
		if !isConcrete || !sameConstructor(tv, ctor) {
			continue
		}
		out = append(out, workRow{root: r.root, guard: r.guard, armIndex: r.armIndex, obligations: specializeObligation(r.obligations, path, o.pat)})
	}
	return out
}

func sameConstructor(a, b TestValue) bool {
	return fmt.Sprintf("%+v", a) == fmt.Sprintf("%+v", b)
}

func removeAt(obs []obligation, path []Step) []obligation {
	out := make([]obligation, 0, len(obs))
	for _, o := range obs {
		if !samePath(o.path, path) {
			out = append(out, o)
		}
	}
	return out
}

func specializeObligation(obs []obligation, path []Step, pat ast.Pattern) []obligation {
	out := make([]obligation, 0, len(obs))
	for _, o := range obs {
		if !samePath(o.path, path) {
			out = append(out, o)
			continue
		}
		switch pat.Kind {
		case ast.PatVariant:
			for i, sub := range pat.Payload {
				out = append(out, obligation{path: append(clonePath(path), Step{Kind: StepVariantPayload, Index: i}), pat: sub})
			}
		case ast.PatList:
			for i, sub := range pat.Elems {
				out = append(out, obligation{path: append(clonePath(path), Step{Kind: StepListHead, Index: i}), pat: sub})
			}
			if pat.Rest != nil {
				out = append(out, obligation{path: append(clonePath(path), Step{Kind: StepListTail, Index: len(pat.Elems)}), pat: ast.Pattern{Kind: ast.PatVar, Name: *pat.Rest, Span: pat.Span}})
			}
			// PatLiteral, PatRange: no sub-obligations, the value itself was the whole test.
		}
	}
	return out
}

// defaultRowsFor collects rows whose obligation at path is a wildcard
// or variable binding (§4.1.1 step 4).
func defaultRowsFor(rows []workRow, path []Step) []workRow {
	var out []workRow
	for _, r := range rows {
		o, ok := find(r.obligations, path)
		if !ok {
			out = append(out, r)
			continue
		}
		if o.pat.Kind == ast.PatWildcard || o.pat.Kind == ast.PatVar {
			out = append(out, workRow{root: r.root, guard: r.guard, armIndex: r.armIndex, obligations: removeAt(r.obligations, path)})
		}
	}
	return out
}

// isTotalConstructorSet reports whether testing every value in ctors
// already covers every possible value of the tested domain, making a
// Default branch unnecessary for exhaustiveness (e.g. bool's {true,
// false}, Option/Result's {None, Some}/{Ok, Err}, or every case of a
// user-declared sum type named with no wildcard left over). Strings,
// ints, and ranges are treated as open domains that always need a
// default/wildcard arm. typeName is the pattern's declaring type
// (empty for Option/Result, which are always the built-in 2-case
// shape); variantCounts supplies the true count for anything else.
func isTotalConstructorSet(kind TestKind, ctors []TestValue, typeName ident.Name, variantCounts map[ident.Name]int) bool {
	switch kind {
	case TestBool:
		return len(ctors) == 2
	case TestVariantTag:
		if typeName == ident.Name(0) {
			return len(ctors) == 2
		}
		total, ok := variantCounts[typeName]
		return ok && len(ctors) == total
	default:
		return false
	}
}

// collectBindings walks a row's full original pattern, recording every
// Var pattern's (path, name) — bindings are computed directly from the
// structure, not accumulated incrementally during compilation, since a
// Var's value at its path is well-defined regardless of test order.
func collectBindings(p ast.Pattern, path []Step) []Binding {
	switch p.Kind {
	case ast.PatVar:
		return []Binding{{Name: p.Name, Path: clonePath(path)}}
	case ast.PatTuple:
		var out []Binding
		for i, sub := range p.Elems {
			out = append(out, collectBindings(sub, append(clonePath(path), Step{Kind: StepField, Index: i}))...)
		}
		return out
	case ast.PatStruct:
		var out []Binding
		for i, f := range p.Fields {
			out = append(out, collectBindings(f.Sub, append(clonePath(path), Step{Kind: StepField, Index: i}))...)
		}
		return out
	case ast.PatList:
		var out []Binding
		for i, sub := range p.Elems {
			out = append(out, collectBindings(sub, append(clonePath(path), Step{Kind: StepListHead, Index: i}))...)
		}
		if p.Rest != nil {
			out = append(out, Binding{Name: *p.Rest, Path: append(clonePath(path), Step{Kind: StepListTail, Index: len(p.Elems)})})
		}
		return out
	case ast.PatVariant:
		var out []Binding
		for i, sub := range p.Payload {
			out = append(out, collectBindings(sub, append(clonePath(path), Step{Kind: StepVariantPayload, Index: i}))...)
		}
		return out
	case ast.PatOr:
		if len(p.Elems) > 0 {
			return collectBindings(p.Elems[0], path)
		}
	}
	return nil
}
