package diag

import (
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/korelang/korec/internal/source"
)

// maxSuggestions caps how many "did you mean" candidates a single
// diagnostic carries — a long candidate list (a struct with forty
// fields) would otherwise drown the one or two the user actually wants.
const maxSuggestions = 3

// Suggest ranks candidates against target by fuzzy edit distance,
// grounded on the teacher's planner.findClosestMatch (itself a
// single-result wrapper over the same fuzzy.RankFindFold call) —
// generalized here to return up to maxSuggestions ranked candidates
// instead of just the closest one, since a Diagnostic carries a
// Suggestions list rather than one guess.
func Suggest(target string, candidates []string) []string {
	if len(candidates) == 0 {
		return nil
	}
	ranks := fuzzy.RankFindFold(target, candidates)
	if len(ranks) == 0 {
		return nil
	}
	sort.Sort(ranks)
	n := len(ranks)
	if n > maxSuggestions {
		n = maxSuggestions
	}
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = ranks[i].Target
	}
	return out
}

// UnresolvedIdent builds a CodeUnresolvedIdent diagnostic, attaching a
// fuzzy-matched suggestion list drawn from every name in scope.
func UnresolvedIdent(span source.Span, name string, inScope []string) Diagnostic {
	return Diagnostic{
		Code:        CodeUnresolvedIdent,
		Span:        span,
		Message:     "unresolved identifier " + quote(name),
		Suggestions: Suggest(name, inScope),
	}
}

func quote(s string) string { return "\"" + s + "\"" }
