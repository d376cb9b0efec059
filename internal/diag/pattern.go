package diag

import (
	"fmt"
	"strings"

	"github.com/korelang/korec/internal/pattern"
)

// FromPatternProblems converts the canonicalizer's pattern-matrix
// diagnostics (§4.1.1 step 6) into Diagnostics and appends them to b.
// pattern.Problem carries no interner-backed names to resolve — its
// Missing witnesses are already rendered strings — so this is a
// straight reshaping, not a lookup.
func FromPatternProblems(b *Bag, problems []pattern.Problem) {
	for _, p := range problems {
		switch p.Kind {
		case pattern.NonExhaustive:
			b.Add(Diagnostic{
				Code:    CodeNonExhaustiveMatch,
				Span:    p.MatchSpan,
				Message: fmt.Sprintf("match is not exhaustive; missing %s", strings.Join(p.Missing, ", ")),
			})
		case pattern.RedundantArm:
			b.Add(Diagnostic{
				Code:    CodeRedundantArm,
				Span:    p.ArmSpan,
				Message: fmt.Sprintf("arm %d is unreachable; a prior arm already covers every value it matches", p.ArmIndex),
			})
		}
	}
}
