// Package borrow implements the RC Inserter's global borrow-derivation
// analysis (§4.2, "Borrow-derived ownership (global)"): a fixpoint
// classification of every refcounted value as Owned,
// BorrowedFrom(parent), or Captured(by a closure).
package borrow

import "github.com/korelang/korec/internal/blockir"

// Class discriminates the three points of the borrow lattice. The
// lattice only loses information — Owned > BorrowedFrom > Captured —
// so the fixpoint loop below is monotone and always terminates.
type Class uint8

const (
	Owned Class = iota
	BorrowedFrom
	Captured
)

// Origin is one value's derived ownership: Class plus, for
// BorrowedFrom, the parent it was projected from, and for Captured,
// the PartialApply instruction's result that captured it.
type Origin struct {
	Class   Class
	Parent  blockir.ValueId // meaningful for BorrowedFrom
	Closure blockir.ValueId // meaningful for Captured
}

// rank gives Owned the highest rank so `meet` (greatest lower bound)
// can be expressed as "lower rank wins" — once a value is observed as
// BorrowedFrom or Captured anywhere, it can never climb back to Owned.
func (c Class) rank() int {
	switch c {
	case Owned:
		return 2
	case BorrowedFrom:
		return 1
	default: // Captured
		return 0
	}
}

// meet returns the more conservative (lower-ranked) of a and b,
// preferring a's parent/closure payload on a tie since the two should
// agree once the fixpoint has converged.
func meet(a, b Origin) Origin {
	if b.Class.rank() < a.Class.rank() {
		return b
	}
	return a
}

// Result maps every refcounted value to its derived Origin.
type Result map[blockir.ValueId]Origin

// Analyze computes Origin for every refcounted value reachable from
// fn's entry parameters, iterating instructions and terminators to a
// fixpoint. isRC restricts the domain to values the classifier (§4.2,
// internal/rc) considers refcounted; escapesBlock reports whether a
// PartialApply's resulting closure value is used outside the block
// that defines it (the "does not escape the defining block" condition
// on borrowed-parameter capture).
func Analyze(fn *blockir.Function, isRC func(blockir.ValueId) bool, escapesBlock func(closure blockir.ValueId) bool) Result {
	result := make(Result)

	entry := fn.Blocks[fn.Entry]
	for _, p := range entry.Params {
		if !isRC(p.Value) {
			continue
		}
		if entryParamBorrowed(p) {
			result[p.Value] = Origin{Class: BorrowedFrom, Parent: p.Value}
		} else {
			result[p.Value] = Origin{Class: Owned}
		}
	}

	changed := true
	for changed {
		changed = false
		for _, b := range fn.Blocks {
			for _, inst := range b.Insts {
				if inst.Result == blockir.InvalidValue || !isRC(inst.Result) {
					continue
				}
				derived, ok := deriveInst(inst, result, isRC, escapesBlock)
				if !ok {
					continue
				}
				cur, seen := result[inst.Result]
				if !seen {
					result[inst.Result] = derived
					changed = true
					continue
				}
				next := meet(cur, derived)
				if next != cur {
					result[inst.Result] = next
					changed = true
				}
			}
		}
	}

	return result
}

// entryParamBorrowed reads the Ownership tag blockir already attaches
// to every block parameter — the declared Owned/Borrowed annotation
// the canonicalizer's signature lowering assigns per §4.2's "Ownership
// annotations (input)".
func entryParamBorrowed(p blockir.BlockParam) bool {
	return p.Ownership == blockir.Borrowed
}

// deriveInst computes one instruction's result's Origin from its
// operands' already-known Origins, per the four derivation rules of
// §4.2. Returns ok=false when an operand's Origin isn't known yet (the
// fixpoint loop will revisit once it is).
func deriveInst(inst blockir.Inst, known Result, isRC func(blockir.ValueId) bool, escapesBlock func(blockir.ValueId) bool) (Origin, bool) {
	switch inst.Kind {
	case blockir.InstProject:
		base, ok := resolvedOrigin(inst.Base, known, isRC)
		if !ok {
			return Origin{}, false
		}
		switch base.Class {
		case BorrowedFrom:
			// "Project from a borrowed value → BorrowedFrom(same parent)."
			return Origin{Class: BorrowedFrom, Parent: base.Parent}, true
		default:
			// "Project from an owned value → Owned (new owned reference)."
			return Origin{Class: Owned}, true
		}

	case blockir.InstPartialApply:
		// "Capture in a PartialApply at a declared borrowed callee
		// position → still borrowed provided the closure does not
		// escape the defining block." Absent per-parameter callee
		// ownership info at this layer, a capture is borrowed exactly
		// when its source value is already borrowed and the resulting
		// closure stays block-local.
		if escapesBlock(inst.Result) {
			return Origin{Class: Owned}, true
		}
		allBorrowed := true
		for _, c := range inst.Captures {
			if !isRC(c) {
				continue
			}
			o, ok := resolvedOrigin(c, known, isRC)
			if !ok {
				return Origin{}, false
			}
			if o.Class != BorrowedFrom {
				allBorrowed = false
			}
		}
		if allBorrowed {
			return Origin{Class: Captured, Closure: inst.Result}, true
		}
		return Origin{Class: Owned}, true

	case blockir.InstConstruct:
		// "Any value stored into a Construct... → Owned requirement at
		// that site." The constructed aggregate is itself a fresh
		// owned value regardless of its fields' individual origins.
		return Origin{Class: Owned}, true

	case blockir.InstApply, blockir.InstApplyIndirect:
		// A call's return value is always a fresh owned reference: the
		// callee either produced it new or transferred ownership of an
		// argument into the return position, either way the caller
		// receives its own count.
		return Origin{Class: Owned}, true

	default:
		return Origin{Class: Owned}, true
	}
}

// resolvedOrigin looks up v's Origin, treating a non-refcounted value
// as trivially Owned (it carries no count to track).
func resolvedOrigin(v blockir.ValueId, known Result, isRC func(blockir.ValueId) bool) (Origin, bool) {
	if !isRC(v) {
		return Origin{Class: Owned}, true
	}
	o, ok := known[v]
	return o, ok
}
