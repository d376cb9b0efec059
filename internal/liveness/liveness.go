// Package liveness implements the RC Inserter's backward per-block
// live-in/live-out dataflow over refcounted values (§4.2, "Liveness").
//
// Only values the classifier marks as requiring refcounting are
// tracked. The RC Inserter (internal/rc) consumes this package's
// Result rather than re-deriving liveness on its own; the borrow
// analysis (internal/borrow) does not use it.
package liveness

import "github.com/korelang/korec/internal/blockir"

// ValueSet is a small set of blockir.ValueId, backed by a map — blocks
// rarely carry more than a handful of live refcounted values at once,
// so a map trades a little memory locality for O(1) membership/union
// without a dependency on a generic set package.
type ValueSet map[blockir.ValueId]struct{}

func newValueSet(vs ...blockir.ValueId) ValueSet {
	s := make(ValueSet, len(vs))
	for _, v := range vs {
		s[v] = struct{}{}
	}
	return s
}

func (s ValueSet) clone() ValueSet {
	out := make(ValueSet, len(s))
	for v := range s {
		out[v] = struct{}{}
	}
	return out
}

func (s ValueSet) has(v blockir.ValueId) bool {
	_, ok := s[v]
	return ok
}

func (s ValueSet) add(v blockir.ValueId) { s[v] = struct{}{} }

func (s ValueSet) remove(v blockir.ValueId) { delete(s, v) }

// union returns a new set containing every element of a and b.
func union(a, b ValueSet) ValueSet {
	out := a.clone()
	for v := range b {
		out.add(v)
	}
	return out
}

// equal reports whether a and b contain the same elements.
func equal(a, b ValueSet) bool {
	if len(a) != len(b) {
		return false
	}
	for v := range a {
		if !b.has(v) {
			return false
		}
	}
	return true
}

// Result is the per-function liveness solution: live-in/live-out sets
// indexed by block id, restricted to refcounted values.
type Result struct {
	LiveIn  map[blockir.BlockId]ValueSet
	LiveOut map[blockir.BlockId]ValueSet
}

// Analyze computes live-in/live-out for every block of fn, considering
// only values for which isRC reports true. Entry-block parameters are
// treated as defined at function entry; a non-entry block's parameters
// are defined at block entry and consumed from the corresponding
// argument list of every predecessor's terminator.
func Analyze(fn *blockir.Function, isRC func(blockir.ValueId) bool) *Result {
	result := &Result{
		LiveIn:  make(map[blockir.BlockId]ValueSet, len(fn.Blocks)),
		LiveOut: make(map[blockir.BlockId]ValueSet, len(fn.Blocks)),
	}
	for _, b := range fn.Blocks {
		result.LiveIn[b.ID] = ValueSet{}
		result.LiveOut[b.ID] = ValueSet{}
	}

	// Standard worklist backward dataflow: iterate to a fixpoint since a
	// block's live-out depends on every successor's live-in, and loops
	// in the CFG mean no single reverse-postorder pass suffices.
	changed := true
	for changed {
		changed = false
		for _, b := range fn.Blocks {
			liveOut := ValueSet{}
			for _, succ := range successors(b) {
				liveOut = union(liveOut, result.LiveIn[succ])
			}

			liveIn := computeLiveIn(b, liveOut, isRC)

			if !equal(liveOut, result.LiveOut[b.ID]) {
				result.LiveOut[b.ID] = liveOut
				changed = true
			}
			if !equal(liveIn, result.LiveIn[b.ID]) {
				result.LiveIn[b.ID] = liveIn
				changed = true
			}
		}
	}

	return result
}

// computeLiveIn walks b's instructions in reverse, starting from
// liveOut, removing each instruction's definition and adding its uses
// — the textbook backward transfer function — then finally removes
// block-parameter definitions, since those are bound at entry, not
// produced by an instruction.
func computeLiveIn(b *blockir.Block, liveOut ValueSet, isRC func(blockir.ValueId) bool) ValueSet {
	live := liveOut.clone()

	uses, def := terminatorUsesAndDef(b.Term)
	if def != blockir.InvalidValue && isRC(def) {
		live.remove(def)
	}
	for _, u := range uses {
		if isRC(u) {
			live.add(u)
		}
	}

	for i := len(b.Insts) - 1; i >= 0; i-- {
		inst := b.Insts[i]
		if inst.Result != blockir.InvalidValue && isRC(inst.Result) {
			live.remove(inst.Result)
		}
		for _, u := range instUses(inst) {
			if isRC(u) {
				live.add(u)
			}
		}
	}

	for _, p := range b.Params {
		if isRC(p.Value) {
			live.remove(p.Value)
		}
	}

	return live
}

// instUses returns every ValueId read by inst (not including Result).
func instUses(inst blockir.Inst) []blockir.ValueId {
	var uses []blockir.ValueId
	switch inst.Kind {
	case blockir.InstLet:
		switch inst.LetOp {
		case blockir.LetBinary:
			uses = append(uses, inst.Lhs, inst.Rhs)
		case blockir.LetUnary, blockir.LetCopy:
			uses = append(uses, inst.Lhs)
		}
		// LetConstant has no operand: Lhs is meaningless (zero-valued,
		// not InvalidValue, since the builder never sets it) and must
		// not be read as a use.
	case blockir.InstApply:
		uses = append(uses, inst.Args...)
	case blockir.InstApplyIndirect:
		uses = append(uses, inst.Closure)
		uses = append(uses, inst.Args...)
	case blockir.InstPartialApply:
		uses = append(uses, inst.Captures...)
		uses = append(uses, inst.Args...)
	case blockir.InstProject:
		uses = append(uses, inst.Base)
	case blockir.InstConstruct:
		uses = append(uses, inst.Args...)
	case blockir.InstInc, blockir.InstDec:
		uses = append(uses, inst.Target)
	}
	return uses
}

// terminatorUsesAndDef returns the values a terminator reads, plus the
// value it defines (only TermInvoke defines one — its destination on
// the normal path).
func terminatorUsesAndDef(t blockir.Terminator) (uses []blockir.ValueId, def blockir.ValueId) {
	def = blockir.InvalidValue
	switch t.Kind {
	case blockir.TermReturn:
		if t.Value != blockir.InvalidValue {
			uses = append(uses, t.Value)
		}
	case blockir.TermJump:
		uses = append(uses, t.Args...)
	case blockir.TermBranch:
		uses = append(uses, t.Cond)
		uses = append(uses, t.ThenArgs...)
		uses = append(uses, t.ElseArgs...)
	case blockir.TermSwitch:
		uses = append(uses, t.Scrutinee)
		for _, c := range t.Cases {
			uses = append(uses, c.Args...)
		}
		uses = append(uses, t.DefaultArgs...)
	case blockir.TermInvoke:
		uses = append(uses, t.InvokeArgs...)
		def = t.InvokeDest
	}
	return uses, def
}

// successors returns the block ids t can transfer control to.
func successors(b *blockir.Block) []blockir.BlockId {
	t := b.Term
	switch t.Kind {
	case blockir.TermJump:
		return []blockir.BlockId{t.Target}
	case blockir.TermBranch:
		return []blockir.BlockId{t.Then, t.Else}
	case blockir.TermSwitch:
		ids := make([]blockir.BlockId, 0, len(t.Cases)+1)
		for _, c := range t.Cases {
			ids = append(ids, c.Target)
		}
		return append(ids, t.Default)
	case blockir.TermInvoke:
		return []blockir.BlockId{t.Normal, t.Unwind}
	default: // TermReturn, TermResume
		return nil
	}
}

// predecessors computes the reverse-edge map for fn's CFG — shared
// utility the edge-cleanup pass (internal/rc) needs for its
// single-predecessor-vs-multi-predecessor disambiguation (§4.2.2).
func predecessors(fn *blockir.Function) map[blockir.BlockId][]blockir.BlockId {
	preds := make(map[blockir.BlockId][]blockir.BlockId, len(fn.Blocks))
	for _, b := range fn.Blocks {
		for _, succ := range successors(b) {
			preds[succ] = append(preds[succ], b.ID)
		}
	}
	return preds
}

// Predecessors exposes the reverse-edge map for external callers
// (internal/rc's edge-cleanup pass).
func Predecessors(fn *blockir.Function) map[blockir.BlockId][]blockir.BlockId {
	return predecessors(fn)
}

// Successors exposes the per-block successor list for external callers.
func Successors(b *blockir.Block) []blockir.BlockId {
	return successors(b)
}
