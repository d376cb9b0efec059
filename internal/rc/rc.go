// Package rc implements the RC Inserter (§4.2–§4.2.4): given a
// BlockIR function, inserts the minimal set of Inc/Dec instructions so
// every refcounted value's count balances on every path, using
// internal/liveness for per-block live-in/live-out and internal/borrow
// for the global ownership classification that decides which uses may
// skip an Inc.
package rc

import (
	"github.com/korelang/korec/internal/blockir"
	"github.com/korelang/korec/internal/borrow"
	"github.com/korelang/korec/internal/ident"
	"github.com/korelang/korec/internal/liveness"
	"github.com/korelang/korec/internal/types"
)

// RequiresRC is the classifier (§4.2, "Classifier"): a pure function
// from a resolved type to whether values of that type are refcounted.
// Primitive scalars never are. Heap containers (String, List, Map,
// Set) always are. Value aggregates (Tuple, the built-in Option/Result
// algebraics) are refcounted iff some element is. Closures always are.
// User-declared struct/sum types are conservatively always refcounted:
// internal/types's Pool does not retain field/payload types for
// KindStruct/KindSum (by design — full type-checking lives upstream,
// out of scope here), so "contains any refcounted field" can't be
// decided structurally; treating every declared type as refcounted is
// the sound over-approximation (a false positive costs an extra
// Inc/Dec pair, never a leak or a double-free).
func RequiresRC(pool *types.Pool, id types.ID) bool {
	t := pool.Lookup(id)
	switch t.Kind {
	case types.KindString, types.KindList, types.KindMap, types.KindSet, types.KindClosure:
		return true
	case types.KindStruct, types.KindSum:
		return true
	case types.KindTuple, types.KindOption, types.KindResult:
		for _, p := range t.Params {
			if RequiresRC(pool, p) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// Insert runs the full pass over fn in place: per-block Inc/Dec
// insertion (§4.2.1), edge cleanup (§4.2.2), and landing-pad cleanup
// for Invoke terminators (§4.2.3). paramOwnership resolves a callee's
// per-position Owned/Borrowed signature for the borrowed-callee-
// position exception; it is blockir.Module.ParamOwnership.
func Insert(fn *blockir.Function, pool *types.Pool, valueTypes map[blockir.ValueId]types.ID, paramOwnership map[ident.Name][]blockir.Ownership) {
	isRC := func(v blockir.ValueId) bool {
		t, ok := valueTypes[v]
		if !ok {
			return false
		}
		return RequiresRC(pool, t)
	}
	escapesBlock := func(blockir.ValueId) bool { return false } // §4.2 simplification, see DESIGN.md

	live := liveness.Analyze(fn, isRC)
	origins := borrow.Analyze(fn, isRC, escapesBlock)

	for _, b := range fn.Blocks {
		insertInBlock(b, live, origins, isRC, paramOwnership)
	}

	edgeCleanup(fn, live, isRC)
	landingPadCleanup(fn, live, isRC)
}

// insertInBlock applies §4.2.1's rules to one block, in program order.
func insertInBlock(b *blockir.Block, live *liveness.Result, origins borrow.Result, isRC func(blockir.ValueId) bool, paramOwnership map[ident.Name][]blockir.Ownership) {
	liveOut := live.LiveOut[b.ID]
	lastUse := computeLastUse(b, liveOut, isRC)

	var newInsts []blockir.Inst

	// Unused-param cleanup: an Owned entry parameter neither used in
	// this block nor live-out gets a Dec at block entry.
	for _, p := range b.Params {
		if !isRC(p.Value) || p.Ownership != blockir.Owned {
			continue
		}
		if _, liveAfter := liveOut[p.Value]; liveAfter {
			continue
		}
		if !usedAnywhereInBlock(b, p.Value) {
			newInsts = append(newInsts, blockir.Inst{Kind: blockir.InstDec, Target: p.Value})
		}
	}

	for i, inst := range b.Insts {
		for _, u := range instUses(inst) {
			if !isRC(u) {
				continue
			}
			if isLastUse(lastUse, i, u) {
				continue // ownership transfers, no Inc
			}
			if borrowedCalleePosition(inst, u, origins, paramOwnership) {
				continue // borrowed-position use of a non-Owned value: no Inc
			}
			newInsts = append(newInsts, blockir.Inst{Kind: blockir.InstInc, Target: u})
		}

		newInsts = append(newInsts, inst)

		if inst.Result != blockir.InvalidValue && isRC(inst.Result) {
			if !usedLaterOrLiveOut(b, i, inst.Result, liveOut) {
				newInsts = append(newInsts, blockir.Inst{Kind: blockir.InstDec, Target: inst.Result})
			}
		}
	}

	b.Insts = newInsts
}

// borrowedCalleePosition reports whether use (an argument to an Apply
// instruction) sits at a declared-borrowed parameter position and the
// value's global borrow class is not Owned — the §4.2.1 exception that
// suppresses the Inc a live-after use would otherwise require.
func borrowedCalleePosition(inst blockir.Inst, use blockir.ValueId, origins borrow.Result, paramOwnership map[ident.Name][]blockir.Ownership) bool {
	if inst.Kind != blockir.InstApply {
		return false
	}
	sig, ok := paramOwnership[inst.Callee]
	if !ok {
		return false
	}
	idx := argIndex(inst.Args, use)
	if idx < 0 || idx >= len(sig) {
		return false
	}
	if sig[idx] != blockir.Borrowed {
		return false
	}
	o, known := origins[use]
	return !known || o.Class != borrow.Owned
}

func argIndex(args []blockir.ValueId, v blockir.ValueId) int {
	for i, a := range args {
		if a == v {
			return i
		}
	}
	return -1
}

// computeLastUse returns, for each refcounted value used in b, the
// index of its last use among b.Insts and b.Term (index len(b.Insts)
// denotes the terminator). A value live-out of b never has a "last
// use" recorded (it's used again in some successor).
func computeLastUse(b *blockir.Block, liveOut liveness.ValueSet, isRC func(blockir.ValueId) bool) map[blockir.ValueId]int {
	last := make(map[blockir.ValueId]int)
	for i, inst := range b.Insts {
		for _, u := range instUses(inst) {
			if isRC(u) {
				last[u] = i
			}
		}
	}
	termUses, _ := terminatorUses(b.Term)
	for _, u := range termUses {
		if isRC(u) {
			last[u] = len(b.Insts)
		}
	}
	for v := range liveOut {
		delete(last, v) // live-out values are used again downstream, not "last" here
	}
	return last
}

func isLastUse(last map[blockir.ValueId]int, instIndex int, v blockir.ValueId) bool {
	idx, ok := last[v]
	return ok && idx == instIndex
}

func usedAnywhereInBlock(b *blockir.Block, v blockir.ValueId) bool {
	for _, inst := range b.Insts {
		for _, u := range instUses(inst) {
			if u == v {
				return true
			}
		}
	}
	termUses, _ := terminatorUses(b.Term)
	for _, u := range termUses {
		if u == v {
			return true
		}
	}
	return false
}

// usedLaterOrLiveOut reports whether v (defined at instruction index
// defIdx) is used by a later instruction, the terminator, or is
// live-out of the block — i.e. whether it has any reason to survive
// past its definition, making an immediate Dec wrong.
func usedLaterOrLiveOut(b *blockir.Block, defIdx int, v blockir.ValueId, liveOut liveness.ValueSet) bool {
	if _, ok := liveOut[v]; ok {
		return true
	}
	for i := defIdx + 1; i < len(b.Insts); i++ {
		for _, u := range instUses(b.Insts[i]) {
			if u == v {
				return true
			}
		}
	}
	termUses, _ := terminatorUses(b.Term)
	for _, u := range termUses {
		if u == v {
			return true
		}
	}
	return false
}

// instUses returns every ValueId inst reads (mirrors internal/liveness,
// duplicated rather than imported to keep this pass's notion of "use"
// independent of liveness's. They differ in one case: liveness also
// counts an Inc/Dec's Target as a use, this copy does not).
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
	}
	return uses
}

func terminatorUses(t blockir.Terminator) (uses []blockir.ValueId, def blockir.ValueId) {
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
