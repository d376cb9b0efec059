package rc

import (
	"github.com/korelang/korec/internal/blockir"
	"github.com/korelang/korec/internal/invariant"
	"github.com/korelang/korec/internal/liveness"
)

// edgeCleanup implements §4.2.2: after per-block insertion, the same
// set of refcounted values must be live in every successor's live_in.
// A violation at one edge is a "gap" — values stranded at that
// particular predecessor — resolved by inserting Decs either at the
// top of the successor (single predecessor, or an identical gap
// shared by every predecessor) or in a synthesized trampoline block
// otherwise.
func edgeCleanup(fn *blockir.Function, live *liveness.Result, isRC func(blockir.ValueId) bool) {
	preds := liveness.Predecessors(fn)

	for _, succ := range fn.Blocks {
		predIDs := preds[succ.ID]
		if len(predIDs) == 0 {
			continue
		}

		gaps := make(map[blockir.BlockId]liveness.ValueSet, len(predIDs))
		for _, predID := range predIDs {
			pred := fn.Block(predID)
			gaps[predID] = gap(live.LiveOut[predID], live.LiveIn[succ.ID], passedArgs(pred, succ.ID))
		}

		if allEmpty(gaps) {
			continue
		}

		if len(predIDs) == 1 || allEqual(gaps) {
			var shared liveness.ValueSet
			for _, g := range gaps {
				shared = g
				break
			}
			prependDecs(succ, shared)
			continue
		}

		for _, predID := range predIDs {
			g := gaps[predID]
			if len(g) == 0 {
				continue
			}
			pred := fn.Block(predID)
			trampoline := fn.NewBlock()
			for v := range g {
				trampoline.Insts = append(trampoline.Insts, blockir.Inst{Kind: blockir.InstDec, Target: v})
			}
			trampoline.Term = blockir.Terminator{Kind: blockir.TermJump, Target: succ.ID, Args: redirectArgs(pred, succ.ID)}
			if !redirectTerminator(pred, succ.ID, trampoline.ID) {
				invariant.Internal("edge cleanup: block %d's terminator has no edge to block %d even though liveness.Predecessors reported one", pred.ID, succ.ID)
			}
		}
	}
}

// gap computes live_out(pred) − live_in(succ) − values_passed_as_args.
func gap(liveOut, liveIn liveness.ValueSet, passed map[blockir.ValueId]bool) liveness.ValueSet {
	out := liveness.ValueSet{}
	for v := range liveOut {
		if _, stillLive := liveIn[v]; stillLive {
			continue
		}
		if passed[v] {
			continue
		}
		out[v] = struct{}{}
	}
	return out
}

func passedArgs(pred *blockir.Block, succID blockir.BlockId) map[blockir.ValueId]bool {
	out := make(map[blockir.ValueId]bool)
	t := pred.Term
	switch t.Kind {
	case blockir.TermJump:
		if t.Target == succID {
			for _, a := range t.Args {
				out[a] = true
			}
		}
	case blockir.TermBranch:
		if t.Then == succID {
			for _, a := range t.ThenArgs {
				out[a] = true
			}
		}
		if t.Else == succID {
			for _, a := range t.ElseArgs {
				out[a] = true
			}
		}
	case blockir.TermSwitch:
		for _, c := range t.Cases {
			if c.Target == succID {
				for _, a := range c.Args {
					out[a] = true
				}
			}
		}
		if t.Default == succID {
			for _, a := range t.DefaultArgs {
				out[a] = true
			}
		}
	case blockir.TermInvoke:
		if t.Normal == succID {
			out[t.InvokeDest] = true
		}
	}
	return out
}

func redirectArgs(pred *blockir.Block, succID blockir.BlockId) []blockir.ValueId {
	t := pred.Term
	switch t.Kind {
	case blockir.TermJump:
		if t.Target == succID {
			return t.Args
		}
	case blockir.TermBranch:
		if t.Then == succID {
			return t.ThenArgs
		}
		if t.Else == succID {
			return t.ElseArgs
		}
	case blockir.TermSwitch:
		for _, c := range t.Cases {
			if c.Target == succID {
				return c.Args
			}
		}
		if t.Default == succID {
			return t.DefaultArgs
		}
	}
	return nil
}

// redirectTerminator rewrites every edge in pred's terminator pointing
// at succID to instead point at trampolineID, leaving its argument
// list untouched (the trampoline forwards them unchanged before
// jumping on to succID itself). Reports whether any edge matched.
func redirectTerminator(pred *blockir.Block, succID, trampolineID blockir.BlockId) bool {
	matched := false
	t := &pred.Term
	switch t.Kind {
	case blockir.TermJump:
		if t.Target == succID {
			t.Target = trampolineID
			matched = true
		}
	case blockir.TermBranch:
		if t.Then == succID {
			t.Then = trampolineID
			matched = true
		}
		if t.Else == succID {
			t.Else = trampolineID
			matched = true
		}
	case blockir.TermSwitch:
		for i := range t.Cases {
			if t.Cases[i].Target == succID {
				t.Cases[i].Target = trampolineID
				matched = true
			}
		}
		if t.Default == succID {
			t.Default = trampolineID
			matched = true
		}
	case blockir.TermInvoke:
		if t.Normal == succID {
			t.Normal = trampolineID
			matched = true
		}
	}
	return matched
}

func prependDecs(b *blockir.Block, vs liveness.ValueSet) {
	var decs []blockir.Inst
	for v := range vs {
		decs = append(decs, blockir.Inst{Kind: blockir.InstDec, Target: v})
	}
	b.Insts = append(decs, b.Insts...)
}

func allEmpty(gaps map[blockir.BlockId]liveness.ValueSet) bool {
	for _, g := range gaps {
		if len(g) > 0 {
			return false
		}
	}
	return true
}

func allEqual(gaps map[blockir.BlockId]liveness.ValueSet) bool {
	var first liveness.ValueSet
	seen := false
	for _, g := range gaps {
		if !seen {
			first, seen = g, true
			continue
		}
		if len(g) != len(first) {
			return false
		}
		for v := range g {
			if _, ok := first[v]; !ok {
				return false
			}
		}
	}
	return true
}

// landingPadCleanup implements §4.2.3: the unwind edge of every Invoke
// must release every refcounted value live at the invoke point except
// the invoke's own destination (never produced on the unwind path).
// This is edge cleanup against a synthetic "live_in" of the unwind
// target that excludes the destination, with Resume-terminated
// trampolines instead of Jump-terminated ones. The destination, if not
// live-in to the normal successor, gets a normal-path Dec at the top of
// that successor. insertInBlock does not cover this case: it only sees
// instruction results, and InvokeDest is produced by the terminator.
func landingPadCleanup(fn *blockir.Function, live *liveness.Result, isRC func(blockir.ValueId) bool) {
	for _, pred := range fn.Blocks {
		t := pred.Term
		if t.Kind != blockir.TermInvoke {
			continue
		}

		if t.InvokeDest != blockir.InvalidValue && isRC(t.InvokeDest) {
			normal := fn.Block(t.Normal)
			if _, liveIn := live.LiveIn[t.Normal][t.InvokeDest]; !liveIn {
				prependDecs(normal, liveness.ValueSet{t.InvokeDest: struct{}{}})
			}
		}

		unwindLiveAtInvoke := liveness.ValueSet{}
		for v := range live.LiveOut[pred.ID] {
			if v != t.InvokeDest {
				unwindLiveAtInvoke[v] = struct{}{}
			}
		}
		unwindIn := live.LiveIn[t.Unwind]
		g := gap(unwindLiveAtInvoke, unwindIn, map[blockir.ValueId]bool{})
		if len(g) == 0 {
			continue
		}

		trampoline := fn.NewBlock()
		for v := range g {
			trampoline.Insts = append(trampoline.Insts, blockir.Inst{Kind: blockir.InstDec, Target: v})
		}
		trampoline.Term = blockir.Terminator{Kind: blockir.TermResume}
		pred.Term.Unwind = trampoline.ID
	}
}
