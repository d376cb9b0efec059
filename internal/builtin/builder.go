// Package builtin is the Built-in Method Lowerer (spec §4.3): it emits
// native IR directly for type-derived methods (compare, equals, hash,
// clone) and the small projection helpers (is_some, unwrap_or, len,
// ...), bypassing user-method dispatch whenever the receiver's type has
// one of these built in.
package builtin

import (
	"github.com/korelang/korec/internal/ident"
	"github.com/korelang/korec/internal/nativeir"
)

// builder is a thin helper over one nativeir.Function under
// construction, mirroring internal/blockir's Builder shape but with no
// ownership bookkeeping — derived-method bodies never touch RC state.
type builder struct {
	fn  *nativeir.Function
	cur *nativeir.Block
}

func newBuilder(name ident.Name, paramCount int) *builder {
	fn := &nativeir.Function{Name: name}
	b := &builder{fn: fn}
	entry := fn.NewBlock()
	fn.Entry = entry.ID
	b.cur = entry
	for i := 0; i < paramCount; i++ {
		fn.Params = append(fn.Params, fn.NewValue())
	}
	return b
}

func (b *builder) constInt(v int64) nativeir.ValueId {
	res := b.fn.NewValue()
	b.cur.Insts = append(b.cur.Insts, nativeir.Inst{Op: nativeir.OpConstInt, Result: res, IntVal: v})
	return res
}

func (b *builder) constFloat(v float64) nativeir.ValueId {
	res := b.fn.NewValue()
	b.cur.Insts = append(b.cur.Insts, nativeir.Inst{Op: nativeir.OpConstFloat, Result: res, FloatVal: v})
	return res
}

func (b *builder) constBool(v bool) nativeir.ValueId {
	res := b.fn.NewValue()
	b.cur.Insts = append(b.cur.Insts, nativeir.Inst{Op: nativeir.OpConstBool, Result: res, BoolVal: v})
	return res
}

func (b *builder) icmp(op nativeir.Op, lhs, rhs nativeir.ValueId) nativeir.ValueId {
	res := b.fn.NewValue()
	b.cur.Insts = append(b.cur.Insts, nativeir.Inst{Op: op, Result: res, Lhs: lhs, Rhs: rhs})
	return res
}

func (b *builder) binop(op nativeir.Op, lhs, rhs nativeir.ValueId) nativeir.ValueId {
	return b.icmp(op, lhs, rhs)
}

func (b *builder) sel(cond, ifTrue, ifFalse nativeir.ValueId) nativeir.ValueId {
	res := b.fn.NewValue()
	b.cur.Insts = append(b.cur.Insts, nativeir.Inst{Op: nativeir.OpSelect, Result: res, Cond: cond, IfTrue: ifTrue, IfFalse: ifFalse})
	return res
}

func (b *builder) widen(op nativeir.Op, v nativeir.ValueId) nativeir.ValueId {
	res := b.fn.NewValue()
	b.cur.Insts = append(b.cur.Insts, nativeir.Inst{Op: op, Result: res, Operand: v})
	return res
}

func (b *builder) loadField(base nativeir.ValueId, field string) nativeir.ValueId {
	res := b.fn.NewValue()
	b.cur.Insts = append(b.cur.Insts, nativeir.Inst{Op: nativeir.OpLoadField, Result: res, Base: base, FieldName: field})
	return res
}

func (b *builder) call(callee ident.Name, args ...nativeir.ValueId) nativeir.ValueId {
	res := b.fn.NewValue()
	b.cur.Insts = append(b.cur.Insts, nativeir.Inst{Op: nativeir.OpCall, Result: res, Callee: callee, Args: args})
	return res
}

// branch splits the current block on cond into two fresh successor
// blocks (both predecessor-tagged to it). b.cur is left unchanged: the
// caller points b.cur at each arm itself, and is responsible for
// terminating each arm and building the eventual merge block.
func (b *builder) branch(cond nativeir.ValueId) (then, els *nativeir.Block) {
	from := b.cur
	then = b.fn.NewBlock(from.ID)
	els = b.fn.NewBlock(from.ID)
	from.Term = nativeir.Terminator{Kind: nativeir.TermBranch, Cond: cond, Then: then.ID, Else: els.ID}
	return then, els
}

// mergeWithPhi creates a merge block reached by jumping from every
// block in froms (each having already computed the matching value in
// values), wiring a single Phi that yields the merged result — the
// "N-deep staircase ending in a phi" shape spec §4.3.4 asks for.
func mergeWithPhi(fn *nativeir.Function, froms []*nativeir.Block, values []nativeir.ValueId) (*nativeir.Block, nativeir.ValueId) {
	preds := make([]nativeir.BlockId, len(froms))
	for i, f := range froms {
		preds[i] = f.ID
	}
	merge := fn.NewBlock(preds...)
	for _, f := range froms {
		f.Term = nativeir.Terminator{Kind: nativeir.TermJump, Target: merge.ID}
	}
	phi := fn.NewValue()
	merge.Insts = append(merge.Insts, nativeir.Inst{Op: nativeir.OpPhi, Result: phi, PhiValues: values})
	return merge, phi
}

func (b *builder) ret(v nativeir.ValueId) {
	b.cur.Term = nativeir.Terminator{Kind: nativeir.TermReturn, Value: v}
}
