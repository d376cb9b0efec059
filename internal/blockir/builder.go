package blockir

import (
	"github.com/korelang/korec/internal/ast"
	"github.com/korelang/korec/internal/canon"
	"github.com/korelang/korec/internal/ident"
	"github.com/korelang/korec/internal/pattern"
	"github.com/korelang/korec/internal/types"
	"github.com/korelang/korec/internal/value"
)

// Builder lowers one canonicalized function body into a Function's CFG
// (§3.4, "Block-Form Builder"). A Builder is single-use: construct one
// per function via BuildFunction.
type Builder struct {
	result *canon.CanonResult
	fn     *Function
	cur    *Block

	// terminatedBlocks tracks which blocks already have a deliberately
	// set terminator, distinguishing that from the zero Terminator{}
	// every freshly allocated block starts with.
	terminatedBlocks map[BlockId]bool
}

// ParamSpec describes one declared function parameter to bind as the
// entry block's block parameters.
type ParamSpec struct {
	Name      ident.Name
	Type      types.ID
	Ownership Ownership
}

// BuildFunction lowers body (a canon.NodeId reachable in result.Arena)
// into a complete Function: an entry block whose parameters are params,
// in order, followed by however many blocks the body's control flow
// requires.
func BuildFunction(name ident.Name, body canon.NodeId, returnType types.ID, params []ParamSpec, result *canon.CanonResult) *Function {
	fn := &Function{Name: name, ReturnType: returnType}
	b := &Builder{result: result, fn: fn}

	entry := fn.newBlock()
	fn.Entry = entry.ID
	b.cur = entry

	env := make(map[ident.Name]ValueId, len(params))
	for _, p := range params {
		v := fn.newValue()
		entry.Params = append(entry.Params, BlockParam{Value: v, Type: p.Type, Ownership: p.Ownership})
		if p.Name != ident.Name(0) {
			env[p.Name] = v
		}
	}

	result0 := b.lowerExpr(env, body)
	b.closeWithReturn(result0)
	return fn
}

// closeWithReturn sets the current block's terminator to Return v,
// unless a nested lowering (If/Match) already closed it.
func (b *Builder) closeWithReturn(v ValueId) {
	if !b.blockTerminated() {
		b.setTerm(b.cur, Terminator{Kind: TermReturn, Value: v})
	}
}

// blockTerminated reports whether b.cur already has a meaningful
// terminator (distinguishing an explicitly-set Return(InvalidValue)
// from one we're about to set).
func (b *Builder) blockTerminated() bool {
	return b.terminatedBlocks[b.cur.ID]
}

func cloneEnv(env map[ident.Name]ValueId) map[ident.Name]ValueId {
	out := make(map[ident.Name]ValueId, len(env))
	for k, v := range env {
		out[k] = v
	}
	return out
}

func (b *Builder) emit(inst Inst) ValueId {
	b.cur.Insts = append(b.cur.Insts, inst)
	return inst.Result
}

func (b *Builder) newValue() ValueId { return b.fn.newValue() }

func (b *Builder) emitConstant(v value.Value, typ types.ID) ValueId {
	ref, err := b.result.Constants.Intern(v)
	res := b.newValue()
	if err != nil {
		b.emit(Inst{Kind: InstLet, Result: res, Type: typ, LetOp: LetConstant})
		return res
	}
	b.emit(Inst{Kind: InstLet, Result: res, Type: typ, LetOp: LetConstant, ConstRef: uint32(ref)})
	return res
}

func (b *Builder) emitBinary(op ast.BinaryOp, lhs, rhs ValueId, typ types.ID) ValueId {
	res := b.newValue()
	b.emit(Inst{Kind: InstLet, Result: res, Type: typ, LetOp: LetBinary, BinOp: op, Lhs: lhs, Rhs: rhs})
	return res
}

func (b *Builder) project(base ValueId, path []pattern.Step, typ types.ID) ValueId {
	cur := base
	for _, step := range path {
		res := b.newValue()
		b.emit(Inst{Kind: InstProject, Result: res, Type: typ, Base: cur, Path: []pattern.Step{step}})
		cur = res
	}
	return cur
}

// setTerm is used by every code path that assigns a block's Term; it
// records the block as terminated so blockTerminated can distinguish
// "not yet terminated" from a deliberate Return(InvalidValue).
func (b *Builder) setTerm(blk *Block, t Terminator) {
	blk.Term = t
	if b.terminatedBlocks == nil {
		b.terminatedBlocks = make(map[BlockId]bool)
	}
	b.terminatedBlocks[blk.ID] = true
}

// lowerExpr lowers one CanonIR node into a BlockIR value, appending
// instructions (and, for control-flow nodes, whole blocks) as needed.
func (b *Builder) lowerExpr(env map[ident.Name]ValueId, id canon.NodeId) ValueId {
	if id == canon.InvalidNode {
		return InvalidValue
	}
	arena := b.result.Arena
	kind := arena.Kinds[id]
	typ := arena.Types[id]
	p := arena.Payloads[id]

	switch kind {
	case canon.KindConstant:
		res := b.newValue()
		b.emit(Inst{Kind: InstLet, Result: res, Type: typ, LetOp: LetConstant, ConstRef: uint32(p.ConstRef)})
		return res

	case canon.KindIdent:
		if v, ok := env[p.Name]; ok {
			return v
		}
		return b.emitConstant(value.Unit(), typ) // unresolved identifier: error-recovery degrade

	case canon.KindSelf:
		if v, ok := env[ident.Name(0)]; ok {
			return v
		}
		return b.emitConstant(value.Unit(), typ)

	case canon.KindBinary:
		lhs := b.lowerExpr(env, p.A)
		rhs := b.lowerExpr(env, p.B)
		return b.emitBinary(p.BinOp, lhs, rhs, typ)

	case canon.KindUnary:
		operand := b.lowerExpr(env, p.A)
		res := b.newValue()
		b.emit(Inst{Kind: InstLet, Result: res, Type: typ, LetOp: LetUnary, UnOp: p.UnOp, Lhs: operand})
		return res

	case canon.KindCast:
		// A cast has no distinct runtime instruction in this IR; it
		// reuses its operand's value (the built-in lowerer/codegen
		// backend applies the actual conversion at the native-IR level).
		return b.lowerExpr(env, p.A)

	case canon.KindIf:
		return b.lowerIf(env, p, typ)

	case canon.KindMatch:
		return b.lowerMatch(env, p, typ)

	case canon.KindBlock:
		return b.lowerBlockExpr(env, p, typ)

	case canon.KindLet:
		init := b.lowerExpr(env, p.A)
		b.bindPattern(env, p.Pattern, init, typ)
		return b.emitConstant(value.Unit(), typ)

	case canon.KindAssign:
		val := b.lowerExpr(env, p.B)
		if targetKind := arena.Kinds[p.A]; targetKind == canon.KindIdent {
			env[arena.Payloads[p.A].Name] = val
		}
		return b.emitConstant(value.Unit(), typ)

	case canon.KindCall:
		args := b.lowerExprRange(env, p.Exprs)
		calleeName := ident.Name(0)
		if ck := arena.Kinds[p.A]; ck == canon.KindIdent || ck == canon.KindFuncRef {
			calleeName = arena.Payloads[p.A].Name
		}
		res := b.newValue()
		b.emit(Inst{Kind: InstApply, Result: res, Type: typ, Callee: calleeName, Args: args})
		return res

	case canon.KindMethodCall:
		receiver := b.lowerExpr(env, p.A)
		args := append([]ValueId{receiver}, b.lowerExprRange(env, p.Exprs)...)
		res := b.newValue()
		b.emit(Inst{Kind: InstApply, Result: res, Type: typ, Callee: p.Name, Args: args})
		return res

	case canon.KindField:
		base := b.lowerExpr(env, p.A)
		res := b.newValue()
		b.emit(Inst{Kind: InstProject, Result: res, Type: typ, Base: base, FieldName: p.Name})
		return res

	case canon.KindIndex:
		base := b.lowerExpr(env, p.A)
		if arena.Kinds[p.B] == canon.KindConstant {
			v := b.result.Constants.Lookup(arena.Payloads[p.B].ConstRef)
			if v.Kind == value.KindInt {
				return b.project(base, []pattern.Step{{Kind: pattern.StepListHead, Index: int(v.I)}}, typ)
			}
		}
		idx := b.lowerExpr(env, p.B)
		res := b.newValue()
		// Non-constant index: no decision-tree Step applies, so this
		// degrades to an opaque runtime call (empty callee name) rather
		// than a projection.
		b.emit(Inst{Kind: InstApply, Result: res, Type: typ, Callee: ident.Name(0), Args: []ValueId{base, idx}})
		return res

	case canon.KindList, canon.KindTuple:
		ck := ConstructList
		if kind == canon.KindTuple {
			ck = ConstructTuple
		}
		args := b.lowerExprRange(env, p.Exprs)
		res := b.newValue()
		b.emit(Inst{Kind: InstConstruct, Result: res, Type: typ, ConstructKind: ck, Args: args})
		return res

	case canon.KindMap:
		entries := arena.MapEntries[p.Entries.Start : p.Entries.Start+uint32(p.Entries.Len)]
		var args []ValueId
		for _, e := range entries {
			args = append(args, b.lowerExpr(env, e.Key), b.lowerExpr(env, e.Value))
		}
		res := b.newValue()
		b.emit(Inst{Kind: InstConstruct, Result: res, Type: typ, ConstructKind: ConstructMap, Args: args})
		return res

	case canon.KindStruct:
		fields := arena.StructFields[p.Fields.Start : p.Fields.Start+uint32(p.Fields.Len)]
		var args []ValueId
		var names []ident.Name
		for _, f := range fields {
			args = append(args, b.lowerExpr(env, f.Value))
			names = append(names, f.Name)
		}
		res := b.newValue()
		b.emit(Inst{Kind: InstConstruct, Result: res, Type: typ, ConstructKind: ConstructStruct, StructTypeName: p.Name, FieldNames: names, Args: args})
		return res

	case canon.KindOk, canon.KindErr, canon.KindSome:
		var args []ValueId
		if p.A != canon.InvalidNode {
			args = []ValueId{b.lowerExpr(env, p.A)}
		}
		tag := 0
		if kind == canon.KindErr {
			tag = 1
		}
		if kind == canon.KindSome {
			tag = 1
		}
		res := b.newValue()
		b.emit(Inst{Kind: InstConstruct, Result: res, Type: typ, ConstructKind: ConstructVariant, VariantTag: tag, Args: args})
		return res

	case canon.KindNone:
		res := b.newValue()
		b.emit(Inst{Kind: InstConstruct, Result: res, Type: typ, ConstructKind: ConstructVariant, VariantTag: 0})
		return res

	case canon.KindTry, canon.KindAwait:
		// Both propagate or unwrap their operand's value; the actual
		// early-return/suspend control transfer belongs to codegen, not
		// this CFG shape, so the operand's value simply flows through.
		return b.lowerExpr(env, p.A)

	case canon.KindLambda:
		var captures []ValueId
		for _, v := range env {
			captures = append(captures, v)
		}
		res := b.newValue()
		b.emit(Inst{Kind: InstPartialApply, Result: res, Type: typ, Captures: captures})
		return res

	case canon.KindWithCapability:
		provider := b.lowerExpr(env, p.A)
		res := b.newValue()
		b.emit(Inst{Kind: InstApply, Result: res, Type: typ, Callee: p.CapabilityName, Args: []ValueId{provider}})
		// The body executes under the capability; its value is the
		// overall result (the provider call models entering the effect).
		bodyVal := b.lowerExpr(env, p.B)
		return bodyVal

	default:
		// For/Loop/Break/Continue/SpecialForm/Error: loop and non-local
		// control transfer don't fit this CFG shape without a dedicated
		// lowering pass of their own (tracked separately); they degrade
		// to an opaque runtime call rather than unrolled block-level
		// looping constructs, keeping the builder's surface area scoped
		// to the straight-line/branch/match forms the RC Inserter and
		// the built-in-method lowerer actually need.
		res := b.newValue()
		b.emit(Inst{Kind: InstApply, Result: res, Type: typ, Callee: ident.Name(0)})
		return res
	}
}

func (b *Builder) lowerExprRange(env map[ident.Name]ValueId, r canon.Range) []ValueId {
	ids := b.result.Arena.ExprRange(r)
	out := make([]ValueId, len(ids))
	for i, id := range ids {
		out[i] = b.lowerExpr(env, id)
	}
	return out
}

func (b *Builder) lowerIf(env map[ident.Name]ValueId, p canon.Payload, typ types.ID) ValueId {
	cond := b.lowerExpr(env, p.A)
	condBlock := b.cur

	thenBlock := b.fn.newBlock()
	b.cur = thenBlock
	thenVal := b.lowerExpr(cloneEnv(env), p.B)
	thenEnd := b.cur

	elseBlock := b.fn.newBlock()
	b.cur = elseBlock
	var elseVal ValueId
	if p.C != canon.InvalidNode {
		elseVal = b.lowerExpr(cloneEnv(env), p.C)
	} else {
		elseVal = b.emitConstant(value.Unit(), typ)
	}
	elseEnd := b.cur

	merge := b.fn.newBlock()
	mergeParam := b.newValue()
	merge.Params = append(merge.Params, BlockParam{Value: mergeParam, Type: typ, Ownership: Owned})

	b.setTerm(condBlock, Terminator{Kind: TermBranch, Cond: cond, Then: thenBlock.ID, Else: elseBlock.ID})
	b.setTerm(thenEnd, Terminator{Kind: TermJump, Target: merge.ID, Args: []ValueId{thenVal}})
	b.setTerm(elseEnd, Terminator{Kind: TermJump, Target: merge.ID, Args: []ValueId{elseVal}})

	b.cur = merge
	return mergeParam
}

func (b *Builder) lowerBlockExpr(env map[ident.Name]ValueId, p canon.Payload, typ types.ID) ValueId {
	inner := cloneEnv(env)
	for _, id := range b.result.Arena.ExprRange(p.Exprs) {
		b.lowerExpr(inner, id)
	}
	if p.A != canon.InvalidNode {
		return b.lowerExpr(inner, p.A)
	}
	return b.emitConstant(value.Unit(), typ)
}

func (b *Builder) bindPattern(env map[ident.Name]ValueId, patID canon.BindingPatternId, val ValueId, typ types.ID) {
	if patID == canon.InvalidBindingPattern {
		return
	}
	arena := b.result.Arena
	bp := arena.BindingPats[patID]
	switch bp.Kind {
	case canon.BindName:
		env[bp.Name] = val
	case canon.BindWildcard:
		// no binding
	case canon.BindTuple:
		elems := arena.PatternElems[bp.Elems.Start : bp.Elems.Start+uint32(bp.Elems.Len)]
		for i, elemPat := range elems {
			proj := b.project(val, []pattern.Step{{Kind: pattern.StepListHead, Index: i}}, typ)
			b.bindPattern(env, elemPat, proj, typ)
		}
	case canon.BindList:
		elems := arena.PatternElems[bp.Elems.Start : bp.Elems.Start+uint32(bp.Elems.Len)]
		for i, elemPat := range elems {
			proj := b.project(val, []pattern.Step{{Kind: pattern.StepListHead, Index: i}}, typ)
			b.bindPattern(env, elemPat, proj, typ)
		}
		if bp.HasRest {
			rest := b.project(val, []pattern.Step{{Kind: pattern.StepListTail, Index: len(elems)}}, typ)
			env[bp.Rest] = rest
		}
	case canon.BindStruct:
		fields := arena.FieldBindings[bp.Fields.Start : bp.Fields.Start+uint32(bp.Fields.Len)]
		for _, fb := range fields {
			res := b.newValue()
			b.emit(Inst{Kind: InstProject, Result: res, Type: typ, Base: val, FieldName: fb.Name})
			b.bindPattern(env, fb.Pattern, res, typ)
		}
	}
}

func (b *Builder) lowerMatch(env map[ident.Name]ValueId, p canon.Payload, typ types.ID) ValueId {
	scrutVal := b.lowerExpr(env, p.A)
	armBodies := b.result.Arena.ExprRange(p.Arms)

	merge := b.fn.newBlock()
	mergeParam := b.newValue()
	merge.Params = append(merge.Params, BlockParam{Value: mergeParam, Type: typ, Ownership: Owned})

	b.buildDecisionNode(env, scrutVal, p.Tree, armBodies, merge.ID, typ)

	b.cur = merge
	return mergeParam
}

func (b *Builder) buildDecisionNode(env map[ident.Name]ValueId, scrutVal ValueId, treeID pattern.TreeID, armBodies []canon.NodeId, mergeBlock BlockId, typ types.ID) {
	node := b.result.Trees.Lookup(treeID)
	testBlock := b.cur

	switch node.Kind {
	case pattern.NodeFail:
		b.setTerm(testBlock, Terminator{Kind: TermReturn, Value: InvalidValue})

	case pattern.NodeLeaf:
		armEnv := cloneEnv(env)
		for _, bind := range node.FinalBindings {
			armEnv[bind.Name] = b.project(scrutVal, bind.Path, typ)
		}
		val := b.lowerExpr(armEnv, armBodies[node.ArmIndex])
		b.setTerm(b.cur, Terminator{Kind: TermJump, Target: mergeBlock, Args: []ValueId{val}})

	case pattern.NodeGuard:
		guardVal := b.lowerExpr(env, canon.NodeId(node.GuardExpr))
		guardBlock := b.cur
		trueBlock := b.fn.newBlock()
		falseBlock := b.fn.newBlock()
		b.setTerm(guardBlock, Terminator{Kind: TermBranch, Cond: guardVal, Then: trueBlock.ID, Else: falseBlock.ID})

		b.cur = trueBlock
		b.buildDecisionNode(env, scrutVal, node.TrueBranch, armBodies, mergeBlock, typ)

		b.cur = falseBlock
		b.buildDecisionNode(env, scrutVal, node.FalseBranch, armBodies, mergeBlock, typ)

	case pattern.NodeTest:
		base := b.project(scrutVal, node.Path, typ)
		if node.TestKind == pattern.TestRange {
			b.buildRangeChain(testBlock, env, scrutVal, base, node.Cases, node.Default, armBodies, mergeBlock, typ)
			return
		}
		var cases []SwitchCase
		for _, c := range node.Cases {
			targetBlock := b.fn.newBlock()
			b.cur = targetBlock
			b.buildDecisionNode(env, scrutVal, c.Subtree, armBodies, mergeBlock, typ)
			cases = append(cases, SwitchCase{Value: c.Value, Target: targetBlock.ID})
		}
		defaultBlock := b.fn.newBlock()
		b.cur = defaultBlock
		b.buildDecisionNode(env, scrutVal, node.Default, armBodies, mergeBlock, typ)
		b.setTerm(testBlock, Terminator{Kind: TermSwitch, Scrutinee: base, Cases: cases, Default: defaultBlock.ID})
	}
}

func (b *Builder) buildRangeChain(testBlock *Block, env map[ident.Name]ValueId, scrutVal, base ValueId, cases []pattern.Case, defaultTree pattern.TreeID, armBodies []canon.NodeId, mergeBlock BlockId, typ types.ID) {
	cur := testBlock
	for _, c := range cases {
		b.cur = cur
		lowV := b.emitConstant(value.Int(c.Value.RangeLow), typ)
		highV := b.emitConstant(value.Int(c.Value.RangeHigh), typ)
		geV := b.emitBinary(ast.OpGe, base, lowV, typ)
		hiOp := ast.OpLt
		if c.Value.Inclusive {
			hiOp = ast.OpLe
		}
		leV := b.emitBinary(hiOp, base, highV, typ)
		andV := b.emitBinary(ast.OpAnd, geV, leV, typ)

		matchBlock := b.fn.newBlock()
		nextBlock := b.fn.newBlock()
		b.setTerm(cur, Terminator{Kind: TermBranch, Cond: andV, Then: matchBlock.ID, Else: nextBlock.ID})

		b.cur = matchBlock
		b.buildDecisionNode(env, scrutVal, c.Subtree, armBodies, mergeBlock, typ)

		cur = nextBlock
	}
	b.cur = cur
	b.buildDecisionNode(env, scrutVal, defaultTree, armBodies, mergeBlock, typ)
}
