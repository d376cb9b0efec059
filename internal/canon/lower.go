package canon

import (
	"github.com/korelang/korec/internal/ast"
	"github.com/korelang/korec/internal/ident"
	"github.com/korelang/korec/internal/pattern"
	"github.com/korelang/korec/internal/source"
	"github.com/korelang/korec/internal/types"
	"github.com/korelang/korec/internal/value"
)

func (c *Canonicalizer) typeOf(id ast.ExprID) types.ID {
	return c.module.TypeTable.TypeOf(id, c.typePool)
}

// lowerExpr is the single recursive-descent entry point (§4.1,
// "Algorithm (per expression)"). The surface kind is read once up
// front so a child's recursive lowering — which may itself grow the
// same arena — never observes a stale view of the parent's fields.
func (c *Canonicalizer) lowerExpr(id ast.ExprID) NodeId {
	if id == ast.InvalidExpr {
		return InvalidNode
	}
	e := *c.module.Expr(id)
	span := e.Span
	typ := c.typeOf(id)

	switch e.Kind {
	case ast.KindIntLit:
		return c.emitConstant(span, typ, value.Int(e.IntValue))
	case ast.KindFloatLit:
		return c.emitConstant(span, typ, value.Float(e.FloatValue))
	case ast.KindBoolLit:
		return c.emitConstant(span, typ, value.Bool(e.BoolValue))
	case ast.KindStringLit:
		return c.emitConstant(span, typ, value.Str(e.StringValue))
	case ast.KindCharLit:
		return c.emitConstant(span, typ, value.Char(e.CharValue))
	case ast.KindUnitLit:
		return c.emitConstant(span, typ, value.Unit())
	case ast.KindDurationLit:
		d, err := value.ParseDuration(e.DurationSrc)
		if err != nil {
			return c.emitError(span, typ)
		}
		return c.emitConstant(span, typ, value.FromDuration(d))
	case ast.KindSizeLit:
		sz, err := value.ParseSize(e.SizeSrc)
		if err != nil {
			return c.emitError(span, typ)
		}
		return c.emitConstant(span, typ, value.FromSize(sz))

	case ast.KindTemplateLit:
		return c.lowerTemplateLit(e, span, typ)

	case ast.KindIdent:
		return c.arena.Push(KindIdent, span, typ, Payload{Name: e.Name})
	case ast.KindSelf:
		return c.arena.Push(KindSelf, span, typ, Payload{})
	case ast.KindFuncRef:
		return c.arena.Push(KindFuncRef, span, typ, Payload{Name: e.Name})
	case ast.KindTypeRef:
		return c.arena.Push(KindTypeRef, span, typ, Payload{Name: e.Name})
	case ast.KindLenMarker:
		return c.arena.Push(KindLenMarker, span, typ, Payload{})

	case ast.KindBinary:
		return c.lowerBinary(e, span, typ)
	case ast.KindUnary:
		return c.lowerUnary(e, span, typ)
	case ast.KindCast:
		return c.lowerCast(e, span, typ)

	case ast.KindCall:
		return c.lowerCall(e, span, typ)
	case ast.KindMethodCall:
		return c.lowerMethodCall(e, span, typ)

	case ast.KindField:
		a := c.lowerExpr(e.A)
		return c.arena.Push(KindField, span, typ, Payload{A: a, Name: e.Name})
	case ast.KindIndex:
		a := c.lowerExpr(e.A)
		b := c.lowerExpr(e.B)
		return c.arena.Push(KindIndex, span, typ, Payload{A: a, B: b})

	case ast.KindIf:
		return c.lowerIf(e, span, typ)

	case ast.KindMatch:
		return c.lowerMatch(e, span, typ)

	case ast.KindFor:
		return c.lowerFor(e, span, typ)
	case ast.KindLoop:
		body := c.lowerExpr(e.A)
		return c.arena.Push(KindLoop, span, typ, Payload{A: body, Label: e.LoopLabel})
	case ast.KindBreak:
		val := InvalidNode
		if e.B != ast.InvalidExpr {
			val = c.lowerExpr(e.B)
		}
		return c.arena.Push(KindBreak, span, typ, Payload{B: val, Label: e.Label})
	case ast.KindContinue:
		return c.arena.Push(KindContinue, span, typ, Payload{Label: e.Label})

	case ast.KindBlock:
		return c.lowerBlock(e, span, typ, false)
	case ast.KindRun:
		return c.lowerRunLike(e, span, typ, false)
	case ast.KindTryBlock:
		return c.lowerRunLike(e, span, typ, true)

	case ast.KindAssign:
		a := c.lowerExpr(e.A)
		b := c.lowerExpr(e.B)
		return c.arena.Push(KindAssign, span, typ, Payload{A: a, B: b})

	case ast.KindLambda:
		return c.lowerLambda(e, span, typ)

	case ast.KindListLit:
		return c.lowerListLit(e, span, typ)
	case ast.KindTupleLit:
		ids := make([]NodeId, len(e.Exprs))
		for i, x := range e.Exprs {
			ids[i] = c.lowerExpr(x)
		}
		return c.arena.Push(KindTuple, span, typ, Payload{Exprs: c.arena.PushExprs(ids)})
	case ast.KindMapLit:
		return c.lowerMapLit(e, span, typ)
	case ast.KindStructLit:
		return c.lowerStructLit(e, span, typ)
	case ast.KindRangeLit:
		start, end, step := InvalidNode, InvalidNode, InvalidNode
		if e.A != ast.InvalidExpr {
			start = c.lowerExpr(e.A)
		}
		if e.B != ast.InvalidExpr {
			end = c.lowerExpr(e.B)
		}
		if e.C != ast.InvalidExpr {
			step = c.lowerExpr(e.C)
		}
		return c.arena.Push(KindRange, span, typ, Payload{A: start, B: end, C: step, Bool: e.BoolValue})

	case ast.KindOk:
		return c.arena.Push(KindOk, span, typ, Payload{A: c.lowerExpr(e.A)})
	case ast.KindErr:
		return c.arena.Push(KindErr, span, typ, Payload{A: c.lowerExpr(e.A)})
	case ast.KindSome:
		return c.arena.Push(KindSome, span, typ, Payload{A: c.lowerExpr(e.A)})
	case ast.KindNone:
		return c.arena.Push(KindNone, span, typ, Payload{})
	case ast.KindTry:
		return c.arena.Push(KindTry, span, typ, Payload{A: c.lowerExpr(e.A)})
	case ast.KindAwait:
		return c.arena.Push(KindAwait, span, typ, Payload{A: c.lowerExpr(e.A)})
	case ast.KindWithCapability:
		provider := c.lowerExpr(e.A)
		body := c.lowerExpr(e.B)
		return c.arena.Push(KindWithCapability, span, typ, Payload{A: provider, B: body, CapabilityName: e.CapabilityName})

	case ast.KindSpecialForm:
		props := make([]NamedExpr, len(e.Props))
		for i, p := range e.Props {
			props[i] = NamedExpr{Name: p.Name, Value: c.lowerExpr(p.Value)}
		}
		start := uint32(len(c.arena.NamedExprs))
		c.arena.NamedExprs = append(c.arena.NamedExprs, props...)
		return c.arena.Push(KindSpecialForm, span, typ, Payload{SpecialKind: e.SpecialKind, Props: Range{Start: start, Len: uint16(len(props))}})

	case ast.KindError:
		return c.emitError(span, typ)
	}
	return c.emitError(span, typ)
}

func (c *Canonicalizer) emitError(span source.Span, typ types.ID) NodeId {
	return c.arena.Push(KindError, span, typ, Payload{})
}

func (c *Canonicalizer) emitConstant(span source.Span, typ types.ID, v value.Value) NodeId {
	ref, err := c.constants.Intern(v)
	if err != nil {
		return c.emitError(span, typ)
	}
	return c.arena.Push(KindConstant, span, typ, Payload{ConstRef: ref})
}

// asConstValue reports the folded value behind a lowered node, if any
// — either a literal node (read directly from its payload) or an
// already-folded Constant node (looked up in the pool).
func (c *Canonicalizer) asConstValue(id NodeId) (value.Value, bool) {
	k := c.arena.Kinds[id]
	p := c.arena.Payloads[id]
	switch k {
	case KindConstant:
		return c.constants.Lookup(p.ConstRef), true
	case KindIntLit:
		return value.Int(p.Int), true
	case KindFloatLit:
		return value.Float(p.Float), true
	case KindBoolLit:
		return value.Bool(p.Bool), true
	case KindStringLit:
		return value.Str(p.Str), true
	case KindCharLit:
		return value.Char(p.Char), true
	case KindUnitLit:
		return value.Unit(), true
	}
	return value.Value{}, false
}

func (c *Canonicalizer) lowerBinary(e ast.Expr, span source.Span, typ types.ID) NodeId {
	left := c.lowerExpr(e.A)
	right := c.lowerExpr(e.B)
	if lv, ok := c.asConstValue(left); ok {
		if rv, ok2 := c.asConstValue(right); ok2 {
			if folded, ok3 := foldBinary(e.BinOp, lv, rv); ok3 {
				return c.emitConstant(span, typ, folded)
			}
		}
	}
	return c.arena.Push(KindBinary, span, typ, Payload{A: left, B: right, BinOp: e.BinOp})
}

func (c *Canonicalizer) lowerUnary(e ast.Expr, span source.Span, typ types.ID) NodeId {
	operand := c.lowerExpr(e.A)
	if v, ok := c.asConstValue(operand); ok {
		if folded, ok2 := foldUnary(e.UnOp, v); ok2 {
			return c.emitConstant(span, typ, folded)
		}
	}
	return c.arena.Push(KindUnary, span, typ, Payload{A: operand, UnOp: e.UnOp})
}

func (c *Canonicalizer) lowerIf(e ast.Expr, span source.Span, typ types.ID) NodeId {
	cond := c.lowerExpr(e.A)
	then := c.lowerExpr(e.B)
	els := InvalidNode
	if e.C != ast.InvalidExpr {
		els = c.lowerExpr(e.C)
	}
	if cv, ok := c.asConstValue(cond); ok && cv.Kind == value.KindBool {
		if cv.AsBool() {
			return then
		}
		if els != InvalidNode {
			return els
		}
		return c.emitConstant(span, typ, value.Unit())
	}
	return c.arena.Push(KindIf, span, typ, Payload{A: cond, B: then, C: els})
}

func (c *Canonicalizer) lowerCast(e ast.Expr, span source.Span, typ types.ID) NodeId {
	operand := c.lowerExpr(e.A)
	name := e.CastTargetName
	if _, ok := value.LookupWellKnownName(name); !ok && name == "" {
		name = "" // error recovery: unresolved cast target degrades to empty name
	}
	return c.arena.Push(KindCast, span, typ, Payload{A: operand, CastTargetName: name, CastFallible: e.CastFallible})
}

func (c *Canonicalizer) lowerTemplateLit(e ast.Expr, span source.Span, typ types.ID) NodeId {
	if !hasInterpolation(e.Parts) {
		var s string
		for _, p := range e.Parts {
			s += p.Text
		}
		return c.emitConstant(span, typ, value.Str(s))
	}
	var acc NodeId = InvalidNode
	strTy := c.typePool.Primitive(types.KindString)
	for _, part := range e.Parts {
		var piece NodeId
		if part.Expr == ast.InvalidExpr {
			piece = c.emitConstant(span, strTy, value.Str(part.Text))
		} else {
			v := c.lowerExpr(part.Expr)
			piece = c.arena.Push(KindMethodCall, span, strTy, Payload{A: v, Name: c.interner.Intern("to_str")})
		}
		if acc == InvalidNode {
			acc = piece
			continue
		}
		acc = c.arena.Push(KindBinary, span, strTy, Payload{A: acc, B: piece, BinOp: ast.OpConcat})
	}
	if acc == InvalidNode {
		return c.emitConstant(span, typ, value.Str(""))
	}
	return acc
}

func hasInterpolation(parts []ast.TemplatePart) bool {
	for _, p := range parts {
		if p.Expr != ast.InvalidExpr {
			return true
		}
	}
	return false
}

func (c *Canonicalizer) lowerCall(e ast.Expr, span source.Span, typ types.ID) NodeId {
	callee := c.lowerExpr(e.A)
	var argIds []NodeId
	if hasNamedArg(e.Args) {
		calleeName := c.calleeName(e.A)
		entries, ok := c.funcParams[calleeName]
		if ok {
			argIds = c.resolveArgs(entries, e.Args, span, typ)
		} else {
			argIds = c.lowerArgsPositional(e.Args)
		}
	} else {
		argIds = c.lowerArgsPositional(e.Args)
	}
	return c.arena.Push(KindCall, span, typ, Payload{A: callee, Exprs: c.arena.PushExprs(argIds)})
}

func (c *Canonicalizer) lowerMethodCall(e ast.Expr, span source.Span, typ types.ID) NodeId {
	receiver := c.lowerExpr(e.A)
	var argIds []NodeId
	if hasNamedArg(e.Args) {
		receiverType := c.typeOf(e.A)
		entries, ok := c.methodParams[methodKey{typ: receiverType, method: e.Name}]
		if ok {
			argIds = c.resolveArgs(entries, e.Args, span, typ)
		} else {
			argIds = c.lowerArgsPositional(e.Args)
		}
	} else {
		argIds = c.lowerArgsPositional(e.Args)
	}
	return c.arena.Push(KindMethodCall, span, typ, Payload{A: receiver, Name: e.Name, Exprs: c.arena.PushExprs(argIds)})
}

func (c *Canonicalizer) calleeName(id ast.ExprID) ident.Name {
	e := c.module.Expr(id)
	if e.Kind == ast.KindIdent || e.Kind == ast.KindFuncRef {
		return e.Name
	}
	return ident.Name(0)
}

func hasNamedArg(args []ast.Arg) bool {
	for _, a := range args {
		if a.Name != ident.Name(0) {
			return true
		}
	}
	return false
}

func (c *Canonicalizer) lowerArgsPositional(args []ast.Arg) []NodeId {
	ids := make([]NodeId, len(args))
	for i, a := range args {
		ids[i] = c.lowerExpr(a.Value)
	}
	return ids
}

// resolveArgs permutes named/positional arguments into declared order,
// filling omissions from canonicalized defaults (§4.1, "Named-argument
// call / method call"). An omitted argument with no default degrades
// to an Error node — recoverable, per §7.
func (c *Canonicalizer) resolveArgs(entries []paramEntry, args []ast.Arg, span source.Span, typ types.ID) []NodeId {
	resolved := make([]NodeId, len(entries))
	filled := make([]bool, len(entries))
	posIdx := 0
	for _, a := range args {
		if a.Name != ident.Name(0) {
			if idx := indexOfName(entries, a.Name); idx >= 0 {
				resolved[idx] = c.lowerExpr(a.Value)
				filled[idx] = true
				continue
			}
		}
		if posIdx < len(resolved) {
			resolved[posIdx] = c.lowerExpr(a.Value)
			filled[posIdx] = true
			posIdx++
		}
	}
	for i := range resolved {
		if filled[i] {
			continue
		}
		if entries[i].deflt != InvalidNode {
			resolved[i] = entries[i].deflt
		} else {
			resolved[i] = c.emitError(span, typ)
		}
	}
	return resolved
}

func indexOfName(entries []paramEntry, name ident.Name) int {
	for i, e := range entries {
		if e.name == name {
			return i
		}
	}
	return -1
}

func (c *Canonicalizer) lowerBlock(e ast.Expr, span source.Span, typ types.ID, wrapTryBindings bool) NodeId {
	var stmtIds []NodeId
	result := InvalidNode
	for i, stmt := range e.Stmts {
		isLast := i == len(e.Stmts)-1
		if stmt.IsLet {
			bindPat := c.lowerBindingPattern(stmt.Pattern)
			init := c.lowerExpr(stmt.Init)
			if wrapTryBindings {
				init = c.arena.Push(KindTry, span, c.typeOf(stmt.Init), Payload{A: init})
			}
			unitTy := c.typePool.Primitive(types.KindUnit)
			letId := c.arena.Push(KindLet, c.module.Expr(stmt.Init).Span, unitTy, Payload{Pattern: bindPat, A: init, Bool: stmt.Mutable})
			stmtIds = append(stmtIds, letId)
			continue
		}
		val := c.lowerExpr(stmt.ExprStmt)
		if isLast {
			result = val
		} else {
			stmtIds = append(stmtIds, val)
		}
	}
	return c.arena.Push(KindBlock, span, typ, Payload{Exprs: c.arena.PushExprs(stmtIds), A: result})
}

// lowerRunLike desugars Run{bindings, result} and Try{bindings, result}
// into Block{stmts, result} (§4.1, "Function-sequence forms"); a
// Try-sequence additionally wraps each binding's initializer in a Try
// node before it becomes the Let's initializer.
func (c *Canonicalizer) lowerRunLike(e ast.Expr, span source.Span, typ types.ID, isTry bool) NodeId {
	return c.lowerBlock(e, span, typ, isTry)
}

func (c *Canonicalizer) lowerLambda(e ast.Expr, span source.Span, typ types.ID) NodeId {
	params := make([]Param, len(e.Params))
	for i, p := range e.Params {
		def := InvalidNode
		if p.Default != ast.InvalidExpr {
			def = c.lowerExpr(p.Default)
		}
		params[i] = Param{Name: p.Name, Default: def}
	}
	start := uint32(len(c.arena.Params))
	c.arena.Params = append(c.arena.Params, params...)
	body := c.lowerExpr(e.A)
	return c.arena.Push(KindLambda, span, typ, Payload{Params: Range{Start: start, Len: uint16(len(params))}, A: body})
}

func (c *Canonicalizer) lowerListLit(e ast.Expr, span source.Span, typ types.ID) NodeId {
	if !hasSpreadItems(e.Items) {
		ids := make([]NodeId, len(e.Items))
		for i, it := range e.Items {
			ids[i] = c.lowerExpr(it.Value)
		}
		return c.arena.Push(KindList, span, typ, Payload{Exprs: c.arena.PushExprs(ids)})
	}
	// Spread desugaring: fold consecutive non-spread runs into List
	// nodes and chain them with spread segments via "concat" (§4.1,
	// "List / map / struct with spread").
	var acc NodeId = InvalidNode
	var run []NodeId
	flushRun := func() {
		if len(run) == 0 {
			return
		}
		acc = chainConcat(c, span, typ, acc, c.arena.Push(KindList, span, typ, Payload{Exprs: c.arena.PushExprs(run)}))
		run = nil
	}
	for _, it := range e.Items {
		if it.Spread {
			flushRun()
			acc = chainConcat(c, span, typ, acc, c.lowerExpr(it.Value))
			continue
		}
		run = append(run, c.lowerExpr(it.Value))
	}
	flushRun()
	if acc == InvalidNode {
		return c.arena.Push(KindList, span, typ, Payload{})
	}
	return acc
}

func chainConcat(c *Canonicalizer, span source.Span, typ types.ID, acc, next NodeId) NodeId {
	if acc == InvalidNode {
		return next
	}
	return c.arena.Push(KindMethodCall, span, typ, Payload{A: acc, Name: c.interner.Intern("concat"), Exprs: c.arena.PushExprs([]NodeId{next})})
}

func hasSpreadItems(items []ast.ListItem) bool {
	for _, it := range items {
		if it.Spread {
			return true
		}
	}
	return false
}

func (c *Canonicalizer) lowerMapLit(e ast.Expr, span source.Span, typ types.ID) NodeId {
	hasSpread := false
	for _, ent := range e.Entries {
		if ent.Spread {
			hasSpread = true
			break
		}
	}
	if !hasSpread {
		ids := make([]MapEntry, len(e.Entries))
		for i, ent := range e.Entries {
			ids[i] = MapEntry{Key: c.lowerExpr(ent.Key), Value: c.lowerExpr(ent.Value)}
		}
		start := uint32(len(c.arena.MapEntries))
		c.arena.MapEntries = append(c.arena.MapEntries, ids...)
		return c.arena.Push(KindMap, span, typ, Payload{Entries: Range{Start: start, Len: uint16(len(ids))}})
	}
	var acc NodeId = InvalidNode
	var run []MapEntry
	flushRun := func() {
		if len(run) == 0 {
			return
		}
		start := uint32(len(c.arena.MapEntries))
		c.arena.MapEntries = append(c.arena.MapEntries, run...)
		node := c.arena.Push(KindMap, span, typ, Payload{Entries: Range{Start: start, Len: uint16(len(run))}})
		acc = chainMerge(c, span, typ, acc, node)
		run = nil
	}
	for _, ent := range e.Entries {
		if ent.Spread {
			flushRun()
			acc = chainMerge(c, span, typ, acc, c.lowerExpr(ent.Value))
			continue
		}
		run = append(run, MapEntry{Key: c.lowerExpr(ent.Key), Value: c.lowerExpr(ent.Value)})
	}
	flushRun()
	if acc == InvalidNode {
		return c.arena.Push(KindMap, span, typ, Payload{})
	}
	return acc
}

func chainMerge(c *Canonicalizer, span source.Span, typ types.ID, acc, next NodeId) NodeId {
	if acc == InvalidNode {
		return next
	}
	return c.arena.Push(KindMethodCall, span, typ, Payload{A: acc, Name: c.interner.Intern("merge"), Exprs: c.arena.PushExprs([]NodeId{next})})
}

func (c *Canonicalizer) lowerStructLit(e ast.Expr, span source.Span, typ types.ID) NodeId {
	var base NodeId = InvalidNode
	var fields []StructField
	for _, f := range e.Fields {
		if f.Spread {
			base = c.lowerExpr(f.Value)
			continue
		}
		fields = append(fields, StructField{Name: f.Name, Value: c.lowerExpr(f.Value)})
	}
	start := uint32(len(c.arena.StructFields))
	c.arena.StructFields = append(c.arena.StructFields, fields...)
	overlay := c.arena.Push(KindStruct, span, typ, Payload{Name: c.structTypeName(typ), Fields: Range{Start: start, Len: uint16(len(fields))}})
	if base == InvalidNode {
		return overlay
	}
	return c.arena.Push(KindMethodCall, span, typ, Payload{A: base, Name: c.interner.Intern("overlay"), Exprs: c.arena.PushExprs([]NodeId{overlay})})
}

func (c *Canonicalizer) structTypeName(typ types.ID) ident.Name {
	return c.typePool.Lookup(typ).Name
}

func (c *Canonicalizer) lowerFor(e ast.Expr, span source.Span, typ types.ID) NodeId {
	iterable := c.lowerExpr(e.A)
	body := c.lowerExpr(e.B)
	guard := InvalidNode
	if e.ForGuard != ast.InvalidExpr {
		guard = c.lowerExpr(e.ForGuard)
	}
	bindPat := c.lowerBindingPattern(e.ForBinding)
	return c.arena.Push(KindFor, span, typ, Payload{A: iterable, B: body, Pattern: bindPat, ForGuard: guard, ForYield: e.ForYield, Label: e.Label})
}

func (c *Canonicalizer) lowerMatch(e ast.Expr, span source.Span, typ types.ID) NodeId {
	scrutinee := c.lowerExpr(e.A)

	guards := make([]NodeId, len(e.Arms))
	for i, arm := range e.Arms {
		if arm.Guard != ast.InvalidExpr {
			guards[i] = c.lowerExpr(arm.Guard)
		} else {
			guards[i] = InvalidNode
		}
	}

	var rows []pattern.Row
	for i, arm := range e.Arms {
		g := uint32(pattern.NoGuard)
		if guards[i] != InvalidNode {
			g = uint32(guards[i])
		}
		rows = append(rows, pattern.Row{Pattern: arm.Pattern, Guard: g, ArmIndex: i})
	}
	treeID, problems := pattern.Compile(c.trees, span, rows, c.variantCounts)
	c.problems = append(c.problems, problems...)

	bodies := make([]NodeId, len(e.Arms))
	for i, arm := range e.Arms {
		bodies[i] = c.lowerExpr(arm.Body)
	}
	armsRange := c.arena.PushExprs(bodies)

	return c.arena.Push(KindMatch, span, typ, Payload{A: scrutinee, Tree: treeID, Arms: armsRange})
}

// lowerBindingPattern lowers the restricted destructuring pattern
// language (Name|Wildcard|Tuple|Struct|List+rest) used by let/for/
// lambda bindings — distinct from the full match-pattern language
// pattern.Compile consumes (§3.1 "Binding pattern").
func (c *Canonicalizer) lowerBindingPattern(p ast.Pattern) BindingPatternId {
	switch p.Kind {
	case ast.PatVar:
		return c.pushBindingPattern(BindingPattern{Kind: BindName, Name: p.Name})
	case ast.PatTuple:
		elems := make([]BindingPatternId, len(p.Elems))
		for i, sub := range p.Elems {
			elems[i] = c.lowerBindingPattern(sub)
		}
		start := uint32(len(c.arena.PatternElems))
		c.arena.PatternElems = append(c.arena.PatternElems, elems...)
		return c.pushBindingPattern(BindingPattern{Kind: BindTuple, Elems: Range{Start: start, Len: uint16(len(elems))}})
	case ast.PatStruct:
		fbs := make([]FieldBinding, len(p.Fields))
		for i, f := range p.Fields {
			fbs[i] = FieldBinding{Name: f.Name, Pattern: c.lowerBindingPattern(f.Sub)}
		}
		start := uint32(len(c.arena.FieldBindings))
		c.arena.FieldBindings = append(c.arena.FieldBindings, fbs...)
		return c.pushBindingPattern(BindingPattern{Kind: BindStruct, Fields: Range{Start: start, Len: uint16(len(fbs))}})
	case ast.PatList:
		elems := make([]BindingPatternId, len(p.Elems))
		for i, sub := range p.Elems {
			elems[i] = c.lowerBindingPattern(sub)
		}
		start := uint32(len(c.arena.PatternElems))
		c.arena.PatternElems = append(c.arena.PatternElems, elems...)
		bp := BindingPattern{Kind: BindList, Elems: Range{Start: start, Len: uint16(len(elems))}}
		if p.Rest != nil {
			bp.Rest = *p.Rest
			bp.HasRest = true
		}
		return c.pushBindingPattern(bp)
	default:
		// A missing/unsupported binding pattern collapses to a
		// wildcard that binds no name (§4.1, "For pattern").
		return c.pushBindingPattern(BindingPattern{Kind: BindWildcard})
	}
}

func (c *Canonicalizer) pushBindingPattern(bp BindingPattern) BindingPatternId {
	id := BindingPatternId(len(c.arena.BindingPats))
	c.arena.BindingPats = append(c.arena.BindingPats, bp)
	return id
}
