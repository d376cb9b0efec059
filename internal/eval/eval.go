package eval

import (
	"fmt"

	"github.com/korelang/korec/internal/ast"
	"github.com/korelang/korec/internal/canon"
	"github.com/korelang/korec/internal/ident"
	"github.com/korelang/korec/internal/pattern"
	"github.com/korelang/korec/internal/value"
)

// FuncDef is one callable body: its parameter names in declaration
// order, the canonicalized default expression for each (InvalidNode if
// none), and the body to run once they're bound. CanonResult's
// NamedRoot/MethodRoot only retain a function's canonicalized Defaults,
// not its parameter names (those live on the surface ast.Function the
// canonicalizer already consumed) — exactly the gap internal/blockir's
// BuildFunction closes with an externally supplied []ParamSpec. The
// driver that builds an Evaluator is expected to close the same gap by
// registering a FuncDef per NamedRoot/MethodRoot alongside the AST it
// already has on hand.
type FuncDef struct {
	Params   []ident.Name
	Defaults []canon.NodeId
	Body     canon.NodeId
}

type methodKey struct {
	typeName   ident.Name
	methodName ident.Name
}

// Evaluator walks one canon.CanonResult directly, without lowering
// through internal/blockir or internal/nativeir first (§2, §9).
type Evaluator struct {
	result   *canon.CanonResult
	interner *ident.Interner

	funcs   map[ident.Name]FuncDef
	methods map[methodKey]FuncDef
}

// NewEvaluator creates an Evaluator with no functions registered yet;
// call RegisterFunction/RegisterMethod (typically once per
// NamedRoot/MethodRoot) before evaluating any call expression that
// needs them.
func NewEvaluator(result *canon.CanonResult, interner *ident.Interner) *Evaluator {
	return &Evaluator{
		result:   result,
		interner: interner,
		funcs:    make(map[ident.Name]FuncDef),
		methods:  make(map[methodKey]FuncDef),
	}
}

func (ev *Evaluator) RegisterFunction(name ident.Name, def FuncDef) {
	ev.funcs[name] = def
}

func (ev *Evaluator) RegisterMethod(typeName, methodName ident.Name, def FuncDef) {
	ev.methods[methodKey{typeName, methodName}] = def
}

func (ev *Evaluator) name(n ident.Name) string {
	if s, ok := ev.interner.Lookup(n); ok {
		return s
	}
	return "<unknown>"
}

// Eval interprets one CanonIR node, returning its value. A non-none
// signal means control is unwinding past this point (a break, a
// continue, or a `try`-operator early exit) — every composite node
// below must check it before touching the value and stop evaluating
// siblings (§3.1 "Control flow").
func (ev *Evaluator) Eval(id canon.NodeId, env *Env) (Value, signal, error) {
	if id == canon.InvalidNode {
		return Unit(), signal{}, nil
	}
	arena := ev.result.Arena
	kind := arena.Kinds[id]
	p := arena.Payloads[id]

	switch kind {
	case canon.KindConstant:
		return FromConst(ev.result.Constants.Lookup(p.ConstRef)), signal{}, nil

	// Literal node kinds are never emitted by the canonicalizer today
	// (every literal folds through the constant pool into KindConstant
	// instead — see canon.asConstValue's identical defensive handling),
	// but they are valid Arena entries per canon.Kind's contract, so
	// Eval honors them directly rather than assuming they can't occur.
	case canon.KindIntLit:
		return Int(p.Int), signal{}, nil
	case canon.KindFloatLit:
		return Float(p.Float), signal{}, nil
	case canon.KindBoolLit:
		return Bool(p.Bool), signal{}, nil
	case canon.KindStringLit:
		return Str(p.Str), signal{}, nil
	case canon.KindCharLit:
		return Char(p.Char), signal{}, nil
	case canon.KindUnitLit:
		return Unit(), signal{}, nil
	case canon.KindDurationLit:
		return Duration(p.DurationNanos, value.DurationUnit(p.DurationUnit)), signal{}, nil
	case canon.KindSizeLit:
		return Size(p.SizeBytes, value.SizeUnit(p.SizeUnit)), signal{}, nil

	case canon.KindIdent:
		if v, ok := env.Get(p.Name); ok {
			return v, signal{}, nil
		}
		return Unit(), signal{}, fmt.Errorf("eval: unresolved identifier %q", ev.name(p.Name))

	case canon.KindSelf:
		if v, ok := env.Get(selfName); ok {
			return v, signal{}, nil
		}
		return Unit(), signal{}, fmt.Errorf("eval: self referenced outside a method body")

	case canon.KindFuncRef:
		return FuncRef(p.Name), signal{}, nil

	case canon.KindTypeRef:
		return TypeRef(p.Name), signal{}, nil

	case canon.KindLenMarker:
		// Only meaningful inside an index expression desugared from
		// `xs[len - 1]`-style surface syntax. The canonicalizer keeps
		// the marker as a KindLenMarker node and evalIndex does not
		// substitute the container's length for it, so evaluating one
		// always fails here, inside an index expression or not.
		return Unit(), signal{}, fmt.Errorf("eval: len marker evaluated outside an index expression")

	case canon.KindBinary:
		return ev.evalBinary(p, env)

	case canon.KindUnary:
		return ev.evalUnary(p, env)

	case canon.KindCast:
		return ev.evalCast(p, env)

	case canon.KindIf:
		cond, sig, err := ev.Eval(p.A, env)
		if err != nil || !sig.isNone() {
			return cond, sig, err
		}
		if cond.AsBool() {
			return ev.Eval(p.B, env.Child())
		}
		if p.C != canon.InvalidNode {
			return ev.Eval(p.C, env.Child())
		}
		return Unit(), signal{}, nil

	case canon.KindMatch:
		scrut, sig, err := ev.Eval(p.A, env)
		if err != nil || !sig.isNone() {
			return scrut, sig, err
		}
		arms := arena.ExprRange(p.Arms)
		return ev.evalDecision(p.Tree, scrut, arms, env)

	case canon.KindFor:
		return ev.evalFor(p, env)

	case canon.KindLoop:
		return ev.evalLoop(p, env)

	case canon.KindBreak:
		val := Unit()
		if p.B != canon.InvalidNode {
			v, sig, err := ev.Eval(p.B, env)
			if err != nil || !sig.isNone() {
				return v, sig, err
			}
			val = v
		}
		return Unit(), signal{kind: signalBreak, label: p.Label, value: val}, nil

	case canon.KindContinue:
		return Unit(), signal{kind: signalContinue, label: p.Label}, nil

	case canon.KindBlock:
		return ev.evalBlock(p, env.Child())

	case canon.KindLet:
		init, sig, err := ev.Eval(p.A, env)
		if err != nil || !sig.isNone() {
			return init, sig, err
		}
		ev.bindPattern(env, p.Pattern, init)
		return Unit(), signal{}, nil

	case canon.KindAssign:
		val, sig, err := ev.Eval(p.B, env)
		if err != nil || !sig.isNone() {
			return val, sig, err
		}
		if arena.Kinds[p.A] == canon.KindIdent {
			env.Set(arena.Payloads[p.A].Name, val)
		}
		return Unit(), signal{}, nil

	case canon.KindCall:
		return ev.evalCall(p, env)

	case canon.KindMethodCall:
		return ev.evalMethodCall(p, env)

	case canon.KindField:
		base, sig, err := ev.Eval(p.A, env)
		if err != nil || !sig.isNone() {
			return base, sig, err
		}
		if fv, ok := base.Field(p.Name); ok {
			return fv, signal{}, nil
		}
		return Unit(), signal{}, fmt.Errorf("eval: no field %q on value", ev.name(p.Name))

	case canon.KindIndex:
		return ev.evalIndex(p, env)

	case canon.KindList:
		elems, sig, err := ev.evalExprRange(p.Exprs, env)
		if err != nil || !sig.isNone() {
			return Unit(), sig, err
		}
		return List(elems...), signal{}, nil

	case canon.KindTuple:
		elems, sig, err := ev.evalExprRange(p.Exprs, env)
		if err != nil || !sig.isNone() {
			return Unit(), sig, err
		}
		return Tuple(elems...), signal{}, nil

	case canon.KindMap:
		return ev.evalMap(p, env)

	case canon.KindStruct:
		return ev.evalStruct(p, env)

	case canon.KindRange:
		return ev.evalRangeLiteral(p, env)

	case canon.KindOk:
		v, sig, err := ev.Eval(p.A, env)
		if err != nil || !sig.isNone() {
			return v, sig, err
		}
		return Ok(v), signal{}, nil

	case canon.KindErr:
		v, sig, err := ev.Eval(p.A, env)
		if err != nil || !sig.isNone() {
			return v, sig, err
		}
		return Err(v), signal{}, nil

	case canon.KindSome:
		v, sig, err := ev.Eval(p.A, env)
		if err != nil || !sig.isNone() {
			return v, sig, err
		}
		return Some(v), signal{}, nil

	case canon.KindNone:
		return None(), signal{}, nil

	case canon.KindTry:
		return ev.evalTry(p, env)

	case canon.KindAwait:
		// No coroutine/future substrate is modeled here: this tree-
		// walker runs synchronously, so an awaited operand's value
		// simply flows through, same as internal/blockir's treatment.
		// Real suspend/resume belongs to a future async runtime, not
		// this backend.
		return ev.Eval(p.A, env)

	case canon.KindWithCapability:
		provider, sig, err := ev.Eval(p.A, env)
		if err != nil || !sig.isNone() {
			return provider, sig, err
		}
		// The provider call models entering the effect; capability
		// registration/lookup itself belongs to internal/capability.
		// The body's value is the overall result.
		return ev.Eval(p.B, env.Child())

	case canon.KindSpecialForm:
		return ev.evalSpecialForm(p, env)

	case canon.KindLambda:
		params := make([]ident.Name, p.Params.Len)
		paramDefs := arena.Params[p.Params.Start : p.Params.Start+uint32(p.Params.Len)]
		for i, pd := range paramDefs {
			params[i] = pd.Name
		}
		return ClosureValue(&Closure{Params: params, Body: p.A, Env: env}), signal{}, nil

	case canon.KindError:
		return Unit(), signal{}, fmt.Errorf("eval: reached an error-recovery node")
	}

	return Unit(), signal{}, fmt.Errorf("eval: unhandled node kind %d", kind)
}

func (ev *Evaluator) evalExprRange(r canon.Range, env *Env) ([]Value, signal, error) {
	ids := ev.result.Arena.ExprRange(r)
	out := make([]Value, 0, len(ids))
	for _, id := range ids {
		v, sig, err := ev.Eval(id, env)
		if err != nil || !sig.isNone() {
			return nil, sig, err
		}
		out = append(out, v)
	}
	return out, signal{}, nil
}

func (ev *Evaluator) evalBlock(p canon.Payload, env *Env) (Value, signal, error) {
	arena := ev.result.Arena
	for _, id := range arena.ExprRange(p.Exprs) {
		_, sig, err := ev.Eval(id, env)
		if err != nil || !sig.isNone() {
			return Unit(), sig, err
		}
	}
	if p.A != canon.InvalidNode {
		return ev.Eval(p.A, env)
	}
	return Unit(), signal{}, nil
}

func (ev *Evaluator) evalBinary(p canon.Payload, env *Env) (Value, signal, error) {
	lhs, sig, err := ev.Eval(p.A, env)
	if err != nil || !sig.isNone() {
		return lhs, sig, err
	}
	// Short-circuit && / || before evaluating the right operand.
	if p.BinOp == ast.OpAnd && lhs.Kind == KindBool && !lhs.AsBool() {
		return Bool(false), signal{}, nil
	}
	if p.BinOp == ast.OpOr && lhs.Kind == KindBool && lhs.AsBool() {
		return Bool(true), signal{}, nil
	}
	rhs, sig, err := ev.Eval(p.B, env)
	if err != nil || !sig.isNone() {
		return rhs, sig, err
	}
	v, err := evalBinaryOp(p.BinOp, lhs, rhs)
	return v, signal{}, err
}

func (ev *Evaluator) evalUnary(p canon.Payload, env *Env) (Value, signal, error) {
	v, sig, err := ev.Eval(p.A, env)
	if err != nil || !sig.isNone() {
		return v, sig, err
	}
	result, err := evalUnaryOp(p.UnOp, v)
	return result, signal{}, err
}

func (ev *Evaluator) evalCast(p canon.Payload, env *Env) (Value, signal, error) {
	operand, sig, err := ev.Eval(p.A, env)
	if err != nil || !sig.isNone() {
		return operand, sig, err
	}
	result, err := evalCastValue(p.CastTargetName, p.CastFallible, operand)
	return result, signal{}, err
}

func (ev *Evaluator) evalCall(p canon.Payload, env *Env) (Value, signal, error) {
	arena := ev.result.Arena
	calleeName := ident.Name(0)
	if ck := arena.Kinds[p.A]; ck == canon.KindIdent || ck == canon.KindFuncRef {
		calleeName = arena.Payloads[p.A].Name
	}
	args, sig, err := ev.evalExprRange(p.Exprs, env)
	if err != nil || !sig.isNone() {
		return Unit(), sig, err
	}
	if calleeName != ident.Name(0) {
		if v, ok := env.Get(calleeName); ok && (v.Kind == KindClosure || v.Kind == KindFuncRef) {
			return ev.invoke(v, args)
		}
	}
	if def, ok := ev.funcs[calleeName]; ok {
		return ev.callFunc(def, args)
	}
	return Unit(), signal{}, fmt.Errorf("eval: call to unknown function %q", ev.name(calleeName))
}

func (ev *Evaluator) invoke(v Value, args []Value) (Value, signal, error) {
	switch v.Kind {
	case KindClosure:
		return ev.callClosure(v.Closure, args)
	case KindFuncRef:
		if def, ok := ev.funcs[v.FuncRef]; ok {
			return ev.callFunc(def, args)
		}
		return Unit(), signal{}, fmt.Errorf("eval: call to unknown function %q", ev.name(v.FuncRef))
	default:
		return Unit(), signal{}, fmt.Errorf("eval: value of kind %d is not callable", v.Kind)
	}
}

func (ev *Evaluator) callFunc(def FuncDef, args []Value) (Value, signal, error) {
	callEnv := NewEnv()
	if err := ev.bindParams(callEnv, def.Params, def.Defaults, args); err != nil {
		return Unit(), signal{}, err
	}
	return ev.runBody(def.Body, callEnv)
}

func (ev *Evaluator) callClosure(c *Closure, args []Value) (Value, signal, error) {
	callEnv := c.Env.Child()
	for i, name := range c.Params {
		if i < len(args) {
			callEnv.Define(name, args[i])
		}
	}
	return ev.runBody(c.Body, callEnv)
}

// runBody evaluates a function/closure body, turning a `try`-operator
// early exit (signalPropagate) into that call's own return value and
// rejecting a break/continue that escaped every enclosing loop.
func (ev *Evaluator) runBody(body canon.NodeId, env *Env) (Value, signal, error) {
	v, sig, err := ev.Eval(body, env)
	if err != nil {
		return v, signal{}, err
	}
	switch sig.kind {
	case signalNone:
		return v, signal{}, nil
	case signalPropagate:
		return sig.value, signal{}, nil
	default:
		return Unit(), signal{}, fmt.Errorf("eval: break/continue escaped the enclosing function body")
	}
}

func (ev *Evaluator) bindParams(env *Env, params []ident.Name, defaults []canon.NodeId, args []Value) error {
	for i, name := range params {
		switch {
		case i < len(args):
			env.Define(name, args[i])
		case i < len(defaults) && defaults[i] != canon.InvalidNode:
			v, sig, err := ev.Eval(defaults[i], env)
			if err != nil {
				return err
			}
			if !sig.isNone() {
				return fmt.Errorf("eval: default expression for parameter %q produced a non-value signal", ev.name(name))
			}
			env.Define(name, v)
		default:
			return fmt.Errorf("eval: missing argument for parameter %q", ev.name(name))
		}
	}
	return nil
}

func (ev *Evaluator) evalMethodCall(p canon.Payload, env *Env) (Value, signal, error) {
	recv, sig, err := ev.Eval(p.A, env)
	if err != nil || !sig.isNone() {
		return recv, sig, err
	}
	args, sig, err := ev.evalExprRange(p.Exprs, env)
	if err != nil || !sig.isNone() {
		return Unit(), sig, err
	}
	if recv.Kind == KindTypeRef {
		if def, ok := ev.methods[methodKey{typeName: recv.StructName, methodName: p.Name}]; ok {
			callEnv := NewEnv()
			if err := ev.bindParams(callEnv, def.Params, def.Defaults, args); err != nil {
				return Unit(), signal{}, err
			}
			return ev.runBody(def.Body, callEnv)
		}
		v, err := ev.dispatchBuiltinAssociated(ev.name(recv.StructName), ev.name(p.Name), args)
		return v, signal{}, err
	}
	if recv.Kind == KindStruct || recv.Kind == KindVariant {
		if def, ok := ev.methods[methodKey{typeName: recv.StructName, methodName: p.Name}]; ok {
			callEnv := NewEnv()
			callEnv.Define(selfName, recv)
			if err := ev.bindParams(callEnv, def.Params, def.Defaults, args); err != nil {
				return Unit(), signal{}, err
			}
			return ev.runBody(def.Body, callEnv)
		}
	}
	v, err := ev.dispatchBuiltinMethod(ev.name(p.Name), recv, args)
	return v, signal{}, err
}

func (ev *Evaluator) evalIndex(p canon.Payload, env *Env) (Value, signal, error) {
	base, sig, err := ev.Eval(p.A, env)
	if err != nil || !sig.isNone() {
		return base, sig, err
	}
	idx, sig, err := ev.Eval(p.B, env)
	if err != nil || !sig.isNone() {
		return idx, sig, err
	}
	switch base.Kind {
	case KindList, KindTuple, KindSet:
		i := idx.I
		if i < 0 || i >= int64(len(base.Elems)) {
			return Unit(), signal{}, fmt.Errorf("eval: index %d out of range (len %d)", i, len(base.Elems))
		}
		return base.Elems[i], signal{}, nil
	case KindMap:
		for _, e := range base.Entries {
			if Equals(e.Key, idx) {
				return e.Value, signal{}, nil
			}
		}
		return Unit(), signal{}, fmt.Errorf("eval: key not found in map")
	default:
		return Unit(), signal{}, fmt.Errorf("eval: value of kind %d is not indexable", base.Kind)
	}
}

func (ev *Evaluator) evalMap(p canon.Payload, env *Env) (Value, signal, error) {
	arena := ev.result.Arena
	entries := arena.MapEntries[p.Entries.Start : p.Entries.Start+uint32(p.Entries.Len)]
	var out []MapEntry
	for _, e := range entries {
		k, sig, err := ev.Eval(e.Key, env)
		if err != nil || !sig.isNone() {
			return Unit(), sig, err
		}
		v, sig, err := ev.Eval(e.Value, env)
		if err != nil || !sig.isNone() {
			return Unit(), sig, err
		}
		out = mapSet(out, k, v)
	}
	return Map(out...), signal{}, nil
}

func mapSet(entries []MapEntry, key, val Value) []MapEntry {
	for i, e := range entries {
		if Equals(e.Key, key) {
			entries[i].Value = val
			return entries
		}
	}
	return append(entries, MapEntry{Key: key, Value: val})
}

func (ev *Evaluator) evalStruct(p canon.Payload, env *Env) (Value, signal, error) {
	arena := ev.result.Arena
	fields := arena.StructFields[p.Fields.Start : p.Fields.Start+uint32(p.Fields.Len)]
	out := make([]FieldValue, 0, len(fields))
	for _, f := range fields {
		v, sig, err := ev.Eval(f.Value, env)
		if err != nil || !sig.isNone() {
			return Unit(), sig, err
		}
		out = append(out, FieldValue{Name: f.Name, Value: v})
	}
	return Struct(p.Name, out), signal{}, nil
}

func (ev *Evaluator) evalRangeLiteral(p canon.Payload, env *Env) (Value, signal, error) {
	var start, end int64
	if p.A != canon.InvalidNode {
		v, sig, err := ev.Eval(p.A, env)
		if err != nil || !sig.isNone() {
			return v, sig, err
		}
		start = v.I
	}
	if p.B != canon.InvalidNode {
		v, sig, err := ev.Eval(p.B, env)
		if err != nil || !sig.isNone() {
			return v, sig, err
		}
		end = v.I
	}
	step := int64(1)
	if p.C != canon.InvalidNode {
		v, sig, err := ev.Eval(p.C, env)
		if err != nil || !sig.isNone() {
			return v, sig, err
		}
		step = v.I
	}
	it := newRangeIterator(start, end, step, p.Bool)
	var elems []Value
	for {
		v, ok := it.next()
		if !ok {
			break
		}
		elems = append(elems, v)
	}
	return List(elems...), signal{}, nil
}

func (ev *Evaluator) evalTry(p canon.Payload, env *Env) (Value, signal, error) {
	v, sig, err := ev.Eval(p.A, env)
	if err != nil || !sig.isNone() {
		return v, sig, err
	}
	switch v.Kind {
	case KindResult:
		if v.Tag == TagErr {
			return v, signal{kind: signalPropagate, value: v}, nil
		}
		return v.VariantPayloadAt(0), signal{}, nil
	case KindOption:
		if v.Tag == TagNone {
			return v, signal{kind: signalPropagate, value: v}, nil
		}
		return v.VariantPayloadAt(0), signal{}, nil
	default:
		// Not a Result/Option: the `?` operator is a no-op pass-through
		// (error-recovery degrade, matching canon's other fallbacks).
		return v, signal{}, nil
	}
}

func (ev *Evaluator) evalSpecialForm(p canon.Payload, env *Env) (Value, signal, error) {
	arena := ev.result.Arena
	props := arena.NamedExprs[p.Props.Start : p.Props.Start+uint32(p.Props.Len)]
	result := Unit()
	for _, prop := range props {
		v, sig, err := ev.Eval(prop.Value, env)
		if err != nil || !sig.isNone() {
			return v, sig, err
		}
		// The retry/timeout/etc. policy a special form's SpecialKind
		// names is out of scope for this backend (it belongs to a
		// runtime/capability integration, not the tree-walker); the
		// value of its last prop - conventionally the wrapped block -
		// stands in for the form's own result.
		result = v
	}
	return result, signal{}, nil
}

func (ev *Evaluator) evalLoop(p canon.Payload, env *Env) (Value, signal, error) {
	label := p.Label
	for {
		_, sig, err := ev.Eval(p.A, env.Child())
		if err != nil {
			return Unit(), signal{}, err
		}
		switch sig.kind {
		case signalNone:
			continue
		case signalBreak:
			if sig.matchesLabel(label) {
				return sig.value, signal{}, nil
			}
			return Unit(), sig, nil
		case signalContinue:
			if sig.matchesLabel(label) {
				continue
			}
			return Unit(), sig, nil
		default:
			return Unit(), sig, nil
		}
	}
}

func (ev *Evaluator) evalFor(p canon.Payload, env *Env) (Value, signal, error) {
	label := p.Label
	arena := ev.result.Arena

	var it *iterator
	if arena.Kinds[p.A] == canon.KindRange {
		rp := arena.Payloads[p.A]
		start, end, step := int64(0), int64(0), int64(1)
		if rp.A != canon.InvalidNode {
			v, sig, err := ev.Eval(rp.A, env)
			if err != nil || !sig.isNone() {
				return v, sig, err
			}
			start = v.I
		}
		if rp.B != canon.InvalidNode {
			v, sig, err := ev.Eval(rp.B, env)
			if err != nil || !sig.isNone() {
				return v, sig, err
			}
			end = v.I
		}
		if rp.C != canon.InvalidNode {
			v, sig, err := ev.Eval(rp.C, env)
			if err != nil || !sig.isNone() {
				return v, sig, err
			}
			step = v.I
		}
		it = newRangeIterator(start, end, step, rp.Bool)
	} else {
		iterable, sig, err := ev.Eval(p.A, env)
		if err != nil || !sig.isNone() {
			return iterable, sig, err
		}
		var ok bool
		it, ok = newIterator(iterable)
		if !ok {
			return Unit(), signal{}, fmt.Errorf("eval: value of kind %d is not iterable", iterable.Kind)
		}
	}

	var yielded []Value
	for {
		item, ok := it.next()
		if !ok {
			break
		}
		iterEnv := env.Child()
		ev.bindPattern(iterEnv, p.Pattern, item)

		if p.ForGuard != canon.InvalidNode {
			g, sig, err := ev.Eval(p.ForGuard, iterEnv)
			if err != nil || !sig.isNone() {
				return g, sig, err
			}
			if !g.AsBool() {
				continue
			}
		}

		v, sig, err := ev.Eval(p.B, iterEnv)
		if err != nil {
			return Unit(), signal{}, err
		}
		switch sig.kind {
		case signalNone:
			if p.ForYield {
				yielded = append(yielded, v)
			}
		case signalBreak:
			if sig.matchesLabel(label) {
				if p.ForYield {
					return List(yielded...), signal{}, nil
				}
				return sig.value, signal{}, nil
			}
			return Unit(), sig, nil
		case signalContinue:
			if sig.matchesLabel(label) {
				continue
			}
			return Unit(), sig, nil
		default:
			return Unit(), sig, nil
		}
	}
	if p.ForYield {
		return List(yielded...), signal{}, nil
	}
	return Unit(), signal{}, nil
}

// project follows a decision tree's scrutinee path (§3.2) against an
// already-evaluated runtime Value.
func (ev *Evaluator) project(v Value, path []pattern.Step) Value {
	cur := v
	for _, step := range path {
		switch step.Kind {
		case pattern.StepField:
			if cur.Kind == KindTuple {
				cur = cur.Elems[step.Index]
			} else {
				cur = cur.Fields[step.Index].Value
			}
		case pattern.StepVariantPayload:
			cur = cur.VariantPayloadAt(step.Index)
		case pattern.StepListHead:
			cur = cur.Elems[step.Index]
		case pattern.StepListTail:
			cur = List(cur.Elems[step.Index:]...)
		}
	}
	return cur
}

// evalDecision walks a pattern.Pool-held decision tree, shared by
// content-addressed TreeID with the codegen backend rather than
// recompiled here (§3.2, §9).
func (ev *Evaluator) evalDecision(treeID pattern.TreeID, scrut Value, arms []canon.NodeId, env *Env) (Value, signal, error) {
	node := ev.result.Trees.Lookup(treeID)

	switch node.Kind {
	case pattern.NodeFail:
		return Unit(), signal{}, fmt.Errorf("eval: match is not exhaustive for this value")

	case pattern.NodeLeaf:
		armEnv := env.Child()
		for _, bind := range node.FinalBindings {
			armEnv.Define(bind.Name, ev.project(scrut, bind.Path))
		}
		return ev.Eval(arms[node.ArmIndex], armEnv)

	case pattern.NodeGuard:
		guardEnv := env.Child()
		for _, bind := range node.BindingsSoFar {
			guardEnv.Define(bind.Name, ev.project(scrut, bind.Path))
		}
		g, sig, err := ev.Eval(canon.NodeId(node.GuardExpr), guardEnv)
		if err != nil || !sig.isNone() {
			return g, sig, err
		}
		if g.AsBool() {
			return ev.evalDecision(node.TrueBranch, scrut, arms, env)
		}
		return ev.evalDecision(node.FalseBranch, scrut, arms, env)

	case pattern.NodeTest:
		base := ev.project(scrut, node.Path)
		switch node.TestKind {
		case pattern.TestRange:
			for _, c := range node.Cases {
				if inRange(base.I, c.Value.RangeLow, c.Value.RangeHigh, c.Value.Inclusive) {
					return ev.evalDecision(c.Subtree, scrut, arms, env)
				}
			}
			return ev.evalDecision(node.Default, scrut, arms, env)
		case pattern.TestListLen:
			for _, c := range node.Cases {
				if lenMatches(len(base.Elems), c.Value.Len, c.Value.LenCmp) {
					return ev.evalDecision(c.Subtree, scrut, arms, env)
				}
			}
			return ev.evalDecision(node.Default, scrut, arms, env)
		default:
			for _, c := range node.Cases {
				if testMatches(node.TestKind, base, c.Value) {
					return ev.evalDecision(c.Subtree, scrut, arms, env)
				}
			}
			return ev.evalDecision(node.Default, scrut, arms, env)
		}
	}
	return Unit(), signal{}, fmt.Errorf("eval: unhandled decision-tree node kind %d", node.Kind)
}

func testMatches(kind pattern.TestKind, v Value, tv pattern.TestValue) bool {
	switch kind {
	case pattern.TestInt:
		return v.I == tv.Int
	case pattern.TestString:
		return v.S == tv.Str
	case pattern.TestBool:
		return v.AsBool() == tv.Bool
	case pattern.TestVariantTag:
		return v.Tag == tv.VariantTag
	default:
		return false
	}
}

func inRange(v, low, high int64, inclusive bool) bool {
	if inclusive {
		return v >= low && v <= high
	}
	return v >= low && v < high
}

func lenMatches(n, want int, cmp pattern.LenCmp) bool {
	switch cmp {
	case pattern.LenLess:
		return n < want
	case pattern.LenEqual:
		return n == want
	case pattern.LenGreater:
		return n > want
	default:
		return false
	}
}

// bindPattern destructures val into env per the irrefutable let/for/
// lambda binding-pattern language (§3.1 "Binding pattern") — distinct
// from (and simpler than) the full match-pattern decision trees above,
// mirroring internal/blockir's bindPattern one-for-one.
func (ev *Evaluator) bindPattern(env *Env, patID canon.BindingPatternId, val Value) {
	if patID == canon.InvalidBindingPattern {
		return
	}
	arena := ev.result.Arena
	bp := arena.BindingPats[patID]
	switch bp.Kind {
	case canon.BindName:
		env.Define(bp.Name, val)
	case canon.BindWildcard:
		// no binding
	case canon.BindTuple:
		elems := arena.PatternElems[bp.Elems.Start : bp.Elems.Start+uint32(bp.Elems.Len)]
		for i, elemPat := range elems {
			ev.bindPattern(env, elemPat, val.Elems[i])
		}
	case canon.BindList:
		elems := arena.PatternElems[bp.Elems.Start : bp.Elems.Start+uint32(bp.Elems.Len)]
		for i, elemPat := range elems {
			ev.bindPattern(env, elemPat, val.Elems[i])
		}
		if bp.HasRest {
			env.Define(bp.Rest, List(val.Elems[len(elems):]...))
		}
	case canon.BindStruct:
		fields := arena.FieldBindings[bp.Fields.Start : bp.Fields.Start+uint32(bp.Fields.Len)]
		for _, fb := range fields {
			fv, _ := val.Field(fb.Name)
			ev.bindPattern(env, fb.Pattern, fv)
		}
	}
}
