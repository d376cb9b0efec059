package eval

import (
	"fmt"

	"github.com/korelang/korec/internal/value"
)

// dispatchBuiltinMethod resolves a method call with no matching
// user-defined method (§4.3): the derived compare/equals/hash/clone
// family internal/builtin also generates native code for, the
// Option/Result/Ordering projection helpers internal/builtin/
// projections.go builds, and the spread/interpolation desugar targets
// internal/canon/lower.go literally synthesizes MethodCall nodes for
// ("concat", "merge", "overlay", "to_str") — those four must work here
// or list/map/struct spreads and string interpolation break at
// runtime, since the canonicalizer never emits any other node for them.
func (ev *Evaluator) dispatchBuiltinMethod(name string, recv Value, args []Value) (Value, error) {
	switch name {
	case "compare":
		return Ordering(Compare(recv, arg0(args))), nil
	case "equals":
		return Bool(Equals(recv, arg0(args))), nil
	case "hash":
		return Int(Hash(recv)), nil
	case "clone":
		return Clone(recv), nil

	case "is_some":
		return Bool(recv.Kind == KindOption && recv.Tag == TagSome), nil
	case "is_none":
		return Bool(recv.Kind == KindOption && recv.Tag == TagNone), nil
	case "is_ok":
		return Bool(recv.Kind == KindResult && recv.Tag == TagOk), nil
	case "is_err":
		return Bool(recv.Kind == KindResult && recv.Tag == TagErr), nil
	case "unwrap":
		if recv.Payload == nil {
			return Value{}, fmt.Errorf("eval: unwrap called on an empty Option/Result")
		}
		return *recv.Payload, nil
	case "unwrap_or":
		if recv.Payload != nil {
			return *recv.Payload, nil
		}
		return arg0(args), nil

	case "is_less":
		return Bool(recv.Kind == KindOrdering && recv.I == OrderLess), nil
	case "is_equal":
		return Bool(recv.Kind == KindOrdering && recv.I == OrderEqual), nil
	case "is_greater":
		return Bool(recv.Kind == KindOrdering && recv.I == OrderGreater), nil
	case "reverse":
		return Ordering(Reverse(int(recv.I))), nil

	case "len":
		return Int(builtinLen(recv)), nil
	case "is_empty":
		return Bool(builtinLen(recv) == 0), nil

	case "to_str":
		return Str(ToDisplayString(ev.interner, recv)), nil
	case "concat":
		return builtinConcat(recv, arg0(args))
	case "merge":
		return builtinMerge(recv, arg0(args))
	case "overlay":
		return builtinOverlay(recv, arg0(args))
	}
	return Value{}, fmt.Errorf("eval: no method %q on value of kind %d", name, recv.Kind)
}

// dispatchBuiltinAssociated resolves a type-level call with no matching
// user-defined associated function: Duration/Size's parse constructors
// and Size's from_bytes, the only associated functions the builtin
// types themselves expose (§4.3, TypeRef receivers).
func (ev *Evaluator) dispatchBuiltinAssociated(typeName, methodName string, args []Value) (Value, error) {
	switch typeName {
	case "Duration":
		switch methodName {
		case "parse":
			d, err := value.ParseDuration(arg0(args).S)
			if err != nil {
				return Err(Str(err.Error())), nil
			}
			return Ok(Duration(d.Nanoseconds(), d.Unit())), nil
		}
	case "Size":
		switch methodName {
		case "parse":
			sz, err := value.ParseSize(arg0(args).S)
			if err != nil {
				return Err(Str(err.Error())), nil
			}
			return Ok(Size(sz.Bytes(), sz.Unit())), nil
		case "from_bytes":
			return Size(arg0(args).I, value.UnitByte), nil
		}
	}
	return Value{}, fmt.Errorf("eval: no associated function %s::%s", typeName, methodName)
}

func arg0(args []Value) Value {
	if len(args) == 0 {
		return Value{}
	}
	return args[0]
}

func builtinLen(v Value) int64 {
	switch v.Kind {
	case KindList, KindSet, KindTuple:
		return int64(len(v.Elems))
	case KindMap:
		return int64(len(v.Entries))
	case KindString:
		return int64(len([]rune(v.S)))
	default:
		return 0
	}
}

// builtinConcat backs `[...xs, ...ys]`-style list-literal spreads
// (internal/canon/lower.go desugars a spread element into a synthesized
// "concat" MethodCall).
func builtinConcat(a, b Value) (Value, error) {
	if a.Kind != KindList || b.Kind != KindList {
		return Value{}, fmt.Errorf("eval: concat requires two lists, got kinds %d/%d", a.Kind, b.Kind)
	}
	out := make([]Value, 0, len(a.Elems)+len(b.Elems))
	out = append(out, a.Elems...)
	out = append(out, b.Elems...)
	return List(out...), nil
}

// builtinMerge backs `{...xs, ...ys}`-style map-literal spreads: later
// entries win on key collision.
func builtinMerge(a, b Value) (Value, error) {
	if a.Kind != KindMap || b.Kind != KindMap {
		return Value{}, fmt.Errorf("eval: merge requires two maps, got kinds %d/%d", a.Kind, b.Kind)
	}
	out := make([]MapEntry, len(a.Entries))
	copy(out, a.Entries)
	for _, e := range b.Entries {
		out = mapSet(out, e.Key, e.Value)
	}
	return Map(out...), nil
}

// builtinOverlay backs `Struct { ...base, field: v }`-style struct-
// literal spreads: base's fields first, explicit fields overriding.
func builtinOverlay(base, overrides Value) (Value, error) {
	if base.Kind != KindStruct || overrides.Kind != KindStruct {
		return Value{}, fmt.Errorf("eval: overlay requires two structs, got kinds %d/%d", base.Kind, overrides.Kind)
	}
	result := base
	for _, f := range overrides.Fields {
		result = result.WithField(f.Name, f.Value)
	}
	return result, nil
}
