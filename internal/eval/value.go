// Package eval is the tree-walking Evaluator (§2, §9): an alternate
// backend that interprets CanonIR directly, without lowering through
// internal/blockir or internal/nativeir first. It shares decision trees
// with the codegen path by holding the same internal/pattern.Pool
// ref-counted TreeID handles rather than re-compiling or deep-cloning
// them, and its hash_combine must fold bit-for-bit the same as
// internal/builtin's so a hash table built by one backend stays valid
// read by the other.
package eval

import (
	"math"

	"github.com/korelang/korec/internal/canon"
	"github.com/korelang/korec/internal/ident"
	"github.com/korelang/korec/internal/value"
)

// Kind discriminates the evaluator's runtime value shapes. It is a
// superset of value.Kind (the constant pool's closed 8-kind literal
// set): every constant folds straight into the Kind of the same name
// here (see FromConst), and the remaining ones are shapes that only
// exist at runtime (Byte/Ordering/Option/Result/Tuple/List/Map/Set/
// Struct/Closure/FuncRef/Variant/TypeRef).
type Kind uint8

const (
	KindUnit Kind = iota
	KindInt
	KindFloat
	KindBool
	KindString
	KindChar
	KindByte
	KindDuration
	KindSize
	KindOrdering
	KindOption
	KindResult
	KindTuple
	KindList
	KindMap
	KindSet
	KindStruct
	KindClosure
	KindFuncRef
	KindVariant
	KindTypeRef
)

// Ordering tag values, matching internal/builtin's orderLess/orderEqual/
// orderGreater exactly (§4.3.1) so a compare() result means the same
// thing regardless of which backend produced it.
const (
	OrderLess    = 0
	OrderEqual   = 1
	OrderGreater = 2
)

// Option/Result tags (§4.3.2).
const (
	TagNone = 0
	TagSome = 1
	TagOk   = 0
	TagErr  = 1
)

// MapEntry is one key/value pair of a Map value.
type MapEntry struct {
	Key   Value
	Value Value
}

// Closure captures a lambda's parameter list, body, and the defining
// environment (by reference — captured bindings stay live and mutable
// for as long as the closure is, matching a lexical-scope language with
// no capture-by-copy rule).
type Closure struct {
	Params []ident.Name
	Body   canon.NodeId
	Env    *Env
}

// Value is the evaluator's runtime representation. Scalar kinds reuse
// value.Value's int/float/string packing (raw IEEE-754 bits for floats,
// so -0.0 and +0.0 are distinct until hash/equals normalize them exactly
// like internal/builtin does); compound kinds add the slice/map/pointer
// fields a tree-walker needs that a folded constant never does.
type Value struct {
	Kind Kind

	I int64  // int, bool(0/1), char(rune), byte, ordering tag, duration(nanos), size(bytes)
	F uint64 // float: raw bits; duration/size: unit enum
	S string

	Tag     int    // Option(0=None,1=Some), Result(0=Ok,1=Err)
	Payload *Value // Some/Ok/Err payload; nil for None

	Elems   []Value    // Tuple, List, Set
	Entries []MapEntry // Map

	StructName ident.Name
	Fields     []FieldValue // declared order, matching pattern.Step{Kind: StepField}'s positional Index

	Closure *Closure
	FuncRef ident.Name
}

// FieldValue is one named struct field, kept in declared order (rather
// than a map) so a decision tree's positional StepField index resolves
// to the same field a struct literal's canon.StructField range built at
// the same position.
type FieldValue struct {
	Name  ident.Name
	Value Value
}

// Field returns the value bound to name, and false if no such field
// exists (only possible for a malformed struct value — every well-typed
// struct literal populates every declared field).
func (v Value) Field(name ident.Name) (Value, bool) {
	for _, f := range v.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Value{}, false
}

// WithField returns a copy of v with name's value replaced (added at the
// end if absent) — used by the struct-literal overlay builtin.
func (v Value) WithField(name ident.Name, val Value) Value {
	out := make([]FieldValue, len(v.Fields))
	copy(out, v.Fields)
	for i, f := range out {
		if f.Name == name {
			out[i].Value = val
			return Value{Kind: v.Kind, StructName: v.StructName, Fields: out}
		}
	}
	out = append(out, FieldValue{Name: name, Value: val})
	return Value{Kind: v.Kind, StructName: v.StructName, Fields: out}
}

func Unit() Value                  { return Value{Kind: KindUnit} }
func Int(i int64) Value            { return Value{Kind: KindInt, I: i} }
func Float(f float64) Value        { return Value{Kind: KindFloat, F: math.Float64bits(f)} }
func Bool(b bool) Value            { return Value{Kind: KindBool, I: boolToInt(b)} }
func Str(s string) Value           { return Value{Kind: KindString, S: s} }
func Char(r rune) Value            { return Value{Kind: KindChar, I: int64(r)} }
func Byte(b byte) Value            { return Value{Kind: KindByte, I: int64(b)} }
func Ordering(tag int) Value       { return Value{Kind: KindOrdering, I: int64(tag)} }
func Duration(nanos int64, unit value.DurationUnit) Value {
	return Value{Kind: KindDuration, I: nanos, F: uint64(unit)}
}
func Size(bytes int64, unit value.SizeUnit) Value {
	return Value{Kind: KindSize, I: bytes, F: uint64(unit)}
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func (v Value) AsFloat64() float64 { return math.Float64frombits(v.F) }
func (v Value) AsBool() bool       { return v.I != 0 }

func None() Value { return Value{Kind: KindOption, Tag: TagNone} }
func Some(x Value) Value {
	cp := x
	return Value{Kind: KindOption, Tag: TagSome, Payload: &cp}
}
func Ok(x Value) Value {
	cp := x
	return Value{Kind: KindResult, Tag: TagOk, Payload: &cp}
}
func Err(x Value) Value {
	cp := x
	return Value{Kind: KindResult, Tag: TagErr, Payload: &cp}
}

func Tuple(elems ...Value) Value { return Value{Kind: KindTuple, Elems: elems} }
func List(elems ...Value) Value  { return Value{Kind: KindList, Elems: elems} }
func Set(elems ...Value) Value   { return Value{Kind: KindSet, Elems: elems} }
func Map(entries ...MapEntry) Value {
	return Value{Kind: KindMap, Entries: entries}
}
func Struct(name ident.Name, fields []FieldValue) Value {
	return Value{Kind: KindStruct, StructName: name, Fields: fields}
}

// Variant builds a user-defined sum-type case: typeName identifies the
// sum, tag is the variant's declaration-order index (what a decision
// tree's TestVariantTag case values compare against), and payload holds
// its positional fields (StepVariantPayload's Index indexes into this
// slice, same as Option/Result's single-element case).
//
// CanonIR has no node of its own for constructing an arbitrary
// user-defined variant (only the Option/Result-shaped Ok/Err/Some/None
// get one) — see DESIGN.md for how a variant constructor call reaches
// this constructor instead of a dedicated canon.Kind.
func Variant(typeName ident.Name, tag int, payload []Value) Value {
	return Value{Kind: KindVariant, StructName: typeName, Tag: tag, Elems: payload}
}

// VariantPayloadAt reads one positional payload field off any
// tag-bearing value (Option, Result, or a user Variant), unifying
// pattern.Step{Kind: StepVariantPayload} projection across all three.
func (v Value) VariantPayloadAt(i int) Value {
	switch v.Kind {
	case KindOption, KindResult:
		return *v.Payload
	case KindVariant:
		return v.Elems[i]
	default:
		return Value{}
	}
}
func FuncRef(name ident.Name) Value { return Value{Kind: KindFuncRef, FuncRef: name} }
func ClosureValue(c *Closure) Value { return Value{Kind: KindClosure, Closure: c} }

// TypeRef builds a resolved-but-uninstantiated reference to a declared
// type, used only as the receiver of an associated-function call
// (`Duration::parse(s)`). It carries no instance state — the name
// itself, reusing StructName the same way KindStruct/KindVariant do,
// is all evalMethodCall needs to key into ev.methods or the builtin
// associated-function table.
func TypeRef(name ident.Name) Value { return Value{Kind: KindTypeRef, StructName: name} }

// FromConst converts a folded constant-pool value into a runtime Value,
// used wherever the evaluator hits a canon.KindConstant/literal node.
func FromConst(v value.Value) Value {
	switch v.Kind {
	case value.KindUnit:
		return Unit()
	case value.KindInt:
		return Int(v.I)
	case value.KindFloat:
		return Float(v.AsFloat64())
	case value.KindBool:
		return Bool(v.AsBool())
	case value.KindString:
		return Str(v.S)
	case value.KindChar:
		return Char(rune(v.I))
	case value.KindDuration:
		d := v.AsDuration()
		return Duration(d.Nanoseconds(), d.Unit())
	case value.KindSize:
		sz := v.AsSize()
		return Size(sz.Bytes(), sz.Unit())
	default:
		return Unit()
	}
}
