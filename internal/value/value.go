// Package value defines the closed set of compile-time constant value
// kinds shared by the constant pool, the evaluator, and the built-in
// method lowerer: int, float (stored as raw bits), bool, interned
// string, char, unit, duration, size.
package value

import "math"

// Kind tags which field of a Value is meaningful.
type Kind uint8

const (
	KindUnit Kind = iota
	KindInt
	KindFloat
	KindBool
	KindString
	KindChar
	KindDuration
	KindSize
)

func (k Kind) String() string {
	switch k {
	case KindUnit:
		return "unit"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindChar:
		return "char"
	case KindDuration:
		return "duration"
	case KindSize:
		return "size"
	default:
		return "unknown"
	}
}

// Value is a folded compile-time constant. It is small enough to pass by
// value and is the payload the constant pool interns by content.
//
// CBOR field tags keep the wire shape stable for the pool's canonical
// encoding (see constpool.canonicalKey), independent of Go field order.
type Value struct {
	Kind Kind   `cbor:"1,keyasint"`
	I    int64  `cbor:"2,keyasint"` // int, bool (0/1), char (rune), duration (nanos), size (bytes)
	F    uint64 `cbor:"3,keyasint"` // float, stored as raw IEEE-754 bits
	S    string `cbor:"4,keyasint"` // string content
}

func Unit() Value { return Value{Kind: KindUnit} }

func Int(i int64) Value { return Value{Kind: KindInt, I: i} }

func Float(f float64) Value { return Value{Kind: KindFloat, F: math.Float64bits(f)} }

func Bool(b bool) Value {
	var i int64
	if b {
		i = 1
	}
	return Value{Kind: KindBool, I: i}
}

func Str(s string) Value { return Value{Kind: KindString, S: s} }

func Char(r rune) Value { return Value{Kind: KindChar, I: int64(r)} }

func FromDuration(d Duration) Value { return Value{Kind: KindDuration, I: d.Nanoseconds(), F: uint64(d.Unit())} }

func FromSize(sz Size) Value { return Value{Kind: KindSize, I: sz.Bytes(), F: uint64(sz.Unit())} }

// AsFloat64 decodes the raw bits back into a float64. Callers must check
// Kind == KindFloat first.
func (v Value) AsFloat64() float64 { return math.Float64frombits(v.F) }

// AsBool decodes a bool-kinded value.
func (v Value) AsBool() bool { return v.I != 0 }

// AsDuration reconstructs a Duration from a duration-kinded value.
func (v Value) AsDuration() Duration { return Duration{nanos: v.I, unit: DurationUnit(v.F)} }

// AsSize reconstructs a Size from a size-kinded value.
func (v Value) AsSize() Size { return Size{bytes: v.I, unit: SizeUnit(v.F)} }

// Equal is bit-exact equality: two floats compare equal only if their
// underlying bits match, so +0.0 and -0.0 are distinct Values even
// though the derived `equals` built-in (which normalizes signed zero)
// treats them as equal — the constant pool still dedups them separately
// so hash_combine's documented `hash(+0.0) == hash(-0.0)` asymmetry
// with raw Value equality is intentional, not a bug.
func (v Value) Equal(other Value) bool {
	return v.Kind == other.Kind && v.I == other.I && v.F == other.F && v.S == other.S
}
