package eval

import (
	"fmt"

	"github.com/korelang/korec/internal/ast"
	"github.com/korelang/korec/internal/value"
)

// evalBinaryOp applies op to two already-evaluated operands. It mirrors
// internal/canon/fold.go's foldIntBinary/foldFloatBinary/foldBoolBinary
// exactly (same operator set for each operand kind) but runs
// at runtime over arbitrary operands instead of only folded constants,
// so unlike the canonicalizer it must report division/modulo by zero as
// an error instead of just declining to fold.
func evalBinaryOp(op ast.BinaryOp, a, b Value) (Value, error) {
	switch {
	case a.Kind == KindInt && b.Kind == KindInt:
		return evalIntBinary(op, a.I, b.I)
	case a.Kind == KindFloat && b.Kind == KindFloat:
		return evalFloatBinary(op, a.AsFloat64(), b.AsFloat64())
	case a.Kind == KindBool && b.Kind == KindBool:
		return evalBoolBinary(op, a.AsBool(), b.AsBool())
	case a.Kind == KindString && b.Kind == KindString:
		return evalStringBinary(op, a, b)
	case a.Kind == KindList && b.Kind == KindList && op == ast.OpConcat:
		return List(append(append([]Value{}, a.Elems...), b.Elems...)...), nil
	}
	// Any other pairing (Duration/Size arithmetic, cross-kind ==/!=,
	// Ordering comparisons, ...) reduces to the shared Compare/Equals
	// rules §4.3.1/§4.3.2 already implements for every kind.
	switch op {
	case ast.OpEq:
		return Bool(Equals(a, b)), nil
	case ast.OpNe:
		return Bool(!Equals(a, b)), nil
	case ast.OpLt:
		return Bool(Compare(a, b) == OrderLess), nil
	case ast.OpLe:
		return Bool(Compare(a, b) != OrderGreater), nil
	case ast.OpGt:
		return Bool(Compare(a, b) == OrderGreater), nil
	case ast.OpGe:
		return Bool(Compare(a, b) != OrderLess), nil
	}
	return Value{}, fmt.Errorf("eval: binary operator %d not defined for operand kinds %d/%d", op, a.Kind, b.Kind)
}

func evalIntBinary(op ast.BinaryOp, a, b int64) (Value, error) {
	switch op {
	case ast.OpAdd:
		return Int(a + b), nil
	case ast.OpSub:
		return Int(a - b), nil
	case ast.OpMul:
		return Int(a * b), nil
	case ast.OpDiv:
		if b == 0 {
			return Value{}, fmt.Errorf("eval: division by zero")
		}
		return Int(a / b), nil
	case ast.OpMod:
		if b == 0 {
			return Value{}, fmt.Errorf("eval: modulo by zero")
		}
		return Int(a % b), nil
	case ast.OpEq:
		return Bool(a == b), nil
	case ast.OpNe:
		return Bool(a != b), nil
	case ast.OpLt:
		return Bool(a < b), nil
	case ast.OpLe:
		return Bool(a <= b), nil
	case ast.OpGt:
		return Bool(a > b), nil
	case ast.OpGe:
		return Bool(a >= b), nil
	}
	return Value{}, fmt.Errorf("eval: binary operator %d not defined for int", op)
}

func evalFloatBinary(op ast.BinaryOp, a, b float64) (Value, error) {
	switch op {
	case ast.OpAdd:
		return Float(a + b), nil
	case ast.OpSub:
		return Float(a - b), nil
	case ast.OpMul:
		return Float(a * b), nil
	case ast.OpDiv:
		if b == 0 {
			return Value{}, fmt.Errorf("eval: division by zero")
		}
		return Float(a / b), nil
	case ast.OpEq:
		return Bool(a == b), nil
	case ast.OpNe:
		return Bool(a != b), nil
	case ast.OpLt:
		return Bool(a < b), nil
	case ast.OpLe:
		return Bool(a <= b), nil
	case ast.OpGt:
		return Bool(a > b), nil
	case ast.OpGe:
		return Bool(a >= b), nil
	}
	return Value{}, fmt.Errorf("eval: binary operator %d not defined for float", op)
}

func evalBoolBinary(op ast.BinaryOp, a, b bool) (Value, error) {
	switch op {
	case ast.OpAnd:
		return Bool(a && b), nil
	case ast.OpOr:
		return Bool(a || b), nil
	case ast.OpEq:
		return Bool(a == b), nil
	case ast.OpNe:
		return Bool(a != b), nil
	}
	return Value{}, fmt.Errorf("eval: binary operator %d not defined for bool", op)
}

func evalStringBinary(op ast.BinaryOp, a, b Value) (Value, error) {
	switch op {
	case ast.OpConcat:
		return Str(a.S + b.S), nil
	case ast.OpEq:
		return Bool(a.S == b.S), nil
	case ast.OpNe:
		return Bool(a.S != b.S), nil
	case ast.OpLt:
		return Bool(a.S < b.S), nil
	case ast.OpLe:
		return Bool(a.S <= b.S), nil
	case ast.OpGt:
		return Bool(a.S > b.S), nil
	case ast.OpGe:
		return Bool(a.S >= b.S), nil
	}
	return Value{}, fmt.Errorf("eval: binary operator %d not defined for str", op)
}

// evalUnaryOp mirrors internal/canon/fold.go's foldUnary.
func evalUnaryOp(op ast.UnaryOp, v Value) (Value, error) {
	switch {
	case op == ast.OpNeg && v.Kind == KindInt:
		return Int(-v.I), nil
	case op == ast.OpNeg && v.Kind == KindFloat:
		return Float(-v.AsFloat64()), nil
	case op == ast.OpNot && v.Kind == KindBool:
		return Bool(!v.AsBool()), nil
	}
	return Value{}, fmt.Errorf("eval: unary operator %d not defined for operand kind %d", op, v.Kind)
}

// evalCastValue converts v to the type named by target, following the
// well-known primitive table internal/value.LookupWellKnownName also
// backs (§4.1 "Cast"). A fallible cast (`as?`) reports failure as None
// rather than an error, matching its surface meaning of "try the
// conversion"; an infallible cast that still fails to convert (only
// reachable through a canonicalizer error-recovery node) surfaces as a
// plain error since the type checker is assumed to have ruled it out.
func evalCastValue(target string, fallible bool, v Value) (Value, error) {
	result, ok := castValue(target, v)
	switch {
	case ok && fallible:
		return Some(result), nil
	case ok:
		return result, nil
	case fallible:
		return None(), nil
	default:
		return Value{}, fmt.Errorf("eval: cannot cast value of kind %d to %q", v.Kind, target)
	}
}

func castValue(target string, v Value) (Value, bool) {
	name, known := value.LookupWellKnownName(target)
	if !known {
		return Value{}, false
	}
	switch name {
	case value.TypeNameInt:
		switch v.Kind {
		case KindInt:
			return v, true
		case KindFloat:
			return Int(int64(v.AsFloat64())), true
		case KindChar, KindByte:
			return Int(v.I), true
		case KindBool:
			return Int(v.I), true
		}
	case value.TypeNameFloat:
		switch v.Kind {
		case KindFloat:
			return v, true
		case KindInt:
			return Float(float64(v.I)), true
		}
	case value.TypeNameBool:
		if v.Kind == KindBool {
			return v, true
		}
	case value.TypeNameStr:
		if v.Kind == KindString {
			return v, true
		}
	case value.TypeNameChar:
		switch v.Kind {
		case KindChar:
			return v, true
		case KindInt:
			if v.I >= 0 && v.I <= 0x10FFFF {
				return Char(rune(v.I)), true
			}
			return Value{}, false
		}
	case value.TypeNameByte:
		switch v.Kind {
		case KindByte:
			return v, true
		case KindInt:
			if v.I >= 0 && v.I <= 0xFF {
				return Byte(byte(v.I)), true
			}
			return Value{}, false
		}
	case value.TypeNameVoid:
		return Unit(), true
	}
	return Value{}, false
}
