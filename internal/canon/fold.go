package canon

import (
	"github.com/korelang/korec/internal/ast"
	"github.com/korelang/korec/internal/value"
)

// foldBinary evaluates a binary operator over two already-folded
// constant values, returning ok=false if the operator/kind pairing
// isn't one the canonicalizer folds (it then stays a runtime Binary
// node — folding is an optimization, not a requirement).
func foldBinary(op ast.BinaryOp, a, b value.Value) (value.Value, bool) {
	switch {
	case a.Kind == value.KindInt && b.Kind == value.KindInt:
		return foldIntBinary(op, a.I, b.I)
	case a.Kind == value.KindFloat && b.Kind == value.KindFloat:
		return foldFloatBinary(op, a.AsFloat64(), b.AsFloat64())
	case a.Kind == value.KindBool && b.Kind == value.KindBool:
		return foldBoolBinary(op, a.AsBool(), b.AsBool())
	case a.Kind == value.KindString && b.Kind == value.KindString && op == ast.OpConcat:
		return value.Str(a.S + b.S), true
	}
	return value.Value{}, false
}

func foldIntBinary(op ast.BinaryOp, a, b int64) (value.Value, bool) {
	switch op {
	case ast.OpAdd:
		return value.Int(a + b), true
	case ast.OpSub:
		return value.Int(a - b), true
	case ast.OpMul:
		return value.Int(a * b), true
	case ast.OpDiv:
		if b == 0 {
			return value.Value{}, false
		}
		return value.Int(a / b), true
	case ast.OpMod:
		if b == 0 {
			return value.Value{}, false
		}
		return value.Int(a % b), true
	case ast.OpEq:
		return value.Bool(a == b), true
	case ast.OpNe:
		return value.Bool(a != b), true
	case ast.OpLt:
		return value.Bool(a < b), true
	case ast.OpLe:
		return value.Bool(a <= b), true
	case ast.OpGt:
		return value.Bool(a > b), true
	case ast.OpGe:
		return value.Bool(a >= b), true
	}
	return value.Value{}, false
}

func foldFloatBinary(op ast.BinaryOp, a, b float64) (value.Value, bool) {
	switch op {
	case ast.OpAdd:
		return value.Float(a + b), true
	case ast.OpSub:
		return value.Float(a - b), true
	case ast.OpMul:
		return value.Float(a * b), true
	case ast.OpDiv:
		if b == 0 {
			return value.Value{}, false
		}
		return value.Float(a / b), true
	case ast.OpEq:
		return value.Bool(a == b), true
	case ast.OpNe:
		return value.Bool(a != b), true
	case ast.OpLt:
		return value.Bool(a < b), true
	case ast.OpLe:
		return value.Bool(a <= b), true
	case ast.OpGt:
		return value.Bool(a > b), true
	case ast.OpGe:
		return value.Bool(a >= b), true
	}
	return value.Value{}, false
}

func foldBoolBinary(op ast.BinaryOp, a, b bool) (value.Value, bool) {
	switch op {
	case ast.OpAnd:
		return value.Bool(a && b), true
	case ast.OpOr:
		return value.Bool(a || b), true
	case ast.OpEq:
		return value.Bool(a == b), true
	case ast.OpNe:
		return value.Bool(a != b), true
	}
	return value.Value{}, false
}

func foldUnary(op ast.UnaryOp, a value.Value) (value.Value, bool) {
	switch {
	case op == ast.OpNeg && a.Kind == value.KindInt:
		return value.Int(-a.I), true
	case op == ast.OpNeg && a.Kind == value.KindFloat:
		return value.Float(-a.AsFloat64()), true
	case op == ast.OpNot && a.Kind == value.KindBool:
		return value.Bool(!a.AsBool()), true
	}
	return value.Value{}, false
}
