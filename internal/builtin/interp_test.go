package builtin

import (
	"math"

	"github.com/korelang/korec/internal/nativeir"
)

// A tiny reference interpreter for the native IR this package emits.
// It exists purely so tests can assert on actual runtime behavior
// (which branch ran, what a phi resolved to) instead of pattern-
// matching the instruction list — the surest way to catch an inverted
// branch condition or a misordered phi operand.
//
// Values are untyped `any` holding int64, float64, bool, or
// map[string]any (a stand-in for a struct/Option/Result header).

func execFunction(fn *nativeir.Function, args ...any) any {
	env := make(map[nativeir.ValueId]any, 16)
	for i, p := range fn.Params {
		env[p] = args[i]
	}

	var prev nativeir.BlockId
	havePrev := false
	blk := fn.Block(fn.Entry)
	for {
		for _, inst := range blk.Insts {
			env[inst.Result] = execInst(inst, env, blk, prev, havePrev)
		}
		switch blk.Term.Kind {
		case nativeir.TermReturn:
			return env[blk.Term.Value]
		case nativeir.TermJump:
			prev, havePrev = blk.ID, true
			blk = fn.Block(blk.Term.Target)
		case nativeir.TermBranch:
			prev, havePrev = blk.ID, true
			if asBool(env[blk.Term.Cond]) {
				blk = fn.Block(blk.Term.Then)
			} else {
				blk = fn.Block(blk.Term.Else)
			}
		default:
			panic("execFunction: unhandled terminator kind")
		}
	}
}

func execInst(inst nativeir.Inst, env map[nativeir.ValueId]any, blk *nativeir.Block, prev nativeir.BlockId, havePrev bool) any {
	switch inst.Op {
	case nativeir.OpConstInt:
		return inst.IntVal
	case nativeir.OpConstFloat:
		return inst.FloatVal
	case nativeir.OpConstBool:
		return inst.BoolVal
	case nativeir.OpIcmpEq:
		return asInt(env[inst.Lhs]) == asInt(env[inst.Rhs])
	case nativeir.OpIcmpLt:
		return asInt(env[inst.Lhs]) < asInt(env[inst.Rhs])
	case nativeir.OpIcmpGt:
		return asInt(env[inst.Lhs]) > asInt(env[inst.Rhs])
	case nativeir.OpFcmpOEq:
		return asFloat(env[inst.Lhs]) == asFloat(env[inst.Rhs])
	case nativeir.OpFcmpOLt:
		return asFloat(env[inst.Lhs]) < asFloat(env[inst.Rhs])
	case nativeir.OpFcmpOGt:
		return asFloat(env[inst.Lhs]) > asFloat(env[inst.Rhs])
	case nativeir.OpSelect:
		if asBool(env[inst.Cond]) {
			return env[inst.IfTrue]
		}
		return env[inst.IfFalse]
	case nativeir.OpAdd:
		return asInt(env[inst.Lhs]) + asInt(env[inst.Rhs])
	case nativeir.OpSub:
		return asInt(env[inst.Lhs]) - asInt(env[inst.Rhs])
	case nativeir.OpXor:
		return asInt(env[inst.Lhs]) ^ asInt(env[inst.Rhs])
	case nativeir.OpShl:
		return asInt(env[inst.Lhs]) << uint(asInt(env[inst.Rhs]))
	case nativeir.OpShr:
		return asInt(env[inst.Lhs]) >> uint(asInt(env[inst.Rhs]))
	case nativeir.OpSext, nativeir.OpZext:
		if bv, ok := env[inst.Operand].(bool); ok {
			if bv {
				return int64(1)
			}
			return int64(0)
		}
		return asInt(env[inst.Operand])
	case nativeir.OpBitcastFloatToInt:
		return int64(math.Float64bits(asFloat(env[inst.Operand])))
	case nativeir.OpLoadField:
		header := env[inst.Base].(map[string]any)
		return header[inst.FieldName]
	case nativeir.OpCall:
		// No derived method this package emits is exercised by these
		// tests through a runtime call (string routes through OpCall,
		// but no test here builds a string method) — reaching this
		// indicates a test gap, not a generic fallback worth guessing.
		panic("execInst: OpCall not stubbed for this test")
	case nativeir.OpPhi:
		if !havePrev {
			panic("execInst: OpPhi reached with no predecessor recorded")
		}
		for i, p := range blk.Preds {
			if p == prev {
				return env[inst.PhiValues[i]]
			}
		}
		panic("execInst: OpPhi's block has no matching predecessor entry")
	default:
		panic("execInst: unhandled op")
	}
}

func asInt(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case bool:
		if n {
			return 1
		}
		return 0
	default:
		panic("asInt: not an integer")
	}
}

func asFloat(v any) float64 {
	return v.(float64)
}

func asBool(v any) bool {
	return v.(bool)
}
