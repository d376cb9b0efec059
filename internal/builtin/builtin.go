package builtin

import (
	"strconv"

	"github.com/korelang/korec/internal/ident"
	"github.com/korelang/korec/internal/nativeir"
	"github.com/korelang/korec/internal/types"
)

// Method names one of the four type-derived methods the dispatch entry
// (§4.3, "Dispatch entry") lowers inline.
type Method uint8

const (
	Compare Method = iota
	Equals
	Hash
	Clone
)

// orderLess, orderEqual, orderGreater are the 8-bit ordering tag values
// every compare lowering produces (§4.3.1).
const (
	orderLess    = 0
	orderEqual   = 1
	orderGreater = 2
)

// Lower builds the native-IR function for method on values of type id,
// or reports ok=false when the type has no built-in for that method —
// the caller (the as-yet-unbuilt codegen dispatcher) falls through to
// user-method lookup in that case, per §4.3's dispatch entry.
func Lower(interner *ident.Interner, pool *types.Pool, id types.ID, method Method, fnName ident.Name) (fn *nativeir.Function, ok bool) {
	t := pool.Lookup(id)

	if method == Clone {
		// Clone is identity pass-through for every shape the RC pass
		// already knows how to refcount (§4.3.1 int/float/string,
		// §4.3.2 list/map/set); struct/sum still fall through so a
		// user-provided clone (if any) wins.
		if t.Kind == types.KindStruct || t.Kind == types.KindSum {
			return nil, false
		}
		b := newBuilder(fnName, 1)
		b.ret(b.fn.Params[0])
		return b.fn, true
	}

	switch t.Kind {
	case types.KindStruct, types.KindSum, types.KindFunc, types.KindClosure, types.KindError:
		return nil, false
	case types.KindList, types.KindMap, types.KindSet:
		// §4.3.2 only gives these kinds clone/len/is_empty; compare,
		// equals and hash are not builtin (no ordering or hashing rule
		// is specified for a container type itself).
		return nil, false
	}

	paramCount := 1
	if method == Compare || method == Equals {
		paramCount = 2
	}
	b := newBuilder(fnName, paramCount)

	switch method {
	case Compare:
		x, y := b.fn.Params[0], b.fn.Params[1]
		b.ret(lowerCompareValue(b, interner, pool, t, x, y))
	case Equals:
		x, y := b.fn.Params[0], b.fn.Params[1]
		b.ret(lowerEqualsValue(b, interner, pool, t, x, y))
	case Hash:
		x := b.fn.Params[0]
		b.ret(lowerHashValue(b, interner, pool, t, x))
	}
	return b.fn, true
}

// lowerCompareValue recurses on t's shape, emitting into b.cur and
// returning the ordering-tag ValueId. Used both as the top-level
// Compare body and, for composite types, to compare a sub-element.
func lowerCompareValue(b *builder, interner *ident.Interner, pool *types.Pool, t types.Type, x, y nativeir.ValueId) nativeir.ValueId {
	switch t.Kind {
	case types.KindUnit:
		return b.constInt(orderEqual)
	case types.KindInt, types.KindDuration, types.KindSize:
		return b.threeWayCompare(b.icmp(nativeir.OpIcmpLt, x, y), b.icmp(nativeir.OpIcmpGt, x, y))
	case types.KindChar, types.KindByte, types.KindOrdering:
		return b.threeWayCompare(b.icmp(nativeir.OpIcmpLt, x, y), b.icmp(nativeir.OpIcmpGt, x, y))
	case types.KindBool:
		xi, yi := b.widen(nativeir.OpZext, x), b.widen(nativeir.OpZext, y)
		return b.threeWayCompare(b.icmp(nativeir.OpIcmpLt, xi, yi), b.icmp(nativeir.OpIcmpGt, xi, yi))
	case types.KindFloat:
		return b.threeWayCompare(b.icmp(nativeir.OpFcmpOLt, x, y), b.icmp(nativeir.OpFcmpOGt, x, y))
	case types.KindString:
		return b.call(runtimeName(interner, "str_compare"), x, y)
	case types.KindOption:
		return lowerOptionCompare(b, interner, pool, t, x, y)
	case types.KindResult:
		return lowerResultCompare(b, interner, pool, t, x, y)
	case types.KindTuple:
		return lowerTupleCompare(b, interner, pool, t, x, y)
	default:
		return b.constInt(orderEqual)
	}
}

func lowerEqualsValue(b *builder, interner *ident.Interner, pool *types.Pool, t types.Type, x, y nativeir.ValueId) nativeir.ValueId {
	switch t.Kind {
	case types.KindUnit:
		return b.constBool(true)
	case types.KindInt, types.KindDuration, types.KindSize, types.KindChar, types.KindByte, types.KindOrdering, types.KindBool:
		return b.icmp(nativeir.OpIcmpEq, x, y)
	case types.KindFloat:
		return b.icmp(nativeir.OpFcmpOEq, x, y)
	case types.KindString:
		return b.call(runtimeName(interner, "str_equals"), x, y)
	case types.KindOption:
		return lowerOptionEquals(b, interner, pool, t, x, y)
	case types.KindResult:
		return lowerResultEquals(b, interner, pool, t, x, y)
	case types.KindTuple:
		return lowerTupleEquals(b, interner, pool, t, x, y)
	default:
		return b.constBool(true)
	}
}

func lowerHashValue(b *builder, interner *ident.Interner, pool *types.Pool, t types.Type, x nativeir.ValueId) nativeir.ValueId {
	switch t.Kind {
	case types.KindUnit:
		return b.constInt(0)
	case types.KindInt, types.KindDuration, types.KindSize:
		return x // identity (§4.3.1)
	case types.KindChar, types.KindByte, types.KindOrdering, types.KindBool:
		return b.widen(nativeir.OpZext, x)
	case types.KindFloat:
		zero := b.constFloat(0.0)
		isZero := b.icmp(nativeir.OpFcmpOEq, x, zero)
		normalized := b.sel(isZero, zero, x) // -0.0 and +0.0 hash identically
		return b.widen(nativeir.OpBitcastFloatToInt, normalized)
	case types.KindString:
		return b.call(runtimeName(interner, "str_hash"), x)
	case types.KindOption:
		return lowerOptionHash(b, interner, pool, t, x)
	case types.KindResult:
		return lowerResultHash(b, interner, pool, t, x)
	case types.KindTuple:
		return lowerTupleHash(b, interner, pool, t, x)
	default:
		return b.constInt(0)
	}
}

func runtimeName(interner *ident.Interner, s string) ident.Name {
	return interner.Intern(s)
}

func fieldName(i int) string {
	return strconv.Itoa(i)
}
