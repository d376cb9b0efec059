package builtin

import (
	"github.com/korelang/korec/internal/ident"
	"github.com/korelang/korec/internal/nativeir"
	"github.com/korelang/korec/internal/types"
)

// Every composite lowering below follows the same §4.3.4 shape: branch
// on whatever discriminates the two paths, lower each path, then join
// them with a phi at a single merge block. Option and Result each get
// their own function rather than a shared generic helper because their
// branch conditions and payload field types differ (Option's None arm
// touches no payload at all; Result's two arms both do, at different
// element types), and writing them out keeps each one a flat read.

// lowerOptionCompare implements Option's "None < Some; compare payloads
// if both Some" rule (§4.3.2).
func lowerOptionCompare(b *builder, interner *ident.Interner, pool *types.Pool, t types.Type, x, y nativeir.ValueId) nativeir.ValueId {
	elem := pool.Lookup(t.Params[0])
	xTag, yTag := b.loadField(x, "tag"), b.loadField(y, "tag")

	tagsEqual := b.icmp(nativeir.OpIcmpEq, xTag, yTag)
	eqBlock, neqBlock := b.branch(tagsEqual)

	b.cur = eqBlock
	bothSome := b.icmp(nativeir.OpIcmpEq, xTag, b.constInt(1))
	someBlock, noneBlock := b.branch(bothSome)
	b.cur = someBlock
	payloadCmp := lowerCompareValue(b, interner, pool, elem, b.loadField(x, "payload"), b.loadField(y, "payload"))
	someEnd := b.cur
	b.cur = noneBlock
	noneEq := b.constInt(orderEqual)
	noneEnd := b.cur
	tagEqualMerge, tagEqualVal := mergeWithPhi(b.fn, []*nativeir.Block{someEnd, noneEnd}, []nativeir.ValueId{payloadCmp, noneEq})

	b.cur = neqBlock
	tagOrdering := b.threeWayCompare(b.icmp(nativeir.OpIcmpLt, xTag, yTag), b.icmp(nativeir.OpIcmpGt, xTag, yTag))
	neqEnd := b.cur

	merge, val := mergeWithPhi(b.fn, []*nativeir.Block{tagEqualMerge, neqEnd}, []nativeir.ValueId{tagEqualVal, tagOrdering})
	b.cur = merge
	return val
}

func lowerOptionEquals(b *builder, interner *ident.Interner, pool *types.Pool, t types.Type, x, y nativeir.ValueId) nativeir.ValueId {
	elem := pool.Lookup(t.Params[0])
	xTag, yTag := b.loadField(x, "tag"), b.loadField(y, "tag")

	tagsEqual := b.icmp(nativeir.OpIcmpEq, xTag, yTag)
	eqBlock, neqBlock := b.branch(tagsEqual)

	b.cur = eqBlock
	bothSome := b.icmp(nativeir.OpIcmpEq, xTag, b.constInt(1))
	someBlock, noneBlock := b.branch(bothSome)
	b.cur = someBlock
	payloadEq := lowerEqualsValue(b, interner, pool, elem, b.loadField(x, "payload"), b.loadField(y, "payload"))
	someEnd := b.cur
	b.cur = noneBlock
	noneEq := b.constBool(true)
	noneEnd := b.cur
	tagEqualMerge, tagEqualVal := mergeWithPhi(b.fn, []*nativeir.Block{someEnd, noneEnd}, []nativeir.ValueId{payloadEq, noneEq})

	b.cur = neqBlock
	falseVal := b.constBool(false)
	neqEnd := b.cur

	merge, val := mergeWithPhi(b.fn, []*nativeir.Block{tagEqualMerge, neqEnd}, []nativeir.ValueId{tagEqualVal, falseVal})
	b.cur = merge
	return val
}

// lowerOptionHash implements "None -> 0; Some(x) -> hash_combine(1, hash(x))".
func lowerOptionHash(b *builder, interner *ident.Interner, pool *types.Pool, t types.Type, x nativeir.ValueId) nativeir.ValueId {
	elem := pool.Lookup(t.Params[0])
	tag := b.loadField(x, "tag")
	isSome := b.icmp(nativeir.OpIcmpEq, tag, b.constInt(1))
	someBlock, noneBlock := b.branch(isSome)

	b.cur = someBlock
	payloadHash := lowerHashValue(b, interner, pool, elem, b.loadField(x, "payload"))
	someHash := hashCombine(b, b.constInt(1), payloadHash)
	someEnd := b.cur

	b.cur = noneBlock
	noneHash := b.constInt(0)
	noneEnd := b.cur

	merge, val := mergeWithPhi(b.fn, []*nativeir.Block{someEnd, noneEnd}, []nativeir.ValueId{someHash, noneHash})
	b.cur = merge
	return val
}

// lowerResultCompare implements "Ok < Err; compare payloads within the
// same tag" (§4.3.2), reinterpreting the shared payload slot at Ok's or
// Err's element type depending on which arm is live.
func lowerResultCompare(b *builder, interner *ident.Interner, pool *types.Pool, t types.Type, x, y nativeir.ValueId) nativeir.ValueId {
	okType, errType := pool.Lookup(t.Params[0]), pool.Lookup(t.Params[1])
	xTag, yTag := b.loadField(x, "tag"), b.loadField(y, "tag")

	tagsEqual := b.icmp(nativeir.OpIcmpEq, xTag, yTag)
	eqBlock, neqBlock := b.branch(tagsEqual)

	b.cur = eqBlock
	isOk := b.icmp(nativeir.OpIcmpEq, xTag, b.constInt(0))
	okBlock, errBlock := b.branch(isOk)
	b.cur = okBlock
	okCmp := lowerCompareValue(b, interner, pool, okType, b.loadField(x, "payload"), b.loadField(y, "payload"))
	okEnd := b.cur
	b.cur = errBlock
	errCmp := lowerCompareValue(b, interner, pool, errType, b.loadField(x, "payload"), b.loadField(y, "payload"))
	errEnd := b.cur
	tagEqualMerge, tagEqualVal := mergeWithPhi(b.fn, []*nativeir.Block{okEnd, errEnd}, []nativeir.ValueId{okCmp, errCmp})

	b.cur = neqBlock
	tagOrdering := b.threeWayCompare(b.icmp(nativeir.OpIcmpLt, xTag, yTag), b.icmp(nativeir.OpIcmpGt, xTag, yTag))
	neqEnd := b.cur

	merge, val := mergeWithPhi(b.fn, []*nativeir.Block{tagEqualMerge, neqEnd}, []nativeir.ValueId{tagEqualVal, tagOrdering})
	b.cur = merge
	return val
}

func lowerResultEquals(b *builder, interner *ident.Interner, pool *types.Pool, t types.Type, x, y nativeir.ValueId) nativeir.ValueId {
	okType, errType := pool.Lookup(t.Params[0]), pool.Lookup(t.Params[1])
	xTag, yTag := b.loadField(x, "tag"), b.loadField(y, "tag")

	tagsEqual := b.icmp(nativeir.OpIcmpEq, xTag, yTag)
	eqBlock, neqBlock := b.branch(tagsEqual)

	b.cur = eqBlock
	isOk := b.icmp(nativeir.OpIcmpEq, xTag, b.constInt(0))
	okBlock, errBlock := b.branch(isOk)
	b.cur = okBlock
	okEq := lowerEqualsValue(b, interner, pool, okType, b.loadField(x, "payload"), b.loadField(y, "payload"))
	okEnd := b.cur
	b.cur = errBlock
	errEq := lowerEqualsValue(b, interner, pool, errType, b.loadField(x, "payload"), b.loadField(y, "payload"))
	errEnd := b.cur
	tagEqualMerge, tagEqualVal := mergeWithPhi(b.fn, []*nativeir.Block{okEnd, errEnd}, []nativeir.ValueId{okEq, errEq})

	b.cur = neqBlock
	falseVal := b.constBool(false)
	neqEnd := b.cur

	merge, val := mergeWithPhi(b.fn, []*nativeir.Block{tagEqualMerge, neqEnd}, []nativeir.ValueId{tagEqualVal, falseVal})
	b.cur = merge
	return val
}

// lowerResultHash seeds Ok with 2 and Err with 3 (§4.3.2).
func lowerResultHash(b *builder, interner *ident.Interner, pool *types.Pool, t types.Type, x nativeir.ValueId) nativeir.ValueId {
	okType, errType := pool.Lookup(t.Params[0]), pool.Lookup(t.Params[1])
	tag := b.loadField(x, "tag")
	isOk := b.icmp(nativeir.OpIcmpEq, tag, b.constInt(0))
	okBlock, errBlock := b.branch(isOk)

	b.cur = okBlock
	okHash := hashCombine(b, b.constInt(2), lowerHashValue(b, interner, pool, okType, b.loadField(x, "payload")))
	okEnd := b.cur

	b.cur = errBlock
	errHash := hashCombine(b, b.constInt(3), lowerHashValue(b, interner, pool, errType, b.loadField(x, "payload")))
	errEnd := b.cur

	merge, val := mergeWithPhi(b.fn, []*nativeir.Block{okEnd, errEnd}, []nativeir.ValueId{okHash, errHash})
	b.cur = merge
	return val
}

// lowerTupleCompare builds the N-deep staircase (§4.3.4): each field but
// the last tests "equal so far" and either falls through to the next
// field or exits with its own non-Equal result; the last field's result
// always contributes. A single phi at the end picks whichever exit (or
// the final field) actually ran.
func lowerTupleCompare(b *builder, interner *ident.Interner, pool *types.Pool, t types.Type, x, y nativeir.ValueId) nativeir.ValueId {
	n := len(t.Params)
	if n == 0 {
		return b.constInt(orderEqual)
	}

	var exits []*nativeir.Block
	var vals []nativeir.ValueId
	for i := 0; i < n-1; i++ {
		fieldType := pool.Lookup(t.Params[i])
		xi, yi := b.loadField(x, fieldName(i)), b.loadField(y, fieldName(i))
		cmp := lowerCompareValue(b, interner, pool, fieldType, xi, yi)
		isEqual := b.icmp(nativeir.OpIcmpEq, cmp, b.constInt(orderEqual))
		continueBlock, exitBlock := b.branch(isEqual)
		exits = append(exits, exitBlock)
		vals = append(vals, cmp)
		b.cur = continueBlock
	}

	lastType := pool.Lookup(t.Params[n-1])
	xl, yl := b.loadField(x, fieldName(n-1)), b.loadField(y, fieldName(n-1))
	lastCmp := lowerCompareValue(b, interner, pool, lastType, xl, yl)
	if len(exits) == 0 {
		return lastCmp // single-field tuple: no staircase needed
	}
	exits = append(exits, b.cur)
	vals = append(vals, lastCmp)

	merge, val := mergeWithPhi(b.fn, exits, vals)
	b.cur = merge
	return val
}

// lowerTupleEquals is the same staircase with a short-circuiting
// true/false phi instead of an ordering tag.
func lowerTupleEquals(b *builder, interner *ident.Interner, pool *types.Pool, t types.Type, x, y nativeir.ValueId) nativeir.ValueId {
	n := len(t.Params)
	if n == 0 {
		return b.constBool(true)
	}

	var exits []*nativeir.Block
	var vals []nativeir.ValueId
	for i := 0; i < n-1; i++ {
		fieldType := pool.Lookup(t.Params[i])
		xi, yi := b.loadField(x, fieldName(i)), b.loadField(y, fieldName(i))
		eq := lowerEqualsValue(b, interner, pool, fieldType, xi, yi)
		continueBlock, exitBlock := b.branch(eq)
		b.cur = exitBlock
		falseVal := b.constBool(false)
		exits = append(exits, b.cur)
		vals = append(vals, falseVal)
		b.cur = continueBlock
	}

	lastType := pool.Lookup(t.Params[n-1])
	xl, yl := b.loadField(x, fieldName(n-1)), b.loadField(y, fieldName(n-1))
	lastEq := lowerEqualsValue(b, interner, pool, lastType, xl, yl)
	if len(exits) == 0 {
		return lastEq
	}
	exits = append(exits, b.cur)
	vals = append(vals, lastEq)

	merge, val := mergeWithPhi(b.fn, exits, vals)
	b.cur = merge
	return val
}

// lowerTupleHash folds hash_combine over every field's hash from seed 0.
func lowerTupleHash(b *builder, interner *ident.Interner, pool *types.Pool, t types.Type, x nativeir.ValueId) nativeir.ValueId {
	seed := b.constInt(0)
	for i, fieldID := range t.Params {
		fieldType := pool.Lookup(fieldID)
		xi := b.loadField(x, fieldName(i))
		fieldHash := lowerHashValue(b, interner, pool, fieldType, xi)
		seed = hashCombine(b, seed, fieldHash)
	}
	return seed
}

// threeWayCompare turns two booleans (is-less, is-greater) into the
// 8-bit ordering tag via two icmp + one select chained off another,
// matching §4.3.1's "two icmp + select" shape exactly.
func (b *builder) threeWayCompare(lt, gt nativeir.ValueId) nativeir.ValueId {
	greaterOrEqual := b.sel(gt, b.constInt(orderGreater), b.constInt(orderEqual))
	return b.sel(lt, b.constInt(orderLess), greaterOrEqual)
}

// hashCombine implements the Boost-derived folding formula (§4.3.3):
//
//	seed XOR (value + 0x9e3779b9 + (seed << 6) + (seed >> 2))
//
// internal/eval's tree-walking evaluator must reproduce this bit-for-bit
// so hash tables stay compatible across both backends.
func hashCombine(b *builder, seed, value nativeir.ValueId) nativeir.ValueId {
	magic := b.constInt(0x9e3779b9)
	sum := b.binop(nativeir.OpAdd, value, magic)
	shl := b.binop(nativeir.OpShl, seed, b.constInt(6))
	sum = b.binop(nativeir.OpAdd, sum, shl)
	shr := b.binop(nativeir.OpShr, seed, b.constInt(2))
	sum = b.binop(nativeir.OpAdd, sum, shr)
	return b.binop(nativeir.OpXor, seed, sum)
}
