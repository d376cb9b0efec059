package builtin

import (
	"github.com/korelang/korec/internal/ident"
	"github.com/korelang/korec/internal/nativeir"
)

// The projection helpers (§4.3, "is_some/is_none/unwrap/unwrap_or,
// is_ok/is_err, is_less/is_equal/is_greater/reverse, len/is_empty") are
// simpler than compare/equals/hash: each is a single-digit instruction
// count with no staircase, so they're built directly rather than
// through the Lower/Method dispatch table above.

// BuildIsSome returns `fn(opt) bool` testing Option's tag == Some (1).
func BuildIsSome(name ident.Name) *nativeir.Function {
	b := newBuilder(name, 1)
	tag := b.loadField(b.fn.Params[0], "tag")
	b.ret(b.icmp(nativeir.OpIcmpEq, tag, b.constInt(1)))
	return b.fn
}

// BuildIsNone returns `fn(opt) bool` testing Option's tag == None (0).
func BuildIsNone(name ident.Name) *nativeir.Function {
	b := newBuilder(name, 1)
	tag := b.loadField(b.fn.Params[0], "tag")
	b.ret(b.icmp(nativeir.OpIcmpEq, tag, b.constInt(0)))
	return b.fn
}

// BuildUnwrap returns `fn(opt) T` reading the payload directly when
// Some, or trapping through a runtime panic call when None — the
// `unwrap` on an empty Option the type system can't rule out statically.
func BuildUnwrap(interner *ident.Interner, name ident.Name) *nativeir.Function {
	b := newBuilder(name, 1)
	opt := b.fn.Params[0]
	tag := b.loadField(opt, "tag")
	isSome := b.icmp(nativeir.OpIcmpEq, tag, b.constInt(1))
	someBlock, noneBlock := b.branch(isSome)

	b.cur = someBlock
	payload := b.loadField(opt, "payload")
	someEnd := b.cur

	b.cur = noneBlock
	trapped := b.call(runtimeName(interner, "panic_unwrap_none"))
	noneEnd := b.cur

	merge, val := mergeWithPhi(b.fn, []*nativeir.Block{someEnd, noneEnd}, []nativeir.ValueId{payload, trapped})
	b.cur = merge
	b.ret(val)
	return b.fn
}

// BuildUnwrapOr returns `fn(opt, d) T` as a single select — no branch
// needed, matching §4.3.2's rule exactly: `select is_some payload d`.
func BuildUnwrapOr(name ident.Name) *nativeir.Function {
	b := newBuilder(name, 2)
	opt, d := b.fn.Params[0], b.fn.Params[1]
	tag := b.loadField(opt, "tag")
	isSome := b.icmp(nativeir.OpIcmpEq, tag, b.constInt(1))
	payload := b.loadField(opt, "payload")
	b.ret(b.sel(isSome, payload, d))
	return b.fn
}

// BuildIsOk returns `fn(res) bool` testing Result's tag == Ok (0).
func BuildIsOk(name ident.Name) *nativeir.Function {
	b := newBuilder(name, 1)
	tag := b.loadField(b.fn.Params[0], "tag")
	b.ret(b.icmp(nativeir.OpIcmpEq, tag, b.constInt(0)))
	return b.fn
}

// BuildIsErr returns `fn(res) bool` testing Result's tag == Err (1).
func BuildIsErr(name ident.Name) *nativeir.Function {
	b := newBuilder(name, 1)
	tag := b.loadField(b.fn.Params[0], "tag")
	b.ret(b.icmp(nativeir.OpIcmpEq, tag, b.constInt(1)))
	return b.fn
}

// BuildIsLess, BuildIsEqual, BuildIsGreater test an ordering tag value
// directly against its constant (§4.3.1, "Ordering tag").
func BuildIsLess(name ident.Name) *nativeir.Function    { return buildOrderingTest(name, orderLess) }
func BuildIsEqual(name ident.Name) *nativeir.Function   { return buildOrderingTest(name, orderEqual) }
func BuildIsGreater(name ident.Name) *nativeir.Function { return buildOrderingTest(name, orderGreater) }

func buildOrderingTest(name ident.Name, against int64) *nativeir.Function {
	b := newBuilder(name, 1)
	b.ret(b.icmp(nativeir.OpIcmpEq, b.fn.Params[0], b.constInt(against)))
	return b.fn
}

// BuildReverse implements the ordering tag's `reverse`: `2 - tag` flips
// Less/Greater and leaves Equal fixed.
func BuildReverse(name ident.Name) *nativeir.Function {
	b := newBuilder(name, 1)
	b.ret(b.binop(nativeir.OpSub, b.constInt(orderGreater), b.fn.Params[0]))
	return b.fn
}

// BuildLen returns `fn(container) int` reading the length field off a
// List/Map/Set header.
func BuildLen(name ident.Name) *nativeir.Function {
	b := newBuilder(name, 1)
	b.ret(b.loadField(b.fn.Params[0], "length"))
	return b.fn
}

// BuildIsEmpty returns `fn(container) bool` as `len == 0`.
func BuildIsEmpty(name ident.Name) *nativeir.Function {
	b := newBuilder(name, 1)
	length := b.loadField(b.fn.Params[0], "length")
	b.ret(b.icmp(nativeir.OpIcmpEq, length, b.constInt(0)))
	return b.fn
}
