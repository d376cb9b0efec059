package eval

import "math"

// hashCombine folds value into seed with the Boost-derived formula
// (§4.3.3): seed XOR (value + 0x9e3779b9 + (seed<<6) + (seed>>2)).
// internal/builtin's nativeir-level hashCombine emits the identical
// arithmetic; the two must never drift, or a map/set built by one
// backend's derived hash would look at a different bucket under the
// other's.
func hashCombine(seed, value int64) int64 {
	const magic = 0x9e3779b9
	sum := value + magic
	sum += seed << 6
	sum += seed >> 2
	return seed ^ sum
}

// Hash computes v's built-in hash (§4.3.1, §4.3.2). Structs and sums
// fall back to a zero hash here since the evaluator's builtin-method
// lowering, like internal/builtin's, only ever sees this path when no
// user-defined hash exists for a composite type — callers that know a
// struct/sum type has no user hash can use this directly; those that
// don't should check for a user method first.
func Hash(v Value) int64 {
	switch v.Kind {
	case KindUnit:
		return 0
	case KindInt, KindDuration, KindSize:
		return v.I
	case KindChar, KindByte, KindOrdering, KindBool:
		return v.I
	case KindFloat:
		f := v.AsFloat64()
		if f == 0 {
			f = 0.0 // -0.0 == 0 is true; reassigning collapses it to +0.0
		}
		return int64(math.Float64bits(f))
	case KindString:
		return hashString(v.S)
	case KindOption:
		if v.Tag == TagNone {
			return 0
		}
		return hashCombine(1, Hash(*v.Payload))
	case KindResult:
		if v.Tag == TagOk {
			return hashCombine(2, Hash(*v.Payload))
		}
		return hashCombine(3, Hash(*v.Payload))
	case KindTuple:
		seed := int64(0)
		for _, e := range v.Elems {
			seed = hashCombine(seed, Hash(e))
		}
		return seed
	default:
		return 0
	}
}

// hashString is the evaluator's own string-hash routine. The native
// backend routes string hashing through an opaque "str_hash" runtime
// call (§4.3.1) whose body lives outside this repo, so there is no
// bit-for-bit contract to honor here — only hash_combine's composition
// and the primitive/ordering hashes above need cross-backend parity.
// FNV-1a is the standard library's own hash/fnv algorithm, applied by
// hand here to avoid allocating a hash.Hash64 per call.
func hashString(s string) int64 {
	const offset64 = 14695981039346656037
	const prime64 = 1099511628211
	h := uint64(offset64)
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime64
	}
	return int64(h)
}
