package eval

// Compare implements the built-in three-way ordering (§4.3.1, §4.3.2),
// returning one of OrderLess/OrderEqual/OrderGreater. Struct/sum/List/
// Map/Set have no built-in ordering (§4.3.2); callers reach this only
// after failing to find a user-defined compare.
func Compare(a, b Value) int {
	switch a.Kind {
	case KindUnit:
		return OrderEqual
	case KindInt, KindDuration, KindSize, KindChar, KindByte, KindOrdering:
		return threeWay(a.I < b.I, a.I > b.I)
	case KindBool:
		return threeWay(a.I < b.I, a.I > b.I) // false(0) < true(1)
	case KindFloat:
		af, bf := a.AsFloat64(), b.AsFloat64()
		return threeWay(af < bf, af > bf)
	case KindString:
		switch {
		case a.S < b.S:
			return OrderLess
		case a.S > b.S:
			return OrderGreater
		default:
			return OrderEqual
		}
	case KindOption:
		return compareOption(a, b)
	case KindResult:
		return compareResult(a, b)
	case KindTuple:
		return compareTuple(a, b)
	default:
		return OrderEqual
	}
}

func threeWay(lt, gt bool) int {
	if lt {
		return OrderLess
	}
	if gt {
		return OrderGreater
	}
	return OrderEqual
}

func compareOption(a, b Value) int {
	if a.Tag != b.Tag {
		return threeWay(a.Tag < b.Tag, a.Tag > b.Tag) // None(0) < Some(1)
	}
	if a.Tag == TagNone {
		return OrderEqual
	}
	return Compare(*a.Payload, *b.Payload)
}

func compareResult(a, b Value) int {
	if a.Tag != b.Tag {
		return threeWay(a.Tag < b.Tag, a.Tag > b.Tag) // Ok(0) < Err(1)
	}
	return Compare(*a.Payload, *b.Payload)
}

func compareTuple(a, b Value) int {
	n := len(a.Elems)
	for i := 0; i < n; i++ {
		if c := Compare(a.Elems[i], b.Elems[i]); c != OrderEqual {
			return c
		}
	}
	return OrderEqual
}

// Equals implements the built-in structural equality (§4.3.1, §4.3.2).
func Equals(a, b Value) bool {
	switch a.Kind {
	case KindUnit:
		return true
	case KindInt, KindDuration, KindSize, KindChar, KindByte, KindOrdering, KindBool:
		return a.I == b.I
	case KindFloat:
		return a.AsFloat64() == b.AsFloat64()
	case KindString:
		return a.S == b.S
	case KindOption:
		if a.Tag != b.Tag {
			return false
		}
		if a.Tag == TagNone {
			return true
		}
		return Equals(*a.Payload, *b.Payload)
	case KindResult:
		if a.Tag != b.Tag {
			return false
		}
		return Equals(*a.Payload, *b.Payload)
	case KindTuple:
		for i := range a.Elems {
			if !Equals(a.Elems[i], b.Elems[i]) {
				return false
			}
		}
		return true
	default:
		// List/Map/Set/Struct/Variant/Closure have no built-in equality
		// (internal/builtin.Lower likewise reports ok=false for these
		// kinds, §4.3.2) — a well-typed program resolves .equals() on
		// one of these to a user-defined method before ever reaching
		// here. false, not true, is the safe degrade: it fails a lookup
		// instead of silently unifying two unrelated values.
		return false
	}
}

// Clone is identity for every scalar/algebraic kind the RC inserter
// already tracks by reference count, matching internal/builtin's rule
// that Clone only ever needs to be non-trivial for struct/sum types
// carrying a user-defined clone (§4.3.1).
func Clone(v Value) Value { return v }

// Reverse flips an ordering tag: Less<->Greater, Equal fixed (§4.3.1).
func Reverse(tag int) int { return OrderGreater - tag }
