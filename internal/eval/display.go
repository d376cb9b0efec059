package eval

import (
	"strconv"
	"strings"

	"github.com/korelang/korec/internal/ident"
	"github.com/korelang/korec/internal/value"
)

// ToDisplayString renders v the way a template-literal interpolation
// (`"count: ${n}"`) or an explicit `.to_str()` call does — the same
// synthesized "to_str" MethodCall internal/canon/lower.go emits for
// string interpolation dispatches here when no user-defined `to_str`
// method exists on v's type. interner resolves struct/variant type
// names back to their source spelling (Value only carries the interned
// ident.Name handle, matching every other identifier in CanonIR).
func ToDisplayString(interner *ident.Interner, v Value) string {
	switch v.Kind {
	case KindUnit:
		return "()"
	case KindInt:
		return strconv.FormatInt(v.I, 10)
	case KindFloat:
		return strconv.FormatFloat(v.AsFloat64(), 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.AsBool())
	case KindString:
		return v.S
	case KindChar:
		return string(rune(v.I))
	case KindByte:
		return strconv.FormatInt(v.I, 10)
	case KindDuration:
		return formatDuration(v.I)
	case KindSize:
		return formatSize(v.I)
	case KindOrdering:
		switch v.I {
		case OrderLess:
			return "Less"
		case OrderEqual:
			return "Equal"
		default:
			return "Greater"
		}
	case KindOption:
		if v.Tag == TagNone {
			return "None"
		}
		return "Some(" + ToDisplayString(interner, *v.Payload) + ")"
	case KindResult:
		if v.Tag == TagOk {
			return "Ok(" + ToDisplayString(interner, *v.Payload) + ")"
		}
		return "Err(" + ToDisplayString(interner, *v.Payload) + ")"
	case KindTuple:
		return "(" + joinValues(interner, v.Elems) + ")"
	case KindList:
		return "[" + joinValues(interner, v.Elems) + "]"
	case KindSet:
		return "{" + joinValues(interner, v.Elems) + "}"
	case KindMap:
		parts := make([]string, len(v.Entries))
		for i, e := range v.Entries {
			parts[i] = ToDisplayString(interner, e.Key) + ": " + ToDisplayString(interner, e.Value)
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case KindStruct:
		parts := make([]string, len(v.Fields))
		for i, f := range v.Fields {
			parts[i] = ToDisplayString(interner, f.Value)
		}
		return typeName(interner, v.StructName) + "(" + strings.Join(parts, ", ") + ")"
	case KindVariant:
		if len(v.Elems) == 0 {
			return typeName(interner, v.StructName)
		}
		return typeName(interner, v.StructName) + "(" + joinValues(interner, v.Elems) + ")"
	case KindClosure, KindFuncRef:
		return "<function>"
	case KindTypeRef:
		return typeName(interner, v.StructName)
	default:
		return ""
	}
}

func typeName(interner *ident.Interner, n ident.Name) string {
	if s, ok := interner.Lookup(n); ok {
		return s
	}
	return "<unknown>"
}

var durationUnits = []struct {
	name       string
	multiplier int64
}{
	{"y", value.Year},
	{"w", value.Week},
	{"d", value.Day},
	{"h", value.Hour},
	{"m", value.Minute},
	{"s", value.Second},
	{"ms", value.Millisecond},
	{"us", value.Microsecond},
	{"ns", value.Nanosecond},
}

// formatDuration mirrors internal/value/duration.go's unexported
// formatDuration component-breakdown algorithm (the type that actually
// owns these nanoseconds keeps its fields private, so Eval tracks the
// raw nanos itself rather than reconstructing a value.Duration).
func formatDuration(nanos int64) string {
	if nanos == 0 {
		return "0s"
	}
	var sb strings.Builder
	remaining := nanos
	for _, u := range durationUnits {
		if remaining >= u.multiplier {
			count := remaining / u.multiplier
			remaining %= u.multiplier
			sb.WriteString(strconv.FormatInt(count, 10))
			sb.WriteString(u.name)
		}
	}
	return sb.String()
}

var sizeUnits = []struct {
	name       string
	multiplier int64
}{
	{"TB", value.Terabyte},
	{"GB", value.Gigabyte},
	{"MB", value.Megabyte},
	{"KB", value.Kilobyte},
	{"B", value.Byte},
}

// formatSize mirrors internal/value/size.go's Size.String: the largest
// unit that evenly divides the byte count, for the same private-fields
// reason formatDuration does its own breakdown above.
func formatSize(bytes int64) string {
	for _, u := range sizeUnits {
		if bytes != 0 && bytes%u.multiplier == 0 {
			return strconv.FormatInt(bytes/u.multiplier, 10) + u.name
		}
	}
	return strconv.FormatInt(bytes, 10) + "B"
}

func joinValues(interner *ident.Interner, vs []Value) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = ToDisplayString(interner, v)
	}
	return strings.Join(parts, ", ")
}
