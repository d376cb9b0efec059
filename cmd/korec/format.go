package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/korelang/korec/internal/eval"
)

// formatValue renders an eval.Value for terminal output. It only needs
// to cover the scalar and compound kinds a fixture's binary/unary/if/
// block expressions can actually produce; closures and struct values
// print their shape rather than attempting a full literal round-trip.
func formatValue(v eval.Value) string {
	switch v.Kind {
	case eval.KindUnit:
		return "()"
	case eval.KindInt:
		return strconv.FormatInt(v.I, 10)
	case eval.KindFloat:
		return strconv.FormatFloat(v.AsFloat64(), 'g', -1, 64)
	case eval.KindBool:
		return strconv.FormatBool(v.AsBool())
	case eval.KindString:
		return strconv.Quote(v.S)
	case eval.KindChar:
		return strconv.QuoteRune(rune(v.I))
	case eval.KindByte:
		return fmt.Sprintf("%d", v.I)
	case eval.KindTuple, eval.KindList, eval.KindSet:
		parts := make([]string, len(v.Elems))
		for i, e := range v.Elems {
			parts[i] = formatValue(e)
		}
		open, shut := "[", "]"
		if v.Kind == eval.KindTuple {
			open, shut = "(", ")"
		}
		return open + strings.Join(parts, ", ") + shut
	case eval.KindOption:
		if v.Tag == eval.TagNone {
			return "none"
		}
		return "some(" + formatValue(*v.Payload) + ")"
	case eval.KindResult:
		if v.Tag == eval.TagOk {
			return "ok(" + formatValue(*v.Payload) + ")"
		}
		return "err(" + formatValue(*v.Payload) + ")"
	case eval.KindStruct:
		parts := make([]string, len(v.Fields))
		for i, f := range v.Fields {
			parts[i] = formatValue(f.Value)
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case eval.KindClosure:
		return "<closure>"
	case eval.KindFuncRef:
		return "<func>"
	default:
		return "<unknown>"
	}
}
