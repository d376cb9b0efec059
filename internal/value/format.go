package value

// WellKnownTypeName is the primitive type name table consulted when a
// Cast node's target type is canonicalized. Primitives resolve through
// this table; named types use their declared name; anything else
// degrades to the empty name, which the evaluator and codegen treat as
// an error-recovery cast that always fails.
type WellKnownTypeName string

const (
	TypeNameInt    WellKnownTypeName = "int"
	TypeNameFloat  WellKnownTypeName = "float"
	TypeNameBool   WellKnownTypeName = "bool"
	TypeNameStr    WellKnownTypeName = "str"
	TypeNameChar   WellKnownTypeName = "char"
	TypeNameByte   WellKnownTypeName = "byte"
	TypeNameVoid   WellKnownTypeName = "void"
	TypeNameUnknown WellKnownTypeName = ""
)

var wellKnownNames = map[string]WellKnownTypeName{
	"int":   TypeNameInt,
	"float": TypeNameFloat,
	"bool":  TypeNameBool,
	"str":   TypeNameStr,
	"char":  TypeNameChar,
	"byte":  TypeNameByte,
	"void":  TypeNameVoid,
}

// LookupWellKnownName returns the canonical cast-target name for a
// primitive type spelling, and false if name isn't one of the well-known
// primitives (the caller should then fall back to the declared name of a
// user type).
func LookupWellKnownName(name string) (WellKnownTypeName, bool) {
	n, ok := wellKnownNames[name]
	return n, ok
}
