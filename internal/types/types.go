// Package types models the resolved type system the typed AST input
// hands the canonicalizer: every AST expression id already has a
// resolved Type looked up from a read-only table (§4.1, "Input"). This
// package only needs enough structure to (a) format a type for
// diagnostics and (b) let the RC inserter and built-in lowerer dispatch
// on shape — full inference and checking live upstream, out of scope.
package types

import "github.com/korelang/korec/internal/ident"

// Kind discriminates the shape of a Type.
type Kind uint8

const (
	KindError Kind = iota // resolution failed upstream; propagates silently
	KindUnit
	KindInt
	KindFloat
	KindBool
	KindString
	KindChar
	KindByte
	KindDuration
	KindSize
	KindOrdering // the 8-bit Less/Equal/Greater tag
	KindOption   // Option[Elem]
	KindResult   // Result[Ok, Err]
	KindTuple    // Tuple[Elems...]
	KindList     // List[Elem]
	KindMap      // Map[Key, Val]
	KindSet      // Set[Elem]
	KindFunc     // Func(Params...) -> Result
	KindStruct   // user-declared struct, identified by Name
	KindSum      // user-declared sum type, identified by Name
	KindClosure  // a lambda's captured-environment type
)

// ID is a handle into a Pool, stable for the lifetime of the pool that
// produced it.
type ID uint32

// Type is the structural description behind an ID.
type Type struct {
	Kind   Kind
	Name   ident.Name // KindStruct, KindSum: the declared type name
	Params []ID       // element/field/param types, per Kind
}

var primitiveKinds = [...]Kind{
	KindUnit, KindInt, KindFloat, KindBool, KindString, KindChar, KindByte,
	KindDuration, KindSize, KindOrdering, KindError,
}

// IsPrimitive reports whether k names a type with no substructure to
// recurse into. Note this is not the RC classifier's non-refcounted
// set: String has no substructure but is heap-allocated and still
// requires refcounting (internal/rc.RequiresRC special-cases it).
func IsPrimitive(k Kind) bool {
	for _, p := range primitiveKinds {
		if p == k {
			return true
		}
	}
	return false
}

// Pool interns Types by structural content so that two call sites
// building "List[str]" independently get the same ID, letting later
// passes compare types with a single integer equality.
type Pool struct {
	interner *ident.Interner
	types    []Type
	byKey    map[string]ID

	// Stable ids for primitives, populated at construction.
	primitives map[Kind]ID
}

// NewPool creates a Pool with every primitive kind pre-registered so
// RequiresRC and the built-in lowerer can use them as constants.
func NewPool(interner *ident.Interner) *Pool {
	p := &Pool{
		interner:   interner,
		byKey:      make(map[string]ID),
		primitives: make(map[Kind]ID),
	}
	for _, k := range primitiveKinds {
		p.primitives[k] = p.intern(Type{Kind: k})
	}
	return p
}

// Primitive returns the pre-registered ID for a primitive Kind. Passing
// a non-primitive Kind is a programming error and returns the error
// type's ID.
func (p *Pool) Primitive(k Kind) ID {
	if id, ok := p.primitives[k]; ok {
		return id
	}
	return p.primitives[KindError]
}

// Intern returns the stable ID for t, allocating one if this exact
// shape has not been seen before.
func (p *Pool) Intern(t Type) ID {
	if IsPrimitive(t.Kind) {
		return p.Primitive(t.Kind)
	}
	return p.intern(t)
}

func (p *Pool) intern(t Type) ID {
	key := p.key(t)
	if id, ok := p.byKey[key]; ok {
		return id
	}
	id := ID(len(p.types))
	p.types = append(p.types, t)
	p.byKey[key] = id
	return id
}

func (p *Pool) key(t Type) string {
	buf := make([]byte, 0, 16)
	buf = append(buf, byte(t.Kind), byte(t.Name>>24), byte(t.Name>>16), byte(t.Name>>8), byte(t.Name))
	for _, param := range t.Params {
		buf = append(buf, byte(param>>24), byte(param>>16), byte(param>>8), byte(param))
	}
	return string(buf)
}

// Lookup returns the Type behind an ID.
func (p *Pool) Lookup(id ID) Type {
	return p.types[id]
}

// Format renders a Type for diagnostics, resolving struct/sum names
// through the string interner.
func (p *Pool) Format(id ID) string {
	t := p.Lookup(id)
	switch t.Kind {
	case KindError:
		return "<error>"
	case KindUnit:
		return "void"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindString:
		return "str"
	case KindChar:
		return "char"
	case KindByte:
		return "byte"
	case KindDuration:
		return "duration"
	case KindSize:
		return "size"
	case KindOrdering:
		return "Ordering"
	case KindOption:
		return "Option[" + p.Format(t.Params[0]) + "]"
	case KindResult:
		return "Result[" + p.Format(t.Params[0]) + ", " + p.Format(t.Params[1]) + "]"
	case KindTuple:
		s := "("
		for i, param := range t.Params {
			if i > 0 {
				s += ", "
			}
			s += p.Format(param)
		}
		return s + ")"
	case KindList:
		return "List[" + p.Format(t.Params[0]) + "]"
	case KindMap:
		return "Map[" + p.Format(t.Params[0]) + ", " + p.Format(t.Params[1]) + "]"
	case KindSet:
		return "Set[" + p.Format(t.Params[0]) + "]"
	case KindFunc:
		s := "fn("
		for i := 0; i < len(t.Params)-1; i++ {
			if i > 0 {
				s += ", "
			}
			s += p.Format(t.Params[i])
		}
		return s + ") -> " + p.Format(t.Params[len(t.Params)-1])
	case KindStruct, KindSum:
		return p.interner.MustLookup(t.Name)
	case KindClosure:
		return "<closure>"
	default:
		return "<unknown-type>"
	}
}
