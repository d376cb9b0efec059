package types_test

import (
	"testing"

	"github.com/korelang/korec/internal/ident"
	"github.com/korelang/korec/internal/types"
)

func TestPrimitivesPreregistered(t *testing.T) {
	pool := types.NewPool(ident.New())
	intID := pool.Primitive(types.KindInt)
	if pool.Lookup(intID).Kind != types.KindInt {
		t.Errorf("expected primitive int registered")
	}
}

func TestInternDedupsStructurally(t *testing.T) {
	pool := types.NewPool(ident.New())
	strID := pool.Primitive(types.KindString)

	a := pool.Intern(types.Type{Kind: types.KindList, Params: []types.ID{strID}})
	b := pool.Intern(types.Type{Kind: types.KindList, Params: []types.ID{strID}})
	if a != b {
		t.Errorf("expected List[str] interned to the same ID twice, got %d and %d", a, b)
	}
}

func TestInternDistinguishesShape(t *testing.T) {
	pool := types.NewPool(ident.New())
	strID := pool.Primitive(types.KindString)
	intID := pool.Primitive(types.KindInt)

	listStr := pool.Intern(types.Type{Kind: types.KindList, Params: []types.ID{strID}})
	listInt := pool.Intern(types.Type{Kind: types.KindList, Params: []types.ID{intID}})
	if listStr == listInt {
		t.Errorf("expected List[str] and List[int] to have distinct IDs")
	}
}

func TestFormat(t *testing.T) {
	in := ident.New()
	pool := types.NewPool(in)
	strID := pool.Primitive(types.KindString)
	intID := pool.Primitive(types.KindInt)

	mapID := pool.Intern(types.Type{Kind: types.KindMap, Params: []types.ID{strID, intID}})
	if got, want := pool.Format(mapID), "Map[str, int]"; got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}

	name := in.Intern("Shape")
	structID := pool.Intern(types.Type{Kind: types.KindStruct, Name: name})
	if got, want := pool.Format(structID), "Shape"; got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}
}

func TestIsPrimitive(t *testing.T) {
	if !types.IsPrimitive(types.KindInt) {
		t.Errorf("expected KindInt to be primitive")
	}
	if types.IsPrimitive(types.KindList) {
		t.Errorf("expected KindList to not be primitive")
	}
}
