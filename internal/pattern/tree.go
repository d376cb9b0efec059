// Package pattern implements the decision-tree data model and the
// Maranget-style pattern-matrix compiler (§3.2, §4.1.1). Trees are
// immutable once built and shared by content-addressed reference
// count (§3.2 "content-addressable via ref-counted sharing", §9
// "Shared immutability via reference counting") so the evaluator and
// the block-form builder can each hold a handle without deep-cloning.
package pattern

import "github.com/korelang/korec/internal/ident"

// TreeID is a handle into a Pool.
type TreeID uint32

// InvalidTree is the sentinel for "no subtree" (never actually stored).
const InvalidTree TreeID = 0xFFFFFFFF

// StepKind discriminates one hop of a scrutinee path.
type StepKind uint8

const (
	StepField StepKind = iota
	StepVariantPayload
	StepListHead
	StepListTail // the "rest" slice after a fixed-length prefix
)

// Step is one instruction of a scrutinee path: "project field i",
// "project variant payload", "project list head", "project list tail
// starting at index i".
type Step struct {
	Kind  StepKind
	Index int
}

// TestKind discriminates which comparison a Test node performs.
type TestKind uint8

const (
	TestInt TestKind = iota
	TestString
	TestBool
	TestVariantTag
	TestListLen // Cases carry length thresholds; see TestValue.LenCmp
	TestRange
)

// LenCmp discriminates a list-length comparison direction.
type LenCmp uint8

const (
	LenLess LenCmp = iota
	LenEqual
	LenGreater
)

// TestValue is the case label compared against at a Test node.
type TestValue struct {
	Int        int64
	Str        string
	Bool       bool
	VariantTag int
	Len        int
	LenCmp     LenCmp
	RangeLow   int64
	RangeHigh  int64
	Inclusive  bool
}

// Binding records that, on reaching a leaf, Name should be bound to the
// value found by following Path from the match's scrutinee.
type Binding struct {
	Name ident.Name
	Path []Step
}

// Case is one labeled branch out of a Test node.
type Case struct {
	Value   TestValue
	Subtree TreeID
}

// NodeKind discriminates the four decision-tree node shapes (§3.2).
type NodeKind uint8

const (
	NodeTest NodeKind = iota
	NodeGuard
	NodeLeaf
	NodeFail
)

// Node is one immutable decision-tree node. Exactly the fields for
// Kind are meaningful.
type Node struct {
	Kind NodeKind

	// NodeTest
	Path     []Step
	TestKind TestKind
	Cases    []Case
	Default  TreeID

	// NodeGuard
	GuardExpr     uint32 // a canon.NodeId; kept untyped to avoid an import cycle
	BindingsSoFar []Binding
	TrueBranch    TreeID
	FalseBranch   TreeID

	// NodeLeaf
	ArmIndex      int
	FinalBindings []Binding

	// NodeFail carries no payload.
}
