// Package blockir implements BlockIR (§3.4): a CFG of basic blocks with
// block-parameter SSA ("phi at the target" rather than phi at the
// join), the form the RC Inserter and Built-in Lowerer both operate
// over. It also implements the Block-Form Builder (§4.1, component
// table) that lowers a canon.CanonResult body into this shape.
package blockir

import (
	"github.com/korelang/korec/internal/ast"
	"github.com/korelang/korec/internal/ident"
	"github.com/korelang/korec/internal/pattern"
	"github.com/korelang/korec/internal/types"
)

// BlockId indexes a Function's Blocks slice.
type BlockId uint32

// InvalidBlock is the sentinel for an absent successor.
const InvalidBlock BlockId = 0xFFFFFFFF

// ValueId names one SSA value, unique within a Function.
type ValueId uint32

// InvalidValue is the sentinel for "no value" (a Return with no
// payload, an unused Invoke destination, ...).
const InvalidValue ValueId = 0xFFFFFFFF

// Ownership tags a value (block parameter or declared function
// parameter) as owned or borrowed for the RC Inserter (§4.2).
type Ownership uint8

const (
	Owned Ownership = iota
	Borrowed
)

// BlockParam is one block-parameter SSA binding — for the entry block,
// these are exactly the function's declared parameters.
type BlockParam struct {
	Value     ValueId
	Type      types.ID
	Ownership Ownership
}

// InstKind discriminates BlockIR instructions (§3.4).
type InstKind uint8

const (
	InstLet InstKind = iota
	InstApply
	InstApplyIndirect
	InstPartialApply
	InstProject
	InstConstruct
	InstInc
	InstDec
)

// LetOp discriminates the pure-compute shapes an InstLet instruction
// may perform.
type LetOp uint8

const (
	LetConstant LetOp = iota
	LetBinary
	LetUnary
	LetCopy // trivial rebind, e.g. an Ident reference to an existing value
)

// ConstructKind discriminates what shape an InstConstruct builds.
type ConstructKind uint8

const (
	ConstructList ConstructKind = iota
	ConstructTuple
	ConstructMap
	ConstructStruct
	ConstructVariant // Ok/Err/Some/None/declared sum-type case
)

// Inst is one instruction of a block's body (§3.4). Only the fields
// relevant to Kind are meaningful; the rest stay zero.
type Inst struct {
	Kind   InstKind
	Result ValueId // InvalidValue for Inc/Dec
	Type   types.ID

	// InstLet
	LetOp    LetOp
	ConstRef uint32 // constpool.Ref, kept untyped to avoid an import cycle
	BinOp    ast.BinaryOp
	UnOp     ast.UnaryOp
	Lhs, Rhs ValueId // InstLet binary; Lhs alone for unary/copy

	// InstApply / InstApplyIndirect / InstPartialApply
	Callee   ident.Name // InstApply: the called function's name
	Closure  ValueId    // InstApplyIndirect: the closure value called through
	Args     []ValueId
	Captures []ValueId // InstPartialApply: values captured into the closure

	// InstProject — either a structural Path (tuple/list/variant steps,
	// shared with the decision-tree Step vocabulary) or a named struct
	// field (FieldName), never both.
	Base      ValueId
	Path      []pattern.Step
	FieldName ident.Name

	// InstConstruct
	ConstructKind  ConstructKind
	VariantTag     int
	StructTypeName ident.Name
	FieldNames     []ident.Name // ConstructStruct: parallel to Args

	// InstInc / InstDec
	Target ValueId
}

// TermKind discriminates a block's terminator (§3.4).
type TermKind uint8

const (
	TermReturn TermKind = iota
	TermJump
	TermBranch
	TermSwitch
	TermInvoke
	TermResume
)

// SwitchCase is one arm of a Switch terminator, mirroring one Case of a
// compiled decision tree (internal/pattern).
type SwitchCase struct {
	Value   pattern.TestValue
	Target  BlockId
	Args    []ValueId
}

// Terminator is the single control-flow-transferring instruction that
// ends every block.
type Terminator struct {
	Kind TermKind

	// TermReturn
	Value ValueId // InvalidValue for a Unit-typed return

	// TermJump
	Target BlockId
	Args   []ValueId

	// TermBranch
	Cond       ValueId
	Then, Else BlockId
	ThenArgs   []ValueId
	ElseArgs   []ValueId

	// TermSwitch
	Scrutinee   ValueId
	Cases       []SwitchCase
	Default     BlockId
	DefaultArgs []ValueId

	// TermInvoke
	InvokeCallee  ident.Name
	InvokeArgs    []ValueId
	InvokeDest    ValueId
	Normal, Unwind BlockId
}

// Block is one basic block: parameters, a straight-line instruction
// body, and exactly one terminator.
type Block struct {
	ID     BlockId
	Params []BlockParam
	Insts  []Inst
	Term   Terminator
}

// Function is one BlockIR function: a CFG of basic blocks, the entry
// block's parameters doubling as the function's declared parameters.
type Function struct {
	Name       ident.Name
	Blocks     []*Block
	Entry      BlockId
	ReturnType types.ID

	// nextValue backs the builder's value-id allocation.
	nextValue ValueId
}

// Module is the full set of lowered functions and methods plus the
// shared per-function parameter-ownership signature map the RC
// Inserter consults for borrowed-parameter calls across function
// boundaries (§4.2, "Ownership annotations").
type Module struct {
	Functions          []*Function
	ParamOwnership     map[ident.Name][]Ownership
}

func (f *Function) newValue() ValueId {
	v := f.nextValue
	f.nextValue++
	return v
}

// newBlock allocates a fresh block with the next unused id. Block ids
// are dense and match slice position (see block below), so the next id
// is always len(f.Blocks) — correct whether f.Blocks was built
// incrementally by this allocator or assembled by hand, which matters
// for passes that append blocks to an already-complete function (edge
// cleanup and landing-pad cleanup, §4.2.2–§4.2.3).
func (f *Function) newBlock() *Block {
	b := &Block{ID: BlockId(len(f.Blocks))}
	f.Blocks = append(f.Blocks, b)
	return b
}

func (f *Function) block(id BlockId) *Block {
	return f.Blocks[id]
}

// NewBlock allocates and appends a fresh block with the next unused id,
// exported for passes that run after the builder — edge cleanup and
// landing-pad cleanup (internal/rc, §4.2.2–§4.2.3) splice trampoline
// blocks onto existing functions this way.
func (f *Function) NewBlock() *Block {
	return f.newBlock()
}

// Block looks up a block by id, exported for the same post-build
// passes that need random access by BlockId rather than a linear scan.
func (f *Function) Block(id BlockId) *Block {
	return f.block(id)
}
