// Package nativeir is the opaque back-end target the Built-in Method
// Lowerer (internal/builtin) emits into (spec §6.2: "Native IR module:
// opaque here; specified as a sequence of declared functions with
// entry blocks and instructions that the back end emits"). It carries
// no ownership/refcounting concerns of its own — those are already
// resolved by the time a BlockIR function or a derived method reaches
// this package — so its shape is a deliberately thinner version of
// internal/blockir: plain SSA blocks joined by Phi rather than
// block-parameter passing, since the staircase/merge shape built-in
// methods need (spec §4.3.4) is naturally a phi-of-predecessors.
package nativeir

import "github.com/korelang/korec/internal/ident"

// ValueId names one SSA value within a Function.
type ValueId uint32

// InvalidValue is the sentinel for "no value."
const InvalidValue ValueId = 0xFFFFFFFF

// BlockId names one block within a Function.
type BlockId uint32

// Op discriminates the small instruction set the lowerer needs: enough
// to express integer/float/pointer comparison, bit arithmetic (for
// hash_combine), loads off a header/payload, and opaque runtime calls
// for the operations (string compare, allocation) this IR never
// reimplements itself.
type Op uint8

const (
	OpConstInt Op = iota
	OpConstFloat
	OpConstBool
	OpIcmpEq
	OpIcmpLt
	OpIcmpGt
	OpFcmpOEq
	OpFcmpOLt
	OpFcmpOGt
	OpSelect // (cond, ifTrue, ifFalse)
	OpAdd
	OpSub
	OpXor
	OpShl
	OpShr
	OpSext  // widen a signed integer
	OpZext  // widen an unsigned integer
	OpBitcastFloatToInt
	OpLoadField  // load a named field off a struct/header pointer
	OpCall       // call a named runtime or user function
	OpPhi        // merge values from predecessor blocks
)

// Inst is one instruction: Result is InvalidValue for a call made
// purely for effect (never the case for the pure derived-method bodies
// this package exists for, but kept for symmetry with blockir.Inst).
type Inst struct {
	Op     Op
	Result ValueId

	// OpConstInt/OpConstFloat/OpConstBool
	IntVal   int64
	FloatVal float64
	BoolVal  bool

	// OpIcmpEq/Lt/Gt, OpFcmpOEq/OLt/OGt, OpAdd/Sub/Xor/Shl/Shr
	Lhs, Rhs ValueId

	// OpSelect
	Cond, IfTrue, IfFalse ValueId

	// OpSext/OpZext/OpBitcastFloatToInt
	Operand ValueId

	// OpLoadField
	Base      ValueId
	FieldName string

	// OpCall
	Callee ident.Name
	Args   []ValueId

	// OpPhi: parallel to the owning block's predecessor list
	PhiValues []ValueId
}

// TermKind discriminates a block's control transfer.
type TermKind uint8

const (
	TermReturn TermKind = iota
	TermJump
	TermBranch
)

// Terminator ends a block.
type Terminator struct {
	Kind TermKind

	// TermReturn
	Value ValueId

	// TermJump
	Target BlockId

	// TermBranch
	Cond       ValueId
	Then, Else BlockId
}

// Block is a native-IR basic block.
type Block struct {
	ID    BlockId
	Preds []BlockId
	Insts []Inst
	Term  Terminator
}

// Function is one declared native-IR function: a derived method body
// (compare/equals/hash/clone, or a projection helper) lowered from
// internal/builtin, with its own fresh ValueId/BlockId numbering.
type Function struct {
	Name       ident.Name
	Params     []ValueId
	Blocks     []*Block
	Entry      BlockId

	nextValue ValueId
}

// Module is the full set of native-IR functions a compilation unit
// emits — the back end's actual input.
type Module struct {
	Functions []*Function
}

func (f *Function) NewValue() ValueId {
	v := f.nextValue
	f.nextValue++
	return v
}

func (f *Function) NewBlock(preds ...BlockId) *Block {
	b := &Block{ID: BlockId(len(f.Blocks)), Preds: preds}
	f.Blocks = append(f.Blocks, b)
	return b
}

func (f *Function) Block(id BlockId) *Block {
	return f.Blocks[id]
}
