package ir

import (
	"strata/internal/source"
	"strata/internal/types"
)

// Builder emits instructions into a cursor block, in the style of a
// function lowerer: StartBlock moves the cursor, Emit appends, SetTerm
// closes the block.
type Builder struct {
	F   *Func
	cur BlockID
}

func NewBuilder(f *Func) *Builder {
	return &Builder{F: f, cur: NoBlockID}
}

// StartBlock moves the emission cursor.
func (b *Builder) StartBlock(id BlockID) {
	b.cur = id
}

// CurBlockID returns the cursor block.
func (b *Builder) CurBlockID() BlockID {
	return b.cur
}

func (b *Builder) curBlock() *Block {
	return b.F.Block(b.cur)
}

// Emit appends an instruction to the cursor block.
func (b *Builder) Emit(ins *Instr) {
	blk := b.curBlock()
	blk.Instrs = append(blk.Instrs, ins)
}

// SetTerm closes the cursor block. Overwriting an existing terminator is a
// builder bug.
func (b *Builder) SetTerm(t Terminator) {
	blk := b.curBlock()
	if blk.Terminated() {
		panic("ir: block already terminated")
	}
	blk.Term = t
}

// ConstInt emits an integer constant and returns its value.
func (b *Builder) ConstInt(t types.TypeID, v int64, span source.Span) ValueID {
	res := b.F.NewValue(t, "")
	b.Emit(&Instr{Kind: InstrConst, Result: res, Span: span, Const: ConstInstr{Int: v}})
	return res
}

// ConstBool emits a boolean constant and returns its value.
func (b *Builder) ConstBool(t types.TypeID, v bool, span source.Span) ValueID {
	res := b.F.NewValue(t, "")
	b.Emit(&Instr{Kind: InstrConst, Result: res, Span: span, Const: ConstInstr{Bool: v}})
	return res
}

// Bin emits a two-operand instruction.
func (b *Builder) Bin(op BinOp, t types.TypeID, lhs, rhs ValueID, span source.Span) ValueID {
	res := b.F.NewValue(t, "")
	b.Emit(&Instr{Kind: InstrBin, Result: res, Span: span, Bin: BinInstr{Op: op, LHS: lhs, RHS: rhs}})
	return res
}

// Extract emits a scalar-bool extraction.
func (b *Builder) Extract(t types.TypeID, src ValueID, span source.Span) ValueID {
	res := b.F.NewValue(t, "")
	b.Emit(&Instr{Kind: InstrExtract, Result: res, Span: span, Extract: ExtractInstr{Src: src}})
	return res
}

// Br terminates the cursor block with an unconditional branch.
func (b *Builder) Br(target BlockID, args []ValueID) {
	b.SetTerm(Terminator{Kind: TermBr, Br: BrTerm{Target: target, Args: args}})
}

// CondBr terminates the cursor block with a conditional branch.
func (b *Builder) CondBr(cond ValueID, ifTrue BlockID, trueArgs []ValueID, ifFalse BlockID, falseArgs []ValueID) {
	b.SetTerm(Terminator{Kind: TermCondBr, CondBr: CondBrTerm{
		Cond:      cond,
		True:      ifTrue,
		TrueArgs:  trueArgs,
		False:     ifFalse,
		FalseArgs: falseArgs,
	}})
}

// Yield terminates the cursor block with a structured return.
func (b *Builder) Yield(values ...ValueID) {
	b.SetTerm(Terminator{Kind: TermYield, Yield: YieldTerm{Values: values}})
}

// Return terminates the cursor block with a function return.
func (b *Builder) Return(values ...ValueID) {
	b.SetTerm(Terminator{Kind: TermReturn, Return: ReturnTerm{Values: values}})
}
