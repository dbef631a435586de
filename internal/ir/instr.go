package ir

import (
	"strata/internal/source"
)

// InstrKind enumerates instruction kinds.
type InstrKind uint8

const (
	// InstrConst materializes a literal.
	InstrConst InstrKind = iota
	// InstrBin is a two-operand arithmetic or comparison instruction.
	InstrBin
	// InstrExtract reads the scalar boolean out of a single-element
	// boolean tensor.
	InstrExtract
	// InstrCond is the structured conditional construct: a predicate, an
	// optional threaded argument per branch, and two sub-programs.
	InstrCond
	// InstrLoop is the structured loop construct: an initial carry and
	// condition/body sub-programs.
	InstrLoop
)

// Instr is an instruction node. Exactly one payload is meaningful, selected
// by Kind. Result is NoValueID for instructions without one.
type Instr struct {
	Kind   InstrKind
	Result ValueID
	Span   source.Span

	Const   ConstInstr
	Bin     BinInstr
	Extract ExtractInstr
	Cond    CondInstr
	Loop    LoopInstr
}

// ConstInstr holds the literal; the live field follows the result's scalar
// element kind.
type ConstInstr struct {
	Bool  bool
	Int   int64
	Float float64
}

// BinOp enumerates two-operand instruction operators.
type BinOp uint8

const (
	BinAdd BinOp = iota
	BinSub
	BinMul
	BinLt
	BinEq
)

func (op BinOp) String() string {
	switch op {
	case BinAdd:
		return "add"
	case BinSub:
		return "sub"
	case BinMul:
		return "mul"
	case BinLt:
		return "lt"
	case BinEq:
		return "eq"
	}
	return "?"
}

// BinOpByName resolves a textual operator name.
func BinOpByName(name string) (BinOp, bool) {
	switch name {
	case "add":
		return BinAdd, true
	case "sub":
		return BinSub, true
	case "mul":
		return BinMul, true
	case "lt":
		return BinLt, true
	case "eq":
		return BinEq, true
	}
	return 0, false
}

type BinInstr struct {
	Op  BinOp
	LHS ValueID
	RHS ValueID
}

type ExtractInstr struct {
	Src ValueID
}

// CondInstr carries the structured conditional. TrueArg/FalseArg are the
// optional values threaded into the entry block of each sub-program
// (NoValueID when absent).
type CondInstr struct {
	Pred      ValueID
	TrueArg   ValueID
	FalseArg  ValueID
	TrueBody  Region
	FalseBody Region
}

// LoopInstr carries the structured loop. Init seeds the loop-carried value;
// CondBody yields one scalar boolean per check, Body yields the next carry.
type LoopInstr struct {
	Init     ValueID
	CondBody Region
	Body     Region
}

// HasRegions reports whether the instruction owns sub-programs.
func (i *Instr) HasRegions() bool {
	return i.Kind == InstrCond || i.Kind == InstrLoop
}
