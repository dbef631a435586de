package ir

type TermKind uint8

const (
	TermNone TermKind = iota
	// TermYield is the structured-return ending every block of a construct
	// sub-program. Lowering eliminates all of these.
	TermYield
	TermBr
	TermCondBr
	TermReturn
)

func (k TermKind) String() string {
	switch k {
	case TermYield:
		return "yield"
	case TermBr:
		return "br"
	case TermCondBr:
		return "cond_br"
	case TermReturn:
		return "return"
	}
	return "none"
}

type Terminator struct {
	Kind TermKind

	Yield  YieldTerm
	Br     BrTerm
	CondBr CondBrTerm
	Return ReturnTerm
}

type YieldTerm struct {
	Values []ValueID
}

type BrTerm struct {
	Target BlockID
	Args   []ValueID
}

type CondBrTerm struct {
	Cond      ValueID
	True      BlockID
	TrueArgs  []ValueID
	False     BlockID
	FalseArgs []ValueID
}

type ReturnTerm struct {
	Values []ValueID
}
