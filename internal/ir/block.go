package ir

// Region is an ordered list of blocks over the enclosing function's arena.
// The function body and every construct sub-program are regions.
type Region struct {
	Blocks []BlockID
}

// Entry returns the region's entry block.
func (r Region) Entry() BlockID {
	if len(r.Blocks) == 0 {
		return NoBlockID
	}
	return r.Blocks[0]
}

// IndexOf returns the position of b in the region, or -1.
func (r Region) IndexOf(b BlockID) int {
	for i, id := range r.Blocks {
		if id == b {
			return i
		}
	}
	return -1
}

// Block is an ordered instruction sequence with typed entry parameters and
// exactly one terminator.
type Block struct {
	Params []ValueID
	Instrs []*Instr
	Term   Terminator
}

func (b *Block) Terminated() bool {
	if b == nil {
		return true
	}
	return b.Term.Kind != TermNone
}
