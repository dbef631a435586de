package ir

import "slices"

// SplitBlock splits block b of region r at instruction index at.
// Instructions from `at` onward and the terminator move to a new block
// inserted right after b in the region; b is left unterminated.
func (f *Func) SplitBlock(r *Region, b BlockID, at int) BlockID {
	blk := f.Block(b)
	nb := f.NewBlock()
	tail := f.Block(nb)

	tail.Instrs = append(tail.Instrs, blk.Instrs[at:]...)
	tail.Term = blk.Term
	blk.Instrs = blk.Instrs[:at:at]
	blk.Term = Terminator{Kind: TermNone}

	pos := r.IndexOf(b)
	if pos < 0 {
		pos = len(r.Blocks) - 1
	}
	r.Blocks = slices.Insert(r.Blocks, pos+1, nb)
	return nb
}

// ReplaceAllUses redirects every use of old to new across the function,
// including inside construct sub-programs.
func (f *Func) ReplaceAllUses(old, new ValueID) {
	sub := func(id ValueID) ValueID {
		if id == old {
			return new
		}
		return id
	}
	subAll := func(ids []ValueID) {
		for i, id := range ids {
			if id == old {
				ids[i] = new
			}
		}
	}
	for _, blk := range f.Blocks {
		if blk == nil {
			continue
		}
		for _, ins := range blk.Instrs {
			switch ins.Kind {
			case InstrConst:
			case InstrBin:
				ins.Bin.LHS = sub(ins.Bin.LHS)
				ins.Bin.RHS = sub(ins.Bin.RHS)
			case InstrExtract:
				ins.Extract.Src = sub(ins.Extract.Src)
			case InstrCond:
				ins.Cond.Pred = sub(ins.Cond.Pred)
				ins.Cond.TrueArg = sub(ins.Cond.TrueArg)
				ins.Cond.FalseArg = sub(ins.Cond.FalseArg)
			case InstrLoop:
				ins.Loop.Init = sub(ins.Loop.Init)
			}
		}
		switch blk.Term.Kind {
		case TermYield:
			subAll(blk.Term.Yield.Values)
		case TermBr:
			subAll(blk.Term.Br.Args)
		case TermCondBr:
			blk.Term.CondBr.Cond = sub(blk.Term.CondBr.Cond)
			subAll(blk.Term.CondBr.TrueArgs)
			subAll(blk.Term.CondBr.FalseArgs)
		case TermReturn:
			subAll(blk.Term.Return.Values)
		}
	}
}

// CountUses returns the number of operand slots referencing v.
func (f *Func) CountUses(v ValueID) int {
	n := 0
	count := func(id ValueID) {
		if id == v {
			n++
		}
	}
	countAll := func(ids []ValueID) {
		for _, id := range ids {
			count(id)
		}
	}
	for _, blk := range f.Blocks {
		if blk == nil {
			continue
		}
		for _, ins := range blk.Instrs {
			switch ins.Kind {
			case InstrConst:
			case InstrBin:
				count(ins.Bin.LHS)
				count(ins.Bin.RHS)
			case InstrExtract:
				count(ins.Extract.Src)
			case InstrCond:
				count(ins.Cond.Pred)
				count(ins.Cond.TrueArg)
				count(ins.Cond.FalseArg)
			case InstrLoop:
				count(ins.Loop.Init)
			}
		}
		switch blk.Term.Kind {
		case TermYield:
			countAll(blk.Term.Yield.Values)
		case TermBr:
			countAll(blk.Term.Br.Args)
		case TermCondBr:
			count(blk.Term.CondBr.Cond)
			countAll(blk.Term.CondBr.TrueArgs)
			countAll(blk.Term.CondBr.FalseArgs)
		case TermReturn:
			countAll(blk.Term.Return.Values)
		}
	}
	return n
}

// FindInstr locates ins in the arena. Returns its block and index.
func (f *Func) FindInstr(ins *Instr) (BlockID, int, bool) {
	for id, blk := range f.Blocks {
		if blk == nil {
			continue
		}
		for i, cand := range blk.Instrs {
			if cand == ins {
				return BlockID(id), i, true // #nosec G115 -- arena fits int32
			}
		}
	}
	return NoBlockID, -1, false
}

// EraseInstr removes ins from its block. Sub-programs owned by the
// instruction are released from the arena. Only valid once the result has no
// remaining uses (or has been redirected).
func (f *Func) EraseInstr(ins *Instr) bool {
	b, i, ok := f.FindInstr(ins)
	if !ok {
		return false
	}
	blk := f.Block(b)
	blk.Instrs = slices.Delete(blk.Instrs, i, i+1)
	switch ins.Kind {
	case InstrCond:
		f.releaseRegion(ins.Cond.TrueBody)
		f.releaseRegion(ins.Cond.FalseBody)
	case InstrLoop:
		f.releaseRegion(ins.Loop.CondBody)
		f.releaseRegion(ins.Loop.Body)
	}
	return true
}

// releaseRegion destroys a region's blocks (and those of nested constructs).
func (f *Func) releaseRegion(r Region) {
	for _, id := range r.Blocks {
		blk := f.Block(id)
		if blk == nil {
			continue
		}
		for _, ins := range blk.Instrs {
			switch ins.Kind {
			case InstrCond:
				f.releaseRegion(ins.Cond.TrueBody)
				f.releaseRegion(ins.Cond.FalseBody)
			case InstrLoop:
				f.releaseRegion(ins.Loop.CondBody)
				f.releaseRegion(ins.Loop.Body)
			}
		}
		f.Blocks[id] = nil
	}
}
