package ir

// WalkInstrs visits every instruction reachable from the function body,
// innermost sub-programs first (post-order). A construct is therefore
// visited only after every construct nested inside it.
func (f *Func) WalkInstrs(visit func(*Instr)) {
	f.walkRegion(f.Body, visit)
}

func (f *Func) walkRegion(r Region, visit func(*Instr)) {
	for _, id := range r.Blocks {
		blk := f.Block(id)
		if blk == nil {
			continue
		}
		for _, ins := range blk.Instrs {
			switch ins.Kind {
			case InstrCond:
				f.walkRegion(ins.Cond.TrueBody, visit)
				f.walkRegion(ins.Cond.FalseBody, visit)
			case InstrLoop:
				f.walkRegion(ins.Loop.CondBody, visit)
				f.walkRegion(ins.Loop.Body, visit)
			}
			visit(ins)
		}
	}
}

// RegionOf returns the region whose block list contains b: the function body
// or a construct sub-program. The returned pointer aliases the owning
// structure so callers can splice blocks in place.
func (f *Func) RegionOf(b BlockID) *Region {
	return f.findRegion(&f.Body, b)
}

func (f *Func) findRegion(r *Region, b BlockID) *Region {
	if r.IndexOf(b) >= 0 {
		return r
	}
	for _, id := range r.Blocks {
		blk := f.Block(id)
		if blk == nil {
			continue
		}
		for _, ins := range blk.Instrs {
			var found *Region
			switch ins.Kind {
			case InstrCond:
				if found = f.findRegion(&ins.Cond.TrueBody, b); found == nil {
					found = f.findRegion(&ins.Cond.FalseBody, b)
				}
			case InstrLoop:
				if found = f.findRegion(&ins.Loop.CondBody, b); found == nil {
					found = f.findRegion(&ins.Loop.Body, b)
				}
			}
			if found != nil {
				return found
			}
		}
	}
	return nil
}
