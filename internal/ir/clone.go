package ir

import "slices"

// CloneMap records old→new block and value correspondences built while
// duplicating a sub-program into the enclosing region. Lookups fall back to
// identity so values defined outside the cloned blocks resolve to
// themselves. Transient: one construct's lowering, then discarded.
type CloneMap struct {
	blocks map[BlockID]BlockID
	values map[ValueID]ValueID
}

func NewCloneMap() *CloneMap {
	return &CloneMap{
		blocks: make(map[BlockID]BlockID),
		values: make(map[ValueID]ValueID),
	}
}

// Block resolves a block through the mapping (identity when unmapped).
func (m *CloneMap) Block(id BlockID) BlockID {
	if nb, ok := m.blocks[id]; ok {
		return nb
	}
	return id
}

// Value resolves a value through the mapping (identity when unmapped).
func (m *CloneMap) Value(id ValueID) ValueID {
	if nv, ok := m.values[id]; ok {
		return nv
	}
	return id
}

func (m *CloneMap) mapValues(ids []ValueID) []ValueID {
	if ids == nil {
		return nil
	}
	out := make([]ValueID, len(ids))
	for i, id := range ids {
		out[i] = m.Value(id)
	}
	return out
}

// CloneRegionInto clones src's blocks into dst immediately before the block
// `before`, sharing m across calls so cross-references between separately
// cloned sub-programs resolve consistently.
func (f *Func) CloneRegionInto(src Region, dst *Region, before BlockID, m *CloneMap) {
	ids := f.cloneRegionBlocks(src, m)
	at := dst.IndexOf(before)
	if at < 0 {
		at = len(dst.Blocks)
	}
	dst.Blocks = slices.Insert(dst.Blocks, at, ids...)
}

// cloneRegionBlocks deep-clones the region's blocks and returns the new IDs
// in region order. Two passes: allocate blocks and their parameters first so
// forward branch targets resolve, then fill bodies.
func (f *Func) cloneRegionBlocks(src Region, m *CloneMap) []BlockID {
	ids := make([]BlockID, len(src.Blocks))
	for i, old := range src.Blocks {
		nb := f.NewBlock()
		ids[i] = nb
		m.blocks[old] = nb
		oldBlk := f.Block(old)
		newBlk := f.Block(nb)
		for _, p := range oldBlk.Params {
			pv := f.Value(p)
			np := f.NewValue(pv.Type, pv.Name)
			m.values[p] = np
			newBlk.Params = append(newBlk.Params, np)
		}
	}
	for i, old := range src.Blocks {
		oldBlk := f.Block(old)
		newBlk := f.Block(ids[i])
		for _, ins := range oldBlk.Instrs {
			newBlk.Instrs = append(newBlk.Instrs, f.cloneInstr(ins, m))
		}
		newBlk.Term = f.cloneTerm(oldBlk.Term, m)
	}
	return ids
}

func (f *Func) cloneInstr(ins *Instr, m *CloneMap) *Instr {
	out := *ins
	if ins.Result.IsValid() {
		rv := f.Value(ins.Result)
		out.Result = f.NewValue(rv.Type, rv.Name)
		m.values[ins.Result] = out.Result
	}
	switch ins.Kind {
	case InstrConst:
	case InstrBin:
		out.Bin.LHS = m.Value(ins.Bin.LHS)
		out.Bin.RHS = m.Value(ins.Bin.RHS)
	case InstrExtract:
		out.Extract.Src = m.Value(ins.Extract.Src)
	case InstrCond:
		out.Cond.Pred = m.Value(ins.Cond.Pred)
		if ins.Cond.TrueArg.IsValid() {
			out.Cond.TrueArg = m.Value(ins.Cond.TrueArg)
		}
		if ins.Cond.FalseArg.IsValid() {
			out.Cond.FalseArg = m.Value(ins.Cond.FalseArg)
		}
		out.Cond.TrueBody = Region{Blocks: f.cloneRegionBlocks(ins.Cond.TrueBody, m)}
		out.Cond.FalseBody = Region{Blocks: f.cloneRegionBlocks(ins.Cond.FalseBody, m)}
	case InstrLoop:
		out.Loop.Init = m.Value(ins.Loop.Init)
		out.Loop.CondBody = Region{Blocks: f.cloneRegionBlocks(ins.Loop.CondBody, m)}
		out.Loop.Body = Region{Blocks: f.cloneRegionBlocks(ins.Loop.Body, m)}
	}
	return &out
}

func (f *Func) cloneTerm(t Terminator, m *CloneMap) Terminator {
	switch t.Kind {
	case TermYield:
		t.Yield.Values = m.mapValues(t.Yield.Values)
	case TermBr:
		t.Br.Target = m.Block(t.Br.Target)
		t.Br.Args = m.mapValues(t.Br.Args)
	case TermCondBr:
		t.CondBr.Cond = m.Value(t.CondBr.Cond)
		t.CondBr.True = m.Block(t.CondBr.True)
		t.CondBr.TrueArgs = m.mapValues(t.CondBr.TrueArgs)
		t.CondBr.False = m.Block(t.CondBr.False)
		t.CondBr.FalseArgs = m.mapValues(t.CondBr.FalseArgs)
	case TermReturn:
		t.Return.Values = m.mapValues(t.Return.Values)
	}
	return t
}
