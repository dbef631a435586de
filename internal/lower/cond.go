package lower

import (
	"strata/internal/ir"
	"strata/internal/types"
)

// lowerCond converts one conditional construct into a three-way block
// split: origin branches on the extracted predicate into clones of the
// true/false sub-programs, both of which merge into the tail block. The
// construct's result is replaced by a new tail parameter of the same type.
func lowerCond(f *ir.Func, ins *ir.Instr, typesIn *types.Interner) error {
	origin, idx, ok := f.FindInstr(ins)
	if !ok {
		panic("lower: conditional construct not in function")
	}
	region := f.RegionOf(origin)
	tail := f.SplitBlock(region, origin, idx)

	// Duplicate both sub-programs between origin and tail. One shared
	// mapping keeps cross-references consistent.
	m := ir.NewCloneMap()
	f.CloneRegionInto(ins.Cond.TrueBody, region, tail, m)
	f.CloneRegionInto(ins.Cond.FalseBody, region, tail, m)
	trueEntry := m.Block(ins.Cond.TrueBody.Entry())
	falseEntry := m.Block(ins.Cond.FalseBody.Entry())

	b := ir.NewBuilder(f)
	b.StartBlock(origin)
	cond := ins.Cond.Pred
	if typesIn.IsTensor(f.ValueType(cond)) {
		cond = b.Extract(typesIn.Builtins().Bool, cond, ins.Span)
	}
	b.CondBr(cond, trueEntry, optArg(ins.Cond.TrueArg), falseEntry, optArg(ins.Cond.FalseArg))

	if err := relinkYields(f, ins.Cond.TrueBody, tail, m); err != nil {
		return err
	}
	if err := relinkYields(f, ins.Cond.FalseBody, tail, m); err != nil {
		return err
	}

	res := f.AddBlockParam(tail, f.ValueType(ins.Result), "")
	f.ReplaceAllUses(ins.Result, res)
	f.EraseInstr(ins)
	return nil
}

func optArg(v ir.ValueID) []ir.ValueID {
	if !v.IsValid() {
		return nil
	}
	return []ir.ValueID{v}
}
