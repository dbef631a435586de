package lower

import (
	"fmt"
	"slices"

	"strata/internal/ir"
	"strata/internal/types"
)

// lowerLoop converts one loop construct into a four-block skeleton:
//
//	origin:  br cond_entry(init)
//	cond_*:  … ; cond_br %c, body_entry(carry), tail(carry)
//	body_*:  … ; br cond_entry(next)
//	tail:    resumes with one parameter standing in for the loop's result
//
// The condition clone forwards its entry block's own parameters on both
// edges: those parameters are exactly the loop-carried value, which the
// condition only tests.
func lowerLoop(f *ir.Func, ins *ir.Instr, typesIn *types.Interner) error {
	origin, idx, ok := f.FindInstr(ins)
	if !ok {
		panic("lower: loop construct not in function")
	}
	region := f.RegionOf(origin)
	tail := f.SplitBlock(region, origin, idx)

	m := ir.NewCloneMap()
	f.CloneRegionInto(ins.Loop.CondBody, region, tail, m)
	f.CloneRegionInto(ins.Loop.Body, region, tail, m)
	condEntry := m.Block(ins.Loop.CondBody.Entry())
	bodyEntry := m.Block(ins.Loop.Body.Entry())

	b := ir.NewBuilder(f)
	b.StartBlock(origin)
	b.Br(condEntry, []ir.ValueID{ins.Loop.Init})

	// The carried value across iterations, as seen by the condition check.
	carry := slices.Clone(f.Block(condEntry).Params)

	// Condition blocks: the single yielded boolean becomes an extract plus
	// a conditional branch into the body or out to the tail. This is not
	// the plain relink shape: both edges forward the carry unchanged.
	for _, old := range ins.Loop.CondBody.Blocks {
		nb := m.Block(old)
		blk := f.Block(nb)
		switch blk.Term.Kind {
		case ir.TermYield:
			vals := blk.Term.Yield.Values
			if len(vals) != 1 {
				return fmt.Errorf("bb%d: condition yields %d values, want 1: %w",
					nb, len(vals), ErrMalformedTerminator)
			}
			cond := vals[0]
			blk.Term = ir.Terminator{Kind: ir.TermNone}
			b.StartBlock(nb)
			if typesIn.IsTensor(f.ValueType(cond)) {
				cond = b.Extract(typesIn.Builtins().Bool, cond, ins.Span)
			}
			b.CondBr(cond, bodyEntry, slices.Clone(carry), tail, slices.Clone(carry))
		case ir.TermBr, ir.TermCondBr:
		default:
			return fmt.Errorf("bb%d ends in %s: %w", nb, blk.Term.Kind, ErrMalformedTerminator)
		}
	}

	// Body blocks: the yielded next carry branches back into the condition
	// check, which is exactly the relink shape.
	if err := relinkYields(f, ins.Loop.Body, condEntry, m); err != nil {
		return err
	}

	res := f.AddBlockParam(tail, f.ValueType(ins.Result), "")
	f.ReplaceAllUses(ins.Result, res)
	f.EraseInstr(ins)
	return nil
}
