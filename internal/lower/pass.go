package lower

import (
	"fmt"

	"strata/internal/ir"
	"strata/internal/types"
)

// Func lowers every structured construct in f. All conditionals present are
// collected into a stable snapshot and lowered first; loops are then
// re-collected fresh, so loops exposed by conditional cloning are caught.
// Snapshots are in post-order: a construct is lowered before any construct
// enclosing it. The first structural failure aborts the whole rewrite; the
// function is left partially rewritten.
func Func(f *ir.Func, typesIn *types.Interner) error {
	var conds []*ir.Instr
	f.WalkInstrs(func(ins *ir.Instr) {
		if ins.Kind == ir.InstrCond {
			conds = append(conds, ins)
		}
	})
	for _, ins := range conds {
		if err := lowerCond(f, ins, typesIn); err != nil {
			return fmt.Errorf("conditional: %w", err)
		}
	}

	var loops []*ir.Instr
	f.WalkInstrs(func(ins *ir.Instr) {
		if ins.Kind == ir.InstrLoop {
			loops = append(loops, ins)
		}
	})
	for _, ins := range loops {
		if err := lowerLoop(f, ins, typesIn); err != nil {
			return fmt.Errorf("loop: %w", err)
		}
	}
	return nil
}
