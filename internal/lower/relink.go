// Package lower rewrites structured control flow (the conditional and loop
// constructs, each owning yield-terminated sub-programs) into plain basic
// blocks joined by branch terminators.
package lower

import (
	"errors"
	"fmt"

	"strata/internal/ir"
)

// ErrMalformedTerminator reports a sub-program block that does not end in
// the structured-return form the producing stage guarantees. It is the only
// failure kind; the whole function rewrite aborts on it.
var ErrMalformedTerminator = errors.New("malformed sub-program terminator")

// relinkYields rewrites the yield of every cloned block of src (resolved
// through m) into an unconditional branch to target, forwarding the yielded
// values as branch arguments. Blocks already terminated by a branch are the
// residue of a construct nested in this sub-program that was lowered earlier;
// they are left untouched, since their control flow stays inside the clone
// and reaches a yield block eventually.
func relinkYields(f *ir.Func, src ir.Region, target ir.BlockID, m *ir.CloneMap) error {
	for _, old := range src.Blocks {
		nb := m.Block(old)
		blk := f.Block(nb)
		switch blk.Term.Kind {
		case ir.TermYield:
			blk.Term = ir.Terminator{Kind: ir.TermBr, Br: ir.BrTerm{
				Target: target,
				Args:   blk.Term.Yield.Values,
			}}
		case ir.TermBr, ir.TermCondBr:
		default:
			return fmt.Errorf("bb%d ends in %s: %w", nb, blk.Term.Kind, ErrMalformedTerminator)
		}
	}
	return nil
}
