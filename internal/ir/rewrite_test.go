package ir

import (
	"testing"

	"strata/internal/source"
	"strata/internal/types"
)

// buildReturnThrough builds a single-block function that feeds its parameter
// through an add and returns the sum.
func buildReturnThrough(tin *types.Interner) (*Func, ValueID, ValueID) {
	f := NewFunc(0, "t")
	b0 := f.NewBlock()
	f.Body.Blocks = append(f.Body.Blocks, b0)
	p := f.AddBlockParam(b0, tin.Builtins().Int, "p")

	b := NewBuilder(f)
	b.StartBlock(b0)
	sum := b.Bin(BinAdd, tin.Builtins().Int, p, p, source.Span{})
	b.Return(sum)
	return f, p, sum
}

func TestSplitBlock(t *testing.T) {
	tin := types.NewInterner()
	f := NewFunc(0, "t")
	b0 := f.NewBlock()
	f.Body.Blocks = append(f.Body.Blocks, b0)

	b := NewBuilder(f)
	b.StartBlock(b0)
	c1 := b.ConstInt(tin.Builtins().Int, 1, source.Span{})
	c2 := b.ConstInt(tin.Builtins().Int, 2, source.Span{})
	sum := b.Bin(BinAdd, tin.Builtins().Int, c1, c2, source.Span{})
	b.Return(sum)

	tail := f.SplitBlock(&f.Body, b0, 1)

	origin := f.Block(b0)
	if len(origin.Instrs) != 1 || origin.Instrs[0].Result != c1 {
		t.Errorf("origin keeps %d instructions, want just the first", len(origin.Instrs))
	}
	if origin.Term.Kind != TermNone {
		t.Errorf("origin terminator = %s, want none", origin.Term.Kind)
	}

	tb := f.Block(tail)
	if len(tb.Instrs) != 2 {
		t.Fatalf("tail holds %d instructions, want 2", len(tb.Instrs))
	}
	if tb.Term.Kind != TermReturn {
		t.Errorf("tail terminator = %s, want return", tb.Term.Kind)
	}
	if got := f.Body.Blocks; len(got) != 2 || got[0] != b0 || got[1] != tail {
		t.Errorf("region order = %v, want [%d %d]", got, b0, tail)
	}

	// Appending to the origin must not clobber the tail's instructions.
	b.StartBlock(b0)
	b.ConstInt(tin.Builtins().Int, 9, source.Span{})
	if tb.Instrs[0].Result != c2 {
		t.Error("tail instructions were overwritten by an append to the origin")
	}
}

func TestReplaceAllUses(t *testing.T) {
	tin := types.NewInterner()
	f, p, sum := buildReturnThrough(tin)

	np := f.NewValue(tin.Builtins().Int, "np")
	if got := f.CountUses(p); got != 2 {
		t.Fatalf("parameter has %d uses before replacement, want 2", got)
	}
	f.ReplaceAllUses(p, np)
	if got := f.CountUses(p); got != 0 {
		t.Errorf("old value still has %d uses", got)
	}
	if got := f.CountUses(np); got != 2 {
		t.Errorf("new value has %d uses, want 2", got)
	}
	if got := f.CountUses(sum); got != 1 {
		t.Errorf("unrelated value use count changed to %d", got)
	}
}

func TestReplaceAllUses_TerminatorOperands(t *testing.T) {
	tin := types.NewInterner()
	f := NewFunc(0, "t")
	b0 := f.NewBlock()
	b1 := f.NewBlock()
	f.Body.Blocks = append(f.Body.Blocks, b0, b1)
	p := f.AddBlockParam(b0, tin.Builtins().Bool, "p")
	q := f.AddBlockParam(b1, tin.Builtins().Bool, "q")

	b := NewBuilder(f)
	b.StartBlock(b0)
	b.CondBr(p, b1, []ValueID{p}, b1, []ValueID{p})
	b.StartBlock(b1)
	b.Return(q)

	np := f.NewValue(tin.Builtins().Bool, "np")
	f.ReplaceAllUses(p, np)

	term := f.Block(b0).Term
	if term.CondBr.Cond != np || term.CondBr.TrueArgs[0] != np || term.CondBr.FalseArgs[0] != np {
		t.Error("cond_br operands were not redirected")
	}
}

func TestEraseInstr_ReleasesSubPrograms(t *testing.T) {
	tin := types.NewInterner()
	f := NewFunc(0, "t")
	b0 := f.NewBlock()
	f.Body.Blocks = append(f.Body.Blocks, b0)
	p := f.AddBlockParam(b0, tin.Builtins().Bool, "p")

	tBlk := f.NewBlock()
	fBlk := f.NewBlock()
	b := NewBuilder(f)
	b.StartBlock(tBlk)
	tv := b.ConstInt(tin.Builtins().Int, 1, source.Span{})
	b.Yield(tv)
	b.StartBlock(fBlk)
	fv := b.ConstInt(tin.Builtins().Int, 0, source.Span{})
	b.Yield(fv)

	res := f.NewValue(tin.Builtins().Int, "")
	ins := &Instr{
		Kind:   InstrCond,
		Result: res,
		Cond: CondInstr{
			Pred:      p,
			TrueArg:   NoValueID,
			FalseArg:  NoValueID,
			TrueBody:  Region{Blocks: []BlockID{tBlk}},
			FalseBody: Region{Blocks: []BlockID{fBlk}},
		},
	}
	b.StartBlock(b0)
	b.Emit(ins)
	b.Return(res)

	if !f.EraseInstr(ins) {
		t.Fatal("erase reported the instruction as missing")
	}
	if len(f.Block(b0).Instrs) != 0 {
		t.Error("instruction still listed in its block")
	}
	if f.Block(tBlk) != nil || f.Block(fBlk) != nil {
		t.Error("sub-program blocks were not destroyed")
	}
	if f.EraseInstr(ins) {
		t.Error("second erase found the instruction again")
	}
}

func TestFindInstr(t *testing.T) {
	tin := types.NewInterner()
	f, _, sum := buildReturnThrough(tin)

	ins := f.Block(f.Entry()).Instrs[0]
	if ins.Result != sum {
		t.Fatal("unexpected test setup")
	}
	blk, idx, ok := f.FindInstr(ins)
	if !ok || blk != f.Entry() || idx != 0 {
		t.Errorf("FindInstr = (%d, %d, %v), want (%d, 0, true)", blk, idx, ok, f.Entry())
	}
	if _, _, ok := f.FindInstr(&Instr{}); ok {
		t.Error("found an instruction that is not in the arena")
	}
}
