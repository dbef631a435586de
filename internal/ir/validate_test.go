package ir

import (
	"strings"
	"testing"

	"strata/internal/source"
	"strata/internal/types"
)

// buildBranchy builds a two-block function: entry cond_br's on its boolean
// parameter to a merge block carrying an integer.
func buildBranchy(tin *types.Interner) *Func {
	f := NewFunc(0, "t")
	b0 := f.NewBlock()
	b1 := f.NewBlock()
	f.Body.Blocks = append(f.Body.Blocks, b0, b1)
	p := f.AddBlockParam(b0, tin.Builtins().Bool, "p")
	q := f.AddBlockParam(b1, tin.Builtins().Int, "q")

	b := NewBuilder(f)
	b.StartBlock(b0)
	one := b.ConstInt(tin.Builtins().Int, 1, source.Span{})
	two := b.ConstInt(tin.Builtins().Int, 2, source.Span{})
	b.CondBr(p, b1, []ValueID{one}, b1, []ValueID{two})
	b.StartBlock(b1)
	b.Return(q)
	return f
}

func TestValidateFunc(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*types.Interner, *Func)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(*types.Interner, *Func) {},
		},
		{
			name: "unterminated_block",
			mutate: func(_ *types.Interner, f *Func) {
				f.Block(f.Body.Blocks[1]).Term = Terminator{Kind: TermNone}
			},
			wantErr: "unterminated",
		},
		{
			name: "yield_outside_construct",
			mutate: func(_ *types.Interner, f *Func) {
				blk := f.Block(f.Body.Blocks[1])
				blk.Term = Terminator{Kind: TermYield, Yield: YieldTerm{Values: blk.Params}}
			},
			wantErr: "yield outside",
		},
		{
			name: "branch_target_outside_region",
			mutate: func(_ *types.Interner, f *Func) {
				stray := f.NewBlock()
				f.Block(stray).Term = Terminator{Kind: TermReturn}
				f.Block(f.Body.Blocks[0]).Term.CondBr.True = stray
			},
			wantErr: "not in the same region",
		},
		{
			name: "branch_arg_count_mismatch",
			mutate: func(_ *types.Interner, f *Func) {
				f.Block(f.Body.Blocks[0]).Term.CondBr.TrueArgs = nil
			},
			wantErr: "parameters",
		},
		{
			name: "branch_arg_type_mismatch",
			mutate: func(tin *types.Interner, f *Func) {
				blk := f.Block(f.Body.Blocks[0])
				blk.Term.CondBr.TrueArgs[0] = blk.Params[0] // bool into an i64 slot
			},
			wantErr: "parameter expects",
		},
		{
			name: "condition_not_bool",
			mutate: func(_ *types.Interner, f *Func) {
				blk := f.Block(f.Body.Blocks[0])
				blk.Term.CondBr.Cond = blk.Instrs[0].Result
			},
			wantErr: "not bool",
		},
		{
			name: "destroyed_block_listed",
			mutate: func(_ *types.Interner, f *Func) {
				f.Blocks[f.Body.Blocks[1]] = nil
			},
			wantErr: "destroyed",
		},
		{
			name: "value_out_of_range",
			mutate: func(_ *types.Interner, f *Func) {
				f.Block(f.Body.Blocks[1]).Term.Return.Values[0] = ValueID(99)
			},
			wantErr: "out of range",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tin := types.NewInterner()
			f := buildBranchy(tin)
			tt.mutate(tin, f)
			err := ValidateFunc(f, tin)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateFunc_ReturnInsideConstruct(t *testing.T) {
	tin := types.NewInterner()
	f := NewFunc(0, "t")
	b0 := f.NewBlock()
	f.Body.Blocks = append(f.Body.Blocks, b0)
	p := f.AddBlockParam(b0, tin.Builtins().Bool, "p")

	sub := f.NewBlock()
	b := NewBuilder(f)
	b.StartBlock(sub)
	v := b.ConstInt(tin.Builtins().Int, 1, source.Span{})
	b.Return(v)

	res := f.NewValue(tin.Builtins().Int, "")
	b.StartBlock(b0)
	b.Emit(&Instr{
		Kind:   InstrCond,
		Result: res,
		Cond: CondInstr{
			Pred:      p,
			TrueArg:   NoValueID,
			FalseArg:  NoValueID,
			TrueBody:  Region{Blocks: []BlockID{sub}},
			FalseBody: Region{},
		},
	})
	b.Return(res)

	err := ValidateFunc(f, tin)
	if err == nil || !strings.Contains(err.Error(), "return inside") {
		t.Fatalf("err = %v, want a return-inside-sub-program violation", err)
	}
}

func TestHasStructuredOps(t *testing.T) {
	tin := types.NewInterner()
	f := buildBranchy(tin)
	if HasStructuredOps(f) {
		t.Error("branch-only function reported as structured")
	}

	sub := f.NewBlock()
	b := NewBuilder(f)
	b.StartBlock(sub)
	b.Yield(f.Block(f.Body.Blocks[1]).Params[0])
	res := f.NewValue(tin.Builtins().Int, "")
	f.Block(f.Body.Blocks[1]).Instrs = append(f.Block(f.Body.Blocks[1]).Instrs, &Instr{
		Kind:   InstrLoop,
		Result: res,
		Loop: LoopInstr{
			Init:     f.Block(f.Body.Blocks[1]).Params[0],
			CondBody: Region{Blocks: []BlockID{sub}},
			Body:     Region{},
		},
	})
	if !HasStructuredOps(f) {
		t.Error("loop construct not detected")
	}
}
