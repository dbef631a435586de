package ir

import (
	"errors"
	"fmt"

	"strata/internal/types"
)

// Validate checks module structural invariants.
// Returns an error joining every violation found.
func Validate(m *Module, typesIn *types.Interner) error {
	if m == nil {
		return nil
	}
	var errs []error
	for _, f := range m.Funcs {
		if f == nil {
			continue
		}
		if err := ValidateFunc(f, typesIn); err != nil {
			errs = append(errs, fmt.Errorf("function %s: %w", f.Name, err))
		}
	}
	return errors.Join(errs...)
}

// ValidateFunc checks one function's structural invariants: every block
// terminated, branch targets inside the same region, branch arguments
// matching target parameters, conditions boolean, yields confined to
// construct sub-programs, values in range.
func ValidateFunc(f *Func, typesIn *types.Interner) error {
	v := &validator{f: f, types: typesIn}
	v.region(f.Body, false)
	return errors.Join(v.errs...)
}

type validator struct {
	f     *Func
	types *types.Interner
	errs  []error
}

func (v *validator) errorf(format string, args ...any) {
	v.errs = append(v.errs, fmt.Errorf(format, args...))
}

func (v *validator) region(r Region, insideConstruct bool) {
	for _, id := range r.Blocks {
		blk := v.f.Block(id)
		if blk == nil {
			v.errorf("bb%d: destroyed block still listed in a region", id)
			continue
		}
		for _, p := range blk.Params {
			v.value(id, p)
		}
		for _, ins := range blk.Instrs {
			v.instr(id, ins)
		}
		v.term(id, blk.Term, r, insideConstruct)
	}
}

func (v *validator) instr(b BlockID, ins *Instr) {
	switch ins.Kind {
	case InstrConst:
	case InstrBin:
		v.value(b, ins.Bin.LHS)
		v.value(b, ins.Bin.RHS)
	case InstrExtract:
		v.value(b, ins.Extract.Src)
		if v.types != nil && !v.types.IsScalarPred(v.f.ValueType(ins.Extract.Src)) {
			v.errorf("bb%d: extract source is not a single-element boolean", b)
		}
	case InstrCond:
		v.value(b, ins.Cond.Pred)
		if v.types != nil && !v.types.IsScalarPred(v.f.ValueType(ins.Cond.Pred)) {
			v.errorf("bb%d: cond predicate is not a single-element boolean", b)
		}
		v.region(ins.Cond.TrueBody, true)
		v.region(ins.Cond.FalseBody, true)
	case InstrLoop:
		v.value(b, ins.Loop.Init)
		v.region(ins.Loop.CondBody, true)
		v.region(ins.Loop.Body, true)
	}
	if ins.Result.IsValid() && v.f.Value(ins.Result) == nil {
		v.errorf("bb%d: result value %d out of range", b, ins.Result)
	}
}

func (v *validator) term(b BlockID, t Terminator, r Region, insideConstruct bool) {
	switch t.Kind {
	case TermNone:
		v.errorf("bb%d: unterminated block", b)
	case TermYield:
		if !insideConstruct {
			v.errorf("bb%d: yield outside a construct sub-program", b)
		}
		for _, val := range t.Yield.Values {
			v.value(b, val)
		}
	case TermBr:
		v.edge(b, r, t.Br.Target, t.Br.Args)
	case TermCondBr:
		v.value(b, t.CondBr.Cond)
		if v.types != nil && !v.types.IsBool(v.f.ValueType(t.CondBr.Cond)) {
			v.errorf("bb%d: cond_br condition is not bool", b)
		}
		v.edge(b, r, t.CondBr.True, t.CondBr.TrueArgs)
		v.edge(b, r, t.CondBr.False, t.CondBr.FalseArgs)
	case TermReturn:
		if insideConstruct {
			v.errorf("bb%d: return inside a construct sub-program", b)
		}
		for _, val := range t.Return.Values {
			v.value(b, val)
		}
	}
}

// edge checks one branch edge: target in the same region, live, argument
// list matching the target's parameters.
func (v *validator) edge(b BlockID, r Region, target BlockID, args []ValueID) {
	if r.IndexOf(target) < 0 {
		v.errorf("bb%d: branch target bb%d is not in the same region", b, target)
		return
	}
	tb := v.f.Block(target)
	if tb == nil {
		v.errorf("bb%d: branch target bb%d is destroyed", b, target)
		return
	}
	if len(args) != len(tb.Params) {
		v.errorf("bb%d: branch to bb%d passes %d arguments, target has %d parameters",
			b, target, len(args), len(tb.Params))
		return
	}
	for i, a := range args {
		v.value(b, a)
		if v.types == nil {
			continue
		}
		if got, want := v.f.ValueType(a), v.f.ValueType(tb.Params[i]); got != want {
			v.errorf("bb%d: branch argument %d to bb%d has type %s, parameter expects %s",
				b, i, target, v.types.String(got), v.types.String(want))
		}
	}
}

func (v *validator) value(b BlockID, id ValueID) {
	if !id.IsValid() {
		return
	}
	if v.f.Value(id) == nil {
		v.errorf("bb%d: value %d out of range", b, id)
	}
}

// HasStructuredOps reports whether any Conditional or Loop construct
// remains in the function.
func HasStructuredOps(f *Func) bool {
	found := false
	f.WalkInstrs(func(ins *Instr) {
		if ins.HasRegions() {
			found = true
		}
	})
	return found
}
