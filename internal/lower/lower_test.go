package lower_test

import (
	"errors"
	"strings"
	"testing"

	"strata/internal/diag"
	"strata/internal/ir"
	"strata/internal/lower"
	"strata/internal/parser"
	"strata/internal/source"
	"strata/internal/types"
)

func mustParse(t *testing.T, src string) (*ir.Module, *types.Interner) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.sir", []byte(src))
	typesIn := types.NewInterner()
	bag := diag.NewBag(20)
	m, err := parser.Parse(fs, id, typesIn, diag.BagReporter{Bag: bag})
	if err != nil {
		for _, d := range bag.Items() {
			t.Logf("diag: %s %s %s", d.Severity, d.Code, d.Message)
		}
		t.Fatalf("parse failed: %v", err)
	}
	return m, typesIn
}

func dumpFunc(t *testing.T, f *ir.Func, typesIn *types.Interner) string {
	t.Helper()
	var sb strings.Builder
	if err := ir.DumpFunc(&sb, f, typesIn); err != nil {
		t.Fatalf("dump failed: %v", err)
	}
	return sb.String()
}

// reachable returns the set of blocks reachable from the entry along branch
// terminators.
func reachable(f *ir.Func) map[ir.BlockID]bool {
	seen := make(map[ir.BlockID]bool)
	var visit func(ir.BlockID)
	visit = func(b ir.BlockID) {
		if seen[b] {
			return
		}
		seen[b] = true
		blk := f.Block(b)
		switch blk.Term.Kind {
		case ir.TermBr:
			visit(blk.Term.Br.Target)
		case ir.TermCondBr:
			visit(blk.Term.CondBr.True)
			visit(blk.Term.CondBr.False)
		}
	}
	visit(f.Entry())
	return seen
}

func TestLowerConditional_ConstBranches(t *testing.T) {
	m, typesIn := mustParse(t, `
func @main(%p: tensor<bool>) -> i64 {
bb0:
  %r = cond %p true {
  t0:
    %a = const 1 : i64
    yield %a
  } false {
  f0:
    %b = const 0 : i64
    yield %b
  } : i64
  return %r
}`)
	f := m.Funcs[0]
	if err := lower.Func(f, typesIn); err != nil {
		t.Fatalf("lowering failed: %v", err)
	}

	want := `func @main(%v0: tensor<bool>) -> i64 {
bb0:
  %v6 = extract %v0 : bool
  cond_br %v6, bb4, bb5
bb4:
  %v4 = const 1 : i64
  br bb3(%v4)
bb5:
  %v5 = const 0 : i64
  br bb3(%v5)
bb3(%v7: i64):
  return %v7
}
`
	if got := dumpFunc(t, f, typesIn); got != want {
		t.Errorf("lowered dump mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
	if err := ir.ValidateFunc(f, typesIn); err != nil {
		t.Errorf("lowered function is invalid: %v", err)
	}
}

func TestLowerConditional_MergeShape(t *testing.T) {
	m, typesIn := mustParse(t, `
func @main(%p: bool, %x: i64) -> i64 {
bb0:
  %r = cond %p true(%x) {
  t0(%a: i64):
    %a2 = add %a, %a : i64
    yield %a2
  } false(%x) {
  f0(%b: i64):
    yield %b
  } : i64
  %s = add %r, %r : i64
  return %s
}`)
	f := m.Funcs[0]
	if err := lower.Func(f, typesIn); err != nil {
		t.Fatalf("lowering failed: %v", err)
	}
	if ir.HasStructuredOps(f) {
		t.Fatal("structured construct survived lowering")
	}

	// Body order is origin, true clone, false clone, tail.
	origin := f.Body.Blocks[0]
	trueEntry := f.Body.Blocks[1]
	falseEntry := f.Body.Blocks[2]
	tail := f.Body.Blocks[len(f.Body.Blocks)-1]

	ob := f.Block(origin)
	if ob.Term.Kind != ir.TermCondBr {
		t.Fatalf("origin terminator = %s, want cond_br", ob.Term.Kind)
	}
	if ob.Term.CondBr.True != trueEntry || ob.Term.CondBr.False != falseEntry {
		t.Errorf("cond_br targets = bb%d/bb%d, want bb%d/bb%d",
			ob.Term.CondBr.True, ob.Term.CondBr.False, trueEntry, falseEntry)
	}
	// The predicate is already scalar: no extract is inserted.
	if len(ob.Instrs) != 0 {
		t.Errorf("origin has %d instructions, want 0", len(ob.Instrs))
	}

	tb := f.Block(tail)
	if len(tb.Params) != 1 {
		t.Fatalf("tail has %d parameters, want 1", len(tb.Params))
	}
	// Both branch clones merge into the tail, binding its parameter.
	for _, b := range []ir.BlockID{trueEntry, falseEntry} {
		blk := f.Block(b)
		if blk.Term.Kind != ir.TermBr || blk.Term.Br.Target != tail {
			t.Errorf("bb%d does not branch to the merge block", b)
		}
		if len(blk.Term.Br.Args) != 1 {
			t.Errorf("bb%d passes %d merge arguments, want 1", b, len(blk.Term.Br.Args))
		}
	}
	// Every former use of the construct result now references the tail
	// parameter.
	if n := f.CountUses(tb.Params[0]); n != 2 {
		t.Errorf("tail parameter has %d uses, want 2", n)
	}
	if err := ir.ValidateFunc(f, typesIn); err != nil {
		t.Errorf("lowered function is invalid: %v", err)
	}
}

func TestLowerLoop_FalseConditionSkipsBody(t *testing.T) {
	m, typesIn := mustParse(t, `
func @spin(%n: i64) -> i64 {
bb0:
  %r = loop init(%n) cond {
  c0(%i: i64):
    %f = const false : bool
    yield %f
  } body {
  b0(%j: i64):
    yield %j
  } : i64
  return %r
}`)
	f := m.Funcs[0]
	if err := lower.Func(f, typesIn); err != nil {
		t.Fatalf("lowering failed: %v", err)
	}

	want := `func @spin(%v0: i64) -> i64 {
bb0:
  br bb4(%v0)
bb4(%v5: i64):
  %v6 = const false : bool
  cond_br %v6, bb5(%v5), bb3(%v5)
bb5(%v7: i64):
  br bb4(%v7)
bb3(%v8: i64):
  return %v8
}
`
	if got := dumpFunc(t, f, typesIn); got != want {
		t.Errorf("lowered dump mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
	if err := ir.ValidateFunc(f, typesIn); err != nil {
		t.Errorf("lowered function is invalid: %v", err)
	}
}

func TestLowerLoop_Skeleton(t *testing.T) {
	m, typesIn := mustParse(t, `
func @count(%n: i64) -> i64 {
bb0:
  %zero = const 0 : i64
  %r = loop init(%zero) cond {
  c0(%i: i64):
    %t = lt %i, %n : bool
    yield %t
  } body {
  b0(%j: i64):
    %one = const 1 : i64
    %next = add %j, %one : i64
    yield %next
  } : i64
  return %r
}`)
	f := m.Funcs[0]
	if err := lower.Func(f, typesIn); err != nil {
		t.Fatalf("lowering failed: %v", err)
	}

	origin := f.Body.Blocks[0]
	condEntry := f.Body.Blocks[1]
	bodyEntry := f.Body.Blocks[2]
	tail := f.Body.Blocks[len(f.Body.Blocks)-1]

	// Origin jumps straight into the condition check with the initial carry.
	ob := f.Block(origin)
	if ob.Term.Kind != ir.TermBr || ob.Term.Br.Target != condEntry {
		t.Fatalf("origin does not branch to the condition block")
	}
	if len(ob.Term.Br.Args) != 1 {
		t.Fatalf("origin passes %d carry values, want 1", len(ob.Term.Br.Args))
	}

	// Condition branches into the body or out to the tail, forwarding its
	// own parameters on both edges.
	cb := f.Block(condEntry)
	if cb.Term.Kind != ir.TermCondBr {
		t.Fatalf("condition terminator = %s, want cond_br", cb.Term.Kind)
	}
	if cb.Term.CondBr.True != bodyEntry || cb.Term.CondBr.False != tail {
		t.Errorf("cond_br targets = bb%d/bb%d, want body bb%d and tail bb%d",
			cb.Term.CondBr.True, cb.Term.CondBr.False, bodyEntry, tail)
	}
	for _, args := range [][]ir.ValueID{cb.Term.CondBr.TrueArgs, cb.Term.CondBr.FalseArgs} {
		if len(args) != 1 || args[0] != cb.Params[0] {
			t.Errorf("condition edge does not forward the carry parameter")
		}
	}

	// The body loops back to the condition, never to the tail.
	bb := f.Block(bodyEntry)
	if bb.Term.Kind != ir.TermBr || bb.Term.Br.Target != condEntry {
		t.Errorf("body does not branch back to the condition block")
	}

	if len(f.Block(tail).Params) != 1 {
		t.Errorf("tail has %d parameters, want 1", len(f.Block(tail).Params))
	}
	if err := ir.ValidateFunc(f, typesIn); err != nil {
		t.Errorf("lowered function is invalid: %v", err)
	}
}

func TestLowerNested_CondInsideLoop(t *testing.T) {
	m, typesIn := mustParse(t, `
func @steps(%n: i64) -> i64 {
bb0:
  %zero = const 0 : i64
  %r = loop init(%zero) cond {
  c0(%i: i64):
    %t = lt %i, %n : bool
    yield %t
  } body {
  b0(%j: i64):
    %two = const 2 : i64
    %odd = eq %j, %two : bool
    %step = cond %odd true {
    t0:
      %one = const 1 : i64
      yield %one
    } false {
    f0:
      %three = const 3 : i64
      yield %three
    } : i64
    %next = add %j, %step : i64
    yield %next
  } : i64
  return %r
}`)
	f := m.Funcs[0]
	if err := lower.Func(f, typesIn); err != nil {
		t.Fatalf("lowering failed: %v", err)
	}
	if ir.HasStructuredOps(f) {
		t.Fatal("structured construct survived lowering")
	}
	if err := ir.ValidateFunc(f, typesIn); err != nil {
		t.Fatalf("lowered function is invalid: %v", err)
	}

	// Every block ends in a plain branch or return.
	for _, b := range f.Body.Blocks {
		switch f.Block(b).Term.Kind {
		case ir.TermBr, ir.TermCondBr, ir.TermReturn:
		default:
			t.Errorf("bb%d ends in %s", b, f.Block(b).Term.Kind)
		}
	}

	// The loop tail is reachable, and only via the condition entry.
	seen := reachable(f)
	tail := f.Body.Blocks[len(f.Body.Blocks)-1]
	if !seen[tail] {
		t.Error("merge block is unreachable")
	}
	var preds []ir.BlockID
	for _, b := range f.Body.Blocks {
		blk := f.Block(b)
		switch blk.Term.Kind {
		case ir.TermBr:
			if blk.Term.Br.Target == tail {
				preds = append(preds, b)
			}
		case ir.TermCondBr:
			if blk.Term.CondBr.True == tail || blk.Term.CondBr.False == tail {
				preds = append(preds, b)
			}
		}
	}
	if len(preds) != 1 {
		t.Errorf("loop tail has %d predecessors, want only the condition block", len(preds))
	}
}

func TestLowerNested_CondInsideCond(t *testing.T) {
	m, typesIn := mustParse(t, `
func @pick(%p: bool, %q: bool) -> i64 {
bb0:
  %r = cond %p true {
  t0:
    %inner = cond %q true {
    tt0:
      %a = const 1 : i64
      yield %a
    } false {
    tf0:
      %b = const 2 : i64
      yield %b
    } : i64
    yield %inner
  } false {
  f0:
    %c = const 3 : i64
    yield %c
  } : i64
  return %r
}`)
	f := m.Funcs[0]
	if err := lower.Func(f, typesIn); err != nil {
		t.Fatalf("lowering failed: %v", err)
	}
	if ir.HasStructuredOps(f) {
		t.Fatal("structured construct survived lowering")
	}
	if err := ir.ValidateFunc(f, typesIn); err != nil {
		t.Errorf("lowered function is invalid: %v", err)
	}
}

func TestLowerLoop_InsideLoop(t *testing.T) {
	m, typesIn := mustParse(t, `
func @nest(%n: i64) -> i64 {
bb0:
  %zero = const 0 : i64
  %r = loop init(%zero) cond {
  c0(%i: i64):
    %t = lt %i, %n : bool
    yield %t
  } body {
  b0(%j: i64):
    %inner = loop init(%j) cond {
    ic0(%k: i64):
      %u = lt %k, %n : bool
      yield %u
    } body {
    ib0(%m: i64):
      %one = const 1 : i64
      %step = add %m, %one : i64
      yield %step
    } : i64
    yield %inner
  } : i64
  return %r
}`)
	f := m.Funcs[0]
	if err := lower.Func(f, typesIn); err != nil {
		t.Fatalf("lowering failed: %v", err)
	}
	if ir.HasStructuredOps(f) {
		t.Fatal("structured construct survived lowering")
	}
	if err := ir.ValidateFunc(f, typesIn); err != nil {
		t.Errorf("lowered function is invalid: %v", err)
	}
}

func TestLower_MalformedTerminator(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{
			name: "return_inside_conditional_branch",
			src: `
func @bad(%p: bool) -> i64 {
bb0:
  %r = cond %p true {
  t0:
    %a = const 1 : i64
    return %a
  } false {
  f0:
    %b = const 0 : i64
    yield %b
  } : i64
  return %r
}`,
		},
		{
			name: "return_inside_loop_body",
			src: `
func @bad(%n: i64) -> i64 {
bb0:
  %r = loop init(%n) cond {
  c0(%i: i64):
    %t = lt %i, %n : bool
    yield %t
  } body {
  b0(%j: i64):
    return %j
  } : i64
  return %r
}`,
		},
		{
			name: "return_inside_loop_condition",
			src: `
func @bad(%n: i64) -> i64 {
bb0:
  %r = loop init(%n) cond {
  c0(%i: i64):
    return %i
  } body {
  b0(%j: i64):
    yield %j
  } : i64
  return %r
}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, typesIn := mustParse(t, tt.src)
			f := m.Funcs[0]
			err := lower.Func(f, typesIn)
			if !errors.Is(err, lower.ErrMalformedTerminator) {
				t.Fatalf("err = %v, want ErrMalformedTerminator", err)
			}
			// The offending construct must survive the failed rewrite.
			if !ir.HasStructuredOps(f) {
				t.Error("construct was erased despite the failure")
			}
		})
	}
}

func TestLower_AsymmetricBranchBlockCounts(t *testing.T) {
	// The true branch is multi-block (its own flow already lowered by a
	// nested conditional); the false branch is a single block. Each side is
	// relinked independently.
	m, typesIn := mustParse(t, `
func @mix(%p: bool, %q: bool) -> i64 {
bb0:
  %r = cond %p true {
  t0:
    %x = cond %q true {
    a0:
      %a = const 1 : i64
      yield %a
    } false {
    b0:
      %b = const 2 : i64
      yield %b
    } : i64
    %y = add %x, %x : i64
    yield %y
  } false {
  f0:
    %c = const 9 : i64
    yield %c
  } : i64
  return %r
}`)
	f := m.Funcs[0]
	if err := lower.Func(f, typesIn); err != nil {
		t.Fatalf("lowering failed: %v", err)
	}
	if err := ir.ValidateFunc(f, typesIn); err != nil {
		t.Errorf("lowered function is invalid: %v", err)
	}
}
