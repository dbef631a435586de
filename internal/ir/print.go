package ir

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"strata/internal/types"
)

// DumpModule writes the textual form of a module. The output parses back
// with internal/parser.
func DumpModule(w io.Writer, m *Module, typesIn *types.Interner) error {
	if w == nil || m == nil {
		return nil
	}
	for i, f := range m.Funcs {
		if f == nil {
			continue
		}
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if err := DumpFunc(w, f, typesIn); err != nil {
			return err
		}
	}
	return nil
}

// DumpFunc writes one function.
func DumpFunc(w io.Writer, f *Func, typesIn *types.Interner) error {
	p := &printer{w: w, f: f, types: typesIn}
	p.funcHeader()
	p.region(f.Body, 0, false)
	p.line(0, "}")
	return p.err
}

type printer struct {
	w     io.Writer
	f     *Func
	types *types.Interner
	err   error
}

func (p *printer) line(indent int, format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, "%s%s\n", strings.Repeat("  ", indent), fmt.Sprintf(format, args...))
}

func (p *printer) funcHeader() {
	var sb strings.Builder
	sb.WriteString("func @")
	sb.WriteString(p.f.Name)
	sb.WriteByte('(')
	for i, v := range p.f.Params() {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.val(v))
		sb.WriteString(": ")
		sb.WriteString(p.typ(p.f.ValueType(v)))
	}
	sb.WriteByte(')')
	if len(p.f.Results) > 0 {
		sb.WriteString(" -> ")
		for i, t := range p.f.Results {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(p.typ(t))
		}
	}
	sb.WriteString(" {")
	p.line(0, "%s", sb.String())
}

// region prints the blocks of r. withEntryParams controls whether the entry
// block's parameter list is printed; the function body's entry params are
// already in the header.
func (p *printer) region(r Region, indent int, withEntryParams bool) {
	for i, id := range r.Blocks {
		blk := p.f.Block(id)
		if blk == nil {
			continue
		}
		label := p.blockLabel(id)
		if len(blk.Params) > 0 && (withEntryParams || i > 0) {
			var sb strings.Builder
			for j, v := range blk.Params {
				if j > 0 {
					sb.WriteString(", ")
				}
				sb.WriteString(p.val(v))
				sb.WriteString(": ")
				sb.WriteString(p.typ(p.f.ValueType(v)))
			}
			p.line(indent, "%s(%s):", label, sb.String())
		} else {
			p.line(indent, "%s:", label)
		}
		for _, ins := range blk.Instrs {
			p.instr(ins, indent+1)
		}
		p.term(blk.Term, indent+1)
	}
}

func (p *printer) instr(ins *Instr, indent int) {
	resType := p.typ(p.f.ValueType(ins.Result))
	switch ins.Kind {
	case InstrConst:
		p.line(indent, "%s = const %s : %s", p.val(ins.Result), p.constLit(ins), resType)
	case InstrBin:
		p.line(indent, "%s = %s %s, %s : %s",
			p.val(ins.Result), ins.Bin.Op, p.val(ins.Bin.LHS), p.val(ins.Bin.RHS), resType)
	case InstrExtract:
		p.line(indent, "%s = extract %s : %s", p.val(ins.Result), p.val(ins.Extract.Src), resType)
	case InstrCond:
		p.line(indent, "%s = cond %s true%s {", p.val(ins.Result), p.val(ins.Cond.Pred), p.optArg(ins.Cond.TrueArg))
		p.region(ins.Cond.TrueBody, indent+1, true)
		p.line(indent, "} false%s {", p.optArg(ins.Cond.FalseArg))
		p.region(ins.Cond.FalseBody, indent+1, true)
		p.line(indent, "} : %s", resType)
	case InstrLoop:
		p.line(indent, "%s = loop init(%s) cond {", p.val(ins.Result), p.val(ins.Loop.Init))
		p.region(ins.Loop.CondBody, indent+1, true)
		p.line(indent, "} body {")
		p.region(ins.Loop.Body, indent+1, true)
		p.line(indent, "} : %s", resType)
	}
}

func (p *printer) term(t Terminator, indent int) {
	switch t.Kind {
	case TermNone:
		p.line(indent, "<unterminated>")
	case TermYield:
		p.line(indent, "yield%s", p.valList(t.Yield.Values))
	case TermBr:
		p.line(indent, "br %s", p.target(t.Br.Target, t.Br.Args))
	case TermCondBr:
		p.line(indent, "cond_br %s, %s, %s",
			p.val(t.CondBr.Cond),
			p.target(t.CondBr.True, t.CondBr.TrueArgs),
			p.target(t.CondBr.False, t.CondBr.FalseArgs))
	case TermReturn:
		p.line(indent, "return%s", p.valList(t.Return.Values))
	}
}

func (p *printer) constLit(ins *Instr) string {
	t, _ := p.types.Lookup(p.types.Elem(p.f.ValueType(ins.Result)))
	switch t.Kind {
	case types.KindBool:
		return strconv.FormatBool(ins.Const.Bool)
	case types.KindFloat:
		return strconv.FormatFloat(ins.Const.Float, 'g', -1, 64)
	default:
		return strconv.FormatInt(ins.Const.Int, 10)
	}
}

func (p *printer) blockLabel(id BlockID) string {
	return "bb" + strconv.Itoa(int(id))
}

func (p *printer) target(b BlockID, args []ValueID) string {
	if len(args) == 0 {
		return p.blockLabel(b)
	}
	return p.blockLabel(b) + "(" + strings.TrimPrefix(p.valList(args), " ") + ")"
}

func (p *printer) optArg(v ValueID) string {
	if !v.IsValid() {
		return ""
	}
	return "(" + p.val(v) + ")"
}

func (p *printer) valList(ids []ValueID) string {
	if len(ids) == 0 {
		return ""
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = p.val(id)
	}
	return " " + strings.Join(parts, ", ")
}

func (p *printer) val(id ValueID) string {
	if !id.IsValid() {
		return "%<none>"
	}
	return "%v" + strconv.Itoa(int(id))
}

func (p *printer) typ(id types.TypeID) string {
	if p.types == nil {
		return "?"
	}
	return p.types.String(id)
}
