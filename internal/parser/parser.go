// Package parser reads the textual IR format produced by ir.DumpModule.
package parser

import (
	"errors"
	"fmt"
	"strconv"

	"strata/internal/diag"
	"strata/internal/ir"
	"strata/internal/source"
	"strata/internal/types"
)

// ErrParseFailed is returned when the input did not parse; the details are
// in the diagnostics handed to the reporter.
var ErrParseFailed = errors.New("parse failed")

// Parse reads the textual IR in file id and returns the module.
func Parse(fs *source.FileSet, id source.FileID, typesIn *types.Interner, r diag.Reporter) (m *ir.Module, err error) {
	p := &parser{
		sc:      newScanner(fs.Get(id)),
		typesIn: typesIn,
		rep:     r,
	}
	defer func() {
		if e := recover(); e != nil {
			if _, ok := e.(bailout); !ok {
				panic(e)
			}
			m, err = nil, ErrParseFailed
		}
	}()

	p.advance()
	m = &ir.Module{Name: fs.Get(id).Path}
	for p.tok.Kind != tokEOF {
		p.expectKeyword("func")
		m.Funcs = append(m.Funcs, p.parseFunc(ir.FuncID(len(m.Funcs)))) // #nosec G115
	}
	return m, nil
}

type bailout struct{}

type paramDecl struct {
	name string
	typ  types.TypeID
	span source.Span
}

type blockPatch struct {
	slot *ir.BlockID
	name string
	span source.Span
}

type parser struct {
	sc      *scanner
	tok     token
	typesIn *types.Interner
	rep     diag.Reporter

	f      *ir.Func
	values map[string]ir.ValueID
}

func (p *parser) advance() {
	p.tok = p.sc.next()
	if p.tok.Kind == tokError {
		p.errorf(diag.LexUnknownChar, p.tok.Span, "unexpected character %q", p.tok.Text)
	}
}

func (p *parser) errorf(code diag.Code, span source.Span, format string, args ...any) {
	diag.ReportError(p.rep, code, span, fmt.Sprintf(format, args...))
	panic(bailout{})
}

func (p *parser) expect(kind tokKind) token {
	if p.tok.Kind != kind {
		p.errorf(diag.SynUnexpectedToken, p.tok.Span, "expected %s, found %s", kind, p.tok.Kind)
	}
	tok := p.tok
	p.advance()
	return tok
}

func (p *parser) expectKeyword(kw string) {
	if p.tok.Kind != tokIdent || p.tok.Text != kw {
		p.errorf(diag.SynUnexpectedToken, p.tok.Span, "expected %q, found %s", kw, p.tok.Kind)
	}
	p.advance()
}

func (p *parser) atKeyword(kw string) bool {
	return p.tok.Kind == tokIdent && p.tok.Text == kw
}

func (p *parser) parseFunc(id ir.FuncID) *ir.Func {
	name := p.expect(tokFunc)
	p.f = ir.NewFunc(id, name.Text)
	p.f.Span = name.Span
	p.values = make(map[string]ir.ValueID)

	p.expect(tokLParen)
	var params []paramDecl
	for p.tok.Kind != tokRParen {
		if len(params) > 0 {
			p.expect(tokComma)
		}
		params = append(params, p.parseParamDecl())
	}
	p.advance()

	if p.tok.Kind == tokArrow {
		p.advance()
		p.f.Results = append(p.f.Results, p.parseType())
		for p.tok.Kind == tokComma {
			p.advance()
			p.f.Results = append(p.f.Results, p.parseType())
		}
	}

	p.expect(tokLBrace)
	p.f.Body = p.parseRegion(params)
	p.expect(tokRBrace)
	return p.f
}

func (p *parser) parseParamDecl() paramDecl {
	name := p.expect(tokValue)
	p.expect(tokColon)
	return paramDecl{name: name.Text, typ: p.parseType(), span: name.Span}
}

func (p *parser) parseType() types.TypeID {
	tok := p.expect(tokIdent)
	b := p.typesIn.Builtins()
	switch tok.Text {
	case "bool":
		return b.Bool
	case "i64":
		return b.Int
	case "f64":
		return b.Float
	case "tensor":
		p.expect(tokLAngle)
		elem := p.parseType()
		var dims []int64
		for p.tok.Kind == tokComma {
			p.advance()
			d := p.expect(tokNumber)
			n, err := strconv.ParseInt(d.Text, 10, 64)
			if err != nil || n < 0 {
				p.errorf(diag.LexBadNumber, d.Span, "bad tensor dimension %q", d.Text)
			}
			dims = append(dims, n)
		}
		p.expect(tokRAngle)
		return p.typesIn.Intern(types.MakeTensor(elem, dims...))
	}
	p.errorf(diag.SynExpectType, tok.Span, "expected a type, found %q", tok.Text)
	return types.NoTypeID
}

// parseRegion reads blocks until the closing brace. When entryParams is
// non-nil (function body), the entry block's parameters come from the
// function header rather than the label line. Branch targets may reference
// later labels; they are patched once the region is complete.
func (p *parser) parseRegion(entryParams []paramDecl) ir.Region {
	var r ir.Region
	labels := make(map[string]ir.BlockID)
	var patches []blockPatch

	for p.tok.Kind != tokRBrace && p.tok.Kind != tokEOF {
		label := p.expect(tokIdent)
		if _, dup := labels[label.Text]; dup {
			p.errorf(diag.SynDuplicateBlock, label.Span, "duplicate block label %q", label.Text)
		}
		b := p.f.NewBlock()
		labels[label.Text] = b
		r.Blocks = append(r.Blocks, b)

		var params []paramDecl
		switch {
		case len(r.Blocks) == 1 && entryParams != nil:
			params = entryParams
		case p.tok.Kind == tokLParen:
			p.advance()
			for p.tok.Kind != tokRParen {
				if len(params) > 0 {
					p.expect(tokComma)
				}
				params = append(params, p.parseParamDecl())
			}
			p.advance()
		}
		for _, pd := range params {
			p.values[pd.name] = p.f.AddBlockParam(b, pd.typ, pd.name)
		}
		p.expect(tokColon)
		p.parseBlockBody(b, &patches)
	}

	for _, pt := range patches {
		target, ok := labels[pt.name]
		if !ok {
			p.errorf(diag.SynUndefinedBlock, pt.span, "undefined block label %q", pt.name)
		}
		*pt.slot = target
	}
	return r
}

// parseBlockBody reads instructions until the block's terminator.
func (p *parser) parseBlockBody(b ir.BlockID, patches *[]blockPatch) {
	blk := p.f.Block(b)
	for {
		switch {
		case p.tok.Kind == tokValue:
			blk.Instrs = append(blk.Instrs, p.parseInstr())
		case p.atKeyword("yield"):
			p.advance()
			blk.Term = ir.Terminator{Kind: ir.TermYield, Yield: ir.YieldTerm{Values: p.parseValueList()}}
			return
		case p.atKeyword("return"):
			p.advance()
			blk.Term = ir.Terminator{Kind: ir.TermReturn, Return: ir.ReturnTerm{Values: p.parseValueList()}}
			return
		case p.atKeyword("br"):
			p.advance()
			blk.Term = ir.Terminator{Kind: ir.TermBr}
			blk.Term.Br.Args = p.parseTarget(&blk.Term.Br.Target, patches)
			return
		case p.atKeyword("cond_br"):
			p.advance()
			blk.Term = ir.Terminator{Kind: ir.TermCondBr}
			blk.Term.CondBr.Cond = p.useValue(p.expect(tokValue))
			p.expect(tokComma)
			blk.Term.CondBr.TrueArgs = p.parseTarget(&blk.Term.CondBr.True, patches)
			p.expect(tokComma)
			blk.Term.CondBr.FalseArgs = p.parseTarget(&blk.Term.CondBr.False, patches)
			return
		default:
			p.errorf(diag.SynMissingTerminator, p.tok.Span, "block must end in a terminator")
		}
	}
}

func (p *parser) parseTarget(slot *ir.BlockID, patches *[]blockPatch) []ir.ValueID {
	label := p.expect(tokIdent)
	*slot = ir.NoBlockID
	*patches = append(*patches, blockPatch{slot: slot, name: label.Text, span: label.Span})
	var args []ir.ValueID
	if p.tok.Kind == tokLParen {
		p.advance()
		for p.tok.Kind != tokRParen {
			if len(args) > 0 {
				p.expect(tokComma)
			}
			args = append(args, p.useValue(p.expect(tokValue)))
		}
		p.advance()
	}
	return args
}

func (p *parser) parseValueList() []ir.ValueID {
	if p.tok.Kind != tokValue {
		return nil
	}
	vals := []ir.ValueID{p.useValue(p.expect(tokValue))}
	for p.tok.Kind == tokComma {
		p.advance()
		vals = append(vals, p.useValue(p.expect(tokValue)))
	}
	return vals
}

func (p *parser) useValue(tok token) ir.ValueID {
	v, ok := p.values[tok.Text]
	if !ok {
		p.errorf(diag.SynUndefinedValue, tok.Span, "undefined value %%%s", tok.Text)
	}
	return v
}

func (p *parser) parseInstr() *ir.Instr {
	name := p.expect(tokValue)
	p.expect(tokEq)
	op := p.expect(tokIdent)

	ins := &ir.Instr{Span: op.Span}
	var resType types.TypeID

	switch {
	case op.Text == "const":
		lit := p.tok
		if lit.Kind != tokNumber && lit.Kind != tokIdent {
			p.errorf(diag.SynUnexpectedToken, lit.Span, "expected a literal, found %s", lit.Kind)
		}
		p.advance()
		p.expect(tokColon)
		resType = p.parseType()
		ins.Kind = ir.InstrConst
		ins.Const = p.constValue(lit, resType)

	case op.Text == "extract":
		src := p.useValue(p.expect(tokValue))
		p.expect(tokColon)
		resType = p.parseType()
		ins.Kind = ir.InstrExtract
		ins.Extract = ir.ExtractInstr{Src: src}

	case op.Text == "cond":
		ins.Kind = ir.InstrCond
		ins.Cond.Pred = p.useValue(p.expect(tokValue))
		p.expectKeyword("true")
		ins.Cond.TrueArg = p.parseOptArg()
		p.expect(tokLBrace)
		ins.Cond.TrueBody = p.parseRegion(nil)
		p.expect(tokRBrace)
		p.expectKeyword("false")
		ins.Cond.FalseArg = p.parseOptArg()
		p.expect(tokLBrace)
		ins.Cond.FalseBody = p.parseRegion(nil)
		p.expect(tokRBrace)
		p.expect(tokColon)
		resType = p.parseType()

	case op.Text == "loop":
		ins.Kind = ir.InstrLoop
		p.expectKeyword("init")
		p.expect(tokLParen)
		ins.Loop.Init = p.useValue(p.expect(tokValue))
		p.expect(tokRParen)
		p.expectKeyword("cond")
		p.expect(tokLBrace)
		ins.Loop.CondBody = p.parseRegion(nil)
		p.expect(tokRBrace)
		p.expectKeyword("body")
		p.expect(tokLBrace)
		ins.Loop.Body = p.parseRegion(nil)
		p.expect(tokRBrace)
		p.expect(tokColon)
		resType = p.parseType()

	default:
		binOp, ok := ir.BinOpByName(op.Text)
		if !ok {
			p.errorf(diag.SynUnknownInstr, op.Span, "unknown instruction %q", op.Text)
		}
		lhs := p.useValue(p.expect(tokValue))
		p.expect(tokComma)
		rhs := p.useValue(p.expect(tokValue))
		p.expect(tokColon)
		resType = p.parseType()
		ins.Kind = ir.InstrBin
		ins.Bin = ir.BinInstr{Op: binOp, LHS: lhs, RHS: rhs}
	}

	ins.Result = p.f.NewValue(resType, name.Text)
	p.values[name.Text] = ins.Result
	return ins
}

func (p *parser) parseOptArg() ir.ValueID {
	if p.tok.Kind != tokLParen {
		return ir.NoValueID
	}
	p.advance()
	v := p.useValue(p.expect(tokValue))
	p.expect(tokRParen)
	return v
}

func (p *parser) constValue(lit token, resType types.TypeID) ir.ConstInstr {
	elem, _ := p.typesIn.Lookup(p.typesIn.Elem(resType))
	switch elem.Kind {
	case types.KindBool:
		switch lit.Text {
		case "true":
			return ir.ConstInstr{Bool: true}
		case "false":
			return ir.ConstInstr{Bool: false}
		}
		p.errorf(diag.SynUnexpectedToken, lit.Span, "boolean constant must be true or false, found %q", lit.Text)
	case types.KindFloat:
		v, err := strconv.ParseFloat(lit.Text, 64)
		if err != nil {
			p.errorf(diag.LexBadNumber, lit.Span, "bad float literal %q", lit.Text)
		}
		return ir.ConstInstr{Float: v}
	case types.KindInt:
		v, err := strconv.ParseInt(lit.Text, 10, 64)
		if err != nil {
			p.errorf(diag.LexBadNumber, lit.Span, "bad integer literal %q", lit.Text)
		}
		return ir.ConstInstr{Int: v}
	default:
		p.errorf(diag.SynExpectType, lit.Span, "constant has no scalar element type")
	}
	return ir.ConstInstr{}
}
