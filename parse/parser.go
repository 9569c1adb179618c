// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package parse

import (
	"strconv"

	"github.com/pkg/errors"

	"github.com/db47h/svsim/ast"
	"github.com/db47h/svsim/internal/lex"
)

// Parse parses source text into a design. The first syntax error aborts
// with a file:line:column diagnostic.
//
func Parse(filename, src string) (d *ast.Design, err error) {
	p := &parser{file: filename, lx: Lexer(src)}
	defer func() {
		if r := recover(); r != nil {
			pe, ok := r.(parseError)
			if !ok {
				panic(r)
			}
			d, err = nil, pe.err
		}
	}()
	p.advance()
	return p.parseDesign(), nil
}

type parseError struct{ err error }

type parser struct {
	file string
	lx   *lex.Lexer
	tok  lex.Item
}

func (p *parser) pos() ast.Pos {
	return ast.Pos{File: p.file, Line: p.tok.Pos.Line, Col: p.tok.Pos.Col}
}

func (p *parser) errorf(format string, args ...interface{}) {
	panic(parseError{errors.Errorf(p.pos().String()+": "+format, args...)})
}

func (p *parser) advance() {
	p.tok = p.lx.Lex()
	if p.tok.Type == Err {
		p.errorf("lex error: %s", p.tok.Value)
	}
}

// word returns the current token text when it is an identifier or keyword.
func (p *parser) word() string {
	if p.tok.Type == Ident {
		return p.tok.Value
	}
	return ""
}

func (p *parser) isPunct(s string) bool {
	return p.tok.Type == Punct && p.tok.Value == s
}

func (p *parser) acceptPunct(s string) bool {
	if p.isPunct(s) {
		p.advance()
		return true
	}
	return false
}

func (p *parser) expectPunct(s string) {
	if !p.acceptPunct(s) {
		p.errorf("expected %q, got %q", s, p.tok.Value)
	}
}

func (p *parser) acceptWord(s string) bool {
	if p.tok.Type == Ident && p.tok.Value == s {
		p.advance()
		return true
	}
	return false
}

func (p *parser) expectWord(s string) {
	if !p.acceptWord(s) {
		p.errorf("expected %q, got %q", s, p.tok.Value)
	}
}

func (p *parser) expectIdent() string {
	if p.tok.Type != Ident {
		p.errorf("expected identifier, got %q", p.tok.Value)
	}
	name := p.tok.Value
	p.advance()
	return name
}

// parseDesign: { module } EOF
func (p *parser) parseDesign() *ast.Design {
	d := &ast.Design{}
	for p.tok.Type != EOF {
		if p.word() != "module" {
			p.errorf("expected \"module\", got %q", p.tok.Value)
		}
		d.Modules = append(d.Modules, p.parseModule())
	}
	return d
}

func (p *parser) parseModule() *ast.Module {
	m := &ast.Module{Pos: p.pos()}
	p.expectWord("module")
	m.Name = p.expectIdent()

	if p.acceptPunct("#") {
		p.expectPunct("(")
		for !p.isPunct(")") {
			p.acceptWord("parameter")
			pd := &ast.ParamDecl{Pos: p.pos()}
			pd.Name = p.expectIdent()
			if p.acceptPunct("=") {
				pd.Value = p.parseExpr()
			}
			m.Params = append(m.Params, pd)
			if !p.acceptPunct(",") {
				break
			}
		}
		p.expectPunct(")")
	}

	if p.acceptPunct("(") {
		p.parsePortList(m)
		p.expectPunct(")")
	}
	p.expectPunct(";")

	for !p.acceptWord("endmodule") {
		if p.tok.Type == EOF {
			p.errorf("unexpected end of input in module %s", m.Name)
		}
		p.parseModuleItems(&m.Items)
	}
	return m
}

func (p *parser) parsePortList(m *ast.Module) {
	if p.isPunct(")") {
		return
	}
	dir := ast.Input
	typ := ast.DataType{Kind: ast.TypeWire}
	for {
		pos := p.pos()
		switch p.word() {
		case "input":
			dir = ast.Input
			p.advance()
		case "output":
			dir = ast.Output
			p.advance()
		case "inout":
			dir = ast.Inout
			p.advance()
		}
		if k, ok := dataTypeKind(p.word()); ok {
			typ = ast.DataType{Kind: k}
			p.advance()
		}
		if p.isPunct("[") {
			msb, lsb := p.parsePackedRange()
			typ.Packed, typ.MSB, typ.LSB = true, msb, lsb
		}
		name := p.expectIdent()
		m.Ports = append(m.Ports, &ast.Port{Pos: pos, Dir: dir, Type: typ, Name: name})
		if !p.acceptPunct(",") {
			return
		}
	}
}

func dataTypeKind(w string) (ast.DataTypeKind, bool) {
	switch w {
	case "logic":
		return ast.TypeLogic, true
	case "wire":
		return ast.TypeWire, true
	case "reg":
		return ast.TypeReg, true
	case "integer":
		return ast.TypeInteger, true
	}
	return ast.TypeUnknown, false
}

// parsePackedRange: '[' const ':' const ']'
func (p *parser) parsePackedRange() (msb, lsb int) {
	p.expectPunct("[")
	msb = p.parseIntConst()
	p.expectPunct(":")
	lsb = p.parseIntConst()
	p.expectPunct("]")
	return msb, lsb
}

func (p *parser) parseIntConst() int {
	if p.tok.Type != Number {
		p.errorf("expected integer constant, got %q", p.tok.Value)
	}
	n, err := strconv.Atoi(p.tok.Value)
	if err != nil {
		p.errorf("bad integer constant %q", p.tok.Value)
	}
	p.advance()
	return n
}

// parseModuleItems parses one module item (which may declare several nets)
// and appends it to items.
func (p *parser) parseModuleItems(items *[]*ast.ModuleItem) {
	pos := p.pos()
	switch p.word() {
	case "parameter", "localparam":
		local := p.word() == "localparam"
		p.advance()
		for {
			pd := &ast.ParamDecl{Pos: p.pos(), Local: local}
			pd.Name = p.expectIdent()
			p.expectPunct("=")
			pd.Value = p.parseExpr()
			*items = append(*items, &ast.ModuleItem{Pos: pos, Kind: ast.ItemParam, Param: pd})
			if !p.acceptPunct(",") {
				break
			}
		}
		p.expectPunct(";")

	case "genvar":
		p.advance()
		for {
			name := p.expectIdent()
			*items = append(*items, &ast.ModuleItem{Pos: pos, Kind: ast.ItemGenvar, Genvar: name})
			if !p.acceptPunct(",") {
				break
			}
		}
		p.expectPunct(";")

	case "wire", "logic", "reg", "integer":
		kind, _ := dataTypeKind(p.word())
		p.advance()
		typ := ast.DataType{Kind: kind}
		if p.isPunct("[") {
			msb, lsb := p.parsePackedRange()
			typ.Packed, typ.MSB, typ.LSB = true, msb, lsb
		}
		for {
			dpos := p.pos()
			name := p.expectIdent()
			var init *ast.Expr
			if p.acceptPunct("=") {
				init = p.parseExpr()
			}
			if kind == ast.TypeWire {
				*items = append(*items, &ast.ModuleItem{Pos: dpos, Kind: ast.ItemNet,
					Net: &ast.NetDecl{Pos: dpos, Type: typ, Name: name, Init: init}})
			} else {
				*items = append(*items, &ast.ModuleItem{Pos: dpos, Kind: ast.ItemVar,
					Var: &ast.VarDecl{Pos: dpos, Type: typ, Name: name, Init: init}})
			}
			if !p.acceptPunct(",") {
				break
			}
		}
		p.expectPunct(";")

	case "assign":
		p.advance()
		ca := &ast.ContAssign{Pos: pos}
		ca.LHS = p.parseExpr()
		p.expectPunct("=")
		ca.RHS = p.parseExpr()
		p.expectPunct(";")
		*items = append(*items, &ast.ModuleItem{Pos: pos, Kind: ast.ItemAssign, Assign: ca})

	case "always", "always_ff", "always_comb", "always_latch":
		*items = append(*items, p.parseAlways())

	case "initial":
		p.advance()
		ic := &ast.Initial{Pos: pos, Body: p.parseStmt()}
		*items = append(*items, &ast.ModuleItem{Pos: pos, Kind: ast.ItemInitial, Initial: ic})

	case "generate":
		p.advance()
		gen := &ast.GenItem{Pos: pos, Kind: ast.GenBlock}
		for !p.acceptWord("endgenerate") {
			if p.tok.Type == EOF {
				p.errorf("unexpected end of input in generate")
			}
			p.parseGenItems(&gen.Items)
		}
		*items = append(*items, &ast.ModuleItem{Pos: pos, Kind: ast.ItemGenerate, Gen: gen})

	case "for":
		// bare generate-for
		gi := p.parseGenFor()
		*items = append(*items, &ast.ModuleItem{Pos: pos, Kind: ast.ItemGenerate, Gen: gi})

	case "if":
		// bare generate-if at module scope
		gi := p.parseGenIf()
		*items = append(*items, &ast.ModuleItem{Pos: pos, Kind: ast.ItemGenerate, Gen: gi})

	case "":
		p.errorf("expected module item, got %q", p.tok.Value)

	default:
		// a leading identifier starts an instantiation
		*items = append(*items, p.parseInstance())
	}
}

func (p *parser) parseAlways() *ast.ModuleItem {
	pos := p.pos()
	a := &ast.Always{Pos: pos}
	switch p.word() {
	case "always":
		a.Kind = ast.AlwaysPlain
	case "always_ff":
		a.Kind = ast.AlwaysFF
	case "always_comb":
		a.Kind = ast.AlwaysComb
	case "always_latch":
		a.Kind = ast.AlwaysLatch
	}
	p.advance()

	if p.acceptPunct("@") {
		a.HasControl = true
		if p.acceptPunct("*") {
			a.Sensitivity = append(a.Sensitivity, ast.SensItem{Star: true})
		} else {
			p.expectPunct("(")
			if p.acceptPunct("*") {
				a.Sensitivity = append(a.Sensitivity, ast.SensItem{Star: true})
			} else {
				for {
					si := ast.SensItem{}
					if p.acceptWord("posedge") {
						si.Posedge = true
					} else if p.acceptWord("negedge") {
						si.Negedge = true
					}
					si.Expr = p.parseExpr()
					a.Sensitivity = append(a.Sensitivity, si)
					if !p.acceptWord("or") && !p.acceptPunct(",") {
						break
					}
				}
			}
			p.expectPunct(")")
		}
	}

	a.Body = p.parseStmt()
	return &ast.ModuleItem{Pos: pos, Kind: ast.ItemAlways, Always: a}
}

// parseInstance: Mod [#(.P(expr), ...)] name ( .port(sig), ... ) ;
func (p *parser) parseInstance() *ast.ModuleItem {
	pos := p.pos()
	inst := &ast.Instance{Pos: pos}
	inst.Module = p.expectIdent()

	if p.acceptPunct("#") {
		p.expectPunct("(")
		for !p.isPunct(")") {
			p.expectPunct(".")
			name := p.expectIdent()
			p.expectPunct("(")
			val := p.parseExpr()
			p.expectPunct(")")
			inst.ParamOverrides = append(inst.ParamOverrides, ast.ParamOverride{Name: name, Value: val})
			if !p.acceptPunct(",") {
				break
			}
		}
		p.expectPunct(")")
	}

	inst.Name = p.expectIdent()
	p.expectPunct("(")
	for !p.isPunct(")") {
		if p.acceptPunct(".") {
			port := p.expectIdent()
			p.expectPunct("(")
			var e *ast.Expr
			if !p.isPunct(")") {
				e = p.parseExpr()
			}
			p.expectPunct(")")
			inst.PortConns = append(inst.PortConns, ast.PortConn{Port: port, Expr: e})
		} else {
			// positional connection
			inst.PortConns = append(inst.PortConns, ast.PortConn{Expr: p.parseExpr()})
		}
		if !p.acceptPunct(",") {
			break
		}
	}
	p.expectPunct(")")
	p.expectPunct(";")
	return &ast.ModuleItem{Pos: pos, Kind: ast.ItemInstance, Inst: inst}
}

// Generate constructs

func (p *parser) parseGenItems(items *[]*ast.ModuleItem) {
	pos := p.pos()
	switch p.word() {
	case "for":
		gi := p.parseGenFor()
		*items = append(*items, &ast.ModuleItem{Pos: pos, Kind: ast.ItemGenerate, Gen: gi})
	case "if":
		gi := p.parseGenIf()
		*items = append(*items, &ast.ModuleItem{Pos: pos, Kind: ast.ItemGenerate, Gen: gi})
	case "case":
		gi := p.parseGenCase()
		*items = append(*items, &ast.ModuleItem{Pos: pos, Kind: ast.ItemGenerate, Gen: gi})
	case "begin":
		gi := p.parseGenBlock()
		*items = append(*items, &ast.ModuleItem{Pos: pos, Kind: ast.ItemGenerate, Gen: gi})
	default:
		p.parseModuleItems(items)
	}
}

// parseGenBody parses a generate body: a begin/end block or a single item.
func (p *parser) parseGenBody() *ast.GenItem {
	if p.word() == "begin" {
		return p.parseGenBlock()
	}
	gi := &ast.GenItem{Pos: p.pos(), Kind: ast.GenBlock}
	p.parseGenItems(&gi.Items)
	return gi
}

func (p *parser) parseGenBlock() *ast.GenItem {
	gi := &ast.GenItem{Pos: p.pos(), Kind: ast.GenBlock}
	p.expectWord("begin")
	if p.acceptPunct(":") {
		gi.Label = p.expectIdent()
	}
	for !p.acceptWord("end") {
		if p.tok.Type == EOF {
			p.errorf("unexpected end of input in generate block")
		}
		p.parseGenItems(&gi.Items)
	}
	return gi
}

// parseGenFor: for ( i = C0 ; i < C1 ; i = i + C2 ) body
func (p *parser) parseGenFor() *ast.GenItem {
	gi := &ast.GenItem{Pos: p.pos(), Kind: ast.GenFor}
	p.expectWord("for")
	p.expectPunct("(")

	ipos := p.pos()
	name := p.expectIdent()
	gi.Genvar = name
	p.expectPunct("=")
	gi.ForInit = &ast.Expr{Pos: ipos, Kind: ast.ExprBinary, BinOp: ast.OpAssign,
		LHS: &ast.Expr{Pos: ipos, Kind: ast.ExprIdent, Ident: name},
		RHS: p.parseExpr()}
	p.expectPunct(";")

	gi.ForCond = p.parseExpr()
	p.expectPunct(";")

	spos := p.pos()
	sname := p.expectIdent()
	p.expectPunct("=")
	gi.ForStep = &ast.Expr{Pos: spos, Kind: ast.ExprBinary, BinOp: ast.OpAssign,
		LHS: &ast.Expr{Pos: spos, Kind: ast.ExprIdent, Ident: sname},
		RHS: p.parseExpr()}
	p.expectPunct(")")

	gi.ForBody = p.parseGenBody()
	return gi
}

func (p *parser) parseGenIf() *ast.GenItem {
	gi := &ast.GenItem{Pos: p.pos(), Kind: ast.GenIf}
	p.expectWord("if")
	p.expectPunct("(")
	gi.Cond = p.parseExpr()
	p.expectPunct(")")
	gi.Then = p.parseGenBody()
	if p.acceptWord("else") {
		if p.word() == "if" {
			gi.Else = p.parseGenIf()
		} else {
			gi.Else = p.parseGenBody()
		}
	}
	return gi
}

func (p *parser) parseGenCase() *ast.GenItem {
	gi := &ast.GenItem{Pos: p.pos(), Kind: ast.GenCase}
	p.expectWord("case")
	p.expectPunct("(")
	gi.CaseExpr = p.parseExpr()
	p.expectPunct(")")
	for !p.acceptWord("endcase") {
		if p.tok.Type == EOF {
			p.errorf("unexpected end of input in generate case")
		}
		ci := ast.GenCaseItem{}
		if p.acceptWord("default") {
			p.acceptPunct(":")
		} else {
			for {
				ci.Matches = append(ci.Matches, p.parseExpr())
				if !p.acceptPunct(",") {
					break
				}
			}
			p.expectPunct(":")
		}
		ci.Body = p.parseGenBody()
		gi.CaseItems = append(gi.CaseItems, ci)
	}
	return gi
}

// Statements

func (p *parser) parseStmt() *ast.Stmt {
	pos := p.pos()

	switch {
	case p.isPunct(";"):
		p.advance()
		return &ast.Stmt{Pos: pos, Kind: ast.StmtNull}

	case p.word() == "begin":
		p.advance()
		s := &ast.Stmt{Pos: pos, Kind: ast.StmtBlock}
		if p.acceptPunct(":") {
			s.Label = p.expectIdent()
		}
		for !p.acceptWord("end") {
			if p.tok.Type == EOF {
				p.errorf("unexpected end of input in block")
			}
			s.Block = append(s.Block, p.parseStmt())
		}
		return s

	case p.word() == "if":
		p.advance()
		s := &ast.Stmt{Pos: pos, Kind: ast.StmtIf}
		p.expectPunct("(")
		s.Cond = p.parseExpr()
		p.expectPunct(")")
		s.Then = p.parseStmt()
		if p.acceptWord("else") {
			s.Else = p.parseStmt()
		}
		return s

	case p.word() == "case" || p.word() == "casez" || p.word() == "casex":
		return p.parseCaseStmt()

	case p.isPunct("#"):
		p.advance()
		s := &ast.Stmt{Pos: pos, Kind: ast.StmtDelay}
		s.DelayExpr = p.parseDelayExpr()
		if p.isPunct(";") {
			p.advance()
		} else {
			s.DelayBody = p.parseStmt()
		}
		return s
	}

	// assignment or expression statement; the target is parsed as a
	// primary so that <= reads as an assignment, not a comparison
	lhs := p.parsePrimary()
	switch {
	case p.acceptPunct("="):
		s := &ast.Stmt{Pos: pos, Kind: ast.StmtBlocking, LHS: lhs, RHS: p.parseExpr()}
		p.expectPunct(";")
		return s
	case p.acceptPunct("<="):
		s := &ast.Stmt{Pos: pos, Kind: ast.StmtNonBlocking, LHS: lhs, RHS: p.parseExpr()}
		p.expectPunct(";")
		return s
	}
	p.expectPunct(";")
	return &ast.Stmt{Pos: pos, Kind: ast.StmtExpr, Expr: lhs}
}

func (p *parser) parseCaseStmt() *ast.Stmt {
	s := &ast.Stmt{Pos: p.pos(), Kind: ast.StmtCase}
	switch p.word() {
	case "case":
		s.CaseKind = ast.CaseNormal
	case "casez":
		s.CaseKind = ast.CaseZ
	case "casex":
		s.CaseKind = ast.CaseX
	}
	p.advance()
	p.expectPunct("(")
	s.CaseExpr = p.parseExpr()
	p.expectPunct(")")
	for !p.acceptWord("endcase") {
		if p.tok.Type == EOF {
			p.errorf("unexpected end of input in case")
		}
		ci := ast.CaseItem{}
		if p.acceptWord("default") {
			p.acceptPunct(":")
		} else {
			for {
				ci.Matches = append(ci.Matches, p.parseExpr())
				if !p.acceptPunct(",") {
					break
				}
			}
			p.expectPunct(":")
		}
		ci.Body = p.parseStmt()
		s.CaseItems = append(s.CaseItems, ci)
	}
	return s
}

// parseDelayExpr parses the operand of a # delay: a number, an identifier,
// or a parenthesized expression.
func (p *parser) parseDelayExpr() *ast.Expr {
	if p.isPunct("(") {
		p.advance()
		e := p.parseExpr()
		p.expectPunct(")")
		return e
	}
	return p.parsePrimary()
}
