// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package rtl

import (
	"github.com/db47h/svsim/ast"
	"github.com/db47h/svsim/elab"
)

// Build lowers an elaborated design to RTL IR. Modules are processed in
// source order; within a module, items are consumed in flat item order.
// Lowering never fails: constructs outside the supported subset lower to
// placeholders and are recorded in the design's Diags.
//
func Build(design *ast.Design, ed *elab.Design) *Design {
	b := &builder{out: &Design{}}
	for _, m := range design.Modules {
		var em *elab.Module
		if ed != nil {
			em = ed.Module(m.Name)
		}
		b.out.Modules = append(b.out.Modules, b.buildModule(m, em))
	}
	return b.out
}

type builder struct {
	out *Design
}

func (b *builder) diag(pos ast.Pos, msg string) {
	b.out.Diags = append(b.out.Diags, pos.String()+": "+msg)
}

func (b *builder) buildModule(mod *ast.Module, em *elab.Module) *Module {
	rm := &Module{Name: mod.Name}

	items := mod.Items
	if em != nil {
		items = em.FlatItems

		for _, p := range em.Params {
			v := p.ValueStr
			if v == "" {
				v = "<expr>"
			}
			rm.Params = append(rm.Params, Param{Name: p.Name, Value: v})
		}
		for _, n := range em.Nets {
			rm.Nets = append(rm.Nets, Net{Name: n.Name, Type: n.Type})
		}
		for _, inst := range em.Instances {
			ri := Instance{Module: inst.ModuleName, Name: inst.InstanceName}
			for _, pc := range inst.PortConns {
				ri.Conns = append(ri.Conns, InstanceConn{Port: pc.Port, Signal: pc.Signal})
			}
			rm.Instances = append(rm.Instances, ri)
		}
	} else {
		// no elaborated module; mirror straight off the AST
		for _, p := range mod.Params {
			v := "<expr>"
			if p.Value != nil && p.Value.Kind == ast.ExprNumber {
				v = p.Value.Literal
			}
			rm.Params = append(rm.Params, Param{Name: p.Name, Value: v})
		}
		for _, item := range items {
			switch {
			case item.Kind == ast.ItemNet && item.Net != nil:
				rm.Nets = append(rm.Nets, Net{Name: item.Net.Name, Type: item.Net.Type})
			case item.Kind == ast.ItemVar && item.Var != nil:
				rm.Nets = append(rm.Nets, Net{Name: item.Var.Name, Type: item.Var.Type})
			case item.Kind == ast.ItemInstance && item.Inst != nil:
				ri := Instance{Module: item.Inst.Module, Name: item.Inst.Name}
				for _, pc := range item.Inst.PortConns {
					sig := ""
					if pc.Expr != nil && pc.Expr.Kind == ast.ExprIdent {
						sig = pc.Expr.Ident
					}
					ri.Conns = append(ri.Conns, InstanceConn{Port: pc.Port, Signal: sig})
				}
				rm.Instances = append(rm.Instances, ri)
			}
		}
	}

	for _, item := range items {
		switch item.Kind {
		case ast.ItemNet:
			if item.Net != nil && item.Net.Init != nil {
				rm.Processes = append(rm.Processes, b.initProcess(item.Net.Name, item.Net.Init))
			}

		case ast.ItemVar:
			if item.Var != nil && item.Var.Init != nil {
				rm.Processes = append(rm.Processes, b.initProcess(item.Var.Name, item.Var.Init))
			}

		case ast.ItemAssign:
			if item.Assign != nil {
				rm.ContAssigns = append(rm.ContAssigns, Assign{
					Kind: Continuous,
					LHS:  b.lvalueName(item.Assign.LHS, item.Pos),
					RHS:  b.lowerExpr(item.Assign.RHS),
				})
			}

		case ast.ItemAlways:
			if item.Always != nil {
				rm.Processes = append(rm.Processes, b.lowerAlways(item.Always))
			}

		case ast.ItemInitial:
			if item.Initial != nil {
				rm.Processes = append(rm.Processes, b.lowerInitial(item.Initial))
			}
		}
	}

	return rm
}

// initProcess wraps a declaration initializer in a run-once process.
func (b *builder) initProcess(name string, init *ast.Expr) *Process {
	return &Process{
		Kind: Initial,
		Assigns: []Assign{
			{Kind: Blocking, LHS: name, RHS: b.lowerExpr(init)},
		},
	}
}

// lvalueName reduces an assignment target to its base identifier. Bit
// selects collapse to the selected net; anything else is a placeholder.
func (b *builder) lvalueName(lhs *ast.Expr, pos ast.Pos) string {
	switch {
	case lhs == nil:
	case lhs.Kind == ast.ExprIdent:
		return lhs.Ident
	case lhs.Kind == ast.ExprBitSelect && lhs.LHS != nil && lhs.LHS.Kind == ast.ExprIdent:
		return lhs.LHS.Ident
	}
	b.diag(pos, "unsupported assignment target; lowering to placeholder")
	return "<expr>"
}

func (b *builder) lowerAlways(a *ast.Always) *Process {
	p := &Process{Kind: Always}
	p.Sensitivity = b.lowerSensitivity(a)
	if a.Body != nil {
		b.flattenAssigns(a.Body, p)
		p.First = b.buildChain(a.Body, p)
	}
	return p
}

func (b *builder) lowerInitial(ic *ast.Initial) *Process {
	p := &Process{Kind: Initial}
	if ic.Body != nil {
		b.flattenAssigns(ic.Body, p)
		p.First = b.buildChain(ic.Body, p)
	}
	return p
}

// lowerSensitivity maps an event control to IR sensitivity entries:
//
//	(no control)        -> none; the process free-runs on its own delays
//	@* / @(*)           -> Level("*"), resolved by RHS inference at load
//	always_comb         -> Level("*")
//	@(posedge s)        -> Posedge(s)
//	@(negedge s)        -> Negedge(s)
//	@(a or b or ...)    -> Level(a), Level(b), ...
//
func (b *builder) lowerSensitivity(a *ast.Always) []Sensitivity {
	if !a.HasControl {
		if a.Kind == ast.AlwaysComb {
			return []Sensitivity{{Kind: Level, Signal: "*"}}
		}
		return nil
	}
	var out []Sensitivity
	for _, si := range a.Sensitivity {
		if si.Star {
			return []Sensitivity{{Kind: Level, Signal: "*"}}
		}
		if si.Expr == nil {
			continue
		}
		if si.Expr.Kind == ast.ExprIdent {
			k := Level
			if si.Posedge {
				k = Posedge
			} else if si.Negedge {
				k = Negedge
			}
			out = append(out, Sensitivity{Kind: k, Signal: si.Expr.Ident})
			continue
		}
		// @(a or b or c) arrives as a logical-or chain
		if si.Expr.Kind == ast.ExprBinary && si.Expr.BinOp == ast.OpLogOr &&
			!si.Posedge && !si.Negedge {
			out = appendOrChain(out, si.Expr)
			continue
		}
		b.diag(a.Pos, "unsupported sensitivity expression; ignoring")
	}
	if len(out) == 0 {
		return []Sensitivity{{Kind: Level, Signal: "*"}}
	}
	return out
}

func appendOrChain(out []Sensitivity, e *ast.Expr) []Sensitivity {
	if e == nil {
		return out
	}
	if e.Kind == ast.ExprIdent {
		return append(out, Sensitivity{Kind: Level, Signal: e.Ident})
	}
	if e.Kind == ast.ExprBinary && e.BinOp == ast.OpLogOr {
		out = appendOrChain(out, e.LHS)
		out = appendOrChain(out, e.RHS)
	}
	return out
}

// flattenAssigns fills the legacy flat assignment view: the body's top
// level assignments, or the first level of a begin/end block.
func (b *builder) flattenAssigns(body *ast.Stmt, p *Process) {
	add := func(s *ast.Stmt) {
		switch s.Kind {
		case ast.StmtBlocking:
			p.Assigns = append(p.Assigns, Assign{
				Kind: Blocking, LHS: b.lvalueName(s.LHS, s.Pos), RHS: b.lowerExpr(s.RHS)})
		case ast.StmtNonBlocking:
			p.Assigns = append(p.Assigns, Assign{
				Kind: NonBlocking, LHS: b.lvalueName(s.LHS, s.Pos), RHS: b.lowerExpr(s.RHS)})
		}
	}
	switch body.Kind {
	case ast.StmtBlocking, ast.StmtNonBlocking:
		add(body)
	case ast.StmtBlock:
		for _, s := range body.Block {
			if s != nil {
				add(s)
			}
		}
	}
}

func (b *builder) lowerExpr(e *ast.Expr) *Expr {
	if e == nil {
		return &Expr{Kind: Const, Literal: "0"}
	}
	switch e.Kind {
	case ast.ExprIdent:
		return &Expr{Kind: Ref, RefName: e.Ident}

	case ast.ExprNumber:
		return &Expr{Kind: Const, Literal: e.Literal}

	case ast.ExprString:
		// strings have no runtime value in this subset
		return &Expr{Kind: Const, Literal: "0"}

	case ast.ExprUnary:
		out := &Expr{Kind: Unary, Operand: b.lowerExpr(e.Operand)}
		switch e.UnOp {
		case ast.UnaryPlus:
			out.UnOp = UnPlus
		case ast.UnaryMinus:
			out.UnOp = UnMinus
		case ast.UnaryLogNot:
			out.UnOp = UnNot
		case ast.UnaryBitNot:
			out.UnOp = UnBitNot
		}
		return out

	case ast.ExprBinary:
		return &Expr{
			Kind:  Binary,
			BinOp: lowerBinOp(e.BinOp),
			LHS:   b.lowerExpr(e.LHS),
			RHS:   b.lowerExpr(e.RHS),
		}

	case ast.ExprTernary:
		// c ? t : f  ->  (c & t) | (~c & f)
		c := b.lowerExpr(e.Cond)
		return &Expr{
			Kind:  Binary,
			BinOp: Or,
			LHS: &Expr{
				Kind: Binary, BinOp: And,
				LHS: c,
				RHS: b.lowerExpr(e.Then),
			},
			RHS: &Expr{
				Kind: Binary, BinOp: And,
				LHS: &Expr{Kind: Unary, UnOp: UnBitNot, Operand: c.Clone()},
				RHS: b.lowerExpr(e.Else),
			},
		}

	case ast.ExprBitSelect:
		// bit slice semantics are lost in this subset; read the base net
		return b.lowerExpr(e.LHS)

	case ast.ExprConcat, ast.ExprReplicate:
		b.diag(e.Pos, "concatenation/replication lower to a constant placeholder")
		return &Expr{Kind: Const, Literal: "0"}
	}

	return &Expr{Kind: Const, Literal: "0"}
}

func lowerBinOp(op ast.BinaryOp) BinOp {
	switch op {
	case ast.OpAdd:
		return Add
	case ast.OpSub:
		return Sub
	case ast.OpMul:
		return Mul
	case ast.OpDiv:
		return Div
	case ast.OpMod:
		return Mod
	case ast.OpBitAnd:
		return And
	case ast.OpBitOr:
		return Or
	case ast.OpBitXor:
		return Xor
	case ast.OpLogAnd:
		return LogAnd
	case ast.OpLogOr:
		return LogOr
	case ast.OpEq:
		return Eq
	case ast.OpNeq:
		return Neq
	case ast.OpCaseEq:
		return CaseEq
	case ast.OpCaseNeq:
		return CaseNeq
	case ast.OpLt:
		return Lt
	case ast.OpGt:
		return Gt
	case ast.OpLe:
		return Le
	case ast.OpGe:
		return Ge
	case ast.OpShl:
		return Shl
	case ast.OpShr:
		return Shr
	case ast.OpAshl:
		return Ashl
	case ast.OpAshr:
		return Ashr
	}
	return Add
}
