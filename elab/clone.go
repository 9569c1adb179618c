// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package elab

import (
	"strconv"

	"github.com/db47h/svsim/ast"
)

// Cloning with genvar substitution. Every reference to the genvar becomes a
// number literal carrying the current iteration value. Clones are owned by
// the ElabModule they are created for.

func cloneExprSubst(e *ast.Expr, genvar string, value int64) *ast.Expr {
	if e == nil {
		return nil
	}

	number := func() *ast.Expr {
		return &ast.Expr{
			Pos:     e.Pos,
			Kind:    ast.ExprNumber,
			Literal: strconv.FormatInt(value, 10),
		}
	}

	switch e.Kind {
	case ast.ExprIdent:
		if e.Ident == genvar {
			return number()
		}
		return &ast.Expr{Pos: e.Pos, Kind: ast.ExprIdent, Ident: e.Ident}

	case ast.ExprNumber, ast.ExprString:
		return &ast.Expr{Pos: e.Pos, Kind: e.Kind, Literal: e.Literal}

	case ast.ExprUnary:
		return &ast.Expr{
			Pos:     e.Pos,
			Kind:    ast.ExprUnary,
			UnOp:    e.UnOp,
			Operand: cloneExprSubst(e.Operand, genvar, value),
		}

	case ast.ExprBinary:
		return &ast.Expr{
			Pos:   e.Pos,
			Kind:  ast.ExprBinary,
			BinOp: e.BinOp,
			LHS:   cloneExprSubst(e.LHS, genvar, value),
			RHS:   cloneExprSubst(e.RHS, genvar, value),
		}

	case ast.ExprTernary:
		return &ast.Expr{
			Pos:  e.Pos,
			Kind: ast.ExprTernary,
			Cond: cloneExprSubst(e.Cond, genvar, value),
			Then: cloneExprSubst(e.Then, genvar, value),
			Else: cloneExprSubst(e.Else, genvar, value),
		}

	case ast.ExprConcat:
		out := &ast.Expr{Pos: e.Pos, Kind: ast.ExprConcat}
		for _, el := range e.Elems {
			out.Elems = append(out.Elems, cloneExprSubst(el, genvar, value))
		}
		return out

	case ast.ExprReplicate:
		out := &ast.Expr{
			Pos:      e.Pos,
			Kind:     ast.ExprReplicate,
			RepCount: cloneExprSubst(e.RepCount, genvar, value),
		}
		for _, el := range e.RepElems {
			out.RepElems = append(out.RepElems, cloneExprSubst(el, genvar, value))
		}
		return out

	case ast.ExprBitSelect:
		return &ast.Expr{
			Pos:  e.Pos,
			Kind: ast.ExprBitSelect,
			LHS:  cloneExprSubst(e.LHS, genvar, value),
			RHS:  cloneExprSubst(e.RHS, genvar, value),
		}
	}

	return &ast.Expr{Pos: e.Pos, Kind: e.Kind}
}

func cloneStmtSubst(s *ast.Stmt, genvar string, value int64) *ast.Stmt {
	if s == nil {
		return nil
	}
	out := &ast.Stmt{Pos: s.Pos, Kind: s.Kind, Label: s.Label}

	switch s.Kind {
	case ast.StmtNull:

	case ast.StmtBlock:
		for _, sub := range s.Block {
			out.Block = append(out.Block, cloneStmtSubst(sub, genvar, value))
		}

	case ast.StmtIf:
		out.Cond = cloneExprSubst(s.Cond, genvar, value)
		out.Then = cloneStmtSubst(s.Then, genvar, value)
		out.Else = cloneStmtSubst(s.Else, genvar, value)

	case ast.StmtCase:
		out.CaseKind = s.CaseKind
		out.CaseExpr = cloneExprSubst(s.CaseExpr, genvar, value)
		for _, ci := range s.CaseItems {
			nci := ast.CaseItem{Body: cloneStmtSubst(ci.Body, genvar, value)}
			for _, m := range ci.Matches {
				nci.Matches = append(nci.Matches, cloneExprSubst(m, genvar, value))
			}
			out.CaseItems = append(out.CaseItems, nci)
		}

	case ast.StmtBlocking, ast.StmtNonBlocking:
		out.LHS = cloneExprSubst(s.LHS, genvar, value)
		out.RHS = cloneExprSubst(s.RHS, genvar, value)

	case ast.StmtDelay:
		out.DelayExpr = cloneExprSubst(s.DelayExpr, genvar, value)
		out.DelayBody = cloneStmtSubst(s.DelayBody, genvar, value)

	case ast.StmtExpr:
		out.Expr = cloneExprSubst(s.Expr, genvar, value)
	}

	return out
}

func cloneAlwaysSubst(a *ast.Always, genvar string, value int64) *ast.Always {
	out := &ast.Always{
		Pos:        a.Pos,
		Kind:       a.Kind,
		HasControl: a.HasControl,
		Body:       cloneStmtSubst(a.Body, genvar, value),
	}
	for _, si := range a.Sensitivity {
		out.Sensitivity = append(out.Sensitivity, ast.SensItem{
			Posedge: si.Posedge,
			Negedge: si.Negedge,
			Star:    si.Star,
			Expr:    cloneExprSubst(si.Expr, genvar, value),
		})
	}
	return out
}

func cloneItemSubst(mi *ast.ModuleItem, genvar string, value int64) *ast.ModuleItem {
	out := &ast.ModuleItem{Pos: mi.Pos, Kind: mi.Kind}

	switch mi.Kind {
	case ast.ItemNet:
		if mi.Net != nil {
			out.Net = &ast.NetDecl{
				Pos:  mi.Net.Pos,
				Type: mi.Net.Type,
				Name: mi.Net.Name,
				Init: cloneExprSubst(mi.Net.Init, genvar, value),
			}
		}

	case ast.ItemVar:
		if mi.Var != nil {
			out.Var = &ast.VarDecl{
				Pos:  mi.Var.Pos,
				Type: mi.Var.Type,
				Name: mi.Var.Name,
				Init: cloneExprSubst(mi.Var.Init, genvar, value),
			}
		}

	case ast.ItemParam:
		if mi.Param != nil {
			out.Param = &ast.ParamDecl{
				Pos:   mi.Param.Pos,
				Name:  mi.Param.Name,
				Value: cloneExprSubst(mi.Param.Value, genvar, value),
				Local: mi.Param.Local,
			}
		}

	case ast.ItemAssign:
		if mi.Assign != nil {
			out.Assign = &ast.ContAssign{
				Pos: mi.Assign.Pos,
				LHS: cloneExprSubst(mi.Assign.LHS, genvar, value),
				RHS: cloneExprSubst(mi.Assign.RHS, genvar, value),
			}
		}

	case ast.ItemAlways:
		if mi.Always != nil {
			out.Always = cloneAlwaysSubst(mi.Always, genvar, value)
		}

	case ast.ItemInitial:
		if mi.Initial != nil {
			out.Initial = &ast.Initial{
				Pos:  mi.Initial.Pos,
				Body: cloneStmtSubst(mi.Initial.Body, genvar, value),
			}
		}

	case ast.ItemInstance:
		if mi.Inst != nil {
			inst := &ast.Instance{
				Pos:    mi.Inst.Pos,
				Module: mi.Inst.Module,
				Name:   mi.Inst.Name,
			}
			for _, ov := range mi.Inst.ParamOverrides {
				inst.ParamOverrides = append(inst.ParamOverrides, ast.ParamOverride{
					Name:  ov.Name,
					Value: cloneExprSubst(ov.Value, genvar, value),
				})
			}
			for _, pc := range mi.Inst.PortConns {
				inst.PortConns = append(inst.PortConns, ast.PortConn{
					Port: pc.Port,
					Expr: cloneExprSubst(pc.Expr, genvar, value),
				})
			}
			out.Inst = inst
		}

	case ast.ItemGenerate, ast.ItemGenvar:
		// nested generates are re-expanded, not cloned
		out.Gen = mi.Gen
		out.Genvar = mi.Genvar
	}

	return out
}
