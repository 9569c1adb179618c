// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package elab

import (
	"github.com/pkg/errors"

	"github.com/db47h/svsim/ast"
)

// expandGenerate flattens one generate construct into em.FlatItems.
//
//   - blocks append their items in order, recursing into nested generates;
//   - if takes the branch selected by the const-folded predicate, and
//     includes neither branch when the predicate is not constant;
//   - the restricted for form i = C0; i < C1; i = i + C2 unrolls by cloning
//     the body with the genvar substituted (a zero step ends the loop);
//   - case includes the first alternative whose match folds equal to the
//     selector, with the default as last resort.
//
func (em *Module) expandGenerate(gi *ast.GenItem, env Env) error {
	switch gi.Kind {
	case ast.GenBlock:
		for _, mi := range gi.Items {
			if mi.Kind == ast.ItemGenerate && mi.Gen != nil {
				if err := em.expandGenerate(mi.Gen, env); err != nil {
					return err
				}
				continue
			}
			em.appendFlat(mi)
		}
		return nil

	case ast.GenIf:
		c, ok := EvalConst(gi.Cond, env)
		if !ok {
			em.diagf(gi.Pos, "generate if: condition is not constant; dropping both branches")
			return nil
		}
		branch := gi.Then
		if c == 0 {
			branch = gi.Else
		}
		if branch != nil {
			return em.expandGenerate(branch, env)
		}
		return nil

	case ast.GenFor:
		return em.expandGenerateFor(gi, env)

	case ast.GenCase:
		sel, ok := EvalConst(gi.CaseExpr, env)
		if !ok {
			em.diagf(gi.Pos, "generate case: selector is not constant; dropping")
			return nil
		}
		var deflt *ast.GenItem
		for i := range gi.CaseItems {
			ci := &gi.CaseItems[i]
			if len(ci.Matches) == 0 {
				if deflt == nil {
					deflt = ci.Body
				}
				continue
			}
			for _, m := range ci.Matches {
				if v, ok := EvalConst(m, env); ok && v == sel {
					if ci.Body != nil {
						return em.expandGenerate(ci.Body, env)
					}
					return nil
				}
			}
		}
		if deflt != nil {
			return em.expandGenerate(deflt, env)
		}
		return nil
	}

	em.diagf(gi.Pos, "unhandled generate construct kind %d", int(gi.Kind))
	return nil
}

// expandGenerateFor recognizes the restricted loop header and unrolls the
// body once per iteration value. Body items are cloned with the genvar
// substituted by the iteration literal; the clones are owned by the module.
// Nested generates in the body are re-expanded under an environment that
// binds the genvar instead.
func (em *Module) expandGenerateFor(gi *ast.GenItem, env Env) error {
	if gi.Genvar == "" {
		return errors.New("generate for with empty genvar name at " + gi.Pos.String())
	}
	if gi.ForInit == nil || gi.ForCond == nil || gi.ForStep == nil || gi.ForBody == nil {
		em.diagf(gi.Pos, "generate for: incomplete header; dropping")
		return nil
	}

	start, ok := forAssignTo(gi.ForInit, gi.Genvar, env)
	if !ok {
		em.diagf(gi.Pos, "generate for: unsupported init form; dropping")
		return nil
	}

	cond := gi.ForCond
	if cond.Kind != ast.ExprBinary || cond.BinOp != ast.OpLt ||
		cond.LHS == nil || cond.LHS.Kind != ast.ExprIdent || cond.LHS.Ident != gi.Genvar {
		em.diagf(gi.Pos, "generate for: unsupported condition form; dropping")
		return nil
	}
	limit, ok := EvalConst(cond.RHS, env)
	if !ok {
		em.diagf(gi.Pos, "generate for: condition bound is not constant; dropping")
		return nil
	}

	step, ok := forStepOf(gi.ForStep, gi.Genvar, env)
	if !ok {
		em.diagf(gi.Pos, "generate for: unsupported step form; dropping")
		return nil
	}
	if step == 0 {
		return nil
	}

	for v := start; v < limit; v += step {
		if gi.ForBody.Kind == ast.GenBlock {
			for _, mi := range gi.ForBody.Items {
				if mi.Kind == ast.ItemGenerate && mi.Gen != nil {
					sub := env.Clone()
					sub[gi.Genvar] = v
					if err := em.expandGenerate(mi.Gen, sub); err != nil {
						return err
					}
					continue
				}
				clone := cloneItemSubst(mi, gi.Genvar, v)
				em.Generated = append(em.Generated, clone)
				em.appendFlat(clone)
			}
		} else {
			sub := env.Clone()
			sub[gi.Genvar] = v
			if err := em.expandGenerate(gi.ForBody, sub); err != nil {
				return err
			}
		}
	}
	return nil
}

// forAssignTo matches `genvar = expr` and folds the right side.
func forAssignTo(e *ast.Expr, genvar string, env Env) (int64, bool) {
	if e == nil || e.Kind != ast.ExprBinary || e.BinOp != ast.OpAssign ||
		e.LHS == nil || e.LHS.Kind != ast.ExprIdent || e.LHS.Ident != genvar {
		return 0, false
	}
	return EvalConst(e.RHS, env)
}

// forStepOf matches `genvar = genvar + expr` and folds the increment.
func forStepOf(e *ast.Expr, genvar string, env Env) (int64, bool) {
	if e == nil || e.Kind != ast.ExprBinary || e.BinOp != ast.OpAssign ||
		e.LHS == nil || e.LHS.Kind != ast.ExprIdent || e.LHS.Ident != genvar {
		return 0, false
	}
	rhs := e.RHS
	if rhs == nil || rhs.Kind != ast.ExprBinary || rhs.BinOp != ast.OpAdd ||
		rhs.LHS == nil || rhs.LHS.Kind != ast.ExprIdent || rhs.LHS.Ident != genvar {
		return 0, false
	}
	return EvalConst(rhs.RHS, env)
}

// appendFlat appends a flattened item, keeping the parameter environment up
// to date for param declarations that surface through generates.
func (em *Module) appendFlat(mi *ast.ModuleItem) {
	if mi.Kind == ast.ItemParam && mi.Param != nil {
		em.addParam(mi.Param)
	}
	em.FlatItems = append(em.FlatItems, mi)
}
