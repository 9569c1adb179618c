// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package svsim

import (
	"github.com/db47h/svsim/logic"
	"github.com/db47h/svsim/rtl"
)

// evalExpr evaluates an RTL expression against the signal store. A
// reference reads the signal at its stored width; missing signals read as a
// 1-bit X.
func (k *Kernel) evalExpr(e *rtl.Expr) logic.Value {
	if e == nil {
		return logic.New(1, logic.LX)
	}

	switch e.Kind {
	case rtl.Ref:
		return k.signalValue(e.RefName)

	case rtl.Const:
		return logic.ParseLiteral(e.Literal)

	case rtl.Unary:
		op := k.evalExpr(e.Operand)
		switch e.UnOp {
		case rtl.UnPlus:
			return op
		case rtl.UnMinus:
			return logic.Neg(op)
		case rtl.UnNot:
			return logic.LogNot(op)
		case rtl.UnBitNot:
			return logic.BitNot(op)
		}
		return logic.New(op.Width(), logic.LX)

	case rtl.Binary:
		lhs := k.evalExpr(e.LHS)
		rhs := k.evalExpr(e.RHS)
		switch e.BinOp {
		case rtl.Add:
			return logic.Add(lhs, rhs)
		case rtl.Sub:
			return logic.Sub(lhs, rhs)
		case rtl.Mul:
			return logic.Mul(lhs, rhs)
		case rtl.Div:
			return logic.Div(lhs, rhs)
		case rtl.Mod:
			return logic.Mod(lhs, rhs)
		case rtl.And:
			return logic.BitAnd(lhs, rhs)
		case rtl.Or:
			return logic.BitOr(lhs, rhs)
		case rtl.Xor:
			return logic.BitXor(lhs, rhs)
		case rtl.LogAnd:
			return logic.LogAnd(lhs, rhs)
		case rtl.LogOr:
			return logic.LogOr(lhs, rhs)
		case rtl.Eq, rtl.CaseEq:
			return logic.Eq(lhs, rhs)
		case rtl.Neq, rtl.CaseNeq:
			return logic.Neq(lhs, rhs)
		case rtl.Lt:
			return logic.Lt(lhs, rhs)
		case rtl.Gt:
			return logic.Gt(lhs, rhs)
		case rtl.Le:
			return logic.Le(lhs, rhs)
		case rtl.Ge:
			return logic.Ge(lhs, rhs)
		case rtl.Shl, rtl.Ashl:
			return logic.Shl(lhs, rhs)
		case rtl.Shr, rtl.Ashr:
			return logic.Shr(lhs, rhs)
		}
	}

	return logic.New(1, logic.LX)
}

// evalDelay evaluates a delay expression to a tick count.
func (k *Kernel) evalDelay(e *rtl.Expr) uint64 {
	return k.evalExpr(e).Uint64()
}

// A thread is one execution of a process's statement chain. entry is the
// chain head, kept for the free-running restart.
type thread struct {
	stmt  *rtl.Stmt
	owner *rtl.Process
	entry *rtl.Stmt
}

// hasDelay reports whether p's arena contains a delay statement. A free
// running process without one would restart forever without yielding, so it
// is not restarted.
func hasDelay(p *rtl.Process) bool {
	for _, s := range p.Stmts {
		if s.Kind == rtl.StmtDelay {
			return true
		}
	}
	return false
}

// execThread runs a thread until it suspends on a delay, finishes the
// simulation, or falls off the end of its chain. A process with no
// sensitivity restarts from its entry when the chain ends: that is the free
// running self-delay loop (`always #5 clk = ~clk`), and it always yields
// through a delay before re-entering, so it cannot starve peers.
func (k *Kernel) execThread(th thread) {
	for {
		s := th.stmt
		if s == nil {
			if th.owner != nil && th.owner.Kind == rtl.Always &&
				len(th.owner.Sensitivity) == 0 && hasDelay(th.owner) {
				th.stmt = th.entry
				continue
			}
			return
		}

		switch s.Kind {
		case rtl.StmtBlocking:
			k.Drive(s.LHS, k.evalExpr(s.RHS), false)
			th.stmt = s.Next

		case rtl.StmtNonBlocking:
			k.Drive(s.LHS, k.evalExpr(s.RHS), true)
			th.stmt = s.Next

		case rtl.StmtDelay:
			d := k.evalDelay(s.DelayExpr)
			cont := thread{stmt: s.DelayBody, owner: th.owner, entry: th.entry}
			k.Schedule(func(k *Kernel) {
				k.execThread(cont)
			}, d, Active)
			return

		case rtl.StmtFinish:
			k.Stop()
			return

		default:
			return
		}
	}
}
