// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package rtl

import "github.com/db47h/svsim/ast"

// Statement chain construction. Nodes are allocated into a scratch arena
// and linked by index; finalize moves them into the process and patches the
// Next/DelayBody pointers in a second pass, so no consumer ever observes a
// half-linked graph.

const npos = -1

type linkKind int

const (
	linkNext linkKind = iota
	linkDelay
)

type link struct {
	from, to int
	kind     linkKind
}

type chainBuilder struct {
	b     *builder
	nodes []*Stmt
	links []link
}

// buildChain lowers a statement tree into p's arena and returns the head of
// the chain, or nil for an empty body.
func (b *builder) buildChain(body *ast.Stmt, p *Process) *Stmt {
	cb := &chainBuilder{b: b}
	head := cb.build(body, npos)
	return cb.finalize(p, head)
}

func (cb *chainBuilder) alloc(s *Stmt) int {
	cb.nodes = append(cb.nodes, s)
	return len(cb.nodes) - 1
}

// build lowers s, chaining it in front of tail. It returns the index of the
// head node for s, or tail when s contributes no nodes.
func (cb *chainBuilder) build(s *ast.Stmt, tail int) int {
	if s == nil {
		return tail
	}

	switch s.Kind {
	case ast.StmtNull:
		return tail

	case ast.StmtBlock:
		head := tail
		for i := len(s.Block) - 1; i >= 0; i-- {
			head = cb.build(s.Block[i], head)
		}
		return head

	case ast.StmtBlocking, ast.StmtNonBlocking:
		kind := StmtBlocking
		if s.Kind == ast.StmtNonBlocking {
			kind = StmtNonBlocking
		}
		idx := cb.alloc(&Stmt{
			Kind: kind,
			LHS:  cb.b.lvalueName(s.LHS, s.Pos),
			RHS:  cb.b.lowerExpr(s.RHS),
		})
		cb.links = append(cb.links, link{idx, tail, linkNext})
		return idx

	case ast.StmtDelay:
		idx := cb.alloc(&Stmt{
			Kind:      StmtDelay,
			DelayExpr: cb.b.lowerExpr(s.DelayExpr),
		})
		// the delayed body chains into the delay's successor on its own
		after := tail
		if s.DelayBody != nil {
			after = cb.build(s.DelayBody, tail)
		}
		cb.links = append(cb.links, link{idx, after, linkDelay})
		cb.links = append(cb.links, link{idx, tail, linkNext})
		return idx

	case ast.StmtExpr:
		if s.Expr != nil && s.Expr.Kind == ast.ExprIdent && s.Expr.Ident == "$finish" {
			idx := cb.alloc(&Stmt{Kind: StmtFinish})
			cb.links = append(cb.links, link{idx, tail, linkNext})
			return idx
		}
		return tail

	case ast.StmtIf:
		// no control flow IR: the leaf assignments of both branches are
		// wired linearly, then branch first
		cb.b.diag(s.Pos, "if statement lowered without control flow; branch bodies wired linearly")
		head := cb.build(s.Else, tail)
		return cb.build(s.Then, head)

	case ast.StmtCase:
		cb.b.diag(s.Pos, "case statement lowered without control flow; alternative bodies wired linearly")
		head := tail
		for i := len(s.CaseItems) - 1; i >= 0; i-- {
			head = cb.build(s.CaseItems[i].Body, head)
		}
		return head
	}

	return tail
}

// finalize moves the scratch nodes into the process arena and patches every
// Next and DelayBody pointer.
func (cb *chainBuilder) finalize(p *Process, head int) *Stmt {
	if len(cb.nodes) == 0 || head == npos {
		return nil
	}

	p.Stmts = append(p.Stmts, cb.nodes...)

	at := func(i int) *Stmt {
		if i == npos {
			return nil
		}
		return cb.nodes[i]
	}
	for _, ln := range cb.links {
		from := cb.nodes[ln.from]
		switch ln.kind {
		case linkNext:
			from.Next = at(ln.to)
		case linkDelay:
			from.DelayBody = at(ln.to)
		}
	}
	return at(head)
}
