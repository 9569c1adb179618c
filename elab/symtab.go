// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package elab

import "github.com/db47h/svsim/ast"

// A SymbolKind classifies a declared name.
//
type SymbolKind int

const (
	SymNet SymbolKind = iota
	SymVar
	SymParam
	SymPort
	SymGenvar
	SymModule
)

// A Symbol is one declared name and the AST node that declared it.
//
type Symbol struct {
	Kind SymbolKind
	Name string
	Decl interface{}
}

// A Scope maps names to symbols, with lexical chaining to a parent scope.
//
type Scope struct {
	parent *Scope
	table  map[string]Symbol
}

// NewScope returns a scope nested in parent (which may be nil).
//
func NewScope(parent *Scope) *Scope {
	return &Scope{parent: parent, table: make(map[string]Symbol)}
}

// Add declares sym in s. It reports false when the name is already
// declared in this scope.
//
func (s *Scope) Add(sym Symbol) bool {
	if _, ok := s.table[sym.Name]; ok {
		return false
	}
	s.table[sym.Name] = sym
	return true
}

// Lookup resolves name in s or the nearest enclosing scope.
//
func (s *Scope) Lookup(name string) (Symbol, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if sym, ok := sc.table[name]; ok {
			return sym, true
		}
	}
	return Symbol{}, false
}

// A SymbolTable indexes a design's modules and each module's declarations.
//
type SymbolTable struct {
	modules map[string]Symbol
	scopes  map[string]*Scope
}

// BuildSymbols indexes every module of design along with a per-module scope
// holding its ports, parameters, nets, variables and genvars.
//
func BuildSymbols(design *ast.Design) *SymbolTable {
	st := &SymbolTable{
		modules: make(map[string]Symbol, len(design.Modules)),
		scopes:  make(map[string]*Scope, len(design.Modules)),
	}
	for _, m := range design.Modules {
		st.modules[m.Name] = Symbol{Kind: SymModule, Name: m.Name, Decl: m}

		sc := NewScope(nil)
		for _, p := range m.Ports {
			sc.Add(Symbol{Kind: SymPort, Name: p.Name, Decl: p})
		}
		for _, p := range m.Params {
			sc.Add(Symbol{Kind: SymParam, Name: p.Name, Decl: p})
		}
		for _, item := range m.Items {
			switch item.Kind {
			case ast.ItemNet:
				if item.Net != nil {
					sc.Add(Symbol{Kind: SymNet, Name: item.Net.Name, Decl: item.Net})
				}
			case ast.ItemVar:
				if item.Var != nil {
					sc.Add(Symbol{Kind: SymVar, Name: item.Var.Name, Decl: item.Var})
				}
			case ast.ItemParam:
				if item.Param != nil {
					sc.Add(Symbol{Kind: SymParam, Name: item.Param.Name, Decl: item.Param})
				}
			case ast.ItemGenvar:
				sc.Add(Symbol{Kind: SymGenvar, Name: item.Genvar, Decl: item})
			}
		}
		st.scopes[m.Name] = sc
	}
	return st
}

// LookupModule resolves a module by name.
//
func (st *SymbolTable) LookupModule(name string) (*ast.Module, bool) {
	sym, ok := st.modules[name]
	if !ok {
		return nil, false
	}
	m, ok := sym.Decl.(*ast.Module)
	return m, ok
}

// ModuleScope returns the declaration scope of a module, or nil.
//
func (st *SymbolTable) ModuleScope(name string) *Scope {
	return st.scopes[name]
}
