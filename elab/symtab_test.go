package elab

import (
	"testing"

	"github.com/db47h/svsim/ast"
)

func TestSymbolTable(t *testing.T) {
	d := &ast.Design{Modules: []*ast.Module{
		{
			Name:   "top",
			Params: []*ast.ParamDecl{{Name: "W", Value: num("4")}},
			Ports:  []*ast.Port{{Name: "clk"}},
			Items: []*ast.ModuleItem{
				{Kind: ast.ItemNet, Net: &ast.NetDecl{Name: "a"}},
				{Kind: ast.ItemVar, Var: &ast.VarDecl{Name: "q"}},
				{Kind: ast.ItemGenvar, Genvar: "i"},
			},
		},
		{Name: "sub"},
	}}

	st := BuildSymbols(d)

	if m, ok := st.LookupModule("sub"); !ok || m.Name != "sub" {
		t.Fatalf("LookupModule(sub) = %v, %v", m, ok)
	}
	if _, ok := st.LookupModule("nope"); ok {
		t.Fatal("LookupModule(nope) succeeded")
	}

	sc := st.ModuleScope("top")
	if sc == nil {
		t.Fatal("no scope for top")
	}
	for _, tt := range []struct {
		name string
		kind SymbolKind
	}{
		{"clk", SymPort},
		{"W", SymParam},
		{"a", SymNet},
		{"q", SymVar},
		{"i", SymGenvar},
	} {
		sym, ok := sc.Lookup(tt.name)
		if !ok || sym.Kind != tt.kind {
			t.Errorf("Lookup(%s) = %+v, %v; want kind %d", tt.name, sym, ok, tt.kind)
		}
	}
	if _, ok := sc.Lookup("ghost"); ok {
		t.Error("Lookup(ghost) succeeded")
	}
}

func TestScopeChaining(t *testing.T) {
	outer := NewScope(nil)
	outer.Add(Symbol{Kind: SymParam, Name: "W"})
	inner := NewScope(outer)
	inner.Add(Symbol{Kind: SymGenvar, Name: "i"})

	if sym, ok := inner.Lookup("W"); !ok || sym.Kind != SymParam {
		t.Fatalf("inner Lookup(W) = %+v, %v", sym, ok)
	}
	if _, ok := outer.Lookup("i"); ok {
		t.Fatal("outer scope sees inner symbol")
	}
	// shadowing within one scope is rejected
	if inner.Add(Symbol{Kind: SymNet, Name: "i"}) {
		t.Fatal("duplicate Add succeeded")
	}
}
