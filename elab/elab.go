// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package elab

import (
	"strconv"

	"github.com/pkg/errors"

	"github.com/db47h/svsim/ast"
)

// A Param is a resolved parameter: its name, its printable value, and its
// integer value when the initializer folds to a constant.
//
type Param struct {
	Name     string
	ValueStr string
	HasInt   bool
	IntValue int64
}

// A Net is an elaborated net or variable record.
//
type Net struct {
	Name string
	Type ast.DataType
}

// An Instance is an elaborated module instantiation with its resolved
// parameters and port bindings.
//
type Instance struct {
	ModuleName   string
	InstanceName string
	Params       []Param
	PortConns    []PortConn
}

// A PortConn binds a port name to a signal name. Connections that are not
// plain identifiers bind to the empty string.
//
type PortConn struct {
	Port   string
	Signal string
}

// A Module is one elaborated module: generates expanded, parameters
// resolved, with a flat item list for the IR builder. Cloned generated items
// are owned by the module through Generated, so flat item references stay
// valid for the module's lifetime.
//
type Module struct {
	Name      string
	Params    []Param
	Nets      []Net
	Instances []Instance
	FlatItems []*ast.ModuleItem
	Generated []*ast.ModuleItem
	Diags     []string

	env Env
}

// Env returns the module's parameter environment.
//
func (m *Module) Env() Env { return m.env }

// A Design is the elaboration result, one Module per source module.
//
type Design struct {
	Modules map[string]*Module
	Order   []string
}

// Module returns the elaborated module named name, or nil.
//
func (d *Design) Module(name string) *Module {
	return d.Modules[name]
}

// Elaborate expands every module of design. Elaboration is lenient: items
// it cannot handle pass through with a diagnostic recorded on the owning
// module; it fails only on broken invariants such as an empty genvar name.
//
func Elaborate(design *ast.Design) (*Design, error) {
	if design == nil {
		return nil, errors.New("nil design")
	}
	symtab := BuildSymbols(design)
	out := &Design{Modules: make(map[string]*Module, len(design.Modules))}
	for _, m := range design.Modules {
		em, err := elaborateModule(symtab, m)
		if err != nil {
			return nil, errors.Wrap(err, "module "+m.Name)
		}
		out.Modules[m.Name] = em
		out.Order = append(out.Order, m.Name)
	}
	return out, nil
}

func elaborateModule(symtab *SymbolTable, mod *ast.Module) (*Module, error) {
	em := &Module{Name: mod.Name, env: make(Env)}

	// Default parameter environment, in declaration order. Each initializer
	// sees the parameters declared before it.
	for _, p := range mod.Params {
		em.addParam(p)
	}

	// Phase 1: flatten. Generates expand in place; everything else is
	// appended by reference in source order.
	for _, item := range mod.Items {
		switch item.Kind {
		case ast.ItemGenerate:
			if item.Gen != nil {
				if err := em.expandGenerate(item.Gen, em.env); err != nil {
					return nil, err
				}
			}
		case ast.ItemParam:
			if item.Param != nil {
				em.addParam(item.Param)
			}
			em.FlatItems = append(em.FlatItems, item)
		case ast.ItemGenvar:
			if item.Genvar == "" {
				return nil, errors.New("empty genvar name at " + item.Pos.String())
			}
			em.FlatItems = append(em.FlatItems, item)
		default:
			em.FlatItems = append(em.FlatItems, item)
		}
	}

	// Phase 2: inventory. Ports come first, then net, var and instance
	// records from the flat item list, so generated clones are inventoried
	// like source items. A body redeclaration of a port name refines the
	// port's type instead of adding a second net.
	declared := make(map[string]int)
	addNet := func(name string, typ ast.DataType) {
		if i, ok := declared[name]; ok {
			em.Nets[i].Type = typ
			return
		}
		declared[name] = len(em.Nets)
		em.Nets = append(em.Nets, Net{Name: name, Type: typ})
	}
	for _, port := range mod.Ports {
		addNet(port.Name, port.Type)
	}
	for _, item := range em.FlatItems {
		switch item.Kind {
		case ast.ItemNet:
			if item.Net != nil {
				addNet(item.Net.Name, item.Net.Type)
			}
		case ast.ItemVar:
			if item.Var != nil {
				addNet(item.Var.Name, item.Var.Type)
			}
		case ast.ItemInstance:
			if item.Inst != nil {
				em.Instances = append(em.Instances, em.elabInstance(symtab, item.Inst))
			}
		case ast.ItemParam, ast.ItemGenvar, ast.ItemAssign, ast.ItemAlways, ast.ItemInitial:
			// consumed by the IR builder
		default:
			em.diagf(item.Pos, "unhandled module item kind %d", int(item.Kind))
		}
	}

	return em, nil
}

func (em *Module) addParam(p *ast.ParamDecl) {
	ep := Param{Name: p.Name}
	if v, ok := EvalConst(p.Value, em.env); ok {
		ep.HasInt = true
		ep.IntValue = v
		ep.ValueStr = strconv.FormatInt(v, 10)
		em.env[p.Name] = v
	} else if p.Value != nil && p.Value.Kind == ast.ExprNumber {
		ep.ValueStr = p.Value.Literal
	}
	em.Params = append(em.Params, ep)
}

// elabInstance resolves an instance's parameters: start from the target
// module's defaults, then apply .NAME(expr) overrides in source order, each
// evaluated in the instantiating module's environment. Only one hop of
// override is propagated.
func (em *Module) elabInstance(symtab *SymbolTable, inst *ast.Instance) Instance {
	ei := Instance{ModuleName: inst.Module, InstanceName: inst.Name}

	target, _ := symtab.LookupModule(inst.Module)
	resolved := make(map[string]int64)
	var order []string
	if target != nil {
		tenv := make(Env)
		for _, p := range target.Params {
			if v, ok := EvalConst(p.Value, tenv); ok {
				tenv[p.Name] = v
				resolved[p.Name] = v
			}
			order = append(order, p.Name)
		}
	}

	for _, ov := range inst.ParamOverrides {
		v, ok := EvalConst(ov.Value, em.env)
		if !ok {
			em.diagf(inst.Pos, "instance %s: parameter override %s is not constant",
				inst.Name, ov.Name)
			continue
		}
		if _, known := resolved[ov.Name]; !known && target != nil {
			if !hasParam(target, ov.Name) {
				em.diagf(inst.Pos, "instance %s: unknown parameter %s", inst.Name, ov.Name)
				continue
			}
			order = appendUnique(order, ov.Name)
		}
		if target == nil {
			order = appendUnique(order, ov.Name)
		}
		resolved[ov.Name] = v
	}

	for _, name := range order {
		v, ok := resolved[name]
		p := Param{Name: name}
		if ok {
			p.HasInt = true
			p.IntValue = v
			p.ValueStr = strconv.FormatInt(v, 10)
		}
		ei.Params = append(ei.Params, p)
	}

	for _, pc := range inst.PortConns {
		sig := ""
		if pc.Expr != nil && pc.Expr.Kind == ast.ExprIdent {
			sig = pc.Expr.Ident
		}
		ei.PortConns = append(ei.PortConns, PortConn{Port: pc.Port, Signal: sig})
	}

	return ei
}

func hasParam(m *ast.Module, name string) bool {
	for _, p := range m.Params {
		if p.Name == name {
			return true
		}
	}
	return false
}

func appendUnique(ss []string, s string) []string {
	for _, e := range ss {
		if e == s {
			return ss
		}
	}
	return append(ss, s)
}

func (em *Module) diagf(pos ast.Pos, format string, args ...interface{}) {
	em.Diags = append(em.Diags, pos.String()+": "+errors.Errorf(format, args...).Error())
}
