// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package svsim

import (
	"github.com/pkg/errors"

	"github.com/db47h/svsim/logic"
	"github.com/db47h/svsim/rtl"
)

// LoadDesign resets the kernel and wires it to a lowered design: every
// declared net gets an X-filled signal of its declared width, processes are
// built as owned closures, watchers are registered per the sensitivity
// rules, and every process is scheduled once at (0, Active) so initial
// state effects settle. When a waveform sink is attached, all signals are
// declared and the header is written.
//
func (k *Kernel) LoadDesign(design *rtl.Design) error {
	if design == nil {
		return errors.New("nil design")
	}
	k.reset()
	k.design = design

	for _, mod := range design.Modules {
		for _, net := range mod.Nets {
			k.setSignal(net.Name, logic.New(net.Type.Width(), logic.LX))
		}
	}

	for _, mod := range design.Modules {
		for i := range mod.ContAssigns {
			k.loadContAssign(&mod.ContAssigns[i])
		}
		for _, p := range mod.Processes {
			k.loadProcess(p)
		}
		for i := range mod.Gates {
			k.loadGate(&mod.Gates[i])
		}
	}

	if k.wave != nil {
		for _, name := range k.sigOrder {
			k.wave.AddSignal(name, k.signals[name].Width())
		}
		k.wave.WriteHeader()
	}
	return nil
}

// loadContAssign synthesizes a process for a continuous assignment. The
// process level-watches every identifier of the right hand side.
func (k *Kernel) loadContAssign(a *rtl.Assign) {
	rhs := a.RHS
	lhs := a.LHS
	proc := NewProcess(func(k *Kernel) {
		k.Drive(lhs, k.evalExpr(rhs), false)
	}, Active)
	k.procs = append(k.procs, proc)

	for _, dep := range rhs.Refs(nil) {
		k.registerLevel(dep, proc)
	}
	k.Schedule(proc.run, 0, Active)
}

// loadProcess builds the closure for an always or initial construct.
//
//   - initial: scheduled once at (0, Active), no watchers;
//   - always with sensitivity: registered in the watcher maps and also
//     scheduled once at (0, Active) to run initial-state effects;
//   - always with the synthetic "*" level entry: level watchers for every
//     signal referenced by the body's right hand sides;
//   - always with no sensitivity at all: free running (for example
//     `always #5 clk = ~clk`), scheduled once and restarted by the thread
//     loop after each pass.
//
func (k *Kernel) loadProcess(p *rtl.Process) {
	proc := NewProcess(k.processBody(p), Active)
	k.procs = append(k.procs, proc)

	if p.Kind == rtl.Always {
		for _, s := range p.Sensitivity {
			switch {
			case s.Kind == rtl.Level && s.Signal == "*":
				for _, dep := range k.rhsDeps(p) {
					k.registerLevel(dep, proc)
				}
			case s.Kind == rtl.Level:
				k.registerLevel(s.Signal, proc)
			case s.Kind == rtl.Posedge:
				k.registerPosedge(s.Signal, proc)
			case s.Kind == rtl.Negedge:
				k.registerNegedge(s.Signal, proc)
			}
		}
	}

	k.Schedule(proc.run, 0, Active)
}

// processBody returns the executable body for p: the statement chain when
// one was built, else the legacy flattened assignment list.
func (k *Kernel) processBody(p *rtl.Process) ProcessFn {
	if p.First != nil {
		return func(k *Kernel) {
			k.execThread(thread{stmt: p.First, owner: p, entry: p.First})
		}
	}
	assigns := p.Assigns
	return func(k *Kernel) {
		for i := range assigns {
			a := &assigns[i]
			k.Drive(a.LHS, k.evalExpr(a.RHS), a.Kind == rtl.NonBlocking)
		}
	}
}

// rhsDeps collects every signal referenced by the right hand sides of p's
// body, for @* inference.
func (k *Kernel) rhsDeps(p *rtl.Process) []string {
	var names []string
	for i := range p.Assigns {
		names = p.Assigns[i].RHS.Refs(names)
	}
	for _, s := range p.Stmts {
		if s.Kind == rtl.StmtBlocking || s.Kind == rtl.StmtNonBlocking {
			names = s.RHS.Refs(names)
		}
	}
	return dedup(names)
}

func dedup(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := names[:0]
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

// loadGate synthesizes a combinational process for a primitive gate. Gates
// operate on bit 0 of their scalar inputs and level-watch all of them.
func (k *Kernel) loadGate(g *rtl.Gate) {
	gate := *g
	proc := NewProcess(func(k *Kernel) {
		bit := func(name string) logic.State {
			v := k.signalValue(name)
			if v.Width() == 0 {
				return logic.LX
			}
			return v.Bit(0)
		}

		var out logic.State
		switch gate.Kind {
		case rtl.GateAnd, rtl.GateNand:
			out = logic.L1
			for _, in := range gate.Inputs {
				out = out.And(bit(in))
			}
			if gate.Kind == rtl.GateNand {
				out = out.Not()
			}
		case rtl.GateOr, rtl.GateNor:
			out = logic.L0
			for _, in := range gate.Inputs {
				out = out.Or(bit(in))
			}
			if gate.Kind == rtl.GateNor {
				out = out.Not()
			}
		case rtl.GateXor, rtl.GateXnor:
			out = logic.L0
			for _, in := range gate.Inputs {
				out = out.Xor(bit(in))
			}
			if gate.Kind == rtl.GateXnor {
				out = out.Not()
			}
		case rtl.GateNot:
			out = logic.LX
			if len(gate.Inputs) > 0 {
				out = bit(gate.Inputs[0]).Not()
			}
		case rtl.GateBuf:
			out = logic.LX
			if len(gate.Inputs) > 0 {
				out = bit(gate.Inputs[0])
			}
		default:
			out = logic.LX
		}

		k.Drive(gate.Out, logic.New(1, out), false)
	}, Active)
	k.procs = append(k.procs, proc)

	for _, in := range g.Inputs {
		k.registerLevel(in, proc)
	}
	k.Schedule(proc.run, 0, Active)
}

// Watcher registration. Every watched signal is guaranteed an entry in the
// signal store.

func (k *Kernel) registerLevel(sig string, p *Process) {
	if sig == "" || p == nil {
		return
	}
	k.ensureSignal(sig)
	k.levelWatchers[sig] = append(k.levelWatchers[sig], p)
}

func (k *Kernel) registerPosedge(sig string, p *Process) {
	if sig == "" || p == nil {
		return
	}
	k.ensureSignal(sig)
	k.posedgeWatchers[sig] = append(k.posedgeWatchers[sig], p)
}

func (k *Kernel) registerNegedge(sig string, p *Process) {
	if sig == "" || p == nil {
		return
	}
	k.ensureSignal(sig)
	k.negedgeWatchers[sig] = append(k.negedgeWatchers[sig], p)
}

func (k *Kernel) ensureSignal(name string) {
	if _, ok := k.signals[name]; !ok {
		k.setSignal(name, logic.New(1, logic.LX))
	}
}
