package svsim_test

import (
	"testing"

	sv "github.com/db47h/svsim"
	"github.com/db47h/svsim/ast"
	"github.com/db47h/svsim/logic"
	"github.com/db47h/svsim/rtl"
)

// recorder captures waveform emissions for inspection.
type recorder struct {
	time    uint64
	samples map[string][]sample // per signal, in emission order
}

type sample struct {
	time  uint64
	value string
}

func newRecorder() *recorder {
	return &recorder{samples: make(map[string][]sample)}
}

func (r *recorder) AddSignal(name string, width int) {}
func (r *recorder) WriteHeader()                     {}
func (r *recorder) WriteTime(t uint64)               { r.time = t }
func (r *recorder) WriteValue(name string, v logic.Value) {
	r.samples[name] = append(r.samples[name], sample{time: r.time, value: v.String()})
}

// lastAt returns the final emitted value of a signal at time t.
func (r *recorder) lastAt(name string, t uint64) string {
	out := ""
	for _, s := range r.samples[name] {
		if s.time == t {
			out = s.value
		}
	}
	return out
}

func reg(name string, width int) rtl.Net {
	n := rtl.Net{Name: name, Type: ast.DataType{Kind: ast.TypeReg}}
	if width > 1 {
		n.Type.Packed = true
		n.Type.MSB = width - 1
		n.Type.LSB = 0
	}
	return n
}

func constExpr(lit string) *rtl.Expr { return &rtl.Expr{Kind: rtl.Const, Literal: lit} }
func refExpr(name string) *rtl.Expr { return &rtl.Expr{Kind: rtl.Ref, RefName: name} }
func notExpr(e *rtl.Expr) *rtl.Expr { return &rtl.Expr{Kind: rtl.Unary, UnOp: rtl.UnBitNot, Operand: e} }
func addExpr(a, b *rtl.Expr) *rtl.Expr {
	return &rtl.Expr{Kind: rtl.Binary, BinOp: rtl.Add, LHS: a, RHS: b}
}

// clockGen builds: initial clk = 0; always #5 clk = ~clk;
func clockGen() *rtl.Module {
	asg := &rtl.Stmt{Kind: rtl.StmtBlocking, LHS: "clk", RHS: notExpr(refExpr("clk"))}
	dly := &rtl.Stmt{Kind: rtl.StmtDelay, DelayExpr: constExpr("5"), DelayBody: asg}
	free := &rtl.Process{Kind: rtl.Always, Stmts: []*rtl.Stmt{dly, asg}, First: dly}

	init := &rtl.Process{Kind: rtl.Initial, Assigns: []rtl.Assign{
		{Kind: rtl.Blocking, LHS: "clk", RHS: constExpr("0")},
	}}

	return &rtl.Module{
		Name:      "top",
		Nets:      []rtl.Net{reg("clk", 1)},
		Processes: []*rtl.Process{init, free},
	}
}

func TestClockGenerator(t *testing.T) {
	k := sv.New()
	rec := newRecorder()
	k.SetWaveform(rec)
	if err := k.LoadDesign(&rtl.Design{Modules: []*rtl.Module{clockGen()}}); err != nil {
		t.Fatal(err)
	}
	k.Run(20)

	want := []struct {
		t   uint64
		val string
	}{
		{0, "0"}, {5, "1"}, {10, "0"}, {15, "1"}, {20, "0"},
	}
	for _, w := range want {
		if got := rec.lastAt("clk", w.t); got != w.val {
			t.Errorf("clk@%d = %q, want %q", w.t, got, w.val)
		}
	}
}

func TestFlipFlop(t *testing.T) {
	// always @(posedge clk) q <= d;
	nbaStmt := &rtl.Stmt{Kind: rtl.StmtNonBlocking, LHS: "q", RHS: refExpr("d")}
	ff := &rtl.Process{
		Kind:        rtl.Always,
		Sensitivity: []rtl.Sensitivity{{Kind: rtl.Posedge, Signal: "clk"}},
		Stmts:       []*rtl.Stmt{nbaStmt},
		First:       nbaStmt,
	}
	mod := &rtl.Module{
		Name:      "ff",
		Nets:      []rtl.Net{reg("clk", 1), reg("d", 1), reg("q", 1)},
		Processes: []*rtl.Process{ff},
	}

	k := sv.New()
	if err := k.LoadDesign(&rtl.Design{Modules: []*rtl.Module{mod}}); err != nil {
		t.Fatal(err)
	}

	// external stimulus
	drive := func(name string, bit logic.State, at uint64) {
		k.Schedule(func(k *sv.Kernel) {
			k.Drive(name, logic.New(1, bit), false)
		}, at, sv.Active)
	}
	drive("clk", logic.L0, 0)
	drive("d", logic.L1, 2)
	drive("clk", logic.L1, 5)
	drive("clk", logic.L0, 10)
	drive("clk", logic.L1, 15)

	k.Run(4)
	if v, _ := k.GetSignal("q"); v.Bit(0) != logic.LX {
		t.Fatalf("q before first posedge = %s, want x", v)
	}

	k.Run(6)
	if v, _ := k.GetSignal("q"); v.Bit(0) != logic.L1 {
		t.Fatalf("q after posedge@5 = %s, want 1", v)
	}

	k.Run(20)
	if v, _ := k.GetSignal("q"); v.Bit(0) != logic.L1 {
		t.Fatalf("q at end = %s, want 1", v)
	}
}

func TestCombinationalAdder(t *testing.T) {
	// assign y = a + b;
	mod := &rtl.Module{
		Name: "add",
		Nets: []rtl.Net{reg("a", 8), reg("b", 8), reg("y", 8)},
		ContAssigns: []rtl.Assign{
			{Kind: rtl.Continuous, LHS: "y", RHS: addExpr(refExpr("a"), refExpr("b"))},
		},
	}

	k := sv.New()
	if err := k.LoadDesign(&rtl.Design{Modules: []*rtl.Module{mod}}); err != nil {
		t.Fatal(err)
	}
	k.Schedule(func(k *sv.Kernel) {
		k.Drive("a", logic.FromUint(8, 2), false)
		k.Drive("b", logic.FromUint(8, 3), false)
	}, 0, sv.Active)
	k.Schedule(func(k *sv.Kernel) {
		k.Drive("b", logic.FromUint(8, 0xFF), false)
	}, 10, sv.Active)

	k.Run(5)
	if v, _ := k.GetSignal("y"); v.Uint64() != 5 {
		t.Fatalf("y after t=0 = %s, want 5", v)
	}

	k.Run(15)
	// 2 + 255 = 257, held to the 8-bit declared width
	if v, _ := k.GetSignal("y"); v.Uint64() != 0x101&0xFF {
		t.Fatalf("y after t=10 = %s, want 0x01", v)
	}
}

func TestNonBlockingSwap(t *testing.T) {
	// always @(posedge clk) begin a <= b; b <= a; end
	s2 := &rtl.Stmt{Kind: rtl.StmtNonBlocking, LHS: "b", RHS: refExpr("a")}
	s1 := &rtl.Stmt{Kind: rtl.StmtNonBlocking, LHS: "a", RHS: refExpr("b"), Next: s2}
	p := &rtl.Process{
		Kind:        rtl.Always,
		Sensitivity: []rtl.Sensitivity{{Kind: rtl.Posedge, Signal: "clk"}},
		Stmts:       []*rtl.Stmt{s1, s2},
		First:       s1,
	}
	mod := &rtl.Module{
		Name:      "swap",
		Nets:      []rtl.Net{reg("clk", 1), reg("a", 4), reg("b", 4)},
		Processes: []*rtl.Process{p},
	}

	k := sv.New()
	if err := k.LoadDesign(&rtl.Design{Modules: []*rtl.Module{mod}}); err != nil {
		t.Fatal(err)
	}
	k.SetSignal("clk", logic.New(1, logic.L0))
	k.SetSignal("a", logic.FromUint(4, 3))
	k.SetSignal("b", logic.FromUint(4, 9))

	// record the pre-edge values just before the posedge
	var preA, preB uint64
	k.Schedule(func(k *sv.Kernel) {
		a, _ := k.GetSignal("a")
		b, _ := k.GetSignal("b")
		preA, preB = a.Uint64(), b.Uint64()
	}, 4, sv.Active)
	k.Schedule(func(k *sv.Kernel) {
		k.Drive("clk", logic.New(1, logic.L1), false)
	}, 5, sv.Active)
	k.Run(0)

	// both NBAs observed the pre-edge values: a and b swapped
	a, _ := k.GetSignal("a")
	b, _ := k.GetSignal("b")
	if a.Uint64() != preB || b.Uint64() != preA {
		t.Fatalf("after posedge: a=%d b=%d, want %d/%d", a.Uint64(), b.Uint64(), preB, preA)
	}
	if a.Uint64() == b.Uint64() {
		t.Fatal("a and b did not hold distinct values")
	}
}

func TestFinish(t *testing.T) {
	// initial begin #10 $finish; end
	fin := &rtl.Stmt{Kind: rtl.StmtFinish}
	dly := &rtl.Stmt{Kind: rtl.StmtDelay, DelayExpr: constExpr("10"), DelayBody: fin}
	p := &rtl.Process{Kind: rtl.Initial, Stmts: []*rtl.Stmt{dly, fin}, First: dly}

	clock := clockGen()
	mod := &rtl.Module{Name: "top", Nets: clock.Nets,
		Processes: append([]*rtl.Process{p}, clock.Processes...)}

	k := sv.New()
	if err := k.LoadDesign(&rtl.Design{Modules: []*rtl.Module{mod}}); err != nil {
		t.Fatal(err)
	}
	k.Run(0)

	if !k.Stopped() {
		t.Fatal("kernel not stopped")
	}
	if k.Time() > 10 {
		t.Fatalf("kernel ran past finish: t=%d", k.Time())
	}
	// the pending clock toggle events must not run once stopped: clk went
	// high at t=5 and the toggle due at t=10 comes after the finish
	clk, _ := k.GetSignal("clk")
	if clk.String() != "1" {
		t.Fatalf("clk = %s", clk)
	}
}

func TestGeneratedAssignFanOut(t *testing.T) {
	// three continuous assigns o = in (the lowered form of o[i] = in[i])
	mod := &rtl.Module{
		Name: "gen",
		Nets: []rtl.Net{reg("in", 3), reg("o", 3)},
		ContAssigns: []rtl.Assign{
			{Kind: rtl.Continuous, LHS: "o", RHS: refExpr("in")},
			{Kind: rtl.Continuous, LHS: "o", RHS: refExpr("in")},
			{Kind: rtl.Continuous, LHS: "o", RHS: refExpr("in")},
		},
	}
	k := sv.New()
	if err := k.LoadDesign(&rtl.Design{Modules: []*rtl.Module{mod}}); err != nil {
		t.Fatal(err)
	}
	k.Schedule(func(k *sv.Kernel) {
		k.Drive("in", logic.FromString("000"), false)
	}, 0, sv.Active)
	k.Schedule(func(k *sv.Kernel) {
		k.Drive("in", logic.FromString("010"), false)
	}, 5, sv.Active)
	k.Run(0)

	if v, _ := k.GetSignal("o"); v.String() != "010" {
		t.Fatalf("o = %s, want 010", v)
	}
}

func TestGateProcesses(t *testing.T) {
	mod := &rtl.Module{
		Name: "gates",
		Nets: []rtl.Net{reg("a", 1), reg("b", 1), reg("y", 1), reg("n", 1)},
		Gates: []rtl.Gate{
			{Kind: rtl.GateAnd, Inputs: []string{"a", "b"}, Out: "y"},
			{Kind: rtl.GateNot, Inputs: []string{"y"}, Out: "n"},
		},
	}
	k := sv.New()
	if err := k.LoadDesign(&rtl.Design{Modules: []*rtl.Module{mod}}); err != nil {
		t.Fatal(err)
	}
	k.Schedule(func(k *sv.Kernel) {
		k.Drive("a", logic.New(1, logic.L1), false)
		k.Drive("b", logic.New(1, logic.L1), false)
	}, 0, sv.Active)
	k.Run(0)

	if y, _ := k.GetSignal("y"); y.Bit(0) != logic.L1 {
		t.Fatalf("y = %s, want 1", y)
	}
	if n, _ := k.GetSignal("n"); n.Bit(0) != logic.L0 {
		t.Fatalf("n = %s, want 0", n)
	}
}
