package svsim

import (
	"testing"

	"github.com/db47h/svsim/logic"
)

func TestGlitchSuppression(t *testing.T) {
	k := New()
	k.setSignal("a", logic.FromUint(4, 5))

	runs := 0
	p := NewProcess(func(*Kernel) { runs++ }, Active)
	k.registerLevel("a", p)

	k.Drive("a", logic.FromUint(4, 5), false)
	k.Run(0)
	if runs != 0 {
		t.Fatalf("identical write triggered %d watcher runs", runs)
	}

	k.Drive("a", logic.FromUint(4, 6), false)
	k.Run(0)
	if runs != 1 {
		t.Fatalf("changed write triggered %d watcher runs, want 1", runs)
	}
}

func TestEdgeWatchers(t *testing.T) {
	k := New()
	k.setSignal("clk", logic.New(1, logic.L0))

	var pos, neg, lvl int
	k.registerLevel("clk", NewProcess(func(*Kernel) { lvl++ }, Active))
	k.registerPosedge("clk", NewProcess(func(*Kernel) { pos++ }, Active))
	k.registerNegedge("clk", NewProcess(func(*Kernel) { neg++ }, Active))

	k.Drive("clk", logic.New(1, logic.L1), false)
	k.Run(0)
	if pos != 1 || neg != 0 || lvl != 1 {
		t.Fatalf("after 0->1: pos=%d neg=%d lvl=%d", pos, neg, lvl)
	}

	k.Drive("clk", logic.New(1, logic.L0), false)
	k.Run(0)
	if pos != 1 || neg != 1 || lvl != 2 {
		t.Fatalf("after 1->0: pos=%d neg=%d lvl=%d", pos, neg, lvl)
	}

	// x -> 1 is not a posedge
	k.setSignal("clk", logic.New(1, logic.LX))
	k.Drive("clk", logic.New(1, logic.L1), false)
	k.Run(0)
	if pos != 1 {
		t.Fatalf("x->1 counted as posedge: pos=%d", pos)
	}
}

func TestWatcherImpliesSignal(t *testing.T) {
	k := New()
	k.registerLevel("ghost", NewProcess(func(*Kernel) {}, Active))
	if _, ok := k.signals["ghost"]; !ok {
		t.Fatal("watched signal missing from signal store")
	}
}

func TestQueueOrdering(t *testing.T) {
	k := New()
	var order []int
	k.Schedule(func(*Kernel) { order = append(order, 2) }, 10, Active)
	k.Schedule(func(*Kernel) { order = append(order, 0) }, 0, Active)
	k.Schedule(func(*Kernel) { order = append(order, 1) }, 0, Active)
	k.Schedule(func(*Kernel) { order = append(order, 3) }, 10, Active)
	k.Run(0)
	for i, v := range order {
		if i != v {
			t.Fatalf("execution order %v", order)
		}
	}
}

func TestMonotonicTime(t *testing.T) {
	k := New()
	var times []uint64
	record := func(k *Kernel) { times = append(times, k.Time()) }
	// schedule in scrambled order
	for _, d := range []uint64{7, 3, 12, 3, 0, 9} {
		k.Schedule(record, d, Active)
	}
	k.Run(0)
	if len(times) != 6 {
		t.Fatalf("ran %d events", len(times))
	}
	for i := 1; i < len(times); i++ {
		if times[i] < times[i-1] {
			t.Fatalf("time went backwards: %v", times)
		}
	}
}

func TestNBASeparation(t *testing.T) {
	k := New()
	k.setSignal("a", logic.New(1, logic.L0))

	var seenByActive logic.Value
	k.Schedule(func(k *Kernel) {
		k.Drive("a", logic.New(1, logic.L1), true)
	}, 0, Active)
	k.Schedule(func(k *Kernel) {
		v, _ := k.GetSignal("a")
		seenByActive = v.Copy()
	}, 0, Active)
	k.Run(0)

	if seenByActive.Bit(0) != logic.L0 {
		t.Fatalf("active event observed NBA write: %s", seenByActive)
	}
	if v, _ := k.GetSignal("a"); v.Bit(0) != logic.L1 {
		t.Fatalf("NBA write not applied after active drain: %s", v)
	}
}

func TestNBAPushOrder(t *testing.T) {
	// two NBA writes to the same signal in one delta window yield the
	// later value
	k := New()
	k.setSignal("a", logic.New(4, logic.L0))
	k.Schedule(func(k *Kernel) {
		k.Drive("a", logic.FromUint(4, 1), true)
		k.Drive("a", logic.FromUint(4, 2), true)
	}, 0, Active)
	k.Run(0)
	if v, _ := k.GetSignal("a"); v.Uint64() != 2 {
		t.Fatalf("a = %s, want 2", v)
	}
}

func TestBoundedRun(t *testing.T) {
	k := New()
	ran := 0
	k.Schedule(func(*Kernel) { ran++ }, 5, Active)
	k.Schedule(func(*Kernel) { ran++ }, 50, Active)
	k.Run(10)
	if ran != 1 {
		t.Fatalf("ran %d events within bound, want 1", ran)
	}
	if k.queue.Len() != 1 {
		t.Fatalf("pending events = %d, want 1 retained", k.queue.Len())
	}
}

func TestStopRetainsPending(t *testing.T) {
	k := New()
	ran := 0
	k.Schedule(func(k *Kernel) { k.Stop() }, 0, Active)
	k.Schedule(func(*Kernel) { ran++ }, 5, Active)
	k.Run(0)
	if ran != 0 {
		t.Fatal("event executed after stop")
	}
	if k.queue.Len() != 1 {
		t.Fatalf("pending events = %d, want 1 retained", k.queue.Len())
	}
}

func TestDriveKeepsDeclaredWidth(t *testing.T) {
	k := New()
	k.setSignal("y", logic.New(8, logic.LX))
	k.Drive("y", logic.FromUint(16, 0x101), false)
	v, _ := k.GetSignal("y")
	if v.Width() != 8 {
		t.Fatalf("width changed to %d", v.Width())
	}
	if v.Uint64() != 0x01 {
		t.Fatalf("y = %#x, want 0x01", v.Uint64())
	}
}
