// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package svsim

import (
	"github.com/db47h/svsim/logic"
	"github.com/db47h/svsim/rtl"
)

// A Waveform receives signal transitions from the kernel. The VCD writer in
// package vcd implements it; tests plug in recorders.
//
type Waveform interface {
	AddSignal(name string, width int)
	WriteHeader()
	WriteTime(t uint64)
	WriteValue(name string, v logic.Value)
}

// A Kernel is a single-threaded, cooperative event-driven simulation
// kernel. It owns the signal store, the event queue, the NBA queue, the
// watcher maps and the process closures built from a design. The kernel
// borrows the design it runs and must not outlive it.
//
type Kernel struct {
	design *rtl.Design
	wave   Waveform

	curTime  uint64
	curDelta uint64
	seq      uint64

	queue eventQueue
	nba   []ProcessFn

	signals  map[string]logic.Value
	sigOrder []string

	procs []*Process

	levelWatchers   map[string][]*Process
	posedgeWatchers map[string][]*Process
	negedgeWatchers map[string][]*Process

	stopped bool
}

// New returns an empty kernel.
//
func New() *Kernel {
	k := &Kernel{}
	k.reset()
	return k
}

// reset clears all kernel state. Watcher maps are cleared before the
// process arena so no watcher ever holds a dangling reference.
func (k *Kernel) reset() {
	k.levelWatchers = make(map[string][]*Process)
	k.posedgeWatchers = make(map[string][]*Process)
	k.negedgeWatchers = make(map[string][]*Process)
	k.procs = nil
	k.signals = make(map[string]logic.Value)
	k.sigOrder = nil
	k.queue = nil
	k.nba = nil
	k.curTime = 0
	k.curDelta = 0
	k.seq = 0
	k.stopped = false
}

// SetWaveform attaches a waveform sink. Must be called before LoadDesign
// for the signal declarations to be registered.
//
func (k *Kernel) SetWaveform(w Waveform) { k.wave = w }

// Time returns the current simulation time.
//
func (k *Kernel) Time() uint64 { return k.curTime }

// Delta returns the delta cycle count within the current time step.
//
func (k *Kernel) Delta() uint64 { return k.curDelta }

// Stopped reports whether the stop flag is set.
//
func (k *Kernel) Stopped() bool { return k.stopped }

// Stop requests an orderly shutdown: no further events are executed,
// pending events are retained.
//
func (k *Kernel) Stop() { k.stopped = true }

// SetSignal writes a signal directly, bypassing scheduling and watchers.
// Intended for tests and external drivers.
//
func (k *Kernel) SetSignal(name string, v logic.Value) {
	k.setSignal(name, v.Copy())
}

func (k *Kernel) setSignal(name string, v logic.Value) {
	if _, ok := k.signals[name]; !ok {
		k.sigOrder = append(k.sigOrder, name)
	}
	k.signals[name] = v
}

// GetSignal returns the current value of a signal.
//
func (k *Kernel) GetSignal(name string) (logic.Value, bool) {
	v, ok := k.signals[name]
	return v, ok
}

// signalValue returns the stored value of name, or a 1-bit X when the
// signal does not exist.
func (k *Kernel) signalValue(name string) logic.Value {
	if v, ok := k.signals[name]; ok {
		return v
	}
	return logic.New(1, logic.LX)
}

// fitted holds v to the declared width of name. A signal's stored width
// never changes after load.
func (k *Kernel) fitted(name string, v logic.Value) logic.Value {
	if old, ok := k.signals[name]; ok && old.Width() != v.Width() {
		return v.Fit(old.Width())
	}
	return v
}

// Schedule enqueues fn at curTime+delay in the given region. Zero delay
// events keep the current delta so they sort after everything already run
// in this time step.
//
func (k *Kernel) Schedule(fn ProcessFn, delay uint64, region Region) {
	e := &event{
		time:   k.curTime + delay,
		region: region,
		seq:    k.seq,
		fn:     fn,
	}
	if delay == 0 {
		e.delta = k.curDelta
	}
	k.seq++
	k.queue.push(e)
}

// ScheduleNBA enqueues fn on the NBA FIFO for the current time step.
//
func (k *Kernel) ScheduleNBA(fn ProcessFn) {
	k.nba = append(k.nba, fn)
}

// Drive writes a value to a signal. With nba set, the update is deferred to
// the NBA region of the current time step. Immediate writes of an identical
// value (same width and bits) are suppressed and trigger no watchers;
// otherwise the store is updated and watchers are scheduled: level watchers
// first, then posedge watchers on a 0->1 transition of bit 0, then negedge
// watchers on a 1->0 transition.
//
func (k *Kernel) Drive(name string, v logic.Value, nba bool) {
	if nba {
		stored := v.Copy()
		k.ScheduleNBA(func(k *Kernel) {
			k.setSignal(name, k.fitted(name, stored))
		})
		return
	}

	v = k.fitted(name, v)
	oldBit := logic.LX
	if old, ok := k.signals[name]; ok {
		if old.Equal(v) {
			return
		}
		if old.Width() > 0 {
			oldBit = old.Bit(0)
		}
	}
	k.setSignal(name, v.Copy())

	newBit := logic.LX
	if v.Width() > 0 {
		newBit = v.Bit(0)
	}

	for _, p := range k.levelWatchers[name] {
		proc := p
		k.Schedule(proc.run, 0, proc.region)
	}
	if oldBit == logic.L0 && newBit == logic.L1 {
		for _, p := range k.posedgeWatchers[name] {
			proc := p
			k.Schedule(proc.run, 0, proc.region)
		}
	}
	if oldBit == logic.L1 && newBit == logic.L0 {
		for _, p := range k.negedgeWatchers[name] {
			proc := p
			k.Schedule(proc.run, 0, proc.region)
		}
	}
}

// Run executes events until the queue empties, the stop flag is set, or the
// next event lies beyond maxTime. maxTime 0 means unlimited. Within one
// time step the Active region drains completely before the NBA queue is
// applied; NBA updates are therefore never observed by Active events of the
// same time step.
//
func (k *Kernel) Run(maxTime uint64) {
	unlimited := maxTime == 0

	for k.queue.Len() > 0 && !k.stopped {
		top := k.queue.peek()
		if !unlimited && top.time > maxTime {
			break
		}

		t := top.time
		k.curTime = t
		k.curDelta = 0

		k.emitWave(t)

		for k.queue.Len() > 0 {
			e := k.queue.peek()
			if e.time != t {
				break
			}
			if e.region >= NBA {
				// reserved region events defer to the NBA drain
				k.queue.pop()
				k.nba = append(k.nba, e.fn)
				continue
			}
			k.queue.pop()
			k.curDelta++
			e.fn(k)
			if k.stopped {
				break
			}
		}

		if !k.stopped {
			q := k.nba
			k.nba = nil
			for _, fn := range q {
				fn(k)
			}
		}

		k.emitWave(t)
	}
}

// emitWave dumps the current time and every tracked signal, in signal
// registration order so output is deterministic.
func (k *Kernel) emitWave(t uint64) {
	if k.wave == nil {
		return
	}
	k.wave.WriteTime(t)
	for _, name := range k.sigOrder {
		k.wave.WriteValue(name, k.signals[name])
	}
}
