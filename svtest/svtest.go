// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package svtest provides utility functions for testing simulations: a
// source-to-kernel compile helper, a waveform recorder and signal
// expectation helpers.
//
package svtest

import (
	"testing"

	sv "github.com/db47h/svsim"
	"github.com/db47h/svsim/elab"
	"github.com/db47h/svsim/logic"
	"github.com/db47h/svsim/parse"
	"github.com/db47h/svsim/rtl"
)

// Compile runs source text through the whole front half of the pipeline
// (parse, elaborate, lower) and returns a kernel loaded with the result.
// Any error fails the test.
//
func Compile(t *testing.T, source string) *sv.Kernel {
	t.Helper()
	k := sv.New()
	LoadSource(t, k, source)
	return k
}

// LoadSource compiles source and loads it into k. A waveform sink attached
// to k beforehand sees the design's signals.
//
func LoadSource(t *testing.T, k *sv.Kernel, source string) *rtl.Design {
	t.Helper()
	design, err := parse.Parse("test.sv", source)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	ed, err := elab.Elaborate(design)
	if err != nil {
		t.Fatalf("elaborate: %v", err)
	}
	rd := rtl.Build(design, ed)
	if err := k.LoadDesign(rd); err != nil {
		t.Fatalf("load: %v", err)
	}
	return rd
}

// ExpectUint fails the test unless signal name currently holds the numeric
// value want.
//
func ExpectUint(t *testing.T, k *sv.Kernel, name string, want uint64) {
	t.Helper()
	v, ok := k.GetSignal(name)
	if !ok {
		t.Fatalf("signal %s does not exist", name)
	}
	if got := v.Uint64(); got != want {
		t.Fatalf("%s = %d (%s), want %d", name, got, v, want)
	}
}

// ExpectBits fails the test unless signal name currently reads as the bit
// string want (MSB first).
//
func ExpectBits(t *testing.T, k *sv.Kernel, name string, want string) {
	t.Helper()
	v, ok := k.GetSignal(name)
	if !ok {
		t.Fatalf("signal %s does not exist", name)
	}
	if got := v.String(); got != want {
		t.Fatalf("%s = %s, want %s", name, got, want)
	}
}

// A Recorder captures waveform emissions in memory. It implements the
// kernel's Waveform interface.
//
type Recorder struct {
	now     uint64
	Samples map[string][]Sample
}

// A Sample is one recorded signal emission.
//
type Sample struct {
	Time  uint64
	Value string
}

// NewRecorder returns an empty Recorder.
//
func NewRecorder() *Recorder {
	return &Recorder{Samples: make(map[string][]Sample)}
}

// AddSignal implements Waveform.
func (r *Recorder) AddSignal(name string, width int) {}

// WriteHeader implements Waveform.
func (r *Recorder) WriteHeader() {}

// WriteTime implements Waveform.
func (r *Recorder) WriteTime(t uint64) { r.now = t }

// WriteValue implements Waveform.
func (r *Recorder) WriteValue(name string, v logic.Value) {
	r.Samples[name] = append(r.Samples[name], Sample{Time: r.now, Value: v.String()})
}

// LastAt returns the final emitted value of name at time t, or "" when no
// emission happened at t.
//
func (r *Recorder) LastAt(name string, t uint64) string {
	out := ""
	for _, s := range r.Samples[name] {
		if s.Time == t {
			out = s.Value
		}
	}
	return out
}

// Transitions returns the value of name after each distinct emission time,
// collapsing repeats: the result holds one entry per time at which the
// final emitted value differs from the previous entry.
//
func (r *Recorder) Transitions(name string) []Sample {
	var out []Sample
	var last string
	seenTimes := make(map[uint64]bool)
	var times []uint64
	for _, s := range r.Samples[name] {
		if !seenTimes[s.Time] {
			seenTimes[s.Time] = true
			times = append(times, s.Time)
		}
	}
	for _, t := range times {
		v := r.LastAt(name, t)
		if v != last {
			out = append(out, Sample{Time: t, Value: v})
			last = v
		}
	}
	return out
}
