// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package vcd writes Value Change Dump waveform files. A Writer implements
// the kernel's Waveform interface; the caller owns the underlying file and
// its lifecycle.
//
package vcd

import (
	"bufio"
	"io"
	"strconv"

	"github.com/db47h/svsim/logic"
)

type signal struct {
	name  string
	id    string
	width int
}

// A Writer emits VCD to an io.Writer. Declare signals with AddSignal, then
// WriteHeader once, then alternate WriteTime and WriteValue calls. Write
// errors are sticky; check Err or Flush at the end of the run.
//
type Writer struct {
	w       *bufio.Writer
	signals []signal
	ids     map[string]string
	nextID  int
	header  bool
	err     error
}

// New returns a Writer emitting to w.
//
func New(w io.Writer) *Writer {
	return &Writer{
		w:   bufio.NewWriter(w),
		ids: make(map[string]string),
	}
}

// makeID generates compact printable identifiers: !, ", #, ... base 94.
func (w *Writer) makeID() string {
	n := w.nextID
	w.nextID++
	var s []byte
	for {
		s = append(s, byte('!'+n%94))
		n /= 94
		if n == 0 {
			break
		}
	}
	return string(s)
}

// AddSignal declares a signal. Declarations after the header are ignored,
// as are duplicate names.
//
func (w *Writer) AddSignal(name string, width int) {
	if w.header {
		return
	}
	if _, ok := w.ids[name]; ok {
		return
	}
	if width < 1 {
		width = 1
	}
	id := w.makeID()
	w.ids[name] = id
	w.signals = append(w.signals, signal{name: name, id: id, width: width})
}

// WriteHeader writes the declaration section. It runs once; later calls are
// no-ops.
//
func (w *Writer) WriteHeader() {
	if w.header {
		return
	}
	w.header = true

	w.writeString("$date\n    today\n$end\n")
	w.writeString("$version\n    svsim\n$end\n")
	w.writeString("$timescale 1ns $end\n")
	w.writeString("$scope module top $end\n")
	for _, s := range w.signals {
		w.writeString("$var wire " + strconv.Itoa(s.width) + " " + s.id + " " + s.name + " $end\n")
	}
	w.writeString("$upscope $end\n")
	w.writeString("$enddefinitions $end\n")
}

// WriteTime emits a timestamp marker.
//
func (w *Writer) WriteTime(t uint64) {
	if !w.header {
		return
	}
	w.writeString("#" + strconv.FormatUint(t, 10) + "\n")
}

// WriteValue emits the current value of a declared signal, most significant
// bit first. Undeclared signals are skipped.
//
func (w *Writer) WriteValue(name string, v logic.Value) {
	if !w.header {
		return
	}
	id, ok := w.ids[name]
	if !ok {
		return
	}
	bits := v.String()
	if bits == "" {
		bits = "x"
	}
	w.writeString("b" + bits + " " + id + "\n")
}

func (w *Writer) writeString(s string) {
	if w.err != nil {
		return
	}
	_, w.err = w.w.WriteString(s)
}

// Err returns the first write error, if any.
//
func (w *Writer) Err() error { return w.err }

// Flush flushes buffered output and returns the first error encountered.
//
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	return w.w.Flush()
}
