/*
Package svsim provides an event-driven simulator for a small SystemVerilog
subset.

The simulator consumes RTL source text and produces a time-ordered waveform
trace. The pipeline is: parse (package parse) to an AST (package ast),
elaborate generates and parameters (package elab), lower to a reference-stable
RTL IR (package rtl), then run the IR on the kernel in this package. Waveforms
are written in VCD format (package vcd).

The kernel is single-threaded and cooperative. It schedules process closures
on a stratified event wheel with delta cycles and a separate non-blocking
assignment region, following the standard two-region simulation model.

*/
package svsim
