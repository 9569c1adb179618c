// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Command svsim simulates a SystemVerilog subset source file and writes a
// VCD waveform trace.
//
//	svsim [-vcd FILE] [-max N] source.sv
//
// Exit status is 0 on success, 1 on a frontend or lowering error and 2 on
// an assertion failure.
//
package main

import (
	"flag"
	"fmt"
	"os"

	sv "github.com/db47h/svsim"
	"github.com/db47h/svsim/elab"
	"github.com/db47h/svsim/parse"
	"github.com/db47h/svsim/rtl"
	"github.com/db47h/svsim/vcd"
)

var (
	vcdFile = flag.String("vcd", "", "write a VCD trace to `FILE`")
	maxTime = flag.Uint64("max", 0, "stop once the next event is past `N` (0 = unlimited)")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [-vcd FILE] [-max N] <source>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	os.Exit(run(flag.Arg(0)))
}

func run(filename string) int {
	src, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	design, err := parse.Parse(filename, string(src))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	ed, err := elab.Elaborate(design)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	for _, name := range ed.Order {
		for _, d := range ed.Modules[name].Diags {
			fmt.Fprintln(os.Stderr, "warning:", d)
		}
	}

	rd := rtl.Build(design, ed)
	for _, d := range rd.Diags {
		fmt.Fprintln(os.Stderr, "warning:", d)
	}

	k := sv.New()

	var wave *vcd.Writer
	if *vcdFile != "" {
		f, err := os.Create(*vcdFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		defer f.Close()
		wave = vcd.New(f)
		k.SetWaveform(wave)
	}

	if err := k.LoadDesign(rd); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	k.Run(*maxTime)

	if wave != nil {
		if err := wave.Flush(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}

	fmt.Printf("simulation finished at time %d\n", k.Time())
	return 0
}
