// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"

	"github.com/ezrec/lc3/console"
	"github.com/ezrec/lc3/cpu"
	"github.com/ezrec/lc3/emulator"
)

func main() {
	os.Exit(run())
}

func run() int {
	var compile string
	var output string
	var save bool
	var verbose bool

	flag.StringVar(&compile, "c", "", ".asm file to assemble")
	flag.StringVar(&output, "o", "a.obj", "object file output for -s")
	flag.BoolVar(&save, "s", false, "Save object file, do not execute")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")

	flag.Parse()

	term := console.NewTerminal()
	emu := emulator.NewEmulator(term)
	emu.Verbose = verbose

	var prog *cpu.Program

	// Assemble a new program.
	if len(compile) != 0 {
		inf, err := os.Open(compile)
		if err != nil {
			log.Printf("%v: %v", compile, err)
			return 2
		}
		defer inf.Close()

		prog, err = emu.Assemble(inf)
		if err != nil {
			log.Printf("%v: %v", compile, err)
			return 2
		}
	}

	if save {
		if prog == nil {
			log.Printf("%v: -s requires -c", os.Args[0])
			return 2
		}
		err := os.WriteFile(output, prog.Image(), 0o644)
		if err != nil {
			log.Printf("%v: %v", output, err)
			return 2
		}
		return 0
	}

	switch {
	case prog != nil:
		if flag.NArg() != 0 {
			log.Printf("%v: unknown arguments: %v", os.Args[0], flag.Args())
			return 2
		}
		emu.LoadProgram(prog)
	case flag.NArg() == 1:
		inf, err := os.Open(flag.Arg(0))
		if err != nil {
			log.Printf("%v: %v", flag.Arg(0), err)
			return 2
		}
		err = emu.Load(inf)
		inf.Close()
		if err != nil {
			log.Printf("%v: %v", flag.Arg(0), err)
			return 2
		}
	default:
		log.Printf("usage: %v [-v] [-c file.asm [-s [-o file.obj]]] [image.obj]", os.Args[0])
		return 2
	}

	err := term.Raw()
	if err != nil {
		log.Printf("terminal: %v", err)
		return 2
	}
	defer term.Restore()
	term.Start()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err = emu.Run(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return 0
		}
		term.Restore()
		log.Printf("%v", err)
		return 1
	}

	return 0
}
