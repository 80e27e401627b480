// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package emulator assembles the LC-3 machine: processor, memory, and
// console collaborator, plus the object-file loader and the run loop.
package emulator

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"iter"

	"github.com/ezrec/lc3/console"
	"github.com/ezrec/lc3/cpu"
	"github.com/ezrec/lc3/internal"
	"github.com/ezrec/lc3/mem"
)

// Emulator state. CPU + memory + console.
type Emulator struct {
	Verbose  bool // If set, enables verbose logging.
	*cpu.Cpu      // Reference to the processor.

	Mem     *mem.Memory     // The 64K word store.
	Console console.Console // Console collaborator.
	Program *cpu.Program    // Listing of the running program, when assembled here.
}

// NewEmulator creates a machine wired to a console.
func NewEmulator(con console.Console) (emu *Emulator) {
	emu = &Emulator{
		Mem:     &mem.Memory{},
		Console: con,
	}

	emu.Mem.Keyboard = con
	emu.Cpu = cpu.NewCpu(emu.Mem, con)

	return
}

// Defines returns an iterator over all of the defines.
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(
		emu.Cpu.Defines(),
		emu.Mem.Defines(),
	)
}

// Load reads a big-endian object image: one origin word followed by
// program words. The words are stored from the origin up, and the PC is
// set to the origin.
func (emu *Emulator) Load(r io.Reader) (err error) {
	var origin uint16
	err = binary.Read(r, binary.BigEndian, &origin)
	if err != nil {
		return errors.Join(ErrImageTruncated, err)
	}

	addr := int(origin)
	for {
		var word uint16
		err = binary.Read(r, binary.BigEndian, &word)
		if err == io.EOF {
			err = nil
			break
		}
		if err != nil {
			return errors.Join(ErrImageTruncated, err)
		}
		if addr >= mem.Size {
			return ErrImageTooLarge
		}
		emu.Mem.Write(uint16(addr), word)
		addr++
	}

	emu.Cpu.Reset()
	emu.Cpu.PC = origin

	return
}

// LoadProgram loads an assembled program and keeps its listing for
// runtime error reporting.
func (emu *Emulator) LoadProgram(prog *cpu.Program) {
	emu.Program = prog
	for addr, word := range prog.Words() {
		emu.Mem.Write(addr, word)
	}

	emu.Cpu.Reset()
	emu.Cpu.PC = prog.Origin
}

// Assemble parses LC-3 assembly source with the machine's defines
// predefined as equates.
func (emu *Emulator) Assemble(input io.Reader) (prog *cpu.Program, err error) {
	asm := &cpu.Assembler{Verbose: emu.Verbose}
	for attr, val := range emu.Defines() {
		asm.Predefine(attr, val)
	}

	return asm.Parse(input)
}

// Reset zeroes memory and registers. Loaded programs must be reloaded.
func (emu *Emulator) Reset() {
	emu.Mem.Reset()
	emu.Cpu.Reset()
}

// Step executes a single instruction. done reports the HALTED state.
func (emu *Emulator) Step() (done bool, err error) {
	emu.Cpu.Verbose = emu.Verbose

	if emu.Cpu.Halted() {
		done = true
		return
	}

	pc := emu.Cpu.PC
	err = emu.Cpu.Tick()
	if err != nil {
		lineno := 0
		if emu.Program != nil {
			lineno = emu.Program.LineNo(pc)
		}
		err = &ErrRuntime{PC: pc, LineNo: lineno, Err: err}
		return
	}

	done = emu.Cpu.Halted()

	return
}

// Run drives the fetch-decode-execute loop until the machine halts, a
// fatal error occurs, or the context is cancelled between instructions.
func (emu *Emulator) Run(ctx context.Context) (err error) {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		done, err := emu.Step()
		if err != nil || done {
			return err
		}
	}
}
