package cpu

import (
	"fmt"
	"iter"
	"log"
	"maps"

	"github.com/ezrec/lc3/console"
	"github.com/ezrec/lc3/mem"
)

var _cpu_defines = map[string]string{
	"TRAP_GETC":  fmt.Sprintf("0x%02x", int(TRAP_GETC)),
	"TRAP_OUT":   fmt.Sprintf("0x%02x", int(TRAP_OUT)),
	"TRAP_PUTS":  fmt.Sprintf("0x%02x", int(TRAP_PUTS)),
	"TRAP_IN":    fmt.Sprintf("0x%02x", int(TRAP_IN)),
	"TRAP_PUTSP": fmt.Sprintf("0x%02x", int(TRAP_PUTSP)),
	"TRAP_HALT":  fmt.Sprintf("0x%02x", int(TRAP_HALT)),
}

// Cpu is the LC-3 processor. All machine state is held here and in the
// attached Memory; a single goroutine owns both for the whole run.
type Cpu struct {
	Verbose bool // Set to enable per-instruction disassembly logging.

	Mem     *mem.Memory     // Attached memory.
	Console console.Console // Console collaborator for the trap routines.

	Reg  [8]uint16 // General-purpose registers r0-r7.
	PC   uint16    // Program counter.
	Cond Flag      // Condition flags; exactly one bit set.

	Ticks int // Instructions executed since reset.

	halted bool
}

// NewCpu creates a processor attached to memory and a console. The PC
// starts at the user-space origin until a loader repositions it.
func NewCpu(m *mem.Memory, con console.Console) (cpu *Cpu) {
	cpu = &Cpu{
		Mem:     m,
		Console: con,
	}
	cpu.Reset()

	return
}

// Defines for the cpu.
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return maps.All(_cpu_defines)
}

// Reset clears the registers and flags and reenters the RUNNING state.
// Memory contents are left alone; reloading is the loader's concern.
func (cpu *Cpu) Reset() {
	clear(cpu.Reg[:])
	cpu.PC = mem.UserSpaceStart
	cpu.Cond = FLAG_ZRO
	cpu.Ticks = 0
	cpu.halted = false
}

// Halted reports whether the processor has reached the terminal state.
func (cpu *Cpu) Halted() bool {
	return cpu.halted
}

// String returns the current register state as a string.
func (cpu *Cpu) String() (text string) {
	text = fmt.Sprintf("  pc: 0x%04x\ncond: %v\n", cpu.PC, cpu.Cond)
	for n, val := range cpu.Reg {
		text += fmt.Sprintf("  r%d: 0x%04x\n", n, val)
	}

	return
}

// Tick fetches, decodes, and executes a single instruction. The PC is
// advanced before operand evaluation, so PC-relative offsets are taken
// from the post-increment value. Fatal decode errors leave the machine
// halted with the offending address and word in the returned error.
func (cpu *Cpu) Tick() (err error) {
	if cpu.halted {
		return ErrHalted
	}

	origin := cpu.PC
	code := Code(cpu.Mem.Read(origin))
	cpu.PC++

	if cpu.Verbose {
		log.Printf("0x%04x: %v", origin, code)
	}

	err = cpu.execute(origin, code)
	if err != nil {
		cpu.halted = true
		return
	}

	cpu.Ticks++

	return
}

// execute dispatches one decoded instruction. origin is the address the
// word was fetched from, for error reporting only.
func (cpu *Cpu) execute(origin uint16, code Code) (err error) {
	switch code.Op() {
	case OP_ADD:
		if code.ImmBit() {
			cpu.Reg[code.DR()] = cpu.Reg[code.SR1()] + code.Imm5()
		} else {
			cpu.Reg[code.DR()] = cpu.Reg[code.SR1()] + cpu.Reg[code.SR2()]
		}
		cpu.updateFlags(code.DR())

	case OP_AND:
		if code.ImmBit() {
			cpu.Reg[code.DR()] = cpu.Reg[code.SR1()] & code.Imm5()
		} else {
			cpu.Reg[code.DR()] = cpu.Reg[code.SR1()] & cpu.Reg[code.SR2()]
		}
		cpu.updateFlags(code.DR())

	case OP_NOT:
		cpu.Reg[code.DR()] = ^cpu.Reg[code.SR1()]
		cpu.updateFlags(code.DR())

	case OP_BR:
		if code.NZP()&cpu.Cond != 0 {
			cpu.PC += code.PCOffset9()
		}

	case OP_JMP:
		cpu.PC = cpu.Reg[code.SR1()]

	case OP_JSR:
		cpu.Reg[R7] = cpu.PC
		if code.LongBit() {
			cpu.PC += code.PCOffset11()
		} else {
			cpu.PC = cpu.Reg[code.SR1()]
		}

	case OP_LD:
		cpu.Reg[code.DR()] = cpu.Mem.Read(cpu.PC + code.PCOffset9())
		cpu.updateFlags(code.DR())

	case OP_LDI:
		cpu.Reg[code.DR()] = cpu.Mem.Read(cpu.Mem.Read(cpu.PC + code.PCOffset9()))
		cpu.updateFlags(code.DR())

	case OP_LDR:
		cpu.Reg[code.DR()] = cpu.Mem.Read(cpu.Reg[code.SR1()] + code.Offset6())
		cpu.updateFlags(code.DR())

	case OP_LEA:
		cpu.Reg[code.DR()] = cpu.PC + code.PCOffset9()
		cpu.updateFlags(code.DR())

	case OP_ST:
		cpu.Mem.Write(cpu.PC+code.PCOffset9(), cpu.Reg[code.DR()])

	case OP_STI:
		cpu.Mem.Write(cpu.Mem.Read(cpu.PC+code.PCOffset9()), cpu.Reg[code.DR()])

	case OP_STR:
		cpu.Mem.Write(cpu.Reg[code.SR1()]+code.Offset6(), cpu.Reg[code.DR()])

	case OP_TRAP:
		routine, ok := trapTable[code.Trap()]
		if !ok {
			err = ErrTrap{PC: origin, Word: code}
			return
		}
		cpu.Reg[R7] = cpu.PC
		err = routine(cpu)

	default:
		// OP_RTI and OP_RES: no defined semantics in this machine.
		err = ErrOpcode{PC: origin, Word: code}
	}

	return
}

// updateFlags sets the condition flags from the signed sign of r.
func (cpu *Cpu) updateFlags(r int) {
	switch {
	case cpu.Reg[r] == 0:
		cpu.Cond = FLAG_ZRO
	case cpu.Reg[r]>>15 != 0:
		cpu.Cond = FLAG_NEG
	default:
		cpu.Cond = FLAG_POS
	}
}
