package cpu

import (
	"errors"
	"io"
)

// TrapRoutine is a built-in blocking I/O routine invoked by TRAP. The
// table is fixed; a vector outside it is a fatal decode error.
type TrapRoutine func(cpu *Cpu) error

var trapTable = map[TrapVector]TrapRoutine{
	TRAP_GETC:  trapGetc,
	TRAP_OUT:   trapOut,
	TRAP_PUTS:  trapPuts,
	TRAP_IN:    trapIn,
	TRAP_PUTSP: trapPutsp,
	TRAP_HALT:  trapHalt,
}

// trapGetc reads one character into r0 without echo.
func trapGetc(cpu *Cpu) (err error) {
	c, err := cpu.Console.ReadKey()
	if err != nil {
		return errors.Join(ErrConsole, err)
	}

	cpu.Reg[R0] = uint16(c)
	cpu.updateFlags(R0)

	return
}

// trapOut writes the character in the low byte of r0.
func trapOut(cpu *Cpu) (err error) {
	err = cpu.Console.WriteByte(byte(cpu.Reg[R0]))
	if err != nil {
		err = errors.Join(ErrConsole, err)
	}

	return
}

// trapPuts writes the one-character-per-word string at r0, up to the
// terminating zero word.
func trapPuts(cpu *Cpu) (err error) {
	addr := cpu.Reg[R0]

	for c := cpu.Mem.Read(addr); c != 0; {
		err = cpu.Console.WriteByte(byte(c))
		if err != nil {
			return errors.Join(ErrConsole, err)
		}
		addr++
		c = cpu.Mem.Read(addr)
	}

	return
}

// trapIn prompts, reads one character into r0, and echoes it.
func trapIn(cpu *Cpu) (err error) {
	_, err = io.WriteString(cpu.Console, "Enter a character: ")
	if err != nil {
		return errors.Join(ErrConsole, err)
	}

	c, err := cpu.Console.ReadKey()
	if err != nil {
		return errors.Join(ErrConsole, err)
	}

	err = cpu.Console.WriteByte(c)
	if err != nil {
		return errors.Join(ErrConsole, err)
	}

	cpu.Reg[R0] = uint16(c)
	cpu.updateFlags(R0)

	return
}

// trapPutsp writes the two-characters-per-word string at r0, low byte
// first, skipping a zero high byte, up to the terminating zero word.
func trapPutsp(cpu *Cpu) (err error) {
	addr := cpu.Reg[R0]

	for word := cpu.Mem.Read(addr); word != 0; {
		err = cpu.Console.WriteByte(byte(word))
		if err != nil {
			return errors.Join(ErrConsole, err)
		}
		if word>>8 != 0 {
			err = cpu.Console.WriteByte(byte(word >> 8))
			if err != nil {
				return errors.Join(ErrConsole, err)
			}
		}
		addr++
		word = cpu.Mem.Read(addr)
	}

	return
}

// trapHalt transitions the processor to the terminal state.
func trapHalt(cpu *Cpu) (err error) {
	cpu.halted = true
	return
}
