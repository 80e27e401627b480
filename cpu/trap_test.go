package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/lc3/mem"
)

func TestTrap_Getc(t *testing.T) {
	assert := assert.New(t)

	cp, output := testCpu("g")
	load(cp, MakeTrap(TRAP_GETC))

	assert.NoError(cp.Tick())
	assert.Equal(uint16('g'), cp.Reg[R0])
	assert.Equal(FLAG_POS, cp.Cond)
	// No echo.
	assert.Equal("", output.String())
	// Return address saved.
	assert.Equal(uint16(mem.UserSpaceStart+1), cp.Reg[R7])
}

func TestTrap_GetcClosedInput(t *testing.T) {
	assert := assert.New(t)

	cp, _ := testCpu("")
	load(cp, MakeTrap(TRAP_GETC))

	assert.ErrorIs(cp.Tick(), ErrConsole)
	assert.True(cp.Halted())
}

func TestTrap_Out(t *testing.T) {
	assert := assert.New(t)

	cp, output := testCpu("")
	cp.Reg[R0] = uint16('!')
	cp.Cond = FLAG_NEG
	load(cp, MakeTrap(TRAP_OUT))

	assert.NoError(cp.Tick())
	assert.Equal("!", output.String())
	// OUT never defines flags.
	assert.Equal(FLAG_NEG, cp.Cond)
}

func TestTrap_Puts(t *testing.T) {
	assert := assert.New(t)

	cp, output := testCpu("")
	cp.Reg[R0] = 0x4000
	for n, c := range "Hello, world!" {
		cp.Mem.Write(0x4000+uint16(n), uint16(c))
	}
	load(cp, MakeTrap(TRAP_PUTS))

	assert.NoError(cp.Tick())
	assert.Equal("Hello, world!", output.String())
}

func TestTrap_PutsEmpty(t *testing.T) {
	assert := assert.New(t)

	cp, output := testCpu("")
	cp.Reg[R0] = 0x4000
	load(cp, MakeTrap(TRAP_PUTS))

	assert.NoError(cp.Tick())
	assert.Equal("", output.String())
}

func TestTrap_In(t *testing.T) {
	assert := assert.New(t)

	cp, output := testCpu("y")
	load(cp, MakeTrap(TRAP_IN))

	assert.NoError(cp.Tick())
	assert.Equal(uint16('y'), cp.Reg[R0])
	assert.Equal(FLAG_POS, cp.Cond)
	// Prompt plus echo.
	assert.Equal("Enter a character: y", output.String())
}

func TestTrap_Putsp(t *testing.T) {
	assert := assert.New(t)

	cp, output := testCpu("")
	cp.Reg[R0] = 0x4000
	// "abc" packed two characters per word, low byte first.
	cp.Mem.Write(0x4000, uint16('a')|uint16('b')<<8)
	cp.Mem.Write(0x4001, uint16('c'))
	load(cp, MakeTrap(TRAP_PUTSP))

	assert.NoError(cp.Tick())
	assert.Equal("abc", output.String())
}

func TestTrap_Halt(t *testing.T) {
	assert := assert.New(t)

	cp, _ := testCpu("")
	cp.Reg[R1] = 0x1234
	load(cp, MakeTrap(TRAP_HALT), MakeAddImm(R1, R1, 1))

	assert.NoError(cp.Tick())
	assert.True(cp.Halted())

	// No further fetch or mutation after HALT.
	assert.ErrorIs(cp.Tick(), ErrHalted)
	assert.Equal(uint16(0x1234), cp.Reg[R1])
	assert.Equal(uint16(mem.UserSpaceStart+1), cp.PC)
}
