package emulator

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/lc3/console"
	"github.com/ezrec/lc3/cpu"
	"github.com/ezrec/lc3/mem"
)

// testEmulator wires a machine to an in-memory console.
func testEmulator(input string) (emu *Emulator, output *bytes.Buffer) {
	output = &bytes.Buffer{}
	con := &console.Pipe{
		Input:  strings.NewReader(input),
		Output: output,
	}

	emu = NewEmulator(con)

	return
}

func TestEmulator_Load(t *testing.T) {
	assert := assert.New(t)

	emu, _ := testEmulator("")

	// Origin 0x3000, one program word.
	image := []byte{0x30, 0x00, 0x12, 0x34}
	err := emu.Load(bytes.NewReader(image))
	assert.NoError(err)
	assert.Equal(uint16(0x1234), emu.Mem.Read(0x3000))
	assert.Equal(uint16(0x3000), emu.Cpu.PC)

	// A HALT after the loaded word stops the machine one instruction in.
	emu.Mem.Write(0x3001, uint16(cpu.MakeTrap(cpu.TRAP_HALT)))
	err = emu.Run(context.Background())
	assert.NoError(err)
	assert.True(emu.Cpu.Halted())
	assert.Equal(uint16(0x1234), emu.Mem.Read(0x3000))
	assert.Equal(uint16(0x3002), emu.Cpu.PC)
}

func TestEmulator_LoadTruncated(t *testing.T) {
	assert := assert.New(t)

	emu, _ := testEmulator("")

	err := emu.Load(bytes.NewReader(nil))
	assert.ErrorIs(err, ErrImageTruncated)

	// An odd byte count cuts a word in half.
	err = emu.Load(bytes.NewReader([]byte{0x30, 0x00, 0x12}))
	assert.ErrorIs(err, ErrImageTruncated)
}

func TestEmulator_LoadTooLarge(t *testing.T) {
	assert := assert.New(t)

	emu, _ := testEmulator("")

	image := []byte{0xFF, 0xFF, 0x12, 0x34, 0x56, 0x78}
	err := emu.Load(bytes.NewReader(image))
	assert.ErrorIs(err, ErrImageTooLarge)
}

func TestEmulator_AssembleAndRun(t *testing.T) {
	assert := assert.New(t)

	emu, output := testEmulator("")

	prog, err := emu.Assemble(strings.NewReader(strings.Join([]string{
		".ORIG x3000",
		"LEA R0 MSG",
		"PUTS",
		"HALT",
		`MSG: .STRINGZ "Hello"`,
		".END",
	}, "\n")))
	assert.NoError(err)

	emu.LoadProgram(prog)
	err = emu.Run(context.Background())
	assert.NoError(err)
	assert.True(emu.Cpu.Halted())
	assert.Equal("Hello", output.String())
}

func TestEmulator_AssembleDefines(t *testing.T) {
	assert := assert.New(t)

	emu, _ := testEmulator("")

	// KBSR and TRAP_HALT come predefined from the machine.
	prog, err := emu.Assemble(strings.NewReader(strings.Join([]string{
		".ORIG x3000",
		"TRAP TRAP_HALT",
		".FILL KBSR",
	}, "\n")))
	assert.NoError(err)

	emu.LoadProgram(prog)
	assert.Equal(uint16(cpu.MakeTrap(cpu.TRAP_HALT)), emu.Mem.Read(0x3000))
	assert.Equal(uint16(mem.KBSR), emu.Mem.Read(0x3001))
}

func TestEmulator_Step(t *testing.T) {
	assert := assert.New(t)

	emu, _ := testEmulator("")

	prog, err := emu.Assemble(strings.NewReader(strings.Join([]string{
		".ORIG x3000",
		"ADD R0 R0 #1",
		"HALT",
	}, "\n")))
	assert.NoError(err)
	emu.LoadProgram(prog)

	done, err := emu.Step()
	assert.NoError(err)
	assert.False(done)
	assert.Equal(uint16(1), emu.Cpu.Reg[cpu.R0])

	done, err = emu.Step()
	assert.NoError(err)
	assert.True(done)

	// Stepping a halted machine is a no-op.
	done, err = emu.Step()
	assert.NoError(err)
	assert.True(done)
	assert.Equal(2, emu.Cpu.Ticks)
}

func TestEmulator_RuntimeError(t *testing.T) {
	assert := assert.New(t)

	emu, _ := testEmulator("")

	prog, err := emu.Assemble(strings.NewReader(strings.Join([]string{
		".ORIG x3000",
		".FILL xD000", // reserved opcode
	}, "\n")))
	assert.NoError(err)
	emu.LoadProgram(prog)

	err = emu.Run(context.Background())
	assert.ErrorIs(err, cpu.ErrOpcode{})

	var rterr *ErrRuntime
	assert.ErrorAs(err, &rterr)
	assert.Equal(uint16(0x3000), rterr.PC)
	assert.Equal(2, rterr.LineNo)
	assert.Contains(rterr.Error(), "line 2")
}

func TestEmulator_RuntimeErrorNoListing(t *testing.T) {
	assert := assert.New(t)

	emu, _ := testEmulator("")

	// Loaded from an image, no source listing is available.
	image := []byte{0x30, 0x00, 0xD0, 0x00}
	err := emu.Load(bytes.NewReader(image))
	assert.NoError(err)

	err = emu.Run(context.Background())

	var rterr *ErrRuntime
	assert.ErrorAs(err, &rterr)
	assert.Equal(0, rterr.LineNo)
	assert.NotContains(rterr.Error(), "line")
}

func TestEmulator_RunCancel(t *testing.T) {
	assert := assert.New(t)

	emu, _ := testEmulator("")

	prog, err := emu.Assemble(strings.NewReader(strings.Join([]string{
		".ORIG x3000",
		"LOOP: BRnzp LOOP",
	}, "\n")))
	assert.NoError(err)
	emu.LoadProgram(prog)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = emu.Run(ctx)
	assert.ErrorIs(err, context.Canceled)
	assert.False(emu.Cpu.Halted())
}

func TestEmulator_Reset(t *testing.T) {
	assert := assert.New(t)

	emu, _ := testEmulator("")

	emu.Mem.Write(0x3000, 0x1234)
	emu.Cpu.Reg[cpu.R0] = 42

	emu.Reset()
	assert.Equal(uint16(0), emu.Mem.Read(0x3000))
	assert.Equal(uint16(0), emu.Cpu.Reg[cpu.R0])
	assert.Equal(uint16(mem.UserSpaceStart), emu.Cpu.PC)
}
