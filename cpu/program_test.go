package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgram_Words(t *testing.T) {
	assert := assert.New(t)

	prog := &Program{
		Origin: 0x3000,
		Opcodes: []Opcode{
			{LineNo: 2, Addr: 0x3000, Codes: []uint16{0x1021}},
			{LineNo: 3, Addr: 0x3001, Codes: []uint16{0x0048, 0x0069, 0x0000}},
		},
	}

	var addrs []uint16
	var codes []uint16
	for addr, word := range prog.Words() {
		addrs = append(addrs, addr)
		codes = append(codes, word)
	}

	assert.Equal([]uint16{0x3000, 0x3001, 0x3002, 0x3003}, addrs)
	assert.Equal([]uint16{0x1021, 0x0048, 0x0069, 0x0000}, codes)
}

func TestProgram_Image(t *testing.T) {
	assert := assert.New(t)

	prog := &Program{
		Origin: 0x3000,
		Opcodes: []Opcode{
			{Addr: 0x3000, Codes: []uint16{0x1234, 0xBEEF}},
		},
	}

	assert.Equal([]byte{0x30, 0x00, 0x12, 0x34, 0xBE, 0xEF}, prog.Image())
}

func TestProgram_Debug(t *testing.T) {
	assert := assert.New(t)

	prog := &Program{
		Origin: 0x3000,
		Opcodes: []Opcode{
			{LineNo: 2, Addr: 0x3000, Codes: []uint16{0x1021}},
			{LineNo: 4, Addr: 0x3001, Codes: []uint16{0x0048, 0x0069, 0x0000}},
		},
	}

	dbg := prog.Debug(0x3000)
	assert.NotNil(dbg.Opcode)
	assert.Equal(2, dbg.Opcode.LineNo)
	assert.Equal(0, dbg.Index)

	// Middle of a multi-word opcode.
	dbg = prog.Debug(0x3002)
	assert.NotNil(dbg.Opcode)
	assert.Equal(4, dbg.Opcode.LineNo)
	assert.Equal(1, dbg.Index)

	dbg = prog.Debug(0x4000)
	assert.Nil(dbg.Opcode)

	assert.Equal(4, prog.LineNo(0x3003))
	assert.Equal(0, prog.LineNo(0x2FFF))
}
